package migrations

import (
	"gorm.io/gorm"

	"github.com/shashiranjanraj/bazaar/app/models"
	"github.com/shashiranjanraj/bazaar/pkg/migration"
)

func init() {
	migration.Register("20260101000000_create_users_table", &CreateUsersTable{})
	migration.Register("20260101000001_create_products_table", &CreateProductsTable{})
	migration.Register("20260101000002_create_reviews_table", &CreateReviewsTable{})
	migration.Register("20260101000003_create_requests_table", &CreateRequestsTable{})
}

// -------- 0000: users --------

type CreateUsersTable struct{}

func (m *CreateUsersTable) Up(db *gorm.DB) error {
	return db.AutoMigrate(&models.User{})
}

func (m *CreateUsersTable) Down(db *gorm.DB) error {
	return db.Migrator().DropTable(&models.User{})
}

// -------- 0001: products --------

type CreateProductsTable struct{}

func (m *CreateProductsTable) Up(db *gorm.DB) error {
	return db.AutoMigrate(&models.Product{})
}

func (m *CreateProductsTable) Down(db *gorm.DB) error {
	return db.Migrator().DropTable(&models.Product{})
}

// -------- 0002: reviews --------

type CreateReviewsTable struct{}

func (m *CreateReviewsTable) Up(db *gorm.DB) error {
	return db.AutoMigrate(&models.Review{})
}

func (m *CreateReviewsTable) Down(db *gorm.DB) error {
	return db.Migrator().DropTable(&models.Review{})
}

// -------- 0003: requests --------

type CreateRequestsTable struct{}

func (m *CreateRequestsTable) Up(db *gorm.DB) error {
	return db.AutoMigrate(&models.Request{})
}

func (m *CreateRequestsTable) Down(db *gorm.DB) error {
	return db.Migrator().DropTable(&models.Request{})
}

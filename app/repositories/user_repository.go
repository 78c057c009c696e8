package repositories

import (
	"context"

	"gorm.io/gorm"

	"github.com/shashiranjanraj/bazaar/app/models"
)

type UserRepository struct {
	db *gorm.DB
}

func NewUserRepository(db *gorm.DB) *UserRepository {
	return &UserRepository{db: db}
}

func (r *UserRepository) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	var u models.User
	err := r.db.WithContext(ctx).Where("email = ?", email).First(&u).Error
	if err != nil {
		return nil, wrap("users: find by email", err)
	}
	return &u, nil
}

func (r *UserRepository) FindByID(ctx context.Context, id string) (*models.User, error) {
	var u models.User
	if err := r.db.WithContext(ctx).First(&u, "id = ?", id).Error; err != nil {
		return nil, wrap("users: find", err)
	}
	return &u, nil
}

func (r *UserRepository) Create(ctx context.Context, u *models.User) error {
	return wrap("users: create", r.db.WithContext(ctx).Create(u).Error)
}

// Save writes every column of u, inserting it when the id is new.
func (r *UserRepository) Save(ctx context.Context, u *models.User) error {
	return wrap("users: save", r.db.WithContext(ctx).Save(u).Error)
}

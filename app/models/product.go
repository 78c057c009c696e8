package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Listing categories.
const (
	CategoryElectronics = "Electronics"
	CategoryVehicles    = "Vehicles"
	CategoryFurniture   = "Furniture"
	CategoryAppliances  = "Appliances"
	CategoryRealEstate  = "Real Estate"
)

// Categories is the closed set of listing categories, in display order.
var Categories = []string{
	CategoryElectronics,
	CategoryVehicles,
	CategoryFurniture,
	CategoryAppliances,
	CategoryRealEstate,
}

const (
	TypeSale = "sale"
	TypeRent = "rent"

	ConditionNew  = "new"
	ConditionUsed = "used"
)

// Seller is the listing owner as shown on the card.
type Seller struct {
	ID     string `gorm:"size:128;not null;index" json:"id"`
	Name   string `gorm:"size:255"                json:"name"`
	Avatar string `gorm:"size:1024"               json:"avatar"`
}

// Product is a marketplace listing.
type Product struct {
	ID          string    `gorm:"primaryKey;size:36"                   json:"id"`
	Title       string    `gorm:"size:120;not null;index"              json:"title"`
	Description string    `gorm:"type:text;not null"                   json:"description"`
	Price       float64   `gorm:"not null"                             json:"price"`
	Category    string    `gorm:"size:32;not null;index"               json:"category"`
	Type        string    `gorm:"size:8;not null"                      json:"type"`
	Condition   string    `gorm:"size:8;not null"                      json:"condition"`
	ImageURL    string    `gorm:"size:1024"                            json:"image_url"`
	ImagePath   string    `gorm:"size:512"                             json:"-"`
	Seller      Seller    `gorm:"embedded;embeddedPrefix:seller_"      json:"seller"`
	CreatedAt   time.Time `gorm:"index"                                json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

func (p *Product) BeforeCreate(*gorm.DB) error {
	if p.ID == "" {
		p.ID = uuid.NewString()
	}
	return nil
}

// OwnedBy reports whether userID is the listing's seller.
func (p *Product) OwnedBy(userID string) bool {
	return p != nil && userID != "" && p.Seller.ID == userID
}

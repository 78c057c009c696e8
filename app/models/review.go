package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Review is an append-only rating left on a listing.
type Review struct {
	ID        string    `gorm:"primaryKey;size:36"        json:"id"`
	ProductID string    `gorm:"size:36;not null;index"    json:"product_id"`
	UserID    string    `gorm:"size:128;not null;index"   json:"user_id"`
	User      string    `gorm:"size:255"                  json:"user"`
	Avatar    string    `gorm:"size:1024"                 json:"avatar"`
	Rating    int       `gorm:"not null"                  json:"rating"`
	Comment   string    `gorm:"type:text;not null"        json:"comment"`
	CreatedAt time.Time `gorm:"index"                     json:"created_at"`
}

func (r *Review) BeforeCreate(*gorm.DB) error {
	if r.ID == "" {
		r.ID = uuid.NewString()
	}
	return nil
}

package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

const (
	StatusPending  = "pending"
	StatusAccepted = "accepted"
	StatusRejected = "rejected"
)

// Request is a buyer's purchase or rental request on a listing.
type Request struct {
	ID           string     `gorm:"primaryKey;size:36"       json:"id"`
	ProductID    string     `gorm:"size:36;not null;index"   json:"product_id"`
	ProductTitle string     `gorm:"size:120"                 json:"product_title"`
	Kind         string     `gorm:"size:8;not null"          json:"kind"`
	BuyerID      string     `gorm:"size:128;not null;index"  json:"buyer_id"`
	BuyerName    string     `gorm:"size:255"                 json:"buyer_name"`
	SellerID     string     `gorm:"size:128;not null;index"  json:"seller_id"`
	Status       string     `gorm:"size:16;not null;index"   json:"status"`
	Message      string     `gorm:"type:text"                json:"message,omitempty"`
	StartDate    *time.Time `json:"start_date,omitempty"`
	EndDate      *time.Time `json:"end_date,omitempty"`
	CreatedAt    time.Time  `gorm:"index"                    json:"created_at"`
	UpdatedAt    time.Time  `json:"updated_at"`
}

func (r *Request) BeforeCreate(*gorm.DB) error {
	if r.ID == "" {
		r.ID = uuid.NewString()
	}
	if r.Status == "" {
		r.Status = StatusPending
	}
	return nil
}

// CanTransition reports whether status may move to to. Only pending
// requests move, and only to accepted or rejected.
func (r *Request) CanTransition(to string) bool {
	return r.Status == StatusPending && (to == StatusAccepted || to == StatusRejected)
}

package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// User is a marketplace account. Local accounts get a UUID; accounts from an
// external identity provider keep the provider's UID.
type User struct {
	ID        string    `gorm:"primaryKey;size:128"        json:"id"`
	Name      string    `gorm:"size:255"                   json:"name"`
	Email     *string   `gorm:"size:255;uniqueIndex"       json:"email,omitempty"`
	Password  string    `gorm:"size:255"                   json:"-"`
	AvatarURL string    `gorm:"size:1024"                  json:"avatar_url"`
	Provider  string    `gorm:"size:16;not null;default:local" json:"provider"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (u *User) BeforeCreate(*gorm.DB) error {
	if u.ID == "" {
		u.ID = uuid.NewString()
	}
	return nil
}

// EmailString returns the email or "".
func (u *User) EmailString() string {
	if u == nil || u.Email == nil {
		return ""
	}
	return *u.Email
}

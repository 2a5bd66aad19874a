package models

import (
	"gorm.io/gorm"
)

// User represents an account that owns leads, phone numbers and workflows
type User struct {
	gorm.Model

	// Authentication fields
	Email        string `gorm:"uniqueIndex;not null" json:"email"`
	PasswordHash string `gorm:"not null" json:"-"`

	// Profile information
	Name     *string `json:"name,omitempty"`
	Timezone string  `gorm:"default:'UTC'" json:"timezone"`

	// Account status
	IsActive bool `gorm:"default:true" json:"is_active"`

	// Relations
	PhoneNumbers []PhoneNumber `gorm:"foreignKey:OwnerID" json:"phone_numbers,omitempty"`
	Leads        []Lead        `gorm:"foreignKey:OwnerID" json:"-"`
}

// PhoneNumber is a provider number the owner can send from.
// At most one number per owner carries IsDefault.
type PhoneNumber struct {
	gorm.Model
	OwnerID uint `gorm:"not null;index" json:"owner_id"`

	Number       string `gorm:"not null;uniqueIndex" json:"number"` // E.164
	FriendlyName string `json:"friendly_name"`
	IsDefault    bool   `gorm:"default:false" json:"is_default"`
}

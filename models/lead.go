package models

import (
	"gorm.io/gorm"
)

// Lead represents a single contact owned by a user
type Lead struct {
	gorm.Model
	OwnerID uint `gorm:"not null;index" json:"owner_id"`

	Name    string `gorm:"not null" json:"name"`
	Phone   string `gorm:"index" json:"phone"` // empty when the lead has no SMS channel
	Email   string `gorm:"index" json:"email"`
	Company string `json:"company"`
	Source  string `json:"source"` // manual, api, import
}

// HasPhone reports whether the lead can be texted.
func (l *Lead) HasPhone() bool {
	return l != nil && l.Phone != ""
}

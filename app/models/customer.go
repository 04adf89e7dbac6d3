package models

import "time"

// Customer places orders and owns a private product catalogue.
type Customer struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	FullName  string    `gorm:"size:255;not null;index" json:"full_name"`
	Email     *string   `gorm:"size:255;uniqueIndex" json:"email"`
	Phone     string    `gorm:"size:32" json:"phone"`
	Products  []Product `gorm:"constraint:OnDelete:CASCADE" json:"products,omitempty"`
	Orders    []Order   `gorm:"constraint:OnDelete:CASCADE" json:"orders,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

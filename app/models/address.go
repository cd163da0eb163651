package models

import (
	"time"

	"gorm.io/gorm"
)

// Address is a user delivery address. Orders copy the fields they need at
// checkout time, so editing an address never rewrites order history.
type Address struct {
	ID           uint           `gorm:"primaryKey" json:"id"`
	UserID       uint           `gorm:"not null;index" json:"user_id"`
	Label        string         `gorm:"type:varchar(50);default:''" json:"label"`
	Street       string         `gorm:"type:varchar(200);not null" json:"street" validate:"required,max=200"`
	Number       string         `gorm:"type:varchar(20);not null" json:"number" validate:"required,max=20"`
	Complement   string         `gorm:"type:varchar(100);default:''" json:"complement"`
	Neighborhood string         `gorm:"type:varchar(100);default:''" json:"neighborhood"`
	City         string         `gorm:"type:varchar(100);not null" json:"city" validate:"required,max=100"`
	State        string         `gorm:"type:varchar(2);not null" json:"state" validate:"required,len=2"`
	CEP          string         `gorm:"type:varchar(8);not null;index" json:"cep" validate:"required,len=8,numeric"`
	IsDefault    bool           `gorm:"default:false" json:"is_default"`
	CreatedAt    time.Time      `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt    time.Time      `gorm:"autoUpdateTime" json:"updated_at"`
	DeletedAt    gorm.DeletedAt `gorm:"index" json:"-"`
}

package models

import (
	"time"

	"gorm.io/gorm"
)

type Category struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	Name      string    `gorm:"type:varchar(100);not null" json:"name"`
	Slug      string    `gorm:"type:varchar(120);uniqueIndex;not null" json:"slug"`
	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

type Product struct {
	ID                uint           `gorm:"primaryKey" json:"id"`
	Name              string         `gorm:"type:varchar(200);not null" json:"name" validate:"required,min=2,max=200"`
	Slug              string         `gorm:"type:varchar(220);uniqueIndex;not null" json:"slug" validate:"required"`
	Description       string         `gorm:"type:text" json:"description"`
	CategoryID        *uint          `gorm:"index" json:"category_id,omitempty"`
	Category          *Category      `gorm:"foreignKey:CategoryID" json:"category,omitempty"`
	Price             float64        `gorm:"not null" json:"price" validate:"gte=0"`
	CompareAtPrice    float64        `gorm:"default:0" json:"compare_at_price"`
	Stock             int            `gorm:"default:0" json:"stock"`
	ImageURL          string         `gorm:"type:varchar(255);default:''" json:"image_url"`
	ShippingProfileID *uint          `gorm:"index" json:"shipping_profile_id,omitempty"`
	IsActive          bool           `gorm:"default:true;index" json:"is_active"`
	CreatedAt         time.Time      `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt         time.Time      `gorm:"autoUpdateTime" json:"updated_at"`
	DeletedAt         gorm.DeletedAt `gorm:"index" json:"-"`
}

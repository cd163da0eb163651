package models

import (
	"time"

	"gorm.io/gorm"
)

const (
	PlanIntervalMonth = "month"
	PlanIntervalYear  = "year"
)

// Plan is a subscription product (recurring box). PriceMonthly is the amount
// charged each billing cycle through the gateway preapproval.
type Plan struct {
	ID                uint           `gorm:"primaryKey" json:"id"`
	Name              string         `gorm:"type:varchar(150);not null" json:"name" validate:"required,min=2,max=150"`
	Slug              string         `gorm:"type:varchar(170);uniqueIndex;not null" json:"slug" validate:"required"`
	Description       string         `gorm:"type:text" json:"description"`
	PriceMonthly      float64        `gorm:"not null" json:"price_monthly" validate:"gt=0"`
	BillingInterval   string         `gorm:"type:varchar(16);not null;default:'month'" json:"billing_interval"`
	ShippingProfileID *uint          `gorm:"index" json:"shipping_profile_id,omitempty"`
	IsActive          bool           `gorm:"default:true;index" json:"is_active"`
	CreatedAt         time.Time      `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt         time.Time      `gorm:"autoUpdateTime" json:"updated_at"`
	DeletedAt         gorm.DeletedAt `gorm:"index" json:"-"`
}

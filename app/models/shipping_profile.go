package models

import "time"

// ShippingProfile holds the weight/dimension envelope used to quote a
// shipment. Products and plans reference a profile; quoting falls back to a
// default profile when nothing references one.
type ShippingProfile struct {
	ID          uint      `gorm:"primaryKey" json:"id"`
	Name        string    `gorm:"type:varchar(100);not null" json:"name"`
	WeightGrams int       `gorm:"not null" json:"weight_grams" validate:"gt=0"`
	LengthCM    int       `gorm:"not null;default:16" json:"length_cm"`
	WidthCM     int       `gorm:"not null;default:11" json:"width_cm"`
	HeightCM    int       `gorm:"not null;default:6" json:"height_cm"`
	IsDefault   bool      `gorm:"default:false;index" json:"is_default"`
	CreatedAt   time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt   time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

// WeightKG returns the profile weight in kilograms.
func (p *ShippingProfile) WeightKG() float64 {
	return float64(p.WeightGrams) / 1000.0
}

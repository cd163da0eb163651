package models

import "time"

// Cart is keyed by a session token so guests can build a cart before they
// ever authenticate. A user id is attached once known.
type Cart struct {
	ID        uint       `gorm:"primaryKey" json:"id"`
	Token     string     `gorm:"type:varchar(36);uniqueIndex;not null" json:"token"`
	UserID    *uint      `gorm:"index" json:"user_id,omitempty"`
	Items     []CartItem `gorm:"foreignKey:CartID;constraint:OnDelete:CASCADE" json:"items"`
	CreatedAt time.Time  `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time  `gorm:"autoUpdateTime" json:"updated_at"`
}

type CartItem struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	CartID    uint      `gorm:"index;not null" json:"cart_id"`
	ProductID uint      `gorm:"index;not null" json:"product_id"`
	Product   *Product  `gorm:"foreignKey:ProductID" json:"product,omitempty"`
	// Snapshot of the product price when the item was added.
	UnitPrice float64   `gorm:"not null" json:"unit_price"`
	Quantity  int       `gorm:"not null;default:1" json:"quantity" validate:"gt=0"`
	AddedAt   time.Time `gorm:"autoCreateTime" json:"added_at"`
}

// Subtotal sums unit price times quantity across all items.
func (c *Cart) Subtotal() float64 {
	total := 0.0
	for _, item := range c.Items {
		total += item.UnitPrice * float64(item.Quantity)
	}
	return total
}

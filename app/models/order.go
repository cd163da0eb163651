package models

import (
	"time"

	"gorm.io/gorm"
)

const (
	OrderStatusPending   = "PENDING"
	OrderStatusPaid      = "PAID"
	OrderStatusShipped   = "SHIPPED"
	OrderStatusDelivered = "DELIVERED"
	OrderStatusCanceled  = "CANCELED"
)

// Order is created at checkout and only ever mutated by webhook
// reconciliation or admin actions. Cancellation is a status transition;
// orders are never deleted.
type Order struct {
	ID        uint   `gorm:"primaryKey" json:"id"`
	PublicID  string `gorm:"type:varchar(36);uniqueIndex;not null" json:"public_id"`
	UserID    uint   `gorm:"not null;index" json:"user_id"`
	User      *User  `gorm:"foreignKey:UserID" json:"user,omitempty"`
	Status    string `gorm:"type:varchar(20);not null;default:'PENDING';index" json:"status"`
	PlanID    *uint  `gorm:"index" json:"plan_id,omitempty"` // set for subscription orders

	Subtotal     float64 `gorm:"not null" json:"subtotal"`
	ShippingCost float64 `gorm:"not null;default:0" json:"shipping_cost"`
	Total        float64 `gorm:"not null" json:"total"`

	// Address snapshot taken at checkout.
	ShipStreet       string `gorm:"type:varchar(200);not null" json:"ship_street"`
	ShipNumber       string `gorm:"type:varchar(20);not null" json:"ship_number"`
	ShipComplement   string `gorm:"type:varchar(100);default:''" json:"ship_complement"`
	ShipNeighborhood string `gorm:"type:varchar(100);default:''" json:"ship_neighborhood"`
	ShipCity         string `gorm:"type:varchar(100);not null" json:"ship_city"`
	ShipState        string `gorm:"type:varchar(2);not null" json:"ship_state"`
	ShipCEP          string `gorm:"type:varchar(8);not null" json:"ship_cep"`

	// Shipping option snapshot.
	ShippingOptionID   string  `gorm:"type:varchar(40);default:''" json:"shipping_option_id"`
	ShippingOptionName string  `gorm:"type:varchar(100);default:''" json:"shipping_option_name"`
	EstimatedDays      int     `gorm:"default:0" json:"estimated_days"`

	Items    []OrderItem `gorm:"foreignKey:OrderID;constraint:OnDelete:CASCADE" json:"items"`
	Payments []Payment   `gorm:"foreignKey:OrderID" json:"payments,omitempty"`

	CreatedAt time.Time      `gorm:"autoCreateTime;index" json:"created_at"`
	UpdatedAt time.Time      `gorm:"autoUpdateTime" json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
}

type OrderItem struct {
	ID        uint    `gorm:"primaryKey" json:"id"`
	OrderID   uint    `gorm:"index;not null" json:"order_id"`
	ProductID *uint   `gorm:"index" json:"product_id,omitempty"`
	// Snapshot of product data at purchase time.
	Name      string  `gorm:"type:varchar(200);not null" json:"name"`
	UnitPrice float64 `gorm:"not null" json:"unit_price"`
	Quantity  int     `gorm:"not null" json:"quantity"`
	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
}

// IsTerminal reports whether the order status admits no further transitions.
func (o *Order) IsTerminal() bool {
	return o.Status == OrderStatusDelivered || o.Status == OrderStatusCanceled
}

// CanTransitionTo enforces the forward-only admin transition chain
// PENDING -> PAID -> SHIPPED -> DELIVERED, with CANCELED reachable from any
// non-terminal status.
func (o *Order) CanTransitionTo(next string) bool {
	if o.IsTerminal() {
		return false
	}
	if next == OrderStatusCanceled {
		return true
	}
	rank := map[string]int{
		OrderStatusPending:   0,
		OrderStatusPaid:      1,
		OrderStatusShipped:   2,
		OrderStatusDelivered: 3,
	}
	cur, okCur := rank[o.Status]
	nxt, okNext := rank[next]
	return okCur && okNext && nxt == cur+1
}

package models

import (
	"strings"
	"time"
)

const (
	PaymentStatusPending  = "PENDING"
	PaymentStatusPaid     = "PAID"
	PaymentStatusFailed   = "FAILED"
	PaymentStatusRefunded = "REFUNDED"
	PaymentStatusCanceled = "CANCELED"
)

const (
	PaymentProviderMercadoPago = "mercadopago"

	PaymentMethodPix        = "pix"
	PaymentMethodCreditCard = "credit_card"
)

// Payment mirrors one gateway charge attempt for an order. The raw provider
// payload is kept for auditing; status checks use the most recent row.
type Payment struct {
	ID                uint   `gorm:"primaryKey" json:"id"`
	OrderID           uint   `gorm:"not null;index" json:"order_id"`
	Provider          string `gorm:"type:varchar(20);not null;default:'mercadopago'" json:"provider"`
	ProviderPaymentID string `gorm:"type:varchar(64);not null;index:ux_payments_provider_payment,unique" json:"provider_payment_id"`
	Method            string `gorm:"type:varchar(20);not null" json:"method"`
	Status            string `gorm:"type:varchar(20);not null;default:'PENDING';index" json:"status"`
	Amount            float64 `gorm:"not null" json:"amount"`
	RawPayloadJSON    string  `gorm:"type:longtext" json:"-"`

	// PIX materials for client display and polling.
	QRCode       string     `gorm:"type:text" json:"qr_code,omitempty"`
	QRCodeBase64 string     `gorm:"type:longtext" json:"-"`
	TicketURL    string     `gorm:"type:varchar(255);default:''" json:"ticket_url,omitempty"`
	ExpiresAt    *time.Time `gorm:"type:timestamp;default:null" json:"expires_at,omitempty"`

	CreatedAt time.Time `gorm:"autoCreateTime;index" json:"created_at"`
	UpdatedAt time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

// IsTerminal reports whether the payment reached a final provider state.
func (p *Payment) IsTerminal() bool {
	switch p.Status {
	case PaymentStatusPaid, PaymentStatusFailed, PaymentStatusRefunded, PaymentStatusCanceled:
		return true
	default:
		return false
	}
}

// IsPreapprovalPlaceholder reports whether this row stands in for a recurring
// agreement rather than a concrete gateway charge. Placeholders cannot be
// re-fetched through the payments API.
func (p *Payment) IsPreapprovalPlaceholder() bool {
	return strings.HasPrefix(p.ProviderPaymentID, "preapproval:")
}

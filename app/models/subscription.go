package models

import "time"

const (
	SubscriptionStatusActive   = "ACTIVE"
	SubscriptionStatusPaused   = "PAUSED"
	SubscriptionStatusCanceled = "CANCELED"
)

// Subscription tracks a recurring-billing agreement with the gateway.
//
// ActiveKey is the uniqueness trick for "at most one ACTIVE subscription per
// user": it holds the user id while the subscription is ACTIVE and is NULL
// otherwise, so the unique index only bites for concurrent ACTIVE
// rows. Concurrent webhook deliveries racing the existence check hit the
// index instead of creating duplicates.
type Subscription struct {
	ID                    uint       `gorm:"primaryKey" json:"id"`
	UserID                uint       `gorm:"not null;index" json:"user_id"`
	User                  *User      `gorm:"foreignKey:UserID" json:"user,omitempty"`
	PlanID                uint       `gorm:"not null;index" json:"plan_id"`
	Plan                  *Plan      `gorm:"foreignKey:PlanID" json:"plan,omitempty"`
	Status                string     `gorm:"type:varchar(20);not null;default:'ACTIVE';index" json:"status"`
	ActiveKey             *uint      `gorm:"uniqueIndex:ux_subscriptions_one_active" json:"-"`
	Provider              string     `gorm:"type:varchar(20);not null;default:'mercadopago'" json:"provider"`
	ProviderPreapprovalID string     `gorm:"type:varchar(64);not null;index:ux_subscriptions_provider_preapproval,unique" json:"provider_preapproval_id"`
	Amount                float64    `gorm:"not null" json:"amount"`
	StartedAt             time.Time  `gorm:"not null" json:"started_at"`
	PausedAt              *time.Time `gorm:"type:timestamp;default:null" json:"paused_at,omitempty"`
	CanceledAt            *time.Time `gorm:"type:timestamp;default:null" json:"canceled_at,omitempty"`
	NextBillingAt         *time.Time `gorm:"type:timestamp;default:null" json:"next_billing_at,omitempty"`

	Cycles []SubscriptionCycle `gorm:"foreignKey:SubscriptionID" json:"cycles,omitempty"`

	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

// MarkActive sets status and the active-uniqueness key.
func (s *Subscription) MarkActive() {
	s.Status = SubscriptionStatusActive
	uid := s.UserID
	s.ActiveKey = &uid
	s.PausedAt = nil
}

// MarkPaused releases the active-uniqueness key.
func (s *Subscription) MarkPaused(at time.Time) {
	s.Status = SubscriptionStatusPaused
	s.ActiveKey = nil
	s.PausedAt = &at
}

// MarkCanceled releases the active-uniqueness key and stamps cancellation.
func (s *Subscription) MarkCanceled(at time.Time) {
	s.Status = SubscriptionStatusCanceled
	s.ActiveKey = nil
	s.CanceledAt = &at
	s.NextBillingAt = nil
}

// SubscriptionCycle records one recurring-charge period.
type SubscriptionCycle struct {
	ID             uint      `gorm:"primaryKey" json:"id"`
	SubscriptionID uint      `gorm:"not null;index" json:"subscription_id"`
	Sequence       int       `gorm:"not null" json:"sequence"`
	Amount         float64   `gorm:"not null" json:"amount"`
	PaymentID      *uint     `gorm:"index" json:"payment_id,omitempty"`
	// Provider payment id of the charge that opened this cycle, used to
	// dedupe renewal webhooks.
	ProviderPaymentID string    `gorm:"type:varchar(64);not null;default:'';index:ux_subscription_cycles_provider_payment,unique" json:"provider_payment_id"`
	BilledAt          time.Time `gorm:"not null" json:"billed_at"`
	CreatedAt         time.Time `gorm:"autoCreateTime" json:"created_at"`
}

package billing

import (
	"context"

	"github.com/headshop-br/headshop/internal/pkg/mercadopago"
)

// Gateway is the slice of the payment-processor client the reconciler needs.
// Handlers inject the real client; tests inject a double.
type Gateway interface {
	GetPayment(ctx context.Context, paymentID string) (*mercadopago.Payment, []byte, error)
	GetPreapproval(ctx context.Context, preapprovalID string) (*mercadopago.Preapproval, []byte, error)
	UpdatePreapprovalStatus(ctx context.Context, preapprovalID, status string) (*mercadopago.Preapproval, error)
}

// Notifier abstracts the post-transition email jobs so reconciliation tests
// run without Redis.
type Notifier interface {
	OrderPaid(orderID uint)
	SubscriptionRenewed(subscriptionID uint, cycleSequence int)
	SubscriptionCanceled(subscriptionID uint)
}

// WebhookEventInput is the normalized input for webhook event persistence.
type WebhookEventInput struct {
	Provider        string
	ProviderEventID string
	EventType       string
	PayloadJSON     string
	SignatureValid  bool
}

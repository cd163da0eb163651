package mercadopago

import (
	"strings"

	"github.com/headshop-br/headshop/app/models"
)

// Preapproval status vocabulary used by the gateway.
const (
	PreapprovalStatusPending    = "pending"
	PreapprovalStatusAuthorized = "authorized"
	PreapprovalStatusPaused     = "paused"
	PreapprovalStatusCancelled  = "cancelled"
)

// MapPaymentStatus folds the gateway payment status vocabulary into the
// internal five-value enum. Unknown codes map to PENDING so an unmapped
// provider state never flips a payment into a terminal status.
func MapPaymentStatus(providerStatus string) string {
	switch strings.ToLower(strings.TrimSpace(providerStatus)) {
	case "approved":
		return models.PaymentStatusPaid
	case "pending", "in_process", "in_mediation", "authorized":
		return models.PaymentStatusPending
	case "rejected":
		return models.PaymentStatusFailed
	case "refunded", "charged_back":
		return models.PaymentStatusRefunded
	case "cancelled":
		return models.PaymentStatusCanceled
	default:
		return models.PaymentStatusPending
	}
}

// MapPreapprovalStatus folds the gateway preapproval status into the
// subscription lifecycle enum. Only an authorized agreement activates a
// subscription; pending and unknown states stay PAUSED so an unmapped code
// never turns billing back on.
func MapPreapprovalStatus(providerStatus string) string {
	switch strings.ToLower(strings.TrimSpace(providerStatus)) {
	case PreapprovalStatusAuthorized:
		return models.SubscriptionStatusActive
	case PreapprovalStatusCancelled:
		return models.SubscriptionStatusCanceled
	default:
		return models.SubscriptionStatusPaused
	}
}

package mercadopago

import "time"

// PaymentRequest is the body for POST /v1/payments. Card payments carry only
// a single-use token produced by the client-side SDK; raw card data never
// reaches this backend.
type PaymentRequest struct {
	TransactionAmount float64           `json:"transaction_amount"`
	Description       string            `json:"description"`
	PaymentMethodID   string            `json:"payment_method_id"`
	Token             string            `json:"token,omitempty"`
	Installments      int               `json:"installments,omitempty"`
	IssuerID          string            `json:"issuer_id,omitempty"`
	ExternalReference string            `json:"external_reference,omitempty"`
	DateOfExpiration  *time.Time        `json:"date_of_expiration,omitempty"`
	Payer             Payer             `json:"payer"`
	Metadata          map[string]string `json:"metadata,omitempty"`
}

type Payer struct {
	Email          string          `json:"email"`
	FirstName      string          `json:"first_name,omitempty"`
	LastName       string          `json:"last_name,omitempty"`
	Identification *Identification `json:"identification,omitempty"`
}

type Identification struct {
	Type   string `json:"type"` // CPF
	Number string `json:"number"`
}

// Payment is the authoritative payment state returned by the gateway. Only
// the fields this backend acts on are decoded; the raw body is archived
// separately.
type Payment struct {
	ID                int64             `json:"id"`
	Status            string            `json:"status"`
	StatusDetail      string            `json:"status_detail"`
	TransactionAmount float64           `json:"transaction_amount"`
	PaymentMethodID   string            `json:"payment_method_id"`
	ExternalReference string            `json:"external_reference"`
	DateOfExpiration  *time.Time        `json:"date_of_expiration"`
	DateApproved      *time.Time        `json:"date_approved"`
	Metadata          map[string]string `json:"metadata"`

	PointOfInteraction *PointOfInteraction `json:"point_of_interaction,omitempty"`
}

type PointOfInteraction struct {
	TransactionData *TransactionData `json:"transaction_data,omitempty"`
}

// TransactionData carries the PIX QR materials.
type TransactionData struct {
	QRCode       string `json:"qr_code"`
	QRCodeBase64 string `json:"qr_code_base64"`
	TicketURL    string `json:"ticket_url"`
}

// PreapprovalRequest creates a recurring-billing agreement.
type PreapprovalRequest struct {
	Reason            string        `json:"reason"`
	ExternalReference string        `json:"external_reference"`
	PayerEmail        string        `json:"payer_email"`
	CardTokenID       string        `json:"card_token_id"`
	BackURL           string        `json:"back_url,omitempty"`
	Status            string        `json:"status,omitempty"` // "authorized" starts charging immediately
	AutoRecurring     AutoRecurring `json:"auto_recurring"`
}

type AutoRecurring struct {
	Frequency         int     `json:"frequency"`
	FrequencyType     string  `json:"frequency_type"` // "months"
	TransactionAmount float64 `json:"transaction_amount"`
	CurrencyID        string  `json:"currency_id"` // BRL
}

// Preapproval is the recurring agreement state returned by the gateway.
type Preapproval struct {
	ID                string     `json:"id"`
	Status            string     `json:"status"` // pending, authorized, paused, cancelled
	Reason            string     `json:"reason"`
	ExternalReference string     `json:"external_reference"`
	PayerEmail        string     `json:"payer_email"`
	NextPaymentDate   *time.Time `json:"next_payment_date"`
	DateCreated       *time.Time `json:"date_created"`

	AutoRecurring *AutoRecurring `json:"auto_recurring,omitempty"`
}

// WebhookNotification is the modern JSON callback body. Only type/action and
// the entity id are trusted; everything else is re-fetched from the API.
type WebhookNotification struct {
	ID     int64  `json:"id"`
	Type   string `json:"type"`
	Action string `json:"action"`
	Data   struct {
		ID string `json:"id"`
	} `json:"data"`
}

type apiError struct {
	Message string `json:"message"`
	Error   string `json:"error"`
	Status  int    `json:"status"`
	Cause   []struct {
		Code        any    `json:"code"`
		Description string `json:"description"`
	} `json:"cause"`
}

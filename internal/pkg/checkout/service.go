package checkout

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"github.com/headshop-br/headshop/app/models"
	"github.com/headshop-br/headshop/app/repository"
	"github.com/headshop-br/headshop/internal/pkg/billing"
	"github.com/headshop-br/headshop/internal/pkg/mercadopago"
	"github.com/headshop-br/headshop/internal/pkg/shipping"
)

// pixExpirationDefault is applied when the gateway response omits an
// expiration for a pending instant-transfer charge.
const pixExpirationDefault = 30 * time.Minute

// ValidationError carries the localized message shown to the customer.
// Checkout rejects locally, before any gateway call, when the request is
// structurally incomplete.
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string { return e.Message }

// GatewayDeclineError maps a gateway refusal to the localized message table.
type GatewayDeclineError struct {
	StatusDetail string
}

func (e *GatewayDeclineError) Error() string {
	return mercadopago.DeclineMessage(e.StatusDetail)
}

// PaymentInput is the client-submitted payment selection. Card payments
// carry only the single-use token minted by the gateway's browser SDK.
type PaymentInput struct {
	Method       string `json:"method" validate:"required,oneof=pix credit_card"`
	CardToken    string `json:"cardToken,omitempty"`
	Installments int    `json:"installments,omitempty"`
	IssuerID     string `json:"issuerId,omitempty"`
	PayerEmail   string `json:"payerEmail,omitempty"`
	PayerCPF     string `json:"payerCpf,omitempty"`
}

// SubscriptionInput selects a plan checkout.
type SubscriptionInput struct {
	PlanSlug       string           `json:"planSlug" validate:"required"`
	AddressID      uint             `json:"addressId" validate:"required"`
	ShippingOption *shipping.Option `json:"shippingOption" validate:"required"`
	PaymentData    PaymentInput     `json:"paymentData" validate:"required"`
}

// OrderInput selects a cart checkout.
type OrderInput struct {
	CartToken      string           `json:"cartToken" validate:"required"`
	AddressID      uint             `json:"addressId" validate:"required"`
	ShippingOption *shipping.Option `json:"shippingOption" validate:"required"`
	PaymentData    PaymentInput     `json:"paymentData" validate:"required"`
}

// Result is returned to the client for display and polling.
type Result struct {
	OrderID       string     `json:"orderId"`
	PaymentID     uint       `json:"paymentId"`
	Status        string     `json:"status"`
	QRCode        string     `json:"qrCode,omitempty"`
	QRCodeBase64  string     `json:"qrCodeBase64,omitempty"`
	TicketURL     string     `json:"ticketUrl,omitempty"`
	ExpiresAt     *time.Time `json:"expiresAt,omitempty"`
	PreapprovalID string     `json:"preapprovalId,omitempty"`
}

// Gateway is the slice of the payment client checkout needs.
type Gateway interface {
	CreatePayment(ctx context.Context, req *mercadopago.PaymentRequest) (*mercadopago.Payment, []byte, error)
	CreatePreapproval(ctx context.Context, req *mercadopago.PreapprovalRequest) (*mercadopago.Preapproval, []byte, error)
}

// Service orchestrates checkout: validate, charge, persist.
type Service struct {
	repos    *repository.Repositories
	gateway  Gateway
	validate *validator.Validate
}

// NewService wires a checkout service.
func NewService(repos *repository.Repositories, gateway Gateway) *Service {
	return &Service{
		repos:    repos,
		gateway:  gateway,
		validate: validator.New(),
	}
}

// CheckoutSubscription charges the first cycle of a plan. Card payments open
// a recurring agreement; PIX charges a single payment tagged with plan
// metadata so the webhook reconciler creates the subscription on approval.
func (s *Service) CheckoutSubscription(ctx context.Context, userID uint, in SubscriptionInput) (*Result, error) {
	if err := s.validateInput(in, in.AddressID, in.ShippingOption, in.PaymentData); err != nil {
		return nil, err
	}

	plan, err := s.repos.Plan.GetBySlug(in.PlanSlug)
	if err != nil {
		return nil, &ValidationError{Message: "Plano não encontrado."}
	}
	user, err := s.repos.User.GetByID(userID)
	if err != nil {
		return nil, fmt.Errorf("lookup user %d: %w", userID, err)
	}
	address, err := s.repos.Address.GetByIDForUser(in.AddressID, userID)
	if err != nil {
		return nil, &ValidationError{Message: "Endereço de entrega não encontrado."}
	}

	order := s.buildOrder(userID, address, in.ShippingOption)
	order.PlanID = &plan.ID
	order.Subtotal = plan.PriceMonthly
	order.Total = plan.PriceMonthly + in.ShippingOption.Price
	order.Items = []models.OrderItem{{
		Name:      plan.Name,
		UnitPrice: plan.PriceMonthly,
		Quantity:  1,
	}}
	if err := s.repos.Order.Create(order); err != nil {
		return nil, fmt.Errorf("persist order: %w", err)
	}

	payerEmail := in.PaymentData.PayerEmail
	if payerEmail == "" {
		payerEmail = user.Email
	}

	if in.PaymentData.Method == models.PaymentMethodCreditCard {
		return s.subscribeWithCard(ctx, order, plan, userID, payerEmail, in.PaymentData)
	}
	return s.payWithPix(ctx, order, payerEmail, in.PaymentData.PayerCPF, map[string]string{
		"user_id": strconv.FormatUint(uint64(userID), 10),
		"plan_id": strconv.FormatUint(uint64(plan.ID), 10),
	})
}

// CheckoutOrder charges a one-off cart purchase.
func (s *Service) CheckoutOrder(ctx context.Context, userID uint, in OrderInput) (*Result, error) {
	if err := s.validateInput(in, in.AddressID, in.ShippingOption, in.PaymentData); err != nil {
		return nil, err
	}

	cart, err := s.repos.Cart.GetByToken(in.CartToken)
	if err != nil || len(cart.Items) == 0 {
		return nil, &ValidationError{Message: "Seu carrinho está vazio."}
	}
	user, err := s.repos.User.GetByID(userID)
	if err != nil {
		return nil, fmt.Errorf("lookup user %d: %w", userID, err)
	}
	address, err := s.repos.Address.GetByIDForUser(in.AddressID, userID)
	if err != nil {
		return nil, &ValidationError{Message: "Endereço de entrega não encontrado."}
	}

	order := s.buildOrder(userID, address, in.ShippingOption)
	order.Subtotal = cart.Subtotal()
	order.Total = order.Subtotal + in.ShippingOption.Price
	for _, item := range cart.Items {
		name := ""
		if item.Product != nil {
			name = item.Product.Name
		}
		productID := item.ProductID
		order.Items = append(order.Items, models.OrderItem{
			ProductID: &productID,
			Name:      name,
			UnitPrice: item.UnitPrice,
			Quantity:  item.Quantity,
		})
	}
	if err := s.repos.Order.Create(order); err != nil {
		return nil, fmt.Errorf("persist order: %w", err)
	}

	payerEmail := in.PaymentData.PayerEmail
	if payerEmail == "" {
		payerEmail = user.Email
	}

	var result *Result
	if in.PaymentData.Method == models.PaymentMethodCreditCard {
		result, err = s.payWithCard(ctx, order, payerEmail, in.PaymentData)
	} else {
		result, err = s.payWithPix(ctx, order, payerEmail, in.PaymentData.PayerCPF, nil)
	}
	if err != nil {
		return nil, err
	}

	// Cart survives a declined card so the customer can retry.
	if result.Status != models.PaymentStatusFailed {
		if clearErr := s.repos.Cart.Clear(cart.ID); clearErr != nil {
			return result, fmt.Errorf("clear cart %d: %w", cart.ID, clearErr)
		}
	}
	return result, nil
}

// validateInput rejects locally, before any network call, when address,
// shipping selection or payment method is absent.
func (s *Service) validateInput(in any, addressID uint, option *shipping.Option, payment PaymentInput) error {
	if addressID == 0 {
		return &ValidationError{Message: "Selecione um endereço de entrega."}
	}
	if option == nil || option.Price < 0 || option.Name == "" {
		return &ValidationError{Message: "Selecione uma opção de frete."}
	}
	if payment.Method == "" {
		return &ValidationError{Message: "Selecione um meio de pagamento."}
	}
	if payment.Method == models.PaymentMethodCreditCard && payment.CardToken == "" {
		return &ValidationError{Message: "Dados do cartão inválidos. Recarregue a página e tente novamente."}
	}
	if err := s.validate.Struct(in); err != nil {
		return &ValidationError{Message: "Dados de checkout incompletos."}
	}
	return nil
}

func (s *Service) buildOrder(userID uint, address *models.Address, option *shipping.Option) *models.Order {
	return &models.Order{
		PublicID:         uuid.New().String(),
		UserID:           userID,
		Status:           models.OrderStatusPending,
		ShipStreet:       address.Street,
		ShipNumber:       address.Number,
		ShipComplement:   address.Complement,
		ShipNeighborhood: address.Neighborhood,
		ShipCity:         address.City,
		ShipState:        address.State,
		ShipCEP:          address.CEP,
		ShippingCost:     option.Price,
		ShippingOptionID: option.ID,
		ShippingOptionName: option.Name,
		EstimatedDays:    option.EstimatedDays,
	}
}

// payWithPix creates an instant-transfer charge and returns the QR materials
// for client display and polling.
func (s *Service) payWithPix(ctx context.Context, order *models.Order, payerEmail, payerCPF string, metadata map[string]string) (*Result, error) {
	expires := time.Now().Add(pixExpirationDefault)
	req := &mercadopago.PaymentRequest{
		TransactionAmount: order.Total,
		Description:       "Pedido " + order.PublicID,
		PaymentMethodID:   "pix",
		ExternalReference: order.PublicID,
		DateOfExpiration:  &expires,
		Payer:             buildPayer(payerEmail, payerCPF),
		Metadata:          metadata,
	}

	gwPayment, raw, err := s.gateway.CreatePayment(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("create pix payment: %w", err)
	}

	payment := s.buildPaymentRow(order, gwPayment, models.PaymentMethodPix, raw)
	if gwPayment.DateOfExpiration != nil {
		payment.ExpiresAt = gwPayment.DateOfExpiration
	} else {
		payment.ExpiresAt = &expires
	}
	if td := transactionData(gwPayment); td != nil {
		payment.QRCode = td.QRCode
		payment.QRCodeBase64 = td.QRCodeBase64
		payment.TicketURL = td.TicketURL
	}
	if err := s.repos.Payment.Create(payment); err != nil {
		return nil, fmt.Errorf("persist payment: %w", err)
	}

	return &Result{
		OrderID:      order.PublicID,
		PaymentID:    payment.ID,
		Status:       payment.Status,
		QRCode:       payment.QRCode,
		QRCodeBase64: payment.QRCodeBase64,
		TicketURL:    payment.TicketURL,
		ExpiresAt:    payment.ExpiresAt,
	}, nil
}

// payWithCard charges a tokenized card and returns the immediate outcome.
func (s *Service) payWithCard(ctx context.Context, order *models.Order, payerEmail string, in PaymentInput) (*Result, error) {
	installments := in.Installments
	if installments <= 0 {
		installments = 1
	}
	req := &mercadopago.PaymentRequest{
		TransactionAmount: order.Total,
		Description:       "Pedido " + order.PublicID,
		PaymentMethodID:   models.PaymentMethodCreditCard,
		Token:             in.CardToken,
		Installments:      installments,
		IssuerID:          in.IssuerID,
		ExternalReference: order.PublicID,
		Payer:             buildPayer(payerEmail, in.PayerCPF),
	}

	gwPayment, raw, err := s.gateway.CreatePayment(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("create card payment: %w", err)
	}

	payment := s.buildPaymentRow(order, gwPayment, models.PaymentMethodCreditCard, raw)
	if err := s.repos.Payment.Create(payment); err != nil {
		return nil, fmt.Errorf("persist payment: %w", err)
	}

	if payment.Status == models.PaymentStatusPaid {
		if err := s.repos.Order.UpdateStatus(order.ID, models.OrderStatusPaid); err != nil {
			return nil, fmt.Errorf("mark order paid: %w", err)
		}
	}
	if payment.Status == models.PaymentStatusFailed {
		return nil, &GatewayDeclineError{StatusDetail: gwPayment.StatusDetail}
	}

	return &Result{
		OrderID:   order.PublicID,
		PaymentID: payment.ID,
		Status:    payment.Status,
	}, nil
}

// subscribeWithCard opens a recurring agreement for the plan. The first
// charge and all renewals arrive as webhook notifications.
func (s *Service) subscribeWithCard(ctx context.Context, order *models.Order, plan *models.Plan, userID uint, payerEmail string, in PaymentInput) (*Result, error) {
	req := &mercadopago.PreapprovalRequest{
		Reason:            "Assinatura " + plan.Name,
		ExternalReference: billing.BuildExternalReference(userID, plan.ID),
		PayerEmail:        payerEmail,
		CardTokenID:       in.CardToken,
		Status:            "authorized",
		AutoRecurring: mercadopago.AutoRecurring{
			Frequency:         1,
			FrequencyType:     "months",
			TransactionAmount: plan.PriceMonthly + order.ShippingCost,
			CurrencyID:        "BRL",
		},
	}

	pre, raw, err := s.gateway.CreatePreapproval(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("create preapproval: %w", err)
	}

	// The agreement itself is not a charge; record a pending payment row so
	// status polling has something to watch until the first cycle lands.
	payment := &models.Payment{
		OrderID:           order.ID,
		Provider:          models.PaymentProviderMercadoPago,
		ProviderPaymentID: "preapproval:" + pre.ID,
		Method:            models.PaymentMethodCreditCard,
		Status:            models.PaymentStatusPending,
		Amount:            order.Total,
		RawPayloadJSON:    string(raw),
	}
	if err := s.repos.Payment.Create(payment); err != nil {
		return nil, fmt.Errorf("persist payment: %w", err)
	}

	return &Result{
		OrderID:       order.PublicID,
		PaymentID:     payment.ID,
		Status:        payment.Status,
		PreapprovalID: pre.ID,
	}, nil
}

func (s *Service) buildPaymentRow(order *models.Order, gwPayment *mercadopago.Payment, method string, raw []byte) *models.Payment {
	return &models.Payment{
		OrderID:           order.ID,
		Provider:          models.PaymentProviderMercadoPago,
		ProviderPaymentID: strconv.FormatInt(gwPayment.ID, 10),
		Method:            method,
		Status:            mercadopago.MapPaymentStatus(gwPayment.Status),
		Amount:            gwPayment.TransactionAmount,
		RawPayloadJSON:    string(raw),
	}
}

func buildPayer(email, cpf string) mercadopago.Payer {
	payer := mercadopago.Payer{Email: email}
	if cpf != "" {
		payer.Identification = &mercadopago.Identification{Type: "CPF", Number: cpf}
	}
	return payer
}

// IsValidationError reports whether err should surface as a 400 with its
// message instead of a generic failure.
func IsValidationError(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}

// IsGatewayDecline reports whether err is a mapped card refusal.
func IsGatewayDecline(err error) bool {
	var ge *GatewayDeclineError
	return errors.As(err, &ge)
}

func transactionData(p *mercadopago.Payment) *mercadopago.TransactionData {
	if p.PointOfInteraction == nil {
		return nil
	}
	return p.PointOfInteraction.TransactionData
}

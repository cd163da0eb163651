package checkout

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/headshop-br/headshop/app/models"
	"github.com/headshop-br/headshop/app/repository"
	"github.com/headshop-br/headshop/internal/pkg/mercadopago"
	"github.com/headshop-br/headshop/internal/pkg/shipping"
)

// Stubs embed the repository interfaces and override only what checkout
// touches; an unexpected call panics on the nil embedded interface.

type stubUserRepo struct {
	repository.UserRepository
	user *models.User
}

func (s *stubUserRepo) GetByID(uint) (*models.User, error) {
	if s.user == nil {
		return nil, gorm.ErrRecordNotFound
	}
	return s.user, nil
}

type stubAddressRepo struct {
	repository.AddressRepository
	address *models.Address
}

func (s *stubAddressRepo) GetByIDForUser(uint, uint) (*models.Address, error) {
	if s.address == nil {
		return nil, gorm.ErrRecordNotFound
	}
	return s.address, nil
}

type stubPlanRepo struct {
	repository.PlanRepository
	plan *models.Plan
}

func (s *stubPlanRepo) GetBySlug(string) (*models.Plan, error) {
	if s.plan == nil {
		return nil, gorm.ErrRecordNotFound
	}
	return s.plan, nil
}

type stubCartRepo struct {
	repository.CartRepository
	cart    *models.Cart
	cleared bool
}

func (s *stubCartRepo) GetByToken(string) (*models.Cart, error) {
	if s.cart == nil {
		return nil, gorm.ErrRecordNotFound
	}
	return s.cart, nil
}

func (s *stubCartRepo) Clear(uint) error {
	s.cleared = true
	return nil
}

type stubOrderRepo struct {
	repository.OrderRepository
	created *models.Order
	status  string
}

func (s *stubOrderRepo) Create(order *models.Order) error {
	order.ID = 1
	s.created = order
	return nil
}

func (s *stubOrderRepo) UpdateStatus(_ uint, status string) error {
	s.status = status
	return nil
}

type stubPaymentRepo struct {
	repository.PaymentRepository
	created *models.Payment
}

func (s *stubPaymentRepo) Create(payment *models.Payment) error {
	payment.ID = 1
	s.created = payment
	return nil
}

type stubGateway struct {
	payment     *mercadopago.Payment
	preapproval *mercadopago.Preapproval
	calls       int
}

func (s *stubGateway) CreatePayment(context.Context, *mercadopago.PaymentRequest) (*mercadopago.Payment, []byte, error) {
	s.calls++
	return s.payment, []byte(`{}`), nil
}

func (s *stubGateway) CreatePreapproval(context.Context, *mercadopago.PreapprovalRequest) (*mercadopago.Preapproval, []byte, error) {
	s.calls++
	return s.preapproval, []byte(`{}`), nil
}

type checkoutFixture struct {
	svc      *Service
	users    *stubUserRepo
	address  *stubAddressRepo
	plans    *stubPlanRepo
	carts    *stubCartRepo
	orders   *stubOrderRepo
	payments *stubPaymentRepo
	gateway  *stubGateway
}

func newCheckoutFixture() *checkoutFixture {
	f := &checkoutFixture{
		users:    &stubUserRepo{user: &models.User{ID: 7, Email: "cliente@example.com"}},
		address:  &stubAddressRepo{address: &models.Address{ID: 3, UserID: 7, Street: "Av. Paulista", Number: "1000", City: "São Paulo", State: "SP", CEP: "01310100"}},
		plans:    &stubPlanRepo{plan: &models.Plan{ID: 2, Name: "Clube Mensal", Slug: "clube-mensal", PriceMonthly: 59.90}},
		carts:    &stubCartRepo{},
		orders:   &stubOrderRepo{},
		payments: &stubPaymentRepo{},
		gateway:  &stubGateway{},
	}
	f.svc = NewService(&repository.Repositories{
		User:    f.users,
		Address: f.address,
		Plan:    f.plans,
		Cart:    f.carts,
		Order:   f.orders,
		Payment: f.payments,
	}, f.gateway)
	return f
}

func validOption() *shipping.Option {
	return &shipping.Option{ID: "pac-SP", Name: "PAC", Price: 15.90, EstimatedDays: 5}
}

func TestCheckoutSubscription_RejectsIncompleteInputLocally(t *testing.T) {
	f := newCheckoutFixture()

	cases := []SubscriptionInput{
		{PlanSlug: "clube-mensal", ShippingOption: validOption(), PaymentData: PaymentInput{Method: "pix"}},                  // no address
		{PlanSlug: "clube-mensal", AddressID: 3, PaymentData: PaymentInput{Method: "pix"}},                                   // no shipping
		{PlanSlug: "clube-mensal", AddressID: 3, ShippingOption: validOption()},                                             // no payment method
		{PlanSlug: "clube-mensal", AddressID: 3, ShippingOption: validOption(), PaymentData: PaymentInput{Method: "credit_card"}}, // card without token
	}

	for i, in := range cases {
		_, err := f.svc.CheckoutSubscription(context.Background(), 7, in)
		assert.True(t, IsValidationError(err), "case %d: expected validation error, got %v", i, err)
	}
	assert.Zero(t, f.gateway.calls, "no gateway call may happen for invalid input")
}

func TestCheckoutSubscription_PixCarriesPlanMetadata(t *testing.T) {
	f := newCheckoutFixture()
	f.gateway.payment = &mercadopago.Payment{
		ID:                900,
		Status:            "pending",
		TransactionAmount: 75.80,
		PointOfInteraction: &mercadopago.PointOfInteraction{
			TransactionData: &mercadopago.TransactionData{QRCode: "000201pix", QRCodeBase64: "aGk=", TicketURL: "https://mp/t"},
		},
	}

	result, err := f.svc.CheckoutSubscription(context.Background(), 7, SubscriptionInput{
		PlanSlug:       "clube-mensal",
		AddressID:      3,
		ShippingOption: validOption(),
		PaymentData:    PaymentInput{Method: "pix"},
	})
	require.NoError(t, err)

	assert.Equal(t, "000201pix", result.QRCode)
	assert.NotNil(t, result.ExpiresAt)
	assert.Equal(t, models.PaymentStatusPending, result.Status)

	require.NotNil(t, f.orders.created)
	assert.Equal(t, 59.90+15.90, f.orders.created.Total)
	assert.Equal(t, uint(2), *f.orders.created.PlanID)
	assert.Equal(t, "01310100", f.orders.created.ShipCEP)

	require.NotNil(t, f.payments.created)
	assert.Equal(t, "900", f.payments.created.ProviderPaymentID)
	assert.Equal(t, models.PaymentMethodPix, f.payments.created.Method)
}

func TestCheckoutSubscription_CardOpensPreapproval(t *testing.T) {
	f := newCheckoutFixture()
	f.gateway.preapproval = &mercadopago.Preapproval{ID: "pre-55", Status: "authorized"}

	result, err := f.svc.CheckoutSubscription(context.Background(), 7, SubscriptionInput{
		PlanSlug:       "clube-mensal",
		AddressID:      3,
		ShippingOption: validOption(),
		PaymentData:    PaymentInput{Method: "credit_card", CardToken: "tok_abc"},
	})
	require.NoError(t, err)

	assert.Equal(t, "pre-55", result.PreapprovalID)
	assert.Equal(t, models.PaymentStatusPending, result.Status)
	require.NotNil(t, f.payments.created)
	assert.Equal(t, "preapproval:pre-55", f.payments.created.ProviderPaymentID)
}

func cartWithOneItem() *models.Cart {
	return &models.Cart{
		ID:    5,
		Token: "tok",
		Items: []models.CartItem{{ID: 1, CartID: 5, ProductID: 11, UnitPrice: 34.50, Quantity: 2, Product: &models.Product{ID: 11, Name: "Filtro de carvão"}}},
	}
}

func TestCheckoutOrder_CardApprovedMarksOrderPaidAndClearsCart(t *testing.T) {
	f := newCheckoutFixture()
	f.carts.cart = cartWithOneItem()
	f.gateway.payment = &mercadopago.Payment{ID: 901, Status: "approved", TransactionAmount: 84.90}

	result, err := f.svc.CheckoutOrder(context.Background(), 7, OrderInput{
		CartToken:      "tok",
		AddressID:      3,
		ShippingOption: validOption(),
		PaymentData:    PaymentInput{Method: "credit_card", CardToken: "tok_abc"},
	})
	require.NoError(t, err)

	assert.Equal(t, models.PaymentStatusPaid, result.Status)
	assert.Equal(t, models.OrderStatusPaid, f.orders.status)
	assert.True(t, f.carts.cleared)
	// 2 x 34.50 + 15.90 shipping
	assert.Equal(t, 84.90, f.orders.created.Total)
	require.Len(t, f.orders.created.Items, 1)
	assert.Equal(t, "Filtro de carvão", f.orders.created.Items[0].Name)
}

func TestCheckoutOrder_CardRejectedMapsDeclineMessageAndKeepsCart(t *testing.T) {
	f := newCheckoutFixture()
	f.carts.cart = cartWithOneItem()
	f.gateway.payment = &mercadopago.Payment{ID: 902, Status: "rejected", StatusDetail: "cc_rejected_insufficient_amount"}

	_, err := f.svc.CheckoutOrder(context.Background(), 7, OrderInput{
		CartToken:      "tok",
		AddressID:      3,
		ShippingOption: validOption(),
		PaymentData:    PaymentInput{Method: "credit_card", CardToken: "tok_abc"},
	})
	require.Error(t, err)
	assert.True(t, IsGatewayDecline(err))
	assert.Equal(t, "Saldo insuficiente no cartão.", err.Error())
	assert.False(t, f.carts.cleared, "declined card must keep the cart")
}

func TestCheckoutOrder_EmptyCartIsValidationError(t *testing.T) {
	f := newCheckoutFixture()
	f.carts.cart = &models.Cart{ID: 5, Token: "tok"}

	_, err := f.svc.CheckoutOrder(context.Background(), 7, OrderInput{
		CartToken:      "tok",
		AddressID:      3,
		ShippingOption: validOption(),
		PaymentData:    PaymentInput{Method: "pix"},
	})
	assert.True(t, IsValidationError(err))
	assert.Zero(t, f.gateway.calls)
}

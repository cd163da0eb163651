package billing

import (
	"context"
	"strconv"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/headshop-br/headshop/app/models"
	"github.com/headshop-br/headshop/app/repository"
	"github.com/headshop-br/headshop/internal/pkg/mercadopago"
)

// ---- fakes ----

type fakeEvents struct {
	byKey  map[string]*models.WebhookEvent
	nextID uint
}

func newFakeEvents() *fakeEvents {
	return &fakeEvents{byKey: map[string]*models.WebhookEvent{}}
}

func (f *fakeEvents) CreateWebhookEventIfNotExists(event *models.WebhookEvent) (bool, *models.WebhookEvent, error) {
	key := event.Provider + "|" + event.ProviderEventID
	if existing, ok := f.byKey[key]; ok {
		return false, existing, nil
	}
	f.nextID++
	event.ID = f.nextID
	f.byKey[key] = event
	return true, event, nil
}

func (f *fakeEvents) MarkWebhookProcessed(id uint, processingError string) error {
	for _, e := range f.byKey {
		if e.ID == id {
			now := time.Now()
			e.ProcessedAt = &now
			e.ProcessingError = processingError
			return nil
		}
	}
	return gorm.ErrRecordNotFound
}

type fakeOrders struct {
	byID map[uint]*models.Order
}

func (f *fakeOrders) Create(order *models.Order) error { f.byID[order.ID] = order; return nil }

func (f *fakeOrders) GetByID(id uint) (*models.Order, error) {
	if o, ok := f.byID[id]; ok {
		return o, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (f *fakeOrders) GetByPublicID(string) (*models.Order, error) { return nil, gorm.ErrRecordNotFound }

func (f *fakeOrders) GetByUserID(uint, int, int) ([]models.Order, error) { return nil, nil }

func (f *fakeOrders) UpdateStatus(id uint, status string) error {
	o, ok := f.byID[id]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	o.Status = status
	return nil
}

func (f *fakeOrders) List(string, int, int) ([]models.Order, error) { return nil, nil }

func (f *fakeOrders) Count(string) (int64, error) { return 0, nil }

func (f *fakeOrders) GetDailyRevenue(time.Time, time.Time) ([]repository.DailyRevenue, error) {
	return nil, nil
}

type fakePayments struct {
	byProviderID map[string]*models.Payment
}

func (f *fakePayments) Create(p *models.Payment) error {
	f.byProviderID[p.ProviderPaymentID] = p
	return nil
}

func (f *fakePayments) GetByID(id uint) (*models.Payment, error) {
	for _, p := range f.byProviderID {
		if p.ID == id {
			return p, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (f *fakePayments) GetByProviderPaymentID(provider, providerPaymentID string) (*models.Payment, error) {
	if p, ok := f.byProviderID[providerPaymentID]; ok {
		return p, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (f *fakePayments) GetLatestByOrderID(uint) (*models.Payment, error) {
	return nil, gorm.ErrRecordNotFound
}

func (f *fakePayments) UpdateStatus(id uint, status, raw string) error {
	for _, p := range f.byProviderID {
		if p.ID == id {
			p.Status = status
			p.RawPayloadJSON = raw
			return nil
		}
	}
	return gorm.ErrRecordNotFound
}

type fakeSubscriptions struct {
	byID   map[uint]*models.Subscription
	cycles []*models.SubscriptionCycle
	nextID uint
}

func newFakeSubscriptions() *fakeSubscriptions {
	return &fakeSubscriptions{byID: map[uint]*models.Subscription{}}
}

func (f *fakeSubscriptions) Create(sub *models.Subscription) error {
	for _, s := range f.byID {
		if s.UserID == sub.UserID && s.Status == models.SubscriptionStatusActive && sub.Status == models.SubscriptionStatusActive {
			return gorm.ErrDuplicatedKey
		}
	}
	f.nextID++
	sub.ID = f.nextID
	f.byID[sub.ID] = sub
	return nil
}

func (f *fakeSubscriptions) GetByID(id uint) (*models.Subscription, error) {
	if s, ok := f.byID[id]; ok {
		return s, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (f *fakeSubscriptions) GetByProviderPreapprovalID(provider, preapprovalID string) (*models.Subscription, error) {
	for _, s := range f.byID {
		if s.ProviderPreapprovalID == preapprovalID {
			return s, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (f *fakeSubscriptions) GetActiveByUserID(userID uint) (*models.Subscription, error) {
	for _, s := range f.byID {
		if s.UserID == userID && s.Status == models.SubscriptionStatusActive {
			return s, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (f *fakeSubscriptions) Save(sub *models.Subscription) error {
	f.byID[sub.ID] = sub
	return nil
}

func (f *fakeSubscriptions) List(string, int, int) ([]models.Subscription, error) { return nil, nil }

func (f *fakeSubscriptions) CreateCycleIfNotExists(cycle *models.SubscriptionCycle) (bool, error) {
	for _, existing := range f.cycles {
		if existing.ProviderPaymentID == cycle.ProviderPaymentID {
			return false, nil
		}
	}
	f.cycles = append(f.cycles, cycle)
	return true, nil
}

func (f *fakeSubscriptions) CountCycles(subscriptionID uint) (int64, error) {
	var n int64
	for _, c := range f.cycles {
		if c.SubscriptionID == subscriptionID {
			n++
		}
	}
	return n, nil
}

type fakeGateway struct {
	payments     map[string]*mercadopago.Payment
	preapprovals map[string]*mercadopago.Preapproval
	statusSets   []string
}

func (f *fakeGateway) GetPayment(_ context.Context, id string) (*mercadopago.Payment, []byte, error) {
	if p, ok := f.payments[id]; ok {
		return p, []byte(`{"id":` + id + `}`), nil
	}
	return nil, nil, mercadopago.ErrNotFound
}

func (f *fakeGateway) GetPreapproval(_ context.Context, id string) (*mercadopago.Preapproval, []byte, error) {
	if p, ok := f.preapprovals[id]; ok {
		return p, nil, nil
	}
	return nil, nil, mercadopago.ErrNotFound
}

func (f *fakeGateway) UpdatePreapprovalStatus(_ context.Context, id, status string) (*mercadopago.Preapproval, error) {
	f.statusSets = append(f.statusSets, id+"="+status)
	return &mercadopago.Preapproval{ID: id, Status: status}, nil
}

type fakeNotifier struct {
	ordersPaid []uint
	renewals   []uint
	cancels    []uint
}

func (f *fakeNotifier) OrderPaid(orderID uint)             { f.ordersPaid = append(f.ordersPaid, orderID) }
func (f *fakeNotifier) SubscriptionRenewed(id uint, _ int) { f.renewals = append(f.renewals, id) }
func (f *fakeNotifier) SubscriptionCanceled(id uint)       { f.cancels = append(f.cancels, id) }

type fixture struct {
	svc      *Service
	events   *fakeEvents
	orders   *fakeOrders
	payments *fakePayments
	subs     *fakeSubscriptions
	gateway  *fakeGateway
	notified *fakeNotifier
}

func newFixture() *fixture {
	f := &fixture{
		events:   newFakeEvents(),
		orders:   &fakeOrders{byID: map[uint]*models.Order{}},
		payments: &fakePayments{byProviderID: map[string]*models.Payment{}},
		subs:     newFakeSubscriptions(),
		gateway:  &fakeGateway{payments: map[string]*mercadopago.Payment{}, preapprovals: map[string]*mercadopago.Preapproval{}},
		notified: &fakeNotifier{},
	}
	f.svc = NewService(f.events, f.orders, f.payments, f.subs, f.gateway, f.notified)
	return f
}

// ---- tests ----

func TestRecordWebhookEvent_Deduplicates(t *testing.T) {
	f := newFixture()
	in := WebhookEventInput{
		Provider:        "mercadopago",
		ProviderEventID: "payment:123",
		EventType:       "payment",
		PayloadJSON:     `{"data":{"id":"123"}}`,
		SignatureValid:  true,
	}

	created, first, err := f.svc.RecordWebhookEvent(context.Background(), in)
	require.NoError(t, err)
	assert.True(t, created)

	created, second, err := f.svc.RecordWebhookEvent(context.Background(), in)
	require.NoError(t, err)
	assert.False(t, created)
	assert.Equal(t, first.ID, second.ID)
}

func TestRecordWebhookEvent_HashesMissingEventID(t *testing.T) {
	f := newFixture()

	created, event, err := f.svc.RecordWebhookEvent(context.Background(), WebhookEventInput{
		Provider:    "mercadopago",
		PayloadJSON: `{"legacy":"topic"}`,
	})
	require.NoError(t, err)
	assert.True(t, created)
	assert.Contains(t, event.ProviderEventID, "hash:")

	created, _, err = f.svc.RecordWebhookEvent(context.Background(), WebhookEventInput{
		Provider:    "mercadopago",
		PayloadJSON: `{"legacy":"topic"}`,
	})
	require.NoError(t, err)
	assert.False(t, created, "same payload should dedupe by hash")
}

func TestProcessPaymentNotification_MarksOrderPaidOnce(t *testing.T) {
	f := newFixture()
	f.orders.byID[1] = &models.Order{ID: 1, Status: models.OrderStatusPending}
	f.payments.byProviderID["555"] = &models.Payment{ID: 10, OrderID: 1, ProviderPaymentID: "555", Status: models.PaymentStatusPending}
	f.gateway.payments["555"] = &mercadopago.Payment{ID: 555, Status: "approved", TransactionAmount: 99.90}

	require.NoError(t, f.svc.ProcessPaymentNotification(context.Background(), "555"))
	assert.Equal(t, models.PaymentStatusPaid, f.payments.byProviderID["555"].Status)
	assert.Equal(t, models.OrderStatusPaid, f.orders.byID[1].Status)
	assert.Equal(t, []uint{1}, f.notified.ordersPaid)

	// Duplicate delivery: status unchanged, no second email.
	require.NoError(t, f.svc.ProcessPaymentNotification(context.Background(), "555"))
	assert.Equal(t, []uint{1}, f.notified.ordersPaid)
}

func TestProcessPaymentNotification_UnknownAtGatewayIsSwallowed(t *testing.T) {
	f := newFixture()
	require.NoError(t, f.svc.ProcessPaymentNotification(context.Background(), "does-not-exist"))
}

func TestProcessPaymentNotification_RefundCancelsPendingOrder(t *testing.T) {
	f := newFixture()
	f.orders.byID[1] = &models.Order{ID: 1, Status: models.OrderStatusPaid}
	f.payments.byProviderID["700"] = &models.Payment{ID: 11, OrderID: 1, ProviderPaymentID: "700", Status: models.PaymentStatusPaid}
	f.gateway.payments["700"] = &mercadopago.Payment{ID: 700, Status: "refunded"}

	require.NoError(t, f.svc.ProcessPaymentNotification(context.Background(), "700"))
	assert.Equal(t, models.PaymentStatusRefunded, f.payments.byProviderID["700"].Status)
	assert.Equal(t, models.OrderStatusCanceled, f.orders.byID[1].Status)
}

func TestProcessPaymentNotification_RefundKeepsShippedOrder(t *testing.T) {
	f := newFixture()
	f.orders.byID[2] = &models.Order{ID: 2, Status: models.OrderStatusShipped}
	f.payments.byProviderID["701"] = &models.Payment{ID: 12, OrderID: 2, ProviderPaymentID: "701", Status: models.PaymentStatusPaid}
	f.gateway.payments["701"] = &mercadopago.Payment{ID: 701, Status: "refunded"}

	require.NoError(t, f.svc.ProcessPaymentNotification(context.Background(), "701"))
	assert.Equal(t, models.OrderStatusShipped, f.orders.byID[2].Status)
}

func subscriptionPayment(id int64, status string, userID, planID uint) *mercadopago.Payment {
	return &mercadopago.Payment{
		ID:                id,
		Status:            status,
		TransactionAmount: 59.90,
		Metadata: map[string]string{
			"user_id": strconv.FormatUint(uint64(userID), 10),
			"plan_id": strconv.FormatUint(uint64(planID), 10),
		},
	}
}

func TestSubscriptionCreatedOnFirstApprovedPayment(t *testing.T) {
	f := newFixture()
	f.gateway.payments["900"] = subscriptionPayment(900, "approved", 7, 2)

	require.NoError(t, f.svc.ProcessPaymentNotification(context.Background(), "900"))

	sub, err := f.subs.GetActiveByUserID(7)
	require.NoError(t, err)
	assert.Equal(t, uint(2), sub.PlanID)
	assert.Equal(t, "payment:900", sub.ProviderPreapprovalID)
	require.Len(t, f.subs.cycles, 1)
	assert.Equal(t, 1, f.subs.cycles[0].Sequence)
	assert.Empty(t, f.notified.renewals, "first cycle is not a renewal")
}

func TestDuplicateApprovedNotificationCreatesOneCycle(t *testing.T) {
	f := newFixture()
	f.gateway.payments["900"] = subscriptionPayment(900, "approved", 7, 2)

	require.NoError(t, f.svc.ProcessPaymentNotification(context.Background(), "900"))
	require.NoError(t, f.svc.ProcessPaymentNotification(context.Background(), "900"))
	require.NoError(t, f.svc.ProcessPaymentNotification(context.Background(), "900"))

	assert.Len(t, f.subs.byID, 1)
	assert.Len(t, f.subs.cycles, 1)
}

func TestRenewalPaymentAppendsCycleAndNotifies(t *testing.T) {
	f := newFixture()
	first := subscriptionPayment(900, "approved", 7, 2)
	first.Metadata["preapproval_id"] = "pre-77"
	f.gateway.payments["900"] = first

	renewal := subscriptionPayment(901, "approved", 7, 2)
	renewal.Metadata["preapproval_id"] = "pre-77"
	f.gateway.payments["901"] = renewal

	require.NoError(t, f.svc.ProcessPaymentNotification(context.Background(), "900"))
	require.NoError(t, f.svc.ProcessPaymentNotification(context.Background(), "901"))

	assert.Len(t, f.subs.byID, 1)
	require.Len(t, f.subs.cycles, 2)
	assert.Equal(t, 2, f.subs.cycles[1].Sequence)
	require.Len(t, f.notified.renewals, 1)
}

func TestGatewayRenewalWithoutMetadataAppendsCycle(t *testing.T) {
	// Charges the gateway generates for a card preapproval carry no checkout
	// metadata, only the external_reference the agreement round-trips.
	f := newFixture()
	first := subscriptionPayment(900, "approved", 7, 2)
	first.Metadata["preapproval_id"] = "pre-77"
	f.gateway.payments["900"] = first

	renewal := &mercadopago.Payment{
		ID:                901,
		Status:            "approved",
		TransactionAmount: 59.90,
		ExternalReference: BuildExternalReference(7, 2),
	}
	f.gateway.payments["901"] = renewal

	require.NoError(t, f.svc.ProcessPaymentNotification(context.Background(), "900"))
	require.NoError(t, f.svc.ProcessPaymentNotification(context.Background(), "901"))

	assert.Len(t, f.subs.byID, 1, "renewal must attach to the existing subscription")
	require.Len(t, f.subs.cycles, 2)
	assert.Equal(t, 2, f.subs.cycles[1].Sequence)
	require.Len(t, f.notified.renewals, 1)
}

func TestApprovalAndRefundNotificationsAreRecordedSeparately(t *testing.T) {
	// The gateway sends distinct notifications for a payment's approval and
	// its later refund. Each carries its own event id; deduplication must
	// not collapse them just because they reference the same payment.
	f := newFixture()
	ctx := context.Background()
	f.gateway.payments["777"] = subscriptionPayment(777, "approved", 7, 2)

	created, _, err := f.svc.RecordWebhookEvent(ctx, WebhookEventInput{
		Provider:        "mercadopago",
		ProviderEventID: "111",
		EventType:       "payment",
		PayloadJSON:     `{"id":111,"type":"payment","data":{"id":"777"}}`,
	})
	require.NoError(t, err)
	require.True(t, created)
	require.NoError(t, f.svc.ProcessPaymentNotification(ctx, "777"))

	sub, err := f.subs.GetActiveByUserID(7)
	require.NoError(t, err)
	assert.Equal(t, models.SubscriptionStatusActive, sub.Status)

	f.gateway.payments["777"] = subscriptionPayment(777, "refunded", 7, 2)

	created, _, err = f.svc.RecordWebhookEvent(ctx, WebhookEventInput{
		Provider:        "mercadopago",
		ProviderEventID: "222",
		EventType:       "payment",
		PayloadJSON:     `{"id":222,"type":"payment","data":{"id":"777"}}`,
	})
	require.NoError(t, err)
	require.True(t, created, "refund notification must not be deduplicated against the approval")
	require.NoError(t, f.svc.ProcessPaymentNotification(ctx, "777"))

	assert.Equal(t, models.SubscriptionStatusCanceled, f.subs.byID[sub.ID].Status)
}

func TestRefundCancelsSubscriptionExactlyOnce(t *testing.T) {
	f := newFixture()
	approved := subscriptionPayment(900, "approved", 7, 2)
	f.gateway.payments["900"] = approved
	require.NoError(t, f.svc.ProcessPaymentNotification(context.Background(), "900"))

	refunded := subscriptionPayment(900, "refunded", 7, 2)
	f.gateway.payments["900"] = refunded

	require.NoError(t, f.svc.ProcessPaymentNotification(context.Background(), "900"))
	require.NoError(t, f.svc.ProcessPaymentNotification(context.Background(), "900"))

	sub := f.subs.byID[1]
	assert.Equal(t, models.SubscriptionStatusCanceled, sub.Status)
	assert.Len(t, f.notified.cancels, 1, "cancellation must notify exactly once")
}

func TestSecondUserSubscriptionIsSkippedWhileActive(t *testing.T) {
	f := newFixture()
	f.gateway.payments["900"] = subscriptionPayment(900, "approved", 7, 2)
	f.gateway.payments["950"] = subscriptionPayment(950, "approved", 7, 3)

	require.NoError(t, f.svc.ProcessPaymentNotification(context.Background(), "900"))
	require.NoError(t, f.svc.ProcessPaymentNotification(context.Background(), "950"))

	assert.Len(t, f.subs.byID, 1, "second active subscription must not be created")
}

func TestProcessPreapprovalNotification_SyncsLifecycle(t *testing.T) {
	f := newFixture()
	sub := &models.Subscription{UserID: 7, PlanID: 2, Provider: models.PaymentProviderMercadoPago, ProviderPreapprovalID: "pre-5", StartedAt: time.Now()}
	sub.MarkActive()
	require.NoError(t, f.subs.Create(sub))

	f.gateway.preapprovals["pre-5"] = &mercadopago.Preapproval{ID: "pre-5", Status: "paused"}
	require.NoError(t, f.svc.ProcessPreapprovalNotification(context.Background(), "pre-5"))
	assert.Equal(t, models.SubscriptionStatusPaused, f.subs.byID[sub.ID].Status)

	f.gateway.preapprovals["pre-5"] = &mercadopago.Preapproval{ID: "pre-5", Status: "authorized"}
	require.NoError(t, f.svc.ProcessPreapprovalNotification(context.Background(), "pre-5"))
	assert.Equal(t, models.SubscriptionStatusActive, f.subs.byID[sub.ID].Status)

	f.gateway.preapprovals["pre-5"] = &mercadopago.Preapproval{ID: "pre-5", Status: "cancelled"}
	require.NoError(t, f.svc.ProcessPreapprovalNotification(context.Background(), "pre-5"))
	assert.Equal(t, models.SubscriptionStatusCanceled, f.subs.byID[sub.ID].Status)
	assert.Len(t, f.notified.cancels, 1)
}

func TestProcessPreapprovalNotification_CreatesFromExternalReference(t *testing.T) {
	f := newFixture()
	f.gateway.preapprovals["pre-9"] = &mercadopago.Preapproval{
		ID:                "pre-9",
		Status:            "authorized",
		ExternalReference: BuildExternalReference(7, 2),
		AutoRecurring:     &mercadopago.AutoRecurring{TransactionAmount: 74.80},
	}

	require.NoError(t, f.svc.ProcessPreapprovalNotification(context.Background(), "pre-9"))

	sub, err := f.subs.GetActiveByUserID(7)
	require.NoError(t, err)
	assert.Equal(t, uint(2), sub.PlanID)
	assert.Equal(t, 74.80, sub.Amount)
}

func TestAdminSubscriptionActions_PropagateToGateway(t *testing.T) {
	f := newFixture()
	sub := &models.Subscription{UserID: 7, PlanID: 2, Provider: models.PaymentProviderMercadoPago, ProviderPreapprovalID: "pre-1", StartedAt: time.Now()}
	sub.MarkActive()
	require.NoError(t, f.subs.Create(sub))

	require.NoError(t, f.svc.PauseSubscription(context.Background(), sub.ID))
	assert.Equal(t, models.SubscriptionStatusPaused, f.subs.byID[sub.ID].Status)

	require.NoError(t, f.svc.ResumeSubscription(context.Background(), sub.ID))
	assert.Equal(t, models.SubscriptionStatusActive, f.subs.byID[sub.ID].Status)

	require.NoError(t, f.svc.CancelSubscription(context.Background(), sub.ID))
	assert.Equal(t, models.SubscriptionStatusCanceled, f.subs.byID[sub.ID].Status)

	assert.Equal(t, []string{"pre-1=paused", "pre-1=authorized", "pre-1=cancelled"}, f.gateway.statusSets)
}

func TestAdminSubscriptionActions_SkipGatewayForPixOpenedSubscriptions(t *testing.T) {
	f := newFixture()
	sub := &models.Subscription{UserID: 7, PlanID: 2, Provider: models.PaymentProviderMercadoPago, ProviderPreapprovalID: "payment:900", StartedAt: time.Now()}
	sub.MarkActive()
	require.NoError(t, f.subs.Create(sub))

	require.NoError(t, f.svc.CancelSubscription(context.Background(), sub.ID))
	assert.Empty(t, f.gateway.statusSets, "pix-opened subscription has no gateway agreement")
	assert.Equal(t, models.SubscriptionStatusCanceled, f.subs.byID[sub.ID].Status)
}

func TestExternalReferenceRoundTrip(t *testing.T) {
	ref := BuildExternalReference(42, 9)
	assert.Equal(t, "user:42;plan:9", ref)

	userID, planID, ok := ParseExternalReference(ref)
	require.True(t, ok)
	assert.Equal(t, uint(42), userID)
	assert.Equal(t, uint(9), planID)

	for _, bad := range []string{"", "user:x;plan:1", "plan:1", "user:1"} {
		_, _, ok := ParseExternalReference(bad)
		assert.False(t, ok, "expected %q to fail parsing", bad)
	}
}

package billing

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2/log"
	"gorm.io/gorm"

	"github.com/headshop-br/headshop/app/models"
	"github.com/headshop-br/headshop/app/repository"
	"github.com/headshop-br/headshop/internal/pkg/jobqueue"
	"github.com/headshop-br/headshop/internal/pkg/mercadopago"
)

// Service reconciles webhook notifications against the authoritative gateway
// state and applies idempotent transitions to local orders, payments and
// subscriptions.
type Service struct {
	events        EventRepository
	orders        repository.OrderRepository
	payments      repository.PaymentRepository
	subscriptions repository.SubscriptionRepository
	gateway       Gateway
	notifier      Notifier
}

// NewService wires a reconciler from injected dependencies.
func NewService(
	events EventRepository,
	orders repository.OrderRepository,
	payments repository.PaymentRepository,
	subscriptions repository.SubscriptionRepository,
	gateway Gateway,
	notifier Notifier,
) *Service {
	if notifier == nil {
		notifier = jobQueueNotifier{}
	}
	return &Service{
		events:        events,
		orders:        orders,
		payments:      payments,
		subscriptions: subscriptions,
		gateway:       gateway,
		notifier:      notifier,
	}
}

// NewServiceFromDB builds the production wiring: GORM repositories, the env
// gateway client and jobqueue-backed notifications.
func NewServiceFromDB(db *gorm.DB, gateway Gateway) *Service {
	repos := repository.NewRepositories(db)
	return NewService(NewEventRepository(db), repos.Order, repos.Payment, repos.Subscription, gateway, nil)
}

// RecordWebhookEvent persists webhook payloads idempotently. Events without
// a provider event id are deduplicated by payload hash.
func (s *Service) RecordWebhookEvent(ctx context.Context, in WebhookEventInput) (bool, *models.WebhookEvent, error) {
	_ = ctx
	provider := strings.ToLower(strings.TrimSpace(in.Provider))
	if provider == "" {
		return false, nil, errors.New("provider is required")
	}
	eventID := strings.TrimSpace(in.ProviderEventID)
	if eventID == "" {
		sum := sha256.Sum256([]byte(in.PayloadJSON))
		eventID = "hash:" + hex.EncodeToString(sum[:])
	}

	event := &models.WebhookEvent{
		Provider:        provider,
		ProviderEventID: eventID,
		EventType:       strings.TrimSpace(in.EventType),
		PayloadJSON:     in.PayloadJSON,
		SignatureValid:  in.SignatureValid,
	}
	return s.events.CreateWebhookEventIfNotExists(event)
}

// MarkWebhookProcessed marks an event as processed and stores an optional error.
func (s *Service) MarkWebhookProcessed(ctx context.Context, webhookEventID uint, processingErr error) error {
	_ = ctx
	if webhookEventID == 0 {
		return errors.New("webhook_event_id is required")
	}
	errMsg := ""
	if processingErr != nil {
		errMsg = processingErr.Error()
	}
	return s.events.MarkWebhookProcessed(webhookEventID, errMsg)
}

// ProcessPaymentNotification re-fetches the payment by id and reconciles
// local state. A payment the gateway does not know, or one with no local
// counterpart, is logged and dropped: retrying cannot change either
// situation.
func (s *Service) ProcessPaymentNotification(ctx context.Context, paymentID string) error {
	gwPayment, raw, err := s.gateway.GetPayment(ctx, paymentID)
	if err != nil {
		if errors.Is(err, mercadopago.ErrNotFound) {
			log.Warnf("[Billing] payment %s unknown to gateway, skipping", paymentID)
			return nil
		}
		return fmt.Errorf("fetch payment %s: %w", paymentID, err)
	}

	mapped := mercadopago.MapPaymentStatus(gwPayment.Status)

	local, err := s.payments.GetByProviderPaymentID(models.PaymentProviderMercadoPago, paymentID)
	switch {
	case err == nil:
		if local.Status != mapped {
			if err := s.payments.UpdateStatus(local.ID, mapped, string(raw)); err != nil {
				return fmt.Errorf("update payment %d: %w", local.ID, err)
			}
			if err := s.applyOrderEffect(local.OrderID, mapped); err != nil {
				return err
			}
		}
	case errors.Is(err, gorm.ErrRecordNotFound):
		log.Warnf("[Billing] payment %s has no local record", paymentID)
	default:
		return fmt.Errorf("lookup payment %s: %w", paymentID, err)
	}

	return s.reconcileSubscriptionPayment(gwPayment, mapped)
}

// applyOrderEffect moves the order along with its payment. A FAILED payment
// keeps the order PENDING so the customer can retry with another method.
func (s *Service) applyOrderEffect(orderID uint, paymentStatus string) error {
	order, err := s.orders.GetByID(orderID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			log.Warnf("[Billing] order %d not found for payment transition", orderID)
			return nil
		}
		return fmt.Errorf("lookup order %d: %w", orderID, err)
	}

	switch paymentStatus {
	case models.PaymentStatusPaid:
		if order.Status == models.OrderStatusPending {
			if err := s.orders.UpdateStatus(order.ID, models.OrderStatusPaid); err != nil {
				return fmt.Errorf("mark order %d paid: %w", order.ID, err)
			}
			s.notifier.OrderPaid(order.ID)
		}
	case models.PaymentStatusRefunded:
		if order.Status != models.OrderStatusShipped && order.Status != models.OrderStatusDelivered && order.Status != models.OrderStatusCanceled {
			if err := s.orders.UpdateStatus(order.ID, models.OrderStatusCanceled); err != nil {
				return fmt.Errorf("cancel order %d: %w", order.ID, err)
			}
		}
	case models.PaymentStatusCanceled:
		if order.Status == models.OrderStatusPending {
			if err := s.orders.UpdateStatus(order.ID, models.OrderStatusCanceled); err != nil {
				return fmt.Errorf("cancel order %d: %w", order.ID, err)
			}
		}
	}
	return nil
}

// reconcileSubscriptionPayment applies subscription semantics. Checkout tags
// first PIX cycles with user/plan metadata; charges the gateway generates for
// a card preapproval carry none of it, only the external_reference the
// preapproval round-trips. Payments identified by neither are plain order
// charges and are ignored here.
func (s *Service) reconcileSubscriptionPayment(gwPayment *mercadopago.Payment, mapped string) error {
	userID := metadataUint(gwPayment.Metadata, "user_id")
	planID := metadataUint(gwPayment.Metadata, "plan_id")
	fromMetadata := userID != 0 && planID != 0
	if !fromMetadata {
		var ok bool
		userID, planID, ok = ParseExternalReference(gwPayment.ExternalReference)
		if !ok {
			return nil
		}
	}

	providerPaymentID := strconv.FormatInt(gwPayment.ID, 10)
	preapprovalKey := strings.TrimSpace(gwPayment.Metadata["preapproval_id"])
	if preapprovalKey == "" && !fromMetadata {
		// Gateway-generated preapproval charge without the tag: resolve the
		// agreement through the user's current subscription.
		sub, err := s.subscriptions.GetActiveByUserID(userID)
		if err == nil {
			preapprovalKey = sub.ProviderPreapprovalID
		} else if !errors.Is(err, gorm.ErrRecordNotFound) {
			return fmt.Errorf("lookup active subscription for user %d: %w", userID, err)
		}
	}
	if preapprovalKey == "" {
		// First PIX cycle has no agreement yet; key the subscription by the
		// opening payment so renewal webhooks still resolve it.
		preapprovalKey = "payment:" + providerPaymentID
	}

	switch mapped {
	case models.PaymentStatusPaid:
		return s.recordApprovedSubscriptionPayment(userID, planID, preapprovalKey, providerPaymentID, gwPayment)
	case models.PaymentStatusRefunded:
		return s.cancelSubscriptionForRefund(preapprovalKey, userID)
	default:
		return nil
	}
}

// recordApprovedSubscriptionPayment creates the subscription on first
// approval and appends a deduplicated billing cycle on every approval.
// Duplicate deliveries of the same approved notification are absorbed twice
// over: by the cycle unique index and, for creation races, by the one-active
// unique index.
func (s *Service) recordApprovedSubscriptionPayment(userID, planID uint, preapprovalKey, providerPaymentID string, gwPayment *mercadopago.Payment) error {
	sub, err := s.subscriptions.GetByProviderPreapprovalID(models.PaymentProviderMercadoPago, preapprovalKey)
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		return fmt.Errorf("lookup subscription %s: %w", preapprovalKey, err)
	}

	if sub == nil || errors.Is(err, gorm.ErrRecordNotFound) {
		if _, activeErr := s.subscriptions.GetActiveByUserID(userID); activeErr == nil {
			log.Warnf("[Billing] user %d already has an active subscription, skipping create for %s", userID, preapprovalKey)
			return nil
		} else if !errors.Is(activeErr, gorm.ErrRecordNotFound) {
			return fmt.Errorf("lookup active subscription for user %d: %w", userID, activeErr)
		}

		sub = &models.Subscription{
			UserID:                userID,
			PlanID:                planID,
			Provider:              models.PaymentProviderMercadoPago,
			ProviderPreapprovalID: preapprovalKey,
			Amount:                gwPayment.TransactionAmount,
			StartedAt:             time.Now(),
		}
		sub.MarkActive()
		if createErr := s.subscriptions.Create(sub); createErr != nil {
			// A concurrent delivery won the race on the one-active index.
			log.Warnf("[Billing] subscription create for user %d lost race: %v", userID, createErr)
			return nil
		}
	} else if sub.Status == models.SubscriptionStatusCanceled {
		log.Warnf("[Billing] payment %s for canceled subscription %d, skipping cycle", providerPaymentID, sub.ID)
		return nil
	}

	count, err := s.subscriptions.CountCycles(sub.ID)
	if err != nil {
		return fmt.Errorf("count cycles for subscription %d: %w", sub.ID, err)
	}
	sequence := int(count) + 1

	billedAt := time.Now()
	if gwPayment.DateApproved != nil {
		billedAt = *gwPayment.DateApproved
	}
	created, err := s.subscriptions.CreateCycleIfNotExists(&models.SubscriptionCycle{
		SubscriptionID:    sub.ID,
		Sequence:          sequence,
		Amount:            gwPayment.TransactionAmount,
		ProviderPaymentID: providerPaymentID,
		BilledAt:          billedAt,
	})
	if err != nil {
		return fmt.Errorf("record cycle for subscription %d: %w", sub.ID, err)
	}
	if created && sequence > 1 {
		s.notifier.SubscriptionRenewed(sub.ID, sequence)
	}
	return nil
}

// cancelSubscriptionForRefund transitions the matching subscription to
// CANCELED exactly once.
func (s *Service) cancelSubscriptionForRefund(preapprovalKey string, userID uint) error {
	sub, err := s.subscriptions.GetByProviderPreapprovalID(models.PaymentProviderMercadoPago, preapprovalKey)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		sub, err = s.subscriptions.GetActiveByUserID(userID)
	}
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			log.Warnf("[Billing] refund for unknown subscription (key=%s user=%d)", preapprovalKey, userID)
			return nil
		}
		return fmt.Errorf("lookup subscription for refund: %w", err)
	}
	if sub.Status == models.SubscriptionStatusCanceled {
		return nil
	}
	sub.MarkCanceled(time.Now())
	if err := s.subscriptions.Save(sub); err != nil {
		return fmt.Errorf("cancel subscription %d: %w", sub.ID, err)
	}
	s.notifier.SubscriptionCanceled(sub.ID)
	return nil
}

// ProcessPreapprovalNotification re-fetches the recurring agreement and
// syncs the local subscription lifecycle. An authorized agreement with no
// local row is created from the external_reference encoding.
func (s *Service) ProcessPreapprovalNotification(ctx context.Context, preapprovalID string) error {
	pre, _, err := s.gateway.GetPreapproval(ctx, preapprovalID)
	if err != nil {
		if errors.Is(err, mercadopago.ErrNotFound) {
			log.Warnf("[Billing] preapproval %s unknown to gateway, skipping", preapprovalID)
			return nil
		}
		return fmt.Errorf("fetch preapproval %s: %w", preapprovalID, err)
	}

	mapped := mercadopago.MapPreapprovalStatus(pre.Status)

	sub, err := s.subscriptions.GetByProviderPreapprovalID(models.PaymentProviderMercadoPago, pre.ID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		if mapped != models.SubscriptionStatusActive {
			log.Warnf("[Billing] preapproval %s (%s) has no local subscription", pre.ID, pre.Status)
			return nil
		}
		return s.createSubscriptionFromPreapproval(pre)
	}
	if err != nil {
		return fmt.Errorf("lookup subscription %s: %w", pre.ID, err)
	}

	if sub.Status == mapped {
		sub.NextBillingAt = pre.NextPaymentDate
		return s.subscriptions.Save(sub)
	}

	switch mapped {
	case models.SubscriptionStatusActive:
		sub.MarkActive()
	case models.SubscriptionStatusPaused:
		sub.MarkPaused(time.Now())
	case models.SubscriptionStatusCanceled:
		sub.MarkCanceled(time.Now())
	}
	sub.NextBillingAt = pre.NextPaymentDate
	if err := s.subscriptions.Save(sub); err != nil {
		return fmt.Errorf("save subscription %d: %w", sub.ID, err)
	}
	if mapped == models.SubscriptionStatusCanceled {
		s.notifier.SubscriptionCanceled(sub.ID)
	}
	return nil
}

func (s *Service) createSubscriptionFromPreapproval(pre *mercadopago.Preapproval) error {
	userID, planID, ok := ParseExternalReference(pre.ExternalReference)
	if !ok {
		log.Warnf("[Billing] preapproval %s carries no parseable external_reference %q", pre.ID, pre.ExternalReference)
		return nil
	}
	if _, err := s.subscriptions.GetActiveByUserID(userID); err == nil {
		log.Warnf("[Billing] user %d already has an active subscription, skipping preapproval %s", userID, pre.ID)
		return nil
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return fmt.Errorf("lookup active subscription for user %d: %w", userID, err)
	}

	amount := 0.0
	if pre.AutoRecurring != nil {
		amount = pre.AutoRecurring.TransactionAmount
	}
	sub := &models.Subscription{
		UserID:                userID,
		PlanID:                planID,
		Provider:              models.PaymentProviderMercadoPago,
		ProviderPreapprovalID: pre.ID,
		Amount:                amount,
		StartedAt:             time.Now(),
		NextBillingAt:         pre.NextPaymentDate,
	}
	sub.MarkActive()
	if err := s.subscriptions.Create(sub); err != nil {
		log.Warnf("[Billing] subscription create from preapproval %s lost race: %v", pre.ID, err)
		return nil
	}
	return nil
}

// PauseSubscription propagates a pause to the gateway, then mirrors it
// locally. Used by the admin back-office.
func (s *Service) PauseSubscription(ctx context.Context, subscriptionID uint) error {
	return s.updateSubscriptionStatus(ctx, subscriptionID, mercadopago.PreapprovalStatusPaused)
}

// ResumeSubscription re-authorizes the gateway agreement and reactivates the
// local row.
func (s *Service) ResumeSubscription(ctx context.Context, subscriptionID uint) error {
	return s.updateSubscriptionStatus(ctx, subscriptionID, mercadopago.PreapprovalStatusAuthorized)
}

// CancelSubscription cancels the gateway agreement and the local row.
func (s *Service) CancelSubscription(ctx context.Context, subscriptionID uint) error {
	return s.updateSubscriptionStatus(ctx, subscriptionID, mercadopago.PreapprovalStatusCancelled)
}

func (s *Service) updateSubscriptionStatus(ctx context.Context, subscriptionID uint, gatewayStatus string) error {
	sub, err := s.subscriptions.GetByID(subscriptionID)
	if err != nil {
		return fmt.Errorf("lookup subscription %d: %w", subscriptionID, err)
	}

	// PIX-opened subscriptions have no gateway agreement to drive.
	if !strings.HasPrefix(sub.ProviderPreapprovalID, "payment:") {
		if _, err := s.gateway.UpdatePreapprovalStatus(ctx, sub.ProviderPreapprovalID, gatewayStatus); err != nil {
			return fmt.Errorf("update preapproval %s: %w", sub.ProviderPreapprovalID, err)
		}
	}

	switch gatewayStatus {
	case mercadopago.PreapprovalStatusPaused:
		sub.MarkPaused(time.Now())
	case mercadopago.PreapprovalStatusAuthorized:
		sub.MarkActive()
	case mercadopago.PreapprovalStatusCancelled:
		sub.MarkCanceled(time.Now())
	}
	if err := s.subscriptions.Save(sub); err != nil {
		return fmt.Errorf("save subscription %d: %w", sub.ID, err)
	}
	if gatewayStatus == mercadopago.PreapprovalStatusCancelled {
		s.notifier.SubscriptionCanceled(sub.ID)
	}
	return nil
}

func metadataUint(metadata map[string]string, key string) uint {
	if metadata == nil {
		return 0
	}
	n, err := strconv.ParseUint(strings.TrimSpace(metadata[key]), 10, 32)
	if err != nil {
		return 0
	}
	return uint(n)
}

// jobQueueNotifier is the production Notifier: transitions fan out as
// background email jobs.
type jobQueueNotifier struct{}

func (jobQueueNotifier) OrderPaid(orderID uint) {
	if err := jobqueue.EnqueueOrderConfirmationEmail(orderID); err != nil {
		log.Errorf("[Billing] failed to enqueue order confirmation email for order %d: %v", orderID, err)
	}
}

func (jobQueueNotifier) SubscriptionRenewed(subscriptionID uint, cycleSequence int) {
	if err := jobqueue.EnqueueSubscriptionRenewalEmail(subscriptionID, cycleSequence); err != nil {
		log.Errorf("[Billing] failed to enqueue renewal email for subscription %d: %v", subscriptionID, err)
	}
}

func (jobQueueNotifier) SubscriptionCanceled(subscriptionID uint) {
	if err := jobqueue.EnqueueSubscriptionCanceledEmail(subscriptionID); err != nil {
		log.Errorf("[Billing] failed to enqueue cancellation email for subscription %d: %v", subscriptionID, err)
	}
}

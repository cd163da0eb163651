package controllers

import (
	"context"
	"encoding/json"
	"strconv"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	fiberlog "github.com/gofiber/fiber/v2/log"

	"github.com/headshop-br/headshop/app/models"
	"github.com/headshop-br/headshop/internal/pkg/billing"
	"github.com/headshop-br/headshop/internal/pkg/database"
	"github.com/headshop-br/headshop/internal/pkg/env"
	"github.com/headshop-br/headshop/internal/pkg/mercadopago"
)

const webhookProcessTimeout = 15 * time.Second

// HandleMercadoPagoWebhookHealth answers the gateway's endpoint validation
// pings.
func HandleMercadoPagoWebhookHealth(c *fiber.Ctx) error {
	return c.Status(fiber.StatusOK).JSON(fiber.Map{"status": "ok", "service": "mercadopago-webhook"})
}

// HandleMercadoPagoWebhook ingests payment and preapproval notifications.
// The callback body is never trusted beyond the entity id; the current state
// is re-fetched from the API. The endpoint always acknowledges with 200 so
// the gateway does not retry storms over our own processing failures.
func HandleMercadoPagoWebhook(c *fiber.Ctx) error {
	rawBody := append([]byte(nil), c.BodyRaw()...)

	notifType, dataID, eventID := resolveNotification(c, rawBody)
	if dataID == "" {
		fiberlog.Warn("webhook: notification without a data id, acknowledging")
		return c.Status(fiber.StatusOK).JSON(fiber.Map{"received": true})
	}

	// Signature verification is advisory. Legacy query-format callbacks and
	// misconfigured secrets must not block reconciliation; the API re-fetch
	// is the authoritative check.
	secret := env.GetEnv("MERCADOPAGO_WEBHOOK_SECRET", "")
	requestID := strings.TrimSpace(c.Get("x-request-id"))
	if eventID == "" {
		eventID = requestID
	}
	signatureValid := mercadopago.VerifyWebhookSignature(c.Get("x-signature"), requestID, dataID, secret)
	if !signatureValid {
		fiberlog.Warnf("webhook: signature verification failed for %s %s, processing anyway", notifType, dataID)
	}

	gateway := mercadopago.NewClientFromEnv()
	svc := billing.NewServiceFromDB(database.GetDB(), gateway)
	ctx, cancel := context.WithTimeout(context.Background(), webhookProcessTimeout)
	defer cancel()

	// Dedup by the provider's per-notification id, never by the entity id:
	// one payment receives many notifications over its life (approval,
	// refund, chargeback) and each must be processed. Events without any
	// notification id fall back to the payload hash inside the service.
	payload := rawBody
	if len(payload) == 0 {
		payload = c.Request().URI().QueryString()
	}
	created, stored, err := svc.RecordWebhookEvent(ctx, billing.WebhookEventInput{
		Provider:        models.PaymentProviderMercadoPago,
		ProviderEventID: eventID,
		EventType:       notifType,
		PayloadJSON:     string(payload),
		SignatureValid:  signatureValid,
	})
	if err != nil {
		fiberlog.Errorf("webhook: failed to persist event %s %s: %v", notifType, dataID, err)
		return c.Status(fiber.StatusOK).JSON(fiber.Map{"received": true})
	}
	if !created {
		return c.Status(fiber.StatusOK).JSON(fiber.Map{"received": true})
	}

	var processErr error
	switch notifType {
	case "payment":
		processErr = svc.ProcessPaymentNotification(ctx, dataID)
	case "subscription_preapproval", "preapproval":
		processErr = svc.ProcessPreapprovalNotification(ctx, dataID)
	default:
		fiberlog.Infof("webhook: ignoring notification type %q (id %s)", notifType, dataID)
	}

	if markErr := svc.MarkWebhookProcessed(ctx, stored.ID, processErr); markErr != nil {
		fiberlog.Errorf("webhook: failed to mark event %d processed: %v", stored.ID, markErr)
	}
	if processErr != nil {
		fiberlog.Errorf("webhook: processing %s %s failed: %v", notifType, dataID, processErr)
	}

	return c.Status(fiber.StatusOK).JSON(fiber.Map{"received": true})
}

// resolveNotification extracts the notification type, the entity id and the
// provider's per-notification event id, preferring the modern JSON body over
// the legacy ?id&topic query parameters. Legacy callbacks carry no event id.
func resolveNotification(c *fiber.Ctx, rawBody []byte) (notifType, dataID, eventID string) {
	if len(rawBody) > 0 {
		var notif mercadopago.WebhookNotification
		if err := json.Unmarshal(rawBody, &notif); err == nil && notif.Data.ID != "" {
			if notif.ID != 0 {
				eventID = strconv.FormatInt(notif.ID, 10)
			}
			return notif.Type, notif.Data.ID, eventID
		}
	}

	id := strings.TrimSpace(c.Query("id", c.Query("data.id")))
	topic := strings.TrimSpace(c.Query("topic", c.Query("type")))
	return topic, id, ""
}

package controllers

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/gofiber/fiber/v2"
	fiberlog "github.com/gofiber/fiber/v2/log"
	"gorm.io/gorm"

	"github.com/headshop-br/headshop/app/models"
	"github.com/headshop-br/headshop/app/repository"
	"github.com/headshop-br/headshop/internal/pkg/billing"
	"github.com/headshop-br/headshop/internal/pkg/cache"
	"github.com/headshop-br/headshop/internal/pkg/checkout"
	"github.com/headshop-br/headshop/internal/pkg/database"
	"github.com/headshop-br/headshop/internal/pkg/mercadopago"
	"github.com/headshop-br/headshop/internal/pkg/session"
)

const (
	checkoutTimeout        = 30 * time.Second
	paymentStatusCacheTTL  = 10 * time.Second
	paymentStatusKeyFormat = "payment_status:%d"
)

func newCheckoutService() *checkout.Service {
	return checkout.NewService(repository.GetGlobalRepositories(), mercadopago.NewClientFromEnv())
}

// HandleCheckoutSubscription starts a plan subscription for the session's
// customer.
func HandleCheckoutSubscription(c *fiber.Ctx) error {
	var in checkout.SubscriptionInput
	if err := c.BodyParser(&in); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"success": false, "error": "Requisição inválida."})
	}

	userID := session.UserID(c)
	if userID == 0 {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"success": false, "error": "Identifique-se antes de finalizar a compra."})
	}

	ctx, cancel := context.WithTimeout(c.Context(), checkoutTimeout)
	defer cancel()

	result, err := newCheckoutService().CheckoutSubscription(ctx, userID, in)
	return respondCheckout(c, result, err)
}

// HandleCheckoutOrder charges the session's cart as a one-off order.
func HandleCheckoutOrder(c *fiber.Ctx) error {
	var in checkout.OrderInput
	if err := c.BodyParser(&in); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"success": false, "error": "Requisição inválida."})
	}

	userID := session.UserID(c)
	if userID == 0 {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"success": false, "error": "Identifique-se antes de finalizar a compra."})
	}
	if in.CartToken == "" {
		token, err := session.CartToken(c)
		if err == nil {
			in.CartToken = token
		}
	}

	ctx, cancel := context.WithTimeout(c.Context(), checkoutTimeout)
	defer cancel()

	result, err := newCheckoutService().CheckoutOrder(ctx, userID, in)
	return respondCheckout(c, result, err)
}

func respondCheckout(c *fiber.Ctx, result *checkout.Result, err error) error {
	if err != nil {
		if checkout.IsValidationError(err) {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"success": false, "error": err.Error()})
		}
		if checkout.IsGatewayDecline(err) {
			return c.Status(fiber.StatusUnprocessableEntity).JSON(fiber.Map{"success": false, "error": err.Error()})
		}
		fiberlog.Errorf("checkout failed: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"success": false, "error": "Não foi possível processar o pagamento. Tente novamente."})
	}
	return c.Status(fiber.StatusOK).JSON(fiber.Map{"success": true, "data": result})
}

// HandlePaymentStatus reports a payment's current status for client polling.
// A short Redis cache absorbs the poll interval; pending payments are
// re-fetched from the gateway so a missed webhook cannot strand the client.
func HandlePaymentStatus(c *fiber.Ctx) error {
	paymentID, err := c.ParamsInt("paymentId")
	if err != nil || paymentID <= 0 {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"success": false, "error": "Pagamento inválido."})
	}

	cacheKey := fmt.Sprintf(paymentStatusKeyFormat, paymentID)
	ctx := c.Context()
	if cached, err := cache.Get(cacheKey); err == nil && cached != "" {
		return c.Status(fiber.StatusOK).JSON(fiber.Map{"success": true, "status": cached})
	}

	payments := repository.GetGlobalRepositories().Payment
	payment, err := payments.GetByID(uint(paymentID))
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"success": false, "error": "Pagamento não encontrado."})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"success": false, "error": "Falha ao consultar o pagamento."})
	}

	status := payment.Status
	if status == models.PaymentStatusPending && !payment.IsPreapprovalPlaceholder() {
		gateway := mercadopago.NewClientFromEnv()
		svc := billing.NewServiceFromDB(database.GetDB(), gateway)
		if err := svc.ProcessPaymentNotification(ctx, payment.ProviderPaymentID); err != nil {
			fiberlog.Warnf("payment status refresh for %d failed: %v", payment.ID, err)
		} else if refreshed, err := payments.GetByID(payment.ID); err == nil {
			status = refreshed.Status
		}
	}

	if err := cache.Set(cacheKey, status, paymentStatusCacheTTL); err != nil {
		fiberlog.Warnf("payment status cache write failed: %v", err)
	}

	return c.Status(fiber.StatusOK).JSON(fiber.Map{"success": true, "status": status})
}

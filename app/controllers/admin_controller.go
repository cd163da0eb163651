package controllers

import (
	"context"
	"errors"
	"strconv"
	"time"

	"github.com/gofiber/fiber/v2"
	fiberlog "github.com/gofiber/fiber/v2/log"
	"gorm.io/gorm"

	"github.com/headshop-br/headshop/app/models"
	"github.com/headshop-br/headshop/app/repository"
	"github.com/headshop-br/headshop/internal/pkg/billing"
	"github.com/headshop-br/headshop/internal/pkg/database"
	"github.com/headshop-br/headshop/internal/pkg/mercadopago"
)

const (
	adminPageSize       = 50
	adminActionTimeout  = 20 * time.Second
	revenueDefaultRange = 30
)

var validOrderStatuses = map[string]bool{
	models.OrderStatusPending:   true,
	models.OrderStatusPaid:      true,
	models.OrderStatusShipped:   true,
	models.OrderStatusDelivered: true,
	models.OrderStatusCanceled:  true,
}

func adminPagination(c *fiber.Ctx) (page, limit int) {
	page, _ = strconv.Atoi(c.Query("page", "1"))
	if page < 1 {
		page = 1
	}
	limit, _ = strconv.Atoi(c.Query("limit", strconv.Itoa(adminPageSize)))
	if limit < 1 || limit > 200 {
		limit = adminPageSize
	}
	return page, limit
}

// HandleAdminListOrders lists orders, optionally filtered by status.
func HandleAdminListOrders(c *fiber.Ctx) error {
	status := c.Query("status")
	if status != "" && !validOrderStatuses[status] {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid_status"})
	}
	page, limit := adminPagination(c)

	repo := repository.GetGlobalRepositories().Order
	orders, err := repo.List(status, (page-1)*limit, limit)
	if err != nil {
		fiberlog.Errorf("admin order list failed: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "order_list_failed"})
	}
	total, err := repo.Count(status)
	if err != nil {
		fiberlog.Errorf("admin order count failed: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "order_count_failed"})
	}

	return c.Status(fiber.StatusOK).JSON(fiber.Map{"orders": orders, "page": page, "limit": limit, "total": total})
}

type orderStatusRequest struct {
	Status string `json:"status"`
}

// HandleAdminUpdateOrderStatus moves an order along the fulfillment chain.
// Transitions are forward-only; terminal orders are immutable.
func HandleAdminUpdateOrderStatus(c *fiber.Ctx) error {
	orderID, err := c.ParamsInt("id")
	if err != nil || orderID <= 0 {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid_order_id"})
	}
	var req orderStatusRequest
	if err := c.BodyParser(&req); err != nil || !validOrderStatuses[req.Status] {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid_status"})
	}

	repo := repository.GetGlobalRepositories().Order
	order, err := repo.GetByID(uint(orderID))
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "order_not_found"})
		}
		fiberlog.Errorf("admin order lookup failed: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "order_lookup_failed"})
	}

	if !order.CanTransitionTo(req.Status) {
		return c.Status(fiber.StatusConflict).JSON(fiber.Map{
			"error": "invalid_transition",
			"from":  order.Status,
			"to":    req.Status,
		})
	}
	if err := repo.UpdateStatus(order.ID, req.Status); err != nil {
		fiberlog.Errorf("admin order status update failed: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "order_update_failed"})
	}

	return c.Status(fiber.StatusOK).JSON(fiber.Map{"ok": true, "status": req.Status})
}

// HandleAdminListSubscriptions lists subscriptions, optionally by status.
func HandleAdminListSubscriptions(c *fiber.Ctx) error {
	status := c.Query("status")
	page, limit := adminPagination(c)

	subs, err := repository.GetGlobalRepositories().Subscription.List(status, (page-1)*limit, limit)
	if err != nil {
		fiberlog.Errorf("admin subscription list failed: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "subscription_list_failed"})
	}
	return c.Status(fiber.StatusOK).JSON(fiber.Map{"subscriptions": subs, "page": page, "limit": limit})
}

// HandleAdminPauseSubscription pauses the gateway agreement, then the row.
func HandleAdminPauseSubscription(c *fiber.Ctx) error {
	return adminSubscriptionAction(c, func(ctx context.Context, svc *billing.Service, id uint) error {
		return svc.PauseSubscription(ctx, id)
	})
}

// HandleAdminResumeSubscription reactivates a paused agreement.
func HandleAdminResumeSubscription(c *fiber.Ctx) error {
	return adminSubscriptionAction(c, func(ctx context.Context, svc *billing.Service, id uint) error {
		return svc.ResumeSubscription(ctx, id)
	})
}

// HandleAdminCancelSubscription cancels the agreement permanently.
func HandleAdminCancelSubscription(c *fiber.Ctx) error {
	return adminSubscriptionAction(c, func(ctx context.Context, svc *billing.Service, id uint) error {
		return svc.CancelSubscription(ctx, id)
	})
}

func adminSubscriptionAction(c *fiber.Ctx, action func(context.Context, *billing.Service, uint) error) error {
	subID, err := c.ParamsInt("id")
	if err != nil || subID <= 0 {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid_subscription_id"})
	}

	svc := billing.NewServiceFromDB(database.GetDB(), mercadopago.NewClientFromEnv())
	ctx, cancel := context.WithTimeout(context.Background(), adminActionTimeout)
	defer cancel()

	if err := action(ctx, svc, uint(subID)); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "subscription_not_found"})
		}
		fiberlog.Errorf("admin subscription action failed: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "subscription_action_failed"})
	}
	return c.Status(fiber.StatusOK).JSON(fiber.Map{"ok": true})
}

// HandleAdminDailyRevenue aggregates paid-order revenue per day.
func HandleAdminDailyRevenue(c *fiber.Ctx) error {
	days, _ := strconv.Atoi(c.Query("days", strconv.Itoa(revenueDefaultRange)))
	if days < 1 || days > 365 {
		days = revenueDefaultRange
	}
	end := time.Now()
	start := end.AddDate(0, 0, -days)

	rows, err := repository.GetGlobalRepositories().Order.GetDailyRevenue(start, end)
	if err != nil {
		fiberlog.Errorf("admin revenue query failed: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "revenue_query_failed"})
	}
	return c.Status(fiber.StatusOK).JSON(fiber.Map{"days": days, "revenue": rows})
}

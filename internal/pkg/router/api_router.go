package router

import (
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/limiter"

	"github.com/headshop-br/headshop/app/controllers"
	"github.com/headshop-br/headshop/internal/pkg/middleware"
	"github.com/headshop-br/headshop/internal/pkg/session"
)

type ApiRouter struct {
}

func (h ApiRouter) InstallRouter(app *fiber.App) {
	// init session store for guest carts and customer binding
	session.NewSessionStore()

	api := app.Group("/api", limiter.New())
	api.Get("/", func(ctx *fiber.Ctx) error {
		return ctx.Status(fiber.StatusOK).JSON(fiber.Map{"service": "headshop", "status": "ok"})
	})

	// catalog
	api.Get("/products", controllers.HandleListProducts)
	api.Get("/products/:slug", controllers.HandleGetProduct)
	api.Get("/plans", controllers.HandleListPlans)
	api.Get("/plans/:slug", controllers.HandleGetPlan)

	// guest cart (session token)
	api.Get("/cart", controllers.HandleGetCart)
	api.Post("/cart/items", controllers.HandleAddCartItem)
	api.Put("/cart/items/:id", controllers.HandleUpdateCartItem)
	api.Delete("/cart/items/:id", controllers.HandleRemoveCartItem)

	// customer identity for checkout
	api.Post("/customers", controllers.HandleUpsertCustomer)
	api.Get("/addresses", controllers.HandleListAddresses)
	api.Post("/addresses", controllers.HandleCreateAddress)

	// shipping
	api.Post("/shipping/quote", controllers.HandleShippingQuote)

	// checkout and payment polling
	api.Post("/checkout/subscription", controllers.HandleCheckoutSubscription)
	api.Post("/checkout/order", controllers.HandleCheckoutOrder)
	api.Get("/checkout/payment-status/:paymentId", controllers.HandlePaymentStatus)

	// gateway callbacks. GET answers endpoint validation pings; the webhook
	// itself must never be rate limited.
	app.Post("/api/webhooks/mercadopago", controllers.HandleMercadoPagoWebhook)
	app.Get("/api/webhooks/mercadopago", controllers.HandleMercadoPagoWebhookHealth)

	// back-office
	admin := api.Group("/admin", middleware.AdminKeyMiddleware())
	admin.Get("/orders", controllers.HandleAdminListOrders)
	admin.Patch("/orders/:id/status", controllers.HandleAdminUpdateOrderStatus)
	admin.Get("/subscriptions", controllers.HandleAdminListSubscriptions)
	admin.Post("/subscriptions/:id/pause", controllers.HandleAdminPauseSubscription)
	admin.Post("/subscriptions/:id/resume", controllers.HandleAdminResumeSubscription)
	admin.Post("/subscriptions/:id/cancel", controllers.HandleAdminCancelSubscription)
	admin.Get("/stats/daily-revenue", controllers.HandleAdminDailyRevenue)
}

func NewApiRouter() *ApiRouter {
	return &ApiRouter{}
}

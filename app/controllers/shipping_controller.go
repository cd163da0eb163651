package controllers

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	fiberlog "github.com/gofiber/fiber/v2/log"

	"github.com/headshop-br/headshop/app/repository"
	"github.com/headshop-br/headshop/internal/pkg/shipping"
)

type shippingQuoteRequest struct {
	CEP               string `json:"cep"`
	ProductIDs        []uint `json:"productIds"`
	PlanID            uint   `json:"planId"`
	ShippingProfileID uint   `json:"shippingProfileId"`
}

// HandleShippingQuote quotes delivery options for a destination CEP.
// A malformed CEP is a validation error, never a fallback price.
func HandleShippingQuote(c *fiber.Ctx) error {
	var req shippingQuoteRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"success": false, "error": "Requisição inválida."})
	}

	svc := shipping.NewService(shipping.NewRateClientFromEnv(), repository.GetGlobalRepositories().ShippingProfile)
	options, err := svc.Quote(c.Context(), shipping.QuoteInput{
		CEP:               req.CEP,
		ShippingProfileID: req.ShippingProfileID,
		ProductIDs:        req.ProductIDs,
		PlanID:            req.PlanID,
	})
	if err != nil {
		if errors.Is(err, shipping.ErrInvalidCEP) {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"success": false, "error": "CEP inválido. Informe 8 dígitos."})
		}
		fiberlog.Errorf("shipping quote failed: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"success": false, "error": "Não foi possível calcular o frete."})
	}

	return c.Status(fiber.StatusOK).JSON(fiber.Map{"success": true, "options": options})
}

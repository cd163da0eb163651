package controllers

import (
	"errors"
	"strconv"

	"github.com/gofiber/fiber/v2"
	fiberlog "github.com/gofiber/fiber/v2/log"
	"gorm.io/gorm"

	"github.com/headshop-br/headshop/app/repository"
)

const defaultCatalogPageSize = 24

// HandleListProducts lists active products, paginated.
func HandleListProducts(c *fiber.Ctx) error {
	page, _ := strconv.Atoi(c.Query("page", "1"))
	if page < 1 {
		page = 1
	}
	limit, _ := strconv.Atoi(c.Query("limit", strconv.Itoa(defaultCatalogPageSize)))
	if limit < 1 || limit > 100 {
		limit = defaultCatalogPageSize
	}

	repo := repository.GetGlobalRepositories().Product
	products, err := repo.ListActive((page-1)*limit, limit)
	if err != nil {
		fiberlog.Errorf("product list failed: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"success": false, "error": "Falha ao carregar produtos."})
	}
	total, err := repo.Count()
	if err != nil {
		fiberlog.Errorf("product count failed: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"success": false, "error": "Falha ao carregar produtos."})
	}

	return c.Status(fiber.StatusOK).JSON(fiber.Map{
		"success":  true,
		"products": products,
		"page":     page,
		"limit":    limit,
		"total":    total,
	})
}

// HandleGetProduct returns one product by slug.
func HandleGetProduct(c *fiber.Ctx) error {
	product, err := repository.GetGlobalRepositories().Product.GetBySlug(c.Params("slug"))
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"success": false, "error": "Produto não encontrado."})
		}
		fiberlog.Errorf("product lookup failed: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"success": false, "error": "Falha ao carregar produto."})
	}
	return c.Status(fiber.StatusOK).JSON(fiber.Map{"success": true, "product": product})
}

// HandleListPlans lists active subscription plans.
func HandleListPlans(c *fiber.Ctx) error {
	plans, err := repository.GetGlobalRepositories().Plan.ListActive()
	if err != nil {
		fiberlog.Errorf("plan list failed: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"success": false, "error": "Falha ao carregar planos."})
	}
	return c.Status(fiber.StatusOK).JSON(fiber.Map{"success": true, "plans": plans})
}

// HandleGetPlan returns one plan by slug.
func HandleGetPlan(c *fiber.Ctx) error {
	plan, err := repository.GetGlobalRepositories().Plan.GetBySlug(c.Params("slug"))
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"success": false, "error": "Plano não encontrado."})
		}
		fiberlog.Errorf("plan lookup failed: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"success": false, "error": "Falha ao carregar plano."})
	}
	return c.Status(fiber.StatusOK).JSON(fiber.Map{"success": true, "plan": plan})
}

package controllers

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	fiberlog "github.com/gofiber/fiber/v2/log"
	"gorm.io/gorm"

	"github.com/headshop-br/headshop/app/models"
	"github.com/headshop-br/headshop/app/repository"
	"github.com/headshop-br/headshop/internal/pkg/session"
)

type addCartItemRequest struct {
	ProductID uint `json:"productId"`
	Quantity  int  `json:"quantity"`
}

type updateCartItemRequest struct {
	Quantity int `json:"quantity"`
}

func sessionCart(c *fiber.Ctx) (*models.Cart, error) {
	token, err := session.CartToken(c)
	if err != nil {
		return nil, err
	}
	return repository.GetGlobalRepositories().Cart.GetOrCreateByToken(token)
}

// HandleGetCart returns the session's cart, creating it on first access.
func HandleGetCart(c *fiber.Ctx) error {
	cart, err := sessionCart(c)
	if err != nil {
		fiberlog.Errorf("cart load failed: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"success": false, "error": "Falha ao carregar o carrinho."})
	}
	return c.Status(fiber.StatusOK).JSON(fiber.Map{"success": true, "cart": cart, "subtotal": cart.Subtotal()})
}

// HandleAddCartItem adds a product to the session cart. The unit price is
// snapshotted from the catalog at add time.
func HandleAddCartItem(c *fiber.Ctx) error {
	var req addCartItemRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"success": false, "error": "Requisição inválida."})
	}
	if req.ProductID == 0 || req.Quantity < 1 {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"success": false, "error": "Produto e quantidade são obrigatórios."})
	}

	product, err := repository.GetGlobalRepositories().Product.GetByID(req.ProductID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"success": false, "error": "Produto não encontrado."})
		}
		fiberlog.Errorf("cart product lookup failed: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"success": false, "error": "Falha ao adicionar o item."})
	}
	if !product.IsActive {
		return c.Status(fiber.StatusUnprocessableEntity).JSON(fiber.Map{"success": false, "error": "Produto indisponível."})
	}

	cart, err := sessionCart(c)
	if err != nil {
		fiberlog.Errorf("cart load failed: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"success": false, "error": "Falha ao carregar o carrinho."})
	}

	item := &models.CartItem{
		CartID:    cart.ID,
		ProductID: product.ID,
		UnitPrice: product.Price,
		Quantity:  req.Quantity,
	}
	if err := repository.GetGlobalRepositories().Cart.AddItem(cart.ID, item); err != nil {
		fiberlog.Errorf("cart add item failed: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"success": false, "error": "Falha ao adicionar o item."})
	}

	return refreshedCart(c, cart.Token, fiber.StatusCreated)
}

// HandleUpdateCartItem changes an item's quantity. Quantity zero removes it.
func HandleUpdateCartItem(c *fiber.Ctx) error {
	itemID, err := c.ParamsInt("id")
	if err != nil || itemID <= 0 {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"success": false, "error": "Item inválido."})
	}
	var req updateCartItemRequest
	if err := c.BodyParser(&req); err != nil || req.Quantity < 0 {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"success": false, "error": "Quantidade inválida."})
	}

	cart, err := sessionCart(c)
	if err != nil {
		fiberlog.Errorf("cart load failed: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"success": false, "error": "Falha ao carregar o carrinho."})
	}

	repo := repository.GetGlobalRepositories().Cart
	if req.Quantity == 0 {
		err = repo.RemoveItem(cart.ID, uint(itemID))
	} else {
		err = repo.UpdateItemQuantity(cart.ID, uint(itemID), req.Quantity)
	}
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"success": false, "error": "Item não encontrado."})
		}
		fiberlog.Errorf("cart update item failed: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"success": false, "error": "Falha ao atualizar o item."})
	}

	return refreshedCart(c, cart.Token, fiber.StatusOK)
}

// HandleRemoveCartItem deletes an item from the session cart.
func HandleRemoveCartItem(c *fiber.Ctx) error {
	itemID, err := c.ParamsInt("id")
	if err != nil || itemID <= 0 {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"success": false, "error": "Item inválido."})
	}

	cart, err := sessionCart(c)
	if err != nil {
		fiberlog.Errorf("cart load failed: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"success": false, "error": "Falha ao carregar o carrinho."})
	}

	if err := repository.GetGlobalRepositories().Cart.RemoveItem(cart.ID, uint(itemID)); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"success": false, "error": "Item não encontrado."})
		}
		fiberlog.Errorf("cart remove item failed: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"success": false, "error": "Falha ao remover o item."})
	}

	return refreshedCart(c, cart.Token, fiber.StatusOK)
}

func refreshedCart(c *fiber.Ctx, token string, status int) error {
	cart, err := repository.GetGlobalRepositories().Cart.GetByToken(token)
	if err != nil {
		fiberlog.Errorf("cart reload failed: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"success": false, "error": "Falha ao carregar o carrinho."})
	}
	return c.Status(status).JSON(fiber.Map{"success": true, "cart": cart, "subtotal": cart.Subtotal()})
}

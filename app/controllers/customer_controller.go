package controllers

import (
	"errors"
	"regexp"

	"github.com/gofiber/fiber/v2"
	fiberlog "github.com/gofiber/fiber/v2/log"
	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/headshop-br/headshop/app/models"
	"github.com/headshop-br/headshop/app/repository"
	"github.com/headshop-br/headshop/internal/pkg/session"
	"github.com/headshop-br/headshop/internal/pkg/shipping"
)

var nonDigits = regexp.MustCompile(`\D`)

type customerRequest struct {
	Name     string          `json:"name"`
	Email    string          `json:"email"`
	Phone    string          `json:"phone"`
	Document string          `json:"document"` // CPF
	Address  *addressRequest `json:"address,omitempty"`
}

type addressRequest struct {
	Label        string `json:"label"`
	Street       string `json:"street"`
	Number       string `json:"number"`
	Complement   string `json:"complement"`
	Neighborhood string `json:"neighborhood"`
	City         string `json:"city"`
	State        string `json:"state"`
	CEP          string `json:"cep"`
}

// HandleUpsertCustomer registers (or refreshes) the checkout customer keyed
// by email and binds them to the session. There is no password login flow;
// the storefront identifies a customer only to attach orders and addresses.
func HandleUpsertCustomer(c *fiber.Ctx) error {
	var req customerRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"success": false, "error": "Requisição inválida."})
	}
	if req.Name == "" || req.Email == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"success": false, "error": "Nome e e-mail são obrigatórios."})
	}

	repos := repository.GetGlobalRepositories()
	user, err := repos.User.GetByEmail(req.Email)
	switch {
	case err == nil:
		user.Name = req.Name
		user.Phone = req.Phone
		if req.Document != "" {
			user.Document = nonDigits.ReplaceAllString(req.Document, "")
		}
		if err := repos.User.Update(user); err != nil {
			fiberlog.Errorf("customer update failed: %v", err)
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"success": false, "error": "Falha ao salvar o cadastro."})
		}
	case errors.Is(err, gorm.ErrRecordNotFound):
		// Customers never log in with a password; satisfy the column with a
		// random credential.
		user, err = models.CreateUser(req.Name, req.Email, uuid.New().String())
		if err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"success": false, "error": "Dados de cadastro inválidos."})
		}
		user.Phone = req.Phone
		user.Document = nonDigits.ReplaceAllString(req.Document, "")
		if err := repos.User.Create(user); err != nil {
			fiberlog.Errorf("customer create failed: %v", err)
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"success": false, "error": "Falha ao salvar o cadastro."})
		}
	default:
		fiberlog.Errorf("customer lookup failed: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"success": false, "error": "Falha ao salvar o cadastro."})
	}

	var address *models.Address
	if req.Address != nil {
		address, err = createCustomerAddress(repos, user.ID, req.Address)
		if err != nil {
			if errors.Is(err, shipping.ErrInvalidCEP) {
				return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"success": false, "error": "CEP inválido. Informe 8 dígitos."})
			}
			fiberlog.Errorf("customer address create failed: %v", err)
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"success": false, "error": "Falha ao salvar o endereço."})
		}
	}

	if err := session.SetUserID(c, user.ID); err != nil {
		fiberlog.Errorf("customer session bind failed: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"success": false, "error": "Falha ao iniciar a sessão."})
	}

	resp := fiber.Map{"success": true, "customer": user}
	if address != nil {
		resp["address"] = address
	}
	return c.Status(fiber.StatusOK).JSON(resp)
}

// HandleListAddresses returns the session customer's saved addresses.
func HandleListAddresses(c *fiber.Ctx) error {
	userID := session.UserID(c)
	if userID == 0 {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"success": false, "error": "Identifique-se para ver seus endereços."})
	}
	addresses, err := repository.GetGlobalRepositories().Address.GetByUserID(userID)
	if err != nil {
		fiberlog.Errorf("address list failed: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"success": false, "error": "Falha ao carregar endereços."})
	}
	return c.Status(fiber.StatusOK).JSON(fiber.Map{"success": true, "addresses": addresses})
}

// HandleCreateAddress adds a delivery address for the session customer.
func HandleCreateAddress(c *fiber.Ctx) error {
	userID := session.UserID(c)
	if userID == 0 {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"success": false, "error": "Identifique-se para salvar um endereço."})
	}
	var req addressRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"success": false, "error": "Requisição inválida."})
	}

	address, err := createCustomerAddress(repository.GetGlobalRepositories(), userID, &req)
	if err != nil {
		if errors.Is(err, shipping.ErrInvalidCEP) {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"success": false, "error": "CEP inválido. Informe 8 dígitos."})
		}
		fiberlog.Errorf("address create failed: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"success": false, "error": "Falha ao salvar o endereço."})
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"success": true, "address": address})
}

func createCustomerAddress(repos *repository.Repositories, userID uint, req *addressRequest) (*models.Address, error) {
	cep, err := shipping.NormalizeCEP(req.CEP)
	if err != nil {
		return nil, err
	}
	address := &models.Address{
		UserID:       userID,
		Label:        req.Label,
		Street:       req.Street,
		Number:       req.Number,
		Complement:   req.Complement,
		Neighborhood: req.Neighborhood,
		City:         req.City,
		State:        req.State,
		CEP:          cep,
	}
	if err := repos.Address.Create(address); err != nil {
		return nil, err
	}
	return address, nil
}

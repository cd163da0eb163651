package repository

import (
	"time"

	"github.com/headshop-br/headshop/app/models"
	"gorm.io/gorm"
)

// UserRepository defines the interface for user-related database operations
type UserRepository interface {
	Create(user *models.User) error
	GetByID(id uint) (*models.User, error)
	GetByEmail(email string) (*models.User, error)
	Update(user *models.User) error
	List(offset, limit int) ([]models.User, error)
	Count() (int64, error)
}

// AddressRepository defines the interface for delivery addresses
type AddressRepository interface {
	Create(address *models.Address) error
	GetByID(id uint) (*models.Address, error)
	GetByIDForUser(id, userID uint) (*models.Address, error)
	GetByUserID(userID uint) ([]models.Address, error)
	Update(address *models.Address) error
	Delete(id uint) error
}

// ProductRepository defines the interface for catalog products
type ProductRepository interface {
	Create(product *models.Product) error
	GetByID(id uint) (*models.Product, error)
	GetBySlug(slug string) (*models.Product, error)
	GetByIDs(ids []uint) ([]models.Product, error)
	ListActive(offset, limit int) ([]models.Product, error)
	Update(product *models.Product) error
	Count() (int64, error)
}

// PlanRepository defines the interface for subscription plans
type PlanRepository interface {
	Create(plan *models.Plan) error
	GetByID(id uint) (*models.Plan, error)
	GetBySlug(slug string) (*models.Plan, error)
	ListActive() ([]models.Plan, error)
	Update(plan *models.Plan) error
}

// CartRepository defines the interface for session carts
type CartRepository interface {
	GetOrCreateByToken(token string) (*models.Cart, error)
	GetByToken(token string) (*models.Cart, error)
	AddItem(cartID uint, item *models.CartItem) error
	UpdateItemQuantity(cartID, itemID uint, quantity int) error
	RemoveItem(cartID, itemID uint) error
	Clear(cartID uint) error
}

// OrderRepository defines the interface for orders
type OrderRepository interface {
	Create(order *models.Order) error
	GetByID(id uint) (*models.Order, error)
	GetByPublicID(publicID string) (*models.Order, error)
	GetByUserID(userID uint, offset, limit int) ([]models.Order, error)
	UpdateStatus(id uint, status string) error
	List(status string, offset, limit int) ([]models.Order, error)
	Count(status string) (int64, error)
	GetDailyRevenue(startDate, endDate time.Time) ([]DailyRevenue, error)
}

// PaymentRepository defines the interface for gateway charges
type PaymentRepository interface {
	Create(payment *models.Payment) error
	GetByID(id uint) (*models.Payment, error)
	GetByProviderPaymentID(provider, providerPaymentID string) (*models.Payment, error)
	GetLatestByOrderID(orderID uint) (*models.Payment, error)
	UpdateStatus(id uint, status, rawPayloadJSON string) error
}

// SubscriptionRepository defines the interface for recurring agreements
type SubscriptionRepository interface {
	Create(sub *models.Subscription) error
	GetByID(id uint) (*models.Subscription, error)
	GetByProviderPreapprovalID(provider, preapprovalID string) (*models.Subscription, error)
	GetActiveByUserID(userID uint) (*models.Subscription, error)
	Save(sub *models.Subscription) error
	List(status string, offset, limit int) ([]models.Subscription, error)
	CreateCycleIfNotExists(cycle *models.SubscriptionCycle) (bool, error)
	CountCycles(subscriptionID uint) (int64, error)
}

// ShippingProfileRepository resolves weight/dimension profiles for quoting
type ShippingProfileRepository interface {
	GetProfileByID(id uint) (*models.ShippingProfile, error)
	GetProfileForProducts(productIDs []uint) (*models.ShippingProfile, error)
	GetProfileForPlan(planID uint) (*models.ShippingProfile, error)
	GetDefaultProfile() (*models.ShippingProfile, error)
}

// DailyRevenue is one day of aggregated paid-order revenue for the admin
// dashboard.
type DailyRevenue struct {
	Date    time.Time
	Orders  int64
	Revenue float64
}

// Repositories struct holds all repository instances
type Repositories struct {
	User            UserRepository
	Address         AddressRepository
	Product         ProductRepository
	Plan            PlanRepository
	Cart            CartRepository
	Order           OrderRepository
	Payment         PaymentRepository
	Subscription    SubscriptionRepository
	ShippingProfile ShippingProfileRepository
}

// NewRepositories creates a new instance of all repositories
func NewRepositories(db *gorm.DB) *Repositories {
	return &Repositories{
		User:            NewUserRepository(db),
		Address:         NewAddressRepository(db),
		Product:         NewProductRepository(db),
		Plan:            NewPlanRepository(db),
		Cart:            NewCartRepository(db),
		Order:           NewOrderRepository(db),
		Payment:         NewPaymentRepository(db),
		Subscription:    NewSubscriptionRepository(db),
		ShippingProfile: NewShippingProfileRepository(db),
	}
}

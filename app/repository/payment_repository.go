package repository

import (
	"github.com/headshop-br/headshop/app/models"
	"gorm.io/gorm"
)

type paymentRepository struct {
	db *gorm.DB
}

// NewPaymentRepository creates a new payment repository instance
func NewPaymentRepository(db *gorm.DB) PaymentRepository {
	return &paymentRepository{db: db}
}

func (r *paymentRepository) Create(payment *models.Payment) error {
	return r.db.Create(payment).Error
}

func (r *paymentRepository) GetByID(id uint) (*models.Payment, error) {
	var payment models.Payment
	if err := r.db.First(&payment, id).Error; err != nil {
		return nil, err
	}
	return &payment, nil
}

func (r *paymentRepository) GetByProviderPaymentID(provider, providerPaymentID string) (*models.Payment, error) {
	var payment models.Payment
	err := r.db.Where("provider = ? AND provider_payment_id = ?", provider, providerPaymentID).
		First(&payment).Error
	if err != nil {
		return nil, err
	}
	return &payment, nil
}

// GetLatestByOrderID returns the most recent charge attempt; status checks
// use this row.
func (r *paymentRepository) GetLatestByOrderID(orderID uint) (*models.Payment, error) {
	var payment models.Payment
	err := r.db.Where("order_id = ?", orderID).Order("created_at DESC").First(&payment).Error
	if err != nil {
		return nil, err
	}
	return &payment, nil
}

func (r *paymentRepository) UpdateStatus(id uint, status, rawPayloadJSON string) error {
	updates := map[string]interface{}{"status": status}
	if rawPayloadJSON != "" {
		updates["raw_payload_json"] = rawPayloadJSON
	}
	return r.db.Model(&models.Payment{}).Where("id = ?", id).Updates(updates).Error
}

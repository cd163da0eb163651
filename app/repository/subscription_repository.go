package repository

import (
	"github.com/headshop-br/headshop/app/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type subscriptionRepository struct {
	db *gorm.DB
}

// NewSubscriptionRepository creates a new subscription repository instance
func NewSubscriptionRepository(db *gorm.DB) SubscriptionRepository {
	return &subscriptionRepository{db: db}
}

func (r *subscriptionRepository) Create(sub *models.Subscription) error {
	return r.db.Create(sub).Error
}

func (r *subscriptionRepository) GetByID(id uint) (*models.Subscription, error) {
	var sub models.Subscription
	if err := r.db.Preload("Plan").First(&sub, id).Error; err != nil {
		return nil, err
	}
	return &sub, nil
}

func (r *subscriptionRepository) GetByProviderPreapprovalID(provider, preapprovalID string) (*models.Subscription, error) {
	var sub models.Subscription
	err := r.db.Where("provider = ? AND provider_preapproval_id = ?", provider, preapprovalID).
		First(&sub).Error
	if err != nil {
		return nil, err
	}
	return &sub, nil
}

func (r *subscriptionRepository) GetActiveByUserID(userID uint) (*models.Subscription, error) {
	var sub models.Subscription
	err := r.db.Where("user_id = ? AND status = ?", userID, models.SubscriptionStatusActive).
		First(&sub).Error
	if err != nil {
		return nil, err
	}
	return &sub, nil
}

func (r *subscriptionRepository) Save(sub *models.Subscription) error {
	return r.db.Save(sub).Error
}

func (r *subscriptionRepository) List(status string, offset, limit int) ([]models.Subscription, error) {
	var subs []models.Subscription
	query := r.db.Preload("Plan").Order("created_at DESC").Offset(offset).Limit(limit)
	if status != "" {
		query = query.Where("status = ?", status)
	}
	err := query.Find(&subs).Error
	return subs, err
}

// CreateCycleIfNotExists inserts a billing cycle keyed by the provider
// payment id. A duplicate renewal webhook hits the unique index and reports
// created=false instead of double-recording the cycle.
func (r *subscriptionRepository) CreateCycleIfNotExists(cycle *models.SubscriptionCycle) (bool, error) {
	tx := r.db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "provider_payment_id"}},
		DoNothing: true,
	}).Create(cycle)
	if tx.Error != nil {
		return false, tx.Error
	}
	return tx.RowsAffected > 0, nil
}

func (r *subscriptionRepository) CountCycles(subscriptionID uint) (int64, error) {
	var count int64
	err := r.db.Model(&models.SubscriptionCycle{}).
		Where("subscription_id = ?", subscriptionID).Count(&count).Error
	return count, err
}

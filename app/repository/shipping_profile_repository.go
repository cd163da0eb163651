package repository

import (
	"github.com/headshop-br/headshop/app/models"
	"gorm.io/gorm"
)

type shippingProfileRepository struct {
	db *gorm.DB
}

// NewShippingProfileRepository creates a new shipping profile repository instance
func NewShippingProfileRepository(db *gorm.DB) ShippingProfileRepository {
	return &shippingProfileRepository{db: db}
}

func (r *shippingProfileRepository) GetProfileByID(id uint) (*models.ShippingProfile, error) {
	var profile models.ShippingProfile
	if err := r.db.First(&profile, id).Error; err != nil {
		return nil, err
	}
	return &profile, nil
}

// GetProfileForProducts picks the heaviest profile referenced by the product
// set, so a mixed cart is never under-quoted.
func (r *shippingProfileRepository) GetProfileForProducts(productIDs []uint) (*models.ShippingProfile, error) {
	var profile models.ShippingProfile
	err := r.db.
		Joins("JOIN products ON products.shipping_profile_id = shipping_profiles.id").
		Where("products.id IN ?", productIDs).
		Order("shipping_profiles.weight_grams DESC").
		First(&profile).Error
	if err != nil {
		return nil, err
	}
	return &profile, nil
}

func (r *shippingProfileRepository) GetProfileForPlan(planID uint) (*models.ShippingProfile, error) {
	var profile models.ShippingProfile
	err := r.db.
		Joins("JOIN plans ON plans.shipping_profile_id = shipping_profiles.id").
		Where("plans.id = ?", planID).
		First(&profile).Error
	if err != nil {
		return nil, err
	}
	return &profile, nil
}

func (r *shippingProfileRepository) GetDefaultProfile() (*models.ShippingProfile, error) {
	var profile models.ShippingProfile
	if err := r.db.Where("is_default = ?", true).First(&profile).Error; err != nil {
		return nil, err
	}
	return &profile, nil
}

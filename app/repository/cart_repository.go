package repository

import (
	"github.com/headshop-br/headshop/app/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type cartRepository struct {
	db *gorm.DB
}

// NewCartRepository creates a new cart repository instance
func NewCartRepository(db *gorm.DB) CartRepository {
	return &cartRepository{db: db}
}

// GetOrCreateByToken resolves the session cart, creating an empty one on
// first touch. The unique token index makes concurrent first touches safe.
func (r *cartRepository) GetOrCreateByToken(token string) (*models.Cart, error) {
	cart := &models.Cart{Token: token}
	if err := r.db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "token"}},
		DoNothing: true,
	}).Create(cart).Error; err != nil {
		return nil, err
	}
	return r.GetByToken(token)
}

func (r *cartRepository) GetByToken(token string) (*models.Cart, error) {
	var cart models.Cart
	err := r.db.Preload("Items").Preload("Items.Product").
		Where("token = ?", token).First(&cart).Error
	if err != nil {
		return nil, err
	}
	return &cart, nil
}

// AddItem merges quantity into an existing line for the same product.
func (r *cartRepository) AddItem(cartID uint, item *models.CartItem) error {
	var existing models.CartItem
	err := r.db.Where("cart_id = ? AND product_id = ?", cartID, item.ProductID).First(&existing).Error
	if err == nil {
		existing.Quantity += item.Quantity
		return r.db.Save(&existing).Error
	}
	if err != gorm.ErrRecordNotFound {
		return err
	}
	item.CartID = cartID
	return r.db.Create(item).Error
}

func (r *cartRepository) UpdateItemQuantity(cartID, itemID uint, quantity int) error {
	return r.db.Model(&models.CartItem{}).
		Where("id = ? AND cart_id = ?", itemID, cartID).
		Update("quantity", quantity).Error
}

func (r *cartRepository) RemoveItem(cartID, itemID uint) error {
	return r.db.Where("id = ? AND cart_id = ?", itemID, cartID).Delete(&models.CartItem{}).Error
}

func (r *cartRepository) Clear(cartID uint) error {
	return r.db.Where("cart_id = ?", cartID).Delete(&models.CartItem{}).Error
}

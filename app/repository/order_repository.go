package repository

import (
	"time"

	"github.com/headshop-br/headshop/app/models"
	"gorm.io/gorm"
)

type orderRepository struct {
	db *gorm.DB
}

// NewOrderRepository creates a new order repository instance
func NewOrderRepository(db *gorm.DB) OrderRepository {
	return &orderRepository{db: db}
}

func (r *orderRepository) Create(order *models.Order) error {
	return r.db.Create(order).Error
}

func (r *orderRepository) GetByID(id uint) (*models.Order, error) {
	var order models.Order
	if err := r.db.Preload("Items").First(&order, id).Error; err != nil {
		return nil, err
	}
	return &order, nil
}

func (r *orderRepository) GetByPublicID(publicID string) (*models.Order, error) {
	var order models.Order
	if err := r.db.Preload("Items").Where("public_id = ?", publicID).First(&order).Error; err != nil {
		return nil, err
	}
	return &order, nil
}

func (r *orderRepository) GetByUserID(userID uint, offset, limit int) ([]models.Order, error) {
	var orders []models.Order
	err := r.db.Preload("Items").
		Where("user_id = ?", userID).
		Order("created_at DESC").Offset(offset).Limit(limit).
		Find(&orders).Error
	return orders, err
}

func (r *orderRepository) UpdateStatus(id uint, status string) error {
	return r.db.Model(&models.Order{}).Where("id = ?", id).Update("status", status).Error
}

func (r *orderRepository) List(status string, offset, limit int) ([]models.Order, error) {
	var orders []models.Order
	query := r.db.Preload("Items").Order("created_at DESC").Offset(offset).Limit(limit)
	if status != "" {
		query = query.Where("status = ?", status)
	}
	err := query.Find(&orders).Error
	return orders, err
}

func (r *orderRepository) Count(status string) (int64, error) {
	var count int64
	query := r.db.Model(&models.Order{})
	if status != "" {
		query = query.Where("status = ?", status)
	}
	err := query.Count(&count).Error
	return count, err
}

// GetDailyRevenue aggregates paid orders per day for the admin dashboard.
func (r *orderRepository) GetDailyRevenue(startDate, endDate time.Time) ([]DailyRevenue, error) {
	var rows []DailyRevenue
	err := r.db.Model(&models.Order{}).
		Select("DATE(created_at) as date, COUNT(*) as orders, COALESCE(SUM(total), 0) as revenue").
		Where("status IN ? AND created_at BETWEEN ? AND ?",
			[]string{models.OrderStatusPaid, models.OrderStatusShipped, models.OrderStatusDelivered},
			startDate, endDate).
		Group("DATE(created_at)").
		Order("date ASC").
		Scan(&rows).Error
	return rows, err
}

package repository

import (
	"github.com/JulianWeber/FanGate/app/models"
	"gorm.io/gorm"
)

// orderRepository implements the read side of the order ledger. Writes happen
// in the payments package inside the event-keyed transaction.
type orderRepository struct {
	db *gorm.DB
}

// NewOrderRepository creates a new order repository instance
func NewOrderRepository(db *gorm.DB) OrderRepository {
	return &orderRepository{db: db}
}

func (r *orderRepository) GetByID(id uint) (*models.Order, error) {
	var order models.Order
	err := r.db.Preload("Lines").First(&order, id).Error
	if err != nil {
		return nil, err
	}
	return &order, nil
}

func (r *orderRepository) GetByUUID(uuid string) (*models.Order, error) {
	var order models.Order
	err := r.db.Preload("Lines").Where("uuid = ?", uuid).First(&order).Error
	if err != nil {
		return nil, err
	}
	return &order, nil
}

func (r *orderRepository) GetByProviderSessionID(sessionID string) (*models.Order, error) {
	var order models.Order
	err := r.db.Preload("Lines").Where("provider_session_id = ?", sessionID).First(&order).Error
	if err != nil {
		return nil, err
	}
	return &order, nil
}

// ListPaidByBuyer feeds the ownership oracle. Linear in the buyer's history;
// a (buyer_id, product_id, status) join is the scale-up path if order volume
// ever makes this hot.
func (r *orderRepository) ListPaidByBuyer(buyerID uint) ([]models.Order, error) {
	var orders []models.Order
	err := r.db.Preload("Lines").
		Where("buyer_id = ? AND status = ?", buyerID, models.OrderStatusPaid).
		Order("created_at DESC").
		Find(&orders).Error
	return orders, err
}

func (r *orderRepository) ListByBuyer(buyerID uint) ([]models.Order, error) {
	var orders []models.Order
	err := r.db.Preload("Lines").
		Where("buyer_id = ?", buyerID).
		Order("created_at DESC").
		Find(&orders).Error
	return orders, err
}

func (r *orderRepository) CountByBuyer(buyerID uint) (int64, error) {
	var count int64
	err := r.db.Model(&models.Order{}).Where("buyer_id = ?", buyerID).Count(&count).Error
	return count, err
}

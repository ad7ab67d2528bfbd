package models

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

const (
	OrderStatusPending  = "pending"
	OrderStatusPaid     = "paid"
	OrderStatusFailed   = "failed"
	OrderStatusRefunded = "refunded"
)

// Order is one completed-or-attempted checkout. ProviderSessionID correlates
// it with the external checkout session; uniqueness per successful order is
// enforced through the processed-event store, not a column constraint.
type Order struct {
	ID                      uint        `gorm:"primaryKey" json:"id"`
	UUID                    string      `gorm:"type:char(36) CHARACTER SET utf8 COLLATE utf8_bin;uniqueIndex;not null" json:"uuid"`
	BuyerID                 uint        `gorm:"not null;index:idx_orders_buyer_status,priority:1" json:"buyer_id"`
	Buyer                   User        `gorm:"foreignKey:BuyerID" json:"-"`
	TotalAmount             int64       `gorm:"not null" json:"total_amount"`
	Currency                string      `gorm:"type:varchar(3);not null" json:"currency"`
	Status                  string      `gorm:"type:varchar(20);not null;default:'pending';index:idx_orders_buyer_status,priority:2" json:"status"`
	ProviderSessionID       string      `gorm:"type:varchar(191);not null;index" json:"provider_session_id"`
	ProviderPaymentIntentID string      `gorm:"type:varchar(191);index" json:"-"`
	Lines                   []OrderLine `gorm:"foreignKey:OrderID" json:"lines,omitempty"`
	CreatedAt               time.Time   `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt               time.Time   `gorm:"autoUpdateTime" json:"updated_at"`
}

func (o *Order) BeforeCreate(tx *gorm.DB) error {
	if o.UUID == "" {
		o.UUID = uuid.New().String()
	}
	return nil
}

// CanTransitionTo enforces the status lattice: pending may become paid or
// failed, paid may become refunded, nothing ever moves backwards.
func (o *Order) CanTransitionTo(next string) bool {
	switch o.Status {
	case OrderStatusPending:
		return next == OrderStatusPaid || next == OrderStatusFailed
	case OrderStatusPaid:
		return next == OrderStatusRefunded
	default:
		return false
	}
}

// TransitionTo applies a status change or reports why it is not allowed.
func (o *Order) TransitionTo(next string) error {
	if !o.CanTransitionTo(next) {
		return fmt.Errorf("order %s: illegal status transition %s -> %s", o.UUID, o.Status, next)
	}
	o.Status = next
	return nil
}

// IsPaid reports whether the order entitles its buyer to content.
func (o *Order) IsPaid() bool {
	return o.Status == OrderStatusPaid
}

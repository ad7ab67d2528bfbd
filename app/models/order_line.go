package models

import "time"

// OrderLine is one purchased item within an order.
//
// ContentReferenceSnapshot is copied from the product at the moment of
// purchase and is never recomputed: if the artist later replaces or deletes
// the stored object, prior buyers keep the reference they actually bought.
type OrderLine struct {
	ID                       uint      `gorm:"primaryKey" json:"id"`
	OrderID                  uint      `gorm:"not null;index" json:"order_id"`
	ProductID                uint      `gorm:"not null;index" json:"product_id"`
	ItemType                 string    `gorm:"type:varchar(20);not null" json:"item_type"`
	UnitPrice                int64     `gorm:"not null" json:"unit_price"`
	ContentReferenceSnapshot string    `gorm:"type:varchar(512);not null" json:"-"`
	CreatedAt                time.Time `gorm:"autoCreateTime" json:"created_at"`
}

package controllers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/JulianWeber/FanGate/app/repository"
	"github.com/JulianWeber/FanGate/internal/pkg/usercontext"
)

type libraryLine struct {
	ProductID uint   `json:"product_id"`
	ItemType  string `json:"item_type"`
	UnitPrice int64  `json:"unit_price"`
}

type libraryOrder struct {
	UUID        string        `json:"uuid"`
	TotalAmount int64         `json:"total_amount"`
	Currency    string        `json:"currency"`
	Status      string        `json:"status"`
	CreatedAt   string        `json:"created_at"`
	Lines       []libraryLine `json:"lines"`
}

// HandleMyOrders lists the caller's orders, newest first. Refunded orders
// stay visible with their status; entitlement checks elsewhere exclude them.
func HandleMyOrders(c *fiber.Ctx) error {
	userCtx := usercontext.GetUserContext(c)

	orders, err := repository.GetGlobalFactory().GetOrderRepository().ListByBuyer(userCtx.UserID)
	if err != nil {
		return jsonDomainError(c, err)
	}

	out := make([]libraryOrder, 0, len(orders))
	for _, order := range orders {
		entry := libraryOrder{
			UUID:        order.UUID,
			TotalAmount: order.TotalAmount,
			Currency:    order.Currency,
			Status:      order.Status,
			CreatedAt:   order.CreatedAt.Format("2006-01-02T15:04:05Z07:00"),
			Lines:       make([]libraryLine, 0, len(order.Lines)),
		}
		for _, line := range order.Lines {
			entry.Lines = append(entry.Lines, libraryLine{
				ProductID: line.ProductID,
				ItemType:  line.ItemType,
				UnitPrice: line.UnitPrice,
			})
		}
		out = append(out, entry)
	}

	return c.JSON(fiber.Map{"ok": true, "orders": out})
}

package orders

import (
	"time"

	"github.com/angelmondragon/shopfront/pkg/db/models"
	"github.com/shopspring/decimal"
)

// OrderDTO is the order payload returned to clients.
type OrderDTO struct {
	ID        uint            `json:"id"`
	UserID    uint            `json:"user_id"`
	Total     decimal.Decimal `json:"total"`
	CreatedAt time.Time       `json:"created_at"`
	Items     []OrderItemDTO  `json:"items"`
}

// OrderItemDTO exposes the frozen line snapshot.
type OrderItemDTO struct {
	Position    int             `json:"position"`
	ProductID   uint            `json:"product_id"`
	ProductName string          `json:"product_name"`
	UnitPrice   decimal.Decimal `json:"unit_price"`
	Quantity    int             `json:"quantity"`
	LineTotal   decimal.Decimal `json:"line_total"`
}

// OrderList is one newest-first page of orders.
type OrderList struct {
	Orders     []OrderDTO `json:"orders"`
	NextCursor string     `json:"next_cursor,omitempty"`
}

// OrderSummary is the minimal row used for sales statistics.
type OrderSummary struct {
	ID        uint
	Total     decimal.Decimal
	CreatedAt time.Time
}

// ProductSales aggregates sold units per product.
type ProductSales struct {
	ProductID   uint            `json:"product_id"`
	ProductName string          `json:"product_name"`
	Quantity    int             `json:"quantity"`
	Revenue     decimal.Decimal `json:"revenue"`
}

// PeriodStats counts orders and revenue over a window.
type PeriodStats struct {
	Label   string          `json:"label"`
	Orders  int             `json:"orders"`
	Revenue decimal.Decimal `json:"revenue"`
}

// SalesStats is the administrative sales overview.
type SalesStats struct {
	TotalOrders  int             `json:"total_orders"`
	TotalRevenue decimal.Decimal `json:"total_revenue"`
	Periods      []PeriodStats   `json:"periods"`
	TopProducts  []ProductSales  `json:"top_products"`
	GeneratedAt  time.Time       `json:"generated_at"`
}

// ToDTO maps a stored order and its items to the client payload.
func ToDTO(order models.Order) OrderDTO {
	items := make([]OrderItemDTO, 0, len(order.Items))
	for _, item := range order.Items {
		items = append(items, OrderItemDTO{
			Position:    item.Position,
			ProductID:   item.ProductID,
			ProductName: item.ProductName,
			UnitPrice:   item.UnitPrice.Round(2),
			Quantity:    item.Quantity,
			LineTotal:   item.LineTotal().Round(2),
		})
	}
	return OrderDTO{
		ID:        order.ID,
		UserID:    order.UserID,
		Total:     order.Total.Round(2),
		CreatedAt: order.CreatedAt,
		Items:     items,
	}
}

package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// OrderProduct — позиция заказа со снимком цены и количества на момент покупки.
// После создания не изменяется.
type OrderProduct struct {
	ID      string
	OrderID string
	// ProductID пуст, если товар удалён из каталога (ON DELETE SET NULL).
	ProductID string
	// Price — цена за единицу из каталога на момент заказа.
	Price     decimal.Decimal
	Quantity  int
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Order агрегирует заказ и его позиции в порядке запроса.
type Order struct {
	ID string
	// CustomerID пуст, если клиент удалён (ON DELETE SET NULL).
	CustomerID string
	Products   []OrderProduct
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// Total возвращает сумму заказа: Σ price * quantity.
func (o *Order) Total() decimal.Decimal {
	total := decimal.Zero
	for _, item := range o.Products {
		total = total.Add(item.Price.Mul(decimal.NewFromInt(int64(item.Quantity))))
	}
	return total
}

// UnitCount возвращает общее количество единиц товара в заказе.
func (o *Order) UnitCount() int {
	var count int
	for _, item := range o.Products {
		count += item.Quantity
	}
	return count
}

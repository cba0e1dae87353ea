package domain_test

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/vladislavdragonenkov/storefront/internal/domain"
)

// helper для создания заказа с двумя позициями.
func makeOrder() domain.Order {
	now := time.Now().UTC()
	return domain.Order{
		ID:         "order-1",
		CustomerID: "customer-1",
		Products: []domain.OrderProduct{
			{ID: "line-1", OrderID: "order-1", ProductID: "product-1", Price: decimal.RequireFromString("25.50"), Quantity: 3, CreatedAt: now},
			{ID: "line-2", OrderID: "order-1", ProductID: "product-2", Price: decimal.RequireFromString("0.99"), Quantity: 10, CreatedAt: now},
		},
		CreatedAt: now,
		UpdatedAt: now,
	}
}

func TestOrderTotal(t *testing.T) {
	order := makeOrder()

	want := decimal.RequireFromString("86.40")
	if got := order.Total(); !got.Equal(want) {
		t.Fatalf("expected total %s, got %s", want, got)
	}
}

func TestOrderTotal_Empty(t *testing.T) {
	var order domain.Order
	if got := order.Total(); !got.IsZero() {
		t.Fatalf("expected zero total, got %s", got)
	}
}

func TestOrderUnitCount(t *testing.T) {
	order := makeOrder()
	if got := order.UnitCount(); got != 13 {
		t.Fatalf("expected 13 units, got %d", got)
	}
}

package memory

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/vladislavdragonenkov/storefront/internal/domain"
)

// placeOrder выполняет одну покупку в транзакции и возвращает размер её журнала.
func placeOrder(t *testing.T, s *Store, customerID string, product domain.Product) int {
	t.Helper()
	ctx := context.Background()

	s.mu.Lock()
	defer s.mu.Unlock()

	tx := &changeLog{}
	repos := s.repositories(tx)
	locked, err := repos.Products.FindAllByIDForUpdate(ctx, []string{product.ID})
	require.NoError(t, err)
	locked[0].Quantity--
	_, err = repos.Products.Save(ctx, locked)
	require.NoError(t, err)
	_, err = repos.Orders.Create(ctx, domain.Order{
		CustomerID: customerID,
		Products:   []domain.OrderProduct{{ProductID: product.ID, Price: product.Price, Quantity: 1}},
	})
	require.NoError(t, err)
	_, err = repos.Outbox.Enqueue(ctx, domain.OutboxMessage{AggregateType: domain.AggregateOrder, EventType: domain.EventOrderCreated})
	require.NoError(t, err)

	tx.finished = true
	return len(tx.undo)
}

func TestStore_TxJournalDoesNotGrowWithHistory(t *testing.T) {
	ctx := context.Background()
	store := NewStore()
	repos := store.Repositories()

	customer, err := repos.Customers.Create(ctx, domain.Customer{Name: "Ann", Email: "ann@example.com"})
	require.NoError(t, err)
	product, err := repos.Products.Create(ctx, domain.Product{
		Name:     "Mug",
		Price:    decimal.RequireFromString("25.50"),
		Quantity: 5000,
	})
	require.NoError(t, err)

	first := placeOrder(t, store, customer.ID, product)
	require.Positive(t, first)

	for i := 0; i < 2000; i++ {
		placeOrder(t, store, customer.ID, product)
	}

	require.Equal(t, first, placeOrder(t, store, customer.ID, product))

	orders, err := repos.Orders.ListByCustomer(ctx, customer.ID, 0)
	require.NoError(t, err)
	require.Len(t, orders, 2002)
}

package memory

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/vladislavdragonenkov/storefront/internal/domain"
)

// orderRepository — in-memory реализация OrderRepository.
type orderRepository struct {
	access
}

// Create сохраняет заказ вместе с позициями. Ссылки на клиента и товары
// должны существовать, как и внешние ключи в PostgreSQL.
func (r *orderRepository) Create(_ context.Context, order domain.Order) (domain.Order, error) {
	if order.ID == "" {
		order.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if order.CreatedAt.IsZero() {
		order.CreatedAt = now
	}
	if order.UpdatedAt.IsZero() {
		order.UpdatedAt = order.CreatedAt
	}

	order = cloneOrder(order)
	for i := range order.Products {
		item := &order.Products[i]
		if item.ID == "" {
			item.ID = uuid.NewString()
		}
		item.OrderID = order.ID
		if item.CreatedAt.IsZero() {
			item.CreatedAt = order.CreatedAt
		}
		if item.UpdatedAt.IsZero() {
			item.UpdatedAt = item.CreatedAt
		}
	}

	err := r.write(func(d *dataset, changes *changeLog) error {
		if _, exists := d.orders[order.ID]; exists {
			return fmt.Errorf("order %s already exists", order.ID)
		}
		if _, ok := d.customers[order.CustomerID]; !ok {
			return fmt.Errorf("%w: %s", domain.ErrCustomerNotFound, order.CustomerID)
		}
		for _, item := range order.Products {
			if _, ok := d.products[item.ProductID]; !ok {
				return fmt.Errorf("%w: %s", domain.ErrProductNotFound, item.ProductID)
			}
		}
		setRow(changes, d.orders, order.ID, order)
		// откат возвращает прежний заголовок среза; хвост массива не виден
		setRow(changes, d.customerOrders, order.CustomerID, append(d.customerOrders[order.CustomerID], order.ID))
		return nil
	})
	if err != nil {
		return domain.Order{}, err
	}
	return cloneOrder(order), nil
}

// Get возвращает заказ или ErrOrderNotFound, если его нет.
func (r *orderRepository) Get(_ context.Context, id string) (domain.Order, error) {
	var order domain.Order
	err := r.read(func(d *dataset) error {
		o, ok := d.orders[id]
		if !ok {
			return domain.ErrOrderNotFound
		}
		order = cloneOrder(o)
		return nil
	})
	return order, err
}

// ListByCustomer возвращает заказы клиента, ограничивая выборку limit (если >0).
func (r *orderRepository) ListByCustomer(_ context.Context, customerID string, limit int) ([]domain.Order, error) {
	var result []domain.Order
	err := r.read(func(d *dataset) error {
		ids := d.customerOrders[customerID]
		result = make([]domain.Order, 0, len(ids))
		for _, id := range ids {
			result = append(result, cloneOrder(d.orders[id]))
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	sort.Slice(result, func(i, j int) bool {
		if !result[i].CreatedAt.Equal(result[j].CreatedAt) {
			return result[i].CreatedAt.After(result[j].CreatedAt)
		}
		return result[i].ID > result[j].ID
	})

	if limit > 0 && len(result) > limit {
		result = result[:limit]
	}

	return result, nil
}

func cloneOrder(src domain.Order) domain.Order {
	dst := src
	dst.Products = append([]domain.OrderProduct(nil), src.Products...)
	return dst
}

var _ domain.OrderRepository = (*orderRepository)(nil)

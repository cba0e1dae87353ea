package grpcsvc

import (
	storev1 "github.com/vladislavdragonenkov/storefront/api/store/v1"
	"github.com/vladislavdragonenkov/storefront/internal/domain"
)

func toAPICustomer(c domain.Customer) *storev1.Customer {
	return &storev1.Customer{
		ID:        c.ID,
		Name:      c.Name,
		Email:     c.Email,
		CreatedAt: c.CreatedAt,
		UpdatedAt: c.UpdatedAt,
	}
}

func toAPIProduct(p domain.Product) *storev1.Product {
	return &storev1.Product{
		ID:        p.ID,
		Name:      p.Name,
		Price:     p.Price.StringFixed(domain.PriceScale),
		Quantity:  int32(p.Quantity), //nolint:gosec // остаток ограничен INTEGER в хранилище.
		CreatedAt: p.CreatedAt,
		UpdatedAt: p.UpdatedAt,
	}
}

func toAPIOrder(o domain.Order) *storev1.Order {
	items := make([]*storev1.OrderProduct, 0, len(o.Products))
	for _, item := range o.Products {
		items = append(items, &storev1.OrderProduct{
			ID:        item.ID,
			ProductID: item.ProductID,
			Price:     item.Price.StringFixed(domain.PriceScale),
			Quantity:  int32(item.Quantity), //nolint:gosec // количество позиции ограничено INTEGER.
		})
	}

	return &storev1.Order{
		ID:         o.ID,
		CustomerID: o.CustomerID,
		Products:   items,
		Total:      o.Total().StringFixed(domain.PriceScale),
		CreatedAt:  o.CreatedAt,
		UpdatedAt:  o.UpdatedAt,
	}
}

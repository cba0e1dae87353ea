package domain_test

import (
	"errors"
	"testing"

	"github.com/shopspring/decimal"

	"github.com/vladislavdragonenkov/storefront/internal/domain"
)

func TestProductValidate_Ok(t *testing.T) {
	product := domain.Product{Name: "Keyboard", Price: decimal.RequireFromString("25.50"), Quantity: 10}
	if errs := product.Validate(); len(errs) != 0 {
		t.Fatalf("expected no validation errors, got %v", errs)
	}
}

func TestProductValidate_Errors(t *testing.T) {
	cases := []struct {
		name string
		mut  func(p *domain.Product)
		want error
	}{
		{
			name: "empty name",
			mut:  func(p *domain.Product) { p.Name = "  " },
			want: domain.ErrProductNameRequired,
		},
		{
			name: "negative price",
			mut:  func(p *domain.Product) { p.Price = decimal.RequireFromString("-1") },
			want: domain.ErrProductPriceInvalid,
		},
		{
			name: "three decimals",
			mut:  func(p *domain.Product) { p.Price = decimal.RequireFromString("1.005") },
			want: domain.ErrProductPriceInvalid,
		},
		{
			name: "price does not fit line column",
			mut:  func(p *domain.Product) { p.Price = decimal.RequireFromString("10000.00") },
			want: domain.ErrProductPriceInvalid,
		},
		{
			name: "negative quantity",
			mut:  func(p *domain.Product) { p.Quantity = -1 },
			want: domain.ErrProductQuantityInvalid,
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			product := domain.Product{Name: "Keyboard", Price: decimal.RequireFromString("25.50"), Quantity: 10}
			tc.mut(&product)

			errs := product.Validate()
			if len(errs) != 1 {
				t.Fatalf("expected exactly one error, got %v", errs)
			}
			if !errors.Is(errs[0], tc.want) {
				t.Fatalf("expected %v, got %v", tc.want, errs[0])
			}
		})
	}
}

func TestValidPrice_Boundaries(t *testing.T) {
	for _, raw := range []string{"0", "0.01", "25.5", "9999.99"} {
		if !domain.ValidPrice(decimal.RequireFromString(raw)) {
			t.Errorf("expected %s to be a valid price", raw)
		}
	}
}

func TestValidateProductQuantities(t *testing.T) {
	if errs := domain.ValidateProductQuantities(nil); len(errs) != 1 || !errors.Is(errs[0], domain.ErrItemsRequired) {
		t.Fatalf("expected ErrItemsRequired, got %v", errs)
	}

	errs := domain.ValidateProductQuantities([]domain.ProductQuantity{
		{ID: "p-1", Quantity: 1},
		{ID: "", Quantity: 2},
		{ID: "p-3", Quantity: 0},
	})
	if len(errs) != 2 {
		t.Fatalf("expected 2 errors, got %v", errs)
	}
	if !errors.Is(errs[0], domain.ErrItemProductRequired) || !errors.Is(errs[1], domain.ErrItemQtyInvalid) {
		t.Fatalf("unexpected errors: %v", errs)
	}
}

func TestSumQuantities(t *testing.T) {
	sums, order := domain.SumQuantities([]domain.ProductQuantity{
		{ID: "b", Quantity: 1},
		{ID: "a", Quantity: 2},
		{ID: "b", Quantity: 4},
	})

	if sums["a"] != 2 || sums["b"] != 5 {
		t.Fatalf("unexpected sums: %v", sums)
	}
	if len(order) != 2 || order[0] != "b" || order[1] != "a" {
		t.Fatalf("unexpected first-seen order: %v", order)
	}
}

func TestParsePrice(t *testing.T) {
	price, err := domain.ParsePrice(" 25.50 ")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !price.Equal(decimal.RequireFromString("25.5")) {
		t.Fatalf("unexpected price %s", price)
	}

	for _, raw := range []string{"", "abc", "1,5"} {
		if _, err := domain.ParsePrice(raw); !errors.Is(err, domain.ErrProductPriceInvalid) {
			t.Fatalf("expected ErrProductPriceInvalid for %q, got %v", raw, err)
		}
	}
}

package domain_test

import (
	"testing"

	"github.com/vladislavdragonenkov/storefront/internal/domain"
)

func TestCustomerValidate(t *testing.T) {
	cases := []struct {
		name     string
		customer domain.Customer
		wantErrs int
	}{
		{name: "valid", customer: domain.Customer{Name: "Ada", Email: "ada@example.com"}, wantErrs: 0},
		{name: "no name", customer: domain.Customer{Email: "ada@example.com"}, wantErrs: 1},
		{name: "no email", customer: domain.Customer{Name: "Ada"}, wantErrs: 1},
		{name: "malformed email", customer: domain.Customer{Name: "Ada", Email: "not-an-email"}, wantErrs: 1},
		{name: "display name form", customer: domain.Customer{Name: "Ada", Email: "Ada <ada@example.com>"}, wantErrs: 1},
		{name: "nothing", customer: domain.Customer{}, wantErrs: 2},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if errs := tc.customer.Validate(); len(errs) != tc.wantErrs {
				t.Fatalf("expected %d errors, got %v", tc.wantErrs, errs)
			}
		})
	}
}

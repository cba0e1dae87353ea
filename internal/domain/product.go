package domain

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// PriceScale — число знаков после запятой в денежных колонках.
const PriceScale = 2

// MaxLinePrice — верхняя граница цены, помещающаяся в order_products.price NUMERIC(6,2).
var MaxLinePrice = decimal.RequireFromString("9999.99")

// Product — товар каталога. Quantity — остаток на складе, меняется только списанием.
type Product struct {
	ID        string
	Name      string
	Price     decimal.Decimal
	Quantity  int
	CreatedAt time.Time
	UpdatedAt time.Time
}

// ProductQuantity — пара «товар, количество» во входящих запросах.
type ProductQuantity struct {
	ID       string
	Quantity int
}

// Validate проверяет инварианты товара.
func (p *Product) Validate() []error {
	var errs []error

	if strings.TrimSpace(p.Name) == "" {
		errs = append(errs, ErrProductNameRequired)
	}
	if !ValidPrice(p.Price) {
		errs = append(errs, ErrProductPriceInvalid)
	}
	if p.Quantity < 0 {
		errs = append(errs, ErrProductQuantityInvalid)
	}

	return errs
}

// ValidPrice проверяет, что цена неотрицательна, имеет не больше двух знаков
// после запятой и помещается в колонку позиции заказа.
func ValidPrice(price decimal.Decimal) bool {
	if price.IsNegative() {
		return false
	}
	if !price.Equal(price.Round(PriceScale)) {
		return false
	}
	return price.LessThanOrEqual(MaxLinePrice)
}

// ValidateProductQuantities проверяет список запрошенных позиций.
func ValidateProductQuantities(items []ProductQuantity) []error {
	if len(items) == 0 {
		return []error{ErrItemsRequired}
	}

	var errs []error
	for _, item := range items {
		if strings.TrimSpace(item.ID) == "" {
			errs = append(errs, ErrItemProductRequired)
		}
		if item.Quantity <= 0 {
			errs = append(errs, ErrItemQtyInvalid)
		}
	}
	return errs
}

// SumQuantities складывает запрошенные количества по идентификатору товара.
// Порядок первого появления id сохраняется во втором результате.
func SumQuantities(items []ProductQuantity) (map[string]int, []string) {
	sums := make(map[string]int, len(items))
	order := make([]string, 0, len(items))
	for _, item := range items {
		if _, seen := sums[item.ID]; !seen {
			order = append(order, item.ID)
		}
		sums[item.ID] += item.Quantity
	}
	return sums, order
}

// ParsePrice разбирает цену из десятичной строки ("25.50").
func ParsePrice(raw string) (decimal.Decimal, error) {
	price, err := decimal.NewFromString(strings.TrimSpace(raw))
	if err != nil {
		return decimal.Decimal{}, fmt.Errorf("%w: %q", ErrProductPriceInvalid, raw)
	}
	return price, nil
}

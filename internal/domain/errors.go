package domain

import (
	"errors"
	"fmt"
)

var (
	// Ошибка отсутствующего имени клиента.
	ErrCustomerNameRequired = errors.New("customer name is required")
	// Ошибка отсутствующего или некорректного e-mail клиента.
	ErrCustomerEmailInvalid = errors.New("customer email is invalid")
	// Ошибка отсутствующего идентификатора клиента в заказе.
	ErrCustomerRequired = errors.New("customer_id is required")
	// Ошибка отсутствующего названия товара.
	ErrProductNameRequired = errors.New("product name is required")
	// Ошибка отрицательной цены или цены с точностью больше двух знаков.
	ErrProductPriceInvalid = errors.New("product price must be non-negative with at most 2 decimal places")
	// Ошибка отрицательного остатка товара.
	ErrProductQuantityInvalid = errors.New("product quantity must be non-negative")
	// Ошибка отсутствия хотя бы одного товара в запросе.
	ErrItemsRequired = errors.New("request must contain at least one product")
	// Ошибка отсутствующего идентификатора товара в позиции.
	ErrItemProductRequired = errors.New("item product id is required")
	// Ошибка при некорректном количестве товара (<= 0).
	ErrItemQtyInvalid = errors.New("item quantity must be greater than zero")

	// ErrEmailExists возвращается, если клиент с таким e-mail уже существует.
	ErrEmailExists = errors.New("e-mail already exists")
	// ErrCustomerNotFound возвращается, если клиент не найден.
	ErrCustomerNotFound = errors.New("customer does not exist")
	// ErrProductNotFound возвращается, если хотя бы один товар не найден.
	ErrProductNotFound = errors.New("product does not exist")
	// ErrProductNameExists возвращается при попытке завести второй товар с тем же названием.
	ErrProductNameExists = errors.New("product name already exists")
	// ErrInsufficientStock — запрошено больше единиц, чем есть на складе.
	ErrInsufficientStock = errors.New("insufficient quantity")
	// ErrOrderNotFound возвращается, если заказ не найден в репозитории.
	ErrOrderNotFound = errors.New("order not found")
	// ErrStorage — непрозрачная ошибка хранилища.
	ErrStorage = errors.New("storage error")
	// ErrOutboxPublish — ошибка при публикации сообщения из outbox.
	ErrOutboxPublish = errors.New("outbox publish failed")
)

var validationErrors = []error{
	ErrCustomerNameRequired,
	ErrCustomerEmailInvalid,
	ErrCustomerRequired,
	ErrProductNameRequired,
	ErrProductPriceInvalid,
	ErrProductQuantityInvalid,
	ErrItemsRequired,
	ErrItemProductRequired,
	ErrItemQtyInvalid,
}

var businessErrors = []error{
	ErrEmailExists,
	ErrCustomerNotFound,
	ErrProductNotFound,
	ErrProductNameExists,
	ErrInsufficientStock,
	ErrOrderNotFound,
}

// IsValidation проверяет, относится ли ошибка к ошибкам валидации входных данных.
func IsValidation(err error) bool {
	return isAny(err, validationErrors)
}

// IsNotFound проверяет, что ошибка означает отсутствие сущности.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrCustomerNotFound) ||
		errors.Is(err, ErrProductNotFound) ||
		errors.Is(err, ErrOrderNotFound)
}

// IsConflict проверяет нарушение уникальности (e-mail, название товара).
func IsConflict(err error) bool {
	return errors.Is(err, ErrEmailExists) || errors.Is(err, ErrProductNameExists)
}

// IsStorage проверяет, что ошибка пришла из хранилища.
func IsStorage(err error) bool {
	return errors.Is(err, ErrStorage)
}

// WrapStorage помечает ошибку репозитория как ErrStorage.
// Доменные ошибки возвращаются без изменений.
func WrapStorage(err error) error {
	if err == nil {
		return nil
	}
	if isAny(err, validationErrors) || isAny(err, businessErrors) || errors.Is(err, ErrStorage) {
		return err
	}
	return fmt.Errorf("%w: %w", ErrStorage, err)
}

func isAny(err error, targets []error) bool {
	if err == nil {
		return false
	}
	for _, target := range targets {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}

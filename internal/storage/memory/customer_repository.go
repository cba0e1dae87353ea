package memory

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/vladislavdragonenkov/storefront/internal/domain"
)

type customerRepository struct {
	access
}

// FindByID возвращает клиента или ErrCustomerNotFound.
func (r *customerRepository) FindByID(_ context.Context, id string) (domain.Customer, error) {
	var customer domain.Customer
	err := r.read(func(d *dataset) error {
		c, ok := d.customers[id]
		if !ok {
			return domain.ErrCustomerNotFound
		}
		customer = c
		return nil
	})
	return customer, err
}

// FindByEmail ищет клиента по точному совпадению e-mail.
func (r *customerRepository) FindByEmail(_ context.Context, email string) (domain.Customer, error) {
	var customer domain.Customer
	err := r.read(func(d *dataset) error {
		id, ok := d.customerByEmail[email]
		if !ok {
			return domain.ErrCustomerNotFound
		}
		customer = d.customers[id]
		return nil
	})
	return customer, err
}

// Create сохраняет клиента; e-mail уникален, как и в схеме PostgreSQL.
func (r *customerRepository) Create(_ context.Context, customer domain.Customer) (domain.Customer, error) {
	if customer.ID == "" {
		customer.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if customer.CreatedAt.IsZero() {
		customer.CreatedAt = now
	}
	if customer.UpdatedAt.IsZero() {
		customer.UpdatedAt = customer.CreatedAt
	}

	err := r.write(func(d *dataset, changes *changeLog) error {
		if _, taken := d.customerByEmail[customer.Email]; taken {
			return domain.ErrEmailExists
		}
		if _, exists := d.customers[customer.ID]; exists {
			return domain.ErrEmailExists
		}
		setRow(changes, d.customers, customer.ID, customer)
		setRow(changes, d.customerByEmail, customer.Email, customer.ID)
		return nil
	})
	if err != nil {
		return domain.Customer{}, err
	}
	return customer, nil
}

var _ domain.CustomerRepository = (*customerRepository)(nil)

// Package customer реализует регистрацию клиентов магазина.
package customer

import (
	"context"
	"errors"
	"strings"

	log "github.com/sirupsen/logrus"

	"github.com/vladislavdragonenkov/storefront/internal/domain"
	"github.com/vladislavdragonenkov/storefront/internal/metrics"
)

// CreateCustomerInput — данные для регистрации клиента.
type CreateCustomerInput struct {
	Name  string
	Email string
}

// Service создаёт и читает клиентов.
type Service struct {
	uow     domain.UnitOfWork
	logger  *log.Entry
	metrics *metrics.StoreMetrics
}

// NewService конструирует сервис клиентов. metrics может быть nil.
func NewService(uow domain.UnitOfWork, m *metrics.StoreMetrics, logger *log.Entry) *Service {
	if logger == nil {
		logger = log.New().WithField("component", "customer-service")
	}
	return &Service{uow: uow, logger: logger, metrics: m}
}

// CreateCustomer регистрирует клиента с уникальным e-mail.
// E-mail сравнивается точно, после обрезки пробелов по краям.
func (s *Service) CreateCustomer(ctx context.Context, in CreateCustomerInput) (domain.Customer, error) {
	customer := domain.Customer{
		Name:  strings.TrimSpace(in.Name),
		Email: strings.TrimSpace(in.Email),
	}
	if errs := customer.Validate(); len(errs) > 0 {
		return domain.Customer{}, errors.Join(errs...)
	}

	var created domain.Customer
	err := s.uow.WithinTx(ctx, func(ctx context.Context, repos domain.Repositories) error {
		_, err := repos.Customers.FindByEmail(ctx, customer.Email)
		switch {
		case err == nil:
			return domain.ErrEmailExists
		case !errors.Is(err, domain.ErrCustomerNotFound):
			return domain.WrapStorage(err)
		}

		// уникальный индекс ловит гонку между проверкой и вставкой
		created, err = repos.Customers.Create(ctx, customer)
		if err != nil {
			return domain.WrapStorage(err)
		}

		msg, err := domain.NewCustomerCreated(created)
		if err != nil {
			return err
		}
		if _, err := repos.Outbox.Enqueue(ctx, msg); err != nil {
			return domain.WrapStorage(err)
		}
		return nil
	})
	if err != nil {
		entry := s.logger.WithError(err).WithField("email", customer.Email)
		if errors.Is(err, domain.ErrEmailExists) {
			entry.Info("customer e-mail already registered")
		} else {
			entry.Error("failed to create customer")
		}
		return domain.Customer{}, err
	}

	if s.metrics != nil {
		s.metrics.RecordCustomerCreated()
	}
	s.logger.WithField("customer_id", created.ID).Info("customer created")

	return created, nil
}

// GetCustomer возвращает клиента или ErrCustomerNotFound.
func (s *Service) GetCustomer(ctx context.Context, id string) (domain.Customer, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return domain.Customer{}, domain.ErrCustomerRequired
	}

	customer, err := s.uow.Repositories().Customers.FindByID(ctx, id)
	if err != nil {
		return domain.Customer{}, domain.WrapStorage(err)
	}
	return customer, nil
}

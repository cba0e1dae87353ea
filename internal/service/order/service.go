// Package order реализует оформление заказа: проверку клиента и товаров,
// списание остатков и сохранение заказа в одной транзакции.
package order

import (
	"context"
	"errors"
	"strings"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/vladislavdragonenkov/storefront/internal/domain"
	"github.com/vladislavdragonenkov/storefront/internal/metrics"
	"github.com/vladislavdragonenkov/storefront/internal/service/product"
)

const (
	defaultListLimit = 100
	maxListLimit     = 1000

	stepResolveCustomer = "resolve_customer"
	stepResolveProducts = "resolve_products"
	stepDecrementStock  = "decrement_stock"
	stepPersistOrder    = "persist_order"
)

// CreateOrderInput — запрос на оформление заказа. Порядок позиций сохраняется.
type CreateOrderInput struct {
	CustomerID string
	Products   []domain.ProductQuantity
}

// Service оформляет и читает заказы.
type Service struct {
	uow     domain.UnitOfWork
	logger  *log.Entry
	metrics *metrics.StoreMetrics
}

// NewService конструирует сервис заказов. metrics может быть nil.
func NewService(uow domain.UnitOfWork, m *metrics.StoreMetrics, logger *log.Entry) *Service {
	if logger == nil {
		logger = log.New().WithField("component", "order-service")
	}
	return &Service{uow: uow, logger: logger, metrics: m}
}

// CreateOrder оформляет заказ. Любая ошибка откатывает все изменения:
// остатки, заказ и события outbox фиксируются только вместе.
func (s *Service) CreateOrder(ctx context.Context, in CreateOrderInput) (domain.Order, error) {
	start := time.Now()
	defer func() {
		if s.metrics != nil {
			s.metrics.RecordOrderDuration(time.Since(start))
		}
	}()

	in.CustomerID = strings.TrimSpace(in.CustomerID)
	items := make([]domain.ProductQuantity, len(in.Products))
	for i, item := range in.Products {
		items[i] = domain.ProductQuantity{ID: strings.TrimSpace(item.ID), Quantity: item.Quantity}
	}

	if err := validateInput(in.CustomerID, items); err != nil {
		s.reject(err, in.CustomerID)
		return domain.Order{}, err
	}

	var created domain.Order
	err := s.uow.WithinTx(ctx, func(ctx context.Context, repos domain.Repositories) error {
		var err error
		created, err = s.createInTx(ctx, repos, in.CustomerID, items)
		return err
	})
	if err != nil {
		s.reject(err, in.CustomerID)
		return domain.Order{}, err
	}

	if s.metrics != nil {
		s.metrics.RecordOrderCreated(len(created.Products), created.UnitCount())
	}
	s.logger.WithFields(log.Fields{
		"order_id":    created.ID,
		"customer_id": created.CustomerID,
		"lines":       len(created.Products),
		"total":       created.Total().StringFixed(domain.PriceScale),
	}).Info("order created")

	return created, nil
}

func (s *Service) createInTx(ctx context.Context, repos domain.Repositories, customerID string, items []domain.ProductQuantity) (domain.Order, error) {
	stepStart := time.Now()
	customer, err := repos.Customers.FindByID(ctx, customerID)
	if err != nil {
		return domain.Order{}, domain.WrapStorage(err)
	}
	s.observeStep(stepResolveCustomer, stepStart)

	stepStart = time.Now()
	reservation, err := product.Reserve(ctx, repos.Products, items)
	if err != nil {
		return domain.Order{}, err
	}
	s.observeStep(stepResolveProducts, stepStart)

	stepStart = time.Now()
	updated, err := reservation.Apply(ctx, repos.Products)
	if err != nil {
		return domain.Order{}, err
	}
	s.observeStep(stepDecrementStock, stepStart)

	stepStart = time.Now()
	order := domain.Order{
		CustomerID: customer.ID,
		Products:   make([]domain.OrderProduct, 0, len(items)),
	}
	for _, item := range items {
		order.Products = append(order.Products, domain.OrderProduct{
			ProductID: item.ID,
			Price:     reservation.Locked[item.ID].Price,
			Quantity:  item.Quantity,
		})
	}

	created, err := repos.Orders.Create(ctx, order)
	if err != nil {
		return domain.Order{}, domain.WrapStorage(err)
	}

	for _, build := range []func() (domain.OutboxMessage, error){
		func() (domain.OutboxMessage, error) { return domain.NewOrderCreated(created) },
		func() (domain.OutboxMessage, error) { return domain.NewProductStockUpdated(created.ID, updated) },
	} {
		msg, err := build()
		if err != nil {
			return domain.Order{}, err
		}
		if _, err := repos.Outbox.Enqueue(ctx, msg); err != nil {
			return domain.Order{}, domain.WrapStorage(err)
		}
	}
	s.observeStep(stepPersistOrder, stepStart)

	return created, nil
}

// GetOrder возвращает заказ с позициями или ErrOrderNotFound.
func (s *Service) GetOrder(ctx context.Context, id string) (domain.Order, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return domain.Order{}, domain.ErrOrderNotFound
	}

	order, err := s.uow.Repositories().Orders.Get(ctx, id)
	if err != nil {
		return domain.Order{}, domain.WrapStorage(err)
	}
	return order, nil
}

// ListCustomerOrders возвращает заказы клиента, новые первыми.
// limit <= 0 означает значение по умолчанию.
func (s *Service) ListCustomerOrders(ctx context.Context, customerID string, limit int) ([]domain.Order, error) {
	customerID = strings.TrimSpace(customerID)
	if customerID == "" {
		return nil, domain.ErrCustomerRequired
	}
	if limit <= 0 {
		limit = defaultListLimit
	}
	if limit > maxListLimit {
		limit = maxListLimit
	}

	repos := s.uow.Repositories()
	if _, err := repos.Customers.FindByID(ctx, customerID); err != nil {
		return nil, domain.WrapStorage(err)
	}

	orders, err := repos.Orders.ListByCustomer(ctx, customerID, limit)
	if err != nil {
		return nil, domain.WrapStorage(err)
	}
	return orders, nil
}

func validateInput(customerID string, items []domain.ProductQuantity) error {
	var errs []error
	if customerID == "" {
		errs = append(errs, domain.ErrCustomerRequired)
	}
	errs = append(errs, domain.ValidateProductQuantities(items)...)
	return errors.Join(errs...)
}

func (s *Service) observeStep(step string, start time.Time) {
	if s.metrics != nil {
		s.metrics.RecordStepDuration(step, time.Since(start))
	}
}

func (s *Service) reject(err error, customerID string) {
	reason := RejectReason(err)
	if s.metrics != nil {
		s.metrics.RecordOrderRejected(reason)
	}

	entry := s.logger.WithError(err).WithFields(log.Fields{
		"customer_id": customerID,
		"reason":      reason,
	})
	if reason == metrics.RejectStorage || reason == metrics.RejectOther {
		entry.Error("order creation failed")
		return
	}
	entry.Info("order rejected")
}

// RejectReason относит ошибку оформления заказа к одной из причин отказа.
func RejectReason(err error) string {
	switch {
	case domain.IsValidation(err):
		return metrics.RejectValidation
	case errors.Is(err, domain.ErrCustomerNotFound):
		return metrics.RejectCustomerNotFound
	case errors.Is(err, domain.ErrProductNotFound):
		return metrics.RejectProductNotFound
	case errors.Is(err, domain.ErrInsufficientStock):
		return metrics.RejectInsufficientStock
	case domain.IsStorage(err):
		return metrics.RejectStorage
	default:
		return metrics.RejectOther
	}
}

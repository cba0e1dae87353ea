// Package product управляет каталогом и складскими остатками.
package product

import (
	"context"
	"errors"
	"fmt"
	"strings"

	log "github.com/sirupsen/logrus"

	"github.com/vladislavdragonenkov/storefront/internal/domain"
	"github.com/vladislavdragonenkov/storefront/internal/metrics"
)

// CreateProductInput — данные нового товара.
type CreateProductInput struct {
	Name     string
	Price    string
	Quantity int
}

// Service создаёт товары и списывает остатки.
type Service struct {
	uow     domain.UnitOfWork
	logger  *log.Entry
	metrics *metrics.StoreMetrics
}

// NewService конструирует сервис товаров. metrics может быть nil.
func NewService(uow domain.UnitOfWork, m *metrics.StoreMetrics, logger *log.Entry) *Service {
	if logger == nil {
		logger = log.New().WithField("component", "product-service")
	}
	return &Service{uow: uow, logger: logger, metrics: m}
}

// CreateProduct заводит товар с уникальным названием.
func (s *Service) CreateProduct(ctx context.Context, in CreateProductInput) (domain.Product, error) {
	price, err := domain.ParsePrice(in.Price)
	if err != nil {
		return domain.Product{}, err
	}

	product := domain.Product{
		Name:     strings.TrimSpace(in.Name),
		Price:    price,
		Quantity: in.Quantity,
	}
	if errs := product.Validate(); len(errs) > 0 {
		return domain.Product{}, errors.Join(errs...)
	}

	var created domain.Product
	err = s.uow.WithinTx(ctx, func(ctx context.Context, repos domain.Repositories) error {
		_, err := repos.Products.FindByName(ctx, product.Name)
		switch {
		case err == nil:
			return domain.ErrProductNameExists
		case !errors.Is(err, domain.ErrProductNotFound):
			return domain.WrapStorage(err)
		}

		created, err = repos.Products.Create(ctx, product)
		if err != nil {
			return domain.WrapStorage(err)
		}

		msg, err := domain.NewProductCreated(created)
		if err != nil {
			return err
		}
		if _, err := repos.Outbox.Enqueue(ctx, msg); err != nil {
			return domain.WrapStorage(err)
		}
		return nil
	})
	if err != nil {
		s.logger.WithError(err).WithField("name", product.Name).Warn("failed to create product")
		return domain.Product{}, err
	}

	if s.metrics != nil {
		s.metrics.RecordProductCreated()
	}
	s.logger.WithField("product_id", created.ID).Info("product created")

	return created, nil
}

// GetProduct возвращает товар или ErrProductNotFound.
func (s *Service) GetProduct(ctx context.Context, id string) (domain.Product, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return domain.Product{}, domain.ErrItemProductRequired
	}

	product, err := s.uow.Repositories().Products.FindByID(ctx, id)
	if err != nil {
		return domain.Product{}, domain.WrapStorage(err)
	}
	return product, nil
}

// UpdateQuantities списывает остатки по списку пар «товар, количество»
// в одной транзакции и возвращает обновлённые товары.
func (s *Service) UpdateQuantities(ctx context.Context, items []domain.ProductQuantity) ([]domain.Product, error) {
	if errs := domain.ValidateProductQuantities(items); len(errs) > 0 {
		return nil, errors.Join(errs...)
	}

	var updated []domain.Product
	err := s.uow.WithinTx(ctx, func(ctx context.Context, repos domain.Repositories) error {
		reservation, err := Reserve(ctx, repos.Products, items)
		if err != nil {
			return err
		}
		updated, err = reservation.Apply(ctx, repos.Products)
		if err != nil {
			return err
		}

		msg, err := domain.NewProductStockUpdated("", updated)
		if err != nil {
			return err
		}
		if _, err := repos.Outbox.Enqueue(ctx, msg); err != nil {
			return domain.WrapStorage(err)
		}
		return nil
	})
	if err != nil {
		s.logger.WithError(err).WithField("items", len(items)).Warn("failed to update product quantities")
		return nil, err
	}

	if s.metrics != nil {
		s.metrics.RecordStockUpdated()
	}
	s.logger.WithField("products", len(updated)).Info("product quantities updated")

	return updated, nil
}

// Reservation — товары запроса, заблокированные до конца транзакции,
// и суммарные количества по каждому из них.
type Reservation struct {
	// IDs — идентификаторы в порядке первого упоминания в запросе.
	IDs       []string
	Locked    map[string]domain.Product
	Requested map[string]int
}

// Reserve одним batch-запросом блокирует товары запроса и проверяет каждый id:
// товар должен существовать, а остатка должно хватать на сумму всех позиций
// с этим id. Товары вне запроса не читаются. Вызывается внутри транзакции.
func Reserve(ctx context.Context, repo domain.ProductRepository, items []domain.ProductQuantity) (Reservation, error) {
	requested, ids := domain.SumQuantities(items)

	found, err := repo.FindAllByIDForUpdate(ctx, ids)
	if err != nil {
		return Reservation{}, domain.WrapStorage(err)
	}

	locked := make(map[string]domain.Product, len(found))
	for _, p := range found {
		locked[p.ID] = p
	}
	// проверка по каждому id, а не по числу найденных строк
	for _, id := range ids {
		p, ok := locked[id]
		if !ok {
			return Reservation{}, fmt.Errorf("%w: %s", domain.ErrProductNotFound, id)
		}
		if requested[id] > p.Quantity {
			return Reservation{}, fmt.Errorf("%w: product %s has %d, requested %d",
				domain.ErrInsufficientStock, id, p.Quantity, requested[id])
		}
	}

	return Reservation{IDs: ids, Locked: locked, Requested: requested}, nil
}

// Apply вычитает зарезервированные количества и сохраняет товары одной пачкой.
// Повторного чтения нет: используются строки, заблокированные в Reserve.
func (r Reservation) Apply(ctx context.Context, repo domain.ProductRepository) ([]domain.Product, error) {
	batch := make([]domain.Product, 0, len(r.IDs))
	for _, id := range r.IDs {
		p := r.Locked[id]
		p.Quantity -= r.Requested[id]
		batch = append(batch, p)
	}

	saved, err := repo.Save(ctx, batch)
	if err != nil {
		return nil, domain.WrapStorage(err)
	}
	return saved, nil
}

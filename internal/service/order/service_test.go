package order_test

import (
	"context"
	"errors"
	"io"
	"sync"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/shopspring/decimal"
	log "github.com/sirupsen/logrus"
	"github.com/stretchr/testify/suite"

	"github.com/vladislavdragonenkov/storefront/internal/domain"
	"github.com/vladislavdragonenkov/storefront/internal/metrics"
	"github.com/vladislavdragonenkov/storefront/internal/service/order"
	"github.com/vladislavdragonenkov/storefront/internal/storage/memory"
)

// failingOrders имитирует сбой хранилища при сохранении заказа.
type failingOrders struct {
	domain.OrderRepository
	err error
}

func (f failingOrders) Create(context.Context, domain.Order) (domain.Order, error) {
	return domain.Order{}, f.err
}

// failingUnitOfWork подменяет репозиторий заказов внутри транзакции.
type failingUnitOfWork struct {
	*memory.Store
	err error
}

func (u failingUnitOfWork) WithinTx(ctx context.Context, fn func(ctx context.Context, repos domain.Repositories) error) error {
	return u.Store.WithinTx(ctx, func(ctx context.Context, repos domain.Repositories) error {
		repos.Orders = failingOrders{OrderRepository: repos.Orders, err: u.err}
		return fn(ctx, repos)
	})
}

// countingProducts считает batch-чтения товаров.
type countingProducts struct {
	domain.ProductRepository
	lookups *int
}

func (c countingProducts) FindAllByID(ctx context.Context, ids []string) ([]domain.Product, error) {
	*c.lookups++
	return c.ProductRepository.FindAllByID(ctx, ids)
}

func (c countingProducts) FindAllByIDForUpdate(ctx context.Context, ids []string) ([]domain.Product, error) {
	*c.lookups++
	return c.ProductRepository.FindAllByIDForUpdate(ctx, ids)
}

// countingUnitOfWork оборачивает репозиторий товаров внутри транзакции.
type countingUnitOfWork struct {
	*memory.Store
	lookups *int
}

func (u countingUnitOfWork) WithinTx(ctx context.Context, fn func(ctx context.Context, repos domain.Repositories) error) error {
	return u.Store.WithinTx(ctx, func(ctx context.Context, repos domain.Repositories) error {
		repos.Products = countingProducts{ProductRepository: repos.Products, lookups: u.lookups}
		return fn(ctx, repos)
	})
}

type OrderServiceSuite struct {
	suite.Suite

	store    *memory.Store
	svc      *order.Service
	logger   *log.Entry
	customer domain.Customer
	mug      domain.Product
}

func TestOrderServiceSuite(t *testing.T) {
	suite.Run(t, new(OrderServiceSuite))
}

func (s *OrderServiceSuite) SetupTest() {
	logger := log.New()
	logger.SetOutput(io.Discard)
	s.logger = logger.WithField("component", "test")

	s.store = memory.NewStore()
	s.svc = order.NewService(s.store, metrics.NewStoreMetricsWithRegisterer(prometheus.NewRegistry()), s.logger)

	ctx := context.Background()
	repos := s.store.Repositories()

	var err error
	s.customer, err = repos.Customers.Create(ctx, domain.Customer{Name: "Ann", Email: "ann@example.com"})
	s.Require().NoError(err)
	s.mug = s.createProduct("Mug", "25.50", 10)
}

func (s *OrderServiceSuite) createProduct(name, price string, qty int) domain.Product {
	p, err := s.store.Repositories().Products.Create(context.Background(), domain.Product{
		Name:     name,
		Price:    decimal.RequireFromString(price),
		Quantity: qty,
	})
	s.Require().NoError(err)
	return p
}

func (s *OrderServiceSuite) stock(id string) int {
	p, err := s.store.Repositories().Products.FindByID(context.Background(), id)
	s.Require().NoError(err)
	return p.Quantity
}

func (s *OrderServiceSuite) orderCount() int {
	orders, err := s.store.Repositories().Orders.ListByCustomer(context.Background(), s.customer.ID, 0)
	s.Require().NoError(err)
	return len(orders)
}

func (s *OrderServiceSuite) pendingEvents() []domain.OutboxMessage {
	pending, err := s.store.Repositories().Outbox.PullPending(context.Background(), 100)
	s.Require().NoError(err)
	return pending
}

func (s *OrderServiceSuite) TestCreateOrder_DecrementsStock() {
	created, err := s.svc.CreateOrder(context.Background(), order.CreateOrderInput{
		CustomerID: s.customer.ID,
		Products:   []domain.ProductQuantity{{ID: s.mug.ID, Quantity: 3}},
	})
	s.Require().NoError(err)

	s.Equal(7, s.stock(s.mug.ID))
	s.Equal(s.customer.ID, created.CustomerID)
	s.Require().Len(created.Products, 1)
	line := created.Products[0]
	s.Equal(s.mug.ID, line.ProductID)
	s.Equal(3, line.Quantity)
	s.True(line.Price.Equal(decimal.RequireFromString("25.50")))
	s.Equal(created.ID, line.OrderID)
	s.True(created.Total().Equal(decimal.RequireFromString("76.50")))

	events := s.pendingEvents()
	s.Require().Len(events, 2)
	s.Equal(domain.EventOrderCreated, events[0].EventType)
	s.Equal(domain.EventProductStockUpdated, events[1].EventType)

	stored, err := s.svc.GetOrder(context.Background(), created.ID)
	s.Require().NoError(err)
	s.Equal(created.ID, stored.ID)
}

func (s *OrderServiceSuite) TestCreateOrder_ResolvesProductsOnce() {
	cup := s.createProduct("Cup", "3.10", 5)

	var lookups int
	svc := order.NewService(countingUnitOfWork{Store: s.store, lookups: &lookups}, nil, s.logger)
	_, err := svc.CreateOrder(context.Background(), order.CreateOrderInput{
		CustomerID: s.customer.ID,
		Products: []domain.ProductQuantity{
			{ID: s.mug.ID, Quantity: 1},
			{ID: cup.ID, Quantity: 2},
			{ID: s.mug.ID, Quantity: 1},
		},
	})
	s.Require().NoError(err)
	s.Equal(1, lookups)
	s.Equal(8, s.stock(s.mug.ID))
	s.Equal(3, s.stock(cup.ID))
}

func (s *OrderServiceSuite) TestCreateOrder_InsufficientStockIsRepeatable() {
	for i := 0; i < 2; i++ {
		_, err := s.svc.CreateOrder(context.Background(), order.CreateOrderInput{
			CustomerID: s.customer.ID,
			Products:   []domain.ProductQuantity{{ID: s.mug.ID, Quantity: 11}},
		})
		s.Require().ErrorIs(err, domain.ErrInsufficientStock)
		s.Equal(10, s.stock(s.mug.ID))
	}
	s.Zero(s.orderCount())
	s.Empty(s.pendingEvents())
}

func (s *OrderServiceSuite) TestCreateOrder_UnknownCustomer() {
	_, err := s.svc.CreateOrder(context.Background(), order.CreateOrderInput{
		CustomerID: "missing",
		Products:   []domain.ProductQuantity{{ID: s.mug.ID, Quantity: 1}},
	})
	s.Require().ErrorIs(err, domain.ErrCustomerNotFound)
	s.Equal(10, s.stock(s.mug.ID))
	s.Empty(s.pendingEvents())
}

func (s *OrderServiceSuite) TestCreateOrder_UnknownProduct() {
	_, err := s.svc.CreateOrder(context.Background(), order.CreateOrderInput{
		CustomerID: s.customer.ID,
		Products: []domain.ProductQuantity{
			{ID: s.mug.ID, Quantity: 1},
			{ID: "missing", Quantity: 1},
		},
	})
	s.Require().ErrorIs(err, domain.ErrProductNotFound)
	s.Equal(10, s.stock(s.mug.ID))
	s.Zero(s.orderCount())
}

func (s *OrderServiceSuite) TestCreateOrder_DuplicateMaskingMissingProduct() {
	// два одинаковых id и один отсутствующий: проверка идёт по каждому id
	_, err := s.svc.CreateOrder(context.Background(), order.CreateOrderInput{
		CustomerID: s.customer.ID,
		Products: []domain.ProductQuantity{
			{ID: s.mug.ID, Quantity: 1},
			{ID: s.mug.ID, Quantity: 1},
			{ID: "missing", Quantity: 1},
		},
	})
	s.Require().ErrorIs(err, domain.ErrProductNotFound)
	s.Equal(10, s.stock(s.mug.ID))
}

func (s *OrderServiceSuite) TestCreateOrder_DuplicateIDsAreSummed() {
	created, err := s.svc.CreateOrder(context.Background(), order.CreateOrderInput{
		CustomerID: s.customer.ID,
		Products: []domain.ProductQuantity{
			{ID: s.mug.ID, Quantity: 4},
			{ID: s.mug.ID, Quantity: 5},
		},
	})
	s.Require().NoError(err)
	s.Len(created.Products, 2)
	s.Equal(1, s.stock(s.mug.ID))

	_, err = s.svc.CreateOrder(context.Background(), order.CreateOrderInput{
		CustomerID: s.customer.ID,
		Products: []domain.ProductQuantity{
			{ID: s.mug.ID, Quantity: 1},
			{ID: s.mug.ID, Quantity: 1},
		},
	})
	s.Require().ErrorIs(err, domain.ErrInsufficientStock)
	s.Equal(1, s.stock(s.mug.ID))
}

func (s *OrderServiceSuite) TestCreateOrder_MixedLinesLeaveStockUntouched() {
	cup := s.createProduct("Cup", "3.10", 2)

	_, err := s.svc.CreateOrder(context.Background(), order.CreateOrderInput{
		CustomerID: s.customer.ID,
		Products: []domain.ProductQuantity{
			{ID: s.mug.ID, Quantity: 3},
			{ID: cup.ID, Quantity: 5},
		},
	})
	s.Require().ErrorIs(err, domain.ErrInsufficientStock)
	s.Equal(10, s.stock(s.mug.ID))
	s.Equal(2, s.stock(cup.ID))
}

func (s *OrderServiceSuite) TestCreateOrder_UnreferencedProductUntouched() {
	plate := s.createProduct("Plate", "7.00", 8)

	_, err := s.svc.CreateOrder(context.Background(), order.CreateOrderInput{
		CustomerID: s.customer.ID,
		Products:   []domain.ProductQuantity{{ID: s.mug.ID, Quantity: 2}},
	})
	s.Require().NoError(err)
	s.Equal(8, s.stock(plate.ID))
	s.Equal(8, s.stock(s.mug.ID))
}

func (s *OrderServiceSuite) TestCreateOrder_KeepsRequestOrder() {
	cup := s.createProduct("Cup", "3.10", 5)

	created, err := s.svc.CreateOrder(context.Background(), order.CreateOrderInput{
		CustomerID: s.customer.ID,
		Products: []domain.ProductQuantity{
			{ID: cup.ID, Quantity: 1},
			{ID: s.mug.ID, Quantity: 2},
		},
	})
	s.Require().NoError(err)
	s.Require().Len(created.Products, 2)
	s.Equal(cup.ID, created.Products[0].ProductID)
	s.Equal(s.mug.ID, created.Products[1].ProductID)
	s.True(created.Products[0].Price.Equal(decimal.RequireFromString("3.10")))
}

func (s *OrderServiceSuite) TestCreateOrder_Validation() {
	_, err := s.svc.CreateOrder(context.Background(), order.CreateOrderInput{
		Products: []domain.ProductQuantity{{ID: s.mug.ID, Quantity: 1}},
	})
	s.Require().ErrorIs(err, domain.ErrCustomerRequired)

	_, err = s.svc.CreateOrder(context.Background(), order.CreateOrderInput{CustomerID: s.customer.ID})
	s.Require().ErrorIs(err, domain.ErrItemsRequired)

	_, err = s.svc.CreateOrder(context.Background(), order.CreateOrderInput{
		CustomerID: s.customer.ID,
		Products:   []domain.ProductQuantity{{ID: s.mug.ID, Quantity: 0}},
	})
	s.Require().ErrorIs(err, domain.ErrItemQtyInvalid)
	s.True(domain.IsValidation(err))
	s.Equal(10, s.stock(s.mug.ID))
}

func (s *OrderServiceSuite) TestCreateOrder_StorageFailureRollsBack() {
	errDisk := errors.New("disk full")
	svc := order.NewService(failingUnitOfWork{Store: s.store, err: errDisk}, nil, s.logger)

	_, err := svc.CreateOrder(context.Background(), order.CreateOrderInput{
		CustomerID: s.customer.ID,
		Products:   []domain.ProductQuantity{{ID: s.mug.ID, Quantity: 3}},
	})
	s.Require().ErrorIs(err, domain.ErrStorage)
	s.Require().ErrorIs(err, errDisk)
	s.Equal(10, s.stock(s.mug.ID))
	s.Empty(s.pendingEvents())
}

func (s *OrderServiceSuite) TestCreateOrder_ConcurrentOrdersNeverOversell() {
	const workers = 25

	var (
		wg      sync.WaitGroup
		mu      sync.Mutex
		success int
	)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := s.svc.CreateOrder(context.Background(), order.CreateOrderInput{
				CustomerID: s.customer.ID,
				Products:   []domain.ProductQuantity{{ID: s.mug.ID, Quantity: 1}},
			})
			if err == nil {
				mu.Lock()
				success++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	s.Equal(10, success)
	s.Equal(0, s.stock(s.mug.ID))
	s.Equal(10, s.orderCount())
}

func (s *OrderServiceSuite) TestListCustomerOrders() {
	for i := 0; i < 3; i++ {
		_, err := s.svc.CreateOrder(context.Background(), order.CreateOrderInput{
			CustomerID: s.customer.ID,
			Products:   []domain.ProductQuantity{{ID: s.mug.ID, Quantity: 1}},
		})
		s.Require().NoError(err)
	}

	orders, err := s.svc.ListCustomerOrders(context.Background(), s.customer.ID, 2)
	s.Require().NoError(err)
	s.Len(orders, 2)

	all, err := s.svc.ListCustomerOrders(context.Background(), s.customer.ID, 0)
	s.Require().NoError(err)
	s.Len(all, 3)

	_, err = s.svc.ListCustomerOrders(context.Background(), "missing", 0)
	s.Require().ErrorIs(err, domain.ErrCustomerNotFound)

	_, err = s.svc.GetOrder(context.Background(), "missing")
	s.Require().ErrorIs(err, domain.ErrOrderNotFound)
}

func TestRejectReason(t *testing.T) {
	cases := map[string]error{
		metrics.RejectValidation:        domain.ErrItemQtyInvalid,
		metrics.RejectCustomerNotFound:  domain.ErrCustomerNotFound,
		metrics.RejectProductNotFound:   domain.ErrProductNotFound,
		metrics.RejectInsufficientStock: domain.ErrInsufficientStock,
		metrics.RejectStorage:           domain.WrapStorage(errors.New("io")),
		metrics.RejectOther:             context.Canceled,
	}
	for want, err := range cases {
		if got := order.RejectReason(err); got != want {
			t.Errorf("RejectReason(%v) = %s, want %s", err, got, want)
		}
	}
}

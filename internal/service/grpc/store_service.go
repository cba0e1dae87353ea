package grpcsvc

import (
	"context"

	log "github.com/sirupsen/logrus"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	storev1 "github.com/vladislavdragonenkov/storefront/api/store/v1"
	"github.com/vladislavdragonenkov/storefront/internal/domain"
	"github.com/vladislavdragonenkov/storefront/internal/service/customer"
	"github.com/vladislavdragonenkov/storefront/internal/service/order"
	"github.com/vladislavdragonenkov/storefront/internal/service/product"
)

// StoreService реализует gRPC API магазина поверх доменных сервисов.
type StoreService struct {
	storev1.UnimplementedStoreServiceServer

	customers *customer.Service
	products  *product.Service
	orders    *order.Service
	idemRepo  domain.IdempotencyRepository
	logger    *log.Entry
}

// NewStoreService конструирует gRPC-сервис. idemRepo может быть nil:
// тогда idempotency-key игнорируется.
func NewStoreService(
	customers *customer.Service,
	products *product.Service,
	orders *order.Service,
	idemRepo domain.IdempotencyRepository,
	logger *log.Entry,
) *StoreService {
	if logger == nil {
		logger = log.New().WithField("component", "store-grpc")
	}
	return &StoreService{
		customers: customers,
		products:  products,
		orders:    orders,
		idemRepo:  idemRepo,
		logger:    logger,
	}
}

// CreateCustomer регистрирует клиента.
func (s *StoreService) CreateCustomer(ctx context.Context, req *storev1.CreateCustomerRequest) (*storev1.CreateCustomerResponse, error) {
	if req == nil {
		return nil, status.Error(codes.InvalidArgument, "request is required")
	}

	return withIdempotency(s, ctx, storev1.CreateCustomerFullMethodName, req,
		func(ctx context.Context) (*storev1.CreateCustomerResponse, error) {
			created, err := s.customers.CreateCustomer(ctx, customer.CreateCustomerInput{
				Name:  req.Name,
				Email: req.Email,
			})
			if err != nil {
				return nil, s.toStatus(err, "CreateCustomer")
			}
			return &storev1.CreateCustomerResponse{Customer: toAPICustomer(created)}, nil
		},
	)
}

// GetCustomer возвращает клиента по идентификатору.
func (s *StoreService) GetCustomer(ctx context.Context, req *storev1.GetCustomerRequest) (*storev1.GetCustomerResponse, error) {
	if req == nil || req.CustomerID == "" {
		return nil, status.Error(codes.InvalidArgument, "customer_id is required")
	}

	c, err := s.customers.GetCustomer(ctx, req.CustomerID)
	if err != nil {
		return nil, s.toStatus(err, "GetCustomer")
	}
	return &storev1.GetCustomerResponse{Customer: toAPICustomer(c)}, nil
}

// CreateProduct заводит товар в каталоге.
func (s *StoreService) CreateProduct(ctx context.Context, req *storev1.CreateProductRequest) (*storev1.CreateProductResponse, error) {
	if req == nil {
		return nil, status.Error(codes.InvalidArgument, "request is required")
	}

	return withIdempotency(s, ctx, storev1.CreateProductFullMethodName, req,
		func(ctx context.Context) (*storev1.CreateProductResponse, error) {
			created, err := s.products.CreateProduct(ctx, product.CreateProductInput{
				Name:     req.Name,
				Price:    req.Price,
				Quantity: int(req.Quantity),
			})
			if err != nil {
				return nil, s.toStatus(err, "CreateProduct")
			}
			return &storev1.CreateProductResponse{Product: toAPIProduct(created)}, nil
		},
	)
}

// GetProduct возвращает товар по идентификатору.
func (s *StoreService) GetProduct(ctx context.Context, req *storev1.GetProductRequest) (*storev1.GetProductResponse, error) {
	if req == nil || req.ProductID == "" {
		return nil, status.Error(codes.InvalidArgument, "product_id is required")
	}

	p, err := s.products.GetProduct(ctx, req.ProductID)
	if err != nil {
		return nil, s.toStatus(err, "GetProduct")
	}
	return &storev1.GetProductResponse{Product: toAPIProduct(p)}, nil
}

// UpdateProductQuantities списывает остатки товаров.
func (s *StoreService) UpdateProductQuantities(ctx context.Context, req *storev1.UpdateProductQuantitiesRequest) (*storev1.UpdateProductQuantitiesResponse, error) {
	if req == nil {
		return nil, status.Error(codes.InvalidArgument, "request is required")
	}
	items, err := fromAPIQuantities(req.Products)
	if err != nil {
		return nil, err
	}

	return withIdempotency(s, ctx, storev1.UpdateProductQuantitiesFullMethodName, req,
		func(ctx context.Context) (*storev1.UpdateProductQuantitiesResponse, error) {
			updated, err := s.products.UpdateQuantities(ctx, items)
			if err != nil {
				return nil, s.toStatus(err, "UpdateProductQuantities")
			}
			resp := &storev1.UpdateProductQuantitiesResponse{Products: make([]*storev1.Product, 0, len(updated))}
			for _, p := range updated {
				resp.Products = append(resp.Products, toAPIProduct(p))
			}
			return resp, nil
		},
	)
}

// CreateOrder оформляет заказ.
func (s *StoreService) CreateOrder(ctx context.Context, req *storev1.CreateOrderRequest) (*storev1.CreateOrderResponse, error) {
	if req == nil {
		return nil, status.Error(codes.InvalidArgument, "request is required")
	}
	items, err := fromAPIQuantities(req.Products)
	if err != nil {
		return nil, err
	}

	return withIdempotency(s, ctx, storev1.CreateOrderFullMethodName, req,
		func(ctx context.Context) (*storev1.CreateOrderResponse, error) {
			created, err := s.orders.CreateOrder(ctx, order.CreateOrderInput{
				CustomerID: req.CustomerID,
				Products:   items,
			})
			if err != nil {
				return nil, s.toStatus(err, "CreateOrder")
			}
			return &storev1.CreateOrderResponse{Order: toAPIOrder(created)}, nil
		},
	)
}

// GetOrder возвращает заказ с позициями.
func (s *StoreService) GetOrder(ctx context.Context, req *storev1.GetOrderRequest) (*storev1.GetOrderResponse, error) {
	if req == nil || req.OrderID == "" {
		return nil, status.Error(codes.InvalidArgument, "order_id is required")
	}

	o, err := s.orders.GetOrder(ctx, req.OrderID)
	if err != nil {
		return nil, s.toStatus(err, "GetOrder")
	}
	return &storev1.GetOrderResponse{Order: toAPIOrder(o)}, nil
}

// ListCustomerOrders возвращает заказы клиента, новые первыми.
func (s *StoreService) ListCustomerOrders(ctx context.Context, req *storev1.ListCustomerOrdersRequest) (*storev1.ListCustomerOrdersResponse, error) {
	if req == nil || req.CustomerID == "" {
		return nil, status.Error(codes.InvalidArgument, "customer_id is required")
	}
	if req.PageSize < 0 {
		return nil, status.Error(codes.InvalidArgument, "page_size must be >= 0")
	}

	orders, err := s.orders.ListCustomerOrders(ctx, req.CustomerID, int(req.PageSize))
	if err != nil {
		return nil, s.toStatus(err, "ListCustomerOrders")
	}

	resp := &storev1.ListCustomerOrdersResponse{Orders: make([]*storev1.Order, 0, len(orders))}
	for _, o := range orders {
		resp.Orders = append(resp.Orders, toAPIOrder(o))
	}
	return resp, nil
}

func fromAPIQuantities(items []*storev1.ProductQuantity) ([]domain.ProductQuantity, error) {
	result := make([]domain.ProductQuantity, 0, len(items))
	for idx, item := range items {
		if item == nil {
			return nil, status.Errorf(codes.InvalidArgument, "products[%d] is nil", idx)
		}
		result = append(result, domain.ProductQuantity{ID: item.ProductID, Quantity: int(item.Quantity)})
	}
	return result, nil
}

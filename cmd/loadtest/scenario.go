package main

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"

	storev1 "github.com/vladislavdragonenkov/storefront/api/store/v1"
)

const idempotencyHeader = "idempotency-key"

var errReplayMismatch = errors.New("idempotent replay returned a different order")

// fixtures — общие для прогона товар и клиент.
type fixtures struct {
	productID  string
	customerID string
	stock      int32
}

func setupFixtures(ctx context.Context, client storev1.StoreServiceClient, cfg config, runID string) (fixtures, error) {
	ctx, cancel := context.WithTimeout(ctx, cfg.timeout)
	defer cancel()

	product, err := client.CreateProduct(ctx, &storev1.CreateProductRequest{
		Name:     "loadtest-" + runID,
		Price:    cfg.price,
		Quantity: cfg.stock,
	})
	if err != nil {
		return fixtures{}, fmt.Errorf("create product: %w", err)
	}
	customer, err := client.CreateCustomer(ctx, &storev1.CreateCustomerRequest{
		Name:  "Load Test",
		Email: fmt.Sprintf("loadtest-%s@example.com", runID),
	})
	if err != nil {
		return fixtures{}, fmt.Errorf("create customer: %w", err)
	}

	return fixtures{
		productID:  product.Product.ID,
		customerID: customer.Customer.ID,
		stock:      product.Product.Quantity,
	}, nil
}

// runner выполняет сценарии одного прогона.
type runner struct {
	cfg   config
	runID string
	fx    fixtures
	col   *collector

	orderedUnits atomic.Int64
	rejected     atomic.Int64
}

func (r *runner) runScenario(client storev1.StoreServiceClient, index int) (err error) {
	start := time.Now()
	defer func() {
		r.col.record(scenarioMethod, time.Since(start), grpcCode(err), err == nil)
	}()

	customerID := r.fx.customerID
	if r.cfg.mode != modeContention {
		resp, err := r.callCreateCustomer(client, &storev1.CreateCustomerRequest{
			Name:  fmt.Sprintf("Customer %d", index),
			Email: fmt.Sprintf("lt-%s-%d@example.com", r.runID, index),
		})
		if err != nil {
			return err
		}
		customerID = resp.Customer.ID
	}

	req := &storev1.CreateOrderRequest{
		CustomerID: customerID,
		Products:   []*storev1.ProductQuantity{{ProductID: r.fx.productID, Quantity: r.cfg.quantity}},
	}
	key := fmt.Sprintf("lt-order-%s-%d", r.runID, index)

	resp, err := r.callCreateOrder(client, req, key)
	if err != nil {
		if r.cfg.mode == modeContention && status.Code(err) == codes.FailedPrecondition {
			r.rejected.Add(1)
			return nil
		}
		return err
	}
	r.orderedUnits.Add(int64(r.cfg.quantity))

	if r.cfg.mode == modeOrderReplay {
		replay, err := r.callCreateOrder(client, req, key)
		if err != nil {
			return err
		}
		if replay.Order.ID != resp.Order.ID {
			return errReplayMismatch
		}
	}
	return nil
}

func (r *runner) callCreateCustomer(client storev1.StoreServiceClient, req *storev1.CreateCustomerRequest) (*storev1.CreateCustomerResponse, error) {
	start := time.Now()
	ctx, cancel := context.WithTimeout(context.Background(), r.cfg.timeout)
	defer cancel()

	resp, err := client.CreateCustomer(ctx, req)
	r.col.record("CreateCustomer", time.Since(start), grpcCode(err), err == nil)
	return resp, err
}

func (r *runner) callCreateOrder(client storev1.StoreServiceClient, req *storev1.CreateOrderRequest, key string) (*storev1.CreateOrderResponse, error) {
	start := time.Now()
	ctx, cancel := context.WithTimeout(context.Background(), r.cfg.timeout)
	defer cancel()
	ctx = metadata.AppendToOutgoingContext(ctx, idempotencyHeader, key)

	resp, err := client.CreateOrder(ctx, req)
	code := grpcCode(err)
	// отказ по остатку ожидаем под конкуренцией за товар
	ok := err == nil || (r.cfg.mode == modeContention && code == codes.FailedPrecondition)
	r.col.record("CreateOrder", time.Since(start), code, ok)
	return resp, err
}

// verifyStock сверяет итоговый остаток с числом проданных единиц.
func (r *runner) verifyStock(ctx context.Context, client storev1.StoreServiceClient) (*stockCheck, error) {
	ctx, cancel := context.WithTimeout(ctx, r.cfg.timeout)
	defer cancel()

	resp, err := client.GetProduct(ctx, &storev1.GetProductRequest{ProductID: r.fx.productID})
	if err != nil {
		return nil, fmt.Errorf("get product: %w", err)
	}

	ordered := r.orderedUnits.Load()
	final := resp.Product.Quantity
	return &stockCheck{
		InitialStock:   r.fx.stock,
		FinalStock:     final,
		OrderedUnits:   ordered,
		RejectedOrders: r.rejected.Load(),
		Consistent:     final >= 0 && int64(r.fx.stock)-ordered == int64(final),
	}, nil
}

func grpcCode(err error) codes.Code {
	if err == nil {
		return codes.OK
	}
	if errors.Is(err, errReplayMismatch) {
		return codes.Internal
	}
	return status.Code(err)
}

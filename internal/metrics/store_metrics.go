package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Причины отказа в создании заказа (значения метки reason).
const (
	RejectValidation        = "validation"
	RejectCustomerNotFound  = "customer_not_found"
	RejectProductNotFound   = "product_not_found"
	RejectInsufficientStock = "insufficient_stock"
	RejectStorage           = "storage"
	RejectOther             = "other"
)

// StoreMetrics содержит метрики сервисов магазина.
type StoreMetrics struct {
	customersCreated prometheus.Counter
	productsCreated  prometheus.Counter
	stockUpdates     prometheus.Counter

	ordersCreated  prometheus.Counter
	ordersRejected *prometheus.CounterVec
	orderLines     prometheus.Counter
	unitsSold      prometheus.Counter

	orderDuration prometheus.Histogram
	stepDuration  *prometheus.HistogramVec
}

// NewStoreMetrics регистрирует метрики в prometheus.DefaultRegisterer.
func NewStoreMetrics() *StoreMetrics {
	return NewStoreMetricsWithRegisterer(prometheus.DefaultRegisterer)
}

// NewStoreMetricsWithRegisterer регистрирует метрики в переданном реестре.
func NewStoreMetricsWithRegisterer(registerer prometheus.Registerer) *StoreMetrics {
	if registerer == nil {
		registerer = prometheus.DefaultRegisterer
	}

	return &StoreMetrics{
		customersCreated: registerCounter(registerer, prometheus.CounterOpts{
			Name: "store_customers_created_total",
			Help: "Total number of customers created",
		}),
		productsCreated: registerCounter(registerer, prometheus.CounterOpts{
			Name: "store_products_created_total",
			Help: "Total number of products created",
		}),
		stockUpdates: registerCounter(registerer, prometheus.CounterOpts{
			Name: "store_stock_updates_total",
			Help: "Total number of committed stock decrements",
		}),
		ordersCreated: registerCounter(registerer, prometheus.CounterOpts{
			Name: "store_orders_created_total",
			Help: "Total number of orders created",
		}),
		ordersRejected: registerCounterVec(registerer, prometheus.CounterOpts{
			Name: "store_orders_rejected_total",
			Help: "Total number of rejected order requests by reason",
		}, []string{"reason"}),
		orderLines: registerCounter(registerer, prometheus.CounterOpts{
			Name: "store_order_lines_total",
			Help: "Total number of order lines persisted",
		}),
		unitsSold: registerCounter(registerer, prometheus.CounterOpts{
			Name: "store_units_sold_total",
			Help: "Total number of product units sold",
		}),
		orderDuration: registerHistogram(registerer, prometheus.HistogramOpts{
			Name:    "store_order_create_duration_seconds",
			Help:    "Duration of order creation in seconds",
			Buckets: prometheus.DefBuckets,
		}),
		stepDuration: registerHistogramVec(registerer, prometheus.HistogramOpts{
			Name:    "store_order_step_duration_seconds",
			Help:    "Duration of individual order creation steps in seconds",
			Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1.0, 2.5, 5.0},
		}, []string{"step"}),
	}
}

// RecordCustomerCreated увеличивает счётчик созданных клиентов.
func (m *StoreMetrics) RecordCustomerCreated() {
	m.customersCreated.Inc()
}

// RecordProductCreated увеличивает счётчик созданных товаров.
func (m *StoreMetrics) RecordProductCreated() {
	m.productsCreated.Inc()
}

// RecordStockUpdated фиксирует успешное списание остатков.
func (m *StoreMetrics) RecordStockUpdated() {
	m.stockUpdates.Inc()
}

// RecordOrderCreated учитывает созданный заказ, число позиций и проданных единиц.
func (m *StoreMetrics) RecordOrderCreated(lines, units int) {
	m.ordersCreated.Inc()
	m.orderLines.Add(float64(lines))
	m.unitsSold.Add(float64(units))
}

// RecordOrderRejected увеличивает счётчик отказов с указанной причиной.
func (m *StoreMetrics) RecordOrderRejected(reason string) {
	m.ordersRejected.WithLabelValues(reason).Inc()
}

// RecordOrderDuration записывает время обработки запроса на создание заказа.
func (m *StoreMetrics) RecordOrderDuration(duration time.Duration) {
	m.orderDuration.Observe(duration.Seconds())
}

// RecordStepDuration записывает время выполнения шага создания заказа.
func (m *StoreMetrics) RecordStepDuration(step string, duration time.Duration) {
	m.stepDuration.WithLabelValues(step).Observe(duration.Seconds())
}

package domain

import (
	"encoding/json"
	"fmt"
	"time"
)

// CustomerCreated — полезная нагрузка события customer.created.
type CustomerCreated struct {
	CustomerID string    `json:"customer_id"`
	Name       string    `json:"name"`
	Email      string    `json:"email"`
	CreatedAt  time.Time `json:"created_at"`
}

// ProductCreated — полезная нагрузка события product.created.
type ProductCreated struct {
	ProductID string    `json:"product_id"`
	Name      string    `json:"name"`
	Price     string    `json:"price"`
	Quantity  int       `json:"quantity"`
	CreatedAt time.Time `json:"created_at"`
}

// StockLevel — остаток товара после списания.
type StockLevel struct {
	ProductID string `json:"product_id"`
	Quantity  int    `json:"quantity"`
}

// ProductStockUpdated — полезная нагрузка события product.stock_updated.
type ProductStockUpdated struct {
	// OrderID пуст, если остатки списаны напрямую, а не заказом.
	OrderID   string       `json:"order_id,omitempty"`
	Products  []StockLevel `json:"products"`
	UpdatedAt time.Time    `json:"updated_at"`
}

// OrderLine — позиция заказа в событии.
type OrderLine struct {
	ProductID string `json:"product_id"`
	Price     string `json:"price"`
	Quantity  int    `json:"quantity"`
}

// OrderCreated — полезная нагрузка события order.created.
type OrderCreated struct {
	OrderID    string      `json:"order_id"`
	CustomerID string      `json:"customer_id"`
	Lines      []OrderLine `json:"lines"`
	Total      string      `json:"total"`
	CreatedAt  time.Time   `json:"created_at"`
}

// NewOutboxMessage сериализует payload в JSON и собирает сообщение outbox.
func NewOutboxMessage(aggregateType, aggregateID, eventType string, payload any) (OutboxMessage, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return OutboxMessage{}, fmt.Errorf("marshal %s payload: %w", eventType, err)
	}
	return OutboxMessage{
		AggregateType: aggregateType,
		AggregateID:   aggregateID,
		EventType:     eventType,
		Payload:       data,
	}, nil
}

// NewCustomerCreated строит событие о новом клиенте.
func NewCustomerCreated(c Customer) (OutboxMessage, error) {
	return NewOutboxMessage(AggregateCustomer, c.ID, EventCustomerCreated, CustomerCreated{
		CustomerID: c.ID,
		Name:       c.Name,
		Email:      c.Email,
		CreatedAt:  c.CreatedAt,
	})
}

// NewProductCreated строит событие о новом товаре.
func NewProductCreated(p Product) (OutboxMessage, error) {
	return NewOutboxMessage(AggregateProduct, p.ID, EventProductCreated, ProductCreated{
		ProductID: p.ID,
		Name:      p.Name,
		Price:     p.Price.StringFixed(PriceScale),
		Quantity:  p.Quantity,
		CreatedAt: p.CreatedAt,
	})
}

// NewProductStockUpdated строит событие о списании остатков.
// Агрегат — заказ, если он есть, иначе первый товар пачки.
func NewProductStockUpdated(orderID string, products []Product) (OutboxMessage, error) {
	event := ProductStockUpdated{
		OrderID:   orderID,
		Products:  make([]StockLevel, 0, len(products)),
		UpdatedAt: time.Now().UTC(),
	}
	for _, p := range products {
		event.Products = append(event.Products, StockLevel{ProductID: p.ID, Quantity: p.Quantity})
	}

	aggregateType, aggregateID := AggregateOrder, orderID
	if orderID == "" {
		aggregateType = AggregateProduct
		if len(products) > 0 {
			aggregateID = products[0].ID
		}
	}
	return NewOutboxMessage(aggregateType, aggregateID, EventProductStockUpdated, event)
}

// NewOrderCreated строит событие о созданном заказе.
func NewOrderCreated(o Order) (OutboxMessage, error) {
	event := OrderCreated{
		OrderID:    o.ID,
		CustomerID: o.CustomerID,
		Lines:      make([]OrderLine, 0, len(o.Products)),
		Total:      o.Total().StringFixed(PriceScale),
		CreatedAt:  o.CreatedAt,
	}
	for _, item := range o.Products {
		event.Lines = append(event.Lines, OrderLine{
			ProductID: item.ProductID,
			Price:     item.Price.StringFixed(PriceScale),
			Quantity:  item.Quantity,
		})
	}
	return NewOutboxMessage(AggregateOrder, o.ID, EventOrderCreated, event)
}

// DeadLetter — событие, которое не удалось опубликовать после всех попыток.
type DeadLetter struct {
	OutboxID      string          `json:"outbox_id"`
	AggregateType string          `json:"aggregate_type"`
	AggregateID   string          `json:"aggregate_id"`
	EventType     string          `json:"event_type"`
	Payload       json.RawMessage `json:"payload"`
	PublishError  string          `json:"publish_error"`
	FailedAt      time.Time       `json:"failed_at"`
}

// NewDeadLetter упаковывает исходное сообщение и ошибку публикации в сообщение для DLQ.
func NewDeadLetter(msg OutboxMessage, publishErr error) (OutboxMessage, error) {
	letter := DeadLetter{
		OutboxID:      msg.ID,
		AggregateType: msg.AggregateType,
		AggregateID:   msg.AggregateID,
		EventType:     msg.EventType,
		Payload:       json.RawMessage(msg.Payload),
		FailedAt:      time.Now().UTC(),
	}
	if publishErr != nil {
		letter.PublishError = publishErr.Error()
	}

	dlq, err := NewOutboxMessage(msg.AggregateType, msg.AggregateID, msg.EventType, letter)
	if err != nil {
		return OutboxMessage{}, err
	}
	dlq.ID = msg.ID
	return dlq, nil
}

// Original восстанавливает исходное сообщение outbox.
func (d DeadLetter) Original() OutboxMessage {
	return OutboxMessage{
		ID:            d.OutboxID,
		AggregateType: d.AggregateType,
		AggregateID:   d.AggregateID,
		EventType:     d.EventType,
		Payload:       []byte(d.Payload),
	}
}

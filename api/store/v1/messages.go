package storev1

import "time"

// Customer — клиент магазина.
type Customer struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Product — товар каталога. Price — десятичная строка с двумя знаками.
type Product struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Price     string    `json:"price"`
	Quantity  int32     `json:"quantity"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// ProductQuantity — запрошенное количество товара.
type ProductQuantity struct {
	ProductID string `json:"product_id"`
	Quantity  int32  `json:"quantity"`
}

// OrderProduct — позиция заказа со снимком цены.
type OrderProduct struct {
	ID        string `json:"id"`
	ProductID string `json:"product_id,omitempty"`
	Price     string `json:"price"`
	Quantity  int32  `json:"quantity"`
}

// Order — заказ с позициями в порядке запроса.
type Order struct {
	ID         string          `json:"id"`
	CustomerID string          `json:"customer_id,omitempty"`
	Products   []*OrderProduct `json:"products"`
	Total      string          `json:"total"`
	CreatedAt  time.Time       `json:"created_at"`
	UpdatedAt  time.Time       `json:"updated_at"`
}

type CreateCustomerRequest struct {
	Name  string `json:"name"`
	Email string `json:"email"`
}

type CreateCustomerResponse struct {
	Customer *Customer `json:"customer"`
}

type GetCustomerRequest struct {
	CustomerID string `json:"customer_id"`
}

type GetCustomerResponse struct {
	Customer *Customer `json:"customer"`
}

type CreateProductRequest struct {
	Name     string `json:"name"`
	Price    string `json:"price"`
	Quantity int32  `json:"quantity"`
}

type CreateProductResponse struct {
	Product *Product `json:"product"`
}

type GetProductRequest struct {
	ProductID string `json:"product_id"`
}

type GetProductResponse struct {
	Product *Product `json:"product"`
}

type UpdateProductQuantitiesRequest struct {
	Products []*ProductQuantity `json:"products"`
}

type UpdateProductQuantitiesResponse struct {
	Products []*Product `json:"products"`
}

type CreateOrderRequest struct {
	CustomerID string             `json:"customer_id"`
	Products   []*ProductQuantity `json:"products"`
}

type CreateOrderResponse struct {
	Order *Order `json:"order"`
}

type GetOrderRequest struct {
	OrderID string `json:"order_id"`
}

type GetOrderResponse struct {
	Order *Order `json:"order"`
}

type ListCustomerOrdersRequest struct {
	CustomerID string `json:"customer_id"`
	PageSize   int32  `json:"page_size"`
}

type ListCustomerOrdersResponse struct {
	Orders []*Order `json:"orders"`
}

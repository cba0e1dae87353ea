package domain

import "context"

// CustomerRepository описывает требования к хранилищу клиентов.
type CustomerRepository interface {
	// FindByID возвращает клиента или ErrCustomerNotFound.
	FindByID(ctx context.Context, id string) (Customer, error)
	// FindByEmail ищет клиента по точному совпадению e-mail, иначе ErrCustomerNotFound.
	FindByEmail(ctx context.Context, email string) (Customer, error)
	// Create сохраняет клиента. Нарушение уникальности e-mail даёт ErrEmailExists.
	Create(ctx context.Context, customer Customer) (Customer, error)
}

// ProductRepository описывает требования к хранилищу товаров.
type ProductRepository interface {
	// Create сохраняет товар. Нарушение уникальности названия даёт ErrProductNameExists.
	Create(ctx context.Context, product Product) (Product, error)
	// FindByID возвращает товар или ErrProductNotFound.
	FindByID(ctx context.Context, id string) (Product, error)
	// FindByName возвращает товар или ErrProductNotFound.
	FindByName(ctx context.Context, name string) (Product, error)
	// FindAllByID возвращает только найденные товары; порядок и количество не гарантируются.
	FindAllByID(ctx context.Context, ids []string) ([]Product, error)
	// FindAllByIDForUpdate — то же, но с блокировкой строк до конца транзакции.
	FindAllByIDForUpdate(ctx context.Context, ids []string) ([]Product, error)
	// Save пакетно обновляет товары и возвращает сохранённые записи.
	// Отрицательный остаток даёт ErrInsufficientStock.
	Save(ctx context.Context, products []Product) ([]Product, error)
}

// OrderRepository описывает требования к хранилищу заказов.
type OrderRepository interface {
	// Create сохраняет заказ вместе с позициями и возвращает его с заполненными позициями.
	Create(ctx context.Context, order Order) (Order, error)
	// Get возвращает заказ по идентификатору или ErrOrderNotFound, если его нет.
	Get(ctx context.Context, id string) (Order, error)
	// ListByCustomer возвращает заказы клиента с опциональным ограничением на количество.
	ListByCustomer(ctx context.Context, customerID string, limit int) ([]Order, error)
}

// Repositories — набор репозиториев, привязанных к одному соединению или транзакции.
type Repositories struct {
	Customers CustomerRepository
	Products  ProductRepository
	Orders    OrderRepository
	Outbox    OutboxRepository
}

// UnitOfWork даёт доступ к репозиториям и выполняет функцию в одной транзакции.
type UnitOfWork interface {
	// Repositories возвращает репозитории в режиме автокоммита.
	Repositories() Repositories
	// WithinTx выполняет fn атомарно: при ошибке все изменения откатываются.
	WithinTx(ctx context.Context, fn func(ctx context.Context, repos Repositories) error) error
}

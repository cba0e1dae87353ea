package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/vladislavdragonenkov/storefront/internal/domain"
)

type orderRepository struct {
	q querier
}

// Create сохраняет заказ и его позиции. Вне транзакции UnitOfWork
// открывает собственную, чтобы заказ не остался без позиций.
func (r *orderRepository) Create(ctx context.Context, order domain.Order) (created domain.Order, err error) {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	q := r.q
	if db, ok := r.q.(*sql.DB); ok {
		var tx *sql.Tx
		tx, err = db.BeginTx(ctx, nil)
		if err != nil {
			return domain.Order{}, domain.WrapStorage(fmt.Errorf("begin tx: %w", err))
		}
		defer func() {
			if err != nil {
				_ = tx.Rollback()
				return
			}
			if commitErr := tx.Commit(); commitErr != nil {
				created = domain.Order{}
				err = domain.WrapStorage(fmt.Errorf("commit create order: %w", commitErr))
			}
		}()
		q = tx
	}

	return insertOrder(ctx, q, order)
}

func insertOrder(ctx context.Context, q querier, order domain.Order) (domain.Order, error) {
	if order.ID == "" {
		order.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if order.CreatedAt.IsZero() {
		order.CreatedAt = now
	}
	if order.UpdatedAt.IsZero() {
		order.UpdatedAt = order.CreatedAt
	}

	_, err := q.ExecContext(ctx, `
		INSERT INTO orders (id, customer_id, created_at, updated_at)
		VALUES ($1,$2,$3,$4)
	`, order.ID, nullString(order.CustomerID), order.CreatedAt, order.UpdatedAt)
	if err != nil {
		if isForeignKeyViolation(err) {
			return domain.Order{}, fmt.Errorf("%w: %s", domain.ErrCustomerNotFound, order.CustomerID)
		}
		return domain.Order{}, domain.WrapStorage(fmt.Errorf("insert order: %w", err))
	}

	items := make([]domain.OrderProduct, 0, len(order.Products))
	for i, item := range order.Products {
		if item.ID == "" {
			item.ID = uuid.NewString()
		}
		item.OrderID = order.ID
		if item.CreatedAt.IsZero() {
			item.CreatedAt = order.CreatedAt
		}
		if item.UpdatedAt.IsZero() {
			item.UpdatedAt = item.CreatedAt
		}

		if _, err := q.ExecContext(ctx, `
			INSERT INTO order_products (
				id, order_id, product_id, position, price, quantity, created_at, updated_at
			) VALUES ($1,$2,$3,$4,$5,$6,$7,$8)
		`,
			item.ID, item.OrderID, nullString(item.ProductID), i,
			item.Price, item.Quantity, item.CreatedAt, item.UpdatedAt,
		); err != nil {
			if isForeignKeyViolation(err) {
				return domain.Order{}, fmt.Errorf("%w: %s", domain.ErrProductNotFound, item.ProductID)
			}
			return domain.Order{}, domain.WrapStorage(fmt.Errorf("insert order product: %w", err))
		}
		items = append(items, item)
	}
	order.Products = items

	return order, nil
}

func (r *orderRepository) Get(ctx context.Context, id string) (domain.Order, error) {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	order, err := scanOrder(r.q.QueryRowContext(ctx, `
		SELECT id, customer_id, created_at, updated_at
		FROM orders
		WHERE id = $1
	`, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.Order{}, domain.ErrOrderNotFound
		}
		return domain.Order{}, domain.WrapStorage(fmt.Errorf("select order: %w", err))
	}

	items, err := r.loadItems(ctx, order.ID)
	if err != nil {
		return domain.Order{}, err
	}
	order.Products = items

	return order, nil
}

func (r *orderRepository) ListByCustomer(ctx context.Context, customerID string, limit int) ([]domain.Order, error) {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	query := `
		SELECT id, customer_id, created_at, updated_at
		FROM orders
		WHERE customer_id = $1
		ORDER BY created_at DESC, id DESC
	`

	var (
		rows *sql.Rows
		err  error
	)
	if limit > 0 {
		rows, err = r.q.QueryContext(ctx, query+" LIMIT $2", customerID, limit)
	} else {
		rows, err = r.q.QueryContext(ctx, query, customerID)
	}
	if err != nil {
		return nil, domain.WrapStorage(fmt.Errorf("list orders: %w", err))
	}

	orders := make([]domain.Order, 0)
	for rows.Next() {
		order, err := scanOrder(rows)
		if err != nil {
			_ = rows.Close()
			return nil, domain.WrapStorage(fmt.Errorf("scan order row: %w", err))
		}
		orders = append(orders, order)
	}
	if err := rows.Err(); err != nil {
		_ = rows.Close()
		return nil, domain.WrapStorage(fmt.Errorf("iterate order rows: %w", err))
	}
	_ = rows.Close()

	// позиции читаются после закрытия курсора: в транзакции одно соединение
	for i := range orders {
		items, err := r.loadItems(ctx, orders[i].ID)
		if err != nil {
			return nil, err
		}
		orders[i].Products = items
	}

	return orders, nil
}

func (r *orderRepository) loadItems(ctx context.Context, orderID string) ([]domain.OrderProduct, error) {
	rows, err := r.q.QueryContext(ctx, `
		SELECT id, order_id, product_id, price, quantity, created_at, updated_at
		FROM order_products
		WHERE order_id = $1
		ORDER BY position ASC
	`, orderID)
	if err != nil {
		return nil, domain.WrapStorage(fmt.Errorf("load order products: %w", err))
	}
	defer rows.Close()

	items := make([]domain.OrderProduct, 0)
	for rows.Next() {
		var (
			item      domain.OrderProduct
			productID sql.NullString
		)
		if err := rows.Scan(
			&item.ID, &item.OrderID, &productID, &item.Price,
			&item.Quantity, &item.CreatedAt, &item.UpdatedAt,
		); err != nil {
			return nil, domain.WrapStorage(fmt.Errorf("scan order product: %w", err))
		}
		item.ProductID = productID.String
		item.CreatedAt = item.CreatedAt.UTC()
		item.UpdatedAt = item.UpdatedAt.UTC()
		items = append(items, item)
	}
	if err := rows.Err(); err != nil {
		return nil, domain.WrapStorage(fmt.Errorf("iterate order products: %w", err))
	}

	return items, nil
}

func scanOrder(row rowScanner) (domain.Order, error) {
	var (
		order      domain.Order
		customerID sql.NullString
	)
	if err := row.Scan(&order.ID, &customerID, &order.CreatedAt, &order.UpdatedAt); err != nil {
		return domain.Order{}, err
	}
	order.CustomerID = customerID.String
	order.CreatedAt = order.CreatedAt.UTC()
	order.UpdatedAt = order.UpdatedAt.UTC()
	return order, nil
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

var _ domain.OrderRepository = (*orderRepository)(nil)

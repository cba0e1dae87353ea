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

type productRepository struct {
	q querier
}

const productColumns = `id, name, price, quantity, created_at, updated_at`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanProduct(row rowScanner) (domain.Product, error) {
	var p domain.Product
	if err := row.Scan(&p.ID, &p.Name, &p.Price, &p.Quantity, &p.CreatedAt, &p.UpdatedAt); err != nil {
		return domain.Product{}, err
	}
	p.CreatedAt = p.CreatedAt.UTC()
	p.UpdatedAt = p.UpdatedAt.UTC()
	return p, nil
}

func (r *productRepository) Create(ctx context.Context, product domain.Product) (domain.Product, error) {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	if product.ID == "" {
		product.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if product.CreatedAt.IsZero() {
		product.CreatedAt = now
	}
	if product.UpdatedAt.IsZero() {
		product.UpdatedAt = product.CreatedAt
	}

	_, err := r.q.ExecContext(ctx, `
		INSERT INTO products (id, name, price, quantity, created_at, updated_at)
		VALUES ($1,$2,$3,$4,$5,$6)
	`, product.ID, product.Name, product.Price, product.Quantity, product.CreatedAt, product.UpdatedAt)
	if err != nil {
		switch {
		case isUniqueViolation(err):
			return domain.Product{}, domain.ErrProductNameExists
		case isCheckViolation(err):
			return domain.Product{}, domain.ErrProductQuantityInvalid
		}
		return domain.Product{}, domain.WrapStorage(fmt.Errorf("insert product: %w", err))
	}

	return product, nil
}

func (r *productRepository) FindByID(ctx context.Context, id string) (domain.Product, error) {
	return r.findOne(ctx, `SELECT `+productColumns+` FROM products WHERE id = $1`, id)
}

func (r *productRepository) FindByName(ctx context.Context, name string) (domain.Product, error) {
	return r.findOne(ctx, `SELECT `+productColumns+` FROM products WHERE name = $1`, name)
}

func (r *productRepository) FindAllByID(ctx context.Context, ids []string) ([]domain.Product, error) {
	return r.findMany(ctx, ids, false)
}

// FindAllByIDForUpdate блокирует найденные строки до конца транзакции.
// Строки берутся в порядке id, чтобы параллельные заказы не ловили deadlock.
func (r *productRepository) FindAllByIDForUpdate(ctx context.Context, ids []string) ([]domain.Product, error) {
	return r.findMany(ctx, ids, true)
}

// Save пакетно обновляет цену, название и остаток товаров.
// CHECK (quantity >= 0) превращается в ErrInsufficientStock. Вне транзакции
// UnitOfWork пачка сохраняется в собственной транзакции целиком или никак.
func (r *productRepository) Save(ctx context.Context, products []domain.Product) (saved []domain.Product, err error) {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	q := r.q
	if db, ok := r.q.(*sql.DB); ok {
		var tx *sql.Tx
		tx, err = db.BeginTx(ctx, nil)
		if err != nil {
			return nil, domain.WrapStorage(fmt.Errorf("begin tx: %w", err))
		}
		defer func() {
			if err != nil {
				_ = tx.Rollback()
				return
			}
			if commitErr := tx.Commit(); commitErr != nil {
				saved = nil
				err = domain.WrapStorage(fmt.Errorf("commit save products: %w", commitErr))
			}
		}()
		q = tx
	}

	return updateProducts(ctx, q, products)
}

func updateProducts(ctx context.Context, q querier, products []domain.Product) ([]domain.Product, error) {
	now := time.Now().UTC()
	saved := make([]domain.Product, 0, len(products))
	for _, product := range products {
		row := q.QueryRowContext(ctx, `
			UPDATE products
			SET name = $2,
			    price = $3,
			    quantity = $4,
			    updated_at = $5
			WHERE id = $1
			RETURNING `+productColumns,
			product.ID, product.Name, product.Price, product.Quantity, now,
		)
		updated, err := scanProduct(row)
		if err != nil {
			switch {
			case errors.Is(err, sql.ErrNoRows):
				return nil, fmt.Errorf("%w: %s", domain.ErrProductNotFound, product.ID)
			case isCheckViolation(err):
				return nil, fmt.Errorf("%w: product %s would go to %d", domain.ErrInsufficientStock, product.ID, product.Quantity)
			case isUniqueViolation(err):
				return nil, domain.ErrProductNameExists
			}
			return nil, domain.WrapStorage(fmt.Errorf("update product %s: %w", product.ID, err))
		}
		saved = append(saved, updated)
	}

	return saved, nil
}

func (r *productRepository) findOne(ctx context.Context, query string, arg string) (domain.Product, error) {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	p, err := scanProduct(r.q.QueryRowContext(ctx, query, arg))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.Product{}, domain.ErrProductNotFound
		}
		return domain.Product{}, domain.WrapStorage(fmt.Errorf("select product: %w", err))
	}
	return p, nil
}

func (r *productRepository) findMany(ctx context.Context, ids []string, forUpdate bool) ([]domain.Product, error) {
	if len(ids) == 0 {
		return []domain.Product{}, nil
	}

	ctx, cancel := withTimeout(ctx)
	defer cancel()

	query := `SELECT ` + productColumns + ` FROM products WHERE id = ANY($1) ORDER BY id`
	if forUpdate {
		query += ` FOR UPDATE`
	}

	rows, err := r.q.QueryContext(ctx, query, ids)
	if err != nil {
		return nil, domain.WrapStorage(fmt.Errorf("select products: %w", err))
	}
	defer rows.Close()

	products := make([]domain.Product, 0, len(ids))
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, domain.WrapStorage(fmt.Errorf("scan product row: %w", err))
		}
		products = append(products, p)
	}
	if err := rows.Err(); err != nil {
		return nil, domain.WrapStorage(fmt.Errorf("iterate product rows: %w", err))
	}

	return products, nil
}

var _ domain.ProductRepository = (*productRepository)(nil)

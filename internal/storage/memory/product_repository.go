package memory

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/vladislavdragonenkov/storefront/internal/domain"
)

type productRepository struct {
	access
}

func (r *productRepository) Create(_ context.Context, product domain.Product) (domain.Product, error) {
	if product.ID == "" {
		product.ID = uuid.NewString()
	}
	if product.Quantity < 0 {
		return domain.Product{}, domain.ErrProductQuantityInvalid
	}
	now := time.Now().UTC()
	if product.CreatedAt.IsZero() {
		product.CreatedAt = now
	}
	if product.UpdatedAt.IsZero() {
		product.UpdatedAt = product.CreatedAt
	}

	err := r.write(func(d *dataset, changes *changeLog) error {
		if _, taken := d.productByName[product.Name]; taken {
			return domain.ErrProductNameExists
		}
		if _, exists := d.products[product.ID]; exists {
			return fmt.Errorf("product %s already exists", product.ID)
		}
		setRow(changes, d.products, product.ID, product)
		setRow(changes, d.productByName, product.Name, product.ID)
		return nil
	})
	if err != nil {
		return domain.Product{}, err
	}
	return product, nil
}

func (r *productRepository) FindByID(_ context.Context, id string) (domain.Product, error) {
	var product domain.Product
	err := r.read(func(d *dataset) error {
		p, ok := d.products[id]
		if !ok {
			return domain.ErrProductNotFound
		}
		product = p
		return nil
	})
	return product, err
}

func (r *productRepository) FindByName(_ context.Context, name string) (domain.Product, error) {
	var product domain.Product
	err := r.read(func(d *dataset) error {
		id, ok := d.productByName[name]
		if !ok {
			return domain.ErrProductNotFound
		}
		product = d.products[id]
		return nil
	})
	return product, err
}

func (r *productRepository) FindAllByID(_ context.Context, ids []string) ([]domain.Product, error) {
	result := make([]domain.Product, 0, len(ids))
	err := r.read(func(d *dataset) error {
		seen := make(map[string]struct{}, len(ids))
		for _, id := range ids {
			if _, dup := seen[id]; dup {
				continue
			}
			seen[id] = struct{}{}
			if p, ok := d.products[id]; ok {
				result = append(result, p)
			}
		}
		return nil
	})
	return result, err
}

// FindAllByIDForUpdate в памяти не отличается от FindAllByID: транзакции
// и так сериализованы мьютексом хранилища.
func (r *productRepository) FindAllByIDForUpdate(ctx context.Context, ids []string) ([]domain.Product, error) {
	return r.FindAllByID(ctx, ids)
}

// Save пакетно перезаписывает товары. Неизвестный товар, отрицательный
// остаток или занятое название отменяют всю пачку.
func (r *productRepository) Save(_ context.Context, products []domain.Product) ([]domain.Product, error) {
	now := time.Now().UTC()
	saved := make([]domain.Product, 0, len(products))

	err := r.write(func(d *dataset, changes *changeLog) error {
		for _, product := range products {
			current, ok := d.products[product.ID]
			if !ok {
				return fmt.Errorf("%w: %s", domain.ErrProductNotFound, product.ID)
			}
			if product.Quantity < 0 {
				return fmt.Errorf("%w: product %s would go to %d", domain.ErrInsufficientStock, product.ID, product.Quantity)
			}
			if product.Name != current.Name {
				if owner, taken := d.productByName[product.Name]; taken && owner != product.ID {
					return domain.ErrProductNameExists
				}
				deleteRow(changes, d.productByName, current.Name)
				setRow(changes, d.productByName, product.Name, product.ID)
			}
			product.CreatedAt = current.CreatedAt
			product.UpdatedAt = now
			setRow(changes, d.products, product.ID, product)
			saved = append(saved, product)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return saved, nil
}

var _ domain.ProductRepository = (*productRepository)(nil)

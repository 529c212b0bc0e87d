package repositories

import (
	"context"
	"errors"

	"katalog/internal/models"
)

// ErrProductNotFound is returned, wrapped, when an id does not resolve to a product.
var ErrProductNotFound = errors.New("product not found")

// ProductRepository defines the interface for product data access.
type ProductRepository interface {
	// List returns at most limit products after skipping offset, in the
	// store's natural order.
	List(ctx context.Context, offset, limit int) ([]models.Product, error)
	Count(ctx context.Context) (int64, error)
	GetByID(ctx context.Context, id string) (*models.Product, error)
	Create(ctx context.Context, product *models.Product) error
	// Update applies changes to an existing product and returns the stored result.
	Update(ctx context.Context, id string, changes models.ProductChanges) (*models.Product, error)
	Delete(ctx context.Context, id string) error
}

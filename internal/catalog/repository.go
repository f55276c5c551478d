package catalog

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"github.com/dmeister/storefront-backend/pkg/db/models"
	pkgerrors "github.com/dmeister/storefront-backend/pkg/errors"
)

// Repository reads products from the ledger table.
type Repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// FindBySKU returns the ledger row for a single SKU.
func (r *Repository) FindBySKU(ctx context.Context, sku string) (*models.Product, error) {
	if r == nil || r.db == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "catalog repository not configured")
	}

	var product models.Product
	err := r.db.WithContext(ctx).
		Where("sku = ?", sku).
		First(&product).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, fmt.Sprintf("product %q not found", sku))
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "query product by sku")
	}

	return &product, nil
}

// List returns every ledger row ordered by SKU.
func (r *Repository) List(ctx context.Context) ([]models.Product, error) {
	if r == nil || r.db == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "catalog repository not configured")
	}

	var products []models.Product
	err := r.db.WithContext(ctx).
		Order("sku ASC").
		Find(&products).Error
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "list products")
	}

	return products, nil
}

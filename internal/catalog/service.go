package catalog

import (
	"context"

	"github.com/dmeister/storefront-backend/pkg/db/models"
	pkgerrors "github.com/dmeister/storefront-backend/pkg/errors"
)

// Item is the catalog view of a ledger row, with the price normalized to
// minor currency units.
type Item struct {
	SKU             string  `json:"sku"`
	ProductID       string  `json:"productId,omitempty"`
	VariantID       string  `json:"variantId,omitempty"`
	Title           string  `json:"title"`
	UnitAmountMinor int64   `json:"unitAmountMinor"`
	Currency        string  `json:"currency"`
	Stock           int     `json:"stock"`
	ImageURL        *string `json:"imageUrl,omitempty"`
}

type repository interface {
	FindBySKU(ctx context.Context, sku string) (*models.Product, error)
	List(ctx context.Context) ([]models.Product, error)
}

// Service exposes read access to the product ledger. Prices returned by the
// service are the only amounts trusted by checkout.
type Service struct {
	repo repository
}

func NewService(repo repository) *Service {
	return &Service{repo: repo}
}

// Get returns a single catalog item by SKU.
func (s *Service) Get(ctx context.Context, sku string) (*Item, error) {
	if s == nil || s.repo == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "catalog service not configured")
	}
	if sku == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "sku is required")
	}

	product, err := s.repo.FindBySKU(ctx, sku)
	if err != nil {
		return nil, err
	}

	item := toItem(product)
	return &item, nil
}

// List returns every catalog item.
func (s *Service) List(ctx context.Context) ([]Item, error) {
	if s == nil || s.repo == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "catalog service not configured")
	}

	products, err := s.repo.List(ctx)
	if err != nil {
		return nil, err
	}

	items := make([]Item, 0, len(products))
	for i := range products {
		items = append(items, toItem(&products[i]))
	}
	return items, nil
}

func toItem(product *models.Product) Item {
	item := Item{
		SKU:             product.SKU,
		Title:           product.Title(),
		UnitAmountMinor: product.Price.Shift(2).Round(0).IntPart(),
		Currency:        product.Currency,
		Stock:           product.Stock,
		ImageURL:        product.FirstImage(),
	}
	if product.ProductID != nil {
		item.ProductID = *product.ProductID
	}
	if product.VariantID != nil {
		item.VariantID = *product.VariantID
	}
	return item
}

package catalog

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/shopspring/decimal"

	"github.com/dmeister/storefront-backend/pkg/db/models"
	pkgerrors "github.com/dmeister/storefront-backend/pkg/errors"
)

type stubRepository struct {
	findFn func(ctx context.Context, sku string) (*models.Product, error)
	listFn func(ctx context.Context) ([]models.Product, error)
}

func (s *stubRepository) FindBySKU(ctx context.Context, sku string) (*models.Product, error) {
	return s.findFn(ctx, sku)
}

func (s *stubRepository) List(ctx context.Context) ([]models.Product, error) {
	return s.listFn(ctx)
}

func TestGetConvertsPriceToMinorUnits(t *testing.T) {
	repo := &stubRepository{
		findFn: func(_ context.Context, sku string) (*models.Product, error) {
			if sku != "sku-1" {
				t.Fatalf("unexpected sku %q", sku)
			}
			return &models.Product{
				SKU:      "sku-1",
				Price:    decimal.RequireFromString("24.90"),
				Currency: "eur",
				Stock:    3,
				Data:     json.RawMessage(`{"title":"Poster","images":["https://cdn.test/poster.png"]}`),
			}, nil
		},
	}

	item, err := NewService(repo).Get(context.Background(), "sku-1")
	if err != nil {
		t.Fatalf("Get returned error: %v", err)
	}
	if item.UnitAmountMinor != 2490 {
		t.Fatalf("UnitAmountMinor = %d, want 2490", item.UnitAmountMinor)
	}
	if item.Title != "Poster" {
		t.Fatalf("Title = %q", item.Title)
	}
	if item.ImageURL == nil || *item.ImageURL != "https://cdn.test/poster.png" {
		t.Fatalf("ImageURL = %v", item.ImageURL)
	}
}

func TestGetRequiresSKU(t *testing.T) {
	svc := NewService(&stubRepository{})
	_, err := svc.Get(context.Background(), "")
	if !pkgerrors.IsCode(err, pkgerrors.CodeValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestGetPropagatesNotFound(t *testing.T) {
	repo := &stubRepository{
		findFn: func(context.Context, string) (*models.Product, error) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "product not found")
		},
	}

	_, err := NewService(repo).Get(context.Background(), "missing")
	if !pkgerrors.IsCode(err, pkgerrors.CodeNotFound) {
		t.Fatalf("expected not found error, got %v", err)
	}
}

func TestListMapsAllRows(t *testing.T) {
	repo := &stubRepository{
		listFn: func(context.Context) ([]models.Product, error) {
			return []models.Product{
				{SKU: "a", Price: decimal.RequireFromString("10.00"), Currency: "eur"},
				{SKU: "b", Price: decimal.RequireFromString("0.99"), Currency: "eur"},
			}, nil
		},
	}

	items, err := NewService(repo).List(context.Background())
	if err != nil {
		t.Fatalf("List returned error: %v", err)
	}
	if len(items) != 2 {
		t.Fatalf("len(items) = %d, want 2", len(items))
	}
	if items[0].UnitAmountMinor != 1000 || items[1].UnitAmountMinor != 99 {
		t.Fatalf("minor amounts = %d, %d", items[0].UnitAmountMinor, items[1].UnitAmountMinor)
	}
}

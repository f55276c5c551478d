package models

import (
	"encoding/json"
	"time"

	"github.com/shopspring/decimal"
)

// Product is one row of the price ledger. The price column is the only
// monetary source of truth; client-submitted prices are never trusted.
type Product struct {
	SKU       string          `gorm:"column:sku;primaryKey"`
	ProductID *string         `gorm:"column:product_id"`
	VariantID *string         `gorm:"column:variant_id"`
	Price     decimal.Decimal `gorm:"column:price;type:numeric(12,2);not null"`
	Currency  string          `gorm:"column:currency;not null;default:eur"`
	Stock     int             `gorm:"column:stock;not null;default:0"`
	Data      json.RawMessage `gorm:"column:data;type:jsonb"`
	CreatedAt time.Time       `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt time.Time       `gorm:"column:updated_at;autoUpdateTime"`
}

func (Product) TableName() string {
	return "products"
}

type productData struct {
	Title  string   `json:"title"`
	Images []string `json:"images"`
}

// Title extracts the display title from the data blob; empty when absent.
func (p Product) Title() string {
	var d productData
	if len(p.Data) == 0 || json.Unmarshal(p.Data, &d) != nil {
		return ""
	}
	return d.Title
}

// FirstImage returns the first catalog image URL, or nil when none exists.
func (p Product) FirstImage() *string {
	var d productData
	if len(p.Data) == 0 || json.Unmarshal(p.Data, &d) != nil {
		return nil
	}
	if len(d.Images) == 0 || d.Images[0] == "" {
		return nil
	}
	img := d.Images[0]
	return &img
}

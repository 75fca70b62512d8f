package catalog

import (
	"errors"
	"time"

	"github.com/shopspring/decimal"
)

type Category struct {
	ID          int64     `json:"id"`
	Name        string    `json:"name"`
	Description *string   `json:"description,omitempty"`
	ParentID    *int64    `json:"parent_id,omitempty"`
	Slug        string    `json:"slug"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

type Product struct {
	ID            int64           `json:"id"`
	Name          string          `json:"name"`
	Description   *string         `json:"description,omitempty"`
	Price         decimal.Decimal `json:"price"`
	CategoryID    int64           `json:"category_id"`
	SKU           string          `json:"sku"`
	StockQuantity int             `json:"stock_quantity"`
	Active        bool            `json:"is_active"`
	CreatedAt     time.Time       `json:"created_at"`
	UpdatedAt     time.Time       `json:"updated_at"`
}

// Sentinels carried inside *apperr.Error values; match them with errors.Is.
var (
	ErrCategoryNotFound  = errors.New("category not found")
	ErrProductNotFound   = errors.New("product not found")
	ErrDuplicateSKU      = errors.New("duplicate sku")
	ErrDuplicateSlug     = errors.New("duplicate category slug")
	ErrInsufficientStock = errors.New("insufficient stock")
	ErrCategoryInUse     = errors.New("category subtree has ordered products")
	ErrCorruptTree       = errors.New("category tree contains a cycle")
)

// PriceScale is the number of fraction digits kept for every monetary value.
const PriceScale = 2

// MaxAmount is the largest monetary value a NUMERIC(10,2) column holds.
var MaxAmount = decimal.New(9999999999, -PriceScale)

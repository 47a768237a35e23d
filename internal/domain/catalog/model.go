package catalog

import (
	"encoding/json"
	"errors"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/bakery/storefront/internal/platform/apiclient"
)

var (
	ErrNameRequired   = errors.New("name is required")
	ErrNegativePrice  = errors.New("price must not be negative")
	ErrInvalidTaxRate = errors.New("tax rate must be between 0 and 1")
	ErrNegativeDays   = errors.New("delivery days must not be negative")
)

// Category groups products on the storefront.
type Category struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// CategoryInput is the create/update form for a category.
type CategoryInput struct {
	Name string `json:"name"`
}

func (in CategoryInput) Validate() error {
	if strings.TrimSpace(in.Name) == "" {
		return ErrNameRequired
	}
	return nil
}

// Product is a catalog entry. Stock is the sum of the product's inventory
// rows as computed by the backend; it is never sent back.
type Product struct {
	ID           string          `json:"id"`
	Name         string          `json:"name"`
	Description  string          `json:"description"`
	Price        decimal.Decimal `json:"price"`
	Stock        int             `json:"stock"`
	Category     string          `json:"category"`
	Images       []string        `json:"images"`
	DeliveryDays int             `json:"delivery_days"`
	TaxRate      decimal.Decimal `json:"tax_rate"`
}

// PriceWithTax is the shelf price including tax.
func (p Product) PriceWithTax() decimal.Decimal {
	return p.Price.Add(p.Price.Mul(p.TaxRate)).Round(2)
}

// InitialStock assigns a starting quantity at one location when a product is
// created.
type InitialStock struct {
	LocationID string `json:"location_id"`
	Quantity   int    `json:"quantity"`
}

// ProductInput is the create/update form for a product.
type ProductInput struct {
	Name         string          `json:"name"`
	Description  string          `json:"description"`
	Price        decimal.Decimal `json:"price"`
	Category     string          `json:"category"`
	Images       []string        `json:"images,omitempty"`
	DeliveryDays int             `json:"delivery_days"`
	TaxRate      decimal.Decimal `json:"tax_rate"`
	Inventory    []InitialStock  `json:"inventory,omitempty"`
}

func (in ProductInput) Validate() error {
	if strings.TrimSpace(in.Name) == "" {
		return ErrNameRequired
	}
	if in.Price.IsNegative() {
		return ErrNegativePrice
	}
	if in.TaxRate.IsNegative() || in.TaxRate.GreaterThan(decimal.NewFromInt(1)) {
		return ErrInvalidTaxRate
	}
	if in.DeliveryDays < 0 {
		return ErrNegativeDays
	}
	for _, s := range in.Inventory {
		if s.Quantity < 0 {
			return errors.New("initial stock must not be negative")
		}
	}
	return nil
}

// Multipart encodes the form with image files attached as "images" parts,
// for backends that take the upload together with the product. Initial
// stock travels as a JSON-encoded "inventory" field.
func (in ProductInput) Multipart(images []apiclient.File) *apiclient.Multipart {
	fields := map[string]string{
		"name":          in.Name,
		"description":   in.Description,
		"price":         in.Price.String(),
		"category":      in.Category,
		"delivery_days": strconv.Itoa(in.DeliveryDays),
		"tax_rate":      in.TaxRate.String(),
	}
	if len(in.Inventory) > 0 {
		inv, _ := json.Marshal(in.Inventory)
		fields["inventory"] = string(inv)
	}
	files := make([]apiclient.File, 0, len(images))
	for _, f := range images {
		f.Field = "images"
		files = append(files, f)
	}
	return &apiclient.Multipart{Fields: fields, Files: files}
}

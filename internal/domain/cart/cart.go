// Package cart reads and writes the session cart and places orders.
package cart

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sort"

	"github.com/shopspring/decimal"

	"github.com/bakery/storefront/internal/domain/catalog"
	"github.com/bakery/storefront/internal/platform/apiclient"
	"github.com/bakery/storefront/internal/platform/resource"
)

const (
	Path         = "/api/cart"
	CheckoutPath = "/api/checkout"
)

var (
	ErrInvalidQuantity = errors.New("quantity must be positive")
	ErrEmptyCart       = errors.New("cart is empty")
)

// Cart maps product ids to quantities. Absent ids mean zero.
type Cart struct {
	Items map[string]int `json:"items"`
}

func (c Cart) Quantity(productID string) int { return c.Items[productID] }

func (c Cart) Empty() bool { return len(c.Items) == 0 }

// Line is one priced cart entry.
type Line struct {
	ProductID string
	Name      string
	Quantity  int
	UnitPrice decimal.Decimal
	Subtotal  decimal.Decimal
}

// Lines prices c against products, sorted by product name. Entries whose
// product is no longer listed are skipped.
func Lines(c Cart, products []catalog.Product) []Line {
	byID := make(map[string]catalog.Product, len(products))
	for _, p := range products {
		byID[p.ID] = p
	}
	lines := make([]Line, 0, len(c.Items))
	for id, qty := range c.Items {
		p, ok := byID[id]
		if !ok || qty <= 0 {
			continue
		}
		lines = append(lines, Line{
			ProductID: id,
			Name:      p.Name,
			Quantity:  qty,
			UnitPrice: p.Price,
			Subtotal:  p.Price.Mul(decimal.NewFromInt(int64(qty))),
		})
	}
	sort.Slice(lines, func(i, j int) bool { return lines[i].Name < lines[j].Name })
	return lines
}

// Total is sum(quantity * price) over the cart.
func Total(c Cart, prices map[string]decimal.Decimal) decimal.Decimal {
	total := decimal.Zero
	for id, qty := range c.Items {
		if qty <= 0 {
			continue
		}
		total = total.Add(prices[id].Mul(decimal.NewFromInt(int64(qty))))
	}
	return total
}

// Order is the checkout receipt.
type Order struct {
	OrderID string `json:"order_id"`
}

// Service talks to the cart endpoints. Every call carries the session id.
type Service struct {
	client *apiclient.Client
}

func NewService(client *apiclient.Client) *Service {
	return &Service{client: client}
}

func (s *Service) Get(ctx context.Context) (Cart, error) {
	var c Cart
	err := s.client.Do(ctx, apiclient.Request{Method: http.MethodGet, Path: Path, WithSession: true}, &c)
	if err != nil {
		return Cart{}, fmt.Errorf("get cart: %w", err)
	}
	if c.Items == nil {
		c.Items = map[string]int{}
	}
	return c, nil
}

// Add puts qty more of productID in the cart and returns the updated cart.
func (s *Service) Add(ctx context.Context, productID string, qty int) (Cart, error) {
	if qty <= 0 {
		return Cart{}, ErrInvalidQuantity
	}
	var c Cart
	body := map[string]interface{}{"product_id": productID, "quantity": qty}
	err := s.client.Do(ctx, apiclient.Request{Method: http.MethodPost, Path: Path, Body: body, WithSession: true}, &c)
	if err != nil {
		return Cart{}, fmt.Errorf("add to cart: %w", err)
	}
	return c, nil
}

func (s *Service) Clear(ctx context.Context) error {
	return s.client.Do(ctx, apiclient.Request{Method: http.MethodDelete, Path: Path, WithSession: true}, nil)
}

// Checkout places the order for the current cart. Payment is simulated by
// the backend.
func (s *Service) Checkout(ctx context.Context) (Order, error) {
	var o Order
	err := s.client.Do(ctx, apiclient.Request{Method: http.MethodPost, Path: CheckoutPath, Body: struct{}{}, WithSession: true}, &o)
	if err != nil {
		return Order{}, fmt.Errorf("checkout: %w", err)
	}
	return o, nil
}

// Summary is what the checkout screen renders.
type Summary struct {
	Cart  Cart
	Lines []Line
	Total decimal.Decimal
}

// LoadSummary fetches the cart and the catalog together and prices the cart
// once both have arrived.
func (s *Service) LoadSummary(ctx context.Context) (Summary, error) {
	var (
		c        Cart
		products []catalog.Product
	)
	err := resource.LoadAll(ctx,
		func(ctx context.Context) error {
			var err error
			c, err = s.Get(ctx)
			return err
		},
		func(ctx context.Context) error {
			return s.client.Get(ctx, catalog.ProductsPath, nil, &products)
		},
	)
	if err != nil {
		return Summary{}, err
	}
	return Summary{
		Cart:  c,
		Lines: Lines(c, products),
		Total: Total(c, catalog.Prices(products)),
	}, nil
}

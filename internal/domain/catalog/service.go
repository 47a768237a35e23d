package catalog

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/bakery/storefront/internal/platform/apiclient"
	"github.com/bakery/storefront/internal/platform/resource"
)

const (
	ProductsPath   = "/api/products"
	CategoriesPath = "/api/categories"
)

// Service backs the catalog and the product/category admin tabs.
type Service struct {
	client     *apiclient.Client
	Products   *resource.Controller[Product]
	Categories *resource.Controller[Category]
}

func NewService(client *apiclient.Client, opts ...resource.Option) *Service {
	return &Service{
		client:     client,
		Products:   resource.New[Product]("product", &resource.REST[Product]{Client: client, Path: ProductsPath}, opts...),
		Categories: resource.New[Category]("category", &resource.REST[Category]{Client: client, Path: CategoriesPath}, opts...),
	}
}

// GetProduct fetches a single product.
func (s *Service) GetProduct(ctx context.Context, id string) (*Product, error) {
	var p Product
	ep := resource.REST[Product]{Path: ProductsPath}
	if err := s.client.Get(ctx, ep.ItemPath(id), nil, &p); err != nil {
		return nil, fmt.Errorf("get product %s: %w", id, err)
	}
	return &p, nil
}

// CreateProduct validates in and creates the product, as multipart when
// images are attached.
func (s *Service) CreateProduct(ctx context.Context, in ProductInput, images []apiclient.File) error {
	if err := in.Validate(); err != nil {
		return err
	}
	for _, f := range images {
		if !f.IsImage() {
			return fmt.Errorf("%s: %w", f.Name, apiclient.ErrNotImage)
		}
	}
	if len(images) > 0 {
		return s.Products.Create(ctx, in.Multipart(images))
	}
	return s.Products.Create(ctx, in)
}

func (s *Service) UpdateProduct(ctx context.Context, id string, in ProductInput) error {
	if err := in.Validate(); err != nil {
		return err
	}
	return s.Products.Update(ctx, id, in)
}

func (s *Service) CreateCategory(ctx context.Context, in CategoryInput) error {
	if err := in.Validate(); err != nil {
		return err
	}
	return s.Categories.Create(ctx, in)
}

func (s *Service) RenameCategory(ctx context.Context, id string, in CategoryInput) error {
	if err := in.Validate(); err != nil {
		return err
	}
	return s.Categories.Update(ctx, id, in)
}

// Prices indexes product prices by id.
func Prices(products []Product) map[string]decimal.Decimal {
	out := make(map[string]decimal.Decimal, len(products))
	for _, p := range products {
		out[p.ID] = p.Price
	}
	return out
}

package inventory

import (
	"context"
	"fmt"
	"net/url"

	"github.com/bakery/storefront/internal/platform/apiclient"
	"github.com/bakery/storefront/internal/platform/resource"
)

const (
	LocationsPath = "/api/locations"
	productsPath  = "/api/products"
)

// Service backs the locations admin tab and the location stock view.
type Service struct {
	client    *apiclient.Client
	Locations *resource.Controller[Location]
}

func NewService(client *apiclient.Client, opts ...resource.Option) *Service {
	return &Service{
		client:    client,
		Locations: resource.New[Location]("location", &resource.REST[Location]{Client: client, Path: LocationsPath}, opts...),
	}
}

func (s *Service) CreateLocation(ctx context.Context, in LocationInput) error {
	if err := in.Validate(); err != nil {
		return err
	}
	return s.Locations.Create(ctx, in)
}

func (s *Service) UpdateLocation(ctx context.Context, id string, in LocationInput) error {
	if err := in.Validate(); err != nil {
		return err
	}
	return s.Locations.Update(ctx, id, in)
}

// Assignable lists the active locations, for the product form's initial
// stock inputs and the stepper.
func (s *Service) Assignable(ctx context.Context) ([]Location, error) {
	snap, err := s.Locations.List(ctx, resource.Query{})
	if err != nil {
		return nil, err
	}
	return ActiveLocations(snap.Items), nil
}

// ListByLocation returns the stock rows held at one location.
func (s *Service) ListByLocation(ctx context.Context, locationID string) ([]Row, error) {
	var rows []Row
	if err := s.client.Get(ctx, locationInventoryPath(locationID), nil, &rows); err != nil {
		return nil, fmt.Errorf("list inventory at %s: %w", locationID, err)
	}
	return rows, nil
}

// SetAtLocation writes an absolute quantity from the location side.
func (s *Service) SetAtLocation(ctx context.Context, locationID, productID string, qty int) (Row, error) {
	if qty < 0 {
		return Row{}, ErrNegativeQuantity
	}
	var row Row
	body := map[string]interface{}{"product_id": productID, "quantity": qty}
	if err := s.client.Post(ctx, locationInventoryPath(locationID), body, &row); err != nil {
		return Row{}, err
	}
	return row, nil
}

func productInventoryPath(productID string) string {
	return productsPath + "/" + url.PathEscape(productID) + "/inventory"
}

func locationInventoryPath(locationID string) string {
	return LocationsPath + "/" + url.PathEscape(locationID) + "/inventory"
}

package inventory

import (
	"errors"
	"strings"
)

var (
	ErrNameRequired     = errors.New("location name is required")
	ErrNegativeQuantity = errors.New("quantity must not be negative")
)

// Location is a store or warehouse that holds stock.
type Location struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Address  string `json:"address"`
	Phone    string `json:"phone"`
	IsActive bool   `json:"is_active"`
}

type LocationInput struct {
	Name     string `json:"name"`
	Address  string `json:"address"`
	Phone    string `json:"phone"`
	IsActive bool   `json:"is_active"`
}

func (in LocationInput) Validate() error {
	if strings.TrimSpace(in.Name) == "" {
		return ErrNameRequired
	}
	return nil
}

// Row is the stock of one product at one location.
type Row struct {
	LocationID   string `json:"location_id"`
	ProductID    string `json:"product_id"`
	Quantity     int    `json:"quantity"`
	LocationName string `json:"location_name,omitempty"`
	ProductName  string `json:"product_name,omitempty"`
}

// ActiveLocations drops inactive locations; only these may receive stock.
func ActiveLocations(all []Location) []Location {
	out := make([]Location, 0, len(all))
	for _, l := range all {
		if l.IsActive {
			out = append(out, l)
		}
	}
	return out
}

// Total sums the quantities of rows.
func Total(rows []Row) int {
	n := 0
	for _, r := range rows {
		n += r.Quantity
	}
	return n
}

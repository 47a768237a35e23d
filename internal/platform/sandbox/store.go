// Package sandbox is an in-memory stand-in for the storefront backend. It
// answers the same HTTP API so the console and the client packages can run
// and be tested without the real service.
package sandbox

import (
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"github.com/bakery/storefront/internal/domain/account"
	"github.com/bakery/storefront/internal/domain/catalog"
	"github.com/bakery/storefront/internal/domain/clinic"
	"github.com/bakery/storefront/internal/domain/inventory"
)

// Modules a tenant can switch on.
const (
	ModuleStorefront = "storefront"
	ModuleClinic     = "clinic"
)

var knownModules = map[string]bool{ModuleStorefront: true, ModuleClinic: true}

type userRecord struct {
	account.User
	passwordHash []byte
}

type order struct {
	ID        string
	SessionID string
	Items     map[string]int
	Total     decimal.Decimal
	CreatedAt time.Time
}

// tenantData is one tenant's whole state. Handlers hold mu for the length of
// a request, so multi-step writes such as a product with its initial stock
// are applied atomically.
type tenantData struct {
	mu sync.Mutex

	categories []catalog.Category
	products   []catalog.Product
	locations  []inventory.Location
	// stock[productID][locationID]
	stock map[string]map[string]int

	users  []userRecord
	carts  map[string]map[string]int
	orders []order

	clients  []clinic.Client
	patients []clinic.Patient
	records  []clinic.Record

	modules map[string]bool
}

func newTenantData() *tenantData {
	return &tenantData{
		stock:   map[string]map[string]int{},
		carts:   map[string]map[string]int{},
		modules: map[string]bool{ModuleStorefront: true},
	}
}

// Store holds every tenant, created on first use.
type Store struct {
	mu      sync.Mutex
	tenants map[string]*tenantData
}

func NewStore() *Store {
	return &Store{tenants: map[string]*tenantData{}}
}

func (s *Store) tenant(slug string) *tenantData {
	s.mu.Lock()
	defer s.mu.Unlock()
	t, ok := s.tenants[slug]
	if !ok {
		t = newTenantData()
		s.tenants[slug] = t
	}
	return t
}

// Tenants lists the slugs that have state, sorted.
func (s *Store) Tenants() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]string, 0, len(s.tenants))
	for slug := range s.tenants {
		out = append(out, slug)
	}
	sort.Strings(out)
	return out
}

// ---------------------------------------------------------------------------
// Lookups. Callers hold t.mu.
// ---------------------------------------------------------------------------

func (t *tenantData) productIndex(id string) int {
	for i := range t.products {
		if t.products[i].ID == id {
			return i
		}
	}
	return -1
}

func (t *tenantData) categoryIndex(id string) int {
	for i := range t.categories {
		if t.categories[i].ID == id {
			return i
		}
	}
	return -1
}

func (t *tenantData) categoryNamed(name string) bool {
	for _, c := range t.categories {
		if strings.EqualFold(c.Name, name) {
			return true
		}
	}
	return false
}

func (t *tenantData) locationIndex(id string) int {
	for i := range t.locations {
		if t.locations[i].ID == id {
			return i
		}
	}
	return -1
}

func (t *tenantData) userIndex(id string) int {
	for i := range t.users {
		if t.users[i].ID == id {
			return i
		}
	}
	return -1
}

func (t *tenantData) userByEmail(email string) int {
	for i := range t.users {
		if strings.EqualFold(t.users[i].Email, email) {
			return i
		}
	}
	return -1
}

func (t *tenantData) clientIndex(id string) int {
	for i := range t.clients {
		if t.clients[i].ID == id {
			return i
		}
	}
	return -1
}

func (t *tenantData) patientIndex(id string) int {
	for i := range t.patients {
		if t.patients[i].ID == id {
			return i
		}
	}
	return -1
}

func (t *tenantData) recordIndex(id string) int {
	for i := range t.records {
		if t.records[i].ID == id {
			return i
		}
	}
	return -1
}

// withStock returns p with Stock set to the sum of its rows, or to the row at
// locationID when one is given.
func (t *tenantData) withStock(p catalog.Product, locationID string) catalog.Product {
	rows := t.stock[p.ID]
	if locationID != "" {
		p.Stock = rows[locationID]
		return p
	}
	total := 0
	for _, q := range rows {
		total += q
	}
	p.Stock = total
	return p
}

func (t *tenantData) setStock(productID, locationID string, qty int) {
	rows, ok := t.stock[productID]
	if !ok {
		rows = map[string]int{}
		t.stock[productID] = rows
	}
	rows[locationID] = qty
}

// rowsForProduct lists a product's rows in location order.
func (t *tenantData) rowsForProduct(productID string) []inventory.Row {
	out := []inventory.Row{}
	rows := t.stock[productID]
	for _, l := range t.locations {
		q, ok := rows[l.ID]
		if !ok {
			continue
		}
		out = append(out, inventory.Row{LocationID: l.ID, ProductID: productID, Quantity: q, LocationName: l.Name})
	}
	return out
}

// rowsForLocation lists the rows held at a location in product order.
func (t *tenantData) rowsForLocation(locationID string) []inventory.Row {
	out := []inventory.Row{}
	for _, p := range t.products {
		q, ok := t.stock[p.ID][locationID]
		if !ok {
			continue
		}
		out = append(out, inventory.Row{LocationID: locationID, ProductID: p.ID, Quantity: q, ProductName: p.Name})
	}
	return out
}

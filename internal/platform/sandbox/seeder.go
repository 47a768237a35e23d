package sandbox

import (
	"fmt"
	"math/rand"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/shopspring/decimal"

	"github.com/bakery/storefront/internal/domain/catalog"
	"github.com/bakery/storefront/internal/domain/clinic"
	"github.com/bakery/storefront/internal/domain/inventory"
	"github.com/bakery/storefront/internal/platform/tenant"
)

// ---------------------------------------------------------------------------
// Configuration
// ---------------------------------------------------------------------------

// SeedConfig controls the volume and shape of generated demo data.
type SeedConfig struct {
	ProductsPerCategory int   `json:"productsPerCategory"`
	LocationCount       int   `json:"locationCount"`
	ClientCount         int   `json:"clientCount"`
	PatientsPerClient   int   `json:"patientsPerClient"`
	RecordsPerPatient   int   `json:"recordsPerPatient"`
	IncludeClinic       bool  `json:"includeClinic"`
	Seed                int64 `json:"seed"`
}

func DefaultSeedConfig() SeedConfig {
	return SeedConfig{
		ProductsPerCategory: 4,
		LocationCount:       3,
		ClientCount:         12,
		PatientsPerClient:   2,
		RecordsPerPatient:   3,
		IncludeClinic:       true,
	}
}

// SeedResult summarizes the output of a seed operation.
type SeedResult struct {
	Tenant     string        `json:"tenant"`
	Categories int           `json:"categories"`
	Products   int           `json:"products"`
	Locations  int           `json:"locations"`
	Clients    int           `json:"clients"`
	Patients   int           `json:"patients"`
	Records    int           `json:"records"`
	Duration   time.Duration `json:"duration"`
}

// ---------------------------------------------------------------------------
// Pools
// ---------------------------------------------------------------------------

type productDef struct {
	Name  string
	Price string
	Days  int
}

var categoryProducts = []struct {
	Category string
	Products []productDef
}{
	{"Panadería", []productDef{
		{"Pan de molde", "3.20", 0},
		{"Baguette", "1.80", 0},
		{"Pan integral", "3.90", 0},
		{"Chapata", "2.10", 0},
		{"Pan de centeno", "4.30", 1},
	}},
	{"Pastelería", []productDef{
		{"Croissant", "1.50", 0},
		{"Tarta de queso", "18.00", 2},
		{"Napolitana de chocolate", "1.70", 0},
		{"Bizcocho de limón", "9.50", 1},
		{"Palmera", "1.90", 0},
	}},
	{"Bebidas", []productDef{
		{"Café con leche", "1.60", 0},
		{"Zumo de naranja", "2.40", 0},
		{"Chocolate caliente", "2.20", 0},
	}},
}

var (
	locationNames = []string{"Obrador Central", "Tienda Centro", "Tienda Norte", "Mercado San Miguel", "Kiosko Estación"}
	streetNames   = []string{"Calle Mayor", "Avenida del Puerto", "Calle del Sol", "Paseo de la Castellana", "Calle Real"}
	firstNames    = []string{"Ana", "Luis", "María", "Javier", "Lucía", "Carlos", "Elena", "Pablo", "Sofía", "Diego"}
	lastNames     = []string{"García", "Martínez", "López", "Sánchez", "Pérez", "Gómez", "Ruiz", "Díaz", "Moreno", "Navarro"}
	petNames      = []string{"Firulais", "Michi", "Luna", "Toby", "Nala", "Rocky", "Kira", "Simba", "Coco", "Bruno"}
	species       = []string{"Perro", "Gato", "Conejo"}
)

var speciesBreeds = map[string][]string{
	"Perro":  {"Labrador", "Mestizo", "Pastor alemán", "Beagle"},
	"Gato":   {"Europeo", "Siamés", "Persa"},
	"Conejo": {"Belier", "Enano"},
}

var (
	reasons = []struct {
		Reason, Diagnosis, Treatment string
	}{
		{"Vacunación anual", "Sano", "Vacuna polivalente"},
		{"Revisión general", "Sano", "Ninguno"},
		{"Cojera", "Esguince leve", "Reposo y antiinflamatorio"},
		{"Vómitos", "Gastritis", "Dieta blanda 5 días"},
		{"Desparasitación", "Sano", "Antiparasitario interno"},
		{"Otitis", "Otitis externa", "Gotas óticas 7 días"},
	}
)

// ---------------------------------------------------------------------------
// DataGenerator
// ---------------------------------------------------------------------------

// DataGenerator produces reproducible demo records from a seeded source.
type DataGenerator struct {
	rng     *rand.Rand
	counter int
}

func NewDataGenerator(seed int64) *DataGenerator {
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	return &DataGenerator{
		rng: rand.New(rand.NewSource(seed)),
	}
}

func (g *DataGenerator) nextID(prefix string) string {
	g.counter++
	return fmt.Sprintf("%s-%08x-%04x", prefix, g.rng.Uint32(), g.counter)
}

func (g *DataGenerator) pick(pool []string) string {
	return pool[g.rng.Intn(len(pool))]
}

func (g *DataGenerator) randomDate(minYear, maxYear int) string {
	y := minYear + g.rng.Intn(maxYear-minYear+1)
	m := 1 + g.rng.Intn(12)
	d := 1 + g.rng.Intn(28)
	return fmt.Sprintf("%04d-%02d-%02d", y, m, d)
}

func (g *DataGenerator) randomPhone() string {
	return fmt.Sprintf("+34 6%02d %03d %03d", g.rng.Intn(100), g.rng.Intn(1000), g.rng.Intn(1000))
}

func (g *DataGenerator) personName() string {
	return g.pick(firstNames) + " " + g.pick(lastNames)
}

func (g *DataGenerator) Location(i int) inventory.Location {
	return inventory.Location{
		ID:       g.nextID("loc"),
		Name:     locationNames[i%len(locationNames)],
		Address:  fmt.Sprintf("%s %d", g.pick(streetNames), 1+g.rng.Intn(120)),
		Phone:    g.randomPhone(),
		IsActive: true,
	}
}

func (g *DataGenerator) Product(def productDef, category string) catalog.Product {
	return catalog.Product{
		ID:           g.nextID("prod"),
		Name:         def.Name,
		Description:  def.Name + " elaborado cada mañana.",
		Price:        decimal.RequireFromString(def.Price),
		Category:     category,
		Images:       []string{},
		DeliveryDays: def.Days,
		TaxRate:      decimal.RequireFromString("0.10"),
	}
}

func (g *DataGenerator) Client() clinic.Client {
	name := g.personName()
	return clinic.Client{
		ID:     g.nextID("cli"),
		Name:   name,
		IDCard: fmt.Sprintf("%08d%c", g.rng.Intn(100000000), 'A'+rune(g.rng.Intn(26))),
		Email:  fmt.Sprintf("cliente%d@example.com", g.counter),
		Phone:  g.randomPhone(),
	}
}

func (g *DataGenerator) Patient(clientID string) clinic.Patient {
	sp := g.pick(species)
	return clinic.Patient{
		ID:       g.nextID("pet"),
		Name:     g.pick(petNames),
		Species:  sp,
		Breed:    g.pick(speciesBreeds[sp]),
		ClientID: clientID,
	}
}

func (g *DataGenerator) Record(patientID string) clinic.Record {
	r := reasons[g.rng.Intn(len(reasons))]
	rec := clinic.Record{
		ID:        g.nextID("rec"),
		Date:      g.randomDate(2022, 2025),
		Reason:    r.Reason,
		Diagnosis: r.Diagnosis,
		Treatment: r.Treatment,
		PatientID: patientID,
	}
	// Some visits skip the scale.
	if g.rng.Intn(4) > 0 {
		rec.Weight = decimal.NewNullDecimal(decimal.New(int64(20+g.rng.Intn(400)), -1))
	}
	rec.Temperature = decimal.NewNullDecimal(decimal.New(int64(375+g.rng.Intn(20)), -1))
	return rec
}

// ---------------------------------------------------------------------------
// Seeder
// ---------------------------------------------------------------------------

// Seeder fills a tenant of a Store with demo data.
type Seeder struct {
	store  *Store
	config SeedConfig
}

func NewSeeder(store *Store, config SeedConfig) *Seeder {
	return &Seeder{store: store, config: config}
}

// Generate replaces the catalog, stock and clinic data of tenantSlug. Users
// and carts are kept so a signed-in session survives a reseed.
func (s *Seeder) Generate(tenantSlug string) (*SeedResult, error) {
	start := time.Now()
	g := NewDataGenerator(s.config.Seed)
	t := s.store.tenant(tenantSlug)

	t.mu.Lock()
	defer t.mu.Unlock()

	t.resetData()
	result := &SeedResult{Tenant: tenantSlug}

	for i := 0; i < s.config.LocationCount; i++ {
		t.locations = append(t.locations, g.Location(i))
	}
	result.Locations = len(t.locations)

	for _, cp := range categoryProducts {
		t.categories = append(t.categories, catalog.Category{ID: g.nextID("cat"), Name: cp.Category})
		for i := 0; i < s.config.ProductsPerCategory && i < len(cp.Products); i++ {
			p := g.Product(cp.Products[i], cp.Category)
			t.products = append(t.products, p)
			for _, l := range t.locations {
				t.setStock(p.ID, l.ID, g.rng.Intn(25))
			}
		}
	}
	result.Categories = len(t.categories)
	result.Products = len(t.products)

	if s.config.IncludeClinic {
		t.modules[ModuleClinic] = true
		for i := 0; i < s.config.ClientCount; i++ {
			c := g.Client()
			t.clients = append(t.clients, c)
			for j := 0; j < s.config.PatientsPerClient; j++ {
				p := g.Patient(c.ID)
				t.patients = append(t.patients, p)
				for k := 0; k < s.config.RecordsPerPatient; k++ {
					t.records = append(t.records, g.Record(p.ID))
				}
			}
		}
	}
	result.Clients = len(t.clients)
	result.Patients = len(t.patients)
	result.Records = len(t.records)

	result.Duration = time.Since(start)
	return result, nil
}

// Reset clears a tenant's catalog, stock and clinic data.
func (s *Seeder) Reset(tenantSlug string) {
	t := s.store.tenant(tenantSlug)
	t.mu.Lock()
	t.resetData()
	t.mu.Unlock()
}

func (t *tenantData) resetData() {
	t.categories = nil
	t.products = nil
	t.locations = nil
	t.stock = map[string]map[string]int{}
	t.orders = nil
	t.clients = nil
	t.patients = nil
	t.records = nil
}

// ---------------------------------------------------------------------------
// SeedHandler: echo HTTP handlers
// ---------------------------------------------------------------------------

// SeedHandler exposes seeding of the request's tenant.
type SeedHandler struct {
	store *Store
}

func NewSeedHandler(store *Store) *SeedHandler {
	return &SeedHandler{store: store}
}

// RegisterRoutes registers sandbox routes on the given Echo group.
func (h *SeedHandler) RegisterRoutes(g *echo.Group, mw ...echo.MiddlewareFunc) {
	g.POST("/seed", h.handleSeed, mw...)
	g.POST("/reset", h.handleReset, mw...)
}

func (h *SeedHandler) handleSeed(c echo.Context) error {
	cfg := DefaultSeedConfig()
	if c.Request().ContentLength > 0 {
		if err := c.Bind(&cfg); err != nil {
			return echo.NewHTTPError(http.StatusBadRequest, "invalid seed config")
		}
	}
	if cfg.ProductsPerCategory == 0 {
		cfg.ProductsPerCategory = DefaultSeedConfig().ProductsPerCategory
	}
	if cfg.LocationCount == 0 {
		cfg.LocationCount = DefaultSeedConfig().LocationCount
	}

	result, err := NewSeeder(h.store, cfg).Generate(tenant.FromContext(c.Request().Context()))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, result)
}

func (h *SeedHandler) handleReset(c echo.Context) error {
	NewSeeder(h.store, SeedConfig{}).Reset(tenant.FromContext(c.Request().Context()))
	return c.JSON(http.StatusOK, map[string]string{"status": "reset"})
}

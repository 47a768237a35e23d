package sandbox

import (
	"net/http"
	"strings"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/bakery/storefront/internal/domain/inventory"
	"github.com/bakery/storefront/internal/platform/webhook"
)

func (s *Server) handleListLocations(c echo.Context) error {
	t, unlock := s.data(c)
	defer unlock()

	out := make([]inventory.Location, len(t.locations))
	copy(out, t.locations)
	return c.JSON(http.StatusOK, out)
}

func (s *Server) handleCreateLocation(c echo.Context) error {
	var in inventory.LocationInput
	if err := c.Bind(&in); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	in.Name = strings.TrimSpace(in.Name)
	if err := in.Validate(); err != nil {
		return badRequest(err)
	}

	t, unlock := s.data(c)
	defer unlock()

	l := inventory.Location{ID: uuid.NewString(), Name: in.Name, Address: in.Address, Phone: in.Phone, IsActive: in.IsActive}
	t.locations = append(t.locations, l)
	return c.JSON(http.StatusCreated, l)
}

type locationPatch struct {
	Name     *string `json:"name"`
	Address  *string `json:"address"`
	Phone    *string `json:"phone"`
	IsActive *bool   `json:"is_active"`
}

func (s *Server) handleUpdateLocation(c echo.Context) error {
	var patch locationPatch
	if err := c.Bind(&patch); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}

	t, unlock := s.data(c)
	defer unlock()

	i := t.locationIndex(c.Param("id"))
	if i < 0 {
		return notFound("location")
	}
	l := t.locations[i]
	if patch.Name != nil {
		l.Name = strings.TrimSpace(*patch.Name)
	}
	if patch.Address != nil {
		l.Address = *patch.Address
	}
	if patch.Phone != nil {
		l.Phone = *patch.Phone
	}
	if patch.IsActive != nil {
		l.IsActive = *patch.IsActive
	}
	if err := (inventory.LocationInput{Name: l.Name}).Validate(); err != nil {
		return badRequest(err)
	}
	t.locations[i] = l
	return c.JSON(http.StatusOK, l)
}

// handleDeleteLocation drops the location with every stock row it held.
func (s *Server) handleDeleteLocation(c echo.Context) error {
	t, unlock := s.data(c)
	defer unlock()

	id := c.Param("id")
	i := t.locationIndex(id)
	if i < 0 {
		return notFound("location")
	}
	t.locations = append(t.locations[:i], t.locations[i+1:]...)
	for _, rows := range t.stock {
		delete(rows, id)
	}
	return c.NoContent(http.StatusNoContent)
}

func (s *Server) handleProductInventory(c echo.Context) error {
	t, unlock := s.data(c)
	defer unlock()

	id := c.Param("id")
	if t.productIndex(id) < 0 {
		return notFound("product")
	}
	return c.JSON(http.StatusOK, t.rowsForProduct(id))
}

func (s *Server) handleLocationInventory(c echo.Context) error {
	t, unlock := s.data(c)
	defer unlock()

	id := c.Param("id")
	if t.locationIndex(id) < 0 {
		return notFound("location")
	}
	return c.JSON(http.StatusOK, t.rowsForLocation(id))
}

type stockInput struct {
	LocationID string `json:"location_id"`
	ProductID  string `json:"product_id"`
	Quantity   int    `json:"quantity"`
}

// handleSetProductInventory sets the absolute quantity of the product at
// body.location_id.
func (s *Server) handleSetProductInventory(c echo.Context) error {
	var in stockInput
	if err := c.Bind(&in); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	in.ProductID = c.Param("id")
	return s.setStock(c, in)
}

// handleSetLocationInventory sets the absolute quantity of body.product_id at
// the location.
func (s *Server) handleSetLocationInventory(c echo.Context) error {
	var in stockInput
	if err := c.Bind(&in); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	in.LocationID = c.Param("id")
	return s.setStock(c, in)
}

func (s *Server) setStock(c echo.Context, in stockInput) error {
	if in.Quantity < 0 {
		return badRequest(inventory.ErrNegativeQuantity)
	}

	t, unlock := s.data(c)
	defer unlock()

	pi := t.productIndex(in.ProductID)
	if pi < 0 {
		return notFound("product")
	}
	li := t.locationIndex(in.LocationID)
	if li < 0 {
		return notFound("location")
	}
	if !t.locations[li].IsActive {
		return echo.NewHTTPError(http.StatusBadRequest, "location "+t.locations[li].Name+" is inactive")
	}

	t.setStock(in.ProductID, in.LocationID, in.Quantity)
	row := inventory.Row{
		LocationID:   in.LocationID,
		ProductID:    in.ProductID,
		Quantity:     in.Quantity,
		LocationName: t.locations[li].Name,
		ProductName:  t.products[pi].Name,
	}
	s.publish(c, webhook.EventStockChanged, in.ProductID, row)
	return c.JSON(http.StatusOK, row)
}

package sandbox

import (
	"net/http"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/shopspring/decimal"

	"github.com/bakery/storefront/internal/domain/cart"
	"github.com/bakery/storefront/internal/domain/catalog"
	"github.com/bakery/storefront/internal/platform/webhook"
)

func (s *Server) handleGetCart(c echo.Context) error {
	t, unlock := s.data(c)
	defer unlock()
	return c.JSON(http.StatusOK, t.cartOf(c.Request().Header.Get(SessionHeader)))
}

// handleAddToCart adds quantity to the session's line for product_id. A
// quantity that brings the line to zero or below removes it.
func (s *Server) handleAddToCart(c echo.Context) error {
	var in struct {
		ProductID string `json:"product_id"`
		Quantity  int    `json:"quantity"`
	}
	if err := c.Bind(&in); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	if in.Quantity == 0 {
		return badRequest(cart.ErrInvalidQuantity)
	}

	session := c.Request().Header.Get(SessionHeader)
	t, unlock := s.data(c)
	defer unlock()

	if t.productIndex(in.ProductID) < 0 {
		return notFound("product")
	}
	items, ok := t.carts[session]
	if !ok {
		items = map[string]int{}
		t.carts[session] = items
	}
	if q := items[in.ProductID] + in.Quantity; q > 0 {
		items[in.ProductID] = q
	} else {
		delete(items, in.ProductID)
	}
	return c.JSON(http.StatusOK, t.cartOf(session))
}

func (s *Server) handleClearCart(c echo.Context) error {
	t, unlock := s.data(c)
	defer unlock()
	delete(t.carts, c.Request().Header.Get(SessionHeader))
	return c.NoContent(http.StatusNoContent)
}

// handleCheckout turns the session cart into an order. Payment is simulated:
// every checkout of a non-empty cart succeeds. Stock is taken from the
// locations in order until the line is covered; a line larger than the
// total stock still sells and leaves the product at zero.
func (s *Server) handleCheckout(c echo.Context) error {
	session := c.Request().Header.Get(SessionHeader)
	t, unlock := s.data(c)
	defer unlock()

	items := t.carts[session]
	if len(items) == 0 {
		return badRequest(cart.ErrEmptyCart)
	}

	total := decimal.Zero
	for id, qty := range items {
		i := t.productIndex(id)
		if i < 0 {
			continue
		}
		total = total.Add(t.products[i].PriceWithTax().Mul(decimal.NewFromInt(int64(qty))))
		t.takeStock(t.products[i], qty)
	}

	o := order{
		ID:        uuid.NewString(),
		SessionID: session,
		Items:     items,
		Total:     total,
		CreatedAt: s.now(),
	}
	t.orders = append(t.orders, o)
	delete(t.carts, session)

	s.logger.Info().Str("order_id", o.ID).Str("total", total.StringFixed(2)).Msg("order placed")
	s.publish(c, webhook.EventOrderPlaced, o.ID, orderPlaced{Items: items, Total: total})
	return c.JSON(http.StatusCreated, cart.Order{OrderID: o.ID})
}

// orderPlaced is the data of an order.placed event.
type orderPlaced struct {
	Items map[string]int  `json:"items"`
	Total decimal.Decimal `json:"total"`
}

func (t *tenantData) takeStock(p catalog.Product, qty int) {
	rows := t.stock[p.ID]
	for _, l := range t.locations {
		if qty == 0 {
			return
		}
		have, ok := rows[l.ID]
		if !ok || have == 0 {
			continue
		}
		n := have
		if qty < n {
			n = qty
		}
		rows[l.ID] = have - n
		qty -= n
	}
}

func (t *tenantData) cartOf(session string) cart.Cart {
	out := cart.Cart{Items: map[string]int{}}
	for id, q := range t.carts[session] {
		out.Items[id] = q
	}
	return out
}

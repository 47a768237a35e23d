// Package webhook notifies URLs registered by a tenant about storefront
// events, such as a placed order or a stock change. Payloads are signed with
// the endpoint secret and failed deliveries are retried with backoff.
package webhook

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// Event types published by the storefront backend.
const (
	EventOrderPlaced    = "order.placed"
	EventProductCreated = "product.created"
	EventProductDeleted = "product.deleted"
	EventStockChanged   = "stock.changed"
	EventPing           = "webhook.ping"
)

// Headers set on every delivery.
const (
	SignatureHeader = "X-Storefront-Signature"
	EventHeader     = "X-Storefront-Event"
	DeliveryHeader  = "X-Storefront-Delivery"
	TimestampHeader = "X-Storefront-Timestamp"
)

var (
	ErrNotFound   = errors.New("webhook not found")
	ErrInvalidURL = errors.New("url must be an absolute http or https address")
	ErrNoEvents   = errors.New("at least one event is required")
)

type Status string

const (
	StatusActive Status = "active"
	StatusPaused Status = "paused"
)

// Endpoint is a URL subscribed to one or more event patterns. A pattern is
// an event type, "*", a prefix such as "order.*" or a suffix such as
// "*.deleted".
type Endpoint struct {
	ID        string    `json:"id"`
	Tenant    string    `json:"-"`
	URL       string    `json:"url"`
	Secret    string    `json:"secret,omitempty"`
	Events    []string  `json:"events"`
	Status    Status    `json:"status"`
	CreatedAt time.Time `json:"created_at"`
}

func (ep Endpoint) clone() Endpoint {
	ep.Events = append([]string(nil), ep.Events...)
	return ep
}

// Subscribed reports whether the endpoint wants events of type typ.
func (ep Endpoint) Subscribed(typ string) bool {
	for _, p := range ep.Events {
		if Matches(p, typ) {
			return true
		}
	}
	return false
}

// Event is the JSON body posted to subscribers.
type Event struct {
	ID        string          `json:"id"`
	Type      string          `json:"type"`
	Subject   string          `json:"subject,omitempty"`
	Data      json.RawMessage `json:"data,omitempty"`
	CreatedAt time.Time       `json:"created_at"`
}

// Delivery is the outcome of posting one event to one endpoint, retries
// included.
type Delivery struct {
	ID         string    `json:"id"`
	EndpointID string    `json:"endpoint_id"`
	EventID    string    `json:"event_id"`
	EventType  string    `json:"event_type"`
	Attempts   int       `json:"attempts"`
	StatusCode int       `json:"status_code,omitempty"`
	Succeeded  bool      `json:"succeeded"`
	Error      string    `json:"error,omitempty"`
	DurationMS int64     `json:"duration_ms"`
	CreatedAt  time.Time `json:"created_at"`
}

// Matches reports whether pattern selects the event type typ.
func Matches(pattern, typ string) bool {
	switch {
	case pattern == "*" || pattern == typ:
		return true
	case strings.HasSuffix(pattern, ".*"):
		return strings.HasPrefix(typ, strings.TrimSuffix(pattern, "*"))
	case strings.HasPrefix(pattern, "*."):
		return strings.HasSuffix(typ, strings.TrimPrefix(pattern, "*"))
	}
	return false
}

// Sign returns the hex HMAC-SHA256 of "timestamp.body" under secret.
func Sign(secret, timestamp string, body []byte) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(timestamp))
	mac.Write([]byte{'.'})
	mac.Write(body)
	return hex.EncodeToString(mac.Sum(nil))
}

// Verify checks a signature header value, with or without its "sha256="
// prefix, in constant time.
func Verify(secret, timestamp string, body []byte, signature string) bool {
	got, err := hex.DecodeString(strings.TrimPrefix(signature, "sha256="))
	if err != nil {
		return false
	}
	want, _ := hex.DecodeString(Sign(secret, timestamp, body))
	return hmac.Equal(got, want)
}

// Manager registers endpoints and delivers events to them.
type Manager struct {
	store  Store
	client *http.Client
	delays []time.Duration
	logger zerolog.Logger
	now    func() time.Time
	wg     sync.WaitGroup
}

type Option func(*Manager)

func WithHTTPClient(c *http.Client) Option {
	return func(m *Manager) { m.client = c }
}

// WithRetryDelays sets the waits between attempts; a delivery is tried
// len(delays)+1 times at most.
func WithRetryDelays(delays ...time.Duration) Option {
	return func(m *Manager) { m.delays = delays }
}

func WithLogger(l zerolog.Logger) Option {
	return func(m *Manager) { m.logger = l }
}

func WithClock(now func() time.Time) Option {
	return func(m *Manager) { m.now = now }
}

func NewManager(store Store, opts ...Option) *Manager {
	m := &Manager{
		store:  store,
		client: &http.Client{Timeout: 10 * time.Second},
		delays: []time.Duration{time.Second, 5 * time.Second, 30 * time.Second},
		logger: zerolog.Nop(),
		now:    time.Now,
	}
	for _, o := range opts {
		o(m)
	}
	return m
}

// Register subscribes rawURL to events for tenant. An empty secret is
// replaced by a random one, returned once in the result.
func (m *Manager) Register(tenant, rawURL, secret string, events []string) (Endpoint, error) {
	if err := validateURL(rawURL); err != nil {
		return Endpoint{}, err
	}
	patterns := make([]string, 0, len(events))
	for _, e := range events {
		if e = strings.TrimSpace(e); e != "" {
			patterns = append(patterns, e)
		}
	}
	if len(patterns) == 0 {
		return Endpoint{}, ErrNoEvents
	}
	if secret == "" {
		s, err := generateSecret()
		if err != nil {
			return Endpoint{}, err
		}
		secret = s
	}

	ep := Endpoint{
		ID:        uuid.NewString(),
		Tenant:    tenant,
		URL:       rawURL,
		Secret:    secret,
		Events:    patterns,
		Status:    StatusActive,
		CreatedAt: m.now(),
	}
	m.store.Put(ep)
	m.logger.Info().Str("tenant", tenant).Str("webhook_id", ep.ID).Strs("events", patterns).Msg("webhook registered")
	return ep, nil
}

// Endpoints lists the tenant's endpoints with their secrets removed.
func (m *Manager) Endpoints(tenant string) []Endpoint {
	eps := m.store.List(tenant)
	for i := range eps {
		eps[i].Secret = ""
	}
	return eps
}

func (m *Manager) Endpoint(tenant, id string) (Endpoint, error) {
	ep, err := m.store.Get(tenant, id)
	ep.Secret = ""
	return ep, err
}

func (m *Manager) Pause(tenant, id string) (Endpoint, error) {
	return m.setStatus(tenant, id, StatusPaused)
}

func (m *Manager) Resume(tenant, id string) (Endpoint, error) {
	return m.setStatus(tenant, id, StatusActive)
}

func (m *Manager) setStatus(tenant, id string, st Status) (Endpoint, error) {
	ep, err := m.store.Get(tenant, id)
	if err != nil {
		return Endpoint{}, err
	}
	ep.Status = st
	m.store.Put(ep)
	ep.Secret = ""
	return ep, nil
}

func (m *Manager) Remove(tenant, id string) error {
	return m.store.Delete(tenant, id)
}

func (m *Manager) Deliveries(tenant, id string) ([]Delivery, error) {
	return m.store.Deliveries(tenant, id)
}

// Publish posts an event to every active endpoint of tenant subscribed to
// typ. Deliveries run in the background; Wait blocks until they finish.
func (m *Manager) Publish(tenant, typ, subject string, data interface{}) {
	var targets []Endpoint
	for _, ep := range m.store.List(tenant) {
		if ep.Status == StatusActive && ep.Subscribed(typ) {
			targets = append(targets, ep)
		}
	}
	if len(targets) == 0 {
		return
	}

	ev, err := m.newEvent(typ, subject, data)
	if err != nil {
		m.logger.Error().Err(err).Str("event", typ).Msg("webhook payload")
		return
	}
	for _, ep := range targets {
		m.wg.Add(1)
		go func(ep Endpoint) {
			defer m.wg.Done()
			m.deliver(context.Background(), ep, ev, m.delays)
		}(ep)
	}
}

// Ping sends a single webhook.ping to the endpoint, paused or not, and
// returns the outcome without retrying.
func (m *Manager) Ping(ctx context.Context, tenant, id string) (Delivery, error) {
	ep, err := m.store.Get(tenant, id)
	if err != nil {
		return Delivery{}, err
	}
	ev, err := m.newEvent(EventPing, ep.ID, map[string]string{"message": "ping"})
	if err != nil {
		return Delivery{}, err
	}
	return m.deliver(ctx, ep, ev, nil), nil
}

// Wait blocks until background deliveries have finished.
func (m *Manager) Wait() { m.wg.Wait() }

func (m *Manager) newEvent(typ, subject string, data interface{}) (Event, error) {
	ev := Event{ID: uuid.NewString(), Type: typ, Subject: subject, CreatedAt: m.now()}
	if data != nil {
		raw, err := json.Marshal(data)
		if err != nil {
			return Event{}, fmt.Errorf("encode %s: %w", typ, err)
		}
		ev.Data = raw
	}
	return ev, nil
}

func (m *Manager) deliver(ctx context.Context, ep Endpoint, ev Event, delays []time.Duration) Delivery {
	d := Delivery{
		ID:         uuid.NewString(),
		EndpointID: ep.ID,
		EventID:    ev.ID,
		EventType:  ev.Type,
		CreatedAt:  m.now(),
	}
	body, err := json.Marshal(ev)
	if err != nil {
		d.Error = err.Error()
		m.store.Record(d)
		return d
	}

	start := time.Now()
	for attempt := 0; ; attempt++ {
		d.Attempts = attempt + 1
		code, err := m.send(ctx, ep, ev, body)
		d.StatusCode = code
		if err == nil {
			d.Succeeded, d.Error = true, ""
			break
		}
		d.Error = err.Error()
		if attempt >= len(delays) {
			break
		}
		t := time.NewTimer(delays[attempt])
		select {
		case <-ctx.Done():
			t.Stop()
			d.Error = ctx.Err().Error()
		case <-t.C:
			continue
		}
		break
	}
	d.DurationMS = time.Since(start).Milliseconds()
	m.store.Record(d)

	l := m.logger.Debug()
	if !d.Succeeded {
		l = m.logger.Warn().Str("error", d.Error)
	}
	l.Str("webhook_id", ep.ID).Str("event", ev.Type).Int("attempts", d.Attempts).Int("status", d.StatusCode).Msg("webhook delivery")
	return d
}

func (m *Manager) send(ctx context.Context, ep Endpoint, ev Event, body []byte) (int, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, ep.URL, bytes.NewReader(body))
	if err != nil {
		return 0, err
	}
	ts := strconv.FormatInt(m.now().Unix(), 10)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("User-Agent", "storefront-webhooks/1")
	req.Header.Set(EventHeader, ev.Type)
	req.Header.Set(DeliveryHeader, ev.ID)
	req.Header.Set(TimestampHeader, ts)
	req.Header.Set(SignatureHeader, "sha256="+Sign(ep.Secret, ts, body))

	resp, err := m.client.Do(req)
	if err != nil {
		return 0, err
	}
	defer resp.Body.Close()
	io.Copy(io.Discard, io.LimitReader(resp.Body, 1<<10))

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return resp.StatusCode, fmt.Errorf("endpoint answered %d", resp.StatusCode)
	}
	return resp.StatusCode, nil
}

func validateURL(raw string) error {
	u, err := url.Parse(raw)
	if err != nil || u.Host == "" || (u.Scheme != "http" && u.Scheme != "https") {
		return ErrInvalidURL
	}
	return nil
}

func generateSecret() (string, error) {
	b := make([]byte, 24)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("generate webhook secret: %w", err)
	}
	return "whsec_" + hex.EncodeToString(b), nil
}

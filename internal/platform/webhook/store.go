package webhook

import (
	"sort"
	"sync"
)

// maxDeliveries bounds the delivery log kept per endpoint.
const maxDeliveries = 50

// Store persists endpoints and their delivery log. Every lookup is scoped to
// a tenant; an endpoint of another tenant is reported as ErrNotFound.
type Store interface {
	Put(ep Endpoint)
	Get(tenant, id string) (Endpoint, error)
	List(tenant string) []Endpoint
	Delete(tenant, id string) error
	Record(d Delivery)
	Deliveries(tenant, id string) ([]Delivery, error)
}

// MemoryStore is a Store held in process memory.
type MemoryStore struct {
	mu         sync.RWMutex
	endpoints  map[string]Endpoint
	deliveries map[string][]Delivery
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		endpoints:  make(map[string]Endpoint),
		deliveries: make(map[string][]Delivery),
	}
}

func (s *MemoryStore) Put(ep Endpoint) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.endpoints[ep.ID] = ep.clone()
}

func (s *MemoryStore) Get(tenant, id string) (Endpoint, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	ep, ok := s.endpoints[id]
	if !ok || ep.Tenant != tenant {
		return Endpoint{}, ErrNotFound
	}
	return ep.clone(), nil
}

// List returns the tenant's endpoints, oldest first.
func (s *MemoryStore) List(tenant string) []Endpoint {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := []Endpoint{}
	for _, ep := range s.endpoints {
		if ep.Tenant == tenant {
			out = append(out, ep.clone())
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.Before(out[j].CreatedAt)
		}
		return out[i].ID < out[j].ID
	})
	return out
}

func (s *MemoryStore) Delete(tenant, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	ep, ok := s.endpoints[id]
	if !ok || ep.Tenant != tenant {
		return ErrNotFound
	}
	delete(s.endpoints, id)
	delete(s.deliveries, id)
	return nil
}

// Record appends d to its endpoint's log. Deliveries that finish after the
// endpoint was deleted are dropped.
func (s *MemoryStore) Record(d Delivery) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.endpoints[d.EndpointID]; !ok {
		return
	}
	log := append(s.deliveries[d.EndpointID], d)
	if len(log) > maxDeliveries {
		log = log[len(log)-maxDeliveries:]
	}
	s.deliveries[d.EndpointID] = log
}

// Deliveries returns the endpoint's log, newest first.
func (s *MemoryStore) Deliveries(tenant, id string) ([]Delivery, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	ep, ok := s.endpoints[id]
	if !ok || ep.Tenant != tenant {
		return nil, ErrNotFound
	}
	log := s.deliveries[id]
	out := make([]Delivery, len(log))
	for i, d := range log {
		out[len(log)-1-i] = d
	}
	return out, nil
}

package store

import (
	"sync"

	"santa-video-backend/internal/models"
)

// OrderStore is the source of truth for order state, keyed by checkout
// session ID. Reads return value copies; all mutations go through the
// store so that the request handlers and the per-order background driver
// never race on a shared record. Orders are never deleted.
type OrderStore struct {
	mu     sync.RWMutex
	orders map[string]models.Order
}

func NewOrderStore() *OrderStore {
	return &OrderStore{
		orders: make(map[string]models.Order),
	}
}

// Create registers a new order. It returns false without modifying the
// store if an order for the session already exists.
func (s *OrderStore) Create(order models.Order) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.orders[order.SessionID]; ok {
		return false
	}
	s.orders[order.SessionID] = order
	return true
}

func (s *OrderStore) Exists(sessionID string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.orders[sessionID]
	return ok
}

func (s *OrderStore) Get(sessionID string) (models.Order, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	order, ok := s.orders[sessionID]
	return order, ok
}

func (s *OrderStore) SetStatus(sessionID string, status models.Status) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if order, ok := s.orders[sessionID]; ok {
		order.Status = status
		s.orders[sessionID] = order
	}
}

// Complete marks the order terminal-successful and records the video URL.
func (s *OrderStore) Complete(sessionID, videoURL string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if order, ok := s.orders[sessionID]; ok {
		order.Status = models.StatusComplete
		order.VideoURL = videoURL
		s.orders[sessionID] = order
	}
}

// Fail marks the order terminal-failed with a human-readable description.
func (s *OrderStore) Fail(sessionID, message string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if order, ok := s.orders[sessionID]; ok {
		order.Status = models.StatusError
		order.ErrorMessage = message
		s.orders[sessionID] = order
	}
}

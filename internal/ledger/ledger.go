package ledger

import (
	"context"
	"fmt"
	"sync"

	"github.com/google/uuid"

	"github.com/josh-kwaku/payment-orchestrator/internal/domain"
)

// Store is the append-only event store behind the payment ledger. Append
// must be atomic and durable; StreamFor must return events in stable
// append order for a reference.
type Store interface {
	Append(ctx context.Context, event domain.PaymentEvent) error
	StreamFor(ctx context.Context, referenceID string) ([]domain.PaymentEvent, error)
}

// MemoryStore keeps ledgers in process memory. Used by unit tests and
// development mode.
type MemoryStore struct {
	mu      sync.RWMutex
	streams map[string][]domain.PaymentEvent
	guids   map[uuid.UUID]bool
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		streams: make(map[string][]domain.PaymentEvent),
		guids:   make(map[uuid.UUID]bool),
	}
}

func (s *MemoryStore) Append(_ context.Context, event domain.PaymentEvent) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.guids[event.GUID] {
		return fmt.Errorf("Append: %s: %w", event.GUID, domain.ErrDuplicateEvent)
	}
	s.guids[event.GUID] = true
	s.streams[event.ReferenceID] = append(s.streams[event.ReferenceID], event)
	return nil
}

func (s *MemoryStore) StreamFor(_ context.Context, referenceID string) ([]domain.PaymentEvent, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	stream := s.streams[referenceID]
	out := make([]domain.PaymentEvent, len(stream))
	copy(out, stream)
	return out, nil
}

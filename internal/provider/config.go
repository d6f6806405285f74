package provider

import (
	"context"
	"fmt"
	"sync"

	"github.com/google/uuid"

	"github.com/josh-kwaku/payment-orchestrator/internal/domain"
)

// Config is a persisted payment provider configuration: which plugin to
// use and the merchant-specific settings to call it with.
type Config struct {
	GUID     uuid.UUID
	PluginID string
	Name     string
	Data     map[string]string
}

type ConfigStore interface {
	FindByGUID(ctx context.Context, guid uuid.UUID) (*Config, error)
}

type MemoryConfigStore struct {
	mu      sync.RWMutex
	configs map[uuid.UUID]Config
}

func NewMemoryConfigStore() *MemoryConfigStore {
	return &MemoryConfigStore{configs: make(map[uuid.UUID]Config)}
}

func (s *MemoryConfigStore) Save(cfg Config) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.configs[cfg.GUID] = cfg
}

func (s *MemoryConfigStore) FindByGUID(_ context.Context, guid uuid.UUID) (*Config, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	cfg, ok := s.configs[guid]
	if !ok {
		return nil, fmt.Errorf("FindByGUID: %s: %w", guid, domain.ErrNotFound)
	}
	return &cfg, nil
}

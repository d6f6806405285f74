package provider

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/josh-kwaku/payment-orchestrator/internal/domain"
)

// PostgresConfigStore reads provider configurations from the
// payment_provider_configs table.
type PostgresConfigStore struct {
	db *sql.DB
}

func NewPostgresConfigStore(db *sql.DB) *PostgresConfigStore {
	return &PostgresConfigStore{db: db}
}

func (s *PostgresConfigStore) FindByGUID(ctx context.Context, guid uuid.UUID) (*Config, error) {
	var (
		cfg  Config
		data []byte
	)
	err := s.db.QueryRowContext(ctx,
		`SELECT guid, plugin_id, name, data FROM payment_provider_configs WHERE guid = $1`, guid,
	).Scan(&cfg.GUID, &cfg.PluginID, &cfg.Name, &data)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("FindByGUID: %s: %w", guid, domain.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("FindByGUID: %w", err)
	}

	if err := json.Unmarshal(data, &cfg.Data); err != nil {
		return nil, fmt.Errorf("FindByGUID: unmarshal data: %w", err)
	}
	return &cfg, nil
}

func (s *PostgresConfigStore) Save(ctx context.Context, cfg Config) error {
	data, err := json.Marshal(cfg.Data)
	if err != nil {
		return fmt.Errorf("Save: marshal data: %w", err)
	}
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO payment_provider_configs (guid, plugin_id, name, data)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (guid) DO UPDATE SET plugin_id = $2, name = $3, data = $4`,
		cfg.GUID, cfg.PluginID, cfg.Name, data,
	)
	if err != nil {
		return fmt.Errorf("Save: %w", err)
	}
	return nil
}

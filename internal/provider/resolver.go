package provider

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/josh-kwaku/payment-orchestrator/internal/domain"
)

// Resolver turns a configuration guid into a callable Provider. Missing
// configuration or an unregistered plugin id is a fatal wiring error,
// never recorded in the ledger.
type Resolver struct {
	configs ConfigStore
	plugins map[string]Plugin
}

func NewResolver(configs ConfigStore, plugins ...Plugin) *Resolver {
	registry := make(map[string]Plugin, len(plugins))
	for _, p := range plugins {
		registry[p.ID()] = p
	}
	return &Resolver{configs: configs, plugins: registry}
}

func (r *Resolver) Resolve(ctx context.Context, configGUID uuid.UUID) (*Provider, error) {
	cfg, err := r.configs.FindByGUID(ctx, configGUID)
	if err != nil {
		return nil, fmt.Errorf("Resolve: %s: %w", configGUID, domain.ErrProviderConfigNotFound)
	}

	plugin, ok := r.plugins[cfg.PluginID]
	if !ok {
		return nil, fmt.Errorf("Resolve: plugin %q: %w", cfg.PluginID, domain.ErrPluginNotRegistered)
	}

	return &Provider{Config: cfg, plugin: plugin}, nil
}

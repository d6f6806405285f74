package testutil

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/josh-kwaku/payment-orchestrator/internal/domain"
	"github.com/josh-kwaku/payment-orchestrator/internal/history"
	"github.com/josh-kwaku/payment-orchestrator/internal/ledger"
	"github.com/josh-kwaku/payment-orchestrator/internal/processor"
	"github.com/josh-kwaku/payment-orchestrator/internal/provider"
	"github.com/josh-kwaku/payment-orchestrator/internal/provider/simulator"
)

// Env is a fully wired in-memory payment core: memory ledger, memory
// config store, and the simulator plugin registered under
// SimulatorConfigGUID. Extra plugins passed to NewEnv are registered
// alongside it; use AddConfig to mint a configuration for them.
type Env struct {
	Deps       processor.Deps
	Ledger     *ledger.MemoryStore
	Configs    *provider.MemoryConfigStore
	ConfigGUID uuid.UUID
	Instrument domain.Instrument
}

func NewEnv(t *testing.T, extra ...provider.Plugin) *Env {
	t.Helper()

	store := ledger.NewMemoryStore()
	configs := provider.NewMemoryConfigStore()

	plugins := append([]provider.Plugin{simulator.New()}, extra...)
	resolver := provider.NewResolver(configs, plugins...)

	configGUID := uuid.New()
	configs.Save(provider.Config{
		GUID:     configGUID,
		PluginID: simulator.PluginID,
		Name:     "simulator",
		Data:     map[string]string{"merchant_id": "test-merchant"},
	})

	env := &Env{
		Deps: processor.Deps{
			Resolver:    resolver,
			Ledger:      store,
			History:     history.NewService(store),
			CallTimeout: 5 * time.Second,
		},
		Ledger:     store,
		Configs:    configs,
		ConfigGUID: configGUID,
	}
	env.Instrument = env.NewInstrument(nil)
	return env
}

// AddConfig registers a configuration for the given plugin id and
// returns its guid.
func (e *Env) AddConfig(pluginID string) uuid.UUID {
	guid := uuid.New()
	e.Configs.Save(provider.Config{
		GUID:     guid,
		PluginID: pluginID,
		Name:     pluginID,
		Data:     map[string]string{},
	})
	return guid
}

// NewInstrument mints an instrument bound to the simulator config. Data
// controls simulator behavior, e.g. {"simulate": "decline"}.
func (e *Env) NewInstrument(data map[string]string) domain.Instrument {
	return domain.Instrument{
		GUID:               uuid.New(),
		Name:               "test instrument",
		ProviderConfigGUID: e.ConfigGUID,
		Data:               data,
	}
}

// InstrumentFor mints an instrument bound to an arbitrary config.
func (e *Env) InstrumentFor(configGUID uuid.UUID, data map[string]string) domain.Instrument {
	return domain.Instrument{
		GUID:               uuid.New(),
		Name:               "test instrument",
		ProviderConfigGUID: configGUID,
		Data:               data,
	}
}

func USD(t *testing.T, amount string) domain.MoneyValue {
	t.Helper()
	return domain.NewMoney(decimal.RequireFromString(amount), domain.CurrencyUSD)
}

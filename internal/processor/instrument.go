package processor

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/josh-kwaku/payment-orchestrator/internal/domain"
	"github.com/josh-kwaku/payment-orchestrator/internal/logging"
	"github.com/josh-kwaku/payment-orchestrator/internal/provider"
)

// CreateInstrumentRequest drives one step of the instrument creation
// wizard. Form carries the fields collected so far.
type CreateInstrumentRequest struct {
	ConfigGUID uuid.UUID
	Form       map[string]string
	CustomData map[string]string
}

// InstrumentCreationProcessor runs the payment instrument creation
// wizard against a provider: discover the instruction fields, fetch
// instructions, discover the creation fields, then create.
type InstrumentCreationProcessor struct {
	deps Deps
}

func NewInstrumentCreationProcessor(deps Deps) *InstrumentCreationProcessor {
	return &InstrumentCreationProcessor{deps: deps}
}

func (p *InstrumentCreationProcessor) InstructionFields(ctx context.Context, req CreateInstrumentRequest) (*provider.FieldSchema, error) {
	creator, prov, err := p.creator(ctx, req.ConfigGUID)
	if err != nil {
		return nil, fmt.Errorf("InstructionFields: %w", err)
	}

	callCtx, cancel := p.deps.callCtx(ctx)
	defer cancel()
	schema, err := creator.InstructionFields(callCtx, creationRequest(prov, req))
	if err != nil {
		return nil, fmt.Errorf("InstructionFields: %w", err)
	}
	return schema, nil
}

func (p *InstrumentCreationProcessor) Instructions(ctx context.Context, req CreateInstrumentRequest) (*provider.Instructions, error) {
	creator, prov, err := p.creator(ctx, req.ConfigGUID)
	if err != nil {
		return nil, fmt.Errorf("Instructions: %w", err)
	}

	callCtx, cancel := p.deps.callCtx(ctx)
	defer cancel()
	instructions, err := creator.Instructions(callCtx, creationRequest(prov, req))
	if err != nil {
		return nil, fmt.Errorf("Instructions: %w", err)
	}
	return instructions, nil
}

func (p *InstrumentCreationProcessor) CreationFields(ctx context.Context, req CreateInstrumentRequest) (*provider.FieldSchema, error) {
	creator, prov, err := p.creator(ctx, req.ConfigGUID)
	if err != nil {
		return nil, fmt.Errorf("CreationFields: %w", err)
	}

	callCtx, cancel := p.deps.callCtx(ctx)
	defer cancel()
	schema, err := creator.CreationFields(callCtx, creationRequest(prov, req))
	if err != nil {
		return nil, fmt.Errorf("CreationFields: %w", err)
	}
	return schema, nil
}

// CreateInstrument finalizes the wizard and returns the instrument the
// provider tokenized, bound to the configuration it was created under.
func (p *InstrumentCreationProcessor) CreateInstrument(ctx context.Context, req CreateInstrumentRequest) (*domain.Instrument, error) {
	creator, prov, err := p.creator(ctx, req.ConfigGUID)
	if err != nil {
		return nil, fmt.Errorf("CreateInstrument: %w", err)
	}

	callCtx, cancel := p.deps.callCtx(ctx)
	defer cancel()
	resp, err := creator.CreateInstrument(callCtx, creationRequest(prov, req))
	if err != nil {
		return nil, fmt.Errorf("CreateInstrument: %w", err)
	}

	instrument := &domain.Instrument{
		GUID:               uuid.New(),
		Name:               resp.Name,
		ProviderConfigGUID: req.ConfigGUID,
		Data:               resp.Details,
	}
	logging.FromContext(ctx).Info("payment instrument created",
		"instrument_guid", instrument.GUID.String(),
		"provider_config_guid", req.ConfigGUID.String(),
	)
	return instrument, nil
}

func (p *InstrumentCreationProcessor) creator(ctx context.Context, configGUID uuid.UUID) (provider.InstrumentCreator, *provider.Provider, error) {
	prov, err := p.deps.Resolver.Resolve(ctx, configGUID)
	if err != nil {
		return nil, nil, err
	}
	creator, ok := prov.InstrumentCreator()
	if !ok {
		return nil, nil, fmt.Errorf("plugin %q cannot create instruments: %w",
			prov.Config.PluginID, domain.ErrCapabilityUnsupported)
	}
	return creator, prov, nil
}

func creationRequest(prov *provider.Provider, req CreateInstrumentRequest) provider.InstrumentCreationRequest {
	return provider.InstrumentCreationRequest{
		ConfigData: prov.Config.Data,
		Form:       req.Form,
		CustomData: req.CustomData,
	}
}

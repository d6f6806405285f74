package processor_test

import (
	"context"

	"github.com/josh-kwaku/payment-orchestrator/internal/provider"
)

// barePlugin advertises no capabilities at all.
type barePlugin struct{ id string }

func (p *barePlugin) ID() string { return p.id }

// reserveOnlyPlugin can place holds and nothing else.
type reserveOnlyPlugin struct{ id string }

func (p *reserveOnlyPlugin) ID() string { return p.id }

func (p *reserveOnlyPlugin) Reserve(_ context.Context, _ provider.CapabilityRequest) (*provider.CapabilityResponse, error) {
	return &provider.CapabilityResponse{Data: map[string]string{"hold_ref": "h-1"}}, nil
}

// noModifyPlugin supports everything except native modify and native
// charge reversal, forcing the simulated fallbacks.
type noModifyPlugin struct{ id string }

func (p *noModifyPlugin) ID() string { return p.id }

func (p *noModifyPlugin) Reserve(_ context.Context, _ provider.CapabilityRequest) (*provider.CapabilityResponse, error) {
	return &provider.CapabilityResponse{Data: map[string]string{"hold_ref": "h-1"}}, nil
}

func (p *noModifyPlugin) CancelReservation(_ context.Context, _ provider.CapabilityRequest) (*provider.CapabilityResponse, error) {
	return &provider.CapabilityResponse{Data: map[string]string{"cancel_ref": "c-1"}}, nil
}

func (p *noModifyPlugin) Charge(_ context.Context, _ provider.CapabilityRequest) (*provider.CapabilityResponse, error) {
	return &provider.CapabilityResponse{Data: map[string]string{"charge_ref": "ch-1"}}, nil
}

func (p *noModifyPlugin) Credit(_ context.Context, _ provider.CapabilityRequest) (*provider.CapabilityResponse, error) {
	return &provider.CapabilityResponse{Data: map[string]string{"credit_ref": "cr-1"}}, nil
}

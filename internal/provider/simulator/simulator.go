// Package simulator is an in-process gateway plugin with deterministic
// outcomes, used in development mode and by the test suite. Failure
// injection is driven by the instrument's "simulate" data key.
package simulator

import (
	"context"

	"github.com/google/uuid"

	"github.com/josh-kwaku/payment-orchestrator/internal/provider"
)

const PluginID = "simulator"

const (
	SimulateDecline = "decline"
	SimulateTimeout = "timeout"
)

type Plugin struct{}

func New() *Plugin {
	return &Plugin{}
}

func (p *Plugin) ID() string {
	return PluginID
}

func (p *Plugin) Reserve(_ context.Context, req provider.CapabilityRequest) (*provider.CapabilityResponse, error) {
	return outcome(req, "reserve")
}

func (p *Plugin) ModifyReservation(_ context.Context, req provider.CapabilityRequest) (*provider.CapabilityResponse, error) {
	return outcome(req, "modify")
}

func (p *Plugin) CancelReservation(_ context.Context, req provider.CapabilityRequest) (*provider.CapabilityResponse, error) {
	return outcome(req, "cancel")
}

func (p *Plugin) Charge(_ context.Context, req provider.CapabilityRequest) (*provider.CapabilityResponse, error) {
	return outcome(req, "charge")
}

func (p *Plugin) Credit(_ context.Context, req provider.CapabilityRequest) (*provider.CapabilityResponse, error) {
	return outcome(req, "credit")
}

func (p *Plugin) ReverseCharge(_ context.Context, req provider.CapabilityRequest) (*provider.CapabilityResponse, error) {
	return outcome(req, "reverse_charge")
}

func outcome(req provider.CapabilityRequest, operation string) (*provider.CapabilityResponse, error) {
	switch req.InstrumentData["simulate"] {
	case SimulateDecline:
		return nil, &provider.CapabilityError{
			InternalMessage: "simulator declined " + operation,
			ExternalMessage: "The payment was declined.",
			Temporary:       false,
		}
	case SimulateTimeout:
		return nil, &provider.CapabilityError{
			InternalMessage: "simulator timed out on " + operation,
			ExternalMessage: "The payment provider did not respond, please retry.",
			Temporary:       true,
		}
	default:
		return &provider.CapabilityResponse{
			Data: map[string]string{
				"simulator_ref": uuid.New().String(),
				"operation":     operation,
			},
		}, nil
	}
}

func (p *Plugin) InstructionFields(_ context.Context, _ provider.InstrumentCreationRequest) (*provider.FieldSchema, error) {
	return &provider.FieldSchema{Fields: []string{"email"}}, nil
}

func (p *Plugin) Instructions(_ context.Context, req provider.InstrumentCreationRequest) (*provider.Instructions, error) {
	return &provider.Instructions{
		Communication: map[string]string{"redirect_url": "https://simulator.invalid/verify"},
		Payload:       req.Form,
	}, nil
}

func (p *Plugin) CreationFields(_ context.Context, _ provider.InstrumentCreationRequest) (*provider.FieldSchema, error) {
	return &provider.FieldSchema{
		Fields:   []string{"card_number", "expiry", "holder_name"},
		Saveable: true,
	}, nil
}

func (p *Plugin) CreateInstrument(_ context.Context, req provider.InstrumentCreationRequest) (*provider.CreateInstrumentResponse, error) {
	details := map[string]string{"token": uuid.New().String()}
	if holder, ok := req.Form["holder_name"]; ok {
		details["holder_name"] = holder
	}
	return &provider.CreateInstrumentResponse{
		Name:    "Simulated card",
		Details: details,
	}, nil
}

// Package provider defines the capability-based contract between the
// payment core and gateway plugins, and resolves persisted provider
// configurations to callable providers.
package provider

import (
	"context"

	"github.com/josh-kwaku/payment-orchestrator/internal/domain"
)

// Plugin is a payment gateway implementation. Optional operations are
// modeled as optional interfaces: a plugin advertises a capability by
// implementing it.
type Plugin interface {
	ID() string
}

// CapabilityRequest carries everything a plugin needs for one call.
// ReservationData is the event data of the upstream event being acted on
// (e.g. the reservation a charge draws down).
type CapabilityRequest struct {
	ReferenceID     string
	Amount          domain.MoneyValue
	InstrumentData  map[string]string
	ReservationData map[string]string
	ConfigData      map[string]string
	CustomData      map[string]string
}

type CapabilityResponse struct {
	Data map[string]string
}

// CapabilityError is a failed provider outcome. Temporary failures are
// safe to retry at the logical-operation level; terminal ones need
// manual intervention.
type CapabilityError struct {
	InternalMessage string
	ExternalMessage string
	Temporary       bool
}

func (e *CapabilityError) Error() string {
	return e.InternalMessage
}

type Reserver interface {
	Reserve(ctx context.Context, req CapabilityRequest) (*CapabilityResponse, error)
}

type Modifier interface {
	ModifyReservation(ctx context.Context, req CapabilityRequest) (*CapabilityResponse, error)
}

type Canceler interface {
	CancelReservation(ctx context.Context, req CapabilityRequest) (*CapabilityResponse, error)
}

type Charger interface {
	Charge(ctx context.Context, req CapabilityRequest) (*CapabilityResponse, error)
}

type Crediter interface {
	Credit(ctx context.Context, req CapabilityRequest) (*CapabilityResponse, error)
}

type ChargeReverser interface {
	ReverseCharge(ctx context.Context, req CapabilityRequest) (*CapabilityResponse, error)
}

// FieldSchema declares the fields a plugin wants the caller to collect
// during an instrument creation step.
type FieldSchema struct {
	Fields   []string
	Saveable bool
}

// Instructions is the outcome of the instruction step of instrument
// creation, e.g. a redirect URL for a 3DS-like flow.
type Instructions struct {
	Communication map[string]string
	Payload       map[string]string
}

type CreateInstrumentResponse struct {
	Name    string
	Details map[string]string
}

type InstrumentCreationRequest struct {
	ConfigData map[string]string
	Form       map[string]string
	CustomData map[string]string
}

type InstrumentCreator interface {
	InstructionFields(ctx context.Context, req InstrumentCreationRequest) (*FieldSchema, error)
	Instructions(ctx context.Context, req InstrumentCreationRequest) (*Instructions, error)
	CreationFields(ctx context.Context, req InstrumentCreationRequest) (*FieldSchema, error)
	CreateInstrument(ctx context.Context, req InstrumentCreationRequest) (*CreateInstrumentResponse, error)
}

// Provider pairs a persisted configuration with its registered plugin.
type Provider struct {
	Config *Config
	plugin Plugin
}

func (p *Provider) Reserver() (Reserver, bool) {
	c, ok := p.plugin.(Reserver)
	return c, ok
}

func (p *Provider) Modifier() (Modifier, bool) {
	c, ok := p.plugin.(Modifier)
	return c, ok
}

func (p *Provider) Canceler() (Canceler, bool) {
	c, ok := p.plugin.(Canceler)
	return c, ok
}

func (p *Provider) Charger() (Charger, bool) {
	c, ok := p.plugin.(Charger)
	return c, ok
}

func (p *Provider) Crediter() (Crediter, bool) {
	c, ok := p.plugin.(Crediter)
	return c, ok
}

func (p *Provider) ChargeReverser() (ChargeReverser, bool) {
	c, ok := p.plugin.(ChargeReverser)
	return c, ok
}

func (p *Provider) InstrumentCreator() (InstrumentCreator, bool) {
	c, ok := p.plugin.(InstrumentCreator)
	return c, ok
}

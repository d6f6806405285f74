package processor

import (
	"context"
	"fmt"

	"github.com/josh-kwaku/payment-orchestrator/internal/domain"
	"github.com/josh-kwaku/payment-orchestrator/internal/logging"
	"github.com/josh-kwaku/payment-orchestrator/internal/provider"
)

// simulatedModifyKey marks a reservation that exists only to replace
// another one at a new amount, for providers without native modify.
const simulatedModifyKey = "simulated_modify"

type ReserveRequest struct {
	ReferenceID string
	Amount      domain.MoneyValue
	Instrument  domain.Instrument
	CustomData  map[string]string
}

// ReservationProcessor places holds on payment instruments.
type ReservationProcessor struct {
	deps Deps
}

func NewReservationProcessor(deps Deps) *ReservationProcessor {
	return &ReservationProcessor{deps: deps}
}

// Reserve places a hold for the requested amount and records the
// outcome. A declined or timed-out provider call yields a FAILED event,
// not an error.
func (p *ReservationProcessor) Reserve(ctx context.Context, req ReserveRequest) (*Response, error) {
	return p.reserve(ctx, req, false)
}

// ReserveToSimulateModify places the replacement hold of a simulated
// modification. The event is marked so the history fold and operators
// can tell it apart from a caller-initiated reservation.
func (p *ReservationProcessor) ReserveToSimulateModify(ctx context.Context, req ReserveRequest) (*Response, error) {
	return p.reserve(ctx, req, true)
}

func (p *ReservationProcessor) reserve(ctx context.Context, req ReserveRequest, simulatedModify bool) (*Response, error) {
	if err := validateAmount(req.Amount); err != nil {
		return nil, fmt.Errorf("Reserve: %w", err)
	}

	stream, err := p.deps.Ledger.StreamFor(ctx, req.ReferenceID)
	if err != nil {
		return nil, fmt.Errorf("Reserve: %w", err)
	}
	if err := checkStreamCurrency(stream, req.Amount); err != nil {
		return nil, fmt.Errorf("Reserve: %w", err)
	}

	prov, err := p.deps.Resolver.Resolve(ctx, req.Instrument.ProviderConfigGUID)
	if err != nil {
		return nil, fmt.Errorf("Reserve: %w", err)
	}
	reserver, ok := prov.Reserver()
	if !ok {
		return nil, fmt.Errorf("Reserve: plugin %q cannot reserve: %w",
			prov.Config.PluginID, domain.ErrCapabilityUnsupported)
	}

	callCtx, cancel := p.deps.callCtx(ctx)
	resp, callErr := reserver.Reserve(callCtx, provider.CapabilityRequest{
		ReferenceID:    req.ReferenceID,
		Amount:         req.Amount,
		InstrumentData: req.Instrument.Data,
		ConfigData:     prov.Config.Data,
		CustomData:     req.CustomData,
	})
	cancel()

	builder := domain.NewEventBuilder().
		WithReferenceID(req.ReferenceID).
		WithPaymentType(domain.PaymentTypeReserve).
		WithAmount(req.Amount).
		WithInstrument(req.Instrument)

	if callErr != nil {
		logProviderFailure(ctx, "reserve", req.ReferenceID, callErr)
		internalMsg, externalMsg, temporary := failureDetails(callErr)
		builder = builder.
			WithPaymentStatus(domain.PaymentStatusFailed).
			WithInternalMessage(internalMsg).
			WithExternalMessage(externalMsg).
			WithTemporaryFailure(temporary).
			WithData(eventData(nil, req.CustomData))
	} else {
		data := eventData(resp.Data, req.CustomData)
		if simulatedModify {
			data[simulatedModifyKey] = "true"
		}
		builder = builder.
			WithPaymentStatus(domain.PaymentStatusApproved).
			WithData(data)
	}

	event, err := builder.Build()
	if err != nil {
		return nil, fmt.Errorf("Reserve: %w", err)
	}
	if err := p.deps.append(ctx, event); err != nil {
		return nil, fmt.Errorf("Reserve: %w", err)
	}

	logging.FromContext(ctx).Info("reservation recorded", logging.Event(event))
	return &Response{Events: []domain.PaymentEvent{event}}, nil
}

package processor

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/josh-kwaku/payment-orchestrator/internal/domain"
	"github.com/josh-kwaku/payment-orchestrator/internal/history"
	"github.com/josh-kwaku/payment-orchestrator/internal/logging"
	"github.com/josh-kwaku/payment-orchestrator/internal/provider"
)

type CancelRequest struct {
	ReferenceID     string
	ReservationGUID uuid.UUID
	CustomData      map[string]string
}

// CancelReservationProcessor releases holds. A provider without a cancel
// capability gets a SKIPPED event: the hold is released in the ledger
// and expires on the provider side on its own.
type CancelReservationProcessor struct {
	deps Deps
}

func NewCancelReservationProcessor(deps Deps) *CancelReservationProcessor {
	return &CancelReservationProcessor{deps: deps}
}

// CancelReservation releases the single open reservation identified by
// ReservationGUID.
func (p *CancelReservationProcessor) CancelReservation(ctx context.Context, req CancelRequest) (*Response, error) {
	stream, err := p.deps.Ledger.StreamFor(ctx, req.ReferenceID)
	if err != nil {
		return nil, fmt.Errorf("CancelReservation: %w", err)
	}
	open, err := p.deps.History.ChargeableEvents(stream)
	if err != nil {
		return nil, fmt.Errorf("CancelReservation: %w", err)
	}

	for _, ce := range open {
		if ce.Event.GUID == req.ReservationGUID {
			event, err := p.cancelOne(ctx, ce, req.CustomData)
			if err != nil {
				return nil, fmt.Errorf("CancelReservation: %w", err)
			}
			return &Response{Events: []domain.PaymentEvent{event}}, nil
		}
	}
	return nil, fmt.Errorf("CancelReservation: %s: %w", req.ReservationGUID, domain.ErrReservationNotOpen)
}

// CancelAllReservations releases every open hold of the reference. One
// reservation failing to cancel does not stop the rest.
func (p *CancelReservationProcessor) CancelAllReservations(ctx context.Context, referenceID string, customData map[string]string) (*Response, error) {
	stream, err := p.deps.Ledger.StreamFor(ctx, referenceID)
	if err != nil {
		return nil, fmt.Errorf("CancelAllReservations: %w", err)
	}
	open, err := p.deps.History.ChargeableEvents(stream)
	if err != nil {
		return nil, fmt.Errorf("CancelAllReservations: %w", err)
	}

	resp := &Response{}
	for _, ce := range open {
		event, err := p.cancelOne(ctx, ce, customData)
		if err != nil {
			return nil, fmt.Errorf("CancelAllReservations: %w", err)
		}
		resp.Events = append(resp.Events, event)
	}
	return resp, nil
}

func (p *CancelReservationProcessor) cancelOne(ctx context.Context, ce history.ChargeableEvent, customData map[string]string) (domain.PaymentEvent, error) {
	if ce.Event.Instrument == nil {
		return domain.PaymentEvent{}, fmt.Errorf("cancelOne: reservation %s has no instrument: %w",
			ce.Event.GUID, domain.ErrInvalidRequest)
	}

	prov, err := p.deps.Resolver.Resolve(ctx, ce.Event.Instrument.ProviderConfigGUID)
	if err != nil {
		return domain.PaymentEvent{}, fmt.Errorf("cancelOne: %w", err)
	}

	builder := domain.NewEventBuilder().
		WithReferenceID(ce.Event.ReferenceID).
		WithParentGUID(ce.Event.GUID).
		WithPaymentType(domain.PaymentTypeCancelReserve).
		WithAmount(ce.Available).
		WithInstrument(*ce.Event.Instrument).
		WithOriginalInstrument(true)

	canceler, ok := prov.Canceler()
	if !ok {
		// hold expires provider-side on its own
		builder = builder.
			WithPaymentStatus(domain.PaymentStatusSkipped).
			WithInternalMessage(fmt.Sprintf("plugin %q has no cancel capability", prov.Config.PluginID)).
			WithData(eventData(nil, customData))
		return p.record(ctx, builder)
	}

	callCtx, cancel := p.deps.callCtx(ctx)
	callResp, callErr := canceler.CancelReservation(callCtx, provider.CapabilityRequest{
		ReferenceID:     ce.Event.ReferenceID,
		Amount:          ce.Available,
		InstrumentData:  ce.Event.Instrument.Data,
		ReservationData: ce.Event.Data,
		ConfigData:      prov.Config.Data,
		CustomData:      customData,
	})
	cancel()

	if callErr != nil {
		logProviderFailure(ctx, "cancel_reservation", ce.Event.ReferenceID, callErr)
		internalMsg, externalMsg, temporary := failureDetails(callErr)
		builder = builder.
			WithPaymentStatus(domain.PaymentStatusFailed).
			WithInternalMessage(internalMsg).
			WithExternalMessage(externalMsg).
			WithTemporaryFailure(temporary).
			WithData(eventData(nil, customData))
	} else {
		builder = builder.
			WithPaymentStatus(domain.PaymentStatusApproved).
			WithData(eventData(callResp.Data, customData))
	}
	return p.record(ctx, builder)
}

func (p *CancelReservationProcessor) record(ctx context.Context, builder *domain.EventBuilder) (domain.PaymentEvent, error) {
	event, err := builder.Build()
	if err != nil {
		return domain.PaymentEvent{}, fmt.Errorf("record: %w", err)
	}
	if err := p.deps.append(ctx, event); err != nil {
		return domain.PaymentEvent{}, fmt.Errorf("record: %w", err)
	}
	logging.FromContext(ctx).Info("reservation cancel recorded", logging.Event(event))
	return event, nil
}

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

type ModifyRequest struct {
	ReferenceID     string
	ReservationGUID uuid.UUID
	Amount          domain.MoneyValue
	CustomData      map[string]string
}

// ModifyReservationProcessor changes the amount of an open reservation.
// Providers with a native modify capability get a single MODIFY_RESERVE
// event; for the rest the modification is simulated with a replacement
// reservation followed by a cancel of the original.
type ModifyReservationProcessor struct {
	deps        Deps
	reservation *ReservationProcessor
	cancel      *CancelReservationProcessor
}

func NewModifyReservationProcessor(deps Deps, reservation *ReservationProcessor, cancel *CancelReservationProcessor) *ModifyReservationProcessor {
	return &ModifyReservationProcessor{deps: deps, reservation: reservation, cancel: cancel}
}

func (p *ModifyReservationProcessor) ModifyReservation(ctx context.Context, req ModifyRequest) (*Response, error) {
	if err := validateAmount(req.Amount); err != nil {
		return nil, fmt.Errorf("ModifyReservation: %w", err)
	}

	stream, err := p.deps.Ledger.StreamFor(ctx, req.ReferenceID)
	if err != nil {
		return nil, fmt.Errorf("ModifyReservation: %w", err)
	}
	if err := checkStreamCurrency(stream, req.Amount); err != nil {
		return nil, fmt.Errorf("ModifyReservation: %w", err)
	}

	open, err := p.deps.History.ChargeableEvents(stream)
	if err != nil {
		return nil, fmt.Errorf("ModifyReservation: %w", err)
	}
	var target *history.ChargeableEvent
	for i := range open {
		if open[i].Event.GUID == req.ReservationGUID {
			target = &open[i]
			break
		}
	}
	if target == nil {
		return nil, fmt.Errorf("ModifyReservation: %s: %w", req.ReservationGUID, domain.ErrReservationNotOpen)
	}
	if target.Event.Instrument == nil {
		return nil, fmt.Errorf("ModifyReservation: reservation %s has no instrument: %w",
			target.Event.GUID, domain.ErrInvalidRequest)
	}

	prov, err := p.deps.Resolver.Resolve(ctx, target.Event.Instrument.ProviderConfigGUID)
	if err != nil {
		return nil, fmt.Errorf("ModifyReservation: %w", err)
	}

	if modifier, ok := prov.Modifier(); ok {
		return p.modifyNative(ctx, req, *target, prov, modifier)
	}
	return p.modifySimulated(ctx, req, *target)
}

func (p *ModifyReservationProcessor) modifyNative(ctx context.Context, req ModifyRequest, target history.ChargeableEvent, prov *provider.Provider, modifier provider.Modifier) (*Response, error) {
	callCtx, cancel := p.deps.callCtx(ctx)
	callResp, callErr := modifier.ModifyReservation(callCtx, provider.CapabilityRequest{
		ReferenceID:     req.ReferenceID,
		Amount:          req.Amount,
		InstrumentData:  target.Event.Instrument.Data,
		ReservationData: target.Event.Data,
		ConfigData:      prov.Config.Data,
		CustomData:      req.CustomData,
	})
	cancel()

	builder := domain.NewEventBuilder().
		WithReferenceID(req.ReferenceID).
		WithParentGUID(target.Event.GUID).
		WithPaymentType(domain.PaymentTypeModifyReserve).
		WithAmount(req.Amount).
		WithInstrument(*target.Event.Instrument).
		WithOriginalInstrument(true)

	if callErr != nil {
		logProviderFailure(ctx, "modify_reservation", req.ReferenceID, callErr)
		internalMsg, externalMsg, temporary := failureDetails(callErr)
		builder = builder.
			WithPaymentStatus(domain.PaymentStatusFailed).
			WithInternalMessage(internalMsg).
			WithExternalMessage(externalMsg).
			WithTemporaryFailure(temporary).
			WithData(eventData(nil, req.CustomData))
	} else {
		builder = builder.
			WithPaymentStatus(domain.PaymentStatusApproved).
			WithData(eventData(callResp.Data, req.CustomData))
	}

	event, err := builder.Build()
	if err != nil {
		return nil, fmt.Errorf("modifyNative: %w", err)
	}
	if err := p.deps.append(ctx, event); err != nil {
		return nil, fmt.Errorf("modifyNative: %w", err)
	}

	logging.FromContext(ctx).Info("reservation modify recorded", logging.Event(event))
	return &Response{Events: []domain.PaymentEvent{event}}, nil
}

// modifySimulated reserves the new amount first and releases the
// original hold only once the replacement stands, so the money is never
// under-reserved partway through.
func (p *ModifyReservationProcessor) modifySimulated(ctx context.Context, req ModifyRequest, target history.ChargeableEvent) (*Response, error) {
	replacement, err := p.reservation.ReserveToSimulateModify(ctx, ReserveRequest{
		ReferenceID: req.ReferenceID,
		Amount:      req.Amount,
		Instrument:  *target.Event.Instrument,
		CustomData:  req.CustomData,
	})
	if err != nil {
		return nil, fmt.Errorf("modifySimulated: %w", err)
	}

	resp := &Response{Events: replacement.Events}
	if !replacement.Approved() {
		// original hold stands untouched
		return resp, nil
	}

	cancelResp, err := p.cancel.CancelReservation(ctx, CancelRequest{
		ReferenceID:     req.ReferenceID,
		ReservationGUID: target.Event.GUID,
		CustomData:      req.CustomData,
	})
	if err != nil {
		return nil, fmt.Errorf("modifySimulated: %w", err)
	}
	resp.Events = append(resp.Events, cancelResp.Events...)
	return resp, nil
}

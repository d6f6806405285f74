package processor

import (
	"context"
	"fmt"

	"github.com/josh-kwaku/payment-orchestrator/internal/domain"
	"github.com/josh-kwaku/payment-orchestrator/internal/history"
	"github.com/josh-kwaku/payment-orchestrator/internal/logging"
	"github.com/josh-kwaku/payment-orchestrator/internal/provider"
)

type ChargeRequest struct {
	ReferenceID string
	Amount      domain.MoneyValue
	Instrument  domain.Instrument
	CustomData  map[string]string
}

// ChargeProcessor captures money against open reservations. A charge
// draws the requested amount down across reservations in ledger order,
// splitting into one event per reservation it touches.
type ChargeProcessor struct {
	deps Deps
}

func NewChargeProcessor(deps Deps) *ChargeProcessor {
	return &ChargeProcessor{deps: deps}
}

func (p *ChargeProcessor) Charge(ctx context.Context, req ChargeRequest) (*Response, error) {
	if err := validateAmount(req.Amount); err != nil {
		return nil, fmt.Errorf("Charge: %w", err)
	}

	stream, err := p.deps.Ledger.StreamFor(ctx, req.ReferenceID)
	if err != nil {
		return nil, fmt.Errorf("Charge: %w", err)
	}
	if err := checkStreamCurrency(stream, req.Amount); err != nil {
		return nil, fmt.Errorf("Charge: %w", err)
	}

	available, err := p.deps.History.AvailableReserved(stream)
	if err != nil {
		return nil, fmt.Errorf("Charge: %w", err)
	}
	if cmp, err := req.Amount.Cmp(available); err != nil {
		return nil, fmt.Errorf("Charge: %w", err)
	} else if cmp > 0 {
		return nil, fmt.Errorf("Charge: requested %s, reserved %s: %w",
			req.Amount, available, domain.ErrInsufficientReserved)
	}

	prov, err := p.deps.Resolver.Resolve(ctx, req.Instrument.ProviderConfigGUID)
	if err != nil {
		return nil, fmt.Errorf("Charge: %w", err)
	}
	charger, ok := prov.Charger()
	if !ok {
		return nil, fmt.Errorf("Charge: plugin %q cannot charge: %w",
			prov.Config.PluginID, domain.ErrCapabilityUnsupported)
	}

	chargeable, err := p.deps.History.ChargeableEvents(stream)
	if err != nil {
		return nil, fmt.Errorf("Charge: %w", err)
	}

	resp := &Response{}
	remaining := req.Amount
	for _, ce := range chargeable {
		if !remaining.IsPositive() {
			break
		}
		slice := remaining
		if cmp, err := slice.Cmp(ce.Available); err != nil {
			return nil, fmt.Errorf("Charge: %w", err)
		} else if cmp > 0 {
			slice = ce.Available
		}

		event, err := p.chargeSlice(ctx, req, prov, charger, ce, slice)
		if err != nil {
			return nil, fmt.Errorf("Charge: %w", err)
		}
		resp.Events = append(resp.Events, event)

		// a failed slice leaves its hold open; keep trying the rest
		if event.IsApproved() {
			if remaining, err = remaining.Sub(slice); err != nil {
				return nil, fmt.Errorf("Charge: %w", err)
			}
		}
	}
	return resp, nil
}

func (p *ChargeProcessor) chargeSlice(ctx context.Context, req ChargeRequest, prov *provider.Provider, charger provider.Charger, ce history.ChargeableEvent, amount domain.MoneyValue) (domain.PaymentEvent, error) {
	callCtx, cancel := p.deps.callCtx(ctx)
	callResp, callErr := charger.Charge(callCtx, provider.CapabilityRequest{
		ReferenceID:     req.ReferenceID,
		Amount:          amount,
		InstrumentData:  req.Instrument.Data,
		ReservationData: ce.Event.Data,
		ConfigData:      prov.Config.Data,
		CustomData:      req.CustomData,
	})
	cancel()

	builder := domain.NewEventBuilder().
		WithReferenceID(req.ReferenceID).
		WithParentGUID(ce.Event.GUID).
		WithPaymentType(domain.PaymentTypeCharge).
		WithAmount(amount).
		WithInstrument(req.Instrument)

	if callErr != nil {
		logProviderFailure(ctx, "charge", req.ReferenceID, callErr)
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
		return domain.PaymentEvent{}, fmt.Errorf("chargeSlice: %w", err)
	}
	if err := p.deps.append(ctx, event); err != nil {
		return domain.PaymentEvent{}, fmt.Errorf("chargeSlice: %w", err)
	}

	logging.FromContext(ctx).Info("charge recorded", logging.Event(event))
	return event, nil
}

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

const (
	manualCreditKey       = "manual"
	manualCreditReasonKey = "reason"
	simulatedReverseKey   = "simulated_reverse_charge"
)

type CreditRequest struct {
	ReferenceID string
	Amount      domain.MoneyValue
	CustomData  map[string]string
}

type ManualCreditRequest struct {
	ReferenceID string
	Amount      domain.MoneyValue
	Reason      string
	CustomData  map[string]string
}

type ReverseChargeRequest struct {
	ReferenceID string
	ChargeGUID  uuid.UUID
	Amount      domain.MoneyValue
	CustomData  map[string]string
}

// CreditProcessor returns money to the customer: provider-backed
// credits, manual credits recorded without a provider call, and charge
// reversals.
type CreditProcessor struct {
	deps Deps
}

func NewCreditProcessor(deps Deps) *CreditProcessor {
	return &CreditProcessor{deps: deps}
}

// Credit refunds the requested amount against the reference's charges,
// drawing down refundable charges in ledger order.
func (p *CreditProcessor) Credit(ctx context.Context, req CreditRequest) (*Response, error) {
	refundable, err := p.refundable(ctx, req.ReferenceID, req.Amount)
	if err != nil {
		return nil, fmt.Errorf("Credit: %w", err)
	}

	resp := &Response{}
	remaining := req.Amount
	for _, re := range refundable {
		if !remaining.IsPositive() {
			break
		}
		slice := remaining
		if cmp, err := slice.Cmp(re.Remaining); err != nil {
			return nil, fmt.Errorf("Credit: %w", err)
		} else if cmp > 0 {
			slice = re.Remaining
		}

		event, err := p.creditSlice(ctx, req, re, slice)
		if err != nil {
			return nil, fmt.Errorf("Credit: %w", err)
		}
		resp.Events = append(resp.Events, event)

		if event.IsApproved() {
			if remaining, err = remaining.Sub(slice); err != nil {
				return nil, fmt.Errorf("Credit: %w", err)
			}
		}
	}
	return resp, nil
}

// ManualCredit records a refund that was settled outside the system,
// e.g. cash handed over the counter. No provider is called.
func (p *CreditProcessor) ManualCredit(ctx context.Context, req ManualCreditRequest) (*Response, error) {
	refundable, err := p.refundable(ctx, req.ReferenceID, req.Amount)
	if err != nil {
		return nil, fmt.Errorf("ManualCredit: %w", err)
	}

	resp := &Response{}
	remaining := req.Amount
	for _, re := range refundable {
		if !remaining.IsPositive() {
			break
		}
		slice := remaining
		if cmp, err := slice.Cmp(re.Remaining); err != nil {
			return nil, fmt.Errorf("ManualCredit: %w", err)
		} else if cmp > 0 {
			slice = re.Remaining
		}

		data := eventData(nil, req.CustomData)
		data[manualCreditKey] = "true"
		if req.Reason != "" {
			data[manualCreditReasonKey] = req.Reason
		}

		builder := domain.NewEventBuilder().
			WithReferenceID(req.ReferenceID).
			WithParentGUID(re.Event.GUID).
			WithPaymentType(domain.PaymentTypeManualCredit).
			WithPaymentStatus(domain.PaymentStatusApproved).
			WithAmount(slice).
			WithData(data)
		if re.Event.Instrument != nil {
			builder = builder.WithInstrument(*re.Event.Instrument).WithOriginalInstrument(true)
		}

		event, err := builder.Build()
		if err != nil {
			return nil, fmt.Errorf("ManualCredit: %w", err)
		}
		if err := p.deps.append(ctx, event); err != nil {
			return nil, fmt.Errorf("ManualCredit: %w", err)
		}
		logging.FromContext(ctx).Info("manual credit recorded", logging.Event(event))

		resp.Events = append(resp.Events, event)
		if remaining, err = remaining.Sub(slice); err != nil {
			return nil, fmt.Errorf("ManualCredit: %w", err)
		}
	}
	return resp, nil
}

// ReverseCharge undoes one specific charge. Providers without a native
// reversal capability get a compensating credit instead, marked so the
// two can be told apart downstream.
func (p *CreditProcessor) ReverseCharge(ctx context.Context, req ReverseChargeRequest) (*Response, error) {
	if err := validateAmount(req.Amount); err != nil {
		return nil, fmt.Errorf("ReverseCharge: %w", err)
	}

	stream, err := p.deps.Ledger.StreamFor(ctx, req.ReferenceID)
	if err != nil {
		return nil, fmt.Errorf("ReverseCharge: %w", err)
	}
	refundable, err := p.deps.History.RefundableEvents(stream)
	if err != nil {
		return nil, fmt.Errorf("ReverseCharge: %w", err)
	}

	var target *history.RefundableEvent
	for i := range refundable {
		if refundable[i].Event.GUID == req.ChargeGUID {
			target = &refundable[i]
			break
		}
	}
	if target == nil {
		return nil, fmt.Errorf("ReverseCharge: %s: %w", req.ChargeGUID, domain.ErrChargeNotFound)
	}
	if cmp, err := req.Amount.Cmp(target.Remaining); err != nil {
		return nil, fmt.Errorf("ReverseCharge: %w", err)
	} else if cmp > 0 {
		return nil, fmt.Errorf("ReverseCharge: requested %s, remaining %s: %w",
			req.Amount, target.Remaining, domain.ErrInsufficientCharged)
	}
	if target.Event.Instrument == nil {
		return nil, fmt.Errorf("ReverseCharge: charge %s has no instrument: %w",
			req.ChargeGUID, domain.ErrInvalidRequest)
	}

	prov, err := p.deps.Resolver.Resolve(ctx, target.Event.Instrument.ProviderConfigGUID)
	if err != nil {
		return nil, fmt.Errorf("ReverseCharge: %w", err)
	}

	capReq := provider.CapabilityRequest{
		ReferenceID:     req.ReferenceID,
		Amount:          req.Amount,
		InstrumentData:  target.Event.Instrument.Data,
		ReservationData: target.Event.Data,
		ConfigData:      prov.Config.Data,
		CustomData:      req.CustomData,
	}

	var (
		callResp    *provider.CapabilityResponse
		callErr     error
		paymentType domain.PaymentType
		simulated   bool
	)
	callCtx, cancel := p.deps.callCtx(ctx)
	if reverser, ok := prov.ChargeReverser(); ok {
		paymentType = domain.PaymentTypeReverseCharge
		callResp, callErr = reverser.ReverseCharge(callCtx, capReq)
	} else if crediter, ok := prov.Crediter(); ok {
		paymentType = domain.PaymentTypeCredit
		simulated = true
		callResp, callErr = crediter.Credit(callCtx, capReq)
	} else {
		cancel()
		return nil, fmt.Errorf("ReverseCharge: plugin %q can neither reverse nor credit: %w",
			prov.Config.PluginID, domain.ErrCapabilityUnsupported)
	}
	cancel()

	builder := domain.NewEventBuilder().
		WithReferenceID(req.ReferenceID).
		WithParentGUID(target.Event.GUID).
		WithPaymentType(paymentType).
		WithAmount(req.Amount).
		WithInstrument(*target.Event.Instrument).
		WithOriginalInstrument(true)

	if callErr != nil {
		logProviderFailure(ctx, "reverse_charge", req.ReferenceID, callErr)
		internalMsg, externalMsg, temporary := failureDetails(callErr)
		builder = builder.
			WithPaymentStatus(domain.PaymentStatusFailed).
			WithInternalMessage(internalMsg).
			WithExternalMessage(externalMsg).
			WithTemporaryFailure(temporary).
			WithData(eventData(nil, req.CustomData))
	} else {
		data := eventData(callResp.Data, req.CustomData)
		if simulated {
			data[simulatedReverseKey] = "true"
		}
		builder = builder.
			WithPaymentStatus(domain.PaymentStatusApproved).
			WithData(data)
	}

	event, err := builder.Build()
	if err != nil {
		return nil, fmt.Errorf("ReverseCharge: %w", err)
	}
	if err := p.deps.append(ctx, event); err != nil {
		return nil, fmt.Errorf("ReverseCharge: %w", err)
	}

	logging.FromContext(ctx).Info("charge reversal recorded", logging.Event(event))
	return &Response{Events: []domain.PaymentEvent{event}}, nil
}

// refundable validates the amount against what remains refundable on the
// reference and returns the charges to draw down.
func (p *CreditProcessor) refundable(ctx context.Context, referenceID string, amount domain.MoneyValue) ([]history.RefundableEvent, error) {
	if err := validateAmount(amount); err != nil {
		return nil, err
	}

	stream, err := p.deps.Ledger.StreamFor(ctx, referenceID)
	if err != nil {
		return nil, err
	}
	if err := checkStreamCurrency(stream, amount); err != nil {
		return nil, err
	}

	refundable, err := p.deps.History.RefundableEvents(stream)
	if err != nil {
		return nil, err
	}

	total := domain.MoneyValue{}
	for _, re := range refundable {
		if total, err = total.Add(re.Remaining); err != nil {
			return nil, err
		}
	}
	if cmp, err := amount.Cmp(total); err != nil {
		return nil, err
	} else if cmp > 0 {
		return nil, fmt.Errorf("requested %s, refundable %s: %w", amount, total, domain.ErrInsufficientCharged)
	}
	return refundable, nil
}

func (p *CreditProcessor) creditSlice(ctx context.Context, req CreditRequest, re history.RefundableEvent, amount domain.MoneyValue) (domain.PaymentEvent, error) {
	if re.Event.Instrument == nil {
		return domain.PaymentEvent{}, fmt.Errorf("creditSlice: charge %s has no instrument: %w",
			re.Event.GUID, domain.ErrInvalidRequest)
	}

	prov, err := p.deps.Resolver.Resolve(ctx, re.Event.Instrument.ProviderConfigGUID)
	if err != nil {
		return domain.PaymentEvent{}, fmt.Errorf("creditSlice: %w", err)
	}
	crediter, ok := prov.Crediter()
	if !ok {
		return domain.PaymentEvent{}, fmt.Errorf("creditSlice: plugin %q cannot credit: %w",
			prov.Config.PluginID, domain.ErrCapabilityUnsupported)
	}

	callCtx, cancel := p.deps.callCtx(ctx)
	callResp, callErr := crediter.Credit(callCtx, provider.CapabilityRequest{
		ReferenceID:     req.ReferenceID,
		Amount:          amount,
		InstrumentData:  re.Event.Instrument.Data,
		ReservationData: re.Event.Data,
		ConfigData:      prov.Config.Data,
		CustomData:      req.CustomData,
	})
	cancel()

	builder := domain.NewEventBuilder().
		WithReferenceID(req.ReferenceID).
		WithParentGUID(re.Event.GUID).
		WithPaymentType(domain.PaymentTypeCredit).
		WithAmount(amount).
		WithInstrument(*re.Event.Instrument).
		WithOriginalInstrument(true)

	if callErr != nil {
		logProviderFailure(ctx, "credit", req.ReferenceID, callErr)
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
		return domain.PaymentEvent{}, fmt.Errorf("creditSlice: %w", err)
	}
	if err := p.deps.append(ctx, event); err != nil {
		return domain.PaymentEvent{}, fmt.Errorf("creditSlice: %w", err)
	}

	logging.FromContext(ctx).Info("credit recorded", logging.Event(event))
	return event, nil
}

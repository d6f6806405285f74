// Package processor implements the transaction processors that sit
// between callers and payment providers. Every provider interaction is
// recorded in the ledger, successful or not; a provider failure is a
// FAILED event in an otherwise successful call, never an error returned
// to the caller.
package processor

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/josh-kwaku/payment-orchestrator/internal/domain"
	"github.com/josh-kwaku/payment-orchestrator/internal/history"
	"github.com/josh-kwaku/payment-orchestrator/internal/ledger"
	"github.com/josh-kwaku/payment-orchestrator/internal/logging"
	"github.com/josh-kwaku/payment-orchestrator/internal/provider"
)

// idempotencyKey is copied from a request's custom data into every event
// the request produces, so callers can correlate retries with recorded
// outcomes.
const idempotencyKey = "idempotency_key"

// Deps is the shared wiring of all processors.
type Deps struct {
	Resolver *provider.Resolver
	Ledger   ledger.Store
	History  *history.Service

	// CallTimeout bounds a single provider call. Zero means the caller's
	// context is the only bound.
	CallTimeout time.Duration
}

// Response is the outcome of one logical operation: the events it
// appended to the ledger, in order.
type Response struct {
	Events []domain.PaymentEvent
}

// Approved reports whether the operation fully succeeded: at least one
// event and no FAILED event.
func (r *Response) Approved() bool {
	if len(r.Events) == 0 {
		return false
	}
	for _, e := range r.Events {
		if e.PaymentStatus == domain.PaymentStatusFailed {
			return false
		}
	}
	return true
}

// FailedEvents returns the FAILED events of the operation.
func (r *Response) FailedEvents() []domain.PaymentEvent {
	var out []domain.PaymentEvent
	for _, e := range r.Events {
		if e.PaymentStatus == domain.PaymentStatusFailed {
			out = append(out, e)
		}
	}
	return out
}

func (d Deps) callCtx(ctx context.Context) (context.Context, context.CancelFunc) {
	if d.CallTimeout <= 0 {
		return ctx, func() {}
	}
	return context.WithTimeout(ctx, d.CallTimeout)
}

func (d Deps) append(ctx context.Context, event domain.PaymentEvent) error {
	if err := d.Ledger.Append(ctx, event); err != nil {
		return fmt.Errorf("append event: %w", err)
	}
	return nil
}

// failureDetails maps a provider call error onto the failure fields of a
// FAILED event. Context expiry counts as temporary: the provider may
// well have been healthy.
func failureDetails(err error) (internalMsg, externalMsg string, temporary bool) {
	var capErr *provider.CapabilityError
	if errors.As(err, &capErr) {
		return capErr.InternalMessage, capErr.ExternalMessage, capErr.Temporary
	}
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return err.Error(), "The payment provider did not respond, please retry.", true
	}
	return err.Error(), "The payment could not be processed.", false
}

// eventData merges provider response data with the caller's idempotency
// key. Response data wins on collision.
func eventData(responseData, customData map[string]string) map[string]string {
	data := make(map[string]string, len(responseData)+1)
	if key, ok := customData[idempotencyKey]; ok {
		data[idempotencyKey] = key
	}
	for k, v := range responseData {
		data[k] = v
	}
	return data
}

func validateAmount(amount domain.MoneyValue) error {
	if !amount.IsPositive() {
		return fmt.Errorf("amount %s: %w", amount, domain.ErrInvalidAmount)
	}
	if !amount.Currency.IsValid() {
		return fmt.Errorf("currency %q: %w", amount.Currency, domain.ErrInvalidAmount)
	}
	return nil
}

// checkStreamCurrency rejects an amount whose currency differs from the
// currency already in use on the reference's ledger.
func checkStreamCurrency(events []domain.PaymentEvent, amount domain.MoneyValue) error {
	for _, e := range events {
		if e.Amount.Currency != "" && e.Amount.Currency != amount.Currency {
			return fmt.Errorf("ledger currency %s, request currency %s: %w",
				e.Amount.Currency, amount.Currency, domain.ErrCurrencyMismatch)
		}
	}
	return nil
}

func logProviderFailure(ctx context.Context, operation, referenceID string, err error) {
	logging.FromContext(ctx).Warn("provider call failed",
		"operation", operation,
		"reference_id", referenceID,
		"error", err,
	)
}

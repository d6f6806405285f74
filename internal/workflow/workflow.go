// Package workflow is the single entry point callers use to drive the
// payment core. It wires the transaction processors together and adds
// the read side on top of the ledger.
package workflow

import (
	"context"
	"fmt"

	"github.com/josh-kwaku/payment-orchestrator/internal/domain"
	"github.com/josh-kwaku/payment-orchestrator/internal/history"
	"github.com/josh-kwaku/payment-orchestrator/internal/processor"
	"github.com/josh-kwaku/payment-orchestrator/internal/provider"
)

type Workflow struct {
	reservation *processor.ReservationProcessor
	modify      *processor.ModifyReservationProcessor
	cancel      *processor.CancelReservationProcessor
	charge      *processor.ChargeProcessor
	credit      *processor.CreditProcessor
	instruments *processor.InstrumentCreationProcessor
	history     *history.Service
	deps        processor.Deps
}

func New(deps processor.Deps) *Workflow {
	reservation := processor.NewReservationProcessor(deps)
	cancel := processor.NewCancelReservationProcessor(deps)
	return &Workflow{
		reservation: reservation,
		modify:      processor.NewModifyReservationProcessor(deps, reservation, cancel),
		cancel:      cancel,
		charge:      processor.NewChargeProcessor(deps),
		credit:      processor.NewCreditProcessor(deps),
		instruments: processor.NewInstrumentCreationProcessor(deps),
		history:     deps.History,
		deps:        deps,
	}
}

func (w *Workflow) Reserve(ctx context.Context, req processor.ReserveRequest) (*processor.Response, error) {
	return w.reservation.Reserve(ctx, req)
}

func (w *Workflow) ModifyReservation(ctx context.Context, req processor.ModifyRequest) (*processor.Response, error) {
	return w.modify.ModifyReservation(ctx, req)
}

func (w *Workflow) CancelReservation(ctx context.Context, req processor.CancelRequest) (*processor.Response, error) {
	return w.cancel.CancelReservation(ctx, req)
}

func (w *Workflow) CancelAllReservations(ctx context.Context, referenceID string, customData map[string]string) (*processor.Response, error) {
	return w.cancel.CancelAllReservations(ctx, referenceID, customData)
}

func (w *Workflow) Charge(ctx context.Context, req processor.ChargeRequest) (*processor.Response, error) {
	return w.charge.Charge(ctx, req)
}

func (w *Workflow) Credit(ctx context.Context, req processor.CreditRequest) (*processor.Response, error) {
	return w.credit.Credit(ctx, req)
}

func (w *Workflow) ManualCredit(ctx context.Context, req processor.ManualCreditRequest) (*processor.Response, error) {
	return w.credit.ManualCredit(ctx, req)
}

func (w *Workflow) ReverseCharge(ctx context.Context, req processor.ReverseChargeRequest) (*processor.Response, error) {
	return w.credit.ReverseCharge(ctx, req)
}

func (w *Workflow) InstructionFields(ctx context.Context, req processor.CreateInstrumentRequest) (*provider.FieldSchema, error) {
	return w.instruments.InstructionFields(ctx, req)
}

func (w *Workflow) Instructions(ctx context.Context, req processor.CreateInstrumentRequest) (*provider.Instructions, error) {
	return w.instruments.Instructions(ctx, req)
}

func (w *Workflow) CreationFields(ctx context.Context, req processor.CreateInstrumentRequest) (*provider.FieldSchema, error) {
	return w.instruments.CreationFields(ctx, req)
}

func (w *Workflow) CreateInstrument(ctx context.Context, req processor.CreateInstrumentRequest) (*domain.Instrument, error) {
	return w.instruments.CreateInstrument(ctx, req)
}

// Summary folds the reference's ledger into its current aggregate.
func (w *Workflow) Summary(ctx context.Context, referenceID string) (*history.Aggregate, error) {
	return w.history.AggregateFor(ctx, referenceID)
}

// Events returns the reference's raw ledger stream in append order.
func (w *Workflow) Events(ctx context.Context, referenceID string) ([]domain.PaymentEvent, error) {
	events, err := w.deps.Ledger.StreamFor(ctx, referenceID)
	if err != nil {
		return nil, fmt.Errorf("Events: %w", err)
	}
	return events, nil
}

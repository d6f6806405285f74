// Package history derives aggregate payment state from a ledger of
// payment events. It is read-only: all methods fold the event stream and
// never touch the store except to fetch it.
package history

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/josh-kwaku/payment-orchestrator/internal/domain"
	"github.com/josh-kwaku/payment-orchestrator/internal/ledger"
)

// Aggregate is the current money state of one reference.
type Aggregate struct {
	Reserved         domain.MoneyValue
	Charged          domain.MoneyValue
	Credited         domain.MoneyValue
	OpenReservations []domain.PaymentEvent
}

// ChargeableEvent is an open reservation and the amount still available
// to charge against it.
type ChargeableEvent struct {
	Event     domain.PaymentEvent
	Available domain.MoneyValue
}

// RefundableEvent is an approved charge and the amount not yet credited
// or reversed against it.
type RefundableEvent struct {
	Event     domain.PaymentEvent
	Remaining domain.MoneyValue
}

type Service struct {
	store ledger.Store
}

func NewService(store ledger.Store) *Service {
	return &Service{store: store}
}

// groupState tracks one reservation chain: the originating reservation,
// the latest reservation-type event of the chain, and the running
// amounts. Events link to a chain through ParentGUID.
type groupState struct {
	last      domain.PaymentEvent
	available domain.MoneyValue
	charged   domain.MoneyValue
	refunded  domain.MoneyValue
	reversed  domain.MoneyValue
}

func foldGroups(events []domain.PaymentEvent) ([]*groupState, error) {
	var groups []*groupState
	byGUID := make(map[uuid.UUID]*groupState)

	newGroup := func(e domain.PaymentEvent) *groupState {
		g := &groupState{last: e, available: domain.ZeroMoney(e.Amount.Currency)}
		groups = append(groups, g)
		byGUID[e.GUID] = g
		return g
	}

	groupOf := func(e domain.PaymentEvent) *groupState {
		if e.ParentGUID == nil {
			return nil
		}
		return byGUID[*e.ParentGUID]
	}

	for _, e := range events {
		if e.PaymentStatus == domain.PaymentStatusFailed {
			continue
		}
		// a SKIPPED cancel still releases the hold: the provider was
		// never called but the ledger lets it expire
		if e.PaymentStatus == domain.PaymentStatusSkipped && e.PaymentType != domain.PaymentTypeCancelReserve {
			continue
		}

		var err error
		switch e.PaymentType {
		case domain.PaymentTypeReserve:
			g := newGroup(e)
			g.available = e.Amount

		case domain.PaymentTypeModifyReserve:
			g := groupOf(e)
			if g == nil {
				continue
			}
			g.available = e.Amount
			g.last = e
			byGUID[e.GUID] = g

		case domain.PaymentTypeCancelReserve:
			g := groupOf(e)
			if g == nil {
				continue
			}
			g.available = domain.ZeroMoney(e.Amount.Currency)
			byGUID[e.GUID] = g

		case domain.PaymentTypeCharge:
			g := groupOf(e)
			if g == nil {
				// charge tracked by reference only, no reservation link
				g = newGroup(e)
			}
			if g.charged, err = g.charged.Add(e.Amount); err != nil {
				return nil, fmt.Errorf("foldGroups: charge %s: %w", e.GUID, err)
			}
			if g.available, err = drawDown(g.available, e.Amount); err != nil {
				return nil, fmt.Errorf("foldGroups: charge %s: %w", e.GUID, err)
			}
			byGUID[e.GUID] = g

		case domain.PaymentTypeCredit, domain.PaymentTypeManualCredit:
			g := groupOf(e)
			if g == nil {
				g = newGroup(e)
			}
			if g.refunded, err = g.refunded.Add(e.Amount); err != nil {
				return nil, fmt.Errorf("foldGroups: credit %s: %w", e.GUID, err)
			}
			byGUID[e.GUID] = g

		case domain.PaymentTypeReverseCharge:
			g := groupOf(e)
			if g == nil {
				continue
			}
			if g.reversed, err = g.reversed.Add(e.Amount); err != nil {
				return nil, fmt.Errorf("foldGroups: reverse charge %s: %w", e.GUID, err)
			}
			byGUID[e.GUID] = g
		}
	}

	return groups, nil
}

// drawDown subtracts amount from available, clamping at zero: a charge
// never leaves a negative hold behind.
func drawDown(available, amount domain.MoneyValue) (domain.MoneyValue, error) {
	rest, err := available.Sub(amount)
	if err != nil {
		return domain.MoneyValue{}, err
	}
	if rest.IsNegative() {
		return domain.ZeroMoney(rest.Currency), nil
	}
	return rest, nil
}

// AvailableReserved is the total amount currently held across all open
// reservations of the ledger.
func (s *Service) AvailableReserved(events []domain.PaymentEvent) (domain.MoneyValue, error) {
	groups, err := foldGroups(events)
	if err != nil {
		return domain.MoneyValue{}, fmt.Errorf("AvailableReserved: %w", err)
	}

	total := domain.MoneyValue{}
	for _, g := range groups {
		if total, err = total.Add(g.available); err != nil {
			return domain.MoneyValue{}, fmt.Errorf("AvailableReserved: %w", err)
		}
	}
	return total, nil
}

// Charged is the net charged total: charges minus reverse charges.
func (s *Service) Charged(events []domain.PaymentEvent) (domain.MoneyValue, error) {
	groups, err := foldGroups(events)
	if err != nil {
		return domain.MoneyValue{}, fmt.Errorf("Charged: %w", err)
	}

	total := domain.MoneyValue{}
	for _, g := range groups {
		if total, err = total.Add(g.charged); err != nil {
			return domain.MoneyValue{}, fmt.Errorf("Charged: %w", err)
		}
		if total, err = total.Sub(g.reversed); err != nil {
			return domain.MoneyValue{}, fmt.Errorf("Charged: %w", err)
		}
	}
	return total, nil
}

// Credited is the total refunded through credits and manual credits.
func (s *Service) Credited(events []domain.PaymentEvent) (domain.MoneyValue, error) {
	groups, err := foldGroups(events)
	if err != nil {
		return domain.MoneyValue{}, fmt.Errorf("Credited: %w", err)
	}

	total := domain.MoneyValue{}
	for _, g := range groups {
		if total, err = total.Add(g.refunded); err != nil {
			return domain.MoneyValue{}, fmt.Errorf("Credited: %w", err)
		}
	}
	return total, nil
}

// ChargeableEvents lists reservations with a remaining hold, in ledger
// order. The event returned per chain is the latest reservation-type
// event, which is the one cancellations and charges should reference.
func (s *Service) ChargeableEvents(events []domain.PaymentEvent) ([]ChargeableEvent, error) {
	groups, err := foldGroups(events)
	if err != nil {
		return nil, fmt.Errorf("ChargeableEvents: %w", err)
	}

	var out []ChargeableEvent
	for _, g := range groups {
		if g.available.IsPositive() {
			out = append(out, ChargeableEvent{Event: g.last, Available: g.available})
		}
	}
	return out, nil
}

// OpenReservations lists the reservation events that still hold money.
func (s *Service) OpenReservations(events []domain.PaymentEvent) ([]domain.PaymentEvent, error) {
	chargeable, err := s.ChargeableEvents(events)
	if err != nil {
		return nil, fmt.Errorf("OpenReservations: %w", err)
	}

	open := make([]domain.PaymentEvent, 0, len(chargeable))
	for _, ce := range chargeable {
		open = append(open, ce.Event)
	}
	return open, nil
}

// RefundableEvents lists approved charges with the amount not yet
// credited or reversed against each, in ledger order.
func (s *Service) RefundableEvents(events []domain.PaymentEvent) ([]RefundableEvent, error) {
	remaining := make(map[uuid.UUID]domain.MoneyValue)
	var order []domain.PaymentEvent

	for _, e := range events {
		if !e.IsApproved() {
			continue
		}
		switch {
		case e.PaymentType == domain.PaymentTypeCharge:
			remaining[e.GUID] = e.Amount
			order = append(order, e)
		case e.IsCredit() || e.PaymentType == domain.PaymentTypeReverseCharge:
			if e.ParentGUID == nil {
				continue
			}
			rem, ok := remaining[*e.ParentGUID]
			if !ok {
				continue
			}
			rest, err := rem.Sub(e.Amount)
			if err != nil {
				return nil, fmt.Errorf("RefundableEvents: %s: %w", e.GUID, err)
			}
			remaining[*e.ParentGUID] = rest
		}
	}

	var out []RefundableEvent
	for _, charge := range order {
		if rem := remaining[charge.GUID]; rem.IsPositive() {
			out = append(out, RefundableEvent{Event: charge, Remaining: rem})
		}
	}
	return out, nil
}

// AggregateFor recomputes the full aggregate for a reference from its
// ledger stream.
func (s *Service) AggregateFor(ctx context.Context, referenceID string) (*Aggregate, error) {
	events, err := s.store.StreamFor(ctx, referenceID)
	if err != nil {
		return nil, fmt.Errorf("AggregateFor: %w", err)
	}

	reserved, err := s.AvailableReserved(events)
	if err != nil {
		return nil, fmt.Errorf("AggregateFor: %w", err)
	}
	charged, err := s.Charged(events)
	if err != nil {
		return nil, fmt.Errorf("AggregateFor: %w", err)
	}
	credited, err := s.Credited(events)
	if err != nil {
		return nil, fmt.Errorf("AggregateFor: %w", err)
	}
	open, err := s.OpenReservations(events)
	if err != nil {
		return nil, fmt.Errorf("AggregateFor: %w", err)
	}

	return &Aggregate{
		Reserved:         reserved,
		Charged:          charged,
		Credited:         credited,
		OpenReservations: open,
	}, nil
}

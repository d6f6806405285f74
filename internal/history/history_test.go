package history

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/josh-kwaku/payment-orchestrator/internal/domain"
	"github.com/josh-kwaku/payment-orchestrator/internal/ledger"
)

const testRef = "order-1001"

func usd(t *testing.T, amount string) domain.MoneyValue {
	t.Helper()
	return domain.NewMoney(decimal.RequireFromString(amount), domain.CurrencyUSD)
}

func event(t *testing.T, paymentType domain.PaymentType, status domain.PaymentStatus, amount domain.MoneyValue, parent *uuid.UUID) domain.PaymentEvent {
	t.Helper()
	b := domain.NewEventBuilder().
		WithReferenceID(testRef).
		WithPaymentType(paymentType).
		WithPaymentStatus(status).
		WithAmount(amount)
	if parent != nil {
		b = b.WithParentGUID(*parent)
	}
	e, err := b.Build()
	require.NoError(t, err)
	return e
}

func TestReserveThenPartialCharge(t *testing.T) {
	svc := NewService(ledger.NewMemoryStore())

	reserve := event(t, domain.PaymentTypeReserve, domain.PaymentStatusApproved, usd(t, "100"), nil)
	charge := event(t, domain.PaymentTypeCharge, domain.PaymentStatusApproved, usd(t, "40"), &reserve.GUID)
	events := []domain.PaymentEvent{reserve, charge}

	available, err := svc.AvailableReserved(events)
	require.NoError(t, err)
	require.True(t, usd(t, "60").Equal(available))

	charged, err := svc.Charged(events)
	require.NoError(t, err)
	require.True(t, usd(t, "40").Equal(charged))

	open, err := svc.OpenReservations(events)
	require.NoError(t, err)
	require.Len(t, open, 1)
	require.Equal(t, reserve.GUID, open[0].GUID)
}

func TestFailedEventsContributeNothing(t *testing.T) {
	svc := NewService(ledger.NewMemoryStore())

	failed := event(t, domain.PaymentTypeReserve, domain.PaymentStatusFailed, usd(t, "100"), nil)
	failed.TemporaryFailure = true
	events := []domain.PaymentEvent{failed}

	available, err := svc.AvailableReserved(events)
	require.NoError(t, err)
	require.True(t, available.IsZero())

	open, err := svc.OpenReservations(events)
	require.NoError(t, err)
	require.Empty(t, open)
}

func TestModifyRetargetsAvailable(t *testing.T) {
	svc := NewService(ledger.NewMemoryStore())

	reserve := event(t, domain.PaymentTypeReserve, domain.PaymentStatusApproved, usd(t, "100"), nil)
	modify := event(t, domain.PaymentTypeModifyReserve, domain.PaymentStatusApproved, usd(t, "150"), &reserve.GUID)
	events := []domain.PaymentEvent{reserve, modify}

	available, err := svc.AvailableReserved(events)
	require.NoError(t, err)
	require.True(t, usd(t, "150").Equal(available))

	// one logical reservation, latest event of the chain represents it
	open, err := svc.OpenReservations(events)
	require.NoError(t, err)
	require.Len(t, open, 1)
	require.Equal(t, modify.GUID, open[0].GUID)
}

func TestSimulatedModifyMatchesNativeModify(t *testing.T) {
	svc := NewService(ledger.NewMemoryStore())

	// native modify path
	reserve := event(t, domain.PaymentTypeReserve, domain.PaymentStatusApproved, usd(t, "100"), nil)
	modify := event(t, domain.PaymentTypeModifyReserve, domain.PaymentStatusApproved, usd(t, "70"), &reserve.GUID)
	native := []domain.PaymentEvent{reserve, modify}

	// simulated path: new reservation at the target, cancel the original
	original := event(t, domain.PaymentTypeReserve, domain.PaymentStatusApproved, usd(t, "100"), nil)
	replacement := event(t, domain.PaymentTypeReserve, domain.PaymentStatusApproved, usd(t, "70"), nil)
	cancel := event(t, domain.PaymentTypeCancelReserve, domain.PaymentStatusApproved, usd(t, "100"), &original.GUID)
	simulated := []domain.PaymentEvent{original, replacement, cancel}

	nativeAvail, err := svc.AvailableReserved(native)
	require.NoError(t, err)
	simAvail, err := svc.AvailableReserved(simulated)
	require.NoError(t, err)
	require.True(t, nativeAvail.Equal(simAvail))

	nativeOpen, err := svc.OpenReservations(native)
	require.NoError(t, err)
	simOpen, err := svc.OpenReservations(simulated)
	require.NoError(t, err)
	require.Len(t, nativeOpen, 1)
	require.Len(t, simOpen, 1)
}

func TestCancelZeroesReservation(t *testing.T) {
	svc := NewService(ledger.NewMemoryStore())

	reserve := event(t, domain.PaymentTypeReserve, domain.PaymentStatusApproved, usd(t, "100"), nil)
	cancel := event(t, domain.PaymentTypeCancelReserve, domain.PaymentStatusApproved, usd(t, "100"), &reserve.GUID)
	events := []domain.PaymentEvent{reserve, cancel}

	available, err := svc.AvailableReserved(events)
	require.NoError(t, err)
	require.True(t, available.IsZero())

	open, err := svc.OpenReservations(events)
	require.NoError(t, err)
	require.Empty(t, open)
}

func TestSkippedCancelReleasesHold(t *testing.T) {
	svc := NewService(ledger.NewMemoryStore())

	reserve := event(t, domain.PaymentTypeReserve, domain.PaymentStatusApproved, usd(t, "100"), nil)
	skipped := event(t, domain.PaymentTypeCancelReserve, domain.PaymentStatusSkipped, usd(t, "100"), &reserve.GUID)
	events := []domain.PaymentEvent{reserve, skipped}

	available, err := svc.AvailableReserved(events)
	require.NoError(t, err)
	require.True(t, available.IsZero())
}

func TestReverseChargeNetsChargedTotal(t *testing.T) {
	svc := NewService(ledger.NewMemoryStore())

	reserve := event(t, domain.PaymentTypeReserve, domain.PaymentStatusApproved, usd(t, "100"), nil)
	charge := event(t, domain.PaymentTypeCharge, domain.PaymentStatusApproved, usd(t, "100"), &reserve.GUID)
	reverse := event(t, domain.PaymentTypeReverseCharge, domain.PaymentStatusApproved, usd(t, "100"), &charge.GUID)
	events := []domain.PaymentEvent{reserve, charge, reverse}

	charged, err := svc.Charged(events)
	require.NoError(t, err)
	require.True(t, charged.IsZero())

	refundable, err := svc.RefundableEvents(events)
	require.NoError(t, err)
	require.Empty(t, refundable)
}

func TestCreditsAccrueAgainstCharge(t *testing.T) {
	svc := NewService(ledger.NewMemoryStore())

	reserve := event(t, domain.PaymentTypeReserve, domain.PaymentStatusApproved, usd(t, "100"), nil)
	charge := event(t, domain.PaymentTypeCharge, domain.PaymentStatusApproved, usd(t, "100"), &reserve.GUID)
	credit := event(t, domain.PaymentTypeCredit, domain.PaymentStatusApproved, usd(t, "30"), &charge.GUID)
	manual := event(t, domain.PaymentTypeManualCredit, domain.PaymentStatusApproved, usd(t, "20"), &charge.GUID)
	events := []domain.PaymentEvent{reserve, charge, credit, manual}

	credited, err := svc.Credited(events)
	require.NoError(t, err)
	require.True(t, usd(t, "50").Equal(credited))

	refundable, err := svc.RefundableEvents(events)
	require.NoError(t, err)
	require.Len(t, refundable, 1)
	require.Equal(t, charge.GUID, refundable[0].Event.GUID)
	require.True(t, usd(t, "50").Equal(refundable[0].Remaining))
}

func TestChargeableEventsSpanMultipleReservations(t *testing.T) {
	svc := NewService(ledger.NewMemoryStore())

	first := event(t, domain.PaymentTypeReserve, domain.PaymentStatusApproved, usd(t, "50"), nil)
	second := event(t, domain.PaymentTypeReserve, domain.PaymentStatusApproved, usd(t, "30"), nil)
	charge := event(t, domain.PaymentTypeCharge, domain.PaymentStatusApproved, usd(t, "50"), &first.GUID)
	events := []domain.PaymentEvent{first, second, charge}

	chargeable, err := svc.ChargeableEvents(events)
	require.NoError(t, err)
	require.Len(t, chargeable, 1)
	require.Equal(t, second.GUID, chargeable[0].Event.GUID)
	require.True(t, usd(t, "30").Equal(chargeable[0].Available))
}

func TestAggregateForReadsFromStore(t *testing.T) {
	ctx := context.Background()
	store := ledger.NewMemoryStore()
	svc := NewService(store)

	reserve := event(t, domain.PaymentTypeReserve, domain.PaymentStatusApproved, usd(t, "100"), nil)
	charge := event(t, domain.PaymentTypeCharge, domain.PaymentStatusApproved, usd(t, "40"), &reserve.GUID)
	require.NoError(t, store.Append(ctx, reserve))
	require.NoError(t, store.Append(ctx, charge))

	agg, err := svc.AggregateFor(ctx, testRef)
	require.NoError(t, err)
	require.True(t, usd(t, "60").Equal(agg.Reserved))
	require.True(t, usd(t, "40").Equal(agg.Charged))
	require.True(t, agg.Credited.IsZero())
	require.Len(t, agg.OpenReservations, 1)
}

func TestAggregateForEmptyStream(t *testing.T) {
	ctx := context.Background()
	svc := NewService(ledger.NewMemoryStore())

	agg, err := svc.AggregateFor(ctx, "never-seen")
	require.NoError(t, err)
	require.True(t, agg.Reserved.IsZero())
	require.True(t, agg.Charged.IsZero())
	require.True(t, agg.Credited.IsZero())
	require.Empty(t, agg.OpenReservations)
}

package processor_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/josh-kwaku/payment-orchestrator/internal/domain"
	"github.com/josh-kwaku/payment-orchestrator/internal/processor"
	"github.com/josh-kwaku/payment-orchestrator/internal/testutil"
)

func reserveUSD(t *testing.T, env *testutil.Env, referenceID, amount string, instrument domain.Instrument) domain.PaymentEvent {
	t.Helper()
	resp, err := processor.NewReservationProcessor(env.Deps).Reserve(context.Background(), processor.ReserveRequest{
		ReferenceID: referenceID,
		Amount:      testutil.USD(t, amount),
		Instrument:  instrument,
	})
	require.NoError(t, err)
	require.True(t, resp.Approved())
	return resp.Events[0]
}

func TestChargePartial(t *testing.T) {
	ctx := context.Background()
	env := testutil.NewEnv(t)
	charge := processor.NewChargeProcessor(env.Deps)

	reservation := reserveUSD(t, env, "order-1", "100", env.Instrument)

	resp, err := charge.Charge(ctx, processor.ChargeRequest{
		ReferenceID: "order-1",
		Amount:      testutil.USD(t, "40"),
		Instrument:  env.Instrument,
	})
	require.NoError(t, err)
	require.True(t, resp.Approved())
	require.Len(t, resp.Events, 1)
	require.Equal(t, domain.PaymentTypeCharge, resp.Events[0].PaymentType)
	require.Equal(t, reservation.GUID, *resp.Events[0].ParentGUID)

	stream := mustStream(t, env, "order-1")
	available, err := env.Deps.History.AvailableReserved(stream)
	require.NoError(t, err)
	require.True(t, testutil.USD(t, "60").Equal(available))

	charged, err := env.Deps.History.Charged(stream)
	require.NoError(t, err)
	require.True(t, testutil.USD(t, "40").Equal(charged))
}

func TestChargeExceedingReservedIsRejected(t *testing.T) {
	ctx := context.Background()
	env := testutil.NewEnv(t)
	charge := processor.NewChargeProcessor(env.Deps)

	reserveUSD(t, env, "order-1", "100", env.Instrument)

	_, err := charge.Charge(ctx, processor.ChargeRequest{
		ReferenceID: "order-1",
		Amount:      testutil.USD(t, "100.01"),
		Instrument:  env.Instrument,
	})
	require.ErrorIs(t, err, domain.ErrInsufficientReserved)

	// rejection leaves no trace in the ledger
	stream := mustStream(t, env, "order-1")
	require.Len(t, stream, 1)
}

func TestChargeSplitsAcrossReservations(t *testing.T) {
	ctx := context.Background()
	env := testutil.NewEnv(t)
	charge := processor.NewChargeProcessor(env.Deps)

	first := reserveUSD(t, env, "order-1", "50", env.Instrument)
	second := reserveUSD(t, env, "order-1", "30", env.Instrument)

	resp, err := charge.Charge(ctx, processor.ChargeRequest{
		ReferenceID: "order-1",
		Amount:      testutil.USD(t, "70"),
		Instrument:  env.Instrument,
	})
	require.NoError(t, err)
	require.True(t, resp.Approved())
	require.Len(t, resp.Events, 2)

	require.Equal(t, first.GUID, *resp.Events[0].ParentGUID)
	require.True(t, testutil.USD(t, "50").Equal(resp.Events[0].Amount))
	require.Equal(t, second.GUID, *resp.Events[1].ParentGUID)
	require.True(t, testutil.USD(t, "20").Equal(resp.Events[1].Amount))

	available, err := env.Deps.History.AvailableReserved(mustStream(t, env, "order-1"))
	require.NoError(t, err)
	require.True(t, testutil.USD(t, "10").Equal(available))
}

func TestChargeRequiresCapability(t *testing.T) {
	ctx := context.Background()
	env := testutil.NewEnv(t, &reserveOnlyPlugin{id: "reserveonly"})
	charge := processor.NewChargeProcessor(env.Deps)

	cfg := env.AddConfig("reserveonly")
	instrument := env.InstrumentFor(cfg, nil)
	reserveUSD(t, env, "order-1", "100", instrument)

	_, err := charge.Charge(ctx, processor.ChargeRequest{
		ReferenceID: "order-1",
		Amount:      testutil.USD(t, "40"),
		Instrument:  instrument,
	})
	require.ErrorIs(t, err, domain.ErrCapabilityUnsupported)
}

func TestChargeWithNothingReserved(t *testing.T) {
	ctx := context.Background()
	env := testutil.NewEnv(t)
	charge := processor.NewChargeProcessor(env.Deps)

	_, err := charge.Charge(ctx, processor.ChargeRequest{
		ReferenceID: "order-1",
		Amount:      testutil.USD(t, "10"),
		Instrument:  env.Instrument,
	})
	require.ErrorIs(t, err, domain.ErrInsufficientReserved)
}

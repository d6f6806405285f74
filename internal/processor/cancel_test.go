package processor_test

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/josh-kwaku/payment-orchestrator/internal/domain"
	"github.com/josh-kwaku/payment-orchestrator/internal/processor"
	"github.com/josh-kwaku/payment-orchestrator/internal/testutil"
)

func TestCancelReservation(t *testing.T) {
	ctx := context.Background()
	env := testutil.NewEnv(t)
	reserve := processor.NewReservationProcessor(env.Deps)
	cancel := processor.NewCancelReservationProcessor(env.Deps)

	reserved, err := reserve.Reserve(ctx, processor.ReserveRequest{
		ReferenceID: "order-1",
		Amount:      testutil.USD(t, "100"),
		Instrument:  env.Instrument,
	})
	require.NoError(t, err)

	resp, err := cancel.CancelReservation(ctx, processor.CancelRequest{
		ReferenceID:     "order-1",
		ReservationGUID: reserved.Events[0].GUID,
	})
	require.NoError(t, err)
	require.True(t, resp.Approved())
	require.Len(t, resp.Events, 1)

	e := resp.Events[0]
	require.Equal(t, domain.PaymentTypeCancelReserve, e.PaymentType)
	require.Equal(t, reserved.Events[0].GUID, *e.ParentGUID)
	require.True(t, e.OriginalInstrument)
	require.True(t, testutil.USD(t, "100").Equal(e.Amount))

	available, err := env.Deps.History.AvailableReserved(mustStream(t, env, "order-1"))
	require.NoError(t, err)
	require.True(t, available.IsZero())
}

func TestCancelUnknownReservation(t *testing.T) {
	ctx := context.Background()
	env := testutil.NewEnv(t)
	cancel := processor.NewCancelReservationProcessor(env.Deps)

	_, err := cancel.CancelReservation(ctx, processor.CancelRequest{
		ReferenceID:     "order-1",
		ReservationGUID: uuid.New(),
	})
	require.ErrorIs(t, err, domain.ErrReservationNotOpen)
}

func TestCancelWithoutCapabilitySkips(t *testing.T) {
	ctx := context.Background()
	env := testutil.NewEnv(t, &reserveOnlyPlugin{id: "reserveonly"})
	reserve := processor.NewReservationProcessor(env.Deps)
	cancel := processor.NewCancelReservationProcessor(env.Deps)

	cfg := env.AddConfig("reserveonly")
	reserved, err := reserve.Reserve(ctx, processor.ReserveRequest{
		ReferenceID: "order-1",
		Amount:      testutil.USD(t, "100"),
		Instrument:  env.InstrumentFor(cfg, nil),
	})
	require.NoError(t, err)

	resp, err := cancel.CancelReservation(ctx, processor.CancelRequest{
		ReferenceID:     "order-1",
		ReservationGUID: reserved.Events[0].GUID,
	})
	require.NoError(t, err)
	require.Len(t, resp.Events, 1)
	require.Equal(t, domain.PaymentStatusSkipped, resp.Events[0].PaymentStatus)

	// a skipped cancel still releases the hold in the ledger
	available, err := env.Deps.History.AvailableReserved(mustStream(t, env, "order-1"))
	require.NoError(t, err)
	require.True(t, available.IsZero())
}

func TestCancelAllReservations(t *testing.T) {
	ctx := context.Background()
	env := testutil.NewEnv(t)
	reserve := processor.NewReservationProcessor(env.Deps)
	cancel := processor.NewCancelReservationProcessor(env.Deps)

	for _, amount := range []string{"50", "30"} {
		_, err := reserve.Reserve(ctx, processor.ReserveRequest{
			ReferenceID: "order-1",
			Amount:      testutil.USD(t, amount),
			Instrument:  env.Instrument,
		})
		require.NoError(t, err)
	}

	resp, err := cancel.CancelAllReservations(ctx, "order-1", nil)
	require.NoError(t, err)
	require.Len(t, resp.Events, 2)
	require.True(t, resp.Approved())

	available, err := env.Deps.History.AvailableReserved(mustStream(t, env, "order-1"))
	require.NoError(t, err)
	require.True(t, available.IsZero())
}

func TestCancelAllWithNothingOpen(t *testing.T) {
	ctx := context.Background()
	env := testutil.NewEnv(t)
	cancel := processor.NewCancelReservationProcessor(env.Deps)

	resp, err := cancel.CancelAllReservations(ctx, "order-1", nil)
	require.NoError(t, err)
	require.Empty(t, resp.Events)
}

package processor_test

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/josh-kwaku/payment-orchestrator/internal/domain"
	"github.com/josh-kwaku/payment-orchestrator/internal/processor"
	"github.com/josh-kwaku/payment-orchestrator/internal/provider/simulator"
	"github.com/josh-kwaku/payment-orchestrator/internal/testutil"
)

func TestReserveApproved(t *testing.T) {
	ctx := context.Background()
	env := testutil.NewEnv(t)
	p := processor.NewReservationProcessor(env.Deps)

	resp, err := p.Reserve(ctx, processor.ReserveRequest{
		ReferenceID: "order-1",
		Amount:      testutil.USD(t, "100"),
		Instrument:  env.Instrument,
	})
	require.NoError(t, err)
	require.True(t, resp.Approved())
	require.Len(t, resp.Events, 1)

	e := resp.Events[0]
	require.Equal(t, domain.PaymentTypeReserve, e.PaymentType)
	require.Equal(t, domain.PaymentStatusApproved, e.PaymentStatus)
	require.Nil(t, e.ParentGUID)
	require.NotEmpty(t, e.Data["simulator_ref"])

	available, err := env.Deps.History.AvailableReserved(mustStream(t, env, "order-1"))
	require.NoError(t, err)
	require.True(t, testutil.USD(t, "100").Equal(available))
}

func TestReserveDeclinedRecordsFailedEvent(t *testing.T) {
	ctx := context.Background()
	env := testutil.NewEnv(t)
	p := processor.NewReservationProcessor(env.Deps)

	resp, err := p.Reserve(ctx, processor.ReserveRequest{
		ReferenceID: "order-1",
		Amount:      testutil.USD(t, "100"),
		Instrument:  env.NewInstrument(map[string]string{"simulate": simulator.SimulateDecline}),
	})
	require.NoError(t, err)
	require.False(t, resp.Approved())
	require.Len(t, resp.Events, 1)

	e := resp.Events[0]
	require.Equal(t, domain.PaymentStatusFailed, e.PaymentStatus)
	require.False(t, e.TemporaryFailure)
	require.NotEmpty(t, e.InternalMessage)
	require.NotEmpty(t, e.ExternalMessage)

	available, err := env.Deps.History.AvailableReserved(mustStream(t, env, "order-1"))
	require.NoError(t, err)
	require.True(t, available.IsZero())
}

func TestReserveTimeoutIsTemporary(t *testing.T) {
	ctx := context.Background()
	env := testutil.NewEnv(t)
	p := processor.NewReservationProcessor(env.Deps)

	resp, err := p.Reserve(ctx, processor.ReserveRequest{
		ReferenceID: "order-1",
		Amount:      testutil.USD(t, "100"),
		Instrument:  env.NewInstrument(map[string]string{"simulate": simulator.SimulateTimeout}),
	})
	require.NoError(t, err)
	require.Len(t, resp.Events, 1)
	require.Equal(t, domain.PaymentStatusFailed, resp.Events[0].PaymentStatus)
	require.True(t, resp.Events[0].TemporaryFailure)
}

func TestReserveRejectsBadAmount(t *testing.T) {
	ctx := context.Background()
	env := testutil.NewEnv(t)
	p := processor.NewReservationProcessor(env.Deps)

	tests := []struct {
		name   string
		amount domain.MoneyValue
	}{
		{"zero", testutil.USD(t, "0")},
		{"negative", testutil.USD(t, "-5")},
		{"bad currency", domain.MoneyValue{Amount: testutil.USD(t, "5").Amount, Currency: "usd"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := p.Reserve(ctx, processor.ReserveRequest{
				ReferenceID: "order-1",
				Amount:      tt.amount,
				Instrument:  env.Instrument,
			})
			require.ErrorIs(t, err, domain.ErrInvalidAmount)
		})
	}
}

func TestReserveRejectsCurrencySwitch(t *testing.T) {
	ctx := context.Background()
	env := testutil.NewEnv(t)
	p := processor.NewReservationProcessor(env.Deps)

	_, err := p.Reserve(ctx, processor.ReserveRequest{
		ReferenceID: "order-1",
		Amount:      testutil.USD(t, "100"),
		Instrument:  env.Instrument,
	})
	require.NoError(t, err)

	eur := domain.NewMoney(testutil.USD(t, "50").Amount, domain.CurrencyEUR)
	_, err = p.Reserve(ctx, processor.ReserveRequest{
		ReferenceID: "order-1",
		Amount:      eur,
		Instrument:  env.Instrument,
	})
	require.ErrorIs(t, err, domain.ErrCurrencyMismatch)
}

func TestReserveUnknownConfig(t *testing.T) {
	ctx := context.Background()
	env := testutil.NewEnv(t)
	p := processor.NewReservationProcessor(env.Deps)

	instrument := env.Instrument
	instrument.ProviderConfigGUID = uuid.New()
	_, err := p.Reserve(ctx, processor.ReserveRequest{
		ReferenceID: "order-1",
		Amount:      testutil.USD(t, "100"),
		Instrument:  instrument,
	})
	require.ErrorIs(t, err, domain.ErrProviderConfigNotFound)
}

func TestReserveRequiresCapability(t *testing.T) {
	ctx := context.Background()
	env := testutil.NewEnv(t, &barePlugin{id: "bare"})
	p := processor.NewReservationProcessor(env.Deps)

	cfg := env.AddConfig("bare")
	_, err := p.Reserve(ctx, processor.ReserveRequest{
		ReferenceID: "order-1",
		Amount:      testutil.USD(t, "100"),
		Instrument:  env.InstrumentFor(cfg, nil),
	})
	require.ErrorIs(t, err, domain.ErrCapabilityUnsupported)
}

func TestReserveCopiesIdempotencyKey(t *testing.T) {
	ctx := context.Background()
	env := testutil.NewEnv(t)
	p := processor.NewReservationProcessor(env.Deps)

	resp, err := p.Reserve(ctx, processor.ReserveRequest{
		ReferenceID: "order-1",
		Amount:      testutil.USD(t, "100"),
		Instrument:  env.Instrument,
		CustomData:  map[string]string{"idempotency_key": "key-42", "unrelated": "x"},
	})
	require.NoError(t, err)
	require.Equal(t, "key-42", resp.Events[0].Data["idempotency_key"])
	require.NotContains(t, resp.Events[0].Data, "unrelated")
}

func mustStream(t *testing.T, env *testutil.Env, referenceID string) []domain.PaymentEvent {
	t.Helper()
	stream, err := env.Ledger.StreamFor(context.Background(), referenceID)
	require.NoError(t, err)
	return stream
}

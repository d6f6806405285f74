package ledger

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/lib/pq"

	"github.com/josh-kwaku/payment-orchestrator/internal/domain"
)

const eventColumns = `guid, parent_guid, reference_id, payment_type, payment_status,
	amount, currency, instrument, original_instrument, data,
	internal_message, external_message, temporary_failure, created_at`

// PostgresStore persists payment events in the payment_events table.
// Stream order is the insertion order of the seq column.
type PostgresStore struct {
	db *sql.DB
}

func NewPostgresStore(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

func (s *PostgresStore) Append(ctx context.Context, event domain.PaymentEvent) error {
	instrument, err := marshalInstrument(event.Instrument)
	if err != nil {
		return fmt.Errorf("Append: %w", err)
	}
	data, err := json.Marshal(event.Data)
	if err != nil {
		return fmt.Errorf("Append: marshal data: %w", err)
	}

	_, err = s.db.ExecContext(ctx,
		`INSERT INTO payment_events (`+eventColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)`,
		event.GUID, event.ParentGUID, event.ReferenceID, event.PaymentType, event.PaymentStatus,
		event.Amount.Amount, event.Amount.Currency, instrument, event.OriginalInstrument, data,
		event.InternalMessage, event.ExternalMessage, event.TemporaryFailure, event.Date,
	)
	if err != nil {
		if pqErr, ok := err.(*pq.Error); ok && pqErr.Code.Name() == "unique_violation" {
			return fmt.Errorf("Append: %s: %w", event.GUID, domain.ErrDuplicateEvent)
		}
		return fmt.Errorf("Append: %w", err)
	}
	return nil
}

func (s *PostgresStore) StreamFor(ctx context.Context, referenceID string) ([]domain.PaymentEvent, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+eventColumns+` FROM payment_events
		WHERE reference_id = $1 ORDER BY seq`, referenceID,
	)
	if err != nil {
		return nil, fmt.Errorf("StreamFor: %w", err)
	}
	defer rows.Close()

	var events []domain.PaymentEvent
	for rows.Next() {
		e, err := scanEvent(rows)
		if err != nil {
			return nil, fmt.Errorf("StreamFor: scan: %w", err)
		}
		events = append(events, *e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("StreamFor: rows: %w", err)
	}
	return events, nil
}

func scanEvent(rows *sql.Rows) (*domain.PaymentEvent, error) {
	var (
		e          domain.PaymentEvent
		instrument []byte
		data       []byte
	)
	err := rows.Scan(
		&e.GUID, &e.ParentGUID, &e.ReferenceID, &e.PaymentType, &e.PaymentStatus,
		&e.Amount.Amount, &e.Amount.Currency, &instrument, &e.OriginalInstrument, &data,
		&e.InternalMessage, &e.ExternalMessage, &e.TemporaryFailure, &e.Date,
	)
	if err != nil {
		return nil, err
	}

	if len(instrument) > 0 {
		var inst domain.Instrument
		if err := json.Unmarshal(instrument, &inst); err != nil {
			return nil, fmt.Errorf("unmarshal instrument: %w", err)
		}
		e.Instrument = &inst
	}
	if err := json.Unmarshal(data, &e.Data); err != nil {
		return nil, fmt.Errorf("unmarshal data: %w", err)
	}
	return &e, nil
}

func marshalInstrument(instrument *domain.Instrument) ([]byte, error) {
	if instrument == nil {
		return nil, nil
	}
	b, err := json.Marshal(instrument)
	if err != nil {
		return nil, fmt.Errorf("marshal instrument: %w", err)
	}
	return b, nil
}

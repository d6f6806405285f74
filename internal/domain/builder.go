package domain

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// EventBuilder is the only sanctioned way to construct a PaymentEvent.
// Build fails fast when a processor forgets a mandatory field; everything
// else is defaulted.
type EventBuilder struct {
	event     PaymentEvent
	typeSet   bool
	statusSet bool
	amountSet bool
}

func NewEventBuilder() *EventBuilder {
	return &EventBuilder{}
}

func (b *EventBuilder) WithGUID(guid uuid.UUID) *EventBuilder {
	b.event.GUID = guid
	return b
}

func (b *EventBuilder) WithParentGUID(guid uuid.UUID) *EventBuilder {
	b.event.ParentGUID = &guid
	return b
}

func (b *EventBuilder) WithReferenceID(referenceID string) *EventBuilder {
	b.event.ReferenceID = referenceID
	return b
}

func (b *EventBuilder) WithPaymentType(paymentType PaymentType) *EventBuilder {
	b.event.PaymentType = paymentType
	b.typeSet = true
	return b
}

func (b *EventBuilder) WithPaymentStatus(status PaymentStatus) *EventBuilder {
	b.event.PaymentStatus = status
	b.statusSet = true
	return b
}

func (b *EventBuilder) WithAmount(amount MoneyValue) *EventBuilder {
	b.event.Amount = amount
	b.amountSet = true
	return b
}

func (b *EventBuilder) WithInstrument(instrument Instrument) *EventBuilder {
	b.event.Instrument = &instrument
	return b
}

func (b *EventBuilder) WithOriginalInstrument(original bool) *EventBuilder {
	b.event.OriginalInstrument = original
	return b
}

func (b *EventBuilder) WithData(data map[string]string) *EventBuilder {
	b.event.Data = data
	return b
}

func (b *EventBuilder) WithInternalMessage(msg string) *EventBuilder {
	b.event.InternalMessage = msg
	return b
}

func (b *EventBuilder) WithExternalMessage(msg string) *EventBuilder {
	b.event.ExternalMessage = msg
	return b
}

func (b *EventBuilder) WithTemporaryFailure(temporary bool) *EventBuilder {
	b.event.TemporaryFailure = temporary
	return b
}

func (b *EventBuilder) WithDate(date time.Time) *EventBuilder {
	b.event.Date = date
	return b
}

// Build validates mandatory fields and defaults guid, date and the data
// map. The data map is copied so callers cannot mutate the event after
// construction.
func (b *EventBuilder) Build() (PaymentEvent, error) {
	if !b.typeSet {
		return PaymentEvent{}, fmt.Errorf("Build: payment type: %w", ErrMissingField)
	}
	if !b.statusSet {
		return PaymentEvent{}, fmt.Errorf("Build: payment status: %w", ErrMissingField)
	}
	if b.event.ReferenceID == "" {
		return PaymentEvent{}, fmt.Errorf("Build: reference id: %w", ErrMissingField)
	}
	if !b.amountSet {
		return PaymentEvent{}, fmt.Errorf("Build: amount: %w", ErrMissingField)
	}

	event := b.event
	if event.GUID == uuid.Nil {
		event.GUID = uuid.New()
	}
	if event.Date.IsZero() {
		event.Date = time.Now().UTC()
	}

	data := make(map[string]string, len(b.event.Data))
	for k, v := range b.event.Data {
		data[k] = v
	}
	event.Data = data

	return event, nil
}

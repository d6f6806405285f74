package domain

import (
	"time"

	"github.com/google/uuid"
)

type PaymentType string

const (
	PaymentTypeReserve       PaymentType = "RESERVE"
	PaymentTypeModifyReserve PaymentType = "MODIFY_RESERVE"
	PaymentTypeCancelReserve PaymentType = "CANCEL_RESERVE"
	PaymentTypeCharge        PaymentType = "CHARGE"
	PaymentTypeCredit        PaymentType = "CREDIT"
	PaymentTypeManualCredit  PaymentType = "MANUAL_CREDIT"
	PaymentTypeReverseCharge PaymentType = "REVERSE_CHARGE"
)

type PaymentStatus string

const (
	PaymentStatusApproved PaymentStatus = "APPROVED"
	PaymentStatusSkipped  PaymentStatus = "SKIPPED"
	PaymentStatusFailed   PaymentStatus = "FAILED"
)

// PaymentEvent is one immutable entry of the append-only payment ledger.
// Compensation is expressed with new events pointing at their target via
// ParentGUID, never by mutating a recorded event.
type PaymentEvent struct {
	GUID               uuid.UUID
	ParentGUID         *uuid.UUID
	ReferenceID        string
	PaymentType        PaymentType
	PaymentStatus      PaymentStatus
	Amount             MoneyValue
	Instrument         *Instrument
	OriginalInstrument bool
	Data               map[string]string
	InternalMessage    string
	ExternalMessage    string
	TemporaryFailure   bool
	Date               time.Time
}

func (e PaymentEvent) IsApproved() bool {
	return e.PaymentStatus == PaymentStatusApproved
}

// IsCredit reports whether the event returns money to the customer,
// covering provider credits, manual credits and simulated reverse charges.
func (e PaymentEvent) IsCredit() bool {
	return e.PaymentType == PaymentTypeCredit || e.PaymentType == PaymentTypeManualCredit
}

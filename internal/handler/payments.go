package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/josh-kwaku/payment-orchestrator/internal/domain"
	"github.com/josh-kwaku/payment-orchestrator/internal/history"
	"github.com/josh-kwaku/payment-orchestrator/internal/logging"
	"github.com/josh-kwaku/payment-orchestrator/internal/processor"
)

type paymentWorkflow interface {
	Reserve(ctx context.Context, req processor.ReserveRequest) (*processor.Response, error)
	ModifyReservation(ctx context.Context, req processor.ModifyRequest) (*processor.Response, error)
	CancelReservation(ctx context.Context, req processor.CancelRequest) (*processor.Response, error)
	CancelAllReservations(ctx context.Context, referenceID string, customData map[string]string) (*processor.Response, error)
	Charge(ctx context.Context, req processor.ChargeRequest) (*processor.Response, error)
	Credit(ctx context.Context, req processor.CreditRequest) (*processor.Response, error)
	ManualCredit(ctx context.Context, req processor.ManualCreditRequest) (*processor.Response, error)
	ReverseCharge(ctx context.Context, req processor.ReverseChargeRequest) (*processor.Response, error)
	Summary(ctx context.Context, referenceID string) (*history.Aggregate, error)
	Events(ctx context.Context, referenceID string) ([]domain.PaymentEvent, error)
}

type PaymentHandler struct {
	payments paymentWorkflow
}

func NewPaymentHandler(payments paymentWorkflow) *PaymentHandler {
	return &PaymentHandler{payments: payments}
}

type moneyDTO struct {
	Amount   string `json:"amount"`
	Currency string `json:"currency"`
}

func (m moneyDTO) Validate() []FieldError {
	var errs []FieldError
	if m.Amount == "" {
		errs = append(errs, FieldError{Field: "amount", Message: "required"})
	} else if d, err := decimal.NewFromString(m.Amount); err != nil {
		errs = append(errs, FieldError{Field: "amount", Message: "must be a decimal number"})
	} else if !d.IsPositive() {
		errs = append(errs, FieldError{Field: "amount", Message: "must be greater than 0"})
	}
	if m.Currency == "" {
		errs = append(errs, FieldError{Field: "currency", Message: "required"})
	} else if !domain.Currency(m.Currency).IsValid() {
		errs = append(errs, FieldError{Field: "currency", Message: "must be a three-letter uppercase code"})
	}
	return errs
}

func (m moneyDTO) toMoney() domain.MoneyValue {
	d, _ := decimal.NewFromString(m.Amount)
	return domain.NewMoney(d, domain.Currency(m.Currency))
}

func toMoneyDTO(m domain.MoneyValue) moneyDTO {
	return moneyDTO{Amount: m.Amount.String(), Currency: string(m.Currency)}
}

type instrumentDTO struct {
	GUID               uuid.UUID         `json:"guid"`
	Name               string            `json:"name"`
	ProviderConfigGUID uuid.UUID         `json:"provider_config_guid"`
	Data               map[string]string `json:"data,omitempty"`
}

func (i instrumentDTO) Validate() []FieldError {
	var errs []FieldError
	if i.ProviderConfigGUID == uuid.Nil {
		errs = append(errs, FieldError{Field: "instrument.provider_config_guid", Message: "required"})
	}
	return errs
}

func (i instrumentDTO) toInstrument() domain.Instrument {
	return domain.Instrument{
		GUID:               i.GUID,
		Name:               i.Name,
		ProviderConfigGUID: i.ProviderConfigGUID,
		Data:               i.Data,
	}
}

type eventDTO struct {
	GUID               uuid.UUID         `json:"guid"`
	ParentGUID         *uuid.UUID        `json:"parent_guid,omitempty"`
	ReferenceID        string            `json:"reference_id"`
	PaymentType        string            `json:"payment_type"`
	PaymentStatus      string            `json:"payment_status"`
	Amount             moneyDTO          `json:"amount"`
	Instrument         *instrumentDTO    `json:"instrument,omitempty"`
	OriginalInstrument bool              `json:"original_instrument,omitempty"`
	Data               map[string]string `json:"data,omitempty"`
	ExternalMessage    string            `json:"external_message,omitempty"`
	TemporaryFailure   bool              `json:"temporary_failure,omitempty"`
	Date               time.Time         `json:"date"`
}

func toEventDTO(e domain.PaymentEvent) eventDTO {
	dto := eventDTO{
		GUID:               e.GUID,
		ParentGUID:         e.ParentGUID,
		ReferenceID:        e.ReferenceID,
		PaymentType:        string(e.PaymentType),
		PaymentStatus:      string(e.PaymentStatus),
		Amount:             toMoneyDTO(e.Amount),
		OriginalInstrument: e.OriginalInstrument,
		Data:               e.Data,
		ExternalMessage:    e.ExternalMessage,
		TemporaryFailure:   e.TemporaryFailure,
		Date:               e.Date,
	}
	if e.Instrument != nil {
		i := instrumentDTO{
			GUID:               e.Instrument.GUID,
			Name:               e.Instrument.Name,
			ProviderConfigGUID: e.Instrument.ProviderConfigGUID,
			Data:               e.Instrument.Data,
		}
		dto.Instrument = &i
	}
	return dto
}

type operationDTO struct {
	Approved bool       `json:"approved"`
	Events   []eventDTO `json:"events"`
}

func toOperationDTO(resp *processor.Response) operationDTO {
	dto := operationDTO{Approved: resp.Approved(), Events: make([]eventDTO, 0, len(resp.Events))}
	for _, e := range resp.Events {
		dto.Events = append(dto.Events, toEventDTO(e))
	}
	return dto
}

// customData merges the Idempotency-Key header into the request's custom
// data so the key travels into every recorded event.
func customData(r *http.Request, data map[string]string) map[string]string {
	key := r.Header.Get("Idempotency-Key")
	if key == "" {
		return data
	}
	out := make(map[string]string, len(data)+1)
	for k, v := range data {
		out[k] = v
	}
	out["idempotency_key"] = key
	return out
}

type reserveRequest struct {
	Amount     moneyDTO          `json:"amount"`
	Instrument instrumentDTO     `json:"instrument"`
	CustomData map[string]string `json:"custom_data"`
}

func (r reserveRequest) Validate() []FieldError {
	return append(r.Amount.Validate(), r.Instrument.Validate()...)
}

func (h *PaymentHandler) Reserve(w http.ResponseWriter, r *http.Request) {
	var req reserveRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		RespondAppError(w, ErrInvalidRequest, nil)
		return
	}
	if fields := req.Validate(); len(fields) > 0 {
		RespondValidationError(w, fields)
		return
	}

	resp, err := h.payments.Reserve(r.Context(), processor.ReserveRequest{
		ReferenceID: r.PathValue("ref"),
		Amount:      req.Amount.toMoney(),
		Instrument:  req.Instrument.toInstrument(),
		CustomData:  customData(r, req.CustomData),
	})
	if err != nil {
		logging.FromContext(r.Context()).Warn("reserve failed", "error", err)
		RespondDomainError(w, err)
		return
	}
	RespondSuccess(w, http.StatusCreated, toOperationDTO(resp))
}

type modifyRequest struct {
	Amount     moneyDTO          `json:"amount"`
	CustomData map[string]string `json:"custom_data"`
}

func (h *PaymentHandler) ModifyReservation(w http.ResponseWriter, r *http.Request) {
	reservationGUID, err := uuid.Parse(r.PathValue("guid"))
	if err != nil {
		RespondAppError(w, ErrResourceNotFound, nil)
		return
	}

	var req modifyRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		RespondAppError(w, ErrInvalidRequest, nil)
		return
	}
	if fields := req.Amount.Validate(); len(fields) > 0 {
		RespondValidationError(w, fields)
		return
	}

	resp, err := h.payments.ModifyReservation(r.Context(), processor.ModifyRequest{
		ReferenceID:     r.PathValue("ref"),
		ReservationGUID: reservationGUID,
		Amount:          req.Amount.toMoney(),
		CustomData:      customData(r, req.CustomData),
	})
	if err != nil {
		logging.FromContext(r.Context()).Warn("modify reservation failed", "error", err)
		RespondDomainError(w, err)
		return
	}
	RespondSuccess(w, http.StatusCreated, toOperationDTO(resp))
}

type cancelRequest struct {
	CustomData map[string]string `json:"custom_data"`
}

func (h *PaymentHandler) CancelReservation(w http.ResponseWriter, r *http.Request) {
	reservationGUID, err := uuid.Parse(r.PathValue("guid"))
	if err != nil {
		RespondAppError(w, ErrResourceNotFound, nil)
		return
	}

	req := cancelRequest{}
	if r.ContentLength > 0 {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			RespondAppError(w, ErrInvalidRequest, nil)
			return
		}
	}

	resp, err := h.payments.CancelReservation(r.Context(), processor.CancelRequest{
		ReferenceID:     r.PathValue("ref"),
		ReservationGUID: reservationGUID,
		CustomData:      customData(r, req.CustomData),
	})
	if err != nil {
		logging.FromContext(r.Context()).Warn("cancel reservation failed", "error", err)
		RespondDomainError(w, err)
		return
	}
	RespondSuccess(w, http.StatusCreated, toOperationDTO(resp))
}

func (h *PaymentHandler) CancelAllReservations(w http.ResponseWriter, r *http.Request) {
	req := cancelRequest{}
	if r.ContentLength > 0 {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			RespondAppError(w, ErrInvalidRequest, nil)
			return
		}
	}

	resp, err := h.payments.CancelAllReservations(r.Context(), r.PathValue("ref"), customData(r, req.CustomData))
	if err != nil {
		logging.FromContext(r.Context()).Warn("cancel all reservations failed", "error", err)
		RespondDomainError(w, err)
		return
	}
	RespondSuccess(w, http.StatusCreated, toOperationDTO(resp))
}

type chargeRequest struct {
	Amount     moneyDTO          `json:"amount"`
	Instrument instrumentDTO     `json:"instrument"`
	CustomData map[string]string `json:"custom_data"`
}

func (r chargeRequest) Validate() []FieldError {
	return append(r.Amount.Validate(), r.Instrument.Validate()...)
}

func (h *PaymentHandler) Charge(w http.ResponseWriter, r *http.Request) {
	var req chargeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		RespondAppError(w, ErrInvalidRequest, nil)
		return
	}
	if fields := req.Validate(); len(fields) > 0 {
		RespondValidationError(w, fields)
		return
	}

	resp, err := h.payments.Charge(r.Context(), processor.ChargeRequest{
		ReferenceID: r.PathValue("ref"),
		Amount:      req.Amount.toMoney(),
		Instrument:  req.Instrument.toInstrument(),
		CustomData:  customData(r, req.CustomData),
	})
	if err != nil {
		logging.FromContext(r.Context()).Warn("charge failed", "error", err)
		RespondDomainError(w, err)
		return
	}
	RespondSuccess(w, http.StatusCreated, toOperationDTO(resp))
}

type creditRequest struct {
	Amount     moneyDTO          `json:"amount"`
	CustomData map[string]string `json:"custom_data"`
}

func (h *PaymentHandler) Credit(w http.ResponseWriter, r *http.Request) {
	var req creditRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		RespondAppError(w, ErrInvalidRequest, nil)
		return
	}
	if fields := req.Amount.Validate(); len(fields) > 0 {
		RespondValidationError(w, fields)
		return
	}

	resp, err := h.payments.Credit(r.Context(), processor.CreditRequest{
		ReferenceID: r.PathValue("ref"),
		Amount:      req.Amount.toMoney(),
		CustomData:  customData(r, req.CustomData),
	})
	if err != nil {
		logging.FromContext(r.Context()).Warn("credit failed", "error", err)
		RespondDomainError(w, err)
		return
	}
	RespondSuccess(w, http.StatusCreated, toOperationDTO(resp))
}

type manualCreditRequest struct {
	Amount     moneyDTO          `json:"amount"`
	Reason     string            `json:"reason"`
	CustomData map[string]string `json:"custom_data"`
}

func (h *PaymentHandler) ManualCredit(w http.ResponseWriter, r *http.Request) {
	var req manualCreditRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		RespondAppError(w, ErrInvalidRequest, nil)
		return
	}
	if fields := req.Amount.Validate(); len(fields) > 0 {
		RespondValidationError(w, fields)
		return
	}

	resp, err := h.payments.ManualCredit(r.Context(), processor.ManualCreditRequest{
		ReferenceID: r.PathValue("ref"),
		Amount:      req.Amount.toMoney(),
		Reason:      req.Reason,
		CustomData:  customData(r, req.CustomData),
	})
	if err != nil {
		logging.FromContext(r.Context()).Warn("manual credit failed", "error", err)
		RespondDomainError(w, err)
		return
	}
	RespondSuccess(w, http.StatusCreated, toOperationDTO(resp))
}

type reverseChargeRequest struct {
	Amount     moneyDTO          `json:"amount"`
	CustomData map[string]string `json:"custom_data"`
}

func (h *PaymentHandler) ReverseCharge(w http.ResponseWriter, r *http.Request) {
	chargeGUID, err := uuid.Parse(r.PathValue("guid"))
	if err != nil {
		RespondAppError(w, ErrResourceNotFound, nil)
		return
	}

	var req reverseChargeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		RespondAppError(w, ErrInvalidRequest, nil)
		return
	}
	if fields := req.Amount.Validate(); len(fields) > 0 {
		RespondValidationError(w, fields)
		return
	}

	resp, err := h.payments.ReverseCharge(r.Context(), processor.ReverseChargeRequest{
		ReferenceID: r.PathValue("ref"),
		ChargeGUID:  chargeGUID,
		Amount:      req.Amount.toMoney(),
		CustomData:  customData(r, req.CustomData),
	})
	if err != nil {
		logging.FromContext(r.Context()).Warn("reverse charge failed", "error", err)
		RespondDomainError(w, err)
		return
	}
	RespondSuccess(w, http.StatusCreated, toOperationDTO(resp))
}

type summaryDTO struct {
	ReferenceID      string     `json:"reference_id"`
	Reserved         moneyDTO   `json:"reserved"`
	Charged          moneyDTO   `json:"charged"`
	Credited         moneyDTO   `json:"credited"`
	OpenReservations []eventDTO `json:"open_reservations"`
}

func (h *PaymentHandler) Summary(w http.ResponseWriter, r *http.Request) {
	referenceID := r.PathValue("ref")

	agg, err := h.payments.Summary(r.Context(), referenceID)
	if err != nil {
		logging.FromContext(r.Context()).Warn("summary failed", "error", err)
		RespondDomainError(w, err)
		return
	}

	dto := summaryDTO{
		ReferenceID:      referenceID,
		Reserved:         toMoneyDTO(agg.Reserved),
		Charged:          toMoneyDTO(agg.Charged),
		Credited:         toMoneyDTO(agg.Credited),
		OpenReservations: make([]eventDTO, 0, len(agg.OpenReservations)),
	}
	for _, e := range agg.OpenReservations {
		dto.OpenReservations = append(dto.OpenReservations, toEventDTO(e))
	}
	RespondSuccess(w, http.StatusOK, dto)
}

func (h *PaymentHandler) Events(w http.ResponseWriter, r *http.Request) {
	events, err := h.payments.Events(r.Context(), r.PathValue("ref"))
	if err != nil {
		logging.FromContext(r.Context()).Warn("event listing failed", "error", err)
		RespondDomainError(w, err)
		return
	}

	dtos := make([]eventDTO, 0, len(events))
	for _, e := range events {
		dtos = append(dtos, toEventDTO(e))
	}
	RespondSuccess(w, http.StatusOK, dtos)
}

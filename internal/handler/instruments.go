package handler

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/google/uuid"

	"github.com/josh-kwaku/payment-orchestrator/internal/domain"
	"github.com/josh-kwaku/payment-orchestrator/internal/logging"
	"github.com/josh-kwaku/payment-orchestrator/internal/processor"
	"github.com/josh-kwaku/payment-orchestrator/internal/provider"
)

type instrumentWorkflow interface {
	InstructionFields(ctx context.Context, req processor.CreateInstrumentRequest) (*provider.FieldSchema, error)
	Instructions(ctx context.Context, req processor.CreateInstrumentRequest) (*provider.Instructions, error)
	CreationFields(ctx context.Context, req processor.CreateInstrumentRequest) (*provider.FieldSchema, error)
	CreateInstrument(ctx context.Context, req processor.CreateInstrumentRequest) (*domain.Instrument, error)
}

// InstrumentHandler exposes the instrument creation wizard. Each step
// takes the form fields collected so far and is addressed by the
// provider configuration the instrument will belong to.
type InstrumentHandler struct {
	instruments instrumentWorkflow
}

func NewInstrumentHandler(instruments instrumentWorkflow) *InstrumentHandler {
	return &InstrumentHandler{instruments: instruments}
}

type wizardRequest struct {
	Form       map[string]string `json:"form"`
	CustomData map[string]string `json:"custom_data"`
}

type fieldSchemaDTO struct {
	Fields   []string `json:"fields"`
	Saveable bool     `json:"saveable"`
}

type instructionsDTO struct {
	Communication map[string]string `json:"communication"`
	Payload       map[string]string `json:"payload,omitempty"`
}

func (h *InstrumentHandler) wizardStep(w http.ResponseWriter, r *http.Request) (processor.CreateInstrumentRequest, bool) {
	configGUID, err := uuid.Parse(r.PathValue("config"))
	if err != nil {
		RespondAppError(w, ErrResourceNotFound, nil)
		return processor.CreateInstrumentRequest{}, false
	}

	req := wizardRequest{}
	if r.ContentLength > 0 {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			RespondAppError(w, ErrInvalidRequest, nil)
			return processor.CreateInstrumentRequest{}, false
		}
	}

	return processor.CreateInstrumentRequest{
		ConfigGUID: configGUID,
		Form:       req.Form,
		CustomData: req.CustomData,
	}, true
}

func (h *InstrumentHandler) InstructionFields(w http.ResponseWriter, r *http.Request) {
	req, ok := h.wizardStep(w, r)
	if !ok {
		return
	}

	schema, err := h.instruments.InstructionFields(r.Context(), req)
	if err != nil {
		logging.FromContext(r.Context()).Warn("instruction fields failed", "error", err)
		RespondDomainError(w, err)
		return
	}
	RespondSuccess(w, http.StatusOK, fieldSchemaDTO{Fields: schema.Fields, Saveable: schema.Saveable})
}

func (h *InstrumentHandler) Instructions(w http.ResponseWriter, r *http.Request) {
	req, ok := h.wizardStep(w, r)
	if !ok {
		return
	}

	instructions, err := h.instruments.Instructions(r.Context(), req)
	if err != nil {
		logging.FromContext(r.Context()).Warn("instructions failed", "error", err)
		RespondDomainError(w, err)
		return
	}
	RespondSuccess(w, http.StatusOK, instructionsDTO{
		Communication: instructions.Communication,
		Payload:       instructions.Payload,
	})
}

func (h *InstrumentHandler) CreationFields(w http.ResponseWriter, r *http.Request) {
	req, ok := h.wizardStep(w, r)
	if !ok {
		return
	}

	schema, err := h.instruments.CreationFields(r.Context(), req)
	if err != nil {
		logging.FromContext(r.Context()).Warn("creation fields failed", "error", err)
		RespondDomainError(w, err)
		return
	}
	RespondSuccess(w, http.StatusOK, fieldSchemaDTO{Fields: schema.Fields, Saveable: schema.Saveable})
}

func (h *InstrumentHandler) Create(w http.ResponseWriter, r *http.Request) {
	req, ok := h.wizardStep(w, r)
	if !ok {
		return
	}

	instrument, err := h.instruments.CreateInstrument(r.Context(), req)
	if err != nil {
		logging.FromContext(r.Context()).Warn("instrument creation failed", "error", err)
		RespondDomainError(w, err)
		return
	}
	RespondSuccess(w, http.StatusCreated, instrumentDTO{
		GUID:               instrument.GUID,
		Name:               instrument.Name,
		ProviderConfigGUID: instrument.ProviderConfigGUID,
		Data:               instrument.Data,
	})
}

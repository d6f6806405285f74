package handler

import "net/http"

type AppError struct {
	Status  int
	Code    string
	Message string
}

func (e *AppError) Error() string { return e.Message }

var (
	ErrInvalidRequest   = &AppError{http.StatusBadRequest, "INVALID_REQUEST", "Invalid request body"}
	ErrValidationFailed = &AppError{http.StatusBadRequest, "VALIDATION_FAILED", "Validation failed"}
	ErrResourceNotFound = &AppError{http.StatusNotFound, "RESOURCE_NOT_FOUND", "Resource not found"}
	ErrInternalError    = &AppError{http.StatusInternalServerError, "INTERNAL_ERROR", "An unexpected error occurred"}

	ErrInvalidAmount          = &AppError{http.StatusBadRequest, "INVALID_AMOUNT", "Amount must be greater than zero"}
	ErrCurrencyMismatch       = &AppError{http.StatusUnprocessableEntity, "CURRENCY_MISMATCH", "Currency differs from the one already in use"}
	ErrInsufficientReserved   = &AppError{http.StatusUnprocessableEntity, "INSUFFICIENT_RESERVED", "Charge exceeds the open reserved amount"}
	ErrInsufficientCharged    = &AppError{http.StatusUnprocessableEntity, "INSUFFICIENT_CHARGED", "Refund exceeds the refundable amount"}
	ErrReservationNotOpen     = &AppError{http.StatusUnprocessableEntity, "RESERVATION_NOT_OPEN", "Reservation is not open"}
	ErrChargeNotFound         = &AppError{http.StatusUnprocessableEntity, "CHARGE_NOT_FOUND", "No such approved charge"}
	ErrProviderConfigNotFound = &AppError{http.StatusUnprocessableEntity, "PROVIDER_CONFIG_NOT_FOUND", "Payment provider configuration not found"}
	ErrPluginNotRegistered    = &AppError{http.StatusUnprocessableEntity, "PLUGIN_NOT_REGISTERED", "Payment provider plugin not registered"}
	ErrCapabilityUnsupported  = &AppError{http.StatusUnprocessableEntity, "CAPABILITY_UNSUPPORTED", "Provider does not support this operation"}
	ErrDuplicateEvent         = &AppError{http.StatusConflict, "DUPLICATE_EVENT", "Event already recorded"}
)

package domain

import "errors"

var (
	ErrNotFound               = errors.New("not found")
	ErrMissingField           = errors.New("required field not set")
	ErrCurrencyMismatch       = errors.New("currency mismatch")
	ErrInvalidAmount          = errors.New("amount must be greater than zero")
	ErrInvalidRequest         = errors.New("invalid request")
	ErrProviderConfigNotFound = errors.New("payment provider configuration not found")
	ErrPluginNotRegistered    = errors.New("payment provider plugin not registered")
	ErrCapabilityUnsupported  = errors.New("capability not supported by payment provider")
	ErrInsufficientReserved   = errors.New("insufficient reserved amount")
	ErrInsufficientCharged    = errors.New("insufficient charged amount")
	ErrReservationNotOpen     = errors.New("reservation is not open")
	ErrChargeNotFound         = errors.New("charge event not found")
	ErrDuplicateEvent         = errors.New("duplicate event guid")
)

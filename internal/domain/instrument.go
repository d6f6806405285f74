package domain

import "github.com/google/uuid"

// Instrument is a stored/tokenized payment method reference. Data holds
// provider-specific context (tokens, masked numbers) the core never
// interprets.
type Instrument struct {
	GUID               uuid.UUID
	Name               string
	ProviderConfigGUID uuid.UUID
	Data               map[string]string
}

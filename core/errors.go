package core

import "errors"

// Errors a generation attempt can end with. The orchestrator maps every
// failure to one of these; anything it cannot recognize is reported with the
// raw provider message.
var (
	// ErrEmptyPrompt is returned when the prompt is blank after trimming.
	ErrEmptyPrompt = errors.New("prompt is empty")

	// ErrBusy is returned when a generation is already in flight for the user.
	ErrBusy = errors.New("generation already in progress")

	// ErrNoCredential is returned when neither a manual nor an ambient API key
	// is available.
	ErrNoCredential = errors.New("no API key available")

	// ErrNoImages is returned when the provider answered but produced no
	// image data. This is a domain error, not a transport error.
	ErrNoImages = errors.New("no images generated")

	// ErrQuotaExceeded is returned when the credential has run out of quota.
	ErrQuotaExceeded = errors.New("quota exceeded")

	// ErrModelNotFound is returned when the requested model or entity does
	// not exist for the credential in use.
	ErrModelNotFound = errors.New("model not found")

	// ErrInvalidCredential is returned when the provider rejected the API key.
	ErrInvalidCredential = errors.New("invalid API key")
)

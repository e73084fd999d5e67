package ai

import (
	"Easel/core"
	"errors"
	"fmt"
	"strings"

	"google.golang.org/genai"
)

// Classify maps a provider failure to one of the core sentinel errors.
// Structured API error codes are checked first; the message text is only a
// fallback for errors that arrive without one. Anything unrecognized is
// returned unchanged so the raw message reaches the user.
func Classify(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, core.ErrNoImages) {
		return err
	}

	var apiErr genai.APIError
	if errors.As(err, &apiErr) {
		switch {
		case apiErr.Code == 429 || apiErr.Status == "RESOURCE_EXHAUSTED":
			return fmt.Errorf("%w: %s", core.ErrQuotaExceeded, apiErr.Message)
		case apiErr.Code == 404 || apiErr.Status == "NOT_FOUND":
			return fmt.Errorf("%w: %s", core.ErrModelNotFound, apiErr.Message)
		case apiErr.Code == 401 || apiErr.Code == 403 ||
			apiErr.Status == "UNAUTHENTICATED" || apiErr.Status == "PERMISSION_DENIED":
			return fmt.Errorf("%w: %s", core.ErrInvalidCredential, apiErr.Message)
		case apiErr.Code == 400 && strings.Contains(apiErr.Message, "API key not valid"):
			return fmt.Errorf("%w: %s", core.ErrInvalidCredential, apiErr.Message)
		}
	}

	msg := err.Error()
	switch {
	case strings.Contains(msg, "You exceeded your current quota"),
		strings.Contains(msg, "RESOURCE_EXHAUSTED"):
		return fmt.Errorf("%w: %v", core.ErrQuotaExceeded, err)
	case strings.Contains(msg, "API key not valid"),
		strings.Contains(msg, "API_KEY_INVALID"),
		strings.Contains(msg, "PERMISSION_DENIED"):
		return fmt.Errorf("%w: %v", core.ErrInvalidCredential, err)
	case strings.Contains(msg, "is not found"),
		strings.Contains(msg, "NOT_FOUND"):
		return fmt.Errorf("%w: %v", core.ErrModelNotFound, err)
	}
	return err
}

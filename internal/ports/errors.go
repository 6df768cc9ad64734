package ports

import (
	"errors"
	"fmt"
)

// ErrNoRoute is the soft failure: the provider has no route for the
// requested mode between the two locations.
var ErrNoRoute = errors.New("no route")

// ProviderHardError reports an authorization, quota or configuration
// failure. It is never retried or replaced by a fallback estimate.
type ProviderHardError struct {
	Provider string
	Status   string
	Message  string
}

func (e *ProviderHardError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("%s: %s", e.Provider, e.Status)
	}
	return fmt.Sprintf("%s: %s: %s", e.Provider, e.Status, e.Message)
}

// IsHardError reports whether err wraps a *ProviderHardError.
func IsHardError(err error) bool {
	var he *ProviderHardError
	return errors.As(err, &he)
}

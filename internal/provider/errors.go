package provider

import (
	"errors"
	"fmt"
)

// CredentialError reports a missing provider credential. It is raised before
// any network I/O so callers can surface configuration problems distinctly
// from transient provider failures.
type CredentialError struct {
	Provider string
}

func (e *CredentialError) Error() string {
	return fmt.Sprintf("%s provider credential not configured", e.Provider)
}

// IsCredentialError reports whether err is a missing-credential error.
func IsCredentialError(err error) bool {
	var ce *CredentialError
	return errors.As(err, &ce)
}

// ProviderError reports a non-success response or malformed body from an
// upstream provider. Callers recover from it with a fallback value; it never
// reaches a client verbatim.
type ProviderError struct {
	Provider   string
	StatusCode int
	Message    string
}

func (e *ProviderError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("%s provider status %d: %s", e.Provider, e.StatusCode, truncate(e.Message, 200))
	}
	return fmt.Sprintf("%s provider: %s", e.Provider, truncate(e.Message, 200))
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}

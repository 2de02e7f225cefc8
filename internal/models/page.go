package models

import "fmt"

const (
	DefaultLimit = 50
	MaxLimit     = 1000
)

// ValidationError reports a client-supplied value that is out of range.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s %s", e.Field, e.Message)
}

// PageRequest carries pagination for alert listings.
type PageRequest struct {
	Limit  int
	Offset int
}

func DefaultPageRequest() PageRequest {
	return PageRequest{Limit: DefaultLimit, Offset: 0}
}

// Normalize clamps an oversized limit to MaxLimit and rejects a limit
// below 1 or a negative offset. The clamp is applied first.
func (p PageRequest) Normalize() (PageRequest, error) {
	if p.Limit > MaxLimit {
		p.Limit = MaxLimit
	}
	if p.Limit < 1 {
		return p, &ValidationError{Field: "limit", Message: "must be >= 1"}
	}
	if p.Offset < 0 {
		return p, &ValidationError{Field: "offset", Message: "must be >= 0"}
	}
	return p, nil
}

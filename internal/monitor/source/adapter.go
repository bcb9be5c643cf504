package source

import (
	"context"
	"fmt"

	"golang-news-radar/internal/entity"
)

// ReasonQuota marks a source skipped because its daily quota is exhausted.
const ReasonQuota = "quota"

// UnavailableError signals that a source cannot serve right now. The failover
// chain treats it as a skip, not a fatal error.
type UnavailableError struct {
	Source string
	Reason string
	Err    error
}

func (e *UnavailableError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("source %s unavailable (%s): %v", e.Source, e.Reason, e.Err)
	}
	return fmt.Sprintf("source %s unavailable (%s)", e.Source, e.Reason)
}

func (e *UnavailableError) Unwrap() error {
	return e.Err
}

// Adapter is a single upstream news origin.
type Adapter interface {
	Name() string
	Priority() int
	FetchLatest(ctx context.Context, limit int) ([]entity.NewsItem, error)
}

package dto

import "golang-news-radar/internal/entity"

// StatusReport is the operational snapshot returned by the status command and
// the status endpoint.
type StatusReport struct {
	Date       string               `json:"date"`
	Summary    *entity.DailySummary `json:"summary,omitempty"`
	Sources    []entity.SourceState `json:"sources"`
	LastSource string               `json:"last_source,omitempty"`
	LedgerSize int                  `json:"ledger_size"`
}

// AIHealthReport is the result of the AI connectivity probe.
type AIHealthReport struct {
	Provider  string `json:"provider"`
	Reachable bool   `json:"reachable"`
	Error     string `json:"error,omitempty"`
}

package entity

// SourceState describes one adapter in the failover chain, including its
// metered-quota position when applicable.
type SourceState struct {
	Name           string `json:"name"`
	Priority       int    `json:"priority"`
	Metered        bool   `json:"metered"`
	DailyCount     int    `json:"daily_count,omitempty"`
	DailyLimit     int    `json:"daily_limit,omitempty"`
	QuotaRemaining int    `json:"quota_remaining,omitempty"`
}

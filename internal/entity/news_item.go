package entity

import (
	"crypto/md5"
	"encoding/hex"
	"time"
)

// NewsItem represents one news article as fetched from an upstream source.
// It is immutable once fetched; downstream stages reference it by ID.
type NewsItem struct {
	Title       string     `json:"title"`
	Summary     string     `json:"summary,omitempty"`
	Source      string     `json:"source"`
	URL         string     `json:"url"`
	PublishedAt *time.Time `json:"published_at,omitempty"`
	Category    string     `json:"category,omitempty"`
}

// ID returns the stable identifier of the item, derived from title and
// source name. Items republished with the same title by the same source
// collapse to one identifier.
func (n NewsItem) ID() string {
	sum := md5.Sum([]byte(n.Title + "|" + n.Source))
	return hex.EncodeToString(sum[:])[:10]
}

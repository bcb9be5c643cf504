package entity

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNewsItemIDStable(t *testing.T) {
	a := NewsItem{Title: "国常会部署新措施", Source: "央视新闻"}
	b := NewsItem{Title: "国常会部署新措施", Source: "央视新闻", URL: "https://example.com/different"}

	// URL and other fields do not influence the identifier.
	assert.Equal(t, a.ID(), b.ID())
	assert.Len(t, a.ID(), 10)
}

func TestNewsItemIDVariesBySource(t *testing.T) {
	a := NewsItem{Title: "同一标题", Source: "央视新闻"}
	b := NewsItem{Title: "同一标题", Source: "头条新闻"}
	assert.NotEqual(t, a.ID(), b.ID())
}

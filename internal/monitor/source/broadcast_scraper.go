package source

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"regexp"
	"strings"
	"time"

	"golang-news-radar/internal/entity"
	"golang-news-radar/internal/monitor/config"
	"golang-news-radar/pkg/logger"
	"golang-news-radar/pkg/utils"

	"github.com/PuerkitoBio/goquery"
	"github.com/mauidude/go-readability"
	"github.com/patrickmn/go-cache"
)

var articleDatePattern = regexp.MustCompile(`/(\d{4})/(\d{2})/(\d{2})/`)

// BroadcastScraperAdapter scrapes a broadcast news portal's homepage. It is
// unmetered and sits behind the headline API in the failover chain.
type BroadcastScraperAdapter struct {
	cfg           config.Source
	client        *http.Client
	inmemoryCache *cache.Cache
	logger        *logger.Logger
}

// NewBroadcastScraperAdapter creates a scraper adapter for the portal at
// cfg.URL.
func NewBroadcastScraperAdapter(cfg config.Source, log *logger.Logger) *BroadcastScraperAdapter {
	return &BroadcastScraperAdapter{
		cfg: cfg,
		client: &http.Client{
			Timeout: 15 * time.Second,
		},
		inmemoryCache: cache.New(5*time.Minute, 10*time.Minute),
		logger:        log,
	}
}

func (a *BroadcastScraperAdapter) Name() string {
	return a.cfg.Name
}

func (a *BroadcastScraperAdapter) Priority() int {
	return a.cfg.Priority
}

// FetchLatest scrapes up to limit article links from the portal homepage and
// pulls a short body for each.
func (a *BroadcastScraperAdapter) FetchLatest(ctx context.Context, limit int) ([]entity.NewsItem, error) {
	body, err := a.fetch(ctx, a.cfg.URL)
	if err != nil {
		return nil, &UnavailableError{Source: a.cfg.Name, Reason: "network", Err: err}
	}

	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return nil, &UnavailableError{Source: a.cfg.Name, Reason: "parse", Err: err}
	}

	seen := make(map[string]bool)
	items := make([]entity.NewsItem, 0, limit)

	doc.Find("a[href]").EachWithBreak(func(_ int, sel *goquery.Selection) bool {
		href, _ := sel.Attr("href")
		title := utils.CleanToValidUTF8(strings.TrimSpace(sel.Text()))
		if !a.looksLikeArticle(href, title) || seen[href] {
			return true
		}
		seen[href] = true

		item := entity.NewsItem{
			Title:    title,
			Source:   a.cfg.Name,
			URL:      href,
			Category: "时政",
		}
		if ts := publishTimeFromURL(href); ts != nil {
			item.PublishedAt = ts
		}
		item.Summary = a.articleSummary(ctx, href)
		if item.Summary == "" {
			item.Summary = utils.TruncateRunes(title, 50)
		}

		items = append(items, item)
		return len(items) < limit
	})

	if len(items) == 0 {
		return nil, &UnavailableError{Source: a.cfg.Name, Reason: "empty"}
	}
	return items, nil
}

func (a *BroadcastScraperAdapter) looksLikeArticle(href, title string) bool {
	if len([]rune(title)) < 8 {
		return false
	}
	if !strings.HasPrefix(href, "http") {
		return false
	}
	return articleDatePattern.MatchString(href)
}

// articleSummary extracts a short readable body, cached per URL so repeated
// scans do not refetch the same article.
func (a *BroadcastScraperAdapter) articleSummary(ctx context.Context, url string) string {
	if cached, found := a.inmemoryCache.Get(url); found {
		return cached.(string)
	}

	body, err := a.fetch(ctx, url)
	if err != nil {
		a.logger.Debug("Failed to fetch article body", logger.StringField("url", url), logger.ErrorField(err))
		return ""
	}

	doc, err := readability.NewDocument(string(body))
	if err != nil {
		a.logger.Debug("Failed to extract article body", logger.StringField("url", url), logger.ErrorField(err))
		return ""
	}

	docHTML, err := goquery.NewDocumentFromReader(strings.NewReader(doc.Content()))
	if err != nil {
		return ""
	}

	text := strings.TrimSpace(docHTML.Text())
	for _, r := range []string{"\n", "\t", "\r", "\f"} {
		text = strings.ReplaceAll(text, r, "")
	}
	text = utils.TruncateRunes(utils.CleanToValidUTF8(text), 500)

	a.inmemoryCache.Set(url, text, cache.DefaultExpiration)
	return text
}

func (a *BroadcastScraperAdapter) fetch(ctx context.Context, url string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("User-Agent", "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/91.0.4472.124 Safari/537.36")
	req.Header.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8")

	resp, err := a.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch %s: %w", url, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("fetch %s returned status %d", url, resp.StatusCode)
	}
	return io.ReadAll(resp.Body)
}

func publishTimeFromURL(href string) *time.Time {
	m := articleDatePattern.FindStringSubmatch(href)
	if m == nil {
		return nil
	}
	ts, err := time.ParseInLocation("2006/01/02", fmt.Sprintf("%s/%s/%s", m[1], m[2], m[3]), time.Local)
	if err != nil {
		return nil
	}
	return &ts
}

// Package news collects economy headlines from RSS/Atom feeds.
package news

import (
	"context"
	"log/slog"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/mmcdole/gofeed"

	"github.com/wintersoldje/econ-shorts/backend/internal/logger"
	"github.com/wintersoldje/econ-shorts/backend/internal/models"
)

const defaultSource = "RSS"

// Options configures a Collector.
type Options struct {
	Feeds    []string
	CacheTTL time.Duration
	Timeout  time.Duration
	Client   *http.Client
	Logger   *slog.Logger
}

// Collector fetches every feed, de-duplicates items by title and caches the
// merged result for CacheTTL.
type Collector struct {
	feeds   []string
	ttl     time.Duration
	timeout time.Duration
	parser  *gofeed.Parser
	log     *slog.Logger
	now     func() time.Time

	mu       sync.Mutex
	cached   []models.NewsItem
	cachedAt time.Time
}

func New(opts Options) *Collector {
	parser := gofeed.NewParser()
	if opts.Client != nil {
		parser.Client = opts.Client
	}
	parser.UserAgent = "econ-shorts/1.0"
	return &Collector{
		feeds:   append([]string(nil), opts.Feeds...),
		ttl:     opts.CacheTTL,
		timeout: opts.Timeout,
		parser:  parser,
		log:     logger.OrDiscard(opts.Logger),
		now:     time.Now,
	}
}

// Fetch returns at most limit items. Failing feeds are logged and skipped;
// when every feed fails the result is empty.
func (c *Collector) Fetch(ctx context.Context, limit int) []models.NewsItem {
	if limit <= 0 {
		return nil
	}

	c.mu.Lock()
	if len(c.cached) > 0 && c.now().Sub(c.cachedAt) < c.ttl {
		items := head(c.cached, limit)
		c.mu.Unlock()
		return items
	}
	c.mu.Unlock()

	var collected []models.NewsItem
	for _, url := range c.feeds {
		items, err := c.fetchFeed(ctx, url, limit)
		if err != nil {
			c.log.Warn("feed fetch failed", slog.String("feed", url), slog.Any("err", err))
			continue
		}
		collected = append(collected, items...)
	}

	uniq := dedupeByTitle(collected)
	if len(uniq) > 0 {
		c.mu.Lock()
		c.cached = uniq
		c.cachedAt = c.now()
		c.mu.Unlock()
	}
	return head(uniq, limit)
}

func (c *Collector) fetchFeed(ctx context.Context, url string, limit int) ([]models.NewsItem, error) {
	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}
	feed, err := c.parser.ParseURLWithContext(url, ctx)
	if err != nil {
		return nil, err
	}

	source := strings.TrimSpace(feed.Title)
	if source == "" {
		source = defaultSource
	}
	entries := feed.Items
	if len(entries) > limit {
		entries = entries[:limit]
	}

	items := make([]models.NewsItem, 0, len(entries))
	for _, e := range entries {
		item := models.NewsItem{
			Source:  source,
			Title:   strings.TrimSpace(e.Title),
			Link:    strings.TrimSpace(e.Link),
			Summary: strings.TrimSpace(e.Description),
		}
		switch {
		case e.PublishedParsed != nil:
			item.Published = *e.PublishedParsed
		case e.UpdatedParsed != nil:
			item.Published = *e.UpdatedParsed
		}
		items = append(items, item)
	}
	return items, nil
}

// dedupeByTitle keeps the first item per title and drops untitled items.
func dedupeByTitle(items []models.NewsItem) []models.NewsItem {
	seen := make(map[string]struct{}, len(items))
	out := make([]models.NewsItem, 0, len(items))
	for _, it := range items {
		if it.Title == "" {
			continue
		}
		if _, ok := seen[it.Title]; ok {
			continue
		}
		seen[it.Title] = struct{}{}
		out = append(out, it)
	}
	return out
}

func head(items []models.NewsItem, n int) []models.NewsItem {
	if len(items) > n {
		items = items[:n]
	}
	return append([]models.NewsItem(nil), items...)
}

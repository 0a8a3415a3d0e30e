// Package elasticsearch archives finished renders so operators can search
// what was produced and when.
package elasticsearch

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/elastic/go-elasticsearch/v8"
	"github.com/elastic/go-elasticsearch/v8/esapi"

	"github.com/wintersoldje/econ-shorts/backend/internal/logger"
	"github.com/wintersoldje/econ-shorts/backend/internal/models"
)

const (
	defaultPageSize = 20
	maxPageSize     = 100
)

// Client wraps go-elasticsearch for the render archive index.
type Client struct {
	es    *elasticsearch.Client
	index string
	log   *slog.Logger
}

// SearchParams narrow an archive search. Zero values mean "any".
type SearchParams struct {
	Query    string
	Kind     models.ScriptKind
	Keywords []string
	From     int
	Size     int
	Start    *time.Time
	End      *time.Time
}

// SearchResult bundles hits and the total match count.
type SearchResult struct {
	Total int64                 `json:"total"`
	Items []models.RenderRecord `json:"items"`
}

var indexMapping = map[string]any{
	"mappings": map[string]any{
		"properties": map[string]any{
			"id":           map[string]any{"type": "keyword"},
			"kind":         map[string]any{"type": "keyword"},
			"script":       map[string]any{"type": "text"},
			"source_url":   map[string]any{"type": "keyword"},
			"duration_sec": map[string]any{"type": "float"},
			"cues":         map[string]any{"type": "integer"},
			"keywords":     map[string]any{"type": "keyword"},
			"video_path":   map[string]any{"type": "keyword", "index": false},
			"timestamp":    map[string]any{"type": "date"},
		},
	},
}

func New(addr, index string, log *slog.Logger) (*Client, error) {
	es, err := elasticsearch.NewClient(elasticsearch.Config{
		Addresses: []string{addr},
	})
	if err != nil {
		return nil, fmt.Errorf("create elasticsearch client: %w", err)
	}
	return &Client{es: es, index: index, log: logger.OrDiscard(log)}, nil
}

// Ping checks if Elasticsearch is reachable.
func (c *Client) Ping(ctx context.Context) error {
	res, err := c.es.Ping(c.es.Ping.WithContext(ctx))
	if err != nil {
		return fmt.Errorf("ping elasticsearch: %w", err)
	}
	defer res.Body.Close()

	if res.IsError() {
		return fmt.Errorf("elasticsearch ping failed: %s", res.Status())
	}
	return nil
}

// EnsureIndex creates the archive index with its mapping when missing.
func (c *Client) EnsureIndex(ctx context.Context) error {
	res, err := c.es.Indices.Exists([]string{c.index}, c.es.Indices.Exists.WithContext(ctx))
	if err != nil {
		return fmt.Errorf("check index: %w", err)
	}
	res.Body.Close()
	if res.StatusCode == http.StatusOK {
		return nil
	}

	payload, err := json.Marshal(indexMapping)
	if err != nil {
		return fmt.Errorf("marshal mapping: %w", err)
	}
	res, err = c.es.Indices.Create(c.index,
		c.es.Indices.Create.WithContext(ctx),
		c.es.Indices.Create.WithBody(bytes.NewReader(payload)),
	)
	if err != nil {
		return fmt.Errorf("create index: %w", err)
	}
	defer res.Body.Close()

	if res.IsError() {
		body, _ := io.ReadAll(res.Body)
		// another process may have won the race
		if strings.Contains(string(body), "resource_already_exists_exception") {
			return nil
		}
		return fmt.Errorf("create index failed: %s", strings.TrimSpace(string(body)))
	}
	c.log.Info("created archive index", slog.String("index", c.index))
	return nil
}

// IndexRender stores rec under its job id, replacing an earlier record.
func (c *Client) IndexRender(ctx context.Context, rec models.RenderRecord) error {
	payload, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("marshal render: %w", err)
	}

	req := esapi.IndexRequest{
		Index:      c.index,
		DocumentID: rec.ID,
		Body:       bytes.NewReader(payload),
		Refresh:    "false",
	}
	res, err := req.Do(ctx, c.es)
	if err != nil {
		return fmt.Errorf("index render: %w", err)
	}
	defer res.Body.Close()

	if res.IsError() {
		body, _ := io.ReadAll(res.Body)
		return fmt.Errorf("index render failed: %s", strings.TrimSpace(string(body)))
	}
	c.log.Debug("archived render", slog.String("job_id", rec.ID))
	return nil
}

// SearchRenders runs a bool query, newest first.
func (c *Client) SearchRenders(ctx context.Context, params SearchParams) (*SearchResult, error) {
	payload, err := json.Marshal(buildSearchBody(params))
	if err != nil {
		return nil, fmt.Errorf("marshal search body: %w", err)
	}

	res, err := c.es.Search(
		c.es.Search.WithContext(ctx),
		c.es.Search.WithIndex(c.index),
		c.es.Search.WithBody(bytes.NewReader(payload)),
	)
	if err != nil {
		return nil, fmt.Errorf("search: %w", err)
	}
	defer res.Body.Close()

	if res.IsError() {
		data, _ := io.ReadAll(res.Body)
		return nil, fmt.Errorf("search failed: %s", strings.TrimSpace(string(data)))
	}

	var parsed struct {
		Hits struct {
			Total struct {
				Value int64 `json:"value"`
			} `json:"total"`
			Hits []struct {
				Source models.RenderRecord `json:"_source"`
			} `json:"hits"`
		} `json:"hits"`
	}
	if err := json.NewDecoder(res.Body).Decode(&parsed); err != nil {
		return nil, fmt.Errorf("decode search response: %w", err)
	}

	items := make([]models.RenderRecord, 0, len(parsed.Hits.Hits))
	for _, hit := range parsed.Hits.Hits {
		items = append(items, hit.Source)
	}
	return &SearchResult{Total: parsed.Hits.Total.Value, Items: items}, nil
}

func buildSearchBody(params SearchParams) map[string]any {
	if params.Size <= 0 {
		params.Size = defaultPageSize
	}
	if params.Size > maxPageSize {
		params.Size = maxPageSize
	}
	if params.From < 0 {
		params.From = 0
	}

	var must, filters []map[string]any
	if params.Query != "" {
		must = append(must, map[string]any{
			"multi_match": map[string]any{
				"query":  params.Query,
				"fields": []string{"script", "keywords^2"},
			},
		})
	}
	if params.Kind != "" {
		filters = append(filters, map[string]any{"term": map[string]any{"kind": params.Kind}})
	}
	if len(params.Keywords) > 0 {
		filters = append(filters, map[string]any{"terms": map[string]any{"keywords": params.Keywords}})
	}
	if params.Start != nil || params.End != nil {
		window := map[string]any{}
		if params.Start != nil {
			window["gte"] = params.Start.UTC().Format(time.RFC3339)
		}
		if params.End != nil {
			window["lte"] = params.End.UTC().Format(time.RFC3339)
		}
		filters = append(filters, map[string]any{"range": map[string]any{"timestamp": window}})
	}

	boolQuery := map[string]any{}
	if len(must) > 0 {
		boolQuery["must"] = must
	}
	if len(filters) > 0 {
		boolQuery["filter"] = filters
	}
	if len(boolQuery) == 0 {
		boolQuery["must"] = []map[string]any{{"match_all": map[string]any{}}}
	}

	return map[string]any{
		"from":             params.From,
		"size":             params.Size,
		"track_total_hits": true,
		"query":            map[string]any{"bool": boolQuery},
		"sort":             []map[string]any{{"timestamp": map[string]any{"order": "desc"}}},
	}
}

// DeleteOlderThan removes records older than maxAge in batches of batchSize
// and returns how many were deleted.
func (c *Client) DeleteOlderThan(ctx context.Context, maxAge time.Duration, batchSize int) (int64, error) {
	if batchSize <= 0 {
		batchSize = 1000
	}

	cutoff := time.Now().Add(-maxAge).UTC().Format(time.RFC3339)
	payload, err := json.Marshal(map[string]any{
		"query": map[string]any{
			"range": map[string]any{"timestamp": map[string]any{"lte": cutoff}},
		},
	})
	if err != nil {
		return 0, fmt.Errorf("marshal delete body: %w", err)
	}

	var total int64
	for {
		deleted, err := c.deleteBatch(ctx, payload, batchSize)
		total += deleted
		if err != nil {
			return total, err
		}
		if deleted < int64(batchSize) {
			return total, nil
		}
	}
}

func (c *Client) deleteBatch(ctx context.Context, payload []byte, batchSize int) (int64, error) {
	res, err := c.es.DeleteByQuery(
		[]string{c.index},
		bytes.NewReader(payload),
		c.es.DeleteByQuery.WithContext(ctx),
		c.es.DeleteByQuery.WithWaitForCompletion(true),
		c.es.DeleteByQuery.WithConflicts("proceed"),
		c.es.DeleteByQuery.WithMaxDocs(batchSize),
		c.es.DeleteByQuery.WithIgnoreUnavailable(true),
	)
	if err != nil {
		return 0, fmt.Errorf("delete by query: %w", err)
	}
	defer res.Body.Close()

	if res.IsError() {
		data, _ := io.ReadAll(res.Body)
		return 0, fmt.Errorf("delete by query failed: %s", strings.TrimSpace(string(data)))
	}

	var parsed struct {
		Deleted int64 `json:"deleted"`
	}
	if err := json.NewDecoder(res.Body).Decode(&parsed); err != nil {
		return 0, fmt.Errorf("decode delete response: %w", err)
	}
	return parsed.Deleted, nil
}

// Health reports whether the cluster answers its health endpoint.
func (c *Client) Health(ctx context.Context) error {
	res, err := c.es.Cluster.Health(c.es.Cluster.Health.WithContext(ctx))
	if err != nil {
		return err
	}
	defer res.Body.Close()
	if res.StatusCode >= http.StatusBadRequest {
		data, _ := io.ReadAll(res.Body)
		return fmt.Errorf("cluster health bad: %s", strings.TrimSpace(string(data)))
	}
	return nil
}

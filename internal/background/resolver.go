// Package background finds a still image to sit behind the narration.
package background

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/wintersoldje/econ-shorts/backend/internal/logger"
)

// maxImageBytes bounds a downloaded image.
const maxImageBytes = 15 << 20

var (
	ErrNoSource   = errors.New("script cites no source link")
	ErrNoImage    = errors.New("page has no usable image")
	ErrNotAnImage = errors.New("response is not an image")
)

// Strategy is one way of obtaining background bytes.
type Strategy interface {
	Name() string
	Fetch(ctx context.Context, scriptText string) ([]byte, error)
}

// Resolver tries each strategy in order; the first success wins.
type Resolver struct {
	strategies []Strategy
	timeout    time.Duration
	log        *slog.Logger
}

func NewResolver(timeout time.Duration, log *slog.Logger, strategies ...Strategy) *Resolver {
	return &Resolver{strategies: strategies, timeout: timeout, log: logger.OrDiscard(log)}
}

// Resolve never fails hard: when every strategy fails it reports false and
// the caller renders a solid color instead.
func (r *Resolver) Resolve(ctx context.Context, scriptText string) ([]byte, bool) {
	for _, s := range r.strategies {
		if ctx.Err() != nil {
			return nil, false
		}
		data, err := r.try(ctx, s, scriptText)
		if err != nil {
			r.log.Info("background strategy failed", slog.String("strategy", s.Name()), slog.Any("err", err))
			continue
		}
		r.log.Debug("background resolved", slog.String("strategy", s.Name()), slog.Int("bytes", len(data)))
		return data, true
	}
	return nil, false
}

func (r *Resolver) try(ctx context.Context, s Strategy, scriptText string) (data []byte, err error) {
	if r.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.timeout)
		defer cancel()
	}
	defer func() {
		if p := recover(); p != nil {
			data, err = nil, fmt.Errorf("strategy panicked: %v", p)
		}
	}()
	return s.Fetch(ctx, scriptText)
}

func get(ctx context.Context, client *http.Client, url string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", "Mozilla/5.0 (compatible; econ-shorts/1.0)")
	resp, err := client.Do(req)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		resp.Body.Close()
		return nil, fmt.Errorf("GET %s: status %d", url, resp.StatusCode)
	}
	return resp, nil
}

// downloadImage fetches url and checks that the body is an image.
func downloadImage(ctx context.Context, client *http.Client, url string) ([]byte, error) {
	resp, err := get(ctx, client, url)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxImageBytes))
	if err != nil {
		return nil, fmt.Errorf("read image: %w", err)
	}
	if len(data) == 0 {
		return nil, ErrNotAnImage
	}
	ct := resp.Header.Get("Content-Type")
	if !strings.HasPrefix(ct, "image/") {
		ct = http.DetectContentType(data)
	}
	if !strings.HasPrefix(ct, "image/") {
		return nil, fmt.Errorf("%w: %s", ErrNotAnImage, ct)
	}
	return data, nil
}

func clientOrDefault(c *http.Client) *http.Client {
	if c == nil {
		return http.DefaultClient
	}
	return c
}

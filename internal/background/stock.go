package background

import (
	"context"
	"errors"
	"net/http"
)

// Stock downloads a themed stock photo from a fixed query URL.
type Stock struct {
	Client *http.Client
	URL    string
}

func (Stock) Name() string { return "stock" }

func (s Stock) Fetch(ctx context.Context, _ string) ([]byte, error) {
	if s.URL == "" {
		return nil, errors.New("stock image url not configured")
	}
	return downloadImage(ctx, clientOrDefault(s.Client), s.URL)
}

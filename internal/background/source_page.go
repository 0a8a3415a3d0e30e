package background

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/wintersoldje/econ-shorts/backend/internal/processing"
)

// SourcePage downloads the lead image of the article the script cites.
type SourcePage struct {
	Client *http.Client
}

func (SourcePage) Name() string { return "source_page" }

func (s SourcePage) Fetch(ctx context.Context, scriptText string) ([]byte, error) {
	link := processing.ExtractSourceURL(scriptText)
	if link == "" {
		return nil, ErrNoSource
	}
	client := clientOrDefault(s.Client)

	resp, err := get(ctx, client, link)
	if err != nil {
		return nil, err
	}
	doc, err := goquery.NewDocumentFromReader(resp.Body)
	resp.Body.Close()
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", link, err)
	}

	base := resp.Request.URL
	img := findImage(doc)
	if img == "" {
		return nil, ErrNoImage
	}
	abs, err := resolve(base, img)
	if err != nil {
		return nil, err
	}
	return downloadImage(ctx, client, abs)
}

// findImage prefers Open Graph, then the Twitter card, then the first image
// inside an article-like region.
func findImage(doc *goquery.Document) string {
	selectors := []struct {
		sel  string
		attr string
	}{
		{`meta[property="og:image"]`, "content"},
		{`meta[property="og:image:url"]`, "content"},
		{`meta[name="twitter:image"]`, "content"},
		{`meta[property="twitter:image"]`, "content"},
		{`meta[name="twitter:image:src"]`, "content"},
		{`article img`, "src"},
		{`main img`, "src"},
		{`[itemprop="articleBody"] img`, "src"},
	}
	for _, c := range selectors {
		var found string
		doc.Find(c.sel).EachWithBreak(func(_ int, sel *goquery.Selection) bool {
			v := strings.TrimSpace(sel.AttrOr(c.attr, ""))
			if v == "" && c.attr == "src" {
				v = strings.TrimSpace(sel.AttrOr("data-src", ""))
			}
			if v != "" && !strings.HasPrefix(v, "data:") {
				found = v
				return false
			}
			return true
		})
		if found != "" {
			return found
		}
	}
	return ""
}

func resolve(base *url.URL, ref string) (string, error) {
	u, err := url.Parse(ref)
	if err != nil {
		return "", fmt.Errorf("image url %q: %w", ref, err)
	}
	if base != nil {
		u = base.ResolveReference(u)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return "", fmt.Errorf("image url %q: unsupported scheme", ref)
	}
	return u.String(), nil
}

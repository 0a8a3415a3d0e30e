package models

import "time"

// NewsItem is one headline produced by the news collector.
type NewsItem struct {
	Source    string    `json:"source"`
	Title     string    `json:"title"`
	Link      string    `json:"link"`
	Summary   string    `json:"summary"`
	Published time.Time `json:"published,omitempty"`
}

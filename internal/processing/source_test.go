package processing_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/wintersoldje/econ-shorts/backend/internal/processing"
)

func TestExtractSourceURL(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{name: "empty", input: "", want: ""},
		{name: "no marker", input: "그냥 본문입니다.", want: ""},
		{name: "korean marker", input: "본문입니다.\n출처: https://news.example.com/a/1", want: "https://news.example.com/a/1"},
		{name: "full width colon", input: "출처： https://news.example.com/b", want: "https://news.example.com/b"},
		{name: "english marker", input: "Source: http://example.org/x?id=2", want: "http://example.org/x?id=2"},
		{name: "trailing period", input: "출처: https://example.com/c.", want: "https://example.com/c"},
		{name: "bare url ignored", input: "https://example.com/d", want: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.Equal(t, tt.want, processing.ExtractSourceURL(tt.input))
		})
	}
}

func TestStripAndAppendSourceMarker(t *testing.T) {
	text := "금리가 올랐습니다.\n\n출처: https://example.com/news/1"
	require.Equal(t, "금리가 올랐습니다.", processing.StripSourceMarker(text))

	rebuilt := processing.AppendSourceMarker("금리가 올랐습니다.", "https://example.com/news/1")
	require.Equal(t, text, rebuilt)
	require.Equal(t, "https://example.com/news/1", processing.ExtractSourceURL(rebuilt))

	require.Equal(t, "본문", processing.AppendSourceMarker("본문", ""))
}

package subtitle_test

import (
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/wintersoldje/econ-shorts/backend/internal/models"
	"github.com/wintersoldje/econ-shorts/backend/internal/subtitle"
)

func TestFormatTimestamp(t *testing.T) {
	tests := []struct {
		in   float64
		want string
	}{
		{0, "00:00:00,000"},
		{2, "00:00:02,000"},
		{61.5, "00:01:01,500"},
		{3725.042, "01:02:05,042"},
		{-1, "00:00:00,000"},
	}
	for _, tt := range tests {
		require.Equal(t, tt.want, subtitle.FormatTimestamp(tt.in))
	}
}

func TestFormat(t *testing.T) {
	cues := subtitle.BuildTimeline([]string{"첫 문장입니다.", "둘째 문장이에요."}, 4)
	want := "1\n00:00:00,000 --> 00:00:02,000\n첫 문장입니다.\n\n" +
		"2\n00:00:02,000 --> 00:00:04,000\n둘째 문장이에요.\n\n"
	require.Equal(t, want, subtitle.Format(cues))
}

func TestWriteAndParseFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "subs.srt")
	cues := subtitle.BuildTimeline([]string{"하나", "둘", "셋"}, 9)
	require.NoError(t, subtitle.WriteFile(path, cues))

	got, err := subtitle.ParseFile(path)
	require.NoError(t, err)
	require.Equal(t, cues, got)
}

func TestParseEmptyCueAndCRLF(t *testing.T) {
	doc := "1\r\n00:00:00,000 --> 00:00:03,000\r\n\r\n\r\n"
	cues, err := subtitle.Parse(strings.NewReader(doc))
	require.NoError(t, err)
	require.Equal(t, []models.Cue{{Index: 1, Start: 0, End: 3, Text: ""}}, cues)
}

func TestParseMalformed(t *testing.T) {
	_, err := subtitle.Parse(strings.NewReader("x\n00:00:00,000 --> 00:00:01,000\nhi\n"))
	require.Error(t, err)

	_, err = subtitle.Parse(strings.NewReader("1\nnot a timing\nhi\n"))
	require.Error(t, err)
}

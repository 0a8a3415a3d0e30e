package subtitle_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/wintersoldje/econ-shorts/backend/internal/subtitle"
)

func TestBuildTimelineEqualSlices(t *testing.T) {
	utterances := []string{"하나", "둘", "셋", "넷", "다섯"}
	cues := subtitle.BuildTimeline(utterances, 10)

	require.Len(t, cues, 5)
	for i, c := range cues {
		require.Equal(t, i+1, c.Index)
		require.Equal(t, utterances[i], c.Text)
		require.InDelta(t, 2.0, c.End-c.Start, 1e-9)
		if i > 0 {
			require.Equal(t, cues[i-1].End, c.Start)
		}
	}
	require.Equal(t, "00:00:00,000", subtitle.FormatTimestamp(cues[0].Start))
	require.InDelta(t, 10.0, subtitle.Span(cues), 1e-9)
}

func TestBuildTimelineEmptyInput(t *testing.T) {
	cues := subtitle.BuildTimeline(nil, 7.5)
	require.Len(t, cues, 1)
	require.Equal(t, 1, cues[0].Index)
	require.Equal(t, 0.0, cues[0].Start)
	require.Equal(t, 7.5, cues[0].End)
	require.Equal(t, "", cues[0].Text)
}

func TestBuildTimelineInvariants(t *testing.T) {
	durations := []float64{0.5, 1, 3.3, 10, 59.99, 480}
	counts := []int{1, 2, 7, 13, 100}

	for _, d := range durations {
		for _, n := range counts {
			utterances := make([]string, n)
			for i := range utterances {
				utterances[i] = "문장"
			}
			cues := subtitle.BuildTimeline(utterances, d)
			require.Len(t, cues, n)
			for i, c := range cues {
				require.Equal(t, i+1, c.Index)
				require.LessOrEqual(t, c.Start, c.End)
				require.LessOrEqual(t, c.End, d+1e-9)
				if i > 0 {
					require.Equal(t, cues[i-1].End, c.Start)
				}
			}
		}
	}
}

func TestBuildTimelineFloorClampsToTotal(t *testing.T) {
	cues := subtitle.BuildTimeline([]string{"a", "b", "c", "d"}, 2)
	require.Equal(t, 1.0, cues[0].End)
	require.Equal(t, 2.0, cues[1].End)
	require.Equal(t, 2.0, cues[2].Start)
	require.Equal(t, 2.0, cues[3].End)
}

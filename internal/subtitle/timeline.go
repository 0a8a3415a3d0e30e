// Package subtitle builds evenly divided subtitle timelines and writes them
// in SRT form. Parse and ParseFile read a rendered SRT file back into cues so
// callers can inspect what was burned into a video.
package subtitle

import (
	"math"

	"github.com/wintersoldje/econ-shorts/backend/internal/models"
)

// MinCueSeconds is the floor on a cue's share of the audio.
const MinCueSeconds = 1.0

// BuildTimeline gives each utterance an equal slice of total seconds, in
// order. An empty input yields a single empty cue over the whole duration.
//
// When the floor kicks in (many utterances, short audio) cue ends are clamped
// to total, so trailing cues collapse to zero width at the end of the track
// instead of running past the audio.
func BuildTimeline(utterances []string, total float64) []models.Cue {
	if len(utterances) == 0 {
		utterances = []string{""}
	}
	if total < 0 || math.IsNaN(total) {
		total = 0
	}

	per := math.Max(MinCueSeconds, total/float64(len(utterances)))
	cues := make([]models.Cue, 0, len(utterances))
	cursor := 0.0
	for i, text := range utterances {
		end := math.Min(total, cursor+per)
		cues = append(cues, models.Cue{
			Index: i + 1,
			Start: cursor,
			End:   end,
			Text:  text,
		})
		cursor = end
	}
	return cues
}

// Span returns the covered duration, from the first start to the last end.
func Span(cues []models.Cue) float64 {
	if len(cues) == 0 {
		return 0
	}
	return cues[len(cues)-1].End - cues[0].Start
}

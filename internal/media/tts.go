package media

import (
	"context"
	"errors"
	"strings"
)

// ErrEmptyText is returned when there is nothing to speak.
var ErrEmptyText = errors.New("tts: empty input text")

// TTS invokes an edge-tts compatible command line.
type TTS struct {
	Runner *Runner
	Bin    string
	Voice  string
	Rate   string
}

// Synthesize speaks text into out.
func (t *TTS) Synthesize(ctx context.Context, text, out string) error {
	if strings.TrimSpace(text) == "" {
		return ErrEmptyText
	}
	args := []string{"--voice", t.Voice, "--text", text, "--write-media", out}
	if t.Rate != "" {
		// joined form so a negative rate is not read as a flag
		args = append(args, "--rate="+t.Rate)
	}
	if _, err := t.Runner.Run(ctx, t.Bin, args...); err != nil {
		return err
	}
	return requireOutput("tts", out)
}

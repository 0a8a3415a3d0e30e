package media

import (
	"context"
	"fmt"
	"strconv"
	"strings"
)

// Probe reads media durations with ffprobe.
type Probe struct {
	Runner *Runner
	Bin    string
}

// Duration returns the container duration of path in seconds.
func (p *Probe) Duration(ctx context.Context, path string) (float64, error) {
	out, err := p.Runner.Run(ctx, p.Bin,
		"-v", "error",
		"-show_entries", "format=duration",
		"-of", "default=noprint_wrappers=1:nokey=1",
		path,
	)
	if err != nil {
		return 0, err
	}
	raw := strings.TrimSpace(string(out))
	d, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return 0, fmt.Errorf("parse duration %q: %w", raw, err)
	}
	if d <= 0 {
		return 0, fmt.Errorf("probe reported non-positive duration %v", d)
	}
	return d, nil
}

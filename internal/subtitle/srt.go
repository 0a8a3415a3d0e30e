package subtitle

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"strconv"
	"strings"

	"github.com/wintersoldje/econ-shorts/backend/internal/models"
)

const arrow = " --> "

// FormatTimestamp renders seconds as HH:MM:SS,mmm.
func FormatTimestamp(seconds float64) string {
	if seconds < 0 {
		seconds = 0
	}
	ms := int64(math.Round(seconds * 1000))
	h := ms / 3_600_000
	ms -= h * 3_600_000
	m := ms / 60_000
	ms -= m * 60_000
	s := ms / 1000
	ms -= s * 1000
	return fmt.Sprintf("%02d:%02d:%02d,%03d", h, m, s, ms)
}

// parseTimestamp is the inverse of FormatTimestamp.
func parseTimestamp(raw string) (float64, error) {
	var h, m, s, ms int
	if _, err := fmt.Sscanf(strings.TrimSpace(raw), "%d:%d:%d,%d", &h, &m, &s, &ms); err != nil {
		return 0, fmt.Errorf("parse timestamp %q: %w", raw, err)
	}
	return float64(h*3600+m*60+s) + float64(ms)/1000, nil
}

// Format serializes cues as an SRT document.
func Format(cues []models.Cue) string {
	var b strings.Builder
	for _, c := range cues {
		b.WriteString(strconv.Itoa(c.Index))
		b.WriteByte('\n')
		b.WriteString(FormatTimestamp(c.Start))
		b.WriteString(arrow)
		b.WriteString(FormatTimestamp(c.End))
		b.WriteByte('\n')
		b.WriteString(c.Text)
		b.WriteString("\n\n")
	}
	return b.String()
}

// WriteFile writes cues to path in SRT form.
func WriteFile(path string, cues []models.Cue) error {
	if err := os.WriteFile(path, []byte(Format(cues)), 0o644); err != nil {
		return fmt.Errorf("write subtitles: %w", err)
	}
	return nil
}

// Parse reads an SRT document. Multi-line cue text is joined with "\n".
func Parse(r io.Reader) ([]models.Cue, error) {
	scanner := bufio.NewScanner(r)
	var (
		cues  []models.Cue
		cur   *models.Cue
		state int // 0 index, 1 timing, 2 text
		text  []string
	)
	flush := func() {
		if cur != nil {
			cur.Text = strings.Join(text, "\n")
			cues = append(cues, *cur)
		}
		cur, text, state = nil, nil, 0
	}

	for scanner.Scan() {
		line := strings.TrimRight(scanner.Text(), "\r")
		switch state {
		case 0:
			if strings.TrimSpace(line) == "" {
				continue
			}
			idx, err := strconv.Atoi(strings.TrimSpace(strings.TrimPrefix(line, "\ufeff")))
			if err != nil {
				return nil, fmt.Errorf("cue index %q: %w", line, err)
			}
			cur = &models.Cue{Index: idx}
			state = 1
		case 1:
			parts := strings.Split(line, arrow)
			if len(parts) != 2 {
				return nil, fmt.Errorf("cue %d: malformed timing %q", cur.Index, line)
			}
			start, err := parseTimestamp(parts[0])
			if err != nil {
				return nil, err
			}
			end, err := parseTimestamp(parts[1])
			if err != nil {
				return nil, err
			}
			cur.Start, cur.End = start, end
			state = 2
		case 2:
			if line == "" {
				flush()
				continue
			}
			text = append(text, line)
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	if state == 1 {
		return nil, errors.New("truncated cue: missing timing line")
	}
	flush()
	return cues, nil
}

// ParseFile reads the SRT document at path.
func ParseFile(path string) ([]models.Cue, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return Parse(f)
}

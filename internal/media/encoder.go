package media

import (
	"context"
	"fmt"
	"strings"
)

// EncodeInput describes one render. An empty Background selects a synthetic
// solid-color clip.
type EncodeInput struct {
	Background string
	Color      string
	Audio      string
	Subtitles  string
	Output     string
	Width      int
	Height     int
	FPS        int
}

// Encoder composites background, narration and burned-in subtitles with ffmpeg.
type Encoder struct {
	Runner   *Runner
	Bin      string
	FontName string
	FontSize int
	MarginV  int
}

// Encode renders in.Output and confirms it is non-empty.
func (e *Encoder) Encode(ctx context.Context, in EncodeInput) error {
	if _, err := e.Runner.Run(ctx, e.Bin, e.Args(in)...); err != nil {
		return err
	}
	return requireOutput("ffmpeg", in.Output)
}

// Args builds the ffmpeg argument list. Output stops at the shorter input, so
// the looped image or endless color source ends with the narration.
func (e *Encoder) Args(in EncodeInput) []string {
	fps := in.FPS
	if fps <= 0 {
		fps = 30
	}
	color := in.Color
	if color == "" {
		color = "black"
	}

	args := []string{"-y"}
	var filters []string
	if in.Background != "" {
		args = append(args, "-loop", "1", "-i", in.Background)
		filters = append(filters,
			fmt.Sprintf("scale=%d:%d:force_original_aspect_ratio=increase", in.Width, in.Height),
			fmt.Sprintf("crop=%d:%d", in.Width, in.Height),
			"setsar=1",
		)
	} else {
		args = append(args, "-f", "lavfi", "-i",
			fmt.Sprintf("color=c=%s:s=%dx%d:r=%d", color, in.Width, in.Height, fps))
	}
	args = append(args, "-i", in.Audio)

	if in.Subtitles != "" {
		filters = append(filters, e.subtitleFilter(in.Subtitles))
	}
	if len(filters) > 0 {
		args = append(args, "-vf", strings.Join(filters, ","))
	}

	args = append(args,
		"-map", "0:v:0",
		"-map", "1:a:0",
		"-c:v", "libx264",
		"-preset", "veryfast",
		"-tune", "stillimage",
		"-pix_fmt", "yuv420p",
		"-r", fmt.Sprintf("%d", fps),
		"-c:a", "aac",
		"-b:a", "192k",
		"-shortest",
		"-movflags", "+faststart",
		in.Output,
	)
	return args
}

func (e *Encoder) subtitleFilter(path string) string {
	style := []string{"Outline=2", "Alignment=2", "PrimaryColour=&H00FFFFFF", "OutlineColour=&H00000000"}
	if e.FontName != "" {
		style = append(style, "FontName="+e.FontName)
	}
	if e.FontSize > 0 {
		style = append(style, fmt.Sprintf("FontSize=%d", e.FontSize))
	}
	if e.MarginV > 0 {
		style = append(style, fmt.Sprintf("MarginV=%d", e.MarginV))
	}
	return fmt.Sprintf("subtitles=%s:force_style='%s'", EscapeFilterPath(path), strings.Join(style, ","))
}

// EscapeFilterPath escapes a file path for use inside an ffmpeg filter graph.
func EscapeFilterPath(path string) string {
	path = strings.ReplaceAll(path, "\\", "/")
	path = strings.ReplaceAll(path, ":", "\\:")
	path = strings.ReplaceAll(path, "'", "\\'")
	path = strings.ReplaceAll(path, ",", "\\,")
	return path
}

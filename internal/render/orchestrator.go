// Package render sequences script, speech, subtitles, background and encode
// into a finished video, and dispatches that work to workers.
package render

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/wintersoldje/econ-shorts/backend/internal/artifacts"
	"github.com/wintersoldje/econ-shorts/backend/internal/jobs"
	"github.com/wintersoldje/econ-shorts/backend/internal/logger"
	"github.com/wintersoldje/econ-shorts/backend/internal/media"
	"github.com/wintersoldje/econ-shorts/backend/internal/models"
	"github.com/wintersoldje/econ-shorts/backend/internal/processing"
	"github.com/wintersoldje/econ-shorts/backend/internal/script"
	"github.com/wintersoldje/econ-shorts/backend/internal/subtitle"
)

const (
	audioFile    = "voice.mp3"
	subtitleFile = "subs.srt"
	partialVideo = "render.mp4"
	keywordLimit = 8
)

type Composer interface {
	Compose(ctx context.Context, kind models.ScriptKind) (*script.Script, error)
}

type Speaker interface {
	Synthesize(ctx context.Context, text, out string) error
}

type Prober interface {
	Duration(ctx context.Context, path string) (float64, error)
}

type Encoder interface {
	Encode(ctx context.Context, in media.EncodeInput) error
}

type BackgroundResolver interface {
	Resolve(ctx context.Context, scriptText string) ([]byte, bool)
}

// Archiver stores a summary of finished renders. Optional.
type Archiver interface {
	IndexRender(ctx context.Context, rec models.RenderRecord) error
}

// Deps wires an Orchestrator.
type Deps struct {
	Composer   Composer
	Speaker    Speaker
	Prober     Prober
	Encoder    Encoder
	Background BackgroundResolver
	Jobs       jobs.Store
	Files      *artifacts.Store
	Archive    Archiver
	Logger     *slog.Logger

	// LongMaxUtterances caps long scripts; 0 keeps everything.
	LongMaxUtterances int
}

// Orchestrator runs the render pipeline for one job at a time per call.
type Orchestrator struct {
	composer   Composer
	speaker    Speaker
	prober     Prober
	encoder    Encoder
	background BackgroundResolver
	jobs       jobs.Store
	files      *artifacts.Store
	archive    Archiver
	longMax    int
	log        *slog.Logger
	now        func() time.Time
}

func NewOrchestrator(d Deps) *Orchestrator {
	return &Orchestrator{
		composer:   d.Composer,
		speaker:    d.Speaker,
		prober:     d.Prober,
		encoder:    d.Encoder,
		background: d.Background,
		jobs:       d.Jobs,
		files:      d.Files,
		archive:    d.Archive,
		longMax:    d.LongMaxUtterances,
		log:        logger.OrDiscard(d.Logger),
		now:        time.Now,
	}
}

// result is what a successful render leaves behind.
type result struct {
	videoPath string
	script    *script.Script
	duration  float64
	cues      int
}

// Run drives a queued job to done or failed. The returned error is the one
// recorded as the job message.
func (o *Orchestrator) Run(ctx context.Context, jobID string, kind models.ScriptKind) error {
	log := o.log.With(slog.String("job_id", jobID), slog.String("kind", string(kind)))

	if err := ctx.Err(); err != nil {
		o.fail(ctx, log, jobID, err)
		return err
	}
	if _, err := o.jobs.UpdateStatus(ctx, jobID, jobs.Update{Status: models.StatusRunning}); err != nil {
		return fmt.Errorf("start job %s: %w", jobID, err)
	}
	log.Info("render started")
	start := o.now()

	res, err := o.execute(ctx, log, jobID, kind)
	if err != nil {
		o.fail(ctx, log, jobID, err)
		return err
	}

	// the outcome is recorded even if the caller gave up in the meantime
	_, err = o.jobs.UpdateStatus(context.WithoutCancel(ctx), jobID, jobs.Update{
		Status:    models.StatusDone,
		VideoPath: res.videoPath,
		Script:    res.script.Text(),
	})
	if err != nil {
		return fmt.Errorf("finish job %s: %w", jobID, err)
	}
	log.Info("render finished",
		slog.Float64("duration_sec", res.duration),
		slog.Int("cues", res.cues),
		slog.Duration("took", o.now().Sub(start)),
	)
	o.archiveRender(ctx, log, jobID, kind, res)
	return nil
}

// RenderSync creates a job and runs it inline, returning the final job.
func (o *Orchestrator) RenderSync(ctx context.Context, kind models.ScriptKind) (models.Job, error) {
	id := artifacts.NewID()
	if err := o.jobs.Create(ctx, jobs.NewJob(id, kind, o.now())); err != nil {
		return models.Job{}, err
	}
	runErr := o.Run(ctx, id, kind)
	job, err := o.jobs.Get(context.WithoutCancel(ctx), id)
	if err != nil {
		return models.Job{}, errors.Join(runErr, err)
	}
	return job, runErr
}

func (o *Orchestrator) fail(ctx context.Context, log *slog.Logger, jobID string, cause error) {
	log.Error("render failed", slog.Any("err", cause))
	_, err := o.jobs.UpdateStatus(context.WithoutCancel(ctx), jobID, jobs.Update{
		Status:  models.StatusFailed,
		Message: cause.Error(),
	})
	if err != nil {
		log.Error("record failure", slog.Any("err", err))
	}
}

func (o *Orchestrator) execute(ctx context.Context, log *slog.Logger, jobID string, kind models.ScriptKind) (*result, error) {
	s, err := o.composer.Compose(ctx, kind)
	if err != nil {
		return nil, err
	}
	log.Debug("script ready", slog.String("step", "compose"), slog.String("source", s.SourceURL))

	speech := s.Narration
	if kind == models.KindLong {
		utterances := processing.Truncate(processing.Segment(speech), o.longMax)
		speech = processing.Sanitize(strings.Join(utterances, " "))
	}

	workDir, err := o.files.EnsureWorkDir(jobID)
	if err != nil {
		return nil, err
	}

	audio := filepath.Join(workDir, audioFile)
	if err := o.speaker.Synthesize(ctx, speech, audio); err != nil {
		return nil, fmt.Errorf("synthesize speech: %w", err)
	}
	log.Debug("speech ready", slog.String("step", "tts"))

	total, err := o.prober.Duration(ctx, audio)
	if err != nil {
		return nil, fmt.Errorf("probe audio: %w", err)
	}

	cues := subtitle.BuildTimeline(processing.Segment(speech), total)
	subs := filepath.Join(workDir, subtitleFile)
	if err := subtitle.WriteFile(subs, cues); err != nil {
		return nil, err
	}
	log.Debug("subtitles ready", slog.String("step", "subtitles"), slog.Int("cues", len(cues)), slog.Float64("duration_sec", total), slog.Float64("span_sec", subtitle.Span(cues)))

	var bgPath string
	if data, ok := o.background.Resolve(ctx, s.Text()); ok {
		bgPath = filepath.Join(workDir, "background"+imageExt(data))
		if err := os.WriteFile(bgPath, data, 0o644); err != nil {
			return nil, fmt.Errorf("save background: %w", err)
		}
	} else {
		log.Info("no background image, using solid color", slog.String("step", "background"))
	}

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	width, height := FrameSize(kind)
	partial := filepath.Join(workDir, partialVideo)
	err = o.encoder.Encode(ctx, media.EncodeInput{
		Background: bgPath,
		Audio:      audio,
		Subtitles:  subs,
		Output:     partial,
		Width:      width,
		Height:     height,
	})
	if err != nil {
		return nil, fmt.Errorf("encode video: %w", err)
	}

	// the video path only ever holds a complete render
	final := o.files.VideoPath(jobID)
	if err := os.Rename(partial, final); err != nil {
		return nil, fmt.Errorf("publish video: %w", err)
	}

	return &result{videoPath: final, script: s, duration: total, cues: len(cues)}, nil
}

func (o *Orchestrator) archiveRender(ctx context.Context, log *slog.Logger, jobID string, kind models.ScriptKind, res *result) {
	if o.archive == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
	defer cancel()

	text := res.script.Text()
	rec := models.RenderRecord{
		ID:        jobID,
		Kind:      kind,
		Script:    text,
		SourceURL: res.script.SourceURL,
		Duration:  res.duration,
		Cues:      res.cues,
		Keywords:  processing.ExtractKeywords(res.script.Narration, keywordLimit, 2),
		VideoPath: res.videoPath,
		Timestamp: o.now().UTC(),
	}
	if err := o.archive.IndexRender(ctx, rec); err != nil {
		log.Warn("archive render", slog.Any("err", err))
	}
}

// FrameSize is the output resolution for kind: vertical for shorts,
// landscape for long form.
func FrameSize(kind models.ScriptKind) (width, height int) {
	if kind == models.KindLong {
		return 1920, 1080
	}
	return 1080, 1920
}

func imageExt(data []byte) string {
	switch http.DetectContentType(data) {
	case "image/png":
		return ".png"
	case "image/gif":
		return ".gif"
	case "image/webp":
		return ".webp"
	case "image/bmp":
		return ".bmp"
	default:
		return ".jpg"
	}
}

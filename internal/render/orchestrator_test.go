package render_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/wintersoldje/econ-shorts/backend/internal/artifacts"
	"github.com/wintersoldje/econ-shorts/backend/internal/background"
	"github.com/wintersoldje/econ-shorts/backend/internal/jobs"
	"github.com/wintersoldje/econ-shorts/backend/internal/llm"
	"github.com/wintersoldje/econ-shorts/backend/internal/media"
	"github.com/wintersoldje/econ-shorts/backend/internal/models"
	"github.com/wintersoldje/econ-shorts/backend/internal/render"
	"github.com/wintersoldje/econ-shorts/backend/internal/script"
	"github.com/wintersoldje/econ-shorts/backend/internal/subtitle"
)

const fiveSentences = "오늘 코스피가 크게 올랐습니다. 원 달러 환율은 내렸습니다. 기준금리는 그대로입니다. 반도체 수출도 늘었어요. 다음 소식도 기대해 주세요.\n출처: https://news.example/1"

type fixedNews []models.NewsItem

func (f fixedNews) Fetch(context.Context, int) []models.NewsItem { return f }

type fixedModel struct {
	reply string
	err   error
}

func (f fixedModel) Complete(context.Context, llm.Prompt) (string, error) { return f.reply, f.err }

type recordingArchive struct {
	records []models.RenderRecord
}

func (r *recordingArchive) IndexRender(_ context.Context, rec models.RenderRecord) error {
	r.records = append(r.records, rec)
	return nil
}

const ttsOK = `out=""
while [ $# -gt 0 ]; do
  if [ "$1" = "--write-media" ]; then out="$2"; fi
  shift
done
printf 'ID3' > "$out"`

const ffmpegOK = `for last; do :; done; printf 'mp4data' > "$last"`

type fixture struct {
	orch    *render.Orchestrator
	store   *jobs.MemoryStore
	files   *artifacts.Store
	archive *recordingArchive
}

func stub(t *testing.T, dir, name, body string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte("#!/bin/sh\n"+body+"\n"), 0o755))
	return path
}

func newFixture(t *testing.T, ttsBody string, model llm.Client) *fixture {
	t.Helper()
	bin := t.TempDir()
	files, err := artifacts.New(t.TempDir())
	require.NoError(t, err)

	runner := media.NewRunner(nil)
	news := fixedNews{
		{Source: "경제TV", Title: "코스피 상승", Link: "https://news.example/1"},
		{Source: "경제TV", Title: "환율 하락", Link: "https://news.example/2"},
		{Source: "연합뉴스TV", Title: "수출 증가", Link: "https://news.example/3"},
	}
	store := jobs.NewMemoryStore()
	archive := &recordingArchive{}

	orch := render.NewOrchestrator(render.Deps{
		Composer:   script.NewComposer(news, model, 8, 5, nil),
		Speaker:    &media.TTS{Runner: runner, Bin: stub(t, bin, "edge-tts", ttsBody), Voice: "ko-KR-SunHiNeural"},
		Prober:     &media.Probe{Runner: runner, Bin: stub(t, bin, "ffprobe", `echo "10.000000"`)},
		Encoder:    &media.Encoder{Runner: runner, Bin: stub(t, bin, "ffmpeg", ffmpegOK)},
		Background: background.NewResolver(time.Second, nil),
		Jobs:       store,
		Files:      files,
		Archive:    archive,

		LongMaxUtterances: 3,
	})
	return &fixture{orch: orch, store: store, files: files, archive: archive}
}

func createJob(t *testing.T, store jobs.Store, kind models.ScriptKind) string {
	t.Helper()
	id := artifacts.NewID()
	require.NoError(t, store.Create(context.Background(), jobs.NewJob(id, kind, time.Now())))
	return id
}

func TestRunShortEndToEnd(t *testing.T) {
	fx := newFixture(t, ttsOK, fixedModel{reply: fiveSentences})
	id := createJob(t, fx.store, models.KindShort)

	require.NoError(t, fx.orch.Run(context.Background(), id, models.KindShort))

	job, err := fx.store.Get(context.Background(), id)
	require.NoError(t, err)
	require.Equal(t, models.StatusDone, job.Status)
	require.Equal(t, fx.files.VideoPath(id), job.VideoPath)
	require.Contains(t, job.Script, "출처: https://news.example/1")

	cues, err := subtitle.ParseFile(filepath.Join(fx.files.WorkDir(id), "subs.srt"))
	require.NoError(t, err)
	require.Len(t, cues, 5)
	require.InDelta(t, 10.0, subtitle.Span(cues), 0.001)
	require.Equal(t, "오늘 코스피가 크게 올랐습니다.", cues[0].Text)

	require.NoError(t, artifacts.Lookup(job.VideoPath))

	require.Len(t, fx.archive.records, 1)
	rec := fx.archive.records[0]
	require.Equal(t, id, rec.ID)
	require.Equal(t, 5, rec.Cues)
	require.Equal(t, "https://news.example/1", rec.SourceURL)
	require.NotEmpty(t, rec.Keywords)
}

func TestRunTTSFailure(t *testing.T) {
	fx := newFixture(t, `echo "edge-tts: voice ko-KR-Nobody not available" >&2; exit 2`, fixedModel{reply: fiveSentences})
	id := createJob(t, fx.store, models.KindShort)

	err := fx.orch.Run(context.Background(), id, models.KindShort)
	var toolErr *media.ToolError
	require.True(t, errors.As(err, &toolErr))

	job, err := fx.store.Get(context.Background(), id)
	require.NoError(t, err)
	require.Equal(t, models.StatusFailed, job.Status)
	require.Contains(t, job.Message, "voice ko-KR-Nobody not available")
	require.Empty(t, job.VideoPath)

	_, statErr := os.Stat(fx.files.VideoPath(id))
	require.True(t, os.IsNotExist(statErr))
	require.Empty(t, fx.archive.records)
}

func TestRunModelFailure(t *testing.T) {
	fx := newFixture(t, ttsOK, fixedModel{err: errors.New("insufficient quota")})
	id := createJob(t, fx.store, models.KindShort)

	require.Error(t, fx.orch.Run(context.Background(), id, models.KindShort))
	job, err := fx.store.Get(context.Background(), id)
	require.NoError(t, err)
	require.Equal(t, models.StatusFailed, job.Status)
	require.Contains(t, job.Message, "insufficient quota")
}

func TestRunLongTruncates(t *testing.T) {
	fx := newFixture(t, ttsOK, fixedModel{reply: fiveSentences})
	id := createJob(t, fx.store, models.KindLong)

	require.NoError(t, fx.orch.Run(context.Background(), id, models.KindLong))

	cues, err := subtitle.ParseFile(filepath.Join(fx.files.WorkDir(id), "subs.srt"))
	require.NoError(t, err)
	require.Len(t, cues, 3)
	require.InDelta(t, 10.0, subtitle.Span(cues), 0.001)

	// the stored script is the full composed text, not the truncated speech
	job, err := fx.store.Get(context.Background(), id)
	require.NoError(t, err)
	require.Contains(t, job.Script, "다음 소식도 기대해 주세요.")
}

func TestRunCanceledBeforeStart(t *testing.T) {
	fx := newFixture(t, ttsOK, fixedModel{reply: fiveSentences})
	id := createJob(t, fx.store, models.KindShort)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	require.ErrorIs(t, fx.orch.Run(ctx, id, models.KindShort), context.Canceled)

	job, err := fx.store.Get(context.Background(), id)
	require.NoError(t, err)
	require.Equal(t, models.StatusFailed, job.Status)
	require.Equal(t, "context canceled", job.Message)
}

func TestRunUnknownJob(t *testing.T) {
	fx := newFixture(t, ttsOK, fixedModel{reply: fiveSentences})
	err := fx.orch.Run(context.Background(), artifacts.NewID(), models.KindShort)
	require.ErrorIs(t, err, jobs.ErrNotFound)
}

func TestRenderSync(t *testing.T) {
	fx := newFixture(t, ttsOK, fixedModel{reply: fiveSentences})

	job, err := fx.orch.RenderSync(context.Background(), models.KindShort)
	require.NoError(t, err)
	require.Equal(t, models.StatusDone, job.Status)
	require.NoError(t, artifacts.Lookup(job.VideoPath))

	fx = newFixture(t, `echo "tts exploded" >&2; exit 1`, fixedModel{reply: fiveSentences})
	job, err = fx.orch.RenderSync(context.Background(), models.KindShort)
	require.ErrorContains(t, err, "tts exploded")
	require.Equal(t, models.StatusFailed, job.Status)
}

func TestFrameSize(t *testing.T) {
	w, h := render.FrameSize(models.KindShort)
	require.Equal(t, [2]int{1080, 1920}, [2]int{w, h})
	w, h = render.FrameSize(models.KindLong)
	require.Equal(t, [2]int{1920, 1080}, [2]int{w, h})
}

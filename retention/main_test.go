package main

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/wintersoldje/econ-shorts/backend/internal/artifacts"
	"github.com/wintersoldje/econ-shorts/backend/internal/config"
)

type stubPruner struct {
	maxAge time.Duration
	batch  int
	calls  int
	err    error
}

func (s *stubPruner) DeleteOlderThan(_ context.Context, maxAge time.Duration, batchSize int) (int64, error) {
	s.calls++
	s.maxAge, s.batch = maxAge, batchSize
	return 4, s.err
}

func TestRunOncePrunesStaleArtifactsAndArchive(t *testing.T) {
	dir := t.TempDir()
	files, err := artifacts.New(dir)
	require.NoError(t, err)

	now := time.Now()
	stale := filepath.Join(dir, "video_old.mp4")
	fresh := filepath.Join(dir, "video_new.mp4")
	foreign := filepath.Join(dir, "notes.txt")
	for _, p := range []string{stale, fresh, foreign} {
		require.NoError(t, os.WriteFile(p, []byte("x"), 0o644))
	}
	old := now.Add(-100 * time.Hour)
	require.NoError(t, os.Chtimes(stale, old, old))
	require.NoError(t, os.Chtimes(foreign, old, old))

	cfg := &config.Retention{MaxAge: 72 * time.Hour, BatchSize: 250}
	pruner := &stubPruner{}
	log := slog.New(slog.NewTextHandler(io.Discard, nil))

	runOnce(context.Background(), log, files, pruner, cfg, now)

	require.NoFileExists(t, stale)
	require.FileExists(t, fresh)
	require.FileExists(t, foreign)
	require.Equal(t, 1, pruner.calls)
	require.Equal(t, 72*time.Hour, pruner.maxAge)
	require.Equal(t, 250, pruner.batch)
}

func TestRunOnceToleratesArchiveErrors(t *testing.T) {
	files, err := artifacts.New(t.TempDir())
	require.NoError(t, err)
	pruner := &stubPruner{err: errors.New("cluster red")}
	log := slog.New(slog.NewTextHandler(io.Discard, nil))

	require.NotPanics(t, func() {
		runOnce(context.Background(), log, files, pruner, &config.Retention{MaxAge: time.Hour, BatchSize: 10}, time.Now())
		runOnce(context.Background(), log, files, nil, &config.Retention{MaxAge: time.Hour, BatchSize: 10}, time.Now())
	})
	require.Equal(t, 1, pruner.calls)
}

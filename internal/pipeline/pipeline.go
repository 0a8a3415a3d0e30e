// Package pipeline assembles the render pipeline from configuration. The api
// and worker binaries share it.
package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/wintersoldje/econ-shorts/backend/internal/artifacts"
	"github.com/wintersoldje/econ-shorts/backend/internal/background"
	"github.com/wintersoldje/econ-shorts/backend/internal/config"
	"github.com/wintersoldje/econ-shorts/backend/internal/elasticsearch"
	"github.com/wintersoldje/econ-shorts/backend/internal/jobs"
	"github.com/wintersoldje/econ-shorts/backend/internal/llm"
	"github.com/wintersoldje/econ-shorts/backend/internal/logger"
	"github.com/wintersoldje/econ-shorts/backend/internal/media"
	"github.com/wintersoldje/econ-shorts/backend/internal/news"
	"github.com/wintersoldje/econ-shorts/backend/internal/render"
	"github.com/wintersoldje/econ-shorts/backend/internal/script"
)

// Pipeline is everything a binary needs to compose scripts and render them.
type Pipeline struct {
	Composer     *script.Composer
	Orchestrator *render.Orchestrator
	Jobs         jobs.Store
	Files        *artifacts.Store
	Archive      *elasticsearch.Client
	closers      []func() error
}

// Close releases connections opened by Build.
func (p *Pipeline) Close() error {
	var first error
	for _, c := range p.closers {
		if err := c(); err != nil && first == nil {
			first = err
		}
	}
	return first
}

// Build wires collectors, model client, media tools, job store and the
// optional archive.
func Build(ctx context.Context, common config.Common, pc config.Pipeline, log *slog.Logger) (*Pipeline, error) {
	log = logger.OrDiscard(log)
	files, err := artifacts.New(common.ScratchDir)
	if err != nil {
		return nil, err
	}

	model, err := llm.New(llm.Config{
		Provider:   pc.LLMProvider,
		Model:      pc.LLMModel,
		BaseURL:    pc.LLMBaseURL,
		APIKey:     pc.LLMAPIKey,
		MaxRetries: 2,
	})
	if err != nil {
		return nil, err
	}

	p := &Pipeline{Files: files}

	store, err := jobStore(ctx, common, p)
	if err != nil {
		return nil, err
	}
	p.Jobs = store

	var archive render.Archiver
	if common.ElasticsearchAddr != "" {
		es, err := elasticsearch.New(common.ElasticsearchAddr, common.ElasticsearchIndex, log)
		if err != nil {
			p.Close()
			return nil, err
		}
		// the archive is best effort; a missing index only costs the first write
		ensureCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
		if err := es.EnsureIndex(ensureCtx); err != nil {
			log.Warn("archive index not ready", slog.Any("err", err))
		}
		cancel()
		p.Archive = es
		archive = es
	}

	collector := news.New(news.Options{
		Feeds:    pc.NewsFeeds,
		CacheTTL: pc.NewsCacheTTL,
		Timeout:  pc.NewsTimeout,
		Logger:   log,
	})
	p.Composer = script.NewComposer(collector, model, pc.NewsLimit, pc.ScriptHeadlines, log)

	imageClient := &http.Client{Timeout: pc.ImageTimeout}
	runner := media.NewRunner(log)
	p.Orchestrator = render.NewOrchestrator(render.Deps{
		Composer: p.Composer,
		Speaker:  &media.TTS{Runner: runner, Bin: pc.TTSBin, Voice: pc.TTSVoice, Rate: pc.TTSRate},
		Prober:   &media.Probe{Runner: runner, Bin: pc.FFprobeBin},
		Encoder:  &media.Encoder{Runner: runner, Bin: pc.FFmpegBin, FontName: "NanumGothic", FontSize: 14, MarginV: 40},
		Background: background.NewResolver(pc.ImageTimeout, log,
			background.SourcePage{Client: imageClient},
			background.Stock{Client: imageClient, URL: pc.StockImageURL},
		),
		Jobs:              store,
		Files:             files,
		Archive:           archive,
		Logger:            log,
		LongMaxUtterances: pc.LongMaxUtterances,
	})
	return p, nil
}

func jobStore(ctx context.Context, common config.Common, p *Pipeline) (jobs.Store, error) {
	if common.RedisURL == "" {
		return jobs.NewMemoryStore(), nil
	}
	rdb, err := jobs.ConnectRedis(ctx, common.RedisURL)
	if err != nil {
		return nil, fmt.Errorf("connect redis: %w", err)
	}
	p.closers = append(p.closers, rdb.Close)
	return jobs.NewRedisStore(rdb, common.JobTTL), nil
}

package config_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/wintersoldje/econ-shorts/backend/internal/config"
)

func clearEnv(t *testing.T, keys ...string) {
	t.Helper()
	for _, k := range keys {
		t.Setenv(k, "")
	}
}

func TestLoadAPIDefaults(t *testing.T) {
	clearEnv(t, config.FileEnv, "SCRATCH_DIR", "API_BIND_ADDR", "CORS_ORIGINS", "NEWS_FEEDS",
		"LLM_PROVIDER", "LLM_MODEL", "LLM_API_KEY", "OPENAI_API_KEY", "RENDER_WORKERS", "RENDER_QUEUE",
		"KAFKA_BROKERS", "REDIS_URL", "TTS_VOICE", "LONG_MAX_UTTERANCES", "NEWS_CACHE_TTL")

	cfg, err := config.LoadAPI()
	require.NoError(t, err)

	require.Equal(t, "/tmp/mvp", cfg.ScratchDir)
	require.Equal(t, "0.0.0.0:8000", cfg.BindAddr)
	require.Equal(t, []string{"https://wintersoldje.github.io"}, cfg.CORSOrigins)
	require.Len(t, cfg.NewsFeeds, 2)
	require.Equal(t, 5*time.Minute, cfg.NewsCacheTTL)
	require.Equal(t, "openai", cfg.LLMProvider)
	require.Equal(t, "gpt-4o-mini", cfg.LLMModel)
	require.Equal(t, "ko-KR-SunHiNeural", cfg.TTSVoice)
	require.Equal(t, 20, cfg.LongMaxUtterances)
	require.Equal(t, 2, cfg.RenderWorkers)
	require.Equal(t, 8, cfg.RenderQueue)
	require.Empty(t, cfg.KafkaBrokers)
	require.Empty(t, cfg.RedisURL)
}

func TestLoadAPIOverrides(t *testing.T) {
	clearEnv(t, config.FileEnv, "LLM_API_KEY")
	t.Setenv("API_BIND_ADDR", ":9090")
	t.Setenv("CORS_ORIGINS", "http://localhost:5173, https://example.com")
	t.Setenv("NEWS_FEEDS", "https://a.example/rss")
	t.Setenv("LLM_PROVIDER", "anthropic")
	t.Setenv("ANTHROPIC_API_KEY", "sk-ant")
	t.Setenv("RENDER_WORKERS", "4")
	t.Setenv("RENDER_QUEUE", "0")
	t.Setenv("IMAGE_TIMEOUT", "3s")

	cfg, err := config.LoadAPI()
	require.NoError(t, err)
	require.Equal(t, ":9090", cfg.BindAddr)
	require.Equal(t, []string{"http://localhost:5173", "https://example.com"}, cfg.CORSOrigins)
	require.Equal(t, []string{"https://a.example/rss"}, cfg.NewsFeeds)
	require.Equal(t, "anthropic", cfg.LLMProvider)
	require.Equal(t, "claude-haiku-4-5", cfg.LLMModel)
	require.Equal(t, "sk-ant", cfg.LLMAPIKey)
	require.Equal(t, 4, cfg.RenderWorkers)
	require.Equal(t, 0, cfg.RenderQueue)
	require.Equal(t, 3*time.Second, cfg.ImageTimeout)
}

func TestLoadAPIRejectsBadValues(t *testing.T) {
	clearEnv(t, config.FileEnv, "LLM_BASE_URL")

	t.Setenv("LLM_PROVIDER", "mystery")
	_, err := config.LoadAPI()
	require.Error(t, err)

	t.Setenv("LLM_PROVIDER", "compatible")
	_, err = config.LoadAPI()
	require.ErrorContains(t, err, "LLM_BASE_URL")

	t.Setenv("LLM_PROVIDER", "openai")
	t.Setenv("RENDER_WORKERS", "0")
	_, err = config.LoadAPI()
	require.ErrorContains(t, err, "RENDER_WORKERS")

	t.Setenv("RENDER_WORKERS", "2")
	t.Setenv("KAFKA_BROKERS", "broker:9092")
	t.Setenv("REDIS_URL", "")
	_, err = config.LoadAPI()
	require.ErrorContains(t, err, "REDIS_URL")
}

func TestConfigFileFallback(t *testing.T) {
	path := filepath.Join(t.TempDir(), "shorts.yaml")
	doc := `
API_BIND_ADDR: ":7000"
news_feeds:
  - https://one.example/rss
  - https://two.example/rss
RENDER_WORKERS: 3
TTS_VOICE: ko-KR-InJoonNeural
`
	require.NoError(t, os.WriteFile(path, []byte(doc), 0o644))
	t.Setenv(config.FileEnv, path)
	clearEnv(t, "API_BIND_ADDR", "NEWS_FEEDS", "RENDER_WORKERS", "LLM_PROVIDER")
	t.Setenv("TTS_VOICE", "ko-KR-SunHiNeural")

	cfg, err := config.LoadAPI()
	require.NoError(t, err)
	require.Equal(t, ":7000", cfg.BindAddr)
	require.Equal(t, []string{"https://one.example/rss", "https://two.example/rss"}, cfg.NewsFeeds)
	require.Equal(t, 3, cfg.RenderWorkers)
	require.Equal(t, "ko-KR-SunHiNeural", cfg.TTSVoice, "environment wins over file")
}

func TestConfigFileMissing(t *testing.T) {
	t.Setenv(config.FileEnv, filepath.Join(t.TempDir(), "absent.yaml"))
	_, err := config.LoadAPI()
	require.Error(t, err)
}

func TestLoadWorker(t *testing.T) {
	clearEnv(t, config.FileEnv, "LLM_PROVIDER", "KAFKA_CONSUMER_GROUP", "KAFKA_RENDER_TOPIC")
	t.Setenv("KAFKA_BROKERS", "broker-a:29092,broker-b:29093")
	t.Setenv("REDIS_URL", "redis://localhost:6379/0")
	t.Setenv("WORKER_DEDUPE_TTL", "48h")

	cfg, err := config.LoadWorker()
	require.NoError(t, err)
	require.Equal(t, []string{"broker-a:29092", "broker-b:29093"}, cfg.KafkaBrokers)
	require.Equal(t, "render_requests", cfg.KafkaRenderTopic)
	require.Equal(t, "render-worker", cfg.KafkaConsumer)
	require.Equal(t, 48*time.Hour, cfg.DedupeTTL)

	t.Setenv("KAFKA_BROKERS", "")
	_, err = config.LoadWorker()
	require.ErrorContains(t, err, "KAFKA_BROKERS")

	t.Setenv("KAFKA_BROKERS", "broker:9092")
	t.Setenv("REDIS_URL", "")
	_, err = config.LoadWorker()
	require.ErrorContains(t, err, "REDIS_URL")
}

func TestLoadRetention(t *testing.T) {
	clearEnv(t, config.FileEnv)
	t.Setenv("SCRATCH_DIR", "/var/tmp/shorts")
	t.Setenv("ELASTICSEARCH_ADDR", "http://ret-es:9200")
	t.Setenv("RETENTION_INTERVAL", "12h")
	t.Setenv("RETENTION_MAX_AGE", "36h")
	t.Setenv("RETENTION_BATCH_SIZE", "123")

	cfg, err := config.LoadRetention()
	require.NoError(t, err)
	require.Equal(t, "/var/tmp/shorts", cfg.ScratchDir)
	require.Equal(t, "http://ret-es:9200", cfg.ElasticsearchAddr)
	require.Equal(t, "renders", cfg.ElasticsearchIndex)
	require.Equal(t, 12*time.Hour, cfg.Interval)
	require.Equal(t, 36*time.Hour, cfg.MaxAge)
	require.Equal(t, 123, cfg.BatchSize)

	t.Setenv("RETENTION_MAX_AGE", "garbage")
	cfg, err = config.LoadRetention()
	require.NoError(t, err)
	require.Equal(t, 72*time.Hour, cfg.MaxAge)
}

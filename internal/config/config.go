package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// FileEnv names an optional YAML file whose top-level keys mirror the
// environment variable names. Real environment variables take precedence.
const FileEnv = "SHORTS_CONFIG_FILE"

var defaultFeeds = []string{
	"https://www.yonhapnewseconomytv.com/rss/allArticle.xml",
	"http://www.yonhaptv.co.kr/rss/S1N2.xml",
}

// Common holds settings shared by every binary.
type Common struct {
	ScratchDir         string
	RedisURL           string
	JobTTL             time.Duration
	KafkaBrokers       []string
	KafkaRenderTopic   string
	ElasticsearchAddr  string
	ElasticsearchIndex string
}

// Pipeline configures the render pipeline and its external collaborators.
type Pipeline struct {
	NewsFeeds         []string
	NewsLimit         int
	NewsCacheTTL      time.Duration
	NewsTimeout       time.Duration
	ScriptHeadlines   int
	LLMProvider       string
	LLMModel          string
	LLMBaseURL        string
	LLMAPIKey         string
	TTSBin            string
	TTSVoice          string
	TTSRate           string
	FFmpegBin         string
	FFprobeBin        string
	LongMaxUtterances int
	ImageTimeout      time.Duration
	StockImageURL     string
}

// API describes the HTTP service.
type API struct {
	Common
	Pipeline
	BindAddr      string
	CORSOrigins   []string
	RenderWorkers int
	RenderQueue   int
}

// Worker configures the Kafka render consumer.
type Worker struct {
	Common
	Pipeline
	KafkaConsumer  string
	DedupeCapacity int
	DedupeTTL      time.Duration
}

// Retention configures the cleanup loop.
type Retention struct {
	Common
	Interval  time.Duration
	MaxAge    time.Duration
	BatchSize int
}

// LoadDotEnv loads .env from the working directory when present.
func LoadDotEnv() {
	_ = godotenv.Load()
}

// LoadAPI builds an API config from the environment.
func LoadAPI() (*API, error) {
	src, err := newSource()
	if err != nil {
		return nil, err
	}
	c := &API{
		Common:        src.common(),
		Pipeline:      src.pipeline(),
		BindAddr:      src.getEnv("API_BIND_ADDR", "0.0.0.0:8000"),
		CORSOrigins:   splitAndTrim(src.getEnv("CORS_ORIGINS", "https://wintersoldje.github.io")),
		RenderWorkers: src.getInt("RENDER_WORKERS", 2),
		RenderQueue:   src.getInt("RENDER_QUEUE", 8),
	}

	if err := c.Pipeline.validate(); err != nil {
		return nil, err
	}
	if c.RenderWorkers <= 0 {
		return nil, fmt.Errorf("RENDER_WORKERS must be positive")
	}
	if c.RenderQueue < 0 {
		return nil, fmt.Errorf("RENDER_QUEUE cannot be negative")
	}
	if len(c.KafkaBrokers) > 0 && c.RedisURL == "" {
		return nil, fmt.Errorf("REDIS_URL must be set when renders are queued through KAFKA_BROKERS")
	}
	return c, nil
}

// LoadWorker builds a Worker config from the environment.
func LoadWorker() (*Worker, error) {
	src, err := newSource()
	if err != nil {
		return nil, err
	}
	c := &Worker{
		Common:         src.common(),
		Pipeline:       src.pipeline(),
		KafkaConsumer:  src.getEnv("KAFKA_CONSUMER_GROUP", "render-worker"),
		DedupeCapacity: src.getInt("WORKER_DEDUPE_CAPACITY", 10000),
		DedupeTTL:      src.getDuration("WORKER_DEDUPE_TTL", "24h"),
	}

	if err := c.Pipeline.validate(); err != nil {
		return nil, err
	}
	if len(c.KafkaBrokers) == 0 {
		return nil, fmt.Errorf("KAFKA_BROKERS must contain at least one broker")
	}
	if c.RedisURL == "" {
		return nil, fmt.Errorf("REDIS_URL must be set so the api can see worker job status")
	}
	if c.DedupeCapacity <= 0 {
		return nil, fmt.Errorf("WORKER_DEDUPE_CAPACITY must be positive")
	}
	return c, nil
}

// LoadRetention builds a Retention config from the environment.
func LoadRetention() (*Retention, error) {
	src, err := newSource()
	if err != nil {
		return nil, err
	}
	c := &Retention{
		Common:    src.common(),
		Interval:  src.getDuration("RETENTION_INTERVAL", "1h"),
		MaxAge:    src.getDuration("RETENTION_MAX_AGE", "72h"),
		BatchSize: src.getInt("RETENTION_BATCH_SIZE", 500),
	}

	if c.Interval <= 0 {
		return nil, fmt.Errorf("RETENTION_INTERVAL must be positive")
	}
	if c.MaxAge <= 0 {
		return nil, fmt.Errorf("RETENTION_MAX_AGE must be positive")
	}
	if c.BatchSize <= 0 {
		return nil, fmt.Errorf("RETENTION_BATCH_SIZE must be positive")
	}
	return c, nil
}

func (p Pipeline) validate() error {
	switch p.LLMProvider {
	case "openai", "anthropic", "compatible":
	default:
		return fmt.Errorf("LLM_PROVIDER must be openai, anthropic or compatible, got %q", p.LLMProvider)
	}
	if p.LLMProvider == "compatible" && p.LLMBaseURL == "" {
		return fmt.Errorf("LLM_BASE_URL is required for the compatible provider")
	}
	if len(p.NewsFeeds) == 0 {
		return fmt.Errorf("NEWS_FEEDS must contain at least one feed")
	}
	if p.NewsLimit <= 0 {
		return fmt.Errorf("NEWS_LIMIT must be positive")
	}
	if p.ScriptHeadlines <= 0 {
		return fmt.Errorf("SCRIPT_HEADLINES must be positive")
	}
	if p.LongMaxUtterances < 0 {
		return fmt.Errorf("LONG_MAX_UTTERANCES cannot be negative")
	}
	return nil
}

// source resolves keys from the environment first, then the optional file.
type source struct {
	file map[string]string
}

func newSource() (*source, error) {
	s := &source{file: map[string]string{}}
	path := strings.TrimSpace(os.Getenv(FileEnv))
	if path == "" {
		return s, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", FileEnv, err)
	}
	var raw map[string]any
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	for k, v := range raw {
		s.file[strings.ToUpper(k)] = stringify(v)
	}
	return s, nil
}

func stringify(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case []any:
		parts := make([]string, 0, len(t))
		for _, item := range t {
			parts = append(parts, stringify(item))
		}
		return strings.Join(parts, ",")
	default:
		return fmt.Sprint(t)
	}
}

func (s *source) common() Common {
	return Common{
		ScratchDir:         s.getEnv("SCRATCH_DIR", "/tmp/mvp"),
		RedisURL:           s.getEnv("REDIS_URL", ""),
		JobTTL:             s.getDuration("JOB_TTL", "72h"),
		KafkaBrokers:       splitAndTrim(s.getEnv("KAFKA_BROKERS", "")),
		KafkaRenderTopic:   s.getEnv("KAFKA_RENDER_TOPIC", "render_requests"),
		ElasticsearchAddr:  s.getEnv("ELASTICSEARCH_ADDR", ""),
		ElasticsearchIndex: s.getEnv("ELASTICSEARCH_INDEX", "renders"),
	}
}

func (s *source) pipeline() Pipeline {
	provider := strings.ToLower(s.getEnv("LLM_PROVIDER", "openai"))
	return Pipeline{
		NewsFeeds:         splitAndTrim(s.getEnv("NEWS_FEEDS", strings.Join(defaultFeeds, ","))),
		NewsLimit:         s.getInt("NEWS_LIMIT", 8),
		NewsCacheTTL:      s.getDuration("NEWS_CACHE_TTL", "5m"),
		NewsTimeout:       s.getDuration("NEWS_TIMEOUT", "10s"),
		ScriptHeadlines:   s.getInt("SCRIPT_HEADLINES", 5),
		LLMProvider:       provider,
		LLMModel:          s.getEnv("LLM_MODEL", defaultModel(provider)),
		LLMBaseURL:        s.getEnv("LLM_BASE_URL", ""),
		LLMAPIKey:         s.getEnv("LLM_API_KEY", s.getEnv(providerKeyEnv(provider), "")),
		TTSBin:            s.getEnv("TTS_BIN", "edge-tts"),
		TTSVoice:          s.getEnv("TTS_VOICE", "ko-KR-SunHiNeural"),
		TTSRate:           s.getEnv("TTS_RATE", "+10%"),
		FFmpegBin:         s.getEnv("FFMPEG_BIN", "ffmpeg"),
		FFprobeBin:        s.getEnv("FFPROBE_BIN", "ffprobe"),
		LongMaxUtterances: s.getInt("LONG_MAX_UTTERANCES", 20),
		ImageTimeout:      s.getDuration("IMAGE_TIMEOUT", "10s"),
		StockImageURL:     s.getEnv("STOCK_IMAGE_URL", "https://loremflickr.com/1080/1920/economy,finance"),
	}
}

func defaultModel(provider string) string {
	switch provider {
	case "anthropic":
		return "claude-haiku-4-5"
	case "compatible":
		return "llama-3.3-70b-versatile"
	default:
		return "gpt-4o-mini"
	}
}

func providerKeyEnv(provider string) string {
	switch provider {
	case "anthropic":
		return "ANTHROPIC_API_KEY"
	case "compatible":
		return "GROQ_API_KEY"
	default:
		return "OPENAI_API_KEY"
	}
}

func (s *source) getEnv(key, fallback string) string {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		return v
	}
	if v, ok := s.file[key]; ok && v != "" {
		return v
	}
	return fallback
}

func (s *source) getInt(key string, fallback int) int {
	if v := s.getEnv(key, ""); v != "" {
		if parsed, err := strconv.Atoi(v); err == nil {
			return parsed
		}
	}
	return fallback
}

func (s *source) getDuration(key, fallback string) time.Duration {
	d, err := time.ParseDuration(s.getEnv(key, fallback))
	if err != nil {
		fd, ferr := time.ParseDuration(fallback)
		if ferr != nil {
			panic(fmt.Sprintf("invalid fallback duration %q: %v", fallback, ferr))
		}
		return fd
	}
	return d
}

func splitAndTrim(raw string) []string {
	parts := strings.Split(raw, ",")
	out := make([]string, 0, len(parts))
	for _, part := range parts {
		trimmed := strings.TrimSpace(part)
		if trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}

// Package script drafts narration scripts from current headlines.
package script

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/wintersoldje/econ-shorts/backend/internal/llm"
	"github.com/wintersoldje/econ-shorts/backend/internal/logger"
	"github.com/wintersoldje/econ-shorts/backend/internal/models"
	"github.com/wintersoldje/econ-shorts/backend/internal/processing"
)

// Apology is spoken when no headline could be collected.
const Apology = "죄송합니다. 지금은 경제 뉴스를 불러오지 못했습니다. 잠시 후 다시 시도해 주세요."

// ErrEmptyScript is returned when the model output sanitizes to nothing.
var ErrEmptyScript = errors.New("script: model returned no narration")

// NewsSource returns the current deduplicated headlines.
type NewsSource interface {
	Fetch(ctx context.Context, limit int) []models.NewsItem
}

// Script is sanitized narration plus the link it cites.
type Script struct {
	Kind      models.ScriptKind
	Narration string
	SourceURL string
	Headlines []models.NewsItem
}

// Text is the narration followed by the source marker, the form shown to
// users and saved to disk.
func (s *Script) Text() string {
	return processing.AppendSourceMarker(s.Narration, s.SourceURL)
}

// Composer turns headlines into a narration script via a language model.
type Composer struct {
	news      NewsSource
	model     llm.Client
	newsLimit int
	headlines int
	log       *slog.Logger
}

func NewComposer(news NewsSource, model llm.Client, newsLimit, headlines int, log *slog.Logger) *Composer {
	if headlines <= 0 {
		headlines = 5
	}
	if newsLimit < headlines {
		newsLimit = headlines
	}
	return &Composer{
		news:      news,
		model:     model,
		newsLimit: newsLimit,
		headlines: headlines,
		log:       logger.OrDiscard(log),
	}
}

// Compose drafts a script of the given kind. Model failures are returned
// unchanged in meaning; an empty headline list yields the apology script
// without calling the model.
func (c *Composer) Compose(ctx context.Context, kind models.ScriptKind) (*Script, error) {
	items := c.news.Fetch(ctx, c.newsLimit)
	if len(items) > c.headlines {
		items = items[:c.headlines]
	}
	if len(items) == 0 {
		c.log.Warn("no headlines available, using apology script", slog.String("kind", string(kind)))
		return &Script{Kind: kind, Narration: processing.Sanitize(Apology)}, nil
	}

	raw, err := c.model.Complete(ctx, BuildPrompt(kind, items))
	if err != nil {
		return nil, fmt.Errorf("compose %s script: %w", kind, err)
	}

	// the marker is pulled out before sanitizing so the link survives intact
	source := processing.ExtractSourceURL(raw)
	narration := processing.Sanitize(processing.StripSourceMarker(raw))
	if narration == "" {
		return nil, ErrEmptyScript
	}

	c.log.Info("script composed",
		slog.String("kind", string(kind)),
		slog.Int("headlines", len(items)),
		slog.Int("chars", len([]rune(narration))),
	)
	return &Script{Kind: kind, Narration: narration, SourceURL: source, Headlines: items}, nil
}

const rolePrompt = `당신은 한국어 경제 유튜브 채널의 방송 작가입니다.
최신 경제 뉴스를 바탕으로 내레이션 대본만 작성합니다. 장면 지시, 제목, 해설 없이 읽을 문장만 씁니다.`

const shortOutline = `[형식: 숏츠]
- 뉴스 한 가지만 다룹니다.
- 길이는 읽었을 때 45초에서 60초 사이입니다.
- 구성: 첫 문장은 시청자의 관심을 끄는 훅, 이어서 핵심 내용과 의미, 마지막은 구독과 좋아요를 부탁하는 한 문장입니다.`

const longOutline = `[형식: 롱폼]
- 뉴스 두 가지를 다룹니다.
- 길이는 읽었을 때 5분에서 8분 사이입니다.
- 구성: 오프닝에서 오늘 다룰 주제를 소개하고, 각 뉴스마다 배경, 핵심 내용, 시장과 생활에 미치는 영향을 설명합니다.
- 마무리에서 시청자가 확인할 체크리스트를 세 가지 문장으로 정리하고 다음 영상 예고와 구독 부탁으로 끝냅니다.`

const ttsRules = `[음성 합성 규칙]
- 이모지, 특수기호, 마크다운 기호(# * _ ~ > | 등)를 쓰지 않습니다.
- 따옴표를 쓰지 않습니다.
- 퍼센트, 달러, 원은 기호 대신 한글로 씁니다. 예: 3퍼센트, 100달러, 5000원.
- 숫자에 쉼표를 넣지 않습니다.
- 슬래시 대신 또는 이라고 씁니다.
- 모든 문장은 니다 또는 요 로 끝나는 완결된 문장으로 씁니다.`

// BuildPrompt assembles the instruction for kind from the candidate headlines.
func BuildPrompt(kind models.ScriptKind, items []models.NewsItem) llm.Prompt {
	var sb strings.Builder
	if kind == models.KindLong {
		sb.WriteString(longOutline)
	} else {
		sb.WriteString(shortOutline)
	}
	sb.WriteString("\n\n")
	sb.WriteString(ttsRules)
	sb.WriteString("\n\n[오늘의 헤드라인]\n")
	for i, it := range items {
		fmt.Fprintf(&sb, "%d. [%s] %s\n", i+1, it.Source, it.Title)
		if it.Summary != "" {
			fmt.Fprintf(&sb, "   요약: %s\n", truncateRunes(it.Summary, 200))
		}
		if it.Link != "" {
			fmt.Fprintf(&sb, "   링크: %s\n", it.Link)
		}
	}
	fmt.Fprintf(&sb, "\n대본의 마지막 줄에는 사용한 기사 링크를 %s: <링크> 형식으로 한 번만 적어 주세요.", processing.SourceLabel)

	return llm.Prompt{System: rolePrompt, User: sb.String()}
}

func truncateRunes(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n]) + "..."
}

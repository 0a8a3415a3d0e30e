package processing_test

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/wintersoldje/econ-shorts/backend/internal/processing"
)

func TestSegment(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  []string
	}{
		{name: "empty", input: "", want: nil},
		{name: "blank", input: "  \n \n", want: nil},
		{
			name:  "formal endings",
			input: "금리가 올랐습니다. 시장이 흔들렸습니다. 전망은 엇갈립니다.",
			want:  []string{"금리가 올랐습니다.", "시장이 흔들렸습니다.", "전망은 엇갈립니다."},
		},
		{
			name:  "polite endings",
			input: "오늘은 환율 이야기예요. 꼭 확인하세요.",
			want:  []string{"오늘은 환율 이야기예요.", "꼭 확인하세요."},
		},
		{
			name:  "question and exclamation",
			input: "왜 그럴까? 이유가 있습니다! 바로 금리입니다.",
			want:  []string{"왜 그럴까?", "이유가 있습니다!", "바로 금리입니다."},
		},
		{
			name:  "existing line breaks",
			input: "첫 줄\n\n  둘째 줄  \n",
			want:  []string{"첫 줄", "둘째 줄"},
		},
		{
			name:  "unmatched boundary stays joined",
			input: "He said hi. Then left.",
			want:  []string{"He said hi. Then left."},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.Equal(t, tt.want, processing.Segment(tt.input))
		})
	}
}

func TestSegmentPreservesOrderAndContent(t *testing.T) {
	input := "하나입니다. 둘이에요. 셋입니다. 넷이에요."
	got := processing.Segment(input)
	require.Len(t, got, 4)
	for _, u := range got {
		require.NotEmpty(t, strings.TrimSpace(u))
	}
	require.Equal(t, strings.ReplaceAll(input, " ", ""), strings.Join(got, ""))
}

func TestTruncate(t *testing.T) {
	in := []string{"a", "b", "c"}
	require.Equal(t, []string{"a", "b"}, processing.Truncate(in, 2))
	require.Equal(t, in, processing.Truncate(in, 5))
	require.Equal(t, in, processing.Truncate(in, 0))

	out := processing.Truncate(in, 3)
	out[0] = "changed"
	require.Equal(t, "a", in[0])
}

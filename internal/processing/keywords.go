package processing

import (
	"html"
	"regexp"
	"sort"
	"strings"
	"unicode"
)

var (
	urlRegex    = regexp.MustCompile(`https?://[^\s]+`)
	punctuation = regexp.MustCompile(`[^\p{L}\p{N}\s]+`)
)

var stopwords = map[string]struct{}{
	"그리고": {}, "하지만": {}, "그러나": {}, "또는": {}, "오늘": {}, "이번": {},
	"있습니다": {}, "합니다": {}, "입니다": {}, "됩니다": {}, "여러분": {},
	"the": {}, "and": {}, "for": {}, "with": {},
}

// CleanText strips HTML entities, URLs and punctuation, and squeezes whitespace.
func CleanText(input string) string {
	if input == "" {
		return ""
	}
	decoded := html.UnescapeString(input)
	decoded = urlRegex.ReplaceAllString(decoded, " ")
	decoded = punctuation.ReplaceAllString(decoded, " ")
	return collapseSpace(decoded)
}

// ExtractKeywords returns the most frequent words that are not stop-words,
// ties broken alphabetically.
func ExtractKeywords(text string, limit, minLen int) []string {
	clean := strings.ToLower(CleanText(text))
	if clean == "" {
		return nil
	}

	freq := make(map[string]int)
	for _, token := range strings.Fields(clean) {
		token = strings.TrimFunc(token, func(r rune) bool {
			return !unicode.IsLetter(r) && !unicode.IsNumber(r)
		})
		if len([]rune(token)) < minLen {
			continue
		}
		if _, skip := stopwords[token]; skip {
			continue
		}
		freq[token]++
	}
	if len(freq) == 0 {
		return nil
	}

	type kv struct {
		word  string
		count int
	}
	pairs := make([]kv, 0, len(freq))
	for word, count := range freq {
		pairs = append(pairs, kv{word: word, count: count})
	}
	sort.Slice(pairs, func(i, j int) bool {
		if pairs[i].count == pairs[j].count {
			return pairs[i].word < pairs[j].word
		}
		return pairs[i].count > pairs[j].count
	})

	max := limit
	if max <= 0 || max > len(pairs) {
		max = len(pairs)
	}
	keywords := make([]string, 0, max)
	for i := 0; i < max; i++ {
		keywords = append(keywords, pairs[i].word)
	}
	return keywords
}

package processing

import (
	"regexp"
	"strings"
)

var (
	// Pictographs, dingbats, arrows/shapes, variation selector, ZWJ and the
	// keycap combiner.
	emoji  = regexp.MustCompile(`[\x{1F000}-\x{1FAFF}\x{2600}-\x{27BF}\x{2B00}-\x{2BFF}\x{FE0F}\x{200D}\x{20E3}]`)
	markup = regexp.MustCompile(`[#*_~<>{}\[\]=+^|\\]`)
	quotes = regexp.MustCompile("[\"'`“”‘’]")
)

// Spoken forms for the target voice (Korean).
const (
	wordOr      = " 또는 "
	wordPercent = " 퍼센트 "
	wordDollar  = " 달러 "
	wordWon     = " 원 "
)

var spokenSymbols = strings.NewReplacer(
	"%", wordPercent,
	"$", wordDollar,
	"₩", wordWon,
)

// Sanitize rewrites text so a speech engine reads it cleanly. Rules run in a
// fixed order because later rules see the output of earlier ones.
func Sanitize(text string) string {
	if text == "" {
		return ""
	}
	s := emoji.ReplaceAllString(text, "")
	s = markup.ReplaceAllString(s, " ")
	s = strings.ReplaceAll(s, "/", wordOr)
	s = quotes.ReplaceAllString(s, "")
	s = spokenSymbols.Replace(s)
	s = spaceAmountUnit(s)
	s = removeDigitCommas(s)
	return collapseSpace(s)
}

// spaceAmountUnit pads a 원 written directly after a digit ("1000원" ->
// "1000 원 "), the same spoken form as the ₩ symbol. Words such as 원인 or
// 원/달러 are left alone.
func spaceAmountUnit(s string) string {
	if !strings.ContainsRune(s, '원') {
		return s
	}
	runes := []rune(s)
	var b strings.Builder
	b.Grow(len(s) + 8)
	for i, r := range runes {
		if r == '원' && i > 0 && isDigit(runes[i-1]) {
			b.WriteString(wordWon)
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

// removeDigitCommas drops thousands separators ("1,000" -> "1000"). A rune
// scan rather than a regexp so runs like "1,234,567" are handled in one pass.
func removeDigitCommas(s string) string {
	if !strings.Contains(s, ",") {
		return s
	}
	runes := []rune(s)
	var b strings.Builder
	b.Grow(len(s))
	for i, r := range runes {
		if r == ',' && i > 0 && i < len(runes)-1 && isDigit(runes[i-1]) && isDigit(runes[i+1]) {
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

func isDigit(r rune) bool {
	return r >= '0' && r <= '9'
}

func collapseSpace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

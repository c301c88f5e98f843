package axis

import (
	"regexp"
	"strconv"
	"strings"
)

var (
	thousandsRe = regexp.MustCompile(`(\d),(\d{3})`)
	numberRe    = regexp.MustCompile(`\d+\.?\d*`)

	datePatterns = []*regexp.Regexp{
		regexp.MustCompile(`\d{4}[-/]\d{1,2}[-/]\d{1,2}`),
		regexp.MustCompile(`\d{1,2}[-/]\d{1,2}`),
		regexp.MustCompile(`\d{4}年\d{1,2}月\d{1,2}日`),
	}

	symbolPatterns = []*regexp.Regexp{
		regexp.MustCompile(`[A-Z]{2,4}`),
		regexp.MustCompile(`\d{6}`),
	}
)

// ParsePrice extracts the first decimal or integer token from text.
// Thousands separators between digits are removed first, so "1,234.50"
// parses as 1234.5. The value must lie strictly inside (min, max).
func ParsePrice(text string, min, max float64) (float64, bool) {
	s := text
	for {
		next := thousandsRe.ReplaceAllString(s, "$1$2")
		if next == s {
			break
		}
		s = next
	}

	tok := numberRe.FindString(s)
	if tok == "" {
		return 0, false
	}
	v, err := strconv.ParseFloat(strings.TrimSuffix(tok, "."), 64)
	if err != nil {
		return 0, false
	}
	if v <= min || v >= max {
		return 0, false
	}
	return v, true
}

// ParseDate returns the first date-like token in text, trying full dates,
// then month-day pairs, then the 年月日 form. The label is returned verbatim.
func ParseDate(text string) (string, bool) {
	return firstMatch(datePatterns, text)
}

// ParseSymbol returns a 2-4 letter uppercase ticker or a 6-digit code.
func ParseSymbol(text string) (string, bool) {
	return firstMatch(symbolPatterns, text)
}

func firstMatch(patterns []*regexp.Regexp, text string) (string, bool) {
	for _, re := range patterns {
		if m := re.FindString(text); m != "" {
			return m, true
		}
	}
	return "", false
}

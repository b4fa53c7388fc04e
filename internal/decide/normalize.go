package decide

import (
	"regexp"
	"strconv"
	"strings"
)

// Text normalizers for the loosely formatted figures analysis records carry.
// Each returns (value, ok); unparseable text is a missing signal, not an
// error.

var (
	usdBillionRe  = regexp.MustCompile(`(?i)\$?\s*([\d,]+(?:\.\d+)?)\s*(?:b\b|bn\b|billion)`)
	usdMillionRe  = regexp.MustCompile(`(?i)\$?\s*([\d,]+(?:\.\d+)?)\s*(?:m\b|mm\b|million)`)
	usdTrillionRe = regexp.MustCompile(`(?i)\$?\s*([\d,]+(?:\.\d+)?)\s*(?:t\b|tn\b|trillion)`)
	percentRe     = regexp.MustCompile(`([+\-]?\d+(?:\.\d+)?)\s*%`)
)

func parseGroup(re *regexp.Regexp, text string) (float64, bool) {
	m := re.FindStringSubmatch(text)
	if m == nil {
		return 0, false
	}
	v, err := strconv.ParseFloat(strings.ReplaceAll(m[1], ",", ""), 64)
	if err != nil {
		return 0, false
	}
	return v, true
}

// ParseUSDBillions extracts a dollar figure in billions from text such as
// "$600B", "600 billion", "1.3 trillion" or "$500M".
func ParseUSDBillions(text string) (float64, bool) {
	if text == "" {
		return 0, false
	}
	if v, ok := parseGroup(usdTrillionRe, text); ok {
		return v * 1000, true
	}
	if v, ok := parseGroup(usdBillionRe, text); ok {
		return v, true
	}
	if v, ok := parseGroup(usdMillionRe, text); ok {
		return v / 1000, true
	}
	return 0, false
}

// ParseUSDMillions extracts a dollar figure in millions from text such as
// "$25M ARR" or "2.5 billion revenue".
func ParseUSDMillions(text string) (float64, bool) {
	if text == "" {
		return 0, false
	}
	if v, ok := parseGroup(usdBillionRe, text); ok {
		return v * 1000, true
	}
	if v, ok := parseGroup(usdMillionRe, text); ok {
		return v, true
	}
	return 0, false
}

// ParsePercent extracts the first percentage from text such as "17.3% CAGR".
func ParsePercent(text string) (float64, bool) {
	if text == "" {
		return 0, false
	}
	return parseGroup(percentRe, text)
}

// ParseDeltaPct extracts a performance delta from a benchmark note such as
// "+12% over baseline". Explicitly signed values are taken as-is; unsigned
// values above 30 are treated as absolute benchmark numbers, not deltas,
// and rejected.
func ParseDeltaPct(text string) (float64, bool) {
	if text == "" {
		return 0, false
	}
	m := percentRe.FindStringSubmatch(text)
	if m == nil {
		return 0, false
	}
	v, err := strconv.ParseFloat(m[1], 64)
	if err != nil {
		return 0, false
	}
	if strings.HasPrefix(m[1], "+") {
		return v, true
	}
	if strings.HasPrefix(m[1], "-") {
		return v, true
	}
	if v > 30 {
		return 0, false
	}
	return v, true
}

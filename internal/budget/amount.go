package budget

import (
	"regexp"
	"strconv"
	"strings"
)

// DefaultTotal is used when the budget text holds no usable amount.
const DefaultTotal = 1000.0

var (
	numberRe   = regexp.MustCompile(`(?i)(\d[\d,]*(?:\.\d+)?)\s*(k\b)?`)
	dollarRe   = regexp.MustCompile(`\$\s*\d`)
	currencyRe = regexp.MustCompile(`(?i)\d[\d,]*(?:\.\d+)?\s*k?\s*(usd|dollars?|bucks|eur|euros?|gbp|pounds?)\b`)
	flexibleRe = regexp.MustCompile(`(?i)\b(flexible|unlimited|no limit|no budget|no cap)\b`)
)

// Kind classifies how the user phrased a budget.
type Kind int

const (
	KindInvalid Kind = iota
	KindAmount
	KindFlexible
)

// Classify reports whether text is a dollar amount or range, an amount with
// a currency word, or an explicit flexible phrase.
func Classify(text string) Kind {
	t := strings.TrimSpace(text)
	switch {
	case t == "":
		return KindInvalid
	case dollarRe.MatchString(t), currencyRe.MatchString(t):
		return KindAmount
	case flexibleRe.MatchString(t):
		return KindFlexible
	}
	return KindInvalid
}

// ParseAmount extracts the numeric budget from free text. For ranges the
// upper bound wins. A "k" suffix multiplies by 1000.
func ParseAmount(text string) (float64, bool) {
	best := 0.0
	found := false
	for _, m := range numberRe.FindAllStringSubmatch(text, -1) {
		v, err := strconv.ParseFloat(strings.ReplaceAll(m[1], ",", ""), 64)
		if err != nil {
			continue
		}
		if m[2] != "" {
			v *= 1000
		}
		if v > best {
			best = v
			found = true
		}
	}
	return best, found && best > 0
}

// TotalOf returns the amount in text or DefaultTotal.
func TotalOf(text string) float64 {
	if v, ok := ParseAmount(text); ok {
		return v
	}
	return DefaultTotal
}

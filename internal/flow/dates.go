package flow

import (
	"context"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/aretw0/wayfarer/internal/gateway"
	"github.com/aretw0/wayfarer/pkg/domain"
)

var (
	isoDateRe = regexp.MustCompile(`\b(\d{4}-\d{2}-\d{2})\b`)
	ordinalRe = regexp.MustCompile(`(?i)\b(\d{1,2})(st|nd|rd|th)\b`)
	ofRe      = regexp.MustCompile(`(?i)\bof\b`)
)

var fullLayouts = []string{
	domain.DateLayout,
	"01/02/2006",
	"1/2/2006",
	"January 2, 2006",
	"January 2 2006",
	"Jan 2, 2006",
	"Jan 2 2006",
	"2 January 2006",
	"2 Jan 2006",
	"Monday, January 2, 2006",
}

var yearlessLayouts = []string{
	"January 2",
	"Jan 2",
	"2 January",
	"2 Jan",
	"1/2",
}

// resolveDate turns user text into a calendar date. The reasoning gateway
// is tried first; native layouts are the fallback. Dates without a year take
// the anchor's year, or the next one when they would fall before the anchor.
func (p *planner) resolveDate(ctx context.Context, text string, anchor time.Time) (time.Time, bool) {
	if p.reasoning.Available() {
		out, err := p.reasoning.Complete(gateway.WithPurpose(ctx, "parse_date"), datePrompt(text, p.today(), anchor))
		if err == nil {
			if m := isoDateRe.FindString(out); m != "" {
				if d, err := time.Parse(domain.DateLayout, m); err == nil {
					return d, true
				}
			}
		}
		p.logger.Debug("Date parse fell back to native layouts", "input", text, "err", err)
	}
	return parseDate(text, p.today(), anchor)
}

func datePrompt(text string, today, anchor time.Time) string {
	return fmt.Sprintf(`Today is %s (%s).
Convert the travel date written by the user into the format YYYY-MM-DD.
If the year is missing, use the year of %s, or the following year when the date would fall before that date.
If the text is not a date, reply UNKNOWN.
Reply with only the date.
User wrote: %q`,
		today.Format(domain.DateLayout), today.Weekday(), anchor.Format(domain.DateLayout), text)
}

// parseDate understands ISO dates, US numeric dates, month names with or
// without a year, and the words today and tomorrow.
func parseDate(text string, today, anchor time.Time) (time.Time, bool) {
	t := strings.TrimSpace(text)
	t = strings.TrimRight(t, ".!?")
	t = ordinalRe.ReplaceAllString(t, "$1")
	t = ofRe.ReplaceAllString(t, "")
	t = strings.Join(strings.Fields(t), " ")

	switch strings.ToLower(t) {
	case "today":
		return today, true
	case "tomorrow":
		return today.AddDate(0, 0, 1), true
	}

	if m := isoDateRe.FindString(t); m != "" {
		if d, err := time.Parse(domain.DateLayout, m); err == nil {
			return d, true
		}
	}
	for _, layout := range fullLayouts {
		if d, err := time.Parse(layout, t); err == nil {
			return d, true
		}
	}
	for _, layout := range yearlessLayouts {
		d, err := time.Parse(layout, t)
		if err != nil {
			continue
		}
		anchorDay := time.Date(anchor.Year(), anchor.Month(), anchor.Day(), 0, 0, 0, 0, time.UTC)
		d = time.Date(anchor.Year(), d.Month(), d.Day(), 0, 0, 0, 0, time.UTC)
		if d.Before(anchorDay) {
			d = d.AddDate(1, 0, 0)
		}
		return d, true
	}
	return time.Time{}, false
}

// Package dates finds deadlines in free text.
//
// A Resolver collects candidate dates with three independent strategies and
// reports the earliest:
//
//  1. numeric dates in YYYY-MM-DD, MM/DD/YYYY and MM-DD-YYYY form
//  2. the relative keywords "tomorrow" (now + 1 day) and "next week" (now + 7 days)
//  3. phrases such as "due December 10", "deadline jan 5, 2026" or "by on March 3"
//
// Candidates that fail to parse are dropped. Resolution is best effort and
// never returns an error.
package dates

import (
	"regexp"
	"slices"
	"strings"
	"time"
	"unicode"

	"github.com/araddon/dateparse"
)

// NullSentinel is the due-date text meaning "no date".
const NullSentinel = "null"

var (
	isoPattern   = regexp.MustCompile(`\d{4}-\d{2}-\d{2}`)
	slashPattern = regexp.MustCompile(`\d{2}/\d{2}/\d{4}`)
	dashPattern  = regexp.MustCompile(`\d{2}-\d{2}-\d{4}`)

	// Applied to lowercased text.
	duePattern  = regexp.MustCompile(`(?:due|deadline|by)\s+(?:on\s+)?([A-Za-z]+\s+\d{1,2}(?:,?\s+\d{4})?)`)
	yearPattern = regexp.MustCompile(`\d{4}$`)
)

var phraseLayouts = []string{
	"January 2, 2006",
	"Jan 2, 2006",
}

// Option configures a Resolver.
type Option func(*Resolver)

// WithClock sets the source of "now" for relative dates and implied years.
func WithClock(now func() time.Time) Option {
	return func(r *Resolver) {
		r.now = now
	}
}

// Resolver extracts dates from text. It is safe for concurrent use.
type Resolver struct {
	now func() time.Time
}

// New creates a Resolver that uses the local wall clock unless WithClock is given.
func New(opts ...Option) *Resolver {
	r := &Resolver{now: time.Now}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// IsNone reports whether due-date text means "no date": empty, blank or
// the null sentinel in any case.
func IsNone(text string) bool {
	text = strings.TrimSpace(text)
	return text == "" || strings.EqualFold(text, NullSentinel)
}

// ResolveFirst returns the earliest date found in text.
func (r *Resolver) ResolveFirst(text string) (time.Time, bool) {
	candidates := r.Candidates(text)
	if len(candidates) == 0 {
		return time.Time{}, false
	}
	return slices.MinFunc(candidates, func(a, b time.Time) int {
		return a.Compare(b)
	}), true
}

// Candidates returns every date found in text, grouped by strategy in the
// order numeric, relative, phrase.
func (r *Resolver) Candidates(text string) []time.Time {
	now := r.now()
	loc := now.Location()

	var found []time.Time
	for _, pattern := range []*regexp.Regexp{isoPattern, slashPattern, dashPattern} {
		for _, match := range pattern.FindAllString(text, -1) {
			if t, ok := parseNumeric(match, loc); ok {
				found = append(found, t)
			}
		}
	}

	lower := strings.ToLower(text)
	if strings.Contains(lower, "tomorrow") {
		found = append(found, now.AddDate(0, 0, 1))
	}
	if strings.Contains(lower, "next week") {
		found = append(found, now.AddDate(0, 0, 7))
	}

	for _, m := range duePattern.FindAllStringSubmatch(lower, -1) {
		if t, ok := parsePhrase(m[1], now); ok {
			found = append(found, t)
		}
	}
	return found
}

func parseNumeric(match string, loc *time.Location) (time.Time, bool) {
	// dateparse reads MM/DD/YYYY but not MM-DD-YYYY.
	if dashPattern.MatchString(match) && !isoPattern.MatchString(match) {
		match = strings.ReplaceAll(match, "-", "/")
	}
	t, err := dateparse.ParseIn(match, loc, dateparse.PreferMonthFirst(true))
	if err != nil {
		return time.Time{}, false
	}
	return t, true
}

// parsePhrase reads "<month> <day>[,] [year]". A missing year is taken
// from now. Phrases not led by a month name are rejected.
func parsePhrase(phrase string, now time.Time) (time.Time, bool) {
	fields := strings.Fields(strings.ReplaceAll(phrase, ",", " "))
	if len(fields) < 2 || !isMonthName(fields[0]) {
		return time.Time{}, false
	}

	month := titleCase(fields[0])
	day := fields[1]
	year := now.Format("2006")
	if len(fields) > 2 && yearPattern.MatchString(fields[2]) {
		year = fields[2]
	}
	canonical := month + " " + day + ", " + year

	if t, err := dateparse.ParseIn(canonical, now.Location()); err == nil {
		return t, true
	}
	for _, layout := range phraseLayouts {
		if t, err := time.ParseInLocation(layout, canonical, now.Location()); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

func isMonthName(word string) bool {
	if strings.EqualFold(word, "sept") {
		return true
	}
	for m := time.January; m <= time.December; m++ {
		full := m.String()
		if strings.EqualFold(word, full) || strings.EqualFold(word, full[:3]) {
			return true
		}
	}
	return false
}

func titleCase(word string) string {
	if strings.EqualFold(word, "sept") {
		return "Sep"
	}
	r := []rune(strings.ToLower(word))
	r[0] = unicode.ToUpper(r[0])
	return string(r)
}

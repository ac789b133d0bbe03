package calendar

import (
	"regexp"
	"strings"
	"time"

	dps "github.com/markusmobius/go-dateparser"
)

// DefaultLanguages are the languages menu requests are usually written in.
var DefaultLanguages = []string{"en", "de"}

var weekdays = map[string]time.Weekday{
	"sunday": time.Sunday, "sonntag": time.Sunday,
	"monday": time.Monday, "montag": time.Monday,
	"tuesday": time.Tuesday, "dienstag": time.Tuesday,
	"wednesday": time.Wednesday, "mittwoch": time.Wednesday,
	"thursday": time.Thursday, "donnerstag": time.Thursday,
	"friday": time.Friday, "freitag": time.Friday,
	"saturday": time.Saturday, "samstag": time.Saturday,
}

var nextWeekdayRe = regexp.MustCompile(`^(?:next|nächste[nr]?|kommende[nr]?)\s+(\pL+)$`)

// NaturalParser parses absolute, numeric and relative dates
// ("February 7 2019", "15/02", "100 years ago", "tomorrow"). A bare or
// "next" weekday means the coming one.
type NaturalParser struct {
	Languages []string
}

// Parse implements Parser.
func (p NaturalParser) Parse(text string, now time.Time) (time.Time, error) {
	if t, ok := nextWeekday(text, now); ok {
		return t, nil
	}

	langs := p.Languages
	if len(langs) == 0 {
		langs = DefaultLanguages
	}
	cfg := &dps.Configuration{
		Languages:           langs,
		DateOrder:           dps.DMY,
		CurrentTime:         now,
		PreferredDateSource: dps.Future,
	}
	dt, err := dps.Parse(cfg, text)
	if err != nil {
		return time.Time{}, err
	}
	return dt.Time, nil
}

// nextWeekday handles "next friday": the first such day after today.
func nextWeekday(text string, now time.Time) (time.Time, bool) {
	m := nextWeekdayRe.FindStringSubmatch(strings.ToLower(strings.TrimSpace(text)))
	if m == nil {
		return time.Time{}, false
	}
	wd, ok := weekdays[m[1]]
	if !ok {
		return time.Time{}, false
	}
	ahead := (int(wd) - int(now.Weekday()) + 7) % 7
	if ahead == 0 {
		ahead = 7
	}
	return now.AddDate(0, 0, ahead), true
}

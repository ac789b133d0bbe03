// Package calendar turns free-form date text into a CalendarPoint.
package calendar

import (
	"fmt"
	"strings"
	"time"

	"github.com/starford/oxmenu/internal/apperr"
	"github.com/starford/oxmenu/internal/models"
)

// Parser interprets natural-language date text relative to now.
type Parser interface {
	Parse(text string, now time.Time) (time.Time, error)
}

// Resolver maps request text to the calendar week of the menu to look up.
type Resolver struct {
	parser   Parser
	location *time.Location
}

// NewResolver creates a Resolver. A nil location means UTC.
func NewResolver(parser Parser, location *time.Location) *Resolver {
	if location == nil {
		location = time.UTC
	}
	return &Resolver{parser: parser, location: location}
}

// Resolve returns the point for text, or for now when text is blank.
// Unparseable text yields an error wrapping apperr.ErrDateParse.
func (r *Resolver) Resolve(text string, now time.Time) (models.CalendarPoint, error) {
	now = now.In(r.location)
	text = strings.TrimSpace(text)
	if text == "" {
		return models.PointFromTime(now), nil
	}
	t, err := r.parser.Parse(text, now)
	if err != nil {
		return models.CalendarPoint{}, fmt.Errorf("calendar: parse %q: %w: %v", text, apperr.ErrDateParse, err)
	}
	if t.IsZero() {
		return models.CalendarPoint{}, fmt.Errorf("calendar: parse %q: %w", text, apperr.ErrDateParse)
	}
	return models.PointFromTime(t), nil
}

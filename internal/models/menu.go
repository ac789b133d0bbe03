// Package models defines the domain types for oxmenu.
package models

import (
	"fmt"
	"time"
)

// CalendarPoint is a resolved request date: ISO week-numbering year and
// week, plus the day of month used to locate the entry inside the week.
type CalendarPoint struct {
	Year int `json:"year"`
	Week int `json:"week"`
	Day  int `json:"day"`
}

// PointFromTime derives a CalendarPoint from the wall-clock date of t.
func PointFromTime(t time.Time) CalendarPoint {
	year, week := time.Date(t.Year(), t.Month(), t.Day(), 12, 0, 0, 0, time.UTC).ISOWeek()
	return CalendarPoint{Year: year, Week: week, Day: t.Day()}
}

// Key returns the cache key of the weekly document containing p.
func (p CalendarPoint) Key() WeekKey {
	return WeekKey{Year: p.Year, Week: p.Week}
}

// WeekKey identifies one published weekly menu document.
type WeekKey struct {
	Year int `json:"year"`
	Week int `json:"week"`
}

func (k WeekKey) String() string {
	return fmt.Sprintf("%d-W%02d", k.Year, k.Week)
}

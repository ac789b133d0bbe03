// Package daymenu isolates one day's entry from the text of a weekly menu.
package daymenu

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/starford/oxmenu/internal/apperr"
)

// DefaultFooter is the disclaimer printed under the last day of the week.
// Matched byte-for-byte.
const DefaultFooter = "Änderungen vorbehalten!"

var lineBreakRe = regexp.MustCompile(`\r\n|\n|\r`)

// asciiSpace is what counts as blank. Non-breaking and other Unicode spaces
// are content.
const asciiSpace = " \t\n\v\f\r"

func trim(s string) string {
	return strings.Trim(s, asciiSpace)
}

// Extractor finds day entries. A day entry starts at the line containing
// "// <day>" followed by '.' or ' ', and ends before the next blank line or
// the next line containing Footer.
type Extractor struct {
	Footer string
}

// New creates an Extractor. An empty footer means DefaultFooter.
func New(footer string) *Extractor {
	if footer == "" {
		footer = DefaultFooter
	}
	return &Extractor{Footer: footer}
}

// Extract returns the trimmed entry for day, or an error wrapping
// apperr.ErrNotFound.
func (e *Extractor) Extract(weekText string, day int) (string, error) {
	lines := lineBreakRe.Split(weekText, -1)
	// The last line is a page artifact of the source format.
	lines = lines[:len(lines)-1]

	start := startPattern(day)
	i := 0
	for i < len(lines) && !start.MatchString(lines[i]) {
		i++
	}
	if i == len(lines) {
		return "", fmt.Errorf("daymenu: day %d: %w", day, apperr.ErrNotFound)
	}

	var entry []string
	for _, line := range lines[i:] {
		if e.isEnd(line) {
			break
		}
		entry = append(entry, trim(line))
	}

	out := trim(strings.Join(entry, "\n"))
	if out == "" {
		return "", fmt.Errorf("daymenu: day %d: empty entry: %w", day, apperr.ErrNotFound)
	}
	return out, nil
}

func (e *Extractor) isEnd(line string) bool {
	return trim(line) == "" || (e.Footer != "" && strings.Contains(line, e.Footer))
}

func startPattern(day int) *regexp.Regexp {
	return regexp.MustCompile(`// ` + strconv.Itoa(day) + `[. ]`)
}

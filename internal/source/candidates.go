// Package source locates and downloads the weekly menu document.
package source

import (
	"fmt"
	"strconv"

	"github.com/yosida95/uritemplate/v3"

	"github.com/starford/oxmenu/internal/models"
)

// DefaultBaseURL is where the restaurant publishes its weekly menus.
const DefaultBaseURL = "http://www.ox-linz.at/fileadmin/Mittagsmenue"

// DefaultTemplates lists the URL variants the publisher has used, most
// common first.
//
// {year} expands to the ISO week-numbering year, not the calendar year:
// for 2024-12-30 (2025-W01) the folder is /2025/. If the publisher files
// such boundary weeks under the calendar year, add a template without
// {year} or mirror the document.
var DefaultTemplates = []string{
	"{+base}/{year}/OX_Linz_A5_Wochenmenue__KW{week}.pdf",
	"{+base}/{year}/OX_Linz_A5_Wochenmenue__KW{week}_V2.pdf",
	"{+base}/{year}/OX_Linz_A5_Wochenmenue_KW{week}.pdf",
	"{+base}/OX_Linz_A5_Wochenmenue__KW{week}.pdf",
	"{+base}/OX_Linz_A5_Wochenmenue_KW{week}.pdf",
}

// Candidates expands an ordered list of URI templates for a week.
type Candidates struct {
	base      string
	raw       []string
	templates []*uritemplate.Template
}

// NewCandidates parses templates (RFC 6570, variables base/year/week).
func NewCandidates(base string, templates []string) (*Candidates, error) {
	if len(templates) == 0 {
		return nil, fmt.Errorf("source: no candidate templates")
	}
	c := &Candidates{base: base, raw: templates}
	for _, raw := range templates {
		tmpl, err := uritemplate.New(raw)
		if err != nil {
			return nil, fmt.Errorf("source: parse template %q: %w", raw, err)
		}
		c.templates = append(c.templates, tmpl)
	}
	return c, nil
}

// Build returns the candidate URLs for key in priority order.
func (c *Candidates) Build(key models.WeekKey) ([]string, error) {
	vals := uritemplate.Values{}
	vals.Set("base", uritemplate.String(c.base))
	vals.Set("year", uritemplate.String(strconv.Itoa(key.Year)))
	vals.Set("week", uritemplate.String(strconv.Itoa(key.Week)))

	urls := make([]string, 0, len(c.templates))
	for i, tmpl := range c.templates {
		u, err := tmpl.Expand(vals)
		if err != nil {
			return nil, fmt.Errorf("source: expand %q: %w", c.raw[i], err)
		}
		urls = append(urls, u)
	}
	return urls, nil
}

// Templates returns the raw templates in priority order.
func (c *Candidates) Templates() []string {
	return append([]string(nil), c.raw...)
}

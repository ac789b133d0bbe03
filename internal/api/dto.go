package api

import (
	"github.com/starford/oxmenu/internal/menucache"
	"github.com/starford/oxmenu/internal/menuservice"
)

// ResponseTypeEphemeral shows a response only to the user who issued the command.
const ResponseTypeEphemeral = "ephemeral"

// SlackResponse is the JSON body POSTed to a slash command's response_url.
type SlackResponse struct {
	ResponseType string `json:"response_type"`
	Text         string `json:"text"`
}

// MenuResponse is the body of GET /api/menu. On failure Text carries the
// user-facing message and the calendar fields are zero when the date
// could not be parsed.
type MenuResponse struct {
	Found bool   `json:"found"`
	Text  string `json:"text"`
	Year  int    `json:"year,omitempty"`
	Week  int    `json:"week,omitempty"`
	Day   int    `json:"day,omitempty"`
	URL   string `json:"url,omitempty"`
}

func menuResponse(m *menuservice.DayMenu) MenuResponse {
	return MenuResponse{
		Found: true,
		Text:  m.Text,
		Year:  m.Point.Year,
		Week:  m.Point.Week,
		Day:   m.Point.Day,
		URL:   m.URL,
	}
}

// CacheResponse lists memoized weeks.
type CacheResponse struct {
	Weeks []menucache.KeyedEntry `json:"weeks"`
	Total int                    `json:"total"`
}

// ResetResponse is returned after a cache reset.
type ResetResponse struct {
	Dropped int `json:"dropped"`
}

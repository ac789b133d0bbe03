// Package testutil provides shared test helpers: a stub menu publisher and
// sample week documents.
package testutil

import (
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
)

// Publisher is an HTTP server standing in for the restaurant's file host.
// Unregistered paths answer 404. Every request is recorded.
type Publisher struct {
	srv *httptest.Server

	mu       sync.Mutex
	docs     map[string][]byte
	broken   map[string]bool
	requests []string
}

// NewPublisher starts a Publisher that is closed on test cleanup.
func NewPublisher(t *testing.T) *Publisher {
	t.Helper()
	p := &Publisher{
		docs:   make(map[string][]byte),
		broken: make(map[string]bool),
	}
	p.srv = httptest.NewServer(http.HandlerFunc(p.serve))
	t.Cleanup(p.srv.Close)
	return p
}

// URL returns the server base URL.
func (p *Publisher) URL() string {
	return p.srv.URL
}

// Serve registers body for path.
func (p *Publisher) Serve(path string, body []byte) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.docs[path] = body
}

// Break makes requests for path fail at the transport level.
func (p *Publisher) Break(path string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.broken[path] = true
}

// Requests returns the requested paths in arrival order.
func (p *Publisher) Requests() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]string(nil), p.requests...)
}

// Hits returns how often path was requested.
func (p *Publisher) Hits(path string) int {
	p.mu.Lock()
	defer p.mu.Unlock()
	n := 0
	for _, r := range p.requests {
		if r == path {
			n++
		}
	}
	return n
}

func (p *Publisher) serve(w http.ResponseWriter, r *http.Request) {
	p.mu.Lock()
	p.requests = append(p.requests, r.URL.Path)
	body, ok := p.docs[r.URL.Path]
	broken := p.broken[r.URL.Path]
	p.mu.Unlock()

	if broken {
		hj, ok := w.(http.Hijacker)
		if !ok {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		conn, _, err := hj.Hijack()
		if err == nil {
			_ = conn.Close()
		}
		return
	}
	if !ok {
		http.NotFound(w, r)
		return
	}
	w.Header().Set("Content-Type", "application/pdf")
	_, _ = w.Write(body)
}

// WeekSeven is the extracted text of the 2019 week 7 menu, shaped like the
// publisher's documents: a header, day blocks separated by blank lines, a
// footer and a trailing page artifact.
const WeekSeven = `OX Linz Wochenmenü KW 7
Montag // 11. Februar
Frittatensuppe
Gebackenes Hühnerfilet mit Erdäpfelsalat

Dienstag // 12. Februar
Grießnockerlsuppe
Spaghetti Bolognese

Mittwoch // 13. Februar
Gemüsecremesuppe
Cordon Bleu mit Reis

Donnerstag // 14. Februar
Rindsuppe mit Nudeln
Zwiebelrostbraten mit Bratkartoffeln

Freitag // 15. Februar
Knoblauchcremesuppe
Gegrillte Fischfilet mit Petersilienkartoffeln
Chicken Burger mit Pommes frites
Änderungen vorbehalten! Alle Preise in Euro
Seite 1`

// WeekSix is the extracted text of the 2019 week 6 menu.
const WeekSix = `OX Linz Wochenmenü KW 6
Mittwoch // 6. Februar
Tomatensuppe
Putengeschnetzeltes mit Reis

Donnerstag // 7. Februar
  Rindsuppe mit Eiernockerl
Knuspriger Schweinsbraten mit Semmelknödel und warmen Krautsalat
Schinken-Käseröllchen mit Kartoffeln und Sauce Tartar

Freitag // 8. Februar
Kürbiscremesuppe
Backhendl mit Erdäpfel-Vogerlsalat
Änderungen vorbehalten!
`

// WeekSixDaySeven is the expected day-7 entry of WeekSix.
const WeekSixDaySeven = `Donnerstag // 7. Februar
Rindsuppe mit Eiernockerl
Knuspriger Schweinsbraten mit Semmelknödel und warmen Krautsalat
Schinken-Käseröllchen mit Kartoffeln und Sauce Tartar`

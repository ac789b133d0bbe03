// Package sse implements a Server-Sent Events feed of cache activity.
package sse

import (
	"encoding/json"
	"fmt"
	"net/http"
	"sync/atomic"
	"time"

	"github.com/starford/oxmenu/internal/models"
)

// Event types.
const (
	EventMenuCached   = "menu.cached"
	EventCacheReset   = "cache.reset"
	EventCacheChanged = "cache.changed"
)

// WeekCached is the payload of a menu.cached event.
type WeekCached struct {
	Week  string `json:"week"`
	Year  int    `json:"year"`
	Num   int    `json:"week_number"`
	Found bool   `json:"found"`
}

// CacheReset is the payload of a cache.reset event.
type CacheReset struct {
	Dropped int `json:"dropped"`
}

type event struct {
	kind string
	data any
}

type clientSet map[chan []byte]struct{}

// Broker fans cache events out to SSE clients.
//
// The client set is owned by one loop goroutine. Callers hand it closures
// over ops and events over events; nothing else touches the set.
type Broker struct {
	changedMin time.Duration

	ops    chan func(clientSet)
	events chan event

	stopCh  chan struct{}
	stopped chan struct{}
	closed  atomic.Bool
}

// NewBroker creates a broker that follows each cache event with at most
// one cache.changed summary per throttle interval.
func NewBroker(throttle time.Duration) *Broker {
	if throttle <= 0 {
		throttle = 2 * time.Second
	}
	b := &Broker{
		changedMin: throttle,
		ops:        make(chan func(clientSet)),
		events:     make(chan event, 256),
		stopCh:     make(chan struct{}),
		stopped:    make(chan struct{}),
	}
	go b.loop()
	return b
}

func (b *Broker) loop() {
	defer close(b.stopped)

	clients := clientSet{}
	var lastChanged time.Time

	for {
		select {
		case <-b.stopCh:
			for ch := range clients {
				close(ch)
			}
			return
		case op := <-b.ops:
			op(clients)
		case ev := <-b.events:
			clients.send(ev)
			if now := time.Now(); now.Sub(lastChanged) >= b.changedMin {
				lastChanged = now
				clients.send(event{kind: EventCacheChanged, data: struct{}{}})
			}
		}
	}
}

// send writes ev to every client, skipping clients whose buffer is full.
func (c clientSet) send(ev event) {
	payload, err := json.Marshal(ev.data)
	if err != nil {
		return
	}
	msg := []byte(fmt.Sprintf("event: %s\ndata: %s\n\n", ev.kind, payload))
	for ch := range c {
		select {
		case ch <- msg:
		default:
		}
	}
}

// do runs op on the loop. It reports false once the broker is closed.
func (b *Broker) do(op func(clientSet)) bool {
	if b.closed.Load() {
		return false
	}
	select {
	case b.ops <- op:
		return true
	case <-b.stopped:
		return false
	}
}

// Close stops the loop and closes all client channels. Safe to call twice.
func (b *Broker) Close() {
	if b.closed.CompareAndSwap(false, true) {
		close(b.stopCh)
	}
	<-b.stopped
}

// Subscribe registers a client. The channel is closed on Unsubscribe or Close.
func (b *Broker) Subscribe() chan []byte {
	ch := make(chan []byte, 64)
	if !b.do(func(c clientSet) { c[ch] = struct{}{} }) {
		close(ch)
	}
	return ch
}

// Unsubscribe removes a client and closes its channel.
func (b *Broker) Unsubscribe(ch chan []byte) {
	b.do(func(c clientSet) {
		if _, ok := c[ch]; ok {
			delete(c, ch)
			close(ch)
		}
	})
}

// ClientCount returns the number of connected clients.
func (b *Broker) ClientCount() int {
	n := make(chan int, 1)
	if !b.do(func(c clientSet) { n <- len(c) }) {
		return 0
	}
	return <-n
}

// PublishWeekCached announces a newly memoized week.
func (b *Broker) PublishWeekCached(key models.WeekKey, found bool) {
	b.publish(event{kind: EventMenuCached, data: WeekCached{
		Week:  key.String(),
		Year:  key.Year,
		Num:   key.Week,
		Found: found,
	}})
}

// PublishCacheReset announces that the cache was emptied.
func (b *Broker) PublishCacheReset(dropped int) {
	b.publish(event{kind: EventCacheReset, data: CacheReset{Dropped: dropped}})
}

func (b *Broker) publish(ev event) {
	if b.closed.Load() {
		return
	}
	select {
	case b.events <- ev:
	case <-b.stopped:
	}
}

// ServeHTTP streams events to one client (GET /api/events).
func (b *Broker) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "streaming unsupported", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.WriteHeader(http.StatusOK)
	flusher.Flush()

	ch := b.Subscribe()
	defer b.Unsubscribe(ch)

	for {
		select {
		case <-r.Context().Done():
			return
		case msg, ok := <-ch:
			if !ok {
				return
			}
			_, _ = w.Write(msg)
			flusher.Flush()
		}
	}
}

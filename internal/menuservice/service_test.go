package menuservice

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/starford/oxmenu/internal/apperr"
	"github.com/starford/oxmenu/internal/calendar"
	"github.com/starford/oxmenu/internal/extract"
	"github.com/starford/oxmenu/internal/source"
	"github.com/starford/oxmenu/internal/testutil"
)

// dates is a Parser with a fixed vocabulary.
type dates map[string]time.Time

func (d dates) Parse(text string, _ time.Time) (time.Time, error) {
	t, ok := d[text]
	if !ok {
		return time.Time{}, errors.New("unknown date")
	}
	return t, nil
}

var (
	feb7   = time.Date(2019, time.February, 7, 0, 0, 0, 0, time.UTC)
	feb15  = time.Date(2019, time.February, 15, 0, 0, 0, 0, time.UTC)
	feb16  = time.Date(2019, time.February, 16, 0, 0, 0, 0, time.UTC)
	feb23  = time.Date(2019, time.February, 23, 0, 0, 0, 0, time.UTC)
	past   = time.Date(1919, time.February, 7, 0, 0, 0, 0, time.UTC)
	parser = dates{
		"7 February 2019":  feb7,
		"15/02":            feb15,
		"16/02":            feb16,
		"23/02":            feb23,
		"100 years ago":    past,
		"February 7, 2019": feb7,
	}
)

var testTemplates = []string{
	"{+base}/{year}/KW{week}.txt",
	"{+base}/KW{week}.txt",
}

// countingFetcher counts Fetch calls made by the pipeline.
type countingFetcher struct {
	mu    sync.Mutex
	calls int
	next  Fetcher
}

func (c *countingFetcher) Fetch(ctx context.Context, urls []string) (*source.Document, error) {
	c.mu.Lock()
	c.calls++
	c.mu.Unlock()
	return c.next.Fetch(ctx, urls)
}

func (c *countingFetcher) Calls() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.calls
}

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func testService(t *testing.T, pub *testutil.Publisher, templates ...string) (*Service, *countingFetcher) {
	t.Helper()
	if len(templates) == 0 {
		templates = testTemplates
	}
	cands, err := source.NewCandidates(pub.URL(), templates)
	if err != nil {
		t.Fatal(err)
	}
	fetcher := &countingFetcher{next: source.NewFetcher(source.WithLogger(quietLogger()))}
	svc := NewService(Deps{
		Resolver:   calendar.NewResolver(parser, time.UTC),
		Candidates: cands,
		Fetcher:    fetcher,
		Extractor:  extract.Text{},
		Logger:     quietLogger(),
	})
	return svc, fetcher
}

func TestResolve_DayEntry(t *testing.T) {
	pub := testutil.NewPublisher(t)
	pub.Serve("/2019/KW6.txt", []byte(testutil.WeekSix))
	svc, _ := testService(t, pub)

	got := svc.Resolve(context.Background(), "7 February 2019", time.Now())
	if got != testutil.WeekSixDaySeven {
		t.Errorf("got\n%s\nwant\n%s", got, testutil.WeekSixDaySeven)
	}
}

func TestResolve_AlternativeURL(t *testing.T) {
	pub := testutil.NewPublisher(t)
	pub.Serve("/KW8.txt", []byte("Kopf\nSamstag // 23. Februar\nOrangen-Karottensuppe\nRinderfiletspitzen\n\nx"))
	svc, _ := testService(t, pub)

	got := svc.Resolve(context.Background(), "23/02", time.Now())
	if got != "Samstag // 23. Februar\nOrangen-Karottensuppe\nRinderfiletspitzen" {
		t.Errorf("got %q", got)
	}
	if reqs := pub.Requests(); len(reqs) != 2 || reqs[0] != "/2019/KW8.txt" || reqs[1] != "/KW8.txt" {
		t.Errorf("requests = %v", reqs)
	}
}

func TestResolve_NoDocument(t *testing.T) {
	pub := testutil.NewPublisher(t)
	svc, _ := testService(t, pub)

	got := svc.Resolve(context.Background(), "100 years ago", time.Now())
	if got != MsgUnavailable {
		t.Errorf("got %q, want %q", got, MsgUnavailable)
	}
	if n := len(pub.Requests()); n != len(testTemplates) {
		t.Errorf("requests = %d, want %d", n, len(testTemplates))
	}
}

func TestResolve_UnparseableDate(t *testing.T) {
	pub := testutil.NewPublisher(t)
	svc, fetcher := testService(t, pub)

	for _, text := range []string{"invalid_date", "not a date"} {
		if got := svc.Resolve(context.Background(), text, time.Now()); got != MsgDateParse {
			t.Errorf("Resolve(%q) = %q, want %q", text, got, MsgDateParse)
		}
	}
	if fetcher.Calls() != 0 {
		t.Errorf("fetch calls = %d, want 0", fetcher.Calls())
	}
}

func TestResolve_TransportErrorThenSuccess(t *testing.T) {
	pub := testutil.NewPublisher(t)
	pub.Break("/2019/KW6.txt")
	pub.Serve("/KW6.txt", []byte(testutil.WeekSix))
	svc, _ := testService(t, pub)

	got := svc.Resolve(context.Background(), "7 February 2019", time.Now())
	if got != testutil.WeekSixDaySeven {
		t.Errorf("got %q", got)
	}
}

func TestResolve_BlankUsesNow(t *testing.T) {
	pub := testutil.NewPublisher(t)
	pub.Serve("/2019/KW7.txt", []byte(testutil.WeekSeven))
	svc, _ := testService(t, pub)

	now := time.Date(2019, time.February, 15, 11, 45, 0, 0, time.UTC)
	got := svc.Resolve(context.Background(), "  ", now)
	if !strings.HasPrefix(got, "Freitag // 15. Februar\n") {
		t.Errorf("got %q", got)
	}
}

func TestResolve_SameWeekFetchedOnce(t *testing.T) {
	pub := testutil.NewPublisher(t)
	pub.Serve("/2019/KW7.txt", []byte(testutil.WeekSeven))
	svc, fetcher := testService(t, pub)

	first := svc.Resolve(context.Background(), "15/02", time.Now())
	second := svc.Resolve(context.Background(), "15/02", time.Now())
	// Same week, different day: still served from cache.
	third := svc.Resolve(context.Background(), "16/02", time.Now())

	if first != second {
		t.Errorf("results differ: %q vs %q", first, second)
	}
	if third != MsgUnavailable {
		t.Errorf("saturday = %q, want unavailable", third)
	}
	if fetcher.Calls() != 1 {
		t.Errorf("fetch calls = %d, want 1", fetcher.Calls())
	}
	if pub.Hits("/2019/KW7.txt") != 1 {
		t.Errorf("document hits = %d, want 1", pub.Hits("/2019/KW7.txt"))
	}
}

func TestResolve_NegativeCaching(t *testing.T) {
	pub := testutil.NewPublisher(t)
	svc, fetcher := testService(t, pub)

	for i := 0; i < 3; i++ {
		if got := svc.Resolve(context.Background(), "100 years ago", time.Now()); got != MsgUnavailable {
			t.Fatalf("got %q", got)
		}
	}
	if fetcher.Calls() != 1 {
		t.Errorf("fetch calls = %d, want 1", fetcher.Calls())
	}
	if n := len(pub.Requests()); n != len(testTemplates) {
		t.Errorf("publisher requests = %d, want %d", n, len(testTemplates))
	}

	// Publishing later does not help until the cache is reset.
	pub.Serve("/1919/KW6.txt", []byte(testutil.WeekSix))
	if got := svc.Resolve(context.Background(), "100 years ago", time.Now()); got != MsgUnavailable {
		t.Errorf("got %q before reset", got)
	}
	if n := svc.ResetCache(); n != 1 {
		t.Errorf("ResetCache = %d, want 1", n)
	}
	if got := svc.Resolve(context.Background(), "100 years ago", time.Now()); got != testutil.WeekSixDaySeven {
		t.Errorf("got %q after reset", got)
	}
}

func TestResolve_DecodeFailureTriesNextCandidate(t *testing.T) {
	pub := testutil.NewPublisher(t)
	pub.Serve("/2019/KW6.txt", []byte{0xff, 0xfe, 0xfd})
	pub.Serve("/KW6.txt", []byte(testutil.WeekSix))
	svc, _ := testService(t, pub)

	got := svc.Resolve(context.Background(), "7 February 2019", time.Now())
	if got != testutil.WeekSixDaySeven {
		t.Errorf("got %q", got)
	}
	if reqs := pub.Requests(); len(reqs) != 2 {
		t.Errorf("requests = %v", reqs)
	}
}

func TestResolve_UndecodableEverywhere(t *testing.T) {
	pub := testutil.NewPublisher(t)
	pub.Serve("/2019/KW6.txt", []byte{0xff})
	pub.Serve("/KW6.txt", []byte(" \n "))
	svc, fetcher := testService(t, pub)

	if got := svc.Resolve(context.Background(), "7 February 2019", time.Now()); got != MsgUnavailable {
		t.Errorf("got %q", got)
	}
	if got := svc.Resolve(context.Background(), "7 February 2019", time.Now()); got != MsgUnavailable {
		t.Errorf("got %q", got)
	}
	if fetcher.Calls() != 2 {
		t.Errorf("fetch calls = %d, want 2 (one per decode attempt, first resolve only)", fetcher.Calls())
	}
}

func TestLookup_Errors(t *testing.T) {
	pub := testutil.NewPublisher(t)
	pub.Serve("/2019/KW6.txt", []byte(testutil.WeekSix))
	svc, _ := testService(t, pub)

	_, err := svc.Lookup(context.Background(), "nonsense", time.Now())
	if !errors.Is(err, apperr.ErrDateParse) {
		t.Errorf("err = %v, want ErrDateParse", err)
	}

	_, err = svc.Lookup(context.Background(), "100 years ago", time.Now())
	if !errors.Is(err, apperr.ErrMenuUnavailable) {
		t.Errorf("err = %v, want ErrMenuUnavailable", err)
	}

	menu, err := svc.Lookup(context.Background(), "February 7, 2019", time.Now())
	if err != nil {
		t.Fatal(err)
	}
	if menu.Point.Week != 6 || menu.Point.Day != 7 || !strings.HasSuffix(menu.URL, "/2019/KW6.txt") {
		t.Errorf("menu = %+v", menu)
	}

	weeks := svc.CachedWeeks()
	if len(weeks) != 2 {
		t.Fatalf("cached weeks = %+v", weeks)
	}
	if weeks[0].Key.Year != 1919 || weeks[0].Found || !weeks[1].Found {
		t.Errorf("cached weeks = %+v", weeks)
	}
}

func TestResolve_ConcurrentRequestsShareFetch(t *testing.T) {
	pub := testutil.NewPublisher(t)
	pub.Serve("/2019/KW7.txt", []byte(testutil.WeekSeven))
	svc, fetcher := testService(t, pub)

	var wg sync.WaitGroup
	results := make([]string, 16)
	for i := range results {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results[i] = svc.Resolve(context.Background(), "15/02", time.Now())
		}(i)
	}
	wg.Wait()

	for i, r := range results {
		if !strings.HasPrefix(r, "Freitag // 15. Februar") {
			t.Errorf("result %d = %q", i, r)
		}
	}
	if fetcher.Calls() != 1 {
		t.Errorf("fetch calls = %d, want 1", fetcher.Calls())
	}
}

func TestMessage(t *testing.T) {
	cases := []struct {
		menu *DayMenu
		err  error
		want string
	}{
		{&DayMenu{Text: "Suppe"}, nil, "Suppe"},
		{nil, fmt.Errorf("x: %w", apperr.ErrDateParse), MsgDateParse},
		{nil, fmt.Errorf("x: %w", apperr.ErrMenuUnavailable), MsgUnavailable},
		{nil, errors.New("other"), MsgUnavailable},
		{nil, nil, MsgUnavailable},
	}
	for _, c := range cases {
		if got := Message(c.menu, c.err); got != c.want {
			t.Errorf("Message(%v, %v) = %q, want %q", c.menu, c.err, got, c.want)
		}
	}
}

func TestCandidates(t *testing.T) {
	pub := testutil.NewPublisher(t)
	svc, fetcher := testService(t, pub)

	key, urls, err := svc.Candidates("15/02", time.Now())
	if err != nil {
		t.Fatal(err)
	}
	if key.Year != 2019 || key.Week != 7 {
		t.Errorf("key = %s", key)
	}
	want := []string{pub.URL() + "/2019/KW7.txt", pub.URL() + "/KW7.txt"}
	if strings.Join(urls, " ") != strings.Join(want, " ") {
		t.Errorf("urls = %v, want %v", urls, want)
	}
	if fetcher.Calls() != 0 {
		t.Errorf("Candidates must not fetch")
	}

	if _, _, err := svc.Candidates("nonsense", time.Now()); !errors.Is(err, apperr.ErrDateParse) {
		t.Errorf("err = %v, want ErrDateParse", err)
	}
}

func TestResolve_CancelledCallerDoesNotPoisonCache(t *testing.T) {
	pub := testutil.NewPublisher(t)
	pub.Serve("/2019/KW6.txt", []byte(testutil.WeekSix))
	svc, fetcher := testService(t, pub)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if got := svc.Resolve(ctx, "7 February 2019", time.Now()); got != testutil.WeekSixDaySeven {
		t.Errorf("cancelled caller got %q", got)
	}
	if got := svc.Resolve(context.Background(), "7 February 2019", time.Now()); got != testutil.WeekSixDaySeven {
		t.Errorf("later caller got %q", got)
	}
	if fetcher.Calls() != 1 {
		t.Errorf("fetches = %d, want 1", fetcher.Calls())
	}
	if hits := pub.Hits("/2019/KW6.txt"); hits != 1 {
		t.Errorf("publisher hits = %d, want 1", hits)
	}
}

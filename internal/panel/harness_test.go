package panel

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/PuerkitoBio/goquery"

	"NoticeBoard/internal/domain"
	"NoticeBoard/internal/ports"
)

type fetchFunc func(ctx context.Context, sel domain.Selection) (domain.Payload, error)

type fakeSource struct {
	mu    sync.Mutex
	calls []domain.Selection
	fetch fetchFunc
}

func (f *fakeSource) Fetch(ctx context.Context, sel domain.Selection) (domain.Payload, error) {
	f.mu.Lock()
	f.calls = append(f.calls, sel)
	fetch := f.fetch
	f.mu.Unlock()
	return fetch(ctx, sel)
}

func (f *fakeSource) Calls() []domain.Selection {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]domain.Selection(nil), f.calls...)
}

func staticSource(p domain.Payload, err error) *fakeSource {
	return &fakeSource{fetch: func(context.Context, domain.Selection) (domain.Payload, error) {
		return p, err
	}}
}

var testNow = time.Date(2025, time.March, 10, 9, 0, 0, 0, time.UTC)

func newTestController(t *testing.T, src ports.NotificationSource, viewport func(*goquery.Document) ports.Viewport, opts Options) *Controller {
	t.Helper()

	doc, err := NewPage(PageOptions{
		Departments: []string{"cse", "ece"},
		Years:       []string{"1", "2"},
		Now:         testNow,
	})
	if err != nil {
		t.Fatalf("new page: %v", err)
	}

	var vp ports.Viewport
	if viewport != nil {
		vp = viewport(doc)
	} else {
		vp = NewWindowViewport(doc, 0)
	}
	if opts.Location == nil {
		opts.Location = time.UTC
	}

	ctx, cancel := context.WithCancel(context.Background())
	loop := NewLoop()
	ctrl, err := NewController(ctx, doc, loop, src, vp, opts)
	if err != nil {
		cancel()
		t.Fatalf("new controller: %v", err)
	}

	go func() { _ = loop.Run(ctx) }()
	t.Cleanup(func() {
		ctrl.Wait()
		cancel()
		<-loop.Done()
	})
	return ctrl
}

// selectScoped picks year then department and waits for both fetches.
func selectScoped(t *testing.T, c *Controller, department, year string) {
	t.Helper()
	ctx := context.Background()
	if err := c.SetYear(ctx, year); err != nil {
		t.Fatalf("set year: %v", err)
	}
	c.Wait()
	if err := c.SetDepartment(ctx, department); err != nil {
		t.Fatalf("set department: %v", err)
	}
	c.Wait()
}

func refresh(t *testing.T, c *Controller) {
	t.Helper()
	if err := c.Refresh(context.Background()); err != nil {
		t.Fatalf("refresh: %v", err)
	}
	c.Wait()
}

func containerHTML(t *testing.T, c *Controller, selector string) string {
	t.Helper()
	var out string
	err := c.View(context.Background(), func(doc *goquery.Document) {
		out, _ = doc.Find(selector).First().Html()
	})
	if err != nil {
		t.Fatalf("view: %v", err)
	}
	return out
}

func query(t *testing.T, c *Controller, selector string, fn func(*goquery.Selection)) {
	t.Helper()
	err := c.View(context.Background(), func(doc *goquery.Document) {
		fn(doc.Find(selector))
	})
	if err != nil {
		t.Fatalf("view: %v", err)
	}
}

func titles(t *testing.T, c *Controller, selector string) []string {
	t.Helper()
	var out []string
	query(t, c, selector+" h4", func(s *goquery.Selection) {
		s.Each(func(_ int, h *goquery.Selection) {
			out = append(out, h.Text())
		})
	})
	return out
}

func eventually(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatal("condition not met before deadline")
}

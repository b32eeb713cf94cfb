package panel

import (
	"context"
	"errors"
	"strings"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/PuerkitoBio/goquery"
	"github.com/google/go-cmp/cmp"

	"NoticeBoard/internal/domain"
)

const (
	guidelinesSel = "#common-guidelines-container"
	commonSel     = "#common-notifications-container"
	deptSel       = "#department-notifications-container"
	archiveSel    = "#archive-notifications-container"
)

func TestUnscopedFetchScenario(t *testing.T) {
	t.Parallel()

	src := staticSource(domain.Payload{
		Guidelines:   []domain.Notification{},
		Common:       []domain.Notification{{Title: "A", Body: "b", StartDatetime: "2024-01-01T00:00:00Z"}},
		Departmental: []domain.Notification{},
		Archive:      []domain.Notification{},
	}, nil)
	c := newTestController(t, src, nil, Options{})
	refresh(t, c)

	if calls := src.Calls(); len(calls) != 1 || calls[0].Scoped() {
		t.Fatalf("expected one unscoped fetch, got %+v", calls)
	}

	query(t, c, guidelinesSel, func(s *goquery.Selection) {
		if got := strings.TrimSpace(s.Text()); got != "No active guidelines." {
			t.Fatalf("unexpected guidelines text: %q", got)
		}
	})
	if diff := cmp.Diff([]string{"A"}, titles(t, c, commonSel)); diff != "" {
		t.Fatalf("common titles mismatch (-want +got):\n%s", diff)
	}
	query(t, c, deptSel, func(s *goquery.Selection) {
		if !strings.Contains(s.Text(), "Select a department and year") {
			t.Fatalf("expected selection prompt, got %q", s.Text())
		}
	})
	if got := containerHTML(t, c, archiveSel); got != "" {
		t.Fatalf("expected silent empty archive, got %q", got)
	}
}

func TestEmptyStatePerRegion(t *testing.T) {
	t.Parallel()

	c := newTestController(t, staticSource(domain.Payload{}, nil), nil, Options{})
	selectScoped(t, c, "cse", "2")

	cases := map[string]string{
		guidelinesSel: "No active guidelines.",
		commonSel:     "No active commons.",
		deptSel:       "No active departmentals.",
	}
	for sel, want := range cases {
		query(t, c, sel+" .info-box.compact", func(s *goquery.Selection) {
			if s.Length() != 1 {
				t.Fatalf("%s: expected one placeholder, got %d", sel, s.Length())
			}
			if got := strings.TrimSpace(s.Text()); got != want {
				t.Fatalf("%s: expected %q, got %q", sel, want, got)
			}
		})
	}
	if got := containerHTML(t, c, archiveSel); got != "" {
		t.Fatalf("expected empty archive, got %q", got)
	}
}

func TestCardCategoryAndAttachment(t *testing.T) {
	t.Parallel()

	src := staticSource(domain.Payload{
		Common: []domain.Notification{
			{Title: "plain", Body: "x", StartDatetime: "2024-05-02T10:00:00Z"},
			{Title: "linked", Body: "y", Type: "urgent", AttachmentURL: "https://example.org/a.pdf", StartDatetime: "2024-05-02T10:00:00Z"},
		},
	}, nil)
	c := newTestController(t, src, nil, Options{})
	refresh(t, c)

	query(t, c, commonSel+" .notification-card", func(cards *goquery.Selection) {
		if cards.Length() != 2 {
			t.Fatalf("expected 2 cards, got %d", cards.Length())
		}
		plain, linked := cards.Eq(0), cards.Eq(1)
		if !plain.HasClass("info") {
			t.Fatalf("card without type should carry info class: %v", plain.AttrOr("class", ""))
		}
		if plain.Find("a.attachment-link").Length() != 0 {
			t.Fatal("card without attachment_url rendered a link")
		}
		if !linked.HasClass("urgent") {
			t.Fatalf("expected urgent class, got %v", linked.AttrOr("class", ""))
		}
		if href := linked.Find("a.attachment-link").AttrOr("href", ""); href != "https://example.org/a.pdf" {
			t.Fatalf("unexpected attachment href %q", href)
		}
		if meta := strings.TrimSpace(plain.Find(".meta").Text()); meta != "Posted: 2 May 2024" {
			t.Fatalf("unexpected meta line %q", meta)
		}
		if body := plain.Find("p").Text(); body != "x" {
			t.Fatalf("unexpected body %q", body)
		}
	})
}

func TestBodyIsInsertedAsMarkup(t *testing.T) {
	t.Parallel()

	src := staticSource(domain.Payload{
		Guidelines: []domain.Notification{{Title: "<b>t</b>", Body: "see <em>this</em>", StartDatetime: "2024-01-01T00:00:00Z"}},
	}, nil)
	c := newTestController(t, src, nil, Options{})
	refresh(t, c)

	query(t, c, guidelinesSel+" .notification-card", func(card *goquery.Selection) {
		if card.Find("p em").Length() != 1 {
			t.Fatal("expected body markup to be kept")
		}
		if card.Find("h4 b").Length() != 0 || card.Find("h4").Text() != "<b>t</b>" {
			t.Fatalf("expected title to be text, got %q", card.Find("h4").Text())
		}
	})
}

func TestPopupArbiter(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name      string
		list      []domain.Notification
		wantTitle string
	}{
		{name: "none flagged", list: []domain.Notification{{Title: "a"}, {Title: "b"}}},
		{name: "one flagged", list: []domain.Notification{{Title: "a"}, {Title: "b", IsPopup: true}}, wantTitle: "b"},
		{name: "first flagged wins", list: []domain.Notification{{Title: "a", IsPopup: true}, {Title: "b", IsPopup: true}}, wantTitle: "a"},
	}

	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			var popups []string
			src := &fakeSource{fetch: func(_ context.Context, sel domain.Selection) (domain.Payload, error) {
				if !sel.Scoped() {
					// Unscoped payloads never trigger the arbiter, even if flagged.
					return domain.Payload{Departmental: []domain.Notification{{Title: "ignored", IsPopup: true}}}, nil
				}
				return domain.Payload{Departmental: tc.list}, nil
			}}
			c := newTestController(t, src, nil, Options{OnPopup: func(n domain.Notification) {
				popups = append(popups, n.Title)
			}})
			selectScoped(t, c, "cse", "1")

			open, title, err := c.ModalOpen(context.Background())
			if err != nil {
				t.Fatalf("modal state: %v", err)
			}
			if tc.wantTitle == "" {
				if open || len(popups) != 0 {
					t.Fatalf("expected no popup, got open=%v popups=%v", open, popups)
				}
				return
			}
			if !open || title != tc.wantTitle {
				t.Fatalf("expected modal %q open, got open=%v title=%q", tc.wantTitle, open, title)
			}
			if diff := cmp.Diff([]string{tc.wantTitle}, popups); diff != "" {
				t.Fatalf("popup calls mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestScopedToUnscopedShowsPrompt(t *testing.T) {
	t.Parallel()

	src := &fakeSource{fetch: func(_ context.Context, sel domain.Selection) (domain.Payload, error) {
		p := domain.Payload{}
		if sel.Scoped() {
			p.Departmental = []domain.Notification{{Title: "lab moved"}}
		}
		return p, nil
	}}
	c := newTestController(t, src, nil, Options{})
	selectScoped(t, c, "cse", "2")

	if diff := cmp.Diff([]string{"lab moved"}, titles(t, c, deptSel)); diff != "" {
		t.Fatalf("departmental titles mismatch (-want +got):\n%s", diff)
	}

	if err := c.SetDepartment(context.Background(), ""); err != nil {
		t.Fatalf("set department: %v", err)
	}
	c.Wait()

	query(t, c, deptSel, func(s *goquery.Selection) {
		if s.Find(".notification-card-side").Length() != 0 {
			t.Fatal("stale departmental cards still shown")
		}
		if !strings.Contains(s.Text(), "Select a department and year") {
			t.Fatalf("expected prompt, got %q", s.Text())
		}
	})

	calls := src.Calls()
	last := calls[len(calls)-1]
	if last.Scoped() || last.Department != "" || last.Year != "" {
		t.Fatalf("expected last fetch unscoped without arguments, got %+v", last)
	}
	if len(calls) != 3 {
		t.Fatalf("expected one fetch per change, got %d", len(calls))
	}
}

func TestScopedFailureKeepsOtherRegions(t *testing.T) {
	t.Parallel()

	var fail atomic.Bool
	src := &fakeSource{fetch: func(context.Context, domain.Selection) (domain.Payload, error) {
		if fail.Load() {
			return domain.Payload{}, &domain.FetchFailure{URL: "/api/notifications", Status: 500, Err: errors.New("boom")}
		}
		return domain.Payload{
			Guidelines: []domain.Notification{{Title: "g1", StartDatetime: "2024-01-01T00:00:00Z"}},
			Common:     []domain.Notification{{Title: "c1", StartDatetime: "2024-01-01T00:00:00Z"}},
			Archive:    []domain.Notification{{Title: "a1", StartDatetime: "2024-01-01T00:00:00Z"}},
		}, nil
	}}
	c := newTestController(t, src, nil, Options{})
	refresh(t, c)

	before := map[string]string{}
	for _, sel := range []string{guidelinesSel, commonSel, archiveSel} {
		before[sel] = containerHTML(t, c, sel)
	}

	fail.Store(true)
	selectScoped(t, c, "ece", "1")

	for sel, html := range before {
		if got := containerHTML(t, c, sel); got != html {
			t.Fatalf("%s changed after failed fetch:\nbefore %s\nafter  %s", sel, html, got)
		}
	}
	query(t, c, deptSel+" .info-box.error", func(s *goquery.Selection) {
		if s.Length() != 1 || s.Find("i").Length() != 1 {
			t.Fatal("expected error box with icon")
		}
		if !strings.Contains(s.Text(), "Could not load notifications.") {
			t.Fatalf("unexpected error text %q", s.Text())
		}
	})
}

func TestFirstFetchFailureLeavesInitialState(t *testing.T) {
	t.Parallel()

	c := newTestController(t, staticSource(domain.Payload{}, errors.New("offline")), nil, Options{})
	refresh(t, c)

	for _, sel := range []string{guidelinesSel, commonSel, archiveSel} {
		if got := containerHTML(t, c, sel); got != "" {
			t.Fatalf("%s: expected untouched container, got %q", sel, got)
		}
	}
	query(t, c, deptSel+" .info-box.error", func(s *goquery.Selection) {
		if s.Length() != 1 {
			t.Fatal("expected error state in department region")
		}
	})
}

func TestLoadingIndicatorWhileScopedFetchInFlight(t *testing.T) {
	t.Parallel()

	release := make(chan struct{})
	src := &fakeSource{fetch: func(_ context.Context, sel domain.Selection) (domain.Payload, error) {
		if sel.Scoped() {
			<-release
		}
		return domain.Payload{Guidelines: []domain.Notification{{Title: "g"}}}, nil
	}}
	c := newTestController(t, src, nil, Options{})
	refresh(t, c)
	before := containerHTML(t, c, guidelinesSel)

	ctx := context.Background()
	if err := c.SetYear(ctx, "2"); err != nil {
		t.Fatalf("set year: %v", err)
	}
	c.Wait()
	if err := c.SetDepartment(ctx, "cse"); err != nil {
		t.Fatalf("set department: %v", err)
	}

	query(t, c, deptSel, func(s *goquery.Selection) {
		if s.Find(".loading-overlay .spinner").Length() != 1 {
			t.Fatalf("expected spinner, got %q", s.Text())
		}
	})
	if got := containerHTML(t, c, guidelinesSel); got != before {
		t.Fatal("guidelines touched before data arrived")
	}

	close(release)
	c.Wait()
	query(t, c, deptSel, func(s *goquery.Selection) {
		if s.Find(".loading-overlay").Length() != 0 {
			t.Fatal("spinner left after fetch completed")
		}
	})
}

func TestStaleResponses(t *testing.T) {
	t.Parallel()

	for _, fence := range []bool{true, false} {
		fence := fence
		name := "unfenced"
		want := "slow"
		if fence {
			name, want = "fenced", "fast"
		}
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			release := make(chan struct{})
			src := &fakeSource{fetch: func(_ context.Context, sel domain.Selection) (domain.Payload, error) {
				switch sel.Department {
				case "cse":
					<-release
					return domain.Payload{Departmental: []domain.Notification{{Title: "slow"}}}, nil
				case "ece":
					return domain.Payload{Departmental: []domain.Notification{{Title: "fast"}}}, nil
				}
				return domain.Payload{}, nil
			}}
			c := newTestController(t, src, nil, Options{ArrivalOrder: !fence})

			ctx := context.Background()
			if err := c.SetYear(ctx, "1"); err != nil {
				t.Fatalf("set year: %v", err)
			}
			c.Wait()
			if err := c.SetDepartment(ctx, "cse"); err != nil {
				t.Fatalf("set department: %v", err)
			}
			if err := c.SetDepartment(ctx, "ece"); err != nil {
				t.Fatalf("set department: %v", err)
			}

			eventually(t, func() bool {
				got := titles(t, c, deptSel)
				return len(got) == 1 && got[0] == "fast"
			})
			close(release)
			c.Wait()

			if diff := cmp.Diff([]string{want}, titles(t, c, deptSel)); diff != "" {
				t.Fatalf("departmental titles mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestSideCardClickOpensModal(t *testing.T) {
	t.Parallel()

	src := staticSource(domain.Payload{
		Departmental: []domain.Notification{
			{Title: "first", Body: "one"},
			{Title: "second", Body: "", AttachmentURL: "/static/uploads/x.pdf", StartDatetime: "2024-02-03T12:00:00Z"},
		},
	}, nil)
	c := newTestController(t, src, nil, Options{})
	selectScoped(t, c, "cse", "1")
	ctx := context.Background()

	if open, _, _ := c.ModalOpen(ctx); open {
		t.Fatal("modal should start closed")
	}

	if err := c.Click(ctx, deptSel+" .notification-card-side:nth-child(2) h4"); err != nil {
		t.Fatalf("click: %v", err)
	}
	open, title, _ := c.ModalOpen(ctx)
	if !open || title != "second" {
		t.Fatalf("expected modal for second, got open=%v title=%q", open, title)
	}
	query(t, c, "#modal-body", func(s *goquery.Selection) {
		if !strings.Contains(s.Text(), "No further details available.") {
			t.Fatalf("expected fallback body, got %q", s.Text())
		}
		if s.Find("a.attachment-link").AttrOr("href", "") != "/static/uploads/x.pdf" {
			t.Fatal("expected attachment link in modal")
		}
	})
	query(t, c, deptSel+" .notification-card-side:nth-child(2) .meta", func(s *goquery.Selection) {
		if s.Text() != "3 Feb 2024" {
			t.Fatalf("unexpected side meta %q", s.Text())
		}
	})

	if err := c.Click(ctx, ".modal-content h3"); err != nil {
		t.Fatalf("click content: %v", err)
	}
	if open, _, _ := c.ModalOpen(ctx); !open {
		t.Fatal("click inside content must not close the modal")
	}

	if err := c.Click(ctx, ".close-button"); err != nil {
		t.Fatalf("click close: %v", err)
	}
	if open, _, _ := c.ModalOpen(ctx); open {
		t.Fatal("close button should close the modal")
	}

	if err := c.Click(ctx, deptSel+" .notification-card-side"); err != nil {
		t.Fatalf("click: %v", err)
	}
	if err := c.Click(ctx, deptSel+" .notification-card-side:nth-child(2)"); err != nil {
		t.Fatalf("click: %v", err)
	}
	if _, title, _ := c.ModalOpen(ctx); title != "second" {
		t.Fatalf("reopen should overwrite content, got %q", title)
	}
	query(t, c, ".modal-overlay", func(s *goquery.Selection) {
		if s.Length() != 1 {
			t.Fatalf("expected a single modal, got %d", s.Length())
		}
	})

	if err := c.Click(ctx, ".modal-overlay"); err != nil {
		t.Fatalf("click overlay: %v", err)
	}
	if open, _, _ := c.ModalOpen(ctx); open {
		t.Fatal("backdrop click should close the modal")
	}
}

func TestClickWithoutMatch(t *testing.T) {
	t.Parallel()

	c := newTestController(t, staticSource(domain.Payload{}, nil), nil, Options{})
	if err := c.Click(context.Background(), ".does-not-exist"); err == nil {
		t.Fatal("expected error for missing element")
	}
}

func TestSelectorValueIsReflected(t *testing.T) {
	t.Parallel()

	c := newTestController(t, staticSource(domain.Payload{}, nil), nil, Options{})
	selectScoped(t, c, "mech", "3")

	query(t, c, "#department-select option[selected]", func(s *goquery.Selection) {
		if s.Length() != 1 || s.AttrOr("value", "") != "mech" {
			t.Fatalf("unexpected selected department option: %d %q", s.Length(), s.AttrOr("value", ""))
		}
	})
	query(t, c, "#year-select option[selected]", func(s *goquery.Selection) {
		if s.AttrOr("value", "") != "3" {
			t.Fatalf("unexpected selected year %q", s.AttrOr("value", ""))
		}
	})
}

func TestWaitOverlapsSelectorChanges(t *testing.T) {
	t.Parallel()

	src := staticSource(domain.Payload{Departmental: []domain.Notification{{Title: "d"}}}, nil)
	c := newTestController(t, src, nil, Options{})
	ctx := context.Background()

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			if err := c.SetYear(ctx, "1"); err != nil {
				t.Errorf("set year: %v", err)
			}
		}()
		go func() {
			defer wg.Done()
			c.Wait()
		}()
	}
	wg.Wait()
	c.Wait()

	if got := len(src.Calls()); got != 8 {
		t.Fatalf("expected 8 fetches, got %d", got)
	}
}

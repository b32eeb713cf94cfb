package panel

import (
	"fmt"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"

	"NoticeBoard/internal/domain"
	"NoticeBoard/internal/region"
)

const (
	fullCardClass = "notification-card"
	sideCardClass = "notification-card-side"

	loadingHTML = `<div class="loading-overlay"><div class="spinner"></div></div>`
	promptHTML  = `<div class="info-box"><i class="fas fa-arrow-up"></i> Select a department and year to see specific updates.</div>`
	errorHTML   = `<div class="info-box error"><i class="fas fa-exclamation-circle"></i> Could not load notifications.</div>`
	emptyHTML   = `<div class="info-box compact"><i class="fas fa-info-circle"></i> No active %ss.</div>`

	attachmentHTML = `<a href="%s" target="_blank" rel="noopener noreferrer" class="attachment-link">🔗 View Attachment</a>`
)

// Renderer turns notification lists into cards inside region containers.
type Renderer struct {
	doc      *goquery.Document
	loc      *time.Location
	observer *RevealObserver

	// sideCards maps rendered side cards back to the notice they show so
	// a click can open it.
	sideCards map[*html.Node]domain.Notification
}

// NewRenderer formats dates in loc; full cards are handed to observer.
func NewRenderer(doc *goquery.Document, loc *time.Location, observer *RevealObserver) *Renderer {
	if loc == nil {
		loc = time.Local
	}
	return &Renderer{
		doc:       doc,
		loc:       loc,
		observer:  observer,
		sideCards: map[*html.Node]domain.Notification{},
	}
}

// Render replaces the region's content with one card per notification, in
// list order, or with the region's empty state.
func (r *Renderer) Render(target region.Region, notifications []domain.Notification) {
	container := r.clear(target.Container)
	if container.Length() == 0 {
		return
	}

	if len(notifications) == 0 {
		if target.ShowEmptyPlaceholder {
			container.SetHtml(fmt.Sprintf(emptyHTML, html.EscapeString(target.Label)))
		}
		return
	}

	for _, n := range notifications {
		if target.Mode == region.ModeSide {
			container.AppendHtml(r.sideCard(n))
			if card := container.Children().Last(); card.Length() > 0 {
				r.sideCards[card.Nodes[0]] = n
			}
			continue
		}
		container.AppendHtml(r.fullCard(n))
	}

	if target.Mode == region.ModeFull && r.observer != nil {
		r.observer.TrackPending()
	}
}

// ShowLoading puts the spinner into a container.
func (r *Renderer) ShowLoading(selector string) {
	r.clear(selector).SetHtml(loadingHTML)
}

// ShowPrompt asks the viewer to pick a department and year.
func (r *Renderer) ShowPrompt(selector string) {
	r.clear(selector).SetHtml(promptHTML)
}

// ShowError renders the fetch failure box.
func (r *Renderer) ShowError(selector string) {
	r.clear(selector).SetHtml(errorHTML)
}

// SideCard returns the notice behind a side card node.
func (r *Renderer) SideCard(node *html.Node) (domain.Notification, bool) {
	n, ok := r.sideCards[node]
	return n, ok
}

func (r *Renderer) clear(selector string) *goquery.Selection {
	container := r.doc.Find(selector).First()
	container.Find("." + sideCardClass).Each(func(_ int, card *goquery.Selection) {
		delete(r.sideCards, card.Nodes[0])
	})
	container.Empty()
	return container
}

func (r *Renderer) sideCard(n domain.Notification) string {
	return fmt.Sprintf(`<div class="%s %s"><h4>%s</h4><div class="meta">%s</div></div>`,
		sideCardClass,
		html.EscapeString(n.Category()),
		html.EscapeString(n.Title),
		html.EscapeString(FormatDate(n.StartDatetime, r.loc)),
	)
}

func (r *Renderer) fullCard(n domain.Notification) string {
	var b strings.Builder
	fmt.Fprintf(&b, `<div class="%s %s"><h4>%s</h4>`, fullCardClass, html.EscapeString(n.Category()), html.EscapeString(n.Title))
	fmt.Fprintf(&b, `<div class="meta"><span><strong>Posted:</strong> %s</span></div>`, html.EscapeString(FormatDate(n.StartDatetime, r.loc)))
	// Body is sanitized by the publisher and inserted as markup.
	fmt.Fprintf(&b, `<p>%s</p>`, n.Body)
	if n.HasAttachment() {
		fmt.Fprintf(&b, attachmentHTML, html.EscapeString(n.AttachmentURL))
	}
	b.WriteString(`</div>`)
	return b.String()
}

package panel

import (
	"fmt"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"

	"NoticeBoard/internal/domain"
)

const (
	overlayClass = "modal-overlay"
	activeClass  = "active"

	modalHTML = `<div class="modal-overlay">
  <div class="modal-content">
    <button class="close-button">&times;</button>
    <h3 id="modal-title">Notification Details</h3>
    <div id="modal-body"></div>
  </div>
</div>`

	noDetails = "No further details available."
)

// Modal is the page's single detail overlay.
type Modal struct {
	overlay *goquery.Selection
	close   *goquery.Selection
	title   *goquery.Selection
	body    *goquery.Selection
}

// NewModal appends the overlay to the document body in its closed state.
func NewModal(doc *goquery.Document) (*Modal, error) {
	body := doc.Find("body").First()
	if body.Length() == 0 {
		return nil, fmt.Errorf("modal: document has no body")
	}
	body.AppendHtml(modalHTML)

	overlay := body.ChildrenFiltered("." + overlayClass).Last()
	if overlay.Length() == 0 {
		return nil, fmt.Errorf("modal: overlay not attached")
	}
	return &Modal{
		overlay: overlay,
		close:   overlay.Find(".close-button").First(),
		title:   overlay.Find("#modal-title").First(),
		body:    overlay.Find("#modal-body").First(),
	}, nil
}

// Open shows n, replacing whatever the modal displayed before.
func (m *Modal) Open(n domain.Notification) {
	text := n.Body
	if text == "" {
		text = noDetails
	}
	markup := "<p>" + text + "</p>"
	if n.HasAttachment() {
		markup += "<br>" + fmt.Sprintf(attachmentHTML, html.EscapeString(n.AttachmentURL))
	}
	m.body.SetHtml(markup)
	m.title.SetText(n.Title)
	m.overlay.AddClass(activeClass)
}

// Close hides the overlay. Content is kept until the next Open.
func (m *Modal) Close() {
	m.overlay.RemoveClass(activeClass)
}

// IsOpen reports whether the overlay is shown.
func (m *Modal) IsOpen() bool {
	return m.overlay.HasClass(activeClass)
}

// Title returns the displayed title.
func (m *Modal) Title() string {
	return m.title.Text()
}

// HandleClick applies a click on target and reports whether the click
// landed on the overlay. The close button and the bare backdrop close it;
// clicks inside the content box do nothing.
func (m *Modal) HandleClick(target *html.Node) bool {
	overlay := m.overlay.Nodes[0]
	if target == overlay {
		m.Close()
		return true
	}
	if !contains(overlay, target) {
		return false
	}
	if contains(m.close.Nodes[0], target) {
		m.Close()
	}
	return true
}

// contains reports whether node is root or one of its descendants.
func contains(root, node *html.Node) bool {
	for n := node; n != nil; n = n.Parent {
		if n == root {
			return true
		}
	}
	return false
}

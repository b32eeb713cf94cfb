package panel

import (
	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"

	"NoticeBoard/internal/ports"
)

// Scroller is implemented by viewports that can move.
type Scroller interface {
	ScrollBy(rows int)
}

// WindowViewport is a headless viewport that treats every card as one row
// and shows Rows consecutive rows starting at the scroll offset.
type WindowViewport struct {
	doc    *goquery.Document
	rows   int
	offset int
}

var (
	_ ports.Viewport = (*WindowViewport)(nil)
	_ Scroller       = (*WindowViewport)(nil)
)

// NewWindowViewport shows rows cards at a time; rows <= 0 shows everything.
func NewWindowViewport(doc *goquery.Document, rows int) *WindowViewport {
	return &WindowViewport{doc: doc, rows: rows}
}

// IntersectionRatio is 1 for cards inside the window and 0 otherwise.
func (w *WindowViewport) IntersectionRatio(node *html.Node) float64 {
	if w.rows <= 0 {
		return 1
	}
	row := -1
	w.doc.Find("." + fullCardClass + ", ." + sideCardClass).EachWithBreak(func(i int, s *goquery.Selection) bool {
		if s.Nodes[0] == node {
			row = i
			return false
		}
		return true
	})
	if row < w.offset || row >= w.offset+w.rows {
		return 0
	}
	return 1
}

// ScrollBy moves the window; the offset never goes below zero.
func (w *WindowViewport) ScrollBy(rows int) {
	w.offset += rows
	if w.offset < 0 {
		w.offset = 0
	}
}

package panel

import (
	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"

	"NoticeBoard/internal/ports"
)

const (
	visibleClass = "visible"

	// DefaultRevealThreshold is the minimum intersection ratio that reveals a card.
	DefaultRevealThreshold = 0.1
)

// RevealObserver defers the visible state of full cards until they scroll
// into view. Revealed cards are never watched again.
type RevealObserver struct {
	doc       *goquery.Document
	viewport  ports.Viewport
	threshold float64

	watched []*html.Node
	index   map[*html.Node]struct{}
}

// NewRevealObserver watches doc through viewport.
func NewRevealObserver(doc *goquery.Document, viewport ports.Viewport, threshold float64) *RevealObserver {
	if threshold <= 0 {
		threshold = DefaultRevealThreshold
	}
	return &RevealObserver{
		doc:       doc,
		viewport:  viewport,
		threshold: threshold,
		index:     map[*html.Node]struct{}{},
	}
}

// TrackPending registers every full card in the document that is not yet
// visible, including cards already on screen.
func (o *RevealObserver) TrackPending() {
	o.Track(o.doc.Find("." + fullCardClass + ":not(." + visibleClass + ")").Nodes...)
}

// Track adds nodes to the watch set and evaluates them right away.
func (o *RevealObserver) Track(nodes ...*html.Node) {
	added := make([]*html.Node, 0, len(nodes))
	for _, n := range nodes {
		if _, ok := o.index[n]; ok {
			continue
		}
		o.index[n] = struct{}{}
		o.watched = append(o.watched, n)
		added = append(added, n)
	}
	o.evaluate(added)
}

// Evaluate re-checks every watched element against the viewport.
func (o *RevealObserver) Evaluate() {
	o.evaluate(o.watched)
}

// Watching returns the number of elements still waiting to be revealed.
func (o *RevealObserver) Watching() int {
	return len(o.watched)
}

func (o *RevealObserver) evaluate(candidates []*html.Node) {
	if len(candidates) == 0 {
		return
	}

	drop := map[*html.Node]struct{}{}
	for _, n := range candidates {
		card := o.doc.FindNodes(n)
		if card.Length() == 0 {
			drop[n] = struct{}{}
			continue
		}
		if o.viewport == nil {
			continue
		}
		if ratio := o.viewport.IntersectionRatio(n); ratio > 0 && ratio >= o.threshold {
			card.AddClass(visibleClass)
			drop[n] = struct{}{}
		}
	}

	if len(drop) == 0 {
		return
	}
	kept := o.watched[:0]
	for _, n := range o.watched {
		if _, ok := drop[n]; ok {
			delete(o.index, n)
			continue
		}
		kept = append(kept, n)
	}
	o.watched = kept
}

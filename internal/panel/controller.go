// Package panel drives the notice board page: it reacts to the department
// and year selectors, fetches the aggregated feed and renders it into the
// four page regions, the shared detail modal and the reveal animation.
package panel

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"time"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"

	"NoticeBoard/internal/domain"
	"NoticeBoard/internal/ports"
	"NoticeBoard/internal/region"
)

// Options tune a Controller. Zero values pick the defaults.
type Options struct {
	Regions  *region.Registry
	Location *time.Location
	// ArrivalOrder renders every fetch result in the order results arrive.
	// By default a result superseded by a newer selection change is dropped.
	ArrivalOrder    bool
	RevealThreshold float64
	// OnPopup is called whenever an urgent notice opens the modal.
	OnPopup func(domain.Notification)
	Logger  *slog.Logger
}

// Controller owns the page document. Its exported methods may be called
// from any goroutine except the loop's own.
type Controller struct {
	ctx      context.Context
	loop     *Loop
	doc      *goquery.Document
	source   ports.NotificationSource
	viewport ports.Viewport

	regions      []region.Region
	departmental region.Region
	renderer     *Renderer
	modal        *Modal
	observer     *RevealObserver
	fence        bool
	onPopup      func(domain.Notification)
	logger       *slog.Logger

	// Loop-owned state.
	selection domain.Selection
	issued    uint64

	// pending counts fetches issued but not yet applied or dropped.
	mu      sync.Mutex
	settled *sync.Cond
	pending int
}

// NewController binds doc to source. It must be called before loop starts
// running. Fetches are issued with ctx and are never cancelled individually.
func NewController(ctx context.Context, doc *goquery.Document, loop *Loop, source ports.NotificationSource, viewport ports.Viewport, opts Options) (*Controller, error) {
	if doc == nil || loop == nil || source == nil {
		return nil, errors.New("panel: document, loop and source are required")
	}

	registry := opts.Regions
	if registry == nil {
		registry = region.Default()
	}
	departmental, err := registry.Resolve(region.Departmental)
	if err != nil {
		return nil, fmt.Errorf("panel: %w", err)
	}
	regions := registry.All()
	for _, r := range regions {
		if doc.Find(r.Container).Length() == 0 {
			return nil, fmt.Errorf("panel: container %s for region %s not found", r.Container, r.Name)
		}
	}

	modal, err := NewModal(doc)
	if err != nil {
		return nil, fmt.Errorf("panel: %w", err)
	}

	logger := opts.Logger
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}

	observer := NewRevealObserver(doc, viewport, opts.RevealThreshold)
	c := &Controller{
		ctx:          ctx,
		loop:         loop,
		doc:          doc,
		source:       source,
		viewport:     viewport,
		regions:      regions,
		departmental: departmental,
		renderer:     NewRenderer(doc, opts.Location, observer),
		modal:        modal,
		observer:     observer,
		fence:        !opts.ArrivalOrder,
		onPopup:      opts.OnPopup,
		logger:       logger,
		selection: domain.Selection{
			Department: selectValue(doc, departmentSelect),
			Year:       selectValue(doc, yearSelect),
		},
	}
	c.settled = sync.NewCond(&c.mu)
	return c, nil
}

// SetDepartment applies a change of the department selector.
func (c *Controller) SetDepartment(ctx context.Context, value string) error {
	return c.loop.Do(ctx, func() {
		setSelectValue(c.doc, departmentSelect, value)
		c.selection.Department = value
		c.dispatch()
	})
}

// SetYear applies a change of the year selector.
func (c *Controller) SetYear(ctx context.Context, value string) error {
	return c.loop.Do(ctx, func() {
		setSelectValue(c.doc, yearSelect, value)
		c.selection.Year = value
		c.dispatch()
	})
}

// Refresh fetches for the current selection, as on page load.
func (c *Controller) Refresh(ctx context.Context) error {
	return c.loop.Do(ctx, c.dispatch)
}

// Click delivers a click to the first element matching selector.
func (c *Controller) Click(ctx context.Context, selector string) error {
	var found bool
	err := c.loop.Do(ctx, func() {
		target := c.doc.Find(selector).First()
		if target.Length() == 0 {
			return
		}
		found = true
		c.click(target.Nodes[0])
	})
	if err != nil {
		return err
	}
	if !found {
		return fmt.Errorf("click: no element matches %q", selector)
	}
	return nil
}

// Scroll moves a scrollable viewport and re-evaluates pending cards.
func (c *Controller) Scroll(ctx context.Context, rows int) error {
	return c.loop.Do(ctx, func() {
		if s, ok := c.viewport.(Scroller); ok {
			s.ScrollBy(rows)
		}
		c.observer.Evaluate()
	})
}

// View runs fn with the document on the loop. fn must not retain doc.
func (c *Controller) View(ctx context.Context, fn func(doc *goquery.Document)) error {
	return c.loop.Do(ctx, func() { fn(c.doc) })
}

// HTML returns the serialized page.
func (c *Controller) HTML(ctx context.Context) (string, error) {
	var (
		out  string
		rerr error
	)
	err := c.loop.Do(ctx, func() {
		out, rerr = goquery.OuterHtml(c.doc.Selection)
	})
	if err != nil {
		return "", err
	}
	return out, rerr
}

// ModalOpen reports whether the detail modal is shown and its title.
func (c *Controller) ModalOpen(ctx context.Context) (bool, string, error) {
	var (
		open  bool
		title string
	)
	err := c.loop.Do(ctx, func() {
		open, title = c.modal.IsOpen(), c.modal.Title()
	})
	return open, title, err
}

// Wait blocks until every fetch issued so far has been rendered or
// dropped. Selector changes made while Wait blocks extend the wait.
func (c *Controller) Wait() {
	c.mu.Lock()
	for c.pending > 0 {
		c.settled.Wait()
	}
	c.mu.Unlock()
}

func (c *Controller) track(delta int) {
	c.mu.Lock()
	c.pending += delta
	if c.pending == 0 {
		c.settled.Broadcast()
	}
	c.mu.Unlock()
}

// dispatch issues one fetch for the current selection. Runs on the loop.
func (c *Controller) dispatch() {
	sel := c.selection
	if !sel.Scoped() {
		sel = domain.Selection{}
	}

	c.issued++
	seq := c.issued
	if sel.Scoped() {
		c.renderer.ShowLoading(c.departmental.Container)
	}
	c.logger.Debug("fetch notifications", "seq", seq, "department", sel.Department, "year", sel.Year)

	c.track(1)
	go func() {
		payload, err := c.source.Fetch(c.ctx, sel)
		posted := c.loop.Post(func() {
			defer c.track(-1)
			c.apply(seq, sel, payload, err)
		})
		if !posted {
			c.track(-1)
		}
	}()
}

// apply renders a fetch result. Runs on the loop.
func (c *Controller) apply(seq uint64, sel domain.Selection, payload domain.Payload, err error) {
	if c.fence && seq != c.issued {
		c.logger.Debug("dropping stale fetch result", "seq", seq, "latest", c.issued)
		return
	}

	if err != nil {
		c.logger.Error("error fetching notifications", "error", err, "department", sel.Department, "year", sel.Year)
		c.renderer.ShowError(c.departmental.Container)
		return
	}

	for _, r := range c.regions {
		if r.Name == region.Departmental {
			continue
		}
		c.renderer.Render(r, r.Pick(payload))
	}

	if !sel.Scoped() {
		c.renderer.ShowPrompt(c.departmental.Container)
		return
	}

	c.renderer.Render(c.departmental, payload.Departmental)
	if n, ok := urgentPopup(payload.Departmental); ok {
		c.modal.Open(n)
		c.logger.Info("urgent notice opened", "title", n.Title)
		if c.onPopup != nil {
			c.onPopup(n)
		}
	}
}

// click routes a click on target to the modal or to a side card.
func (c *Controller) click(target *html.Node) {
	if c.modal.HandleClick(target) {
		return
	}
	for n := target; n != nil; n = n.Parent {
		if notification, ok := c.renderer.SideCard(n); ok {
			c.modal.Open(notification)
			return
		}
	}
}

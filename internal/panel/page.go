package panel

import (
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"
)

const (
	departmentSelect = "#department-select"
	yearSelect       = "#year-select"
	footerYear       = "#year"
	wordWheel        = ".word-wheel"
)

// wheelWords is the fixed phrase list cycled by the header animation.
var wheelWords = []string{"deadlines.", "notifications.", "guidelines.", "results."}

const skeleton = `<!DOCTYPE html>
<html lang="en">
<head><meta charset="utf-8"><title>Notice Board</title></head>
<body>
<header class="hero"><h1>Never miss <span class="word-wheel"></span></h1>
  <a id="calendar-link" class="calendar-link" href="%s" target="_blank" rel="noopener noreferrer">Academic Calendar</a>
</header>
<nav class="quick-links">%s</nav>
<main>
  <section class="filters">
    <select id="department-select"><option value="">Select department</option>%s</select>
    <select id="year-select"><option value="">Select year</option>%s</select>
  </section>
  <section class="feeds">
    <div class="feed"><h2>Guidelines</h2><div id="common-guidelines-container"></div></div>
    <div class="feed"><h2>Announcements</h2><div id="common-notifications-container"></div></div>
    <aside class="feed side"><h2>Department</h2><div id="department-notifications-container"></div></aside>
    <div class="feed"><h2>Archive</h2><div id="archive-notifications-container"></div></div>
  </section>
</main>
<footer>&copy; <span id="year"></span> Notice Board</footer>
</body>
</html>`

// QuickLink is an entry of the quick access bar.
type QuickLink struct {
	Title string
	URL   string
}

// PageOptions lists the choices offered by the two selectors and the quick
// access links.
type PageOptions struct {
	Departments []string
	Years       []string
	QuickLinks  []QuickLink
	Now         time.Time
}

// NewPage builds the notice board document with the decorative parts
// (word wheel, footer year) already filled in.
func NewPage(opts PageOptions) (*goquery.Document, error) {
	raw := fmt.Sprintf(skeleton,
		html.EscapeString(CalendarURL(opts.QuickLinks)),
		quickLinkList(opts.QuickLinks),
		optionList(opts.Departments),
		optionList(opts.Years),
	)
	doc, err := ParsePage(strings.NewReader(raw))
	if err != nil {
		return nil, err
	}

	now := opts.Now
	if now.IsZero() {
		now = time.Now()
	}
	SetupWordWheel(doc)
	SetFooterYear(doc, now)
	return doc, nil
}

// ParsePage parses an existing page. Decorations are not applied.
func ParsePage(r io.Reader) (*goquery.Document, error) {
	doc, err := goquery.NewDocumentFromReader(r)
	if err != nil {
		return nil, fmt.Errorf("parse page: %w", err)
	}
	return doc, nil
}

// SetupWordWheel fills the word wheel with the phrase list followed by the
// first phrase again so the animation loops without a jump.
func SetupWordWheel(doc *goquery.Document) {
	wheel := doc.Find(wordWheel).First()
	if wheel.Length() == 0 || len(wheelWords) == 0 {
		return
	}

	words := append(append([]string{}, wheelWords...), wheelWords[0])
	var b strings.Builder
	for _, w := range words {
		fmt.Fprintf(&b, `<span class="word-wheel-item">%s</span>`, html.EscapeString(w))
	}
	wheel.SetHtml(b.String())
}

// SetFooterYear writes the current year into the footer.
func SetFooterYear(doc *goquery.Document, now time.Time) {
	doc.Find(footerYear).First().SetText(strconv.Itoa(now.Year()))
}

// CalendarURL returns the URL of the first quick link whose title mentions
// the calendar, or "#".
func CalendarURL(links []QuickLink) string {
	for _, l := range links {
		if strings.Contains(strings.ToLower(l.Title), "calendar") {
			if l.URL == "" {
				return "#"
			}
			return l.URL
		}
	}
	return "#"
}

func quickLinkList(links []QuickLink) string {
	var b strings.Builder
	for _, l := range links {
		fmt.Fprintf(&b, `<a class="quick-link" href="%s" target="_blank" rel="noopener noreferrer">%s</a>`,
			html.EscapeString(l.URL), html.EscapeString(l.Title))
	}
	return b.String()
}

func optionList(values []string) string {
	var b strings.Builder
	for _, v := range values {
		esc := html.EscapeString(v)
		fmt.Fprintf(&b, `<option value="%s">%s</option>`, esc, esc)
	}
	return b.String()
}

// setSelectValue marks the option carrying value as selected, adding one
// when the value is not offered yet. An empty value selects the prompt.
func setSelectValue(doc *goquery.Document, selector, value string) {
	sel := doc.Find(selector).First()
	if sel.Length() == 0 {
		return
	}

	found := false
	sel.Find("option").Each(func(_ int, opt *goquery.Selection) {
		v, _ := opt.Attr("value")
		if v == value && !found {
			opt.SetAttr("selected", "selected")
			found = true
			return
		}
		opt.RemoveAttr("selected")
	})
	if !found {
		esc := html.EscapeString(value)
		sel.AppendHtml(fmt.Sprintf(`<option value="%s" selected="selected">%s</option>`, esc, esc))
	}
}

// selectValue reads the current value of a select element.
func selectValue(doc *goquery.Document, selector string) string {
	opt := doc.Find(selector + " option[selected]").First()
	if opt.Length() == 0 {
		return ""
	}
	v, _ := opt.Attr("value")
	return v
}

// Package spantext assigns styles to byte ranges of a source text. Runs
// never overlap and always cover the whole text.
package spantext

import (
	"html"
	"sort"
	"strings"
)

// Style is the decoration of a run. Class is a highlight class such as
// "keyword"; Error marks text covered by a diagnostic.
type Style struct {
	Class string
	Error bool
}

// Run is a maximal range [Start, End) with one style.
type Run struct {
	Start int
	End   int
	Style Style
}

// Text is a source string with styled runs.
type Text struct {
	src  string
	runs []Run
}

// New returns src as a single unstyled run.
func New(src string) *Text {
	t := &Text{src: src}
	if src != "" {
		t.runs = []Run{{Start: 0, End: len(src)}}
	}
	return t
}

// Source returns the underlying text.
func (t *Text) Source() string {
	return t.src
}

// Color sets the class of [start, end). The error flag is kept.
func (t *Text) Color(start, end int, class string) {
	t.update(start, end, func(s Style) Style {
		s.Class = class
		return s
	})
}

// Error marks [start, end) as erroneous. The class is kept.
func (t *Text) Error(start, end int) {
	t.update(start, end, func(s Style) Style {
		s.Error = true
		return s
	})
}

// Runs returns a copy of the run list.
func (t *Text) Runs() []Run {
	return append([]Run(nil), t.runs...)
}

func (t *Text) update(start, end int, fn func(Style) Style) {
	if start < 0 {
		start = 0
	}
	if end > len(t.src) {
		end = len(t.src)
	}
	if start >= end {
		return
	}
	t.split(start)
	t.split(end)
	for i := range t.runs {
		r := &t.runs[i]
		if r.Start >= start && r.End <= end {
			r.Style = fn(r.Style)
		}
	}
	t.merge()
}

// split cuts the run containing offset so that a run starts there.
func (t *Text) split(offset int) {
	i := sort.Search(len(t.runs), func(i int) bool { return t.runs[i].End > offset })
	if i == len(t.runs) || t.runs[i].Start == offset {
		return
	}
	r := t.runs[i]
	left := Run{Start: r.Start, End: offset, Style: r.Style}
	right := Run{Start: offset, End: r.End, Style: r.Style}
	t.runs = append(t.runs[:i], append([]Run{left, right}, t.runs[i+1:]...)...)
}

func (t *Text) merge() {
	out := t.runs[:0]
	for _, r := range t.runs {
		if n := len(out); n > 0 && out[n-1].Style == r.Style {
			out[n-1].End = r.End
			continue
		}
		out = append(out, r)
	}
	t.runs = out
}

// Render concatenates every run as formatted by fn.
func (t *Text) Render(fn func(text string, style Style) string) string {
	var b strings.Builder
	for _, r := range t.runs {
		b.WriteString(fn(t.src[r.Start:r.End], r.Style))
	}
	return b.String()
}

// String renders the text as HTML. Styled runs become
// <span class="...">; errors add the "error" class.
func (t *Text) String() string {
	return t.Render(func(text string, style Style) string {
		classes := style.Class
		if style.Error {
			classes = strings.TrimSpace(classes + " error")
		}
		if classes == "" {
			return html.EscapeString(text)
		}
		return `<span class="` + classes + `">` + html.EscapeString(text) + "</span>"
	})
}

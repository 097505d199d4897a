package template

import (
	"html"
	"strings"

	"github.com/microcosm-cc/bluemonday"
)

// HTMLRenderer turns substituted text and rendered segments into markup safe
// to inject into a chat or preview surface. Interpolated content is escaped
// before the emphasis pass ever runs, and the produced markup goes through a
// bluemonday policy that admits nothing beyond the emphasis tags, so a
// substitution value can never smuggle markup into the page.
type HTMLRenderer struct {
	policy *bluemonday.Policy
}

// NewHTMLRenderer builds the renderer with its fixed sanitization policy.
func NewHTMLRenderer() *HTMLRenderer {
	p := bluemonday.NewPolicy()
	p.AllowElements("strong", "em", "br")
	return &HTMLRenderer{policy: p}
}

// MessageHTML renders a chat message body that may carry **…** emphasis
// spans. The body is entity-escaped first, then emphasis-parsed, then the
// result is sanitized.
func (r *HTMLRenderer) MessageHTML(body string) string {
	var b strings.Builder
	for _, s := range ParseEmphasis(html.EscapeString(body)) {
		if s.Kind == SegmentEmphasis {
			b.WriteString("<strong>")
			b.WriteString(s.Text)
			b.WriteString("</strong>")
		} else {
			b.WriteString(s.Text)
		}
	}
	return r.policy.Sanitize(b.String())
}

// SegmentsHTML renders substitution output, bolding the substituted values
// the way the preview does. Each segment's text is escaped individually; the
// markup comes only from the segment kinds.
func (r *HTMLRenderer) SegmentsHTML(segments []Segment) string {
	var b strings.Builder
	for _, s := range segments {
		switch s.Kind {
		case SegmentValue, SegmentEmphasis:
			b.WriteString("<strong>")
			b.WriteString(html.EscapeString(s.Text))
			b.WriteString("</strong>")
		default:
			b.WriteString(html.EscapeString(s.Text))
		}
	}
	return r.policy.Sanitize(b.String())
}

package template

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

// placeholderPattern matches {{n}} tokens: two braces, one or more digits,
// two braces. Anything else ({{}}, {{1x}}, {{1}) stays literal.
var placeholderPattern = regexp.MustCompile(`\{\{(\d+)\}\}`)

// emphasisPattern matches the chat-window **bold** convention, non-greedy so
// adjacent spans do not merge.
var emphasisPattern = regexp.MustCompile(`\*\*(.*?)\*\*`)

// SegmentKind distinguishes how a run of output text was produced.
type SegmentKind int

const (
	// SegmentLiteral is text copied verbatim from the template.
	SegmentLiteral SegmentKind = iota
	// SegmentValue is a substituted placeholder value; surfaces style it
	// (the preview bolds it).
	SegmentValue
	// SegmentEmphasis is a **…** span recognized by the emphasis pass.
	SegmentEmphasis
)

// Segment is one run of rendered text.
type Segment struct {
	Kind SegmentKind
	Text string
}

// Fallback resolves a placeholder whose index has no example value. k is the
// 1-based placeholder index, token the original {{k}} text. Each rendering
// surface picks one policy and sticks with it.
type Fallback func(k int, token string) string

// SampleFallback labels unresolved placeholders "Sample<k>". Used by the
// template-catalog card preview.
func SampleFallback(k int, _ string) string { return fmt.Sprintf("Sample%d", k) }

// ValueFallback labels unresolved placeholders "Value<k>". Used when a
// template is sent into a chat.
func ValueFallback(k int, _ string) string { return fmt.Sprintf("Value%d", k) }

// TokenFallback leaves the raw {{k}} token in place. Used by the builder's
// live preview, where no sample pool may exist yet.
func TokenFallback(_ int, token string) string { return token }

// Substitute scans text once, left to right, replacing every {{k}} token with
// values[k-1], or with the fallback when the index is out of range. Replaced
// values are emitted as SegmentValue so callers can style them; everything
// else is literal. Substituted values are never re-scanned, so a value that
// itself looks like {{1}} comes through as-is.
func Substitute(text string, values []string, fallback Fallback) []Segment {
	if fallback == nil {
		fallback = TokenFallback
	}
	matches := placeholderPattern.FindAllStringSubmatchIndex(text, -1)
	if len(matches) == 0 {
		return []Segment{{Kind: SegmentLiteral, Text: text}}
	}

	segments := make([]Segment, 0, 2*len(matches)+1)
	prev := 0
	for _, m := range matches {
		if m[0] > prev {
			segments = append(segments, Segment{Kind: SegmentLiteral, Text: text[prev:m[0]]})
		}
		k, err := strconv.Atoi(text[m[2]:m[3]])
		switch {
		case err != nil:
			// Digit run too large for an index; keep the token literal.
			segments = append(segments, Segment{Kind: SegmentLiteral, Text: text[m[0]:m[1]]})
		case k >= 1 && k <= len(values):
			segments = append(segments, Segment{Kind: SegmentValue, Text: values[k-1]})
		default:
			segments = append(segments, Segment{Kind: SegmentValue, Text: fallback(k, text[m[0]:m[1]])})
		}
		prev = m[1]
	}
	if prev < len(text) {
		segments = append(segments, Segment{Kind: SegmentLiteral, Text: text[prev:]})
	}
	return segments
}

// MaxPlaceholder returns the highest {{n}} index found in text, 0 when there
// is none. Indices need not be dense; {{1}} and {{3}} without {{2}} yields 3.
func MaxPlaceholder(text string) int {
	max := 0
	for _, m := range placeholderPattern.FindAllStringSubmatch(text, -1) {
		if k, err := strconv.Atoi(m[1]); err == nil && k > max {
			max = k
		}
	}
	return max
}

// SubstituteString is the flattening variant of Substitute for contexts that
// need a single string (footer previews, search indexing). It loses the
// value markers, so prefer Substitute where styling matters.
func SubstituteString(text string, values []string, fallback Fallback) string {
	var b strings.Builder
	for _, s := range Substitute(text, values, fallback) {
		b.WriteString(s.Text)
	}
	return b.String()
}

// WrapValues substitutes placeholders and wraps every resolved value in
// **…**, the convention the chat window uses to carry bolding through a
// plain-text message body.
func WrapValues(text string, values []string, fallback Fallback) string {
	var b strings.Builder
	for _, s := range Substitute(text, values, fallback) {
		if s.Kind == SegmentValue {
			b.WriteString("**")
			b.WriteString(s.Text)
			b.WriteString("**")
		} else {
			b.WriteString(s.Text)
		}
	}
	return b.String()
}

// ParseEmphasis splits text on **…** spans, returning emphasis segments for
// the span interiors and literal segments for the rest. It is an independent
// second pass over already-substituted text; it never looks for {{n}} tokens.
func ParseEmphasis(text string) []Segment {
	matches := emphasisPattern.FindAllStringSubmatchIndex(text, -1)
	if len(matches) == 0 {
		return []Segment{{Kind: SegmentLiteral, Text: text}}
	}

	segments := make([]Segment, 0, 2*len(matches)+1)
	prev := 0
	for _, m := range matches {
		if m[0] > prev {
			segments = append(segments, Segment{Kind: SegmentLiteral, Text: text[prev:m[0]]})
		}
		segments = append(segments, Segment{Kind: SegmentEmphasis, Text: text[m[2]:m[3]]})
		prev = m[1]
	}
	if prev < len(text) {
		segments = append(segments, Segment{Kind: SegmentLiteral, Text: text[prev:]})
	}
	return segments
}

package template

import "encoding/json"

// Placeholder assets substituted when a media header has no URL or the URL
// fails to load client-side.
const (
	PlaceholderImage    = "/placeholder.svg"
	PlaceholderVideo    = "/placeholder.mp4"
	PlaceholderAudio    = "/placeholder.mp3"
	PlaceholderDocument = "/placeholder.pdf"
)

// DefaultSampleValues is the canned pool the chat window substitutes with
// when sending a template.
var DefaultSampleValues = []string{
	"John", "Smith", "Premium", "December", "2024", "Support Team", "ABC Company",
}

// catalogSampleValues feeds the template-catalog card previews.
var catalogSampleValues = []string{
	"John", "Smith", "ABC Company", "Premium", "2024", "Support Team",
}

// Context tells the renderer where substitution values come from and how
// unresolved placeholders are labelled. The renderer itself never decides the
// surface; callers pick one of the three constructors.
type Context struct {
	values   func(c TemplateComponent) []string
	fallback Fallback
}

// BuilderContext resolves each component against its own example values, the
// way the live builder preview does. Placeholders with no example stay as
// raw {{n}} tokens.
func BuilderContext() Context {
	return Context{
		values: func(c TemplateComponent) []string {
			switch c.Type {
			case ComponentHeader:
				if v := c.HeaderExample(); v != "" {
					return []string{v}
				}
				return nil
			case ComponentBody:
				return c.BodyValues()
			}
			return nil
		},
		fallback: TokenFallback,
	}
}

// CannedContext resolves every component against one fixed pool.
func CannedContext(pool []string, fallback Fallback) Context {
	return Context{
		values:   func(TemplateComponent) []string { return pool },
		fallback: fallback,
	}
}

// CatalogContext is the template-catalog card preview surface: fixed sample
// pool, "Sample<k>" fallback.
func CatalogContext() Context { return CannedContext(catalogSampleValues, SampleFallback) }

// ChatContext is the sent-chat-bubble surface: fixed sample pool, "Value<k>"
// fallback.
func ChatContext() Context { return CannedContext(DefaultSampleValues, ValueFallback) }

// Block is one presentation-ready template section. Concrete types are
// HeaderBlock, BodyBlock, FooterBlock and ButtonsBlock.
type Block interface {
	blockType() ComponentType
}

// HeaderBlock renders a HEADER component. TEXT headers carry Content; media
// headers carry MediaURL plus the placeholder asset to fall back to.
type HeaderBlock struct {
	Kind        ComponentType `json:"kind"`
	Format      HeaderFormat  `json:"format"`
	Content     []Segment     `json:"content,omitempty"`
	MediaURL    string        `json:"media_url,omitempty"`
	Placeholder string        `json:"placeholder,omitempty"`
}

func (HeaderBlock) blockType() ComponentType { return ComponentHeader }

// BodyBlock renders a BODY component.
type BodyBlock struct {
	Kind    ComponentType `json:"kind"`
	Content []Segment     `json:"content"`
}

func (BodyBlock) blockType() ComponentType { return ComponentBody }

// FooterBlock renders a FOOTER component.
type FooterBlock struct {
	Kind    ComponentType `json:"kind"`
	Content []Segment     `json:"content"`
}

func (FooterBlock) blockType() ComponentType { return ComponentFooter }

// ActionKind tags a button action.
type ActionKind string

const (
	ActionNone     ActionKind = "none"
	ActionDial     ActionKind = "dial"
	ActionNavigate ActionKind = "navigate"
)

// ButtonAction is what activating a button does. Dispatching it (opening the
// URL, dialing the number) is the surface's job, on explicit user activation
// only.
type ButtonAction struct {
	Kind        ActionKind `json:"kind"`
	PhoneNumber string     `json:"phone_number,omitempty"`
	URL         string     `json:"url,omitempty"`
}

// RenderedButton is one button of a ButtonsBlock.
type RenderedButton struct {
	Label  string       `json:"label"`
	Action ButtonAction `json:"action"`
}

// ButtonsBlock renders a BUTTONS component. The renderer does not cap the
// button count; the ten-button limit is enforced when buttons are added to a
// draft.
type ButtonsBlock struct {
	Kind    ComponentType    `json:"kind"`
	Buttons []RenderedButton `json:"buttons"`
}

func (ButtonsBlock) blockType() ComponentType { return ComponentButtons }

// buttonAction maps a button to its action. Buttons missing their required
// field degrade to no action rather than failing the render.
func buttonAction(b ButtonComponent) ButtonAction {
	switch b.Type {
	case ButtonPhoneNumber:
		if b.PhoneNumber != "" {
			return ButtonAction{Kind: ActionDial, PhoneNumber: b.PhoneNumber}
		}
	case ButtonURL:
		if b.URL != "" {
			return ButtonAction{Kind: ActionNavigate, URL: b.URL}
		}
	}
	return ButtonAction{Kind: ActionNone}
}

func placeholderAsset(f HeaderFormat) string {
	switch f {
	case FormatImage:
		return PlaceholderImage
	case FormatVideo:
		return PlaceholderVideo
	case FormatAudio:
		return PlaceholderAudio
	case FormatDocument:
		return PlaceholderDocument
	}
	return ""
}

// Render turns a component list into presentation-ready blocks, one per
// recognized component, preserving input order. It is a pure function of its
// arguments: no I/O, no hidden state. Components of an unknown type are
// skipped. A partial draft renders whatever sections it has.
func Render(components []TemplateComponent, ctx Context) []Block {
	if ctx.values == nil {
		ctx = BuilderContext()
	}
	blocks := make([]Block, 0, len(components))
	for _, c := range components {
		switch c.Type {
		case ComponentHeader:
			blocks = append(blocks, renderHeader(c, ctx))
		case ComponentBody:
			blocks = append(blocks, BodyBlock{
				Kind:    ComponentBody,
				Content: Substitute(c.Text, ctx.values(c), ctx.fallback),
			})
		case ComponentFooter:
			blocks = append(blocks, FooterBlock{
				Kind:    ComponentFooter,
				Content: Substitute(c.Text, ctx.values(c), ctx.fallback),
			})
		case ComponentButtons:
			buttons := make([]RenderedButton, 0, len(c.Buttons))
			for _, b := range c.Buttons {
				buttons = append(buttons, RenderedButton{Label: b.Text, Action: buttonAction(b)})
			}
			blocks = append(blocks, ButtonsBlock{Kind: ComponentButtons, Buttons: buttons})
		}
	}
	return blocks
}

func renderHeader(c TemplateComponent, ctx Context) HeaderBlock {
	block := HeaderBlock{Kind: ComponentHeader, Format: c.Format}
	switch {
	case c.Format == FormatText:
		block.Content = Substitute(c.Text, ctx.values(c), ctx.fallback)
	case c.Format.IsMedia():
		block.MediaURL = c.HeaderExample()
		block.Placeholder = placeholderAsset(c.Format)
	}
	return block
}

var segmentKindNames = map[SegmentKind]string{
	SegmentLiteral:  "literal",
	SegmentValue:    "value",
	SegmentEmphasis: "emphasis",
}

// MarshalJSON encodes the segment kind as a readable tag for API consumers.
func (s Segment) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Kind string `json:"kind"`
		Text string `json:"text"`
	}{Kind: segmentKindNames[s.Kind], Text: s.Text})
}

// Package template implements the message-template engine: the template
// model, the {{n}} variable-substitution engine, and the component renderer
// shared by the builder preview, the template catalog, and the chat window.
package template

import (
	"errors"
	"fmt"
	"time"
)

// ComponentType identifies one structural section of a template.
type ComponentType string

const (
	ComponentHeader  ComponentType = "HEADER"
	ComponentBody    ComponentType = "BODY"
	ComponentFooter  ComponentType = "FOOTER"
	ComponentButtons ComponentType = "BUTTONS"
)

// HeaderFormat is the media format of a HEADER component.
type HeaderFormat string

const (
	FormatNone     HeaderFormat = "NONE"
	FormatText     HeaderFormat = "TEXT"
	FormatImage    HeaderFormat = "IMAGE"
	FormatVideo    HeaderFormat = "VIDEO"
	FormatAudio    HeaderFormat = "AUDIO"
	FormatDocument HeaderFormat = "DOCUMENT"
)

// IsMedia reports whether the format carries a media reference instead of text.
func (f HeaderFormat) IsMedia() bool {
	switch f {
	case FormatImage, FormatVideo, FormatAudio, FormatDocument:
		return true
	}
	return false
}

// Category is the Meta template category.
type Category string

const (
	CategoryMarketing      Category = "MARKETING"
	CategoryUtility        Category = "UTILITY"
	CategoryAuthentication Category = "AUTHENTICATION"
	CategoryTransactional  Category = "TRANSACTIONAL"
)

// ButtonType discriminates the button variants.
type ButtonType string

const (
	ButtonQuickReply  ButtonType = "QUICK_REPLY"
	ButtonPhoneNumber ButtonType = "PHONE_NUMBER"
	ButtonURL         ButtonType = "URL"
)

// MaxButtons is the cap WhatsApp places on buttons per template. Enforced at
// draft add-time; the renderer renders whatever it is handed.
const MaxButtons = 10

var (
	ErrEmptyName          = errors.New("template name is required")
	ErrNoComponents       = errors.New("template needs at least one component")
	ErrTooManyButtons     = fmt.Errorf("a template can have at most %d buttons", MaxButtons)
	ErrButtonTextRequired = errors.New("button text is required")
	ErrURLRequired        = errors.New("url button needs a url")
	ErrPhoneRequired      = errors.New("phone button needs a phone number")
)

// Example holds the sample substitution values attached to a component.
// HeaderText[0] doubles as the media URL for media headers, matching the
// Graph API shape. BodyText row 0 supplies body values positionally.
type Example struct {
	HeaderText []string   `json:"header_text,omitempty"`
	BodyText   [][]string `json:"body_text,omitempty"`
}

// ButtonComponent is one button of a BUTTONS component. PhoneNumber and URL
// are only meaningful for their respective types; Validate enforces that.
type ButtonComponent struct {
	Type        ButtonType `json:"type"`
	Text        string     `json:"text"`
	PhoneNumber string     `json:"phone_number,omitempty"`
	URL         string     `json:"url,omitempty"`
}

// Validate checks the per-type required fields.
func (b ButtonComponent) Validate() error {
	if b.Text == "" {
		return ErrButtonTextRequired
	}
	switch b.Type {
	case ButtonURL:
		if b.URL == "" {
			return ErrURLRequired
		}
	case ButtonPhoneNumber:
		if b.PhoneNumber == "" {
			return ErrPhoneRequired
		}
	}
	return nil
}

// QuickReply returns a quick-reply button.
func QuickReply(text string) ButtonComponent {
	return ButtonComponent{Type: ButtonQuickReply, Text: text}
}

// DialButton returns a phone-number button.
func DialButton(text, phone string) ButtonComponent {
	return ButtonComponent{Type: ButtonPhoneNumber, Text: text, PhoneNumber: phone}
}

// URLButton returns a URL button.
func URLButton(text, url string) ButtonComponent {
	return ButtonComponent{Type: ButtonURL, Text: text, URL: url}
}

// TemplateComponent is one section of a template. Which fields are populated
// depends on Type; the JSON shape matches Meta's template objects so stored
// components round-trip through the sync path unchanged.
type TemplateComponent struct {
	Type    ComponentType     `json:"type"`
	Format  HeaderFormat      `json:"format,omitempty"`
	Text    string            `json:"text,omitempty"`
	Example *Example          `json:"example,omitempty"`
	Buttons []ButtonComponent `json:"buttons,omitempty"`
}

// HeaderExample returns the first header example value (sample text for TEXT
// headers, media URL for media headers) or "".
func (c TemplateComponent) HeaderExample() string {
	if c.Example != nil && len(c.Example.HeaderText) > 0 {
		return c.Example.HeaderText[0]
	}
	return ""
}

// BodyValues returns row 0 of the body examples, the row that feeds
// positional substitution. Nil when no examples were supplied.
func (c TemplateComponent) BodyValues() []string {
	if c.Example != nil && len(c.Example.BodyText) > 0 {
		return c.Example.BodyText[0]
	}
	return nil
}

// MessageTemplate is a reusable, parameterized outbound message definition.
// Component order is meaningful (header, body, footer, buttons) but not
// enforced here; the draft builder emits them in order.
type MessageTemplate struct {
	ID         string              `json:"id"`
	Name       string              `json:"name"`
	Language   string              `json:"language"`
	Category   Category            `json:"category"`
	Components []TemplateComponent `json:"components"`
	CreatedAt  time.Time           `json:"createdAt"`
}

func (t MessageTemplate) findComponent(typ ComponentType) *TemplateComponent {
	for i := range t.Components {
		if t.Components[i].Type == typ {
			return &t.Components[i]
		}
	}
	return nil
}

// Header returns the first HEADER component, or nil.
func (t MessageTemplate) Header() *TemplateComponent { return t.findComponent(ComponentHeader) }

// Body returns the first BODY component, or nil.
func (t MessageTemplate) Body() *TemplateComponent { return t.findComponent(ComponentBody) }

// Footer returns the first FOOTER component, or nil.
func (t MessageTemplate) Footer() *TemplateComponent { return t.findComponent(ComponentFooter) }

// ButtonsComponent returns the first BUTTONS component, or nil.
func (t MessageTemplate) ButtonsComponent() *TemplateComponent {
	return t.findComponent(ComponentButtons)
}

// Validate checks the constraints a finished template must satisfy: non-empty
// name, at least one component, button count and per-button fields.
func (t MessageTemplate) Validate() error {
	if t.Name == "" {
		return ErrEmptyName
	}
	if len(t.Components) == 0 {
		return ErrNoComponents
	}
	for _, c := range t.Components {
		if c.Type != ComponentButtons {
			continue
		}
		if len(c.Buttons) > MaxButtons {
			return ErrTooManyButtons
		}
		for _, b := range c.Buttons {
			if err := b.Validate(); err != nil {
				return err
			}
		}
	}
	return nil
}

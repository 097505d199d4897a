package template

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Section is one step of the builder's linear flow.
type Section string

const (
	SectionDetails Section = "details"
	SectionHeader  Section = "header"
	SectionBody    Section = "body"
	SectionFooter  Section = "footer"
	SectionButtons Section = "buttons"
)

// sections in builder order. Navigation is linear but direct jumps are
// allowed; the only guard sits on leaving the header forward.
var sections = []Section{SectionDetails, SectionHeader, SectionBody, SectionFooter, SectionButtons}

var (
	ErrHeaderMediaRequired = errors.New("upload header media before continuing")
	ErrUnknownSection      = errors.New("unknown builder section")
)

// Draft is the in-progress state of the template builder. It holds the raw
// per-section field values and assembles them into a MessageTemplate on
// demand. A draft belongs to a single editing session; it is not safe for
// concurrent writers.
type Draft struct {
	Name     string
	Language string
	Category Category

	HeaderFormat      HeaderFormat
	HeaderText        string
	HeaderTextExample string
	HeaderMediaURL    string

	BodyText    string
	BodyExample string // comma-separated values for {{1}}, {{2}}, ...

	FooterText string

	Buttons []ButtonComponent

	section Section

	// editing holds id/createdAt when the draft was seeded from an
	// existing template, so Submit preserves them.
	editingID        string
	editingCreatedAt time.Time

	// onChange, when set, receives an immutable snapshot after every
	// mutation. The preview surface recomputes its blocks from scratch on
	// each snapshot.
	onChange func(MessageTemplate)
}

// NewDraft returns an empty draft positioned at the details section, with
// the builder's defaults.
func NewDraft() *Draft {
	return &Draft{
		Language:     "en_US",
		Category:     CategoryMarketing,
		HeaderFormat: FormatNone,
		section:      SectionDetails,
	}
}

// EditDraft seeds a draft from an existing template so the builder opens in
// editing mode. Submit keeps the template's id and creation time.
func EditDraft(t MessageTemplate) *Draft {
	d := NewDraft()
	d.Name = t.Name
	if t.Language != "" {
		d.Language = t.Language
	}
	if t.Category != "" {
		d.Category = t.Category
	}
	if h := t.Header(); h != nil {
		d.HeaderFormat = h.Format
		if h.Format == FormatText {
			d.HeaderText = h.Text
			d.HeaderTextExample = h.HeaderExample()
		} else if h.Format.IsMedia() {
			d.HeaderMediaURL = h.HeaderExample()
		}
	}
	if b := t.Body(); b != nil {
		d.BodyText = b.Text
		d.BodyExample = strings.Join(b.BodyValues(), ", ")
	}
	if f := t.Footer(); f != nil {
		d.FooterText = f.Text
	}
	if bc := t.ButtonsComponent(); bc != nil {
		d.Buttons = append([]ButtonComponent(nil), bc.Buttons...)
	}
	d.editingID = t.ID
	d.editingCreatedAt = t.CreatedAt
	return d
}

// Subscribe registers the snapshot listener. Passing nil stops notification;
// a cancelled preview simply stops listening.
func (d *Draft) Subscribe(fn func(MessageTemplate)) { d.onChange = fn }

func (d *Draft) notify() {
	if d.onChange != nil {
		d.onChange(d.Template())
	}
}

// Section returns the builder's current section.
func (d *Draft) Section() Section { return d.section }

func sectionIndex(s Section) int {
	for i, sec := range sections {
		if sec == s {
			return i
		}
	}
	return -1
}

// Next advances to the following section. Leaving the header forward is
// blocked while a media format is selected but no media has been supplied.
func (d *Draft) Next() error {
	if d.section == SectionHeader && d.HeaderFormat.IsMedia() && d.HeaderMediaURL == "" {
		return ErrHeaderMediaRequired
	}
	if i := sectionIndex(d.section); i < len(sections)-1 {
		d.section = sections[i+1]
	}
	return nil
}

// Back returns to the previous section. Always allowed.
func (d *Draft) Back() {
	if i := sectionIndex(d.section); i > 0 {
		d.section = sections[i-1]
	}
}

// GoTo jumps straight to a section. The flow is linear but not enforced
// sequential; the steps nav allows direct jumps.
func (d *Draft) GoTo(s Section) error {
	if sectionIndex(s) < 0 {
		return fmt.Errorf("%w: %q", ErrUnknownSection, s)
	}
	d.section = s
	return nil
}

// Field setters. Each publishes a fresh snapshot to the subscriber.

func (d *Draft) SetName(name string)        { d.Name = name; d.notify() }
func (d *Draft) SetLanguage(lang string)    { d.Language = lang; d.notify() }
func (d *Draft) SetCategory(c Category)     { d.Category = c; d.notify() }
func (d *Draft) SetHeaderText(text string)  { d.HeaderText = text; d.notify() }
func (d *Draft) SetHeaderExample(v string)  { d.HeaderTextExample = v; d.notify() }
func (d *Draft) SetHeaderMediaURL(u string) { d.HeaderMediaURL = u; d.notify() }
func (d *Draft) SetBodyText(text string)    { d.BodyText = text; d.notify() }
func (d *Draft) SetBodyExample(v string)    { d.BodyExample = v; d.notify() }
func (d *Draft) SetFooterText(text string)  { d.FooterText = text; d.notify() }

// SetHeaderFormat switches the header format, clearing the fields the new
// format does not use.
func (d *Draft) SetHeaderFormat(f HeaderFormat) {
	d.HeaderFormat = f
	if f != FormatText {
		d.HeaderText = ""
		d.HeaderTextExample = ""
	}
	if !f.IsMedia() {
		d.HeaderMediaURL = ""
	}
	d.notify()
}

// AddButton appends a button, enforcing the ten-button cap at add time.
func (d *Draft) AddButton(b ButtonComponent) error {
	if len(d.Buttons) >= MaxButtons {
		return ErrTooManyButtons
	}
	d.Buttons = append(d.Buttons, b)
	d.notify()
	return nil
}

// UpdateButton replaces the button at index i.
func (d *Draft) UpdateButton(i int, b ButtonComponent) error {
	if i < 0 || i >= len(d.Buttons) {
		return fmt.Errorf("button index %d out of range", i)
	}
	d.Buttons[i] = b
	d.notify()
	return nil
}

// RemoveButton deletes the button at index i.
func (d *Draft) RemoveButton(i int) error {
	if i < 0 || i >= len(d.Buttons) {
		return fmt.Errorf("button index %d out of range", i)
	}
	d.Buttons = append(d.Buttons[:i], d.Buttons[i+1:]...)
	d.notify()
	return nil
}

// Template assembles the current section values into a (possibly partial)
// MessageTemplate, the shape the preview renders. Empty sections produce no
// component; the header appears only when a format is selected.
func (d *Draft) Template() MessageTemplate {
	var components []TemplateComponent

	if d.HeaderFormat != FormatNone {
		header := TemplateComponent{Type: ComponentHeader, Format: d.HeaderFormat}
		if d.HeaderFormat == FormatText {
			header.Text = d.HeaderText
			if d.HeaderTextExample != "" {
				header.Example = &Example{HeaderText: []string{d.HeaderTextExample}}
			}
		} else {
			header.Example = &Example{HeaderText: []string{d.HeaderMediaURL}}
		}
		components = append(components, header)
	}

	if d.BodyText != "" {
		body := TemplateComponent{Type: ComponentBody, Text: d.BodyText}
		if d.BodyExample != "" {
			row := strings.Split(d.BodyExample, ",")
			for i := range row {
				row[i] = strings.TrimSpace(row[i])
			}
			body.Example = &Example{BodyText: [][]string{row}}
		}
		components = append(components, body)
	}

	if d.FooterText != "" {
		components = append(components, TemplateComponent{Type: ComponentFooter, Text: d.FooterText})
	}

	if len(d.Buttons) > 0 {
		components = append(components, TemplateComponent{
			Type:    ComponentButtons,
			Buttons: append([]ButtonComponent(nil), d.Buttons...),
		})
	}

	return MessageTemplate{
		ID:         d.editingID,
		Name:       d.Name,
		Language:   d.Language,
		Category:   d.Category,
		Components: components,
		CreatedAt:  d.editingCreatedAt,
	}
}

// Submit finalizes the draft into an immutable MessageTemplate, assigning an
// id and creation time when the draft is not editing an existing template.
// The draft resets afterwards; the builder exits to "no active draft".
func (d *Draft) Submit() (MessageTemplate, error) {
	t := d.Template()
	if err := t.Validate(); err != nil {
		return MessageTemplate{}, err
	}
	if t.ID == "" {
		t.ID = uuid.New().String()
	}
	if t.CreatedAt.IsZero() {
		t.CreatedAt = time.Now().UTC()
	}
	d.reset()
	return t, nil
}

// Cancel abandons the draft, discarding all uncommitted state.
func (d *Draft) Cancel() { d.reset() }

func (d *Draft) reset() {
	onChange := d.onChange
	*d = *NewDraft()
	d.onChange = onChange
}

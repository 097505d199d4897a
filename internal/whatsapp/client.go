// Package whatsapp is the outbound WhatsApp Cloud API collaborator. The
// console treats it as request/response plumbing; message content and
// template semantics live in internal/template.
package whatsapp

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"whatsapp-console/internal/config"
	"whatsapp-console/internal/template"
)

const graphBase = "https://graph.facebook.com/v19.0"

type Client struct {
	Config  *config.Config
	BaseURL string
	http    *http.Client
}

func NewClient(cfg *config.Config) *Client {
	return &Client{Config: cfg, BaseURL: graphBase, http: &http.Client{}}
}

// --- Wire structures (Meta message payloads) ---

type outboundMessage struct {
	MessagingProduct string       `json:"messaging_product"`
	To               string       `json:"to"`
	Type             string       `json:"type"`
	Text             *TextObj     `json:"text,omitempty"`
	Template         *TemplateObj `json:"template,omitempty"`
}

type TextObj struct {
	Body       string `json:"body"`
	PreviewURL bool   `json:"preview_url,omitempty"`
}

type TemplateObj struct {
	Name       string         `json:"name"`
	Language   LanguageObj    `json:"language"`
	Components []ComponentObj `json:"components,omitempty"`
}

type LanguageObj struct {
	Code string `json:"code"`
}

type ComponentObj struct {
	Type       string         `json:"type"`
	Parameters []ParameterObj `json:"parameters"`
}

type ParameterObj struct {
	Type     string    `json:"type"`
	Text     string    `json:"text,omitempty"`
	Image    *MediaObj `json:"image,omitempty"`
	Video    *MediaObj `json:"video,omitempty"`
	Audio    *MediaObj `json:"audio,omitempty"`
	Document *MediaObj `json:"document,omitempty"`
}

type MediaObj struct {
	Link string `json:"link,omitempty"`
}

// --- Helpers ---

func (c *Client) sendRequest(method, url string, body interface{}) ([]byte, error) {
	var bodyReader io.Reader
	if body != nil {
		jsonData, err := json.Marshal(body)
		if err != nil {
			return nil, err
		}
		bodyReader = bytes.NewBuffer(jsonData)
	}

	req, err := http.NewRequest(method, url, bodyReader)
	if err != nil {
		return nil, err
	}

	req.Header.Set("Authorization", "Bearer "+c.Config.WhatsAppToken)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}

	if resp.StatusCode >= 400 {
		return respBody, fmt.Errorf("API error: %s - %s", resp.Status, string(respBody))
	}

	return respBody, nil
}

// messageID extracts the wamid Meta assigns to an accepted message. Delivery
// receipts reference it, so callers persist it alongside the message.
func messageID(resp []byte) string {
	var r struct {
		Messages []struct {
			ID string `json:"id"`
		} `json:"messages"`
	}
	if err := json.Unmarshal(resp, &r); err != nil || len(r.Messages) == 0 {
		return ""
	}
	return r.Messages[0].ID
}

// --- Messaging ---

// SendText sends a plain text message and returns the assigned wamid.
func (c *Client) SendText(to, body string) (string, error) {
	msg := outboundMessage{
		MessagingProduct: "whatsapp",
		To:               to,
		Type:             "text",
		Text:             &TextObj{Body: body},
	}
	url := fmt.Sprintf("%s/%s/messages", c.BaseURL, c.Config.PhoneNumberID)
	resp, err := c.sendRequest("POST", url, msg)
	if err != nil {
		return "", err
	}
	return messageID(resp), nil
}

// SendTemplate sends a template message, deriving the parameter arrays from
// the template's own example values: media headers become a media link
// parameter, text components get one text parameter per placeholder. Missing
// example values fall back to the chat surface's Value<k> labels. Returns the
// assigned wamid.
func (c *Client) SendTemplate(to string, tpl template.MessageTemplate) (string, error) {
	msg := outboundMessage{
		MessagingProduct: "whatsapp",
		To:               to,
		Type:             "template",
		Template: &TemplateObj{
			Name:       tpl.Name,
			Language:   LanguageObj{Code: tpl.Language},
			Components: templateComponents(tpl),
		},
	}
	url := fmt.Sprintf("%s/%s/messages", c.BaseURL, c.Config.PhoneNumberID)
	resp, err := c.sendRequest("POST", url, msg)
	if err != nil {
		return "", err
	}
	return messageID(resp), nil
}

func templateComponents(tpl template.MessageTemplate) []ComponentObj {
	var components []ComponentObj

	if h := tpl.Header(); h != nil {
		if param, ok := headerParameter(*h); ok {
			components = append(components, ComponentObj{
				Type:       "header",
				Parameters: []ParameterObj{param},
			})
		}
	}

	if b := tpl.Body(); b != nil {
		if params := textParameters(b.Text, b.BodyValues()); len(params) > 0 {
			components = append(components, ComponentObj{
				Type:       "body",
				Parameters: params,
			})
		}
	}

	return components
}

func headerParameter(h template.TemplateComponent) (ParameterObj, bool) {
	if h.Format.IsMedia() {
		url := h.HeaderExample()
		if url == "" {
			return ParameterObj{}, false
		}
		media := &MediaObj{Link: url}
		switch h.Format {
		case template.FormatImage:
			return ParameterObj{Type: "image", Image: media}, true
		case template.FormatVideo:
			return ParameterObj{Type: "video", Video: media}, true
		case template.FormatAudio:
			return ParameterObj{Type: "audio", Audio: media}, true
		case template.FormatDocument:
			return ParameterObj{Type: "document", Document: media}, true
		}
		return ParameterObj{}, false
	}

	if h.Format == template.FormatText {
		var values []string
		if v := h.HeaderExample(); v != "" {
			values = []string{v}
		}
		if params := textParameters(h.Text, values); len(params) > 0 {
			return params[0], true
		}
	}
	return ParameterObj{}, false
}

// textParameters produces one positional text parameter per placeholder in
// text, resolving from values with the Value<k> fallback.
func textParameters(text string, values []string) []ParameterObj {
	n := template.MaxPlaceholder(text)
	if n == 0 {
		return nil
	}
	params := make([]ParameterObj, 0, n)
	for k := 1; k <= n; k++ {
		value := template.SubstituteString(fmt.Sprintf("{{%d}}", k), values, template.ValueFallback)
		params = append(params, ParameterObj{Type: "text", Text: value})
	}
	return params
}

// --- Template management ---

// TemplateListing is one template as returned by Meta's management API.
type TemplateListing struct {
	ID         string          `json:"id"`
	Name       string          `json:"name"`
	Language   string          `json:"language"`
	Category   string          `json:"category"`
	Status     string          `json:"status"`
	Components json.RawMessage `json:"components"`
}

// FetchTemplates lists the account's templates from Meta.
func (c *Client) FetchTemplates() ([]TemplateListing, error) {
	url := fmt.Sprintf("%s/%s/message_templates", c.BaseURL, c.Config.WhatsAppBusinessAccountID)
	resp, err := c.sendRequest("GET", url, nil)
	if err != nil {
		return nil, err
	}

	var result struct {
		Data []TemplateListing `json:"data"`
	}
	if err := json.Unmarshal(resp, &result); err != nil {
		return nil, err
	}
	return result.Data, nil
}

// CreateTemplate submits a template for review.
func (c *Client) CreateTemplate(tpl template.MessageTemplate) error {
	payload := map[string]interface{}{
		"name":       tpl.Name,
		"language":   tpl.Language,
		"category":   tpl.Category,
		"components": tpl.Components,
	}
	url := fmt.Sprintf("%s/%s/message_templates", c.BaseURL, c.Config.WhatsAppBusinessAccountID)
	_, err := c.sendRequest("POST", url, payload)
	return err
}

// DeleteTemplate removes a template by name.
func (c *Client) DeleteTemplate(name string) error {
	url := fmt.Sprintf("%s/%s/message_templates?name=%s", c.BaseURL, c.Config.WhatsAppBusinessAccountID, strings.TrimSpace(name))
	_, err := c.sendRequest("DELETE", url, nil)
	return err
}

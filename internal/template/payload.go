package template

import (
	"encoding/json"
	"strings"
)

// MessagePrefix tags a chat message body that carries a serialized template.
// Plain-text transports deliver it unchanged; the receiving renderer strips
// the tag and parses the remainder.
const MessagePrefix = "TEMPLATE:"

// EncodeMessage serializes a template into the tagged chat-payload form.
func EncodeMessage(t MessageTemplate) (string, error) {
	data, err := json.Marshal(t)
	if err != nil {
		return "", err
	}
	return MessagePrefix + string(data), nil
}

// DecodeMessage parses a chat message body that may carry a tagged template
// payload. It never fails: when the body is not a parseable payload, ok is
// false and the caller renders the body as plain literal text.
func DecodeMessage(body string) (MessageTemplate, bool) {
	if !strings.HasPrefix(body, MessagePrefix) {
		return MessageTemplate{}, false
	}
	var t MessageTemplate
	if err := json.Unmarshal([]byte(strings.TrimPrefix(body, MessagePrefix)), &t); err != nil {
		return MessageTemplate{}, false
	}
	return t, true
}

package api

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"whatsapp-console/internal/config"
	"whatsapp-console/internal/models"
	"whatsapp-console/internal/template"
	"whatsapp-console/internal/whatsapp"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// graphStub fakes the Graph API, recording message payloads.
func graphStub(t *testing.T) (*whatsapp.Client, *[][]byte) {
	t.Helper()
	var bodies [][]byte
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		bodies = append(bodies, body)
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"messages":[{"id":"wamid.stub"}]}`))
	}))
	t.Cleanup(srv.Close)

	client := whatsapp.NewClient(&config.Config{PhoneNumberID: "123", WhatsAppToken: "token"})
	client.BaseURL = srv.URL
	return client, &bodies
}

func chatRouter(t *testing.T) (*gin.Engine, *[][]byte) {
	t.Helper()
	client, bodies := graphStub(t)
	h := NewChatHandler(client, nil)
	r := gin.New()
	r.GET("/messages/:waId", h.GetMessages)
	r.GET("/messages/:waId/rendered", h.GetRenderedMessages)
	r.POST("/send", h.SendMessage)
	r.POST("/send-template", h.SendTemplate)
	r.POST("/broadcast", h.SendBroadcast)
	return r, bodies
}

func TestSendMessageStoresOutbound(t *testing.T) {
	db := setupDB(t)
	r, bodies := chatRouter(t)

	w := doJSON(t, r, http.MethodPost, "/send", SendRequest{To: "15550001", Content: "hello"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	require.Len(t, *bodies, 1)

	var stored []models.Message
	require.NoError(t, db.Find(&stored).Error)
	require.Len(t, stored, 1)
	assert.Equal(t, "15550001", stored[0].WaID)
	assert.Equal(t, "hello", stored[0].Content)
	assert.Equal(t, "text", stored[0].Type)
	assert.Equal(t, "wamid.stub", stored[0].Wamid)
	assert.False(t, stored[0].Inbound)
}

func TestSendTemplateStoresTaggedPayload(t *testing.T) {
	db := setupDB(t)
	r, bodies := chatRouter(t)

	tpl := builderTemplate()
	tpl.ID = "tpl-send"
	row, err := storedTemplate(tpl)
	require.NoError(t, err)
	require.NoError(t, db.Create(&row).Error)

	w := doJSON(t, r, http.MethodPost, "/send-template", SendTemplateRequest{To: "15550001", TemplateID: "tpl-send"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	// The Graph API saw a template message with body parameters built from
	// the template's own examples.
	require.Len(t, *bodies, 1)
	var sent struct {
		Type     string `json:"type"`
		Template struct {
			Name       string `json:"name"`
			Components []struct {
				Type       string `json:"type"`
				Parameters []struct {
					Type string `json:"type"`
					Text string `json:"text"`
				} `json:"parameters"`
			} `json:"components"`
		} `json:"template"`
	}
	require.NoError(t, json.Unmarshal((*bodies)[0], &sent))
	assert.Equal(t, "template", sent.Type)
	assert.Equal(t, "order_update", sent.Template.Name)
	require.Len(t, sent.Template.Components, 1)
	require.Len(t, sent.Template.Components[0].Parameters, 2)
	assert.Equal(t, "John", sent.Template.Components[0].Parameters[0].Text)
	assert.Equal(t, "12345", sent.Template.Components[0].Parameters[1].Text)

	// The stored message carries the tagged payload, decodable back into
	// the same template.
	var stored models.Message
	require.NoError(t, db.First(&stored).Error)
	assert.Equal(t, "template", stored.Type)
	assert.Equal(t, "wamid.stub", stored.Wamid)
	decoded, ok := template.DecodeMessage(stored.Content)
	require.True(t, ok)
	assert.Equal(t, "order_update", decoded.Name)
}

func TestSendTemplateUnknownID(t *testing.T) {
	setupDB(t)
	r, _ := chatRouter(t)
	w := doJSON(t, r, http.MethodPost, "/send-template", SendTemplateRequest{To: "15550001", TemplateID: "missing"})
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestGetRenderedMessages(t *testing.T) {
	db := setupDB(t)
	r, _ := chatRouter(t)

	payload, err := template.EncodeMessage(builderTemplate())
	require.NoError(t, err)

	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	messages := []models.Message{
		{WaID: "15550001", Sender: "15550001", Content: "plain **bold** text", Type: "text", Inbound: true},
		{WaID: "15550001", Sender: "console", Content: payload, Type: "template"},
		{WaID: "15550001", Sender: "console", Content: "TEMPLATE:{broken json", Type: "template"},
	}
	for i := range messages {
		messages[i].CreatedAt = base.Add(time.Duration(i) * time.Minute)
		require.NoError(t, db.Create(&messages[i]).Error)
	}

	w := doJSON(t, r, http.MethodGet, "/messages/15550001/rendered", nil)
	require.Equal(t, http.StatusOK, w.Code)

	var rendered []struct {
		Content string          `json:"content"`
		Blocks  json.RawMessage `json:"blocks"`
		HTML    string          `json:"html"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &rendered))
	require.Len(t, rendered, 3)

	// Plain text: emphasis-aware HTML, no blocks.
	assert.Empty(t, rendered[0].Blocks)
	assert.Equal(t, "plain <strong>bold</strong> text", rendered[0].HTML)

	// Tagged payload: decoded into blocks.
	assert.NotEmpty(t, rendered[1].Blocks)
	assert.Empty(t, rendered[1].HTML)

	// Broken payload degrades to literal text, never an error.
	assert.Empty(t, rendered[2].Blocks)
	assert.Contains(t, rendered[2].HTML, "TEMPLATE:{broken json")
}

func TestBroadcast(t *testing.T) {
	db := setupDB(t)
	r, bodies := chatRouter(t)

	tpl := builderTemplate()
	tpl.ID = "tpl-bcast"
	row, err := storedTemplate(tpl)
	require.NoError(t, err)
	require.NoError(t, db.Create(&row).Error)

	w := doJSON(t, r, http.MethodPost, "/broadcast", BroadcastRequest{
		TemplateID: "tpl-bcast",
		Contacts:   []string{"111", "222", "333"},
	})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, *bodies, 3)

	var count int64
	db.Model(&models.Message{}).Count(&count)
	assert.EqualValues(t, 3, count)
}

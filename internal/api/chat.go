package api

import (
	"log"
	"net/http"
	"time"

	"whatsapp-console/internal/database"
	"whatsapp-console/internal/models"
	"whatsapp-console/internal/template"
	"whatsapp-console/internal/whatsapp"
	"whatsapp-console/internal/ws"

	"github.com/gin-gonic/gin"
)

type ChatHandler struct {
	Client *whatsapp.Client
	Hub    *ws.Hub
	html   *template.HTMLRenderer
}

func NewChatHandler(client *whatsapp.Client, hub *ws.Hub) *ChatHandler {
	return &ChatHandler{Client: client, Hub: hub, html: template.NewHTMLRenderer()}
}

// GetMessages lists a contact's messages, oldest first.
func (h *ChatHandler) GetMessages(c *gin.Context) {
	var messages []models.Message
	if err := database.DB.Where("wa_id = ?", c.Param("waId")).Order("created_at ASC").Find(&messages).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	if messages == nil {
		messages = []models.Message{}
	}
	c.JSON(http.StatusOK, messages)
}

// renderedMessage is a message with its presentation precomputed: template
// payloads become blocks, plain text becomes emphasis-aware HTML.
type renderedMessage struct {
	models.Message
	Blocks []template.Block `json:"blocks,omitempty"`
	HTML   string           `json:"html,omitempty"`
}

// GetRenderedMessages returns a contact's messages in presentation form. A
// message whose content carries a TEMPLATE: payload is decoded and rendered
// with the chat surface's context; anything undecodable falls back to
// literal text. Decoding never fails the request.
func (h *ChatHandler) GetRenderedMessages(c *gin.Context) {
	var messages []models.Message
	if err := database.DB.Where("wa_id = ?", c.Param("waId")).Order("created_at ASC").Find(&messages).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	rendered := make([]renderedMessage, 0, len(messages))
	for _, msg := range messages {
		rm := renderedMessage{Message: msg}
		if tpl, ok := template.DecodeMessage(msg.Content); ok {
			rm.Blocks = template.Render(tpl.Components, template.ChatContext())
		} else {
			rm.HTML = h.html.MessageHTML(msg.Content)
		}
		rendered = append(rendered, rm)
	}
	c.JSON(http.StatusOK, rendered)
}

type SendRequest struct {
	To      string `json:"to" binding:"required"`
	Content string `json:"content" binding:"required"`
}

// SendMessage sends a plain text message and stores it.
func (h *ChatHandler) SendMessage(c *gin.Context) {
	var req SendRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	wamid, err := h.Client.SendText(req.To, req.Content)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to send message: " + err.Error()})
		return
	}

	h.storeOutbound(req.To, req.Content, "text", wamid)
	c.JSON(http.StatusOK, gin.H{"status": "Message sent"})
}

type SendTemplateRequest struct {
	To         string `json:"to" binding:"required"`
	TemplateID string `json:"template_id" binding:"required"`
}

// SendTemplate sends a stored template to a contact. The message row stores
// the tagged TEMPLATE: payload so the chat surface can re-render the bubble
// from the serialized template.
func (h *ChatHandler) SendTemplate(c *gin.Context) {
	var req SendTemplateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	tpl, err := loadTemplate(database.DB, req.TemplateID)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Template not found"})
		return
	}

	wamid, err := h.Client.SendTemplate(req.To, tpl)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to send template: " + err.Error()})
		return
	}

	payload, err := template.EncodeMessage(tpl)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	h.storeOutbound(req.To, payload, "template", wamid)
	c.JSON(http.StatusOK, gin.H{"status": "Template sent"})
}

type BroadcastRequest struct {
	TemplateID string   `json:"template_id" binding:"required"`
	Contacts   []string `json:"contacts" binding:"required"` // WA IDs
}

// SendBroadcast sends one template to many contacts.
func (h *ChatHandler) SendBroadcast(c *gin.Context) {
	var req BroadcastRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	tpl, err := loadTemplate(database.DB, req.TemplateID)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Template not found"})
		return
	}
	payload, err := template.EncodeMessage(tpl)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	sent := 0
	for _, waID := range req.Contacts {
		wamid, err := h.Client.SendTemplate(waID, tpl)
		if err != nil {
			log.Printf("Failed to broadcast to %s: %v", waID, err)
			continue
		}
		h.storeOutbound(waID, payload, "template", wamid)
		sent++
	}

	c.JSON(http.StatusOK, gin.H{
		"status":  "Broadcast processed",
		"sent_to": sent,
		"total":   len(req.Contacts),
	})
}

// storeOutbound persists a sent message, updates the contact's last-contact
// time and notifies connected consoles.
func (h *ChatHandler) storeOutbound(to, content, msgType, wamid string) {
	msg := models.Message{
		Wamid:   wamid,
		WaID:    to,
		Sender:  "console",
		Content: content,
		Type:    msgType,
		Status:  "sent",
	}
	var contact models.Contact
	if err := database.DB.First(&contact, "wa_id = ?", to).Error; err == nil {
		msg.ContactID = contact.ID
		now := time.Now().UTC()
		contact.LastContactedAt = &now
		database.DB.Save(&contact)
	}
	if err := database.DB.Create(&msg).Error; err != nil {
		log.Printf("Error storing outbound message: %v", err)
		return
	}
	if h.Hub != nil {
		h.Hub.NotifyMessage(msg)
	}
}

package webhook

import (
	"log"
	"net/http"

	"whatsapp-console/internal/config"
	"whatsapp-console/internal/database"
	"whatsapp-console/internal/models"
	"whatsapp-console/internal/ws"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// Payload is the incoming webhook JSON from WhatsApp, reduced to the fields
// the console ingests.
type Payload struct {
	Object string `json:"object"`
	Entry  []struct {
		ID      string `json:"id"`
		Changes []struct {
			Value struct {
				Messages []struct {
					From      string `json:"from"`
					ID        string `json:"id"`
					Timestamp string `json:"timestamp"`
					Type      string `json:"type"`
					Text      struct {
						Body string `json:"body"`
					} `json:"text,omitempty"`
					Image    *Media `json:"image,omitempty"`
					Video    *Media `json:"video,omitempty"`
					Audio    *Media `json:"audio,omitempty"`
					Document *Media `json:"document,omitempty"`
				} `json:"messages,omitempty"`
				Statuses []struct {
					ID          string `json:"id"`
					Status      string `json:"status"`
					RecipientID string `json:"recipient_id"`
				} `json:"statuses,omitempty"`
			} `json:"value"`
			Field string `json:"field"`
		} `json:"changes"`
	} `json:"entry"`
}

// Media is a media attachment reference in an inbound message.
type Media struct {
	ID       string `json:"id"`
	MimeType string `json:"mime_type"`
	Caption  string `json:"caption,omitempty"`
	Filename string `json:"filename,omitempty"`
}

type Handler struct {
	Config *config.Config
	Hub    *ws.Hub
}

func NewHandler(cfg *config.Config, hub *ws.Hub) *Handler {
	return &Handler{Config: cfg, Hub: hub}
}

// VerifyWebhook answers Meta's subscription challenge.
func (h *Handler) VerifyWebhook(c *gin.Context) {
	mode := c.Query("hub.mode")
	token := c.Query("hub.verify_token")
	challenge := c.Query("hub.challenge")

	if mode == "" || token == "" {
		c.Status(http.StatusBadRequest)
		return
	}
	if mode == "subscribe" && token == h.Config.VerifyToken {
		c.String(http.StatusOK, challenge)
		return
	}
	c.Status(http.StatusForbidden)
}

// HandleMessage ingests inbound messages: stores the message, auto-creates
// the contact and pushes the event to connected consoles.
func (h *Handler) HandleMessage(c *gin.Context) {
	var payload Payload
	if err := c.ShouldBindJSON(&payload); err != nil {
		log.Printf("Error binding webhook JSON: %v", err)
		c.Status(http.StatusBadRequest)
		return
	}

	if len(payload.Entry) == 0 || len(payload.Entry[0].Changes) == 0 {
		c.Status(http.StatusOK)
		return
	}
	value := payload.Entry[0].Changes[0].Value

	for _, inbound := range value.Messages {
		var content string
		switch inbound.Type {
		case "text":
			content = inbound.Text.Body
		case "image":
			if inbound.Image != nil {
				content = "[image]:" + inbound.Image.ID
				if inbound.Image.Caption != "" {
					content += ":" + inbound.Image.Caption
				}
			}
		case "video":
			if inbound.Video != nil {
				content = "[video]:" + inbound.Video.ID
				if inbound.Video.Caption != "" {
					content += ":" + inbound.Video.Caption
				}
			}
		case "audio":
			if inbound.Audio != nil {
				content = "[audio]:" + inbound.Audio.ID
			}
		case "document":
			if inbound.Document != nil {
				content = "[document]:" + inbound.Document.ID
				if inbound.Document.Filename != "" {
					content += ":" + inbound.Document.Filename
				}
			}
		default:
			content = "[" + inbound.Type + "]"
		}
		log.Printf("Received %s message from %s", inbound.Type, inbound.From)

		contact := h.ensureContact(inbound.From)

		msg := models.Message{
			WaID:      inbound.From,
			ContactID: contact.ID,
			Sender:    inbound.From,
			Content:   content,
			Type:      inbound.Type,
			Status:    "received",
			Inbound:   true,
		}
		if err := database.DB.Create(&msg).Error; err != nil {
			log.Printf("Error storing inbound message: %v", err)
			continue
		}
		if h.Hub != nil {
			h.Hub.NotifyMessage(msg)
		}
	}

	// Delivery receipts for messages we sent, matched on the wamid Meta
	// assigned at send time.
	for _, status := range value.Statuses {
		database.DB.Model(&models.Message{}).
			Where("wamid = ?", status.ID).
			Update("status", status.Status)
	}

	c.Status(http.StatusOK)
}

func (h *Handler) ensureContact(waID string) models.Contact {
	var contact models.Contact
	if err := database.DB.First(&contact, "wa_id = ?", waID).Error; err == nil {
		return contact
	}
	contact = models.Contact{
		ID:    uuid.New().String(),
		WaID:  waID,
		Name:  waID,
		OptIn: true,
	}
	if err := database.DB.Create(&contact).Error; err != nil {
		log.Printf("Error saving contact: %v", err)
	}
	return contact
}

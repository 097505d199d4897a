package api

import (
	"encoding/json"
	"log"
	"net/http"
	"time"

	"whatsapp-console/internal/config"
	"whatsapp-console/internal/database"
	"whatsapp-console/internal/models"
	"whatsapp-console/internal/template"
	"whatsapp-console/internal/whatsapp"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

type TemplateHandler struct {
	Client *whatsapp.Client
	Config *config.Config
}

func NewTemplateHandler(client *whatsapp.Client, cfg *config.Config) *TemplateHandler {
	return &TemplateHandler{Client: client, Config: cfg}
}

// templateResponse is a stored template with its components parsed back into
// the model shape.
type templateResponse struct {
	models.Template
	Parsed []template.TemplateComponent `json:"parsed_components"`
}

func toResponse(row models.Template) templateResponse {
	resp := templateResponse{Template: row}
	// Stored components that fail to parse are served as-is; the raw JSON
	// column is still in the response.
	if err := json.Unmarshal([]byte(row.Components), &resp.Parsed); err != nil {
		resp.Parsed = nil
	}
	return resp
}

// GetTemplates lists stored templates.
func (h *TemplateHandler) GetTemplates(c *gin.Context) {
	var rows []models.Template
	query := database.DB.Order("created_at DESC")
	if category := c.Query("category"); category != "" {
		query = query.Where("category = ?", category)
	}
	if err := query.Find(&rows).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	responses := make([]templateResponse, 0, len(rows))
	for _, row := range rows {
		responses = append(responses, toResponse(row))
	}
	c.JSON(http.StatusOK, responses)
}

// GetTemplate returns one stored template.
func (h *TemplateHandler) GetTemplate(c *gin.Context) {
	var row models.Template
	if err := database.DB.First(&row, "id = ?", c.Param("id")).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Template not found"})
		return
	}
	c.JSON(http.StatusOK, toResponse(row))
}

// CreateTemplate accepts a finalized builder template, validates it against
// the model rules, submits it to Meta for review when a business account is
// configured and stores it. ID and creation time are assigned here when the
// builder did not set them.
func (h *TemplateHandler) CreateTemplate(c *gin.Context) {
	var tpl template.MessageTemplate
	if err := c.ShouldBindJSON(&tpl); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if tpl.ID == "" {
		tpl.ID = uuid.New().String()
	}
	if tpl.CreatedAt.IsZero() {
		tpl.CreatedAt = time.Now().UTC()
	}
	if err := tpl.Validate(); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if h.Config.WhatsAppBusinessAccountID != "" {
		if err := h.Client.CreateTemplate(tpl); err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to submit template to Meta: " + err.Error()})
			return
		}
	}

	row, err := storedTemplate(tpl)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	if err := database.DB.Create(&row).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to store template"})
		return
	}

	c.JSON(http.StatusCreated, toResponse(row))
}

// UpdateTemplate replaces a stored template's definition.
func (h *TemplateHandler) UpdateTemplate(c *gin.Context) {
	id := c.Param("id")
	var existing models.Template
	if err := database.DB.First(&existing, "id = ?", id).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Template not found"})
		return
	}

	var tpl template.MessageTemplate
	if err := c.ShouldBindJSON(&tpl); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	tpl.ID = id
	if err := tpl.Validate(); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	row, err := storedTemplate(tpl)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	row.CreatedAt = existing.CreatedAt
	row.Status = existing.Status
	if err := database.DB.Save(&row).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update template"})
		return
	}

	c.JSON(http.StatusOK, toResponse(row))
}

// DeleteTemplate removes a stored template, and its Meta counterpart by name
// when a business account is configured.
func (h *TemplateHandler) DeleteTemplate(c *gin.Context) {
	var row models.Template
	if err := database.DB.First(&row, "id = ?", c.Param("id")).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Template not found"})
		return
	}
	if err := database.DB.Delete(&row).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to delete template"})
		return
	}

	if h.Config.WhatsAppBusinessAccountID != "" {
		// The local copy is already gone; a failed remote delete is logged,
		// not surfaced.
		if err := h.Client.DeleteTemplate(row.Name); err != nil {
			log.Printf("Error deleting template %s from Meta: %v", row.Name, err)
		}
	}

	c.JSON(http.StatusOK, gin.H{"status": "Template deleted"})
}

// PreviewRequest carries a (possibly partial) template plus the surface to
// render it for.
type PreviewRequest struct {
	Template template.MessageTemplate `json:"template"`
	Surface  string                   `json:"surface"` // builder | catalog | chat
}

// Preview renders a template's components into presentation blocks. Partial
// drafts are fine; the renderer tolerates missing sections.
func (h *TemplateHandler) Preview(c *gin.Context) {
	var req PreviewRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	var ctx template.Context
	switch req.Surface {
	case "catalog":
		ctx = template.CatalogContext()
	case "chat":
		ctx = template.ChatContext()
	default:
		ctx = template.BuilderContext()
	}

	blocks := template.Render(req.Template.Components, ctx)
	c.JSON(http.StatusOK, gin.H{"blocks": blocks})
}

// SyncTemplates pulls the account's templates from Meta and upserts them
// locally.
func (h *TemplateHandler) SyncTemplates(c *gin.Context) {
	if h.Config.WhatsAppBusinessAccountID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "WABA_ID not configured"})
		return
	}

	listings, err := h.Client.FetchTemplates()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch templates from Meta: " + err.Error()})
		return
	}

	synced := 0
	for _, listing := range listings {
		components := "[]"
		if len(listing.Components) > 0 {
			components = string(listing.Components)
		}
		row := models.Template{
			ID:         listing.ID,
			Name:       listing.Name,
			Language:   listing.Language,
			Category:   listing.Category,
			Status:     listing.Status,
			Components: components,
		}
		if err := database.DB.Save(&row).Error; err != nil {
			log.Printf("Error saving template %s: %v", listing.Name, err)
			continue
		}
		synced++
	}

	c.JSON(http.StatusOK, gin.H{"status": "Templates synced", "count": synced})
}

func storedTemplate(tpl template.MessageTemplate) (models.Template, error) {
	components, err := json.Marshal(tpl.Components)
	if err != nil {
		return models.Template{}, err
	}
	return models.Template{
		ID:         tpl.ID,
		Name:       tpl.Name,
		Language:   tpl.Language,
		Category:   string(tpl.Category),
		Components: string(components),
		CreatedAt:  tpl.CreatedAt,
	}, nil
}

// loadTemplate fetches a stored template and rebuilds the model value.
func loadTemplate(db *gorm.DB, id string) (template.MessageTemplate, error) {
	var row models.Template
	if err := db.First(&row, "id = ?", id).Error; err != nil {
		return template.MessageTemplate{}, err
	}

	tpl := template.MessageTemplate{
		ID:        row.ID,
		Name:      row.Name,
		Language:  row.Language,
		Category:  template.Category(row.Category),
		CreatedAt: row.CreatedAt,
	}
	if err := json.Unmarshal([]byte(row.Components), &tpl.Components); err != nil {
		return template.MessageTemplate{}, err
	}
	return tpl, nil
}

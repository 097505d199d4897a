package api

import (
	"encoding/csv"
	"net/http"
	"time"

	"whatsapp-console/internal/auth"
	"whatsapp-console/internal/database"
	"whatsapp-console/internal/models"
	"whatsapp-console/internal/ws"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

type ContactHandler struct {
	Hub *ws.Hub
}

func NewContactHandler(hub *ws.Hub) *ContactHandler {
	return &ContactHandler{Hub: hub}
}

// GetContacts lists contacts, newest first. Supports ?search= over name and
// wa_id, ?tag= over the tags column and ?assigned= to filter by assignee.
func (h *ContactHandler) GetContacts(c *gin.Context) {
	query := database.DB.Where("deleted = ?", false).Order("created_at DESC")

	if search := c.Query("search"); search != "" {
		like := "%" + search + "%"
		query = query.Where("name LIKE ? OR wa_id LIKE ?", like, like)
	}
	if tag := c.Query("tag"); tag != "" {
		query = query.Where("tags LIKE ?", "%"+tag+"%")
	}
	if assigned := c.Query("assigned"); assigned != "" {
		query = query.Where("assigned_user_id = ?", assigned)
	}

	var contacts []models.Contact
	if err := query.Find(&contacts).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	// Return empty array instead of null
	if contacts == nil {
		contacts = []models.Contact{}
	}
	c.JSON(http.StatusOK, contacts)
}

// GetContact returns one contact with its notes.
func (h *ContactHandler) GetContact(c *gin.Context) {
	var contact models.Contact
	if err := database.DB.First(&contact, "id = ? AND deleted = ?", c.Param("id"), false).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Contact not found"})
		return
	}

	var notes []models.Note
	database.DB.Where("contact_id = ?", contact.ID).Order("created_at DESC").Find(&notes)
	if notes == nil {
		notes = []models.Note{}
	}

	c.JSON(http.StatusOK, gin.H{"contact": contact, "notes": notes})
}

type CreateContactRequest struct {
	WaID  string `json:"wa_id" binding:"required"`
	Name  string `json:"name"`
	Phone string `json:"phone"`
	Email string `json:"email"`
	Tags  string `json:"tags"`
}

// CreateContact upserts by WhatsApp ID so re-adding a known number updates
// it instead of failing.
func (h *ContactHandler) CreateContact(c *gin.Context) {
	var req CreateContactRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	var contact models.Contact
	err := database.DB.First(&contact, "wa_id = ?", req.WaID).Error
	if err == nil {
		contact.Name = req.Name
		contact.Phone = req.Phone
		contact.Email = req.Email
		contact.Tags = req.Tags
		contact.Deleted = false
		if err := database.DB.Save(&contact).Error; err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update contact"})
			return
		}
		c.JSON(http.StatusOK, contact)
		return
	}

	contact = models.Contact{
		ID:    uuid.New().String(),
		WaID:  req.WaID,
		Name:  req.Name,
		Phone: req.Phone,
		Email: req.Email,
		Tags:  req.Tags,
		OptIn: true,
	}
	if err := database.DB.Create(&contact).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create contact"})
		return
	}
	c.JSON(http.StatusCreated, contact)
}

type UpdateContactRequest struct {
	Name   *string `json:"name"`
	Phone  *string `json:"phone"`
	Email  *string `json:"email"`
	Tags   *string `json:"tags"`
	Status *string `json:"status"`
	OptIn  *bool   `json:"opt_in"`
}

func (h *ContactHandler) UpdateContact(c *gin.Context) {
	var contact models.Contact
	if err := database.DB.First(&contact, "id = ? AND deleted = ?", c.Param("id"), false).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Contact not found"})
		return
	}

	var req UpdateContactRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if req.Name != nil {
		contact.Name = *req.Name
	}
	if req.Phone != nil {
		contact.Phone = *req.Phone
	}
	if req.Email != nil {
		contact.Email = *req.Email
	}
	if req.Tags != nil {
		contact.Tags = *req.Tags
	}
	if req.Status != nil {
		contact.Status = *req.Status
	}
	if req.OptIn != nil {
		contact.OptIn = *req.OptIn
	}

	if err := database.DB.Save(&contact).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update contact"})
		return
	}
	c.JSON(http.StatusOK, contact)
}

// DeleteContact soft-deletes so chat history keeps resolving.
func (h *ContactHandler) DeleteContact(c *gin.Context) {
	result := database.DB.Model(&models.Contact{}).
		Where("id = ? AND deleted = ?", c.Param("id"), false).
		Update("deleted", true)
	if result.Error != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to delete contact"})
		return
	}
	if result.RowsAffected == 0 {
		c.JSON(http.StatusNotFound, gin.H{"error": "Contact not found"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "Contact deleted"})
}

type AssignRequest struct {
	UserID string `json:"user_id"`
}

// AssignContact sets (or clears, with an empty user_id) the contact's
// assigned operator and notifies connected consoles.
func (h *ContactHandler) AssignContact(c *gin.Context) {
	var contact models.Contact
	if err := database.DB.First(&contact, "id = ? AND deleted = ?", c.Param("id"), false).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Contact not found"})
		return
	}

	var req AssignRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if req.UserID != "" {
		var user models.User
		if err := database.DB.First(&user, "id = ?", req.UserID).Error; err != nil {
			c.JSON(http.StatusNotFound, gin.H{"error": "User not found"})
			return
		}
	}

	contact.AssignedUserID = req.UserID
	if err := database.DB.Save(&contact).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to assign contact"})
		return
	}

	if h.Hub != nil {
		h.Hub.NotifyAssignment(contact)
	}
	c.JSON(http.StatusOK, contact)
}

type AddNoteRequest struct {
	Body string `json:"body" binding:"required"`
}

func (h *ContactHandler) AddNote(c *gin.Context) {
	var contact models.Contact
	if err := database.DB.First(&contact, "id = ? AND deleted = ?", c.Param("id"), false).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Contact not found"})
		return
	}

	var req AddNoteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	note := models.Note{ContactID: contact.ID, Body: req.Body}
	if claims, ok := c.Get("claims"); ok {
		if cl, ok := claims.(*auth.Claims); ok {
			note.AuthorID = cl.UserID
		}
	}
	if err := database.DB.Create(&note).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to add note"})
		return
	}
	c.JSON(http.StatusCreated, note)
}

// ExportContacts streams the contact list as CSV.
func (h *ContactHandler) ExportContacts(c *gin.Context) {
	var contacts []models.Contact
	if err := database.DB.Where("deleted = ?", false).Order("created_at DESC").Find(&contacts).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.Header("Content-Type", "text/csv")
	c.Header("Content-Disposition", "attachment; filename=contacts.csv")

	w := csv.NewWriter(c.Writer)
	w.Write([]string{"WhatsApp ID", "Name", "Phone", "Email", "Tags", "Assigned", "Created At"})
	for _, contact := range contacts {
		w.Write([]string{
			contact.WaID,
			contact.Name,
			contact.Phone,
			contact.Email,
			contact.Tags,
			contact.AssignedUserID,
			contact.CreatedAt.Format(time.RFC3339),
		})
	}
	w.Flush()
}

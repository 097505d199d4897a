package api

import (
	"net/http"
	"time"

	"whatsapp-console/internal/auth"
	"whatsapp-console/internal/database"
	"whatsapp-console/internal/models"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

type UserHandler struct {
	Auth *auth.Manager
}

func NewUserHandler(authManager *auth.Manager) *UserHandler {
	return &UserHandler{Auth: authManager}
}

// GetUsers lists operators contacts can be assigned to.
func (h *UserHandler) GetUsers(c *gin.Context) {
	var users []models.User
	if err := database.DB.Order("name ASC").Find(&users).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	if users == nil {
		users = []models.User{}
	}
	c.JSON(http.StatusOK, users)
}

type CreateUserRequest struct {
	Name  string `json:"name" binding:"required"`
	Email string `json:"email" binding:"required"`
	Role  string `json:"role"`
}

func (h *UserHandler) CreateUser(c *gin.Context) {
	var req CreateUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	role := req.Role
	if role == "" {
		role = "agent"
	}
	user := models.User{
		ID:    uuid.New().String(),
		Name:  req.Name,
		Email: req.Email,
		Role:  role,
	}
	if err := database.DB.Create(&user).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create user"})
		return
	}
	c.JSON(http.StatusCreated, user)
}

// GetRole returns the calling user's role from the token claims.
func (h *UserHandler) GetRole(c *gin.Context) {
	claims, ok := c.Get("claims")
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "No session"})
		return
	}
	cl, ok := claims.(*auth.Claims)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "No session"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"user_id": cl.UserID, "role": cl.Role})
}

type LoginRequest struct {
	Email string `json:"email" binding:"required"`
}

// Login issues a session token for a known operator. There is no password
// flow here; the console sits behind upstream identity and only needs "a
// token exists" semantics.
func (h *UserHandler) Login(c *gin.Context) {
	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	var user models.User
	if err := database.DB.First(&user, "email = ?", req.Email).Error; err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unknown user"})
		return
	}

	token, err := h.Auth.GenerateToken(user.ID, user.Email, user.Role)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to issue token"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"token":      token,
		"expires_at": time.Now().Add(h.Auth.TokenDuration()).UTC(),
		"user":       user,
	})
}

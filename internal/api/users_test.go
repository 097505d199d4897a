package api

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"whatsapp-console/internal/auth"
	"whatsapp-console/internal/models"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func userRouter(t *testing.T) (*gin.Engine, *auth.Manager) {
	t.Helper()
	m := auth.NewManager("test-secret", time.Hour)
	h := NewUserHandler(m)
	r := gin.New()
	r.POST("/login", h.Login)
	r.GET("/users", h.GetUsers)
	r.POST("/users", h.CreateUser)
	r.GET("/role", m.Middleware(), h.GetRole)
	return r, m
}

func TestLoginIssuesToken(t *testing.T) {
	db := setupDB(t)
	r, m := userRouter(t)
	require.NoError(t, db.Create(&models.User{ID: "u1", Name: "Agent", Email: "agent@example.com", Role: "admin"}).Error)

	w := doJSON(t, r, http.MethodPost, "/login", LoginRequest{Email: "agent@example.com"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var resp struct {
		Token string      `json:"token"`
		User  models.User `json:"user"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.NotEmpty(t, resp.Token)
	assert.Equal(t, "u1", resp.User.ID)

	claims, err := m.ValidateToken(resp.Token)
	require.NoError(t, err)
	assert.Equal(t, "u1", claims.UserID)
	assert.Equal(t, "admin", claims.Role)
}

func TestLoginUnknownUser(t *testing.T) {
	setupDB(t)
	r, _ := userRouter(t)
	w := doJSON(t, r, http.MethodPost, "/login", LoginRequest{Email: "nobody@example.com"})
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestCreateUserDefaultsRole(t *testing.T) {
	setupDB(t)
	r, _ := userRouter(t)

	w := doJSON(t, r, http.MethodPost, "/users", CreateUserRequest{Name: "New Agent", Email: "new@example.com"})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	var user models.User
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &user))
	assert.Equal(t, "agent", user.Role)
	assert.NotEmpty(t, user.ID)
}

func TestGetRoleFromClaims(t *testing.T) {
	db := setupDB(t)
	r, _ := userRouter(t)
	require.NoError(t, db.Create(&models.User{ID: "u1", Name: "Agent", Email: "agent@example.com", Role: "agent"}).Error)

	login := doJSON(t, r, http.MethodPost, "/login", LoginRequest{Email: "agent@example.com"})
	require.Equal(t, http.StatusOK, login.Code)
	var resp struct {
		Token string `json:"token"`
	}
	require.NoError(t, json.Unmarshal(login.Body.Bytes(), &resp))

	req := httptest.NewRequest(http.MethodGet, "/role", nil)
	req.Header.Set("Authorization", "Bearer "+resp.Token)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"role":"agent"`)
}

func TestGetRoleRejectsMalformedClaims(t *testing.T) {
	setupDB(t)
	h := NewUserHandler(auth.NewManager("test-secret", time.Hour))
	r := gin.New()
	r.GET("/role", func(c *gin.Context) { c.Set("claims", "not-claims") }, h.GetRole)

	req := httptest.NewRequest(http.MethodGet, "/role", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

package auth

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerateAndValidateToken(t *testing.T) {
	m := NewManager("test-secret", time.Hour)

	token, err := m.GenerateToken("u1", "agent@example.com", "admin")
	require.NoError(t, err)
	require.NotEmpty(t, token)

	claims, err := m.ValidateToken(token)
	require.NoError(t, err)
	assert.Equal(t, "u1", claims.UserID)
	assert.Equal(t, "agent@example.com", claims.Email)
	assert.Equal(t, "admin", claims.Role)
	assert.Equal(t, "whatsapp-console", claims.Issuer)
}

func TestValidateTokenRejects(t *testing.T) {
	m := NewManager("test-secret", time.Hour)

	t.Run("wrong secret", func(t *testing.T) {
		other := NewManager("other-secret", time.Hour)
		token, err := other.GenerateToken("u1", "agent@example.com", "agent")
		require.NoError(t, err)
		_, err = m.ValidateToken(token)
		assert.Error(t, err)
	})

	t.Run("expired", func(t *testing.T) {
		expired := NewManager("test-secret", -time.Minute)
		token, err := expired.GenerateToken("u1", "agent@example.com", "agent")
		require.NoError(t, err)
		_, err = m.ValidateToken(token)
		assert.Error(t, err)
	})

	t.Run("garbage", func(t *testing.T) {
		_, err := m.ValidateToken("not.a.token")
		assert.Error(t, err)
	})
}

func TestMiddleware(t *testing.T) {
	gin.SetMode(gin.TestMode)
	m := NewManager("test-secret", time.Hour)

	r := gin.New()
	r.GET("/protected", m.Middleware(), func(c *gin.Context) {
		claims := c.MustGet("claims").(*Claims)
		c.JSON(http.StatusOK, gin.H{"user_id": claims.UserID})
	})

	do := func(authHeader string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodGet, "/protected", nil)
		if authHeader != "" {
			req.Header.Set("Authorization", authHeader)
		}
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)
		return w
	}

	token, err := m.GenerateToken("u1", "agent@example.com", "agent")
	require.NoError(t, err)

	assert.Equal(t, http.StatusUnauthorized, do("").Code)
	assert.Equal(t, http.StatusUnauthorized, do(token).Code) // missing Bearer prefix
	assert.Equal(t, http.StatusUnauthorized, do("Bearer bogus").Code)

	w := do("Bearer " + token)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "u1")
}

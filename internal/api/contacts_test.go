package api

import (
	"encoding/json"
	"net/http"
	"strings"
	"testing"

	"whatsapp-console/internal/models"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func contactRouter(t *testing.T) *gin.Engine {
	t.Helper()
	h := NewContactHandler(nil)
	r := gin.New()
	r.GET("/contacts", h.GetContacts)
	r.GET("/contacts/export", h.ExportContacts)
	r.GET("/contacts/:id", h.GetContact)
	r.POST("/contacts", h.CreateContact)
	r.PATCH("/contacts/:id", h.UpdateContact)
	r.DELETE("/contacts/:id", h.DeleteContact)
	r.POST("/contacts/:id/assign", h.AssignContact)
	r.POST("/contacts/:id/notes", h.AddNote)
	return r
}

func TestCreateContactUpserts(t *testing.T) {
	setupDB(t)
	r := contactRouter(t)

	w := doJSON(t, r, http.MethodPost, "/contacts", CreateContactRequest{WaID: "15550001", Name: "John"})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	var created models.Contact
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &created))
	assert.NotEmpty(t, created.ID)
	assert.True(t, created.OptIn)

	// Same WA ID again updates in place instead of conflicting.
	w = doJSON(t, r, http.MethodPost, "/contacts", CreateContactRequest{WaID: "15550001", Name: "John Doe", Tags: "vip"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var updated models.Contact
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &updated))
	assert.Equal(t, created.ID, updated.ID)
	assert.Equal(t, "John Doe", updated.Name)
	assert.Equal(t, "vip", updated.Tags)
}

func TestGetContactsFilters(t *testing.T) {
	db := setupDB(t)
	r := contactRouter(t)

	seed := []models.Contact{
		{ID: "c1", WaID: "15550001", Name: "John", Tags: "vip,lead"},
		{ID: "c2", WaID: "15550002", Name: "Maria", AssignedUserID: "u1"},
		{ID: "c3", WaID: "15550003", Name: "Ghost", Deleted: true},
	}
	for i := range seed {
		require.NoError(t, db.Create(&seed[i]).Error)
	}

	names := func(w *gin.Engine, path string) []string {
		res := doJSON(t, w, http.MethodGet, path, nil)
		require.Equal(t, http.StatusOK, res.Code)
		var contacts []models.Contact
		require.NoError(t, json.Unmarshal(res.Body.Bytes(), &contacts))
		var out []string
		for _, c := range contacts {
			out = append(out, c.Name)
		}
		return out
	}

	assert.ElementsMatch(t, []string{"John", "Maria"}, names(r, "/contacts"))
	assert.Equal(t, []string{"John"}, names(r, "/contacts?search=john"))
	assert.Equal(t, []string{"John"}, names(r, "/contacts?tag=vip"))
	assert.Equal(t, []string{"Maria"}, names(r, "/contacts?assigned=u1"))
}

func TestUpdateContactPartial(t *testing.T) {
	db := setupDB(t)
	r := contactRouter(t)
	require.NoError(t, db.Create(&models.Contact{ID: "c1", WaID: "15550001", Name: "John", Phone: "+1 555 0001"}).Error)

	status := "qualified"
	w := doJSON(t, r, http.MethodPatch, "/contacts/c1", UpdateContactRequest{Status: &status})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var updated models.Contact
	require.NoError(t, db.First(&updated, "id = ?", "c1").Error)
	assert.Equal(t, "qualified", updated.Status)
	// Untouched fields survive a partial update.
	assert.Equal(t, "John", updated.Name)
	assert.Equal(t, "+1 555 0001", updated.Phone)
}

func TestDeleteContactIsSoft(t *testing.T) {
	db := setupDB(t)
	r := contactRouter(t)
	require.NoError(t, db.Create(&models.Contact{ID: "c1", WaID: "15550001", Name: "John"}).Error)

	w := doJSON(t, r, http.MethodDelete, "/contacts/c1", nil)
	require.Equal(t, http.StatusOK, w.Code)

	// Gone from the API but still in the table for chat history.
	w = doJSON(t, r, http.MethodGet, "/contacts/c1", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	var row models.Contact
	require.NoError(t, db.First(&row, "id = ?", "c1").Error)
	assert.True(t, row.Deleted)

	w = doJSON(t, r, http.MethodDelete, "/contacts/c1", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestAssignContact(t *testing.T) {
	db := setupDB(t)
	r := contactRouter(t)
	require.NoError(t, db.Create(&models.Contact{ID: "c1", WaID: "15550001"}).Error)
	require.NoError(t, db.Create(&models.User{ID: "u1", Name: "Agent", Email: "agent@example.com"}).Error)

	w := doJSON(t, r, http.MethodPost, "/contacts/c1/assign", AssignRequest{UserID: "u1"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var contact models.Contact
	require.NoError(t, db.First(&contact, "id = ?", "c1").Error)
	assert.Equal(t, "u1", contact.AssignedUserID)

	// Unknown user is rejected.
	w = doJSON(t, r, http.MethodPost, "/contacts/c1/assign", AssignRequest{UserID: "nobody"})
	assert.Equal(t, http.StatusNotFound, w.Code)

	// Empty user id clears the assignment.
	w = doJSON(t, r, http.MethodPost, "/contacts/c1/assign", AssignRequest{})
	require.Equal(t, http.StatusOK, w.Code)
	require.NoError(t, db.First(&contact, "id = ?", "c1").Error)
	assert.Empty(t, contact.AssignedUserID)
}

func TestAddNote(t *testing.T) {
	db := setupDB(t)
	r := contactRouter(t)
	require.NoError(t, db.Create(&models.Contact{ID: "c1", WaID: "15550001"}).Error)

	w := doJSON(t, r, http.MethodPost, "/contacts/c1/notes", AddNoteRequest{Body: "asked about pricing"})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	res := doJSON(t, r, http.MethodGet, "/contacts/c1", nil)
	require.Equal(t, http.StatusOK, res.Code)
	var detail struct {
		Notes []models.Note `json:"notes"`
	}
	require.NoError(t, json.Unmarshal(res.Body.Bytes(), &detail))
	require.Len(t, detail.Notes, 1)
	assert.Equal(t, "asked about pricing", detail.Notes[0].Body)
}

func TestExportContacts(t *testing.T) {
	db := setupDB(t)
	r := contactRouter(t)
	require.NoError(t, db.Create(&models.Contact{ID: "c1", WaID: "15550001", Name: "John", Tags: "vip"}).Error)

	w := doJSON(t, r, http.MethodGet, "/contacts/export", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "text/csv", w.Header().Get("Content-Type"))

	lines := strings.Split(strings.TrimSpace(w.Body.String()), "\n")
	require.Len(t, lines, 2)
	assert.Contains(t, lines[0], "WhatsApp ID")
	assert.Contains(t, lines[1], "15550001")
	assert.Contains(t, lines[1], "vip")
}

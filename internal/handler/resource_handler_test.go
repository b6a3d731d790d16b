package handler

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"testing"

	"github.com/devtrack/internal/db"
	"github.com/gin-gonic/gin"
)

func TestGetResourceNotesPreview(t *testing.T) {
	api, user, cleanup := setupTestAPI(t)
	defer cleanup()

	resource := db.Resource{
		OwnerID: user.ID,
		Title:   "Go 并发模式",
		Type:    "article",
		Notes:   "# 笔记\n\n<script>alert('x')</script>**重点**内容",
	}
	if err := db.DB.Create(&resource).Error; err != nil {
		t.Fatalf("failed to seed resource: %v", err)
	}

	w := httptest.NewRecorder()
	c := authedContext(t, w, user, http.MethodGet, "/api/v1/resources/1/notes/preview", nil)
	c.Params = gin.Params{{Key: "id", Value: strconv.Itoa(int(resource.ID))}}

	api.GetResourceNotesPreview(c)

	if w.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d: %s", w.Code, w.Body.String())
	}

	env := decodeEnvelope(t, w)
	var preview struct {
		ID   uint   `json:"id"`
		HTML string `json:"html"`
	}
	if err := json.Unmarshal(env.Data, &preview); err != nil {
		t.Fatalf("failed to decode data: %v", err)
	}

	if !strings.Contains(preview.HTML, "<h1") {
		t.Fatalf("expected rendered heading, got %s", preview.HTML)
	}
	if !strings.Contains(preview.HTML, "<strong>") {
		t.Fatalf("expected rendered emphasis, got %s", preview.HTML)
	}
	// 脚本标签被消毒
	if strings.Contains(preview.HTML, "<script>") {
		t.Fatalf("expected sanitized html, got %s", preview.HTML)
	}
}

func TestCreateResourceRejectsForeignSkill(t *testing.T) {
	api, user, cleanup := setupTestAPI(t)
	defer cleanup()

	other := db.User{Subject: "auth0|other", Role: "user"}
	if err := db.DB.Create(&other).Error; err != nil {
		t.Fatalf("failed to seed user: %v", err)
	}
	foreign := db.Skill{OwnerID: other.ID, Name: "Go", Category: "language", Status: "learning"}
	if err := db.DB.Create(&foreign).Error; err != nil {
		t.Fatalf("failed to seed skill: %v", err)
	}

	w := httptest.NewRecorder()
	c := authedContext(t, w, user, http.MethodPost, "/api/v1/resources", map[string]interface{}{
		"title":   "偷看别人的",
		"skillId": foreign.ID,
	})

	api.CreateResource(c)

	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected status 400, got %d", w.Code)
	}
	if env := decodeEnvelope(t, w); env.Code != CodeValidation {
		t.Fatalf("expected code %s, got %s", CodeValidation, env.Code)
	}
}

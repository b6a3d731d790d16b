package handler

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestStartTimeEntryConflict(t *testing.T) {
	api, user, cleanup := setupTestAPI(t)
	defer cleanup()

	w := httptest.NewRecorder()
	c := authedContext(t, w, user, http.MethodPost, "/api/v1/time-entries/start", nil)
	api.StartTimeEntry(c)

	if w.Code != http.StatusCreated {
		t.Fatalf("expected status 201, got %d: %s", w.Code, w.Body.String())
	}

	// 第二次开始计时应返回 409 CONFLICT
	w = httptest.NewRecorder()
	c = authedContext(t, w, user, http.MethodPost, "/api/v1/time-entries/start", nil)
	api.StartTimeEntry(c)

	if w.Code != http.StatusConflict {
		t.Fatalf("expected status 409, got %d", w.Code)
	}
	if env := decodeEnvelope(t, w); env.Code != CodeConflict {
		t.Fatalf("expected code %s, got %s", CodeConflict, env.Code)
	}
}

func TestStopTimeEntry(t *testing.T) {
	api, user, cleanup := setupTestAPI(t)
	defer cleanup()

	// 没有进行中的计时时返回 404
	w := httptest.NewRecorder()
	c := authedContext(t, w, user, http.MethodPost, "/api/v1/time-entries/stop", nil)
	api.StopTimeEntry(c)

	if w.Code != http.StatusNotFound {
		t.Fatalf("expected status 404, got %d", w.Code)
	}

	w = httptest.NewRecorder()
	c = authedContext(t, w, user, http.MethodPost, "/api/v1/time-entries/start", nil)
	api.StartTimeEntry(c)
	if w.Code != http.StatusCreated {
		t.Fatalf("expected status 201, got %d", w.Code)
	}

	w = httptest.NewRecorder()
	c = authedContext(t, w, user, http.MethodPost, "/api/v1/time-entries/stop", nil)
	api.StopTimeEntry(c)

	if w.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d: %s", w.Code, w.Body.String())
	}

	env := decodeEnvelope(t, w)
	var stopped struct {
		Running         bool   `json:"running"`
		EndedAt         string `json:"endedAt"`
		DurationSeconds int    `json:"durationSeconds"`
	}
	if err := json.Unmarshal(env.Data, &stopped); err != nil {
		t.Fatalf("failed to decode data: %v", err)
	}
	if stopped.Running || stopped.EndedAt == "" {
		t.Fatalf("unexpected stopped entry: %+v", stopped)
	}
}

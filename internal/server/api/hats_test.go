package api

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"github.com/mrngovancuong-cyber/AI-birthday-hat/internal/store"
)

func newTestHandler(t *testing.T) *HatHandler {
	t.Helper()
	s, err := store.New(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("store.New() error = %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return NewHatHandler(s)
}

func doJSON(t *testing.T, h http.Handler, method, path string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("encode body: %v", err)
		}
	}

	req := httptest.NewRequest(method, path, &buf)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func createHat(t *testing.T, h *HatHandler, name string) hatResponse {
	t.Helper()

	rec := doJSON(t, h, http.MethodPost, "/api/hats", hatRequest{
		Name:        name,
		ImageURL:    "https://example.com/" + name + ".png",
		WidthFactor: 1.5,
		TiltDeg:     -15,
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("create status = %d, want %d (body %s)", rec.Code, http.StatusCreated, rec.Body)
	}

	var resp hatResponse
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("decode create response: %v", err)
	}
	return resp
}

func TestHatHandler_Create(t *testing.T) {
	h := newTestHandler(t)

	hat := createHat(t, h, "party-hat")

	if hat.ID == "" {
		t.Error("created hat has no ID")
	}
	if hat.Name != "party-hat" {
		t.Errorf("Name = %q, want party-hat", hat.Name)
	}
	if hat.WidthFactor != 1.5 {
		t.Errorf("WidthFactor = %v, want 1.5", hat.WidthFactor)
	}
}

func TestHatHandler_Create_Validation(t *testing.T) {
	h := newTestHandler(t)

	tests := []struct {
		name string
		req  hatRequest
	}{
		{
			name: "missing name",
			req:  hatRequest{ImageURL: "https://example.com/hat.png"},
		},
		{
			name: "missing image url",
			req:  hatRequest{Name: "hat"},
		},
		{
			name: "width factor not greater than 1",
			req:  hatRequest{Name: "hat", ImageURL: "https://example.com/hat.png", WidthFactor: 0.8},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := doJSON(t, h, http.MethodPost, "/api/hats", tt.req)
			if rec.Code != http.StatusBadRequest {
				t.Errorf("status = %d, want %d", rec.Code, http.StatusBadRequest)
			}
		})
	}
}

func TestHatHandler_Create_DefaultWidthFactor(t *testing.T) {
	h := newTestHandler(t)

	rec := doJSON(t, h, http.MethodPost, "/api/hats", hatRequest{
		Name:     "plain",
		ImageURL: "https://example.com/plain.png",
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusCreated)
	}

	var resp hatResponse
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp.WidthFactor <= 1 {
		t.Errorf("WidthFactor = %v, want defaulted > 1", resp.WidthFactor)
	}
}

func TestHatHandler_GetListDelete(t *testing.T) {
	h := newTestHandler(t)

	created := createHat(t, h, "crown")
	createHat(t, h, "sombrero")

	rec := doJSON(t, h, http.MethodGet, "/api/hats/"+created.ID, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("get status = %d, want %d", rec.Code, http.StatusOK)
	}

	rec = doJSON(t, h, http.MethodGet, "/api/hats", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("list status = %d, want %d", rec.Code, http.StatusOK)
	}
	var list listHatsResponse
	if err := json.NewDecoder(rec.Body).Decode(&list); err != nil {
		t.Fatalf("decode list: %v", err)
	}
	if len(list.Hats) != 2 {
		t.Errorf("list length = %d, want 2", len(list.Hats))
	}

	rec = doJSON(t, h, http.MethodDelete, "/api/hats/"+created.ID, nil)
	if rec.Code != http.StatusNoContent {
		t.Errorf("delete status = %d, want %d", rec.Code, http.StatusNoContent)
	}

	rec = doJSON(t, h, http.MethodGet, "/api/hats/"+created.ID, nil)
	if rec.Code != http.StatusNotFound {
		t.Errorf("get after delete status = %d, want %d", rec.Code, http.StatusNotFound)
	}
}

func TestHatHandler_Update(t *testing.T) {
	h := newTestHandler(t)
	created := createHat(t, h, "wizard")

	rec := doJSON(t, h, http.MethodPut, "/api/hats/"+created.ID, map[string]interface{}{
		"name":     "wizard-deluxe",
		"tilt_deg": -25,
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("update status = %d, want %d", rec.Code, http.StatusOK)
	}

	var resp hatResponse
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp.Name != "wizard-deluxe" {
		t.Errorf("Name = %q, want wizard-deluxe", resp.Name)
	}
	if resp.TiltDeg != -25 {
		t.Errorf("TiltDeg = %v, want -25", resp.TiltDeg)
	}
	// Fields omitted from the request are untouched
	if resp.ImageURL != created.ImageURL {
		t.Errorf("ImageURL = %q, want %q", resp.ImageURL, created.ImageURL)
	}
}

func TestHatHandler_Update_ExplicitZeroTilt(t *testing.T) {
	h := newTestHandler(t)
	created := createHat(t, h, "fez")

	// An explicit 0 is a real value, not an absent field
	rec := doJSON(t, h, http.MethodPut, "/api/hats/"+created.ID, map[string]interface{}{
		"tilt_deg": 0,
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("update status = %d, want %d", rec.Code, http.StatusOK)
	}

	var resp hatResponse
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp.TiltDeg != 0 {
		t.Errorf("TiltDeg = %v, want 0", resp.TiltDeg)
	}
	if resp.Name != created.Name || resp.WidthFactor != created.WidthFactor {
		t.Errorf("untouched fields changed: %+v", resp)
	}
}

func TestHatHandler_Update_Validation(t *testing.T) {
	h := newTestHandler(t)
	created := createHat(t, h, "beret")

	tests := []struct {
		name string
		body map[string]interface{}
	}{
		{name: "empty name", body: map[string]interface{}{"name": ""}},
		{name: "empty image url", body: map[string]interface{}{"image_url": ""}},
		{name: "width factor not greater than 1", body: map[string]interface{}{"width_factor": 0.5}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := doJSON(t, h, http.MethodPut, "/api/hats/"+created.ID, tt.body)
			if rec.Code != http.StatusBadRequest {
				t.Errorf("status = %d, want %d", rec.Code, http.StatusBadRequest)
			}
		})
	}
}

func TestHatHandler_NotFound(t *testing.T) {
	h := newTestHandler(t)

	rec := doJSON(t, h, http.MethodGet, "/api/hats/no-such-id", nil)
	if rec.Code != http.StatusNotFound {
		t.Errorf("status = %d, want %d", rec.Code, http.StatusNotFound)
	}
}

func TestHatHandler_MethodNotAllowed(t *testing.T) {
	h := newTestHandler(t)

	rec := doJSON(t, h, http.MethodPatch, "/api/hats", nil)
	if rec.Code != http.StatusMethodNotAllowed {
		t.Errorf("status = %d, want %d", rec.Code, http.StatusMethodNotAllowed)
	}
}

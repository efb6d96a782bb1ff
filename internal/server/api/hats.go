// Package api provides HTTP API handlers for the hat overlay application.
package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/google/uuid"

	"github.com/mrngovancuong-cyber/AI-birthday-hat/internal/overlay"
	"github.com/mrngovancuong-cyber/AI-birthday-hat/internal/store"
)

// HatHandler handles HTTP requests for hat catalog resources.
type HatHandler struct {
	store *store.Store
}

// NewHatHandler creates a new HatHandler with the given store.
func NewHatHandler(s *store.Store) *HatHandler {
	return &HatHandler{store: s}
}

// ServeHTTP implements the http.Handler interface and routes requests to
// appropriate methods.
func (h *HatHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	// Expected paths: /api/hats or /api/hats/{id}
	path := strings.TrimPrefix(r.URL.Path, "/api/hats")
	path = strings.TrimPrefix(path, "/")

	if path == "" {
		// Collection endpoint: /api/hats
		switch r.Method {
		case http.MethodGet:
			h.list(w, r)
		case http.MethodPost:
			h.create(w, r)
		default:
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		}
		return
	}

	// Item endpoint: /api/hats/{id}
	id := path
	switch r.Method {
	case http.MethodGet:
		h.get(w, r, id)
	case http.MethodPut:
		h.update(w, r, id)
	case http.MethodDelete:
		h.delete(w, r, id)
	default:
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
	}
}

// Request and response types

type hatRequest struct {
	Name        string  `json:"name"`
	ImageURL    string  `json:"image_url"`
	WidthFactor float64 `json:"width_factor"`
	TiltDeg     float64 `json:"tilt_deg"`
}

// hatUpdateRequest uses pointers so an absent field and an explicit zero
// can be told apart; a tilt of 0 is a valid setting.
type hatUpdateRequest struct {
	Name        *string  `json:"name"`
	ImageURL    *string  `json:"image_url"`
	WidthFactor *float64 `json:"width_factor"`
	TiltDeg     *float64 `json:"tilt_deg"`
}

type hatResponse struct {
	ID          string  `json:"id"`
	Name        string  `json:"name"`
	ImageURL    string  `json:"image_url"`
	WidthFactor float64 `json:"width_factor"`
	TiltDeg     float64 `json:"tilt_deg"`
	CreatedAt   string  `json:"created_at"`
	UpdatedAt   string  `json:"updated_at"`
}

type listHatsResponse struct {
	Hats []hatResponse `json:"hats"`
}

type errorResponse struct {
	Error string `json:"error"`
}

// toResponse converts a store.Hat to a hatResponse.
func toResponse(h *store.Hat) hatResponse {
	return hatResponse{
		ID:          h.ID,
		Name:        h.Name,
		ImageURL:    h.ImageURL,
		WidthFactor: h.WidthFactor,
		TiltDeg:     h.TiltDeg,
		CreatedAt:   h.CreatedAt.Format("2006-01-02T15:04:05Z07:00"),
		UpdatedAt:   h.UpdatedAt.Format("2006-01-02T15:04:05Z07:00"),
	}
}

// writeJSON writes a JSON response with the given status code.
func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if data != nil {
		json.NewEncoder(w).Encode(data)
	}
}

// writeError writes a JSON error response.
func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, errorResponse{Error: message})
}

// list handles GET /api/hats and returns the whole catalog.
func (h *HatHandler) list(w http.ResponseWriter, r *http.Request) {
	hats, err := h.store.Hats().List()
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to list hats")
		return
	}

	response := listHatsResponse{Hats: make([]hatResponse, 0, len(hats))}
	for _, hat := range hats {
		response.Hats = append(response.Hats, toResponse(hat))
	}

	writeJSON(w, http.StatusOK, response)
}

// create handles POST /api/hats.
func (h *HatHandler) create(w http.ResponseWriter, r *http.Request) {
	var req hatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if req.Name == "" || req.ImageURL == "" {
		writeError(w, http.StatusBadRequest, "name and image_url are required")
		return
	}
	if req.WidthFactor == 0 {
		req.WidthFactor = overlay.DefaultWidthFactor
	}
	if req.WidthFactor <= 1 {
		writeError(w, http.StatusBadRequest, "width_factor must be greater than 1")
		return
	}

	hat := &store.Hat{
		ID:          uuid.NewString(),
		Name:        req.Name,
		ImageURL:    req.ImageURL,
		WidthFactor: req.WidthFactor,
		TiltDeg:     req.TiltDeg,
	}

	if err := h.store.Hats().Create(hat); err != nil {
		writeError(w, http.StatusInternalServerError, "failed to create hat")
		return
	}

	writeJSON(w, http.StatusCreated, toResponse(hat))
}

// get handles GET /api/hats/{id}.
func (h *HatHandler) get(w http.ResponseWriter, r *http.Request, id string) {
	hat, err := h.store.Hats().GetByID(id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusNotFound, "hat not found")
			return
		}
		writeError(w, http.StatusInternalServerError, "failed to get hat")
		return
	}

	writeJSON(w, http.StatusOK, toResponse(hat))
}

// update handles PUT /api/hats/{id}. Fields absent from the request are
// left untouched.
func (h *HatHandler) update(w http.ResponseWriter, r *http.Request, id string) {
	var req hatUpdateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	hat, err := h.store.Hats().GetByID(id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusNotFound, "hat not found")
			return
		}
		writeError(w, http.StatusInternalServerError, "failed to get hat")
		return
	}

	if req.Name != nil {
		if *req.Name == "" {
			writeError(w, http.StatusBadRequest, "name must not be empty")
			return
		}
		hat.Name = *req.Name
	}
	if req.ImageURL != nil {
		if *req.ImageURL == "" {
			writeError(w, http.StatusBadRequest, "image_url must not be empty")
			return
		}
		hat.ImageURL = *req.ImageURL
	}
	if req.WidthFactor != nil {
		if *req.WidthFactor <= 1 {
			writeError(w, http.StatusBadRequest, "width_factor must be greater than 1")
			return
		}
		hat.WidthFactor = *req.WidthFactor
	}
	if req.TiltDeg != nil {
		hat.TiltDeg = *req.TiltDeg
	}

	if err := h.store.Hats().Update(hat); err != nil {
		writeError(w, http.StatusInternalServerError, "failed to update hat")
		return
	}

	writeJSON(w, http.StatusOK, toResponse(hat))
}

// delete handles DELETE /api/hats/{id}.
func (h *HatHandler) delete(w http.ResponseWriter, r *http.Request, id string) {
	if err := h.store.Hats().Delete(id); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusNotFound, "hat not found")
			return
		}
		writeError(w, http.StatusInternalServerError, "failed to delete hat")
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

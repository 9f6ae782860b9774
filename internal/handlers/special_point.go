package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/trailtrace/apiserver/internal/services"
	"github.com/trailtrace/apiserver/internal/store"
	"github.com/trailtrace/apiserver/types"
)

// SpecialPointHandler provides HTTP handlers for trail waypoints.
type SpecialPointHandler struct {
	pointService *services.SpecialPointService
}

func NewSpecialPointHandler(pointService *services.SpecialPointService) *SpecialPointHandler {
	return &SpecialPointHandler{pointService: pointService}
}

// SpecialPointRouter registers waypoint routes. None of these endpoints
// require authentication, matching the mobile API contract.
func SpecialPointRouter(r chi.Router, handler *SpecialPointHandler) {
	r.Get("/", handler.ListPoints)
	r.Post("/", handler.CreatePoint)
	r.Get("/trail/{trailID}", handler.ListPointsByTrail)
	r.Route("/{pointID}", func(r chi.Router) {
		r.Get("/", handler.GetPoint)
		r.Put("/", handler.UpdatePoint)
		r.Delete("/", handler.DeletePoint)
	})
}

func (h *SpecialPointHandler) ListPoints(w http.ResponseWriter, r *http.Request) {
	points, err := h.pointService.List(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Error fetching special points")
		return
	}
	writeJSON(w, http.StatusOK, points)
}

func (h *SpecialPointHandler) ListPointsByTrail(w http.ResponseWriter, r *http.Request) {
	trailID, err := strconv.Atoi(chi.URLParam(r, "trailID"))
	if err != nil || trailID < 1 {
		writeError(w, http.StatusBadRequest, "invalid trail id")
		return
	}

	points, err := h.pointService.ListByTrail(r.Context(), trailID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Error fetching special points")
		return
	}
	writeJSON(w, http.StatusOK, points)
}

func (h *SpecialPointHandler) GetPoint(w http.ResponseWriter, r *http.Request) {
	id, err := parsePointID(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	point, err := h.pointService.Get(r.Context(), id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusNotFound, "Special point not found")
			return
		}
		writeError(w, http.StatusInternalServerError, "Error fetching special point")
		return
	}
	writeJSON(w, http.StatusOK, point)
}

type SpecialPointCreateRequest struct {
	TrailID int     `json:"trail_id"`
	Name    string  `json:"name"`
	Lat     float64 `json:"lat"`
	Lng     float64 `json:"lng"`
}

// CreatedPointResponse is the creation acknowledgement payload.
type CreatedPointResponse struct {
	Message string `json:"message"`
	PointID int    `json:"pointId"`
}

func (h *SpecialPointHandler) CreatePoint(w http.ResponseWriter, r *http.Request) {
	var req SpecialPointCreateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request")
		return
	}

	if req.TrailID < 1 || strings.TrimSpace(req.Name) == "" {
		writeError(w, http.StatusBadRequest, "trail_id and name are required")
		return
	}

	point, err := h.pointService.Create(r.Context(), types.SpecialPoint{
		TrailID: req.TrailID,
		Name:    strings.TrimSpace(req.Name),
		Lat:     req.Lat,
		Lng:     req.Lng,
	})
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Error creating special point")
		return
	}

	writeJSON(w, http.StatusCreated, CreatedPointResponse{
		Message: "Special point created successfully",
		PointID: point.ID,
	})
}

type SpecialPointUpdateRequest struct {
	Name string  `json:"name"`
	Lat  float64 `json:"lat"`
	Lng  float64 `json:"lng"`
}

func (h *SpecialPointHandler) UpdatePoint(w http.ResponseWriter, r *http.Request) {
	id, err := parsePointID(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	var req SpecialPointUpdateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request")
		return
	}

	_, err = h.pointService.Update(r.Context(), types.SpecialPoint{
		ID:   id,
		Name: req.Name,
		Lat:  req.Lat,
		Lng:  req.Lng,
	})
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusNotFound, "Special point not found")
			return
		}
		writeError(w, http.StatusInternalServerError, "Error updating special point")
		return
	}

	writeJSON(w, http.StatusOK, MessageResponse{Message: "Special point updated successfully"})
}

func (h *SpecialPointHandler) DeletePoint(w http.ResponseWriter, r *http.Request) {
	id, err := parsePointID(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	if err := h.pointService.Delete(r.Context(), id); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusNotFound, "Special point not found")
			return
		}
		writeError(w, http.StatusInternalServerError, "Error deleting special point")
		return
	}

	writeJSON(w, http.StatusOK, MessageResponse{Message: "Special point deleted successfully"})
}

func parsePointID(r *http.Request) (int, error) {
	raw := chi.URLParam(r, "pointID")
	id, err := strconv.Atoi(raw)
	if err != nil || id < 1 {
		return 0, errors.New("invalid special point id")
	}
	return id, nil
}

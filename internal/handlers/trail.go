package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/trailtrace/apiserver/internal/media"
	"github.com/trailtrace/apiserver/internal/services"
	"github.com/trailtrace/apiserver/internal/store"
	"github.com/trailtrace/apiserver/types"
)

// TrailHandler provides HTTP handlers for trails.
type TrailHandler struct {
	trailService *services.TrailService
	media        *media.Store
}

// NewTrailHandler constructs a handler with the provided dependencies.
func NewTrailHandler(trailService *services.TrailService, mediaStore *media.Store) *TrailHandler {
	return &TrailHandler{
		trailService: trailService,
		media:        mediaStore,
	}
}

// TrailRouter registers trail routes on the given router. Update and delete
// intentionally carry no auth, matching the mobile API contract.
func TrailRouter(r chi.Router, handler *TrailHandler, authMiddleware func(http.Handler) http.Handler) {
	r.Get("/", handler.ListTrails)
	r.With(authMiddleware).Post("/", handler.CreateTrail)
	r.With(authMiddleware).Get("/user", handler.ListMyTrails)
	r.Route("/{trailID}", func(r chi.Router) {
		r.Get("/", handler.GetTrail)
		r.Put("/", handler.UpdateTrail)
		r.Delete("/", handler.DeleteTrail)
	})
}

func (h *TrailHandler) ListTrails(w http.ResponseWriter, r *http.Request) {
	trails, err := h.trailService.List(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to fetch trails")
		return
	}
	writeJSON(w, http.StatusOK, trails)
}

func (h *TrailHandler) ListMyTrails(w http.ResponseWriter, r *http.Request) {
	identity, err := identityFromContext(r.Context())
	if err != nil {
		writeError(w, http.StatusUnauthorized, "Invalid token")
		return
	}

	trails, err := h.trailService.ListByUser(r.Context(), identity.UserID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to fetch trails")
		return
	}
	writeJSON(w, http.StatusOK, trails)
}

func (h *TrailHandler) GetTrail(w http.ResponseWriter, r *http.Request) {
	id, err := parseTrailID(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	trail, err := h.trailService.Get(r.Context(), id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusNotFound, "Trail not found")
			return
		}
		writeError(w, http.StatusInternalServerError, "Error fetching trail")
		return
	}
	writeJSON(w, http.StatusOK, trail)
}

// CreatedTrailResponse echoes the created trail and the waypoints the client
// supplied, whether or not their insert succeeded.
type CreatedTrailResponse struct {
	types.Trail
	SpecialPoints []types.SpecialPoint `json:"special_points"`
}

// CreateTrail persists a trail owned by the authenticated caller, storing
// optional photo/video media and bulk-inserting any nested special points.
func (h *TrailHandler) CreateTrail(w http.ResponseWriter, r *http.Request) {
	identity, err := identityFromContext(r.Context())
	if err != nil {
		writeError(w, http.StatusUnauthorized, "Invalid token")
		return
	}

	req, err := parseTrailForm(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	trail := req.Trail
	trail.UserID = identity.UserID

	photoHeader, err := formFile(r.MultipartForm, formFieldPhoto)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if photoHeader != nil {
		photoURL, err := saveUpload(r, h.media, photoHeader, formFieldPhoto, trailPhotoRule)
		if err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		trail.PhotoURL = &photoURL
	}

	videoHeader, err := formFile(r.MultipartForm, formFieldVideo)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if videoHeader != nil {
		videoURL, err := saveUpload(r, h.media, videoHeader, formFieldVideo, trailVideoRule)
		if err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		trail.VideoURL = &videoURL
	}

	created, err := h.trailService.Create(r.Context(), trail, req.SpecialPoints)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to create trail")
		return
	}

	writeData(w, http.StatusCreated, CreatedTrailResponse{
		Trail:         created,
		SpecialPoints: req.SpecialPoints,
	})
}

// TrailUpdateRequest is the full mutable field set for a trail overwrite.
type TrailUpdateRequest struct {
	Name             string  `json:"name"`
	Category         string  `json:"category"`
	ShortDescription string  `json:"short_description"`
	StartLat         float64 `json:"start_lat"`
	StartLng         float64 `json:"start_lng"`
	EndLat           float64 `json:"end_lat"`
	EndLng           float64 `json:"end_lng"`
	PhotoURL         *string `json:"photo_url"`
	VideoURL         *string `json:"video_url"`
	TrailDate        string  `json:"trail_date"`
	TrailTime        string  `json:"trail_time"`
}

// UpdateTrail overwrites every mutable field of the trail. No ownership
// check is performed, matching the mobile API contract.
func (h *TrailHandler) UpdateTrail(w http.ResponseWriter, r *http.Request) {
	id, err := parseTrailID(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	var req TrailUpdateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request")
		return
	}

	_, err = h.trailService.Update(r.Context(), types.Trail{
		ID:               id,
		Name:             req.Name,
		Category:         req.Category,
		ShortDescription: req.ShortDescription,
		StartLat:         req.StartLat,
		StartLng:         req.StartLng,
		EndLat:           req.EndLat,
		EndLng:           req.EndLng,
		PhotoURL:         req.PhotoURL,
		VideoURL:         req.VideoURL,
		TrailDate:        req.TrailDate,
		TrailTime:        req.TrailTime,
	})
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusNotFound, "Trail not found")
			return
		}
		writeError(w, http.StatusInternalServerError, "Error updating trail")
		return
	}

	writeJSON(w, http.StatusOK, MessageResponse{Message: "Trail updated successfully"})
}

func (h *TrailHandler) DeleteTrail(w http.ResponseWriter, r *http.Request) {
	id, err := parseTrailID(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	if err := h.trailService.Delete(r.Context(), id); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusNotFound, "Trail not found")
			return
		}
		writeError(w, http.StatusInternalServerError, "Error deleting trail")
		return
	}

	writeJSON(w, http.StatusOK, MessageResponse{Message: "Trail deleted successfully"})
}

// TrailCreateRequest is the parsed multipart payload for trail creation.
type TrailCreateRequest struct {
	Trail         types.Trail
	SpecialPoints []types.SpecialPoint
}

func parseTrailForm(r *http.Request) (TrailCreateRequest, error) {
	if err := r.ParseMultipartForm(maxMultipartMemory); err != nil {
		return TrailCreateRequest{}, errors.New("invalid multipart form")
	}

	name := strings.TrimSpace(r.FormValue("name"))
	if name == "" {
		return TrailCreateRequest{}, errors.New("name is required")
	}

	startLat, err := parseOptionalFloat(r.FormValue("start_lat"))
	if err != nil {
		return TrailCreateRequest{}, errors.New("invalid start_lat")
	}
	startLng, err := parseOptionalFloat(r.FormValue("start_lng"))
	if err != nil {
		return TrailCreateRequest{}, errors.New("invalid start_lng")
	}
	endLat, err := parseOptionalFloat(r.FormValue("end_lat"))
	if err != nil {
		return TrailCreateRequest{}, errors.New("invalid end_lat")
	}
	endLng, err := parseOptionalFloat(r.FormValue("end_lng"))
	if err != nil {
		return TrailCreateRequest{}, errors.New("invalid end_lng")
	}

	// Always an array in the response, even when the client sends none.
	points := []types.SpecialPoint{}
	if raw := strings.TrimSpace(r.FormValue("special_points")); raw != "" {
		if err := json.Unmarshal([]byte(raw), &points); err != nil {
			return TrailCreateRequest{}, errors.New("invalid special_points")
		}
	}

	return TrailCreateRequest{
		Trail: types.Trail{
			Name:             name,
			Category:         strings.TrimSpace(r.FormValue("category")),
			ShortDescription: strings.TrimSpace(r.FormValue("description")),
			StartLat:         startLat,
			StartLng:         startLng,
			EndLat:           endLat,
			EndLng:           endLng,
			TrailDate:        strings.TrimSpace(r.FormValue("trail_date")),
			TrailTime:        strings.TrimSpace(r.FormValue("trail_time")),
		},
		SpecialPoints: points,
	}, nil
}

func parseTrailID(r *http.Request) (int, error) {
	raw := chi.URLParam(r, "trailID")
	id, err := strconv.Atoi(raw)
	if err != nil || id < 1 {
		return 0, errors.New("invalid trail id")
	}
	return id, nil
}

func parseOptionalFloat(value string) (float64, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return 0, nil
	}
	return strconv.ParseFloat(value, 64)
}

package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/trailtrace/apiserver/internal/media"
	"github.com/trailtrace/apiserver/internal/services"
	"github.com/trailtrace/apiserver/internal/store"
	"github.com/trailtrace/apiserver/types"
	"golang.org/x/crypto/bcrypt"
)

// UserHandler provides registration, login, and profile endpoints.
type UserHandler struct {
	userService  *services.UserService
	trailService *services.TrailService
	media        *media.Store
	secret       []byte
	tokenTTL     time.Duration
}

// NewUserHandler constructs a UserHandler with the provided dependencies.
func NewUserHandler(userService *services.UserService, trailService *services.TrailService, mediaStore *media.Store, jwtSecret string) *UserHandler {
	return &UserHandler{
		userService:  userService,
		trailService: trailService,
		media:        mediaStore,
		secret:       []byte(jwtSecret),
		tokenTTL:     defaultTokenTTL,
	}
}

// UserRouter registers user routes on the given router.
func UserRouter(r chi.Router, handler *UserHandler, authMiddleware func(http.Handler) http.Handler) {
	r.Post("/register", handler.Register)
	r.Post("/login", handler.Login)
	r.With(authMiddleware).Get("/profile", handler.GetProfile)
	r.With(authMiddleware).Put("/profile", handler.UpdateProfile)
	r.With(authMiddleware).Post("/profile/image", handler.UpdateProfileImage)
}

type RegisterRequest struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// LoginResponse carries the issued token and the public user projection.
type LoginResponse struct {
	Token string           `json:"token"`
	User  types.PublicUser `json:"user"`
}

// Register creates a new user account. The caller must log in separately to
// obtain a token.
func (h *UserHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req RegisterRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request")
		return
	}

	req.Username = strings.TrimSpace(req.Username)
	req.Email = strings.TrimSpace(req.Email)
	if req.Username == "" || req.Email == "" || req.Password == "" {
		writeError(w, http.StatusBadRequest, "Missing required fields")
		return
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Error registering user")
		return
	}

	_, err = h.userService.Create(r.Context(), types.User{
		Username:     req.Username,
		Email:        req.Email,
		Role:         defaultUserRole,
		PasswordHash: string(hashed),
	})
	if err != nil {
		if errors.Is(err, store.ErrDuplicate) {
			writeError(w, http.StatusBadRequest, "Username or email already exists")
			return
		}
		writeError(w, http.StatusInternalServerError, "Error registering user")
		return
	}

	writeJSON(w, http.StatusCreated, MessageResponse{Message: "User registered successfully"})
}

// Login verifies credentials and returns a signed token with the public user.
func (h *UserHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request")
		return
	}

	req.Email = strings.TrimSpace(req.Email)
	if req.Email == "" || req.Password == "" {
		writeError(w, http.StatusBadRequest, "Invalid credentials")
		return
	}

	user, err := h.userService.GetByEmail(r.Context(), req.Email)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusBadRequest, "Invalid credentials")
			return
		}
		writeError(w, http.StatusInternalServerError, "Error logging in")
		return
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid credentials")
		return
	}

	token, err := issueToken(user.ID, user.Role, h.secret, h.tokenTTL)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Error logging in")
		return
	}

	writeJSON(w, http.StatusOK, LoginResponse{Token: token, User: user.Public()})
}

// GetProfile returns the caller's public profile together with their trails.
func (h *UserHandler) GetProfile(w http.ResponseWriter, r *http.Request) {
	identity, err := identityFromContext(r.Context())
	if err != nil {
		writeError(w, http.StatusUnauthorized, "Invalid token")
		return
	}

	user, err := h.userService.GetByID(r.Context(), identity.UserID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusNotFound, "User not found")
			return
		}
		writeError(w, http.StatusInternalServerError, "Error fetching profile")
		return
	}

	trails, err := h.trailService.ListByUser(r.Context(), identity.UserID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Error fetching trails")
		return
	}

	profile := types.ProfileOf(user)
	profile.Trails = trails
	writeData(w, http.StatusOK, profile)
}

// UpdateProfile applies any subset of {name, bio, profile image} to the
// caller's account and returns the refreshed projection.
func (h *UserHandler) UpdateProfile(w http.ResponseWriter, r *http.Request) {
	identity, err := identityFromContext(r.Context())
	if err != nil {
		writeError(w, http.StatusUnauthorized, "Invalid token")
		return
	}

	if err := r.ParseMultipartForm(maxMultipartMemory); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid multipart form")
		return
	}

	var update types.ProfileUpdate
	if name := strings.TrimSpace(r.FormValue("name")); name != "" {
		update.Username = &name
	}
	if bio := strings.TrimSpace(r.FormValue("bio")); bio != "" {
		update.Bio = &bio
	}

	header, err := formFile(r.MultipartForm, formFieldProfileImage)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if header != nil {
		imageURL, err := saveUpload(r, h.media, header, "profile", profileImageRule)
		if err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		update.ProfileImageURL = &imageURL
	}

	if update.Empty() {
		writeError(w, http.StatusBadRequest, "No fields to update")
		return
	}

	user, err := h.userService.UpdateProfile(r.Context(), identity.UserID, update)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusNotFound, "User not found")
			return
		}
		writeError(w, http.StatusInternalServerError, "Error updating profile")
		return
	}

	writeData(w, http.StatusOK, types.ProfileOf(user))
}

// UpdateProfileImage stores a new profile image and updates its URL.
func (h *UserHandler) UpdateProfileImage(w http.ResponseWriter, r *http.Request) {
	identity, err := identityFromContext(r.Context())
	if err != nil {
		writeError(w, http.StatusUnauthorized, "Invalid token")
		return
	}

	if err := r.ParseMultipartForm(maxMultipartMemory); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid multipart form")
		return
	}

	header, err := formFile(r.MultipartForm, formFieldProfileImage)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if header == nil {
		writeError(w, http.StatusBadRequest, "No image file provided")
		return
	}

	imageURL, err := saveUpload(r, h.media, header, "profile", profileImageRule)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	if err := h.userService.SetProfileImage(r.Context(), identity.UserID, imageURL); err != nil {
		writeError(w, http.StatusInternalServerError, "Error updating profile image")
		return
	}

	writeData(w, http.StatusOK, map[string]string{"profile_image_url": imageURL})
}

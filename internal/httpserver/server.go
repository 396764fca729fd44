package httpserver

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/medialint/scene-validator/internal/logging"
	"github.com/medialint/scene-validator/internal/metrics"
	"github.com/medialint/scene-validator/internal/models"
	"github.com/medialint/scene-validator/internal/store"
	"github.com/medialint/scene-validator/internal/validator"
)

// Config wires the server's collaborators. AuthSecret empty disables bearer
// auth (local development only). Gatherer nil disables the /metrics route.
type Config struct {
	Service    *validator.Service
	Store      store.Store
	AuthSecret string
	Metrics    *metrics.Registry
	Gatherer   prometheus.Gatherer
	Log        *zap.SugaredLogger
}

type Server struct {
	service    *validator.Service
	store      store.Store
	authSecret string
	metrics    *metrics.Registry
	gatherer   prometheus.Gatherer
	log        *zap.SugaredLogger
}

func New(cfg Config) *Server {
	log := cfg.Log
	if log == nil {
		log = logging.NewNop()
	}
	if cfg.AuthSecret == "" {
		log.Warnw("api auth disabled: no secret configured")
	}
	return &Server{
		service:    cfg.Service,
		store:      cfg.Store,
		authSecret: cfg.AuthSecret,
		metrics:    cfg.Metrics,
		gatherer:   cfg.Gatherer,
		log:        log,
	}
}

func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	if s.metrics != nil {
		r.Use(s.recordMetrics)
	}

	r.Get("/health", s.handleHealth)
	if s.gatherer != nil {
		r.Handle("/metrics", promhttp.HandlerFor(s.gatherer, promhttp.HandlerOpts{}))
	}

	r.Group(func(r chi.Router) {
		r.Use(s.requireAuth)
		r.Post("/validate", s.handleValidate)
		r.Get("/validations/{validationID}", s.handleGetValidation)
		r.Get("/profiles", s.handleListProfiles)
		r.Put("/profiles/{profileID}", s.handlePutProfile)
	})

	return r
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()
	status := map[string]interface{}{
		"ok":   true,
		"time": time.Now().UTC(),
	}
	if err := s.store.Ping(ctx); err != nil {
		status["ok"] = false
		status["store"] = err.Error()
		respondJSON(w, http.StatusServiceUnavailable, status)
		return
	}
	respondJSON(w, http.StatusOK, status)
}

type validateRequest struct {
	SceneID               string                       `json:"scene_id"`
	MediaURL              string                       `json:"media_url"`
	ValidationProfile     string                       `json:"validation_profile"`
	Metadata              models.SceneMetadata         `json:"metadata"`
	TechnicalRequirements models.TechnicalRequirements `json:"technical_requirements"`
	CallbackURL           string                       `json:"callback_url"`
}

func (req validateRequest) missingFields() []string {
	var missing []string
	if req.SceneID == "" {
		missing = append(missing, "scene_id")
	}
	if req.MediaURL == "" {
		missing = append(missing, "media_url")
	}
	if req.ValidationProfile == "" {
		missing = append(missing, "validation_profile")
	}
	return missing
}

func (s *Server) handleValidate(w http.ResponseWriter, r *http.Request) {
	var req validateRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}
	if missing := req.missingFields(); len(missing) > 0 {
		respondError(w, http.StatusBadRequest, "missing required fields: "+strings.Join(missing, ", "))
		return
	}

	result, err := s.service.Validate(r.Context(), validator.Request{
		SceneID:               req.SceneID,
		MediaURL:              req.MediaURL,
		ValidationProfile:     req.ValidationProfile,
		Metadata:              req.Metadata,
		TechnicalRequirements: req.TechnicalRequirements,
		CallbackURL:           req.CallbackURL,
	})
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			respondError(w, http.StatusNotFound, err.Error())
			return
		}
		s.log.Errorw("validation request failed", "scene_id", req.SceneID, "error", err)
		respondError(w, http.StatusInternalServerError, "internal server error")
		return
	}
	respondJSON(w, http.StatusOK, result)
}

func (s *Server) handleGetValidation(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "validationID"))
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid validation id")
		return
	}
	rec, err := s.store.GetValidation(r.Context(), id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			respondError(w, http.StatusNotFound, "validation not found")
			return
		}
		s.log.Errorw("get validation failed", "validation_id", id, "error", err)
		respondError(w, http.StatusInternalServerError, "internal server error")
		return
	}
	respondJSON(w, http.StatusOK, rec)
}

func (s *Server) handleListProfiles(w http.ResponseWriter, r *http.Request) {
	profiles, err := s.store.ListProfiles(r.Context())
	if err != nil {
		s.log.Errorw("list profiles failed", "error", err)
		respondError(w, http.StatusInternalServerError, "internal server error")
		return
	}
	if profiles == nil {
		profiles = []models.ProfileSummary{}
	}
	respondJSON(w, http.StatusOK, map[string]interface{}{"profiles": profiles})
}

type putProfileRequest struct {
	Name            string            `json:"name"`
	Description     string            `json:"description"`
	ContentCriteria map[string]string `json:"content_criteria"`
}

func (s *Server) handlePutProfile(w http.ResponseWriter, r *http.Request) {
	profileID := chi.URLParam(r, "profileID")
	var req putProfileRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}
	if req.Name == "" {
		respondError(w, http.StatusBadRequest, "missing required fields: name")
		return
	}
	profile := models.ValidationProfile{
		ID:              profileID,
		Name:            req.Name,
		Description:     req.Description,
		ContentCriteria: req.ContentCriteria,
	}
	if err := s.store.PutProfile(r.Context(), profile); err != nil {
		s.log.Errorw("put profile failed", "profile", profileID, "error", err)
		respondError(w, http.StatusInternalServerError, "internal server error")
		return
	}
	respondJSON(w, http.StatusOK, profile)
}

func decodeJSON(r *http.Request, v interface{}) error {
	defer r.Body.Close()
	return json.NewDecoder(r.Body).Decode(v)
}

func respondJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func respondError(w http.ResponseWriter, status int, msg string) {
	respondJSON(w, status, map[string]string{"error": msg})
}

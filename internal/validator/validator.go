// Package validator implements the scene validation pipeline: technical
// spec checking, generative content analysis, recommendation generation,
// record persistence, and callback delivery.
package validator

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/medialint/scene-validator/internal/events"
	"github.com/medialint/scene-validator/internal/logging"
	"github.com/medialint/scene-validator/internal/metrics"
	"github.com/medialint/scene-validator/internal/models"
	"github.com/medialint/scene-validator/internal/store"
)

const defaultFrameSampleCount = 5

// MediaSource provides probed metadata and sampled frames for a media
// locator. Each call is an independent acquisition; the returned release
// func deletes whatever temporary resources the acquisition allocated and
// must be called regardless of how the consuming check goes.
type MediaSource interface {
	FetchMetadata(ctx context.Context, locator string) (models.TechnicalMetadata, func(), error)
	SampleFrames(ctx context.Context, locator string, count int) ([][]byte, func(), error)
}

// Analyzer is the generative model behind content analysis and
// recommendation generation.
type Analyzer interface {
	Generate(ctx context.Context, prompt string, images [][]byte) (string, error)
}

// Notifier delivers a payload to a callback URL.
type Notifier interface {
	Send(ctx context.Context, url string, payload interface{}) error
}

// Deps wires the orchestrator's collaborators. Store, Media, Analyzer, and
// Notifier are required; the rest default sensibly.
type Deps struct {
	Store    store.Store
	Media    MediaSource
	Analyzer Analyzer
	Notifier Notifier

	Publisher        events.Publisher
	Metrics          *metrics.Registry
	Log              *zap.SugaredLogger
	FrameSampleCount int
}

// Service runs validations. It holds no per-validation state; concurrent
// calls are independent.
type Service struct {
	store       store.Store
	media       MediaSource
	extractor   *ContentExtractor
	recommender *Recommender
	notifier    Notifier
	publisher   events.Publisher
	metrics     *metrics.Registry
	log         *zap.SugaredLogger
	frameCount  int
}

func New(d Deps) *Service {
	log := d.Log
	if log == nil {
		log = logging.NewNop()
	}
	publisher := d.Publisher
	if publisher == nil {
		publisher = events.NoopPublisher{}
	}
	frameCount := d.FrameSampleCount
	if frameCount <= 0 {
		frameCount = defaultFrameSampleCount
	}
	return &Service{
		store:       d.Store,
		media:       d.Media,
		extractor:   NewContentExtractor(d.Analyzer, log),
		recommender: NewRecommender(d.Analyzer, log),
		notifier:    d.Notifier,
		publisher:   publisher,
		metrics:     d.Metrics,
		log:         log,
		frameCount:  frameCount,
	}
}

// Request is one scene validation submission.
type Request struct {
	SceneID               string
	MediaURL              string
	ValidationProfile     string
	Metadata              models.SceneMetadata
	TechnicalRequirements models.TechnicalRequirements
	CallbackURL           string
}

// Validate runs the full pipeline for one scene and returns the report.
//
// An in_progress record is persisted before any validation work so a crash
// mid-pipeline still leaves a discoverable record. Any failure after that
// point is recorded on the record (status error plus an error string),
// reported to the callback URL if one was given, and then returned to the
// caller: the error is both recorded and surfaced, never just one of the
// two. Callback delivery itself is best-effort and never affects the
// outcome.
func (s *Service) Validate(ctx context.Context, req Request) (models.ValidationResult, error) {
	if req.SceneID == "" || req.MediaURL == "" || req.ValidationProfile == "" {
		return models.ValidationResult{}, fmt.Errorf("scene_id, media_url, and validation_profile are required")
	}

	validationID := uuid.New()
	timestamp := time.Now().UTC()
	s.log.Infow("starting validation", "validation_id", validationID, "scene_id", req.SceneID, "profile", req.ValidationProfile)

	rec := models.ValidationRecord{
		ValidationID:          validationID,
		SceneID:               req.SceneID,
		Timestamp:             timestamp,
		Status:                models.StatusInProgress,
		MediaURL:              req.MediaURL,
		ValidationProfile:     req.ValidationProfile,
		Metadata:              req.Metadata,
		TechnicalRequirements: req.TechnicalRequirements,
		CallbackURL:           req.CallbackURL,
	}
	if err := s.store.CreateValidation(ctx, rec); err != nil {
		return models.ValidationResult{}, fmt.Errorf("create validation record: %w", err)
	}
	s.publish(ctx, events.Event{
		Type:         events.TypeValidationStarted,
		ValidationID: validationID.String(),
		SceneID:      req.SceneID,
		Status:       models.StatusInProgress,
		Timestamp:    timestamp,
	})

	started := time.Now()
	result, err := s.run(ctx, rec)
	if err != nil {
		errMsg := fmt.Sprintf("validation failed: %v", err)
		s.log.Errorw("validation failed", "validation_id", validationID, "scene_id", req.SceneID, "error", err)
		if uerr := s.store.FailValidation(ctx, validationID, errMsg); uerr != nil {
			s.log.Errorw("failed to record validation error", "validation_id", validationID, "error", uerr)
		}
		if req.CallbackURL != "" {
			s.deliver(ctx, req.CallbackURL, models.ErrorPayload{
				SceneID:      req.SceneID,
				ValidationID: validationID,
				Timestamp:    timestamp,
				Status:       models.StatusError,
				Error:        errMsg,
			})
		}
		s.publish(ctx, events.Event{
			Type:         events.TypeValidationErrored,
			ValidationID: validationID.String(),
			SceneID:      req.SceneID,
			Status:       models.StatusError,
			Timestamp:    time.Now().UTC(),
		})
		s.observe(models.StatusError, started)
		return models.ValidationResult{}, err
	}

	if req.CallbackURL != "" {
		s.deliver(ctx, req.CallbackURL, result)
	}
	s.publish(ctx, events.Event{
		Type:         events.TypeValidationCompleted,
		ValidationID: validationID.String(),
		SceneID:      req.SceneID,
		Status:       result.Status,
		Timestamp:    time.Now().UTC(),
	})
	s.observe(result.Status, started)
	s.log.Infow("completed validation", "validation_id", validationID, "scene_id", req.SceneID, "status", result.Status)
	return result, nil
}

// run executes steps 2-7 of the pipeline: everything between record
// creation and the terminal record update. Any error out of here sends
// Validate down the generic error path, including a failed result persist.
func (s *Service) run(ctx context.Context, rec models.ValidationRecord) (models.ValidationResult, error) {
	profile, err := s.store.GetProfile(ctx, rec.ValidationProfile)
	if err != nil {
		return models.ValidationResult{}, fmt.Errorf("load validation profile %q: %w", rec.ValidationProfile, err)
	}

	technical, err := s.checkTechnical(ctx, rec.MediaURL, rec.TechnicalRequirements)
	if err != nil {
		return models.ValidationResult{}, err
	}
	content, err := s.checkContent(ctx, rec.MediaURL, rec.Metadata, profile)
	if err != nil {
		return models.ValidationResult{}, err
	}

	// Technical issues first; both lists keep their internal order. The
	// recommendation linkage is positional over this concatenation.
	issues := make([]models.Issue, 0, len(technical.Issues)+len(content.Issues))
	issues = append(issues, technical.Issues...)
	issues = append(issues, content.Issues...)
	recommendations := s.recommender.Recommend(ctx, issues, profile)

	status := models.StatusFailed
	if technical.Passes && content.Passes {
		status = models.StatusPassed
	}
	result := models.ValidationResult{
		SceneID:             rec.SceneID,
		ValidationID:        rec.ValidationID,
		Timestamp:           rec.Timestamp,
		Status:              status,
		Summary:             buildSummary(technical, content),
		ContentValidation:   content,
		TechnicalValidation: technical,
		Recommendations:     recommendations,
	}

	if err := s.store.CompleteValidation(ctx, rec.ValidationID, status, result); err != nil {
		return models.ValidationResult{}, fmt.Errorf("persist validation result: %w", err)
	}
	return result, nil
}

// checkTechnical acquires metadata for the scene and runs the spec checks.
// The media release runs even when checking fails.
func (s *Service) checkTechnical(ctx context.Context, locator string, reqs models.TechnicalRequirements) (models.ValidationCheck, error) {
	meta, release, err := s.media.FetchMetadata(ctx, locator)
	if err != nil {
		return models.ValidationCheck{}, fmt.Errorf("fetch media metadata: %w", err)
	}
	defer release()
	check, err := CheckTechnical(meta, reqs)
	if err != nil {
		return models.ValidationCheck{}, fmt.Errorf("check technical requirements: %w", err)
	}
	return check, nil
}

// checkContent samples a fresh set of frames (independent of the metadata
// acquisition) and runs the content analysis over them.
func (s *Service) checkContent(ctx context.Context, locator string, meta models.SceneMetadata, profile models.ValidationProfile) (models.ValidationCheck, error) {
	frames, release, err := s.media.SampleFrames(ctx, locator, s.frameCount)
	if err != nil {
		return models.ValidationCheck{}, fmt.Errorf("sample media frames: %w", err)
	}
	defer release()
	return s.extractor.Extract(ctx, frames, meta, profile), nil
}

func (s *Service) deliver(ctx context.Context, url string, payload interface{}) {
	if err := s.notifier.Send(ctx, url, payload); err != nil {
		s.log.Errorw("callback delivery failed", "url", url, "error", err)
		s.countCallback("error")
		return
	}
	s.log.Infow("callback delivered", "url", url)
	s.countCallback("success")
}

func (s *Service) publish(ctx context.Context, ev events.Event) {
	if err := s.publisher.Publish(ctx, ev); err != nil {
		s.log.Warnw("event publish failed", "type", ev.Type, "validation_id", ev.ValidationID, "error", err)
	}
}

func (s *Service) observe(status string, started time.Time) {
	if s.metrics == nil {
		return
	}
	s.metrics.ValidationsTotal.WithLabelValues(status).Inc()
	s.metrics.ValidationDuration.Observe(time.Since(started).Seconds())
}

func (s *Service) countCallback(outcome string) {
	if s.metrics != nil {
		s.metrics.CallbackDeliveriesTotal.WithLabelValues(outcome).Inc()
	}
}

package models

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Validation lifecycle states. A record starts in_progress and moves exactly
// once to one of the terminal states.
const (
	StatusInProgress = "in_progress"
	StatusPassed     = "passed"
	StatusFailed     = "failed"
	StatusError      = "error"
)

// Issue severities.
const (
	SeverityLow    = "low"
	SeverityMedium = "medium"
	SeverityHigh   = "high"
)

// SceneMetadata is the caller-supplied descriptive metadata for a scene.
// All fields are optional, free-form text.
type SceneMetadata struct {
	Title            string   `json:"title,omitempty"`
	Description      string   `json:"description,omitempty"`
	Tags             []string `json:"tags,omitempty"`
	IntendedAudience string   `json:"intended_audience,omitempty"`
	ContentRating    string   `json:"content_rating,omitempty"`
}

// TechnicalRequirements declares constraints on observable media properties.
// A nil field means no constraint was expressed for that property.
type TechnicalRequirements struct {
	Resolution      *string  `json:"resolution,omitempty"`
	Framerate       *float64 `json:"framerate,omitempty"`
	AudioChannels   *int     `json:"audio_channels,omitempty"`
	AudioSampleRate *int     `json:"audio_sample_rate,omitempty"`
}

// TechnicalMetadata is the probed technical profile of a media file. It is
// produced once per acquisition and never mutated afterwards.
type TechnicalMetadata struct {
	Width           int     `json:"width"`
	Height          int     `json:"height"`
	Duration        float64 `json:"duration"`
	Size            int64   `json:"size"`
	Framerate       float64 `json:"framerate"`
	Codec           string  `json:"codec"`
	AudioChannels   int     `json:"audio_channels"`
	AudioSampleRate int     `json:"audio_sample_rate"`
	AudioCodec      string  `json:"audio_codec"`
}

// Issue is a single detected deviation from technical or content
// expectations. Property locates technical issues, Timecode content issues.
type Issue struct {
	Type        string `json:"type"`
	Description string `json:"description"`
	Severity    string `json:"severity"`
	Property    string `json:"property,omitempty"`
	Timecode    string `json:"timecode,omitempty"`
}

// ValidationCheck is the outcome of one check category. Passes is true iff
// Issues is empty.
type ValidationCheck struct {
	Passes bool    `json:"passes"`
	Issues []Issue `json:"issues"`
}

// Recommendation pairs a remediation suggestion with the positional index of
// the issue it addresses. IssueID is the 0-based index into the concatenated
// issue list, as a string. The linkage is positional, not content-addressed.
type Recommendation struct {
	IssueID        string `json:"issue_id"`
	Recommendation string `json:"recommendation"`
}

// UnmarshalJSON tolerates issue_id arriving as either a JSON string or a
// number; the analyzer is asked for the positional index but is not strict
// about the type it answers with.
func (r *Recommendation) UnmarshalJSON(data []byte) error {
	var raw struct {
		IssueID        json.RawMessage `json:"issue_id"`
		Recommendation string          `json:"recommendation"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	r.Recommendation = raw.Recommendation
	if len(raw.IssueID) == 0 {
		r.IssueID = ""
		return nil
	}
	var s string
	if err := json.Unmarshal(raw.IssueID, &s); err == nil {
		r.IssueID = s
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(raw.IssueID, &n); err != nil {
		return fmt.Errorf("issue_id must be a string or number: %w", err)
	}
	r.IssueID = n.String()
	return nil
}

// ValidationProfile is a stored bundle of content criteria. ContentCriteria
// maps a category to its rule description and is passed through to the
// content analyzer verbatim.
type ValidationProfile struct {
	ID              string            `json:"id"`
	Name            string            `json:"name"`
	Description     string            `json:"description"`
	ContentCriteria map[string]string `json:"content_criteria"`
}

// ProfileSummary is the listing shape for profiles.
type ProfileSummary struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
}

// ValidationResult is the report returned to the caller and embedded in the
// stored record on completion. Constructed once, never mutated.
type ValidationResult struct {
	SceneID             string           `json:"scene_id"`
	ValidationID        uuid.UUID        `json:"validation_id"`
	Timestamp           time.Time        `json:"timestamp"`
	Status              string           `json:"status"`
	Summary             string           `json:"summary"`
	ContentValidation   ValidationCheck  `json:"content_validation"`
	TechnicalValidation ValidationCheck  `json:"technical_validation"`
	Recommendations     []Recommendation `json:"recommendations"`
}

// ValidationRecord is the persisted state of one validation. The identity
// and request fields are written once at creation; Status moves exactly once
// from in_progress to a terminal state, at which point either Result or
// Error is set.
type ValidationRecord struct {
	ValidationID          uuid.UUID             `json:"validation_id"`
	SceneID               string                `json:"scene_id"`
	Timestamp             time.Time             `json:"timestamp"`
	Status                string                `json:"status"`
	MediaURL              string                `json:"media_url"`
	ValidationProfile     string                `json:"validation_profile"`
	Metadata              SceneMetadata         `json:"metadata"`
	TechnicalRequirements TechnicalRequirements `json:"technical_requirements"`
	CallbackURL           string                `json:"callback_url,omitempty"`
	Result                *ValidationResult     `json:"result,omitempty"`
	Error                 string                `json:"error,omitempty"`
}

// ErrorPayload is the callback body delivered when a validation fails with
// an unrecoverable error.
type ErrorPayload struct {
	SceneID      string    `json:"scene_id"`
	ValidationID uuid.UUID `json:"validation_id"`
	Timestamp    time.Time `json:"timestamp"`
	Status       string    `json:"status"`
	Error        string    `json:"error"`
}

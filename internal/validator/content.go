package validator

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/medialint/scene-validator/internal/logging"
	"github.com/medialint/scene-validator/internal/models"
)

// ContentExtractor runs the generative content analysis over sampled frames
// and normalizes the reply into an issue list.
type ContentExtractor struct {
	analyzer Analyzer
	log      *zap.SugaredLogger
}

func NewContentExtractor(analyzer Analyzer, log *zap.SugaredLogger) *ContentExtractor {
	if log == nil {
		log = logging.NewNop()
	}
	return &ContentExtractor{analyzer: analyzer, log: log}
}

// Extract analyzes the frames against the profile's content criteria. It
// never fails: an analyzer error or an unparseable reply collapses into a
// single high-severity validation_error issue so the pipeline can carry on
// and report it.
func (e *ContentExtractor) Extract(ctx context.Context, frames [][]byte, meta models.SceneMetadata, profile models.ValidationProfile) models.ValidationCheck {
	issues, err := e.analyze(ctx, frames, meta, profile)
	if err != nil {
		e.log.Errorw("content analysis failed", "profile", profile.ID, "error", err)
		issues = []models.Issue{{
			Type:        "validation_error",
			Description: fmt.Sprintf("Failed to analyze content: %v", err),
			Severity:    models.SeverityHigh,
			Timecode:    "N/A",
		}}
	}
	return models.ValidationCheck{Passes: len(issues) == 0, Issues: issues}
}

func (e *ContentExtractor) analyze(ctx context.Context, frames [][]byte, meta models.SceneMetadata, profile models.ValidationProfile) ([]models.Issue, error) {
	prompt, err := buildContentPrompt(meta, profile)
	if err != nil {
		return nil, err
	}
	reply, err := e.analyzer.Generate(ctx, prompt, frames)
	if err != nil {
		return nil, err
	}
	var issues []models.Issue
	if err := json.Unmarshal([]byte(extractJSONPayload(reply)), &issues); err != nil {
		return nil, fmt.Errorf("parse analyzer reply: %w", err)
	}
	// json "null" decodes to a nil slice without error.
	if issues == nil {
		return nil, fmt.Errorf("analyzer reply was not a JSON array")
	}
	return issues, nil
}

func buildContentPrompt(meta models.SceneMetadata, profile models.ValidationProfile) (string, error) {
	criteria := profile.ContentCriteria
	if criteria == nil {
		criteria = map[string]string{}
	}
	criteriaJSON, err := json.MarshalIndent(criteria, "", "  ")
	if err != nil {
		return "", fmt.Errorf("serialize content criteria: %w", err)
	}

	var sb strings.Builder
	sb.WriteString("You are a media content validator. Analyze these frames from a media scene with the following metadata:\n\n")
	fmt.Fprintf(&sb, "Title: %s\n", orDefault(meta.Title, "Unknown"))
	fmt.Fprintf(&sb, "Description: %s\n", orDefault(meta.Description, "No description"))
	fmt.Fprintf(&sb, "Tags: %s\n", strings.Join(meta.Tags, ", "))
	fmt.Fprintf(&sb, "Intended Audience: %s\n", orDefault(meta.IntendedAudience, "Unknown"))
	fmt.Fprintf(&sb, "Content Rating: %s\n\n", orDefault(meta.ContentRating, "Unknown"))
	fmt.Fprintf(&sb, "Validation criteria from profile '%s':\n%s\n\n", orDefault(profile.Name, "Unknown"), criteriaJSON)
	sb.WriteString("Identify any content issues according to these criteria. For each issue, provide:\n")
	sb.WriteString("1. \"type\": the issue type (exact match from criteria categories)\n")
	sb.WriteString("2. \"description\": a description of the specific problem\n")
	sb.WriteString("3. \"severity\": low, medium, or high\n")
	sb.WriteString("4. \"timecode\": the frame or timecode where the issue occurs\n\n")
	sb.WriteString("Format your response as a JSON array of issue objects, or an empty array if no issues are found.")
	return sb.String(), nil
}

func orDefault(v, fallback string) string {
	if v == "" {
		return fallback
	}
	return v
}

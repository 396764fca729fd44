package validator

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"github.com/medialint/scene-validator/internal/logging"
	"github.com/medialint/scene-validator/internal/models"
)

// genericRecommendation is used when the analyzer cannot produce specific
// advice for the found issues.
const genericRecommendation = "Review issue and consult technical documentation."

// Recommender asks the analyzer for one remediation suggestion per issue.
// Suggestions are linked to issues positionally: issue_id is the 0-based
// index into the issue list the recommender was given, stringified.
type Recommender struct {
	analyzer Analyzer
	log      *zap.SugaredLogger
}

func NewRecommender(analyzer Analyzer, log *zap.SugaredLogger) *Recommender {
	if log == nil {
		log = logging.NewNop()
	}
	return &Recommender{analyzer: analyzer, log: log}
}

// Recommend returns recommendations for the given issues. An empty issue
// list short-circuits without calling the analyzer. If the analyzer call or
// parse fails, the fallback emits exactly one generic recommendation per
// issue so the output length still matches the input.
func (r *Recommender) Recommend(ctx context.Context, issues []models.Issue, profile models.ValidationProfile) []models.Recommendation {
	if len(issues) == 0 {
		return []models.Recommendation{}
	}
	recs, err := r.generate(ctx, issues, profile)
	if err != nil {
		r.log.Errorw("recommendation generation failed", "profile", profile.ID, "error", err)
		return fallbackRecommendations(issues)
	}
	return recs
}

func (r *Recommender) generate(ctx context.Context, issues []models.Issue, profile models.ValidationProfile) ([]models.Recommendation, error) {
	prompt, err := buildRecommendationPrompt(issues, profile)
	if err != nil {
		return nil, err
	}
	reply, err := r.analyzer.Generate(ctx, prompt, nil)
	if err != nil {
		return nil, err
	}
	var recs []models.Recommendation
	if err := json.Unmarshal([]byte(extractJSONPayload(reply)), &recs); err != nil {
		return nil, fmt.Errorf("parse analyzer reply: %w", err)
	}
	return recs, nil
}

func buildRecommendationPrompt(issues []models.Issue, profile models.ValidationProfile) (string, error) {
	issuesJSON, err := json.MarshalIndent(issues, "", "  ")
	if err != nil {
		return "", fmt.Errorf("serialize issues: %w", err)
	}
	profileJSON, err := json.MarshalIndent(profile, "", "  ")
	if err != nil {
		return "", fmt.Errorf("serialize profile: %w", err)
	}

	var sb strings.Builder
	sb.WriteString("You are a media optimization expert. Review these issues found in a media scene validation:\n\n")
	sb.Write(issuesJSON)
	sb.WriteString("\n\nFor each issue, provide a specific recommendation to fix the problem. Consider the following profile requirements:\n\n")
	sb.Write(profileJSON)
	sb.WriteString("\n\nFormat your response as a JSON array of recommendation objects, where each object contains:\n")
	sb.WriteString("1. \"issue_id\": the index of the issue in the provided list (0, 1, 2, etc.)\n")
	sb.WriteString("2. \"recommendation\": a specific, actionable recommendation to fix the issue")
	return sb.String(), nil
}

func fallbackRecommendations(issues []models.Issue) []models.Recommendation {
	recs := make([]models.Recommendation, len(issues))
	for i := range issues {
		recs[i] = models.Recommendation{
			IssueID:        strconv.Itoa(i),
			Recommendation: genericRecommendation,
		}
	}
	return recs
}

package validator

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/medialint/scene-validator/internal/models"
)

func TestRecommendNoIssuesSkipsAnalyzer(t *testing.T) {
	analyzer := &stubAnalyzer{}
	recommender := NewRecommender(analyzer, nil)

	recs := recommender.Recommend(context.Background(), nil, testProfile())
	assert.Empty(t, recs)
	assert.NotNil(t, recs)
	assert.Empty(t, analyzer.prompts, "analyzer must not be called for an empty issue list")
}

func TestRecommendParsesReply(t *testing.T) {
	analyzer := &stubAnalyzer{replies: []string{
		"```json\n[{\"issue_id\": 0, \"recommendation\": \"Re-encode at 1920x1080.\"}, {\"issue_id\": \"1\", \"recommendation\": \"Remix audio to stereo.\"}]\n```",
	}}
	recommender := NewRecommender(analyzer, nil)

	issues := []models.Issue{
		issue("resolution_mismatch", models.SeverityHigh),
		issue("audio_channels_mismatch", models.SeverityMedium),
	}
	recs := recommender.Recommend(context.Background(), issues, testProfile())
	require.Len(t, recs, 2)
	assert.Equal(t, "0", recs[0].IssueID)
	assert.Equal(t, "Re-encode at 1920x1080.", recs[0].Recommendation)
	assert.Equal(t, "1", recs[1].IssueID)

	require.Len(t, analyzer.prompts, 1)
	assert.Contains(t, analyzer.prompts[0], "resolution_mismatch")
	assert.Contains(t, analyzer.prompts[0], "Broadcast Standard")
	assert.Empty(t, analyzer.images[0], "recommendation prompt sends no frames")
}

func TestRecommendFallbackOnAnalyzerError(t *testing.T) {
	analyzer := &stubAnalyzer{err: fmt.Errorf("quota exceeded")}
	recommender := NewRecommender(analyzer, nil)

	issues := []models.Issue{
		issue("resolution_mismatch", models.SeverityHigh),
		issue("branding", models.SeverityMedium),
		issue("pacing", models.SeverityLow),
	}
	recs := recommender.Recommend(context.Background(), issues, testProfile())
	require.Len(t, recs, len(issues))
	for i, rec := range recs {
		assert.Equal(t, fmt.Sprintf("%d", i), rec.IssueID)
		assert.Equal(t, genericRecommendation, rec.Recommendation)
	}
}

func TestRecommendFallbackOnUnparseableReply(t *testing.T) {
	analyzer := &stubAnalyzer{replies: []string{"Sorry, I can't help with that."}}
	recommender := NewRecommender(analyzer, nil)

	issues := []models.Issue{issue("framerate_mismatch", models.SeverityHigh)}
	recs := recommender.Recommend(context.Background(), issues, testProfile())
	require.Len(t, recs, 1)
	assert.Equal(t, "0", recs[0].IssueID)
	assert.Equal(t, genericRecommendation, recs[0].Recommendation)
}

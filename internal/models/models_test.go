package models

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRecommendationUnmarshalToleratesIDTypes(t *testing.T) {
	var fromString Recommendation
	require.NoError(t, json.Unmarshal([]byte(`{"issue_id":"2","recommendation":"fix it"}`), &fromString))
	assert.Equal(t, "2", fromString.IssueID)
	assert.Equal(t, "fix it", fromString.Recommendation)

	var fromNumber Recommendation
	require.NoError(t, json.Unmarshal([]byte(`{"issue_id":2,"recommendation":"fix it"}`), &fromNumber))
	assert.Equal(t, "2", fromNumber.IssueID)

	var missing Recommendation
	require.NoError(t, json.Unmarshal([]byte(`{"recommendation":"fix it"}`), &missing))
	assert.Equal(t, "", missing.IssueID)

	var invalid Recommendation
	assert.Error(t, json.Unmarshal([]byte(`{"issue_id":{"nested":true}}`), &invalid))
}

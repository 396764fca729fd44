package media

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseS3Locator(t *testing.T) {
	bucket, key, err := parseS3Locator("s3://scene-media/renders/scene-42.mp4")
	require.NoError(t, err)
	assert.Equal(t, "scene-media", bucket)
	assert.Equal(t, "renders/scene-42.mp4", key)

	for _, bad := range []string{"s3://", "s3://bucket", "s3://bucket/", "s3:///key"} {
		_, _, err := parseS3Locator(bad)
		assert.Error(t, err, "locator %q", bad)
	}
}

func TestFrameTimestamps(t *testing.T) {
	assert.Nil(t, frameTimestamps(120, 0))
	assert.Equal(t, []float64{60}, frameTimestamps(120, 1))

	stamps := frameTimestamps(100, 5)
	require.Len(t, stamps, 5)
	assert.Equal(t, 0.0, stamps[0])
	assert.Equal(t, 25.0, stamps[1])
	assert.Equal(t, 100.0, stamps[4])
}

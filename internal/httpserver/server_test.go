package httpserver_test

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/medialint/scene-validator/internal/httpserver"
	"github.com/medialint/scene-validator/internal/models"
	"github.com/medialint/scene-validator/internal/store"
	"github.com/medialint/scene-validator/internal/validator"
)

type fakeMedia struct{}

func (fakeMedia) FetchMetadata(ctx context.Context, locator string) (models.TechnicalMetadata, func(), error) {
	return models.TechnicalMetadata{
		Width: 1920, Height: 1080, Duration: 60, Framerate: 30,
		Codec: "h264", AudioChannels: 2, AudioSampleRate: 48000, AudioCodec: "aac",
	}, func() {}, nil
}

func (fakeMedia) SampleFrames(ctx context.Context, locator string, count int) ([][]byte, func(), error) {
	return [][]byte{[]byte("jpeg")}, func() {}, nil
}

type fakeAnalyzer struct{}

func (fakeAnalyzer) Generate(ctx context.Context, prompt string, images [][]byte) (string, error) {
	return "[]", nil
}

type fakeNotifier struct{}

func (fakeNotifier) Send(ctx context.Context, url string, payload interface{}) error { return nil }

func newTestRouter(t *testing.T, authSecret string) (http.Handler, *store.MemoryStore) {
	t.Helper()
	memStore := store.NewMemoryStore()
	require.NoError(t, memStore.PutProfile(context.Background(), models.ValidationProfile{
		ID:              "broadcast",
		Name:            "Broadcast Standard",
		ContentCriteria: map[string]string{"branding": "No third-party logos"},
	}))
	svc := validator.New(validator.Deps{
		Store:    memStore,
		Media:    fakeMedia{},
		Analyzer: fakeAnalyzer{},
		Notifier: fakeNotifier{},
	})
	server := httpserver.New(httpserver.Config{
		Service:    svc,
		Store:      memStore,
		AuthSecret: authSecret,
	})
	return server.Router(), memStore
}

func doJSON(t *testing.T, router http.Handler, method, path string, body interface{}, headers map[string]string) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func TestHealthEndpoint(t *testing.T) {
	router, _ := newTestRouter(t, "")
	rec := doJSON(t, router, http.MethodGet, "/health", nil, nil)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestValidateMissingFields(t *testing.T) {
	router, _ := newTestRouter(t, "")
	rec := doJSON(t, router, http.MethodPost, "/validate", map[string]string{"scene_id": "scene-1"}, nil)
	require.Equal(t, http.StatusBadRequest, rec.Code)

	var resp map[string]string
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	assert.Equal(t, "missing required fields: media_url, validation_profile", resp["error"])
}

func TestValidateSuccess(t *testing.T) {
	router, memStore := newTestRouter(t, "")
	rec := doJSON(t, router, http.MethodPost, "/validate", map[string]interface{}{
		"scene_id":           "scene-1",
		"media_url":          "s3://media/scene-1.mp4",
		"validation_profile": "broadcast",
		"metadata":           map[string]string{"title": "Scene 1"},
	}, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var result models.ValidationResult
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&result))
	assert.Equal(t, "scene-1", result.SceneID)
	assert.Equal(t, models.StatusPassed, result.Status)
	assert.NotEqual(t, uuid.Nil, result.ValidationID)

	stored, err := memStore.GetValidation(context.Background(), result.ValidationID)
	require.NoError(t, err)
	assert.Equal(t, models.StatusPassed, stored.Status)
}

func TestValidateUnknownProfileIs404(t *testing.T) {
	router, _ := newTestRouter(t, "")
	rec := doJSON(t, router, http.MethodPost, "/validate", map[string]interface{}{
		"scene_id":           "scene-1",
		"media_url":          "s3://media/scene-1.mp4",
		"validation_profile": "no-such-profile",
	}, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestGetValidation(t *testing.T) {
	router, memStore := newTestRouter(t, "")

	rec := doJSON(t, router, http.MethodGet, "/validations/not-a-uuid", nil, nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = doJSON(t, router, http.MethodGet, "/validations/"+uuid.NewString(), nil, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	stored := models.ValidationRecord{
		ValidationID:      uuid.New(),
		SceneID:           "scene-2",
		Timestamp:         time.Now().UTC(),
		Status:            models.StatusInProgress,
		MediaURL:          "s3://media/scene-2.mp4",
		ValidationProfile: "broadcast",
	}
	require.NoError(t, memStore.CreateValidation(context.Background(), stored))

	rec = doJSON(t, router, http.MethodGet, "/validations/"+stored.ValidationID.String(), nil, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var got models.ValidationRecord
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&got))
	assert.Equal(t, "scene-2", got.SceneID)
	assert.Equal(t, models.StatusInProgress, got.Status)
}

func TestListProfiles(t *testing.T) {
	router, _ := newTestRouter(t, "")
	rec := doJSON(t, router, http.MethodGet, "/profiles", nil, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var resp struct {
		Profiles []models.ProfileSummary `json:"profiles"`
	}
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	require.Len(t, resp.Profiles, 1)
	assert.Equal(t, "broadcast", resp.Profiles[0].ID)
}

func TestPutProfile(t *testing.T) {
	router, memStore := newTestRouter(t, "")

	rec := doJSON(t, router, http.MethodPut, "/profiles/web", map[string]interface{}{
		"name":             "Web Delivery",
		"description":      "Relaxed checks for web",
		"content_criteria": map[string]string{"pacing": "No static frames over 5s"},
	}, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	profile, err := memStore.GetProfile(context.Background(), "web")
	require.NoError(t, err)
	assert.Equal(t, "Web Delivery", profile.Name)
	assert.Equal(t, "No static frames over 5s", profile.ContentCriteria["pacing"])

	rec = doJSON(t, router, http.MethodPut, "/profiles/web", map[string]interface{}{}, nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestAuthDisabledWarnsOnce(t *testing.T) {
	core, logs := observer.New(zap.WarnLevel)
	memStore := store.NewMemoryStore()
	svc := validator.New(validator.Deps{
		Store:    memStore,
		Media:    fakeMedia{},
		Analyzer: fakeAnalyzer{},
		Notifier: fakeNotifier{},
	})
	server := httpserver.New(httpserver.Config{
		Service: svc,
		Store:   memStore,
		Log:     zap.New(core).Sugar(),
	})
	_ = server.Router()

	assert.Equal(t, 1, logs.FilterMessageSnippet("auth disabled").Len())
}

func TestAuthRequiredWhenSecretConfigured(t *testing.T) {
	const secret = "test-secret"
	router, _ := newTestRouter(t, secret)

	// No token.
	rec := doJSON(t, router, http.MethodGet, "/profiles", nil, nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	// Garbage token.
	rec = doJSON(t, router, http.MethodGet, "/profiles", nil, map[string]string{"Authorization": "Bearer nonsense"})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	// Valid token.
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub": "pipeline",
		"exp": time.Now().Add(time.Hour).Unix(),
	}).SignedString([]byte(secret))
	require.NoError(t, err)
	rec = doJSON(t, router, http.MethodGet, "/profiles", nil, map[string]string{"Authorization": "Bearer " + token})
	assert.Equal(t, http.StatusOK, rec.Code)

	// Health stays open.
	rec = doJSON(t, router, http.MethodGet, "/health", nil, nil)
	assert.Equal(t, http.StatusOK, rec.Code)
}

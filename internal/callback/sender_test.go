package callback_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/medialint/scene-validator/internal/callback"
)

func TestSendDeliversJSON(t *testing.T) {
	var got map[string]interface{}
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	sender := callback.NewSender(time.Second)
	err := sender.Send(context.Background(), server.URL, map[string]string{"status": "passed"})
	require.NoError(t, err)
	assert.Equal(t, "passed", got["status"])
}

func TestSendNon2xxIsError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "nope", http.StatusBadGateway)
	}))
	defer server.Close()

	sender := callback.NewSender(time.Second)
	err := sender.Send(context.Background(), server.URL, map[string]string{"status": "passed"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "502")
}

func TestSendUnreachableHost(t *testing.T) {
	sender := callback.NewSender(100 * time.Millisecond)
	err := sender.Send(context.Background(), "http://127.0.0.1:1", map[string]string{"status": "passed"})
	assert.Error(t, err)
}

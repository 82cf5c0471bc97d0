package render

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/qs3c/fable_go_server/config"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()

	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	client, err := NewClient(&config.RenderConfig{
		Endpoint: server.URL,
		APIKey:   "test-key",
	})
	require.NoError(t, err)
	return client
}

func TestNewClient_MissingKey(t *testing.T) {
	_, err := NewClient(&config.RenderConfig{Endpoint: "https://render.example.com"})
	assert.ErrorIs(t, err, ErrNotConfigured)

	_, err = NewClient(&config.RenderConfig{APIKey: "key"})
	assert.ErrorIs(t, err, ErrNotConfigured)
}

func TestClient_Submit(t *testing.T) {
	t.Run("success returns job id", func(t *testing.T) {
		client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, http.MethodPost, r.Method)
			assert.Equal(t, "/render", r.URL.Path)
			assert.Equal(t, "test-key", r.Header.Get("x-api-key"))

			var timeline Timeline
			require.NoError(t, json.NewDecoder(r.Body).Decode(&timeline))
			assert.Len(t, timeline.Scenes, 2)

			w.WriteHeader(http.StatusCreated)
			json.NewEncoder(w).Encode(JobStatus{ID: "job-123", Status: StatusQueued})
		})

		id, err := client.Submit(context.Background(), &Timeline{
			Scenes: []Scene{
				{ImageURL: "https://cdn.example.com/1.png", Caption: "Capítulo 1", Duration: 8},
				{ImageURL: "https://cdn.example.com/2.png", Caption: "Capítulo 2", Duration: 8},
			},
		})

		require.NoError(t, err)
		assert.Equal(t, "job-123", id)
	})

	t.Run("4xx is a rejected submit", func(t *testing.T) {
		client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			http.Error(w, "invalid api key", http.StatusUnauthorized)
		})

		_, err := client.Submit(context.Background(), &Timeline{})
		assert.ErrorIs(t, err, ErrSubmitRejected)
	})
}

func TestClient_Poll(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/render/job-123", r.URL.Path)
		json.NewEncoder(w).Encode(JobStatus{ID: "job-123", Status: StatusDone, URL: "https://cdn.example.com/video.mp4"})
	})

	status, err := client.Poll(context.Background(), "job-123")
	require.NoError(t, err)
	assert.Equal(t, StatusDone, status.Status)
	assert.Equal(t, "https://cdn.example.com/video.mp4", status.URL)
}

func TestIsTerminal(t *testing.T) {
	assert.True(t, IsTerminal(StatusDone))
	assert.True(t, IsTerminal(StatusFailed))
	assert.False(t, IsTerminal(StatusQueued))
	assert.False(t, IsTerminal(StatusRendering))
}

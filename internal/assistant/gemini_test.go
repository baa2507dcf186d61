package assistant

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/smallbiznis/scanprice/internal/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient(url, key string) Generator {
	return NewGeminiClient(config.AssistantConfig{
		APIKey:     key,
		BaseURL:    url,
		TextModel:  "text-model",
		VideoModel: "video-model",
	})
}

func TestGemini_Describe(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/models/text-model:generateContent", r.URL.Path)
		assert.Equal(t, "secret", r.Header.Get("x-goog-api-key"))

		var req generateContentRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Contains(t, req.Contents[0].Parts[0].Text, `"Apple"`)
		assert.Contains(t, req.Contents[0].Parts[0].Text, "under 30 words")

		_, _ = w.Write([]byte(`{"candidates":[{"content":{"parts":[{"text":" Crisp and sweet. "}]}}]}`))
	}))
	defer srv.Close()

	text, err := newTestClient(srv.URL, "secret").Describe(context.Background(), "Apple")
	require.NoError(t, err)
	assert.Equal(t, "Crisp and sweet.", text)
}

func TestGemini_ErrorMessageSurfaced(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"error":{"code":400,"message":"API key not valid"}}`))
	}))
	defer srv.Close()

	_, err := newTestClient(srv.URL, "bad").Describe(context.Background(), "Apple")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "API key not valid")
}

func TestGemini_NotConfigured(t *testing.T) {
	_, err := newTestClient("http://unused", "").Describe(context.Background(), "Apple")
	assert.ErrorIs(t, err, ErrNotConfigured)
}

func TestGemini_VideoOperation(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/models/video-model:predictLongRunning":
			_, _ = w.Write([]byte(`{"name":"models/video-model/operations/abc"}`))
		case "/models/video-model/operations/abc":
			_, _ = w.Write([]byte(`{"name":"models/video-model/operations/abc","done":true,"response":{"generateVideoResponse":{"generatedSamples":[{"video":{"uri":"https://files/v.mp4"}}]}}}`))
		default:
			http.NotFound(w, r)
		}
	}))
	defer srv.Close()

	client := newTestClient(srv.URL, "secret")
	op, err := client.StartVideo(context.Background(), VideoRequest{Prompt: "spin", ImageBase64: "aGk=", MimeType: "image/png"})
	require.NoError(t, err)
	assert.False(t, op.Done)

	op, err = client.PollVideo(context.Background(), op)
	require.NoError(t, err)
	assert.True(t, op.Done)
	assert.Equal(t, "https://files/v.mp4", op.VideoURI)
}

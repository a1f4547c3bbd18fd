package verification

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"image"
	"image/color"
	"image/png"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"ecotrack/internal/config"
	"ecotrack/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)
	return NewClient(config.VerificationConfig{
		APIKey:  "test-key",
		Model:   "gemini-2.0-flash",
		BaseURL: server.URL,
		Timeout: 5 * time.Second,
	}, zap.NewNop())
}

func replyWithText(text string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]interface{}{
			"candidates": []map[string]interface{}{
				{"content": map[string]interface{}{"parts": []map[string]string{{"text": text}}}},
			},
		})
	}
}

func TestVerifySendsPromptAndConfig(t *testing.T) {
	var got generateRequest
	var path, key string
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		path = r.URL.Path
		key = r.URL.Query().Get("key")
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		replyWithText(`{"match": true, "confidence": 0.9, "reason": "Saplings visible"}`)(w, r)
	})

	result, err := client.Verify(context.Background(), "data:image/jpeg;base64,bm90LWFuLWltYWdl", models.ActivityTreePlantation)
	require.NoError(t, err)

	assert.Equal(t, &Result{Match: true, Confidence: 0.9, Reason: "Saplings visible"}, result)
	assert.Equal(t, "/models/gemini-2.0-flash:generateContent", path)
	assert.Equal(t, "test-key", key)
	require.Len(t, got.Contents, 1)
	require.Len(t, got.Contents[0].Parts, 2)
	assert.Contains(t, got.Contents[0].Parts[0].Text, "tree planting or plantation activity")
	assert.Equal(t, "bm90LWFuLWltYWdl", got.Contents[0].Parts[1].InlineData.Data)
	assert.Equal(t, "image/jpeg", got.Contents[0].Parts[1].InlineData.MimeType)
	assert.Equal(t, generationConfig{Temperature: 1, TopK: 40, TopP: 0.95, MaxOutputTokens: 1024}, got.GenerationConfig)
}

func TestVerifyMapsUpstreamStatuses(t *testing.T) {
	tests := []struct {
		name   string
		status int
		want   error
	}{
		{"rate limited", http.StatusTooManyRequests, ErrRateLimited},
		{"quota", http.StatusPaymentRequired, ErrQuotaExhausted},
		{"server error", http.StatusInternalServerError, ErrUpstream},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
			})
			_, err := client.Verify(context.Background(), "abc", models.ActivityCleanup)
			assert.ErrorIs(t, err, tt.want)
		})
	}
}

func TestVerifyFallsBackToSafeDefault(t *testing.T) {
	client := newTestClient(t, replyWithText("I cannot tell what this is."))
	result, err := client.Verify(context.Background(), "abc", models.ActivityRecycling)
	require.NoError(t, err)
	assert.Equal(t, SafeDefault(), result)

	empty := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"candidates": []}`))
	})
	result, err = empty.Verify(context.Background(), "abc", models.ActivityRecycling)
	require.NoError(t, err)
	assert.Equal(t, SafeDefault(), result)
}

func TestVerifyRequiresKey(t *testing.T) {
	client := NewClient(config.VerificationConfig{}, nil)
	_, err := client.Verify(context.Background(), "abc", models.ActivityCleanup)
	assert.ErrorIs(t, err, ErrNotConfigured)
}

func TestParseVerdict(t *testing.T) {
	tests := []struct {
		name string
		text string
		want *Result
	}{
		{
			name: "fenced",
			text: "Here you go:\n```json\n{\"match\": false, \"confidence\": 0.3, \"reason\": \"Indoor scene\"}\n```",
			want: &Result{Match: false, Confidence: 0.3, Reason: "Indoor scene"},
		},
		{
			name: "embedded object",
			text: `Verdict: {"match": true, "confidence": 0.7, "reason": "Bins sorted"} thanks`,
			want: &Result{Match: true, Confidence: 0.7, Reason: "Bins sorted"},
		},
		{
			name: "missing fields",
			text: `{}`,
			want: &Result{Match: false, Confidence: 0, Reason: "Unable to verify image"},
		},
		{
			name: "confidence clamped",
			text: `{"match": true, "confidence": 3, "reason": "ok"}`,
			want: &Result{Match: true, Confidence: 1, Reason: "ok"},
		},
		{
			name: "garbage",
			text: `not json at all`,
			want: SafeDefault(),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ParseVerdict(tt.text))
		})
	}
}

func TestShouldWithhold(t *testing.T) {
	assert.False(t, ShouldWithhold(&Result{Confidence: 0}))
	assert.True(t, ShouldWithhold(&Result{Confidence: 0.2}))
	assert.False(t, ShouldWithhold(&Result{Confidence: 0.5}))
	assert.False(t, ShouldWithhold(nil))
}

func TestNormalizeImageShrinksLargeImages(t *testing.T) {
	img := image.NewRGBA(image.Rect(0, 0, 2048, 1024))
	for x := 0; x < 2048; x += 64 {
		img.Set(x, 0, color.RGBA{R: 200, A: 255})
	}
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))

	mimeType, data := normalizeImage("data:image/png;base64," + base64.StdEncoding.EncodeToString(buf.Bytes()))
	assert.Equal(t, "image/jpeg", mimeType)

	raw, err := base64.StdEncoding.DecodeString(data)
	require.NoError(t, err)
	decoded, _, err := image.DecodeConfig(bytes.NewReader(raw))
	require.NoError(t, err)
	assert.Equal(t, 1024, decoded.Width)
	assert.Equal(t, 512, decoded.Height)
}

package inference

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/xaenox/cladari/internal/models"
)

func newTestAdapter(t *testing.T, api models.API, handler http.HandlerFunc) (*Adapter, models.Endpoint) {
	t.Helper()

	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	ep := models.Endpoint{
		Name:        "primary",
		Family:      "Mistral",
		BaseURL:     srv.URL,
		Model:       "mistral-nemo-12b",
		API:         api,
		MaxTokens:   1500,
		Temperature: 0.3,
		Timeout:     time.Second,
		Stop:        []string{"User:", "\n\n\n"},
	}
	return NewAdapter([]models.Endpoint{ep}, "", zap.NewNop()), ep
}

func writeJSON(t *testing.T, w http.ResponseWriter, v any) {
	t.Helper()

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		t.Errorf("failed to encode response: %v", err)
	}
}

func TestAdapter_Completion(t *testing.T) {
	var body map[string]any
	a, ep := newTestAdapter(t, models.APICompletions, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/completions", r.URL.Path)
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		writeJSON(t, w, map[string]any{
			"choices": []map[string]any{{"text": "  Check soil pH.\n"}},
		})
	})

	text, err := a.Complete(context.Background(), ep, Request{Prompt: "User: hi\n\nAssistant:", Temperature: 0.2})
	require.NoError(t, err)
	assert.Equal(t, "Check soil pH.", text)

	assert.Equal(t, "mistral-nemo-12b", body["model"])
	assert.Equal(t, "User: hi\n\nAssistant:", body["prompt"])
	assert.EqualValues(t, 1500, body["max_tokens"])
	assert.InDelta(t, 0.2, body["temperature"], 0.0001)
	assert.Equal(t, []any{"User:", "\n\n\n"}, body["stop"])
}

func TestAdapter_Chat(t *testing.T) {
	a, ep := newTestAdapter(t, models.APIChat, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/chat/completions", r.URL.Path)
		var body struct {
			Messages []models.Message `json:"messages"`
		}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		require.Len(t, body.Messages, 2)
		assert.Equal(t, "system", body.Messages[0].Role)
		writeJSON(t, w, map[string]any{
			"choices": []map[string]any{{"message": map[string]any{"role": "assistant", "content": "Hello!"}}},
		})
	})

	text, err := a.Complete(context.Background(), ep, Request{Messages: []models.Message{
		{Role: "system", Content: "persona"},
		{Role: "user", Content: "hi"},
	}})
	require.NoError(t, err)
	assert.Equal(t, "Hello!", text)
}

func TestAdapter_StripsBeliefsWhenEnabled(t *testing.T) {
	a, ep := newTestAdapter(t, models.APIChat, func(w http.ResponseWriter, r *http.Request) {
		writeJSON(t, w, map[string]any{
			"choices": []map[string]any{{"message": map[string]any{"content": "{\"beliefs\": []}\nHi there."}}},
		})
	})
	ep.StripBeliefs = true
	a = NewAdapter([]models.Endpoint{ep}, "", zap.NewNop())

	text, err := a.Complete(context.Background(), ep, Request{})
	require.NoError(t, err)
	assert.Equal(t, "Hi there.", text)
}

func TestAdapter_ServerErrorIsUnavailable(t *testing.T) {
	a, ep := newTestAdapter(t, models.APICompletions, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		w.Write([]byte("boom"))
	})

	_, err := a.Complete(context.Background(), ep, Request{Prompt: "x"})
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrUnavailable))
}

func TestAdapter_APIErrorIsUnavailable(t *testing.T) {
	a, ep := newTestAdapter(t, models.APICompletions, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusServiceUnavailable)
		w.Write([]byte(`{"error":{"message":"model loading","type":"server_error"}}`))
	})

	_, err := a.Complete(context.Background(), ep, Request{Prompt: "x"})
	assert.ErrorIs(t, err, ErrUnavailable)
}

func TestAdapter_MalformedBodyIsUnavailable(t *testing.T) {
	a, ep := newTestAdapter(t, models.APICompletions, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("{not json"))
	})

	_, err := a.Complete(context.Background(), ep, Request{Prompt: "x"})
	assert.ErrorIs(t, err, ErrUnavailable)
}

func TestAdapter_EmptyChoicesIsUnavailable(t *testing.T) {
	a, ep := newTestAdapter(t, models.APICompletions, func(w http.ResponseWriter, r *http.Request) {
		writeJSON(t, w, map[string]any{"choices": []any{}})
	})

	_, err := a.Complete(context.Background(), ep, Request{Prompt: "x"})
	assert.ErrorIs(t, err, ErrUnavailable)
}

func TestAdapter_BlankTextIsUnavailable(t *testing.T) {
	a, ep := newTestAdapter(t, models.APICompletions, func(w http.ResponseWriter, r *http.Request) {
		writeJSON(t, w, map[string]any{"choices": []map[string]any{{"text": "  \n"}}})
	})

	_, err := a.Complete(context.Background(), ep, Request{Prompt: "x"})
	assert.ErrorIs(t, err, ErrUnavailable)
}

func TestAdapter_Timeout(t *testing.T) {
	a, ep := newTestAdapter(t, models.APICompletions, func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-time.After(time.Second):
		}
	})
	ep.Timeout = 50 * time.Millisecond

	start := time.Now()
	_, err := a.Complete(context.Background(), ep, Request{Prompt: "x"})
	require.Error(t, err)
	assert.False(t, errors.Is(err, ErrUnavailable))
	assert.Less(t, time.Since(start), 900*time.Millisecond)
}

func TestAdapter_ConnectionRefused(t *testing.T) {
	a, ep := newTestAdapter(t, models.APICompletions, func(w http.ResponseWriter, r *http.Request) {})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	ep.BaseURL = srv.URL
	srv.Close()
	a = NewAdapter([]models.Endpoint{ep}, "", zap.NewNop())

	_, err := a.Complete(context.Background(), ep, Request{Prompt: "x"})
	require.Error(t, err)
	assert.False(t, errors.Is(err, ErrUnavailable))
}

func TestAdapter_UnknownEndpoint(t *testing.T) {
	a := NewAdapter(nil, "", zap.NewNop())
	_, err := a.Complete(context.Background(), models.Endpoint{Name: "ghost"}, Request{})
	assert.Error(t, err)
}

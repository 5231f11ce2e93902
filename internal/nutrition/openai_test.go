package nutrition

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/SlpAus/macro-tracker-backend/internal/platform/apperror"
	"github.com/SlpAus/macro-tracker-backend/internal/platform/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeCompletionServer 模拟 chat completions 接口，返回固定的 content
func fakeCompletionServer(t *testing.T, content string, captured *map[string]any) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/chat/completions" {
			http.NotFound(w, r)
			return
		}
		if captured != nil {
			_ = json.NewDecoder(r.Body).Decode(captured)
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{
			"id":      "chatcmpl-test",
			"object":  "chat.completion",
			"created": time.Now().Unix(),
			"model":   "gpt-4o",
			"choices": []map[string]any{{
				"index":         0,
				"finish_reason": "stop",
				"message":       map[string]any{"role": "assistant", "content": content},
			}},
		})
	}))
	t.Cleanup(srv.Close)
	return srv
}

func newTestExtractor(t *testing.T, baseURL string) *OpenAIExtractor {
	t.Helper()
	e, err := NewOpenAIExtractor(config.NutritionConfig{
		APIKey:      "test-key",
		Model:       "gpt-4o",
		BaseURL:     baseURL + "/v1",
		Timeout:     5 * time.Second,
		Temperature: 0.3,
	})
	require.NoError(t, err)
	return e
}

func TestOpenAIExtractor_Success(t *testing.T) {
	var req map[string]any
	srv := fakeCompletionServer(t, `{"calories": 60, "protein": 12, "carbs": 3, "fats": 0}`, &req)
	e := newTestExtractor(t, srv.URL)

	m, err := e.Extract(context.Background(), "100g of Magerquark")
	require.NoError(t, err)
	assert.Equal(t, Macros{Calories: 60, Protein: 12, Carbs: 3, Fats: 0}, m)

	assert.Equal(t, "gpt-4o", req["model"])
	assert.InDelta(t, 0.3, req["temperature"], 1e-6)
	format, ok := req["response_format"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "json_object", format["type"])

	msgs, ok := req["messages"].([]any)
	require.True(t, ok)
	require.Len(t, msgs, 2)
	user := msgs[1].(map[string]any)
	assert.Contains(t, user["content"], `"100g of Magerquark"`)
}

func TestOpenAIExtractor_FailuresAreExtractionErrors(t *testing.T) {
	cases := map[string]string{
		"invalid json":   `not json at all`,
		"missing field":  `{"calories": 60, "protein": 12, "carbs": 3}`,
		"non numeric":    `{"calories": "sixty", "protein": 12, "carbs": 3, "fats": 0}`,
		"negative value": `{"calories": -5, "protein": 12, "carbs": 3, "fats": 0}`,
		"empty content":  `   `,
	}
	for name, content := range cases {
		t.Run(name, func(t *testing.T) {
			srv := fakeCompletionServer(t, content, nil)
			e := newTestExtractor(t, srv.URL)

			_, err := e.Extract(context.Background(), "something")
			require.Error(t, err)
			assert.ErrorIs(t, err, apperror.ErrExtraction)
		})
	}
}

func TestOpenAIExtractor_UpstreamError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte(`{"error":{"message":"boom","type":"server_error"}}`))
	}))
	defer srv.Close()

	e := newTestExtractor(t, srv.URL)
	_, err := e.Extract(context.Background(), "two eggs")
	require.Error(t, err)
	assert.Equal(t, apperror.KindExtraction, apperror.KindOf(err))
}

func TestNewOpenAIExtractor_RequiresKey(t *testing.T) {
	_, err := NewOpenAIExtractor(config.NutritionConfig{})
	assert.ErrorIs(t, err, ErrNotConfigured)
}

func TestParseMacrosJSON_CodeFence(t *testing.T) {
	m, err := ParseMacrosJSON("```json\n{\"calories\": 70, \"protein\": 2.5, \"carbs\": 2.5, \"fats\": 6}\n```")
	require.NoError(t, err)
	assert.Equal(t, 2.5, m.Protein)
}

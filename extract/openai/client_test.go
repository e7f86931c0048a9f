package openai

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"orderagent"
)

func cannedCompletion(args string) string {
	resp := map[string]any{
		"choices": []any{
			map[string]any{
				"message": map[string]any{
					"tool_calls": []any{
						map[string]any{
							"function": map[string]any{
								"name":      "process_user_order",
								"arguments": args,
							},
						},
					},
				},
			},
		},
		"usage": map[string]any{
			"prompt_tokens":     100,
			"completion_tokens": 20,
			"total_tokens":      120,
		},
	}
	b, _ := json.Marshal(resp)
	return string(b)
}

func newTestClient(t *testing.T, handler http.HandlerFunc) (*Client, *httptest.Server) {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	client, err := NewClient(ClientOpts{
		BaseEndpoint: server.URL,
		APIKey:       "test-key",
		ModelID:      "gpt-4o",
		HTTPClient:   http.DefaultClient,
	})
	require.NoError(t, err)
	return client, server
}

func TestExtract(t *testing.T) {
	t.Run("decodes forced tool call", func(t *testing.T) {
		var gotReq wireRequest
		client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, "/v1/chat/completions", r.URL.Path)
			assert.Equal(t, "Bearer test-key", r.Header.Get("Authorization"))
			require.NoError(t, json.NewDecoder(r.Body).Decode(&gotReq))

			args := `{"menu_items": [{"name": "Turkey Club", "quantity": 2}], "human_response": "Anything else?", "is_completed": false, "is_finalized": false}`
			w.Write([]byte(cannedCompletion(args)))
		})

		cand, usage, err := client.Extract(context.Background(), orderagent.ExtractionRequest{
			Schema: orderagent.SchemaInitial,
			System: "You are an order taker.",
			Messages: []orderagent.Message{
				{Role: "user", Content: "two turkey clubs please"},
			},
		})
		require.NoError(t, err)

		require.Len(t, cand.MenuItems, 1)
		assert.Equal(t, "Turkey Club", cand.MenuItems[0].Name)
		assert.Equal(t, 2, cand.MenuItems[0].Quantity)
		assert.Equal(t, 120, usage.TotalTokens)

		// the request forces the phase's function
		require.Len(t, gotReq.Tools, 1)
		assert.Equal(t, "process_user_order", gotReq.Tools[0].Function.Name)
		assert.Equal(t, "process_user_order", gotReq.ToolChoice.Function.Name)
		require.Len(t, gotReq.Messages, 2)
		assert.Equal(t, "system", gotReq.Messages[0].Role)
	})

	t.Run("malformed arguments come back as format error", func(t *testing.T) {
		client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte(cannedCompletion(`{"menu_items": []}`)))
		})

		_, usage, err := client.Extract(context.Background(), orderagent.ExtractionRequest{Schema: orderagent.SchemaInitial})
		var fe *orderagent.FormatError
		require.ErrorAs(t, err, &fe)
		assert.Equal(t, 120, usage.TotalTokens)
	})

	t.Run("missing tool call is a format error", func(t *testing.T) {
		client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte(`{"choices": [{"message": {}}], "usage": {}}`))
		})

		_, _, err := client.Extract(context.Background(), orderagent.ExtractionRequest{Schema: orderagent.SchemaClarify})
		var fe *orderagent.FormatError
		assert.ErrorAs(t, err, &fe)
	})

	t.Run("non-200 is an error", func(t *testing.T) {
		client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			http.Error(w, "rate limited", http.StatusTooManyRequests)
		})

		_, _, err := client.Extract(context.Background(), orderagent.ExtractionRequest{Schema: orderagent.SchemaInitial})
		require.Error(t, err)
		var fe *orderagent.FormatError
		assert.False(t, errors.As(err, &fe))
	})
}

func TestNewClient(t *testing.T) {
	t.Run("requires an API key", func(t *testing.T) {
		_, err := NewClient(ClientOpts{HTTPClient: http.DefaultClient})
		assert.Error(t, err)
	})

	t.Run("requires an HTTP client", func(t *testing.T) {
		_, err := NewClient(ClientOpts{APIKey: "k"})
		assert.Error(t, err)
	})
}

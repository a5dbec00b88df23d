package adapters_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/arnavsurve/ideflow/pkg/adapter"
	"github.com/arnavsurve/ideflow/pkg/adapter/adapters"
	"github.com/arnavsurve/ideflow/pkg/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHTTPAdapter_Execute(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/echo":
			var body map[string]any
			_ = json.NewDecoder(r.Body).Decode(&body)
			w.Header().Set("Content-Type", "application/json")
			_ = json.NewEncoder(w).Encode(map[string]any{
				"method":       r.Method,
				"content_type": r.Header.Get("Content-Type"),
				"token":        r.Header.Get("X-Token"),
				"received":     body,
			})
		case "/text":
			_, _ = w.Write([]byte("plain text"))
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	defer server.Close()

	ha := adapters.NewHTTPAdapter(adapter.Settings{}, log.Nop())

	t.Run("post json body", func(t *testing.T) {
		res := ha.Execute(context.Background(), "request", map[string]any{
			"method":  "post",
			"url":     server.URL + "/echo",
			"headers": map[string]any{"X-Token": "abc"},
			"body":    map[string]any{"name": "ideflow"},
		})
		require.True(t, res.Success, res.Error)
		out := res.Output.(map[string]any)
		assert.Equal(t, 200, out["status_code"])
		body := out["body"].(map[string]any)
		assert.Equal(t, "POST", body["method"])
		assert.Equal(t, "application/json", body["content_type"])
		assert.Equal(t, "abc", body["token"])
		assert.Equal(t, map[string]any{"name": "ideflow"}, body["received"])
	})

	t.Run("text body defaults to GET", func(t *testing.T) {
		res := ha.Execute(context.Background(), "request", map[string]any{"url": server.URL + "/text"})
		require.True(t, res.Success, res.Error)
		assert.Equal(t, "plain text", res.Output.(map[string]any)["body"])
	})

	t.Run("non-2xx fails", func(t *testing.T) {
		res := ha.Execute(context.Background(), "request", map[string]any{"url": server.URL + "/missing"})
		assert.False(t, res.Success)
		assert.Contains(t, res.Error, "status 404")
		assert.Equal(t, 404, res.Output.(map[string]any)["status_code"])
	})

	t.Run("missing url", func(t *testing.T) {
		res := ha.Execute(context.Background(), "request", map[string]any{})
		assert.False(t, res.Success)
		assert.Contains(t, res.Error, "'url' is required")
	})

	t.Run("bad headers type", func(t *testing.T) {
		err := ha.Validate("request", map[string]any{"url": "http://x", "headers": "nope"})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "'headers' must be a mapping")
	})
}

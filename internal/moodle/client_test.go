package moodle

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewClient(t *testing.T) {
	t.Parallel()

	t.Run("valid course url", func(t *testing.T) {
		t.Parallel()

		c, err := NewClient("https://moodle.example/course/view.php?id=1", "cookie", 0, "agent")
		require.NoError(t, err)
		require.NotNil(t, c)
	})

	t.Run("rejects url without host", func(t *testing.T) {
		t.Parallel()

		_, err := NewClient("not a url", "cookie", 0, "agent")
		require.Error(t, err)
	})
}

func TestClientPage(t *testing.T) {
	t.Parallel()

	t.Run("sends cookie and user agent", func(t *testing.T) {
		t.Parallel()

		var gotAgent, gotCookie string
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			gotAgent = r.Header.Get("User-Agent")
			if c, err := r.Cookie(sessionCookie); err == nil {
				gotCookie = c.Value
			}
			_, _ = w.Write([]byte("<html>ok</html>"))
		}))
		defer srv.Close()

		client, err := NewClient(srv.URL+"/course/view.php?id=1", "secret", 0, "test-agent")
		require.NoError(t, err)

		body, err := client.Page(context.Background(), srv.URL+"/course/view.php?id=1")
		require.NoError(t, err)

		assert.Equal(t, "<html>ok</html>", body)
		assert.Equal(t, "test-agent", gotAgent)
		assert.Equal(t, "secret", gotCookie)
	})

	t.Run("error status surfaces", func(t *testing.T) {
		t.Parallel()

		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusInternalServerError)
		}))
		defer srv.Close()

		client, err := NewClient(srv.URL, "cookie", 0, "agent")
		require.NoError(t, err)

		_, err = client.Page(context.Background(), srv.URL+"/broken")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "status 500")
	})
}

func TestClientState(t *testing.T) {
	t.Parallel()

	t.Run("posts envelope and unwraps data", func(t *testing.T) {
		t.Parallel()

		const inner = `{"section":[{"title":"Week 1"}],"cm":[]}`

		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			require.Equal(t, http.MethodPost, r.Method)
			require.Equal(t, "/lib/ajax/service.php", r.URL.Path)
			assert.Equal(t, "k3y", r.URL.Query().Get("sesskey"))
			assert.Equal(t, stateMethod, r.URL.Query().Get("info"))

			var calls []map[string]any
			require.NoError(t, json.NewDecoder(r.Body).Decode(&calls))
			require.Len(t, calls, 1)
			assert.Equal(t, stateMethod, calls[0]["methodname"])
			args, ok := calls[0]["args"].(map[string]any)
			require.True(t, ok)
			assert.Equal(t, float64(42), args["courseid"])

			require.NoError(t, json.NewEncoder(w).Encode([]map[string]any{
				{"error": false, "data": inner},
			}))
		}))
		defer srv.Close()

		client, err := NewClient(srv.URL, "cookie", 0, "agent")
		require.NoError(t, err)

		data, err := client.State(context.Background(), 42, "k3y")
		require.NoError(t, err)
		assert.JSONEq(t, inner, string(data))
	})

	t.Run("service exception surfaces", func(t *testing.T) {
		t.Parallel()

		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			_, _ = w.Write([]byte(`[{"error":true,"exception":{"message":"Invalid sesskey"}}]`))
		}))
		defer srv.Close()

		client, err := NewClient(srv.URL, "cookie", 0, "agent")
		require.NoError(t, err)

		_, err = client.State(context.Background(), 42, "bad")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "Invalid sesskey")
	})

	t.Run("error status surfaces", func(t *testing.T) {
		t.Parallel()

		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusForbidden)
		}))
		defer srv.Close()

		client, err := NewClient(srv.URL, "cookie", 0, "agent")
		require.NoError(t, err)

		_, err = client.State(context.Background(), 42, "key")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "status 403")
	})
}

package flowise

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAskPayloadShape(t *testing.T) {
	var gotAuth string
	var gotBody askRequest

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotBody))
		_, _ = w.Write([]byte(`{"text":"answer"}`))
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "secret-key", time.Second)
	answer, err := c.Ask(context.Background(), 42, "what is up", []string{"U:hi", "A:hello"})

	require.NoError(t, err)
	assert.Equal(t, "answer", answer)
	assert.Equal(t, "Bearer secret-key", gotAuth)
	assert.Equal(t, "what is up", gotBody.Question)
	assert.Equal(t, "42", gotBody.OverrideConfig.SessionID)
	assert.Equal(t, []string{"U:hi", "A:hello"}, gotBody.OverrideConfig.Metadata.History)
}

func TestAskWithoutAPIKeySendsNoAuth(t *testing.T) {
	var sawAuth bool

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, sawAuth = r.Header["Authorization"]
		_, _ = w.Write([]byte(`{"text":"ok"}`))
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "", time.Second)
	_, err := c.Ask(context.Background(), 1, "q", nil)

	require.NoError(t, err)
	assert.False(t, sawAuth)
}

func TestAskAnswerPriority(t *testing.T) {
	tests := []struct {
		name string
		body string
		want string
	}{
		{"text wins over output", `{"text":"from text","output":"from output"}`, "from text"},
		{"output wins over data", `{"output":"from output","data":"from data"}`, "from output"},
		{"data alone", `{"data":"from data"}`, "from data"},
		{"none populated", `{}`, "Sem resposta."},
		{"extra keys ignored", `{"output":"hi","sessionId":"x","chatId":9}`, "hi"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				_, _ = w.Write([]byte(tt.body))
			}))
			defer srv.Close()

			c := NewClient(srv.URL, "", time.Second)
			answer, err := c.Ask(context.Background(), 1, "q", nil)

			require.NoError(t, err)
			assert.Equal(t, tt.want, answer)
		})
	}
}

func TestAskServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "", time.Second)
	_, err := c.Ask(context.Background(), 1, "q", nil)

	require.Error(t, err)
	assert.Contains(t, err.Error(), "flowise http 500")
}

func TestAskUnparsableBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`not json`))
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "", time.Second)
	_, err := c.Ask(context.Background(), 1, "q", nil)

	require.Error(t, err)
	assert.Contains(t, err.Error(), "flowise response")
}

func TestAskTimeout(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(300 * time.Millisecond)
		_, _ = w.Write([]byte(`{"text":"late"}`))
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "", 50*time.Millisecond)
	_, err := c.Ask(context.Background(), 1, "q", nil)

	require.Error(t, err)
}

func TestAskNilHistoryMarshalsAsEmptyArray(t *testing.T) {
	var raw map[string]any

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, json.NewDecoder(r.Body).Decode(&raw))
		_, _ = w.Write([]byte(`{"text":"ok"}`))
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "", time.Second)
	_, err := c.Ask(context.Background(), 1, "q", nil)
	require.NoError(t, err)

	override, ok := raw["overrideConfig"].(map[string]any)
	require.True(t, ok)
	meta, ok := override["metadata"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, []any{}, meta["history"])
}

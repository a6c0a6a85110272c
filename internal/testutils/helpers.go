package testutils

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
)

// ModelServer is a scripted request/response model endpoint.
// It accepts any probe and answers completions with the queued replies in order.
type ModelServer struct {
	*httptest.Server

	mu      sync.Mutex
	replies []string
	prompts []string
	// APIKey, when set, makes probes with another key fail with 401.
	APIKey string
}

// NewModelServer starts a ModelServer that is closed when the test ends.
func NewModelServer(t *testing.T, replies ...string) *ModelServer {
	t.Helper()
	m := &ModelServer{replies: replies}

	mux := http.NewServeMux()
	mux.HandleFunc("POST /test", func(w http.ResponseWriter, r *http.Request) {
		var body struct {
			APIKey string `json:"api_key"`
		}
		_ = json.NewDecoder(r.Body).Decode(&body)
		if m.APIKey != "" && body.APIKey != m.APIKey {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		w.WriteHeader(http.StatusOK)
	})
	mux.HandleFunc("POST /v1/completions", func(w http.ResponseWriter, r *http.Request) {
		var body struct {
			Prompt string `json:"prompt"`
		}
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			http.Error(w, `{"error":"bad request"}`, http.StatusBadRequest)
			return
		}

		m.mu.Lock()
		m.prompts = append(m.prompts, body.Prompt)
		if len(m.replies) == 0 {
			m.mu.Unlock()
			w.WriteHeader(http.StatusServiceUnavailable)
			_ = json.NewEncoder(w).Encode(map[string]string{"error": "no scripted reply left"})
			return
		}
		reply := m.replies[0]
		m.replies = m.replies[1:]
		m.mu.Unlock()

		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]string{"text": reply})
	})

	m.Server = httptest.NewServer(mux)
	t.Cleanup(m.Close)
	return m
}

// Queue appends replies.
func (m *ModelServer) Queue(replies ...string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.replies = append(m.replies, replies...)
}

// Prompts returns every completion prompt received so far.
func (m *ModelServer) Prompts() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.prompts...)
}

// SummarizeScript is a complete four-exchange run for a single-step plan.
func SummarizeScript() []string {
	return []string{
		`{"summary":"Summarize a paragraph","requestType":"task","complexity":"simple","domains":["writing"]}`,
		`[{"title":"Summarize","description":"Condense the paragraph"}]`,
		"The paragraph says X.",
		"Summary: X",
	}
}

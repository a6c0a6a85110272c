package transport

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/gorilla/websocket"
)

// wireRequest is what the fake server decodes from the client.
type wireRequest struct {
	Type        string  `json:"type"`
	APIKey      string  `json:"apiKey"`
	RequestID   string  `json:"requestId"`
	Model       string  `json:"model"`
	Prompt      string  `json:"prompt"`
	Temperature float64 `json:"temperature"`
	MaxTokens   int     `json:"max_tokens"`
}

// fakeSocketServer is a scripted WebSocket model server. Built without a key it
// expects no auth message and rejects one if it arrives.
type fakeSocketServer struct {
	t      *testing.T
	srv    *httptest.Server
	apiKey string

	// onCompletion returns the messages sent back for a completion request.
	// A nil handler echoes the prompt as the completion text.
	onCompletion func(conn *websocket.Conn, req wireRequest)

	mu       sync.Mutex
	received []wireRequest
	conns    int
}

func newFakeSocketServer(t *testing.T, apiKey string) *fakeSocketServer {
	t.Helper()
	f := &fakeSocketServer{t: t, apiKey: apiKey}
	upgrader := websocket.Upgrader{CheckOrigin: func(*http.Request) bool { return true }}

	f.srv = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		defer conn.Close()

		f.mu.Lock()
		f.conns++
		f.mu.Unlock()

		for {
			_, data, err := conn.ReadMessage()
			if err != nil {
				return
			}
			var req wireRequest
			if err := json.Unmarshal(data, &req); err != nil {
				continue
			}
			f.mu.Lock()
			f.received = append(f.received, req)
			handler := f.onCompletion
			f.mu.Unlock()

			switch req.Type {
			case "auth":
				if f.apiKey == "" {
					_ = conn.WriteJSON(map[string]any{"type": "auth_result", "success": false, "message": "unexpected auth"})
					continue
				}
				if req.APIKey != f.apiKey {
					_ = conn.WriteJSON(map[string]any{"type": "auth_result", "success": false, "message": "invalid api key"})
					continue
				}
				_ = conn.WriteJSON(map[string]any{"type": "auth_result", "success": true})
			case "completion":
				if handler != nil {
					handler(conn, req)
					continue
				}
				_ = conn.WriteJSON(map[string]any{"type": "completion_result", "requestId": req.RequestID, "text": "echo: " + req.Prompt})
			}
		}
	}))
	t.Cleanup(f.srv.Close)
	return f
}

func (f *fakeSocketServer) url() string {
	return "ws" + strings.TrimPrefix(f.srv.URL, "http")
}

func (f *fakeSocketServer) setHandler(h func(conn *websocket.Conn, req wireRequest)) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.onCompletion = h
}

func (f *fakeSocketServer) requests(kind string) []wireRequest {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []wireRequest
	for _, r := range f.received {
		if r.Type == kind {
			out = append(out, r)
		}
	}
	return out
}

func (f *fakeSocketServer) connections() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.conns
}

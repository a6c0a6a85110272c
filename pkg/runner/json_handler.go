package runner

import (
	"bufio"
	"context"
	"encoding/json"
	"io"
	"os"
	"strings"
	"sync"

	"github.com/aretw0/tendril/pkg/domain"
)

// JSONHandler implements IOHandler for JSON-lines communication.
//
// Each input line is a JSON string, an object {"request": "..."}, or raw text.
// Each output line is one event object with a "type" field.
type JSONHandler struct {
	Reader *bufio.Reader

	mu      sync.Mutex
	encoder *json.Encoder
}

// Event is one JSON-lines output record.
type Event struct {
	Type    string                `json:"type"`
	Result  *domain.ProcessResult `json:"result,omitempty"`
	Name    string                `json:"name,omitempty"`
	Args    map[string]any        `json:"args,omitempty"`
	Message string                `json:"message,omitempty"`
}

// Event types written by JSONHandler.
const (
	EventResult = "result"
	EventSignal = "signal"
	EventSystem = "system"
)

// NewJSONHandler creates a handler for JSON IO.
func NewJSONHandler(r io.Reader, w io.Writer) *JSONHandler {
	if r == nil {
		r = os.Stdin
	}
	if w == nil {
		w = os.Stdout
	}
	return &JSONHandler{
		Reader:  bufio.NewReader(r),
		encoder: json.NewEncoder(w),
	}
}

// Input reads one line. It does not honor ctx while blocked on the reader; headless
// hosts end the loop by closing the input.
func (h *JSONHandler) Input(ctx context.Context) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	line, err := h.Reader.ReadString('\n')
	if err != nil && (err != io.EOF || strings.TrimSpace(line) == "") {
		return "", err
	}
	line = strings.TrimSpace(line)

	var text string
	var obj struct {
		Request string `json:"request"`
	}
	switch {
	case json.Unmarshal([]byte(line), &text) == nil:
	case json.Unmarshal([]byte(line), &obj) == nil && obj.Request != "":
		text = obj.Request
	default:
		text = line
	}

	clean, err := SanitizeInput(text)
	if err != nil {
		_ = h.emit(Event{Type: EventSystem, Message: err.Error()})
		return "", nil
	}
	return clean, nil
}

// Output writes the result as a single event line.
func (h *JSONHandler) Output(ctx context.Context, result domain.ProcessResult) error {
	return h.emit(Event{Type: EventResult, Result: &result})
}

// Signal writes a signal event.
func (h *JSONHandler) Signal(ctx context.Context, name string, args map[string]any) error {
	return h.emit(Event{Type: EventSignal, Name: name, Args: args})
}

// SystemOutput writes a system event.
func (h *JSONHandler) SystemOutput(ctx context.Context, msg string) error {
	return h.emit(Event{Type: EventSystem, Message: msg})
}

func (h *JSONHandler) emit(e Event) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.encoder.Encode(e)
}

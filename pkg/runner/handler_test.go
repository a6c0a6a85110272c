package runner

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/aretw0/tendril/pkg/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTextHandler_OutputUsesRenderer(t *testing.T) {
	var out bytes.Buffer
	h := NewTextHandler(strings.NewReader(""), &out, WithTextHandlerRenderer(func(s string) (string, error) {
		return "Rendered: " + s, nil
	}))

	err := h.Output(context.Background(), domain.ProcessResult{
		Success:       true,
		Steps:         []domain.TraceEntry{{StepNumber: 1, Title: "Planning", Content: "Breaking down task into 2 steps"}},
		FinalResponse: "**done**",
	})
	require.NoError(t, err)
	assert.Contains(t, out.String(), "1. Planning\n   Breaking down task into 2 steps")
	assert.Contains(t, out.String(), "Rendered: **done**")
}

func TestTextHandler_InputRetriesOnInvalidInput(t *testing.T) {
	t.Setenv(EnvMaxInputSize, "10")
	var out bytes.Buffer
	h := NewTextHandler(strings.NewReader("this line is too long\nshort\n"), &out)

	got, err := h.Input(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "short", got)
	assert.Contains(t, out.String(), "input exceeds maximum allowed size")

	_, err = h.Input(context.Background())
	assert.ErrorIs(t, err, io.EOF)
}

func TestTextHandler_InputHonorsCancellation(t *testing.T) {
	pr, pw := io.Pipe()
	defer pw.Close()
	h := NewTextHandler(pr, &bytes.Buffer{})

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	_, err := h.Input(ctx)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestJSONHandler_Events(t *testing.T) {
	var out bytes.Buffer
	h := NewJSONHandler(strings.NewReader(""), &out)
	ctx := context.Background()

	require.NoError(t, h.SystemOutput(ctx, "ready"))
	require.NoError(t, h.Output(ctx, domain.ProcessResult{Success: false, Error: "boom"}))

	lines := strings.Split(strings.TrimSpace(out.String()), "\n")
	require.Len(t, lines, 2)

	var sys Event
	require.NoError(t, json.Unmarshal([]byte(lines[0]), &sys))
	assert.Equal(t, EventSystem, sys.Type)
	assert.Equal(t, "ready", sys.Message)

	var res Event
	require.NoError(t, json.Unmarshal([]byte(lines[1]), &res))
	assert.Equal(t, EventResult, res.Type)
	require.NotNil(t, res.Result)
	assert.Equal(t, "boom", res.Result.Error)
}

func TestJSONHandler_InputWithoutTrailingNewline(t *testing.T) {
	h := NewJSONHandler(strings.NewReader(`{"request":"last"}`), &bytes.Buffer{})

	got, err := h.Input(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "last", got)

	_, err = h.Input(context.Background())
	assert.ErrorIs(t, err, io.EOF)
}

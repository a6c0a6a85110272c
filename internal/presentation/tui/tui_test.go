package tui

import (
	"bytes"
	"strings"
	"testing"

	"github.com/aretw0/tendril/pkg/domain"
	"github.com/aretw0/tendril/pkg/runner"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRenderer_RendersMarkdown(t *testing.T) {
	render := NewRenderer(40)

	out, err := render("# Result\n\nThe paragraph says X.")
	require.NoError(t, err)
	assert.Contains(t, out, "Result")
	assert.Contains(t, out, "The paragraph says X.")
}

func TestBanner_PlainWriter(t *testing.T) {
	var buf bytes.Buffer
	PrintBanner(&buf)

	out := buf.String()
	assert.NotContains(t, out, "\x1b[", "no escapes outside a terminal")
	for _, line := range bannerLines {
		assert.Contains(t, out, line)
	}
}

func TestStepFormatter_PlainWriterMatchesDefault(t *testing.T) {
	var buf bytes.Buffer
	format := NewStepFormatter(&buf)
	step := domain.TraceEntry{StepNumber: 2, Title: "Planning", Content: "Breaking down task into 1 steps"}

	assert.Equal(t, runner.FormatStep(step), format(step))
}

func TestStepFormatter_WithTextHandler(t *testing.T) {
	var buf bytes.Buffer
	h := runner.NewTextHandler(strings.NewReader(""), &buf,
		runner.WithTextHandlerStepFormatter(NewStepFormatter(&buf)),
		runner.WithTextHandlerRenderer(NewRenderer(0)),
	)

	err := h.Output(t.Context(), domain.ProcessResult{
		Success:       true,
		Steps:         []domain.TraceEntry{{StepNumber: 1, Title: "Request Analysis", Content: "Understanding request: hi"}},
		FinalResponse: "Hello there",
	})
	require.NoError(t, err)
	assert.Contains(t, buf.String(), "1. Request Analysis\n   Understanding request: hi")
	assert.Contains(t, buf.String(), "Hello there")
}

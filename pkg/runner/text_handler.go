package runner

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"sync"

	"github.com/aretw0/tendril/pkg/domain"
)

// TextHandler implements IOHandler for interactive terminals.
type TextHandler struct {
	Reader   *bufio.Reader
	Writer   io.Writer
	Renderer ContentRenderer

	// FormatStep renders one trace entry. Defaults to "N. Title" over an indented content line.
	FormatStep StepFormatter

	// Prompt is printed before every read.
	Prompt string

	inputChan chan inputResult
	startOnce sync.Once
}

type inputResult struct {
	text string
	err  error
}

// TextHandlerOption defines configuration for TextHandler.
type TextHandlerOption func(*TextHandler)

// WithTextHandlerRenderer configures the content renderer for final responses.
func WithTextHandlerRenderer(renderer ContentRenderer) TextHandlerOption {
	return func(h *TextHandler) {
		h.Renderer = renderer
	}
}

// WithTextHandlerStepFormatter overrides how trace entries are printed.
func WithTextHandlerStepFormatter(format StepFormatter) TextHandlerOption {
	return func(h *TextHandler) {
		h.FormatStep = format
	}
}

// WithTextHandlerPrompt overrides the input prompt.
func WithTextHandlerPrompt(prompt string) TextHandlerOption {
	return func(h *TextHandler) {
		h.Prompt = prompt
	}
}

// NewTextHandler creates a handler for standard text IO.
func NewTextHandler(r io.Reader, w io.Writer, opts ...TextHandlerOption) *TextHandler {
	if r == nil {
		r = os.Stdin
	}
	if w == nil {
		w = os.Stdout
	}
	h := &TextHandler{
		Reader:     bufio.NewReader(r),
		Writer:     w,
		Prompt:     "> ",
		FormatStep: FormatStep,
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// initPump starts the goroutine that reads lines, so Input can honor cancellation.
func (h *TextHandler) initPump() {
	h.startOnce.Do(func() {
		h.inputChan = make(chan inputResult)
		go h.pump()
	})
}

func (h *TextHandler) pump() {
	defer close(h.inputChan)
	for {
		text, err := h.Reader.ReadString('\n')
		if text != "" {
			h.inputChan <- inputResult{text: text}
		}
		if err != nil {
			if err != io.EOF {
				h.inputChan <- inputResult{err: err}
			}
			return
		}
	}
}

// Input reads one line. Lines rejected by SanitizeInput are reported and read again.
func (h *TextHandler) Input(ctx context.Context) (string, error) {
	h.initPump()

	for {
		select {
		case <-ctx.Done():
			return "", ctx.Err()
		default:
			fmt.Fprint(h.Writer, h.Prompt)
		}

		select {
		case <-ctx.Done():
			return "", ctx.Err()
		case res, ok := <-h.inputChan:
			if !ok {
				return "", io.EOF
			}
			if res.err != nil {
				return "", res.err
			}
			clean, err := SanitizeInput(strings.TrimSpace(res.text))
			if err != nil {
				fmt.Fprintf(h.Writer, "Error: %v. Please try again.\n", err)
				continue
			}
			return clean, nil
		}
	}
}

// Output prints the numbered trace followed by the final response.
func (h *TextHandler) Output(ctx context.Context, result domain.ProcessResult) error {
	if !result.Success {
		_, err := fmt.Fprintf(h.Writer, "Error: %s\n", result.Error)
		return err
	}

	for _, step := range result.Steps {
		if _, err := fmt.Fprintln(h.Writer, h.FormatStep(step)); err != nil {
			return err
		}
	}

	output := result.FinalResponse
	if h.Renderer != nil {
		if rendered, err := h.Renderer(output); err == nil {
			output = rendered
		}
	}
	_, err := fmt.Fprintf(h.Writer, "\n%s\n\n", strings.TrimSpace(output))
	return err
}

// FormatStep is the plain trace layout.
func FormatStep(step domain.TraceEntry) string {
	return fmt.Sprintf("%d. %s\n   %s", step.StepNumber, step.Title, step.Content)
}

// Signal shows a one-line status for long-running events.
func (h *TextHandler) Signal(ctx context.Context, name string, args map[string]any) error {
	if name == SignalThinking {
		_, err := fmt.Fprintln(h.Writer, "Thinking...")
		return err
	}
	return nil
}

// SystemOutput prints a meta-message with a "[System]" prefix.
func (h *TextHandler) SystemOutput(ctx context.Context, msg string) error {
	_, err := fmt.Fprintf(h.Writer, "[System] %s\n", msg)
	return err
}

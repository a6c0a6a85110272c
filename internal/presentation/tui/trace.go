package tui

import (
	"fmt"
	"io"

	"github.com/aretw0/tendril/pkg/domain"
	"github.com/aretw0/tendril/pkg/runner"
	"github.com/muesli/termenv"
)

// NewStepFormatter styles trace entries for the terminal behind w:
// a bold numbered title over a faint content line.
func NewStepFormatter(w io.Writer) runner.StepFormatter {
	out := termenv.NewOutput(w)
	return func(step domain.TraceEntry) string {
		title := out.String(fmt.Sprintf("%d. %s", step.StepNumber, step.Title)).
			Foreground(out.Color("#2dd4bf")).
			Bold()
		content := out.String(step.Content).Faint()
		return fmt.Sprintf("%s\n   %s", title, content)
	}
}

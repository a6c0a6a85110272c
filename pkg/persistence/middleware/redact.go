package middleware

import (
	"context"
	"regexp"

	"github.com/aretw0/tendril/pkg/domain"
	"github.com/aretw0/tendril/pkg/ports"
)

// DefaultRedactPatterns mask common credentials and e-mail addresses.
var DefaultRedactPatterns = []string{
	`(?i)\b(?:sk|pk|api|key)[-_][A-Za-z0-9]{16,}\b`,
	`(?i)bearer\s+[A-Za-z0-9._~+/-]+=*`,
	`[A-Za-z0-9._%+-]+@[A-Za-z0-9.-]+\.[A-Za-z]{2,}`,
}

const mask = "***"

type redactMiddleware struct {
	next     ports.RunStore
	patterns []*regexp.Regexp
}

// NewRedactMiddleware creates a middleware that masks every substring matching one of
// the patterns in the request, trace, response and error text before saving.
func NewRedactMiddleware(patternStrings []string) (Middleware, error) {
	patterns := make([]*regexp.Regexp, len(patternStrings))
	for i, p := range patternStrings {
		re, err := regexp.Compile(p)
		if err != nil {
			return nil, err
		}
		patterns[i] = re
	}
	return func(next ports.RunStore) ports.RunStore {
		return &redactMiddleware{next: next, patterns: patterns}
	}, nil
}

func (m *redactMiddleware) Save(ctx context.Context, record *domain.RunRecord) error {
	// Work on a copy: the caller still holds the original record.
	cloned := *record
	cloned.Request = m.redact(record.Request)
	cloned.Result.FinalResponse = m.redact(record.Result.FinalResponse)
	cloned.Result.Error = m.redact(record.Result.Error)
	cloned.Result.Steps = make([]domain.TraceEntry, len(record.Result.Steps))
	for i, step := range record.Result.Steps {
		step.Title = m.redact(step.Title)
		step.Content = m.redact(step.Content)
		cloned.Result.Steps[i] = step
	}
	return m.next.Save(ctx, &cloned)
}

func (m *redactMiddleware) Load(ctx context.Context, runID string) (*domain.RunRecord, error) {
	return m.next.Load(ctx, runID)
}

func (m *redactMiddleware) Delete(ctx context.Context, runID string) error {
	return m.next.Delete(ctx, runID)
}

func (m *redactMiddleware) List(ctx context.Context) ([]string, error) {
	return m.next.List(ctx)
}

func (m *redactMiddleware) redact(s string) string {
	for _, p := range m.patterns {
		s = p.ReplaceAllString(s, mask)
	}
	return s
}

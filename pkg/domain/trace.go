package domain

import "time"

// TraceEntry is one line of the human-readable execution trace.
type TraceEntry struct {
	StepNumber int    `json:"stepNumber"`
	Title      string `json:"title"`
	Content    string `json:"content"`
}

// ExecutionTrace is the append-only log of a single orchestration run.
type ExecutionTrace struct {
	entries []TraceEntry
}

// Append adds an entry, numbering it after the previous one.
func (t *ExecutionTrace) Append(title, content string) TraceEntry {
	entry := TraceEntry{
		StepNumber: len(t.entries) + 1,
		Title:      title,
		Content:    content,
	}
	t.entries = append(t.entries, entry)
	return entry
}

// Entries returns a copy of the recorded entries.
func (t *ExecutionTrace) Entries() []TraceEntry {
	out := make([]TraceEntry, len(t.entries))
	copy(out, t.entries)
	return out
}

// Len returns the number of recorded entries.
func (t *ExecutionTrace) Len() int {
	return len(t.entries)
}

// ConnectionResult is the caller-facing outcome of a connect call.
type ConnectionResult struct {
	Success bool   `json:"success"`
	Error   string `json:"error,omitempty"`
}

// ProcessResult is the caller-facing outcome of one orchestration run.
// On failure only Error is set: partial traces are never returned.
type ProcessResult struct {
	Success       bool         `json:"success"`
	Steps         []TraceEntry `json:"steps,omitempty"`
	FinalResponse string       `json:"finalResponse,omitempty"`
	Error         string       `json:"error,omitempty"`
}

// FailedResult wraps err into a ProcessResult.
func FailedResult(err error) ProcessResult {
	return ProcessResult{Success: false, Error: err.Error()}
}

// RunRecord keeps the outcome of a finished run for later lookup by the service surfaces.
type RunRecord struct {
	ID         string        `json:"id"`
	Request    string        `json:"request"`
	Result     ProcessResult `json:"result"`
	StartedAt  time.Time     `json:"startedAt"`
	FinishedAt time.Time     `json:"finishedAt"`

	// Sealed holds the encrypted record when a store middleware hides the content.
	Sealed string `json:"sealed,omitempty"`
}

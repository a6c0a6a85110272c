package orchestrator

import (
	"context"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/aretw0/tendril/pkg/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testConfig = domain.ServerConfig{URL: "http://localhost:8000", Model: "test"}

func TestProcess_SingleStepRun(t *testing.T) {
	tr := &scriptedTransport{replies: []string{
		`{"summary":"summarize text","requestType":"task","complexity":"simple","domains":["writing"]}`,
		`[{"title":"Read","description":"Read the paragraph"}]`,
		"A short summary of the paragraph.",
		"Final answer.",
	}}
	o := New(tr)

	res, err := o.Process(context.Background(), "Summarize this paragraph", testConfig)
	require.NoError(t, err)

	assert.True(t, res.Success)
	assert.Equal(t, "Final answer.", res.FinalResponse)
	assert.Empty(t, res.Error)
	assert.Equal(t, []domain.TraceEntry{
		{StepNumber: 1, Title: "Request Analysis", Content: "Understanding request: summarize text"},
		{StepNumber: 2, Title: "Planning", Content: "Breaking down task into 1 steps"},
		{StepNumber: 3, Title: "Executing: Read", Content: "Working on: Read the paragraph"},
		{StepNumber: 4, Title: "Step Complete", Content: "Completed: Read - A short summary of the paragraph."},
	}, res.Steps)

	prompts := tr.sent()
	require.Len(t, prompts, 4)
	assert.Contains(t, prompts[0], `"Summarize this paragraph"`)
	assert.Contains(t, prompts[0], `"requestType": "query|task|creation|other"`)
	assert.Contains(t, prompts[1], "JSON array of step objects")
	assert.Contains(t, prompts[2], "Title: Read\nDescription: Read the paragraph")
	assert.Contains(t, prompts[3], "Step 1 result: A short summary of the paragraph.")
	assert.Equal(t, 1, tr.ensures)
}

func TestProcess_ThreadsPreviousResults(t *testing.T) {
	tr := &scriptedTransport{replies: []string{
		`{"summary":"s","requestType":"task","complexity":"medium","domains":[]}`,
		`[{"title":"A","description":"a"},{"title":"B","description":"b"},{"title":"C","description":"c"}]`,
		"first <result>",
		"second \"quoted\"",
		"third",
		"done",
	}}
	o := New(tr)

	res, err := o.Process(context.Background(), "do three things", testConfig)
	require.NoError(t, err)
	require.Len(t, res.Steps, 2+3*2)

	prompts := tr.sent()
	assert.Contains(t, prompts[2], "Previous step results:\n\n")
	assert.NotContains(t, prompts[2], "Step 1 result")

	assert.Contains(t, prompts[3], `Step 1 result: "first <result>"`)
	assert.NotContains(t, prompts[3], "Step 2 result")

	assert.Contains(t, prompts[4], "Step 1 result: \"first <result>\"\nStep 2 result: \"second \\\"quoted\\\"\"")
	assert.NotContains(t, prompts[4], "third")

	assert.Contains(t, prompts[5], "Step 1 result: first <result>\n\nStep 2 result: second \"quoted\"\n\nStep 3 result: third")
}

func TestProcess_FallbacksOnUnparseableReplies(t *testing.T) {
	raw := strings.Repeat("x", 150)
	tr := &scriptedTransport{replies: []string{raw, "no plan here", "result", "final"}}
	o := New(tr)

	res, err := o.Process(context.Background(), "anything", testConfig)
	require.NoError(t, err)
	require.Len(t, res.Steps, 4)

	assert.Equal(t, "Understanding request: "+strings.Repeat("x", 100)+"...", res.Steps[0].Content)
	assert.Equal(t, "Breaking down task into 1 steps", res.Steps[1].Content)
	assert.Equal(t, "Executing: Process request", res.Steps[2].Title)
	assert.Equal(t, "Working on: Complete the user's request directly", res.Steps[2].Content)
}

func TestProcess_EmptyPlanUsesFallback(t *testing.T) {
	tr := &scriptedTransport{replies: []string{`{"summary":"s"}`, `[]`, "result", "final"}}
	o := New(tr)

	res, err := o.Process(context.Background(), "anything", testConfig)
	require.NoError(t, err)
	assert.Equal(t, "Executing: "+domain.FallbackStepTitle, res.Steps[2].Title)
}

func TestProcess_FencedJSON(t *testing.T) {
	tr := &scriptedTransport{replies: []string{
		"```json\n{\"summary\":\"fenced\"}\n```",
		"```\n[{\"title\":\"T\",\"description\":\"D\"}]\n```",
		"r",
		"f",
	}}
	o := New(tr)

	res, err := o.Process(context.Background(), "x", testConfig)
	require.NoError(t, err)
	assert.Equal(t, "Understanding request: fenced", res.Steps[0].Content)
	assert.Equal(t, "Executing: T", res.Steps[2].Title)
}

func TestProcess_LongStepResultIsSummarized(t *testing.T) {
	long := strings.Repeat("y", 80)
	tr := &scriptedTransport{replies: []string{`{"summary":"s"}`, `[{"title":"T","description":"D"}]`, long, "f"}}
	o := New(tr)

	res, err := o.Process(context.Background(), "x", testConfig)
	require.NoError(t, err)
	assert.Equal(t, "Completed: T - "+strings.Repeat("y", 50)+"...", res.Steps[3].Content)
}

func TestProcess_TransportFailureAborts(t *testing.T) {
	tr := &scriptedTransport{
		replies:  []string{`{"summary":"s"}`, `[{"title":"A","description":"a"},{"title":"B","description":"b"}]`, "one"},
		failAt:   4,
		failWith: &domain.RemoteError{Message: "model crashed"},
	}
	o := New(tr)

	res, err := o.Process(context.Background(), "x", testConfig)
	require.ErrorIs(t, err, domain.ErrRemote)
	assert.False(t, res.Success)
	assert.Empty(t, res.Steps)
	assert.Empty(t, res.FinalResponse)
	assert.Contains(t, res.Error, "model crashed")
	assert.Len(t, tr.sent(), 4)
}

func TestProcess_ConnectionFailure(t *testing.T) {
	tr := &scriptedTransport{connErr: domain.ErrConnection}
	o := New(tr)

	res, err := o.Process(context.Background(), "x", testConfig)
	require.ErrorIs(t, err, domain.ErrConnection)
	assert.False(t, res.Success)
	assert.Equal(t, domain.ErrConnection.Error(), res.Error)
	assert.Empty(t, tr.sent())
}

func TestProcess_RejectsOverlappingRuns(t *testing.T) {
	tr := &scriptedTransport{
		replies: []string{`{"summary":"s"}`, `[{"title":"T","description":"D"}]`, "r", "f"},
		block:   make(chan struct{}),
	}
	o := New(tr)

	var wg sync.WaitGroup
	wg.Add(1)
	var first domain.ProcessResult
	go func() {
		defer wg.Done()
		first, _ = o.Process(context.Background(), "first", testConfig)
	}()

	require.Eventually(t, func() bool { return tr.ensuresCount() == 1 }, time.Second, 5*time.Millisecond)

	_, err := o.Process(context.Background(), "second", testConfig)
	assert.ErrorIs(t, err, domain.ErrRunInProgress)

	close(tr.block)
	wg.Wait()
	assert.True(t, first.Success)
}

func TestProcess_Hooks(t *testing.T) {
	tr := &scriptedTransport{replies: []string{`{"summary":"s"}`, `[{"title":"A","description":"a"},{"title":"B","description":"b"}]`, "1", "2", "f"}}

	var (
		mu     sync.Mutex
		starts []domain.Phase
		ends   []domain.PhaseEvent
	)
	clock := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	o := New(tr,
		WithClock(func() time.Time {
			mu.Lock()
			defer mu.Unlock()
			clock = clock.Add(time.Second)
			return clock
		}),
		WithHooks(domain.LifecycleHooks{
			OnPhaseStart: func(_ context.Context, e *domain.PhaseEvent) { starts = append(starts, e.Phase) },
			OnPhaseEnd:   func(_ context.Context, e *domain.PhaseEvent) { ends = append(ends, *e) },
		}),
	)

	_, err := o.Process(context.Background(), "x", testConfig)
	require.NoError(t, err)

	assert.Equal(t, []domain.Phase{
		domain.PhaseAnalyze, domain.PhasePlan, domain.PhaseExecute, domain.PhaseExecute, domain.PhaseSynthesize,
	}, starts)
	require.Len(t, ends, 5)
	assert.Equal(t, 1, ends[2].StepIndex)
	assert.Equal(t, 2, ends[3].StepIndex)
	for _, e := range ends {
		assert.Equal(t, time.Second, e.Duration)
		assert.NoError(t, e.Err)
	}
}

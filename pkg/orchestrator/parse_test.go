package orchestrator

import (
	"testing"

	"github.com/aretw0/tendril/pkg/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStripFences(t *testing.T) {
	assert.Equal(t, `{"a":1}`, stripFences("```json\n{\"a\":1}\n```"))
	assert.Equal(t, `[1]`, stripFences("  ```\n[1]\n```  "))
	assert.Equal(t, `{"a":1}`, stripFences(` {"a":1} `))
}

func TestParseAnalysis(t *testing.T) {
	a, err := parseAnalysis(`{"summary":"s","requestType":"query","complexity":"simple","domains":["math","logic"]}`)
	require.NoError(t, err)
	assert.Equal(t, domain.Analysis{Summary: "s", RequestType: "query", Complexity: "simple", Domains: []string{"math", "logic"}}, a)

	a, err = parseAnalysis(`{"summary":"only"}`)
	require.NoError(t, err)
	assert.Equal(t, []string{}, a.Domains)

	for _, bad := range []string{"plain text", `"a string"`, `null`, `[1,2]`} {
		_, err := parseAnalysis(bad)
		assert.ErrorIs(t, err, domain.ErrParse, bad)
	}
}

func TestParsePlan(t *testing.T) {
	plan, err := parsePlan(`[{"title":"A","description":"a"},{"title":"B","description":"b"}]`)
	require.NoError(t, err)
	assert.Equal(t, domain.StepPlan{{Title: "A", Description: "a"}, {Title: "B", Description: "b"}}, plan)

	for _, bad := range []string{"", "[]", "not json", `["a","b"]`} {
		_, err := parsePlan(bad)
		assert.ErrorIs(t, err, domain.ErrParse, bad)
	}
}

func TestQuote(t *testing.T) {
	assert.Equal(t, `"a <b> & \"c\"\nd"`, quote("a <b> & \"c\"\nd"))
}

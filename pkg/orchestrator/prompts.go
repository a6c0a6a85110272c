package orchestrator

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
)

func analyzePrompt(request string) string {
	return fmt.Sprintf(`Analyze the following user request and provide a summary of what needs to be done:

"%s"

Provide your analysis as JSON with the following structure:
{
  "summary": "brief summary",
  "requestType": "query|task|creation|other",
  "complexity": "simple|medium|complex",
  "domains": ["domain1", "domain2"]
}`, request)
}

func planPrompt(request string) string {
	return fmt.Sprintf(`Given the following user request:

"%s"

Break this down into sequential steps that an AI assistant should follow to fulfill this request.
Return your response as a JSON array of step objects, where each object has a 'title' and 'description'.
Keep the steps focused and specific.`, request)
}

func executePrompt(request, title, description string, previous []string) string {
	return fmt.Sprintf(`You are an AI assistant working on a step-by-step process to fulfill a user's request.

Original user request: "%s"

Current step to execute:
Title: %s
Description: %s

Previous step results:
%s

Execute this step and provide your result. Be thorough and focused on just this step.`,
		request, title, description, stepContext(previous))
}

func synthesizePrompt(request string, results []string) string {
	parts := make([]string, len(results))
	for i, r := range results {
		parts[i] = fmt.Sprintf("Step %d result: %s", i+1, r)
	}
	return fmt.Sprintf(`Based on the user's request and all the work done, generate a final comprehensive response.

User request: "%s"

Work performed:
%s

Provide a clear, helpful final response that addresses all aspects of the user's request.`,
		request, strings.Join(parts, "\n\n"))
}

// stepContext renders previous results as JSON string literals, one per line.
func stepContext(previous []string) string {
	lines := make([]string, len(previous))
	for i, r := range previous {
		lines[i] = fmt.Sprintf("Step %d result: %s", i+1, quote(r))
	}
	return strings.Join(lines, "\n")
}

// quote returns s as a JSON string literal without HTML escaping.
func quote(s string) string {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(s); err != nil {
		return fmt.Sprintf("%q", s)
	}
	return strings.TrimSuffix(buf.String(), "\n")
}

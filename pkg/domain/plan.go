package domain

// Analysis is the model's classification of a user request.
type Analysis struct {
	Summary     string   `json:"summary" mapstructure:"summary"`
	RequestType string   `json:"requestType" mapstructure:"requestType"`
	Complexity  string   `json:"complexity" mapstructure:"complexity"`
	Domains     []string `json:"domains" mapstructure:"domains"`
}

// FallbackAnalysis builds the degraded analysis used when the reply is not valid JSON.
func FallbackAnalysis(raw string) Analysis {
	return Analysis{
		Summary:     Truncate(raw, AnalysisSummaryLimit) + "...",
		RequestType: UnknownClassification,
		Complexity:  UnknownClassification,
		Domains:     []string{},
	}
}

// TaskStep is one unit of work derived from a user request.
type TaskStep struct {
	Title       string `json:"title" mapstructure:"title"`
	Description string `json:"description" mapstructure:"description"`
}

// StepPlan is the ordered list of steps produced for a single request.
type StepPlan []TaskStep

// FallbackPlan is the single-step plan used when the planning reply cannot be parsed.
func FallbackPlan() StepPlan {
	return StepPlan{{Title: FallbackStepTitle, Description: FallbackStepDescription}}
}

// Truncate returns at most limit runes of s.
func Truncate(s string, limit int) string {
	if limit <= 0 {
		return ""
	}
	runes := []rune(s)
	if len(runes) <= limit {
		return s
	}
	return string(runes[:limit])
}

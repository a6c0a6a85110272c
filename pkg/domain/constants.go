package domain

// Sampling parameters sent with every completion request.
const (
	DefaultTemperature = 0.7
	DefaultMaxTokens   = 2000
)

// Fallback values used when the model output cannot be parsed.
const (
	UnknownClassification = "unknown"

	FallbackStepTitle       = "Process request"
	FallbackStepDescription = "Complete the user's request directly"

	// AnalysisSummaryLimit is the number of leading characters of a raw reply kept as the
	// summary when the analysis cannot be parsed.
	AnalysisSummaryLimit = 100

	// StepSummaryLimit bounds the result excerpt shown in "Step Complete" trace entries.
	StepSummaryLimit = 50
)

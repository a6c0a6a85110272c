package transport

// Message types on the socket transport.
const (
	msgAuth             = "auth"
	msgAuthResult       = "auth_result"
	msgCompletion       = "completion"
	msgCompletionResult = "completion_result"
)

// Paths on the request/response transport.
const (
	pathProbe       = "/test"
	pathCompletions = "/v1/completions"
)

// completionEnvelope is the request body shared by both transports.
type completionEnvelope struct {
	Model       string  `json:"model"`
	Prompt      string  `json:"prompt"`
	Temperature float64 `json:"temperature"`
	MaxTokens   int     `json:"max_tokens"`
}

type socketCompletionRequest struct {
	completionEnvelope
	Type      string `json:"type"`
	RequestID string `json:"requestId"`
}

type httpCompletionRequest struct {
	completionEnvelope
	APIKey string `json:"api_key,omitempty"`
}

type authMessage struct {
	Type   string `json:"type"`
	APIKey string `json:"apiKey"`
}

type probeRequest struct {
	APIKey string `json:"api_key,omitempty"`
}

// inboundMessage is the union of every server-to-client socket message.
type inboundMessage struct {
	Type      string  `json:"type"`
	RequestID string  `json:"requestId,omitempty"`
	Success   bool    `json:"success,omitempty"`
	Message   string  `json:"message,omitempty"`
	Text      *string `json:"text,omitempty"`
	Error     string  `json:"error,omitempty"`
}

package domain

import "strings"

// ServerConfig describes a remote model endpoint.
type ServerConfig struct {
	// URL is the endpoint address. A ws:// or wss:// scheme selects the socket transport,
	// anything else the request/response transport.
	URL string `json:"url" yaml:"url" mapstructure:"url"`

	// APIKey is the optional credential sent during the handshake and with every HTTP call.
	APIKey string `json:"apiKey,omitempty" yaml:"api_key" mapstructure:"api_key"`

	// Model is the model identifier placed in every completion envelope.
	Model string `json:"model,omitempty" yaml:"model" mapstructure:"model"`
}

// Equal reports whether both configs point to the same endpoint with the same credential.
// The model is not part of the connection identity.
func (c ServerConfig) Equal(other ServerConfig) bool {
	return c.URL == other.URL && c.APIKey == other.APIKey
}

// IsSocket reports whether the endpoint uses the streaming socket transport.
func (c ServerConfig) IsSocket() bool {
	return strings.HasPrefix(strings.ToLower(c.URL), "ws")
}

// Redacted returns a copy safe for logging.
func (c ServerConfig) Redacted() ServerConfig {
	if c.APIKey != "" {
		c.APIKey = "***"
	}
	return c
}

package transport

import (
	"encoding/json"
	"fmt"

	"github.com/aretw0/tendril/pkg/domain"
)

// completionShape extracts the completion text from one provider response layout.
// It reports false when the body does not have that layout.
type completionShape struct {
	name   string
	decode func(body []byte) (string, bool)
}

// completionShapes are tried in order. Supporting another provider is one entry here.
var completionShapes = []completionShape{
	{name: "text", decode: decodeTextShape},
	{name: "choices", decode: decodeChoicesShape},
	{name: "empty_text", decode: decodeEmptyTextShape},
}

type textShape struct {
	Text *string `json:"text"`
}

type choicesShape struct {
	Choices []struct {
		Text string `json:"text"`
	} `json:"choices"`
}

func decodeTextShape(body []byte) (string, bool) {
	var v textShape
	if err := json.Unmarshal(body, &v); err != nil || v.Text == nil || *v.Text == "" {
		return "", false
	}
	return *v.Text, true
}

func decodeChoicesShape(body []byte) (string, bool) {
	var v choicesShape
	if err := json.Unmarshal(body, &v); err != nil || len(v.Choices) == 0 {
		return "", false
	}
	return v.Choices[0].Text, true
}

// decodeEmptyTextShape accepts an explicit empty text field when no choices are present.
func decodeEmptyTextShape(body []byte) (string, bool) {
	var v textShape
	if err := json.Unmarshal(body, &v); err != nil || v.Text == nil {
		return "", false
	}
	return "", true
}

// decodeCompletion returns the completion text of an HTTP completion response.
func decodeCompletion(body []byte) (string, error) {
	if !json.Valid(body) {
		return "", fmt.Errorf("%w: completion response is not valid JSON", domain.ErrProtocol)
	}
	for _, shape := range completionShapes {
		if text, ok := shape.decode(body); ok {
			return text, nil
		}
	}
	return "", fmt.Errorf("%w: completion response has neither text nor choices", domain.ErrProtocol)
}

package transport

import (
	"testing"

	"github.com/aretw0/tendril/pkg/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecodeCompletion(t *testing.T) {
	tests := []struct {
		name string
		body string
		want string
	}{
		{name: "text field", body: `{"text":"hello"}`, want: "hello"},
		{name: "choices", body: `{"choices":[{"text":"first"},{"text":"second"}]}`, want: "first"},
		{name: "text wins over choices", body: `{"text":"direct","choices":[{"text":"nested"}]}`, want: "direct"},
		{name: "empty text falls back to choices", body: `{"text":"","choices":[{"text":"nested"}]}`, want: "nested"},
		{name: "explicit empty text", body: `{"text":""}`, want: ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := decodeCompletion([]byte(tt.body))
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestDecodeCompletion_Errors(t *testing.T) {
	for _, body := range []string{`not json`, `{}`, `{"choices":[]}`, `[]`} {
		t.Run(body, func(t *testing.T) {
			_, err := decodeCompletion([]byte(body))
			assert.ErrorIs(t, err, domain.ErrProtocol)
		})
	}
}

package adapters

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewTranscriber(t *testing.T) {
	tests := []struct {
		name        string
		kind        string
		expectNil   bool
		expectedErr bool
	}{
		{name: "openai", kind: BackendOpenAI},
		{name: "disabled", kind: BackendNone, expectNil: true},
		{name: "unknown", kind: "whisper.cpp", expectNil: true, expectedErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := NewTranscriber(tt.kind, Options{BaseURL: "http://localhost:8080/v1"})

			if tt.expectedErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
			assert.Equal(t, tt.expectNil, got == nil)
		})
	}
}

func TestNewTranslator(t *testing.T) {
	got, err := NewTranslator(BackendOpenAI, Options{})
	require.NoError(t, err)
	assert.NotNil(t, got)

	got, err = NewTranslator(BackendNone, Options{})
	require.NoError(t, err)
	assert.Nil(t, got)

	_, err = NewTranslator("deepl", Options{})
	assert.ErrorContains(t, err, "available: [none openai]")

	_, err = NewTranslator(BackendOpenAI, Options{BaseURL: "::bad"})
	assert.Error(t, err)
}

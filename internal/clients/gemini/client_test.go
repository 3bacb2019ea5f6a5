package gemini

import (
	"errors"
	"testing"

	"github.com/google/generative-ai-go/genai"
	"github.com/stretchr/testify/assert"
)

func Test_ResponseText(t *testing.T) {
	text, err := responseText(&genai.GenerateContentResponse{
		Candidates: []*genai.Candidate{{Content: &genai.Content{Parts: []genai.Part{genai.Text("IT"), genai.Text(" 서비스")}}}},
	})
	assert.NoError(t, err)
	assert.Equal(t, "IT 서비스", text)

	_, err = responseText(&genai.GenerateContentResponse{})
	assert.Error(t, err)

	_, err = responseText(&genai.GenerateContentResponse{Candidates: []*genai.Candidate{{}}})
	assert.Error(t, err)
}

func Test_IsServerError(t *testing.T) {
	assert.True(t, isServerError(errors.New("googleapi: Error 500: internal")))
	assert.True(t, isServerError(errors.New("googleapi: Error 503: overloaded")))
	assert.False(t, isServerError(errors.New("googleapi: Error 400: bad request")))
	assert.False(t, isServerError(nil))
}

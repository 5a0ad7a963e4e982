package anthropic

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestEstimateCost(t *testing.T) {
	usage := TokenUsage{InputTokens: 1_000_000, OutputTokens: 1_000_000}

	assert.InDelta(t, 18.00, usage.EstimateCost("claude-3-sonnet-20240229"), 0.001)
	assert.InDelta(t, 1.50, usage.EstimateCost("claude-3-haiku-20240307"), 0.001)
	assert.Zero(t, usage.EstimateCost("unknown-model"))
}

func TestFirstText(t *testing.T) {
	resp := &MessageResponse{
		Content: []ContentBlock{
			{Type: "text", Text: "hello"},
			{Type: "text", Text: "world"},
		},
	}
	assert.Equal(t, "hello", resp.FirstText())

	assert.Empty(t, (&MessageResponse{}).FirstText())

	var nilResp *MessageResponse
	assert.Empty(t, nilResp.FirstText())
}

func TestToSDKMessages(t *testing.T) {
	msgs := toSDKMessages([]Message{
		{Role: "user", Content: "question"},
		{Role: "assistant", Content: "answer"},
	})
	assert.Len(t, msgs, 2)
}

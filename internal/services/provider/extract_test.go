package provider

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func decodePayload(t *testing.T, raw string) *ResponsesPayload {
	t.Helper()
	var payload ResponsesPayload
	require.NoError(t, json.Unmarshal([]byte(raw), &payload))
	return &payload
}

func TestExtractTextTopLevel(t *testing.T) {
	payload := decodePayload(t, `{"output_text": "a poem", "output": [{"type": "message", "text": "ignored"}]}`)
	assert.Equal(t, "a poem", ExtractText(payload))
}

func TestExtractTextItemLevel(t *testing.T) {
	payload := decodePayload(t, `{"output": [
		{"type": "reasoning", "summary": [{"type": "summary_text", "text": "thinking..."}]},
		{"type": "message", "text": "item poem"}
	]}`)
	assert.Equal(t, "item poem", ExtractText(payload))

	payload = decodePayload(t, `{"output": [{"type": "message", "output_text": "alt field poem"}]}`)
	assert.Equal(t, "alt field poem", ExtractText(payload))
}

func TestExtractTextSummaryList(t *testing.T) {
	payload := decodePayload(t, `{"output": [{"type": "message", "summary": [
		{"type": "summary_text", "text": "line one"},
		{"type": "summary_text", "text": "line two"}
	]}]}`)
	assert.Equal(t, "line one\nline two", ExtractText(payload))
}

func TestExtractTextSummarySingleObject(t *testing.T) {
	payload := decodePayload(t, `{"output": [{"type": "message", "summary": {"type": "summary_text", "text": "lone fragment"}}]}`)
	assert.Equal(t, "lone fragment", ExtractText(payload))
}

func TestExtractTextContentBlocks(t *testing.T) {
	payload := decodePayload(t, `{"output": [{"type": "message", "content": [
		{"type": "output_text", "text": "block poem"}
	]}]}`)
	assert.Equal(t, "block poem", ExtractText(payload))

	// text as a wrapped {"value": ...} object
	payload = decodePayload(t, `{"output": [{"type": "message", "content": [
		{"type": "output_text", "text": {"value": "wrapped poem"}}
	]}]}`)
	assert.Equal(t, "wrapped poem", ExtractText(payload))

	payload = decodePayload(t, `{"output": [{"type": "message", "content": [
		{"type": "output_text", "value": "value-field poem"}
	]}]}`)
	assert.Equal(t, "value-field poem", ExtractText(payload))
}

func TestExtractTextReasoningSummaryLastResort(t *testing.T) {
	payload := decodePayload(t, `{"output": [
		{"type": "reasoning", "summary": [{"type": "summary_text", "text": "reasoning only"}]}
	]}`)
	assert.Equal(t, "reasoning only", ExtractText(payload))
}

func TestExtractTextMessageBeatsReasoning(t *testing.T) {
	payload := decodePayload(t, `{"output": [
		{"type": "reasoning", "summary": [{"type": "summary_text", "text": "the plan"}]},
		{"type": "message", "content": [{"type": "output_text", "text": "the poem"}]}
	]}`)
	assert.Equal(t, "the poem", ExtractText(payload))
}

func TestExtractTextUnrecognizedShape(t *testing.T) {
	assert.Equal(t, "", ExtractText(nil))
	assert.Equal(t, "", ExtractText(decodePayload(t, `{}`)))
	assert.Equal(t, "", ExtractText(decodePayload(t, `{"output": [{"type": "tool_call", "arguments": "{}"}]}`)))
	assert.Equal(t, "", ExtractText(decodePayload(t, `{"output_text": "   "}`)))
}

func TestExtractUsage(t *testing.T) {
	payload := decodePayload(t, `{"usage": {
		"input_tokens": 120, "output_tokens": 85,
		"output_tokens_details": {"reasoning_tokens": 40}
	}}`)

	usage := ExtractUsage(payload)
	assert.Equal(t, 120, usage.PromptTokens)
	assert.Equal(t, 85, usage.CompletionTokens)
	assert.Equal(t, 40, usage.ReasoningTokens)
}

func TestExtractUsageLegacyFieldNames(t *testing.T) {
	payload := decodePayload(t, `{"usage": {"prompt_tokens": 30, "completion_tokens": 12}}`)

	usage := ExtractUsage(payload)
	assert.Equal(t, 30, usage.PromptTokens)
	assert.Equal(t, 12, usage.CompletionTokens)
	assert.Equal(t, 0, usage.ReasoningTokens)
}

func TestExtractUsageIndependentOfText(t *testing.T) {
	// Usage must be read even when no text is recoverable
	payload := decodePayload(t, `{"output": [{"type": "tool_call"}], "usage": {"input_tokens": 10, "output_tokens": 5}}`)

	assert.Equal(t, "", ExtractText(payload))
	usage := ExtractUsage(payload)
	assert.Equal(t, 10, usage.PromptTokens)
	assert.Equal(t, 5, usage.CompletionTokens)
}

func TestExtractUsageMissing(t *testing.T) {
	assert.Equal(t, Usage{}, ExtractUsage(nil))
	assert.Equal(t, Usage{}, ExtractUsage(decodePayload(t, `{}`)))
}

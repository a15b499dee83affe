package provider

import (
	"strings"
)

// Usage is the token accounting read from a provider payload. Parsed
// independently of text extraction so billed tokens are recorded even
// when no text could be recovered.
type Usage struct {
	PromptTokens     int
	CompletionTokens int
	ReasoningTokens  int
}

// ExtractText recovers the poem text from a Responses payload. The
// payload mixes reasoning items and message items in no guaranteed
// order, so extraction walks a fixed priority ladder and returns the
// first non-blank text it finds. Unknown shapes yield ""; the caller
// treats empty text as a generation failure, never as a crash.
func ExtractText(payload *ResponsesPayload) string {
	if payload == nil {
		return ""
	}

	// 1) Top-level convenience field
	if text := strings.TrimSpace(payload.OutputText); text != "" {
		return text
	}

	// 2) Item-level direct text
	for _, item := range payload.Output {
		if text := strings.TrimSpace(item.Text); text != "" {
			return text
		}
		if text := strings.TrimSpace(item.OutputText); text != "" {
			return text
		}
	}

	// 3) Message-item summaries, fragments concatenated in order
	for _, item := range payload.Output {
		if item.IsReasoning() {
			continue
		}
		if text := joinSummary(item.Summary); text != "" {
			return text
		}
	}

	// 4) Nested content blocks
	for _, item := range payload.Output {
		for _, block := range item.Content {
			if text := strings.TrimSpace(string(block.Text)); text != "" {
				return text
			}
			if text := strings.TrimSpace(block.OutputText); text != "" {
				return text
			}
			if text := strings.TrimSpace(block.Value); text != "" {
				return text
			}
		}
	}

	// 5) Reasoning summary, last resort
	for _, item := range payload.Output {
		if !item.IsReasoning() {
			continue
		}
		if text := joinSummary(item.Summary); text != "" {
			return text
		}
	}

	return ""
}

// ExtractUsage reads token counts, tolerating both current and legacy
// field names.
func ExtractUsage(payload *ResponsesPayload) Usage {
	if payload == nil || payload.Usage == nil {
		return Usage{}
	}

	u := payload.Usage
	usage := Usage{
		PromptTokens:     u.InputTokens,
		CompletionTokens: u.OutputTokens,
		ReasoningTokens:  u.ReasoningTokens,
	}

	if usage.PromptTokens == 0 {
		usage.PromptTokens = u.PromptTokens
	}
	if usage.CompletionTokens == 0 {
		usage.CompletionTokens = u.CompletionTokens
	}
	if usage.ReasoningTokens == 0 && u.OutputTokensDetails != nil {
		usage.ReasoningTokens = u.OutputTokensDetails.ReasoningTokens
	}

	return usage
}

func joinSummary(summary SummaryList) string {
	var parts []string
	for _, fragment := range summary {
		if text := strings.TrimSpace(fragment.Text); text != "" {
			parts = append(parts, text)
		}
	}
	return strings.Join(parts, "\n")
}

package provider

import (
	"encoding/json"
)

// ResponsesPayload is the raw Responses API response body. Providers do
// not guarantee which output item kinds appear or in what order, so
// every field here is optional and extraction is tolerant.
type ResponsesPayload struct {
	ID         string       `json:"id"`
	Model      string       `json:"model"`
	OutputText string       `json:"output_text"`
	Output     []OutputItem `json:"output"`
	Usage      *UsageBlock  `json:"usage"`
}

// OutputItem is one heterogeneous output element. Reasoning items carry
// a summary; message items carry content blocks; some shapes put text
// directly on the item.
type OutputItem struct {
	Type       string         `json:"type"`
	Text       string         `json:"text"`
	OutputText string         `json:"output_text"`
	Summary    SummaryList    `json:"summary"`
	Content    []ContentBlock `json:"content"`
}

// IsReasoning reports whether the item is a reasoning trace rather than
// message content.
func (i OutputItem) IsReasoning() bool {
	return i.Type == "reasoning"
}

// SummaryList accepts both a single summary object and an ordered list
// of them.
type SummaryList []SummaryFragment

func (s *SummaryList) UnmarshalJSON(data []byte) error {
	var list []SummaryFragment
	if err := json.Unmarshal(data, &list); err == nil {
		*s = list
		return nil
	}

	var single SummaryFragment
	if err := json.Unmarshal(data, &single); err == nil {
		*s = SummaryList{single}
		return nil
	}

	// Unknown summary shape; extraction treats it as absent
	*s = nil
	return nil
}

// SummaryFragment is one text-bearing summary element.
type SummaryFragment struct {
	Type string `json:"type"`
	Text string `json:"text"`
}

// ContentBlock is one nested content element inside a message item.
type ContentBlock struct {
	Type       string    `json:"type"`
	Text       TextValue `json:"text"`
	OutputText string    `json:"output_text"`
	Value      string    `json:"value"`
}

// TextValue accepts both a plain string and a wrapped {"value": "..."}
// object, which different payload revisions have used for the same field.
type TextValue string

func (t *TextValue) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		*t = TextValue(s)
		return nil
	}

	var wrapped struct {
		Value string `json:"value"`
	}
	if err := json.Unmarshal(data, &wrapped); err == nil {
		*t = TextValue(wrapped.Value)
		return nil
	}

	*t = ""
	return nil
}

// UsageBlock carries token counts. Field names have drifted across
// payload revisions, so both the current and the legacy names are read.
type UsageBlock struct {
	InputTokens         int                 `json:"input_tokens"`
	OutputTokens        int                 `json:"output_tokens"`
	PromptTokens        int                 `json:"prompt_tokens"`
	CompletionTokens    int                 `json:"completion_tokens"`
	OutputTokensDetails *OutputTokenDetails `json:"output_tokens_details"`
	ReasoningTokens     int                 `json:"reasoning_tokens"`
}

type OutputTokenDetails struct {
	ReasoningTokens int `json:"reasoning_tokens"`
}

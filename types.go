package orderagent

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
)

type HTTPClient interface {
	Do(req *http.Request) (*http.Response, error)
}

// DialogueIO is the boundary to the customer: rendering agent lines and
// capturing utterances. Listen returns an empty string when no input was
// captured (the caller owns the retry policy).
type DialogueIO interface {
	Say(ctx context.Context, text string) error
	Listen(ctx context.Context) (string, error)
}

// Schema selects which extraction function the backend is forced to call.
// All three share the Candidate result shape so reconciliation can treat
// every round uniformly.
type Schema string

const (
	SchemaInitial  Schema = "process_user_order"
	SchemaClarify  Schema = "clarify_user_order"
	SchemaFinalize Schema = "finalize_user_order"
)

// Message is one entry of the accumulated dialogue history sent to the
// extraction backend.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// ExtractionRequest carries everything a backend needs for one round:
// the schema to force, the session system message, and the history with
// the latest prompt last.
type ExtractionRequest struct {
	Schema   Schema
	System   string
	Messages []Message
}

// Extractor turns a natural-language round into a structured Candidate.
// Implementations must return a *FormatError (possibly wrapped) for
// structurally invalid model output so the agent can retry.
type Extractor interface {
	Extract(ctx context.Context, req ExtractionRequest) (Candidate, Usage, error)
}

// LineItem is one requested item as extracted from the customer's words.
type LineItem struct {
	Name     string   `json:"name"`
	Quantity int      `json:"quantity"`
	Details  []string `json:"details"`
}

// Candidate is the unvalidated structured output of one extraction round.
type Candidate struct {
	MenuItems         []LineItem `json:"menu_items"`
	UnrecognizedItems []LineItem `json:"unrecognized_items"`
	HumanResponse     string     `json:"human_response"`
	IsCompleted       bool       `json:"is_completed"`
	IsFinalized       bool       `json:"is_finalized"`
}

// Usage tracks extraction-call token cost. Advisory only; never drives
// control flow.
type Usage struct {
	PromptTokens     int `json:"prompt_tokens"`
	CompletionTokens int `json:"completion_tokens"`
	TotalTokens      int `json:"total_tokens"`
}

func (u *Usage) Add(other Usage) {
	u.PromptTokens += other.PromptTokens
	u.CompletionTokens += other.CompletionTokens
	u.TotalTokens += other.TotalTokens
}

// FormatError marks extraction output that failed to parse or was missing
// required fields. It is recoverable: the agent retries up to its ceiling.
type FormatError struct {
	Reason string
	Raw    string
}

func (e *FormatError) Error() string {
	return fmt.Sprintf("extraction format error: %s", e.Reason)
}

// DecodeCandidate parses a raw extraction payload and enforces the
// required fields. Any structural problem comes back as *FormatError.
func DecodeCandidate(raw []byte) (Candidate, error) {
	var aux struct {
		MenuItems         *[]LineItem `json:"menu_items"`
		UnrecognizedItems []LineItem  `json:"unrecognized_items"`
		HumanResponse     *string     `json:"human_response"`
		IsCompleted       *bool       `json:"is_completed"`
		IsFinalized       *bool       `json:"is_finalized"`
	}
	if err := json.Unmarshal(raw, &aux); err != nil {
		return Candidate{}, &FormatError{Reason: "payload is not valid JSON: " + err.Error(), Raw: string(raw)}
	}

	var missing []string
	if aux.MenuItems == nil {
		missing = append(missing, "menu_items")
	}
	if aux.HumanResponse == nil {
		missing = append(missing, "human_response")
	}
	if aux.IsCompleted == nil {
		missing = append(missing, "is_completed")
	}
	if aux.IsFinalized == nil {
		missing = append(missing, "is_finalized")
	}
	if len(missing) > 0 {
		return Candidate{}, &FormatError{
			Reason: "missing required fields: " + strings.Join(missing, ", "),
			Raw:    string(raw),
		}
	}

	return Candidate{
		MenuItems:         *aux.MenuItems,
		UnrecognizedItems: aux.UnrecognizedItems,
		HumanResponse:     *aux.HumanResponse,
		IsCompleted:       *aux.IsCompleted,
		IsFinalized:       *aux.IsFinalized,
	}, nil
}

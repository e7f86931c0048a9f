// Package agent runs the order negotiation: greeting, extraction,
// clarification, and finalization, with bounded error and no-input
// recovery.
package agent

// State names the current phase of the negotiation, used in session logs.
type State int

const (
	StateAwaitingInput State = iota
	StateInitializing
	StateClarifying
	StateFinalizing
	StateErrorRecovery
	StateTerminated
)

func (s State) String() string {
	switch s {
	case StateAwaitingInput:
		return "awaiting_input"
	case StateInitializing:
		return "initializing"
	case StateClarifying:
		return "clarifying"
	case StateFinalizing:
		return "finalizing"
	case StateErrorRecovery:
		return "error_recovery"
	case StateTerminated:
		return "terminated"
	default:
		return "unknown"
	}
}

// Outcome classifies how a session ended.
type Outcome int

const (
	// OutcomeSuccess means the order was completed and finalized.
	OutcomeSuccess Outcome = iota
	// OutcomeNoInput means the customer never produced usable input.
	OutcomeNoInput
	// OutcomeExtractionFailed means the extraction error ceiling was hit.
	OutcomeExtractionFailed
)

func (o Outcome) String() string {
	switch o {
	case OutcomeSuccess:
		return "success"
	case OutcomeNoInput:
		return "no_input"
	case OutcomeExtractionFailed:
		return "extraction_failed"
	default:
		return "unknown"
	}
}

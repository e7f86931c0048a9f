package agent

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel"

	"orderagent"
	"orderagent/dialogue"
	"orderagent/menu"
	"orderagent/order"
)

// ErrNoInput terminates a session in which the customer never produced
// usable input.
var ErrNoInput = errors.New("no customer input")

var errExtractionCeiling = errors.New("extraction error ceiling reached")

const (
	systemFailureLine = "Sorry, there seems to be an issue with our system or the internet connection. Please try again later."
	noInputLine       = "Sorry, I couldn't hear you. Please call back when you're ready to order. Goodbye!"
)

// Result is the terminal state of one negotiation session.
type Result struct {
	Outcome          Outcome
	Order            *order.Order
	ExtractionErrors int
	Usage            orderagent.Usage
}

// SalesAgent drives the negotiation between the customer and the
// extraction backend until the order is complete and finalized, or a
// termination condition is hit.
type SalesAgent struct {
	catalog   *menu.Catalog
	extractor orderagent.Extractor
	dialogue  orderagent.DialogueIO
	logger    orderagent.SessionLogger

	system              string
	maxExtractionErrors int
	maxNoInputRetries   int

	history  []orderagent.Message
	usage    orderagent.Usage
	errCount int
	turn     int
}

type Opts struct {
	Catalog   *menu.Catalog
	Extractor orderagent.Extractor
	Dialogue  orderagent.DialogueIO
	Logger    orderagent.SessionLogger

	// Personality optionally styles the agent's responses, e.g. a
	// well-known character.
	Personality string

	// MaxExtractionErrors bounds recoverable extraction failures per
	// session. Zero means the default of 5.
	MaxExtractionErrors int

	// MaxNoInputRetries bounds consecutive empty utterances per question.
	// Zero means the default of 5.
	MaxNoInputRetries int
}

func New(opts Opts) (*SalesAgent, error) {
	if opts.Catalog == nil {
		return nil, fmt.Errorf("missing catalog")
	}
	if opts.Extractor == nil {
		return nil, fmt.Errorf("missing extractor")
	}
	if opts.Dialogue == nil {
		return nil, fmt.Errorf("missing dialogue")
	}
	if opts.Logger == nil {
		opts.Logger = orderagent.NewNoOpSessionLogger()
	}
	if opts.MaxExtractionErrors == 0 {
		opts.MaxExtractionErrors = 5
	}
	if opts.MaxNoInputRetries == 0 {
		opts.MaxNoInputRetries = 5
	}

	return &SalesAgent{
		catalog:             opts.Catalog,
		extractor:           opts.Extractor,
		dialogue:            opts.Dialogue,
		logger:              opts.Logger,
		system:              systemMessage(opts.Catalog, opts.Personality),
		maxExtractionErrors: opts.MaxExtractionErrors,
		maxNoInputRetries:   opts.MaxNoInputRetries,
	}, nil
}

// Run executes one full negotiation session. Terminated sessions are not
// errors: NoInput and ExtractionFailed outcomes come back with a nil
// error. A non-nil error means the session could not run at all, e.g. a
// cancelled context.
func (a *SalesAgent) Run(ctx context.Context) (Result, error) {
	ctx, span := otel.Tracer(orderagent.TracerNameAgent).Start(ctx, "SalesAgent.Run")
	defer span.End()

	slog.Info("AGENT: Starting session", "restaurant", a.catalog.RestaurantName)

	res, err := a.run(ctx)
	switch {
	case errors.Is(err, ErrNoInput):
		_ = a.dialogue.Say(ctx, noInputLine)
		return Result{Outcome: OutcomeNoInput, ExtractionErrors: a.errCount, Usage: a.usage}, nil
	case errors.Is(err, errExtractionCeiling):
		_ = a.dialogue.Say(ctx, systemFailureLine)
		return Result{Outcome: OutcomeExtractionFailed, ExtractionErrors: a.errCount, Usage: a.usage}, nil
	case err != nil:
		return Result{}, err
	}
	return res, nil
}

func (a *SalesAgent) run(ctx context.Context) (Result, error) {
	greeting := fmt.Sprintf("Welcome to %s! What can I get for you today?", a.catalog.RestaurantName)
	input, err := a.converse(ctx, greeting)
	if err != nil {
		return Result{}, err
	}

	ord, err := a.initializeWithRecovery(ctx, initialPrompt(input))
	if err != nil {
		return Result{}, err
	}

	for !(ord.Complete() && ord.Final()) {
		var next *order.Order
		if !ord.Complete() {
			next, err = a.clarifyOrder(ctx, ord)
		} else {
			next, err = a.finalizeOrder(ctx, ord)
		}
		if err != nil {
			if errors.Is(err, ErrNoInput) || ctx.Err() != nil {
				return Result{}, err
			}
			if rerr := a.recover(ctx, err); rerr != nil {
				return Result{}, rerr
			}
			next, err = a.initializeWithRecovery(ctx, initialPrompt(""))
			if err != nil {
				return Result{}, err
			}
		}
		ord = next
	}

	closing := ord.HumanResponse
	if closing == "" {
		closing = "Thank you! Your order has been placed."
	}
	_ = a.dialogue.Say(ctx, closing)
	_ = a.dialogue.Say(ctx, ord.Summary())

	slog.Info("AGENT: Order finalized",
		"total", ord.TotalPrice,
		"items", len(ord.Recognized),
		"turns", a.turn,
		"extraction_errors", a.errCount,
	)

	return Result{Outcome: OutcomeSuccess, Order: ord, ExtractionErrors: a.errCount, Usage: a.usage}, nil
}

// initialize runs a fresh extraction over the whole conversation and
// reconciles it into a new order. Finalization is never honored on an
// initial pass: the customer must always hear the summary first.
func (a *SalesAgent) initialize(ctx context.Context, prompt string) (*order.Order, error) {
	cand, err := a.extract(ctx, orderagent.SchemaInitial, prompt, StateInitializing)
	if err != nil {
		return nil, err
	}
	ord, err := order.Reconcile(cand, a.catalog)
	if err != nil {
		return nil, err
	}
	ord.IsFinalized = false
	return ord, nil
}

// initializeWithRecovery retries initialize through recoverable
// extraction errors until it succeeds or the ceiling is hit. Retries
// re-read the accumulated history rather than re-asking the customer.
func (a *SalesAgent) initializeWithRecovery(ctx context.Context, prompt string) (*order.Order, error) {
	for {
		ord, err := a.initialize(ctx, prompt)
		if err == nil {
			return ord, nil
		}
		if ctx.Err() != nil {
			return nil, err
		}
		if rerr := a.recover(ctx, err); rerr != nil {
			return nil, rerr
		}
		prompt = initialPrompt("")
	}
}

// clarifyOrder resolves unrecognized items. When nothing priced survived
// the last round there is no running order worth keeping, so the session
// starts a fresh pass over the conversation instead.
func (a *SalesAgent) clarifyOrder(ctx context.Context, ord *order.Order) (*order.Order, error) {
	question := ord.HumanResponse
	if question == "" {
		question = fmt.Sprintf(
			"I couldn't find %s on our menu. Would you like something else instead?",
			order.HumanItemList(ord.Unrecognized),
		)
	}

	input, err := a.converse(ctx, question)
	if err != nil {
		return nil, err
	}

	if len(ord.Recognized) == 0 {
		return a.initialize(ctx, initialPrompt(input))
	}

	cand, err := a.extract(ctx, orderagent.SchemaClarify, clarificationPrompt(input, ord.Unrecognized), StateClarifying)
	if err != nil {
		return nil, err
	}
	clarified, err := order.Reconcile(cand, a.catalog)
	if err != nil {
		return nil, err
	}
	ord.Merge(clarified)
	return ord, nil
}

// finalizeOrder reads the order back and processes the customer's
// confirmation.
func (a *SalesAgent) finalizeOrder(ctx context.Context, ord *order.Order) (*order.Order, error) {
	msg := ord.HumanResponse
	if msg != "" {
		msg += " "
	}
	msg += ord.SpeechSummary() + " Shall I place the order?"

	input, err := a.converse(ctx, msg)
	if err != nil {
		return nil, err
	}

	cand, err := a.extract(ctx, orderagent.SchemaFinalize, finalizationPrompt(input), StateFinalizing)
	if err != nil {
		return nil, err
	}
	confirmed, err := order.Reconcile(cand, a.catalog)
	if err != nil {
		return nil, err
	}
	ord.Merge(confirmed)
	return ord, nil
}

// converse says one line and listens for a reply, re-asking through
// silence up to the no-input ceiling. No extraction happens while the
// customer stays silent.
func (a *SalesAgent) converse(ctx context.Context, msg string) (string, error) {
	if err := a.dialogue.Say(ctx, msg); err != nil {
		return "", err
	}
	a.history = append(a.history, orderagent.Message{Role: "assistant", Content: msg})

	for attempt := 0; attempt < a.maxNoInputRetries; attempt++ {
		if attempt > 0 {
			if err := a.dialogue.Say(ctx, dialogue.RandomRepeatRequest()); err != nil {
				return "", err
			}
		}
		input, err := a.dialogue.Listen(ctx)
		if err != nil {
			return "", err
		}
		if input != "" {
			return input, nil
		}
		slog.Info("AGENT: No input captured", "attempt", attempt+1, "max", a.maxNoInputRetries)
	}

	return "", ErrNoInput
}

// extract appends the round's prompt to the history and runs the
// extraction backend, covering the wait with a filler line so the
// customer is not left in silence.
func (a *SalesAgent) extract(ctx context.Context, schema orderagent.Schema, prompt string, state State) (orderagent.Candidate, error) {
	a.history = append(a.history, orderagent.Message{Role: "user", Content: prompt})

	req := orderagent.ExtractionRequest{
		Schema:   schema,
		System:   a.system,
		Messages: a.history,
	}

	fillerCtx, cancel := context.WithCancel(ctx)
	done := make(chan struct{})
	go func() {
		defer close(done)
		_ = a.dialogue.Say(fillerCtx, dialogue.RandomWaitingPhrase())
	}()

	cand, usage, err := a.extractor.Extract(ctx, req)
	cancel()
	<-done

	a.usage.Add(usage)
	a.turn++

	tl := orderagent.TurnLog{
		Turn:      a.turn,
		Timestamp: time.Now(),
		State:     state.String(),
		Schema:    string(schema),
		Prompt:    prompt,
		Usage:     usage,
	}
	if err != nil {
		tl.Error = err.Error()
	} else {
		tl.Candidate = cand
	}
	a.logTurn(tl)

	if err != nil {
		slog.Error("AGENT: Extraction failed", "schema", schema, "error", err)
		return orderagent.Candidate{}, err
	}
	return cand, nil
}

// recover handles one recoverable extraction error: count it, and either
// apologize and let the caller retry, or report the ceiling.
func (a *SalesAgent) recover(ctx context.Context, cause error) error {
	a.errCount++
	slog.Warn("AGENT: Recovering from extraction error",
		"error", cause,
		"count", a.errCount,
		"max", a.maxExtractionErrors,
	)

	if a.errCount >= a.maxExtractionErrors {
		return errExtractionCeiling
	}

	_ = a.dialogue.Say(ctx, "Sorry, something went wrong processing your request. "+dialogue.RandomWaitingPhrase())
	a.history = append(a.history, orderagent.Message{
		Role:    "system",
		Content: "There was an issue processing the order up to this point, it must be retried.",
	})
	return nil
}

func (a *SalesAgent) logTurn(tl orderagent.TurnLog) {
	if err := a.logger.LogTurn(tl); err != nil {
		slog.Error("Failed to log session turn", "error", err, "turn", tl.Turn)
	}
}

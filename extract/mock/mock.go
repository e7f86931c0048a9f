// Package mock provides a deterministic extraction backend for local runs
// without model access.
package mock

import (
	"context"
	"log/slog"
	"sort"

	"orderagent"
	"orderagent/menu"
)

// Extractor fabricates plausible candidates from the catalog: the first
// round orders two of the cheapest item, later rounds confirm.
type Extractor struct {
	Catalog *menu.Catalog
}

func NewExtractor(cat *menu.Catalog) *Extractor {
	return &Extractor{Catalog: cat}
}

func (e *Extractor) Extract(ctx context.Context, req orderagent.ExtractionRequest) (orderagent.Candidate, orderagent.Usage, error) {
	slog.Info("EXTRACTOR: Mock invoked", "schema", req.Schema)

	usage := orderagent.Usage{PromptTokens: 10, CompletionTokens: 10, TotalTokens: 20}

	switch req.Schema {
	case orderagent.SchemaFinalize:
		return orderagent.Candidate{
			MenuItems:     []orderagent.LineItem{},
			HumanResponse: "Great, your order is confirmed.",
			IsCompleted:   true,
			IsFinalized:   true,
		}, usage, nil

	case orderagent.SchemaClarify:
		return orderagent.Candidate{
			MenuItems:     []orderagent.LineItem{},
			HumanResponse: "Got it, I removed the items we don't carry.",
			IsCompleted:   true,
		}, usage, nil

	default:
		return orderagent.Candidate{
			MenuItems: []orderagent.LineItem{
				{Name: e.firstItem(), Quantity: 2},
			},
			HumanResponse: "Sure, anything else?",
			IsCompleted:   true,
		}, usage, nil
	}
}

func (e *Extractor) firstItem() string {
	names := make([]string, 0, len(e.Catalog.FlatItems))
	for name := range e.Catalog.FlatItems {
		names = append(names, name)
	}
	sort.Strings(names)
	if len(names) == 0 {
		return ""
	}
	return names[0]
}

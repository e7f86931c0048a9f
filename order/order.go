// Package order reconciles extracted order candidates against a menu
// catalog and accumulates them into a running order.
package order

import (
	"fmt"
	"strconv"
	"strings"

	"orderagent"
	"orderagent/menu"
)

// InvalidQuantityError rejects a candidate carrying a negative quantity.
// It is recoverable the same way a format error is.
type InvalidQuantityError struct {
	Item     string
	Quantity int
}

func (e *InvalidQuantityError) Error() string {
	return fmt.Sprintf("invalid quantity %d for item %q", e.Quantity, e.Item)
}

// RecognizedEntry is one priced line of the order.
type RecognizedEntry struct {
	Item     orderagent.LineItem
	Subtotal float64
	Quantity int
}

// Order is the reconciled state of a negotiation: priced recognized lines,
// items the menu could not resolve, and the flags and response text carried
// over from the latest accepted candidate.
type Order struct {
	Catalog       *menu.Catalog
	Recognized    []RecognizedEntry
	Unrecognized  []orderagent.LineItem
	TotalPrice    float64
	HumanResponse string
	IsCompleted   bool
	IsFinalized   bool

	index map[string]int
}

// itemKey identifies a line for accumulation: same canonical name and same
// detail list means the same line.
func itemKey(it orderagent.LineItem) string {
	parts := make([]string, 0, len(it.Details)+1)
	parts = append(parts, menu.Normalize(it.Name))
	parts = append(parts, it.Details...)
	return strings.Join(parts, "\x00")
}

// Reconcile validates a candidate against the catalog and prices it into a
// fresh Order. A negative quantity anywhere fails the whole candidate.
// Unknown names land in Unrecognized untouched; quantity zero is allowed
// and contributes nothing to the total.
func Reconcile(cand orderagent.Candidate, cat *menu.Catalog) (*Order, error) {
	for _, it := range append(append([]orderagent.LineItem{}, cand.MenuItems...), cand.UnrecognizedItems...) {
		if it.Quantity < 0 {
			return nil, &InvalidQuantityError{Item: it.Name, Quantity: it.Quantity}
		}
	}

	o := &Order{
		Catalog:       cat,
		HumanResponse: cand.HumanResponse,
		IsCompleted:   cand.IsCompleted,
		IsFinalized:   cand.IsFinalized,
		index:         make(map[string]int),
	}

	o.Unrecognized = append(o.Unrecognized, cand.UnrecognizedItems...)

	for _, it := range cand.MenuItems {
		price, ok := cat.UnitPrice(it.Name)
		if !ok {
			o.Unrecognized = append(o.Unrecognized, it)
			continue
		}
		it.Name = menu.Normalize(it.Name)
		o.add(it, price)
	}

	return o, nil
}

func (o *Order) add(it orderagent.LineItem, unitPrice float64) {
	subtotal := unitPrice * float64(it.Quantity)
	key := itemKey(it)

	if i, ok := o.index[key]; ok {
		o.Recognized[i].Subtotal += subtotal
		o.Recognized[i].Quantity += it.Quantity
	} else {
		o.index[key] = len(o.Recognized)
		o.Recognized = append(o.Recognized, RecognizedEntry{
			Item:     it,
			Subtotal: subtotal,
			Quantity: it.Quantity,
		})
	}
	o.TotalPrice += subtotal
}

// Merge folds a clarified order into the receiver. Recognized lines
// accumulate; the unrecognized list is replaced outright by the clarified
// one; flags and the human response are adopted from the clarified order.
// Merge is not commutative: the receiver is the running order.
func (o *Order) Merge(clarified *Order) {
	for _, entry := range clarified.Recognized {
		key := itemKey(entry.Item)
		if i, ok := o.index[key]; ok {
			o.Recognized[i].Subtotal += entry.Subtotal
			o.Recognized[i].Quantity += entry.Quantity
		} else {
			o.index[key] = len(o.Recognized)
			o.Recognized = append(o.Recognized, entry)
		}
	}

	o.Unrecognized = append([]orderagent.LineItem{}, clarified.Unrecognized...)
	o.TotalPrice += clarified.TotalPrice
	o.HumanResponse = clarified.HumanResponse
	o.IsCompleted = clarified.IsCompleted
	o.IsFinalized = clarified.IsFinalized
}

// Complete reports whether the order needs no further clarification. An
// explicit completion flag from the customer overrides leftover
// unrecognized items.
func (o *Order) Complete() bool {
	return o.IsCompleted || (len(o.Recognized) > 0 && len(o.Unrecognized) == 0)
}

// Final reports whether the customer has confirmed the order for
// submission.
func (o *Order) Final() bool {
	return o.IsFinalized
}

func formatPrice(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

// Summary renders the order as a printable receipt.
func (o *Order) Summary() string {
	var b strings.Builder
	for _, entry := range o.Recognized {
		unit := 0.0
		if entry.Quantity != 0 {
			unit = entry.Subtotal / float64(entry.Quantity)
		}
		fmt.Fprintf(&b, " * %s: %d x %s = $%s\n",
			entry.Item.Name, entry.Quantity, formatPrice(unit), formatPrice(entry.Subtotal))
		for _, d := range entry.Item.Details {
			fmt.Fprintf(&b, "   - %s\n", d)
		}
	}
	fmt.Fprintf(&b, "Total: $%s", formatPrice(o.TotalPrice))
	return b.String()
}

// SpeechSummary renders the order as a sentence suitable for reading
// aloud.
func (o *Order) SpeechSummary() string {
	var parts []string
	for _, entry := range o.Recognized {
		part := fmt.Sprintf("%d %s", entry.Quantity, entry.Item.Name)
		if len(entry.Item.Details) > 0 {
			part += " with " + HumanItemList(detailItems(entry.Item.Details))
		}
		parts = append(parts, part)
	}
	if len(parts) == 0 {
		return fmt.Sprintf("Your total is %s dollars.", formatPrice(o.TotalPrice))
	}
	return fmt.Sprintf("You ordered %s. Your total is %s dollars.",
		humanJoin(parts), formatPrice(o.TotalPrice))
}

func detailItems(details []string) []orderagent.LineItem {
	items := make([]orderagent.LineItem, len(details))
	for i, d := range details {
		items[i] = orderagent.LineItem{Name: d}
	}
	return items
}

// HumanItemList renders item names the way a person would list them:
// "A", "A and B", or "A, B and C".
func HumanItemList(items []orderagent.LineItem) string {
	names := make([]string, len(items))
	for i, it := range items {
		names[i] = it.Name
	}
	return humanJoin(names)
}

func humanJoin(names []string) string {
	switch len(names) {
	case 0:
		return ""
	case 1:
		return names[0]
	case 2:
		return names[0] + " and " + names[1]
	default:
		return strings.Join(names[:len(names)-1], ", ") + " and " + names[len(names)-1]
	}
}

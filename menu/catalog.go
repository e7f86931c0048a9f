// Package menu loads restaurant menu catalogs and resolves item prices.
package menu

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

var (
	// ErrCatalogNotFound indicates the catalog source could not be read.
	ErrCatalogNotFound = errors.New("menu catalog not found")
	// ErrCatalogMalformed indicates the catalog document violates the
	// expected shape and cannot be priced against.
	ErrCatalogMalformed = errors.New("menu catalog malformed")
)

// maxNestingDepth bounds category nesting so a cyclic or hostile document
// cannot blow the stack.
const maxNestingDepth = 32

var titleCaser = cases.Title(language.AmericanEnglish)

// Normalize produces the canonical form of an item name: surrounding and
// repeated whitespace collapsed, words title-cased. Both catalog keys and
// extracted item names go through this, so lookups are case and
// spacing insensitive.
func Normalize(name string) string {
	return titleCaser.String(strings.Join(strings.Fields(name), " "))
}

// Catalog is a parsed menu: the full nested document for prompting, plus a
// flat item-to-price index for reconciliation.
type Catalog struct {
	RestaurantName string
	FullDetail     map[string]any
	FlatItems      map[string]float64
}

// New parses a raw menu document. The document must be a JSON object with a
// top-level "restaurant" string; every other leaf must be a non-negative
// numeric price. Category nesting is arbitrary but bounded.
func New(raw []byte) (*Catalog, error) {
	var doc map[string]any
	if err := json.Unmarshal(raw, &doc); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCatalogMalformed, err)
	}

	name, ok := doc["restaurant"].(string)
	if !ok || name == "" {
		return nil, fmt.Errorf("%w: missing restaurant name", ErrCatalogMalformed)
	}

	c := &Catalog{
		RestaurantName: name,
		FullDetail:     doc,
		FlatItems:      make(map[string]float64),
	}

	for key, val := range doc {
		if key == "restaurant" {
			continue
		}
		if err := c.flattenInto(key, val, 1); err != nil {
			return nil, err
		}
	}

	if len(c.FlatItems) == 0 {
		return nil, fmt.Errorf("%w: no priced items", ErrCatalogMalformed)
	}

	return c, nil
}

func (c *Catalog) flattenInto(key string, val any, depth int) error {
	if depth > maxNestingDepth {
		return fmt.Errorf("%w: nesting exceeds %d levels", ErrCatalogMalformed, maxNestingDepth)
	}

	switch v := val.(type) {
	case map[string]any:
		for k, nested := range v {
			if err := c.flattenInto(k, nested, depth+1); err != nil {
				return err
			}
		}
		return nil
	case float64:
		if v < 0 {
			return fmt.Errorf("%w: negative price for %q", ErrCatalogMalformed, key)
		}
		canonical := Normalize(key)
		if _, exists := c.FlatItems[canonical]; exists {
			return fmt.Errorf("%w: duplicate item %q after normalization", ErrCatalogMalformed, canonical)
		}
		c.FlatItems[canonical] = v
		return nil
	default:
		return fmt.Errorf("%w: item %q has non-numeric price", ErrCatalogMalformed, key)
	}
}

// UnitPrice resolves an item name (in any spelling the customer used) to
// its menu price.
func (c *Catalog) UnitPrice(name string) (float64, bool) {
	price, ok := c.FlatItems[Normalize(name)]
	return price, ok
}

// DetailJSON renders the full nested menu for inclusion in the extraction
// system message.
func (c *Catalog) DetailJSON() (string, error) {
	data, err := json.Marshal(c.FullDetail)
	if err != nil {
		return "", fmt.Errorf("failed to marshal menu detail: %w", err)
	}
	return string(data), nil
}

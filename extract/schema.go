// Package extract defines the function schemas shared by every
// extraction backend. All three functions return the same payload shape
// so reconciliation treats each round uniformly; only the descriptions
// steer the model toward the right phase of the negotiation.
package extract

import (
	"github.com/modelcontextprotocol/go-sdk/jsonschema"

	"orderagent"
)

// Function is one callable extraction function: its name, a phase-specific
// description, and the shared payload schema.
type Function struct {
	Name        string
	Description string
	Parameters  *jsonschema.Schema
}

// ForSchema returns the function definition for a negotiation phase.
func ForSchema(s orderagent.Schema) Function {
	switch s {
	case orderagent.SchemaClarify:
		return Function{
			Name:        string(orderagent.SchemaClarify),
			Description: "Process the user's answer to a clarification question about items that were not on the menu. Capture only the newly clarified or corrected items.",
			Parameters:   payloadSchema("The clarified or corrected items the user wants, matched to the menu."),
		}
	case orderagent.SchemaFinalize:
		return Function{
			Name:        string(orderagent.SchemaFinalize),
			Description: "Process the user's confirmation of the summarized order. Set is_finalized to true only if the user confirms the order as read back to them.",
			Parameters:   payloadSchema("Any additional items the user wants added before finalizing."),
		}
	default:
		return Function{
			Name:        string(orderagent.SchemaInitial),
			Description: "Process the user's food order against the restaurant menu, splitting items into those found on the menu and those that were not.",
			Parameters:   payloadSchema("The items the user ordered that appear on the menu."),
		}
	}
}

func itemSchema(nameDesc string) *jsonschema.Schema {
	minQty := 0.0
	return &jsonschema.Schema{
		Type: "array",
		Items: &jsonschema.Schema{
			Type: "object",
			Properties: map[string]*jsonschema.Schema{
				"name":     {Type: "string", Description: nameDesc},
				"quantity": {Type: "integer", Description: "How many of this item the user wants.", Minimum: &minQty},
				"details": {
					Type:        "array",
					Description: "Preparation details or modifications the user asked for, e.g. 'no onions'.",
					Items:       &jsonschema.Schema{Type: "string"},
				},
			},
			Required: []string{"name", "quantity"},
		},
	}
}

func payloadSchema(menuItemsDesc string) *jsonschema.Schema {
	return &jsonschema.Schema{
		Type: "object",
		Properties: map[string]*jsonschema.Schema{
			"menu_items":         itemSchema(menuItemsDesc),
			"unrecognized_items": itemSchema("An item the user asked for that does not appear on the menu."),
			"human_response": {
				Type:        "string",
				Description: "What to say back to the user next: acknowledge the order, ask about unrecognized items, or ask for final confirmation.",
			},
			"is_completed": {
				Type:        "boolean",
				Description: "True when the user indicates they have nothing more to add to the order.",
			},
			"is_finalized": {
				Type:        "boolean",
				Description: "True only when the user has confirmed the summarized order.",
			},
		},
		Required: []string{"menu_items", "human_response", "is_completed", "is_finalized"},
	}
}

package agent

import (
	"fmt"

	"orderagent/menu"
	"orderagent/order"

	"orderagent"
)

func systemMessage(cat *menu.Catalog, personality string) string {
	detail, err := cat.DetailJSON()
	if err != nil {
		detail = "{}"
	}

	msg := fmt.Sprintf(
		"You are an order taker at %s. Match everything the customer asks for against the menu below. "+
			"Items not on the menu go into unrecognized_items exactly as the customer said them. "+
			"Keep human_response short and conversational.\n\nMenu:\n%s",
		cat.RestaurantName, detail,
	)
	if personality != "" {
		msg += fmt.Sprintf("\n\nRespond in the style of %s.", personality)
	}
	return msg
}

func initialPrompt(input string) string {
	if input == "" {
		return "Process the order discussed so far."
	}
	return fmt.Sprintf("Process this customer order: %s", input)
}

func clarificationPrompt(input string, unrecognized []orderagent.LineItem) string {
	return fmt.Sprintf(
		"The customer was asked about these items that were not on the menu: %s. "+
			"Their answer: %s",
		order.HumanItemList(unrecognized), input,
	)
}

func finalizationPrompt(input string) string {
	return fmt.Sprintf(
		"The customer heard their order summary and was asked to confirm. Their answer: %s",
		input,
	)
}

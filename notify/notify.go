// Package notify posts finalized order receipts to a kitchen webhook.
package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"orderagent/order"
)

type doer interface {
	Do(req *http.Request) (*http.Response, error)
}

type Client struct {
	webhookURL string
	httpClient doer
}

func NewClient(webhookURL string, httpClient doer) *Client {
	return &Client{
		webhookURL: webhookURL,
		httpClient: httpClient,
	}
}

// PostReceipt sends the finalized order to the kitchen.
func (c *Client) PostReceipt(ctx context.Context, ord *order.Order) error {
	payload, err := json.Marshal(map[string]any{
		"restaurant": ord.Catalog.RestaurantName,
		"summary":    ord.Summary(),
		"total":      ord.TotalPrice,
	})
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.webhookURL, bytes.NewReader(payload))
	if err != nil {
		return err
	}

	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("failed to post receipt: %s", resp.Status)
	}

	return nil
}

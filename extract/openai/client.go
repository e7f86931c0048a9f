// Package openai implements the extraction backend over the OpenAI chat
// completions API with forced tool calls.
package openai

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"

	"orderagent"
	"orderagent/extract"
)

type Client struct {
	endpoint    string
	apiKey      string
	model       string
	maxTokens   int32
	temperature float32
	topP        float32
	httpClient  orderagent.HTTPClient
}

type ClientOpts struct {
	BaseEndpoint string
	APIKey       string
	ModelID      string
	MaxTokens    int32
	Temperature  float32
	TopP         float32
	HTTPClient   orderagent.HTTPClient
}

func NewClient(opts ClientOpts) (*Client, error) {
	if opts.APIKey == "" {
		return nil, fmt.Errorf("missing API key")
	}
	if opts.HTTPClient == nil {
		return nil, fmt.Errorf("missing HTTP client")
	}
	if opts.ModelID == "" {
		opts.ModelID = "gpt-4o"
	}
	if opts.MaxTokens == 0 {
		opts.MaxTokens = 1024
	}

	return &Client{
		endpoint:    opts.BaseEndpoint + "/v1/chat/completions",
		apiKey:      opts.APIKey,
		model:       opts.ModelID,
		maxTokens:   opts.MaxTokens,
		temperature: opts.Temperature,
		topP:        opts.TopP,
		httpClient:  opts.HTTPClient,
	}, nil
}

type wireMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type wireTool struct {
	Type     string `json:"type"`
	Function struct {
		Name        string         `json:"name"`
		Description string         `json:"description"`
		Parameters  map[string]any `json:"parameters"`
	} `json:"function"`
}

type wireToolChoice struct {
	Type     string `json:"type"`
	Function struct {
		Name string `json:"name"`
	} `json:"function"`
}

type wireRequest struct {
	Model       string         `json:"model"`
	Messages    []wireMessage  `json:"messages"`
	Tools       []wireTool     `json:"tools"`
	ToolChoice  wireToolChoice `json:"tool_choice"`
	MaxTokens   int32          `json:"max_tokens,omitempty"`
	Temperature float32        `json:"temperature,omitempty"`
	TopP        float32        `json:"top_p,omitempty"`
}

type wireResponse struct {
	Choices []struct {
		Message struct {
			ToolCalls []struct {
				Function struct {
					Name      string `json:"name"`
					Arguments string `json:"arguments"`
				} `json:"function"`
			} `json:"tool_calls"`
		} `json:"message"`
	} `json:"choices"`
	Usage struct {
		PromptTokens     int `json:"prompt_tokens"`
		CompletionTokens int `json:"completion_tokens"`
		TotalTokens      int `json:"total_tokens"`
	} `json:"usage"`
}

// Extract sends the dialogue to the chat completions API with a single
// tool the model is forced to call, and decodes the call arguments into
// a Candidate.
func (c *Client) Extract(ctx context.Context, extReq orderagent.ExtractionRequest) (orderagent.Candidate, orderagent.Usage, error) {
	slog.Info("EXTRACTOR: Invoked", "schema", extReq.Schema, "messages_len", len(extReq.Messages))

	reqBody, err := c.buildRequest(extReq)
	if err != nil {
		return orderagent.Candidate{}, orderagent.Usage{}, err
	}

	reqBytes, err := json.Marshal(reqBody)
	if err != nil {
		return orderagent.Candidate{}, orderagent.Usage{}, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewBuffer(reqBytes))
	if err != nil {
		return orderagent.Candidate{}, orderagent.Usage{}, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return orderagent.Candidate{}, orderagent.Usage{}, err
	}
	defer resp.Body.Close()

	body, _ := io.ReadAll(resp.Body)
	if resp.StatusCode != http.StatusOK {
		return orderagent.Candidate{}, orderagent.Usage{}, fmt.Errorf("EXTRACTOR: %s: %s", resp.Status, string(body))
	}

	var wr wireResponse
	if err := json.Unmarshal(body, &wr); err != nil {
		return orderagent.Candidate{}, orderagent.Usage{}, &orderagent.FormatError{
			Reason: "response is not valid JSON: " + err.Error(),
			Raw:    string(body),
		}
	}

	usage := orderagent.Usage{
		PromptTokens:     wr.Usage.PromptTokens,
		CompletionTokens: wr.Usage.CompletionTokens,
		TotalTokens:      wr.Usage.TotalTokens,
	}

	if len(wr.Choices) == 0 || len(wr.Choices[0].Message.ToolCalls) == 0 {
		return orderagent.Candidate{}, usage, &orderagent.FormatError{
			Reason: "response contains no tool call",
			Raw:    string(body),
		}
	}

	args := wr.Choices[0].Message.ToolCalls[0].Function.Arguments
	cand, err := orderagent.DecodeCandidate([]byte(args))
	if err != nil {
		return orderagent.Candidate{}, usage, err
	}

	return cand, usage, nil
}

func (c *Client) buildRequest(extReq orderagent.ExtractionRequest) (wireRequest, error) {
	fn := extract.ForSchema(extReq.Schema)

	// marshal -> map[string]any to keep the schema wire shape uniform
	schemaBytes, err := json.Marshal(fn.Parameters)
	if err != nil {
		return wireRequest{}, fmt.Errorf("failed to marshal function schema: %w", err)
	}
	var params map[string]any
	if err := json.Unmarshal(schemaBytes, &params); err != nil {
		return wireRequest{}, fmt.Errorf("failed to convert function schema: %w", err)
	}

	var tool wireTool
	tool.Type = "function"
	tool.Function.Name = fn.Name
	tool.Function.Description = fn.Description
	tool.Function.Parameters = params

	var choice wireToolChoice
	choice.Type = "function"
	choice.Function.Name = fn.Name

	messages := make([]wireMessage, 0, len(extReq.Messages)+1)
	if extReq.System != "" {
		messages = append(messages, wireMessage{Role: "system", Content: extReq.System})
	}
	for _, m := range extReq.Messages {
		messages = append(messages, wireMessage{Role: m.Role, Content: m.Content})
	}

	return wireRequest{
		Model:       c.model,
		Messages:    messages,
		Tools:       []wireTool{tool},
		ToolChoice:  choice,
		MaxTokens:   c.maxTokens,
		Temperature: c.temperature,
		TopP:        c.topP,
	}, nil
}

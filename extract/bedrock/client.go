// Package bedrock implements the extraction backend over the AWS Bedrock
// Converse API with a forced tool choice.
package bedrock

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/bedrockruntime"
	"github.com/aws/aws-sdk-go-v2/service/bedrockruntime/document"
	"github.com/aws/aws-sdk-go-v2/service/bedrockruntime/types"

	"orderagent"
	"orderagent/extract"
)

const (
	// defaultModelID is an inference profile ID, not the foundation model's ID.
	// See https://docs.aws.amazon.com/bedrock/latest/userguide/inference-profiles.html.
	defaultModelID = "us.anthropic.claude-3-7-sonnet-20250219-v1:0"

	defaultMaxTokens = 1024

	// Low temperature and top_p keep outputs more deterministic, which is
	// better for structured extraction.
	defaultTemperature = 0.2
	defaultTopP        = 0.9
)

type bedrockRuntimeClient interface {
	Converse(context.Context, *bedrockruntime.ConverseInput, ...func(*bedrockruntime.Options)) (*bedrockruntime.ConverseOutput, error)
}

type Opts struct {
	ModelID     string
	MaxTokens   int32
	Temperature float32
	TopP        float32
}

type Client struct {
	brc  bedrockRuntimeClient
	opts Opts
}

func NewClient(brc bedrockRuntimeClient, opts Opts) *Client {
	if opts.ModelID == "" {
		opts.ModelID = defaultModelID
	}
	if opts.MaxTokens == 0 {
		opts.MaxTokens = defaultMaxTokens
	}
	if opts.Temperature == 0 {
		opts.Temperature = defaultTemperature
	}
	if opts.TopP == 0 {
		opts.TopP = defaultTopP
	}
	return &Client{
		brc:  brc,
		opts: opts,
	}
}

// Extract sends the dialogue through the Converse API, forcing the model
// to call the extraction function for the requested phase, and decodes
// the tool-use input into a Candidate.
func (c *Client) Extract(ctx context.Context, extReq orderagent.ExtractionRequest) (orderagent.Candidate, orderagent.Usage, error) {
	slog.Info("EXTRACTOR: Invoked", "schema", extReq.Schema, "messages_len", len(extReq.Messages))

	var sys []types.SystemContentBlock
	if extReq.System != "" {
		sys = append(sys, &types.SystemContentBlockMemberText{Value: extReq.System})
	}

	var msgs []types.Message
	for _, m := range extReq.Messages {
		if m.Role == "system" {
			sys = append(sys, &types.SystemContentBlockMemberText{Value: m.Content})
			continue
		}
		msgs = append(msgs, types.Message{
			Role:    types.ConversationRole(m.Role),
			Content: []types.ContentBlock{&types.ContentBlockMemberText{Value: m.Content}},
		})
	}

	fn := extract.ForSchema(extReq.Schema)
	spec, err := buildToolSpec(fn)
	if err != nil {
		return orderagent.Candidate{}, orderagent.Usage{}, err
	}

	in := &bedrockruntime.ConverseInput{
		ModelId:  &c.opts.ModelID,
		System:   sys,
		Messages: msgs,
		InferenceConfig: &types.InferenceConfiguration{
			MaxTokens:   aws.Int32(c.opts.MaxTokens),
			Temperature: aws.Float32(c.opts.Temperature),
			TopP:        aws.Float32(c.opts.TopP),
		},
		ToolConfig: &types.ToolConfiguration{
			Tools: []types.Tool{&types.ToolMemberToolSpec{Value: spec}},
			ToolChoice: &types.ToolChoiceMemberTool{
				Value: types.SpecificToolChoice{Name: aws.String(fn.Name)},
			},
		},
	}

	out, err := c.brc.Converse(ctx, in)
	if err != nil {
		slog.Error("EXTRACTOR: Bedrock Converse failed", "error", err)
		return orderagent.Candidate{}, orderagent.Usage{}, err
	}

	var usage orderagent.Usage
	if out.Usage != nil {
		usage = orderagent.Usage{
			PromptTokens:     int(aws.ToInt32(out.Usage.InputTokens)),
			CompletionTokens: int(aws.ToInt32(out.Usage.OutputTokens)),
			TotalTokens:      int(aws.ToInt32(out.Usage.TotalTokens)),
		}
	}

	slog.Info("EXTRACTOR: Bedrock Converse succeeded",
		"stop_reason", out.StopReason,
		"input_tokens", usage.PromptTokens,
		"output_tokens", usage.CompletionTokens,
	)

	switch out.StopReason {
	case "max_tokens":
		return orderagent.Candidate{}, usage, &orderagent.FormatError{Reason: "model hit MaxTokens limit before completing the extraction"}
	case "safety", "content_filtered":
		return orderagent.Candidate{}, usage, fmt.Errorf("model response blocked by Bedrock safety filters")
	}

	input, ok := toolInputFromOutput(out)
	if !ok {
		return orderagent.Candidate{}, usage, &orderagent.FormatError{Reason: "response contains no tool use block"}
	}

	// marshal -> bytes so the shared decoder enforces required fields
	raw, err := json.Marshal(input)
	if err != nil {
		return orderagent.Candidate{}, usage, &orderagent.FormatError{Reason: "tool input is not representable as JSON: " + err.Error()}
	}

	cand, err := orderagent.DecodeCandidate(raw)
	if err != nil {
		return orderagent.Candidate{}, usage, err
	}

	return cand, usage, nil
}

// buildToolSpec constructs a ToolSpecification for the extraction function.
func buildToolSpec(fn extract.Function) (types.ToolSpecification, error) {
	// Pre-marshal the schema to JSON so its custom MarshalJSON applies,
	// then parse it back to a map for the document system.
	schemaJSON, err := json.Marshal(fn.Parameters)
	if err != nil {
		return types.ToolSpecification{}, fmt.Errorf("failed to marshal tool schema for %s: %w", fn.Name, err)
	}

	var schemaMap map[string]any
	if err := json.Unmarshal(schemaJSON, &schemaMap); err != nil {
		return types.ToolSpecification{}, fmt.Errorf("failed to unmarshal tool schema for %s: %w", fn.Name, err)
	}

	return types.ToolSpecification{
		Name:        aws.String(fn.Name),
		Description: aws.String(fn.Description),
		InputSchema: &types.ToolInputSchemaMemberJson{
			Value: document.NewLazyDocument(schemaMap),
		},
	}, nil
}

// toolInputFromOutput extracts the first tool-use input from the output.
func toolInputFromOutput(out *bedrockruntime.ConverseOutput) (map[string]any, bool) {
	if out == nil || out.Output == nil {
		return nil, false
	}

	msg, ok := out.Output.(*types.ConverseOutputMemberMessage)
	if !ok || msg == nil {
		return nil, false
	}

	for _, cb := range msg.Value.Content {
		tu, ok := cb.(*types.ContentBlockMemberToolUse)
		if !ok || tu == nil {
			continue
		}

		var input map[string]any
		if err := tu.Value.Input.UnmarshalSmithyDocument(&input); err != nil {
			return nil, false
		}
		return input, true
	}

	return nil, false
}

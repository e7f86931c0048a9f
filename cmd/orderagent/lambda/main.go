package main

import (
	"context"
	"fmt"
	"log"
	"log/slog"
	"os"

	"github.com/aws/aws-lambda-go/lambda"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/bedrockruntime"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/joeshaw/envdecode"

	"orderagent"
	"orderagent/agent"
	"orderagent/dialogue"
	"orderagent/extract/bedrock"
	"orderagent/menu"
)

type Params struct {
	// Transcript is the customer's side of the conversation, in order.
	Transcript []string `json:"transcript"`
}

type Results struct {
	Outcome string   `json:"outcome"`
	Total   float64  `json:"total"`
	Summary string   `json:"summary"`
	Said    []string `json:"said"`
}

func main() {
	fn := func(ctx context.Context, params Params) (Results, error) {
		var modelConfig orderagent.ModelConfig
		if err := envdecode.Decode(&modelConfig); err != nil {
			log.Fatalf("Failed to decode: %s", err)
		}

		var agentConfig orderagent.AgentConfig
		if err := envdecode.Decode(&agentConfig); err != nil {
			log.Fatalf("Failed to decode: %s", err)
		}

		// S3 config from env
		s3Bucket := os.Getenv("MENU_S3_BUCKET")
		menuKey := os.Getenv("MENU_S3_KEY")
		if s3Bucket == "" || menuKey == "" {
			return Results{}, fmt.Errorf("missing S3 config: MENU_S3_BUCKET and MENU_S3_KEY must be set")
		}

		awsCfg, err := config.LoadDefaultConfig(ctx)
		if err != nil {
			return Results{}, fmt.Errorf("failed to load AWS config: %w", err)
		}
		s3Client := s3.NewFromConfig(awsCfg)

		catalog, err := menu.Load(ctx, menu.NewS3MenuState(s3Client, s3Bucket, menuKey))
		if err != nil {
			slog.Error("SETUP: Failed to load menu catalog from S3", "error", err)
			return Results{}, err
		}
		slog.Info("SETUP: Menu catalog loaded from S3", "restaurant", catalog.RestaurantName, "items", len(catalog.FlatItems))

		brc, err := newBedrockRuntimeClient(ctx)
		if err != nil {
			slog.Error("SETUP: Failed to create Bedrock client", "error", err)
			return Results{}, err
		}

		extractor := bedrock.NewClient(brc, bedrock.Opts{
			ModelID:     modelConfig.ModelID,
			MaxTokens:   modelConfig.MaxTokens,
			Temperature: modelConfig.Temperature,
			TopP:        modelConfig.TopP,
		})

		script := dialogue.NewScript(params.Transcript...)

		sa, err := agent.New(agent.Opts{
			Catalog:             catalog,
			Extractor:           extractor,
			Dialogue:            script,
			Logger:              orderagent.NewStdoutSessionLogger(),
			MaxExtractionErrors: agentConfig.MaxExtractionErrors,
			MaxNoInputRetries:   agentConfig.MaxNoInputRetries,
		})
		if err != nil {
			slog.Error("SETUP: Failed to create sales agent", "error", err)
			return Results{}, err
		}

		result, err := sa.Run(ctx)
		if err != nil {
			slog.Error("RESULT: Error running session", "error", err)
			return Results{}, err
		}

		res := Results{
			Outcome: result.Outcome.String(),
			Said:    script.Said(),
		}
		if result.Order != nil {
			res.Total = result.Order.TotalPrice
			res.Summary = result.Order.Summary()
		}
		return res, nil
	}

	lambda.Start(fn)
}

func newBedrockRuntimeClient(ctx context.Context) (*bedrockruntime.Client, error) {
	awsCfg, err := config.LoadDefaultConfig(ctx, config.WithRetryMaxAttempts(5))
	if err != nil {
		return nil, err
	}
	return bedrockruntime.NewFromConfig(awsCfg), nil
}

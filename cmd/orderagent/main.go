package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"log/slog"
	"net/http"
	"os"

	"github.com/joeshaw/envdecode"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"orderagent"
	"orderagent/agent"
	"orderagent/dialogue"
	"orderagent/extract/mock"
	"orderagent/extract/openai"
	"orderagent/menu"
	"orderagent/notify"
)

func main() {
	ctx := context.Background()

	menuName := flag.String("menu", "archies_deli", "menu name to load from the menu directory")
	menuDir := flag.String("menu-dir", "", "menu directory (overrides MENU_DIR)")
	useMock := flag.Bool("mock", false, "use the deterministic mock extractor instead of the OpenAI API")
	speak := flag.Bool("speak", false, "speak agent lines aloud in addition to printing them")
	useOtel := flag.Bool("otel", false, "export traces and metrics over OTLP")
	logLevel := flag.String("log-level", "info", "slog level: debug, info, warn, error")
	personality := flag.String("personality", "", "optional personality to style responses, e.g. a well-known character")
	voice := flag.String("voice", "nova", "voice for speech synthesis")
	receiptWebhook := flag.String("receipt-webhook", "", "optional webhook URL to post the finalized receipt to")
	flag.Parse()

	setLogLevel(*logLevel)

	var modelConfig orderagent.ModelConfig
	if err := envdecode.Decode(&modelConfig); err != nil {
		log.Fatalf("SETUP: Failed to decode: %s", err)
	}

	var agentConfig orderagent.AgentConfig
	if err := envdecode.Decode(&agentConfig); err != nil {
		log.Fatalf("SETUP: Failed to decode: %s", err)
	}
	if *menuDir != "" {
		agentConfig.MenuDir = *menuDir
	}

	catalog, err := menu.Load(ctx, menu.NewFileMenuState(agentConfig.MenuDir, *menuName))
	if err != nil {
		slog.Error("SETUP: Failed to load menu catalog", "menu", *menuName, "error", err)
		os.Exit(1)
	}
	slog.Info("SETUP: Menu catalog loaded", "restaurant", catalog.RestaurantName, "items", len(catalog.FlatItems))

	var extractor orderagent.Extractor
	if *useMock {
		extractor = mock.NewExtractor(catalog)
	} else {
		extractor, err = openai.NewClient(openai.ClientOpts{
			BaseEndpoint: agentConfig.BaseOpenAIEndpoint,
			APIKey:       agentConfig.OpenAIAPIKey,
			ModelID:      modelConfig.ModelID,
			MaxTokens:    modelConfig.MaxTokens,
			Temperature:  modelConfig.Temperature,
			TopP:         modelConfig.TopP,
			HTTPClient:   http.DefaultClient,
		})
		if err != nil {
			slog.Error("SETUP: Failed to create extraction client", "error", err)
			os.Exit(1)
		}
	}

	var io orderagent.DialogueIO = dialogue.NewTerminal(os.Stdin, os.Stdout)
	if *speak {
		synth, err := dialogue.NewSynthesizer(dialogue.SynthesizerOpts{
			BaseEndpoint: agentConfig.BaseOpenAIEndpoint,
			APIKey:       agentConfig.OpenAIAPIKey,
			Voice:        *voice,
			HTTPClient:   http.DefaultClient,
		})
		if err != nil {
			slog.Error("SETUP: Failed to create speech synthesizer", "error", err)
			os.Exit(1)
		}
		io = dialogue.NewSpeech(io, synth)
	}

	logger, cleanup, err := newSessionLogger(modelConfig.ModelID)
	if err != nil {
		slog.Error("SETUP: Failed to create session logger", "error", err)
		os.Exit(1)
	}
	defer func() {
		if err := cleanup(); err != nil {
			slog.Error("SETUP: Failed to flush session log", "error", err)
		}
	}()

	if *useOtel {
		tracerProvider, meterProvider, otelShutdown, err := orderagent.InitOtel(ctx)
		if err != nil {
			slog.Error("SETUP: Failed to initialize OpenTelemetry", "error", err)
			os.Exit(1)
		}
		defer func() {
			if err := otelShutdown(ctx); err != nil {
				slog.Error("SETUP: Failed to shutdown OpenTelemetry", "error", err)
			}
		}()

		tracer := tracerProvider.Tracer(orderagent.TracerNameOpenAI)
		meter := meterProvider.Meter(orderagent.TracerNameOpenAI)
		extractor = agent.NewInstrumentedExtractor(extractor, tracer, meter)

		var span trace.Span
		ctx, span = tracer.Start(ctx, orderagent.TracerNameOpenAI, trace.WithAttributes(
			attribute.String("model.id", modelConfig.ModelID),
			attribute.Int("model.max_tokens", int(modelConfig.MaxTokens)),
			attribute.Float64("model.temperature", float64(modelConfig.Temperature)),
			attribute.Float64("model.top_p", float64(modelConfig.TopP)),
		))
		defer span.End()
	}

	sa, err := agent.New(agent.Opts{
		Catalog:             catalog,
		Extractor:           extractor,
		Dialogue:            io,
		Logger:              logger,
		Personality:         *personality,
		MaxExtractionErrors: agentConfig.MaxExtractionErrors,
		MaxNoInputRetries:   agentConfig.MaxNoInputRetries,
	})
	if err != nil {
		slog.Error("SETUP: Failed to create sales agent", "error", err)
		os.Exit(1)
	}

	result, err := sa.Run(ctx)
	if err != nil {
		slog.Error("FAILURE: Error running session", "error", err)
		return
	}

	slog.Info("RESULT: Session terminated",
		"outcome", result.Outcome.String(),
		"extraction_errors", result.ExtractionErrors,
		"total_tokens", result.Usage.TotalTokens,
	)

	if result.Outcome == agent.OutcomeSuccess && *receiptWebhook != "" {
		receipts := notify.NewClient(*receiptWebhook, http.DefaultClient)
		if err := receipts.PostReceipt(ctx, result.Order); err != nil {
			slog.Error("Failed to post receipt", "error", err)
		}
	}
}

func setLogLevel(level string) {
	var lvl slog.Level
	switch level {
	case "debug":
		lvl = slog.LevelDebug
	case "warn":
		lvl = slog.LevelWarn
	case "error":
		lvl = slog.LevelError
	default:
		lvl = slog.LevelInfo
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: lvl})))
}

func newSessionLogger(modelID string) (orderagent.SessionLogger, func() error, error) {
	logFilePath := orderagent.NewSessionLogFilePath(modelID)
	if err := os.MkdirAll("./logs", 0755); err != nil {
		return nil, func() error { return err }, fmt.Errorf("failed to create log directory: %w", err)
	}
	logFile, err := os.OpenFile(logFilePath, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0644)
	if err != nil {
		return nil, func() error { return err }, fmt.Errorf("failed to open log file: %w", err)
	}

	logger := orderagent.NewFileSessionLogger(logFile)
	cleanup := func() error {
		return errors.Join(logger.Flush(), logFile.Close())
	}
	return logger, cleanup, nil
}

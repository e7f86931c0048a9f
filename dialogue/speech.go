package dialogue

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/exec"
	"runtime"

	"orderagent"
)

// Synthesizer turns text into audio via the OpenAI speech endpoint and
// plays it with a local player.
type Synthesizer struct {
	endpoint   string
	apiKey     string
	voice      string
	httpClient orderagent.HTTPClient
}

type SynthesizerOpts struct {
	BaseEndpoint string
	APIKey       string
	Voice        string
	HTTPClient   orderagent.HTTPClient
}

func NewSynthesizer(opts SynthesizerOpts) (*Synthesizer, error) {
	if opts.APIKey == "" {
		return nil, fmt.Errorf("missing API key")
	}
	if opts.HTTPClient == nil {
		return nil, fmt.Errorf("missing HTTP client")
	}
	if opts.Voice == "" {
		opts.Voice = "nova"
	}
	return &Synthesizer{
		endpoint:   opts.BaseEndpoint + "/v1/audio/speech",
		apiKey:     opts.APIKey,
		voice:      opts.Voice,
		httpClient: opts.HTTPClient,
	}, nil
}

func (s *Synthesizer) Speak(ctx context.Context, text string) error {
	reqBytes, err := json.Marshal(map[string]string{
		"model": "tts-1",
		"input": text,
		"voice": s.voice,
	})
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.endpoint, bytes.NewBuffer(reqBytes))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+s.apiKey)

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("speech synthesis failed: %s: %s", resp.Status, string(body))
	}

	tmp, err := os.CreateTemp("", "orderagent-*.mp3")
	if err != nil {
		return err
	}
	defer os.Remove(tmp.Name())

	if _, err := io.Copy(tmp, resp.Body); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}

	return playFile(ctx, tmp.Name())
}

func playFile(ctx context.Context, path string) error {
	var cmd *exec.Cmd
	switch runtime.GOOS {
	case "darwin":
		cmd = exec.CommandContext(ctx, "afplay", path)
	default:
		cmd = exec.CommandContext(ctx, "mpg123", "-q", path)
	}
	return cmd.Run()
}

// Speech decorates another DialogueIO, speaking every agent line in
// addition to rendering it. Synthesis failures degrade to text only.
type Speech struct {
	inner orderagent.DialogueIO
	synth *Synthesizer
}

func NewSpeech(inner orderagent.DialogueIO, synth *Synthesizer) *Speech {
	return &Speech{inner: inner, synth: synth}
}

func (s *Speech) Say(ctx context.Context, text string) error {
	if err := s.inner.Say(ctx, text); err != nil {
		return err
	}
	if err := s.synth.Speak(ctx, text); err != nil && ctx.Err() == nil {
		slog.Warn("SPEECH: synthesis failed, continuing with text", "error", err)
	}
	return nil
}

func (s *Speech) Listen(ctx context.Context) (string, error) {
	return s.inner.Listen(ctx)
}

package orderagent

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"
	"time"
)

// SessionLogger is the interface for session transcript logging.
type SessionLogger interface {
	LogTurn(turn TurnLog) error
}

// NewSessionLogFilePath returns a file path based on a cleaned up model name or id to make it easier to identify specific transcripts produced with various models.
func NewSessionLogFilePath(model string) string {
	return fmt.Sprintf(
		"./logs/%d.%s.json",
		time.Now().Unix(),
		strings.ReplaceAll(strings.ToLower(model), ":", "_"),
	)
}

// TurnLog represents a single turn in the order negotiation
type TurnLog struct {
	Turn      int       `json:"turn"`
	Timestamp time.Time `json:"timestamp"`
	State     string    `json:"state"`
	Schema    string    `json:"schema,omitempty"`
	Prompt    string    `json:"prompt,omitempty"`
	Candidate any       `json:"candidate,omitempty"`
	Usage     Usage     `json:"usage"`
	Error     string    `json:"error,omitempty"`
}

// FileSessionLogger logs to a file, accumulating turns and flushing at the end
type FileSessionLogger struct {
	turns  []TurnLog
	writer io.Writer
}

// NewFileSessionLogger creates a new file-based session logger
func NewFileSessionLogger(writer io.Writer) *FileSessionLogger {
	return &FileSessionLogger{
		turns:  make([]TurnLog, 0),
		writer: writer,
	}
}

// LogTurn logs a turn to the buffer (does not flush immediately)
func (fsl *FileSessionLogger) LogTurn(turn TurnLog) error {
	fsl.turns = append(fsl.turns, turn)
	return nil
}

// Flush flushes all accumulated turns to the writer
func (fsl *FileSessionLogger) Flush() error {
	if fsl.writer == nil {
		return nil
	}

	data, err := json.MarshalIndent(map[string]any{
		"order_session": map[string]any{
			"timestamp": time.Now(),
			"turns":     fsl.turns,
		},
	}, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal session log: %w", err)
	}

	if _, err := fsl.writer.Write(data); err != nil {
		return fmt.Errorf("failed to write session log: %w", err)
	}

	// Clear the buffer after successful write
	fsl.turns = fsl.turns[:0]
	return nil
}

// NoOpSessionLogger is a logger that discards all log entries
type NoOpSessionLogger struct{}

// NewNoOpSessionLogger creates a new no-op session logger
func NewNoOpSessionLogger() *NoOpSessionLogger {
	return &NoOpSessionLogger{}
}

// LogTurn discards the turn log (no-op)
func (nop *NoOpSessionLogger) LogTurn(turn TurnLog) error {
	return nil
}

// StdoutSessionLogger logs each turn as a JSON line to stdout (for Lambda/CloudWatch)
type StdoutSessionLogger struct{}

// NewStdoutSessionLogger creates a new stdout-based session logger
func NewStdoutSessionLogger() *StdoutSessionLogger {
	return &StdoutSessionLogger{}
}

// LogTurn writes the turn as a JSON line to os.Stdout
func (l *StdoutSessionLogger) LogTurn(turn TurnLog) error {
	data, err := json.Marshal(turn)
	if err != nil {
		return err
	}
	fmt.Fprintln(os.Stdout, string(data))
	return nil
}

package acquire

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"os/exec"
	"strings"
	"time"

	"github.com/openlms/ask4summary/internal/config"
	"github.com/openlms/ask4summary/internal/segment"
)

// converter extracts plain text from a document file.
type converter interface {
	ToText(ctx context.Context, data []byte) (string, error)
}

// execConverter shells out to an external document converter. The document is
// written to a temp file appended to the configured argv, and the converter's
// stdout is taken as the extracted text.
type execConverter struct {
	command string
	args    []string
	timeout time.Duration
}

func newExecConverter(cfg config.ConverterConfig) *execConverter {
	timeout := time.Duration(cfg.TimeoutMS) * time.Millisecond
	if timeout <= 0 {
		timeout = time.Minute
	}
	return &execConverter{
		command: cfg.Command,
		args:    cfg.Args,
		timeout: timeout,
	}
}

func (c *execConverter) ToText(ctx context.Context, data []byte) (string, error) {
	tmp, err := os.CreateTemp("", "a4s-convert-*.pdf")
	if err != nil {
		return "", fmt.Errorf("failed to create temp file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return "", fmt.Errorf("failed to write temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return "", fmt.Errorf("failed to close temp file: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	args := append(append([]string{}, c.args...), tmp.Name())
	cmd := exec.CommandContext(ctx, c.command, args...)

	var stdout bytes.Buffer
	cmd.Stdout = &stdout
	if err := cmd.Run(); err != nil {
		// A converter that cannot read the document is a content problem,
		// not an infrastructure one.
		return "", fmt.Errorf("%w: converter failed: %v", ErrNoContent, err)
	}
	return stdout.String(), nil
}

// pdfSentences converts PDF bytes through the external converter and splits
// the resulting text into sentences.
func (a *Acquirer) pdfSentences(ctx context.Context, data []byte) ([]string, error) {
	text, err := a.converter.ToText(ctx, data)
	if err != nil {
		return nil, err
	}
	if strings.TrimSpace(text) == "" {
		return nil, fmt.Errorf("%w: converter produced no text", ErrNoContent)
	}
	return segment.Split(strings.TrimSpace(text)), nil
}

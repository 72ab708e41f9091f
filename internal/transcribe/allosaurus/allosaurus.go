// Package allosaurus wraps the universal phoneme recognizer, run as a
// subprocess. The recognizer emits one line per phoneme onset; grouping the
// onsets under words happens in the transcribe package.
package allosaurus

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"os/exec"
	"strconv"
	"strings"

	"github.com/spectralab/spectral-server/internal/model/segment"
)

// defaultEmit biases the recognizer toward emitting more phonemes; the
// clinical recordings this service analyzes tend to be under-segmented at
// the default.
const defaultEmit = 1.2

// Recognizer produces a raw timestamped phoneme stream for a WAV file.
type Recognizer interface {
	Recognize(ctx context.Context, wavPath string) ([]segment.PhonemeEvent, error)
}

// CLIRecognizer shells out to the allosaurus command line interface with
// timestamps enabled.
type CLIRecognizer struct {
	command []string
	emit    float64
	logger  *slog.Logger
}

func NewCLIRecognizer(command []string, logger *slog.Logger) *CLIRecognizer {
	if len(command) == 0 {
		command = []string{"python3", "-m", "allosaurus.run"}
	}
	return &CLIRecognizer{
		command: command,
		emit:    defaultEmit,
		logger:  logger,
	}
}

func (r *CLIRecognizer) Recognize(ctx context.Context, wavPath string) ([]segment.PhonemeEvent, error) {
	args := append([]string(nil), r.command[1:]...)
	args = append(args,
		"--timestamp",
		"-e", strconv.FormatFloat(r.emit, 'f', -1, 64),
		"-i", wavPath,
	)

	cmd := exec.CommandContext(ctx, r.command[0], args...)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	out, err := cmd.Output()
	if err != nil {
		if msg := strings.TrimSpace(stderr.String()); msg != "" {
			return nil, fmt.Errorf("allosaurus failed: %s", msg)
		}
		return nil, fmt.Errorf("run allosaurus: %w", err)
	}

	events, err := ParseEvents(string(out))
	if err != nil {
		return nil, err
	}

	r.logger.DebugContext(ctx, "phoneme recognition produced", "events", len(events))
	return events, nil
}

// ParseEvents parses the recognizer's timestamped output: one
// "<onset> <duration> <symbol>" line per phoneme, onsets ascending.
func ParseEvents(out string) ([]segment.PhonemeEvent, error) {
	events := []segment.PhonemeEvent{}

	for _, line := range strings.Split(out, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}

		fields := strings.Fields(line)
		if len(fields) < 3 {
			return nil, fmt.Errorf("malformed phoneme line %q", line)
		}

		onset, err := strconv.ParseFloat(fields[0], 64)
		if err != nil {
			return nil, fmt.Errorf("malformed phoneme onset in %q: %w", line, err)
		}

		events = append(events, segment.PhonemeEvent{Time: onset, Symbol: fields[2]})
	}

	return events, nil
}

var _ Recognizer = (*CLIRecognizer)(nil)

package audio

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"os/exec"
	"strings"
)

const (
	// Local speech models and the phoneme recognizer both want 16 kHz mono.
	targetSampleRate = 16000
	targetChannels   = 1
)

// Transcoder converts arbitrary container formats into 16 kHz mono PCM WAV
// by shelling out to ffmpeg.
type Transcoder struct {
	// Command is the ffmpeg binary to invoke, "ffmpeg" by default.
	Command string
}

func NewTranscoder(command string) *Transcoder {
	if command == "" {
		command = "ffmpeg"
	}
	return &Transcoder{Command: command}
}

// ConvertToWAV transcodes a recording into WAV. Input and output go through
// temp files since ffmpeg wants seekable media on both ends.
func (t *Transcoder) ConvertToWAV(ctx context.Context, data []byte) ([]byte, error) {
	in, err := os.CreateTemp("", "spectral-in-*")
	if err != nil {
		return nil, fmt.Errorf("create temp input: %w", err)
	}
	defer os.Remove(in.Name())

	if _, err := in.Write(data); err != nil {
		in.Close()
		return nil, fmt.Errorf("write temp input: %w", err)
	}
	if err := in.Close(); err != nil {
		return nil, fmt.Errorf("close temp input: %w", err)
	}

	out, err := os.CreateTemp("", "spectral-out-*.wav")
	if err != nil {
		return nil, fmt.Errorf("create temp output: %w", err)
	}
	out.Close()
	defer os.Remove(out.Name())

	cmd := exec.CommandContext(ctx, t.Command,
		"-y", "-hide_banner", "-loglevel", "error",
		"-i", in.Name(),
		"-ac", fmt.Sprint(targetChannels),
		"-ar", fmt.Sprint(targetSampleRate),
		"-f", "wav",
		out.Name(),
	)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		if msg := strings.TrimSpace(stderr.String()); msg != "" {
			return nil, fmt.Errorf("ffmpeg: %s", msg)
		}
		return nil, fmt.Errorf("ffmpeg: %w", err)
	}

	converted, err := os.ReadFile(out.Name())
	if err != nil {
		return nil, fmt.Errorf("read converted wav: %w", err)
	}
	return converted, nil
}

// WriteTemp dumps WAV bytes to a temp file for collaborators that only take
// a path (the phoneme recognizer CLI, the acoustic analyzer). The caller
// removes the file.
func WriteTemp(data []byte) (string, error) {
	f, err := os.CreateTemp("", "spectral-*.wav")
	if err != nil {
		return "", fmt.Errorf("create temp wav: %w", err)
	}
	if _, err := f.Write(data); err != nil {
		f.Close()
		os.Remove(f.Name())
		return "", fmt.Errorf("write temp wav: %w", err)
	}
	if err := f.Close(); err != nil {
		os.Remove(f.Name())
		return "", fmt.Errorf("close temp wav: %w", err)
	}
	return f.Name(), nil
}

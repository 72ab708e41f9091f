package localmodel

import (
	"context"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spectralab/spectral-server/internal/audio"
	"github.com/spectralab/spectral-server/internal/monitor"
)

func testEngine(checkpoints map[string]string) *Engine {
	return NewEngine(
		checkpoints,
		monitor.NewSemaphoreLoadMonitor(1, 1.0),
		slog.New(slog.NewTextHandler(io.Discard, nil)),
	)
}

func clip(sampleRate int) *audio.Audio {
	return &audio.Audio{
		SampleRate:  sampleRate,
		NumChannels: 1,
		BitDepth:    16,
		Samples:     make([]int, sampleRate),
	}
}

func TestTranscribeUnknownCheckpoint(t *testing.T) {
	e := testEngine(nil)

	_, err := e.Transcribe(context.Background(), "torgo", clip(16000))
	assert.ErrorIs(t, err, ErrUnknownCheckpoint)
}

func TestTranscribeRejectsWrongSampleRate(t *testing.T) {
	e := testEngine(map[string]string{"torgo": "models/torgo.bin"})

	_, err := e.Transcribe(context.Background(), "torgo", clip(44100))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "44100")
}

func TestTranscribeBusy(t *testing.T) {
	lm := monitor.NewSemaphoreLoadMonitor(1, 1.0)
	require.True(t, lm.TryAcquire())

	e := NewEngine(
		map[string]string{"torgo": "models/torgo.bin"},
		lm,
		slog.New(slog.NewTextHandler(io.Discard, nil)),
	)

	_, err := e.Transcribe(context.Background(), "torgo", clip(16000))
	assert.ErrorIs(t, err, ErrBusy)
}

func TestCloseWithNothingLoaded(t *testing.T) {
	e := testEngine(nil)
	assert.NoError(t, e.Close())
}

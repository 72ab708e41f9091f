// Package localmodel runs fine-tuned speech checkpoints through the
// embedded whisper.cpp engine. Checkpoints are ggml files mapped by name in
// configuration; loading one is expensive, so loaded models are memoized
// and shared read-only across requests.
package localmodel

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"github.com/ggerganov/whisper.cpp/bindings/go/pkg/whisper"

	"github.com/spectralab/spectral-server/internal/audio"
	"github.com/spectralab/spectral-server/internal/model/segment"
	"github.com/spectralab/spectral-server/internal/monitor"
)

const requiredSampleRate = 16000

var (
	// ErrUnknownCheckpoint is reported for a checkpoint name that has no
	// configured ggml path. Checkpoints need hand patching before export, so
	// only explicitly listed ones are trusted.
	ErrUnknownCheckpoint = errors.New("unknown local checkpoint")

	// ErrBusy is reported when every inference slot is taken.
	ErrBusy = errors.New("local model engine is busy")
)

type loadedModel struct {
	once  sync.Once
	model whisper.Model
	err   error
}

type Engine struct {
	checkpoints map[string]string
	loadMonitor monitor.LoadMonitor
	logger      *slog.Logger

	mu     sync.Mutex
	loaded map[string]*loadedModel
}

func NewEngine(
	checkpoints map[string]string,
	loadMonitor monitor.LoadMonitor,
	logger *slog.Logger,
) *Engine {
	return &Engine{
		checkpoints: checkpoints,
		loadMonitor: loadMonitor,
		logger:      logger,
		loaded:      make(map[string]*loadedModel),
	}
}

// model returns the memoized model context for a checkpoint, loading it on
// first use. The map access is guarded by the mutex and the load itself by
// a per-entry once, so concurrent first requests wait for a single load
// instead of each paying for their own.
func (e *Engine) model(name, path string) (whisper.Model, error) {
	e.mu.Lock()
	entry, ok := e.loaded[name]
	if !ok {
		entry = &loadedModel{}
		e.loaded[name] = entry
	}
	e.mu.Unlock()

	entry.once.Do(func() {
		e.logger.Info("loading local checkpoint", "checkpoint", name, "path", path)
		entry.model, entry.err = whisper.New(path)
	})
	if entry.err != nil {
		return nil, fmt.Errorf("load checkpoint %q: %w", name, entry.err)
	}
	return entry.model, nil
}

// Transcribe runs the named checkpoint over the whole clip and returns a
// single segment spanning it. These checkpoints generate free text with no
// word timing, and they do not detect language, so the result is reported
// as "unk".
func (e *Engine) Transcribe(ctx context.Context, name string, clip *audio.Audio) (segment.Transcription, error) {
	path, ok := e.checkpoints[name]
	if !ok {
		return segment.Transcription{}, fmt.Errorf("%w: %q", ErrUnknownCheckpoint, name)
	}

	if clip.SampleRate != requiredSampleRate {
		return segment.Transcription{}, fmt.Errorf("checkpoint %q needs %d Hz audio, got %d Hz", name, requiredSampleRate, clip.SampleRate)
	}

	if !e.loadMonitor.TryAcquire() {
		return segment.Transcription{}, ErrBusy
	}
	defer e.loadMonitor.Release()

	model, err := e.model(name, path)
	if err != nil {
		return segment.Transcription{}, err
	}

	// NewContext applies greedy-sampling defaults with no_context enabled.
	whisperCtx, err := model.NewContext()
	if err != nil {
		return segment.Transcription{}, fmt.Errorf("create whisper context: %w", err)
	}
	whisperCtx.SetTemperature(0.0)

	var parts []string
	if err := whisperCtx.Process(clip.Float32(), nil, func(s whisper.Segment) {
		parts = append(parts, s.Text)
	}, nil); err != nil {
		return segment.Transcription{}, fmt.Errorf("run checkpoint %q: %w", name, err)
	}

	text := strings.TrimSpace(strings.Join(parts, " "))

	e.logger.DebugContext(ctx, "local checkpoint transcription produced",
		"checkpoint", name,
		"characters", len(text),
	)

	return segment.Transcription{
		Language: "unk",
		Segments: []segment.Segment{segment.New(text, 0, clip.Duration())},
	}, nil
}

// Close releases every loaded model.
func (e *Engine) Close() error {
	e.mu.Lock()
	defer e.mu.Unlock()

	var errs []error
	for name, entry := range e.loaded {
		if entry.model != nil {
			if err := entry.model.Close(); err != nil {
				errs = append(errs, fmt.Errorf("close checkpoint %q: %w", name, err))
			}
		}
	}
	e.loaded = make(map[string]*loadedModel)
	return errors.Join(errs...)
}

// Package transcribe orchestrates the transcription backends: it selects an
// adapter by model name, runs it, and gap-fills the result so the returned
// segments always tile the whole clip.
package transcribe

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/spectralab/spectral-server/internal/audio"
	"github.com/spectralab/spectral-server/internal/model/segment"
	"github.com/spectralab/spectral-server/internal/transcribe/allosaurus"
	"github.com/spectralab/spectral-server/internal/transcribe/deepgram"
	"github.com/spectralab/spectral-server/internal/transcribe/localmodel"
	"github.com/spectralab/spectral-server/internal/transcribe/whisperapi"
)

// Model enumerates the supported transcription backends. The set is closed:
// dispatch is an exhaustive switch, so adding a variant without handling it
// shows up at compile time rather than as a silent no-op.
type Model string

const (
	// ModelDeepgram is the cloud ASR backend.
	ModelDeepgram Model = "deepgram"
	// ModelWhisper is the hosted OpenAI Whisper backend.
	ModelWhisper Model = "whisper"
	// ModelWhisperTorgo is the locally hosted fine-tuned checkpoint. The
	// name refers to the local checkpoint table, not a hosted model.
	ModelWhisperTorgo Model = "whisper-torgo-1-epoch"
	// ModelAllosaurus is the phoneme-level backend.
	ModelAllosaurus Model = "allosaurus"
)

// torgoCheckpoint is the checkpoint table key ModelWhisperTorgo resolves to.
const torgoCheckpoint = "torgo"

// ParseModel maps a request's model string onto the closed enum.
func ParseModel(name string) (Model, error) {
	switch Model(name) {
	case ModelDeepgram, ModelWhisper, ModelWhisperTorgo, ModelAllosaurus:
		return Model(name), nil
	default:
		return "", newError(CodeModelNotFound, fmt.Sprintf("model %q was not found", name), nil)
	}
}

// Keys holds the fallback credentials used when a request does not carry
// its own API key.
type Keys struct {
	Deepgram string
	OpenAI   string
}

type Service struct {
	deepgram *deepgram.Client
	whisper  *whisperapi.Client
	local    *localmodel.Engine
	phonemes allosaurus.Recognizer
	keys     Keys
	timeout  time.Duration
	logger   *slog.Logger
}

func NewService(
	deepgramClient *deepgram.Client,
	whisperClient *whisperapi.Client,
	localEngine *localmodel.Engine,
	phonemeRecognizer allosaurus.Recognizer,
	keys Keys,
	timeout time.Duration,
	logger *slog.Logger,
) *Service {
	return &Service{
		deepgram: deepgramClient,
		whisper:  whisperClient,
		local:    localEngine,
		phonemes: phonemeRecognizer,
		keys:     keys,
		timeout:  timeout,
		logger:   logger,
	}
}

// GetTranscription transcribes a WAV payload with the named model. Each call
// is a single attempt: adapter failures surface as typed errors instead of
// empty results, and nothing is retried here.
func (s *Service) GetTranscription(ctx context.Context, modelName string, data []byte, apiKey string) (segment.Transcription, error) {
	model, err := ParseModel(modelName)
	if err != nil {
		return segment.Transcription{}, err
	}

	if s.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}

	clip, err := audio.Decode(data)
	if err != nil {
		return segment.Transcription{}, newError(CodeBackendUnavailable, "audio could not be decoded", err)
	}
	duration := clip.Duration()

	s.logger.DebugContext(ctx, "transcription requested",
		"model", string(model),
		"duration", duration,
	)

	var raw segment.Transcription
	switch model {
	case ModelDeepgram:
		raw, err = s.deepgram.Transcribe(ctx, data, s.resolveKey(apiKey, s.keys.Deepgram))
	case ModelWhisper:
		raw, err = s.whisper.Transcribe(ctx, data, s.resolveKey(apiKey, s.keys.OpenAI))
	case ModelWhisperTorgo:
		raw, err = s.local.Transcribe(ctx, torgoCheckpoint, clip)
	case ModelAllosaurus:
		raw, err = s.phonemeTranscription(ctx, data, duration, s.resolveKey(apiKey, s.keys.Deepgram))
	}
	if err != nil {
		return segment.Transcription{}, s.classify(model, err)
	}

	return FillGaps(raw, duration)
}

// phonemeTranscription builds the phoneme-level result: a gap-filled
// word-level transcription from the cloud ASR backend serves as scaffolding
// for realigning the recognizer's dense onset stream.
func (s *Service) phonemeTranscription(ctx context.Context, data []byte, duration float64, deepgramKey string) (segment.Transcription, error) {
	words, err := s.deepgram.Transcribe(ctx, data, deepgramKey)
	if err != nil {
		return segment.Transcription{}, err
	}

	filled, err := FillGaps(words, duration)
	if err != nil {
		return segment.Transcription{}, err
	}

	wavPath, err := audio.WriteTemp(data)
	if err != nil {
		return segment.Transcription{}, err
	}
	defer os.Remove(wavPath)

	events, err := s.phonemes.Recognize(ctx, wavPath)
	if err != nil {
		return segment.Transcription{}, err
	}

	splits := PhonemeWordSplits(filled.Segments, events)

	return segment.Transcription{
		Language: words.Language,
		Segments: PhonemeSegments(splits),
	}, nil
}

func (s *Service) resolveKey(requestKey, configuredKey string) string {
	if requestKey != "" {
		return requestKey
	}
	return configuredKey
}

// classify wraps an adapter's plain error into the failure taxonomy.
func (s *Service) classify(model Model, err error) error {
	var te *Error
	if errors.As(err, &te) {
		return err
	}

	switch {
	case errors.Is(err, deepgram.ErrMissingAPIKey), errors.Is(err, whisperapi.ErrMissingAPIKey):
		return newError(CodeAuthMissing, fmt.Sprintf("model %q needs an api key", model), err)
	case errors.Is(err, localmodel.ErrUnknownCheckpoint):
		return newError(CodeUnsupportedCheckpoint, fmt.Sprintf("model %q has no usable checkpoint", model), err)
	default:
		return newError(CodeBackendUnavailable, fmt.Sprintf("model %q backend failed", model), err)
	}
}

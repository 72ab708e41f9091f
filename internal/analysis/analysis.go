// Package analysis serves the signal analysis modes: acoustic summaries,
// contours for plotting, and transcription error rates.
package analysis

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"os"
	"time"

	"github.com/spectralab/spectral-server/internal/acoustics"
	"github.com/spectralab/spectral-server/internal/audio"
	"github.com/spectralab/spectral-server/internal/errorrate"
	"github.com/spectralab/spectral-server/internal/filestore"
)

// Mode selects which analysis to run on a recording.
type Mode string

const (
	ModeSimpleInfo    Mode = "simple-info"
	ModeSpectrogram   Mode = "spectrogram"
	ModeWaveform      Mode = "waveform"
	ModeVowelSpace    Mode = "vowel-space"
	ModeTranscription Mode = "transcription"
	ModeErrorRate     Mode = "error-rate"
)

var (
	ErrUnknownMode  = errors.New("unknown analysis mode")
	ErrMissingID    = errors.New("file state did not include id")
	ErrInvalidFrame = errors.New("invalid frame index")
)

// ParseMode validates a mode name from a request path.
func ParseMode(name string) (Mode, error) {
	switch m := Mode(name); m {
	case ModeSimpleInfo, ModeSpectrogram, ModeWaveform, ModeVowelSpace,
		ModeTranscription, ModeErrorRate:
		return m, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownMode, name)
	}
}

// SimpleInfo is the simple-info mode response.
type SimpleInfo struct {
	Duration         float64       `json:"duration"`
	AveragePitch     NullableFloat `json:"averagePitch"`
	FileSize         int           `json:"fileSize"`
	FileCreationDate time.Time     `json:"fileCreationDate"`
	Frame            *FrameInfo    `json:"frame"`
}

// FrameInfo is the acoustic summary of a selected frame.
type FrameInfo struct {
	Duration float64       `json:"duration"`
	Pitch    NullableFloat `json:"pitch"`
	F1       NullableFloat `json:"f1"`
	F2       NullableFloat `json:"f2"`
}

// FormantFrames is a formant contour with undefined values rendered as null.
type FormantFrames struct {
	TimeStep     float64           `json:"time_step"`
	WindowLength float64           `json:"window_length"`
	StartTime    float64           `json:"start_time"`
	Data         [][]NullableFloat `json:"data"`
}

// Waveform is the waveform mode response.
type Waveform struct {
	Pitch    []float64         `json:"pitch"`
	Formants [][]NullableFloat `json:"formants"`
}

// VowelPoint is one measured point of the vowel space: the formants of the
// selected frame or of a matched caption.
type VowelPoint struct {
	F1          NullableFloat `json:"f1"`
	F2          NullableFloat `json:"f2"`
	MatchString *string       `json:"matchString"`
	Start       float64       `json:"start"`
	End         float64       `json:"end"`
}

// VowelSpace is the vowel-space mode response.
type VowelSpace struct {
	Formants []VowelPoint `json:"formants"`
}

// Service runs analysis modes against stored recordings.
type Service struct {
	store      *filestore.Store
	transcoder *audio.Transcoder
	analyzer   acoustics.Analyzer
	logger     *slog.Logger
}

func NewService(store *filestore.Store, transcoder *audio.Transcoder, analyzer acoustics.Analyzer, logger *slog.Logger) *Service {
	return &Service{
		store:      store,
		transcoder: transcoder,
		analyzer:   analyzer,
		logger:     logger.With("component", "analysis"),
	}
}

// Analyze runs one mode and returns its JSON-encodable result. Modes that
// have nothing to report for the given state return nil.
func (s *Service) Analyze(ctx context.Context, mode Mode, state *FileState) (any, error) {
	switch mode {
	case ModeSimpleInfo:
		return s.simpleInfo(ctx, state)
	case ModeSpectrogram:
		return s.spectrogram(ctx, state)
	case ModeWaveform:
		return s.waveform(ctx, state)
	case ModeVowelSpace:
		return s.vowelSpace(ctx, state)
	case ModeTranscription:
		return nil, nil
	case ModeErrorRate:
		return s.errorRate(state), nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownMode, mode)
	}
}

func (s *Service) simpleInfo(ctx context.Context, state *FileState) (*SimpleInfo, error) {
	file, clip, err := s.fetch(ctx, state)
	if err != nil {
		return nil, err
	}

	info := &SimpleInfo{
		Duration:         clip.Duration(),
		AveragePitch:     NullableFloat(math.NaN()),
		FileSize:         len(file.Data),
		FileCreationDate: file.CreationTime,
	}

	wavPath, cleanup, err := s.writeClip(clip)
	if err != nil {
		return nil, err
	}
	defer cleanup()

	if track, err := s.analyzer.Pitch(ctx, wavPath); err != nil {
		s.logger.Warn("pitch track failed", "file_id", state.ID, "error", err)
	} else {
		info.AveragePitch = NullableFloat(mean(track.Frequencies))
	}

	frame, err := validateFrame(clip, state)
	if err != nil {
		return nil, err
	}
	if frame != nil {
		info.Frame, err = s.frameInfo(ctx, clip, frame)
		if err != nil {
			return nil, err
		}
	}

	return info, nil
}

func (s *Service) spectrogram(ctx context.Context, state *FileState) (*FormantFrames, error) {
	_, clip, err := s.fetch(ctx, state)
	if err != nil {
		return nil, err
	}

	wavPath, cleanup, err := s.writeClip(clip)
	if err != nil {
		return nil, err
	}
	defer cleanup()

	track, err := s.analyzer.SpectrogramFormants(ctx, wavPath)
	if err != nil {
		return nil, fmt.Errorf("spectrogram formants: %w", err)
	}
	return formantFrames(track), nil
}

func (s *Service) waveform(ctx context.Context, state *FileState) (*Waveform, error) {
	_, clip, err := s.fetch(ctx, state)
	if err != nil {
		return nil, err
	}

	wavPath, cleanup, err := s.writeClip(clip)
	if err != nil {
		return nil, err
	}
	defer cleanup()

	result := &Waveform{Pitch: []float64{}, Formants: [][]NullableFloat{}}

	if pitch, err := s.analyzer.Pitch(ctx, wavPath); err != nil {
		s.logger.Warn("pitch track failed", "file_id", state.ID, "error", err)
	} else {
		result.Pitch = pitch.Frequencies
	}
	if formants, err := s.analyzer.Formants(ctx, wavPath); err != nil {
		s.logger.Warn("formant track failed", "file_id", state.ID, "error", err)
	} else {
		result.Formants = nullableFrames(formants.Frames)
	}

	return result, nil
}

func (s *Service) vowelSpace(ctx context.Context, state *FileState) (*VowelSpace, error) {
	_, clip, err := s.fetch(ctx, state)
	if err != nil {
		return nil, err
	}

	frame, err := validateFrame(clip, state)
	if err != nil {
		return nil, err
	}

	points := []VowelPoint{}
	duration := clip.Duration()
	total := len(clip.Samples)

	if frame != nil {
		f1, f2 := s.sliceFormants(ctx, clip, *frame.StartIndex, *frame.EndIndex)
		points = append(points, VowelPoint{
			F1:    f1,
			F2:    f2,
			Start: duration * float64(*frame.StartIndex) / float64(total),
			End:   duration * float64(*frame.EndIndex) / float64(total),
		})
	}

	for _, caption := range state.MatchingCaptions() {
		start := int(float64(total) / duration * caption.Start)
		end := int(float64(total) / duration * caption.End)
		f1, f2 := s.sliceFormants(ctx, clip, start, end)
		points = append(points, VowelPoint{
			F1:          f1,
			F2:          f2,
			MatchString: caption.MatchString,
			Start:       caption.Start,
			End:         caption.End,
		})
	}

	return &VowelSpace{Formants: points}, nil
}

func (s *Service) errorRate(state *FileState) *errorrate.Report {
	if state.Reference == nil || state.Reference.Captions == nil ||
		state.Hypothesis == nil || state.Hypothesis.Captions == nil {
		return nil
	}
	return errorrate.Calculate(state.Reference.Segments(), state.Hypothesis.Segments())
}

// frameInfo measures the selected frame. Measurement failures degrade to
// null values rather than failing the request; frames are often too short
// for a defined pitch.
func (s *Service) frameInfo(ctx context.Context, clip *audio.Audio, frame *Frame) (*FrameInfo, error) {
	slice := clip.Slice(*frame.StartIndex, *frame.EndIndex)

	info := &FrameInfo{Duration: slice.Duration()}
	info.Pitch = NullableFloat(math.NaN())
	info.F1 = NullableFloat(math.NaN())
	info.F2 = NullableFloat(math.NaN())

	wavPath, cleanup, err := s.writeClip(slice)
	if err != nil {
		return nil, err
	}
	defer cleanup()

	if pitch, err := s.analyzer.FramePitch(ctx, wavPath); err == nil {
		info.Pitch = NullableFloat(pitch)
	}
	if f1, f2, err := s.analyzer.FrameFormants(ctx, wavPath); err == nil {
		info.F1 = NullableFloat(f1)
		info.F2 = NullableFloat(f2)
	}

	return info, nil
}

func (s *Service) sliceFormants(ctx context.Context, clip *audio.Audio, start, end int) (NullableFloat, NullableFloat) {
	nan := NullableFloat(math.NaN())
	if start < 0 || end > len(clip.Samples) || start >= end {
		return nan, nan
	}

	wavPath, cleanup, err := s.writeClip(clip.Slice(start, end))
	if err != nil {
		s.logger.Warn("frame export failed", "error", err)
		return nan, nan
	}
	defer cleanup()

	f1, f2, err := s.analyzer.FrameFormants(ctx, wavPath)
	if err != nil {
		return nan, nan
	}
	return NullableFloat(f1), NullableFloat(f2)
}

// fetch loads the recording and decodes it, transcoding to WAV first so the
// sample view is uniform regardless of the uploaded format.
func (s *Service) fetch(ctx context.Context, state *FileState) (filestore.File, *audio.Audio, error) {
	if state.ID == "" {
		return filestore.File{}, nil, ErrMissingID
	}

	file, err := s.store.Fetch(ctx, state.ID)
	if err != nil {
		return filestore.File{}, nil, err
	}

	wavData, err := s.transcoder.ConvertToWAV(ctx, file.Data)
	if err != nil {
		return filestore.File{}, nil, fmt.Errorf("transcode recording: %w", err)
	}
	file.Data = wavData

	clip, err := audio.Decode(wavData)
	if err != nil {
		return filestore.File{}, nil, fmt.Errorf("decode recording: %w", err)
	}
	return file, clip, nil
}

func (s *Service) writeClip(clip *audio.Audio) (string, func(), error) {
	f, err := os.CreateTemp("", "analysis-*.wav")
	if err != nil {
		return "", nil, fmt.Errorf("create frame file: %w", err)
	}
	path := f.Name()
	f.Close()

	if err := audio.WriteWAV(path, clip); err != nil {
		os.Remove(path)
		return "", nil, err
	}
	return path, func() { os.Remove(path) }, nil
}

// validateFrame checks the selected sample range against the decoded clip.
// No frame, or a frame with neither index set, selects nothing. A frame with
// only one index set, or with indexes outside the sample range, is an error.
func validateFrame(clip *audio.Audio, state *FileState) (*Frame, error) {
	frame := state.Frame
	if frame == nil {
		return nil, nil
	}
	if frame.StartIndex == nil && frame.EndIndex == nil {
		return nil, nil
	}
	if frame.StartIndex == nil || frame.EndIndex == nil {
		return nil, fmt.Errorf("%w: both startIndex and endIndex are required", ErrInvalidFrame)
	}

	start, end := *frame.StartIndex, *frame.EndIndex
	if start < 0 || start > end || end > len(clip.Samples) {
		return nil, fmt.Errorf("%w: [%d, %d) out of range for %d samples", ErrInvalidFrame, start, end, len(clip.Samples))
	}
	return frame, nil
}

func formantFrames(track *acoustics.FormantTrack) *FormantFrames {
	return &FormantFrames{
		TimeStep:     track.TimeStep,
		WindowLength: track.WindowLength,
		StartTime:    track.StartTime,
		Data:         nullableFrames(track.Frames),
	}
}

func mean(values []float64) float64 {
	if len(values) == 0 {
		return math.NaN()
	}
	var sum float64
	for _, v := range values {
		sum += v
	}
	return sum / float64(len(values))
}

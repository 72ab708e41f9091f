// Package acoustics extracts pitch and formant measurements from recordings.
package acoustics

import "context"

// PitchTrack is a sampled pitch contour. Unvoiced frames carry a frequency
// of zero.
type PitchTrack struct {
	TimeStep    float64   `json:"time_step"`
	StartTime   float64   `json:"start_time"`
	Frequencies []float64 `json:"data"`
}

// FormantTrack is a sampled formant contour. Each frame holds one value per
// requested formant; frames where a formant is undefined carry NaN.
type FormantTrack struct {
	TimeStep     float64     `json:"time_step"`
	WindowLength float64     `json:"window_length"`
	StartTime    float64     `json:"start_time"`
	Frames       [][]float64 `json:"data"`
}

// Analyzer measures acoustic properties of a WAV recording on disk.
//
// The frame methods analyze the whole file as a single window and return NaN
// when the measurement is undefined, matching how short frames behave.
type Analyzer interface {
	// Pitch computes the pitch contour of the recording.
	Pitch(ctx context.Context, wavPath string) (*PitchTrack, error)

	// Formants computes the first two formants per analysis frame.
	Formants(ctx context.Context, wavPath string) (*FormantTrack, error)

	// SpectrogramFormants computes the first five formants per analysis
	// frame, sampled densely enough to overlay on a spectrogram.
	SpectrogramFormants(ctx context.Context, wavPath string) (*FormantTrack, error)

	// FramePitch measures the pitch of the recording taken as one frame.
	FramePitch(ctx context.Context, wavPath string) (float64, error)

	// FrameFormants measures the first and second formant of the recording
	// taken as one frame.
	FrameFormants(ctx context.Context, wavPath string) (f1, f2 float64, err error)
}

package audio

import (
	"bytes"
	"errors"
	"fmt"
	"os"

	goaudio "github.com/go-audio/audio"
	"github.com/go-audio/wav"
)

// Audio is a decoded clip: raw integer samples plus the format needed to
// interpret them. The transcription pipeline only ever needs the duration
// and a float32 view of the samples.
type Audio struct {
	SampleRate  int
	NumChannels int
	BitDepth    int
	Samples     []int
}

// Decode parses a WAV payload fully into memory. Recordings fetched from the
// store go through the ffmpeg transcoder first, so anything that reaches
// this point is expected to be a valid PCM WAV.
func Decode(data []byte) (*Audio, error) {
	dec := wav.NewDecoder(bytes.NewReader(data))
	if !dec.IsValidFile() {
		return nil, errors.New("invalid wav file")
	}

	buf, err := dec.FullPCMBuffer()
	if err != nil {
		return nil, fmt.Errorf("decode wav pcm: %w", err)
	}

	return &Audio{
		SampleRate:  int(dec.SampleRate),
		NumChannels: int(dec.NumChans),
		BitDepth:    int(dec.BitDepth),
		Samples:     buf.Data,
	}, nil
}

// Duration returns the clip length in seconds.
func (a *Audio) Duration() float64 {
	if a.SampleRate == 0 || a.NumChannels == 0 {
		return 0
	}
	frames := len(a.Samples) / a.NumChannels
	return float64(frames) / float64(a.SampleRate)
}

// Float32 converts the samples to float32 in [-1, 1), the input format the
// local speech models expect.
func (a *Audio) Float32() []float32 {
	scale := float32(int64(1) << (a.BitDepth - 1))
	out := make([]float32, len(a.Samples))
	for i, s := range a.Samples {
		out[i] = float32(s) / scale
	}
	return out
}

// Slice returns a clip holding the sample range [start, end).
func (a *Audio) Slice(start, end int) *Audio {
	return &Audio{
		SampleRate:  a.SampleRate,
		NumChannels: a.NumChannels,
		BitDepth:    a.BitDepth,
		Samples:     a.Samples[start:end],
	}
}

// WriteWAV encodes the clip as a PCM WAV file at path.
func WriteWAV(path string, a *Audio) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create wav file: %w", err)
	}

	enc := wav.NewEncoder(f, a.SampleRate, a.BitDepth, a.NumChannels, 1)
	buf := &goaudio.IntBuffer{
		Format: &goaudio.Format{
			NumChannels: a.NumChannels,
			SampleRate:  a.SampleRate,
		},
		Data:           a.Samples,
		SourceBitDepth: a.BitDepth,
	}
	if err := enc.Write(buf); err != nil {
		f.Close()
		return fmt.Errorf("encode wav: %w", err)
	}
	if err := enc.Close(); err != nil {
		f.Close()
		return fmt.Errorf("finalize wav: %w", err)
	}
	return f.Close()
}

package audio

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sineClip() *Audio {
	samples := make([]int, 16000)
	for i := range samples {
		// Alternating quarter-scale square wave, enough to verify the
		// samples survive a round trip.
		if i%2 == 0 {
			samples[i] = 8192
		} else {
			samples[i] = -8192
		}
	}
	return &Audio{
		SampleRate:  16000,
		NumChannels: 1,
		BitDepth:    16,
		Samples:     samples,
	}
}

func TestWriteAndDecodeRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "clip.wav")
	clip := sineClip()

	require.NoError(t, WriteWAV(path, clip))

	data, err := os.ReadFile(path)
	require.NoError(t, err)

	decoded, err := Decode(data)
	require.NoError(t, err)

	assert.Equal(t, clip.SampleRate, decoded.SampleRate)
	assert.Equal(t, clip.NumChannels, decoded.NumChannels)
	assert.Equal(t, clip.BitDepth, decoded.BitDepth)
	assert.Equal(t, clip.Samples, decoded.Samples)
}

func TestDecodeRejectsGarbage(t *testing.T) {
	_, err := Decode([]byte("definitely not a wav"))
	assert.Error(t, err)
}

func TestDuration(t *testing.T) {
	clip := sineClip()
	assert.Equal(t, 1.0, clip.Duration())

	half := clip.Slice(0, 8000)
	assert.Equal(t, 0.5, half.Duration())

	empty := &Audio{}
	assert.Equal(t, 0.0, empty.Duration())
}

func TestFloat32Scaling(t *testing.T) {
	clip := &Audio{
		SampleRate:  16000,
		NumChannels: 1,
		BitDepth:    16,
		Samples:     []int{0, 16384, -16384, 32767, -32768},
	}

	got := clip.Float32()
	require.Len(t, got, 5)
	assert.Equal(t, float32(0), got[0])
	assert.Equal(t, float32(0.5), got[1])
	assert.Equal(t, float32(-0.5), got[2])
	assert.InDelta(t, 1.0, got[3], 0.001)
	assert.Equal(t, float32(-1.0), got[4])
}

func TestSliceSharesFormat(t *testing.T) {
	clip := sineClip()
	slice := clip.Slice(100, 200)

	assert.Equal(t, clip.SampleRate, slice.SampleRate)
	assert.Equal(t, 100, len(slice.Samples))
	assert.Equal(t, clip.Samples[100], slice.Samples[0])
}

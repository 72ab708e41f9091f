package textgrid

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spectralab/spectral-server/internal/model/segment"
)

func TestConvertEmpty(t *testing.T) {
	assert.Equal(t, "", Convert(nil))
	assert.Equal(t, "", Convert([]Track{}))
}

func TestConvertSingleTier(t *testing.T) {
	got := Convert([]Track{{
		ID:   "t1",
		Name: "words",
		Captions: []segment.Segment{
			segment.New("hello", 0, 0.5),
			segment.New("world", 0.5, 1.25),
		},
	}})

	assert.True(t, strings.HasPrefix(got, "File type = \"ooTextFile\"\n"))
	assert.Contains(t, got, "Object class = \"TextGrid\"")
	assert.Contains(t, got, "xmax = 1.25")
	assert.Contains(t, got, "size = 1")
	assert.Contains(t, got, "class = \"IntervalTier\"")
	assert.Contains(t, got, "name = \"words\"")
	assert.Contains(t, got, "intervals: size = 2")
	assert.Contains(t, got, "text = \"hello\"")
	assert.Contains(t, got, "text = \"world\"")
}

func TestConvertPadsShortTiers(t *testing.T) {
	got := Convert([]Track{
		{
			Name: "words",
			Captions: []segment.Segment{
				segment.New("full", 0, 2.0),
			},
		},
		{
			Name: "phonemes",
			Captions: []segment.Segment{
				segment.New("f", 0.5, 1.0),
			},
		},
	})

	assert.Contains(t, got, "xmax = 2")
	assert.Contains(t, got, "name = \"phonemes\"")

	// The short tier gains a leading and a trailing empty interval so it
	// spans the whole grid.
	phonemes := got[strings.Index(got, "name = \"phonemes\""):]
	assert.Contains(t, phonemes, "intervals: size = 3")
	assert.Contains(t, phonemes, "text = \"\"")
}

func TestConvertTierCount(t *testing.T) {
	tracks := []Track{
		{Name: "a", Captions: []segment.Segment{segment.New("x", 0, 1)}},
		{Name: "b", Captions: []segment.Segment{segment.New("y", 0, 1)}},
		{Name: "c"},
	}

	got := Convert(tracks)
	require.Contains(t, got, "size = 3")
	assert.Contains(t, got, "item [1]:")
	assert.Contains(t, got, "item [2]:")
	assert.Contains(t, got, "item [3]:")
}

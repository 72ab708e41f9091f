package transcribe

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spectralab/spectral-server/internal/model/segment"
)

func events(pairs ...any) []segment.PhonemeEvent {
	out := make([]segment.PhonemeEvent, 0, len(pairs)/2)
	for i := 0; i+1 < len(pairs); i += 2 {
		out = append(out, segment.PhonemeEvent{
			Time:   pairs[i].(float64),
			Symbol: pairs[i+1].(string),
		})
	}
	return out
}

func TestPhonemeWordSplitsGroupsByWordSpan(t *testing.T) {
	words := []segment.Segment{
		segment.New("", 0, 0.5),
		segment.New("hello", 0.5, 1.0),
		segment.New("world", 1.0, 2.0),
	}
	onsets := events(0.1, "sil", 0.6, "h", 0.8, "l", 1.2, "w", 1.8, "d")

	splits := PhonemeWordSplits(words, onsets)
	require.Len(t, splits, 3)

	assert.Equal(t, words[0], *splits[0].Word)
	assert.Equal(t, events(0.1, "sil"), splits[0].Phonemes)

	assert.Equal(t, words[1], *splits[1].Word)
	assert.Equal(t, events(0.6, "h", 0.8, "l"), splits[1].Phonemes)

	assert.Equal(t, words[2], *splits[2].Word)
	assert.Equal(t, events(1.2, "w", 1.8, "d"), splits[2].Phonemes)
}

func TestPhonemeWordSplitsEmptyWords(t *testing.T) {
	splits := PhonemeWordSplits(nil, events(0.1, "a"))
	assert.Empty(t, splits)
}

func TestPhonemeWordSplitsNoOnsets(t *testing.T) {
	words := []segment.Segment{segment.New("only", 0, 1)}

	splits := PhonemeWordSplits(words, nil)
	require.Len(t, splits, 1)
	assert.Equal(t, words[0], *splits[0].Word)
	assert.Empty(t, splits[0].Phonemes)
}

func TestPhonemeWordSplitsDropsTrailingWords(t *testing.T) {
	words := []segment.Segment{
		segment.New("spoken", 0, 1),
		segment.New("silent", 1, 2),
		segment.New("also silent", 2, 3),
	}
	// The single onset exhausts inside the first word, so the later words
	// never get a group.
	splits := PhonemeWordSplits(words, events(0.5, "s"))

	require.Len(t, splits, 1)
	assert.Equal(t, "spoken", splits[0].Word.Value)
}

func TestPhonemeWordSplitsDropsTrailingOnsets(t *testing.T) {
	words := []segment.Segment{segment.New("word", 0, 1)}
	// Onsets after the last word's end close the group and then have no
	// word left to land in.
	splits := PhonemeWordSplits(words, events(0.5, "w", 1.5, "x", 1.8, "y"))

	require.Len(t, splits, 1)
	assert.Equal(t, events(0.5, "w"), splits[0].Phonemes)
}

func TestPhonemeSegmentsInterpolation(t *testing.T) {
	word := segment.New("word", 1.0, 2.0)
	splits := []WordPhonemeSplit{
		{Word: &word, Phonemes: events(1.1, "w", 1.4, "er", 1.9, "d")},
	}

	got := PhonemeSegments(splits)
	require.Len(t, got, 3)

	// First starts at the word start, last ends at the word end, interior
	// boundaries sit midway between adjacent onsets.
	assert.Equal(t, segment.New("w", 1.0, 1.25), got[0])
	assert.Equal(t, segment.New("er", 1.25, 1.65), got[1])
	assert.Equal(t, segment.New("d", 1.65, 2.0), got[2])
}

func TestPhonemeSegmentsSinglePhonemeSpansWord(t *testing.T) {
	word := segment.New("a", 0.5, 1.5)
	splits := []WordPhonemeSplit{
		{Word: &word, Phonemes: events(0.9, "ah")},
	}

	got := PhonemeSegments(splits)
	require.Len(t, got, 1)
	assert.Equal(t, segment.New("ah", 0.5, 1.5), got[0])
}

func TestPhonemeSegmentsSkipsWordlessSplits(t *testing.T) {
	splits := []WordPhonemeSplit{
		{Phonemes: events(0.1, "x")},
	}

	assert.Empty(t, PhonemeSegments(splits))
}

func TestRealignedSegmentsStayValid(t *testing.T) {
	words, err := FillGaps(segment.Transcription{
		Segments: []segment.Segment{
			segment.New("one", 0.5, 1.0),
			segment.New("two", 1.0, 2.0),
		},
	}, 3.0)
	require.NoError(t, err)

	onsets := events(0.2, "sil", 0.6, "w", 0.9, "n", 1.3, "t", 1.7, "u", 2.4, "sil")

	got := PhonemeSegments(PhonemeWordSplits(words.Segments, onsets))
	require.NotEmpty(t, got)
	assert.NoError(t, segment.Validate(got))
	assert.Equal(t, 0.0, got[0].Start)
	assert.Equal(t, 3.0, got[len(got)-1].End)
}

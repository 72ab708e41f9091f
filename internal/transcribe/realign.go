package transcribe

import (
	"github.com/spectralab/spectral-server/internal/model/segment"
)

// WordPhonemeSplit groups the phoneme onsets that fall inside one word's
// span. It only lives for the duration of a single realignment run.
type WordPhonemeSplit struct {
	Phonemes []segment.PhonemeEvent
	Word     *segment.Segment
}

// PhonemeWordSplits partitions a dense, time-ordered phoneme onset stream
// into one group per word segment. The word list is expected to be
// gap-filled, so its segments are contiguous and every onset lands in
// exactly one word's span.
//
// Two pointers walk both lists: an onset later than the current word's end
// closes the current group and is re-tested against the next word. When the
// onsets run out exactly, the open group is flushed against the current
// word. Two asymmetries of this walk are deliberate and match long-standing
// consumer expectations: words past the last onset produce no groups at all,
// and onsets past the last word are dropped.
func PhonemeWordSplits(words []segment.Segment, events []segment.PhonemeEvent) []WordPhonemeSplit {
	if len(words) == 0 {
		return []WordPhonemeSplit{}
	}

	wordPointer := 0
	phonemePointer := 0

	splits := []WordPhonemeSplit{}
	current := WordPhonemeSplit{}

	for wordPointer < len(words) && phonemePointer < len(events) {
		if events[phonemePointer].Time > words[wordPointer].End {
			word := words[wordPointer]
			current.Word = &word
			splits = append(splits, current)
			current = WordPhonemeSplit{}
			wordPointer++
			continue
		}

		current.Phonemes = append(current.Phonemes, events[phonemePointer])
		phonemePointer++
	}

	if phonemePointer == len(events) {
		word := words[wordPointer]
		current.Word = &word
		splits = append(splits, current)
	}

	return splits
}

// PhonemeSegments turns grouped phoneme onsets into labeled intervals. The
// first phoneme of a word starts at the word's start and the last one ends
// at the word's end; every interior boundary is the midpoint between two
// adjacent onsets. The midpoint is the simplest unbiased estimate between
// two known onsets and can be off for uneven phonemes.
func PhonemeSegments(splits []WordPhonemeSplit) []segment.Segment {
	res := []segment.Segment{}

	for _, split := range splits {
		if split.Word == nil {
			continue
		}

		for i, event := range split.Phonemes {
			start := split.Word.Start
			if i > 0 {
				start = (split.Phonemes[i-1].Time + event.Time) / 2
			}

			end := split.Word.End
			if i+1 < len(split.Phonemes) {
				end = (split.Phonemes[i+1].Time + event.Time) / 2
			}

			res = append(res, segment.New(event.Symbol, start, end))
		}
	}

	return res
}

package segment

import (
	"errors"
	"fmt"
)

// Segment is a single labeled time interval of a transcription track.
// Start and End are expressed in seconds from the beginning of the clip.
type Segment struct {
	Value string  `json:"value"`
	Start float64 `json:"start"`
	End   float64 `json:"end"`
}

func New(value string, start, end float64) Segment {
	return Segment{
		Value: value,
		Start: start,
		End:   end,
	}
}

// Transcription is the result of one transcription run: the language the
// backend detected ("unk" when the backend cannot tell) and the time-ordered
// segment list.
type Transcription struct {
	Language string    `json:"language"`
	Segments []Segment `json:"transcription"`
}

// PhonemeEvent is one onset emitted by a phoneme recognizer. Recognizers
// report only the instant a phoneme starts, not an interval.
type PhonemeEvent struct {
	Time   float64
	Symbol string
}

var ErrMalformed = errors.New("malformed segment list")

// Validate checks the ordering precondition the rest of the pipeline relies
// on: every segment has a non-negative start, its end does not precede its
// start, and consecutive segments do not overlap. Zero-duration segments are
// tolerated since interpolated phoneme boundaries can coincide.
func Validate(segments []Segment) error {
	for i, s := range segments {
		if s.Start < 0 {
			return fmt.Errorf("%w: segment %d starts at %v", ErrMalformed, i, s.Start)
		}
		if s.End < s.Start {
			return fmt.Errorf("%w: segment %d ends at %v before its start %v", ErrMalformed, i, s.End, s.Start)
		}
		if i > 0 && s.Start < segments[i-1].End {
			return fmt.Errorf("%w: segment %d overlaps previous (start %v < end %v)", ErrMalformed, i, s.Start, segments[i-1].End)
		}
	}
	return nil
}

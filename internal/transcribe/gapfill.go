package transcribe

import (
	"fmt"

	"github.com/spectralab/spectral-server/internal/model/segment"
)

// FillGaps inserts empty-valued segments so the result tiles [0, duration]
// with no holes and no overlaps. The input list must be sorted by start and
// non-overlapping; that precondition is validated and a violation is a hard
// error rather than corrupt output. The language field passes through
// unchanged.
func FillGaps(raw segment.Transcription, duration float64) (segment.Transcription, error) {
	if err := segment.Validate(raw.Segments); err != nil {
		return segment.Transcription{}, newError(CodeMalformedSegments, "gap filler input rejected", err)
	}

	if len(raw.Segments) == 0 {
		return segment.Transcription{
			Language: raw.Language,
			Segments: []segment.Segment{segment.New("", 0, duration)},
		}, nil
	}

	if last := raw.Segments[len(raw.Segments)-1]; duration < last.End {
		return segment.Transcription{}, newError(CodeMalformedSegments,
			"gap filler input rejected",
			fmt.Errorf("duration %v precedes final segment end %v", duration, last.End))
	}

	res := make([]segment.Segment, 0, 2*len(raw.Segments)+1)
	time := 0.0

	for _, s := range raw.Segments {
		if time != s.Start {
			res = append(res, segment.New("", time, s.Start))
		}
		res = append(res, s)
		time = s.End
	}

	if time != duration {
		res = append(res, segment.New("", time, duration))
	}

	return segment.Transcription{Language: raw.Language, Segments: res}, nil
}

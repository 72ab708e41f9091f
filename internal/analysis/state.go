package analysis

import (
	"encoding/json"
	"math"

	"github.com/spectralab/spectral-server/internal/model/segment"
)

// FileState is the client-side view of a recording that analysis requests
// carry: which file, which selected frame, and which annotation tracks.
type FileState struct {
	ID             string  `json:"id"`
	Frame          *Frame  `json:"frame"`
	Transcriptions []Track `json:"transcriptions"`
	Reference      *Track  `json:"reference"`
	Hypothesis     *Track  `json:"hypothesis"`
}

// Frame is a selected sample range. Both indexes are optional; a frame with
// neither set means no selection.
type Frame struct {
	StartIndex *int `json:"startIndex"`
	EndIndex   *int `json:"endIndex"`
}

// Track is a list of captions from one annotation layer.
type Track struct {
	Captions []Caption `json:"captions"`
}

// Caption is an annotated time span. MatchString is set on captions the
// client has linked to a phoneme or word of interest.
type Caption struct {
	Value       string  `json:"value"`
	Start       float64 `json:"start"`
	End         float64 `json:"end"`
	MatchString *string `json:"matchString"`
}

// Segments converts the track captions to plain segments.
func (t *Track) Segments() []segment.Segment {
	if t == nil {
		return nil
	}
	segments := make([]segment.Segment, len(t.Captions))
	for i, c := range t.Captions {
		segments[i] = segment.New(c.Value, c.Start, c.End)
	}
	return segments
}

// MatchingCaptions returns every caption across all transcription tracks
// that the client has marked with a match string.
func (s *FileState) MatchingCaptions() []Caption {
	var matched []Caption
	for _, track := range s.Transcriptions {
		for _, c := range track.Captions {
			if c.MatchString != nil {
				matched = append(matched, c)
			}
		}
	}
	return matched
}

// NullableFloat renders NaN and infinities as JSON null. Acoustic
// measurements are undefined for frames that are too short or unvoiced, and
// plain float64 would fail to encode them.
type NullableFloat float64

func (f NullableFloat) MarshalJSON() ([]byte, error) {
	v := float64(f)
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return []byte("null"), nil
	}
	return json.Marshal(v)
}

func nullableFrames(frames [][]float64) [][]NullableFloat {
	out := make([][]NullableFloat, len(frames))
	for i, frame := range frames {
		row := make([]NullableFloat, len(frame))
		for j, v := range frame {
			row[j] = NullableFloat(v)
		}
		out[i] = row
	}
	return out
}

package segment

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidateAccepts(t *testing.T) {
	cases := map[string][]Segment{
		"empty": nil,
		"single": {
			New("a", 0, 1),
		},
		"contiguous": {
			New("a", 0, 1),
			New("b", 1, 2),
		},
		"with gap": {
			New("a", 0, 1),
			New("b", 2, 3),
		},
		"zero duration": {
			New("a", 1, 1),
			New("b", 1, 2),
		},
	}

	for name, segments := range cases {
		t.Run(name, func(t *testing.T) {
			assert.NoError(t, Validate(segments))
		})
	}
}

func TestValidateRejects(t *testing.T) {
	cases := map[string][]Segment{
		"negative start": {
			New("a", -0.1, 1),
		},
		"end before start": {
			New("a", 2, 1),
		},
		"overlap": {
			New("a", 0, 1.5),
			New("b", 1, 2),
		},
	}

	for name, segments := range cases {
		t.Run(name, func(t *testing.T) {
			err := Validate(segments)
			assert.ErrorIs(t, err, ErrMalformed)
		})
	}
}

func TestTranscriptionJSONShape(t *testing.T) {
	tr := Transcription{
		Language: "en",
		Segments: []Segment{New("word", 0.5, 1)},
	}

	data, err := json.Marshal(tr)
	require.NoError(t, err)

	assert.JSONEq(t, `{
		"language": "en",
		"transcription": [{"value": "word", "start": 0.5, "end": 1}]
	}`, string(data))
}

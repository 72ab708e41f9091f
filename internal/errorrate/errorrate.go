// Package errorrate computes word- and character-level transcription error
// metrics between a reference track and a hypothesis track.
package errorrate

import (
	"strings"

	"github.com/spectralab/spectral-server/internal/model/segment"
)

// WordLevel carries word error metrics plus the alignment between the two
// word streams.
type WordLevel struct {
	WER           float64     `json:"wer"`
	MER           float64     `json:"mer"`
	WIL           float64     `json:"wil"`
	WIP           float64     `json:"wip"`
	Hits          int         `json:"hits"`
	Substitutions int         `json:"substitutions"`
	Insertions    int         `json:"insertions"`
	Deletions     int         `json:"deletions"`
	Reference     []string    `json:"reference"`
	Hypothesis    []string    `json:"hypothesis"`
	Alignments    []Alignment `json:"alignments"`
}

// CharacterLevel carries character error metrics plus the alignment between
// the two character streams.
type CharacterLevel struct {
	CER           float64     `json:"cer"`
	Hits          int         `json:"hits"`
	Substitutions int         `json:"substitutions"`
	Insertions    int         `json:"insertions"`
	Deletions     int         `json:"deletions"`
	Reference     []string    `json:"reference"`
	Hypothesis    []string    `json:"hypothesis"`
	Alignments    []Alignment `json:"alignments"`
}

type Report struct {
	WordLevel      WordLevel      `json:"wordLevel"`
	CharacterLevel CharacterLevel `json:"characterLevel"`
}

// Calculate compares reference captions against hypothesis captions. Both
// caption lists are flattened into sentences first, with empty filler
// values skipped. A reference that flattens to nothing has no ground truth
// to score against, so the result is nil rather than a zero-error report.
func Calculate(reference, hypothesis []segment.Segment) *Report {
	ref := Sentence(reference)
	if ref == "" {
		return nil
	}
	hyp := Sentence(hypothesis)

	return &Report{
		WordLevel:      wordLevel(ref, hyp),
		CharacterLevel: characterLevel(ref, hyp),
	}
}

// Sentence joins caption values into a single space-separated string,
// skipping empty fillers.
func Sentence(captions []segment.Segment) string {
	parts := make([]string, 0, len(captions))
	for _, caption := range captions {
		if caption.Value == "" {
			continue
		}
		parts = append(parts, caption.Value)
	}
	return strings.Join(parts, " ")
}

func wordLevel(reference, hypothesis string) WordLevel {
	refWords := tokenize(reference)
	hypWords := tokenize(hypothesis)

	c, chunks := align(refWords, hypWords)

	edits := float64(c.substitutions + c.deletions + c.insertions)
	refLen := float64(c.hits + c.substitutions + c.deletions)
	hypLen := float64(c.hits + c.substitutions + c.insertions)

	wip := 0.0
	if refLen > 0 && hypLen > 0 {
		wip = (float64(c.hits) / refLen) * (float64(c.hits) / hypLen)
	}

	return WordLevel{
		WER:           ratio(edits, refLen),
		MER:           ratio(edits, refLen+float64(c.insertions)),
		WIL:           1 - wip,
		WIP:           wip,
		Hits:          c.hits,
		Substitutions: c.substitutions,
		Insertions:    c.insertions,
		Deletions:     c.deletions,
		Reference:     refWords,
		Hypothesis:    hypWords,
		Alignments:    chunks,
	}
}

func characterLevel(reference, hypothesis string) CharacterLevel {
	refChars := characters(reference)
	hypChars := characters(hypothesis)

	c, chunks := align(refChars, hypChars)

	edits := float64(c.substitutions + c.deletions + c.insertions)
	refLen := float64(c.hits + c.substitutions + c.deletions)

	return CharacterLevel{
		CER:           ratio(edits, refLen),
		Hits:          c.hits,
		Substitutions: c.substitutions,
		Insertions:    c.insertions,
		Deletions:     c.deletions,
		Reference:     refChars,
		Hypothesis:    hypChars,
		Alignments:    chunks,
	}
}

func tokenize(sentence string) []string {
	if sentence == "" {
		return []string{}
	}
	return strings.Fields(sentence)
}

func characters(sentence string) []string {
	chars := make([]string, 0, len(sentence))
	for _, r := range sentence {
		chars = append(chars, string(r))
	}
	return chars
}

func ratio(num, den float64) float64 {
	if den == 0 {
		return 0
	}
	return num / den
}

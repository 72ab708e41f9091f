// Package textgrid renders annotation tracks as Praat long-form TextGrid
// documents.
package textgrid

import (
	"fmt"
	"strings"

	"github.com/spectralab/spectral-server/internal/model/segment"
)

// Track is a single named annotation tier.
type Track struct {
	ID       string            `json:"id"`
	Name     string            `json:"name"`
	Captions []segment.Segment `json:"captions"`
}

// Convert renders the tracks as a long-form TextGrid. Every track becomes an
// IntervalTier over the same time span. Tracks shorter than the overall span
// are padded with empty intervals so each tier stays contiguous.
func Convert(tracks []Track) string {
	if len(tracks) == 0 {
		return ""
	}

	var xmax float64
	for _, track := range tracks {
		if n := len(track.Captions); n > 0 {
			if end := track.Captions[n-1].End; end > xmax {
				xmax = end
			}
		}
	}

	var b strings.Builder
	b.WriteString("File type = \"ooTextFile\"\n")
	b.WriteString("Object class = \"TextGrid\"\n\n")
	fmt.Fprintf(&b, "xmin = 0\nxmax = %s\n", formatTime(xmax))
	b.WriteString("tiers? <exists>\n")
	fmt.Fprintf(&b, "size = %d\n", len(tracks))
	b.WriteString("item []:\n")

	for i, track := range tracks {
		writeTier(&b, i+1, track, xmax)
	}

	return b.String()
}

func writeTier(b *strings.Builder, index int, track Track, xmax float64) {
	intervals := padded(track.Captions, xmax)

	fmt.Fprintf(b, "    item [%d]:\n", index)
	b.WriteString("        class = \"IntervalTier\"\n")
	fmt.Fprintf(b, "        name = %q\n", track.Name)
	b.WriteString("        xmin = 0\n")
	fmt.Fprintf(b, "        xmax = %s\n", formatTime(xmax))
	fmt.Fprintf(b, "        intervals: size = %d\n", len(intervals))

	for i, iv := range intervals {
		fmt.Fprintf(b, "        intervals [%d]:\n", i+1)
		fmt.Fprintf(b, "            xmin = %s\n", formatTime(iv.Start))
		fmt.Fprintf(b, "            xmax = %s\n", formatTime(iv.End))
		fmt.Fprintf(b, "            text = %q\n", iv.Value)
	}
}

// padded fills leading and trailing silence so the tier covers [0, xmax].
func padded(captions []segment.Segment, xmax float64) []segment.Segment {
	if len(captions) == 0 {
		return []segment.Segment{segment.New("", 0, xmax)}
	}

	intervals := make([]segment.Segment, 0, len(captions)+2)
	if captions[0].Start > 0 {
		intervals = append(intervals, segment.New("", 0, captions[0].Start))
	}
	intervals = append(intervals, captions...)
	if last := captions[len(captions)-1].End; last < xmax {
		intervals = append(intervals, segment.New("", last, xmax))
	}
	return intervals
}

func formatTime(t float64) string {
	return strings.TrimRight(strings.TrimRight(fmt.Sprintf("%.6f", t), "0"), ".")
}

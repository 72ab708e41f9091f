package errorrate

// Alignment is one chunk of the edit path between reference and hypothesis
// token streams. Indices are half-open and expressed in tokens.
type Alignment struct {
	Type                 string `json:"type"`
	ReferenceStartIndex  int    `json:"referenceStartIndex"`
	ReferenceEndIndex    int    `json:"referenceEndIndex"`
	HypothesisStartIndex int    `json:"hypothesisStartIndex"`
	HypothesisEndIndex   int    `json:"hypothesisEndIndex"`
}

const (
	opEqual      = "equal"
	opSubstitute = "substitute"
	opInsert     = "insert"
	opDelete     = "delete"
)

type counts struct {
	hits          int
	substitutions int
	insertions    int
	deletions     int
}

// align computes a minimum edit path between two token slices and folds
// consecutive operations of the same kind into chunks.
func align(reference, hypothesis []string) (counts, []Alignment) {
	n, m := len(reference), len(hypothesis)

	// Standard Levenshtein table; dist[i][j] is the cost of aligning the
	// first i reference tokens with the first j hypothesis tokens.
	dist := make([][]int, n+1)
	for i := range dist {
		dist[i] = make([]int, m+1)
	}
	for i := 0; i <= n; i++ {
		dist[i][0] = i
	}
	for j := 0; j <= m; j++ {
		dist[0][j] = j
	}
	for i := 1; i <= n; i++ {
		for j := 1; j <= m; j++ {
			if reference[i-1] == hypothesis[j-1] {
				dist[i][j] = dist[i-1][j-1]
				continue
			}
			best := dist[i-1][j-1] // substitute
			if dist[i-1][j] < best {
				best = dist[i-1][j] // delete
			}
			if dist[i][j-1] < best {
				best = dist[i][j-1] // insert
			}
			dist[i][j] = best + 1
		}
	}

	// Backtrace from the corner, collecting operations in reverse.
	type op struct {
		kind string
		i, j int
	}
	ops := []op{}
	i, j := n, m
	for i > 0 || j > 0 {
		switch {
		case i > 0 && j > 0 && reference[i-1] == hypothesis[j-1] && dist[i][j] == dist[i-1][j-1]:
			ops = append(ops, op{opEqual, i - 1, j - 1})
			i--
			j--
		case i > 0 && j > 0 && dist[i][j] == dist[i-1][j-1]+1:
			ops = append(ops, op{opSubstitute, i - 1, j - 1})
			i--
			j--
		case i > 0 && dist[i][j] == dist[i-1][j]+1:
			ops = append(ops, op{opDelete, i - 1, j})
			i--
		default:
			ops = append(ops, op{opInsert, i, j - 1})
			j--
		}
	}

	var c counts
	chunks := []Alignment{}
	for k := len(ops) - 1; k >= 0; k-- {
		o := ops[k]

		refLen, hypLen := 0, 0
		switch o.kind {
		case opEqual:
			c.hits++
			refLen, hypLen = 1, 1
		case opSubstitute:
			c.substitutions++
			refLen, hypLen = 1, 1
		case opDelete:
			c.deletions++
			refLen = 1
		case opInsert:
			c.insertions++
			hypLen = 1
		}

		if len(chunks) > 0 && chunks[len(chunks)-1].Type == o.kind {
			last := &chunks[len(chunks)-1]
			last.ReferenceEndIndex += refLen
			last.HypothesisEndIndex += hypLen
			continue
		}
		chunks = append(chunks, Alignment{
			Type:                 o.kind,
			ReferenceStartIndex:  o.i,
			ReferenceEndIndex:    o.i + refLen,
			HypothesisStartIndex: o.j,
			HypothesisEndIndex:   o.j + hypLen,
		})
	}

	return c, chunks
}

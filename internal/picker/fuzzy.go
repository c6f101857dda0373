package picker

import (
	"context"

	"github.com/sahilm/fuzzy"

	"glsel/internal/view"
)

// Match is a non-interactive picker: it ranks candidates against the query
// and takes the best match. Used with --print and in scripts where no
// terminal UI is wanted.
type Match struct {
	// AltTrigger is carried through to the selection so scripted use can
	// still express open-vs-clone intent.
	AltTrigger bool
}

type candidatePaths []view.Candidate

func (c candidatePaths) String(i int) string { return c[i].FullPath }
func (c candidatePaths) Len() int            { return len(c) }

// Pick returns the best fuzzy match for the query, or the first candidate
// when the query is empty. No match is a normal empty outcome.
func (m *Match) Pick(_ context.Context, candidates []view.Candidate, initialQuery string) (*Selection, error) {
	if len(candidates) == 0 {
		return nil, nil
	}

	if initialQuery == "" {
		return &Selection{FullPath: candidates[0].FullPath, AltTrigger: m.AltTrigger}, nil
	}

	matches := fuzzy.FindFrom(initialQuery, candidatePaths(candidates))
	if len(matches) == 0 {
		return nil, nil
	}
	return &Selection{
		FullPath:   candidates[matches[0].Index].FullPath,
		AltTrigger: m.AltTrigger,
	}, nil
}

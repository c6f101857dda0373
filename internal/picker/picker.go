// Package picker hands the candidate list to a selection frontend and
// returns the chosen project, if any.
package picker

import (
	"context"

	"glsel/internal/view"
)

// Selection is the picker's result. AltTrigger reports whether the alternate
// trigger key was used; downstream it flips the clone/open intent.
type Selection struct {
	FullPath   string
	AltTrigger bool
}

// Picker presents candidates and returns the selected one. A nil Selection
// with a nil error means the user aborted, which is a normal outcome.
type Picker interface {
	Pick(ctx context.Context, candidates []view.Candidate, initialQuery string) (*Selection, error)
}

package picker

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"strings"

	gerrors "glsel/internal/errors"
	"glsel/internal/view"
)

// altTriggerKey is the fzf key bound to the alternate action
const altTriggerKey = "ctrl-o"

// Fzf runs the interactive fzf picker as a subprocess
type Fzf struct {
	// Command overrides the fzf binary name. For tests.
	Command string
}

// NewFzf creates an fzf-backed picker
func NewFzf() *Fzf {
	return &Fzf{Command: "fzf"}
}

// Pick feeds the candidates to fzf and parses the selection. The alternate
// trigger key is wired through fzf's --expect mechanism.
func (f *Fzf) Pick(ctx context.Context, candidates []view.Candidate, initialQuery string) (*Selection, error) {
	if len(candidates) == 0 {
		return nil, nil
	}

	args := []string{
		"--delimiter", "\t",
		"--with-nth", "1",
		"--expect", altTriggerKey,
	}
	if initialQuery != "" {
		args = append(args, "--query", initialQuery)
	}

	var input strings.Builder
	for _, c := range candidates {
		fmt.Fprintf(&input, "%s\t%s\n", c.FullPath, c.Name)
	}

	cmd := exec.CommandContext(ctx, f.Command, args...)
	cmd.Stdin = strings.NewReader(input.String())
	cmd.Stderr = os.Stderr

	var out bytes.Buffer
	cmd.Stdout = &out

	if err := cmd.Run(); err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			// 1 = no match, 130 = interrupted; both mean the user walked away
			if code := exitErr.ExitCode(); code == 1 || code == 130 {
				return nil, nil
			}
		}
		return nil, gerrors.New(gerrors.PickerFailed, "fzf failed", err)
	}

	return parseFzfOutput(out.String()), nil
}

// parseFzfOutput decodes fzf's --expect output: the first line is the
// pressed key (empty for plain enter), the second the selected entry.
func parseFzfOutput(out string) *Selection {
	lines := strings.Split(strings.TrimRight(out, "\n"), "\n")
	if len(lines) < 2 || lines[1] == "" {
		return nil
	}

	fullPath := lines[1]
	if i := strings.IndexByte(fullPath, '\t'); i >= 0 {
		fullPath = fullPath[:i]
	}

	return &Selection{
		FullPath:   fullPath,
		AltTrigger: lines[0] == altTriggerKey,
	}
}

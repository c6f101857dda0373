// Package view builds the ordered, optionally prefix-filtered candidate list
// handed to the external picker.
package view

import (
	"strings"

	"glsel/internal/store"
)

// Candidate is one selectable project
type Candidate struct {
	FullPath string
	Name     string
	WebURL   string
}

// View reads the project cache and produces candidate lists
type View struct {
	projects *store.ProjectRepository
}

// New creates a selection view over the given repository
func New(projects *store.ProjectRepository) *View {
	return &View{projects: projects}
}

// List returns candidates ordered by full path ascending. With a non-empty
// prefix set only projects whose full path starts with at least one prefix
// are included; the match is on the raw string, not path segments. Ranking
// and fuzziness are the external picker's job, not ours.
func (v *View) List(prefixes []string) ([]Candidate, error) {
	projects, err := v.projects.List()
	if err != nil {
		return nil, err
	}

	candidates := make([]Candidate, 0, len(projects))
	for _, p := range projects {
		if !matchesAny(p.FullPath, prefixes) {
			continue
		}
		candidates = append(candidates, Candidate{
			FullPath: p.FullPath,
			Name:     p.Name,
			WebURL:   p.WebURL,
		})
	}
	return candidates, nil
}

func matchesAny(fullPath string, prefixes []string) bool {
	if len(prefixes) == 0 {
		return true
	}
	for _, prefix := range prefixes {
		if strings.HasPrefix(fullPath, prefix) {
			return true
		}
	}
	return false
}

// Package action performs the downstream handling of a selected project:
// opening its page in the browser or cloning it locally.
package action

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"

	"github.com/pkg/browser"

	"glsel/internal/logging"
	"glsel/internal/store"
)

// Open opens the project's web page in the default browser
func Open(p *store.Project) error {
	if err := browser.OpenURL(p.WebURL); err != nil {
		return fmt.Errorf("failed to open %s: %w", p.WebURL, err)
	}
	return nil
}

// Clone clones the project under cloneRoot, preserving the full path
// hierarchy, and runs postCmd in the checkout when given. An existing
// checkout is left alone; postCmd still runs so it can be used to jump into
// the directory.
func Clone(ctx context.Context, p *store.Project, cloneRoot, postCmd string, logger *logging.Logger) (string, error) {
	dest := filepath.Join(cloneRoot, filepath.FromSlash(p.FullPath))

	if _, err := os.Stat(dest); os.IsNotExist(err) {
		if err := os.MkdirAll(filepath.Dir(dest), 0755); err != nil {
			return "", fmt.Errorf("failed to create clone directory: %w", err)
		}

		cloneURL := p.WebURL + ".git"
		logger.Info("Cloning project", map[string]interface{}{
			"project": p.FullPath,
			"dest":    dest,
		})

		cmd := exec.CommandContext(ctx, "git", "clone", cloneURL, dest)
		cmd.Stdout = os.Stderr
		cmd.Stderr = os.Stderr
		if err := cmd.Run(); err != nil {
			return "", fmt.Errorf("git clone failed: %w", err)
		}
	} else {
		logger.Debug("Checkout already exists", map[string]interface{}{
			"dest": dest,
		})
	}

	if postCmd != "" {
		cmd := exec.CommandContext(ctx, "sh", "-c", postCmd)
		cmd.Dir = dest
		cmd.Stdin = os.Stdin
		cmd.Stdout = os.Stdout
		cmd.Stderr = os.Stderr
		if err := cmd.Run(); err != nil {
			return dest, fmt.Errorf("post-clone command failed: %w", err)
		}
	}

	return dest, nil
}

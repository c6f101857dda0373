package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"glsel/internal/refresh"
	"glsel/internal/store"
)

var refreshForce bool

var refreshCmd = &cobra.Command{
	Use:   "refresh",
	Short: "Refresh the project cache from GitLab",
	Long: `Refresh the project cache from GitLab.

Runs a full refresh cycle over the configured scopes synchronously. Without
--force the cycle is skipped when the cache was fully refreshed within
min_refresh_minutes.`,
	RunE: runRefresh,
}

func init() {
	refreshCmd.Flags().BoolVar(&refreshForce, "force", false, "Refresh even if the cache is fresh")
	rootCmd.AddCommand(refreshCmd)
}

func runRefresh(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	cfg, logger, err := loadConfig()
	if err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return reportError(err)
	}

	db, err := openStore(cfg, logger)
	if err != nil {
		return err
	}
	defer func() { _ = db.Close() }()

	projects := store.NewProjectRepository(db)
	orch := newOrchestrator(cfg, db, projects, logger, func(done, total int) {
		fmt.Printf("\rfetched %d/%d pages", done, total)
		if done == total {
			fmt.Println()
		}
	})

	if refreshForce {
		if err := orch.RunCycle(ctx); err != nil {
			return reportError(err)
		}
	} else {
		state, err := orch.Decide()
		if err != nil {
			return reportError(err)
		}
		if state == refresh.WarmThrottled {
			fmt.Println("cache is fresh, skipping (use --force to refresh anyway)")
			return nil
		}
		if err := orch.RunCycle(ctx); err != nil {
			return reportError(err)
		}
	}

	count, err := projects.Count()
	if err != nil {
		return err
	}
	fmt.Printf("cache refreshed: %d projects\n", count)
	return nil
}

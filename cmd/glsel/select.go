package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"glsel/internal/action"
	"glsel/internal/config"
	"glsel/internal/fetch"
	"glsel/internal/gitlab"
	"glsel/internal/logging"
	"glsel/internal/picker"
	"glsel/internal/refresh"
	"glsel/internal/store"
	"glsel/internal/view"
)

func runSelect(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	cfg, logger, err := loadConfig()
	if err != nil {
		return err
	}

	db, err := openStore(cfg, logger)
	if err != nil {
		return err
	}
	defer func() { _ = db.Close() }()

	projects := store.NewProjectRepository(db)

	if !noRefreshFlag {
		if err := cfg.Validate(); err != nil {
			return reportError(err)
		}

		orch := newOrchestrator(cfg, db, projects, logger, nil)
		state, _, err := orch.Run(ctx)
		if err != nil {
			// A cold cycle failure is fatal: there is no usable cache yet.
			return reportError(err)
		}
		logger.Debug("Refresh decision made", map[string]interface{}{
			"state": string(state),
		})
		// A warm background cycle is deliberately left running; if we exit
		// first, the next invocation resumes from the pages already
		// committed.
	}

	prefixes, err := store.NewContextRepository(db).List()
	if err != nil {
		return err
	}

	candidates, err := view.New(projects).List(prefixes)
	if err != nil {
		return err
	}
	if len(candidates) == 0 {
		return fmt.Errorf("no projects in cache; check your groups or token")
	}

	var pick picker.Picker = picker.NewFzf()
	if printFlag {
		pick = &picker.Match{}
	}

	selection, err := pick.Pick(ctx, candidates, queryFlag)
	if err != nil {
		return reportError(err)
	}
	if selection == nil {
		// User aborted; a normal empty outcome.
		return nil
	}

	project, err := projects.Get(selection.FullPath)
	if err != nil {
		return err
	}
	if project == nil {
		return fmt.Errorf("selected project %s no longer in cache", selection.FullPath)
	}

	if printFlag {
		fmt.Println(project.FullPath)
		return nil
	}

	if openFlag || selection.AltTrigger {
		return action.Open(project)
	}

	dest, err := action.Clone(ctx, project, cfg.CloneRoot, cfg.PostCloneCmd, logger)
	if err != nil {
		return err
	}
	fmt.Println(dest)
	return nil
}

// newOrchestrator wires the refresh pipeline for the current configuration
func newOrchestrator(cfg *config.Config, db *store.DB, projects *store.ProjectRepository,
	logger *logging.Logger, progress fetch.ProgressFunc) *refresh.Orchestrator {
	client := gitlab.NewClient(cfg.BaseURL, cfg.Token)
	sources := gitlab.Sources(client, cfg.Groups)

	fetcher := fetch.NewFetcher(projects, logger, fetch.Config{
		PerPage:       cfg.PerPage,
		MaxConcurrent: cfg.MaxConcurrent,
		RetryAttempts: cfg.RetryAttempts,
		RetryDelay:    time.Duration(cfg.RetryDelayMs) * time.Millisecond,
	})
	if progress != nil {
		fetcher.OnProgress(progress)
	}

	return refresh.NewOrchestrator(projects, store.NewMetaRepository(db), fetcher, sources, logger, refresh.Config{
		MinRefresh: time.Duration(cfg.MinRefreshMinutes) * time.Minute,
		StaleDays:  cfg.StaleDays,
	})
}

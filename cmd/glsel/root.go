package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"glsel/internal/config"
	"glsel/internal/errors"
	"glsel/internal/logging"
	"glsel/internal/store"
	"glsel/internal/version"
)

var (
	configFlag string

	queryFlag     string
	openFlag      bool
	printFlag     bool
	noRefreshFlag bool
)

var rootCmd = &cobra.Command{
	Use:   "glsel",
	Short: "glsel - fuzzy GitLab project selector",
	Long: `glsel keeps a local cache of your GitLab projects and lets you pick one
with a fuzzy finder. The picked project is cloned into your source tree, or
opened in the browser with the alternate trigger key (ctrl-o).

The cache refreshes in the background while you pick, so selection is instant
even against large GitLab instances.`,
	Version:       version.Info(),
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE:          runSelect,
}

func init() {
	rootCmd.SetVersionTemplate("glsel version {{.Version}}\n")
	rootCmd.PersistentFlags().StringVar(&configFlag, "config", "", "Path to config file")

	rootCmd.Flags().StringVarP(&queryFlag, "query", "q", "", "Initial picker query")
	rootCmd.Flags().BoolVar(&openFlag, "open", false, "Open the selection in the browser instead of cloning")
	rootCmd.Flags().BoolVar(&printFlag, "print", false, "Print the best match instead of running the interactive picker")
	rootCmd.Flags().BoolVar(&noRefreshFlag, "no-refresh", false, "Serve the cache as-is without contacting GitLab")
	rootCmd.MarkFlagsMutuallyExclusive("open", "print")
}

// loadConfig reads configuration and sets up the logger
func loadConfig() (*config.Config, *logging.Logger, error) {
	cfg, err := config.Load(configFlag)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load config: %w", err)
	}
	logger := logging.NewLogger(logging.Config{
		Format: logging.Format(cfg.Logging.Format),
		Level:  logging.Level(cfg.Logging.Level),
	})
	return cfg, logger, nil
}

// openStore opens the cache database for the current configuration
func openStore(cfg *config.Config, logger *logging.Logger) (*store.DB, error) {
	db, err := store.Open(cfg.DBPath, logger)
	if err != nil {
		return nil, errors.New(errors.StorageFailed, "failed to open project cache", err)
	}
	return db, nil
}

// reportError prints remediation hints for known error codes
func reportError(err error) error {
	if fix, ok := errors.SuggestedFixes[errors.CodeOf(err)]; ok {
		return fmt.Errorf("%w\nhint: %s", err, fix)
	}
	return err
}

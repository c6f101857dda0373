package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"glsel/internal/store"
)

var contextCmd = &cobra.Command{
	Use:   "context",
	Short: "Manage context prefixes that narrow the selection view",
	Long: `Manage context prefixes.

A context prefix narrows the candidate list to projects whose full path
starts with the prefix. With no prefixes stored, every cached project is a
candidate.`,
}

var contextAddCmd = &cobra.Command{
	Use:   "add <prefix>...",
	Short: "Add context prefixes",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withContexts(func(contexts *store.ContextRepository) error {
			if err := contexts.Add(args); err != nil {
				return err
			}
			fmt.Printf("added %d prefix(es)\n", len(args))
			return nil
		})
	},
}

var contextListCmd = &cobra.Command{
	Use:   "list",
	Short: "List stored context prefixes",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withContexts(func(contexts *store.ContextRepository) error {
			prefixes, err := contexts.List()
			if err != nil {
				return err
			}
			for _, prefix := range prefixes {
				fmt.Println(prefix)
			}
			return nil
		})
	},
}

var contextClearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Remove all context prefixes",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withContexts(func(contexts *store.ContextRepository) error {
			if err := contexts.Clear(); err != nil {
				return err
			}
			fmt.Println("context prefixes cleared")
			return nil
		})
	},
}

func init() {
	contextCmd.AddCommand(contextAddCmd, contextListCmd, contextClearCmd)
	rootCmd.AddCommand(contextCmd)
}

func withContexts(fn func(*store.ContextRepository) error) error {
	cfg, logger, err := loadConfig()
	if err != nil {
		return err
	}
	db, err := openStore(cfg, logger)
	if err != nil {
		return err
	}
	defer func() { _ = db.Close() }()

	return fn(store.NewContextRepository(db))
}

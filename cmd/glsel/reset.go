package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

var resetCmd = &cobra.Command{
	Use:   "reset",
	Short: "Wipe the project cache, metadata and context prefixes",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, logger, err := loadConfig()
		if err != nil {
			return err
		}
		db, err := openStore(cfg, logger)
		if err != nil {
			return err
		}
		defer func() { _ = db.Close() }()

		if err := db.ClearAll(); err != nil {
			return err
		}
		fmt.Println("cache reset; the next run will do a full refresh")
		return nil
	},
}

func init() {
	rootCmd.AddCommand(resetCmd)
}

package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/mmynk/messmate/internal/storage/sqlite"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Apply pending schema migrations",
	RunE: func(cmd *cobra.Command, args []string) error {
		path, err := resolveDBPath()
		if err != nil {
			return err
		}
		// New creates the parent directory and migrates.
		store, err := sqlite.New(path)
		if err != nil {
			return err
		}
		if err := store.Close(); err != nil {
			return err
		}

		version, dirty, err := sqlite.SchemaVersion(path)
		if err != nil {
			return err
		}
		if dirty {
			return fmt.Errorf("schema version %d is dirty", version)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "%s at schema version %d\n", path, version)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(migrateCmd)
}

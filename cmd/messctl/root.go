package main

import (
	"errors"
	"fmt"
	"io/fs"
	"os"

	"github.com/spf13/cobra"

	"github.com/mmynk/messmate/internal/config"
	"github.com/mmynk/messmate/internal/storage/sqlite"
)

var dbPath string

var rootCmd = &cobra.Command{
	Use:           "messctl",
	Short:         "messctl administers a messmate database",
	Long:          "messctl applies schema migrations and exports reconciled month reports straight from the SQLite database.",
	SilenceUsage:  true,
	SilenceErrors: true,
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&dbPath, "db", "", "Path to SQLite database (defaults to DB_PATH)")
}

// resolveDBPath prefers --db, then the server's configuration.
func resolveDBPath() (string, error) {
	if dbPath != "" {
		return dbPath, nil
	}
	cfg, err := config.Load()
	if err != nil {
		return "", fmt.Errorf("load config: %w", err)
	}
	return cfg.DBPath, nil
}

// withStore opens an existing database. Only migrate may create one.
func withStore(run func(*sqlite.SQLiteStore) error) error {
	path, err := resolveDBPath()
	if err != nil {
		return err
	}
	if _, err := os.Stat(path); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("database %s does not exist (run messctl migrate to create it)", path)
		}
		return fmt.Errorf("stat database: %w", err)
	}
	store, err := sqlite.New(path)
	if err != nil {
		return err
	}
	defer store.Close()
	return run(store)
}

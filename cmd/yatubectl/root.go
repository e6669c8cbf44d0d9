package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/sujalbistaa/yatube/internal/config"
	"github.com/sujalbistaa/yatube/internal/db"
	"github.com/sujalbistaa/yatube/internal/log"
	"github.com/sujalbistaa/yatube/internal/repository"
)

var (
	// Global flags
	dbURL   string
	verbose bool
)

// rootCmd represents the base command
var rootCmd = &cobra.Command{
	Use:   "yatubectl",
	Short: "Administration tool for yatube",
	Long: `yatubectl manages a yatube deployment: schema migrations, groups,
users and the page cache.

Configuration is read from .env and the environment, the same way the
server reads it. --db overrides DATABASE_URL.`,
	SilenceUsage: true,
}

// Execute runs the root command
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&dbURL, "db", "", "Database URL (defaults to DATABASE_URL)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Verbose output")
}

// loadConfig reads the deployment config and applies global flags.
func loadConfig() (*config.Config, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	if dbURL != "" {
		cfg.Database.URL = dbURL
	}
	return cfg, nil
}

func newLogger(cfg *config.Config) *zap.SugaredLogger {
	if !verbose {
		return zap.NewNop().Sugar()
	}
	logger, err := log.NewSugar(cfg.Env)
	if err != nil {
		return zap.NewNop().Sugar()
	}
	return logger
}

func openDB(cfg *config.Config) (*gorm.DB, error) {
	conn, err := db.Open(db.Options{URL: cfg.Database.URL, LogSQL: verbose && cfg.Database.LogSQL}, newLogger(cfg))
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	return conn, nil
}

func openRepo() (*repository.Repository, *config.Config, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, nil, err
	}
	conn, err := openDB(cfg)
	if err != nil {
		return nil, nil, err
	}
	return repository.New(conn), cfg, nil
}

package main

import (
	"database/sql"
	"encoding/json"
	"sync"

	"sublearn/internal/app"
	"sublearn/internal/config"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

func newRootCommand() *cobra.Command {
	var verbose bool
	ctx := &commandContext{verbose: &verbose}

	rootCmd := &cobra.Command{
		Use:           "sublearnctl",
		Short:         "Operator tools for the sublearn subtitle pipeline",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			ctx.close()
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}

	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Log to stderr")

	rootCmd.AddCommand(newImportCatalogCommand(ctx))
	rootCmd.AddCommand(newFilterCommand(ctx))
	rootCmd.AddCommand(newMigrateCommand(ctx))

	return rootCmd
}

// commandContext lazily opens the configuration and database shared by commands
type commandContext struct {
	verbose *bool

	loggerOnce sync.Once
	logger     *zap.Logger

	dbOnce sync.Once
	config *config.Config
	db     *sql.DB
	dbErr  error
}

func (c *commandContext) log() *zap.Logger {
	c.loggerOnce.Do(func() {
		c.logger = zap.NewNop()
		if c.verbose != nil && *c.verbose {
			if l, err := zap.NewDevelopment(); err == nil {
				c.logger = l
			}
		}
	})
	return c.logger
}

// ensureDB loads the configuration and connects without retrying
func (c *commandContext) ensureDB() (*config.Config, *sql.DB, error) {
	c.dbOnce.Do(func() {
		cfg, err := config.Load()
		if err != nil {
			c.dbErr = err
			return
		}
		db, err := app.ConnectDatabase(cfg.DSN(), 1, c.log())
		if err != nil {
			c.dbErr = err
			return
		}
		c.config, c.db = cfg, db
	})
	return c.config, c.db, c.dbErr
}

func (c *commandContext) close() {
	if c.db != nil {
		c.db.Close()
	}
	if c.logger != nil {
		_ = c.logger.Sync()
	}
}

// writeJSON encodes v as indented JSON to the command's stdout.
func writeJSON(cmd *cobra.Command, v any) error {
	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// Command agendoctl runs maintenance tasks against the agendo database.
package main

import (
	"fmt"
	"os"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"agendo-api/internal/config"
	"agendo-api/internal/logging"
	"agendo-api/internal/store"
)

var (
	configPath string

	cfg    *config.Config
	logger *zap.Logger
	pool   *pgxpool.Pool
	st     *store.Store
)

var rootCmd = &cobra.Command{
	Use:           "agendoctl",
	Short:         "Operator tools for the agendo API",
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
		var err error
		if configPath != "" {
			cfg, err = config.LoadFile(configPath)
		} else {
			cfg, err = config.Load()
		}
		if err != nil {
			return err
		}
		logger, _, err = logging.New(cfg.Log)
		if err != nil {
			return err
		}
		pool, err = pgxpool.New(cmd.Context(), cfg.DatabaseURL)
		if err != nil {
			return fmt.Errorf("db: %w", err)
		}
		st = store.New(pool)
		return nil
	},
	PersistentPostRun: func(*cobra.Command, []string) {
		if pool != nil {
			pool.Close()
		}
		if logger != nil {
			_ = logger.Sync()
		}
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "YAML config file (defaults to environment)")
	rootCmd.AddCommand(migrateCmd, slotsCmd, withdrawalsCmd, checkCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "agendoctl:", err)
		os.Exit(1)
	}
}

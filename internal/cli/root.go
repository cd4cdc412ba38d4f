// Package cli implements greenctl, the operator command line.
package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"io"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"greenlens/internal/config"
	"greenlens/internal/database"
	"greenlens/internal/logging"
	"greenlens/internal/services"
)

type rootOptions struct {
	jsonOutput bool
}

// NewRootCommand builds the greenctl command tree
func NewRootCommand() *cobra.Command {
	opts := &rootOptions{}

	root := &cobra.Command{
		Use:           "greenctl",
		Short:         "greenctl operates a GreenLens deployment",
		Long:          "greenctl applies migrations, seeds the challenge and badge catalog, reconciles progression counters and estimates product footprints.",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().BoolVar(&opts.jsonOutput, "json", false, "Print results as JSON")

	root.AddCommand(
		newMigrateCommand(),
		newSeedCommand(opts),
		newEstimateCommand(opts),
		newLookupCommand(opts),
		newReconcileCommand(opts),
	)
	return root
}

// environment bundles what database-backed commands need
type environment struct {
	config *config.Config
	logger *zap.Logger
	db     *database.Manager
}

func loadEnvironment() (*config.Config, *zap.Logger, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, nil, fmt.Errorf("load configuration: %w", err)
	}
	logger, err := logging.New(cfg.Server.Environment, cfg.Logging)
	if err != nil {
		return nil, nil, err
	}
	return cfg, logger, nil
}

// withDatabase opens the database for the duration of run
func withDatabase(ctx context.Context, run func(env *environment) error) error {
	cfg, logger, err := loadEnvironment()
	if err != nil {
		return err
	}
	defer logger.Sync()

	db, err := database.NewManager(ctx, &cfg.Database, logger)
	if err != nil {
		return err
	}
	defer db.Close()

	return run(&environment{config: cfg, logger: logger, db: db})
}

// withServices wires the full service collection for the duration of run
func withServices(ctx context.Context, run func(sc *services.ServiceCollection) error) error {
	return withDatabase(ctx, func(env *environment) error {
		sc, err := services.NewServiceCollection(env.db, env.config, env.logger)
		if err != nil {
			return err
		}
		defer sc.Cache.Close()
		return run(sc)
	})
}

func printJSON(w io.Writer, v interface{}) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal json: %w", err)
	}
	_, err = fmt.Fprintln(w, string(data))
	return err
}

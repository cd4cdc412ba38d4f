package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"greenlens/internal/repositories"
	"greenlens/internal/seed"
)

func newSeedCommand(opts *rootOptions) *cobra.Command {
	var file string

	cmd := &cobra.Command{
		Use:   "seed",
		Short: "Upsert the challenge and badge catalog",
		Long:  "Upserts challenges by title and badges by name. The embedded catalog is used unless --file is given.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			catalog, err := loadCatalog(file)
			if err != nil {
				return err
			}

			return withDatabase(cmd.Context(), func(env *environment) error {
				repos, err := repositories.NewCollection(env.db, env.logger)
				if err != nil {
					return err
				}
				result, err := seed.NewSeeder(repos, env.logger).Apply(cmd.Context(), catalog)
				if err != nil {
					return err
				}
				if opts.jsonOutput {
					return printJSON(cmd.OutOrStdout(), result)
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Seeded %d challenges and %d badges\n", result.Challenges, result.Badges)
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&file, "file", "", "Path to a catalog YAML file")
	return cmd
}

func loadCatalog(path string) (*seed.Catalog, error) {
	if path == "" {
		return seed.Default()
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read catalog: %w", err)
	}
	return seed.Parse(data)
}

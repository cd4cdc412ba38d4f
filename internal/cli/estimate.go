package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"greenlens/internal/carbon"
)

type estimateResult struct {
	carbon.Assessment
	Comparisons []carbon.Comparison `json:"comparisons,omitempty"`
}

func newEstimateCommand(opts *rootOptions) *cobra.Command {
	var (
		in  carbon.Input
		ext carbon.External
	)

	cmd := &cobra.Command{
		Use:   "estimate",
		Short: "Estimate the footprint and eco grade of a product offline",
		Example: `  greenctl estimate --categories "beverages,en:cola" --quantity 500ml --packaging plastic --nova 4
  greenctl estimate --quantity 1kg --footprint-per-100g 250`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if in.Nova != 0 && !carbon.ValidNova(in.Nova) {
				return fmt.Errorf("nova must be between 1 and 4, got %d", in.Nova)
			}
			if ext.FootprintPer100g < 0 {
				return fmt.Errorf("footprint-per-100g must not be negative")
			}

			result := estimateResult{Assessment: carbon.Assess(in, ext)}
			result.Comparisons = carbon.Comparisons(result.FootprintKg)

			if opts.jsonOutput {
				return printJSON(cmd.OutOrStdout(), result)
			}
			out := cmd.OutOrStdout()
			source := "estimated"
			if result.External {
				source = "catalog"
			}
			fmt.Fprintf(out, "Footprint: %.1f kg CO2e (%s)\n", result.FootprintKg, source)
			fmt.Fprintf(out, "Weight: %.3f kg\n", result.WeightKg)
			fmt.Fprintf(out, "Eco grade: %s\n", result.Grade)
			for _, c := range result.Comparisons {
				fmt.Fprintf(out, "  %s: %s\n", c.Label, c.Value)
			}
			return nil
		},
	}

	flags := cmd.Flags()
	flags.StringVar(&in.Categories, "categories", "", "Comma separated category tags, most specific first")
	flags.StringVar(&in.Quantity, "quantity", "", "Declared quantity, e.g. 500g or 2x250ml")
	flags.StringVar(&in.Packaging, "packaging", "", "Packaging description")
	flags.StringVar(&in.Ingredients, "ingredients", "", "Ingredients text")
	flags.IntVar(&in.Nova, "nova", 0, "NOVA processing level (1-4)")
	flags.Float64Var(&ext.FootprintPer100g, "footprint-per-100g", 0, "Catalog footprint in g CO2e per 100 g")
	flags.StringVar(&ext.Grade, "grade", "", "Catalog eco grade (A-F)")
	return cmd
}

package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"greenlens/internal/catalog/openfoodfacts"
	"greenlens/internal/validation"
)

type lookupResult struct {
	Barcode     string  `json:"barcode"`
	Name        string  `json:"name"`
	Brand       string  `json:"brand,omitempty"`
	Category    string  `json:"category,omitempty"`
	Quantity    string  `json:"quantity,omitempty"`
	Packaging   string  `json:"packaging,omitempty"`
	NovaLevel   int     `json:"nova_level,omitempty"`
	FootprintKg float64 `json:"footprint_kg"`
	Grade       string  `json:"grade"`
	External    bool    `json:"external"`
}

func newLookupCommand(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "lookup <barcode>",
		Short: "Fetch a product from Open Food Facts and assess it without storing it",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			barcode := strings.TrimSpace(args[0])
			if !validation.IsBarcode(barcode) {
				return fmt.Errorf("invalid barcode %q: expected 8 to 14 digits", barcode)
			}

			cfg, logger, err := loadEnvironment()
			if err != nil {
				return err
			}
			defer logger.Sync()

			client := openfoodfacts.New(cfg.Catalog.BaseURL, cfg.Catalog.UserAgent, cfg.Catalog.Timeout, cfg.Catalog.MaxRetries, logger)
			meta, err := client.LookupBarcode(cmd.Context(), barcode)
			if err != nil {
				if openfoodfacts.IsNotFound(err) {
					return fmt.Errorf("barcode %s not found in Open Food Facts", barcode)
				}
				return err
			}

			assessment := meta.Assess()
			result := lookupResult{
				Barcode:     meta.Barcode,
				Name:        meta.Name,
				Brand:       meta.Brand,
				Category:    meta.Category,
				Quantity:    meta.Quantity,
				Packaging:   meta.Packaging,
				NovaLevel:   meta.NovaLevel,
				FootprintKg: assessment.FootprintKg,
				Grade:       string(assessment.Grade),
				External:    assessment.External,
			}
			if opts.jsonOutput {
				return printJSON(cmd.OutOrStdout(), result)
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Barcode: %s\n", result.Barcode)
			fmt.Fprintf(out, "Product: %s\n", result.Name)
			if result.Brand != "" {
				fmt.Fprintf(out, "Brand: %s\n", result.Brand)
			}
			fmt.Fprintf(out, "Footprint: %.1f kg CO2e\n", result.FootprintKg)
			fmt.Fprintf(out, "Eco grade: %s\n", result.Grade)
			return nil
		},
	}
}

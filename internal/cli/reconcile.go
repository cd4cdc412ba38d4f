package cli

import (
	"errors"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"greenlens/internal/services"
)

func newReconcileCommand(opts *rootOptions) *cobra.Command {
	var (
		userID string
		all    bool
	)

	cmd := &cobra.Command{
		Use:   "reconcile",
		Short: "Recount scan counters from history and re-run challenge and badge evaluation",
		Args:  cobra.NoArgs,
		PreRunE: func(_ *cobra.Command, _ []string) error {
			if (userID == "") == !all {
				return errors.New("exactly one of --user or --all is required")
			}
			return nil
		},
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withServices(cmd.Context(), func(sc *services.ServiceCollection) error {
				var reports []*services.ReconcileReport
				if all {
					var err error
					if reports, err = sc.ReconcileService.ReconcileAll(cmd.Context()); err != nil {
						return err
					}
				} else {
					report, err := sc.ReconcileService.ReconcileUser(cmd.Context(), userID)
					if report != nil {
						reports = append(reports, report)
					}
					if err != nil {
						printReports(cmd.OutOrStdout(), reports)
						return err
					}
				}

				if opts.jsonOutput {
					return printJSON(cmd.OutOrStdout(), reports)
				}
				printReports(cmd.OutOrStdout(), reports)
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&userID, "user", "", "Reconcile a single user")
	cmd.Flags().BoolVar(&all, "all", false, "Reconcile every user with progress")
	return cmd
}

func printReports(w io.Writer, reports []*services.ReconcileReport) {
	repaired := 0
	for _, r := range reports {
		status := "ok"
		if r.Repaired {
			status = "repaired"
			repaired++
		}
		fmt.Fprintf(w, "%s: %s scans %d->%d eco %d->%d, %d challenges completed, %d badges earned\n",
			r.UserID, status,
			r.ScanCountBefore, r.ScanCountAfter,
			r.EcoScanCountBefore, r.EcoScanCountAfter,
			len(r.CompletedChallenges), len(r.NewBadges),
		)
	}
	fmt.Fprintf(w, "%d users checked, %d repaired\n", len(reports), repaired)
}

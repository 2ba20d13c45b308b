package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

// newReconcileCmd runs scheduled jobs once, for cron-less deployments and ops.
func newReconcileCmd(f *rootFlags) *cobra.Command {
	var only string
	cmd := &cobra.Command{
		Use:   "reconcile",
		Short: "Run the reconciliation jobs once and exit",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			a, err := buildApp(ctx, f)
			if err != nil {
				return err
			}
			defer a.Close()
			a.workers.Start(ctx)

			names := a.scheduler.Jobs()
			if only != "" {
				names = []string{only}
			}
			var failed int
			for _, name := range names {
				if err := a.scheduler.RunNow(ctx, name); err != nil {
					failed++
					continue
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%s: ok\n", name)
			}
			if failed > 0 {
				return fmt.Errorf("%d job(s) failed", failed)
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&only, "job", "", "run a single job (tip_reconcile | subscription_expiry)")
	return cmd
}

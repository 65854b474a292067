package cmd

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/dotcommander/provscore/internal/app"
	"github.com/dotcommander/provscore/internal/output"
)

var compareNotify bool

var compareCmd = &cobra.Command{
	Use:   "compare <type>",
	Short: "Compare the latest evaluations of every provider in a category",
	Long: `Show, for every provider of a category type, the latest evaluation of
each evaluation type. Providers with a latest total below 3.5 are at risk
and are candidates for a substitution selection event.

With --notify, a failure notice is sent for every at-risk evaluation that
still has no commitment.`,
	Args: cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		run(cmd, func(ctx context.Context, a *app.App, out output.Formatter) error {
			report, err := a.Comparison.Compare(ctx, args[0])
			if err != nil {
				return err
			}
			if err := out.Comparison(report); err != nil {
				return err
			}
			if !compareNotify {
				return nil
			}
			sent, err := a.Comparison.NotifyAtRisk(ctx, a.Config.Actor(), args[0])
			if err != nil {
				return err
			}
			return out.Message("%d failure notice(s) sent", sent)
		})
	},
}

func init() {
	compareCmd.Flags().BoolVar(&compareNotify, "notify", false, "Notify at-risk providers without a commitment")

	rootCmd.AddCommand(compareCmd)
}

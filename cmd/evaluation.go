package cmd

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/dotcommander/provscore/internal/app"
	"github.com/dotcommander/provscore/internal/evaluation"
	"github.com/dotcommander/provscore/internal/output"
)

var evaluationListType string

var evaluationCmd = &cobra.Command{
	Use:     "evaluation",
	Aliases: []string{"evaluations"},
	Short:   "Inspect stored evaluations",
}

var evaluationShowCmd = &cobra.Command{
	Use:   "show <id>",
	Short: "Show an evaluation, its breakdown and commitment state",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		run(cmd, func(ctx context.Context, a *app.App, out output.Formatter) error {
			rec, err := a.Evaluations.Get(ctx, args[0])
			if err != nil {
				return err
			}
			return out.Evaluation(evaluation.Describe(rec))
		})
	},
}

var evaluationListCmd = &cobra.Command{
	Use:   "list <provider-id>",
	Short: "List a provider's evaluations, newest first",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		run(cmd, func(ctx context.Context, a *app.App, out output.Formatter) error {
			records, err := a.Evaluations.ListForProvider(ctx, args[0], evaluationListType)
			if err != nil {
				return err
			}
			summaries := make([]evaluation.Summary, 0, len(records))
			for _, r := range records {
				summaries = append(summaries, evaluation.Describe(r))
			}
			return out.Evaluations(summaries)
		})
	},
}

var evaluationDeleteCmd = &cobra.Command{
	Use:   "delete <id>",
	Short: "Delete an evaluation (admin)",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		run(cmd, func(ctx context.Context, a *app.App, out output.Formatter) error {
			if err := a.Evaluations.Delete(ctx, a.Config.Actor(), args[0]); err != nil {
				return err
			}
			return out.Message("evaluation %s deleted", args[0])
		})
	},
}

func init() {
	evaluationListCmd.Flags().StringVarP(&evaluationListType, "type", "t", "", "Only list this evaluation type")

	evaluationCmd.AddCommand(evaluationShowCmd, evaluationListCmd, evaluationDeleteCmd)
	rootCmd.AddCommand(evaluationCmd)
}

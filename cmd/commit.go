package cmd

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/dotcommander/provscore/internal/app"
	"github.com/dotcommander/provscore/internal/cue"
	"github.com/dotcommander/provscore/internal/evaluation"
	"github.com/dotcommander/provscore/internal/output"
)

var (
	commitTexts []string
	commitFile  string
)

// commitmentFile is the --file form of a commitment.
type commitmentFile struct {
	Commitments map[string]string `yaml:"commitments"`
}

var commitCmd = &cobra.Command{
	Use:   "commit <evaluation-id>",
	Short: "Submit the improvement commitment of an evaluation",
	Long: `Submit the improvement commitment of an evaluation whose total is below 3.5.

Every criterion scored below 4.25 needs a non-empty commitment. The
submission is accepted once; later attempts fail.

File format (YAML or JSON):

  commitments:
    calidad: Inspección por lote antes del despacho
    entrega: Reprogramación semanal de rutas`,
	Args: cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		run(cmd, func(ctx context.Context, a *app.App, out output.Formatter) error {
			var commitments map[string]string
			if commitFile != "" {
				var f commitmentFile
				if err := loadInputFile(a.Validator, cue.SchemaCommitment, commitFile, &f); err != nil {
					return err
				}
				commitments = f.Commitments
			}
			flags, err := parsePairs("commitment", commitTexts)
			if err != nil {
				return err
			}
			commitments = mergeInto(commitments, flags)

			rec, err := a.Evaluations.SubmitCommitment(ctx, a.Config.Actor(), args[0], commitments)
			if err != nil {
				return err
			}
			return out.Evaluation(evaluation.Describe(rec))
		})
	},
}

func init() {
	commitCmd.Flags().StringArrayVarP(&commitTexts, "commitment", "c", nil, "Commitment as id=text (repeatable)")
	commitCmd.Flags().StringVar(&commitFile, "file", "", "YAML or JSON commitment file")

	rootCmd.AddCommand(commitCmd)
}

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
	evaluateType           string
	evaluateScores         []string
	evaluateJustifications []string
	evaluateComments       string
	evaluateFile           string
)

// evaluationFile is the --file form of an evaluation.
type evaluationFile struct {
	Type           string            `yaml:"type"`
	Comments       string            `yaml:"comments"`
	Scores         map[string]int    `yaml:"scores"`
	Justifications map[string]string `yaml:"justifications"`
}

var evaluateCmd = &cobra.Command{
	Use:   "evaluate <provider-id>",
	Short: "Score a provider",
	Long: `Score a provider on every criterion of its category, 1 to 5.

The weights active right now are stored with the evaluation, so later
weight or criticality changes never alter its total. A total below 3.5
requires an improvement commitment (see "provscore commit").

Scores come from repeated --score id=n flags, a --file, or both; flags win.

File format (YAML or JSON):

  type: productos
  comments: Entrega de marzo
  scores:
    calidad: 2
    entrega: 4
  justifications:
    calidad: Lotes rechazados en recepción`,
	Args: cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		run(cmd, func(ctx context.Context, a *app.App, out output.Formatter) error {
			in := evaluation.CreateInput{ProviderID: args[0]}
			if evaluateFile != "" {
				var f evaluationFile
				if err := loadInputFile(a.Validator, cue.SchemaEvaluation, evaluateFile, &f); err != nil {
					return err
				}
				in.EvaluationType = f.Type
				in.Comments = f.Comments
				in.Scores = f.Scores
				in.Justifications = f.Justifications
			}

			scores, err := parseScores("score", evaluateScores)
			if err != nil {
				return err
			}
			justifications, err := parsePairs("justification", evaluateJustifications)
			if err != nil {
				return err
			}
			in.Scores = mergeInto(in.Scores, scores)
			in.Justifications = mergeInto(in.Justifications, justifications)
			if evaluateType != "" {
				in.EvaluationType = evaluateType
			}
			if evaluateComments != "" {
				in.Comments = evaluateComments
			}

			rec, err := a.Evaluations.Create(ctx, a.Config.Actor(), in)
			if err != nil {
				return err
			}
			return out.Evaluation(evaluation.Describe(rec))
		})
	},
}

func init() {
	evaluateCmd.Flags().StringVarP(&evaluateType, "type", "t", "", "Evaluation type (default: the provider's category type)")
	evaluateCmd.Flags().StringArrayVarP(&evaluateScores, "score", "s", nil, "Criterion score as id=n (repeatable)")
	evaluateCmd.Flags().StringArrayVar(&evaluateJustifications, "justification", nil, "Score justification as id=text (repeatable)")
	evaluateCmd.Flags().StringVar(&evaluateComments, "comments", "", "General comments")
	evaluateCmd.Flags().StringVar(&evaluateFile, "file", "", "YAML or JSON evaluation file")

	rootCmd.AddCommand(evaluateCmd)
}

func mergeInto[V any](dst, src map[string]V) map[string]V {
	if dst == nil {
		dst = make(map[string]V, len(src))
	}
	for k, v := range src {
		dst[k] = v
	}
	return dst
}

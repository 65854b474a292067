package cmd

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/dotcommander/provscore/internal/app"
	"github.com/dotcommander/provscore/internal/output"
	"github.com/dotcommander/provscore/internal/types"
)

var weightsCmd = &cobra.Command{
	Use:   "weights",
	Short: "Manage category weight overrides",
	Long: `The weights command replaces the normal catalog weights of a category type.

Weights are percentage points and must sum to 100. Criteria left out weigh 0.
Overrides never apply to critical providers, and stored evaluations keep
the weights they were created with.`,
}

var weightsShowCmd = &cobra.Command{
	Use:   "show <type>",
	Short: "Show the weights non-critical evaluations use",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		run(cmd, func(ctx context.Context, a *app.App, out output.Formatter) error {
			return showWeights(ctx, a, out, args[0])
		})
	},
}

var weightsSetCmd = &cobra.Command{
	Use:   "set <type> <id=percent>...",
	Short: "Replace the weights of a category type",
	Args:  cobra.MinimumNArgs(2),
	Run: func(cmd *cobra.Command, args []string) {
		run(cmd, func(ctx context.Context, a *app.App, out output.Formatter) error {
			weights, err := parseWeights(args[1:])
			if err != nil {
				return err
			}
			if _, err := a.Weights.SetWeights(ctx, a.Config.Actor(), args[0], weights); err != nil {
				return err
			}
			return showWeights(ctx, a, out, args[0])
		})
	},
}

var weightsResetCmd = &cobra.Command{
	Use:   "reset <type>",
	Short: "Go back to the catalog weights",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		run(cmd, func(ctx context.Context, a *app.App, out output.Formatter) error {
			if err := a.Weights.Reset(ctx, a.Config.Actor(), args[0]); err != nil {
				return err
			}
			return out.Message("weights of %s reset to catalog defaults", args[0])
		})
	},
}

var weightsImportCmd = &cobra.Command{
	Use:   "import [files...]",
	Short: "Apply weight files",
	Long: `Apply weight override files. Without arguments every weights/**/*.yaml
file under --data-dir is applied in path order.

File format:

  categoryType: productos
  weights:
    calidad: 40
    entrega: 30
    precio: 10
    documentacion: 10
    atencion: 10`,
	Run: func(cmd *cobra.Command, args []string) {
		run(cmd, func(ctx context.Context, a *app.App, out output.Formatter) error {
			actor := a.Config.Actor()
			if len(args) == 0 {
				if a.Config.DataDir == "" {
					return &types.ValidationError{Message: "no files given and no --data-dir configured"}
				}
				applied, err := a.Weights.ImportDir(ctx, actor, a.Config.DataDir)
				if err != nil {
					return err
				}
				return out.Message("applied %d weight file(s)", len(applied))
			}

			for _, path := range args {
				raw, err := os.ReadFile(path)
				if err != nil {
					return fmt.Errorf("error reading %s: %w", path, err)
				}
				o, err := a.Weights.Import(ctx, actor, filepath.Base(path), raw)
				if err != nil {
					return err
				}
				a.Logger.Debug("weights imported", "file", path, "category", o.CategoryType)
			}
			return out.Message("applied %d weight file(s)", len(args))
		})
	},
}

func init() {
	weightsCmd.AddCommand(weightsShowCmd, weightsSetCmd, weightsResetCmd, weightsImportCmd)
	rootCmd.AddCommand(weightsCmd)
}

func showWeights(ctx context.Context, a *app.App, out output.Formatter, categoryType string) error {
	criteria, err := a.Weights.ActiveWeightsFor(ctx, categoryType, types.NoCritico)
	if err != nil {
		return err
	}
	override, err := a.Weights.Get(ctx, categoryType)
	if err != nil {
		return err
	}
	return out.Criteria(categoryType, criteria, override)
}

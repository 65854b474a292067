package cmd

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/dotcommander/provscore/internal/app"
	"github.com/dotcommander/provscore/internal/catalog"
	"github.com/dotcommander/provscore/internal/output"
	"github.com/dotcommander/provscore/internal/types"
)

var catalogCritical bool

var catalogCmd = &cobra.Command{
	Use:   "catalog",
	Short: "Inspect the criteria catalog",
	Long: `The catalog command shows the category types and their criteria.

The built-in catalog covers productos and servicios. Extra category types
are read from catalogs/**/*.yaml under --data-dir.`,
}

var catalogTypesCmd = &cobra.Command{
	Use:   "types",
	Short: "List category types",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		run(cmd, func(ctx context.Context, a *app.App, out output.Formatter) error {
			cats := make([]catalog.Category, 0, len(a.Catalog.Types()))
			for _, t := range a.Catalog.Types() {
				c, err := a.Catalog.Category(t)
				if err != nil {
					return err
				}
				cats = append(cats, c)
			}
			return out.Categories(cats)
		})
	},
}

var catalogShowCmd = &cobra.Command{
	Use:   "show <type>",
	Short: "Show the active criteria of a category type",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		run(cmd, func(ctx context.Context, a *app.App, out output.Formatter) error {
			c := types.NoCritico
			if catalogCritical {
				c = types.Critico
			}
			criteria, err := a.Weights.ActiveWeightsFor(ctx, args[0], c)
			if err != nil {
				return err
			}
			var override *types.CategoryWeightOverride
			if !catalogCritical {
				if override, err = a.Weights.Get(ctx, args[0]); err != nil {
					return err
				}
			}
			return out.Criteria(args[0], criteria, override)
		})
	},
}

func init() {
	catalogShowCmd.Flags().BoolVar(&catalogCritical, "critical", false, "Show the weights used for critical providers")

	catalogCmd.AddCommand(catalogTypesCmd, catalogShowCmd)
	rootCmd.AddCommand(catalogCmd)
}

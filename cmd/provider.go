package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/dotcommander/provscore/internal/app"
	"github.com/dotcommander/provscore/internal/output"
	"github.com/dotcommander/provscore/internal/types"
)

var (
	providerName         string
	providerCategory     string
	providerCriticality  string
	providerEmail        string
	providerSlackChannel string
	providerListCategory string
)

var providerCmd = &cobra.Command{
	Use:   "provider",
	Short: "Manage providers",
}

var providerAddCmd = &cobra.Command{
	Use:   "add",
	Short: "Register a provider",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		run(cmd, func(ctx context.Context, a *app.App, out output.Formatter) error {
			crit, err := parseCriticality(providerCriticality)
			if err != nil {
				return err
			}
			p, err := a.Providers.Create(ctx, a.Config.Actor(), types.Provider{
				Name:         providerName,
				CategoryType: providerCategory,
				Criticality:  crit,
				ContactEmail: providerEmail,
				SlackChannel: providerSlackChannel,
			})
			if err != nil {
				return err
			}
			return out.Providers([]types.Provider{p})
		})
	},
}

var providerListCmd = &cobra.Command{
	Use:   "list",
	Short: "List providers",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		run(cmd, func(ctx context.Context, a *app.App, out output.Formatter) error {
			providers, err := a.Providers.List(ctx, providerListCategory)
			if err != nil {
				return err
			}
			return out.Providers(providers)
		})
	},
}

var providerShowCmd = &cobra.Command{
	Use:   "show <id>",
	Short: "Show a provider",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		run(cmd, func(ctx context.Context, a *app.App, out output.Formatter) error {
			p, err := a.Providers.Get(ctx, args[0])
			if err != nil {
				return err
			}
			return out.Providers([]types.Provider{p})
		})
	},
}

var providerCriticalityCmd = &cobra.Command{
	Use:   "criticality <id> <Critico|NoCritico|Unassigned>",
	Short: "Change the criticality used by future evaluations",
	Args:  cobra.ExactArgs(2),
	Run: func(cmd *cobra.Command, args []string) {
		run(cmd, func(ctx context.Context, a *app.App, out output.Formatter) error {
			crit, err := parseCriticality(args[1])
			if err != nil {
				return err
			}
			if err := a.Providers.SetCriticality(ctx, a.Config.Actor(), args[0], crit); err != nil {
				return err
			}
			return out.Message("provider %s is now %s", args[0], crit)
		})
	},
}

func init() {
	providerAddCmd.Flags().StringVar(&providerName, "name", "", "Provider name")
	providerAddCmd.Flags().StringVar(&providerCategory, "category", "", "Category type")
	providerAddCmd.Flags().StringVar(&providerCriticality, "criticality", "", "Critico, NoCritico or empty")
	providerAddCmd.Flags().StringVar(&providerEmail, "email", "", "Contact email")
	providerAddCmd.Flags().StringVar(&providerSlackChannel, "slack-channel", "", "Slack channel for this provider's notices")
	_ = providerAddCmd.MarkFlagRequired("name")
	_ = providerAddCmd.MarkFlagRequired("category")

	providerListCmd.Flags().StringVar(&providerListCategory, "category", "", "Only list this category type")

	providerCmd.AddCommand(providerAddCmd, providerListCmd, providerShowCmd, providerCriticalityCmd)
	rootCmd.AddCommand(providerCmd)
}

func parseCriticality(s string) (types.Criticality, error) {
	c, ok := types.ParseCriticality(s)
	if !ok {
		return types.Unassigned, &types.ValidationError{Message: fmt.Sprintf("unknown criticality %q", s)}
	}
	return c, nil
}

package cmd

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/dotcommander/provscore/internal/app"
	"github.com/dotcommander/provscore/internal/config"
	"github.com/dotcommander/provscore/internal/logging"
	"github.com/dotcommander/provscore/internal/output"
	"github.com/dotcommander/provscore/internal/outputters"
)

// Version is set at build time.
var Version = "dev"

// exitFunc is replaced in tests.
var exitFunc = os.Exit

var (
	cfgFile      string
	dbPath       string
	dataDir      string
	outputFormat string
	userName     string
	roleName     string
	providerID   string
	verbose      bool
)

var rootCmd = &cobra.Command{
	Use:   "provscore",
	Short: "Supplier evaluation and selection scoring",
	Long: `provscore scores suppliers against weighted criteria.

Recurring evaluations use the catalog weights of the provider's category
(or the reinforced set for critical providers). A total below 3.5 out of 5
requires the provider to submit an improvement commitment for every
criterion scored below 4.25.

Selection events rank competing candidates on criteria whose weights sum
to 100 and close when a winner is confirmed with a justification.`,
	Version:       Version,
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute runs the root command.
func Execute() {
	if err := rootCmd.ExecuteContext(context.Background()); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		exitFunc(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "Config file (default: .provscorerc.{json,yaml,yml})")
	rootCmd.PersistentFlags().StringVar(&dbPath, "db", "provscore.db", "SQLite database path")
	rootCmd.PersistentFlags().StringVar(&dataDir, "data-dir", "", "Directory with catalogs/ and weights/ YAML files")
	rootCmd.PersistentFlags().StringVarP(&outputFormat, "format", "f", "console", "Output format (console|json)")
	rootCmd.PersistentFlags().StringVarP(&userName, "user", "u", "", "Acting user id")
	rootCmd.PersistentFlags().StringVar(&roleName, "role", "evaluator", "Acting role (admin|evaluator|provider|viewer)")
	rootCmd.PersistentFlags().StringVar(&providerID, "provider-id", "", "Provider the acting user belongs to (provider role)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable verbose output")

	viper.BindPFlag("db", rootCmd.PersistentFlags().Lookup("db"))
	viper.BindPFlag("dataDir", rootCmd.PersistentFlags().Lookup("data-dir"))
	viper.BindPFlag("format", rootCmd.PersistentFlags().Lookup("format"))
	viper.BindPFlag("user", rootCmd.PersistentFlags().Lookup("user"))
	viper.BindPFlag("role", rootCmd.PersistentFlags().Lookup("role"))
	viper.BindPFlag("providerId", rootCmd.PersistentFlags().Lookup("provider-id"))
	viper.BindPFlag("verbose", rootCmd.PersistentFlags().Lookup("verbose"))
}

// runFunc is the body of a command that needs the wired services.
type runFunc func(ctx context.Context, a *app.App, out output.Formatter) error

// run executes fn and reports its error the way every command does.
func run(cmd *cobra.Command, fn runFunc) {
	if err := withApp(cmd, fn); err != nil {
		fmt.Fprintf(cmd.ErrOrStderr(), "Error: %v\n", err)
		exitFunc(1)
	}
}

func withApp(cmd *cobra.Command, fn runFunc) error {
	cfg, err := config.LoadConfig(cfgFile)
	if err != nil {
		return fmt.Errorf("error loading configuration: %w", err)
	}

	logger := logging.New(cfg.EffectiveLogLevel(), cmd.ErrOrStderr())

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	a, err := app.New(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer a.Close()

	out, err := outputters.NewOutputter(cfg, cmd.OutOrStdout()).Formatter()
	if err != nil {
		return err
	}
	return fn(ctx, a, out)
}

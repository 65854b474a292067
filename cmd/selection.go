package cmd

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/dotcommander/provscore/internal/app"
	"github.com/dotcommander/provscore/internal/cue"
	"github.com/dotcommander/provscore/internal/output"
	"github.com/dotcommander/provscore/internal/selection"
	"github.com/dotcommander/provscore/internal/types"
)

var (
	selectType          string
	selectTemplate      bool
	selectCriterionID   string
	selectCriterionName string
	selectWeight        float64
	selectGroup         string
	selectCriteriaFile  string
	selectCompetitor    string
	selectQuoteURL      string
	selectScores        []string
	selectJustification string
)

// criteriaFile is the --file form of a criteria list.
type criteriaFile struct {
	Criteria []types.Criterion `yaml:"criteria"`
}

var selectCmd = &cobra.Command{
	Use:     "select",
	Aliases: []string{"selection"},
	Short:   "Run competitive selection events",
	Long: `Selection events rank candidate suppliers on weighted criteria.

Criteria weights are percentage points in the groups Legal, Tecnico,
Operativo and Financiero; the flat total must be 100 before a winner can
be confirmed. Once a winner is confirmed the event is closed and read-only.`,
}

var selectCreateCmd = &cobra.Command{
	Use:   "create <name>",
	Short: "Open a selection event",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		run(cmd, func(ctx context.Context, a *app.App, out output.Formatter) error {
			e, err := a.Selection.CreateEvent(ctx, a.Config.Actor(), args[0], selectType, selectTemplate)
			if err != nil {
				return err
			}
			return showEvent(out, e)
		})
	},
}

var selectCriterionCmd = &cobra.Command{
	Use:   "criterion",
	Short: "Add or remove event criteria",
}

var selectCriterionAddCmd = &cobra.Command{
	Use:   "add <event-id>",
	Short: "Add a criterion",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		run(cmd, func(ctx context.Context, a *app.App, out output.Formatter) error {
			e, err := a.Selection.AddCriterion(ctx, a.Config.Actor(), args[0], types.Criterion{
				ID:     selectCriterionID,
				Label:  selectCriterionName,
				Weight: selectWeight,
				Group:  types.CriterionGroup(selectGroup),
			})
			if err != nil {
				return err
			}
			return showEvent(out, e)
		})
	},
}

var selectCriterionRemoveCmd = &cobra.Command{
	Use:   "remove <event-id> <criterion-id>",
	Short: "Remove a criterion and its scores",
	Args:  cobra.ExactArgs(2),
	Run: func(cmd *cobra.Command, args []string) {
		run(cmd, func(ctx context.Context, a *app.App, out output.Formatter) error {
			e, err := a.Selection.RemoveCriterion(ctx, a.Config.Actor(), args[0], args[1])
			if err != nil {
				return err
			}
			return showEvent(out, e)
		})
	},
}

var selectTemplateCmd = &cobra.Command{
	Use:   "template <event-id>",
	Short: "Replace the criteria with the default selection template",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		run(cmd, func(ctx context.Context, a *app.App, out output.Formatter) error {
			e, err := a.Selection.ApplyTemplate(ctx, a.Config.Actor(), args[0])
			if err != nil {
				return err
			}
			return showEvent(out, e)
		})
	},
}

var selectSaveCriteriaCmd = &cobra.Command{
	Use:   "save-criteria <event-id>",
	Short: "Replace the criteria from a file",
	Long: `Replace the criteria of an event. The weights must sum to 100.
Label defaults to the id and group to Pendiente.

File format:

  criteria:
    - id: precio
      label: Precio
      weight: 60
      group: Financiero
    - id: flota
      label: Flota disponible
      weight: 40
      group: Operativo`,
	Args: cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		run(cmd, func(ctx context.Context, a *app.App, out output.Formatter) error {
			var f criteriaFile
			if err := loadInputFile(a.Validator, cue.SchemaCriteria, selectCriteriaFile, &f); err != nil {
				return err
			}
			e, err := a.Selection.SetCriteria(ctx, a.Config.Actor(), args[0], f.Criteria)
			if err != nil {
				return err
			}
			return showEvent(out, e)
		})
	},
}

var selectCompetitorCmd = &cobra.Command{
	Use:   "competitor",
	Short: "Add or remove competitors",
}

var selectCompetitorAddCmd = &cobra.Command{
	Use:   "add <event-id>",
	Short: "Register a competitor",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		run(cmd, func(ctx context.Context, a *app.App, out output.Formatter) error {
			e, c, err := a.Selection.AddCompetitor(ctx, a.Config.Actor(), args[0], selectCompetitor, selectQuoteURL)
			if err != nil {
				return err
			}
			a.Logger.Debug("competitor added", "event", e.ID, "competitor", c.ID)
			return showEvent(out, e)
		})
	},
}

var selectCompetitorRemoveCmd = &cobra.Command{
	Use:   "remove <event-id> <competitor-id>",
	Short: "Remove a competitor",
	Args:  cobra.ExactArgs(2),
	Run: func(cmd *cobra.Command, args []string) {
		run(cmd, func(ctx context.Context, a *app.App, out output.Formatter) error {
			e, err := a.Selection.RemoveCompetitor(ctx, a.Config.Actor(), args[0], args[1])
			if err != nil {
				return err
			}
			return showEvent(out, e)
		})
	},
}

var selectScoreCmd = &cobra.Command{
	Use:   "score <event-id> <competitor-id>",
	Short: "Score a competitor",
	Args:  cobra.ExactArgs(2),
	Run: func(cmd *cobra.Command, args []string) {
		run(cmd, func(ctx context.Context, a *app.App, out output.Formatter) error {
			scores, err := parseScores("score", selectScores)
			if err != nil {
				return err
			}
			e, err := a.Selection.ScoreCompetitor(ctx, a.Config.Actor(), args[0], args[1], scores)
			if err != nil {
				return err
			}
			return showEvent(out, e)
		})
	},
}

var selectNotesCmd = &cobra.Command{
	Use:   "notes <event-id> <competitor-id> <notes>",
	Short: "Record audit notes on a competitor",
	Args:  cobra.ExactArgs(3),
	Run: func(cmd *cobra.Command, args []string) {
		run(cmd, func(ctx context.Context, a *app.App, out output.Formatter) error {
			if _, err := a.Selection.SetAuditNotes(ctx, a.Config.Actor(), args[0], args[1], args[2]); err != nil {
				return err
			}
			return out.Message("notes saved for %s", args[1])
		})
	},
}

var selectShowCmd = &cobra.Command{
	Use:   "show <event-id>",
	Short: "Show an event and its ranking",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		run(cmd, func(ctx context.Context, a *app.App, out output.Formatter) error {
			e, err := a.Selection.Get(ctx, args[0])
			if err != nil {
				return err
			}
			return showEvent(out, e)
		})
	},
}

var selectListCmd = &cobra.Command{
	Use:   "list",
	Short: "List selection events",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		run(cmd, func(ctx context.Context, a *app.App, out output.Formatter) error {
			events, err := a.Selection.List(ctx)
			if err != nil {
				return err
			}
			return out.Events(events)
		})
	},
}

var selectConfirmCmd = &cobra.Command{
	Use:   "confirm <event-id> <competitor-id>",
	Short: "Confirm the winner and close the event",
	Args:  cobra.ExactArgs(2),
	Run: func(cmd *cobra.Command, args []string) {
		run(cmd, func(ctx context.Context, a *app.App, out output.Formatter) error {
			e, err := a.Selection.ConfirmWinner(ctx, a.Config.Actor(), args[0], args[1], selectJustification)
			if err != nil {
				return err
			}
			return showEvent(out, e)
		})
	},
}

var selectResendCmd = &cobra.Command{
	Use:   "resend <event-id>",
	Short: "Send the winner notification again",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		run(cmd, func(ctx context.Context, a *app.App, out output.Formatter) error {
			if err := a.Selection.ResendWinnerNotification(ctx, a.Config.Actor(), args[0]); err != nil {
				return err
			}
			return out.Message("winner notification of %s sent", args[0])
		})
	},
}

func init() {
	selectCreateCmd.Flags().StringVar(&selectType, "type", "", "Category type the event sources for")
	selectCreateCmd.Flags().BoolVar(&selectTemplate, "template", false, "Start from the default selection criteria")

	selectCriterionAddCmd.Flags().StringVar(&selectCriterionID, "id", "", "Criterion id")
	selectCriterionAddCmd.Flags().StringVar(&selectCriterionName, "label", "", "Criterion label")
	selectCriterionAddCmd.Flags().Float64Var(&selectWeight, "weight", 0, "Weight in percentage points")
	selectCriterionAddCmd.Flags().StringVar(&selectGroup, "group", "", "Legal, Tecnico, Operativo or Financiero")
	_ = selectCriterionAddCmd.MarkFlagRequired("id")
	selectCriterionCmd.AddCommand(selectCriterionAddCmd, selectCriterionRemoveCmd)

	selectSaveCriteriaCmd.Flags().StringVar(&selectCriteriaFile, "file", "", "YAML criteria file")
	_ = selectSaveCriteriaCmd.MarkFlagRequired("file")

	selectCompetitorAddCmd.Flags().StringVar(&selectCompetitor, "name", "", "Competitor name")
	selectCompetitorAddCmd.Flags().StringVar(&selectQuoteURL, "quote-url", "", "Link to the competitor's quote")
	_ = selectCompetitorAddCmd.MarkFlagRequired("name")
	selectCompetitorCmd.AddCommand(selectCompetitorAddCmd, selectCompetitorRemoveCmd)

	selectScoreCmd.Flags().StringArrayVarP(&selectScores, "score", "s", nil, "Criterion score as id=n (repeatable)")

	selectConfirmCmd.Flags().StringVar(&selectJustification, "justification", "", "Why this competitor wins")

	selectCmd.AddCommand(
		selectCreateCmd,
		selectCriterionCmd,
		selectTemplateCmd,
		selectSaveCriteriaCmd,
		selectCompetitorCmd,
		selectScoreCmd,
		selectNotesCmd,
		selectShowCmd,
		selectListCmd,
		selectConfirmCmd,
		selectResendCmd,
	)
	rootCmd.AddCommand(selectCmd)
}

func showEvent(out output.Formatter, e types.SelectionEvent) error {
	return out.Event(e, selection.Ranking(e))
}

package main

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/steveyegge/readiness/internal/timeparsing"
	"github.com/steveyegge/readiness/internal/types"
)

var historyCmd = &cobra.Command{
	Use:     "history <id>",
	GroupID: "projects",
	Short:   "Show refinements, patches and locked fixes",
	Long: `Show the audit history of a project, newest first.

--since accepts lookback durations (90m, 12h, 3d, 2w), dates (2026-01-15), RFC3339
timestamps and natural language ("yesterday", "last monday").`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		var since time.Time
		if raw, _ := cmd.Flags().GetString("since"); raw != "" {
			t, err := timeparsing.ParseSince(raw, time.Now())
			if err != nil {
				return types.NewValidationError("since", err.Error())
			}
			since = t
		}
		plan, err := svc.History(rootCtx, args[0], since)
		if err != nil {
			return err
		}
		if jsonOutput {
			writeJSON(cmd.OutOrStdout(), plan)
			return nil
		}
		displayHistory(cmd.OutOrStdout(), plan)
		return nil
	},
}

var rollbackCmd = &cobra.Command{
	Use:     "rollback <id> <patch-id>",
	GroupID: "projects",
	Short:   "Restore the documents captured before a patch",
	Args:    cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		rec, err := svc.Rollback(rootCtx, args[0], args[1])
		if err != nil {
			return err
		}
		if jsonOutput {
			writeJSON(cmd.OutOrStdout(), rec)
			return nil
		}
		printNormal(cmd.OutOrStdout(), "Rolled back %s in %s (%s)\n", args[1], rec.ID, rec.ExportPlan.Patches[0].ID)
		return nil
	},
}

var statusCmd = &cobra.Command{
	Use:     "status <id> [new-status]",
	GroupID: "projects",
	Short:   "Show or change the lifecycle status",
	Long: fmt.Sprintf(`Show or change the lifecycle status of a project.

Statuses: %s. Moves follow the lifecycle transition table;
an illegal move exits with code 2.`, strings.Join(statusNames(), ", ")),
	Args: cobra.RangeArgs(1, 2),
	RunE: func(cmd *cobra.Command, args []string) error {
		var (
			rec *types.ProjectRecord
			err error
		)
		if len(args) == 2 {
			rec, err = svc.SetStatus(rootCtx, args[0], types.Status(args[1]))
		} else {
			rec, err = svc.Get(rootCtx, args[0])
		}
		if err != nil {
			return err
		}
		if jsonOutput {
			writeJSON(cmd.OutOrStdout(), map[string]interface{}{"id": rec.ID, "status": rec.Status, "version": rec.Version})
			return nil
		}
		fmt.Fprintf(cmd.OutOrStdout(), "%s %s\n", rec.ID, rec.Status)
		return nil
	},
}

func statusNames() []string {
	var names []string
	for _, s := range types.AllStatuses() {
		names = append(names, string(s))
	}
	return names
}

func init() {
	historyCmd.Flags().String("since", "", "Only show entries created at or after this time")
	rootCmd.AddCommand(historyCmd, rollbackCmd, statusCmd)
}

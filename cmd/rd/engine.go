package main

import (
	"errors"
	"fmt"
	"sync"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/steveyegge/readiness/internal/autofix"
	"github.com/steveyegge/readiness/internal/types"
	"github.com/steveyegge/readiness/internal/ui"
)

var scoreCmd = &cobra.Command{
	Use:     "score <id>",
	GroupID: "engine",
	Short:   "Compute the readiness score",
	Args:    cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		res, err := svc.Score(rootCtx, args[0])
		if err != nil {
			return err
		}
		if jsonOutput {
			writeJSON(cmd.OutOrStdout(), res)
			return nil
		}
		displayScore(cmd.OutOrStdout(), args[0], res)
		return nil
	},
}

var diagnoseCmd = &cobra.Command{
	Use:     "diagnose <id>",
	GroupID: "engine",
	Short:   "Run diagnostics and store the ranked report",
	Args:    cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		report, err := svc.Diagnose(rootCtx, args[0])
		if err != nil {
			return err
		}
		if jsonOutput {
			writeJSON(cmd.OutOrStdout(), report)
			return nil
		}
		displayDiagnostics(cmd.OutOrStdout(), report)
		return nil
	},
}

var testsCmd = &cobra.Command{
	Use:     "tests",
	GroupID: "engine",
	Short:   "Generate and run the virtual test suite",
}

var testsGenerateCmd = &cobra.Command{
	Use:   "generate <id>",
	Short: "Regenerate the virtual test catalogue",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		plan, err := svc.GenerateTests(rootCtx, args[0])
		if err != nil {
			return err
		}
		return printTestPlan(cmd, plan)
	},
}

var testsRunCmd = &cobra.Command{
	Use:   "run <id>",
	Short: "Grade the virtual test catalogue against the current documents",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		plan, err := svc.RunTests(rootCtx, args[0])
		if err != nil {
			return err
		}
		return printTestPlan(cmd, plan)
	},
}

func printTestPlan(cmd *cobra.Command, plan *types.TestPlan) error {
	if jsonOutput {
		writeJSON(cmd.OutOrStdout(), plan)
		return nil
	}
	displayTestPlan(cmd.OutOrStdout(), plan)
	return nil
}

var patchCmd = &cobra.Command{
	Use:     "patch <id>",
	GroupID: "engine",
	Short:   "Fill missing documents with skeletons",
	Long: `Fill the missing intent, architecture and deployment documents with
skeletons. A deployment plan is only added when --intent (or the stored
problem statement) mentions deploying, shipping or launching.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		intent, _ := cmd.Flags().GetString("intent")
		res, err := svc.Patch(rootCtx, args[0], intent)
		if err != nil {
			return err
		}
		if jsonOutput {
			writeJSON(cmd.OutOrStdout(), res)
			return nil
		}
		if len(res.Actions) == 0 {
			printNormal(cmd.OutOrStdout(), "Nothing to patch in %s\n", args[0])
			return nil
		}
		printNormal(cmd.OutOrStdout(), "Patched %s (%s)\n", args[0], res.Entry.ID)
		for _, action := range res.Actions {
			printNormal(cmd.OutOrStdout(), "  %s %s\n", ui.RenderPassIcon(), action)
		}
		return nil
	},
}

// autofixOutcome is one line of an autofix --all run.
type autofixOutcome struct {
	ID    string `json:"id"`
	Fixed bool   `json:"fixed"`
	Rule  string `json:"rule,omitempty"`
	Fix   string `json:"fix,omitempty"`
	Error string `json:"error,omitempty"`
}

var autofixCmd = &cobra.Command{
	Use:     "autofix [id]",
	GroupID: "engine",
	Short:   "Fix the highest value diagnostic and lock the proof",
	Long: `Run one autofix pass: diagnose, pick the top-ranked issue, patch, re-test,
re-diagnose and record a locked fix with before/after proof. With --all every
stored project is processed concurrently (see config key autofix.parallel).

Exit code 4 means there was nothing to fix.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		intent, _ := cmd.Flags().GetString("intent")
		all, _ := cmd.Flags().GetBool("all")
		if all == (len(args) == 1) {
			return types.NewValidationError("id", "give a project id or --all")
		}
		if all {
			return autofixAll(cmd, intent)
		}

		res, err := svc.Autofix(rootCtx, args[0], intent)
		if err != nil {
			return err
		}
		if jsonOutput {
			writeJSON(cmd.OutOrStdout(), res)
			return nil
		}
		displayAutofix(cmd, res)
		return nil
	},
}

func displayAutofix(cmd *cobra.Command, res *autofix.Result) {
	w := cmd.OutOrStdout()
	printNormal(w, "%s Locked %s: %s\n", ui.RenderPassIcon(), res.Fix.ID, res.Fix.Title)
	printNormal(w, "  tests %d → %d, status %s\n", res.Fix.Proof.BeforeTestScore, res.Fix.Proof.AfterTestScore, res.Record.Status)
	for _, action := range res.Patch.Actions {
		printNormal(w, "  %s\n", action)
	}
	if res.Regression != nil {
		printNormal(w, "%s %s was fixed before in %s\n", ui.RenderWarnIcon(), res.Fix.Rule, res.Regression.ID)
	}
}

// autofixAll runs autofix on every stored project, bounded by the
// autofix.parallel setting. Projects with nothing to fix are not failures.
func autofixAll(cmd *cobra.Command, intent string) error {
	ids, err := svc.List(rootCtx)
	if err != nil {
		return err
	}
	outcomes := make([]autofixOutcome, len(ids))
	var mu sync.Mutex
	var failed []string

	g, ctx := errgroup.WithContext(rootCtx)
	g.SetLimit(settings.AutofixParallel)
	for i, id := range ids {
		g.Go(func() error {
			out := autofixOutcome{ID: id}
			res, err := svc.Autofix(ctx, id, intent)
			switch {
			case errors.Is(err, types.ErrNoDiagnostics):
			case err != nil:
				out.Error = err.Error()
				mu.Lock()
				failed = append(failed, id)
				mu.Unlock()
			default:
				out.Fixed = true
				out.Rule = res.Fix.Rule
				out.Fix = res.Fix.ID
			}
			outcomes[i] = out
			return nil
		})
	}
	_ = g.Wait()

	if jsonOutput {
		writeJSON(cmd.OutOrStdout(), outcomes)
	} else {
		for _, out := range outcomes {
			switch {
			case out.Error != "":
				fmt.Fprintf(cmd.OutOrStdout(), "%s %s: %s\n", ui.RenderFailIcon(), out.ID, out.Error)
			case out.Fixed:
				fmt.Fprintf(cmd.OutOrStdout(), "%s %s: %s (%s)\n", ui.RenderPassIcon(), out.ID, out.Rule, out.Fix)
			default:
				fmt.Fprintf(cmd.OutOrStdout(), "%s %s: nothing to fix\n", ui.RenderMuted("-"), out.ID)
			}
		}
	}
	if len(failed) > 0 {
		return fmt.Errorf("autofix failed for %d of %d projects", len(failed), len(ids))
	}
	return nil
}

func init() {
	patchCmd.Flags().String("intent", "", "Free text describing the project")
	autofixCmd.Flags().String("intent", "", "Free text describing the project")
	autofixCmd.Flags().Bool("all", false, "Autofix every stored project")

	testsCmd.AddCommand(testsGenerateCmd, testsRunCmd)
	rootCmd.AddCommand(scoreCmd, diagnoseCmd, testsCmd, patchCmd, autofixCmd)
}

package main

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/steveyegge/readiness/internal/idgen"
	"github.com/steveyegge/readiness/internal/recordio"
	"github.com/steveyegge/readiness/internal/types"
)

var newCmd = &cobra.Command{
	Use:     "new <title>",
	GroupID: "projects",
	Short:   "Create an empty draft project",
	Long: `Create an empty draft project. The id is derived from the title and made
unique against the store; the title becomes the problem statement.`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		title := strings.TrimSpace(strings.Join(args, " "))
		id, _ := cmd.Flags().GetString("id")
		if id == "" {
			var lookupErr error
			id = idgen.ProjectID(title, func(candidate string) bool {
				_, err := store.Load(rootCtx, candidate)
				if err != nil && !errors.Is(err, types.ErrNotFound) {
					lookupErr = err
				}
				return err == nil
			})
			if lookupErr != nil {
				return lookupErr
			}
		}
		rec := &types.ProjectRecord{
			ID:             id,
			Status:         types.StatusDraft,
			IntentDocument: &types.IntentDocument{ProblemStatement: title},
		}
		if err := store.Create(rootCtx, rec); err != nil {
			return err
		}
		saved, err := svc.Get(rootCtx, id)
		if err != nil {
			return err
		}
		if jsonOutput {
			writeJSON(cmd.OutOrStdout(), saved)
			return nil
		}
		printNormal(cmd.OutOrStdout(), "Created %s\n", id)
		return nil
	},
}

var importCmd = &cobra.Command{
	Use:     "import <file>",
	GroupID: "projects",
	Short:   "Import a project record from JSON, YAML or TOML",
	Long: `Import a project record. The format follows the file extension
(.json, .yaml/.yml, .toml). A new id is created; an existing id has its
documents replaced while reports, status and history are kept.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		rec, err := recordio.ReadFile(args[0])
		if err != nil {
			return err
		}
		saved, created, err := svc.Import(rootCtx, rec)
		if err != nil {
			return err
		}
		if jsonOutput {
			writeJSON(cmd.OutOrStdout(), map[string]interface{}{"created": created, "record": saved})
			return nil
		}
		if created {
			printNormal(cmd.OutOrStdout(), "Created %s\n", saved.ID)
		} else {
			printNormal(cmd.OutOrStdout(), "Updated %s (version %d)\n", saved.ID, saved.Version)
		}
		return nil
	},
}

var exportCmd = &cobra.Command{
	Use:     "export <id>",
	GroupID: "projects",
	Short:   "Export a project record",
	Args:    cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		rec, err := svc.Get(rootCtx, args[0])
		if err != nil {
			return err
		}
		output, _ := cmd.Flags().GetString("output")
		if output != "" {
			if err := recordio.WriteFile(output, rec); err != nil {
				return err
			}
			printNormal(cmd.ErrOrStderr(), "Exported %s to %s\n", rec.ID, output)
			return nil
		}
		name, _ := cmd.Flags().GetString("format")
		format, err := recordio.ParseFormat(name)
		if err != nil {
			return err
		}
		return recordio.Encode(cmd.OutOrStdout(), rec, format)
	},
}

var showCmd = &cobra.Command{
	Use:     "show <id>",
	GroupID: "projects",
	Short:   "Show a project record",
	Args:    cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		rec, err := svc.Get(rootCtx, args[0])
		if err != nil {
			return err
		}
		if jsonOutput {
			writeJSON(cmd.OutOrStdout(), rec)
			return nil
		}
		displayRecord(cmd.OutOrStdout(), rec)
		return nil
	},
}

var listCmd = &cobra.Command{
	Use:     "list",
	GroupID: "projects",
	Short:   "List stored project ids",
	Args:    cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		ids, err := svc.List(rootCtx)
		if err != nil {
			return err
		}
		if jsonOutput {
			writeJSON(cmd.OutOrStdout(), ids)
			return nil
		}
		for _, id := range ids {
			fmt.Fprintln(cmd.OutOrStdout(), id)
		}
		return nil
	},
}

func init() {
	newCmd.Flags().String("id", "", "Use this id instead of deriving one from the title")
	exportCmd.Flags().StringP("format", "f", "json", "Output format: json, yaml or toml")
	exportCmd.Flags().StringP("output", "o", "", "Write to a file instead of stdout (format from extension)")

	rootCmd.AddCommand(newCmd, importCmd, exportCmd, showCmd, listCmd)
}

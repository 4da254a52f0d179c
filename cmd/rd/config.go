package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/steveyegge/readiness/internal/config"
	"github.com/steveyegge/readiness/internal/types"
)

var configCmd = &cobra.Command{
	Use:         "config",
	GroupID:     "setup",
	Short:       "Manage configuration settings",
	Annotations: map[string]string{noDBAnnotation: "true"},
	Long: `Manage configuration settings.

Settings are read from .readiness/config.yaml (nearest enclosing project),
then ~/.config/readiness/config.yaml. RD_* environment variables and flags
override both; RD_MYSQL_DSN sets mysql.dsn.

Examples:
  rd config set backend mysql
  rd config set mysql.dsn "user:pass@tcp(127.0.0.1:3306)/readiness"
  rd config set autofix.parallel 8
  rd config get backend
  rd config list`,
}

var configSetCmd = &cobra.Command{
	Use:   "set <key> <value>",
	Short: "Set a value in the project config.yaml",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		key, value := args[0], args[1]
		if !config.IsKnownKey(key) {
			return types.NewValidationError("key", fmt.Sprintf("unknown config key %q", key))
		}
		if err := config.SetYamlConfig(key, value); err != nil {
			return err
		}
		if jsonOutput {
			writeJSON(cmd.OutOrStdout(), map[string]string{"key": key, "value": value})
			return nil
		}
		printNormal(cmd.OutOrStdout(), "Set %s = %s\n", key, value)
		return nil
	},
}

var configGetCmd = &cobra.Command{
	Use:   "get <key>",
	Short: "Print the effective value of a key",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if !config.IsKnownKey(args[0]) {
			return types.NewValidationError("key", fmt.Sprintf("unknown config key %q", args[0]))
		}
		value := config.GetYamlConfig(args[0])
		if jsonOutput {
			writeJSON(cmd.OutOrStdout(), map[string]string{"key": args[0], "value": value})
			return nil
		}
		fmt.Fprintln(cmd.OutOrStdout(), value)
		return nil
	},
}

var configListCmd = &cobra.Command{
	Use:   "list",
	Short: "Print every effective setting",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		values := make(map[string]string, len(config.KnownKeys))
		for _, key := range config.KnownKeys {
			values[key] = config.GetYamlConfig(key)
		}
		if jsonOutput {
			writeJSON(cmd.OutOrStdout(), values)
			return nil
		}
		if used := config.ConfigFileUsed(); used != "" {
			fmt.Fprintf(cmd.OutOrStdout(), "# %s\n", used)
		}
		for _, key := range config.KnownKeys {
			fmt.Fprintf(cmd.OutOrStdout(), "%s = %s\n", key, values[key])
		}
		return nil
	},
}

const configTemplate = `# rd configuration
#
# Uncomment and edit to override the defaults. RD_* environment variables
# and command line flags take precedence over this file.

# Storage backend: memory, sqlite or mysql
# backend: sqlite

# SQLite database path (default: .readiness/readiness.db)
# db: ""

# MySQL or Dolt sql-server DSN, required for backend mysql
# mysql.dsn: ""

# Id generation: hash, counter or uuid
# ids: hash
# id-length: 6

# log.level: warn
# log.format: text

# How long a command waits for another writer on the same project
# lock-timeout: 30s
# Directory for cross-process project locks (empty: in-process only)
# lock-dir: ""

# watch.debounce: 500ms
# autofix.parallel: 4
`

var initCmd = &cobra.Command{
	Use:         "init",
	GroupID:     "setup",
	Short:       "Create .readiness/config.yaml in the current directory",
	Annotations: map[string]string{noDBAnnotation: "true"},
	Args:        cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		dir := config.ProjectDirName
		path := filepath.Join(dir, "config.yaml")
		if _, err := os.Stat(path); err == nil {
			printNormal(cmd.OutOrStdout(), "%s already exists\n", path)
			return nil
		}
		if err := os.MkdirAll(dir, 0o750); err != nil {
			return fmt.Errorf("create %s: %w", dir, err)
		}
		if err := os.WriteFile(path, []byte(configTemplate), 0o600); err != nil {
			return fmt.Errorf("write %s: %w", path, err)
		}
		printNormal(cmd.OutOrStdout(), "Initialized %s\n", dir)
		return nil
	},
}

func init() {
	configCmd.AddCommand(configSetCmd, configGetCmd, configListCmd)
	rootCmd.AddCommand(configCmd, initCmd)
}

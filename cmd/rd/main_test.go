package main

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/steveyegge/readiness/internal/recordio"
	"github.com/steveyegge/readiness/internal/types"
)

// TestMain keeps the commands away from any real project or user config.
func TestMain(m *testing.M) {
	tmp, err := os.MkdirTemp("", "rd-cmd-tests-*")
	if err != nil {
		os.Exit(1)
	}
	_ = os.Setenv("HOME", tmp)
	_ = os.Setenv("XDG_CONFIG_HOME", filepath.Join(tmp, "xdg-config"))
	_ = os.Setenv("RD_NO_EMOJI", "1")
	_ = os.Setenv("NO_COLOR", "1")
	for _, key := range []string{"RD_JSON", "RD_DB", "RD_BACKEND", "RD_MYSQL_DSN", "RD_IDS", "RD_OTEL_ENABLED", "RD_DEBUG"} {
		_ = os.Unsetenv(key)
	}
	code := m.Run()
	_ = os.RemoveAll(tmp)
	os.Exit(code)
}

// resetFlags restores every flag in the command tree to its default so
// runs do not leak into each other.
func resetFlags(cmd *cobra.Command) {
	reset := func(f *pflag.Flag) {
		_ = f.Value.Set(f.DefValue)
		f.Changed = false
	}
	cmd.Flags().VisitAll(reset)
	cmd.PersistentFlags().VisitAll(reset)
	for _, c := range cmd.Commands() {
		resetFlags(c)
	}
}

// runRD executes rd with args in a fresh project directory shared by the
// calling test.
func runRD(t *testing.T, args ...string) (string, error) {
	t.Helper()
	resetFlags(rootCmd)
	var out, errOut bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&errOut)
	rootCmd.SetArgs(args)
	err := rootCmd.Execute()
	if err != nil {
		teardown()
	}
	return out.String(), err
}

func inProject(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	t.Chdir(dir)
	return dir
}

func cleanRecord() *types.ProjectRecord {
	return &types.ProjectRecord{
		ID:     "proj-clean",
		Status: types.StatusTested,
		IntentDocument: &types.IntentDocument{
			ProblemStatement: "Tenants cannot report repairs",
			CoreFlows:        []string{"report repair", "track repair"},
			AcceptanceTests:  []string{"report stored", "landlord notified", "status visible"},
		},
		ArchitectureDocument: &types.ArchitectureDocument{
			Screens:  []types.Screen{{Name: "Report"}},
			Entities: []types.Entity{{Name: "Repair"}},
			APIs:     []types.API{{Method: "POST", Path: "/repairs"}},
			Infra:    types.Infra{AuthProvider: "oidc", Database: "postgres", Hosting: "k8s"},
		},
		TestPlan: &types.TestPlan{Cases: []types.TestCase{
			{ID: "tc-1", Title: "Report screen renders", Status: types.TestVirtualPass},
		}},
		ScanReport: &types.ScanReport{Score: 91},
	}
}

func TestVersionCommand(t *testing.T) {
	inProject(t)
	out, err := runRD(t, "version")
	require.NoError(t, err)
	assert.Contains(t, out, "rd version "+Version)

	out, err = runRD(t, "version", "--json")
	require.NoError(t, err)
	var result map[string]string
	require.NoError(t, json.Unmarshal([]byte(out), &result))
	assert.Equal(t, Version, result["version"])
}

func TestImportShowExport(t *testing.T) {
	dir := inProject(t)
	path := filepath.Join(dir, "clean.json")
	require.NoError(t, recordio.WriteFile(path, cleanRecord()))

	out, err := runRD(t, "import", path)
	require.NoError(t, err)
	assert.Contains(t, out, "Created proj-clean")

	out, err = runRD(t, "import", path)
	require.NoError(t, err)
	assert.Contains(t, out, "Updated proj-clean (version 2)")

	out, err = runRD(t, "show", "proj-clean", "--json")
	require.NoError(t, err)
	var rec types.ProjectRecord
	require.NoError(t, json.Unmarshal([]byte(out), &rec))
	assert.Equal(t, types.StatusTested, rec.Status)
	assert.EqualValues(t, 2, rec.Version)

	out, err = runRD(t, "show", "proj-clean")
	require.NoError(t, err)
	assert.Contains(t, out, "proj-clean")
	assert.Contains(t, out, "Tenants cannot report repairs")

	out, err = runRD(t, "export", "proj-clean", "--format", "yaml")
	require.NoError(t, err)
	assert.Contains(t, out, "id: proj-clean")

	tomlPath := filepath.Join(dir, "out.toml")
	_, err = runRD(t, "export", "proj-clean", "-o", tomlPath)
	require.NoError(t, err)
	back, err := recordio.ReadFile(tomlPath)
	require.NoError(t, err)
	assert.Equal(t, "proj-clean", back.ID)

	out, err = runRD(t, "list")
	require.NoError(t, err)
	assert.Equal(t, "proj-clean\n", out)
}

func TestAutofixHistoryRollback(t *testing.T) {
	dir := inProject(t)

	out, err := runRD(t, "new", "Clinic booking", "--id", "proj-clinic")
	require.NoError(t, err)
	assert.Contains(t, out, "Created proj-clinic")

	out, err = runRD(t, "autofix", "proj-clinic", "--json")
	require.NoError(t, err)
	var res struct {
		Record types.ProjectRecord `json:"record"`
		Patch  types.PatchEntry    `json:"patch"`
		Fix    types.LockedFix     `json:"fix"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &res))
	assert.Equal(t, types.StatusLocked, res.Record.Status)
	assert.NotEmpty(t, res.Fix.ID)

	out, err = runRD(t, "history", "proj-clinic", "--json")
	require.NoError(t, err)
	var plan types.ExportPlan
	require.NoError(t, json.Unmarshal([]byte(out), &plan))
	assert.Len(t, plan.LockedFixes, 1)
	require.Len(t, plan.Patches, 1)

	out, err = runRD(t, "history", "proj-clinic", "--since", "+1d", "--json")
	require.NoError(t, err)
	plan = types.ExportPlan{}
	require.NoError(t, json.Unmarshal([]byte(out), &plan))
	assert.Empty(t, plan.Patches)

	out, err = runRD(t, "rollback", "proj-clinic", res.Patch.ID)
	require.NoError(t, err)
	assert.Contains(t, out, "Rolled back "+res.Patch.ID)

	out, err = runRD(t, "status", "proj-clinic")
	require.NoError(t, err)
	assert.Equal(t, "proj-clinic patched\n", out)

	events, err := os.ReadFile(filepath.Join(dir, ".readiness", "events.log"))
	require.NoError(t, err)
	assert.Contains(t, string(events), "|autofix|proj-clinic|")
}

func TestAutofixAll(t *testing.T) {
	dir := inProject(t)
	path := filepath.Join(dir, "clean.json")
	require.NoError(t, recordio.WriteFile(path, cleanRecord()))
	_, err := runRD(t, "import", path)
	require.NoError(t, err)
	_, err = runRD(t, "new", "Gym classes", "--id", "proj-gym")
	require.NoError(t, err)

	out, err := runRD(t, "autofix", "--all", "--json")
	require.NoError(t, err)
	var outcomes []autofixOutcome
	require.NoError(t, json.Unmarshal([]byte(out), &outcomes))
	require.Len(t, outcomes, 2)
	assert.Equal(t, "proj-clean", outcomes[0].ID)
	assert.False(t, outcomes[0].Fixed)
	assert.Equal(t, "proj-gym", outcomes[1].ID)
	assert.True(t, outcomes[1].Fixed)

	_, err = runRD(t, "autofix")
	assert.Equal(t, ExitValidation, exitCode(err))
}

func TestExitCodes(t *testing.T) {
	dir := inProject(t)
	path := filepath.Join(dir, "clean.json")
	require.NoError(t, recordio.WriteFile(path, cleanRecord()))
	_, err := runRD(t, "import", path)
	require.NoError(t, err)

	_, err = runRD(t, "autofix", "proj-clean")
	assert.Equal(t, ExitNothingToFix, exitCode(err))

	_, err = runRD(t, "show", "proj-missing")
	assert.Equal(t, ExitNotFound, exitCode(err))

	_, err = runRD(t, "status", "proj-clean", "draft")
	assert.Equal(t, ExitValidation, exitCode(err))

	_, err = runRD(t, "history", "proj-clean", "--since", "zzzz")
	assert.Equal(t, ExitValidation, exitCode(err))
}

func TestReportError(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		json     bool
		wantCode int
		want     string
	}{
		{"plain", errors.New("disk on fire"), false, ExitError, "Error: disk on fire"},
		{"not found", fmt.Errorf("project x: %w", types.ErrNotFound), false, ExitNotFound, "Hint: Run 'rd list'"},
		{"validation json", types.NewValidationError("id", "is required"), true, ExitValidation, `"code": "validation"`},
		{"nothing to fix", types.ErrNoDiagnostics, false, ExitNothingToFix, "nothing left to fix"},
		{"conflict", types.NewPersistenceError("save", types.ErrConflict), true, ExitError, `"code": "conflict"`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			jsonOutput = tt.json
			defer func() { jsonOutput = false }()
			var buf bytes.Buffer
			assert.Equal(t, tt.wantCode, reportError(&buf, tt.err))
			assert.Contains(t, buf.String(), tt.want)
		})
	}
}

func TestInitAndConfig(t *testing.T) {
	inProject(t)

	out, err := runRD(t, "init")
	require.NoError(t, err)
	assert.Contains(t, out, "Initialized .readiness")

	_, err = runRD(t, "config", "set", "autofix.parallel", "2")
	require.NoError(t, err)
	out, err = runRD(t, "config", "get", "autofix.parallel")
	require.NoError(t, err)
	assert.Equal(t, "2\n", out)

	_, err = runRD(t, "config", "set", "no.such.key", "1")
	assert.Equal(t, ExitValidation, exitCode(err))

	out, err = runRD(t, "init")
	require.NoError(t, err)
	assert.Contains(t, out, "already exists")
}

func TestMemoryBackendFlag(t *testing.T) {
	dir := inProject(t)
	_, err := runRD(t, "--backend", "memory", "new", "Scratch", "--id", "proj-scratch")
	require.NoError(t, err)
	_, err = os.Stat(filepath.Join(dir, ".readiness", "readiness.db"))
	assert.True(t, os.IsNotExist(err))
}

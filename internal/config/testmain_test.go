package config

import (
	"fmt"
	"os"
	"path/filepath"
	"testing"
)

// TestMain isolates tests from any .readiness/config.yaml above the package
// directory and from the user's own config.
func TestMain(m *testing.M) {
	tmp, err := os.MkdirTemp("", "readiness-config-tests-*")
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to create temp dir: %v\n", err)
		os.Exit(1)
	}

	oldWD, _ := os.Getwd()

	_ = os.Chdir(tmp)
	_ = os.Setenv("HOME", tmp)
	_ = os.Setenv("USERPROFILE", tmp) // Windows compatibility
	_ = os.Setenv("XDG_CONFIG_HOME", filepath.Join(tmp, "xdg-config"))
	for _, key := range []string{"RD_JSON", "RD_ACTOR", "RD_DB", "RD_BACKEND", "RD_MYSQL_DSN", "RD_IDS", "RD_LOG_LEVEL"} {
		_ = os.Unsetenv(key)
	}

	code := m.Run()

	_ = os.Chdir(oldWD)
	_ = os.RemoveAll(tmp)
	os.Exit(code)
}

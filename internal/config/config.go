// Package config loads rd settings with viper.
//
// Precedence, highest first: flags bound by the CLI, RD_* environment
// variables, the project's .readiness/config.yaml (found by walking up from
// the working directory), the user's $XDG_CONFIG_HOME/readiness/config.yaml
// (or ~/.config/readiness/config.yaml), and the defaults below.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/steveyegge/readiness/internal/storage"
)

// ProjectDirName is the per-project directory holding config.yaml and the
// default SQLite database.
const ProjectDirName = ".readiness"

// DefaultDBName is the SQLite file created inside ProjectDirName.
const DefaultDBName = "readiness.db"

// Config keys
const (
	KeyBackend         = "backend"
	KeyDB              = "db"
	KeyMySQLDSN        = "mysql.dsn"
	KeyIDs             = "ids"
	KeyIDLength        = "id-length"
	KeyActor           = "actor"
	KeyJSON            = "json"
	KeyLogLevel        = "log.level"
	KeyLogFormat       = "log.format"
	KeyLockTimeout     = "lock-timeout"
	KeyLockDir         = "lock-dir"
	KeyOpenTimeout     = "open-timeout"
	KeyWatchDebounce   = "watch.debounce"
	KeyAutofixParallel = "autofix.parallel"
)

var v *viper.Viper

// Initialize (re)creates the viper instance and reads the config files.
// A missing config file is not an error.
func Initialize() error {
	v = viper.New()
	v.SetConfigType("yaml")

	v.SetDefault(KeyBackend, storage.BackendSQLite)
	v.SetDefault(KeyDB, "")
	v.SetDefault(KeyMySQLDSN, "")
	v.SetDefault(KeyIDs, "hash")
	v.SetDefault(KeyIDLength, 6)
	v.SetDefault(KeyActor, "")
	v.SetDefault(KeyJSON, false)
	v.SetDefault(KeyLogLevel, "warn")
	v.SetDefault(KeyLogFormat, "text")
	v.SetDefault(KeyLockTimeout, 30*time.Second)
	v.SetDefault(KeyLockDir, "")
	v.SetDefault(KeyOpenTimeout, 15*time.Second)
	v.SetDefault(KeyWatchDebounce, 500*time.Millisecond)
	v.SetDefault(KeyAutofixParallel, 4)

	v.SetEnvPrefix("RD")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()

	if userCfg := userConfigPath(); userCfg != "" {
		if err := mergeFile(userCfg); err != nil {
			return err
		}
	}
	if projectCfg, err := findProjectConfigYaml(); err == nil {
		if err := mergeFile(projectCfg); err != nil {
			return err
		}
	}
	return nil
}

func mergeFile(path string) error {
	f, err := os.Open(path) // #nosec G304 - discovered config path
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("open config %s: %w", path, err)
	}
	defer f.Close()
	if err := v.MergeConfig(f); err != nil {
		return fmt.Errorf("parse config %s: %w", path, err)
	}
	v.SetConfigFile(path)
	return nil
}

func userConfigPath() string {
	base := os.Getenv("XDG_CONFIG_HOME")
	if base == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return ""
		}
		base = filepath.Join(home, ".config")
	}
	return filepath.Join(base, "readiness", "config.yaml")
}

// ResetForTesting drops the viper instance and reinitializes it.
func ResetForTesting() {
	v = nil
	_ = Initialize()
}

// ConfigFileUsed returns the most specific config file that was read.
func ConfigFileUsed() string {
	if v == nil {
		return ""
	}
	return v.ConfigFileUsed()
}

// ProjectDir returns the nearest enclosing .readiness directory, or "".
func ProjectDir() string {
	cwd, err := os.Getwd()
	if err != nil {
		return ""
	}
	for dir := cwd; ; dir = filepath.Dir(dir) {
		candidate := filepath.Join(dir, ProjectDirName)
		if info, err := os.Stat(candidate); err == nil && info.IsDir() {
			return candidate
		}
		if dir == filepath.Dir(dir) {
			return ""
		}
	}
}

func GetString(key string) string {
	if v == nil {
		return ""
	}
	return v.GetString(key)
}

func GetBool(key string) bool {
	if v == nil {
		return false
	}
	return v.GetBool(key)
}

func GetInt(key string) int {
	if v == nil {
		return 0
	}
	return v.GetInt(key)
}

func GetDuration(key string) time.Duration {
	if v == nil {
		return 0
	}
	return v.GetDuration(key)
}

func GetStringSlice(key string) []string {
	if v == nil {
		return []string{}
	}
	return v.GetStringSlice(key)
}

// Set overrides a value for the rest of the process (flags use this).
func Set(key string, value interface{}) {
	if v == nil {
		return
	}
	v.Set(key, value)
}

func AllSettings() map[string]interface{} {
	if v == nil {
		return map[string]interface{}{}
	}
	return v.AllSettings()
}

// Settings is the resolved configuration the CLI runs with.
type Settings struct {
	Backend         string
	DBPath          string
	MySQLDSN        string
	IDs             string
	IDLength        int
	Actor           string
	JSON            bool
	LogLevel        string
	LogFormat       string
	LockTimeout     time.Duration
	LockDir         string
	OpenTimeout     time.Duration
	WatchDebounce   time.Duration
	AutofixParallel int
}

// Load resolves Settings from the current viper state. An empty db path
// resolves to .readiness/readiness.db in the enclosing project, or in the
// working directory when there is none.
func Load() (*Settings, error) {
	if v == nil {
		if err := Initialize(); err != nil {
			return nil, err
		}
	}
	s := &Settings{
		Backend:         GetString(KeyBackend),
		DBPath:          GetString(KeyDB),
		MySQLDSN:        GetString(KeyMySQLDSN),
		IDs:             GetString(KeyIDs),
		IDLength:        GetInt(KeyIDLength),
		Actor:           GetString(KeyActor),
		JSON:            GetBool(KeyJSON),
		LogLevel:        GetString(KeyLogLevel),
		LogFormat:       GetString(KeyLogFormat),
		LockTimeout:     GetDuration(KeyLockTimeout),
		LockDir:         GetString(KeyLockDir),
		OpenTimeout:     GetDuration(KeyOpenTimeout),
		WatchDebounce:   GetDuration(KeyWatchDebounce),
		AutofixParallel: GetInt(KeyAutofixParallel),
	}
	if s.Actor == "" {
		s.Actor = os.Getenv("USER")
	}
	if s.Backend == storage.BackendSQLite && s.DBPath == "" {
		dir := ProjectDir()
		if dir == "" {
			dir = ProjectDirName
		}
		s.DBPath = filepath.Join(dir, DefaultDBName)
	}
	if err := s.Validate(); err != nil {
		return nil, err
	}
	return s, nil
}

// Validate checks the settings for values no backend can work with.
func (s *Settings) Validate() error {
	if !storage.IsBackend(s.Backend) {
		return fmt.Errorf("unknown backend %q (supported: %s)", s.Backend, strings.Join(storage.Backends(), ", "))
	}
	if s.Backend == storage.BackendMySQL && s.MySQLDSN == "" {
		return fmt.Errorf("backend mysql requires %s (or RD_MYSQL_DSN)", KeyMySQLDSN)
	}
	switch s.IDs {
	case "hash", "counter", "uuid":
	default:
		return fmt.Errorf("unknown id mode %q (want hash, counter or uuid)", s.IDs)
	}
	switch s.LogFormat {
	case "text", "json":
	default:
		return fmt.Errorf("unknown log format %q (want text or json)", s.LogFormat)
	}
	if s.AutofixParallel < 1 {
		return fmt.Errorf("%s must be at least 1, got %d", KeyAutofixParallel, s.AutofixParallel)
	}
	if s.LockTimeout < 0 {
		return fmt.Errorf("%s must not be negative", KeyLockTimeout)
	}
	return nil
}

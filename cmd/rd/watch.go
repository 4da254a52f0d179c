package main

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/cobra"

	"github.com/steveyegge/readiness/internal/debug"
	"github.com/steveyegge/readiness/internal/recordio"
)

var watchCmd = &cobra.Command{
	Use:     "watch <file>",
	GroupID: "projects",
	Short:   "Re-import and re-score a record file whenever it changes",
	Args:    cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		path := args[0]
		if err := importAndScore(cmd, path); err != nil {
			return err
		}
		fmt.Fprintf(cmd.ErrOrStderr(), "\nWatching %s for changes... (Press Ctrl+C to exit)\n", path)

		err := watchFile(rootCtx, path, settings.WatchDebounce, func() {
			if err := importAndScore(cmd, path); err != nil {
				WarnError("%v", err)
			}
		})
		fmt.Fprintf(cmd.ErrOrStderr(), "\nStopped watching.\n")
		return err
	},
}

func importAndScore(cmd *cobra.Command, path string) error {
	rec, err := recordio.ReadFile(path)
	if err != nil {
		return err
	}
	saved, _, err := svc.Import(rootCtx, rec)
	if err != nil {
		return err
	}
	res, err := svc.Score(rootCtx, saved.ID)
	if err != nil {
		return err
	}
	if jsonOutput {
		writeJSON(cmd.OutOrStdout(), res)
		return nil
	}
	displayScore(cmd.OutOrStdout(), saved.ID, res)
	return nil
}

// watchFile calls onChange once writes to path have been quiet for
// debounce. The parent directory is watched so editors that replace the
// file are seen too. It returns nil when ctx is done.
func watchFile(ctx context.Context, path string, debounce time.Duration, onChange func()) error {
	abs, err := filepath.Abs(path)
	if err != nil {
		return err
	}
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create watcher: %w", err)
	}
	defer func() { _ = watcher.Close() }()
	if err := watcher.Add(filepath.Dir(abs)); err != nil {
		return fmt.Errorf("watch %s: %w", filepath.Dir(abs), err)
	}

	var (
		timer *time.Timer
		fire  <-chan time.Time
	)
	for {
		select {
		case <-ctx.Done():
			return nil
		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(event.Name) != abs {
				continue
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) {
				continue
			}
			if timer == nil {
				timer = time.NewTimer(debounce)
			} else {
				timer.Reset(debounce)
			}
			fire = timer.C
		case <-fire:
			fire = nil
			onChange()
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			debug.Logf("watch error: %v\n", err)
		}
	}
}

func init() {
	rootCmd.AddCommand(watchCmd)
}

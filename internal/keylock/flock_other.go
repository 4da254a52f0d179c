//go:build !unix && !windows

package keylock

import "os"

// Single-process platforms have nothing to coordinate with.
func lockFileExclusive(f *os.File) error { return nil }

func unlockFile(f *os.File) error { return nil }

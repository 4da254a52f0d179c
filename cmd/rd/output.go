package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
)

// writeJSON writes v as pretty-printed JSON.
func writeJSON(w io.Writer, v interface{}) {
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	if err := encoder.Encode(v); err != nil {
		fmt.Fprintf(os.Stderr, "Error encoding JSON: %v\n", err)
	}
}

// printNormal writes human output unless --quiet is set.
func printNormal(w io.Writer, format string, args ...interface{}) {
	if quietFlag {
		return
	}
	fmt.Fprintf(w, format, args...)
}

// Package timeparsing turns the --since argument of rd history into a cutoff
// instant.
package timeparsing

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/olebedev/when"
	"github.com/olebedev/when/rules/common"
	"github.com/olebedev/when/rules/en"
)

var natural = func() *when.Parser {
	w := when.New(nil)
	w.Add(en.All...)
	w.Add(common.All...)
	return w
}()

// lookbackRe matches 90m, 12h, 3d, 2w with an optional sign.
var lookbackRe = regexp.MustCompile(`^([+-]?)(\d+)([mhdw])$`)

var units = map[string]time.Duration{
	"m": time.Minute,
	"h": time.Hour,
	"d": 24 * time.Hour,
	"w": 7 * 24 * time.Hour,
}

type layer func(expr string, now time.Time) (time.Time, bool)

// layers run in order; the first match wins.
var layers = []layer{lookback, dateOnly, timestamp, naturalLanguage}

// ParseSince resolves expr relative to now. It accepts:
//
//	3d, -3d   three days before now
//	+1d       one day after now
//	2026-01-15 (midnight in now's location)
//	RFC3339 timestamps
//	English phrases: "yesterday", "3 days ago", "last monday"
func ParseSince(expr string, now time.Time) (time.Time, error) {
	expr = strings.TrimSpace(expr)
	if expr == "" {
		return time.Time{}, fmt.Errorf("empty time expression")
	}
	for _, try := range layers {
		if t, ok := try(expr, now); ok {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("cannot parse time %q (try 3d, 2026-01-15, RFC3339 or \"3 days ago\")", expr)
}

func lookback(expr string, now time.Time) (time.Time, bool) {
	m := lookbackRe.FindStringSubmatch(expr)
	if m == nil {
		return time.Time{}, false
	}
	n, err := strconv.Atoi(m[2])
	if err != nil {
		return time.Time{}, false
	}
	d := time.Duration(n) * units[m[3]]
	if m[1] == "+" {
		return now.Add(d), true
	}
	return now.Add(-d), true
}

func dateOnly(expr string, now time.Time) (time.Time, bool) {
	t, err := time.ParseInLocation(time.DateOnly, expr, now.Location())
	return t, err == nil
}

func timestamp(expr string, _ time.Time) (time.Time, bool) {
	t, err := time.Parse(time.RFC3339, expr)
	return t, err == nil
}

func naturalLanguage(expr string, now time.Time) (time.Time, bool) {
	r, err := natural.Parse(expr, now)
	if err != nil || r == nil {
		return time.Time{}, false
	}
	return r.Time, true
}

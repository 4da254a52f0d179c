// Package recordio reads and writes project records as JSON, YAML or TOML.
//
// JSON is the canonical form: YAML and TOML documents are bridged through a
// generic map so that every format shares the JSON field names of types.
package recordio

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"math"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"

	"github.com/steveyegge/readiness/internal/types"
)

// Format names a record file encoding.
type Format string

// Supported formats
const (
	FormatJSON Format = "json"
	FormatYAML Format = "yaml"
	FormatTOML Format = "toml"
)

// ParseFormat accepts json, yaml, yml and toml in any case.
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "json":
		return FormatJSON, nil
	case "yaml", "yml":
		return FormatYAML, nil
	case "toml":
		return FormatTOML, nil
	default:
		return "", types.NewValidationError("format", fmt.Sprintf("unknown format %q (want json, yaml or toml)", s))
	}
}

// FormatFromPath picks a format from a file extension. Unknown extensions are JSON.
func FormatFromPath(path string) Format {
	if f, err := ParseFormat(strings.TrimPrefix(filepath.Ext(path), ".")); err == nil {
		return f
	}
	return FormatJSON
}

// Encode writes rec to w.
func Encode(w io.Writer, rec *types.ProjectRecord, f Format) error {
	if rec == nil {
		return types.NewValidationError("record", "nil record")
	}
	switch f {
	case FormatJSON, "":
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(rec)
	case FormatYAML:
		doc, err := toMap(rec)
		if err != nil {
			return err
		}
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(doc); err != nil {
			return fmt.Errorf("encode yaml: %w", err)
		}
		return enc.Close()
	case FormatTOML:
		doc, err := toMap(rec)
		if err != nil {
			return err
		}
		if err := toml.NewEncoder(w).Encode(doc); err != nil {
			return fmt.Errorf("encode toml: %w", err)
		}
		return nil
	default:
		return types.NewValidationError("format", fmt.Sprintf("unknown format %q", f))
	}
}

// Decode reads one record from r. Unknown fields are rejected so that a
// misspelled document name is reported instead of silently dropped. Status
// labels are normalized before the record is validated.
func Decode(r io.Reader, f Format) (*types.ProjectRecord, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read record: %w", err)
	}

	switch f {
	case FormatJSON, "":
	case FormatYAML:
		var doc map[string]interface{}
		if err := yaml.Unmarshal(data, &doc); err != nil {
			return nil, types.NewValidationError("record", "invalid yaml: "+err.Error())
		}
		if data, err = json.Marshal(normalize(doc)); err != nil {
			return nil, fmt.Errorf("bridge yaml: %w", err)
		}
	case FormatTOML:
		var doc map[string]interface{}
		if _, err := toml.Decode(string(data), &doc); err != nil {
			return nil, types.NewValidationError("record", "invalid toml: "+err.Error())
		}
		if data, err = json.Marshal(normalize(doc)); err != nil {
			return nil, fmt.Errorf("bridge toml: %w", err)
		}
	default:
		return nil, types.NewValidationError("format", fmt.Sprintf("unknown format %q", f))
	}

	dec := json.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()
	var rec types.ProjectRecord
	if err := dec.Decode(&rec); err != nil {
		return nil, types.NewValidationError("record", "invalid "+string(f)+": "+err.Error())
	}
	rec.SetDefaults()
	if err := rec.Validate(); err != nil {
		return nil, err
	}
	return &rec, nil
}

// ReadFile decodes the record stored at path, choosing the format from its extension.
func ReadFile(path string) (*types.ProjectRecord, error) {
	f, err := os.Open(path) // #nosec G304 - user supplied import path
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()
	return Decode(f, FormatFromPath(path))
}

// WriteFile encodes rec to path, choosing the format from its extension.
func WriteFile(path string, rec *types.ProjectRecord) error {
	var buf bytes.Buffer
	if err := Encode(&buf, rec, FormatFromPath(path)); err != nil {
		return err
	}
	return os.WriteFile(path, buf.Bytes(), 0o644)
}

// toMap converts rec into the generic form shared by the YAML and TOML
// encoders. Nulls are dropped (TOML has none) and integral numbers stay integers.
func toMap(rec *types.ProjectRecord) (map[string]interface{}, error) {
	data, err := json.Marshal(rec)
	if err != nil {
		return nil, fmt.Errorf("marshal record: %w", err)
	}
	var doc map[string]interface{}
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("unmarshal record: %w", err)
	}
	return prune(doc).(map[string]interface{}), nil
}

func prune(v interface{}) interface{} {
	switch x := v.(type) {
	case map[string]interface{}:
		out := make(map[string]interface{}, len(x))
		for k, val := range x {
			if val == nil {
				continue
			}
			out[k] = prune(val)
		}
		return out
	case []interface{}:
		out := make([]interface{}, 0, len(x))
		for _, val := range x {
			if val != nil {
				out = append(out, prune(val))
			}
		}
		return out
	case float64:
		if x == math.Trunc(x) && math.Abs(x) < 1<<53 {
			return int64(x)
		}
		return x
	default:
		return v
	}
}

// normalize makes decoded YAML and TOML values marshalable as JSON.
func normalize(v interface{}) interface{} {
	switch x := v.(type) {
	case map[string]interface{}:
		for k, val := range x {
			x[k] = normalize(val)
		}
		return x
	case map[interface{}]interface{}:
		out := make(map[string]interface{}, len(x))
		for k, val := range x {
			out[fmt.Sprint(k)] = normalize(val)
		}
		return out
	case []interface{}:
		for i, val := range x {
			x[i] = normalize(val)
		}
		return x
	case []map[string]interface{}:
		out := make([]interface{}, len(x))
		for i, val := range x {
			out[i] = normalize(val)
		}
		return out
	case time.Time:
		return x.Format(time.RFC3339Nano)
	default:
		return v
	}
}

// Package output renders command results as YAML or JSON.
package output

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"sync"

	"gopkg.in/yaml.v3"
)

// Format defines the output format for CLI commands.
type Format string

const (
	FormatYAML Format = "yaml"
	FormatJSON Format = "json"
)

// DefaultFormat is the default output format.
var DefaultFormat Format = FormatYAML

var (
	mu            sync.RWMutex
	currentFormat = DefaultFormat
)

// ParseFormat accepts "yaml" or "json".
func ParseFormat(s string) (Format, error) {
	switch Format(s) {
	case FormatYAML, FormatJSON:
		return Format(s), nil
	case "":
		return DefaultFormat, nil
	}
	return "", fmt.Errorf("unknown output format %q (want yaml or json)", s)
}

// SetFormat sets the format used by Print.
func SetFormat(f Format) {
	mu.Lock()
	defer mu.Unlock()
	currentFormat = f
}

// CurrentFormat returns the format used by Print.
func CurrentFormat() Format {
	mu.RLock()
	defer mu.RUnlock()
	return currentFormat
}

// Print writes data to stdout in the configured format.
func Print(data any) error {
	return To(os.Stdout, CurrentFormat(), data)
}

// To writes data to the given writer in the specified format.
func To(w io.Writer, format Format, data any) error {
	switch format {
	case FormatJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(data)
	case FormatYAML:
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		defer enc.Close()
		return enc.Encode(data)
	default:
		return fmt.Errorf("unknown output format: %s", format)
	}
}

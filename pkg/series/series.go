// Package series loads generation samples from JSON or YAML files.
//
// A document is either a list of samples or an object whose "data" field holds
// that list, as the Carbon Intensity API does:
//
//	data:
//	  - from: 2024-03-01T00:00:00Z
//	    to: 2024-03-01T00:30:00Z
//	    cleanenergy: 54.2
package series

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/kilianp07/cleancharge/core/factory"
	"github.com/kilianp07/cleancharge/core/grid"
	"github.com/kilianp07/cleancharge/core/model"
)

// Format names accepted by Decode.
const (
	FormatJSON = "json"
	FormatYAML = "yaml"
)

type document struct {
	Data []model.Sample `json:"data" yaml:"data"`
}

// Load reads the file at path, picking the format from its extension.
func Load(path string) ([]model.Sample, error) {
	format, err := FormatOf(path)
	if err != nil {
		return nil, err
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer func() { _ = f.Close() }()
	samples, err := Decode(f, format)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return samples, nil
}

// FormatOf maps a file extension to a format name.
func FormatOf(path string) (string, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		return FormatJSON, nil
	case ".yaml", ".yml":
		return FormatYAML, nil
	default:
		return "", fmt.Errorf("unsupported series format: %s", filepath.Ext(path))
	}
}

// Decode reads samples in the given format. Samples keep their file order.
func Decode(r io.Reader, format string) ([]model.Sample, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 {
		return nil, nil
	}
	var doc document
	switch format {
	case FormatJSON:
		if trimmed[0] == '[' {
			err = json.Unmarshal(trimmed, &doc.Data)
		} else {
			err = json.Unmarshal(trimmed, &doc)
		}
	case FormatYAML:
		var node yaml.Node
		if err := yaml.Unmarshal(trimmed, &node); err != nil {
			return nil, err
		}
		if len(node.Content) > 0 && node.Content[0].Kind == yaml.SequenceNode {
			err = node.Decode(&doc.Data)
		} else {
			err = node.Decode(&doc)
		}
	default:
		return nil, fmt.Errorf("unknown series format %q", format)
	}
	if err != nil {
		return nil, err
	}
	return doc.Data, nil
}

// ProviderName identifies the file-backed provider.
const ProviderName = "file"

func init() {
	_ = grid.RegisterProvider(ProviderName, func(conf map[string]any) (grid.Provider, error) {
		var c struct {
			Path string `json:"path"`
		}
		if err := factory.Decode(conf, &c); err != nil {
			return nil, err
		}
		if c.Path == "" {
			return nil, fmt.Errorf("file provider: path is required")
		}
		samples, err := Load(c.Path)
		if err != nil {
			return nil, err
		}
		return grid.NewStaticProvider(ProviderName, samples), nil
	})
}

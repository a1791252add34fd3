package catalog

import (
	"embed"
	"fmt"
	"os"
	"path"

	"gopkg.in/yaml.v3"
)

//go:embed data/*.yaml
var embeddedData embed.FS

// loadEmbedded parses every embedded data file into one document.
func loadEmbedded() (*document, error) {
	entries, err := embeddedData.ReadDir("data")
	if err != nil {
		return nil, fmt.Errorf("failed to list embedded catalog data: %w", err)
	}

	merged := &document{
		Operators: make(map[string]Operator),
		Maps:      make(map[string]Map),
	}
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		data, err := embeddedData.ReadFile(path.Join("data", entry.Name()))
		if err != nil {
			return nil, fmt.Errorf("failed to read %s: %w", entry.Name(), err)
		}
		doc, err := parse(data)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", entry.Name(), err)
		}
		merged.merge(doc)
	}
	return merged, nil
}

// loadFile parses a catalog file on disk.
func loadFile(p string) (*document, error) {
	data, err := os.ReadFile(p)
	if err != nil {
		return nil, fmt.Errorf("failed to read catalog file: %w", err)
	}
	doc, err := parse(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", p, err)
	}
	return doc, nil
}

// parse decodes YAML and fills in names from the map keys.
func parse(data []byte) (*document, error) {
	var doc document
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidData, err)
	}

	for name, op := range doc.Operators {
		op.Name = name
		if err := op.Profile().Validate(); err != nil {
			return nil, fmt.Errorf("%w: operator %q: %v", ErrInvalidData, name, err)
		}
		doc.Operators[name] = op
	}
	for name, m := range doc.Maps {
		m.Name = name
		doc.Maps[name] = m
	}
	return &doc, nil
}

func (d *document) merge(other *document) {
	for name, op := range other.Operators {
		d.Operators[name] = op
	}
	for name, m := range other.Maps {
		d.Maps[name] = m
	}
}

package config

import (
	_ "embed"
	"encoding/json"
	"fmt"
	"os"
	"sync"

	"github.com/santhosh-tekuri/jsonschema/v5"
	"gopkg.in/yaml.v3"

	"deskmates.dev/internal/scene"
)

//go:embed layout.schema.json
var layoutSchemaJSON string

var (
	layoutSchemaOnce sync.Once
	layoutSchema     *jsonschema.Schema
	layoutSchemaErr  error
)

func compiledLayoutSchema() (*jsonschema.Schema, error) {
	layoutSchemaOnce.Do(func() {
		layoutSchema, layoutSchemaErr = jsonschema.CompileString("layout.schema.json", layoutSchemaJSON)
	})
	return layoutSchema, layoutSchemaErr
}

// LoadLayout reads an office layout from a YAML (or JSON) file. An empty
// path returns the built-in office.
func LoadLayout(path string) (*scene.Layout, error) {
	if path == "" {
		return scene.DefaultLayout(), nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading layout: %w", err)
	}
	l, err := ParseLayout(data)
	if err != nil {
		return nil, fmt.Errorf("layout %s: %w", path, err)
	}
	return l, nil
}

// ParseLayout checks data against the layout schema and decodes it
func ParseLayout(data []byte) (*scene.Layout, error) {
	schema, err := compiledLayoutSchema()
	if err != nil {
		return nil, fmt.Errorf("compiling layout schema: %w", err)
	}

	// the validator wants plain JSON values, so go through encoding/json
	var raw any
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("parsing: %w", err)
	}
	b, err := json.Marshal(raw)
	if err != nil {
		return nil, fmt.Errorf("converting to json: %w", err)
	}
	var doc any
	if err := json.Unmarshal(b, &doc); err != nil {
		return nil, fmt.Errorf("converting to json: %w", err)
	}
	if err := schema.Validate(doc); err != nil {
		return nil, fmt.Errorf("schema: %w", err)
	}

	var l scene.Layout
	if err := yaml.Unmarshal(data, &l); err != nil {
		return nil, fmt.Errorf("decoding: %w", err)
	}
	if err := l.Validate(); err != nil {
		return nil, err
	}
	return &l, nil
}

// MarshalLayout encodes a layout as YAML
func MarshalLayout(l *scene.Layout) ([]byte, error) {
	return yaml.Marshal(l)
}

package catalog

import (
	"bytes"
	_ "embed"
	"encoding/json"
	"fmt"
	"os"

	"github.com/santhosh-tekuri/jsonschema/v5"
	"gopkg.in/yaml.v3"

	"github.com/andrescamacho/reliefops-go/internal/domain/task"
)

//go:embed schema/catalog.schema.json
var catalogSchema []byte

const catalogSchemaURL = "mem://reliefops/catalog.schema.json"

// Loader reads YAML template catalogs, checking each document against the
// embedded JSON schema before converting it to task templates.
type Loader struct {
	schema *jsonschema.Schema
}

// NewLoader compiles the catalog schema
func NewLoader() (*Loader, error) {
	compiler := jsonschema.NewCompiler()
	if err := compiler.AddResource(catalogSchemaURL, bytes.NewReader(catalogSchema)); err != nil {
		return nil, fmt.Errorf("failed to add catalog schema: %w", err)
	}
	schema, err := compiler.Compile(catalogSchemaURL)
	if err != nil {
		return nil, fmt.Errorf("failed to compile catalog schema: %w", err)
	}
	return &Loader{schema: schema}, nil
}

// LoadFiles reads every catalog in order. Template IDs must be unique across files.
func (l *Loader) LoadFiles(paths ...string) ([]*task.Template, error) {
	var all []*task.Template
	seen := make(map[string]string)
	for _, path := range paths {
		templates, err := l.LoadFile(path)
		if err != nil {
			return nil, err
		}
		for _, tpl := range templates {
			if prev, ok := seen[tpl.ID]; ok {
				return nil, &ErrInvalidCatalog{
					Source:   path,
					Problems: []string{fmt.Sprintf("template %s already defined in %s", tpl.ID, prev)},
				}
			}
			seen[tpl.ID] = path
		}
		all = append(all, templates...)
	}
	return all, nil
}

// LoadFile reads one catalog file
func (l *Loader) LoadFile(path string) ([]*task.Template, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read catalog: %w", err)
	}
	return l.Parse(data, path)
}

// Parse validates and converts one catalog document. All template problems are
// collected into a single ErrInvalidCatalog.
func (l *Loader) Parse(data []byte, source string) ([]*task.Template, error) {
	if err := l.validate(data, source); err != nil {
		return nil, err
	}

	var file File
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("parse catalog %s: %w", source, err)
	}

	templates := make([]*task.Template, 0, len(file.Templates))
	var problems []string
	ids := make(map[string]bool, len(file.Templates))
	for i, dto := range file.Templates {
		if ids[dto.ID] {
			problems = append(problems, fmt.Sprintf("templates[%d]: duplicate id %s", i, dto.ID))
			continue
		}
		ids[dto.ID] = true

		tpl, err := toTemplate(dto)
		if err != nil {
			problems = append(problems, fmt.Sprintf("templates[%d] (%s): %v", i, dto.ID, err))
			continue
		}
		templates = append(templates, tpl)
	}
	if len(problems) > 0 {
		return nil, &ErrInvalidCatalog{Source: source, Problems: problems}
	}
	return templates, nil
}

func (l *Loader) validate(data []byte, source string) error {
	var doc interface{}
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return fmt.Errorf("parse catalog %s: %w", source, err)
	}
	if doc == nil {
		return &ErrInvalidCatalog{Source: source, Problems: []string{"catalog is empty"}}
	}

	// the schema validator expects JSON values (float64 numbers, string-keyed maps)
	raw, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("convert catalog %s: %w", source, err)
	}
	var value interface{}
	if err := json.Unmarshal(raw, &value); err != nil {
		return fmt.Errorf("convert catalog %s: %w", source, err)
	}

	if err := l.schema.Validate(value); err != nil {
		return &ErrInvalidCatalog{Source: source, Problems: []string{err.Error()}}
	}
	return nil
}

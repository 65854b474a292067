package cue

import (
	"embed"
	"fmt"
	"path"
	"sort"
	"strings"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	cueerrors "cuelang.org/go/cue/errors"
)

//go:embed schemas/*.cue
var schemaFS embed.FS

// Schema names. Each maps to the #Name definition in schemas/<name>.cue.
const (
	SchemaCatalog    = "catalog"
	SchemaWeights    = "weights"
	SchemaEvaluation = "evaluation"
	SchemaCommitment = "commitment"
	SchemaCriteria   = "criteria"
)

// schemaFiles maps a definition to the file that declares it.
var schemaFiles = map[string]string{
	SchemaCatalog:    "catalog",
	SchemaWeights:    "weights",
	SchemaEvaluation: "evaluation",
	SchemaCommitment: "evaluation",
	SchemaCriteria:   "catalog",
}

// ValidationIssue is a single schema violation.
type ValidationIssue struct {
	File    string
	Path    string
	Message string
}

func (i ValidationIssue) String() string {
	var b strings.Builder
	if i.File != "" {
		b.WriteString(i.File)
		b.WriteString(": ")
	}
	if i.Path != "" {
		b.WriteString(i.Path)
		b.WriteString(": ")
	}
	b.WriteString(i.Message)
	return b.String()
}

// Validator handles CUE validation of catalog and input documents.
type Validator struct {
	ctx     *cue.Context
	schemas map[string]cue.Value
}

// NewValidator creates a new Validator instance
func NewValidator() *Validator {
	return &Validator{
		ctx:     cuecontext.New(),
		schemas: make(map[string]cue.Value),
	}
}

// LoadSchemas compiles every embedded .cue file.
func (v *Validator) LoadSchemas() error {
	entries, err := schemaFS.ReadDir("schemas")
	if err != nil {
		return fmt.Errorf("read embedded schemas: %w", err)
	}

	for _, entry := range entries {
		if entry.IsDir() || path.Ext(entry.Name()) != ".cue" {
			continue
		}
		content, err := schemaFS.ReadFile(path.Join("schemas", entry.Name()))
		if err != nil {
			return fmt.Errorf("read schema %s: %w", entry.Name(), err)
		}

		inst := v.ctx.CompileBytes(content, cue.Filename(entry.Name()))
		if err := inst.Err(); err != nil {
			return fmt.Errorf("compile schema %s: %w", entry.Name(), err)
		}

		// catalog.cue -> catalog
		v.schemas[strings.TrimSuffix(entry.Name(), ".cue")] = inst
	}

	if len(v.schemas) == 0 {
		return fmt.Errorf("no CUE schemas found")
	}
	return nil
}

// Schemas returns the loaded schema file names, sorted.
func (v *Validator) Schemas() []string {
	names := make([]string, 0, len(v.schemas))
	for name := range v.schemas {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// ValidateCatalog checks a decoded catalog document.
func (v *Validator) ValidateCatalog(file string, data map[string]any) ([]ValidationIssue, error) {
	return v.Validate(SchemaCatalog, file, data)
}

// ValidateWeights checks a decoded weight override document.
func (v *Validator) ValidateWeights(file string, data map[string]any) ([]ValidationIssue, error) {
	return v.Validate(SchemaWeights, file, data)
}

// Validate unifies data with the #Name definition of the given schema and
// returns the violations. An error is returned only when the schema itself is
// unavailable or the data cannot be encoded.
func (v *Validator) Validate(schema, file string, data map[string]any) ([]ValidationIssue, error) {
	fileName, ok := schemaFiles[schema]
	if !ok {
		return nil, fmt.Errorf("unknown schema %q", schema)
	}
	root, ok := v.schemas[fileName]
	if !ok {
		return nil, fmt.Errorf("schema %q not loaded", fileName)
	}

	def := root.LookupPath(cue.ParsePath("#" + strings.ToUpper(schema[:1]) + schema[1:]))
	if !def.Exists() {
		return nil, fmt.Errorf("schema %q has no #%s definition", fileName, schema)
	}

	value := v.ctx.Encode(data)
	if err := value.Err(); err != nil {
		return nil, fmt.Errorf("encode %s: %w", file, err)
	}

	unified := def.Unify(value)
	if err := unified.Err(); err != nil {
		return extractIssues(file, err), nil
	}
	if err := unified.Validate(cue.Concrete(true)); err != nil {
		return extractIssues(file, err), nil
	}
	return nil, nil
}

// extractIssues flattens a CUE error list into one issue per error.
func extractIssues(file string, err error) []ValidationIssue {
	var issues []ValidationIssue
	for _, e := range cueerrors.Errors(err) {
		format, args := e.Msg()
		issues = append(issues, ValidationIssue{
			File:    file,
			Path:    strings.Join(e.Path(), "."),
			Message: fmt.Sprintf(format, args...),
		})
	}
	if len(issues) == 0 {
		issues = append(issues, ValidationIssue{File: file, Message: err.Error()})
	}
	return issues
}

// Join renders issues as a single message.
func Join(issues []ValidationIssue) string {
	parts := make([]string, 0, len(issues))
	for _, i := range issues {
		parts = append(parts, i.String())
	}
	return strings.Join(parts, "; ")
}

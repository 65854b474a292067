// Package catalog holds the criteria definitions per category type and
// resolves the weight set that applies to one evaluation.
package catalog

import (
	_ "embed"
	"fmt"

	"gopkg.in/yaml.v3"

	"github.com/dotcommander/provscore/internal/cue"
	"github.com/dotcommander/provscore/internal/discovery"
	"github.com/dotcommander/provscore/internal/scoring"
	"github.com/dotcommander/provscore/internal/types"
)

//go:embed default.yaml
var defaultCatalog []byte

// Category is one category type with its criteria.
type Category struct {
	Type     string                      `json:"type" yaml:"type"`
	Label    string                      `json:"label" yaml:"label"`
	Criteria []types.CriterionDefinition `json:"criteria" yaml:"criteria"`
}

type document struct {
	Version           int               `yaml:"version"`
	Categories        []Category        `yaml:"categories"`
	SelectionTemplate []types.Criterion `yaml:"selectionTemplate"`
}

// Catalog is immutable reference data once loaded.
type Catalog struct {
	categories map[string]Category
	order      []string
	template   []types.Criterion
}

// New returns an empty catalog.
func New() *Catalog {
	return &Catalog{categories: make(map[string]Category)}
}

// Default parses the embedded catalog.
func Default(v *cue.Validator) (*Catalog, error) {
	c := New()
	if err := c.Add(v, "default.yaml", defaultCatalog); err != nil {
		return nil, err
	}
	return c, nil
}

// Load parses the embedded catalog and then every catalog file found under
// dataDir. A category type defined in a later file replaces the earlier one.
func Load(v *cue.Validator, dataDir string) (*Catalog, error) {
	c, err := Default(v)
	if err != nil {
		return nil, err
	}

	files, err := discovery.NewFileDiscovery(dataDir).DiscoverFiles(discovery.FileTypeCatalog)
	if err != nil {
		return nil, fmt.Errorf("discover catalogs: %w", err)
	}
	for _, f := range files {
		if err := c.Add(v, f.RelPath, f.Contents); err != nil {
			return nil, err
		}
	}
	return c, nil
}

// Add validates a catalog document and merges it. The catalog is left
// untouched when the document is invalid.
func (c *Catalog) Add(v *cue.Validator, name string, raw []byte) error {
	if v != nil {
		var data map[string]any
		if err := yaml.Unmarshal(raw, &data); err != nil {
			return fmt.Errorf("parse catalog %s: %w", name, err)
		}
		issues, err := v.ValidateCatalog(name, data)
		if err != nil {
			return fmt.Errorf("validate catalog %s: %w", name, err)
		}
		if len(issues) > 0 {
			return &types.ConfigurationError{Scope: name, Message: cue.Join(issues)}
		}
	}

	var doc document
	if err := yaml.Unmarshal(raw, &doc); err != nil {
		return fmt.Errorf("parse catalog %s: %w", name, err)
	}

	for _, cat := range doc.Categories {
		if err := scoring.ValidateDefinitions(name+":"+cat.Type, cat.Criteria); err != nil {
			return err
		}
		seen := make(map[string]bool, len(cat.Criteria))
		for _, def := range cat.Criteria {
			if seen[def.ID] {
				return &types.ConfigurationError{Scope: name + ":" + cat.Type, Message: "duplicate criterion " + def.ID}
			}
			seen[def.ID] = true
		}
	}
	if len(doc.SelectionTemplate) > 0 {
		if err := scoring.ValidateCriteria(name+":selectionTemplate", doc.SelectionTemplate); err != nil {
			return err
		}
	}

	for _, cat := range doc.Categories {
		if _, exists := c.categories[cat.Type]; !exists {
			c.order = append(c.order, cat.Type)
		}
		c.categories[cat.Type] = cat
	}
	if len(doc.SelectionTemplate) > 0 {
		c.template = doc.SelectionTemplate
	}
	return nil
}

// Types returns the known category types in load order.
func (c *Catalog) Types() []string {
	out := make([]string, len(c.order))
	copy(out, c.order)
	return out
}

// Category returns a category by type.
func (c *Catalog) Category(categoryType string) (Category, error) {
	cat, ok := c.categories[categoryType]
	if !ok {
		return Category{}, types.NotFound("category type", categoryType)
	}
	return cat, nil
}

// Definitions returns the criterion definitions of a category type.
func (c *Catalog) Definitions(categoryType string) ([]types.CriterionDefinition, error) {
	cat, err := c.Category(categoryType)
	if err != nil {
		return nil, err
	}
	out := make([]types.CriterionDefinition, len(cat.Criteria))
	copy(out, cat.Criteria)
	return out, nil
}

// CriteriaForType resolves the active weight set. Critical providers always
// get the catalog's critical weights; otherwise an override, when present,
// replaces the normal weights. Criteria absent from the override weigh 0.
func (c *Catalog) CriteriaForType(categoryType string, isCritical bool, override *types.CategoryWeightOverride) ([]types.WeightedCriterion, error) {
	defs, err := c.Definitions(categoryType)
	if err != nil {
		return nil, err
	}

	out := make([]types.WeightedCriterion, 0, len(defs))
	for _, def := range defs {
		w := def.WeightNormal
		switch {
		case isCritical:
			w = def.WeightCritical
		case override != nil:
			w = override.Weights[def.ID] / 100
		}
		out = append(out, types.WeightedCriterion{ID: def.ID, Label: def.Label, Weight: w})
	}
	return out, nil
}

// HasCriterion reports whether id belongs to the category type.
func (c *Catalog) HasCriterion(categoryType, id string) bool {
	cat, ok := c.categories[categoryType]
	if !ok {
		return false
	}
	for _, def := range cat.Criteria {
		if def.ID == id {
			return true
		}
	}
	return false
}

// SelectionTemplate returns a copy of the default selection criteria.
func (c *Catalog) SelectionTemplate() []types.Criterion {
	out := make([]types.Criterion, len(c.template))
	copy(out, c.template)
	return out
}

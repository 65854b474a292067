package cmd

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/dotcommander/provscore/internal/cue"
	"github.com/dotcommander/provscore/internal/types"
)

// parsePairs splits id=value arguments. Later pairs win.
func parsePairs(flag string, pairs []string) (map[string]string, error) {
	out := make(map[string]string, len(pairs))
	for _, p := range pairs {
		id, value, ok := strings.Cut(p, "=")
		id = strings.TrimSpace(id)
		if !ok || id == "" {
			return nil, &types.ValidationError{Message: fmt.Sprintf("--%s expects id=value, got %q", flag, p)}
		}
		out[id] = strings.TrimSpace(value)
	}
	return out, nil
}

// parseScores parses id=n pairs. Range checks happen in the services.
func parseScores(flag string, pairs []string) (map[string]int, error) {
	raw, err := parsePairs(flag, pairs)
	if err != nil {
		return nil, err
	}
	out := make(map[string]int, len(raw))
	for id, v := range raw {
		n, err := strconv.Atoi(v)
		if err != nil {
			return nil, &types.ValidationError{Message: fmt.Sprintf("score for %s must be an integer, got %q", id, v)}
		}
		out[id] = n
	}
	return out, nil
}

// parseWeights parses id=percent pairs.
func parseWeights(pairs []string) (map[string]float64, error) {
	raw, err := parsePairs("weight", pairs)
	if err != nil {
		return nil, err
	}
	out := make(map[string]float64, len(raw))
	for id, v := range raw {
		w, err := strconv.ParseFloat(strings.TrimSuffix(v, "%"), 64)
		if err != nil {
			return nil, &types.ValidationError{Message: fmt.Sprintf("weight for %s must be a number, got %q", id, v)}
		}
		out[id] = w
	}
	return out, nil
}

// loadInputFile reads a YAML or JSON document, checks it against a CUE
// schema and decodes it into out.
func loadInputFile(v *cue.Validator, schema, path string, out any) error {
	raw, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("error reading %s: %w", path, err)
	}

	var data map[string]any
	if err := yaml.Unmarshal(raw, &data); err != nil {
		return &types.ValidationError{Message: fmt.Sprintf("%s: %v", filepath.Base(path), err)}
	}
	issues, err := v.Validate(schema, filepath.Base(path), data)
	if err != nil {
		return err
	}
	if len(issues) > 0 {
		return &types.ValidationError{Message: cue.Join(issues)}
	}

	if err := yaml.Unmarshal(raw, out); err != nil {
		return &types.ValidationError{Message: fmt.Sprintf("%s: %v", filepath.Base(path), err)}
	}
	return nil
}

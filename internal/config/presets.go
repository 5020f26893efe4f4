package config

import (
	"fmt"
	"os"
	"regexp"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/Addis4/kt-ai/internal/explore"
)

// ContextPreset is a named, preconfigured exploration context that the
// UI can offer as a one-click starting point.
type ContextPreset struct {
	Name     string `yaml:"name"`
	Type     string `yaml:"type"` // "repo", "jira", or "confluence"
	Owner    string `yaml:"owner"`
	Resource string `yaml:"resource"`
	Revision string `yaml:"revision"`
}

// Presets is the top-level structure of the presets YAML file.
type Presets struct {
	Contexts []ContextPreset `yaml:"contexts"`
}

// Context converts the preset into an exploration context.
func (p ContextPreset) Context() explore.Context {
	return explore.Context{
		Type:     explore.SourceType(p.Type),
		Owner:    p.Owner,
		Resource: p.Resource,
		Revision: p.Revision,
	}
}

// LoadPresets reads and parses a presets YAML file, expanding ${VAR} and
// $VAR references in values from the environment.
func LoadPresets(path string) (*Presets, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("presets: read %s: %w", path, err)
	}
	return LoadPresetsBytes(raw)
}

// LoadPresetsBytes parses presets from bytes (useful for testing).
func LoadPresetsBytes(data []byte) (*Presets, error) {
	expanded := expandEnvVars(string(data))

	var p Presets
	if err := yaml.Unmarshal([]byte(expanded), &p); err != nil {
		return nil, fmt.Errorf("presets: parse: %w", err)
	}

	for i, c := range p.Contexts {
		if strings.TrimSpace(c.Name) == "" {
			return nil, fmt.Errorf("presets: context %d has no name", i)
		}
		if !explore.SourceType(c.Type).Valid() {
			return nil, fmt.Errorf("presets: context %q has unknown type %q", c.Name, c.Type)
		}
	}
	return &p, nil
}

// envVarPattern matches ${VAR_NAME} and $VAR_NAME.
var envVarPattern = regexp.MustCompile(`\$\{([^}]+)\}|\$([A-Za-z_][A-Za-z0-9_]*)`)

// expandEnvVars replaces ${VAR} and $VAR with the corresponding environment
// variable value. Missing vars are replaced with an empty string.
func expandEnvVars(s string) string {
	return envVarPattern.ReplaceAllStringFunc(s, func(match string) string {
		name := strings.TrimPrefix(match, "${")
		name = strings.TrimSuffix(name, "}")
		name = strings.TrimPrefix(name, "$")
		return os.Getenv(name)
	})
}

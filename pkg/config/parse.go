package config

import (
	"fmt"

	"github.com/Masterminds/semver/v3"
	"gopkg.in/yaml.v3"
)

// ParseConfigYAML parses a Config from YAML bytes and validates it.
// Fields absent from the payload keep their DefaultConfig values.
func ParseConfigYAML(data []byte) (*Config, error) {
	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config yaml: %w", err)
	}

	if err := validateConfig(cfg); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return cfg, nil
}

// ParseConfigYAMLString parses a Config from a YAML string and validates it.
func ParseConfigYAMLString(yamlText string) (*Config, error) {
	return ParseConfigYAML([]byte(yamlText))
}

// ParseDocumentYAML parses a model Document from YAML bytes, checks its
// format_version against constraint and validates its structure. An empty
// constraint means DefaultFormatConstraint.
// This is used for APIs where the model is provided as payload (not via filesystem).
func ParseDocumentYAML(data []byte, constraint string) (*Document, error) {
	var doc Document
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("failed to parse model yaml: %w", err)
	}

	if err := CheckFormat(doc.FormatVersion, constraint); err != nil {
		return nil, err
	}

	if err := validateDocument(&doc); err != nil {
		return nil, fmt.Errorf("invalid model: %w", err)
	}

	return &doc, nil
}

// ParseDocumentYAMLString parses a model Document from a YAML string.
func ParseDocumentYAMLString(yamlText, constraint string) (*Document, error) {
	return ParseDocumentYAML([]byte(yamlText), constraint)
}

// CheckFormat reports whether version satisfies the semver constraint.
func CheckFormat(version, constraint string) error {
	if constraint == "" {
		constraint = DefaultFormatConstraint
	}
	c, err := semver.NewConstraint(constraint)
	if err != nil {
		return fmt.Errorf("invalid format constraint %q: %w", constraint, err)
	}
	if version == "" {
		return fmt.Errorf("format_version is required")
	}
	v, err := semver.NewVersion(version)
	if err != nil {
		return fmt.Errorf("invalid format_version %q: %w", version, err)
	}
	if !c.Check(v) {
		return fmt.Errorf("unsupported format_version %s (accepted: %s)", v, constraint)
	}
	return nil
}

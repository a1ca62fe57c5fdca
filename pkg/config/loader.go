package config

import (
	"fmt"
	"os"
)

// LoadConfig loads and parses a configuration file
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
	}
	cfg, err := ParseConfigYAML(data)
	if err != nil {
		return nil, fmt.Errorf("failed to parse config file %s: %w", path, err)
	}
	return cfg, nil
}

// LoadDocument loads and parses a model file
func LoadDocument(path, constraint string) (*Document, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read model file %s: %w", path, err)
	}
	doc, err := ParseDocumentYAML(data, constraint)
	if err != nil {
		return nil, fmt.Errorf("failed to parse model file %s: %w", path, err)
	}
	return doc, nil
}

var validModels = map[string]bool{
	"traces":               true,
	"failures":             true,
	"failures-divergences": true,
	"timed-traces":         true,
	"timed-failures":       true,
}

// validateConfig performs validation on the configuration
func validateConfig(cfg *Config) error {
	validLogLevels := map[string]bool{
		"debug": true,
		"info":  true,
		"warn":  true,
		"error": true,
	}
	if !validLogLevels[cfg.LogLevel] {
		return fmt.Errorf("invalid log_level: %s (must be debug, info, warn, or error)", cfg.LogLevel)
	}
	if cfg.Workers <= 0 {
		return fmt.Errorf("workers must be positive, got %d", cfg.Workers)
	}
	if cfg.DefaultModel != "" && !validModels[cfg.DefaultModel] {
		return fmt.Errorf("invalid default_model: %s", cfg.DefaultModel)
	}
	if cfg.Output.DeclareCore && !cfg.Output.Prelude {
		return fmt.Errorf("output.declare_core requires output.prelude")
	}
	return nil
}

// validateDocument checks the structure of a model document. References
// between its parts are checked when it is built.
func validateDocument(doc *Document) error {
	validKinds := map[string]bool{
		"module":     true,
		"controller": true,
		"machine":    true,
		"platform":   true,
	}
	components := make(map[string]bool)
	for _, c := range doc.Components {
		if c.Name == "" {
			return fmt.Errorf("component name cannot be empty")
		}
		if components[c.Name] {
			return fmt.Errorf("duplicate component name: %s", c.Name)
		}
		components[c.Name] = true
		if !validKinds[c.Kind] {
			return fmt.Errorf("component %s: invalid kind %s (must be module, controller, machine, or platform)", c.Name, c.Kind)
		}
	}

	for i, c := range doc.Connections {
		if c.FromEvent == "" || c.ToEvent == "" {
			return fmt.Errorf("connection %d: from_event and to_event are required", i)
		}
		if !components[c.From] {
			return fmt.Errorf("connection %d: 'from' component %s does not exist", i, c.From)
		}
		if !components[c.To] {
			return fmt.Errorf("connection %d: 'to' component %s does not exist", i, c.To)
		}
	}

	if len(doc.Groups) == 0 {
		return fmt.Errorf("at least one group must be defined")
	}
	groups := make(map[string]bool)
	for _, g := range doc.Groups {
		if g.Name == "" {
			return fmt.Errorf("group name cannot be empty")
		}
		if groups[g.Name] {
			return fmt.Errorf("duplicate group name: %s", g.Name)
		}
		groups[g.Name] = true
		if err := validateGroup(&g, components); err != nil {
			return fmt.Errorf("group %s: %w", g.Name, err)
		}
	}
	return nil
}

// validateGroup validates a group
func validateGroup(g *GroupDoc, components map[string]bool) error {
	if !components[g.Target] {
		return fmt.Errorf("target component %s does not exist", g.Target)
	}

	actors := make(map[string]bool)
	targets := 0
	for _, a := range g.Actors {
		if a.Name == "" {
			return fmt.Errorf("actor name cannot be empty")
		}
		if actors[a.Name] {
			return fmt.Errorf("duplicate actor name: %s", a.Name)
		}
		actors[a.Name] = true
		switch a.Kind {
		case "target":
			targets++
		case "world":
		case "component":
			if !components[a.Node] {
				return fmt.Errorf("actor %s: node %s does not exist", a.Name, a.Node)
			}
		default:
			return fmt.Errorf("actor %s: invalid kind %s (must be target, component, or world)", a.Name, a.Kind)
		}
	}
	if targets != 1 {
		return fmt.Errorf("exactly one target actor is required, got %d", targets)
	}

	sets := make(map[string]bool)
	for _, s := range g.MessageSets {
		if s.Name == "" {
			return fmt.Errorf("message set name cannot be empty")
		}
		if sets[s.Name] {
			return fmt.Errorf("duplicate message set name: %s", s.Name)
		}
		sets[s.Name] = true
	}

	interactions := make(map[string]bool)
	for _, i := range g.Interactions {
		if i.Name == "" {
			return fmt.Errorf("interaction name cannot be empty")
		}
		if interactions[i.Name] {
			return fmt.Errorf("duplicate interaction name: %s", i.Name)
		}
		interactions[i.Name] = true
		for _, l := range i.Lifelines {
			if !actors[l] {
				return fmt.Errorf("interaction %s: lifeline %s is not an actor", i.Name, l)
			}
		}
		if err := validateFragments(i.Fragments); err != nil {
			return fmt.Errorf("interaction %s: %w", i.Name, err)
		}
	}

	for _, p := range g.Properties {
		if p.Kind != "holds" && p.Kind != "observed" {
			return fmt.Errorf("property %s: kind must be 'holds' or 'observed', got %s", p.Name, p.Kind)
		}
		if !interactions[p.Interaction] {
			return fmt.Errorf("property %s: interaction %s does not exist", p.Name, p.Interaction)
		}
		if p.Model != "" && !validModels[p.Model] {
			return fmt.Errorf("property %s: invalid model %s", p.Name, p.Model)
		}
	}
	return nil
}

// validateFragments validates a fragment list recursively
func validateFragments(fs []FragmentDoc) error {
	for i, f := range fs {
		switch f.Kind {
		case "message":
			if (f.Event == "") == (f.Operation == "") {
				return fmt.Errorf("fragment %d: message needs exactly one of event and operation", i)
			}
		case "wait":
			if f.Duration == "" {
				return fmt.Errorf("fragment %d: wait needs a duration", i)
			}
		case "deadlock":
		case "alt", "xalt", "par":
			if len(f.Operands) == 0 {
				return fmt.Errorf("fragment %d: %s needs at least one operand", i, f.Kind)
			}
			for _, o := range f.Operands {
				if o.Else && o.Guard != "" {
					return fmt.Errorf("fragment %d: operand cannot be both guarded and else", i)
				}
				if err := validateFragments(o.Fragments); err != nil {
					return err
				}
			}
		case "deadline":
			if f.Duration == "" {
				return fmt.Errorf("fragment %d: deadline needs a duration", i)
			}
			fallthrough
		case "loop", "opt", "until":
			if f.Else && f.Guard != "" {
				return fmt.Errorf("fragment %d: block cannot be both guarded and else", i)
			}
			if err := validateFragments(f.Fragments); err != nil {
				return err
			}
		default:
			return fmt.Errorf("fragment %d: unknown kind %q", i, f.Kind)
		}
	}
	return nil
}

package config

// Config represents the generator configuration
type Config struct {
	LogLevel string `yaml:"log_level"`
	// Workers bounds how many interactions are lowered concurrently.
	Workers int    `yaml:"workers"`
	Output  Output `yaml:"output"`
	// DefaultModel is used by properties that do not name a semantic model.
	DefaultModel string `yaml:"default_model,omitempty"`
	// FormatConstraint is the semver range of accepted model format versions.
	FormatConstraint string `yaml:"format_constraint,omitempty"`
}

// Output controls what the generated CSPM file contains
type Output struct {
	Path string `yaml:"path,omitempty"` // empty writes to stdout
	// Prelude emits the SD_ helper definitions before the group modules.
	Prelude bool `yaml:"prelude"`
	// DeclareCore emits the InOut datatype and the tock channel with the prelude.
	DeclareCore bool `yaml:"declare_core"`
	// Annotate adds comments for occurrences a lifeline does not take part in.
	Annotate bool `yaml:"annotate"`
}

// DefaultFormatConstraint accepts every 1.x model document.
const DefaultFormatConstraint = ">= 1.0.0, < 2.0.0"

// DefaultConfig returns the configuration used when no file is given.
func DefaultConfig() *Config {
	return &Config{
		LogLevel: "info",
		Workers:  4,
		Output: Output{
			Prelude:     true,
			DeclareCore: true,
		},
		DefaultModel:     "traces",
		FormatConstraint: DefaultFormatConstraint,
	}
}

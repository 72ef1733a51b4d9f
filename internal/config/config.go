// Package config loads textode configuration from defaults, an optional
// textode.yaml, TEXTODE_-prefixed environment variables and command-line
// flags, in that precedence order.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/confmap"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/posflag"
	"github.com/knadh/koanf/v2"
	"github.com/spf13/pflag"
)

// Config file names searched in the working directory and its parents.
const (
	FileName    = "textode.yaml"
	FileNameAlt = "textode.yml"
)

// EnvPrefix scopes environment overrides, e.g. TEXTODE_OUTPUT_DIR. Nested
// keys use a double underscore: TEXTODE_COHORT__WORKERS.
const EnvPrefix = "TEXTODE_"

// Cohort configures per-patient runs.
type Cohort struct {
	// PatientsDir holds one reaction-text file per patient.
	PatientsDir string `koanf:"patients_dir"`
	// Workers caps pool concurrency; 0 means NumCPU-1.
	Workers int `koanf:"workers"`
	// ExpressionTable is the TPM CSV used for individualization.
	ExpressionTable string `koanf:"expression_table"`
}

// Config is the resolved textode configuration.
type Config struct {
	// Input is the reaction-text file to compile.
	Input string `koanf:"input"`
	// OutputDir receives rendered reports.
	OutputDir string `koanf:"output_dir"`
	// StatePath is the SQLite build-history database.
	StatePath string `koanf:"state_path"`
	Verbose   bool   `koanf:"verbose"`

	// Words maps rule identifiers to extra trigger phrases registered
	// before parsing.
	Words map[string][]string `koanf:"words"`

	Cohort Cohort `koanf:"cohort"`
}

func defaults() map[string]interface{} {
	return map[string]interface{}{
		"input":      "model.txt",
		"output_dir": "out",
		"state_path": ".textode/state.db",
		"verbose":    false,
	}
}

// Load resolves the configuration. dir is where file discovery starts;
// flags may be nil.
func Load(dir string, flags *pflag.FlagSet) (*Config, error) {
	k := koanf.New(".")

	if err := k.Load(confmap.Provider(defaults(), "."), nil); err != nil {
		return nil, fmt.Errorf("loading defaults: %w", err)
	}

	if path := findConfigFile(dir); path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("loading %s: %w", path, err)
		}
	}

	if err := k.Load(env.Provider(EnvPrefix, ".", func(s string) string {
		key := strings.ToLower(strings.TrimPrefix(s, EnvPrefix))
		return strings.ReplaceAll(key, "__", ".")
	}), nil); err != nil {
		return nil, fmt.Errorf("loading environment: %w", err)
	}

	if flags != nil {
		if err := k.Load(posflag.Provider(flags, ".", k), nil); err != nil {
			return nil, fmt.Errorf("loading flags: %w", err)
		}
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, fmt.Errorf("unmarshaling config: %w", err)
	}
	return &cfg, nil
}

func findConfigFile(dir string) string {
	for _, name := range []string{FileName, FileNameAlt} {
		path := filepath.Join(dir, name)
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}
	return ""
}

// FindProjectRoot walks up from startDir to the first directory holding a
// textode config file. Empty when none is found.
func FindProjectRoot(startDir string) string {
	dir := startDir
	for {
		if findConfigFile(dir) != "" {
			return dir
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return ""
		}
		dir = parent
	}
}

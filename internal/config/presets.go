package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// PresetLibrary is a named collection of reusable mutation-type and
// genomic-element-type definitions, letting a run
// configuration reference a shared definition by name instead of
// repeating its distribution and parameters inline.
type PresetLibrary struct {
	MutationTypes       map[string]MutationTypePreset       `yaml:"mutation_types"`
	GenomicElementTypes map[string]GenomicElementTypePreset `yaml:"genomic_element_types"`
}

// MutationTypePreset is a named mutation-type definition, missing only
// the run-local integer id a RunConfig assigns it.
type MutationTypePreset struct {
	DominanceCoeff float64   `yaml:"dominance_coeff"`
	Distribution   string    `yaml:"distribution"`
	Params         []float64 `yaml:"params"`
}

// GenomicElementTypePreset is a named genomic-element-type definition,
// missing only the run-local integer id.
type GenomicElementTypePreset struct {
	MutationTypeIDs []int     `yaml:"mutation_type_ids"`
	Weights         []float64 `yaml:"weights"`
}

// LoadPresetLibrary reads a YAML preset library from path.
func LoadPresetLibrary(path string) (*PresetLibrary, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config: read preset library %s: %w", path, err)
	}
	var lib PresetLibrary
	if err := yaml.Unmarshal(data, &lib); err != nil {
		return nil, fmt.Errorf("config: parse preset library %s: %w", path, err)
	}
	return &lib, nil
}

// LoadPresetLibraryIfSet loads the preset library named by cfg, if any.
// A RunConfig with no PresetLibraryPath returns a nil library, which
// RunConfig.Build treats as "no presets available."
func (cfg *RunConfig) LoadPresetLibraryIfSet() (*PresetLibrary, error) {
	if cfg.PresetLibraryPath == "" {
		return nil, nil
	}
	return LoadPresetLibrary(cfg.PresetLibraryPath)
}

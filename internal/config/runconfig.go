// Package config implements the TOML run-configuration format and YAML
// preset libraries that assemble a chromosome and population before the
// embedder (cmd/popgenlab) wires them into a running engine, plus the
// top-level script-block grammar loader (blocks.go).
package config

import (
	"context"
	"fmt"
	"os"

	"github.com/BurntSushi/toml"
	"golang.org/x/sync/errgroup"

	"github.com/clawinfra/popgenlab/internal/genetics"
	"github.com/clawinfra/popgenlab/internal/population"
	"github.com/clawinfra/popgenlab/internal/rng"
)

// RunConfig is the top-level TOML run-configuration document: the RNG
// seed, chromosome layout, mutation/genomic-element
// type tables, initial subpopulations, script file paths, and output
// cadence.
type RunConfig struct {
	Seed                int64                      `toml:"seed"`
	Chromosome          ChromosomeConfig           `toml:"chromosome"`
	MutationTypes       []MutationTypeConfig       `toml:"mutation_types"`
	GenomicElementTypes []GenomicElementTypeConfig `toml:"genomic_element_types"`
	Subpopulations      []SubpopulationConfig      `toml:"subpopulations"`
	ScriptFiles         []string                   `toml:"script_files"`
	Output              OutputConfig               `toml:"output"`
	PresetLibraryPath   string                     `toml:"preset_library,omitempty"`
}

// ChromosomeConfig describes a uniform-rate chromosome layout. Rates are
// constant across the whole chromosome; a run needing a piecewise map
// can still be built directly against genetics.NewChromosome by an
// embedder that bypasses this config format.
type ChromosomeConfig struct {
	Length                   int                    `toml:"length"`
	Elements                 []GenomicElementConfig `toml:"elements"`
	MutationRate             float64                `toml:"mutation_rate"`
	RecombinationRate        float64                `toml:"recombination_rate"`
	GeneConversionFraction   float64                `toml:"gene_conversion_fraction"`
	GeneConversionMeanLength float64                `toml:"gene_conversion_mean_length"`
}

// GenomicElementConfig is one tiling entry: inclusive [Start,End]
// assigned to a genomic-element-type id.
type GenomicElementConfig struct {
	TypeID int `toml:"type_id"`
	Start  int `toml:"start"`
	End    int `toml:"end"`
}

// MutationTypeConfig configures one mutation type, either directly or by
// naming a preset from the preset library (Preset takes priority over
// Distribution/Params when set).
type MutationTypeConfig struct {
	ID             int       `toml:"id"`
	DominanceCoeff float64   `toml:"dominance_coeff"`
	Distribution   string    `toml:"distribution"`
	Params         []float64 `toml:"params"`
	Preset         string    `toml:"preset,omitempty"`
}

// GenomicElementTypeConfig configures one genomic element type, either
// directly or by naming a preset.
type GenomicElementTypeConfig struct {
	ID              int       `toml:"id"`
	MutationTypeIDs []int     `toml:"mutation_type_ids"`
	Weights         []float64 `toml:"weights"`
	Preset          string    `toml:"preset,omitempty"`
}

// SubpopulationConfig configures one initial subpopulation.
type SubpopulationConfig struct {
	ID              int     `toml:"id"`
	Size            int     `toml:"size"`
	SelfingFraction float64 `toml:"selfing_fraction"`
}

// OutputConfig controls dump cadence and the optional run ledger.
type OutputConfig struct {
	DumpEveryNGenerations int64  `toml:"dump_every_n_generations"`
	DumpPathTemplate      string `toml:"dump_path_template"`
	DumpTag               string `toml:"dump_tag"`
	LedgerPath            string `toml:"ledger_path,omitempty"`
}

// Load reads and parses a RunConfig from a TOML file.
func Load(path string) (*RunConfig, error) {
	var cfg RunConfig
	if _, err := toml.DecodeFile(path, &cfg); err != nil {
		return nil, fmt.Errorf("config: parse %s: %w", path, err)
	}
	return &cfg, nil
}

// Assembled holds the chromosome and population built from a RunConfig,
// ready to be handed to genetics.NewKernel and engine.NewEngine.
type Assembled struct {
	Chromosome *genetics.Chromosome
	Population *population.Population
}

// Build validates cfg (applying any named presets from lib, which may
// be nil if cfg uses no presets) and assembles the chromosome and
// population it describes, registering every script file's parsed
// blocks into the population in file-list order.
func (cfg *RunConfig) Build(stream *rng.Stream, lib *PresetLibrary) (*Assembled, error) {
	pop := population.NewPopulation()

	for _, mtc := range cfg.MutationTypes {
		mt, err := mtc.resolve(lib)
		if err != nil {
			return nil, fmt.Errorf("config: mutation type %d: %w", mtc.ID, err)
		}
		if _, exists := pop.MutationTypes[mt.ID]; exists {
			return nil, fmt.Errorf("config: duplicate mutation type id %d", mt.ID)
		}
		pop.MutationTypes[mt.ID] = mt
	}

	for _, getc := range cfg.GenomicElementTypes {
		get, err := getc.resolve(lib)
		if err != nil {
			return nil, fmt.Errorf("config: genomic element type %d: %w", getc.ID, err)
		}
		if _, exists := pop.GenomicElementTypes[get.ID]; exists {
			return nil, fmt.Errorf("config: duplicate genomic element type id %d", get.ID)
		}
		pop.GenomicElementTypes[get.ID] = get
	}

	elements := make([]genetics.GenomicElement, len(cfg.Chromosome.Elements))
	for i, ec := range cfg.Chromosome.Elements {
		elements[i] = genetics.GenomicElement{TypeID: ec.TypeID, Start: ec.Start, End: ec.End}
	}

	chrom, err := genetics.NewChromosome(
		elements,
		cfg.Chromosome.Length,
		pop.GenomicElementTypes,
		genetics.NewUniformRateMap(cfg.Chromosome.Length, cfg.Chromosome.MutationRate),
		genetics.NewUniformRateMap(cfg.Chromosome.Length, cfg.Chromosome.RecombinationRate),
		cfg.Chromosome.GeneConversionFraction,
		cfg.Chromosome.GeneConversionMeanLength,
		stream,
	)
	if err != nil {
		return nil, fmt.Errorf("config: build chromosome: %w", err)
	}

	for _, spc := range cfg.Subpopulations {
		sp, err := population.NewSubpopulation(spc.ID, spc.Size, spc.SelfingFraction)
		if err != nil {
			return nil, fmt.Errorf("config: subpopulation %d: %w", spc.ID, err)
		}
		if err := pop.AddSubpopulation(sp); err != nil {
			return nil, fmt.Errorf("config: %w", err)
		}
	}

	blocksByFile, err := parseScriptFiles(cfg.ScriptFiles)
	if err != nil {
		return nil, err
	}
	for _, blocks := range blocksByFile {
		for _, b := range blocks {
			pop.RegisterScriptBlock(b)
		}
	}

	return &Assembled{Chromosome: chrom, Population: pop}, nil
}

// parseScriptFiles reads and parses every script file concurrently
// (bounded fan-out), then returns each file's blocks at its
// original index so the caller can register them back in file-list
// order — registration order is observable (the engine runs blocks in
// registration order), so the concurrency here must not leak into
// the order blocks are registered.
func parseScriptFiles(paths []string) ([][]population.ScriptBlock, error) {
	results := make([][]population.ScriptBlock, len(paths))
	g, _ := errgroup.WithContext(context.Background())
	g.SetLimit(4)
	for i, path := range paths {
		i, path := i, path
		g.Go(func() error {
			src, err := os.ReadFile(path)
			if err != nil {
				return fmt.Errorf("config: read script file %s: %w", path, err)
			}
			blocks, err := ParseScriptBlocks(string(src))
			if err != nil {
				return fmt.Errorf("config: script file %s: %w", path, err)
			}
			results[i] = blocks
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}

func (mtc MutationTypeConfig) resolve(lib *PresetLibrary) (*genetics.MutationType, error) {
	if mtc.Preset != "" {
		if lib == nil {
			return nil, fmt.Errorf("names preset %q but no preset library was loaded", mtc.Preset)
		}
		preset, ok := lib.MutationTypes[mtc.Preset]
		if !ok {
			return nil, fmt.Errorf("unknown mutation-type preset %q", mtc.Preset)
		}
		dist, err := parseDistributionName(preset.Distribution)
		if err != nil {
			return nil, err
		}
		return genetics.NewMutationType(mtc.ID, preset.DominanceCoeff, dist, preset.Params)
	}
	dist, err := parseDistributionName(mtc.Distribution)
	if err != nil {
		return nil, err
	}
	return genetics.NewMutationType(mtc.ID, mtc.DominanceCoeff, dist, mtc.Params)
}

func (getc GenomicElementTypeConfig) resolve(lib *PresetLibrary) (*genetics.GenomicElementType, error) {
	if getc.Preset != "" {
		if lib == nil {
			return nil, fmt.Errorf("names preset %q but no preset library was loaded", getc.Preset)
		}
		preset, ok := lib.GenomicElementTypes[getc.Preset]
		if !ok {
			return nil, fmt.Errorf("unknown genomic-element-type preset %q", getc.Preset)
		}
		return genetics.NewGenomicElementType(getc.ID, preset.MutationTypeIDs, preset.Weights)
	}
	return genetics.NewGenomicElementType(getc.ID, getc.MutationTypeIDs, getc.Weights)
}

func parseDistributionName(name string) (genetics.DistKind, error) {
	switch name {
	case "fixed":
		return genetics.DistFixed, nil
	case "exponential":
		return genetics.DistExponential, nil
	case "gamma":
		return genetics.DistGamma, nil
	case "normal":
		return genetics.DistNormal, nil
	case "weighted-script":
		return genetics.DistWeightedScript, nil
	default:
		return 0, fmt.Errorf("unknown distribution %q", name)
	}
}

package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/clawinfra/popgenlab/internal/rng"
)

func writeTemp(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write %s: %v", name, err)
	}
	return path
}

func TestRunConfigBuildAssemblesPopulation(t *testing.T) {
	scriptPath := writeTemp(t, "model.txt", `initialize { defineConstant("K", 100); }`)

	tomlSrc := `
seed = 1
script_files = ["` + scriptPath + `"]

[chromosome]
length = 1000
mutation_rate = 1e-7
recombination_rate = 1e-8
gene_conversion_fraction = 0
gene_conversion_mean_length = 0

[[chromosome.elements]]
type_id = 1
start = 0
end = 999

[[mutation_types]]
id = 1
dominance_coeff = 0.5
distribution = "fixed"
params = [0.0]

[[genomic_element_types]]
id = 1
mutation_type_ids = [1]
weights = [1.0]

[[subpopulations]]
id = 1
size = 50
selfing_fraction = 0.0

[output]
dump_every_n_generations = 10
dump_path_template = "out_%d.txt"
dump_tag = "run"
`
	cfgPath := writeTemp(t, "run.toml", tomlSrc)

	cfg, err := Load(cfgPath)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Seed != 1 {
		t.Fatalf("got seed %d, want 1", cfg.Seed)
	}

	assembled, err := cfg.Build(rng.New(cfg.Seed), nil)
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	if assembled.Chromosome == nil {
		t.Fatal("expected a non-nil chromosome")
	}
	sp, ok := assembled.Population.Subpops[1]
	if !ok {
		t.Fatal("expected subpopulation 1 to be present")
	}
	if sp.Size != 50 {
		t.Fatalf("got subpopulation size %d, want 50", sp.Size)
	}
	if len(assembled.Population.ScriptBlocks) != 1 {
		t.Fatalf("expected 1 registered script block, got %d", len(assembled.Population.ScriptBlocks))
	}
	if assembled.Population.ScriptBlocks[0].Kind != "initialize" {
		t.Fatalf("got kind %q, want initialize", assembled.Population.ScriptBlocks[0].Kind)
	}
}

func TestRunConfigBuildResolvesPresets(t *testing.T) {
	yamlSrc := `
mutation_types:
  neutral:
    dominance_coeff: 0.5
    distribution: fixed
    params: [0.0]
genomic_element_types:
  exon:
    mutation_type_ids: [7]
    weights: [1.0]
`
	presetPath := writeTemp(t, "presets.yaml", yamlSrc)
	lib, err := LoadPresetLibrary(presetPath)
	if err != nil {
		t.Fatalf("LoadPresetLibrary: %v", err)
	}

	cfg := &RunConfig{
		Seed: 1,
		Chromosome: ChromosomeConfig{
			Length: 100,
			Elements: []GenomicElementConfig{
				{TypeID: 7, Start: 0, End: 99},
			},
		},
		MutationTypes: []MutationTypeConfig{
			{ID: 7, Preset: "neutral"},
		},
		GenomicElementTypes: []GenomicElementTypeConfig{
			{ID: 7, Preset: "exon"},
		},
	}

	assembled, err := cfg.Build(rng.New(cfg.Seed), lib)
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	mt, ok := assembled.Population.MutationTypes[7]
	if !ok {
		t.Fatal("expected mutation type 7 to be resolved from the preset library")
	}
	if mt.Dominance != 0.5 {
		t.Fatalf("got dominance %v, want 0.5", mt.Dominance)
	}
}

func TestRunConfigBuildRejectsUnknownPreset(t *testing.T) {
	cfg := &RunConfig{
		Seed: 1,
		Chromosome: ChromosomeConfig{
			Length: 10,
		},
		MutationTypes: []MutationTypeConfig{
			{ID: 1, Preset: "does-not-exist"},
		},
	}
	if _, err := cfg.Build(rng.New(1), &PresetLibrary{MutationTypes: map[string]MutationTypePreset{}}); err == nil {
		t.Fatal("expected an error for an unknown preset name")
	}
}

package main

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/clawinfra/popgenlab/internal/config"
	"github.com/clawinfra/popgenlab/internal/population"
)

func mustBlock(t *testing.T, src string) population.ScriptBlock {
	t.Helper()
	blocks, err := config.ParseScriptBlocks(src)
	if err != nil {
		t.Fatalf("ParseScriptBlocks(%q): %v", src, err)
	}
	if len(blocks) != 1 {
		t.Fatalf("ParseScriptBlocks(%q): got %d blocks, want 1", src, len(blocks))
	}
	return blocks[0]
}

func TestParseLogLevel(t *testing.T) {
	tests := []struct {
		input string
		want  slog.Level
	}{
		{"debug", slog.LevelDebug},
		{"info", slog.LevelInfo},
		{"warn", slog.LevelWarn},
		{"error", slog.LevelError},
		{"unknown", slog.LevelInfo},
		{"", slog.LevelInfo},
	}
	for _, tt := range tests {
		if got := parseLogLevel(tt.input); got != tt.want {
			t.Errorf("parseLogLevel(%q) = %v, want %v", tt.input, got, tt.want)
		}
	}
}

func writeRunConfig(t *testing.T, dir string) string {
	t.Helper()
	path := filepath.Join(dir, "run.toml")
	dumpPath := filepath.Join(dir, "gen_%d.txt")
	src := `
seed = 7

[chromosome]
length = 100
mutation_rate = 0
recombination_rate = 0
gene_conversion_fraction = 0
gene_conversion_mean_length = 0

[[chromosome.elements]]
type_id = 1
start = 0
end = 99

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
size = 4
selfing_fraction = 0.0

[output]
dump_every_n_generations = 1
dump_path_template = "` + dumpPath + `"
dump_tag = "test"
`
	if err := os.WriteFile(path, []byte(src), 0o644); err != nil {
		t.Fatalf("write run.toml: %v", err)
	}
	return path
}

func TestSetupAndRunInitializeBlocks(t *testing.T) {
	dir := t.TempDir()
	path := writeRunConfig(t, dir)
	logger := slog.New(slog.NewTextHandler(os.Stderr, nil))

	a, err := setup(path, 0, logger)
	if err != nil {
		t.Fatalf("setup: %v", err)
	}
	defer a.close()

	if err := a.runInitializeBlocks(); err != nil {
		t.Fatalf("runInitializeBlocks: %v", err)
	}
	if a.Engine.Population.Generation != 0 {
		t.Fatalf("generation should still be 0 after initialize, got %d", a.Engine.Population.Generation)
	}
}

func TestRunSimulationAdvancesGenerationsAndDumps(t *testing.T) {
	dir := t.TempDir()
	path := writeRunConfig(t, dir)
	logger := slog.New(slog.NewTextHandler(os.Stderr, nil))

	a, err := setup(path, 0, logger)
	if err != nil {
		t.Fatalf("setup: %v", err)
	}
	defer a.close()

	// Force termination after one generation by registering a script
	// block whose range ends at generation 1; RunOneGeneration stops
	// once the population's generation exceeds the last registered
	// block's range.
	a.Engine.Population.RegisterScriptBlock(
		mustBlock(t, `1 late { sim.simulationFinished(); }`),
	)

	ctx := context.Background()
	if err := a.runSimulation(ctx); err != nil {
		t.Fatalf("runSimulation: %v", err)
	}
	if a.Engine.Stats().GenerationsRun == 0 {
		t.Fatal("expected at least one generation to run")
	}

	if _, err := os.Stat(filepath.Join(dir, "gen_1.txt")); err != nil {
		t.Fatalf("expected a dump file for generation 1: %v", err)
	}
}

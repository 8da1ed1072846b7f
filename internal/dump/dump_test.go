package dump

import (
	"bytes"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/clawinfra/popgenlab/internal/genetics"
	"github.com/clawinfra/popgenlab/internal/population"
)

func buildSamplePopulation(t *testing.T) *population.Population {
	t.Helper()
	p := population.NewPopulation()
	p.Generation = 42

	sp1, err := population.NewSubpopulation(1, 2, 0.1)
	if err != nil {
		t.Fatalf("NewSubpopulation: %v", err)
	}
	if err := p.AddSubpopulation(sp1); err != nil {
		t.Fatalf("AddSubpopulation: %v", err)
	}

	shared := genetics.NewMutationWithID(100, 1, 50, 0.02, 1, 10)
	private := genetics.NewMutationWithID(101, 1, 75, -0.01, 1, 20)

	genomes := sp1.Parents()
	genomes[0].Insert(shared)
	genomes[1].Insert(shared)
	genomes[1].Insert(private)

	return p
}

func TestDumpLoadRoundTrip(t *testing.T) {
	orig := buildSamplePopulation(t)

	var buf bytes.Buffer
	if err := (Dumper{}).Dump(&buf, orig, "test"); err != nil {
		t.Fatalf("Dump: %v", err)
	}

	loaded, err := (Loader{}).Load(&buf, orig)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if loaded.Generation != orig.Generation {
		t.Fatalf("generation mismatch: got %d, want %d", loaded.Generation, orig.Generation)
	}

	origSP := orig.Subpops[1]
	loadedSP := loaded.Subpops[1]
	if loadedSP.Size != origSP.Size || loadedSP.SelfingFraction != origSP.SelfingFraction {
		t.Fatalf("subpopulation mismatch: got %+v, want %+v", loadedSP, origSP)
	}

	opts := cmp.Options{
		cmp.Comparer(func(a, b *genetics.Mutation) bool {
			return a.TypeID == b.TypeID && a.Position == b.Position &&
				a.Selection == b.Selection && a.OriginSubpopID == b.OriginSubpopID &&
				a.OriginGeneration == b.OriginGeneration
		}),
	}

	for gi, origGenome := range origSP.Parents() {
		loadedGenome := loadedSP.Parents()[gi]
		if diff := cmp.Diff(origGenome.Mutations(), loadedGenome.Mutations(), opts); diff != "" {
			t.Fatalf("genome %d mutation set mismatch (-want +got):\n%s", gi, diff)
		}
	}
}

func TestLoadRejectsMalformedHeader(t *testing.T) {
	_, err := (Loader{}).Load(bytes.NewBufferString("not a header\n"), population.NewPopulation())
	if err == nil {
		t.Fatalf("expected an error for a malformed header")
	}
}

func TestDumpDeduplicatesSharedMutations(t *testing.T) {
	orig := buildSamplePopulation(t)
	var buf bytes.Buffer
	if err := (Dumper{}).Dump(&buf, orig, "test"); err != nil {
		t.Fatalf("Dump: %v", err)
	}

	lines := strings.Split(buf.String(), "\n")
	var mutationLines []string
	inSection := false
	for _, l := range lines {
		switch {
		case l == "Mutations:":
			inSection = true
			continue
		case l == "Genomes:":
			inSection = false
		case inSection && l != "":
			mutationLines = append(mutationLines, l)
		}
	}

	if len(mutationLines) != 2 {
		t.Fatalf("expected 2 distinct mutations in the Mutations: section, got %d: %v", len(mutationLines), mutationLines)
	}
	if !strings.HasSuffix(mutationLines[0], " 2") {
		t.Fatalf("expected the shared mutation's reference count to be 2, got line %q", mutationLines[0])
	}
	if !strings.HasSuffix(mutationLines[1], " 1") {
		t.Fatalf("expected the private mutation's reference count to be 1, got line %q", mutationLines[1])
	}
}

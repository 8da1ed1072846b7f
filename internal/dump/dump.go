// Package dump implements the population dump/load text format: a
// line-oriented format with three sections — Populations, Mutations,
// Genomes — written and read back by value so that
// load(dump(S)) == S for any reachable population state.
package dump

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/clawinfra/popgenlab/internal/genetics"
	"github.com/clawinfra/popgenlab/internal/population"
)

// Dumper writes a population.Population to the line-oriented text format.
type Dumper struct{}

// Dump writes pop's current generation, tagged with tag, to w (the
// dump_population(stream) builtin).
func (Dumper) Dump(w io.Writer, pop *population.Population, tag string) error {
	bw := bufio.NewWriter(w)

	if _, err := fmt.Fprintf(bw, "#OUT %d %s\n", pop.Generation, tag); err != nil {
		return fmt.Errorf("dump: write header: %w", err)
	}

	ids := pop.SubpopIDsSorted()

	if _, err := fmt.Fprintln(bw, "Populations:"); err != nil {
		return fmt.Errorf("dump: write Populations header: %w", err)
	}
	for _, id := range ids {
		sp := pop.Subpops[id]
		if _, err := fmt.Fprintf(bw, "p%d %d %g\n", sp.ID, sp.Size, sp.SelfingFraction); err != nil {
			return fmt.Errorf("dump: write subpopulation %d: %w", id, err)
		}
	}

	// Assign each distinct mutation (by process identity) a dump index
	// in first-encounter order, walking subpopulations and genomes in
	// population order.
	index := make(map[int64]int)
	var ordered []*genetics.Mutation
	counts := make(map[int64]int)
	for _, id := range ids {
		sp := pop.Subpops[id]
		for _, g := range sp.Parents() {
			for _, m := range g.Mutations() {
				if _, ok := index[m.ID()]; !ok {
					index[m.ID()] = len(ordered)
					ordered = append(ordered, m)
				}
				counts[m.ID()]++
			}
		}
	}

	if _, err := fmt.Fprintln(bw, "Mutations:"); err != nil {
		return fmt.Errorf("dump: write Mutations header: %w", err)
	}
	for _, m := range ordered {
		if _, err := fmt.Fprintf(bw, "%d %d %d %g %d %d %d\n",
			index[m.ID()], m.TypeID, m.Position, m.Selection,
			m.OriginSubpopID, m.OriginGeneration, counts[m.ID()]); err != nil {
			return fmt.Errorf("dump: write mutation %d: %w", m.ID(), err)
		}
	}

	if _, err := fmt.Fprintln(bw, "Genomes:"); err != nil {
		return fmt.Errorf("dump: write Genomes header: %w", err)
	}
	for _, id := range ids {
		sp := pop.Subpops[id]
		for gi, g := range sp.Parents() {
			fields := make([]string, 0, g.Count()+2)
			fields = append(fields, fmt.Sprintf("p%d", sp.ID), strconv.Itoa(gi))
			for _, m := range g.Mutations() {
				fields = append(fields, strconv.Itoa(index[m.ID()]))
			}
			if _, err := fmt.Fprintln(bw, strings.Join(fields, " ")); err != nil {
				return fmt.Errorf("dump: write genome p%d:%d: %w", sp.ID, gi, err)
			}
		}
	}

	return bw.Flush()
}

// Loader reads the dump text format back into a population.Population.
type Loader struct{}

// Load parses r and returns a new Population carrying the dumped
// subpopulations, mutations and genomes (load_population(stream)).
// base supplies the mutation-type/genomic-element-type tables and
// registered script blocks that the text format itself does not carry
// (those are script-level configuration, not simulation state).
func (Loader) Load(r io.Reader, base *population.Population) (*population.Population, error) {
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 64*1024), 16*1024*1024)

	if !sc.Scan() {
		return nil, fmt.Errorf("dump: empty input")
	}
	header := strings.Fields(sc.Text())
	if len(header) < 2 || header[0] != "#OUT" {
		return nil, fmt.Errorf("dump: expected #OUT header, got %q", sc.Text())
	}
	generation, err := strconv.ParseInt(header[1], 10, 64)
	if err != nil {
		return nil, fmt.Errorf("dump: parse generation: %w", err)
	}

	out := population.NewPopulation()
	out.Generation = generation
	out.MutationTypes = base.MutationTypes
	out.GenomicElementTypes = base.GenomicElementTypes
	out.ScriptBlocks = base.ScriptBlocks

	section := ""
	mutsByIndex := make(map[int]*genetics.Mutation)
	var nextID int64

	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" {
			continue
		}
		switch line {
		case "Populations:", "Mutations:", "Genomes:":
			section = line
			continue
		}

		fields := strings.Fields(line)
		switch section {
		case "Populations:":
			sp, err := parseSubpopulationLine(fields)
			if err != nil {
				return nil, err
			}
			if err := out.AddSubpopulation(sp); err != nil {
				return nil, fmt.Errorf("dump: %w", err)
			}
		case "Mutations:":
			idx, m, err := parseMutationLine(fields, &nextID)
			if err != nil {
				return nil, err
			}
			mutsByIndex[idx] = m
		case "Genomes:":
			if err := applyGenomeLine(out, fields, mutsByIndex); err != nil {
				return nil, err
			}
		default:
			return nil, fmt.Errorf("dump: data line %q outside any section", line)
		}
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("dump: scan: %w", err)
	}
	return out, nil
}

func parseSubpopulationLine(fields []string) (*population.Subpopulation, error) {
	if len(fields) != 3 {
		return nil, fmt.Errorf("dump: malformed Populations line %q", strings.Join(fields, " "))
	}
	id, err := parseSubpopID(fields[0])
	if err != nil {
		return nil, err
	}
	size, err := strconv.Atoi(fields[1])
	if err != nil {
		return nil, fmt.Errorf("dump: parse subpopulation size: %w", err)
	}
	selfing, err := strconv.ParseFloat(fields[2], 64)
	if err != nil {
		return nil, fmt.Errorf("dump: parse selfing fraction: %w", err)
	}
	return population.NewSubpopulation(id, size, selfing)
}

func parseSubpopID(tok string) (int, error) {
	if !strings.HasPrefix(tok, "p") {
		return 0, fmt.Errorf("dump: expected subpopulation id of the form p<n>, got %q", tok)
	}
	return strconv.Atoi(strings.TrimPrefix(tok, "p"))
}

func parseMutationLine(fields []string, nextID *int64) (int, *genetics.Mutation, error) {
	if len(fields) != 7 {
		return 0, nil, fmt.Errorf("dump: malformed Mutations line %q", strings.Join(fields, " "))
	}
	idx, err := strconv.Atoi(fields[0])
	if err != nil {
		return 0, nil, fmt.Errorf("dump: parse mutation index: %w", err)
	}
	typeID, err := strconv.Atoi(fields[1])
	if err != nil {
		return 0, nil, fmt.Errorf("dump: parse mutation type id: %w", err)
	}
	position, err := strconv.ParseUint(fields[2], 10, 32)
	if err != nil {
		return 0, nil, fmt.Errorf("dump: parse mutation position: %w", err)
	}
	selection, err := strconv.ParseFloat(fields[3], 64)
	if err != nil {
		return 0, nil, fmt.Errorf("dump: parse mutation selection coefficient: %w", err)
	}
	originSubpop, err := strconv.Atoi(fields[4])
	if err != nil {
		return 0, nil, fmt.Errorf("dump: parse mutation origin subpopulation: %w", err)
	}
	originGen, err := strconv.ParseInt(fields[5], 10, 64)
	if err != nil {
		return 0, nil, fmt.Errorf("dump: parse mutation origin generation: %w", err)
	}
	// fields[6] is the genome-reference count, informational only: it
	// is implied by how many Genomes: lines reference this index and is
	// not needed to reconstruct simulation state.
	*nextID++
	m := genetics.NewMutationWithID(*nextID, typeID, uint32(position), selection, originSubpop, originGen)
	return idx, m, nil
}

func applyGenomeLine(pop *population.Population, fields []string, mutsByIndex map[int]*genetics.Mutation) error {
	if len(fields) < 2 {
		return fmt.Errorf("dump: malformed Genomes line %q", strings.Join(fields, " "))
	}
	id, err := parseSubpopID(fields[0])
	if err != nil {
		return err
	}
	sp, ok := pop.Subpops[id]
	if !ok {
		return fmt.Errorf("dump: Genomes line references unknown subpopulation p%d", id)
	}
	genomeIndex, err := strconv.Atoi(fields[1])
	if err != nil {
		return fmt.Errorf("dump: parse genome index: %w", err)
	}
	genomes := sp.Parents()
	if genomeIndex < 0 || genomeIndex >= len(genomes) {
		return fmt.Errorf("dump: genome index %d out of range for subpopulation p%d", genomeIndex, id)
	}
	g := genetics.NewGenome()
	for _, tok := range fields[2:] {
		mi, err := strconv.Atoi(tok)
		if err != nil {
			return fmt.Errorf("dump: parse mutation reference: %w", err)
		}
		m, ok := mutsByIndex[mi]
		if !ok {
			return fmt.Errorf("dump: Genomes line references undefined mutation index %d", mi)
		}
		g.Insert(m)
	}
	genomes[genomeIndex] = g
	return nil
}

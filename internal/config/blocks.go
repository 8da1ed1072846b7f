package config

import (
	"fmt"
	"strconv"

	"github.com/clawinfra/popgenlab/internal/population"
	"github.com/clawinfra/popgenlab/internal/script"
)

// validEventKinds enumerates the event-kind tags a script block may
// carry: `<gen>[ : <gen2> ] [<event-kind>]? { … }`.
var validEventKinds = map[string]bool{
	"early":         true,
	"late":          true,
	"initialize":    true,
	"fitness":       true,
	"mateChoice":    true,
	"modifyChild":   true,
	"recombination": true,
}

// ParseScriptBlocks splits src into its top-level script blocks and
// parses each block's body as a statement sequence. Blocks are
// returned in source order, matching the registration order the
// life-cycle engine runs them in.
//
// `initialize { ... }` (an `initialize`-kind block with no leading
// generation number) is accepted as a special zero-generation form that
// always runs once, at generation 0, before any generation is simulated.
func ParseScriptBlocks(src string) ([]population.ScriptBlock, error) {
	toks, err := script.Tokenize(src)
	if err != nil {
		return nil, fmt.Errorf("config: tokenize script: %w", err)
	}

	var blocks []population.ScriptBlock
	i := 0
	for i < len(toks) && toks[i].Kind != script.EOF {
		block, next, err := parseOneBlock(src, toks, i)
		if err != nil {
			return nil, err
		}
		blocks = append(blocks, block)
		i = next
	}
	return blocks, nil
}

func parseOneBlock(src string, toks []script.Token, i int) (population.ScriptBlock, int, error) {
	var startGen, endGen int64
	hasGen := false

	if toks[i].Kind == script.IntLit {
		n, err := strconv.ParseInt(toks[i].Text, 10, 64)
		if err != nil {
			return population.ScriptBlock{}, 0, fmt.Errorf("config: invalid generation number %q", toks[i].Text)
		}
		startGen, endGen = n, n
		hasGen = true
		i++
		if i < len(toks) && toks[i].Kind == script.Colon {
			i++
			if i >= len(toks) || toks[i].Kind != script.IntLit {
				return population.ScriptBlock{}, 0, fmt.Errorf("config: expected a generation number after ':' in a script block header")
			}
			endGen, err = strconv.ParseInt(toks[i].Text, 10, 64)
			if err != nil {
				return population.ScriptBlock{}, 0, fmt.Errorf("config: invalid generation number %q", toks[i].Text)
			}
			i++
		}
	}

	kind := ""
	if i < len(toks) && toks[i].Kind == script.Ident && validEventKinds[toks[i].Text] {
		kind = toks[i].Text
		i++
	}

	if !hasGen {
		if kind != "initialize" {
			return population.ScriptBlock{}, 0, fmt.Errorf("config: script block at byte %d has no generation number (only `initialize` may omit one)", toks[i].Pos)
		}
		startGen, endGen = 0, 0
	}
	if kind == "" {
		kind = "early"
	}

	if i >= len(toks) || toks[i].Kind != script.LBrace {
		return population.ScriptBlock{}, 0, fmt.Errorf("config: expected '{' to open a script block body near byte %d", toks[len(toks)-1].Pos)
	}
	open := toks[i]
	depth := 1
	j := i + 1
	closeIdx := -1
	for ; j < len(toks); j++ {
		switch toks[j].Kind {
		case script.LBrace:
			depth++
		case script.RBrace:
			depth--
			if depth == 0 {
				closeIdx = j
			}
		case script.EOF:
			return population.ScriptBlock{}, 0, fmt.Errorf("config: unterminated script block opened at byte %d", open.Pos)
		}
		if closeIdx >= 0 {
			break
		}
	}
	if closeIdx < 0 {
		return population.ScriptBlock{}, 0, fmt.Errorf("config: unterminated script block opened at byte %d", open.Pos)
	}

	body := src[open.Pos+1 : toks[closeIdx].Pos]
	prog, err := script.ParseProgram(body)
	if err != nil {
		return population.ScriptBlock{}, 0, fmt.Errorf("config: parse script block body opened at byte %d: %w", open.Pos, err)
	}
	return population.ScriptBlock{
		StartGen: startGen,
		EndGen:   endGen,
		Kind:     kind,
		Program:  prog,
	}, closeIdx + 1, nil
}

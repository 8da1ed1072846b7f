package config

import "testing"

func TestParseScriptBlocksDefaultsToEarly(t *testing.T) {
	blocks, err := ParseScriptBlocks(`1:10 { x = 1; }`)
	if err != nil {
		t.Fatalf("ParseScriptBlocks: %v", err)
	}
	if len(blocks) != 1 {
		t.Fatalf("expected 1 block, got %d", len(blocks))
	}
	b := blocks[0]
	if b.StartGen != 1 || b.EndGen != 10 || b.Kind != "early" {
		t.Fatalf("got %+v, want StartGen=1 EndGen=10 Kind=early", b)
	}
}

func TestParseScriptBlocksHonorsExplicitKind(t *testing.T) {
	blocks, err := ParseScriptBlocks(`5 late { y = 2; }`)
	if err != nil {
		t.Fatalf("ParseScriptBlocks: %v", err)
	}
	b := blocks[0]
	if b.StartGen != 5 || b.EndGen != 5 || b.Kind != "late" {
		t.Fatalf("got %+v, want StartGen=5 EndGen=5 Kind=late", b)
	}
}

func TestParseScriptBlocksAcceptsInitializeWithoutGeneration(t *testing.T) {
	blocks, err := ParseScriptBlocks(`initialize { z = 3; }`)
	if err != nil {
		t.Fatalf("ParseScriptBlocks: %v", err)
	}
	b := blocks[0]
	if b.StartGen != 0 || b.EndGen != 0 || b.Kind != "initialize" {
		t.Fatalf("got %+v, want StartGen=0 EndGen=0 Kind=initialize", b)
	}
}

func TestParseScriptBlocksRejectsMissingGenerationOnNonInitialize(t *testing.T) {
	if _, err := ParseScriptBlocks(`late { x = 1; }`); err == nil {
		t.Fatalf("expected an error for a non-initialize block with no generation number")
	}
}

func TestParseScriptBlocksRejectsUnterminatedBlock(t *testing.T) {
	if _, err := ParseScriptBlocks(`1 early { x = 1;`); err == nil {
		t.Fatalf("expected an error for an unterminated block")
	}
}

func TestParseScriptBlocksHandlesMultipleBlocksInOrder(t *testing.T) {
	blocks, err := ParseScriptBlocks(`
		initialize { a = 1; }
		1:100 { b = 2; }
		50 late { c = 3; }
	`)
	if err != nil {
		t.Fatalf("ParseScriptBlocks: %v", err)
	}
	if len(blocks) != 3 {
		t.Fatalf("expected 3 blocks, got %d", len(blocks))
	}
	wantKinds := []string{"initialize", "early", "late"}
	for i, want := range wantKinds {
		if blocks[i].Kind != want {
			t.Fatalf("block %d: got kind %q, want %q", i, blocks[i].Kind, want)
		}
	}
}

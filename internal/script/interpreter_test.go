package script

import (
	"math"
	"testing"
)

func TestArithmeticPrecedence(t *testing.T) {
	prog, err := ParseProgram("2 + 3 * 4;")
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	it := NewInterpreter()
	v, err := it.Run(prog)
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if v.IntAt(0) != 14 {
		t.Fatalf("got %d, want 14", v.IntAt(0))
	}
}

func TestSumOfRange(t *testing.T) {
	prog, err := ParseProgram("sum(1:100);")
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	it := NewInterpreter()
	v, err := it.Run(prog)
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if v.Type().String() != "integer" || v.IntAt(0) != 5050 {
		t.Fatalf("sum(1:100) = %v, want 5050", v)
	}
}

func TestSubscriptAssignmentOddToTen(t *testing.T) {
	prog, err := ParseProgram(`
		x = 1:10;
		x[x % 2 == 1] = 10;
		x;
	`)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	it := NewInterpreter()
	v, err := it.Run(prog)
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	want := []int64{10, 2, 10, 4, 10, 6, 10, 8, 10, 10}
	if v.Count() != len(want) {
		t.Fatalf("got count %d, want %d", v.Count(), len(want))
	}
	for i, w := range want {
		if v.IntAt(i) != w {
			t.Fatalf("index %d: got %d, want %d", i, v.IntAt(i), w)
		}
	}
}

func TestAssignmentCopiesRatherThanAliases(t *testing.T) {
	prog, err := ParseProgram(`
		x = 1:5;
		y = x;
		y[0] = 9;
		x;
	`)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	it := NewInterpreter()
	v, err := it.Run(prog)
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	want := []int64{1, 2, 3, 4, 5}
	for i, w := range want {
		if v.IntAt(i) != w {
			t.Fatalf("x[%d] = %d after mutating y, want %d (y must not alias x)", i, v.IntAt(i), w)
		}
	}

	y, ok := it.Symbols.Lookup("y")
	if !ok {
		t.Fatal("y not defined")
	}
	if y.IntAt(0) != 9 {
		t.Fatalf("y[0] = %d, want 9", y.IntAt(0))
	}
}

func TestIfElseControlFlow(t *testing.T) {
	prog, err := ParseProgram(`
		x = 0;
		if (1 < 2) { x = 1; } else { x = 2; }
		x;
	`)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	it := NewInterpreter()
	v, err := it.Run(prog)
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if v.IntAt(0) != 1 {
		t.Fatalf("got %d, want 1", v.IntAt(0))
	}
}

func TestWhileLoopAccumulates(t *testing.T) {
	prog, err := ParseProgram(`
		total = 0;
		i = 1;
		while (i <= 5) {
			total = total + i;
			i = i + 1;
		}
		total;
	`)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	it := NewInterpreter()
	v, err := it.Run(prog)
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if v.IntAt(0) != 15 {
		t.Fatalf("got %d, want 15", v.IntAt(0))
	}
}

func TestForInOverVector(t *testing.T) {
	prog, err := ParseProgram(`
		total = 0;
		for (v in c(1, 2, 3, 4)) {
			total = total + v;
		}
		total;
	`)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	it := NewInterpreter()
	v, err := it.Run(prog)
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if v.IntAt(0) != 10 {
		t.Fatalf("got %d, want 10", v.IntAt(0))
	}
}

func TestDivisionByZeroIsInfNotError(t *testing.T) {
	prog, err := ParseProgram("1 / 0;")
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	it := NewInterpreter()
	v, err := it.Run(prog)
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if !math.IsInf(v.FloatAt(0), 1) {
		t.Fatalf("got %v, want +Inf", v.FloatAt(0))
	}
}

func TestBreakExitsLoopEarly(t *testing.T) {
	prog, err := ParseProgram(`
		total = 0;
		for (v in 1:100) {
			if (v > 3) {
				break;
			}
			total = total + v;
		}
		total;
	`)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	it := NewInterpreter()
	v, err := it.Run(prog)
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if v.IntAt(0) != 6 {
		t.Fatalf("got %d, want 6", v.IntAt(0))
	}
}

func TestNextSkipsIteration(t *testing.T) {
	prog, err := ParseProgram(`
		total = 0;
		for (v in 1:5) {
			if (v == 3) {
				next;
			}
			total = total + v;
		}
		total;
	`)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	it := NewInterpreter()
	v, err := it.Run(prog)
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if v.IntAt(0) != 12 {
		t.Fatalf("got %d, want 12 (1+2+4+5)", v.IntAt(0))
	}
}

func TestStringConcatenationWithPlus(t *testing.T) {
	prog, err := ParseProgram(`"gen" + 1 + ":" + "T";`)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	it := NewInterpreter()
	v, err := it.Run(prog)
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if v.StringAt(0) != "gen1:T" {
		t.Fatalf("got %q", v.StringAt(0))
	}
}

func TestUndefinedIdentifierIsNameError(t *testing.T) {
	prog, err := ParseProgram("y;")
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	it := NewInterpreter()
	if _, err := it.Run(prog); err == nil {
		t.Fatalf("expected an error referencing an undefined identifier")
	}
}

func TestMatchWorkedExample(t *testing.T) {
	prog, err := ParseProgram("match(c(1,2,2,9,5,1), c(5,1,9));")
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	it := NewInterpreter()
	v, err := it.Run(prog)
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	want := []int64{1, -1, -1, 2, 0, 1}
	for i, w := range want {
		if v.IntAt(i) != w {
			t.Fatalf("index %d: got %d, want %d", i, v.IntAt(i), w)
		}
	}
}

func TestRepEachWorkedExample(t *testing.T) {
	prog, err := ParseProgram("repEach(c(3,7), c(2,3));")
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	it := NewInterpreter()
	v, err := it.Run(prog)
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	want := []int64{3, 3, 7, 7, 7}
	if v.Count() != len(want) {
		t.Fatalf("got count %d, want %d", v.Count(), len(want))
	}
	for i, w := range want {
		if v.IntAt(i) != w {
			t.Fatalf("index %d: got %d, want %d", i, v.IntAt(i), w)
		}
	}
}

func TestApplyBindsApplyValue(t *testing.T) {
	prog, err := ParseProgram(`apply(1:4, "applyValue * 2;");`)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	it := NewInterpreter()
	v, err := it.Run(prog)
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	want := []int64{2, 4, 6, 8}
	for i, w := range want {
		if v.IntAt(i) != w {
			t.Fatalf("index %d: got %d, want %d", i, v.IntAt(i), w)
		}
	}
}

func TestDefineConstantRefusesRedefinitionAndRemoval(t *testing.T) {
	prog, err := ParseProgram(`defineConstant("K", 42); K;`)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	it := NewInterpreter()
	v, err := it.Run(prog)
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if v.IntAt(0) != 42 {
		t.Fatalf("got %d, want 42", v.IntAt(0))
	}
	if _, err := it.ExecuteLambda(`defineConstant("K", 1);`); err == nil {
		t.Fatalf("expected an error redefining a constant")
	}
	if _, err := it.ExecuteLambda(`rm("K");`); err == nil {
		t.Fatalf("expected an error removing a constant")
	}
}

func TestDoCallInvokesBuiltinByName(t *testing.T) {
	prog, err := ParseProgram(`doCall("sum", 1:10);`)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	it := NewInterpreter()
	v, err := it.Run(prog)
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if v.IntAt(0) != 55 {
		t.Fatalf("got %d, want 55", v.IntAt(0))
	}
}

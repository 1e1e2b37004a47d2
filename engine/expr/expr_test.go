package expr

import (
	"math"
	"testing"
)

const eps = 1e-9

func newTestEvaluator() *Evaluator {
	return NewEvaluator(NewEnv(), 1)
}

func TestSimpleExpression(t *testing.T) {
	ev := newTestEvaluator()
	got, err := ev.EvalExpression("2 + 2")
	if err != nil {
		t.Fatalf("eval failed: %v", err)
	}
	if got != 4.0 {
		t.Errorf("2 + 2 = %v, want 4", got)
	}
}

func TestMathFunctions(t *testing.T) {
	tests := []struct {
		expr string
		want float64
	}{
		{"sin(0)", 0},
		{"cos(0)", 1},
		{"sqrt(16)", 4},
		{"abs(-5)", 5},
		{"pow(2, 3)", 8},
		{"floor(1.7)", 1},
		{"ceil(1.2)", 2},
		{"round(1.5)", 2},
		{"int(3.9)", 3},
		{"trunc(-3.9)", -3},
		{"fract(1.25)", 0.25},
		{"sign(-2)", -1},
		{"sqr(3)", 9},
		{"sqrt(2)*sqrt(2)", 2},
		{"min(2, 5)", 2},
		{"max(2, 5)", 5},
		{"clamp(7, 0, 4)", 4},
		{"fmod(7, 4)", 3},
		{"atan2(0, 1)", 0},
		{"log10(100)", 2},
		{"ln(1)", 0},
		{"deg(rad(90))", 90},
	}
	ev := newTestEvaluator()
	for _, tt := range tests {
		got, err := ev.EvalExpression(tt.expr)
		if err != nil {
			t.Errorf("%s: %v", tt.expr, err)
			continue
		}
		if math.Abs(got-tt.want) > eps {
			t.Errorf("%s = %v, want %v", tt.expr, got, tt.want)
		}
	}
}

func TestComparisonsReturnFloats(t *testing.T) {
	ev := newTestEvaluator()

	// Comparisons compose arithmetically: each term is exactly 0.0 or 1.0.
	got, err := ev.EvalExpression("above(2,1) + equal(3,3) + below(1,2)")
	if err != nil {
		t.Fatalf("eval failed: %v", err)
	}
	if got != 3.0 {
		t.Errorf("composed comparisons = %v, want 3", got)
	}

	for _, expr := range []string{"above(1,2)", "below(2,1)", "equal(1,2)"} {
		v, err := ev.EvalExpression(expr)
		if err != nil {
			t.Fatalf("%s: %v", expr, err)
		}
		if v != 0.0 {
			t.Errorf("%s = %v, want 0", expr, v)
		}
	}
}

func TestEqualTolerance(t *testing.T) {
	ev := newTestEvaluator()
	got, err := ev.EvalExpression("equal(1.0, 1.0000001)")
	if err != nil {
		t.Fatalf("eval failed: %v", err)
	}
	if got != 1.0 {
		t.Errorf("equal within epsilon = %v, want 1", got)
	}
}

func TestMilkifTotality(t *testing.T) {
	tests := []struct {
		c, tv, fv float64
		want      float64
	}{
		{0, 1, 2, 2},
		{1, 1, 2, 1},
		{-0.5, 3, 4, 3},
		{1e-12, 5, 6, 5},
		{0, -7, 7, 7},
	}
	ev := newTestEvaluator()
	for _, tt := range tests {
		ev.Env().Set("c", tt.c)
		ev.Env().Set("tv", tt.tv)
		ev.Env().Set("fv", tt.fv)
		got, err := ev.EvalExpression("if(c, tv, fv)")
		if err != nil {
			t.Fatalf("milkif(%v): %v", tt.c, err)
		}
		if got != tt.want {
			t.Errorf("milkif(%v, %v, %v) = %v, want %v", tt.c, tt.tv, tt.fv, got, tt.want)
		}
	}
}

func TestBooleanFunctions(t *testing.T) {
	tests := []struct {
		expr string
		want float64
	}{
		{"bnot(0)", 1},
		{"bnot(3)", 0},
		{"band(1, 2)", 1},
		{"band(1, 0)", 0},
		{"bor(0, 2)", 1},
		{"bor(0, 0)", 0},
	}
	ev := newTestEvaluator()
	for _, tt := range tests {
		got, err := ev.EvalExpression(tt.expr)
		if err != nil {
			t.Fatalf("%s: %v", tt.expr, err)
		}
		if got != tt.want {
			t.Errorf("%s = %v, want %v", tt.expr, got, tt.want)
		}
	}
}

func TestPreprocessIfRewrite(t *testing.T) {
	env := NewEnv()
	got := Preprocess(env, "x = if(above(bass,0.5),1,0)")
	want := "x = milkif(above(bass,0.5),1,0)"
	if got != want {
		t.Errorf("Preprocess = %q, want %q", got, want)
	}
}

func TestPreprocessIntLiteral(t *testing.T) {
	env := NewEnv()
	got := Preprocess(env, "zoom = 1")
	if got != "zoom = 1.0" {
		t.Errorf("Preprocess = %q, want %q", got, "zoom = 1.0")
	}
}

func TestPreprocessIdempotent(t *testing.T) {
	inputs := []string{
		"zoom = 1",
		"x = if(above(bass,0.5),1,0)",
		"wave_r = 0.5 + 0.5*sin(time*1.1)",
		"q1 = -3",
		"y = milkif(equal(a,b), 1, 0)",
	}
	env := NewEnv()
	for _, in := range inputs {
		once := Preprocess(env, in)
		twice := Preprocess(env, once)
		if once != twice {
			t.Errorf("Preprocess not idempotent for %q: %q vs %q", in, once, twice)
		}
	}
}

func TestPreprocessAutoInit(t *testing.T) {
	env := NewEnv()
	Preprocess(env, "a = b + c")
	for _, name := range []string{"a", "b", "c"} {
		if v, ok := env.Get(name); !ok || v != 0 {
			t.Errorf("variable %q not auto-initialized to 0", name)
		}
	}
	if env.Has("sin") {
		t.Error("function name interned as a variable")
	}
}

func TestBlockSequentialVisibility(t *testing.T) {
	ev := newTestEvaluator()
	block := ev.Compile([]string{
		"a = 2",
		"b = a * 3",
		"a = b + 1",
	})
	if failed := ev.Run(block); failed != 0 {
		t.Fatalf("%d statements failed", failed)
	}
	if v, _ := ev.Env().Get("b"); v != 6 {
		t.Errorf("b = %v, want 6", v)
	}
	if v, _ := ev.Env().Get("a"); v != 7 {
		t.Errorf("a = %v, want 7", v)
	}
}

func TestFaultIsolation(t *testing.T) {
	// A domain error mid-block keeps the target's prior value and keeps going.
	ev := newTestEvaluator()
	block := ev.Compile([]string{
		"a = 1",
		"b = sqrt(-1)",
		"c = a + 2",
	})
	failed := ev.Run(block)
	if failed != 1 {
		t.Fatalf("failed = %d, want 1", failed)
	}
	if v, _ := ev.Env().Get("a"); v != 1 {
		t.Errorf("a = %v, want 1", v)
	}
	if v, _ := ev.Env().Get("b"); v != 0 {
		t.Errorf("b = %v, want prior value 0", v)
	}
	if v, _ := ev.Env().Get("c"); v != 3 {
		t.Errorf("c = %v, want 3", v)
	}
}

func TestParseErrorIsolation(t *testing.T) {
	ev := newTestEvaluator()
	block := ev.Compile([]string{
		"a = 1",
		"b = )broken(",
		"c = a + 2",
	})
	failed := ev.Run(block)
	if failed != 1 {
		t.Fatalf("failed = %d, want 1", failed)
	}
	if v, _ := ev.Env().Get("c"); v != 3 {
		t.Errorf("c = %v, want 3", v)
	}
}

func TestPerFrameScenario(t *testing.T) {
	// per_frame_1=zoom = 1 / per_frame_2=x = if(above(bass,0.5),1,0)
	ev := newTestEvaluator()
	ev.Env().Set("bass", 0.6)
	block := ev.Compile([]string{
		"zoom = 1",
		"x = if(above(bass,0.5),1,0)",
	})
	if failed := ev.Run(block); failed != 0 {
		t.Fatalf("%d statements failed", failed)
	}
	if v, _ := ev.Env().Get("zoom"); v != 1.0 {
		t.Errorf("zoom = %v, want 1.0", v)
	}
	if v, _ := ev.Env().Get("x"); v != 1.0 {
		t.Errorf("x = %v, want 1.0", v)
	}
}

func TestPixelPassIsolation(t *testing.T) {
	ev := newTestEvaluator()
	env := ev.Env()
	env.Set("zoom", 1.0)
	env.Set("q1", 10.0)

	block := ev.Compile([]string{
		"zoom = zoom + 0.1*rad",
		"q1 = q1 + 1",
	})

	env.BeginPixelPass()
	env.SetPixel(0.5, 0.5, 0.5, 0.0)
	if failed := ev.Run(block); failed != 0 {
		t.Fatalf("pixel block failed")
	}
	if v, _ := env.Get("zoom"); math.Abs(v-1.05) > eps {
		t.Errorf("zoom during pass = %v, want 1.05", v)
	}
	env.EndPixelPass()

	// zoom reverts after the pass, q1 survives.
	if v, _ := env.Get("zoom"); v != 1.0 {
		t.Errorf("zoom after pass = %v, want 1.0", v)
	}
	if v, _ := env.Get("q1"); v != 11.0 {
		t.Errorf("q1 after pass = %v, want 11", v)
	}
}

func TestQVariables(t *testing.T) {
	ev := newTestEvaluator()
	block := ev.Compile([]string{"q1 = 42", "q2 = q1 * 2"})
	if failed := ev.Run(block); failed != 0 {
		t.Fatalf("block failed")
	}
	if v, _ := ev.Env().Get("q1"); v != 42 {
		t.Errorf("q1 = %v, want 42", v)
	}
	if v, _ := ev.Env().Get("q2"); v != 84 {
		t.Errorf("q2 = %v, want 84", v)
	}
}

func TestRandDeterministicWithSeed(t *testing.T) {
	run := func() []float64 {
		ev := NewEvaluator(NewEnv(), 7)
		var out []float64
		for i := 0; i < 5; i++ {
			v, err := ev.EvalExpression("rand(100)")
			if err != nil {
				t.Fatalf("rand: %v", err)
			}
			out = append(out, v)
		}
		return out
	}
	a, b := run(), run()
	for i := range a {
		if a[i] != b[i] {
			t.Errorf("rand sequence diverged at %d: %v vs %v", i, a[i], b[i])
		}
	}
}

func TestStatementTooLong(t *testing.T) {
	ev := newTestEvaluator()
	long := make([]byte, MaxStatementLength+1)
	for i := range long {
		long[i] = 'a'
	}
	block := ev.Compile([]string{string(long)})
	if block.Len() != 1 || block.Statements[0].Err == nil {
		t.Fatal("oversized statement not rejected")
	}
}

func TestDivisionByZeroSkipsStatement(t *testing.T) {
	ev := newTestEvaluator()
	ev.Env().Set("d", 5.0)
	block := ev.Compile([]string{"d = 1/0"})
	if failed := ev.Run(block); failed != 1 {
		t.Fatalf("failed = %d, want 1", failed)
	}
	if v, _ := ev.Env().Get("d"); v != 5.0 {
		t.Errorf("d = %v, want prior 5", v)
	}
}

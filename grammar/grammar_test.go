package grammar

import (
	"errors"
	"strings"
	"testing"
)

const arith = `
# classic left-recursive arithmetic
Sum     -> Sum     + Product
Sum     -> Product
Product -> Product * Factor
Product -> Factor
Factor  -> ( Sum )
Factor  -> Number
`

func mustParse(t *testing.T, rules string) *Grammar {
	t.Helper()
	g, err := Parse(rules)
	if err != nil {
		t.Fatalf("parse rules: %v", err)
	}
	return g
}

func TestParse_NonTerminalsComeFirst(t *testing.T) {
	g := mustParse(t, arith)

	if got := g.NumNonTerminals(); got != 3 {
		t.Fatalf("expected 3 non-terminals, got %d", got)
	}
	if got := g.NumSymbols(); got != 8 {
		t.Fatalf("expected 8 symbols, got %d", got)
	}

	for _, name := range []string{"Sum", "Product", "Factor"} {
		id, ok := g.NonTerminal(name)
		if !ok {
			t.Errorf("%s should be a non-terminal", name)
			continue
		}
		if int(id) >= g.NumNonTerminals() {
			t.Errorf("%s has id %d outside [0, K)", name, id)
		}
	}
	for _, name := range []string{"+", "*", "(", ")", "Number"} {
		id, ok := g.Terminal(name)
		if !ok {
			t.Errorf("%s should be a terminal", name)
			continue
		}
		if !g.IsTerminal(id) {
			t.Errorf("%s (id %d) classified as non-terminal", name, id)
		}
	}
}

func TestParse_LateNonTerminalStillBelowK(t *testing.T) {
	// B is used on a right-hand side before its own rule appears.
	g := mustParse(t, "A -> x B\nB -> y\n")

	b, ok := g.NonTerminal("B")
	if !ok {
		t.Fatal("B should be a non-terminal")
	}
	if b != 1 {
		t.Errorf("expected B to get id 1, got %d", b)
	}
	x, _ := g.Lookup("x")
	if int(x) < g.NumNonTerminals() {
		t.Errorf("terminal x got id %d below K=%d", x, g.NumNonTerminals())
	}
}

func TestParse_IdenticalRulesStayDistinct(t *testing.T) {
	g := mustParse(t, "S -> a\nS -> a\n")

	prods := g.ProductionsFor(0)
	if len(prods) != 2 {
		t.Fatalf("expected 2 productions for S, got %d", len(prods))
	}
	if prods[0] == prods[1] {
		t.Error("identical rules on different lines must have different ids")
	}
	if g.Production(prods[0]).Line != 1 || g.Production(prods[1]).Line != 2 {
		t.Errorf("unexpected lines %d, %d", g.Production(prods[0]).Line, g.Production(prods[1]).Line)
	}
}

func TestParse_EpsilonRule(t *testing.T) {
	g := mustParse(t, "S -> a S\nS ->\n")

	prods := g.ProductionsFor(0)
	if len(prods) != 2 {
		t.Fatalf("expected 2 productions, got %d", len(prods))
	}
	if n := len(g.Production(prods[1]).RHS()); n != 0 {
		t.Errorf("expected empty right-hand side, got %d symbols", n)
	}
}

func TestParse_Errors(t *testing.T) {
	tests := []struct {
		name  string
		rules string
		line  int
		want  error
	}{
		{"empty", "", 0, ErrNoProductions},
		{"only comments", "# nothing\n\n   # here\n", 0, ErrNoProductions},
		{"missing arrow", "S -> a\nT\n", 2, ErrMalformedLine},
		{"arrow not second", "S a -> b\n", 1, ErrMalformedLine},
		{"line numbers count skipped lines", "# c\n\nS -> a\nS = b\n", 4, ErrMalformedLine},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse(tt.rules)
			if err == nil {
				t.Fatal("expected an error")
			}
			if !errors.Is(err, tt.want) {
				t.Errorf("expected %v, got %v", tt.want, err)
			}
			var gerr *Error
			if !errors.As(err, &gerr) {
				t.Fatalf("expected *Error, got %T", err)
			}
			if gerr.Line != tt.line {
				t.Errorf("expected line %d, got %d", tt.line, gerr.Line)
			}
		})
	}
}

func TestError_Messages(t *testing.T) {
	if got := (&Error{Err: ErrNoProductions}).Error(); got != "grammar: empty rules" {
		t.Errorf("unexpected message %q", got)
	}
	got := (&Error{Line: 3, Err: ErrMalformedLine}).Error()
	if !strings.Contains(got, "rules line 3") || !strings.Contains(got, `"lhs -> rhs1 rhs2 ..."`) {
		t.Errorf("unexpected message %q", got)
	}
}

func TestNullable(t *testing.T) {
	tests := []struct {
		name     string
		rules    string
		nullable map[string]bool
	}{
		{
			name:     "direct",
			rules:    "A ->\nB -> b\n",
			nullable: map[string]bool{"A": true, "B": false},
		},
		{
			name:     "indirect chain",
			rules:    "A -> B C\nB -> C\nC ->\nD -> A d\n",
			nullable: map[string]bool{"A": true, "B": true, "C": true, "D": false},
		},
		{
			name:     "chain declared in reverse order",
			rules:    "A -> B\nB -> C\nC -> D\nD ->\n",
			nullable: map[string]bool{"A": true, "B": true, "C": true, "D": true},
		},
		{
			name:     "mutual recursion with an exit",
			rules:    "A -> B\nB -> A\nA ->\n",
			nullable: map[string]bool{"A": true, "B": true},
		},
		{
			name:     "mutual recursion without an exit",
			rules:    "A -> B\nB -> A\nA -> a\n",
			nullable: map[string]bool{"A": false, "B": false},
		},
		{
			name:     "terminal blocks",
			rules:    "A -> B x\nB ->\n",
			nullable: map[string]bool{"A": false, "B": true},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g := mustParse(t, tt.rules)
			for name, want := range tt.nullable {
				id, ok := g.NonTerminal(name)
				if !ok {
					t.Fatalf("%s is not a non-terminal", name)
				}
				if got := g.Nullable(id); got != want {
					t.Errorf("Nullable(%s) = %v, want %v", name, got, want)
				}
			}
		})
	}
}

func TestNullable_TerminalsNeverNullable(t *testing.T) {
	g := mustParse(t, "A -> a\nA ->\n")

	a, _ := g.Terminal("a")
	if g.Nullable(a) {
		t.Error("terminal reported nullable")
	}
	if g.Nullable(Symbol(g.NumSymbols() + 10)) {
		t.Error("unknown symbol reported nullable")
	}
}

func TestLookup_NormalizesNames(t *testing.T) {
	// composed U+00E9 in the rules, e + U+0301 in the lookup
	g := mustParse(t, "S -> caf\u00e9\n")

	if _, ok := g.Terminal("cafe\u0301"); !ok {
		t.Error("decomposed spelling should resolve to the same terminal")
	}
}

func TestString_OneLinePerProduction(t *testing.T) {
	g := mustParse(t, arith)

	want := strings.Join([]string{
		"Sum -> Sum + Product",
		"Sum -> Product",
		"Product -> Product * Factor",
		"Product -> Factor",
		"Factor -> ( Sum )",
		"Factor -> Number",
	}, "\n") + "\n"
	if got := g.String(); got != want {
		t.Errorf("unexpected rendering:\n%s\nwant:\n%s", got, want)
	}

	rt, err := Parse(g.String())
	if err != nil {
		t.Fatalf("re-parse rendered grammar: %v", err)
	}
	if rt.String() != g.String() {
		t.Error("rendered grammar does not round-trip")
	}
}

func TestRead(t *testing.T) {
	g, err := Read(strings.NewReader("S -> a\n"))
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if len(g.Productions()) != 1 {
		t.Errorf("expected 1 production, got %d", len(g.Productions()))
	}
}

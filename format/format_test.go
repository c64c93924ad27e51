package format

import (
	"bytes"
	"encoding/json"
	"reflect"
	"strings"
	"testing"

	"github.com/dhamidi/earley/grammar"
	"github.com/dhamidi/earley/parse"
)

const arithRules = `
Sum     -> Sum + Product
Sum     -> Product
Product -> Product * Factor
Product -> Factor
Factor  -> ( Sum )
Factor  -> Number
`

func mustParse(t *testing.T, rules, input, start string) (*parse.Chart, *parse.Forest) {
	t.Helper()
	g, err := grammar.Parse(rules)
	if err != nil {
		t.Fatalf("grammar: %v", err)
	}
	c, f, err := parse.Parse(g, strings.Fields(input), start)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	return c, f
}

func firstTree(t *testing.T, f *parse.Forest) *parse.Tree {
	t.Helper()
	trees := parse.Take(f, 1)
	if len(trees) == 0 {
		t.Fatal("expected a tree")
	}
	return trees[0]
}

func TestWriteGrammar_AlignsArrows(t *testing.T) {
	g, err := grammar.Parse("S -> A b\nLong -> x\nA ->\n")
	if err != nil {
		t.Fatalf("grammar: %v", err)
	}
	var buf bytes.Buffer
	if err := WriteGrammar(&buf, g); err != nil {
		t.Fatalf("write: %v", err)
	}
	want := "S    -> A b\nLong -> x\nA    ->\n"
	if buf.String() != want {
		t.Errorf("got:\n%s\nwant:\n%s", buf.String(), want)
	}
}

func TestWriteGrammar_WideNames(t *testing.T) {
	g, err := grammar.Parse("式 -> a\nAB -> b\n")
	if err != nil {
		t.Fatalf("grammar: %v", err)
	}
	var buf bytes.Buffer
	if err := WriteGrammar(&buf, g); err != nil {
		t.Fatalf("write: %v", err)
	}
	want := "式 -> a\nAB -> b\n"
	if buf.String() != want {
		t.Errorf("got:\n%s\nwant:\n%s", buf.String(), want)
	}
}

func TestWriteChart(t *testing.T) {
	c, _ := mustParse(t, arithRules, "Number", "Sum")

	var buf bytes.Buffer
	if err := WriteChart(&buf, c, WithColor(false)); err != nil {
		t.Fatalf("write: %v", err)
	}
	out := buf.String()
	for _, want := range []string{
		"=== 0 ===\n(Sum -> · Sum + Product, 0)\n(Sum -> · Product, 0)\n",
		"=== 1: Number ===\n(Factor -> Number ·, 0)\n",
		"(Sum -> Sum · + Product, 0)",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("chart does not contain %q:\n%s", want, out)
		}
	}
	if strings.Contains(out, "\x1b[") {
		t.Error("colour disabled but escape codes written")
	}
}

func TestWriteChart_Color(t *testing.T) {
	c, _ := mustParse(t, arithRules, "Number", "Sum")

	var buf bytes.Buffer
	if err := WriteChart(&buf, c, WithColor(true)); err != nil {
		t.Fatalf("write: %v", err)
	}
	if !strings.Contains(buf.String(), "\x1b[") {
		t.Error("expected escape codes with colour enabled")
	}
}

func TestItemString(t *testing.T) {
	g, err := grammar.Parse("A -> b c\nA ->\n")
	if err != nil {
		t.Fatalf("grammar: %v", err)
	}
	tests := []struct {
		item parse.Item
		want string
	}{
		{parse.Item{Prod: 0, Dot: 1, Origin: 0}, "(A -> · b c, 0)"},
		{parse.Item{Prod: 0, Dot: 2, Origin: 3}, "(A -> b · c, 3)"},
		{parse.Item{Prod: 0, Dot: 3, Origin: 1}, "(A -> b c ·, 1)"},
		{parse.Item{Prod: 1, Dot: 1, Origin: 2}, "(A -> ·, 2)"},
	}
	for _, tt := range tests {
		if got := ItemString(g, tt.item); got != tt.want {
			t.Errorf("got %q, want %q", got, tt.want)
		}
	}
}

func TestWriteForestDOT(t *testing.T) {
	_, f := mustParse(t, "E -> E + E\nE -> num\n", "num + num + num", "E")

	var buf bytes.Buffer
	if err := WriteForestDOT(&buf, f); err != nil {
		t.Fatalf("write: %v", err)
	}
	out := buf.String()
	if !strings.HasPrefix(out, "digraph g {\n") || !strings.HasSuffix(out, "}\n") {
		t.Errorf("not a digraph:\n%s", out)
	}
	for _, want := range []string{
		`[shape=rect, label="E -> E + E, [0, 5)"]`,
		`[shape=rect, label="E -> num, [0, 1)"]`,
		`[shape=circle, label="num"]`,
		`[shape=circle, label="+"]`,
		`circle0[shape=circle, label="", width=0.2]`,
	} {
		if !strings.Contains(out, want) {
			t.Errorf("missing %s in:\n%s", want, out)
		}
	}

	// One fan-out circle per three-child alternative: two at the root, one
	// in each of E[0,3) and E[2,5).
	if got := strings.Count(out, "width=0.2"); got != 4 {
		t.Errorf("expected 4 fan-out circles, got %d", got)
	}
}

func TestWriteTreeDOT(t *testing.T) {
	_, f := mustParse(t, arithRules, "Number", "Sum")

	var buf bytes.Buffer
	if err := WriteTreeDOT(&buf, firstTree(t, f)); err != nil {
		t.Fatalf("write: %v", err)
	}
	want := `digraph g {
  0[shape=rect, label="Sum -> Product, [0, 1)"]
  0 -> 1
  1[shape=rect, label="Product -> Factor, [0, 1)"]
  1 -> 2
  2[shape=rect, label="Factor -> Number, [0, 1)"]
  2 -> 3
  3[shape=circle, label="Number"]
}
`
	if buf.String() != want {
		t.Errorf("got:\n%s\nwant:\n%s", buf.String(), want)
	}
}

func TestJSONEncoder(t *testing.T) {
	_, f := mustParse(t, arithRules, "Number * Number", "Sum")
	tree := firstTree(t, f)

	var buf bytes.Buffer
	if err := NewJSONEncoder(&buf).Encode(tree); err != nil {
		t.Fatalf("encode: %v", err)
	}

	var got TreeNode
	if err := json.Unmarshal(buf.Bytes(), &got); err != nil {
		t.Fatalf("invalid JSON: %v\n%s", err, buf.String())
	}
	if got.Rule != "Sum -> Product" || got.Start != 0 || got.End != 3 {
		t.Errorf("unexpected root %+v", got)
	}
	if terms := strings.Join(got.Terminals(), " "); terms != "Number * Number" {
		t.Errorf("unexpected terminals %q", terms)
	}
	if !strings.Contains(buf.String(), "\n  \"rule\"") {
		t.Errorf("expected indented output:\n%s", buf.String())
	}
}

func TestMsgpackEncoder_Decode(t *testing.T) {
	_, f := mustParse(t, "E -> E + E\nE -> num\n", "num + num + num", "E")

	var buf bytes.Buffer
	enc := NewMsgpackEncoder(&buf)
	var want []*TreeNode
	for tree := range f.Trees() {
		want = append(want, NewTreeNode(tree))
		if err := enc.Encode(tree); err != nil {
			t.Fatalf("encode: %v", err)
		}
	}
	if len(want) != 2 {
		t.Fatalf("expected 2 trees, got %d", len(want))
	}

	r := bytes.NewReader(buf.Bytes())
	for i := range want {
		got, err := DecodeMsgpack(r)
		if err != nil {
			t.Fatalf("decode %d: %v", i, err)
		}
		if !reflect.DeepEqual(got, want[i]) {
			t.Errorf("tree %d changed in transit: %+v", i, got)
		}
	}
	if _, err := DecodeMsgpack(r); err == nil {
		t.Error("expected an error after the last tree")
	}
}

func TestLineEncoder(t *testing.T) {
	_, f := mustParse(t, "S -> a S\nS ->\n", "a", "S")

	var buf bytes.Buffer
	if err := NewLineEncoder(&buf).Encode(firstTree(t, f)); err != nil {
		t.Fatalf("encode: %v", err)
	}
	want := "0\trule\t0\t1\tS -> a S\n" +
		"1\ttoken\t0\t1\ta\n" +
		"1\trule\t1\t1\tS ->\n"
	if buf.String() != want {
		t.Errorf("got:\n%q\nwant:\n%q", buf.String(), want)
	}
}

func TestEncoders(t *testing.T) {
	_, f := mustParse(t, arithRules, "Number", "Sum")
	tree := firstTree(t, f)

	var buf bytes.Buffer
	encoders := map[string]Encoder{
		"json":    NewJSONEncoder(&buf),
		"msgpack": NewMsgpackEncoder(&buf),
		"dot":     NewDOTEncoder(&buf),
		"line":    NewLineEncoder(&buf),
	}
	for name, enc := range encoders {
		buf.Reset()
		if err := enc.Encode(tree); err != nil {
			t.Errorf("%s: %v", name, err)
			continue
		}
		text, err := enc.MarshalText()
		if err != nil {
			t.Errorf("%s: marshal: %v", name, err)
			continue
		}
		if !bytes.Equal(text, buf.Bytes()) {
			t.Errorf("%s: MarshalText differs from what Encode wrote", name)
		}
	}
}

func TestNewTreeNode_DeepTree(t *testing.T) {
	const n = 2000
	_, f := mustParse(t, "S -> S a\nS -> a\n", strings.Repeat("a ", n), "S")

	root := NewTreeNode(firstTree(t, f))
	if got := len(root.Terminals()); got != n {
		t.Errorf("expected %d terminals, got %d", n, got)
	}
	depth := 0
	for node := root; !node.Terminal; node = node.Children[0] {
		depth++
	}
	if depth != n {
		t.Errorf("expected depth %d, got %d", n, depth)
	}
}

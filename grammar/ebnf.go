package grammar

import (
	"errors"
	"fmt"
	"io"
	"sort"
	"strings"
	"unicode/utf8"

	"golang.org/x/exp/ebnf"
)

// ErrSyntax is reported for EBNF input that cannot be turned into rules.
var ErrSyntax = errors.New("invalid EBNF")

// ParseEBNF builds a grammar from EBNF in the notation of golang.org/x/exp/ebnf
// (the notation of the Go specification).
//
// Every alternative becomes one production. Groups, options and repetitions
// are lifted into helper non-terminals named after the production that uses
// them, e.g. "Block·rep#1". Quoted tokens and names without a production are
// terminals. A range "a" … "z" expands to one alternative per character.
func ParseEBNF(filename string, r io.Reader) (*Grammar, error) {
	if filename == "" {
		filename = "<input>"
	}
	eg, err := ebnf.Parse(filename, r)
	if err != nil {
		return nil, &Error{Line: errorLine(filename, err), Err: fmt.Errorf("%w: %v", ErrSyntax, err)}
	}
	if len(eg) == 0 {
		return nil, &Error{Err: ErrNoProductions}
	}

	names := make([]string, 0, len(eg))
	for name := range eg {
		names = append(names, name)
	}
	sort.Strings(names)

	d := &desugarer{grammar: eg, counts: make(map[string]int)}
	var rules []rule
	for _, name := range names {
		prod := eg[name]
		alts, err := d.alternatives(name, prod.Expr)
		if err != nil {
			return nil, err
		}
		for _, alt := range alts {
			rules = append(rules, rule{line: prod.Name.Pos().Line, lhs: name, rhs: alt})
		}
	}
	rules = append(rules, d.helpers...)
	return build(rules), nil
}

// errorLine recovers the line from a "filename:line:column: message" error.
// When ebnf.Parse reports several errors the text starts with the first.
func errorLine(filename string, err error) int {
	rest, ok := strings.CutPrefix(err.Error(), filename+":")
	if !ok {
		return 1
	}
	var line int
	if _, scanErr := fmt.Sscanf(rest, "%d", &line); scanErr != nil || line < 1 {
		return 1
	}
	return line
}

type desugarer struct {
	grammar ebnf.Grammar
	helpers []rule
	counts  map[string]int
}

func (d *desugarer) fresh(owner, kind string) string {
	d.counts[owner]++
	return fmt.Sprintf("%s·%s#%d", owner, kind, d.counts[owner])
}

func (d *desugarer) emit(line int, lhs string, alts [][]string) {
	for _, alt := range alts {
		d.helpers = append(d.helpers, rule{line: line, lhs: lhs, rhs: alt})
	}
}

// alternatives returns the right-hand sides that expr stands for.
func (d *desugarer) alternatives(owner string, expr ebnf.Expression) ([][]string, error) {
	switch e := expr.(type) {
	case nil:
		return [][]string{{}}, nil
	case ebnf.Alternative:
		var alts [][]string
		for _, x := range e {
			sub, err := d.alternatives(owner, x)
			if err != nil {
				return nil, err
			}
			alts = append(alts, sub...)
		}
		return alts, nil
	case ebnf.Sequence:
		alt := make([]string, 0, len(e))
		for _, x := range e {
			sym, err := d.symbol(owner, x)
			if err != nil {
				return nil, err
			}
			alt = append(alt, sym)
		}
		return [][]string{alt}, nil
	case *ebnf.Range:
		return rangeAlternatives(e)
	default:
		sym, err := d.symbol(owner, expr)
		if err != nil {
			return nil, err
		}
		return [][]string{{sym}}, nil
	}
}

// symbol returns the single grammar symbol standing for expr, creating a
// helper non-terminal when expr is compound.
func (d *desugarer) symbol(owner string, expr ebnf.Expression) (string, error) {
	line := expr.Pos().Line
	switch e := expr.(type) {
	case *ebnf.Name:
		return e.String, nil
	case *ebnf.Token:
		if e.String == "" {
			return "", &Error{Line: line, Err: fmt.Errorf("%w: empty token", ErrSyntax)}
		}
		if _, ok := d.grammar[e.String]; ok {
			return "", &Error{Line: line, Err: fmt.Errorf("%w: token %q is also a production name", ErrSyntax, e.String)}
		}
		return e.String, nil
	case *ebnf.Group:
		h := d.fresh(owner, "grp")
		alts, err := d.alternatives(owner, e.Body)
		if err != nil {
			return "", err
		}
		d.emit(line, h, alts)
		return h, nil
	case *ebnf.Option:
		h := d.fresh(owner, "opt")
		alts, err := d.alternatives(owner, e.Body)
		if err != nil {
			return "", err
		}
		d.emit(line, h, append([][]string{{}}, alts...))
		return h, nil
	case *ebnf.Repetition:
		h := d.fresh(owner, "rep")
		alts, err := d.alternatives(owner, e.Body)
		if err != nil {
			return "", err
		}
		rec := make([][]string, 0, len(alts)+1)
		rec = append(rec, []string{})
		for _, alt := range alts {
			rec = append(rec, append([]string{h}, alt...))
		}
		d.emit(line, h, rec)
		return h, nil
	case *ebnf.Range:
		h := d.fresh(owner, "rng")
		alts, err := rangeAlternatives(e)
		if err != nil {
			return "", err
		}
		d.emit(line, h, alts)
		return h, nil
	case ebnf.Alternative, ebnf.Sequence:
		h := d.fresh(owner, "grp")
		alts, err := d.alternatives(owner, e)
		if err != nil {
			return "", err
		}
		d.emit(line, h, alts)
		return h, nil
	}
	return "", &Error{Line: line, Err: fmt.Errorf("%w: unexpected %T", ErrSyntax, expr)}
}

func rangeAlternatives(r *ebnf.Range) ([][]string, error) {
	lo, hi := r.Begin.String, r.End.String
	if utf8.RuneCountInString(lo) != 1 || utf8.RuneCountInString(hi) != 1 {
		return nil, &Error{Line: r.Pos().Line, Err: fmt.Errorf("%w: range bounds %q … %q must be single characters", ErrSyntax, lo, hi)}
	}
	from, _ := utf8.DecodeRuneInString(lo)
	to, _ := utf8.DecodeRuneInString(hi)
	if from > to {
		return nil, &Error{Line: r.Pos().Line, Err: fmt.Errorf("%w: empty range %q … %q", ErrSyntax, lo, hi)}
	}
	alts := make([][]string, 0, to-from+1)
	for c := from; c <= to; c++ {
		alts = append(alts, []string{string(c)})
	}
	return alts, nil
}

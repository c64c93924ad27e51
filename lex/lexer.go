// Package lex splits text into the terminal names a grammar is written over,
// using the lexical productions of an EBNF grammar.
package lex

import (
	"errors"
	"fmt"
	"io"
	"sort"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/tliron/commonlog"
	"golang.org/x/exp/ebnf"
)

var log = commonlog.GetLogger("earley.lex")

// ErrNoMatch is wrapped by every Error.
var ErrNoMatch = errors.New("no token matches")

// Position is a location in the input. Line and Column count from 1; Column
// counts runes.
type Position struct {
	Filename string
	Offset   int
	Line     int
	Column   int
}

func (p Position) String() string {
	if p.Filename != "" {
		return fmt.Sprintf("%s:%d:%d", p.Filename, p.Line, p.Column)
	}
	return fmt.Sprintf("%d:%d", p.Line, p.Column)
}

// Token is one lexeme. Kind is the name of the production that matched it.
type Token struct {
	Kind     string
	Literal  string
	Position Position
}

func (t Token) String() string {
	return fmt.Sprintf("%s %s %q", t.Position, t.Kind, t.Literal)
}

// Error reports input that no token production matches.
type Error struct {
	Position Position
	Char     rune
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s: %v at %q", e.Position, ErrNoMatch, e.Char)
}

func (e *Error) Unwrap() error {
	return ErrNoMatch
}

type memoKey struct {
	name   string
	offset int
}

// Lexer produces tokens by longest match over a fixed list of token
// productions. When two productions match the same length the one listed
// first wins. White space between tokens is skipped.
type Lexer struct {
	grammar  ebnf.Grammar
	kinds    []string
	input    string
	filename string
	pos      int
	line     int
	column   int
	memo     map[memoKey]int // match length, -1 for no match
	visiting map[memoKey]bool
	cut      bool // a production in progress was reached again
}

// New creates a lexer for input. kinds names the token productions in
// priority order; without kinds every lexical production of g (one whose
// name starts with a lower-case letter) is a token, in name order.
func New(g ebnf.Grammar, input, filename string, kinds ...string) *Lexer {
	if len(kinds) == 0 {
		for name, prod := range g {
			if prod.Expr != nil && isLexical(name) {
				kinds = append(kinds, name)
			}
		}
		sort.Strings(kinds)
	}
	return &Lexer{
		grammar:  g,
		kinds:    kinds,
		input:    input,
		filename: filename,
		line:     1,
		column:   1,
		memo:     make(map[memoKey]int),
		visiting: make(map[memoKey]bool),
	}
}

// Load reads an EBNF grammar for use with New.
func Load(filename string, r io.Reader) (ebnf.Grammar, error) {
	g, err := ebnf.Parse(filename, r)
	if err != nil {
		return nil, fmt.Errorf("parse lexical grammar: %w", err)
	}
	return g, nil
}

func isLexical(name string) bool {
	ch, _ := utf8.DecodeRuneInString(name)
	return unicode.IsLower(ch)
}

// Position returns the current position in the input.
func (l *Lexer) Position() Position {
	return Position{
		Filename: l.filename,
		Offset:   l.pos,
		Line:     l.line,
		Column:   l.column,
	}
}

func (l *Lexer) advance(n int) {
	for _, ch := range l.input[l.pos : l.pos+n] {
		if ch == '\n' {
			l.line++
			l.column = 1
		} else {
			l.column++
		}
	}
	l.pos += n
}

func (l *Lexer) skipSpace() {
	for l.pos < len(l.input) {
		ch, size := utf8.DecodeRuneInString(l.input[l.pos:])
		if !unicode.IsSpace(ch) {
			return
		}
		l.advance(size)
	}
}

// Next returns the next token, or io.EOF at the end of the input.
func (l *Lexer) Next() (Token, error) {
	l.skipSpace()
	if l.pos >= len(l.input) {
		return Token{}, io.EOF
	}

	start := l.Position()
	clear(l.memo)

	var kind string
	best := 0
	for _, name := range l.kinds {
		clear(l.visiting)
		l.cut = false
		if n := l.matchName(name, l.pos); n > best {
			best = n
			kind = name
		}
	}

	if best == 0 {
		ch, _ := utf8.DecodeRuneInString(l.input[l.pos:])
		return Token{}, &Error{Position: start, Char: ch}
	}

	tok := Token{Kind: kind, Literal: l.input[l.pos : l.pos+best], Position: start}
	l.advance(best)
	return tok, nil
}

// All reads every remaining token.
func (l *Lexer) All() ([]Token, error) {
	var tokens []Token
	for {
		tok, err := l.Next()
		if errors.Is(err, io.EOF) {
			log.Debugf("%s: %d tokens", l.filename, len(tokens))
			return tokens, nil
		}
		if err != nil {
			return tokens, err
		}
		tokens = append(tokens, tok)
	}
}

// match returns the length of the longest prefix of input[offset:] that expr
// matches, or 0.
func (l *Lexer) match(expr ebnf.Expression, offset int) int {
	switch e := expr.(type) {
	case *ebnf.Token:
		if strings.HasPrefix(l.input[offset:], e.String) {
			return len(e.String)
		}
		return 0

	case *ebnf.Range:
		return l.matchRange(e.Begin.String, e.End.String, offset)

	case ebnf.Sequence:
		pos := offset
		for _, item := range e {
			n := l.match(item, pos)
			if n == 0 && !l.mayBeEmpty(item) {
				return 0
			}
			pos += n
		}
		return pos - offset

	case ebnf.Alternative:
		best := 0
		for _, alt := range e {
			best = max(best, l.match(alt, offset))
		}
		return best

	case *ebnf.Repetition:
		pos := offset
		for {
			n := l.match(e.Body, pos)
			if n == 0 {
				break
			}
			pos += n
		}
		return pos - offset

	case *ebnf.Option:
		return l.match(e.Body, offset)

	case *ebnf.Group:
		return l.match(e.Body, offset)

	case *ebnf.Name:
		return l.matchName(e.String, offset)
	}
	return 0
}

// mayBeEmpty reports whether a zero-length match of expr still counts as a
// match inside a sequence.
func (l *Lexer) mayBeEmpty(expr ebnf.Expression) bool {
	switch expr.(type) {
	case *ebnf.Option, *ebnf.Repetition:
		return true
	}
	return false
}

// matchName matches a production, memoized per offset. A production that
// reaches itself at the same offset fails there, and results that depend on
// such a failure are not memoized.
func (l *Lexer) matchName(name string, offset int) int {
	key := memoKey{name: name, offset: offset}
	if n, ok := l.memo[key]; ok {
		return max(n, 0)
	}
	if l.visiting[key] {
		l.cut = true
		return 0
	}
	prod, ok := l.grammar[name]
	if !ok || prod.Expr == nil {
		l.memo[key] = -1
		return 0
	}

	outer := l.cut
	l.cut = false
	l.visiting[key] = true
	n := l.match(prod.Expr, offset)
	delete(l.visiting, key)
	cut := l.cut
	l.cut = outer || cut

	if cut {
		return n
	}
	if n == 0 {
		l.memo[key] = -1
	} else {
		l.memo[key] = n
	}
	return n
}

func (l *Lexer) matchRange(begin, end string, offset int) int {
	if offset >= len(l.input) {
		return 0
	}
	lo, n1 := utf8.DecodeRuneInString(begin)
	hi, n2 := utf8.DecodeRuneInString(end)
	if n1 != len(begin) || n2 != len(end) {
		return 0
	}
	ch, size := utf8.DecodeRuneInString(l.input[offset:])
	if ch >= lo && ch <= hi {
		return size
	}
	return 0
}

// Kinds returns the Kind of every token, the form parse.Parse takes as input.
func Kinds(tokens []Token) []string {
	kinds := make([]string, len(tokens))
	for i, t := range tokens {
		kinds[i] = t.Kind
	}
	return kinds
}

package grammar

import (
	"errors"
	"fmt"
)

var (
	// ErrNoProductions is reported when the rule text has no rule lines at all.
	ErrNoProductions = errors.New("empty rules")

	// ErrMalformedLine is reported for a rule line that is not "lhs -> rhs...".
	ErrMalformedLine = errors.New(`not in the form of "lhs -> rhs1 rhs2 ..."`)
)

// Error describes a rejected grammar. Line is 1-based; 0 means the text had no
// rules at all.
type Error struct {
	Line int
	Err  error
}

func (e *Error) Error() string {
	if e.Line == 0 {
		return "grammar: " + e.Err.Error()
	}
	return fmt.Sprintf("grammar: rules line %d is %v", e.Line, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

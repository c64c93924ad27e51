package format

import (
	"encoding/json"
	"io"

	"github.com/dhamidi/earley/parse"
)

type JSONEncoder struct {
	w    io.Writer
	tree *parse.Tree
}

func NewJSONEncoder(w io.Writer) *JSONEncoder {
	return &JSONEncoder{w: w}
}

func (e *JSONEncoder) Encode(tree *parse.Tree) error {
	e.tree = tree
	text, err := e.MarshalText()
	if err != nil {
		return err
	}
	_, err = e.w.Write(text)
	return err
}

func (e *JSONEncoder) MarshalText() ([]byte, error) {
	return json.MarshalIndent(NewTreeNode(e.tree), "", "  ")
}

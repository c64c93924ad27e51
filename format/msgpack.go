package format

import (
	"bytes"
	"fmt"
	"io"

	"github.com/dhamidi/earley/parse"
	"github.com/vmihailenco/msgpack/v5"
)

// MsgpackEncoder writes trees as MessagePack-encoded TreeNodes.
type MsgpackEncoder struct {
	w    io.Writer
	tree *parse.Tree
}

func NewMsgpackEncoder(w io.Writer) *MsgpackEncoder {
	return &MsgpackEncoder{w: w}
}

func (e *MsgpackEncoder) Encode(tree *parse.Tree) error {
	e.tree = tree
	data, err := e.MarshalText()
	if err != nil {
		return err
	}
	_, err = e.w.Write(data)
	return err
}

// MarshalText returns the binary MessagePack form of the current tree.
func (e *MsgpackEncoder) MarshalText() ([]byte, error) {
	var buf bytes.Buffer
	enc := msgpack.NewEncoder(&buf)
	if err := enc.Encode(NewTreeNode(e.tree)); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// DecodeMsgpack reads one tree written by MsgpackEncoder.
func DecodeMsgpack(r io.Reader) (*TreeNode, error) {
	var n *TreeNode
	dec := msgpack.NewDecoder(r)
	if err := dec.Decode(&n); err != nil {
		return nil, fmt.Errorf("decode tree: %w", err)
	}
	return n, nil
}

package config

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/leapstack-labs/vcol/pkg/core"
)

// ErrInvalidLogic is the sentinel wrapped by every LogicFileError.
var ErrInvalidLogic = errors.New("invalid logic file")

// LogicFileError reports a structural problem in a logic file.
type LogicFileError struct {
	File string
	Line int
	Msg  string
}

func (e *LogicFileError) Error() string {
	switch {
	case e.File != "" && e.Line > 0:
		return fmt.Sprintf("%s:%d: %s", e.File, e.Line, e.Msg)
	case e.File != "":
		return fmt.Sprintf("%s: %s", e.File, e.Msg)
	case e.Line > 0:
		return fmt.Sprintf("line %d: %s", e.Line, e.Msg)
	}
	return e.Msg
}

// Unwrap allows errors.Is(err, ErrInvalidLogic).
func (e *LogicFileError) Unwrap() error {
	return ErrInvalidLogic
}

// LoadLogic reads and parses a logic file.
func LoadLogic(path string) (*core.Logic, error) {
	data, err := os.ReadFile(path) //nolint:gosec // path comes from configuration
	if err != nil {
		return nil, fmt.Errorf("failed to read logic file: %w", err)
	}
	logic, err := ParseLogic(data)
	if err != nil {
		var lfe *LogicFileError
		if errors.As(err, &lfe) {
			lfe.File = path
		}
		return nil, err
	}
	return logic, nil
}

// ParseLogic parses a YAML mapping of field name to postfix expression,
// keeping document order. An expression is either a sequence of tokens or
// a whitespace-separated string. An empty sequence, an empty string or
// null marks a real field.
//
//	i: []
//	b: [i, "c:3600", /]
//	g: j k +
func ParseLogic(data []byte) (*core.Logic, error) {
	logic := core.NewLogic()
	if len(bytes.TrimSpace(data)) == 0 {
		return logic, nil
	}

	var doc yaml.Node
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, &LogicFileError{Msg: err.Error()}
	}
	if doc.Kind != yaml.DocumentNode || len(doc.Content) == 0 {
		return logic, nil
	}

	root := doc.Content[0]
	if root.Kind == yaml.ScalarNode && root.Tag == "!!null" {
		return logic, nil
	}
	if root.Kind != yaml.MappingNode {
		return nil, &LogicFileError{Line: root.Line, Msg: "top level must be a mapping of field to expression"}
	}

	for i := 0; i+1 < len(root.Content); i += 2 {
		key, val := root.Content[i], root.Content[i+1]
		if key.Kind != yaml.ScalarNode || key.Value == "" {
			return nil, &LogicFileError{Line: key.Line, Msg: "field name must be a non-empty string"}
		}
		if logic.Has(key.Value) {
			return nil, &LogicFileError{Line: key.Line, Msg: fmt.Sprintf("duplicate field %q", key.Value)}
		}

		tokens, err := expressionTokens(key.Value, val)
		if err != nil {
			return nil, err
		}
		logic.Set(key.Value, tokens...)
	}
	return logic, nil
}

func expressionTokens(field string, n *yaml.Node) ([]string, error) {
	switch n.Kind {
	case yaml.ScalarNode:
		if n.Tag == "!!null" {
			return nil, nil
		}
		return strings.Fields(n.Value), nil
	case yaml.SequenceNode:
		out := make([]string, 0, len(n.Content))
		for _, item := range n.Content {
			if item.Kind != yaml.ScalarNode || item.Tag == "!!null" {
				return nil, &LogicFileError{Line: item.Line, Msg: fmt.Sprintf("field %q: tokens must be strings", field)}
			}
			out = append(out, item.Value)
		}
		return out, nil
	default:
		return nil, &LogicFileError{Line: n.Line, Msg: fmt.Sprintf("field %q: expression must be a list or a string", field)}
	}
}

// MarshalLogic renders a logic map as YAML in insertion order, using flow
// sequences for expressions. Keys and tokens are always strings, so values
// such as null or ~ are quoted.
func MarshalLogic(logic *core.Logic) ([]byte, error) {
	root := &yaml.Node{Kind: yaml.MappingNode}
	for _, e := range logic.Entries() {
		seq := &yaml.Node{Kind: yaml.SequenceNode, Style: yaml.FlowStyle}
		for _, tok := range e.Tokens {
			seq.Content = append(seq.Content, &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: tok})
		}
		root.Content = append(root.Content,
			&yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: e.Field},
			seq,
		)
	}

	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(&yaml.Node{Kind: yaml.DocumentNode, Content: []*yaml.Node{root}}); err != nil {
		return nil, err
	}
	if err := enc.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

package workflow

import (
	"bytes"
	_ "embed"
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"
)

//go:embed tables.yaml
var defaultTables []byte

// Tables bundles the three state machines the case service drives.
type Tables struct {
	Case       *Graph
	Submission *Graph
	Account    *Graph
}

type tablesFile struct {
	Graphs []GraphSpec `yaml:"graphs"`
}

// Graph names expected in a tables file.
const (
	GraphCase       = "case"
	GraphSubmission = "submission"
	GraphAccount    = "account"
)

// LoadYAML parses a tables document. All three graphs are required.
func LoadYAML(r io.Reader) (*Tables, error) {
	var f tablesFile
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&f); err != nil {
		return nil, fmt.Errorf("decode workflow tables: %w", err)
	}
	t := &Tables{}
	for _, spec := range f.Graphs {
		g, err := NewGraph(spec)
		if err != nil {
			return nil, err
		}
		switch spec.Name {
		case GraphCase:
			t.Case = g
		case GraphSubmission:
			t.Submission = g
		case GraphAccount:
			t.Account = g
		default:
			return nil, fmt.Errorf("unknown workflow graph %q", spec.Name)
		}
	}
	if t.Case == nil || t.Submission == nil || t.Account == nil {
		return nil, fmt.Errorf("workflow tables must define case, submission and account graphs")
	}
	return t, nil
}

// LoadFile reads tables from path.
func LoadFile(path string) (*Tables, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open workflow tables: %w", err)
	}
	defer f.Close()
	return LoadYAML(f)
}

// Default returns the embedded tables. It panics if the embedded document is
// invalid, which the package tests rule out.
func Default() *Tables {
	t, err := LoadYAML(bytes.NewReader(defaultTables))
	if err != nil {
		panic(err)
	}
	return t
}

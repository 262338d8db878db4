// Package script reads mutation scripts and replays them on an alignment.
//
// A script is a YAML document listing deletion, insertion and inversion events
// in the order they happen. Each event names the phylogeny node (lineage) it
// originates in.
package script

import (
	"bytes"
	_ "embed"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/xeipuuv/gojsonschema"
	"gopkg.in/yaml.v3"
)

// ErrInvalidScript is returned when a script does not match the schema.
var ErrInvalidScript = errors.New("invalid mutation script")

//go:embed schema.json
var schemaJSON []byte

// Kind of a mutation event.
type Kind string

const (
	// KindDeletion removes residues from a lineage and its descendants.
	KindDeletion Kind = "deletion"
	// KindInsertion copies donor residues into a lineage and its descendants.
	KindInsertion Kind = "insertion"
	// KindInversion reverse-complements a range of a lineage and its descendants.
	KindInversion Kind = "inversion"
)

// Coords selects how Start and Length are interpreted.
type Coords string

const (
	// CoordsSequence counts residues of the lineage's ungapped sequence.
	CoordsSequence Coords = "sequence"
	// CoordsColumn counts alignment columns.
	CoordsColumn Coords = "column"
)

// Event is one mutation.
type Event struct {
	Kind        Kind   `yaml:"kind"`
	Lineage     string `yaml:"lineage"`
	Start       int    `yaml:"start"`
	Length      int    `yaml:"length"`
	DonorOffset int    `yaml:"donor_offset,omitempty"`
	Coords      Coords `yaml:"coords,omitempty"`
}

// Script is a versioned list of events.
type Script struct {
	Version int     `yaml:"version"`
	Events  []Event `yaml:"events"`
}

// Counts returns the number of events per kind.
func (s *Script) Counts() map[Kind]int {
	counts := make(map[Kind]int, 3)
	for _, ev := range s.Events {
		counts[ev.Kind]++
	}

	return counts
}

// Parse validates data against the script schema and decodes it.
func Parse(data []byte) (*Script, error) {
	var doc any

	err := yaml.Unmarshal(data, &doc)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidScript, err)
	}

	if doc == nil {
		return nil, fmt.Errorf("%w: empty document", ErrInvalidScript)
	}

	result, err := gojsonschema.Validate(
		gojsonschema.NewBytesLoader(schemaJSON),
		gojsonschema.NewGoLoader(doc),
	)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidScript, err)
	}

	if !result.Valid() {
		msgs := make([]string, 0, len(result.Errors()))
		for _, verr := range result.Errors() {
			msgs = append(msgs, verr.Field()+": "+verr.Description())
		}

		return nil, fmt.Errorf("%w: %s", ErrInvalidScript, strings.Join(msgs, "; "))
	}

	var script Script

	err = yaml.Unmarshal(data, &script)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidScript, err)
	}

	for i := range script.Events {
		if script.Events[i].Coords == "" {
			script.Events[i].Coords = CoordsSequence
		}
	}

	return &script, nil
}

// Read parses a script from r.
func Read(r io.Reader) (*Script, error) {
	var buf bytes.Buffer

	_, err := buf.ReadFrom(r)
	if err != nil {
		return nil, fmt.Errorf("read script: %w", err)
	}

	return Parse(buf.Bytes())
}

// Load parses the script file at path.
func Load(path string) (*Script, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read script %s: %w", path, err)
	}

	script, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}

	return script, nil
}

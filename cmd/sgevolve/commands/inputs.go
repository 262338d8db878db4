// Package commands implements CLI command handlers for sgevolve.
package commands

import (
	"errors"
	"fmt"

	"github.com/Sumatoshi-tech/sgevolve/pkg/phylo"
	"github.com/Sumatoshi-tech/sgevolve/pkg/seqio"
)

var (
	// ErrMissingFlag is returned when a required path flag is empty.
	ErrMissingFlag = errors.New("missing required flag")
	// ErrNoOutput is returned when evolve is asked to write nothing.
	ErrNoOutput = errors.New("no output requested, set --xmfa or --fasta")
	// ErrTreeRequired is returned for multi-record alignments without a phylogeny.
	ErrTreeRequired = errors.New("alignment has several rows, --tree is required")
)

// loadPhylogeny reads a Newick file. Without a file, a single-record alignment
// evolves as a one-node phylogeny named after the record.
func loadPhylogeny(path string, records []seqio.Record) (*phylo.Tree, error) {
	if path == "" {
		if len(records) != 1 {
			return nil, ErrTreeRequired
		}

		return phylo.Single(records[0].Name), nil
	}

	input, err := seqio.Open(path)
	if err != nil {
		return nil, err
	}

	defer func() { _ = input.Close() }()

	tree, err := phylo.ReadNewick(input)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}

	return tree, nil
}

func loadDonor(path string) ([]byte, error) {
	if path == "" {
		return nil, nil
	}

	records, err := seqio.ReadFASTAFile(path)
	if err != nil {
		return nil, err
	}

	return seqio.DonorPool(records), nil
}

func requireFlag(name, value string) error {
	if value == "" {
		return fmt.Errorf("%w: --%s", ErrMissingFlag, name)
	}

	return nil
}

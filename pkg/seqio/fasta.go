// Package seqio reads and writes the sequence files of an evolution run.
package seqio

import (
	"errors"
	"fmt"
	"io"

	"github.com/biogo/biogo/alphabet"
	bioseqio "github.com/biogo/biogo/io/seqio"
	"github.com/biogo/biogo/io/seqio/fasta"
	"github.com/biogo/biogo/seq/linear"
)

var (
	// ErrNoSequences is returned for FASTA input without records.
	ErrNoSequences = errors.New("no sequences in input")
	// ErrMissingSequence is returned when a phylogeny node has no alignment row.
	ErrMissingSequence = errors.New("missing sequence")
	// ErrInvalidResidue is returned for letters outside the IUPAC nucleotide alphabet.
	ErrInvalidResidue = errors.New("invalid residue")
)

// ambiguousResidue replaces letters that have no complement.
const ambiguousResidue = alphabet.Letter('N')

// Record is one named FASTA sequence.
type Record struct {
	Name string
	Seq  []byte
}

// ReadFASTA reads every record from r. Gap characters are kept as-is; any other
// letter must be an IUPAC nucleotide code, as inverted blocks are complemented.
func ReadFASTA(r io.Reader) ([]Record, error) {
	template := linear.NewSeq("", nil, alphabet.DNAredundant)
	scanner := bioseqio.NewScanner(fasta.NewReader(r, template))

	var records []Record

	for scanner.Next() {
		sequence, ok := scanner.Seq().(*linear.Seq)
		if !ok {
			return nil, fmt.Errorf("unexpected sequence type %T", scanner.Seq())
		}

		if valid, pos := alphabet.DNAredundant.AllValid(sequence.Seq); !valid {
			return nil, fmt.Errorf("%w: %q at position %d of %s",
				ErrInvalidResidue, rune(sequence.Seq[pos]), pos+1, sequence.Name())
		}

		records = append(records, Record{
			Name: sequence.Name(),
			Seq:  alphabet.LettersToBytes(sequence.Seq),
		})
	}

	err := scanner.Error()
	if err != nil {
		return nil, fmt.Errorf("read fasta: %w", err)
	}

	if len(records) == 0 {
		return nil, ErrNoSequences
	}

	return records, nil
}

// ReadFASTAFile reads a FASTA file, transparently decompressing ".gz" files.
func ReadFASTAFile(path string) ([]Record, error) {
	input, err := Open(path)
	if err != nil {
		return nil, err
	}

	records, err := ReadFASTA(input)

	closeErr := input.Close()
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}

	if closeErr != nil {
		return nil, fmt.Errorf("close %s: %w", path, closeErr)
	}

	return records, nil
}

// AncestralRows orders the alignment rows by phylogeny node name. A single record
// seeds every node, as every lineage then starts from the same root sequence.
func AncestralRows(records []Record, names []string) ([][]byte, error) {
	if len(records) == 0 {
		return nil, ErrNoSequences
	}

	rows := make([][]byte, len(names))

	if len(records) == 1 {
		for i := range rows {
			rows[i] = records[0].Seq
		}

		return rows, nil
	}

	byName := make(map[string][]byte, len(records))
	for _, record := range records {
		byName[record.Name] = record.Seq
	}

	for i, name := range names {
		row, ok := byName[name]
		if !ok {
			return nil, fmt.Errorf("%w: no alignment row named %q", ErrMissingSequence, name)
		}

		rows[i] = row
	}

	return rows, nil
}

// DonorPool concatenates all records into one buffer.
func DonorPool(records []Record) []byte {
	size := 0
	for _, record := range records {
		size += len(record.Seq)
	}

	pool := make([]byte, 0, size)
	for _, record := range records {
		pool = append(pool, record.Seq...)
	}

	return pool
}

// WriteFASTA writes one record wrapped at width characters per line.
func WriteFASTA(w io.Writer, name string, sequence []byte, width int) error {
	_, err := fmt.Fprintf(w, ">%s\n", name)
	if err != nil {
		return fmt.Errorf("write fasta header: %w", err)
	}

	return WriteWrapped(w, sequence, width)
}

// WriteWrapped writes data in lines of at most width bytes. Empty data writes nothing.
func WriteWrapped(w io.Writer, data []byte, width int) error {
	if width <= 0 {
		width = len(data)
	}

	for start := 0; start < len(data); start += width {
		end := min(start+width, len(data))

		_, err := w.Write(data[start:end])
		if err != nil {
			return fmt.Errorf("write sequence: %w", err)
		}

		_, err = io.WriteString(w, "\n")
		if err != nil {
			return fmt.Errorf("write sequence: %w", err)
		}
	}

	return nil
}

// ReverseComplement returns the reverse complement of a nucleotide sequence.
// IUPAC ambiguity codes are complemented too; letters without a complement become N.
func ReverseComplement(residues []byte) []byte {
	letters := alphabet.BytesToLetters(append([]byte(nil), residues...))
	for i, letter := range letters {
		if !alphabet.DNAredundant.IsValid(letter) {
			letters[i] = ambiguousResidue
		}
	}

	sequence := linear.NewSeq("", letters, alphabet.DNAredundant)
	sequence.RevComp()

	return alphabet.LettersToBytes(sequence.Seq)
}

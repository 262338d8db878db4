package seqio

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/klauspost/compress/gzip"
	"github.com/pierrec/lz4/v4"
)

// Compression selects the encoding of output files.
type Compression string

const (
	// CompressionNone writes plain text.
	CompressionNone Compression = "none"
	// CompressionLZ4 writes an LZ4 frame.
	CompressionLZ4 Compression = "lz4"
)

// ErrUnknownCompression is returned for unsupported compression names.
var ErrUnknownCompression = errors.New("unknown compression")

// ParseCompression validates a compression name. An empty name means none.
func ParseCompression(name string) (Compression, error) {
	switch Compression(strings.ToLower(name)) {
	case "", CompressionNone:
		return CompressionNone, nil
	case CompressionLZ4:
		return CompressionLZ4, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownCompression, name)
	}
}

// Suffix returns the file name suffix for the compression.
func (c Compression) Suffix() string {
	if c == CompressionLZ4 {
		return ".lz4"
	}

	return ""
}

type gzipFile struct {
	*gzip.Reader
	file *os.File
}

func (f *gzipFile) Close() error {
	return errors.Join(f.Reader.Close(), f.file.Close())
}

// Open opens path for reading; ".gz" files are decompressed on the fly.
func Open(path string) (io.ReadCloser, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open input: %w", err)
	}

	if !strings.HasSuffix(path, ".gz") {
		return file, nil
	}

	reader, err := gzip.NewReader(file)
	if err != nil {
		return nil, errors.Join(fmt.Errorf("open gzip %s: %w", path, err), file.Close())
	}

	return &gzipFile{Reader: reader, file: file}, nil
}

type lz4File struct {
	*lz4.Writer
	file *os.File
}

func (f *lz4File) Close() error {
	return errors.Join(f.Writer.Close(), f.file.Close())
}

// Create creates the output file path, appending the compression suffix when
// path does not already carry it. It returns the writer and the final path.
func Create(path string, compression Compression) (io.WriteCloser, string, error) {
	if suffix := compression.Suffix(); suffix != "" && !strings.HasSuffix(path, suffix) {
		path += suffix
	}

	file, err := os.Create(path)
	if err != nil {
		return nil, "", fmt.Errorf("create output: %w", err)
	}

	if compression != CompressionLZ4 {
		return file, path, nil
	}

	return &lz4File{Writer: lz4.NewWriter(file), file: file}, path, nil
}

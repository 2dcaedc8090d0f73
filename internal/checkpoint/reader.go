package checkpoint

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"io"
	"os"

	"github.com/born-ml/gradnet/internal/matrix"
)

// ReaderOptions configures Read.
type ReaderOptions struct {
	SkipChecksumValidation bool // Skip checksum validation (faster but less safe)
}

// Read decodes a checkpoint written by Write.
func Read(r io.Reader, opts ...ReaderOptions) (*Checkpoint, error) {
	var opt ReaderOptions
	if len(opts) > 0 {
		opt = opts[0]
	}

	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("failed to read checkpoint: %w", err)
	}
	if len(data) < preambleSize+ChecksumSize {
		return nil, fmt.Errorf("%w: %d bytes", ErrTruncated, len(data))
	}
	if string(data[:4]) != MagicBytes {
		return nil, ErrInvalidMagic
	}
	if v := binary.LittleEndian.Uint32(data[4:8]); v != FormatVersion {
		return nil, fmt.Errorf("%w: got %d, expected %d", ErrUnsupportedVersion, v, FormatVersion)
	}

	body := data[:len(data)-ChecksumSize]
	if !opt.SkipChecksumValidation {
		var stored [ChecksumSize]byte
		copy(stored[:], data[len(body):])
		if err := ValidateChecksum(ComputeChecksum(body), stored); err != nil {
			return nil, err
		}
	}

	headerSize := binary.LittleEndian.Uint64(data[8:16])
	if headerSize > MaxHeaderSize {
		return nil, ErrHeaderTooLarge
	}
	if headerSize > uint64(len(body)-preambleSize) {
		return nil, fmt.Errorf("%w: header of %d bytes", ErrTruncated, headerSize)
	}
	headerEnd := preambleSize + int(headerSize)

	h, err := unmarshalHeader(body[preambleSize:headerEnd])
	if err != nil {
		return nil, err
	}
	tensorData := body[headerEnd:]
	if err := ValidateHeader(h, int64(len(tensorData))); err != nil {
		return nil, fmt.Errorf("validation failed: %w", err)
	}

	c := &Checkpoint{
		Epoch:     h.Epoch,
		Loss:      h.Loss,
		CreatedAt: h.CreatedAt,
		Metadata:  h.Metadata,
		Tensors:   make([]Tensor, len(h.Tensors)),
	}
	src := bytes.NewReader(tensorData)
	for i, meta := range h.Tensors {
		m := matrix.New(meta.Rows, meta.Cols)
		if _, err := m.ReadFrom(src); err != nil {
			return nil, fmt.Errorf("failed to read tensor %s: %w", meta.Name, err)
		}
		c.Tensors[i] = Tensor{Name: meta.Name, Value: m}
	}
	return c, nil
}

// LoadFile reads a checkpoint from path.
func LoadFile(path string, opts ...ReaderOptions) (*Checkpoint, error) {
	//nolint:gosec // G304: File path comes from user input, which is expected for checkpoint loading
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open file: %w", err)
	}
	defer func() { _ = f.Close() }()

	c, err := Read(f, opts...)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return c, nil
}

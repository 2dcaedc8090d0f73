package checkpoint

import (
	"bufio"
	"crypto/sha256"
	"encoding/binary"
	"fmt"
	"io"
	"os"
)

// Write encodes c to w.
func Write(w io.Writer, c *Checkpoint) error {
	h := headerOf(c)
	if err := ValidateHeader(&h, c.dataSize()); err != nil {
		return fmt.Errorf("invalid checkpoint: %w", err)
	}
	header := h.marshal()
	if len(header) > MaxHeaderSize {
		return ErrHeaderTooLarge
	}

	sum := sha256.New()
	out := io.MultiWriter(w, sum)

	if _, err := io.WriteString(out, MagicBytes); err != nil {
		return fmt.Errorf("failed to write magic bytes: %w", err)
	}
	if err := binary.Write(out, binary.LittleEndian, uint32(FormatVersion)); err != nil {
		return fmt.Errorf("failed to write version: %w", err)
	}
	if err := binary.Write(out, binary.LittleEndian, uint64(len(header))); err != nil {
		return fmt.Errorf("failed to write header size: %w", err)
	}
	if _, err := out.Write(header); err != nil {
		return fmt.Errorf("failed to write header: %w", err)
	}
	for _, t := range c.Tensors {
		if _, err := t.Value.WriteTo(out); err != nil {
			return fmt.Errorf("failed to write tensor %s: %w", t.Name, err)
		}
	}
	if _, err := w.Write(sum.Sum(nil)); err != nil {
		return fmt.Errorf("failed to write checksum: %w", err)
	}
	return nil
}

// SaveFile writes c to path, replacing any existing file.
func SaveFile(path string, c *Checkpoint) (err error) {
	//nolint:gosec // G304: File path comes from user input, which is expected for checkpoint saving
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create file: %w", err)
	}
	defer func() {
		if cerr := f.Close(); cerr != nil && err == nil {
			err = fmt.Errorf("failed to close file: %w", cerr)
		}
	}()

	bw := bufio.NewWriter(f)
	if err := Write(bw, c); err != nil {
		return err
	}
	if err := bw.Flush(); err != nil {
		return fmt.Errorf("failed to flush file: %w", err)
	}
	return nil
}

package checkpoint

import (
	"fmt"
	"strings"
)

// Validation limits for security and resource protection.
const (
	MaxHeaderSize    = 100 * 1024 * 1024 // 100MB - maximum header size
	MaxTensorCount   = 100_000           // Maximum number of tensors in a checkpoint
	MaxTensorNameLen = 4096              // Maximum tensor name length
)

// ValidateTensorName rejects empty, oversized or control-character names.
func ValidateTensorName(name string) error {
	if name == "" {
		return &ValidationError{Type: "invalid_name", Details: "empty tensor name"}
	}
	if len(name) > MaxTensorNameLen {
		return &ValidationError{
			Type:    "name_too_long",
			Tensor:  name,
			Details: fmt.Sprintf("length %d > max %d", len(name), MaxTensorNameLen),
		}
	}
	if strings.ContainsAny(name, "\x00\n") {
		return &ValidationError{
			Type:    "invalid_name",
			Tensor:  name,
			Details: "contains null byte or newline",
		}
	}
	return nil
}

// ValidateHeader checks names, shapes and that the tensor table accounts for
// exactly dataSize bytes.
func ValidateHeader(h *Header, dataSize int64) error {
	if len(h.Tensors) > MaxTensorCount {
		return fmt.Errorf("%w: got %d, max %d", ErrTooManyTensors, len(h.Tensors), MaxTensorCount)
	}

	seen := make(map[string]struct{}, len(h.Tensors))
	var total int64
	for _, t := range h.Tensors {
		if err := ValidateTensorName(t.Name); err != nil {
			return err
		}
		if _, dup := seen[t.Name]; dup {
			return fmt.Errorf("%w: %q", ErrDuplicateTensor, t.Name)
		}
		seen[t.Name] = struct{}{}

		if t.Rows < 0 || t.Cols < 0 {
			return &ValidationError{
				Type:    "invalid_shape",
				Tensor:  t.Name,
				Details: fmt.Sprintf("shape %dx%d", t.Rows, t.Cols),
			}
		}
		if t.Rows > 0 && int64(t.Cols) > dataSize/bytesPerScalar/int64(t.Rows) {
			return &ValidationError{
				Type:    "out_of_bounds",
				Tensor:  t.Name,
				Details: fmt.Sprintf("shape %dx%d exceeds the %d data bytes present", t.Rows, t.Cols, dataSize),
			}
		}
		total += t.size()
		if total > dataSize {
			return &ValidationError{
				Type:    "out_of_bounds",
				Tensor:  t.Name,
				Details: fmt.Sprintf("tensors need more than the %d data bytes present", dataSize),
			}
		}
	}
	if total != dataSize {
		return &ValidationError{
			Type:    "data_size",
			Details: fmt.Sprintf("tensors describe %d bytes, data section has %d", total, dataSize),
		}
	}
	return nil
}

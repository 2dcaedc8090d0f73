package checkpoint

import (
	"fmt"
	"math"
	"sort"
	"time"

	"google.golang.org/protobuf/encoding/protowire"
)

// Header field numbers.
const (
	fieldCreated  protowire.Number = 1 // int64 unix nanoseconds
	fieldEpoch    protowire.Number = 2 // int64
	fieldLoss     protowire.Number = 3 // double
	fieldTensor   protowire.Number = 4 // repeated TensorMeta
	fieldMetadata protowire.Number = 5 // repeated MetadataEntry

	fieldTensorName protowire.Number = 1
	fieldTensorRows protowire.Number = 2
	fieldTensorCols protowire.Number = 3

	fieldEntryKey   protowire.Number = 1
	fieldEntryValue protowire.Number = 2
)

// Header is the decoded checkpoint header.
type Header struct {
	CreatedAt time.Time
	Epoch     int
	Loss      float64
	Tensors   []TensorMeta
	Metadata  map[string]string
}

// TensorMeta describes one tensor in the data section.
type TensorMeta struct {
	Name string
	Rows int
	Cols int
}

// size returns the byte length of the tensor's data.
func (m TensorMeta) size() int64 { return int64(m.Rows) * int64(m.Cols) * bytesPerScalar }

// headerOf builds the header for c.
func headerOf(c *Checkpoint) Header {
	h := Header{
		CreatedAt: c.CreatedAt,
		Epoch:     c.Epoch,
		Loss:      c.Loss,
		Metadata:  c.Metadata,
		Tensors:   make([]TensorMeta, len(c.Tensors)),
	}
	for i, t := range c.Tensors {
		h.Tensors[i] = TensorMeta{Name: t.Name, Rows: t.Value.Rows(), Cols: t.Value.Cols()}
	}
	return h
}

// marshal encodes h in protobuf wire format. Metadata is written in key order
// so equal headers encode identically.
func (h *Header) marshal() []byte {
	var b []byte
	b = protowire.AppendTag(b, fieldCreated, protowire.VarintType)
	b = protowire.AppendVarint(b, uint64(h.CreatedAt.UnixNano()))
	b = protowire.AppendTag(b, fieldEpoch, protowire.VarintType)
	b = protowire.AppendVarint(b, uint64(int64(h.Epoch)))
	b = protowire.AppendTag(b, fieldLoss, protowire.Fixed64Type)
	b = protowire.AppendFixed64(b, math.Float64bits(h.Loss))

	for _, t := range h.Tensors {
		var m []byte
		m = protowire.AppendTag(m, fieldTensorName, protowire.BytesType)
		m = protowire.AppendString(m, t.Name)
		m = protowire.AppendTag(m, fieldTensorRows, protowire.VarintType)
		m = protowire.AppendVarint(m, uint64(t.Rows))
		m = protowire.AppendTag(m, fieldTensorCols, protowire.VarintType)
		m = protowire.AppendVarint(m, uint64(t.Cols))

		b = protowire.AppendTag(b, fieldTensor, protowire.BytesType)
		b = protowire.AppendBytes(b, m)
	}

	keys := make([]string, 0, len(h.Metadata))
	for k := range h.Metadata {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		var e []byte
		e = protowire.AppendTag(e, fieldEntryKey, protowire.BytesType)
		e = protowire.AppendString(e, k)
		e = protowire.AppendTag(e, fieldEntryValue, protowire.BytesType)
		e = protowire.AppendString(e, h.Metadata[k])

		b = protowire.AppendTag(b, fieldMetadata, protowire.BytesType)
		b = protowire.AppendBytes(b, e)
	}
	return b
}

// unmarshalHeader decodes a header. Unknown fields are skipped.
func unmarshalHeader(b []byte) (*Header, error) {
	h := &Header{Metadata: make(map[string]string)}
	err := walkFields(b, func(num protowire.Number, typ protowire.Type, b []byte) (int, error) {
		switch {
		case num == fieldCreated && typ == protowire.VarintType:
			v, n := protowire.ConsumeVarint(b)
			h.CreatedAt = time.Unix(0, int64(v)).UTC()
			return n, nil
		case num == fieldEpoch && typ == protowire.VarintType:
			v, n := protowire.ConsumeVarint(b)
			h.Epoch = int(int64(v))
			return n, nil
		case num == fieldLoss && typ == protowire.Fixed64Type:
			v, n := protowire.ConsumeFixed64(b)
			h.Loss = math.Float64frombits(v)
			return n, nil
		case num == fieldTensor && typ == protowire.BytesType:
			v, n := protowire.ConsumeBytes(b)
			if n < 0 {
				return n, nil
			}
			t, err := unmarshalTensorMeta(v)
			if err != nil {
				return 0, err
			}
			if len(h.Tensors) >= MaxTensorCount {
				return 0, fmt.Errorf("%w: more than %d", ErrTooManyTensors, MaxTensorCount)
			}
			h.Tensors = append(h.Tensors, t)
			return n, nil
		case num == fieldMetadata && typ == protowire.BytesType:
			v, n := protowire.ConsumeBytes(b)
			if n < 0 {
				return n, nil
			}
			k, val, err := unmarshalEntry(v)
			if err != nil {
				return 0, err
			}
			h.Metadata[k] = val
			return n, nil
		}
		return protowire.ConsumeFieldValue(num, typ, b), nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to parse header: %w", err)
	}
	return h, nil
}

func unmarshalTensorMeta(b []byte) (TensorMeta, error) {
	var t TensorMeta
	err := walkFields(b, func(num protowire.Number, typ protowire.Type, b []byte) (int, error) {
		switch {
		case num == fieldTensorName && typ == protowire.BytesType:
			v, n := protowire.ConsumeString(b)
			t.Name = v
			return n, nil
		case num == fieldTensorRows && typ == protowire.VarintType:
			v, n := protowire.ConsumeVarint(b)
			t.Rows = dim(v)
			return n, nil
		case num == fieldTensorCols && typ == protowire.VarintType:
			v, n := protowire.ConsumeVarint(b)
			t.Cols = dim(v)
			return n, nil
		}
		return protowire.ConsumeFieldValue(num, typ, b), nil
	})
	return t, err
}

func unmarshalEntry(b []byte) (key, value string, err error) {
	err = walkFields(b, func(num protowire.Number, typ protowire.Type, b []byte) (int, error) {
		switch {
		case num == fieldEntryKey && typ == protowire.BytesType:
			v, n := protowire.ConsumeString(b)
			key = v
			return n, nil
		case num == fieldEntryValue && typ == protowire.BytesType:
			v, n := protowire.ConsumeString(b)
			value = v
			return n, nil
		}
		return protowire.ConsumeFieldValue(num, typ, b), nil
	})
	return key, value, err
}

// walkFields calls field for every field in b. field returns the length of
// the value it consumed, or a negative protowire error code.
func walkFields(b []byte, field func(protowire.Number, protowire.Type, []byte) (int, error)) error {
	for len(b) > 0 {
		num, typ, n := protowire.ConsumeTag(b)
		if n < 0 {
			return protowire.ParseError(n)
		}
		b = b[n:]
		m, err := field(num, typ, b)
		if err != nil {
			return err
		}
		if m < 0 {
			return protowire.ParseError(m)
		}
		b = b[m:]
	}
	return nil
}

// dim converts a decoded dimension, mapping values that do not fit to -1 so
// validation rejects them.
func dim(v uint64) int {
	if v > math.MaxInt32 {
		return -1
	}
	return int(v)
}

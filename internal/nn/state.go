package nn

import (
	"fmt"
	"io"
)

// Persistent is implemented by layers with their own binary format.
type Persistent interface {
	Save(w io.Writer) error
	Load(r io.Reader) error
}

// Save writes the layer's persisted buffers as raw little-endian float64
// values in State order, with no header. Layers without state write nothing.
// A Persistent layer writes itself.
func Save(w io.Writer, layer any) error {
	if p, ok := layer.(Persistent); ok {
		return p.Save(w)
	}
	s, ok := layer.(Stateful)
	if !ok {
		return nil
	}
	for _, t := range s.State() {
		if _, err := t.Value.WriteTo(w); err != nil {
			return fmt.Errorf("save %s: %w", t.Name, err)
		}
	}
	return nil
}

// Load reads what Save wrote into the layer's buffers. The layer must have
// been constructed with the same shapes.
func Load(r io.Reader, layer any) error {
	if p, ok := layer.(Persistent); ok {
		return p.Load(r)
	}
	s, ok := layer.(Stateful)
	if !ok {
		return nil
	}
	for _, t := range s.State() {
		if _, err := t.Value.ReadFrom(r); err != nil {
			return fmt.Errorf("load %s: %w", t.Name, err)
		}
	}
	return nil
}

package nn

import (
	"log/slog"

	"github.com/born-ml/gradnet/internal/accel"
)

// device is the optional accelerator a layer offloads to.
//
// A failed device call is logged once and the layer drops back to host loops
// for good; nothing is retried.
type device struct {
	acc    accel.Accelerator
	logger *slog.Logger
}

func (d *device) use(a accel.Accelerator, logger *slog.Logger) {
	if logger == nil {
		logger = slog.Default()
	}
	d.acc = a
	d.logger = logger
}

func (d *device) active() bool { return d.acc != nil }

// fail reports err and detaches the accelerator.
func (d *device) fail(layer, op string, err error) {
	d.logger.Error("accelerator failed, using host loops",
		slog.String("layer", layer),
		slog.String("op", op),
		slog.String("device", d.acc.Name()),
		slog.Any("error", err),
	)
	d.acc = nil
}

// grow ensures *buf holds at least n floats, replacing it when too small.
func (d *device) grow(buf *accel.Buffer, n int) error {
	if *buf != nil && (*buf).Len() >= n {
		return nil
	}
	if *buf != nil {
		d.acc.Free(*buf)
		*buf = nil
	}
	b, err := d.acc.Alloc(n)
	if err != nil {
		return err
	}
	*buf = b
	return nil
}

// Package pin resolves logical pin identifiers to fast, non-allocating
// handles used by the channel and memchip packages.
package pin

import (
	"fmt"
	"log"

	"periph.io/x/conn/v3/gpio"
	"periph.io/x/conn/v3/gpio/gpioreg"
)

// Handle is a resolved pin ready for unconditional push-pull set/clear.
//
// It wraps the periph.io/x/conn/v3/gpio.PinIO the platform driver already
// resolved to its register pointer and bit mask; Handle adds the fixed
// out-of-range-can't-happen fast path the memory-chip driver relies on.
//
// A Handle is created once, at fixture construction, and lives for the
// process lifetime.
type Handle struct {
	name string
	io   gpio.PinIO
	last gpio.Level
}

// Resolve looks up name in the platform's pin registry (populated by
// periph.io/x/host/v3's Init, called once at boot) and returns a Handle.
func Resolve(name string) (*Handle, error) {
	p := gpioreg.ByName(name)
	if p == nil {
		return nil, fmt.Errorf("pin: no such pin %q", name)
	}
	return &Handle{name: name, io: p}, nil
}

// InitOutput configures the pin as a push-pull output, driving it to level.
func (h *Handle) InitOutput(level bool) {
	if err := h.io.Out(boolLevel(level)); err != nil {
		log.Printf("pin: %s: InitOutput: %v", h.name, err)
	}
	h.last = boolLevel(level)
}

// InitInput configures the pin as an input with pull-ups disabled, matching
// the channel contract that read-mode ports don't bias the bus.
func (h *Handle) InitInput() {
	if err := h.io.In(gpio.Float, gpio.NoEdge); err != nil {
		log.Printf("pin: %s: InitInput: %v", h.name, err)
	}
}

// Set drives the pin high. If the Handle last drove it high, no driver call
// is made; a driver error is logged and not returned.
func (h *Handle) Set() { h.write(gpio.High) }

// Clear drives the pin low.
func (h *Handle) Clear() { h.write(gpio.Low) }

// SetLevel drives the pin to an explicit level.
func (h *Handle) SetLevel(level bool) { h.write(boolLevel(level)) }

// Read samples the pin now.
func (h *Handle) Read() bool { return bool(h.io.Read()) }

// Level returns the level this Handle last drove (not a fresh sample).
func (h *Handle) Level() bool { return bool(h.last) }

func (h *Handle) write(level gpio.Level) {
	if h.last == level {
		return
	}
	if err := h.io.Out(level); err != nil {
		log.Printf("pin: %s: Out: %v", h.name, err)
		return
	}
	h.last = level
}

func boolLevel(b bool) gpio.Level { return gpio.Level(b) }

package pin

import (
	"testing"
	"time"

	"periph.io/x/conn/v3/gpio"
	"periph.io/x/conn/v3/gpio/gpioreg"
	"periph.io/x/conn/v3/physic"
)

// fakePin is a hand-rolled gpio.PinIO, the same style gpioioctl uses for its
// dummy chip/line test fixtures: no mocking library, just enough surface to
// drive the contract under test.
type fakePin struct {
	name  string
	level gpio.Level
	outs  int
}

func (f *fakePin) String() string                            { return f.name }
func (f *fakePin) Halt() error                                { return nil }
func (f *fakePin) Name() string                               { return f.name }
func (f *fakePin) Number() int                                { return -1 }
func (f *fakePin) Function() string                           { return "" }
func (f *fakePin) In(gpio.Pull, gpio.Edge) error               { return nil }
func (f *fakePin) Read() gpio.Level                            { return f.level }
func (f *fakePin) WaitForEdge(time.Duration) bool              { return false }
func (f *fakePin) DefaultPull() gpio.Pull                      { return gpio.Float }
func (f *fakePin) Pull() gpio.Pull                             { return gpio.Float }
func (f *fakePin) Out(l gpio.Level) error                      { f.level = l; f.outs++; return nil }
func (f *fakePin) PWM(gpio.Duty, physic.Frequency) error       { return nil }

func register(t *testing.T, name string) *fakePin {
	t.Helper()
	f := &fakePin{name: name}
	if err := gpioreg.Register(f); err != nil {
		t.Fatalf("gpioreg.Register(%s): %v", name, err)
	}
	return f
}

func TestResolveUnknownPin(t *testing.T) {
	if _, err := Resolve("GPIO_DOES_NOT_EXIST"); err == nil {
		t.Fatal("expected error resolving unknown pin")
	}
}

func TestSetClearAreIdempotent(t *testing.T) {
	f := register(t, "CE")
	h, err := Resolve("CE")
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	h.Set()
	h.Set()
	h.Set()
	if f.outs != 1 {
		t.Fatalf("expected a single Out() call for repeated Set(), got %d", f.outs)
	}
	if !h.Level() {
		t.Fatal("expected Level() true after Set()")
	}
	h.Clear()
	if f.outs != 2 {
		t.Fatalf("expected a second Out() call for Clear(), got %d", f.outs)
	}
	if h.Level() {
		t.Fatal("expected Level() false after Clear()")
	}
}

func TestReadSamplesNow(t *testing.T) {
	f := register(t, "DATA0")
	h, err := Resolve("DATA0")
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	f.level = gpio.High
	if !h.Read() {
		t.Fatal("expected Read() true")
	}
	f.level = gpio.Low
	if h.Read() {
		t.Fatal("expected Read() false")
	}
}

package channel

import (
	"testing"
	"time"

	"periph.io/x/conn/v3/gpio"
	"periph.io/x/conn/v3/gpio/gpioreg"
	"periph.io/x/conn/v3/physic"

	"chipprobe/pin"
)

type fakeGPIO struct {
	name  string
	level gpio.Level
}

func (f *fakeGPIO) String() string                      { return f.name }
func (f *fakeGPIO) Halt() error                          { return nil }
func (f *fakeGPIO) Name() string                         { return f.name }
func (f *fakeGPIO) Number() int                          { return -1 }
func (f *fakeGPIO) Function() string                     { return "" }
func (f *fakeGPIO) In(gpio.Pull, gpio.Edge) error         { return nil }
func (f *fakeGPIO) Read() gpio.Level                      { return f.level }
func (f *fakeGPIO) WaitForEdge(time.Duration) bool        { return false }
func (f *fakeGPIO) DefaultPull() gpio.Pull                { return gpio.Float }
func (f *fakeGPIO) Pull() gpio.Pull                       { return gpio.Float }
func (f *fakeGPIO) Out(l gpio.Level) error                { f.level = l; return nil }
func (f *fakeGPIO) PWM(gpio.Duty, physic.Frequency) error { return nil }

func fakeHandle(t *testing.T, name string) (*pin.Handle, *fakeGPIO) {
	t.Helper()
	f := &fakeGPIO{name: name}
	if err := gpioreg.Register(f); err != nil {
		t.Fatalf("gpioreg.Register(%s): %v", name, err)
	}
	h, err := pin.Resolve(name)
	if err != nil {
		t.Fatalf("pin.Resolve(%s): %v", name, err)
	}
	return h, f
}

func TestPortSliceRoundTrip(t *testing.T) {
	var pins []*pin.Handle
	var raw []*fakeGPIO
	for i := 0; i < 8; i++ {
		h, f := fakeHandle(t, "PS"+string(rune('A'+i)))
		pins = append(pins, h)
		raw = append(raw, f)
	}
	ps := NewPortSlice(pins, 0)
	ps.InitOutput()
	ps.Output(0xA5)
	for i, f := range raw {
		want := (0xA5>>uint(i))&1 == 1
		if bool(f.level) != want {
			t.Fatalf("bit %d: got %v want %v", i, f.level, want)
		}
	}

	ps.InitInput()
	for i, f := range raw {
		f.level = gpio.Level((0x3C >> uint(i)) & 1)
		_ = f
	}
	if got := ps.Input(); got != 0x3C {
		t.Fatalf("Input() = %#x, want 0x3c", got)
	}
}

func TestPortSliceValueStartBit(t *testing.T) {
	h, f := fakeHandle(t, "PSShift")
	ps := NewPortSlice([]*pin.Handle{h}, 3)
	ps.InitOutput()
	ps.Output(1 << 3)
	if !bool(f.level) {
		t.Fatal("expected bit driven high")
	}
	ps.InitInput()
	f.level = gpio.High
	if got := ps.Input(); got != 1<<3 {
		t.Fatalf("Input() = %#x, want %#x", got, uint32(1<<3))
	}
}

func TestSoftwareShiftRegisterMSBFirstAndLatch(t *testing.T) {
	data, dataRaw := fakeHandle(t, "SRData")
	shift, shiftRaw := fakeHandle(t, "SRShift")
	latch, latchRaw := fakeHandle(t, "SRLatch")
	sr := NewSoftwareShiftRegister(data, shift, latch, 8)
	sr.InitOutput()
	sr.Output(0x96)
	// MSB first means bit 0 (0 in 0x96) is the last bit put on the data pin.
	if bool(dataRaw.level) {
		t.Fatal("expected data pin left at bit 0 (low) after Output")
	}
	if bool(shiftRaw.level) {
		t.Fatal("expected shift pin left low after Output")
	}
	if bool(latchRaw.level) {
		t.Fatal("expected latch pin left low after Output (pulsed, not held)")
	}
}

func TestChannelSetFanOutAndFanIn(t *testing.T) {
	aH, aRaw := fakeHandle(t, "SetA")
	bH, bRaw := fakeHandle(t, "SetB")
	out := NewOutputChannelSet(NewPortSlice([]*pin.Handle{aH}, 0), NewPortSlice([]*pin.Handle{bH}, 0))
	out.InitOutput()
	out.Output(1)
	if !bool(aRaw.level) || !bool(bRaw.level) {
		t.Fatal("expected both children driven high")
	}

	loH, _ := fakeHandle(t, "SetLo")
	hiH, _ := fakeHandle(t, "SetHi")
	lo := NewPortSlice([]*pin.Handle{loH}, 0)
	hi := NewPortSlice([]*pin.Handle{hiH}, 1)
	in := NewInputChannelSet(lo, hi)
	in.InitInput()
	loH.SetLevel(true)
	hiH.SetLevel(true)
	if got := in.Input(); got != 0x3 {
		t.Fatalf("Input() = %#x, want 0x3", got)
	}
}

package fixture

import (
	"encoding/json"
	"testing"
	"time"

	"periph.io/x/conn/v3/gpio"
	"periph.io/x/conn/v3/gpio/gpioreg"
	"periph.io/x/conn/v3/physic"
)

func TestDefaultConfigDecodes(t *testing.T) {
	cfg, err := DefaultConfig()
	if err != nil {
		t.Fatalf("DefaultConfig: %v", err)
	}
	if cfg.Board == "" {
		t.Fatal("expected a board name")
	}
	if len(cfg.DataPins) != 8 {
		t.Fatalf("expected 8 data pins, got %d", len(cfg.DataPins))
	}
	if cfg.Address.Mode != AddressPortSlice {
		t.Fatalf("expected portslice address mode, got %q", cfg.Address.Mode)
	}
	if len(cfg.Address.Pins) != 16 {
		t.Fatalf("expected 16 address pins, got %d", len(cfg.Address.Pins))
	}
}

func TestConfigRoundTripsThroughJSON(t *testing.T) {
	cfg, err := DefaultConfig()
	if err != nil {
		t.Fatalf("DefaultConfig: %v", err)
	}
	data, err := json.Marshal(cfg)
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}
	var got Config
	if err := json.Unmarshal(data, &got); err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}
	if got.Board != cfg.Board || got.Power != cfg.Power {
		t.Fatalf("round trip mismatch: got %+v, want %+v", got, cfg)
	}
}

type fakePin struct {
	name  string
	level gpio.Level
}

func (f *fakePin) String() string                       { return f.name }
func (f *fakePin) Halt() error                           { return nil }
func (f *fakePin) Name() string                          { return f.name }
func (f *fakePin) Number() int                           { return -1 }
func (f *fakePin) Function() string                      { return "" }
func (f *fakePin) In(gpio.Pull, gpio.Edge) error          { return nil }
func (f *fakePin) Read() gpio.Level                       { return f.level }
func (f *fakePin) WaitForEdge(time.Duration) bool         { return false }
func (f *fakePin) DefaultPull() gpio.Pull                 { return gpio.Float }
func (f *fakePin) Pull() gpio.Pull                        { return gpio.Float }
func (f *fakePin) Out(l gpio.Level) error                 { f.level = l; return nil }
func (f *fakePin) PWM(gpio.Duty, physic.Frequency) error  { return nil }

func registerAll(t *testing.T, names []string) {
	t.Helper()
	for _, n := range names {
		if err := gpioreg.Register(&fakePin{name: n}); err != nil {
			t.Fatalf("gpioreg.Register(%s): %v", n, err)
		}
	}
}

func TestBuildWithPortSliceAddressMode(t *testing.T) {
	cfg := Config{
		Board:    "test-fixture",
		DataPins: []string{"FXD0", "FXD1"},
		CEPin:    "FXCE",
		OEPin:    "FXOE",
		WEPin:    "FXWE",
		PowerPin: "FXPWR",
		Power:    PowerLowSide,
		Address: AddressConfig{
			Mode:          AddressPortSlice,
			Pins:          []string{"FXA0", "FXA1", "FXA2"},
			ValueStartBit: 0,
		},
	}
	registerAll(t, append(append([]string{cfg.CEPin, cfg.OEPin, cfg.WEPin, cfg.PowerPin}, cfg.DataPins...), cfg.Address.Pins...))

	chip, err := Build(cfg)
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	if chip == nil {
		t.Fatal("expected a non-nil chip")
	}
}

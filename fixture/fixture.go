package fixture

import (
	"fmt"

	"periph.io/x/conn/v3/physic"
	"periph.io/x/conn/v3/spi"
	"periph.io/x/conn/v3/spi/spireg"
	"periph.io/x/host/v3"

	"chipprobe/channel"
	"chipprobe/memchip"
	"chipprobe/pin"
	"chipprobe/serialengine"
)

// Init brings up the host's GPIO/SPI drivers. Callers must run this once,
// before Build, the same way periph.io/x/host/v3 consumers call host.Init()
// before resolving anything through gpioreg.
func Init() error {
	if _, err := host.Init(); err != nil {
		return fmt.Errorf("fixture: host init: %w", err)
	}
	return nil
}

func resolvePins(names []string) ([]*pin.Handle, error) {
	handles := make([]*pin.Handle, len(names))
	for i, name := range names {
		h, err := pin.Resolve(name)
		if err != nil {
			return nil, err
		}
		handles[i] = h
	}
	return handles, nil
}

func buildAddressChannel(cfg AddressConfig) (channel.OutputChannel, error) {
	switch cfg.Mode {
	case AddressPortSlice:
		pins, err := resolvePins(cfg.Pins)
		if err != nil {
			return nil, fmt.Errorf("fixture: address portslice: %w", err)
		}
		return channel.NewPortSlice(pins, cfg.ValueStartBit), nil

	case AddressShiftReg:
		data, err := pin.Resolve(cfg.DataPin)
		if err != nil {
			return nil, fmt.Errorf("fixture: address shiftreg data pin: %w", err)
		}
		shift, err := pin.Resolve(cfg.ShiftPin)
		if err != nil {
			return nil, fmt.Errorf("fixture: address shiftreg shift pin: %w", err)
		}
		latch, err := pin.Resolve(cfg.LatchPin)
		if err != nil {
			return nil, fmt.Errorf("fixture: address shiftreg latch pin: %w", err)
		}
		return channel.NewSoftwareShiftRegister(data, shift, latch, cfg.NumBits), nil

	case AddressSPIShiftReg:
		if cfg.SPI == nil {
			return nil, fmt.Errorf("fixture: address spishiftreg: missing spi config")
		}
		port, err := spireg.Open(cfg.SPI.Port)
		if err != nil {
			return nil, fmt.Errorf("fixture: open spi port %s: %w", cfg.SPI.Port, err)
		}
		latch, err := pin.Resolve(cfg.LatchPin)
		if err != nil {
			return nil, fmt.Errorf("fixture: address spishiftreg latch pin: %w", err)
		}
		freq := physic.Frequency(cfg.SPI.FrequencyHz) * physic.Hertz
		reg, err := channel.NewSpiShiftRegister(port, freq, spi.Mode(cfg.SPI.Mode), latch, cfg.NumBits)
		if err != nil {
			return nil, fmt.Errorf("fixture: configure spi shift register: %w", err)
		}
		return reg, nil

	default:
		return nil, fmt.Errorf("fixture: unknown address mode %q", cfg.Mode)
	}
}

// Build resolves cfg against the host's registered pins and SPI ports and
// assembles a ready-to-use Chip. Init must have run first.
func Build(cfg Config) (*memchip.Chip, error) {
	address, err := buildAddressChannel(cfg.Address)
	if err != nil {
		return nil, err
	}

	dataPins, err := resolvePins(cfg.DataPins)
	if err != nil {
		return nil, fmt.Errorf("fixture: data pins: %w", err)
	}
	data := channel.NewPortSlice(dataPins, 0)

	ce, err := pin.Resolve(cfg.CEPin)
	if err != nil {
		return nil, fmt.Errorf("fixture: ce pin: %w", err)
	}
	oe, err := pin.Resolve(cfg.OEPin)
	if err != nil {
		return nil, fmt.Errorf("fixture: oe pin: %w", err)
	}
	we, err := pin.Resolve(cfg.WEPin)
	if err != nil {
		return nil, fmt.Errorf("fixture: we pin: %w", err)
	}
	power, err := pin.Resolve(cfg.PowerPin)
	if err != nil {
		return nil, fmt.Errorf("fixture: power pin: %w", err)
	}

	topology := memchip.LowSide
	if cfg.Power == PowerHighSide {
		topology = memchip.HighSide
	}

	chip := memchip.New(address, data, ce, oe, we, power, topology)
	chip.InitPins()
	return chip, nil
}

// BuildEngine builds a Chip from cfg and wraps it in a serialengine.Engine
// driving stream.
func BuildEngine(cfg Config, stream serialengine.ByteStream) (*serialengine.Engine, error) {
	chip, err := Build(cfg)
	if err != nil {
		return nil, err
	}
	return serialengine.New(stream, chip), nil
}

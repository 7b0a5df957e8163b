// Package fixture assembles a memchip.Chip and a serialengine.Engine from a
// static board/pin configuration, the way a firmware build binds abstract
// drivers to one concrete board.
package fixture

import (
	_ "embed"
	"encoding/json"
	"fmt"
	"os"
)

// AddressMode selects which channel.OutputChannel implementation backs the
// address bus.
type AddressMode string

const (
	AddressPortSlice  AddressMode = "portslice"
	AddressShiftReg   AddressMode = "shiftreg"
	AddressSPIShiftReg AddressMode = "spishiftreg"
)

// PowerPolarity names the two power-switching topologies memchip.Chip
// supports.
type PowerPolarity string

const (
	PowerLowSide  PowerPolarity = "low-side"
	PowerHighSide PowerPolarity = "high-side"
)

// SPIConfig names the SPI port and mode backing an AddressSPIShiftReg.
type SPIConfig struct {
	Port        string `json:"port"`
	FrequencyHz int64  `json:"frequencyHz"`
	Mode        int    `json:"mode"`
}

// AddressConfig describes how the address channel is wired.
type AddressConfig struct {
	Mode AddressMode `json:"mode"`

	// AddressPortSlice: direct GPIO pins, LSB first.
	Pins          []string `json:"pins,omitempty"`
	ValueStartBit uint     `json:"valueStartBit,omitempty"`

	// AddressShiftReg / AddressSPIShiftReg
	DataPin  string     `json:"dataPin,omitempty"`
	ShiftPin string     `json:"shiftPin,omitempty"`
	LatchPin string     `json:"latchPin,omitempty"`
	NumBits  int        `json:"numBits,omitempty"`
	SPI      *SPIConfig `json:"spi,omitempty"`
}

// Config is the complete fixture description: board identity, chip control
// pins, address-channel wiring, and power topology.
type Config struct {
	Board string `json:"board"`

	DataPins []string `json:"dataPins"`

	CEPin    string `json:"cePin"`
	OEPin    string `json:"oePin"`
	WEPin    string `json:"wePin"`
	PowerPin string `json:"powerPin"`

	Power   PowerPolarity `json:"power"`
	Address AddressConfig `json:"address"`
}

//go:embed default_config.json
var defaultConfigJSON []byte

// DefaultConfig returns the baked-in reference configuration: a direct
// 16-pin address bus and 8-pin data bus, low-side power switching. Useful
// as a starting point and in tests.
func DefaultConfig() (Config, error) {
	var cfg Config
	if err := json.Unmarshal(defaultConfigJSON, &cfg); err != nil {
		return Config{}, fmt.Errorf("fixture: decode default config: %w", err)
	}
	return cfg, nil
}

// LoadConfig reads and decodes a board configuration from path.
func LoadConfig(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("fixture: read config %s: %w", path, err)
	}
	var cfg Config
	if err := json.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("fixture: decode config %s: %w", path, err)
	}
	return cfg, nil
}

package channel

import (
	"fmt"

	"periph.io/x/conn/v3/physic"
	"periph.io/x/conn/v3/spi"

	"chipprobe/pin"
)

// SpiShiftRegister is a write-only, parametric-width OutputChannel driven
// by an SPI-clocked shift register (a 74HC595 wired to an SPI bus instead
// of bit-banged, or an equivalent SPI-native latch/driver).
//
// Output pulls latch low, sends the word byte-by-byte MSB-first over SPI
// at the configured frequency/mode, then pulls latch high. The caller
// (fixture construction) supplies an opened spi.Port; NewSpiShiftRegister
// connects it once, and InitOutput does not touch the SPI peripheral again,
// since periph SPI ports refuse a second Connect.
type SpiShiftRegister struct {
	conn    spi.Conn
	latch   *pin.Handle
	numBits int
	buf     []byte // fixed-size scratch, sized once at construction
}

// NewSpiShiftRegister connects port at freq/mode for an 8-bit-word SPI
// transfer and wraps it as a numBits-wide OutputChannel.
func NewSpiShiftRegister(port spi.Port, freq physic.Frequency, mode spi.Mode, latch *pin.Handle, numBits int) (*SpiShiftRegister, error) {
	conn, err := port.Connect(freq, mode, 8)
	if err != nil {
		return nil, fmt.Errorf("channel: spi shift register: %w", err)
	}
	nBytes := (numBits + 7) / 8
	return &SpiShiftRegister{conn: conn, latch: latch, numBits: numBits, buf: make([]byte, nBytes)}, nil
}

// InitOutput implements OutputChannel. The SPI peripheral itself was
// already initialized by NewSpiShiftRegister's Connect call; only the
// latch pin needs configuring here.
func (s *SpiShiftRegister) InitOutput() {
	s.latch.InitOutput(true)
}

// Output implements OutputChannel.
func (s *SpiShiftRegister) Output(word uint32) {
	nBytes := len(s.buf)
	for i := 0; i < nBytes; i++ {
		shift := uint(nBytes-1-i) * 8
		s.buf[i] = byte(word >> shift)
	}
	s.latch.Clear()
	if err := s.conn.Tx(s.buf, nil); err != nil {
		// Bus cycles can't fail at this layer per spec.md; surface would
		// require plumbing an error return through every OutputChannel.
		// A failed Tx leaves the shift register holding its prior word,
		// which the next successful Output corrects.
		return
	}
	s.latch.Set()
}

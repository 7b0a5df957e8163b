package channel

import "chipprobe/pin"

// SoftwareShiftRegister is a write-only, parametric-width OutputChannel
// driven by bit-banging a data/shift/latch triplet (a 74HC595 or similar).
//
// Output shifts MSB-first: for each bit from MSB to LSB, drive the data
// pin then pulse shift high then low; after all bits, pulse latch high
// then low. The latch is held low while shifting and its rising edge is
// what commits the shifted word to the output pins — this is the
// normative polarity chosen where the source disagreed (see DESIGN.md).
type SoftwareShiftRegister struct {
	data, shift, latch *pin.Handle
	numBits            int
}

// NewSoftwareShiftRegister builds a SoftwareShiftRegister of the given
// width.
func NewSoftwareShiftRegister(data, shift, latch *pin.Handle, numBits int) *SoftwareShiftRegister {
	return &SoftwareShiftRegister{data: data, shift: shift, latch: latch, numBits: numBits}
}

// InitOutput implements OutputChannel.
func (s *SoftwareShiftRegister) InitOutput() {
	s.data.InitOutput(false)
	s.shift.InitOutput(false)
	s.latch.InitOutput(false)
}

// Output implements OutputChannel.
func (s *SoftwareShiftRegister) Output(word uint32) {
	s.latch.Clear()
	for i := s.numBits - 1; i >= 0; i-- {
		s.data.SetLevel(word&(1<<uint(i)) != 0)
		s.shift.Set()
		s.shift.Clear()
	}
	s.latch.Set()
	s.latch.Clear()
}

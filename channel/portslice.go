package channel

import "chipprobe/pin"

// PortSlice is a bidirectional channel backed by a contiguous run of
// individually-resolved pins, one per bit. On a bare microcontroller this
// would be a single read-modify-write of one hardware port register; on
// periph's pin-at-a-time gpio.PinIO model the equivalent is driving each
// resolved pin independently, in the same declared order every time, which
// is exactly what PortSlice does.
//
// pins[i] supplies value bit (valueStartBit+i); numBits == len(pins).
type PortSlice struct {
	pins          []*pin.Handle
	valueStartBit uint
}

// NewPortSlice builds a PortSlice. pins must be ordered LSB to MSB of the
// bit field they represent within the composite word.
func NewPortSlice(pins []*pin.Handle, valueStartBit uint) *PortSlice {
	return &PortSlice{pins: pins, valueStartBit: valueStartBit}
}

// InitInput implements InputChannel.
func (p *PortSlice) InitInput() {
	for _, h := range p.pins {
		h.InitInput()
	}
}

// InitOutput implements OutputChannel.
func (p *PortSlice) InitOutput() {
	for _, h := range p.pins {
		h.InitOutput(false)
	}
}

// Input implements InputChannel: reads the masked bits and shifts them so
// the port's start bit becomes the value's start bit.
func (p *PortSlice) Input() uint32 {
	var v uint32
	for i, h := range p.pins {
		if h.Read() {
			v |= 1 << uint(i)
		}
	}
	return v << p.valueStartBit
}

// Output implements OutputChannel: the inverse shift, driving each pin in
// declaration order.
func (p *PortSlice) Output(word uint32) {
	word >>= p.valueStartBit
	for i, h := range p.pins {
		h.SetLevel(word&(1<<uint(i)) != 0)
	}
}

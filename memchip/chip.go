// Package memchip drives one parallel-bus byte-addressable memory chip:
// address/data channels and CE/OE/WE/POWER control pins, implementing the
// probe/read/write/power-cycle operations spec.md assigns to the driver.
package memchip

import (
	"time"

	"chipprobe/channel"
	"chipprobe/pin"
)

// Address bus widths the size probe walks between.
const (
	MinAddressWidth = 8
	MaxAddressWidth = 16
)

// PowerTopology selects how the POWER pin's assert/deassert sequence
// interacts with CE/OE/WE, per spec.md's two switching topologies.
type PowerTopology int

const (
	// LowSide: POWER pin high means the chip is on. powerOn/powerOff just
	// assert/deassert POWER.
	LowSide PowerTopology = iota
	// HighSide: POWER pin low means the chip is on. V+ itself is switched,
	// so powerOff/powerOn sequence every other control line around POWER to
	// avoid back-powering the chip through a floating pin.
	HighSide
)

// KnownProperties marks which fields of Properties are authoritative
// (set by the host or measured) versus unknown.
type KnownProperties struct {
	Operational bool
	Size        bool
	NonVolatile bool
	Slow        bool
}

// Properties describes the chip's essential characteristics.
type Properties struct {
	IsOperational bool
	Size          uint32
	IsNonVolatile bool
	IsSlow        bool
}

// PowerOffSettleDelay is the ≥5µs delay both power paths observe after
// switching, to cover MOSFET switching time.
var PowerOffSettleDelay = 5 * time.Microsecond

// Chip owns one memory chip: address channel (output, 16-bit), data channel
// (bidirectional, 8-bit), the four control pins, and the two property
// records.
type Chip struct {
	Address channel.OutputChannel
	Data    channel.InputOutputChannel

	ce, oe, we, power *pin.Handle
	topology          PowerTopology

	inWriteMode bool

	known KnownProperties
	props Properties
}

// New constructs a Chip. It does not touch hardware; call InitPins to bring
// the bus to a known, safe state.
func New(address channel.OutputChannel, data channel.InputOutputChannel, ce, oe, we, power *pin.Handle, topology PowerTopology) *Chip {
	return &Chip{Address: address, Data: data, ce: ce, oe: oe, we: we, power: power, topology: topology}
}

// InitPins brings the bus to a safe idle state: address channel in output
// mode, data channel in read mode, CE/OE/WE deasserted (high) and
// configured as outputs, POWER configured as output, then PowerOn. CE/OE/WE
// must be high before POWER is enabled so no spurious write occurs at
// power-up.
func (c *Chip) InitPins() {
	c.Address.InitOutput()
	c.Data.InitInput()
	c.inWriteMode = false

	c.ce.InitOutput(true)
	c.oe.InitOutput(true)
	c.we.InitOutput(true)

	switch c.topology {
	case LowSide:
		c.power.InitOutput(false)
	case HighSide:
		c.power.InitOutput(true)
	}

	c.PowerOn()
}

// PowerOn is idempotent. Behavior depends on the topology supplied at
// construction.
func (c *Chip) PowerOn() {
	switch c.topology {
	case LowSide:
		c.power.Set()
	case HighSide:
		// CE is the first line to float high on power-on.
		c.ce.Set()
		c.power.Clear()
		c.oe.Set()
		c.we.Set()
	}
	time.Sleep(PowerOffSettleDelay)
}

// PowerOff is idempotent. Behavior depends on the topology supplied at
// construction.
func (c *Chip) PowerOff() {
	switch c.topology {
	case LowSide:
		c.power.Clear()
	case HighSide:
		c.Address.Output(0)
		if c.inWriteMode {
			c.Data.Output(0)
		}
		c.oe.Clear()
		c.we.Clear()
		c.power.Set()
		// CE is the last line to float high on power-off.
		c.ce.Clear()
	}
	time.Sleep(PowerOffSettleDelay)
}

// SwitchToReadMode places the data channel in input mode.
func (c *Chip) SwitchToReadMode() {
	c.Data.InitInput()
	c.inWriteMode = false
}

// SwitchToWriteMode places the data channel in output mode.
func (c *Chip) SwitchToWriteMode() {
	c.Data.InitOutput()
	c.inWriteMode = true
}

// ReadByte performs one OE-controlled read cycle. Precondition: data
// channel is in read mode.
func (c *Chip) ReadByte(addr uint16) byte {
	c.Address.Output(uint32(addr))
	c.ce.Clear()
	c.oe.Clear()
	v := byte(c.Data.Input())
	c.ce.Set()
	c.oe.Set()
	return v
}

// WriteByte performs one CE-controlled write cycle: the WE-low window is
// wider than the CE-low window. Precondition: data channel is in write
// mode.
func (c *Chip) WriteByte(addr uint16, data byte) {
	c.Address.Output(uint32(addr))
	c.Data.Output(uint32(data))
	c.we.Clear()
	c.ce.Clear()
	c.ce.Set()
	c.we.Set()
}

// ReadBytes reads n bytes starting at addr, incrementing a 16-bit address.
// No range validation is performed.
func (c *Chip) ReadBytes(addr uint16, n int) []byte {
	out := make([]byte, n)
	for i := 0; i < n; i++ {
		out[i] = c.ReadByte(addr)
		addr++
	}
	return out
}

// WriteBytes writes src starting at addr, incrementing a 16-bit address.
// No range validation is performed.
func (c *Chip) WriteBytes(addr uint16, src []byte) {
	for _, b := range src {
		c.WriteByte(addr, b)
		addr++
	}
}

// GetProperties returns the current known-flags and property values.
func (c *Chip) GetProperties() (KnownProperties, Properties) {
	return c.known, c.props
}

// SetProperties overwrites both records wholesale, typically with values
// supplied by the host.
func (c *Chip) SetProperties(known KnownProperties, props Properties) {
	c.known = known
	c.props = props
}

// Analyze resets both property records to "nothing known" and probes
// everything.
func (c *Chip) Analyze() {
	c.known = KnownProperties{}
	c.props = Properties{}
	c.AnalyzeUnknown()
}

// AnalyzeUnknown probes only the properties not already marked known,
// restoring the entry-time data-channel direction on exit.
//
// Operational and Slow are coupled: a single pass of address-0 tests
// determines both, so either being unknown re-runs that pass. A resulting
// already-known-true Operational may be overwritten to false (the probe
// found the chip stopped answering); an already-known Slow=false may be
// upgraded to true (fast probing failed but the slower cycle succeeded).
// Size and NonVolatile are only separately probed for an operational chip;
// a non-operational chip gets them defaulted (0, false) without disturbing
// either field if it was already known.
func (c *Chip) AnalyzeUnknown() {
	wasWriting := c.inWriteMode
	defer func() {
		if wasWriting {
			c.SwitchToWriteMode()
		} else {
			c.SwitchToReadMode()
		}
	}()

	if !c.known.Operational || !c.known.Slow {
		c.probeOperationalAndSlow()
	}

	if !c.props.IsOperational {
		if !c.known.Size {
			c.props.Size = 0
			c.known.Size = true
		}
		if !c.known.NonVolatile {
			c.props.IsNonVolatile = false
			c.known.NonVolatile = true
		}
		return
	}

	if !c.known.Size {
		c.props.Size = c.testSize()
		c.known.Size = true
	}
	if !c.known.NonVolatile {
		c.props.IsNonVolatile = c.testNonVolatility()
		c.known.NonVolatile = true
	}
}

func (c *Chip) probeOperationalAndSlow() {
	switch {
	case c.testAddress(0, false):
		c.props.IsOperational = true
		c.props.IsSlow = false
	case c.testAddress(0, true):
		c.props.IsOperational = true
		c.props.IsSlow = true
	default:
		c.props.IsOperational = false
		c.props.IsSlow = false
	}
	c.known.Operational = true
	c.known.Slow = true
}

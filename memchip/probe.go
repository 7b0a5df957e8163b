package memchip

import "time"

// NonVolatilityDecayDelay is the wait between power-off and power-on during
// the non-volatility probe — long enough for SRAM retention to decay on
// typical fixture wiring. It is a hardware constant, not a protocol one;
// 10ms is the spec.md default and is deliberately a package var so tests
// can shorten it.
var NonVolatilityDecayDelay = 10 * time.Millisecond

// scratchLimit bounds the non-volatility probe's transient buffers (the
// saved copy and the 0x22 fill), which are dropped when the probe returns.
const scratchLimit = 512

// testAddress probes whether a write-then-read-back round-trips at addr.
// slow is reserved for a future EEPROM-style write-then-poll cycle; v0
// performs the same cycle either way, per spec.md's open question.
func (c *Chip) testAddress(addr uint16, slow bool) bool {
	_ = slow
	wasWriting := c.inWriteMode
	defer func() {
		if wasWriting {
			c.SwitchToWriteMode()
		} else {
			c.SwitchToReadMode()
		}
	}()

	c.SwitchToReadMode()
	original := c.ReadByte(addr)

	testByte := byte(0x5A)
	if original == 0x5A {
		testByte = 0xA5
	}

	c.SwitchToWriteMode()
	c.WriteByte(addr, testByte)

	c.SwitchToReadMode()
	readBack := c.ReadByte(addr)

	c.SwitchToWriteMode()
	c.WriteByte(addr, original)

	return readBack == testByte
}

// testSize finds the highest address the chip decodes by walking mirror
// candidates from the top of the address bus downward, per spec.md's
// mirroring algorithm.
func (c *Chip) testSize() uint32 {
	wasWriting := c.inWriteMode
	defer func() {
		if wasWriting {
			c.SwitchToWriteMode()
		} else {
			c.SwitchToReadMode()
		}
	}()

	const maxAddress = uint16(1)<<MaxAddressWidth - 1
	const k = MaxAddressWidth - MinAddressWidth + 1

	candidates := make([]uint16, k)
	for i := 0; i < k; i++ {
		candidates[i] = maxAddress >> uint(i+1)
	}

	c.SwitchToReadMode()
	saved := c.ReadByte(maxAddress)

	samples := make([]byte, k)
	for i, addr := range candidates {
		samples[i] = c.ReadByte(addr)
	}

	testByte := byte(0x5A)
	for containsByte(samples, testByte) {
		testByte++
	}

	c.SwitchToWriteMode()
	c.WriteByte(maxAddress, testByte)

	c.SwitchToReadMode()
	var size uint32
	for _, addr := range candidates {
		if c.ReadByte(addr) != testByte {
			size = (uint32(addr) << 1) + 1 + 1
			break
		}
	}

	c.SwitchToWriteMode()
	c.WriteByte(maxAddress, saved)

	return size
}

func containsByte(haystack []byte, b byte) bool {
	for _, v := range haystack {
		if v == b {
			return true
		}
	}
	return false
}

// testNonVolatility copies the first testLength bytes aside, fills them
// with 0x22, power-cycles the chip, and checks whether the fill survived.
func (c *Chip) testNonVolatility() bool {
	wasWriting := c.inWriteMode
	defer func() {
		if wasWriting {
			c.SwitchToWriteMode()
		} else {
			c.SwitchToReadMode()
		}
	}()

	testLength := c.props.Size
	if testLength > scratchLimit {
		testLength = scratchLimit
	}
	if testLength == 0 {
		return false
	}

	c.SwitchToReadMode()
	scratch := c.ReadBytes(0, int(testLength))

	fill := make([]byte, testLength)
	for i := range fill {
		fill[i] = 0x22
	}
	c.SwitchToWriteMode()
	c.WriteBytes(0, fill)

	c.PowerOff()
	time.Sleep(NonVolatilityDecayDelay)
	c.PowerOn()

	c.SwitchToReadMode()
	readBack := c.ReadBytes(0, int(testLength))
	nonVolatile := true
	for _, b := range readBack {
		if b != 0x22 {
			nonVolatile = false
			break
		}
	}

	c.SwitchToWriteMode()
	c.WriteBytes(0, scratch)

	return nonVolatile
}

// Package serialengine implements the cooperative serial protocol state
// machine: it decodes framed commands from a byte stream, drives a
// memchip.Chip, and streams read/write payloads with CRC32 integrity one
// byte per Update call. The post-write verification scan and the
// SET_AND_ANALYZE probe each run to completion within a single call.
package serialengine

import (
	"errors"
	"hash"
	"hash/crc32"

	"chipprobe/memchip"
)

// State is the engine's current point in the command lifecycle.
type State int

const (
	WaitingForCommand State = iota
	Reading
	Writing
)

// ByteStream is the byte-stream handle the engine drives commands over.
// Concrete adapters (see PortStream) wrap a real serial port;
// tests use an in-memory pair of buffers.
type ByteStream interface {
	// TryReadByte returns promptly (at most a short poll interval); ok is
	// false if no byte is currently available. Used only to detect a new
	// command without stalling the idle loop.
	TryReadByte() (b byte, ok bool)
	// ReadByte blocks up to the stream's configured serial timeout for
	// one byte; ok is false if the timeout elapsed first.
	ReadByte() (b byte, ok bool)
	Write(p []byte) (int, error)
}

var errTimeout = errors.New("serialengine: read timeout")

// Engine is the per-command streaming state machine. It owns the byte
// stream and the Chip it drives.
type Engine struct {
	stream ByteStream
	chip   *memchip.Chip

	state State

	startAddr uint16
	totalLen  uint32
	addr      uint16
	left      uint32
	crc       hash.Hash32
}

// New builds an Engine in its initial WaitingForCommand state.
func New(stream ByteStream, chip *memchip.Chip) *Engine {
	return &Engine{stream: stream, chip: chip, state: WaitingForCommand}
}

// State reports the engine's current state, mostly useful for tests.
func (e *Engine) State() State { return e.state }

// Read implements io.Reader by pulling bytes one at a time off the stream,
// honoring its configured timeout. It lets the engine reuse io.ReadFull
// and binary.Read-style helpers for multi-byte wire fields.
func (e *Engine) Read(p []byte) (int, error) {
	for i := range p {
		b, ok := e.stream.ReadByte()
		if !ok {
			return i, errTimeout
		}
		p[i] = b
	}
	return len(p), nil
}

// Update performs at most one unit of work and returns promptly. It
// returns true when the engine is mid-transfer and wants to be called
// again right away, false when idle.
func (e *Engine) Update() bool {
	switch e.state {
	case WaitingForCommand:
		return e.tickWaitingForCommand()
	case Reading:
		return e.tickReading()
	case Writing:
		return e.tickWriting()
	default:
		return false
	}
}

func (e *Engine) tickWaitingForCommand() bool {
	cmd, ok := e.stream.TryReadByte()
	if !ok {
		return false
	}
	if _, err := e.stream.Write([]byte{cmd}); err != nil {
		return false
	}
	ack, ok := e.stream.ReadByte()
	if !ok || ack != 0x00 {
		return false
	}

	switch cmd {
	case CmdGetVersion:
		_ = writeU16(e.stream, ProtocolVersion)
	case CmdSetAndAnalyze:
		e.handleSetAndAnalyze()
	case CmdRead:
		e.beginRead()
	case CmdWrite:
		e.beginWrite()
	}
	return e.state != WaitingForCommand
}

func (e *Engine) handleSetAndAnalyze() {
	known, props, err := readProperties(e)
	if err != nil {
		return
	}
	e.chip.SetProperties(known, props)
	e.chip.AnalyzeUnknown()
	newKnown, newProps := e.chip.GetProperties()
	_ = writeProperties(e.stream, newKnown, newProps)
}

func clampRange(addr, length uint32, chip *memchip.Chip) (uint32, uint32) {
	if addr > 0xFFFF {
		return 0, 0
	}
	known, props := chip.GetProperties()
	if known.Size {
		if addr >= props.Size {
			return addr, 0
		}
		if maxLen := props.Size - addr; length > maxLen {
			length = maxLen
		}
	}
	return addr, length
}

func (e *Engine) beginRead() {
	addr, err := readU32(e)
	if err != nil {
		return
	}
	length, err := readU32(e)
	if err != nil {
		return
	}
	addr, length = clampRange(addr, length, e.chip)
	if err := writeU32(e.stream, length); err != nil {
		return
	}

	e.startAddr = uint16(addr)
	e.addr = uint16(addr)
	e.totalLen = length
	e.left = length
	e.crc = crc32.NewIEEE()
	e.chip.SwitchToReadMode()
	e.state = Reading
}

func (e *Engine) tickReading() bool {
	if e.left == 0 {
		_ = writeU32(e.stream, e.crc.Sum32())
		e.state = WaitingForCommand
		return false
	}
	b := e.chip.ReadByte(e.addr)
	e.crc.Write([]byte{b})
	if _, err := e.stream.Write([]byte{b}); err != nil {
		e.state = WaitingForCommand
		return false
	}
	e.addr++
	e.left--
	return true
}

func (e *Engine) beginWrite() {
	known, props := e.chip.GetProperties()
	slowFlag := boolByte(known.Slow && props.IsSlow)
	if _, err := e.stream.Write([]byte{slowFlag}); err != nil {
		return
	}

	addr, err := readU32(e)
	if err != nil {
		return
	}
	length, err := readU32(e)
	if err != nil {
		return
	}
	addr, length = clampRange(addr, length, e.chip)
	if err := writeU32(e.stream, length); err != nil {
		return
	}

	e.startAddr = uint16(addr)
	e.addr = uint16(addr)
	e.totalLen = length
	e.left = length
	e.chip.SwitchToWriteMode()
	e.state = Writing
}

func (e *Engine) tickWriting() bool {
	if e.left == 0 {
		return e.finishWriting()
	}
	b, ok := e.stream.ReadByte()
	if !ok {
		e.state = WaitingForCommand
		return false
	}
	e.chip.WriteByte(e.addr, b)
	e.addr++
	e.left--
	return true
}

// finishWriting rescans the written range to recompute CRC32 from what was
// actually stored, then runs the pulled-bus disambiguation if every byte
// looks like a pull-up/pull-down idle value.
func (e *Engine) finishWriting() bool {
	e.chip.SwitchToReadMode()

	crc := crc32.NewIEEE()
	allPulled := true
	addr := e.startAddr
	for i := uint32(0); i < e.totalLen; i++ {
		b := e.chip.ReadByte(addr)
		crc.Write([]byte{b})
		if b != 0x00 && b != 0xFF {
			allPulled = false
		}
		addr++
	}
	_ = writeU32(e.stream, crc.Sum32())

	var errByte byte
	if allPulled {
		errByte = e.disambiguateWriteFailure()
	}
	_, _ = e.stream.Write([]byte{errByte})

	e.state = WaitingForCommand
	return false
}

func (e *Engine) disambiguateWriteFailure() byte {
	saved := e.chip.ReadByte(e.startAddr)
	e.chip.SwitchToWriteMode()
	e.chip.WriteByte(e.startAddr, 0xA5)
	e.chip.SwitchToReadMode()
	readBack := e.chip.ReadByte(e.startAddr)
	e.chip.SwitchToWriteMode()
	e.chip.WriteByte(e.startAddr, saved)
	e.chip.SwitchToReadMode()
	if readBack != 0xA5 {
		return 1
	}
	return 0
}

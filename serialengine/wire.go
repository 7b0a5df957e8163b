package serialengine

import (
	"encoding/binary"
	"io"

	"chipprobe/memchip"
)

// ProtocolVersion is emitted verbatim by GET_VERSION.
const ProtocolVersion uint16 = 0

// Command codes, see spec.md §4.D.
const (
	CmdGetVersion    byte = 0
	CmdSetAndAnalyze byte = 1
	CmdRead          byte = 2
	CmdWrite         byte = 3
)

func readU16(r io.Reader) (uint16, error) {
	var buf [2]byte
	if _, err := io.ReadFull(r, buf[:]); err != nil {
		return 0, err
	}
	return binary.BigEndian.Uint16(buf[:]), nil
}

func readU32(r io.Reader) (uint32, error) {
	var buf [4]byte
	if _, err := io.ReadFull(r, buf[:]); err != nil {
		return 0, err
	}
	return binary.BigEndian.Uint32(buf[:]), nil
}

func writeU16(w io.Writer, v uint16) error {
	var buf [2]byte
	binary.BigEndian.PutUint16(buf[:], v)
	_, err := w.Write(buf[:])
	return err
}

func writeU32(w io.Writer, v uint32) error {
	var buf [4]byte
	binary.BigEndian.PutUint32(buf[:], v)
	_, err := w.Write(buf[:])
	return err
}

// readProperties decodes the 11-byte wire properties record: four
// known-flags (one byte each), then operational (1), size (4, big-endian),
// non-volatile (1), slow (1). (spec.md's prose header miscounts this as
// 15 bytes against its own itemization of 4+7=11; the normative end-to-end
// example's device response is literally 11 bytes, which this follows.)
func readProperties(r io.Reader) (memchip.KnownProperties, memchip.Properties, error) {
	var buf [11]byte
	if _, err := io.ReadFull(r, buf[:]); err != nil {
		return memchip.KnownProperties{}, memchip.Properties{}, err
	}
	known := memchip.KnownProperties{
		Operational: buf[0] != 0,
		Size:        buf[1] != 0,
		NonVolatile: buf[2] != 0,
		Slow:        buf[3] != 0,
	}
	props := memchip.Properties{
		IsOperational: buf[4] != 0,
		Size:          binary.BigEndian.Uint32(buf[5:9]),
		IsNonVolatile: buf[9] != 0,
		IsSlow:        buf[10] != 0,
	}
	return known, props, nil
}

// writeProperties encodes the same 11-byte layout readProperties decodes.
func writeProperties(w io.Writer, known memchip.KnownProperties, props memchip.Properties) error {
	var buf [11]byte
	buf[0] = boolByte(known.Operational)
	buf[1] = boolByte(known.Size)
	buf[2] = boolByte(known.NonVolatile)
	buf[3] = boolByte(known.Slow)
	buf[4] = boolByte(props.IsOperational)
	binary.BigEndian.PutUint32(buf[5:9], props.Size)
	buf[9] = boolByte(props.IsNonVolatile)
	buf[10] = boolByte(props.IsSlow)
	_, err := w.Write(buf[:])
	return err
}

func boolByte(b bool) byte {
	if b {
		return 1
	}
	return 0
}

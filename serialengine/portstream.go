package serialengine

import (
	"time"

	"go.bug.st/serial"
)

// PortStream adapts a go.bug.st/serial port to ByteStream. It switches the
// port's read timeout between a short poll interval (TryReadByte, used only
// to notice a new command without stalling the idle loop) and a longer
// per-byte timeout (ReadByte, used mid-command for acks and payload bytes).
type PortStream struct {
	port        serial.Port
	pollTimeout time.Duration
	ackTimeout  time.Duration
	buf         [1]byte
}

// NewPortStream wraps port. ackTimeout bounds how long ReadByte waits for a
// single byte before giving up; pollTimeout bounds TryReadByte the same way
// and should be small since it runs every idle tick.
func NewPortStream(port serial.Port, pollTimeout, ackTimeout time.Duration) *PortStream {
	return &PortStream{port: port, pollTimeout: pollTimeout, ackTimeout: ackTimeout}
}

func (s *PortStream) readWithTimeout(timeout time.Duration) (byte, bool) {
	if err := s.port.SetReadTimeout(timeout); err != nil {
		return 0, false
	}
	n, err := s.port.Read(s.buf[:])
	if err != nil || n == 0 {
		return 0, false
	}
	return s.buf[0], true
}

// TryReadByte polls for a command byte without blocking the cooperative loop.
func (s *PortStream) TryReadByte() (byte, bool) {
	return s.readWithTimeout(s.pollTimeout)
}

// ReadByte blocks up to ackTimeout for the next byte.
func (s *PortStream) ReadByte() (byte, bool) {
	return s.readWithTimeout(s.ackTimeout)
}

func (s *PortStream) Write(p []byte) (int, error) {
	return s.port.Write(p)
}

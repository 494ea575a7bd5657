package amt

import (
	"bytes"
	"fmt"

	"github.com/obdtools/amtflash/pkg/proto"
	"github.com/obdtools/amtflash/pkg/transport"
)

var _ transport.Transport = (*mockTransport)(nil)

type eeWrite struct {
	addr uint16
	data []byte
}

// mockTransport is a scripted stand-in for the USB bridge. Responses are
// queued into pending by the onFrame hook when a frame is written; EEPROM
// cells come from a fixed map.
type mockTransport struct {
	pending []byte
	writes  [][]byte
	// pendingAtWrite records how many stale bytes were still buffered at
	// the moment of each write, to prove the purge-before-write ordering.
	pendingAtWrite []int

	onFrame func(frame []byte)

	eeprom   map[uint16][]byte
	eeWrites []eeWrite

	// junkForever makes every read produce a garbage byte, simulating a
	// bridge that never goes quiet.
	junkForever bool

	baud     int
	dtr, rts bool
	databits int
	parity   transport.Parity
	stopbits transport.StopBits
	brk      bool
	closed   bool
}

func (m *mockTransport) Write(p []byte) (int, error) {
	frame := append([]byte(nil), p...)
	m.writes = append(m.writes, frame)
	m.pendingAtWrite = append(m.pendingAtWrite, len(m.pending))
	if m.onFrame != nil {
		m.onFrame(frame)
	}
	return len(p), nil
}

func (m *mockTransport) Read(p []byte) (int, error) {
	if m.junkForever {
		p[0] = 0xEE
		return 1, nil
	}
	n := copy(p, m.pending)
	m.pending = m.pending[n:]
	return n, nil
}

func (m *mockTransport) SetBaudrate(baud int) error {
	m.baud = baud
	return nil
}

func (m *mockTransport) SetLineProperty(databits int, parity transport.Parity, stopbits transport.StopBits, brk bool) error {
	m.databits, m.parity, m.stopbits, m.brk = databits, parity, stopbits, brk
	return nil
}

func (m *mockTransport) SetDTR(state bool) error { m.dtr = state; return nil }
func (m *mockTransport) SetRTS(state bool) error { m.rts = state; return nil }

func (m *mockTransport) ReadEE(addr uint16, n int) ([]byte, error) {
	data, ok := m.eeprom[addr]
	if !ok {
		return nil, fmt.Errorf("no EEPROM cell at 0x%04X", addr)
	}
	if len(data) < n {
		return nil, fmt.Errorf("EEPROM cell at 0x%04X holds %d bytes, want %d", addr, len(data), n)
	}
	return append([]byte(nil), data[:n]...), nil
}

func (m *mockTransport) WriteEE(addr uint16, data []byte) error {
	m.eeWrites = append(m.eeWrites, eeWrite{addr: addr, data: append([]byte(nil), data...)})
	return nil
}

func (m *mockTransport) Close() error {
	m.closed = true
	return nil
}

// lastWrite returns the most recent frame written, or nil.
func (m *mockTransport) lastWrite() []byte {
	if len(m.writes) == 0 {
		return nil
	}
	return m.writes[len(m.writes)-1]
}

// fixed challenge served by the scripted handshake
var testChallenge = [2]byte{0x5A, 0xC3}

// newHandshakeTransport returns a mock wired to accept the full connection
// ritual: valid magic number, bitmasks 0xAA/0xBB, the fixed challenge, and
// success statuses.
func newHandshakeTransport() *mockTransport {
	m := &mockTransport{
		eeprom: map[uint16][]byte{
			proto.AddrMagicNumber: {proto.MagicNumber, 0x00},
			proto.AddrBitmasks:    {0xAA, 0xBB},
		},
	}
	m.onFrame = func(frame []byte) {
		switch {
		case bytes.Equal(frame, []byte{0x21, 0x55}):
			m.pending = append(m.pending, testChallenge[0], testChallenge[1])
		case len(frame) == 4 && frame[0] == 0x21 && frame[1] == 0x56:
			if frame[2] == proto.TransformChallenge(testChallenge[0]) &&
				frame[3] == proto.TransformChallenge(testChallenge[1]) {
				m.pending = append(m.pending, proto.HandshakeAck)
			} else {
				m.pending = append(m.pending, 0x00)
			}
		case bytes.Equal(frame, []byte{0x26, 0x00, 0x01, 0x00, 0x00}):
			m.pending = append(m.pending, proto.StatusSuccess)
		}
	}
	return m
}

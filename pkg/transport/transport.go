// Package transport defines the byte-channel abstraction between the AMT
// protocol layer and the physical USB serial bridge.
package transport

import "errors"

// Parity selects the parity mode of the serial line.
type Parity uint8

const (
	ParityNone Parity = iota
	ParityOdd
	ParityEven
	ParityMark
	ParitySpace
)

// StopBits selects the number of stop bits of the serial line.
type StopBits uint8

const (
	StopBits1 StopBits = iota
	StopBits15
	StopBits2
)

// Transport errors
var (
	// ErrEEPROMUnsupported indicates the transport cannot reach the bridge
	// EEPROM. Sessions requiring the connection handshake cannot be
	// established over such a transport.
	ErrEEPROMUnsupported = errors.New("bridge EEPROM is not reachable through this transport")

	// ErrPortClosed indicates an operation on a closed transport
	ErrPortClosed = errors.New("transport is closed")
)

// Transport is a raw byte channel to the adapter with control over the
// electrical line parameters and access to the bridge's addressed EEPROM
// primitive.
//
// Read returns the bytes currently available, up to len(p). A return of
// (0, nil) means no data arrived within the transport's read timeout; it
// does not mean the connection is closed. Implementations are not safe for
// concurrent use: the adapter is stateful and supports exactly one session,
// so a single goroutine must own the transport.
type Transport interface {
	// Write sends p to the adapter and returns the number of bytes written.
	Write(p []byte) (int, error)

	// Read fills p with pending bytes, waiting at most the transport's
	// configured read timeout. Returns (0, nil) when no data is available.
	Read(p []byte) (int, error)

	// SetBaudrate sets the electrical baud rate of the serial side.
	SetBaudrate(baud int) error

	// SetLineProperty sets data bits, parity, stop bits and break state.
	SetLineProperty(databits int, parity Parity, stopbits StopBits, brk bool) error

	// SetDTR sets the DTR line state.
	SetDTR(state bool) error

	// SetRTS sets the RTS line state.
	SetRTS(state bool) error

	// ReadEE reads exactly n bytes from the bridge EEPROM at addr.
	ReadEE(addr uint16, n int) ([]byte, error)

	// WriteEE writes data to the bridge EEPROM at addr. A zero-length write
	// is valid and still reaches the device; the protocol uses it as a
	// commit trigger.
	WriteEE(addr uint16, data []byte) error

	// Close releases the underlying channel.
	Close() error
}

// Identity is implemented by transports that can report the identity
// descriptors of the attached bridge.
type Identity interface {
	SerialNumber() string
	Product() string
}

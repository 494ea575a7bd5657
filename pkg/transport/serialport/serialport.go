// Package serialport provides a transport over a kernel VCP driver using
// go.bug.st/serial. It supports raw I/O and every line control, but the
// bridge EEPROM is not reachable through a VCP driver, so sessions that need
// the connection handshake must use the ftdi transport instead. The package
// is still useful for raw K-line work against an already configured adapter
// and for port discovery.
package serialport

import (
	"fmt"
	"time"

	"go.bug.st/serial"

	"github.com/obdtools/amtflash/pkg/transport"
)

// DefaultReadTimeout bounds a single Read when no data is pending.
const DefaultReadTimeout = 100 * time.Millisecond

// Port is a transport.Transport over a serial device node.
type Port struct {
	port serial.Port
	name string
	baud int
}

// Open opens the named serial port (for example "/dev/ttyUSB0") with the
// given baud rate, 8N1, and the default read timeout.
func Open(name string, baud int) (*Port, error) {
	mode := &serial.Mode{
		BaudRate: baud,
		DataBits: 8,
		Parity:   serial.NoParity,
		StopBits: serial.OneStopBit,
	}

	port, err := serial.Open(name, mode)
	if err != nil {
		return nil, fmt.Errorf("failed to open port %s: %w", name, err)
	}

	if err := port.SetReadTimeout(DefaultReadTimeout); err != nil {
		port.Close()
		return nil, fmt.Errorf("failed to set read timeout: %w", err)
	}

	return &Port{port: port, name: name, baud: baud}, nil
}

// Name returns the device node the port was opened from.
func (p *Port) Name() string { return p.name }

// SetReadTimeout changes how long Read waits before reporting an empty read.
func (p *Port) SetReadTimeout(timeout time.Duration) error {
	if p.port == nil {
		return transport.ErrPortClosed
	}
	return p.port.SetReadTimeout(timeout)
}

// Write sends p to the port.
func (p *Port) Write(b []byte) (int, error) {
	if p.port == nil {
		return 0, transport.ErrPortClosed
	}
	return p.port.Write(b)
}

// Read fills b with pending bytes. With the read timeout set, an idle line
// yields (0, nil) rather than blocking forever.
func (p *Port) Read(b []byte) (int, error) {
	if p.port == nil {
		return 0, transport.ErrPortClosed
	}
	return p.port.Read(b)
}

// SetBaudrate reconfigures the port speed, keeping 8N1.
func (p *Port) SetBaudrate(baud int) error {
	if p.port == nil {
		return transport.ErrPortClosed
	}
	mode := &serial.Mode{
		BaudRate: baud,
		DataBits: 8,
		Parity:   serial.NoParity,
		StopBits: serial.OneStopBit,
	}
	if err := p.port.SetMode(mode); err != nil {
		return fmt.Errorf("set baudrate %d: %w", baud, err)
	}
	p.baud = baud
	return nil
}

// SetLineProperty reconfigures data bits, parity and stop bits. Break is not
// switchable through the VCP API and must be false.
func (p *Port) SetLineProperty(databits int, parity transport.Parity, stopbits transport.StopBits, brk bool) error {
	if p.port == nil {
		return transport.ErrPortClosed
	}
	if brk {
		return fmt.Errorf("break control is not supported by the VCP driver")
	}

	mode := &serial.Mode{
		BaudRate: p.baud,
		DataBits: databits,
	}

	switch parity {
	case transport.ParityNone:
		mode.Parity = serial.NoParity
	case transport.ParityOdd:
		mode.Parity = serial.OddParity
	case transport.ParityEven:
		mode.Parity = serial.EvenParity
	case transport.ParityMark:
		mode.Parity = serial.MarkParity
	case transport.ParitySpace:
		mode.Parity = serial.SpaceParity
	default:
		return fmt.Errorf("unknown parity %d", parity)
	}

	switch stopbits {
	case transport.StopBits1:
		mode.StopBits = serial.OneStopBit
	case transport.StopBits15:
		mode.StopBits = serial.OnePointFiveStopBits
	case transport.StopBits2:
		mode.StopBits = serial.TwoStopBits
	default:
		return fmt.Errorf("unknown stop bits %d", stopbits)
	}

	if err := p.port.SetMode(mode); err != nil {
		return fmt.Errorf("set line property: %w", err)
	}
	return nil
}

// SetDTR sets the DTR line state.
func (p *Port) SetDTR(state bool) error {
	if p.port == nil {
		return transport.ErrPortClosed
	}
	return p.port.SetDTR(state)
}

// SetRTS sets the RTS line state.
func (p *Port) SetRTS(state bool) error {
	if p.port == nil {
		return transport.ErrPortClosed
	}
	return p.port.SetRTS(state)
}

// ReadEE always fails: the VCP driver exposes no path to the bridge EEPROM.
func (p *Port) ReadEE(addr uint16, n int) ([]byte, error) {
	return nil, fmt.Errorf("EEPROM read at 0x%04X: %w", addr, transport.ErrEEPROMUnsupported)
}

// WriteEE always fails: the VCP driver exposes no path to the bridge EEPROM.
func (p *Port) WriteEE(addr uint16, data []byte) error {
	return fmt.Errorf("EEPROM write at 0x%04X: %w", addr, transport.ErrEEPROMUnsupported)
}

// Close closes the port.
func (p *Port) Close() error {
	if p.port == nil {
		return nil
	}
	err := p.port.Close()
	p.port = nil
	return err
}

// ListPorts returns the serial port device names present on the system.
func ListPorts() ([]string, error) {
	ports, err := serial.GetPortsList()
	if err != nil {
		return nil, fmt.Errorf("failed to enumerate serial ports: %w", err)
	}
	return ports, nil
}

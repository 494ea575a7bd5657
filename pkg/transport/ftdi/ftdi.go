// Package ftdi drives the adapter's FT232-style USB serial bridge directly
// through gousb vendor requests. This is the only transport that reaches the
// bridge EEPROM, which the connection handshake requires.
package ftdi

import (
	"context"
	"fmt"
	"time"

	"github.com/google/gousb"

	"github.com/obdtools/amtflash/pkg/transport"
)

// Bridge is a transport.Transport over a directly claimed USB bridge.
// Not safe for concurrent use; the adapter supports exactly one session.
type Bridge struct {
	usbContext   *gousb.Context
	usbDevice    *gousb.Device
	usbConfig    *gousb.Config
	usbInterface *gousb.Interface
	epIn         *gousb.InEndpoint
	epOut        *gousb.OutEndpoint

	serial  string
	product string

	readTimeout time.Duration
	maxPacket   int
	recvBuf     []byte
}

// Option configures a Bridge before it is opened.
type Option func(*openConfig)

type openConfig struct {
	vid         uint16
	pid         uint16
	readTimeout time.Duration
}

// WithVIDPID overrides the USB identifiers the bridge is matched by.
func WithVIDPID(vid, pid uint16) Option {
	return func(c *openConfig) {
		c.vid = vid
		c.pid = pid
	}
}

// WithReadTimeout sets how long Read waits for data before reporting an
// empty read. This bounds the protocol layer's purge loop.
func WithReadTimeout(timeout time.Duration) Option {
	return func(c *openConfig) {
		if timeout > 0 {
			c.readTimeout = timeout
		}
	}
}

// Open claims the first matching bridge and prepares it for protocol use:
// state machine reset, both FIFOs purged.
func Open(opts ...Option) (*Bridge, error) {
	cfg := openConfig{
		vid:         DefaultVendorID,
		pid:         DefaultProductID,
		readTimeout: DefaultReadTimeout,
	}
	for _, opt := range opts {
		opt(&cfg)
	}

	usbContext := gousb.NewContext()

	usbDevice, err := usbContext.OpenDeviceWithVIDPID(gousb.ID(cfg.vid), gousb.ID(cfg.pid))
	if err != nil {
		usbContext.Close()
		return nil, fmt.Errorf("failed to open device %04x:%04x: %w", cfg.vid, cfg.pid, err)
	}
	if usbDevice == nil {
		usbContext.Close()
		return nil, fmt.Errorf("no device %04x:%04x found", cfg.vid, cfg.pid)
	}

	bridge, err := wrap(usbDevice, cfg)
	if err != nil {
		usbDevice.Close()
		usbContext.Close()
		return nil, err
	}
	bridge.usbContext = usbContext

	return bridge, nil
}

func wrap(usbDevice *gousb.Device, cfg openConfig) (*Bridge, error) {
	serial, _ := usbDevice.SerialNumber()
	product, _ := usbDevice.Product()

	usbDevice.SetAutoDetach(true)

	config, err := usbDevice.Config(1)
	if err != nil {
		return nil, fmt.Errorf("failed to get configuration: %w", err)
	}

	iface, err := config.Interface(0, 0)
	if err != nil {
		config.Close()
		return nil, fmt.Errorf("failed to claim interface: %w", err)
	}

	epIn, err := iface.InEndpoint(EPInNum)
	if err != nil {
		iface.Close()
		config.Close()
		return nil, fmt.Errorf("failed to get IN endpoint: %w", err)
	}

	epOut, err := iface.OutEndpoint(EPOutNum)
	if err != nil {
		iface.Close()
		config.Close()
		return nil, fmt.Errorf("failed to get OUT endpoint: %w", err)
	}

	bridge := &Bridge{
		usbDevice:    usbDevice,
		usbConfig:    config,
		usbInterface: iface,
		epIn:         epIn,
		epOut:        epOut,
		serial:       serial,
		product:      product,
		readTimeout:  cfg.readTimeout,
		maxPacket:    epIn.Desc.MaxPacketSize,
	}

	if err := bridge.reset(); err != nil {
		iface.Close()
		config.Close()
		return nil, err
	}

	return bridge, nil
}

// reset resets the bridge state machine and purges both FIFOs so a new
// session never observes bytes from an aborted one.
func (b *Bridge) reset() error {
	for _, value := range []uint16{SIOResetSIO, SIOResetPurgeRX, SIOResetPurgeTX} {
		if _, err := b.usbDevice.Control(RequestTypeVendorOut, SIOReset, value, 0, nil); err != nil {
			return fmt.Errorf("bridge reset (value %d): %w", value, err)
		}
	}
	b.recvBuf = b.recvBuf[:0]
	return nil
}

// SerialNumber returns the USB serial descriptor of the bridge.
func (b *Bridge) SerialNumber() string { return b.serial }

// Product returns the USB product descriptor of the bridge.
func (b *Bridge) Product() string { return b.product }

// Write sends p over the bulk OUT endpoint.
func (b *Bridge) Write(p []byte) (int, error) {
	if b.usbDevice == nil {
		return 0, transport.ErrPortClosed
	}

	ctx, cancel := context.WithTimeout(context.Background(), WriteTimeout)
	defer cancel()

	n, err := b.epOut.WriteContext(ctx, p)
	if err != nil {
		return n, fmt.Errorf("bulk write: %w", err)
	}
	if n != len(p) {
		return n, fmt.Errorf("short write: wrote %d of %d bytes", n, len(p))
	}
	return n, nil
}

// Read fills p from the bulk IN endpoint, waiting at most the configured read
// timeout. An expired timeout reports (0, nil): no data currently available.
// The two modem-status bytes the bridge prepends to every IN packet are
// stripped before payload bytes are returned.
func (b *Bridge) Read(p []byte) (int, error) {
	if b.usbDevice == nil {
		return 0, transport.ErrPortClosed
	}
	if len(p) == 0 {
		return 0, nil
	}

	if len(b.recvBuf) == 0 {
		if err := b.fill(); err != nil {
			return 0, err
		}
	}

	n := copy(p, b.recvBuf)
	b.recvBuf = b.recvBuf[n:]
	return n, nil
}

// fill performs one bulk IN transfer and buffers its payload.
func (b *Bridge) fill() error {
	raw := make([]byte, b.maxPacket)

	ctx, cancel := context.WithTimeout(context.Background(), b.readTimeout)
	defer cancel()

	n, err := b.epIn.ReadContext(ctx, raw)
	if err != nil {
		if ctx.Err() != nil {
			// Timed out with nothing pending.
			return nil
		}
		return fmt.Errorf("bulk read: %w", err)
	}
	if n > ModemStatusSize {
		b.recvBuf = append(b.recvBuf, raw[ModemStatusSize:n]...)
	}
	return nil
}

// SetBaudrate programs the baud generator divisor.
func (b *Bridge) SetBaudrate(baud int) error {
	if b.usbDevice == nil {
		return transport.ErrPortClosed
	}

	value, index, err := baudDivisor(baud)
	if err != nil {
		return err
	}
	if _, err := b.usbDevice.Control(RequestTypeVendorOut, SIOSetBaudrate, value, index, nil); err != nil {
		return fmt.Errorf("set baudrate %d: %w", baud, err)
	}
	return nil
}

// SetLineProperty sets data bits, parity, stop bits and break state.
func (b *Bridge) SetLineProperty(databits int, parity transport.Parity, stopbits transport.StopBits, brk bool) error {
	if b.usbDevice == nil {
		return transport.ErrPortClosed
	}

	value, err := lineValue(databits, parity, stopbits, brk)
	if err != nil {
		return err
	}
	if _, err := b.usbDevice.Control(RequestTypeVendorOut, SIOSetData, value, 0, nil); err != nil {
		return fmt.Errorf("set line property: %w", err)
	}
	return nil
}

// SetDTR sets the DTR line state.
func (b *Bridge) SetDTR(state bool) error {
	value := uint16(SIODTRLow)
	if state {
		value = SIODTRHigh
	}
	return b.setModemCtrl(value)
}

// SetRTS sets the RTS line state.
func (b *Bridge) SetRTS(state bool) error {
	value := uint16(SIORTSLow)
	if state {
		value = SIORTSHigh
	}
	return b.setModemCtrl(value)
}

func (b *Bridge) setModemCtrl(value uint16) error {
	if b.usbDevice == nil {
		return transport.ErrPortClosed
	}
	if _, err := b.usbDevice.Control(RequestTypeVendorOut, SIOSetModemCtrl, value, 0, nil); err != nil {
		return fmt.Errorf("set modem control: %w", err)
	}
	return nil
}

// ReadEE reads exactly n bytes from the bridge EEPROM starting at addr.
// The adapter addresses its EEPROM by byte: wIndex carries the address as
// given and each transfer returns one 16-bit word.
func (b *Bridge) ReadEE(addr uint16, n int) ([]byte, error) {
	if b.usbDevice == nil {
		return nil, transport.ErrPortClosed
	}
	if n < 0 {
		return nil, fmt.Errorf("negative EEPROM read length %d", n)
	}

	out := make([]byte, 0, n+1)
	word := make([]byte, 2)
	for off := 0; off < n; off += 2 {
		got, err := b.usbDevice.Control(RequestTypeVendorIn, SIOReadEEPROM, 0, addr+uint16(off), word)
		if err != nil {
			return nil, fmt.Errorf("EEPROM read at 0x%04X: %w", addr+uint16(off), err)
		}
		if got != 2 {
			return nil, fmt.Errorf("EEPROM read at 0x%04X: got %d of 2 bytes", addr+uint16(off), got)
		}
		out = append(out, word...)
	}
	return out[:n], nil
}

// WriteEE writes data to the bridge EEPROM at addr, one 16-bit word per
// transfer. A zero-length write still issues a single transfer with a zero
// value; the adapter uses that as a commit trigger.
func (b *Bridge) WriteEE(addr uint16, data []byte) error {
	if b.usbDevice == nil {
		return transport.ErrPortClosed
	}

	if len(data) == 0 {
		if _, err := b.usbDevice.Control(RequestTypeVendorOut, SIOWriteEEPROM, 0, addr, nil); err != nil {
			return fmt.Errorf("EEPROM trigger write at 0x%04X: %w", addr, err)
		}
		return nil
	}

	for off := 0; off < len(data); off += 2 {
		value := uint16(data[off])
		if off+1 < len(data) {
			value |= uint16(data[off+1]) << 8
		}
		if _, err := b.usbDevice.Control(RequestTypeVendorOut, SIOWriteEEPROM, value, addr+uint16(off), nil); err != nil {
			return fmt.Errorf("EEPROM write at 0x%04X: %w", addr+uint16(off), err)
		}
	}
	return nil
}

// Close releases the interface, configuration, device and USB context.
func (b *Bridge) Close() error {
	if b.usbInterface != nil {
		b.usbInterface.Close()
		b.usbInterface = nil
	}
	if b.usbConfig != nil {
		b.usbConfig.Close()
		b.usbConfig = nil
	}
	var err error
	if b.usbDevice != nil {
		err = b.usbDevice.Close()
		b.usbDevice = nil
	}
	if b.usbContext != nil {
		b.usbContext.Close()
		b.usbContext = nil
	}
	return err
}

// fracCode encodes the sub-integer eighths of the baud divisor.
var fracCode = [8]uint16{0, 3, 2, 4, 1, 5, 6, 7}

// baudDivisor converts a baud rate to the divisor value/index pair of the
// SIOSetBaudrate request. The generator divides BaseClock by a 14-bit
// integer plus eighths; 3 MBaud and 2 MBaud have reserved encodings.
func baudDivisor(baud int) (value, index uint16, err error) {
	switch {
	case baud <= 0:
		return 0, 0, fmt.Errorf("baud rate must be positive, got %d", baud)
	case baud > BaseClock:
		return 0, 0, fmt.Errorf("baud rate %d exceeds bridge maximum %d", baud, BaseClock)
	case baud == 3_000_000:
		return 0, 0, nil
	case baud == 2_000_000:
		return 1, 0, nil
	}

	div8 := (BaseClock*8 + baud/2) / baud
	if div8>>3 > MaxDivisor {
		return 0, 0, fmt.Errorf("baud rate %d below bridge minimum", baud)
	}

	encoded := uint32(div8>>3) | uint32(fracCode[div8&7])<<14
	return uint16(encoded), uint16(encoded >> 16), nil
}

// lineValue packs the SIOSetData request value.
func lineValue(databits int, parity transport.Parity, stopbits transport.StopBits, brk bool) (uint16, error) {
	if databits < 7 || databits > 8 {
		return 0, fmt.Errorf("data bits must be 7 or 8, got %d", databits)
	}

	value := uint16(databits)
	value |= uint16(parity) << lineParityShift
	value |= uint16(stopbits) << lineStopBitsShift
	if brk {
		value |= lineBreakBit
	}
	return value, nil
}

package amt

import (
	"fmt"

	"github.com/obdtools/amtflash/pkg/proto"
	"github.com/obdtools/amtflash/pkg/transport"
)

// Device is an authenticated session with the AMT flashing adapter. It is
// created by Open, which runs the connection handshake; every method beyond
// that requires the session to be ready. Device is not safe for concurrent
// use: the adapter is stateful with no request pipelining, so a single
// goroutine must own the device for its whole life.
type Device struct {
	t       transport.Transport
	config  Config
	session Session
	kwp     *KWP
	can     *CAN
}

// Open runs the connection handshake over t and returns a ready device.
// Handshake failures are fatal and non-recoverable within the session: Open
// fails, and the caller must reconnect to try again. The transport stays
// owned by the caller and is not closed on failure.
func Open(t transport.Transport, opts ...Option) (*Device, error) {
	if t == nil {
		panic("transport cannot be nil")
	}

	cfg := defaultConfig()
	for _, opt := range opts {
		opt(&cfg)
	}

	d := &Device{
		t:      t,
		config: cfg,
	}
	d.kwp = &KWP{d: d}
	d.can = &CAN{d: d}

	if err := d.handshake(); err != nil {
		return nil, fmt.Errorf("handshake: %w", err)
	}

	return d, nil
}

// Session exposes the per-connection state for inspection.
func (d *Device) Session() *Session { return &d.session }

// KWP returns the K-line byte-banging interface.
func (d *Device) KWP() *KWP { return d.kwp }

// CAN returns the CAN controller interface.
func (d *Device) CAN() *CAN { return d.can }

// Transport returns the underlying transport.
func (d *Device) Transport() transport.Transport { return d.t }

// purge drains stale input one byte at a time until the transport reports an
// idle read, discarding anything a prior, possibly aborted, transaction left
// behind. The loop is bounded by the configured purge limit.
func (d *Device) purge() error {
	buf := make([]byte, 1)
	for i := 0; i < d.config.PurgeLimit; i++ {
		n, err := d.t.Read(buf)
		if err != nil {
			return fmt.Errorf("purge read: %w", err)
		}
		if n == 0 {
			return nil
		}
	}
	return ErrPurgeStalled
}

// readExact reads exactly n response bytes. An idle read before the count is
// reached means the device answered short; the shortfall is reported, never
// zero-padded.
func (d *Device) readExact(n int) ([]byte, error) {
	buf := make([]byte, n)
	off := 0
	for off < n {
		r, err := d.t.Read(buf[off:])
		if err != nil {
			return nil, fmt.Errorf("read response: %w", err)
		}
		if r == 0 {
			return nil, &UnexpectedLengthError{Want: n, Got: off}
		}
		off += r
	}
	return buf, nil
}

// transact is the single chokepoint every operation goes through: purge
// stale input, write the frame, read exactly respLen response bytes. The
// purge guarantees no operation observes a response left over from an
// earlier, unrelated command.
func (d *Device) transact(frame []byte, respLen int) ([]byte, error) {
	d.logDebug("transact", "opcode", frame[0], "frame_len", len(frame), "resp_len", respLen)

	if err := d.purge(); err != nil {
		return nil, err
	}
	if _, err := d.t.Write(frame); err != nil {
		return nil, fmt.Errorf("write frame: %w", err)
	}
	if respLen == 0 {
		return nil, nil
	}
	return d.readExact(respLen)
}

// statusTransact runs a transaction whose only response is a status byte.
// A non-success status is a command outcome, not an error.
func (d *Device) statusTransact(frame []byte) (bool, error) {
	resp, err := d.transact(frame, 1)
	if err != nil {
		return false, err
	}
	return proto.StatusOK(resp[0]), nil
}

func (d *Device) requireReady() error {
	if !d.session.ready {
		return ErrNotReady
	}
	return nil
}

// ReadEE reads n bytes from the device EEPROM at addr through the bridge's
// addressed read primitive.
func (d *Device) ReadEE(addr uint16, n int) ([]byte, error) {
	if err := d.requireReady(); err != nil {
		return nil, err
	}
	return d.t.ReadEE(addr, n)
}

// WriteEE writes data to the device EEPROM at addr.
func (d *Device) WriteEE(addr uint16, data []byte) error {
	if err := d.requireReady(); err != nil {
		return err
	}
	return d.t.WriteEE(addr, data)
}

// Voltage returns the adapter supply voltage in volts. The raw reading is a
// big-endian 16-bit value scaled by a fixed divisor.
func (d *Device) Voltage() (float64, error) {
	if err := d.requireReady(); err != nil {
		return 0, err
	}

	data, err := d.t.ReadEE(proto.AddrVoltage, proto.VoltageSize)
	if err != nil {
		return 0, fmt.Errorf("read voltage: %w", err)
	}

	raw := uint16(data[1]) | uint16(data[0])<<8
	return float64(raw) / proto.VoltageScale, nil
}

// Usages returns the device usage counter.
func (d *Device) Usages() (byte, error) {
	if err := d.requireReady(); err != nil {
		return 0, err
	}

	data, err := d.t.ReadEE(proto.AddrUsageCounter, proto.UsageCountSize)
	if err != nil {
		return 0, fmt.Errorf("read usage counter: %w", err)
	}
	return data[0], nil
}

// SecurityNumber returns the 8-byte security number, de-obfuscated with the
// write bitmask learned during the handshake.
func (d *Device) SecurityNumber() ([]byte, error) {
	if err := d.requireReady(); err != nil {
		return nil, err
	}

	data, err := d.t.ReadEE(proto.AddrSecurityNum, proto.SecurityNumSize)
	if err != nil {
		return nil, fmt.Errorf("read security number: %w", err)
	}
	return proto.Deobfuscate(data, d.session.writeMask), nil
}

// Certificate returns the 512-byte certificate blob verbatim.
func (d *Device) Certificate() ([]byte, error) {
	if err := d.requireReady(); err != nil {
		return nil, err
	}

	data, err := d.t.ReadEE(proto.AddrCertificate, proto.CertificateSize)
	if err != nil {
		return nil, fmt.Errorf("read certificate: %w", err)
	}
	return data, nil
}

// Version returns the firmware version number (big-endian on the wire).
func (d *Device) Version() (uint16, error) {
	if err := d.requireReady(); err != nil {
		return 0, err
	}

	data, err := d.transact(proto.BuildVersionCmd(), 2)
	if err != nil {
		return 0, fmt.Errorf("get version: %w", err)
	}
	return uint16(data[1]) | uint16(data[0])<<8, nil
}

// VersionString returns the firmware version string: one length byte
// followed by that many UTF-8 bytes.
func (d *Device) VersionString() (string, error) {
	if err := d.requireReady(); err != nil {
		return "", err
	}

	length, err := d.transact(proto.BuildVersionStringCmd(), 1)
	if err != nil {
		return "", fmt.Errorf("get version string: %w", err)
	}
	if length[0] == 0 {
		return "", nil
	}

	data, err := d.readExact(int(length[0]))
	if err != nil {
		return "", fmt.Errorf("get version string: %w", err)
	}
	return string(data), nil
}

// SetDelay sets the command delay. Returns false when the device answers a
// non-success status.
func (d *Device) SetDelay(delay byte) (bool, error) {
	if err := d.requireReady(); err != nil {
		return false, err
	}
	return d.statusTransact(proto.BuildSetDelayCmd(delay))
}

// DisableFlashWrite disables writes and erases to the MCU flash.
// Untested against real hardware; kept for protocol completeness.
func (d *Device) DisableFlashWrite() (bool, error) {
	if err := d.requireReady(); err != nil {
		return false, err
	}
	return d.statusTransact(proto.BuildDisableFlashWriteCmd())
}

// SetPin0 drives pin 0 of the MCU port high or low.
// Untested against real hardware; kept for protocol completeness.
func (d *Device) SetPin0(high bool) (bool, error) {
	return d.setPin(0, high)
}

// SetPin2 drives pin 2 of the MCU port high or low.
// Untested against real hardware; kept for protocol completeness.
func (d *Device) SetPin2(high bool) (bool, error) {
	return d.setPin(1, high)
}

func (d *Device) setPin(pin byte, high bool) (bool, error) {
	if err := d.requireReady(); err != nil {
		return false, err
	}

	frame, err := proto.BuildSetPinCmd(pin, high)
	if err != nil {
		return false, err
	}
	return d.statusTransact(frame)
}

// Unknown2A issues the undocumented 0x2A command and returns the raw status
// byte. Every observed invocation answers an error status; the command is
// kept for protocol completeness.
func (d *Device) Unknown2A() (byte, error) {
	if err := d.requireReady(); err != nil {
		return 0, err
	}

	resp, err := d.transact(proto.BuildUnknown2ACmd(), 1)
	if err != nil {
		return 0, err
	}
	return resp[0], nil
}

func (d *Device) logDebug(msg string, args ...any) {
	if d.config.Logger != nil {
		d.config.Logger.Debug(msg, args...)
	}
}

func (d *Device) logInfo(msg string, args ...any) {
	if d.config.Logger != nil {
		d.config.Logger.Info(msg, args...)
	}
}

package amt

import (
	"fmt"

	"github.com/obdtools/amtflash/pkg/proto"
	"github.com/obdtools/amtflash/pkg/transport"
)

// KWP exposes the adapter's K-line byte-banging commands. The electrical
// setup calls pass straight through to the transport; no command framing is
// involved for those.
type KWP struct {
	d *Device
}

// SetBaudrate sets the K-line baud rate at the bridge.
func (k *KWP) SetBaudrate(baud int) error {
	return k.d.t.SetBaudrate(baud)
}

// SetLineProperty sets the K-line data bits, parity, stop bits and break
// state at the bridge.
func (k *KWP) SetLineProperty(databits int, parity transport.Parity, stopbits transport.StopBits, brk bool) error {
	return k.d.t.SetLineProperty(databits, parity, stopbits, brk)
}

// SetDTR sets the DTR line state at the bridge.
func (k *KWP) SetDTR(state bool) error {
	return k.d.t.SetDTR(state)
}

// SetRTS sets the RTS line state at the bridge.
func (k *KWP) SetRTS(state bool) error {
	return k.d.t.SetRTS(state)
}

// SendByte sends one byte on the K-line at the configured baud rate.
// Returns false when the device answers a non-success status.
func (k *KWP) SendByte(b byte) (bool, error) {
	if err := k.d.requireReady(); err != nil {
		return false, err
	}
	return k.d.statusTransact(proto.BuildKwpSendByteCmd(b))
}

// SendByteCustomBaud sends one byte on the K-line at an arbitrary, very low
// baud rate, normally proto.WakeBaudrate for the ISO 9141 5-baud wake
// sequence. Fire-and-forget: the adapter sends no status, since timing, not
// acknowledgment, is what matters here.
func (k *KWP) SendByteCustomBaud(b byte, baudrate int) error {
	if err := k.d.requireReady(); err != nil {
		return err
	}

	frame, err := proto.BuildKwpSendCustomBaudCmd(b, baudrate)
	if err != nil {
		return err
	}

	if _, err := k.d.transact(frame, 0); err != nil {
		return fmt.Errorf("send byte at %d baud: %w", baudrate, err)
	}
	return nil
}

// SendBytes sends data on the K-line with delayMs milliseconds between
// bytes. Fire-and-forget: the adapter sends no status.
func (k *KWP) SendBytes(data []byte, delayMs byte) error {
	if err := k.d.requireReady(); err != nil {
		return err
	}

	frame, err := proto.BuildKwpSendBytesCmd(data, delayMs)
	if err != nil {
		return err
	}

	if _, err := k.d.transact(frame, 0); err != nil {
		return fmt.Errorf("send %d bytes: %w", len(data), err)
	}
	return nil
}

// SendFastInit asserts an init pulse of pulseMs milliseconds on the K-line
// and follows it with a burst send of data, delayMs milliseconds between
// bytes. The payload is limited to 255 bytes by the wire encoding.
// Fire-and-forget. Untested against real hardware.
func (k *KWP) SendFastInit(data []byte, pulseMs, delayMs byte) error {
	if err := k.d.requireReady(); err != nil {
		return err
	}

	frame, err := proto.BuildKwpFastInitCmd(data, pulseMs, delayMs)
	if err != nil {
		return err
	}

	if _, err := k.d.transact(frame, 0); err != nil {
		return fmt.Errorf("fast init with %d bytes: %w", len(data), err)
	}
	return nil
}

package proto

import (
	"encoding/binary"
	"fmt"
)

// BuildChallengeCmd constructs the handshake challenge request.
// The device answers with ChallengeSize raw challenge bytes.
//
// Frame structure:
//
//	[0x21][0x55]
func BuildChallengeCmd() []byte {
	return []byte{CmdHandshake, SubChallenge}
}

// BuildChallengeResponseCmd constructs the handshake response frame carrying
// the two transformed challenge bytes. The device acknowledges with
// HandshakeAck (0x33).
//
// Frame structure:
//
//	[0x21][0x56][T0][T1]
func BuildChallengeResponseCmd(transformed [ChallengeSize]byte) []byte {
	return []byte{CmdHandshake, SubChallengeResponse, transformed[0], transformed[1]}
}

// BuildChecksumSetupCmd constructs the checksum-mode setup frame sent as the
// last handshake phase. The payload is fixed; its meaning is not documented
// by the vendor. The device answers with a status byte.
//
// Frame structure:
//
//	[0x26][0x00][0x01][0x00][0x00]
func BuildChecksumSetupCmd() []byte {
	return []byte{CmdChecksumSetup, 0x00, 0x01, 0x00, 0x00}
}

// BuildVersionCmd constructs the firmware version query.
// The device answers with a big-endian uint16.
//
// Frame structure:
//
//	[0x31]
func BuildVersionCmd() []byte {
	return []byte{CmdVersion}
}

// BuildVersionStringCmd constructs the firmware version string query.
// The device answers with one length byte followed by that many UTF-8 bytes.
//
// Frame structure:
//
//	[0x22]
func BuildVersionStringCmd() []byte {
	return []byte{CmdVersionString}
}

// BuildSetDelayCmd constructs the set-delay frame.
// The device answers with a status byte.
//
// Frame structure:
//
//	[0x24][DELAY]
func BuildSetDelayCmd(delay byte) []byte {
	return []byte{CmdSetDelay, delay}
}

// BuildDisableFlashWriteCmd constructs the disable-flash-write frame.
// The device answers with a status byte.
//
// Frame structure:
//
//	[0x20]
func BuildDisableFlashWriteCmd() []byte {
	return []byte{CmdDisableFlashWrite}
}

// BuildSetPinCmd constructs the set-pin frame. The pin index selects one of
// the two controllable port pins (0 selects pin 0, 1 selects pin 2 of the
// MCU port). The device answers with a status byte.
//
// Frame structure:
//
//	[0x27][PIN][LEVEL]
func BuildSetPinCmd(pin byte, high bool) ([]byte, error) {
	if pin > 1 {
		return nil, fmt.Errorf("pin index must be 0 or 1, got %d", pin)
	}
	level := byte(0x00)
	if high {
		level = 0x01
	}
	return []byte{CmdSetPin, pin, level}, nil
}

// BuildUnknown2ACmd constructs the undocumented 0x2A frame. Every observed
// invocation answers an error status; the frame is retained for completeness.
//
// Frame structure:
//
//	[0x2A]
func BuildUnknown2ACmd() []byte {
	return []byte{CmdUnknown2A}
}

// BuildKwpSendByteCmd constructs a single-byte K-line send at the currently
// configured baud rate. The device answers with a status byte.
//
// Frame structure:
//
//	[0x25][0x04][BYTE]
func BuildKwpSendByteCmd(b byte) []byte {
	return []byte{CmdKwp, SubKwpSendByte, b}
}

// BuildKwpSendCustomBaudCmd constructs a single-byte K-line send at an
// arbitrary, very low baud rate. The bit period is 1e6/baudrate microseconds,
// truncated to the one-byte wire field exactly as the reference tool does;
// for any practical wake baud rate the period overflows that byte and only
// the low eight bits reach the device. Fire-and-forget: no status is read.
//
// Frame structure:
//
//	[0x25][0x03][PERIOD][BYTE]
func BuildKwpSendCustomBaudCmd(b byte, baudrate int) ([]byte, error) {
	if baudrate <= 0 {
		return nil, fmt.Errorf("baudrate must be positive, got %d", baudrate)
	}
	period := 1_000_000 / baudrate
	return []byte{CmdKwp, SubKwpSendCustomBaud, byte(period), b}, nil
}

// BuildKwpSendBytesCmd constructs a multi-byte K-line send with an inter-byte
// delay in milliseconds. The length field is a little-endian uint16.
// Fire-and-forget: no status is read.
//
// Frame structure:
//
//	[0x25][0x02][LEN_L][LEN_H][DELAY][DATA...]
func BuildKwpSendBytesCmd(data []byte, delayMs byte) ([]byte, error) {
	if len(data) > MaxKwpSendLen {
		return nil, fmt.Errorf("payload length %d exceeds maximum %d bytes", len(data), MaxKwpSendLen)
	}

	frame := make([]byte, 0, 5+len(data))
	frame = append(frame, CmdKwp, SubKwpSendBytes)

	lenBytes := make([]byte, 2)
	binary.LittleEndian.PutUint16(lenBytes, uint16(len(data)))
	frame = append(frame, lenBytes...)

	frame = append(frame, delayMs)
	frame = append(frame, data...)

	return frame, nil
}

// BuildKwpFastInitCmd constructs a fast-init frame: an init pulse of
// pulseMs milliseconds on the K-line followed by a burst send of data with
// delayMs milliseconds between bytes. The length field here is a single
// byte, so the payload is limited to MaxKwpFastInitLen bytes.
// Fire-and-forget: no status is read.
//
// Frame structure:
//
//	[0x25][0x01][LEN][DELAY][PULSE][DATA...]
func BuildKwpFastInitCmd(data []byte, pulseMs, delayMs byte) ([]byte, error) {
	if len(data) > MaxKwpFastInitLen {
		return nil, fmt.Errorf("payload length %d exceeds maximum %d bytes", len(data), MaxKwpFastInitLen)
	}

	frame := make([]byte, 0, 5+len(data))
	frame = append(frame, CmdKwp, SubKwpFastInit, byte(len(data)), delayMs, pulseMs)
	frame = append(frame, data...)

	return frame, nil
}

// BuildCanResetCmd constructs the CAN controller reset frame.
// The device answers with a status byte.
//
// Frame structure:
//
//	[0x30][0x01]
func BuildCanResetCmd() []byte {
	return []byte{CmdCan, SubCanReset}
}

// BuildCanEnableCmd constructs the CAN controller enable frame.
// The device answers with a status byte.
//
// Frame structure:
//
//	[0x30][0x09]
func BuildCanEnableCmd() []byte {
	return []byte{CmdCan, SubCanEnable}
}

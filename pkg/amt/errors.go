package amt

import (
	"errors"
	"fmt"

	"github.com/obdtools/amtflash/pkg/proto"
)

// Session errors
var (
	// ErrNotReady indicates a command was attempted before the handshake
	// completed
	ErrNotReady = errors.New("session is not ready")

	// ErrPurgeStalled indicates the stale-input drain hit its read bound
	// while the device kept producing bytes
	ErrPurgeStalled = errors.New("input purge did not reach quiescence")
)

// MagicError indicates the device did not present the expected magic number
// at connection time. Fatal: the caller must reconnect.
type MagicError struct {
	Got byte
}

func (e *MagicError) Error() string {
	return fmt.Sprintf("invalid magic number: read 0x%02X, expected 0x%02X", e.Got, proto.MagicNumber)
}

// HandshakeError indicates the device rejected the transformed challenge.
// Fatal: the caller must reconnect.
type HandshakeError struct {
	Got byte
}

func (e *HandshakeError) Error() string {
	return fmt.Sprintf("handshake rejected: read 0x%02X, expected 0x%02X", e.Got, proto.HandshakeAck)
}

// ChecksumSetupError indicates the last handshake phase was not acknowledged.
// Fatal: the caller must reconnect.
type ChecksumSetupError struct {
	Got byte
}

func (e *ChecksumSetupError) Error() string {
	return fmt.Sprintf("checksum-mode setup failed: read 0x%02X, expected 0x%02X", e.Got, proto.StatusSuccess)
}

// UnexpectedLengthError indicates the device answered with fewer bytes than
// the command requires. The shortfall is propagated, never zero-padded.
type UnexpectedLengthError struct {
	Want int
	Got  int
}

func (e *UnexpectedLengthError) Error() string {
	return fmt.Sprintf("unexpected response length: read %d of %d bytes", e.Got, e.Want)
}

package amt

import (
	"fmt"

	"github.com/obdtools/amtflash/pkg/proto"
)

// handshake runs the one-time connection ritual. The steps are strictly
// ordered and each failure aborts the whole sequence:
//
//  1. magic-number check
//  2. obfuscation bitmask retrieval
//  3. challenge-response authentication
//  4. EEPROM trigger write
//  5. checksum-mode setup
//
// Only on full success does the session become ready.
func (d *Device) handshake() error {
	magic, err := d.t.ReadEE(proto.AddrMagicNumber, proto.MagicNumberSize)
	if err != nil {
		return fmt.Errorf("read magic number: %w", err)
	}
	if magic[0] != proto.MagicNumber {
		return &MagicError{Got: magic[0]}
	}

	bitmasks, err := d.t.ReadEE(proto.AddrBitmasks, proto.BitmasksSize)
	if err != nil {
		return fmt.Errorf("read bitmasks: %w", err)
	}
	d.session.writeMask = bitmasks[0]
	d.session.readMask = bitmasks[1]

	challenge, err := d.transact(proto.BuildChallengeCmd(), proto.ChallengeSize)
	if err != nil {
		return fmt.Errorf("challenge request: %w", err)
	}

	var transformed [proto.ChallengeSize]byte
	for i, b := range challenge {
		transformed[i] = proto.TransformChallenge(b)
	}

	if _, err := d.t.Write(proto.BuildChallengeResponseCmd(transformed)); err != nil {
		return fmt.Errorf("challenge response: %w", err)
	}
	ack, err := d.readExact(1)
	if err != nil {
		return fmt.Errorf("challenge response: %w", err)
	}
	if ack[0] != proto.HandshakeAck {
		return &HandshakeError{Got: ack[0]}
	}

	// Zero-length write to the trigger cell. Presumed to latch internal
	// state; the device semantics are not documented.
	if err := d.t.WriteEE(proto.AddrWriteTrigger, nil); err != nil {
		return fmt.Errorf("trigger write: %w", err)
	}

	status, err := d.transact(proto.BuildChecksumSetupCmd(), 1)
	if err != nil {
		return fmt.Errorf("checksum-mode setup: %w", err)
	}
	if !proto.StatusOK(status[0]) {
		return &ChecksumSetupError{Got: status[0]}
	}

	d.session.ready = true
	d.logInfo("session established",
		"write_mask", fmt.Sprintf("0x%02X", d.session.writeMask),
		"read_mask", fmt.Sprintf("0x%02X", d.session.readMask),
	)
	return nil
}

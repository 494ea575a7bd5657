package proto

// Command opcodes
const (
	CmdDisableFlashWrite = 0x20 // Disable MCU flash writes/erases (untested)
	CmdHandshake         = 0x21 // Challenge-response authentication
	CmdVersionString     = 0x22 // Get firmware version string
	CmdSetDelay          = 0x24 // Set command delay
	CmdKwp               = 0x25 // K-line byte banging
	CmdChecksumSetup     = 0x26 // Checksum-mode setup (last handshake phase)
	CmdSetPin            = 0x27 // Set MCU pin level (untested)
	CmdUnknown2A         = 0x2A // Unknown, always answers an error (untested)
	CmdCan               = 0x30 // CAN controller lifecycle
	CmdVersion           = 0x31 // Get firmware version number
)

// Handshake sub-opcodes (CmdHandshake)
const (
	SubChallenge         = 0x55 // Request the two challenge bytes
	SubChallengeResponse = 0x56 // Answer with the transformed bytes
)

// KWP sub-opcodes (CmdKwp)
const (
	SubKwpFastInit       = 0x01 // Init pulse followed by a burst send
	SubKwpSendBytes      = 0x02 // Multi-byte send with inter-byte delay
	SubKwpSendCustomBaud = 0x03 // Single byte at a very low custom baud rate
	SubKwpSendByte       = 0x04 // Single byte at the configured baud rate
)

// CAN sub-opcodes (CmdCan)
const (
	SubCanReset  = 0x01 // Reset the CAN controller
	SubCanEnable = 0x09 // Enable the CAN controller
)

// Status and acknowledge bytes
const (
	StatusSuccess = 0x55 // ASCII 'U', success on every status-returning command
	HandshakeAck  = 0x33 // Acknowledge byte for the challenge response
	MagicNumber   = 0x33 // Expected first byte of the magic-number cell
)

// Challenge transform keys. Response bytes are complemented and then XORed
// with the magic value before being echoed back to the device.
const (
	ChallengeComplementKey = 0xFF
	ChallengeXorKey        = 0x33
)

// EEPROM address map. The address space is sparse and fixed by the device
// firmware; these are protocol constants, never allocated dynamically.
const (
	AddrMagicNumber  = 0x1000 // Magic number, 2 bytes, first must be 0x33
	AddrBitmasks     = 0x2000 // Obfuscation bitmasks, 2 bytes: write, read
	AddrVoltage      = 0x3000 // Raw supply voltage, 2 bytes big-endian
	AddrCertificate  = 0x4000 // Opaque certificate blob, 512 bytes
	AddrSecurityNum  = 0x5000 // Security number, 8 bytes, write-mask obfuscated
	AddrWriteTrigger = 0x5001 // Zero-length write latches internal state
	AddrUsageCounter = 0x6000 // Usage counter, 1 byte
)

// EEPROM field sizes
const (
	MagicNumberSize = 2
	BitmasksSize    = 2
	VoltageSize     = 2
	CertificateSize = 0x200
	SecurityNumSize = 8
	UsageCountSize  = 1
)

// ChallengeSize is the number of bytes in the handshake challenge and in its
// transformed response.
const ChallengeSize = 2

// VoltageScale converts the raw big-endian voltage reading to volts.
const VoltageScale = 52.01

// WakeBaudrate is the baud rate of the ISO 9141 / KWP 5-baud wake sequence,
// the usual argument to the custom-baud single-byte send.
const WakeBaudrate = 5

// KWP payload limits imposed by the wire encoding.
const (
	// MaxKwpSendLen is the largest payload of a multi-byte send; the length
	// field is a little-endian uint16.
	MaxKwpSendLen = 0xFFFF

	// MaxKwpFastInitLen is the largest payload of a fast init; unlike the
	// multi-byte send, its length field is a single byte.
	MaxKwpFastInitLen = 0xFF
)

// Package proto implements the binary command protocol spoken by the AMT
// flashing adapter over its USB serial bridge.
//
// The protocol is a plain opcode-plus-payload scheme with no framing markers
// and no checksums. Each command starts with a one-byte opcode, optionally
// followed by a sub-opcode and a command-specific payload. Field endianness is
// per field, not uniform: the KWP multi-byte send carries a little-endian
// 16-bit length, while the firmware version query answers big-endian.
//
//	Command:  [OPCODE][SUB-OP?][PAYLOAD...]
//	Response: raw bytes for queries, or a single status byte
//
// Commands that answer with a status byte use 0x55 (ASCII 'U') for success;
// any other value is a failure and is not classified further at this layer.
//
// # Command builders
//
// Use the Build* functions to construct frames ready to write to the bridge:
//
//	frame := proto.BuildChallengeCmd()
//	frame, err := proto.BuildKwpSendBytesCmd(data, 0)
//
// The builders validate payload limits that the wire encoding imposes (the
// KWP fast-init length field is a single byte, the multi-byte send length is
// sixteen bits) and otherwise emit bytes exactly as observed on the wire.
//
// # EEPROM address map
//
// Device state lives in a sparse EEPROM address space reached through the
// bridge's addressed read/write primitive, not through command frames. The
// Addr* constants enumerate the known cells.
package proto

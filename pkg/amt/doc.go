// Package amt implements the session layer of the AMT flashing adapter: the
// connection handshake, the purge-then-transact command discipline, the
// EEPROM-backed device queries, and the KWP and CAN sub-interfaces.
//
// A session starts with Open, which runs the one-time handshake over a
// transport (challenge-response authentication, obfuscation bitmask
// retrieval, checksum-mode setup) and fails fatally on any deviation:
//
//	bridge, err := ftdi.Open()
//	if err != nil { ... }
//	defer bridge.Close()
//
//	dev, err := amt.Open(bridge, amt.WithLogger(slog.Default()))
//	if err != nil { ... }
//
//	volts, err := dev.Voltage()
//	ok, err := dev.KWP().SendByte(0x81)
//
// Every transaction drains stale input before writing its frame, so an
// aborted command can never leak its response into the next one. Commands
// answered with a status byte report the outcome as a bool; only transport
// and framing problems surface as errors.
package amt

package amt

// Session holds the per-connection state learned during the handshake: the
// two obfuscation bitmasks and the readiness flag that gates every regular
// command. The device owns the only Session; the KWP and CAN sub-interfaces
// reach it through their parent device and never copy it, since the masks
// can only be learned once per physical connection.
type Session struct {
	writeMask byte
	readMask  byte
	ready     bool
}

// Ready reports whether the handshake completed and regular commands are
// accepted.
func (s *Session) Ready() bool { return s.ready }

// WriteMask returns the write obfuscation bitmask. It de-obfuscates the
// security number.
func (s *Session) WriteMask() byte { return s.writeMask }

// ReadMask returns the read obfuscation bitmask. The device hands it out
// during the handshake but no observed operation consumes it; it is kept
// for protocol fidelity only.
func (s *Session) ReadMask() byte { return s.readMask }

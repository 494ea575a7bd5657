package proto

// StatusOK reports whether a status byte signals success. The device uses
// the literal ASCII byte 'U' (0x55) for success; any other value is a
// failure. This is not a boolean 0/1 convention.
func StatusOK(b byte) bool {
	return b == StatusSuccess
}

// TransformChallenge applies the handshake transform to one challenge byte:
// bitwise complement followed by XOR with the magic value. Both steps are
// explicit XORs so the arithmetic stays within byte width.
func TransformChallenge(b byte) byte {
	b ^= ChallengeComplementKey
	b ^= ChallengeXorKey
	return b
}

// Deobfuscate XORs every byte of data with the session mask in place and
// returns data. The device scrambles the security number with the write
// bitmask only; the read bitmask is stored during handshake but consumed by
// no observed operation.
func Deobfuscate(data []byte, mask byte) []byte {
	for i := range data {
		data[i] ^= mask
	}
	return data
}

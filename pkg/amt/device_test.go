package amt

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/obdtools/amtflash/pkg/proto"
)

// openTestDevice opens a device over a scripted transport that accepted the
// handshake, then clears the response hook so each test wires its own.
func openTestDevice(t *testing.T) (*Device, *mockTransport) {
	t.Helper()

	m := newHandshakeTransport()
	dev, err := Open(m)
	require.NoError(t, err)

	m.onFrame = nil
	m.writes = nil
	m.pendingAtWrite = nil
	return dev, m
}

func TestVoltage(t *testing.T) {
	dev, m := openTestDevice(t)
	m.eeprom[proto.AddrVoltage] = []byte{0x01, 0x00} // big-endian 256

	volts, err := dev.Voltage()
	require.NoError(t, err)
	assert.InDelta(t, 256/52.01, volts, 1e-9)
	assert.InDelta(t, 4.9221, volts, 1e-4)
}

func TestUsages(t *testing.T) {
	dev, m := openTestDevice(t)
	m.eeprom[proto.AddrUsageCounter] = []byte{0x07}

	usages, err := dev.Usages()
	require.NoError(t, err)
	assert.Equal(t, byte(7), usages)
}

func TestSecurityNumber(t *testing.T) {
	dev, m := openTestDevice(t)
	m.eeprom[proto.AddrSecurityNum] = make([]byte, 8)

	num, err := dev.SecurityNumber()
	require.NoError(t, err)
	// All-zero cells XORed with the 0xAA write mask from the handshake.
	assert.Equal(t, bytes.Repeat([]byte{0xAA}, 8), num)
}

func TestSecurityNumber_IgnoresReadMask(t *testing.T) {
	dev, m := openTestDevice(t)
	m.eeprom[proto.AddrSecurityNum] = bytes.Repeat([]byte{0xBB}, 8)

	num, err := dev.SecurityNumber()
	require.NoError(t, err)
	// De-obfuscation uses the write mask (0xAA) only, never the read mask
	// (0xBB), mirroring the device's own asymmetry.
	assert.Equal(t, bytes.Repeat([]byte{0xBB ^ 0xAA}, 8), num)
}

func TestCertificate(t *testing.T) {
	dev, m := openTestDevice(t)
	blob := make([]byte, proto.CertificateSize)
	for i := range blob {
		blob[i] = byte(i)
	}
	m.eeprom[proto.AddrCertificate] = blob

	cert, err := dev.Certificate()
	require.NoError(t, err)
	assert.Equal(t, blob, cert)
}

func TestVersion(t *testing.T) {
	dev, m := openTestDevice(t)
	m.onFrame = func(frame []byte) {
		if bytes.Equal(frame, []byte{0x31}) {
			m.pending = append(m.pending, 0x01, 0x2C) // big-endian 300
		}
	}

	version, err := dev.Version()
	require.NoError(t, err)
	assert.Equal(t, uint16(300), version)
}

func TestVersionString(t *testing.T) {
	dev, m := openTestDevice(t)
	m.onFrame = func(frame []byte) {
		if bytes.Equal(frame, []byte{0x22}) {
			m.pending = append(m.pending, 0x05)
			m.pending = append(m.pending, []byte("v1.23")...)
		}
	}

	s, err := dev.VersionString()
	require.NoError(t, err)
	assert.Equal(t, "v1.23", s)
}

func TestVersionString_Empty(t *testing.T) {
	dev, m := openTestDevice(t)
	m.onFrame = func(frame []byte) {
		if bytes.Equal(frame, []byte{0x22}) {
			m.pending = append(m.pending, 0x00)
		}
	}

	s, err := dev.VersionString()
	require.NoError(t, err)
	assert.Empty(t, s)
}

func TestSetDelay(t *testing.T) {
	dev, m := openTestDevice(t)
	m.onFrame = func(frame []byte) {
		m.pending = append(m.pending, proto.StatusSuccess)
	}

	ok, err := dev.SetDelay(10)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, []byte{0x24, 0x0A}, m.lastWrite())
}

func TestStatusFailure_IsOutcomeNotError(t *testing.T) {
	dev, m := openTestDevice(t)
	m.onFrame = func(frame []byte) {
		m.pending = append(m.pending, 0x15)
	}

	ok, err := dev.SetDelay(10)
	require.NoError(t, err)
	assert.False(t, ok)

	ok, err = dev.DisableFlashWrite()
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestDisableFlashWrite(t *testing.T) {
	dev, m := openTestDevice(t)
	m.onFrame = func(frame []byte) {
		m.pending = append(m.pending, proto.StatusSuccess)
	}

	ok, err := dev.DisableFlashWrite()
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, []byte{0x20}, m.lastWrite())
}

func TestSetPins(t *testing.T) {
	dev, m := openTestDevice(t)
	m.onFrame = func(frame []byte) {
		m.pending = append(m.pending, proto.StatusSuccess)
	}

	ok, err := dev.SetPin0(true)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, []byte{0x27, 0x00, 0x01}, m.lastWrite())

	ok, err = dev.SetPin2(false)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, []byte{0x27, 0x01, 0x00}, m.lastWrite())
}

func TestUnknown2A(t *testing.T) {
	dev, m := openTestDevice(t)
	m.onFrame = func(frame []byte) {
		m.pending = append(m.pending, 0x55)
	}

	status, err := dev.Unknown2A()
	require.NoError(t, err)
	// Raw status byte, not interpreted.
	assert.Equal(t, byte(0x55), status)
	assert.Equal(t, []byte{0x2A}, m.lastWrite())
}

func TestTransact_PurgesBeforeWrite(t *testing.T) {
	dev, m := openTestDevice(t)
	m.onFrame = func(frame []byte) {
		if bytes.Equal(frame, []byte{0x31}) {
			m.pending = append(m.pending, 0x00, 0x01)
		}
	}

	// Simulate leftovers from an aborted transaction.
	m.pending = []byte{0xDE, 0xAD, 0xBE, 0xEF}

	_, err := dev.Version()
	require.NoError(t, err)

	// At the moment the frame went out, no stale byte may remain buffered.
	require.NotEmpty(t, m.pendingAtWrite)
	assert.Equal(t, 0, m.pendingAtWrite[len(m.pendingAtWrite)-1])
}

func TestShortResponse_NotZeroPadded(t *testing.T) {
	dev, m := openTestDevice(t)
	m.onFrame = func(frame []byte) {
		if bytes.Equal(frame, []byte{0x31}) {
			m.pending = append(m.pending, 0x01) // one of two bytes
		}
	}

	_, err := dev.Version()

	var lenErr *UnexpectedLengthError
	require.ErrorAs(t, err, &lenErr)
	assert.Equal(t, 2, lenErr.Want)
	assert.Equal(t, 1, lenErr.Got)
}

func TestNotReady(t *testing.T) {
	// A device whose session never completed the handshake refuses every
	// regular command.
	m := newHandshakeTransport()
	dev := &Device{t: m, config: defaultConfig()}
	dev.kwp = &KWP{d: dev}
	dev.can = &CAN{d: dev}

	_, err := dev.Voltage()
	assert.ErrorIs(t, err, ErrNotReady)

	_, err = dev.Version()
	assert.ErrorIs(t, err, ErrNotReady)

	_, err = dev.SetDelay(1)
	assert.ErrorIs(t, err, ErrNotReady)

	_, err = dev.KWP().SendByte(0x00)
	assert.ErrorIs(t, err, ErrNotReady)

	_, err = dev.CAN().ResetController()
	assert.ErrorIs(t, err, ErrNotReady)

	_, err = dev.ReadEE(proto.AddrVoltage, 2)
	assert.ErrorIs(t, err, ErrNotReady)
}

package amt

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/obdtools/amtflash/pkg/proto"
	"github.com/obdtools/amtflash/pkg/transport"
)

func TestKWP_SendByte(t *testing.T) {
	dev, m := openTestDevice(t)
	m.onFrame = func(frame []byte) {
		m.pending = append(m.pending, proto.StatusSuccess)
	}

	ok, err := dev.KWP().SendByte(0x81)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, []byte{0x25, 0x04, 0x81}, m.lastWrite())
}

func TestKWP_SendByteCustomBaud(t *testing.T) {
	dev, m := openTestDevice(t)

	err := dev.KWP().SendByteCustomBaud(0x55, proto.WakeBaudrate)
	require.NoError(t, err)

	// 1e6/5 = 200000 truncated to the one-byte wire field: 0x40.
	assert.Equal(t, []byte{0x25, 0x03, 0x40, 0x55}, m.lastWrite())
	// Fire-and-forget: nothing was queued, nothing may have been consumed.
	assert.Empty(t, m.pending)
}

func TestKWP_SendBytes(t *testing.T) {
	dev, m := openTestDevice(t)

	err := dev.KWP().SendBytes([]byte{0xC1, 0x33, 0xF1}, 5)
	require.NoError(t, err)
	assert.Equal(t, []byte{0x25, 0x02, 0x03, 0x00, 0x05, 0xC1, 0x33, 0xF1}, m.lastWrite())
}

func TestKWP_SendBytes_PurgesFirst(t *testing.T) {
	dev, m := openTestDevice(t)
	m.pending = []byte{0x99, 0x99}

	err := dev.KWP().SendBytes([]byte{0x01}, 0)
	require.NoError(t, err)

	require.NotEmpty(t, m.pendingAtWrite)
	assert.Equal(t, 0, m.pendingAtWrite[len(m.pendingAtWrite)-1])
}

func TestKWP_SendFastInit(t *testing.T) {
	dev, m := openTestDevice(t)

	err := dev.KWP().SendFastInit([]byte{0xC1, 0x33, 0xF1, 0x81}, 25, 0)
	require.NoError(t, err)
	assert.Equal(t, []byte{0x25, 0x01, 0x04, 0x00, 0x19, 0xC1, 0x33, 0xF1, 0x81}, m.lastWrite())
}

func TestKWP_LineControlPassThrough(t *testing.T) {
	dev, m := openTestDevice(t)
	kwp := dev.KWP()

	require.NoError(t, kwp.SetBaudrate(10400))
	assert.Equal(t, 10400, m.baud)

	require.NoError(t, kwp.SetLineProperty(8, transport.ParityNone, transport.StopBits1, false))
	assert.Equal(t, 8, m.databits)
	assert.Equal(t, transport.ParityNone, m.parity)
	assert.Equal(t, transport.StopBits1, m.stopbits)
	assert.False(t, m.brk)

	require.NoError(t, kwp.SetDTR(true))
	assert.True(t, m.dtr)

	require.NoError(t, kwp.SetRTS(true))
	assert.True(t, m.rts)

	// Line controls are pass-through, not framed commands.
	assert.Empty(t, m.writes)
}

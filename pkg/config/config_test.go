package config

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/obdtools/amtflash/pkg/transport"
)

type fakeDevice struct {
	transport transport.Transport
}

func (f *fakeDevice) Version() (uint16, error)       { return 300, nil }
func (f *fakeDevice) VersionString() (string, error) { return "v1.23", nil }
func (f *fakeDevice) Usages() (byte, error)          { return 7, nil }
func (f *fakeDevice) Voltage() (float64, error)      { return 12.34, nil }
func (f *fakeDevice) Transport() transport.Transport { return f.transport }

func (f *fakeDevice) SecurityNumber() ([]byte, error) {
	return []byte{0xAA, 0xBB, 0xCC, 0xDD, 0x00, 0x11, 0x22, 0x33}, nil
}

type fakeTransport struct {
	transport.Transport
}

func (f *fakeTransport) SerialNumber() string { return "AMT0001" }
func (f *fakeTransport) Product() string      { return "AMT Flasher" }

func TestFromDevice(t *testing.T) {
	snapshot, err := FromDevice(&fakeDevice{transport: &fakeTransport{}})
	require.NoError(t, err)

	assert.Equal(t, "AMT0001", snapshot.Serial)
	assert.Equal(t, "AMT Flasher", snapshot.Product)
	assert.Equal(t, uint16(300), snapshot.Version)
	assert.Equal(t, "v1.23", snapshot.VersionString)
	assert.Equal(t, uint8(7), snapshot.Usages)
	assert.Equal(t, 12.34, snapshot.Voltage)
	assert.Equal(t, "aabbccdd00112233", snapshot.SecurityNum)
	assert.WithinDuration(t, time.Now(), snapshot.Timestamp, time.Minute)
}

func TestFromDevice_NoIdentity(t *testing.T) {
	snapshot, err := FromDevice(&fakeDevice{transport: nil})
	require.NoError(t, err)
	assert.Empty(t, snapshot.Serial)
	assert.Empty(t, snapshot.Product)
}

func TestSaveLoadRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "snapshots", "AMT0001.json")

	want := &Snapshot{
		Serial:        "AMT0001",
		Product:       "AMT Flasher",
		Version:       300,
		VersionString: "v1.23",
		Usages:        7,
		Voltage:       12.34,
		SecurityNum:   "aabbccdd00112233",
		Timestamp:     time.Now().UTC().Truncate(time.Second),
	}

	require.NoError(t, SaveToFile(want, path))

	got, err := LoadFromFile(path)
	require.NoError(t, err)
	assert.Equal(t, want, got)
}

func TestLoadFromFile_Missing(t *testing.T) {
	_, err := LoadFromFile(filepath.Join(t.TempDir(), "missing.json"))
	assert.Error(t, err)
}

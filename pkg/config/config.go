// Package config captures a JSON snapshot of an adapter's identity and
// state, useful for fleet bookkeeping and support requests.
package config

import (
	"encoding/hex"
	"fmt"
	"time"

	"github.com/obdtools/amtflash/pkg/transport"
)

// Snapshot holds the identity and state read from an adapter.
type Snapshot struct {
	Serial        string    `json:"serial,omitempty"`
	Product       string    `json:"product,omitempty"`
	Version       uint16    `json:"version"`
	VersionString string    `json:"version_string,omitempty"`
	Usages        uint8     `json:"usages"`
	Voltage       float64   `json:"voltage"`
	SecurityNum   string    `json:"security_num"`
	Timestamp     time.Time `json:"timestamp"`
}

// DeviceReader is the slice of the device surface a snapshot needs.
type DeviceReader interface {
	Version() (uint16, error)
	VersionString() (string, error)
	Usages() (byte, error)
	Voltage() (float64, error)
	SecurityNumber() ([]byte, error)
	Transport() transport.Transport
}

// FromDevice reads a full snapshot from a connected adapter.
func FromDevice(device DeviceReader) (*Snapshot, error) {
	version, err := device.Version()
	if err != nil {
		return nil, fmt.Errorf("failed to get version: %w", err)
	}

	versionStr, err := device.VersionString()
	if err != nil {
		return nil, fmt.Errorf("failed to get version string: %w", err)
	}

	usages, err := device.Usages()
	if err != nil {
		return nil, fmt.Errorf("failed to get usage counter: %w", err)
	}

	voltage, err := device.Voltage()
	if err != nil {
		return nil, fmt.Errorf("failed to get voltage: %w", err)
	}

	securityNum, err := device.SecurityNumber()
	if err != nil {
		return nil, fmt.Errorf("failed to get security number: %w", err)
	}

	snapshot := &Snapshot{
		Version:       version,
		VersionString: versionStr,
		Usages:        usages,
		Voltage:       voltage,
		SecurityNum:   hex.EncodeToString(securityNum),
		Timestamp:     time.Now(),
	}

	// USB identity descriptors are only known to the direct-claim transport.
	if id, ok := device.Transport().(transport.Identity); ok {
		snapshot.Serial = id.SerialNumber()
		snapshot.Product = id.Product()
	}

	return snapshot, nil
}

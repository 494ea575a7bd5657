package ftdi

import "time"

// USB Device Identifiers
const (
	// DefaultVendorID and DefaultProductID match the FT232-style bridge the
	// adapter enumerates as. The adapter firmware implements the bridge's
	// vendor protocol itself, so clones with custom IDs exist; use
	// WithVIDPID to override.
	DefaultVendorID  = 0x0403
	DefaultProductID = 0x6001
)

// USB Endpoint Configuration
const (
	EPInNum  = 1 // Bulk IN (device to host), address 0x81
	EPOutNum = 2 // Bulk OUT (host to device), address 0x02

	// ModemStatusSize is the number of status bytes the bridge prepends to
	// every bulk IN packet. They carry line state, not payload.
	ModemStatusSize = 2
)

// USB Request Types
const (
	RequestTypeVendorIn  = 0xC0 // Vendor request, device to host
	RequestTypeVendorOut = 0x40 // Vendor request, host to device
)

// Vendor requests (SIO_* in the bridge documentation)
const (
	SIOReset         = 0x00 // Reset / purge buffers
	SIOSetModemCtrl  = 0x01 // DTR / RTS control
	SIOSetFlowCtrl   = 0x02 // Flow control
	SIOSetBaudrate   = 0x03 // Baud rate divisor
	SIOSetData       = 0x04 // Data bits, parity, stop bits, break
	SIOPollModemStat = 0x05 // Poll modem status
	SIOReadEEPROM    = 0x90 // Addressed EEPROM word read
	SIOWriteEEPROM   = 0x91 // Addressed EEPROM word write
)

// SIOReset values
const (
	SIOResetSIO     = 0 // Reset the bridge state machine
	SIOResetPurgeRX = 1 // Purge the host-bound FIFO
	SIOResetPurgeTX = 2 // Purge the device-bound FIFO
)

// SIOSetModemCtrl values: the high byte masks which line changes, the low
// byte carries the new state.
const (
	SIODTRMask = 0x0101
	SIODTRHigh = 0x0101
	SIODTRLow  = 0x0100
	SIORTSMask = 0x0202
	SIORTSHigh = 0x0202
	SIORTSLow  = 0x0200
)

// SIOSetData value layout: databits | parity<<8 | stopbits<<11 | break<<14.
const (
	lineParityShift   = 8
	lineStopBitsShift = 11
	lineBreakBit      = 1 << 14
)

// Baud rate divisor parameters
const (
	// BaseClock is the bridge clock feeding the baud generator.
	BaseClock = 3_000_000

	// MaxDivisor is the largest integer divisor the 14-bit field encodes.
	MaxDivisor = 0x3FFF
)

// Timeouts
const (
	DefaultReadTimeout = 100 * time.Millisecond
	WriteTimeout       = 1000 * time.Millisecond
	ControlTimeout     = 1000 * time.Millisecond
)

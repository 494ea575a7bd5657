package amt

import "github.com/obdtools/amtflash/pkg/proto"

// CAN exposes the lifecycle commands of the adapter's onboard CAN
// controller. This layer only resets and enables the controller; it does
// not interpret CAN traffic.
type CAN struct {
	d *Device
}

// ResetController resets the CAN controller. Returns false when the device
// answers a non-success status.
func (c *CAN) ResetController() (bool, error) {
	if err := c.d.requireReady(); err != nil {
		return false, err
	}
	return c.d.statusTransact(proto.BuildCanResetCmd())
}

// EnableController enables the CAN controller. Returns false when the
// device answers a non-success status.
func (c *CAN) EnableController() (bool, error) {
	if err := c.d.requireReady(); err != nil {
		return false, err
	}
	return c.d.statusTransact(proto.BuildCanEnableCmd())
}

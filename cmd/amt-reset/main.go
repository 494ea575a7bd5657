// amt-reset resets AMT adapter bridges to recover from USB errors, for
// example after a session was aborted mid-transaction.
package main

import (
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/google/gousb"

	"github.com/obdtools/amtflash/pkg/transport/ftdi"
)

func main() {
	vid := flag.Uint("vid", ftdi.DefaultVendorID, "USB vendor ID")
	pid := flag.Uint("pid", ftdi.DefaultProductID, "USB product ID")
	flag.Parse()

	ctx := gousb.NewContext()
	defer ctx.Close()

	// Try multiple times to find devices
	for attempt := 0; attempt < 3; attempt++ {
		devs, err := ctx.OpenDevices(func(desc *gousb.DeviceDesc) bool {
			return desc.Vendor == gousb.ID(*vid) && desc.Product == gousb.ID(*pid)
		})

		if err != nil {
			fmt.Printf("Attempt %d: Error finding devices: %v\n", attempt+1, err)
			time.Sleep(time.Second)
			continue
		}

		if len(devs) == 0 {
			fmt.Printf("Attempt %d: No devices found\n", attempt+1)
			time.Sleep(time.Second)
			continue
		}

		fmt.Printf("Found %d device(s)\n", len(devs))
		for i, dev := range devs {
			serial, _ := dev.SerialNumber()
			fmt.Printf("  Device %d: %s\n", i, serial)

			if err := dev.Reset(); err != nil {
				fmt.Printf("    Reset failed: %v\n", err)
			} else {
				fmt.Printf("    Reset OK\n")
			}
			dev.Close()
		}
		os.Exit(0)
	}

	fmt.Println("Failed to find/reset devices after 3 attempts")
	os.Exit(1)
}

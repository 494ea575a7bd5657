// amtctl talks to an AMT flashing adapter: identity and state queries,
// certificate export, pin control, CAN controller lifecycle, and K-line
// wake sequences.
package main

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"github.com/obdtools/amtflash/pkg/amt"
	"github.com/obdtools/amtflash/pkg/config"
	"github.com/obdtools/amtflash/pkg/proto"
	"github.com/obdtools/amtflash/pkg/transport/ftdi"
	"github.com/obdtools/amtflash/pkg/transport/serialport"
)

var (
	flagVID     string
	flagPID     string
	flagTimeout time.Duration
	flagVerbose bool
)

var rootCmd = &cobra.Command{
	Use:           "amtctl",
	Short:         "Control an AMT flashing adapter",
	SilenceUsage:  true,
	SilenceErrors: true,
}

// withDevice opens the bridge, runs the handshake and hands the ready
// device to fn, closing the bridge afterwards.
func withDevice(fn func(*amt.Device) error) error {
	vid, err := parseID(flagVID)
	if err != nil {
		return fmt.Errorf("bad --vid: %w", err)
	}
	pid, err := parseID(flagPID)
	if err != nil {
		return fmt.Errorf("bad --pid: %w", err)
	}

	bridge, err := ftdi.Open(
		ftdi.WithVIDPID(vid, pid),
		ftdi.WithReadTimeout(flagTimeout),
	)
	if err != nil {
		return err
	}
	defer bridge.Close()

	var opts []amt.Option
	if flagVerbose {
		opts = append(opts, amt.WithLogger(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
			Level: slog.LevelDebug,
		}))))
	}

	device, err := amt.Open(bridge, opts...)
	if err != nil {
		return err
	}
	return fn(device)
}

func parseID(s string) (uint16, error) {
	id, err := strconv.ParseUint(s, 16, 16)
	if err != nil {
		return 0, err
	}
	return uint16(id), nil
}

var infoCmd = &cobra.Command{
	Use:   "info",
	Short: "Show adapter identity and state",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return withDevice(func(device *amt.Device) error {
			snapshot, err := config.FromDevice(device)
			if err != nil {
				return err
			}
			if snapshot.Serial != "" {
				fmt.Printf("Serial:         %s\n", snapshot.Serial)
			}
			if snapshot.Product != "" {
				fmt.Printf("Product:        %s\n", snapshot.Product)
			}
			fmt.Printf("Firmware:       %d (%s)\n", snapshot.Version, snapshot.VersionString)
			fmt.Printf("Usages:         %d\n", snapshot.Usages)
			fmt.Printf("Voltage:        %.2f V\n", snapshot.Voltage)
			fmt.Printf("Security num:   %s\n", snapshot.SecurityNum)
			return nil
		})
	},
}

var voltageCmd = &cobra.Command{
	Use:   "voltage",
	Short: "Read the adapter supply voltage",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return withDevice(func(device *amt.Device) error {
			volts, err := device.Voltage()
			if err != nil {
				return err
			}
			fmt.Printf("%.2f V\n", volts)
			return nil
		})
	},
}

var securityCmd = &cobra.Command{
	Use:   "security",
	Short: "Read the de-obfuscated security number",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return withDevice(func(device *amt.Device) error {
			num, err := device.SecurityNumber()
			if err != nil {
				return err
			}
			fmt.Printf("%X\n", num)
			return nil
		})
	},
}

var certCmd = &cobra.Command{
	Use:   "cert <file>",
	Short: "Export the certificate blob to a file",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withDevice(func(device *amt.Device) error {
			cert, err := device.Certificate()
			if err != nil {
				return err
			}
			if err := os.WriteFile(args[0], cert, 0644); err != nil {
				return fmt.Errorf("failed to write certificate: %w", err)
			}
			fmt.Printf("Wrote %d bytes to %s\n", len(cert), args[0])
			return nil
		})
	},
}

var delayCmd = &cobra.Command{
	Use:   "delay <n>",
	Short: "Set the command delay",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		delay, err := strconv.ParseUint(args[0], 0, 8)
		if err != nil {
			return fmt.Errorf("bad delay: %w", err)
		}
		return withDevice(func(device *amt.Device) error {
			ok, err := device.SetDelay(byte(delay))
			if err != nil {
				return err
			}
			if !ok {
				return fmt.Errorf("device refused the delay")
			}
			fmt.Println("OK")
			return nil
		})
	},
}

var pinCmd = &cobra.Command{
	Use:   "pin <0|2> <high|low>",
	Short: "Drive an MCU port pin",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		var high bool
		switch args[1] {
		case "high":
			high = true
		case "low":
			high = false
		default:
			return fmt.Errorf("level must be high or low, got %q", args[1])
		}

		return withDevice(func(device *amt.Device) error {
			var ok bool
			var err error
			switch args[0] {
			case "0":
				ok, err = device.SetPin0(high)
			case "2":
				ok, err = device.SetPin2(high)
			default:
				return fmt.Errorf("pin must be 0 or 2, got %q", args[0])
			}
			if err != nil {
				return err
			}
			if !ok {
				return fmt.Errorf("device refused the pin change")
			}
			fmt.Println("OK")
			return nil
		})
	},
}

var canCmd = &cobra.Command{
	Use:   "can <reset|enable>",
	Short: "Control the onboard CAN controller",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withDevice(func(device *amt.Device) error {
			var ok bool
			var err error
			switch args[0] {
			case "reset":
				ok, err = device.CAN().ResetController()
			case "enable":
				ok, err = device.CAN().EnableController()
			default:
				return fmt.Errorf("action must be reset or enable, got %q", args[0])
			}
			if err != nil {
				return err
			}
			if !ok {
				return fmt.Errorf("device refused the CAN %s", args[0])
			}
			fmt.Println("OK")
			return nil
		})
	},
}

var kwpInit5Cmd = &cobra.Command{
	Use:   "init5 <address>",
	Short: "Send an ISO 9141 5-baud wake byte on the K-line",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		address, err := strconv.ParseUint(args[0], 0, 8)
		if err != nil {
			return fmt.Errorf("bad target address: %w", err)
		}
		return withDevice(func(device *amt.Device) error {
			if err := device.KWP().SendByteCustomBaud(byte(address), proto.WakeBaudrate); err != nil {
				return err
			}
			fmt.Printf("Sent wake byte 0x%02X at %d baud\n", address, proto.WakeBaudrate)
			return nil
		})
	},
}

var kwpCmd = &cobra.Command{
	Use:   "kwp",
	Short: "K-line operations",
}

var portsCmd = &cobra.Command{
	Use:   "ports",
	Short: "List serial ports on this system",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		ports, err := serialport.ListPorts()
		if err != nil {
			return err
		}
		if len(ports) == 0 {
			fmt.Println("No serial ports found")
			return nil
		}
		for _, port := range ports {
			fmt.Println(port)
		}
		return nil
	},
}

var dumpCmd = &cobra.Command{
	Use:   "dump <file>",
	Short: "Save an adapter snapshot as JSON",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withDevice(func(device *amt.Device) error {
			snapshot, err := config.FromDevice(device)
			if err != nil {
				return err
			}
			if err := config.SaveToFile(snapshot, args[0]); err != nil {
				return err
			}
			fmt.Printf("Wrote snapshot to %s\n", args[0])
			return nil
		})
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&flagVID, "vid", fmt.Sprintf("%04x", ftdi.DefaultVendorID), "USB vendor ID (hex)")
	rootCmd.PersistentFlags().StringVar(&flagPID, "pid", fmt.Sprintf("%04x", ftdi.DefaultProductID), "USB product ID (hex)")
	rootCmd.PersistentFlags().DurationVar(&flagTimeout, "timeout", ftdi.DefaultReadTimeout, "bridge read timeout")
	rootCmd.PersistentFlags().BoolVarP(&flagVerbose, "verbose", "v", false, "log protocol diagnostics")

	kwpCmd.AddCommand(kwpInit5Cmd)
	rootCmd.AddCommand(infoCmd, voltageCmd, securityCmd, certCmd, delayCmd, pinCmd, canCmd, kwpCmd, portsCmd, dumpCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

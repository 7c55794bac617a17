package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/MattLD13/tickerctl/internal/ticker"
)

var (
	deviceBrightness int
	deviceScroll     float64
	deviceSeamless   bool
	deviceInverted   bool
	deviceLiveDelay  bool
	deviceDelaySecs  int
)

var deviceCmd = &cobra.Command{
	Use:   "device",
	Short: "Manage per-device hardware settings",
}

var deviceSetCmd = &cobra.Command{
	Use:   "set [device-id]",
	Short: "Change hardware settings on a device",
	Long: `Set pushes hardware settings to one device. Only flags you pass are
changed; everything else keeps its current value on the device. With no
device id the currently paired device is targeted.

Examples:
  tickerctl device set --brightness 60
  tickerctl device set tick-3 --scroll-speed 0.05 --inverted`,
	Args: cobra.MaximumNArgs(1),
	RunE: runDeviceSet,
}

func init() {
	flags := deviceSetCmd.Flags()
	flags.IntVar(&deviceBrightness, "brightness", 0, "panel brightness, 0-100")
	flags.Float64Var(&deviceScroll, "scroll-speed", 0, "seconds per pixel of scroll")
	flags.BoolVar(&deviceSeamless, "seamless", false, "scroll without gaps between items")
	flags.BoolVar(&deviceInverted, "inverted", false, "invert the panel colors")
	flags.BoolVar(&deviceLiveDelay, "live-delay", false, "delay live scores to match broadcast")
	flags.IntVar(&deviceDelaySecs, "live-delay-seconds", 0, "seconds of live-score delay")
	deviceCmd.AddCommand(deviceSetCmd)
	rootCmd.AddCommand(deviceCmd)
}

func runDeviceSet(cmd *cobra.Command, args []string) error {
	ctx := context.Background()

	deviceID := resolveTarget(ctx)
	if len(args) == 1 {
		deviceID = args[0]
	}
	if deviceID == "" {
		return fmt.Errorf("no device id given and none paired")
	}

	var patch ticker.DevicePatch
	flags := cmd.Flags()
	if flags.Changed("brightness") {
		if deviceBrightness < 0 || deviceBrightness > 100 {
			return fmt.Errorf("brightness must be 0-100")
		}
		patch.Brightness = &deviceBrightness
	}
	if flags.Changed("scroll-speed") {
		patch.ScrollSpeed = &deviceScroll
	}
	if flags.Changed("seamless") {
		patch.ScrollSeamless = &deviceSeamless
	}
	if flags.Changed("inverted") {
		patch.Inverted = &deviceInverted
	}
	if flags.Changed("live-delay") {
		patch.LiveDelayMode = &deviceLiveDelay
	}
	if flags.Changed("live-delay-seconds") {
		patch.LiveDelaySeconds = &deviceDelaySecs
	}
	if patch.IsZero() {
		return fmt.Errorf("nothing to change; pass at least one setting flag")
	}

	if err := client.PushDeviceSettings(ctx, deviceID, patch); err != nil {
		return fmt.Errorf("push device settings: %w", err)
	}
	if JSONOutput() {
		return json.NewEncoder(os.Stdout).Encode(map[string]interface{}{
			"device": deviceID,
			"patch":  patch,
		})
	}
	NormalF("Updated device %s", deviceID)
	return nil
}

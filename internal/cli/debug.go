package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var debugDate string

var debugCmd = &cobra.Command{
	Use:   "debug on|off",
	Short: "Toggle the server's debug mode",
	Long: `Debug toggles the server's debug mode. With --date the server replays
the given day's data, useful for exercising the scoreboard off-season.`,
	Args:      cobra.ExactArgs(1),
	ValidArgs: []string{"on", "off"},
	RunE:      runDebug,
}

var rebootCmd = &cobra.Command{
	Use:   "reboot [device-id]",
	Short: "Reboot a ticker device",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runReboot,
}

func init() {
	debugCmd.Flags().StringVar(&debugDate, "date", "", "replay data for this date (YYYY-MM-DD)")
	rootCmd.AddCommand(debugCmd)
	rootCmd.AddCommand(rebootCmd)
}

func runDebug(cmd *cobra.Command, args []string) error {
	ctx := context.Background()

	var enabled bool
	switch args[0] {
	case "on":
		enabled = true
	case "off":
		enabled = false
	default:
		return fmt.Errorf("expected 'on' or 'off', got %q", args[0])
	}

	if err := client.SendDebug(ctx, enabled, debugDate); err != nil {
		return fmt.Errorf("send debug: %w", err)
	}
	if JSONOutput() {
		return json.NewEncoder(os.Stdout).Encode(map[string]interface{}{
			"debug_mode":  enabled,
			"custom_date": debugDate,
		})
	}
	if enabled {
		NormalF("Debug mode on")
	} else {
		NormalF("Debug mode off")
	}
	return nil
}

func runReboot(cmd *cobra.Command, args []string) error {
	ctx := context.Background()

	deviceID := pairs.Latch()
	if len(args) == 1 {
		deviceID = args[0]
	}
	if deviceID == "" {
		return fmt.Errorf("no device id given and none latched")
	}

	if err := client.Reboot(ctx, deviceID); err != nil {
		return fmt.Errorf("reboot %s: %w", deviceID, err)
	}
	if JSONOutput() {
		return json.NewEncoder(os.Stdout).Encode(map[string]string{"rebooting": deviceID})
	}
	NormalF("Rebooting device %s", deviceID)
	return nil
}

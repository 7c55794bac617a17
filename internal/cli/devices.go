package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/MattLD13/tickerctl/internal/pairing"
)

var devicesCmd = &cobra.Command{
	Use:   "devices",
	Short: "List devices paired with this client",
	RunE:  runDevices,
}

func init() {
	rootCmd.AddCommand(devicesCmd)
}

func runDevices(cmd *cobra.Command, args []string) error {
	ctx := context.Background()

	devices, err := client.FetchDevices(ctx)
	if err != nil {
		return fmt.Errorf("fetch devices: %w", err)
	}
	outcome := pairing.RosterPopulated
	if len(devices) == 0 {
		outcome = pairing.RosterEmpty
	}
	latched := pairs.ReconcileRoster(outcome, devices)

	if JSONOutput() {
		return json.NewEncoder(os.Stdout).Encode(devices)
	}

	if len(devices) == 0 {
		fmt.Println("No devices paired. Run 'tickerctl pair' to claim one.")
		return nil
	}

	table := NewTable("", "NAME", "ID", "BRIGHTNESS", "LAST SEEN")
	for _, d := range devices {
		marker := ""
		if d.ID == latched {
			marker = StatusIcon(true)
		}
		lastSeen := "never"
		if t := d.LastSeenTime(); !t.IsZero() {
			lastSeen = humanize.Time(t)
		}
		table.Row(marker, d.Name, d.ID, fmt.Sprintf("%d%%", d.Settings.Brightness), lastSeen)
	}
	table.Flush()
	return nil
}

package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/MattLD13/tickerctl/internal/ticker"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show server connectivity and current display settings",
	RunE:  runStatus,
}

func init() {
	rootCmd.AddCommand(statusCmd)
}

func runStatus(cmd *cobra.Command, args []string) error {
	ctx := context.Background()

	target := resolveTarget(ctx)
	settings, items, err := client.FetchState(ctx, target)
	if err != nil && !ticker.IsDecode(err) {
		if JSONOutput() {
			return json.NewEncoder(os.Stdout).Encode(map[string]interface{}{
				"connected": false,
				"error":     err.Error(),
			})
		}
		fmt.Println("Offline")
		if Verbose() {
			fmt.Fprintf(os.Stderr, "state fetch: %v\n", err)
		}
		return nil
	}

	if JSONOutput() {
		return json.NewEncoder(os.Stdout).Encode(map[string]interface{}{
			"connected": true,
			"device_id": target,
			"items":     len(items),
			"settings":  settings,
		})
	}

	if target != "" {
		NormalF("Connected • %d items", len(items))
	} else {
		NormalF("Server reachable • no device paired")
	}
	fmt.Println()
	NormalF("Mode:          %s", settings.Mode)
	switch settings.Mode {
	case ticker.ModeMyTeams:
		NormalF("My teams:      %s", strings.Join(settings.MyTeams, ", "))
	case ticker.ModeWeather:
		NormalF("Weather city:  %s (%.4f, %.4f)", settings.WeatherCity, settings.WeatherLat, settings.WeatherLon)
	case ticker.ModeFlights:
		NormalF("Airport:       %s / %s (%s)", settings.AirportIATA, settings.AirportICAO, settings.AirportName)
	case ticker.ModeFlightTracker:
		NormalF("Tracking:      %s", settings.TrackFlightID)
	}
	NormalF("Scroll speed:  %d", settings.ScrollSpeed)
	if target != "" {
		NormalF("Device:        %s", target)
	}
	if settings.DebugMode {
		NormalF("Debug:         on (%s)", settings.CustomDate)
	}

	if Verbose() {
		active := make([]string, 0, len(settings.ActiveCategories))
		for id, on := range settings.ActiveCategories {
			if on {
				active = append(active, id)
			}
		}
		NormalF("Categories:    %s", strings.Join(active, ", "))
		NormalF("Latched:       %s", pairs.Latch())
	}
	return nil
}

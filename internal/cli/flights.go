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

var (
	flightICAO  string
	flightName  string
	flightGuest string
)

var flightsCmd = &cobra.Command{
	Use:   "flights",
	Short: "Configure the flight surfaces",
}

var flightsAirportCmd = &cobra.Command{
	Use:   "airport <iata>",
	Short: "Set the departures-board airport",
	Long: `Airport sets the airport shown in flights mode by its IATA code. Pass
--icao and --name when the server cannot derive them.`,
	Args: cobra.ExactArgs(1),
	RunE: runFlightsAirport,
}

var flightsTrackCmd = &cobra.Command{
	Use:   "track <flight-id>",
	Short: "Follow a single flight",
	Long: `Track switches the display to flight_tracker mode following one flight,
for example UA123. Use --guest to label the flight with a traveller name.`,
	Args: cobra.ExactArgs(1),
	RunE: runFlightsTrack,
}

func init() {
	flightsAirportCmd.Flags().StringVar(&flightICAO, "icao", "", "ICAO code for the airport")
	flightsAirportCmd.Flags().StringVar(&flightName, "name", "", "display name for the airport")
	flightsTrackCmd.Flags().StringVar(&flightGuest, "guest", "", "traveller name shown with the flight")
	flightsCmd.AddCommand(flightsAirportCmd)
	flightsCmd.AddCommand(flightsTrackCmd)
	rootCmd.AddCommand(flightsCmd)
}

func runFlightsAirport(cmd *cobra.Command, args []string) error {
	ctx := context.Background()

	iata := strings.ToUpper(strings.TrimSpace(args[0]))
	if iata == "" {
		return fmt.Errorf("airport code required")
	}

	settings, err := editSettings(ctx, func(s *ticker.Settings) {
		s.Mode = ticker.ModeFlights
		s.AirportIATA = iata
		if flightICAO != "" {
			s.AirportICAO = strings.ToUpper(flightICAO)
		}
		if flightName != "" {
			s.AirportName = flightName
		}
	})
	if err != nil {
		return err
	}
	if JSONOutput() {
		return json.NewEncoder(os.Stdout).Encode(map[string]string{
			"airport": settings.AirportIATA,
			"icao":    settings.AirportICAO,
			"name":    settings.AirportName,
		})
	}
	NormalF("Departures board set to %s", settings.AirportIATA)
	return nil
}

func runFlightsTrack(cmd *cobra.Command, args []string) error {
	ctx := context.Background()

	flightID := strings.ToUpper(strings.TrimSpace(args[0]))
	if flightID == "" {
		return fmt.Errorf("flight id required")
	}

	settings, err := editSettings(ctx, func(s *ticker.Settings) {
		s.Mode = ticker.ModeFlightTracker
		s.TrackFlightID = flightID
		s.TrackGuestName = flightGuest
	})
	if err != nil {
		return err
	}
	if JSONOutput() {
		return json.NewEncoder(os.Stdout).Encode(map[string]string{
			"flight": settings.TrackFlightID,
			"guest":  settings.TrackGuestName,
		})
	}
	NormalF("Tracking flight %s", settings.TrackFlightID)
	return nil
}

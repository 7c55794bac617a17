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
	weatherLat float64
	weatherLon float64
)

var weatherCmd = &cobra.Command{
	Use:   "weather [city]",
	Short: "Show or set the weather city",
	Long: `Weather shows the configured weather location, or sets it when given a
city name. Pass --lat and --lon to pin exact coordinates; otherwise the
server geocodes the city.`,
	Args: cobra.ArbitraryArgs,
	RunE: runWeather,
}

func init() {
	weatherCmd.Flags().Float64Var(&weatherLat, "lat", 0, "latitude for the city")
	weatherCmd.Flags().Float64Var(&weatherLon, "lon", 0, "longitude for the city")
	rootCmd.AddCommand(weatherCmd)
}

func runWeather(cmd *cobra.Command, args []string) error {
	ctx := context.Background()

	if len(args) == 0 {
		settings, _, err := client.FetchState(ctx, resolveTarget(ctx))
		if err != nil && !ticker.IsDecode(err) {
			return fmt.Errorf("fetch settings: %w", err)
		}
		if JSONOutput() {
			return json.NewEncoder(os.Stdout).Encode(map[string]interface{}{
				"city": settings.WeatherCity,
				"lat":  settings.WeatherLat,
				"lon":  settings.WeatherLon,
			})
		}
		NormalF("%s (%.4f, %.4f)", settings.WeatherCity, settings.WeatherLat, settings.WeatherLon)
		return nil
	}

	city := strings.TrimSpace(strings.Join(args, " "))
	if city == "" {
		return fmt.Errorf("city name required")
	}

	settings, err := editSettings(ctx, func(s *ticker.Settings) {
		s.WeatherCity = city
		if cmd.Flags().Changed("lat") {
			s.WeatherLat = weatherLat
		}
		if cmd.Flags().Changed("lon") {
			s.WeatherLon = weatherLon
		}
	})
	if err != nil {
		return err
	}
	if JSONOutput() {
		return json.NewEncoder(os.Stdout).Encode(map[string]string{"city": settings.WeatherCity})
	}
	NormalF("Weather city set to %s", settings.WeatherCity)
	return nil
}

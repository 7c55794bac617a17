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

var modeCmd = &cobra.Command{
	Use:   "mode [mode]",
	Short: "Show or set the display mode",
	Long: `Mode shows the current display mode, or sets it when given an argument.

Modes:
  sports          rotate scores across the enabled categories
  live            only games currently in progress
  my_teams        only followed teams
  stocks          stock tickers
  weather         weather for the configured city
  clock           clock face
  music           now-playing
  flights         departures board for the configured airport
  flight_tracker  follow a single flight`,
	Args:      cobra.MaximumNArgs(1),
	ValidArgs: []string{"sports", "live", "my_teams", "stocks", "weather", "clock", "music", "flights", "flight_tracker"},
	RunE:      runMode,
}

func init() {
	rootCmd.AddCommand(modeCmd)
}

func runMode(cmd *cobra.Command, args []string) error {
	ctx := context.Background()

	if len(args) == 0 {
		settings, _, err := client.FetchState(ctx, resolveTarget(ctx))
		if err != nil && !ticker.IsDecode(err) {
			return fmt.Errorf("fetch settings: %w", err)
		}
		if JSONOutput() {
			return json.NewEncoder(os.Stdout).Encode(map[string]string{"mode": settings.Mode})
		}
		fmt.Println(settings.Mode)
		return nil
	}

	requested := strings.TrimSpace(args[0])
	normalized := ticker.NormalizeMode(requested)
	if normalized != requested {
		if Verbose() {
			fmt.Fprintf(os.Stderr, "mode %q normalized to %q\n", requested, normalized)
		}
	}

	settings, err := editSettings(ctx, func(s *ticker.Settings) {
		s.Mode = normalized
	})
	if err != nil {
		return err
	}
	if JSONOutput() {
		return json.NewEncoder(os.Stdout).Encode(map[string]string{"mode": settings.Mode})
	}
	NormalF("Mode set to %s", settings.Mode)
	return nil
}

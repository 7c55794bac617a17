package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/charmbracelet/huh"
	"github.com/spf13/cobra"

	"github.com/MattLD13/tickerctl/internal/ticker"
)

var (
	pairName string
	pairID   string
)

var pairCmd = &cobra.Command{
	Use:   "pair [code]",
	Short: "Pair this client with a ticker device",
	Long: `Pair claims a ticker device for this client using the short pairing
code shown on the display. With no arguments an interactive prompt asks
for the code. Use --id to re-claim a device whose stable id is already
known.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runPair,
}

var unpairCmd = &cobra.Command{
	Use:   "unpair [device-id]",
	Short: "Release a paired ticker device",
	Long: `Unpair releases a device claimed by this client. With no arguments the
currently latched device is released.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runUnpair,
}

func init() {
	pairCmd.Flags().StringVarP(&pairName, "name", "n", "", "label to register for this device")
	pairCmd.Flags().StringVar(&pairID, "id", "", "pair by known device id instead of code")
	rootCmd.AddCommand(pairCmd)
	rootCmd.AddCommand(unpairCmd)
}

func runPair(cmd *cobra.Command, args []string) error {
	ctx := context.Background()

	var result ticker.PairResult
	var err error
	switch {
	case pairID != "":
		result, err = pairs.PairByID(ctx, pairID, pairName)
	case len(args) == 1:
		result, err = pairs.PairByCode(ctx, args[0], pairName)
	default:
		code := ""
		form := huh.NewForm(
			huh.NewGroup(
				huh.NewInput().
					Title("Pairing code").
					Description("Shown on the ticker display").
					Value(&code),
				huh.NewInput().
					Title("Device name").
					Description("Optional label for this device").
					Value(&pairName),
			),
		)
		if err := form.Run(); err != nil {
			return fmt.Errorf("pairing cancelled: %w", err)
		}
		result, err = pairs.PairByCode(ctx, code, pairName)
	}
	if err != nil {
		return err
	}

	if JSONOutput() {
		return json.NewEncoder(os.Stdout).Encode(result)
	}
	if !result.Success {
		msg := result.Message
		if msg == "" {
			msg = "pairing rejected"
		}
		return fmt.Errorf("%s", msg)
	}
	NormalF("Paired with device %s", result.DeviceID)
	return nil
}

func runUnpair(cmd *cobra.Command, args []string) error {
	ctx := context.Background()

	deviceID := ""
	if len(args) == 1 {
		deviceID = strings.TrimSpace(args[0])
	} else {
		deviceID = pairs.Latch()
	}
	if deviceID == "" {
		return fmt.Errorf("no device id given and none latched")
	}

	if err := pairs.Unpair(ctx, deviceID); err != nil {
		return fmt.Errorf("unpair %s: %w", deviceID, err)
	}
	if JSONOutput() {
		return json.NewEncoder(os.Stdout).Encode(map[string]string{"unpaired": deviceID})
	}
	NormalF("Released device %s", deviceID)
	return nil
}

package cli

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/MattLD13/tickerctl/internal/pairing"
	"github.com/MattLD13/tickerctl/internal/ticker"
)

// resolveTarget picks the device one-shot commands address: the first device
// on the live roster, else the persisted latch. The roster result also feeds
// the latch reconciliation so stale pairings heal on any command.
func resolveTarget(ctx context.Context) string {
	devices, err := client.FetchDevices(ctx)
	if err != nil {
		if Verbose() {
			fmt.Fprintf(os.Stderr, "device roster: %v\n", err)
		}
		if errors.Is(err, ticker.ErrForbidden) {
			pairs.HandleForbidden()
			return ""
		}
		return pairs.Latch()
	}
	outcome := pairing.RosterPopulated
	if len(devices) == 0 {
		outcome = pairing.RosterEmpty
	}
	pairs.ReconcileRoster(outcome, devices)
	return pairing.ResolveTarget(devices, pairs.Latch())
}

// editSettings fetches the current settings, applies fn, and pushes the
// result back in one round trip.
func editSettings(ctx context.Context, fn func(*ticker.Settings)) (ticker.Settings, error) {
	target := resolveTarget(ctx)
	settings, _, err := client.FetchState(ctx, target)
	if err != nil && !ticker.IsDecode(err) {
		return ticker.Settings{}, fmt.Errorf("fetch current settings: %w", err)
	}
	fn(&settings)
	settings.Mode = ticker.NormalizeMode(settings.Mode)

	if err := client.PushSettings(ctx, target, settings); err != nil {
		if errors.Is(err, ticker.ErrForbidden) {
			pairs.HandleForbidden()
			return ticker.Settings{}, errors.New("this client is no longer paired; run 'tickerctl pair'")
		}
		return ticker.Settings{}, fmt.Errorf("push settings: %w", err)
	}
	return settings, nil
}

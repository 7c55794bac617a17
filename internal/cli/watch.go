package cli

import (
	"context"
	"time"

	"github.com/spf13/cobra"

	"github.com/MattLD13/tickerctl/internal/state"
	"github.com/MattLD13/tickerctl/internal/sync"
	"github.com/MattLD13/tickerctl/internal/tui"
)

var watchRefresh int

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Live dashboard that keeps settings in sync",
	Long: `Watch runs the synchronization engine and shows a live dashboard.
While it runs, local edits are debounced and pushed to the server, the
poll rate adapts to the display mode, and the device roster is kept
fresh.

Keyboard shortcuts:
  q, Ctrl+C    Quit
  r            Refresh now
  m            Cycle display mode
  s            Toggle seamless scrolling`,
	RunE: runWatch,
}

func init() {
	watchCmd.Flags().IntVar(&watchRefresh, "refresh", 500, "dashboard refresh interval in milliseconds")
	rootCmd.AddCommand(watchCmd)
}

func runWatch(cmd *cobra.Command, args []string) error {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	store := &state.Store{}
	ctrl := sync.New(client, pairs, store, sync.DefaultTiming())
	ctrl.Start(ctx)

	err := tui.Run(ctrl, time.Duration(watchRefresh)*time.Millisecond)

	cancel()
	<-ctrl.Done()
	return err
}

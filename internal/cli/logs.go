package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/MattLD13/tickerctl/internal/logtail"
)

var logsLines int

var logsCmd = &cobra.Command{
	Use:   "logs",
	Short: "Show the tail of the server log",
	RunE:  runLogs,
}

func init() {
	logsCmd.Flags().IntVarP(&logsLines, "lines", "n", 50, "number of lines to show")
	rootCmd.AddCommand(logsCmd)
}

func runLogs(cmd *cobra.Command, args []string) error {
	ctx := context.Background()

	page, err := client.FetchServerLog(ctx)
	if err != nil {
		return fmt.Errorf("fetch server log: %w", err)
	}
	lines := logtail.Tail(logtail.Extract(page), logsLines)

	if JSONOutput() {
		return json.NewEncoder(os.Stdout).Encode(lines)
	}
	for _, line := range lines {
		fmt.Println(line)
	}
	return nil
}

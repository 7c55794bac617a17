package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/MattLD13/tickerctl/internal/config"
	"github.com/MattLD13/tickerctl/internal/pairing"
	"github.com/MattLD13/tickerctl/internal/prefs"
	"github.com/MattLD13/tickerctl/internal/ticker"
)

var (
	cfgFile    string
	serverFlag string
	jsonOut    bool
	verbose    bool

	cfg       config.Config
	prefsPath string
	clientID  string
	client    *ticker.Client
	pairs     *pairing.Manager
)

var rootCmd = &cobra.Command{
	Use:   "tickerctl",
	Short: "Control and monitor a ticker display from the command line",
	Long: `Tickerctl pairs with a ticker display server and keeps its settings in
sync: display mode, followed teams, weather and flight sources, and
per-device hardware options.`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		return initRoot()
	},
	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "", "config file (default: ~/.config/tickerctl/config.toml)")
	rootCmd.PersistentFlags().StringVar(&serverFlag, "server", "", "server base URL (overrides config)")
	rootCmd.PersistentFlags().BoolVarP(&jsonOut, "json", "j", false, "output as JSON")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")
}

// initRoot resolves configuration and builds the shared client. Server URL
// precedence: --server flag, then the persisted prefs slot, then the config
// file, then the built-in default.
func initRoot() error {
	var err error
	cfg, err = config.Load(cfgFile)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	prefsPath = cfg.PrefsPath
	stored := prefs.Load(prefsPath)
	if stored.ServerURL != "" {
		cfg.ServerURL = stored.ServerURL
	}
	if serverFlag != "" {
		cfg.ServerURL = serverFlag
	}

	clientID, err = pairing.EnsureIdentity(prefsPath)
	if err != nil {
		return fmt.Errorf("failed to establish client identity: %w", err)
	}

	client, err = ticker.NewClient(cfg.ServerURL, clientID)
	if err != nil {
		return fmt.Errorf("invalid server URL: %w", err)
	}
	pairs = pairing.NewManager(client, prefsPath)
	return nil
}

// Execute runs the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// JSONOutput returns true if JSON output is requested.
func JSONOutput() bool {
	return jsonOut
}

// Verbose returns true if verbose output is requested.
func Verbose() bool {
	return verbose
}

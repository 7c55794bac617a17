package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/spf13/cobra"

	"github.com/MattLD13/tickerctl/internal/ticker"
)

var teamsCmd = &cobra.Command{
	Use:   "teams",
	Short: "Manage the followed-teams list",
}

var teamsListCmd = &cobra.Command{
	Use:   "list",
	Short: "Show followed teams",
	RunE:  runTeamsList,
}

var teamsAddCmd = &cobra.Command{
	Use:   "add <team>...",
	Short: "Follow one or more teams",
	Long: `Add follows teams by their category-qualified abbreviation, for example
nfl:NYG. Already-followed teams are left as-is.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runTeamsAdd,
}

var teamsRemoveCmd = &cobra.Command{
	Use:   "remove <team>...",
	Short: "Stop following one or more teams",
	Args:  cobra.MinimumNArgs(1),
	RunE:  runTeamsRemove,
}

var teamsAvailableCmd = &cobra.Command{
	Use:   "available [category]",
	Short: "List teams the server knows about",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runTeamsAvailable,
}

func init() {
	teamsCmd.AddCommand(teamsListCmd)
	teamsCmd.AddCommand(teamsAddCmd)
	teamsCmd.AddCommand(teamsRemoveCmd)
	teamsCmd.AddCommand(teamsAvailableCmd)
	rootCmd.AddCommand(teamsCmd)
}

func runTeamsList(cmd *cobra.Command, args []string) error {
	ctx := context.Background()

	settings, _, err := client.FetchState(ctx, resolveTarget(ctx))
	if err != nil && !ticker.IsDecode(err) {
		return fmt.Errorf("fetch settings: %w", err)
	}
	if JSONOutput() {
		return json.NewEncoder(os.Stdout).Encode(settings.MyTeams)
	}
	if len(settings.MyTeams) == 0 {
		fmt.Println("No teams followed. Add one with 'tickerctl teams add nfl:NYG'.")
		return nil
	}
	for _, team := range settings.MyTeams {
		fmt.Println(team)
	}
	return nil
}

func runTeamsAdd(cmd *cobra.Command, args []string) error {
	return changeTeams(args, func(s *ticker.Settings, team string) {
		if !s.HasTeam(team) {
			s.ToggleTeam(team)
		}
	})
}

func runTeamsRemove(cmd *cobra.Command, args []string) error {
	return changeTeams(args, func(s *ticker.Settings, team string) {
		if s.HasTeam(team) {
			s.ToggleTeam(team)
		}
	})
}

func changeTeams(teams []string, change func(*ticker.Settings, string)) error {
	ctx := context.Background()

	settings, err := editSettings(ctx, func(s *ticker.Settings) {
		for _, team := range teams {
			change(s, strings.TrimSpace(team))
		}
	})
	if err != nil {
		return err
	}
	if JSONOutput() {
		return json.NewEncoder(os.Stdout).Encode(settings.MyTeams)
	}
	NormalF("Following %d team(s): %s", len(settings.MyTeams), strings.Join(settings.MyTeams, ", "))
	return nil
}

func runTeamsAvailable(cmd *cobra.Command, args []string) error {
	ctx := context.Background()

	directory, err := client.FetchTeams(ctx)
	if err != nil {
		return fmt.Errorf("fetch teams: %w", err)
	}
	if len(args) == 1 {
		category := args[0]
		entries, ok := directory[category]
		if !ok {
			return fmt.Errorf("unknown category %q", category)
		}
		directory = map[string][]ticker.TeamEntry{category: entries}
	}

	if JSONOutput() {
		return json.NewEncoder(os.Stdout).Encode(directory)
	}

	categories := make([]string, 0, len(directory))
	for category := range directory {
		categories = append(categories, category)
	}
	sort.Strings(categories)

	table := NewTable("CATEGORY", "TEAM")
	for _, category := range categories {
		for _, entry := range directory[category] {
			table.Row(category, entry.Abbr)
		}
	}
	table.Flush()
	return nil
}

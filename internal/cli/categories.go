package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/MattLD13/tickerctl/internal/ticker"
)

var categoriesCmd = &cobra.Command{
	Use:     "categories",
	Aliases: []string{"leagues"},
	Short:   "Manage score categories",
}

var categoriesListCmd = &cobra.Command{
	Use:   "list",
	Short: "List categories and whether they are active",
	RunE:  runCategoriesList,
}

var categoriesToggleCmd = &cobra.Command{
	Use:   "toggle <id>...",
	Short: "Toggle categories on or off",
	Args:  cobra.MinimumNArgs(1),
	RunE:  runCategoriesToggle,
}

func init() {
	categoriesCmd.AddCommand(categoriesListCmd)
	categoriesCmd.AddCommand(categoriesToggleCmd)
	rootCmd.AddCommand(categoriesCmd)
}

func runCategoriesList(cmd *cobra.Command, args []string) error {
	ctx := context.Background()

	available, err := client.FetchCategories(ctx)
	if err != nil {
		return fmt.Errorf("fetch categories: %w", err)
	}
	settings, _, err := client.FetchState(ctx, resolveTarget(ctx))
	if err != nil && !ticker.IsDecode(err) {
		return fmt.Errorf("fetch settings: %w", err)
	}

	if JSONOutput() {
		return json.NewEncoder(os.Stdout).Encode(available)
	}

	table := NewTable("", "ID", "LABEL", "TYPE")
	for _, category := range available {
		table.Row(StatusIcon(settings.ActiveCategories[category.ID]), category.ID, category.Label, category.Type)
	}
	table.Flush()
	return nil
}

func runCategoriesToggle(cmd *cobra.Command, args []string) error {
	ctx := context.Background()

	settings, err := editSettings(ctx, func(s *ticker.Settings) {
		if s.ActiveCategories == nil {
			s.ActiveCategories = map[string]bool{}
		}
		for _, id := range args {
			s.ActiveCategories[id] = !s.ActiveCategories[id]
		}
	})
	if err != nil {
		return err
	}
	if JSONOutput() {
		return json.NewEncoder(os.Stdout).Encode(settings.ActiveCategories)
	}
	for _, id := range args {
		NormalF("%s %s", StatusIcon(settings.ActiveCategories[id]), id)
	}
	return nil
}

package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

var statsCmd = &cobra.Command{
	Use:   "stats <contentType>/<contentSlug>",
	Short: "Show detailed counters for one content entity",
	Long:  `Show unique visitors and per-variant exposure counts for every experiment of an entity.`,
	Args:  cobra.ExactArgs(1),
	RunE:  runStats,
}

func init() {
	rootCmd.AddCommand(statsCmd)
}

func runStats(cmd *cobra.Command, args []string) error {
	contentType, contentSlug, ok := splitEntity(args[0])
	if !ok {
		return fmt.Errorf("invalid entity %q, want contentType/contentSlug", args[0])
	}

	store := openStore()
	tracker := openTracker(store)

	ef, err := store.Load(contentType, contentSlug)
	if err != nil {
		return fmt.Errorf("failed to load experiments for %s: %w", args[0], err)
	}

	for _, exp := range ef.Experiments {
		visitors := tracker.UniqueVisitors(exp.Slug)
		counts := tracker.VariantCounts(exp.Slug)

		fmt.Printf("EXPERIMENT: %s\n", exp.Slug)
		fmt.Printf("STATUS: %s\n", strings.ToUpper(string(exp.Status)))
		if exp.Description != "" {
			fmt.Printf("DESCRIPTION: %s\n", exp.Description)
		}
		if exp.MaxVisitors > 0 {
			fmt.Printf("VISITORS: %d / %d\n", visitors, exp.MaxVisitors)
		} else {
			fmt.Printf("VISITORS: %d\n", visitors)
		}
		fmt.Println()

		fmt.Println("VARIANT           VERSION  ALLOCATION  EXPOSURES  SHARE")
		fmt.Println(strings.Repeat("─", 58))
		for _, v := range exp.Variants {
			share := "N/A"
			if visitors > 0 {
				share = fmt.Sprintf("%.1f%%", float64(counts[v.Slug])/float64(visitors)*100)
			}
			fmt.Printf("%-17s %-8d %-11s %-10d %s\n",
				v.Slug, v.Version, fmt.Sprintf("%d%%", v.Allocation), counts[v.Slug], share)
		}
		fmt.Println()
	}

	return nil
}

package cli

import (
	"fmt"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"
)

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List all experiments",
	Long:  `List every experiment across content entities with status and visitor counts.`,
	RunE:  runList,
}

func init() {
	rootCmd.AddCommand(listCmd)
}

func runList(cmd *cobra.Command, args []string) error {
	store := openStore()
	tracker := openTracker(store)

	entities, err := store.Entities()
	if err != nil {
		return fmt.Errorf("failed to scan content root: %w", err)
	}

	if len(entities) == 0 {
		fmt.Println("No experiments yet.")
		fmt.Println()
		fmt.Printf("Add an experiments.yml under %s/<type>/<slug>/ to get started.\n", contentDir)
		return nil
	}

	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ENTITY\tEXPERIMENT\tSTATUS\tVARIANTS\tVISITORS\tCAP")

	for _, entity := range entities {
		ef, err := store.Load(entity.ContentType, entity.ContentSlug)
		if err != nil {
			fmt.Fprintf(w, "%s/%s\t(invalid)\t-\t-\t-\t-\n", entity.ContentType, entity.ContentSlug)
			continue
		}
		for _, exp := range ef.Experiments {
			capNote := "-"
			if exp.MaxVisitors > 0 {
				capNote = fmt.Sprintf("%d", exp.MaxVisitors)
				if exp.AutoStopped {
					capNote += " (stopped)"
				}
			}
			fmt.Fprintf(w, "%s/%s\t%s\t%s\t%d\t%d\t%s\n",
				entity.ContentType, entity.ContentSlug,
				exp.Slug,
				strings.ToUpper(string(exp.Status)),
				len(exp.Variants),
				tracker.UniqueVisitors(exp.Slug),
				capNote,
			)
		}
	}

	w.Flush()
	return nil
}

package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Validate every experiments file under the content root",
	Long: `Load and validate the experiments file of every content entity,
reporting schema problems without touching anything.`,
	RunE: runValidate,
}

func init() {
	rootCmd.AddCommand(validateCmd)
}

func runValidate(cmd *cobra.Command, args []string) error {
	store := openStore()

	entities, err := store.Entities()
	if err != nil {
		return fmt.Errorf("failed to scan content root: %w", err)
	}
	if len(entities) == 0 {
		fmt.Printf("No experiments files found under %s.\n", contentDir)
		return nil
	}

	invalid := 0
	for _, entity := range entities {
		ef, err := store.Load(entity.ContentType, entity.ContentSlug)
		if err != nil {
			invalid++
			fmt.Printf("FAIL  %s/%s: %v\n", entity.ContentType, entity.ContentSlug, err)
			continue
		}
		fmt.Printf("OK    %s/%s (%d experiments)\n", entity.ContentType, entity.ContentSlug, len(ef.Experiments))
	}

	if invalid > 0 {
		return fmt.Errorf("%d of %d entities invalid", invalid, len(entities))
	}
	fmt.Printf("\nAll %d entities valid.\n", len(entities))
	return nil
}

package cli

import (
	"fmt"

	"github.com/manifoldco/promptui"
	"github.com/pagecraft/pagecraft/internal/config"
	"github.com/spf13/cobra"
)

func init() {
	rootCmd.AddCommand(newArchiveCmd())
}

func newArchiveCmd() *cobra.Command {
	var winnerSlug string
	var yes bool

	cmd := &cobra.Command{
		Use:   "archive <contentType>/<contentSlug> <experiment>",
		Short: "Archive an experiment, optionally declaring a winner",
		Long: `Archive a running experiment. With --winner, the experiment is marked
'winner' instead of 'archived' so editor tooling can promote the winning
variant file to the baseline.

Examples:
  pagecraft archive pages/pricing hero-copy
  pagecraft archive pages/pricing hero-copy --winner short-headline`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			contentType, contentSlug, ok := splitEntity(args[0])
			if !ok {
				return fmt.Errorf("invalid entity %q, want contentType/contentSlug", args[0])
			}
			experimentSlug := args[1]

			store := openStore()
			ef, err := store.Load(contentType, contentSlug)
			if err != nil {
				return fmt.Errorf("failed to load experiments: %w", err)
			}

			var found bool
			for _, exp := range ef.Experiments {
				if exp.Slug != experimentSlug {
					continue
				}
				found = true
				if winnerSlug != "" {
					var haveVariant bool
					for _, v := range exp.Variants {
						if v.Slug == winnerSlug {
							haveVariant = true
							break
						}
					}
					if !haveVariant {
						return fmt.Errorf("experiment %q has no variant %q", experimentSlug, winnerSlug)
					}
				}
			}
			if !found {
				return fmt.Errorf("experiment %q not found in %s", experimentSlug, args[0])
			}

			if !yes {
				label := fmt.Sprintf("Archive experiment %q", experimentSlug)
				if winnerSlug != "" {
					label = fmt.Sprintf("Declare %q winner of %q and stop it", winnerSlug, experimentSlug)
				}
				prompt := promptui.Prompt{Label: label, IsConfirm: true}
				if _, err := prompt.Run(); err != nil {
					if err == promptui.ErrInterrupt || err == promptui.ErrAbort {
						fmt.Println("Cancelled.")
						return nil
					}
					return err
				}
			}

			status := config.StatusArchived
			patch := config.Patch{Status: &status}
			if winnerSlug != "" {
				status = config.StatusWinner
				note := fmt.Sprintf("Winner: %s", winnerSlug)
				patch.Description = &note
			}

			merged, err := store.Update(contentType, contentSlug, experimentSlug, patch)
			if err != nil {
				return fmt.Errorf("failed to update experiment: %w", err)
			}

			fmt.Printf("Experiment %q is now %s.\n", merged.Slug, merged.Status)
			if winnerSlug != "" {
				fmt.Printf("Promote the %q variant file to the baseline to finish the rollout.\n", winnerSlug)
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&winnerSlug, "winner", "w", "", "variant slug to declare as winner")
	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "skip confirmation prompt")

	return cmd
}

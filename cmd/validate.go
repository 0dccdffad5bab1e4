package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/zjrosen/composer/internal/composition"
	"github.com/zjrosen/composer/internal/loader"
	"github.com/zjrosen/composer/internal/presentation"
)

var validateCmd = &cobra.Command{
	Use:   "validate <manifest>",
	Short: "Check a manifest without storing anything",
	Long: `Load a manifest, build its types, parts and groups, and replay its
compose section against an in-memory composition layer.

Unconnected imports are reported; required ones are warnings, not errors.

Examples:
  composer validate plugins.yaml
  composer validate plugins.yaml --json`,
	Args: cobra.ExactArgs(1),
	RunE: runValidate,
}

func init() {
	rootCmd.AddCommand(validateCmd)
}

func runValidate(cmd *cobra.Command, args []string) error {
	cat, err := loader.LoadFile(args[0])
	if err != nil {
		return err
	}

	layer := composition.NewLayer(composition.WithSubtypeChecker(cat.Repo))
	if _, err := cat.Plan.Apply(cmd.Context(), composition.Direct(layer)); err != nil {
		return fmt.Errorf("compose: %w", err)
	}

	state := presentation.FromLayer(layer)
	groups := make([]string, len(cat.Groups))
	for i, g := range cat.Groups {
		groups[i] = g.ID().Name()
	}
	return formatter().FormatValidation(presentation.ValidationDTO{
		Manifest:    args[0],
		Types:       len(cat.Types),
		Parts:       len(cat.Repo.Parts()),
		Groups:      groups,
		Instances:   len(cat.Plan.Instances),
		Connections: len(cat.Plan.Connections),
		Unsatisfied: state.Unsatisfied,
	})
}

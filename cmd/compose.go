package cmd

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/zjrosen/composer/internal/commands/command"
	"github.com/zjrosen/composer/internal/composition"
	"github.com/zjrosen/composer/internal/loader"
	"github.com/zjrosen/composer/internal/log"
	"github.com/zjrosen/composer/internal/presentation"
)

var composeSave string

var composeCmd = &cobra.Command{
	Use:   "compose <manifest>",
	Short: "Compose a manifest and print the resulting graph",
	Long: `Load a manifest and run its compose section through the command
processor. With --save, the scanned metadata, the group definitions and
the resulting composition are stored in the database under the given
snapshot name.

Examples:
  composer compose plugins.yaml
  composer compose plugins.yaml --save baseline
  composer compose plugins.yaml --json | jq '.connections'`,
	Args: cobra.ExactArgs(1),
	RunE: runCompose,
}

func init() {
	composeCmd.Flags().StringVarP(&composeSave, "save", "s", "", "store the composition as a named snapshot")
	rootCmd.AddCommand(composeCmd)
}

func runCompose(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cat, err := loader.LoadFile(args[0])
	if err != nil {
		return err
	}

	layer := composition.NewLayer(composition.WithSubtypeChecker(cat.Repo))
	if err := compose(ctx, cat, layer); err != nil {
		return err
	}

	if composeSave != "" {
		if err := save(ctx, cat, layer, composeSave); err != nil {
			return err
		}
	}
	return formatter().FormatState(presentation.FromLayer(layer))
}

func compose(ctx context.Context, cat *loader.Catalog, layer *composition.Layer) error {
	svc, stopService, err := startService(ctx, layer, command.SourceLoader)
	if err != nil {
		return err
	}
	defer stopService()

	if _, err := cat.Plan.Apply(ctx, svc); err != nil {
		return fmt.Errorf("compose: %w", err)
	}
	return nil
}

func save(ctx context.Context, cat *loader.Catalog, layer *composition.Layer, name string) error {
	db, err := openDB()
	if err != nil {
		return err
	}
	defer func() { _ = db.Close() }()

	if err := db.Metadata().Import(ctx, cat.Repo); err != nil {
		return fmt.Errorf("storing metadata: %w", err)
	}
	for _, g := range cat.Groups {
		if err := db.Groups().Save(ctx, g); err != nil {
			return fmt.Errorf("storing group %s: %w", g.ID(), err)
		}
	}
	if err := db.Snapshots().Save(ctx, name, layer.CurrentState()); err != nil {
		return fmt.Errorf("storing snapshot: %w", err)
	}
	log.Info(log.CatDB, "composition saved", "snapshot", name, "groups", layer.Len())
	return nil
}

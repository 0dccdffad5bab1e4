package cmd

import (
	"github.com/spf13/cobra"

	"github.com/zjrosen/composer/internal/composition"
	"github.com/zjrosen/composer/internal/presentation"
	"github.com/zjrosen/composer/internal/snapshot"
)

var snapshotCmd = &cobra.Command{
	Use:   "snapshot",
	Short: "Inspect stored composition snapshots",
}

var snapshotListCmd = &cobra.Command{
	Use:   "list",
	Short: "List stored snapshots, most recently updated first",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		db, err := openDB()
		if err != nil {
			return err
		}
		defer func() { _ = db.Close() }()

		infos, err := db.Snapshots().List(cmd.Context())
		if err != nil {
			return err
		}
		return formatter().FormatSnapshots(presentation.FromSnapshots(infos))
	},
}

var snapshotShowCmd = &cobra.Command{
	Use:   "show <name>",
	Short: "Restore a snapshot and print its graph",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		db, err := openDB()
		if err != nil {
			return err
		}
		defer func() { _ = db.Close() }()

		state, err := db.Snapshots().Load(cmd.Context(), args[0])
		if err != nil {
			return err
		}
		layer, err := composition.Restore(state, composition.WithSubtypeChecker(cachedMetadata(db)))
		if err != nil {
			return err
		}
		return formatter().FormatState(presentation.FromLayer(layer))
	},
}

var snapshotDiffCmd = &cobra.Command{
	Use:   "diff <before> <after>",
	Short: "Show a line diff between two snapshots",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		db, err := openDB()
		if err != nil {
			return err
		}
		defer func() { _ = db.Close() }()

		before, err := db.Snapshots().Raw(cmd.Context(), args[0])
		if err != nil {
			return err
		}
		after, err := db.Snapshots().Raw(cmd.Context(), args[1])
		if err != nil {
			return err
		}
		return formatter().FormatDiff(args[0], args[1], snapshot.Compare(before, after))
	},
}

var snapshotDeleteCmd = &cobra.Command{
	Use:   "delete <name>",
	Short: "Delete a stored snapshot",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		db, err := openDB()
		if err != nil {
			return err
		}
		defer func() { _ = db.Close() }()
		return db.Snapshots().Delete(cmd.Context(), args[0])
	},
}

func init() {
	snapshotCmd.AddCommand(snapshotListCmd, snapshotShowCmd, snapshotDiffCmd, snapshotDeleteCmd)
	rootCmd.AddCommand(snapshotCmd)
}

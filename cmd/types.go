package cmd

import (
	"github.com/spf13/cobra"

	"github.com/zjrosen/composer/internal/loader"
	"github.com/zjrosen/composer/internal/presentation"
	"github.com/zjrosen/composer/internal/repository"
)

var typesManifest string

var typesCmd = &cobra.Command{
	Use:   "types",
	Short: "List scanned types and their part surface",
	Long: `List the type definitions stored in the database, or the ones declared
by a manifest when --manifest is given.

Examples:
  composer types
  composer types --manifest plugins.yaml --json`,
	Args: cobra.NoArgs,
	RunE: runTypes,
}

func init() {
	typesCmd.Flags().StringVarP(&typesManifest, "manifest", "m", "", "read types from a manifest instead of the database")
	rootCmd.AddCommand(typesCmd)
}

func runTypes(cmd *cobra.Command, _ []string) error {
	var repo *repository.Memory
	if typesManifest != "" {
		cat, err := loader.LoadFile(typesManifest)
		if err != nil {
			return err
		}
		repo = cat.Repo
	} else {
		db, err := openDB()
		if err != nil {
			return err
		}
		defer func() { _ = db.Close() }()
		if repo, err = db.Metadata().LoadAll(cmd.Context()); err != nil {
			return err
		}
	}
	return formatter().FormatTypes(presentation.FromRepository(repo))
}

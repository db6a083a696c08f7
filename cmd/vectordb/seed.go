package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/sahej/vectordb/pkg/core"
)

var seedForce bool

var seedCmd = &cobra.Command{
	Use:   "seed <file>",
	Short: "Load a JSON embeddings file into the store and write a snapshot",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		store, err := openStore()
		if err != nil {
			return err
		}

		if !seedForce && !store.IsEmpty() {
			return fmt.Errorf("store at %s already has data; pass --force to seed anyway", dataDir)
		}

		if err := store.LoadSeedFile(args[0]); err != nil {
			return fmt.Errorf("seed: %w", err)
		}

		if err := forceSnapshot(store); err != nil {
			return fmt.Errorf("snapshot after seed: %w", err)
		}

		fmt.Printf("seeded %s into %s and wrote a snapshot\n", args[0], dataDir)
		return nil
	},
}

func init() {
	seedCmd.Flags().BoolVar(&seedForce, "force", false, "Seed even if the store already has libraries")
}

// forceSnapshot writes a snapshot immediately, bypassing the dirty/interval
// gate that the background Snapshotter otherwise applies.
func forceSnapshot(store *core.Store) error {
	return core.NewSnapshotter(store).WriteNow()
}

package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

var snapshotCmd = &cobra.Command{
	Use:   "snapshot",
	Short: "Load the snapshot at --data-dir, reindex every library, and write it back",
	RunE: func(cmd *cobra.Command, args []string) error {
		store, err := openStore()
		if err != nil {
			return err
		}

		if err := forceSnapshot(store); err != nil {
			return fmt.Errorf("snapshot: %w", err)
		}

		fmt.Printf("wrote snapshot to %s\n", dataDir)
		return nil
	},
}

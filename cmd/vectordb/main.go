// Command vectordb is a CLI front end for pkg/core.Store, illustrating
// the boundary operations described by spec.md §6. It is not part of the
// tested core contract (spec.md §1 scopes out "interactive terminal
// client"), but ships to demonstrate how the store is actually driven,
// grounded on the teacher's cmd/sqvect command tree.
package main

import (
	"fmt"
	"log"
	"os"

	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"

	"github.com/sahej/vectordb/pkg/core"
)

var (
	dataDir    string
	dimension  int
	indexClass string
	verbose    bool
)

var rootCmd = &cobra.Command{
	Use:   "vectordb",
	Short: "CLI for the in-memory vector search engine",
	Long:  "A command-line interface for seeding, serving, and querying the library/document/chunk vector store.",
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&dataDir, "data-dir", "d", "data", "Snapshot directory")
	rootCmd.PersistentFlags().IntVarP(&dimension, "dimension", "n", 1024, "Embedding dimension")
	rootCmd.PersistentFlags().StringVar(&indexClass, "index-class", "lsh", "Index strategy: lsh or exact")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Verbose logging")

	rootCmd.AddCommand(serveCmd, seedCmd, snapshotCmd, searchCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		log.Fatal(err)
	}
}

// openStore builds a Store from the root flags, loading any existing
// snapshot from dataDir.
func openStore() (*core.Store, error) {
	class := core.IndexClassLSH
	if indexClass == "exact" || indexClass == "vector" {
		class = core.IndexClassExact
	}

	cfg := core.DefaultConfig()
	cfg.EmbeddingDimension = dimension
	cfg.IndexClass = class
	cfg.DataDir = dataDir
	if verbose {
		cfg.Logger = core.NewStdLogger(core.LevelDebug)
	}

	store := core.New(cfg)
	if err := store.LoadSnapshot(); err != nil {
		return nil, fmt.Errorf("load snapshot: %w", err)
	}
	return store, nil
}

// isInteractive reports whether stdout is attached to a terminal, used to
// pick between a human-readable table and compact JSON by default.
func isInteractive() bool {
	return isatty.IsTerminal(os.Stdout.Fd())
}

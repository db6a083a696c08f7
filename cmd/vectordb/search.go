package main

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/sahej/vectordb/pkg/core"
)

var searchCmd = &cobra.Command{
	Use:   "search <library-id>",
	Short: "Run a k-NN search against an indexed library",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		libraryID := args[0]

		vectorStr, _ := cmd.Flags().GetString("vector")
		k, _ := cmd.Flags().GetInt("k")
		filterStr, _ := cmd.Flags().GetString("filter")
		outputJSON, _ := cmd.Flags().GetBool("json")

		vector, err := parseVector(vectorStr)
		if err != nil {
			return err
		}

		store, err := openStore()
		if err != nil {
			return err
		}

		results, err := store.Search(core.SearchQuery{
			LibraryID:      libraryID,
			Embedding:      vector,
			K:              k,
			MetadataFilter: parseFilter(filterStr),
		})
		if err != nil {
			return fmt.Errorf("search failed: %w", err)
		}

		if outputJSON || !isInteractive() {
			data, _ := json.MarshalIndent(results, "", "  ")
			fmt.Println(string(data))
			return nil
		}

		fmt.Printf("Found %d results:\n", len(results))
		for i, r := range results {
			fmt.Printf("%d. %s (distance: %.4f) %q\n", i+1, r.Chunk.ID, r.Distance, truncate(r.Chunk.Text, 60))
		}
		return nil
	},
}

func init() {
	searchCmd.Flags().String("vector", "", "Query vector (comma-separated floats)")
	searchCmd.Flags().Int("k", 1, "Number of results")
	searchCmd.Flags().String("filter", "", "Metadata filter as key=value,key2=value2")
	searchCmd.Flags().Bool("json", false, "Force JSON output")
	searchCmd.MarkFlagRequired("vector")
}

func parseVector(s string) ([]float32, error) {
	parts := strings.Split(s, ",")
	vec := make([]float32, 0, len(parts))
	for _, part := range parts {
		v, err := strconv.ParseFloat(strings.TrimSpace(part), 32)
		if err != nil {
			return nil, fmt.Errorf("invalid vector component %q: %w", part, err)
		}
		vec = append(vec, float32(v))
	}
	return vec, nil
}

func parseFilter(s string) map[string]any {
	if s == "" {
		return nil
	}
	out := make(map[string]any)
	for _, pair := range strings.Split(s, ",") {
		kv := strings.SplitN(pair, "=", 2)
		if len(kv) != 2 {
			continue
		}
		out[strings.TrimSpace(kv[0])] = strings.TrimSpace(kv[1])
	}
	return out
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "…"
}

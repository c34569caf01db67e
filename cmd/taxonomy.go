package main

import (
	"fmt"
	"io"
	"strconv"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/marche-ricette/recipe-connector/internal/taxonomy"
)

var taxonomyCmd = &cobra.Command{
	Use:   "taxonomy [vocabulary-id]",
	Short: "Print the name to category id mapping of a vocabulary",
	Long:  "Fetches a vocabulary (the geographic one by default) and prints its lookup keys, sorted, with their category ids.",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		env, err := initConnector(cmd.Context(), cfg, "resolve")
		if err != nil {
			return err
		}
		defer env.Close()

		vocab := env.Mapper.GeographicVocabularyID()
		if len(args) == 1 {
			if _, err := strconv.ParseInt(args[0], 10, 64); err != nil {
				return eris.Errorf("vocabulary id must be numeric: %q", args[0])
			}
			vocab = args[0]
		}

		m, err := env.Mapper.GetMappings(cmd.Context(), vocab)
		if err != nil {
			return err
		}
		return printMapping(cmd.OutOrStdout(), vocab, m)
	},
}

func init() {
	rootCmd.AddCommand(taxonomyCmd)
}

func printMapping(w io.Writer, vocab string, m *taxonomy.Mapping) error {
	if _, err := fmt.Fprintf(w, "vocabulary %s: %d keys\n", vocab, m.Len()); err != nil {
		return err
	}
	for _, key := range m.SortedKeys() {
		id, _ := m.Lookup(key)
		if _, err := fmt.Fprintf(w, "%-40s %d\n", key, id); err != nil {
			return err
		}
	}
	return nil
}

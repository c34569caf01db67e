package main

import (
	"encoding/json"
	"strings"

	"github.com/spf13/cobra"
)

var resolveCmd = &cobra.Command{
	Use:   "resolve <places>",
	Short: "Resolve a comma or semicolon separated place list",
	Long:  "Maps each place to its geographic taxonomy category, geocodes it and prints the resolution with its GeoJSON area.",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		env, err := initConnector(cmd.Context(), cfg, "resolve")
		if err != nil {
			return err
		}
		defer env.Close()

		res := env.Resolver.Resolve(cmd.Context(), strings.Join(args, ","))

		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		return enc.Encode(res)
	},
}

func init() {
	rootCmd.AddCommand(resolveCmd)
}

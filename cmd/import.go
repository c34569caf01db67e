package main

import (
	"encoding/json"
	"os"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/marche-ricette/recipe-connector/internal/recipe"
)

var (
	importPath   string
	importFormat string
)

var importCmd = &cobra.Command{
	Use:   "import",
	Short: "Publish every recipe in a CSV or XLSX file",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()

		format := recipe.Format(importFormat)
		if format == "" {
			format = recipe.FormatFromFilename(importPath)
		}
		if format == "" {
			return eris.Errorf("cannot infer format of %s, pass --format csv|xlsx", importPath)
		}

		f, err := os.Open(importPath)
		if err != nil {
			return eris.Wrapf(err, "open %s", importPath)
		}
		defer f.Close() //nolint:errcheck

		env, err := initConnector(ctx, cfg, "submit")
		if err != nil {
			return err
		}
		defer env.Close()

		sum, err := env.Importer.Import(ctx, f, format)
		if err != nil {
			return eris.Wrap(err, "import")
		}

		zap.L().Info("import complete",
			zap.String("file", importPath),
			zap.Int("succeeded", sum.Succeeded),
			zap.Int("failed", sum.Failed),
		)
		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		return enc.Encode(sum)
	},
}

func init() {
	importCmd.Flags().StringVar(&importPath, "file", "", "path to CSV or XLSX file (required)")
	importCmd.Flags().StringVar(&importFormat, "format", "", "csv or xlsx (default from file extension)")
	_ = importCmd.MarkFlagRequired("file")
	rootCmd.AddCommand(importCmd)
}

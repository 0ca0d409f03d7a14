// Package ingest runs the batch ingestion pipeline on local statement files.
package ingest

import (
	"fmt"

	"fjacquet/bank-movements/cmd/root"
	"fjacquet/bank-movements/internal/container"
	"fjacquet/bank-movements/internal/fileutils"
	"fjacquet/bank-movements/internal/ingest"
	"fjacquet/bank-movements/internal/report"

	"github.com/spf13/cobra"
)

var inputDir string

// Cmd represents the ingest command
var Cmd = &cobra.Command{
	Use:   "ingest [file...]",
	Short: "Ingest Caixabank and Santander statements",
	Long: `Ingest one or more .xls/.xlsx statements as a single batch.

The bank is detected from each filename, which must contain "Caixabank" or
"Santander". Every file is reported on its own; a failing file never stops
the others. The batch result is printed as JSON.

Example:
  bank-movements ingest 2024_10_Movimientos_Caixabank.xls 2024_10_Santander.xlsx
  bank-movements ingest --dir statements/`,
	RunE: ingestFunc,
}

func init() {
	Cmd.Flags().StringVarP(&inputDir, "dir", "d", "", "ingest every .xls/.xlsx file under this directory")
}

func ingestFunc(cmd *cobra.Command, args []string) error {
	paths, err := collectPaths(inputDir, args)
	if err != nil {
		return err
	}

	return root.WithContainer(func(c *container.Container) error {
		uploads := make([]ingest.Upload, 0, len(paths))
		for _, p := range paths {
			u, err := ingest.NewFileUpload(p)
			if err != nil {
				return err
			}
			uploads = append(uploads, u)
		}

		result := c.GetPipeline().Process(cmd.Context(), uploads)
		if err := report.NewGenerator(c.GetLogger(), 0).WriteJSON(cmd.OutOrStdout(), result); err != nil {
			return err
		}
		if result.Status() == ingest.StatusFailure {
			return fmt.Errorf("no file was ingested (%d failed)", result.Summary.TotalErrors)
		}
		return nil
	})
}

func collectPaths(dir string, args []string) ([]string, error) {
	paths := append([]string(nil), args...)
	if dir != "" {
		found, err := fileutils.ListStatements(dir)
		if err != nil {
			return nil, err
		}
		paths = append(paths, found...)
	}
	if len(paths) == 0 {
		return nil, fmt.Errorf("no files given: pass statement files or --dir")
	}
	return paths, nil
}

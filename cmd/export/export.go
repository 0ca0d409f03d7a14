// Package export writes the expense ledger out of the store.
package export

import (
	"fmt"

	"fjacquet/bank-movements/cmd/root"
	"fjacquet/bank-movements/internal/container"
	"fjacquet/bank-movements/internal/report"
	"fjacquet/bank-movements/internal/store"

	"github.com/spf13/cobra"
)

var (
	year      int
	month     int
	output    string
	delimiter string
)

// Cmd represents the export command
var Cmd = &cobra.Command{
	Use:   "export",
	Short: "Export reviewed data",
}

var ledgerCmd = &cobra.Command{
	Use:   "ledger",
	Short: "Export the expense ledger as CSV",
	Long: `Export confirmed expenses as CSV, optionally for one year or month.

Example:
  bank-movements export ledger --year 2024 --month 3 -o ledger-2024-03.csv`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		delim, err := parseDelimiter(delimiter)
		if err != nil {
			return err
		}
		if month != 0 && (month < 1 || month > 12) {
			return fmt.Errorf("month must be between 1 and 12, got %d", month)
		}

		return root.WithContainer(func(c *container.Container) error {
			entries, err := c.GetStore().Ledger().List(cmd.Context(), store.LedgerFilter{Year: year, Month: month})
			if err != nil {
				return fmt.Errorf("failed to list ledger: %w", err)
			}
			concepts, err := c.GetReviewEngine().Concepts(cmd.Context())
			if err != nil {
				return fmt.Errorf("failed to list concepts: %w", err)
			}

			gen := report.NewGenerator(c.GetLogger(), delim)
			if output == "" {
				return gen.WriteLedgerCSV(cmd.OutOrStdout(), entries, concepts)
			}
			return gen.WriteLedgerCSVFile(output, entries, concepts)
		})
	},
}

func init() {
	ledgerCmd.Flags().IntVar(&year, "year", 0, "only export this year")
	ledgerCmd.Flags().IntVar(&month, "month", 0, "only export this month (1-12)")
	ledgerCmd.Flags().StringVarP(&output, "output", "o", "", "output file (default stdout)")
	ledgerCmd.Flags().StringVar(&delimiter, "delimiter", ",", "CSV delimiter")

	Cmd.AddCommand(ledgerCmd)
}

func parseDelimiter(s string) (rune, error) {
	runes := []rune(s)
	if len(runes) != 1 {
		return 0, fmt.Errorf("delimiter must be a single character, got %q", s)
	}
	return runes[0], nil
}

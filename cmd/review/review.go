// Package review lists pending movements and commits review decisions.
package review

import (
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"text/tabwriter"

	"fjacquet/bank-movements/cmd/root"
	"fjacquet/bank-movements/internal/container"
	"fjacquet/bank-movements/internal/models"
	"fjacquet/bank-movements/internal/report"
	"fjacquet/bank-movements/internal/review"

	"github.com/spf13/cobra"
)

var (
	// listAll includes income movements in the listing.
	listAll bool
	// listJSON prints the listing as JSON instead of a table.
	listJSON bool
	// decisionsFile is a CSV file of decisions (movement_id,category,version).
	decisionsFile string
)

// Cmd represents the review command
var Cmd = &cobra.Command{
	Use:   "review",
	Short: "Review pending movements",
	Long: `Review pending movements and confirm expenses into the expense ledger.

Example:
  bank-movements review list
  bank-movements review commit 12=7 13=2
  bank-movements review commit --file decisions.csv`,
}

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List pending expense candidates",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return root.WithContainer(func(c *container.Container) error {
			engine := c.GetReviewEngine()
			var (
				movements []models.Movement
				err       error
			)
			if listAll {
				movements, err = engine.ListPending(cmd.Context())
			} else {
				movements, err = engine.ListExpenseCandidates(cmd.Context())
			}
			if err != nil {
				return fmt.Errorf("failed to list pending movements: %w", err)
			}

			if listJSON {
				return report.NewGenerator(c.GetLogger(), 0).WriteJSON(cmd.OutOrStdout(), movements)
			}
			return writeTable(cmd.OutOrStdout(), movements)
		})
	},
}

var commitCmd = &cobra.Command{
	Use:   "commit [id=category...]",
	Short: "Commit review decisions",
	Long: `Mark movements reviewed with a confirmed category. Expenses are promoted to
the expense ledger. Decisions come from id=category arguments, optionally
id=category@version to guard against concurrent edits, or from --file.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		decisions, err := parseDecisionArgs(args)
		if err != nil {
			return err
		}

		return root.WithContainer(func(c *container.Container) error {
			gen := report.NewGenerator(c.GetLogger(), 0)
			if decisionsFile != "" {
				fromFile, err := readDecisionsFile(gen, decisionsFile)
				if err != nil {
					return err
				}
				decisions = append(decisions, fromFile...)
			}
			if len(decisions) == 0 {
				return fmt.Errorf("no decisions given: pass id=category arguments or --file")
			}

			result, err := c.GetReviewEngine().Commit(cmd.Context(), decisions)
			if err != nil {
				return err
			}
			return gen.WriteJSON(cmd.OutOrStdout(), result)
		})
	},
}

func init() {
	listCmd.Flags().BoolVar(&listAll, "all", false, "include income movements")
	listCmd.Flags().BoolVar(&listJSON, "json", false, "print JSON instead of a table")
	commitCmd.Flags().StringVarP(&decisionsFile, "file", "f", "", "CSV file with movement_id,category[,version] columns")

	Cmd.AddCommand(listCmd, commitCmd)
}

// parseDecisionArgs reads id=category or id=category@version arguments.
func parseDecisionArgs(args []string) ([]review.Decision, error) {
	decisions := make([]review.Decision, 0, len(args))
	for _, arg := range args {
		idPart, rest, ok := strings.Cut(arg, "=")
		if !ok {
			return nil, fmt.Errorf("invalid decision %q: want id=category", arg)
		}
		categoryPart, versionPart, hasVersion := strings.Cut(rest, "@")

		id, err := strconv.ParseUint(idPart, 10, 64)
		if err != nil || id == 0 {
			return nil, fmt.Errorf("invalid movement id in %q", arg)
		}
		category, err := strconv.Atoi(categoryPart)
		if err != nil {
			return nil, fmt.Errorf("invalid category in %q", arg)
		}
		d := review.Decision{MovementID: uint(id), Category: &category, MarkedReviewed: true}
		if hasVersion {
			if d.Version, err = strconv.Atoi(versionPart); err != nil {
				return nil, fmt.Errorf("invalid version in %q", arg)
			}
		}
		decisions = append(decisions, d)
	}
	return decisions, nil
}

func readDecisionsFile(gen *report.Generator, path string) ([]review.Decision, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("error opening decisions file: %w", err)
	}
	defer f.Close()
	return gen.ReadDecisionsCSV(f)
}

func writeTable(w io.Writer, movements []models.Movement) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tBANK\tVALUE DATE\tAMOUNT\tSUGGESTED\tVERSION\tDESCRIPTION")
	for _, m := range movements {
		valueDate := "-"
		if m.ValueDate != nil {
			valueDate = m.ValueDate.Format("2006-01-02")
		}
		fmt.Fprintf(tw, "%d\t%s\t%s\t%s\t%d\t%d\t%s\n",
			m.ID, m.Bank.Label(), valueDate, m.Amount.StringFixed(2), m.SuggestedCategory, m.Version, m.Description)
	}
	return tw.Flush()
}

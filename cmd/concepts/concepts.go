// Package concepts manages the category catalog.
package concepts

import (
	"fmt"
	"io"
	"text/tabwriter"

	"fjacquet/bank-movements/cmd/root"
	"fjacquet/bank-movements/internal/container"
	"fjacquet/bank-movements/internal/models"

	"github.com/spf13/cobra"
)

// Cmd represents the concepts command
var Cmd = &cobra.Command{
	Use:   "concepts",
	Short: "Manage the category catalog",
	Long: `List or seed the catalog of expense categories a reviewer picks from.

Example:
  bank-movements concepts list
  bank-movements concepts seed concepts.yaml`,
}

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List categories ordered by label",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return root.WithContainer(func(c *container.Container) error {
			concepts, err := c.GetReviewEngine().Concepts(cmd.Context())
			if err != nil {
				return fmt.Errorf("failed to list concepts: %w", err)
			}
			return writeConcepts(cmd.OutOrStdout(), concepts)
		})
	},
}

var seedCmd = &cobra.Command{
	Use:   "seed <file>",
	Short: "Insert or update categories from a YAML file",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return root.WithContainer(func(c *container.Container) error {
			n, err := c.SeedConcepts(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			_, err = fmt.Fprintf(cmd.OutOrStdout(), "seeded %d concepts from %s\n", n, args[0])
			return err
		})
	},
}

func init() {
	Cmd.AddCommand(listCmd, seedCmd)
}

func writeConcepts(w io.Writer, concepts []models.Concept) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tLABEL")
	for _, c := range concepts {
		fmt.Fprintf(tw, "%d\t%s\n", c.ID, c.Label)
	}
	return tw.Flush()
}

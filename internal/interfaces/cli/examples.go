package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/turtacn/molview/pkg/types/molecule"
)

// NewExamplesCmd creates the examples command.
func NewExamplesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "examples",
		Short: "List the curated example molecules",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return PrintResult(cmd, ExamplesOutput(molecule.Examples()))
		},
	}
}

// ExamplesOutput is the printable example list.
type ExamplesOutput []molecule.Example

func (o ExamplesOutput) TableHeaders() []string {
	return []string{"Name", "SMILES", "Description"}
}

func (o ExamplesOutput) TableRows() [][]string {
	rows := make([][]string, 0, len(o))
	for _, ex := range o {
		rows = append(rows, []string{ex.Name, ex.SMILES, ex.Description})
	}
	return rows
}

func (o ExamplesOutput) String() string {
	var sb strings.Builder
	for _, ex := range o {
		fmt.Fprintf(&sb, "%s %s\n    %s\n", padRight(ex.Name, 12), ex.SMILES, ex.Description)
	}
	return strings.TrimRight(sb.String(), "\n")
}

package main

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"docchat/internal/ai"
)

func newModelsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "models",
		Short: "List the selectable models",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "ID\tNAME\tPROVIDER")
			for _, m := range ai.AvailableModels() {
				fmt.Fprintf(w, "%s\t%s\t%s\n", m.ID, m.Name, m.Provider)
			}
			return w.Flush()
		},
	}
}

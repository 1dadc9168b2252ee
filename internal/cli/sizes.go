package cli

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/piwi3910/CoverCut/internal/model"
)

func newSizesCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "sizes",
		Short: "List the known page sizes and the cover piece each produces",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "SIZE\tVARIANT\tPAGE (cm)\tSPIRAL COVER (cm)\t")
			for _, ps := range model.PaperSizes {
				for vi, v := range ps.Variants {
					c := model.Cover{Size: ps.Name, Variant: vi, Binding: model.BindingSpiral}
					dims := c.Dimensions()
					fmt.Fprintf(tw, "%s\t%d\t%g x %g\t%g x %g\t\n",
						ps.Name, vi+1, v[0], v[1], dims.Width, dims.Height)
				}
			}
			if err := tw.Flush(); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "\nEvery cover adds a %g cm tab on each edge; spiral bindings use a %g cm spine.\n",
				model.TabWidth, model.DefaultSpiralSpine)
			fmt.Fprintln(cmd.OutOrStdout(), "Unknown sizes fall back to A4.")
			return nil
		},
	}
}

package main

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"
	"github.com/ukydev/fleet-console/internal/dashboard"
)

func newRoutesCmd() *cobra.Command {
	var asJSON bool
	cmd := &cobra.Command{
		Use:   "routes",
		Short: "Show optimized routes and their alternatives",
		RunE: func(cmd *cobra.Command, args []string) error {
			plan := dashboard.Routes()
			if asJSON {
				return printJSON(cmd.OutOrStdout(), plan)
			}
			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "ID\tROUTE\tVEHICLE\tSTATUS\tWINDOW\tDISTANCE\tETA\tSTOPS")
			for _, r := range plan.Routes {
				fmt.Fprintf(tw, "%d\t%s\t%s\t%s\t%s-%s\t%s\t%s\t%d\n",
					r.ID, r.Name, r.VehicleNumber, r.Status, r.StartTime, r.EndTime, r.Distance, r.ETA, r.Stops)
				for _, alt := range r.Alternatives {
					fmt.Fprintf(tw, "\t  %s\t\t%s traffic\t\t%s\t%s\t\n", alt.Name, alt.Traffic, alt.Distance, alt.Duration)
				}
			}
			return tw.Flush()
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "print the full plan with map paths and traffic zones")
	return cmd
}

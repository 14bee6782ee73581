package main

import (
	"fmt"
	"sort"
	"strconv"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"
	"github.com/ukydev/fleet-console/internal/dashboard"
	"github.com/ukydev/fleet-console/internal/telemetry"
)

func newMaintenanceCmd(c *cli) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "maintenance",
		Short: "Predictive maintenance",
	}

	predict := &cobra.Command{
		Use:   "predict VEHICLE_ID",
		Short: "Predict maintenance for one vehicle",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			a, err := c.App(cmd.Context())
			if err != nil {
				return err
			}
			p, err := a.Client.PredictMaintenance(cmd.Context(), id)
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), p)
		},
	}

	all := &cobra.Command{
		Use:   "all",
		Short: "Predict maintenance for the whole fleet",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := c.App(cmd.Context())
			if err != nil {
				return err
			}
			res, err := a.Client.PredictAll(cmd.Context())
			if err != nil {
				return err
			}
			ids := make([]int64, 0, len(res.Predictions))
			for id := range res.Predictions {
				ids = append(ids, id)
			}
			sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })

			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "VEHICLE\tNEEDS\tTYPE\tDAYS\tPROBABILITY")
			for _, id := range ids {
				p := res.Predictions[id]
				needs := "no"
				if p.NeedsMaintenance {
					needs = "yes"
				}
				fmt.Fprintf(tw, "%d\t%s\t%s\t%d\t%.0f%%\n", id, needs, p.MaintenanceType, p.PredictedDays, p.Probability*100)
			}
			if err := tw.Flush(); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%d vehicles\n", res.Count)
			return nil
		},
	}

	train := &cobra.Command{
		Use:   "train",
		Short: "Retrain the maintenance model (admin, manager)",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := c.App(cmd.Context())
			if err != nil {
				return err
			}
			res, err := a.Client.TrainModel(cmd.Context())
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), res.Message)
			return nil
		},
	}

	vehicles := &cobra.Command{
		Use:   "vehicles",
		Short: "Show component readings and alerts for every vehicle",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := c.App(cmd.Context())
			if err != nil {
				return err
			}
			if err := a.Store.Load(cmd.Context()); err != nil {
				return err
			}
			overview := dashboard.MaintenanceReadings(a.Store.Snapshot(), telemetry.DefaultSource, time.Now())

			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "VEHICLE\tHEALTH\tTIRES\tENGINE\tMILEAGE\tNEXT SERVICE\tSTATUS\tALERTS")
			for _, rd := range overview.Readings {
				engine := "-"
				if rd.EngineHealth != nil {
					engine = strconv.Itoa(*rd.EngineHealth) + "%"
				}
				fmt.Fprintf(tw, "%s\t%d%%\t%d%%\t%s\t%d\t%s\t%s\t%d\n", rd.VehicleNumber, rd.HealthScore,
					rd.TireCondition, engine, rd.Mileage, rd.NextMaintenance, rd.Status, len(rd.Alerts))
			}
			if err := tw.Flush(); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%d with alerts, %d due within 7 days\n", overview.WithAlerts, overview.DueSoon)
			return nil
		},
	}

	cmd.AddCommand(predict, all, train, vehicles)
	return cmd
}

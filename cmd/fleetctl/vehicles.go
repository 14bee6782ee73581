package main

import (
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/spf13/cobra"
	"github.com/ukydev/fleet-console/internal/dashboard"
	"github.com/ukydev/fleet-console/internal/models"
)

func newVehiclesCmd(c *cli) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "vehicles",
		Aliases: []string{"v"},
		Short:   "List and manage fleet vehicles",
	}
	cmd.AddCommand(
		newVehiclesListCmd(c),
		newVehiclesGetCmd(c),
		newVehiclesCreateCmd(c),
		newVehiclesUpdateCmd(c),
		newVehiclesDeleteCmd(c),
		newVehiclesStatusCmd(c),
	)
	return cmd
}

func writeRows(w io.Writer, vehicles []models.Vehicle) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tNUMBER\tVEHICLE\tTYPE\tSTATUS\tHEALTH")
	for _, r := range dashboard.Rows(vehicles) {
		fmt.Fprintf(tw, "%d\t%s\t%s\t%s\t%s\t%d%%\n", r.ID, r.VehicleNumber, r.Name, r.Type, r.StatusText, r.HealthScore)
	}
	return tw.Flush()
}

func newVehiclesListCmd(c *cli) *cobra.Command {
	var query string
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List the fleet",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := c.App(cmd.Context())
			if err != nil {
				return err
			}
			if err := a.Store.Load(cmd.Context()); err != nil {
				return err
			}
			return writeRows(cmd.OutOrStdout(), dashboard.Filter(a.Store.Snapshot(), query))
		},
	}
	cmd.Flags().StringVarP(&query, "query", "q", "", "filter by number, model or manufacturer")
	return cmd
}

func newVehiclesGetCmd(c *cli) *cobra.Command {
	return &cobra.Command{
		Use:   "get ID",
		Short: "Show one vehicle",
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
			v, err := a.Client.GetVehicle(cmd.Context(), id)
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), v)
		},
	}
}

// vehicleFlags binds the editable vehicle fields. apply copies only the flags
// that were set onto in.
type vehicleFlags struct {
	number, model, manufacturer, category, status string
	battery, fuel, lat, lon, speed                float64
	health                                        int
}

func (f *vehicleFlags) bind(cmd *cobra.Command) {
	fs := cmd.Flags()
	fs.StringVar(&f.number, "number", "", "vehicle number")
	fs.StringVar(&f.model, "model", "", "model")
	fs.StringVar(&f.manufacturer, "manufacturer", "", "manufacturer")
	fs.StringVar(&f.category, "type", "", "SEDAN, SUV, VAN, TRUCK or MOTORCYCLE")
	fs.StringVar(&f.status, "status", "", "AVAILABLE, IN_USE or MAINTENANCE")
	fs.Float64Var(&f.battery, "battery", 0, "battery level (electric vehicles)")
	fs.Float64Var(&f.fuel, "fuel", 0, "fuel level (combustion vehicles)")
	fs.Float64Var(&f.lat, "lat", 0, "latitude")
	fs.Float64Var(&f.lon, "lon", 0, "longitude")
	fs.Float64Var(&f.speed, "speed", 0, "speed in mph")
	fs.IntVar(&f.health, "health", 0, "health score")
}

func (f *vehicleFlags) apply(cmd *cobra.Command, in *models.VehicleInput) error {
	fs := cmd.Flags()
	if fs.Changed("number") {
		in.VehicleNumber = f.number
	}
	if fs.Changed("model") {
		in.Model = f.model
	}
	if fs.Changed("manufacturer") {
		in.Manufacturer = f.manufacturer
	}
	if fs.Changed("type") {
		c, err := models.ParseCategory(f.category)
		if err != nil {
			return err
		}
		in.Type = c
	}
	if fs.Changed("status") {
		s, err := models.ParseStatus(f.status)
		if err != nil {
			return err
		}
		in.Status = s
	}
	if fs.Changed("battery") {
		in.BatteryLevel = models.Float(f.battery)
		in.FuelLevel = nil
	}
	if fs.Changed("fuel") {
		in.FuelLevel = models.Float(f.fuel)
		if !fs.Changed("battery") {
			in.BatteryLevel = nil
		}
	}
	if fs.Changed("lat") {
		in.Latitude = f.lat
	}
	if fs.Changed("lon") {
		in.Longitude = f.lon
	}
	if fs.Changed("speed") {
		in.Speed = f.speed
	}
	if fs.Changed("health") {
		in.HealthScore = f.health
	}
	return in.Validate()
}

func newVehiclesCreateCmd(c *cli) *cobra.Command {
	var f vehicleFlags
	cmd := &cobra.Command{
		Use:   "create",
		Short: "Add a vehicle",
		RunE: func(cmd *cobra.Command, args []string) error {
			in := models.VehicleInput{Status: models.StatusAvailable, HealthScore: models.MaxHealth}
			if err := f.apply(cmd, &in); err != nil {
				return err
			}
			a, err := c.App(cmd.Context())
			if err != nil {
				return err
			}
			if err := a.Store.Create(cmd.Context(), in); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Created %s\n", in.VehicleNumber)
			return writeRows(cmd.OutOrStdout(), a.Store.Snapshot())
		},
	}
	f.bind(cmd)
	return cmd
}

func newVehiclesUpdateCmd(c *cli) *cobra.Command {
	var f vehicleFlags
	cmd := &cobra.Command{
		Use:   "update ID",
		Short: "Change a vehicle; unset flags keep their value",
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
			current, err := a.Client.GetVehicle(cmd.Context(), id)
			if err != nil {
				return err
			}
			in := current.Input()
			if err := f.apply(cmd, &in); err != nil {
				return err
			}
			if err := a.Store.Update(cmd.Context(), id, in); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Updated vehicle %d\n", id)
			return nil
		},
	}
	f.bind(cmd)
	return cmd
}

func newVehiclesDeleteCmd(c *cli) *cobra.Command {
	return &cobra.Command{
		Use:   "delete ID",
		Short: "Remove a vehicle",
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
			if err := a.Store.Delete(cmd.Context(), id); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Deleted vehicle %d\n", id)
			return nil
		},
	}
}

func newVehiclesStatusCmd(c *cli) *cobra.Command {
	return &cobra.Command{
		Use:   "status STATUS",
		Short: "List vehicles with a status (available, in_use, maintenance)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			status, err := models.ParseStatus(args[0])
			if err != nil {
				return err
			}
			a, err := c.App(cmd.Context())
			if err != nil {
				return err
			}
			vehicles, err := a.Client.VehiclesByStatus(cmd.Context(), status)
			if err != nil {
				return err
			}
			return writeRows(cmd.OutOrStdout(), vehicles)
		},
	}
}

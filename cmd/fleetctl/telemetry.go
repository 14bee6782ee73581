package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/spf13/cobra"
	"github.com/ukydev/fleet-console/internal/dashboard"
	"github.com/ukydev/fleet-console/internal/db"
	"github.com/ukydev/fleet-console/internal/models"
	"github.com/ukydev/fleet-console/internal/telemetry"
)

func newTelemetryCmd(c *cli) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "telemetry",
		Short: "Simulated live telemetry",
	}
	cmd.AddCommand(newTelemetryWatchCmd(c), newTelemetryHistoryCmd(c), newTelemetryPurgeCmd(c))
	return cmd
}

var errNoHistory = errors.New("telemetry history needs MONGO_URI")

func newTelemetryHistoryCmd(c *cli) *cobra.Command {
	var limit int64
	cmd := &cobra.Command{
		Use:   "history VEHICLE_ID",
		Short: "Print a vehicle's recorded frames, newest first",
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
			if a.Frames == nil {
				return errNoHistory
			}
			frames, err := db.RecentFrames(cmd.Context(), a.Frames, id, limit)
			if err != nil {
				return err
			}
			if len(frames) == 0 {
				fmt.Fprintf(cmd.OutOrStdout(), "No frames recorded for vehicle %d\n", id)
				return nil
			}
			return printSink(cmd.OutOrStdout()).Publish(cmd.Context(), frames)
		},
	}
	cmd.Flags().Int64Var(&limit, "limit", 20, "number of frames to show")
	return cmd
}

func newTelemetryPurgeCmd(c *cli) *cobra.Command {
	return &cobra.Command{
		Use:   "purge",
		Short: "Delete every recorded frame",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := c.App(cmd.Context())
			if err != nil {
				return err
			}
			if a.Frames == nil {
				return errNoHistory
			}
			if sess, err := a.Session.Current(); err != nil || sess.Role != models.RoleAdmin {
				return errors.New("purging telemetry history requires the Admin role")
			}
			if err := a.Frames.DeleteAll(cmd.Context()); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Telemetry history cleared")
			return nil
		},
	}
}

// printSink writes one line per frame.
func printSink(w io.Writer) telemetry.Sink {
	return telemetry.SinkFunc(func(_ context.Context, frames []models.Frame) error {
		for _, f := range frames {
			energy := "-"
			if f.BatteryLevel != nil {
				energy = fmt.Sprintf("battery %.1f%%", dashboard.Round(*f.BatteryLevel, 1))
			} else if f.FuelLevel != nil {
				energy = fmt.Sprintf("fuel %.1f%%", dashboard.Round(*f.FuelLevel, 1))
			}
			fmt.Fprintf(w, "%s  vehicle %d  %.1f mph  %s  %.4f, %.4f\n",
				f.Timestamp.Format(time.TimeOnly), f.VehicleID, dashboard.Round(f.Speed, 1), energy,
				f.Location.Lat, f.Location.Lon)
		}
		return nil
	})
}

func newTelemetryWatchCmd(c *cli) *cobra.Command {
	var (
		interval time.Duration
		ticks    int
	)
	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Run the simulation in the foreground and print each frame",
		Long: `Loads the fleet and advances every in-use vehicle once per interval,
printing the new readings. Frames also go to the configured MQTT, NATS and
Mongo sinks. Stops after --ticks steps, or on Ctrl-C.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := c.App(cmd.Context())
			if err != nil {
				return err
			}
			if err := a.Store.Load(cmd.Context()); err != nil {
				return err
			}
			if interval <= 0 {
				interval = a.Config.SimTick
			}

			sinks := append([]telemetry.Sink{printSink(cmd.OutOrStdout())}, a.Sinks...)
			sim := telemetry.NewSimulator(a.Store, interval, telemetry.WithSinks(sinks...))
			if ticks <= 0 {
				return sim.Run(cmd.Context())
			}
			for i := 0; i < ticks; i++ {
				if i > 0 {
					select {
					case <-cmd.Context().Done():
						return nil
					case <-time.After(interval):
					}
				}
				sim.Step(cmd.Context())
			}
			return nil
		},
	}
	cmd.Flags().DurationVar(&interval, "interval", 0, "time between steps (default SIM_TICK_SECONDS)")
	cmd.Flags().IntVar(&ticks, "ticks", 0, "stop after this many steps")
	return cmd
}

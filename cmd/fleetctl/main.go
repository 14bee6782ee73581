// Command fleetctl drives the fleet backend from a terminal with the same
// session, store and simulation the dashboard server uses.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strconv"
	"syscall"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/ukydev/fleet-console/internal/api"
	"github.com/ukydev/fleet-console/internal/app"
	"github.com/ukydev/fleet-console/internal/config"
)

// cli opens the wired console lazily so that --help and flag errors never
// touch the session store.
type cli struct {
	open func(ctx context.Context) (*app.App, error)
	app  *app.App
}

func defaultOpen(apiURL *string) func(ctx context.Context) (*app.App, error) {
	return func(ctx context.Context) (*app.App, error) {
		cfg, err := config.Load()
		if err != nil {
			return nil, err
		}
		if *apiURL != "" {
			cfg.APIBaseURL = *apiURL
		}
		cfg.ConfigureLogging()
		nav := api.NavigatorFunc(func(string) {
			fmt.Fprintln(os.Stderr, "Session expired. Run 'fleetctl login' to sign in again.")
		})
		return app.New(ctx, cfg, nav)
	}
}

func (c *cli) App(ctx context.Context) (*app.App, error) {
	if c.app != nil {
		return c.app, nil
	}
	a, err := c.open(ctx)
	if err != nil {
		return nil, err
	}
	c.app = a
	return a, nil
}

func (c *cli) Close() {
	if c.app != nil {
		c.app.Close()
		c.app = nil
	}
}

func newRootCmd(c *cli) *cobra.Command {
	root := &cobra.Command{
		Use:           "fleetctl",
		Short:         "Operate the NeuroFleetX fleet from the command line",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.AddCommand(
		newLoginCmd(c),
		newLogoutCmd(c),
		newWhoamiCmd(c),
		newRegisterCmd(c),
		newVehiclesCmd(c),
		newTelemetryCmd(c),
		newMaintenanceCmd(c),
		newRoutesCmd(),
		newUsersCmd(c),
		newProfileCmd(c),
	)
	return root
}

func main() {
	var apiURL string
	c := &cli{open: defaultOpen(&apiURL)}
	root := newRootCmd(c)
	root.PersistentFlags().StringVar(&apiURL, "api", "", "backend base URL (overrides API_BASE_URL)")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := root.ExecuteContext(ctx)
	stop()
	c.Close()
	if err != nil {
		log.WithError(err).Debug("Command failed")
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

func printJSON(w io.Writer, v interface{}) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func parseID(s string) (int64, error) {
	id, err := strconv.ParseInt(s, 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid id %q", s)
	}
	return id, nil
}

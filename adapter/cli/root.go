// Package cli implements the untangle command line interface.
package cli

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"untangle/internal/app"
)

var verbose bool

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "untangle",
	Short: "Untangle - calendar conflict resolution",
	Long: `Untangle detects overlapping calendar events, scores them against
your priority rules and proposes how to resolve each conflict.

Decisions you take are recorded locally so recurring conflict shapes
surface as patterns over time.`,
	SilenceUsage: true,
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute(ctx context.Context) {
	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")
}

// container is the global application instance
var container *app.Container

// SetContainer sets the global application instance.
func SetContainer(c *app.Container) {
	container = c
}

// GetContainer returns the global application instance.
func GetContainer() *app.Container {
	return container
}

// requireContainer returns the container or an error when the process started
// without one.
func requireContainer() (*app.Container, error) {
	if container == nil {
		return nil, fmt.Errorf("application not initialized; check configuration")
	}
	return container, nil
}

// requireCalendar returns the container and verifies a calendar source is
// configured.
func requireCalendar() (*app.Container, error) {
	c, err := requireContainer()
	if err != nil {
		return nil, err
	}
	if c.Source == nil {
		return nil, app.ErrNoCalendarSource
	}
	return c, nil
}

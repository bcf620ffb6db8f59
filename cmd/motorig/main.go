// Command motorig validates part catalogs, authors connection points and
// runs assembly scripts against a catalog.
package main

import (
	"fmt"
	"os"

	"github.com/danielgardiner81/MotoRouge/pkg/config"
	"github.com/danielgardiner81/MotoRouge/pkg/logging"
	"github.com/danielgardiner81/MotoRouge/pkg/physics"
	"github.com/danielgardiner81/MotoRouge/pkg/physics/planar"
	"github.com/danielgardiner81/MotoRouge/pkg/physics/record"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

const defaultConfigFile = "motorig.yaml"

// cli carries state shared by every command, filled in before a command
// runs.
type cli struct {
	configFile string
	logLevel   string

	cfg *config.Config
	log *zap.Logger
}

func (c *cli) setup(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(c.configFile)
	if err != nil {
		return err
	}
	if c.logLevel != "" {
		cfg.Log.Level = c.logLevel
	}
	log, err := logging.New(cfg.Log.Level, cfg.Log.Format)
	if err != nil {
		return err
	}
	c.cfg = cfg
	c.log = log
	return nil
}

// newBackend returns the factory for the configured physics backend.
func (c *cli) newBackend() func() physics.Backend {
	switch c.cfg.Physics.Backend {
	case config.BackendPlanar:
		gravity := c.cfg.Physics.Gravity
		return func() physics.Backend { return planar.New(gravity) }
	default:
		return func() physics.Backend { return record.New() }
	}
}

func newRootCmd() *cobra.Command {
	c := &cli{}

	rootCmd := &cobra.Command{
		Use:               "motorig",
		Short:             "part catalog and assembly tool",
		SilenceUsage:      true,
		PersistentPreRunE: c.setup,
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			if c.log != nil {
				_ = c.log.Sync()
			}
		},
	}
	rootCmd.PersistentFlags().StringVar(&c.configFile, "config", defaultConfigFile, "config file path (yaml)")
	rootCmd.PersistentFlags().StringVar(&c.logLevel, "log-level", "", "log level (debug, info, warn, error)")

	rootCmd.AddCommand(
		newValidateCmd(c),
		newPresetsCmd(c),
		newDetectCmd(c),
		newRunCmd(c),
		newMeshCmd(c),
	)
	return rootCmd
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

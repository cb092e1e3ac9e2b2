package main

import (
	"fmt"
	"os"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"civic_horizon/config"
	"civic_horizon/logging"
)

const serviceName = "civichorizon"

// app carries what every subcommand shares once the root has loaded it.
type app struct {
	cfgPath string
	cfg     *config.Config
	log     zerolog.Logger
}

func main() {
	if err := rootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func rootCmd() *cobra.Command {
	a := &app{}
	root := &cobra.Command{
		Use:           serviceName,
		Short:         "Build a shared vision of the UK in 2050 and export it as PDF",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(a.cfgPath)
			if err != nil {
				return err
			}
			a.cfg = cfg
			a.log = logging.New(logging.Config{
				Level:   cfg.Log.Level,
				Format:  cfg.Log.Format,
				Output:  cmd.ErrOrStderr(),
				Service: serviceName,
			})
			return nil
		},
	}
	root.PersistentFlags().StringVar(&a.cfgPath, "config", os.Getenv("CONFIG_PATH"), "path to a YAML config file")

	root.AddCommand(serveCmd(a))
	root.AddCommand(generateCmd(a))
	root.AddCommand(followupCmd(a))
	root.AddCommand(exportCmd(a))
	root.AddCommand(questionsCmd())
	return root
}

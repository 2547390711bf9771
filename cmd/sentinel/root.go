package main

import (
	"os"

	"github.com/spf13/cobra"

	"PatternSentinel/internal/config"
	"PatternSentinel/internal/logging"
)

type rootOptions struct {
	configPath string
	logLevel   string
	pretty     bool
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{configPath: "configs/config.yaml"}
	if v := os.Getenv("CONFIG_PATH"); v != "" {
		opts.configPath = v
	}

	root := &cobra.Command{
		Use:           "sentinel",
		Short:         "PatternSentinel chart pattern scanner",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVar(&opts.configPath, "config", opts.configPath, "path to config.yaml")
	root.PersistentFlags().StringVar(&opts.logLevel, "log-level", "", "override log level")
	root.PersistentFlags().BoolVar(&opts.pretty, "pretty", false, "human-readable console logs")

	root.AddCommand(newScanCmd(opts), newServeCmd(opts))
	return root
}

// load reads the config and sets up logging from it.
func (o *rootOptions) load() (*config.Config, error) {
	cfg, err := config.Load(o.configPath)
	if err != nil {
		return nil, err
	}
	if o.logLevel != "" {
		cfg.Log.Level = o.logLevel
	}
	if o.pretty {
		cfg.Log.Pretty = true
	}
	logging.Setup(cfg.Log.Level, cfg.Log.Pretty)
	return cfg, nil
}

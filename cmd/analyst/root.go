package main

import (
	"fmt"

	"github.com/fwojciec/analyst/config"
	"github.com/spf13/cobra"
)

const defaultConfigPath = ".analyst/config.yaml"

var version = "dev"

func newRootCmd(a *app) *cobra.Command {
	root := &cobra.Command{
		Use:   "analyst",
		Short: "Conversational analyst for e-commerce data",
		Long: `analyst answers natural-language questions about customers, clusters,
sales and products.

Each message is classified as a data query or general chat. Data queries are
routed to a specialist that reads the tabular store; the results are narrated
back. Conversations are kept per session in the message log.`,
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(a.configPath)
			if err != nil {
				return err
			}
			if a.provider != "" {
				cfg.LLM.Provider = a.provider
				if err := cfg.Validate(); err != nil {
					return err
				}
			}
			logger, err := newLogger(cfg.Logging, a.verbose)
			if err != nil {
				return fmt.Errorf("failed to initialize logger: %w", err)
			}
			a.cfg = cfg
			a.logger = logger
			return nil
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			if a.logger != nil {
				_ = a.logger.Sync()
			}
		},
	}

	flags := root.PersistentFlags()
	flags.StringVar(&a.configPath, "config", defaultConfigPath, "Path to the YAML config file")
	flags.BoolVarP(&a.verbose, "verbose", "v", false, "Log at debug level")
	flags.StringVar(&a.provider, "provider", "", "Completion provider: gemini, anthropic (overrides config)")
	flags.BoolVar(&a.offline, "offline", false, "Run without a completion provider")

	root.AddCommand(
		newChatCmd(a),
		newAskCmd(a),
		newServeCmd(a),
		newSeedCmd(a),
		newSessionCmd(a),
	)
	return root
}

package main

import (
	"bingohall/internal/config"
	"bingohall/internal/logger"
	"fmt"
	"os"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

var (
	flagPort    string
	flagStore   string
	flagLevel   string
	flagLogJSON bool
)

var rootCmd = &cobra.Command{
	Use:           "bingohall",
	Short:         "Real-time multiplayer bingo room server",
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE:          runServe,
}

func init() {
	flags := rootCmd.PersistentFlags()
	flags.StringVar(&flagPort, "port", "", "HTTP listen port (env PORT)")
	flags.StringVar(&flagStore, "store", "", "room store backend: redis, pebble or memory (env STORE_BACKEND)")
	flags.StringVar(&flagLevel, "log-level", "", "log level (env LOG_LEVEL)")
	flags.BoolVar(&flagLogJSON, "log-json", false, "write JSON log lines")

	rootCmd.AddCommand(serveCmd, tokenCmd)
}

// loadConfig applies command-line overrides on top of the environment
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	if flagPort != "" {
		cfg.Port = flagPort
	}
	if flagStore != "" {
		cfg.StoreBackend = flagStore
	}
	if flagLevel != "" {
		cfg.LogLevel = flagLevel
	}
	if flagLogJSON {
		cfg.LogFormat = "json"
	}
	logger.Setup(cfg.LogLevel, cfg.LogFormat)
	return cfg, nil
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		log.Error().Err(err).Msg("bingohall exited")
		os.Exit(1)
	}
}

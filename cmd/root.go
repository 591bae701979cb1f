package cmd

import (
	"os"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"mspro-labs/brew-map/internal/config"
)

var (
	configPath string
	logLevel   string
)

var rootCmd = &cobra.Command{
	Use:   "brew-map",
	Short: "Find the coffee shops nearest to an address and show them on a map",
	Long: `brew-map reads a list of coffee shops, geocodes your address, picks the
nearest shops and renders them on an interactive map served over HTTP.`,
	SilenceUsage: true,
}

// Execute runs the root command. It is called once from main.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "path to the YAML settings file (default $CONFIG_PATH or config.yaml)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "log level: debug, info, warning, error")
}

// loadConfig reads env/.env and the YAML settings, applies the persistent
// flags and configures logging.
func loadConfig() (config.AppConfig, *config.Settings) {
	appCfg, err := config.GetAppConfig()
	if err != nil {
		log.Fatalf("Config error: %v", err)
	}
	if configPath != "" {
		appCfg.ConfigPath = configPath
	}

	settings, err := config.LoadSettings(appCfg.ConfigPath)
	if err != nil {
		log.Fatalf("Failed to load settings: %v", err)
	}

	level := settings.LogLevel
	if appCfg.LogLevel != "" {
		level = appCfg.LogLevel
	}
	if logLevel != "" {
		level = logLevel
	}
	if err := setupLogging(level); err != nil {
		log.Fatalf("Config error: %v", err)
	}

	return appCfg, settings
}

func setupLogging(level string) error {
	log.SetFormatter(&log.TextFormatter{FullTimestamp: true})
	lvl, err := log.ParseLevel(level)
	if err != nil {
		return err
	}
	log.SetLevel(lvl)
	return nil
}

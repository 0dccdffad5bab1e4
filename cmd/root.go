package cmd

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/zjrosen/composer/internal/config"
	"github.com/zjrosen/composer/internal/log"
)

// localConfigPath is the project-local config consulted before the user config.
const localConfigPath = ".composer/config.yaml"

var (
	version    = "dev"
	cfgFile    string
	debugFlag  bool
	jsonOutput bool
	cfg        config.Config

	logCleanup func()
)

var rootCmd = &cobra.Command{
	Use:   "composer",
	Short: "Compose plugin groups into a validated dependency graph",
	Long: `composer loads plugin manifests describing types, parts and groups,
connects group imports to group exports through a serialized command
processor, and stores metadata and composition snapshots in SQLite.`,
	Version:           version,
	SilenceUsage:      true,
	PersistentPreRunE: setup,
	PersistentPostRun: func(_ *cobra.Command, _ []string) {
		if logCleanup != nil {
			logCleanup()
			logCleanup = nil
		}
	},
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "",
		"config file (default: .composer/config.yaml, then ~/.config/composer/config.yaml)")
	rootCmd.PersistentFlags().BoolVarP(&debugFlag, "debug", "d", false,
		"write debug logs to the configured log file")
	rootCmd.PersistentFlags().BoolVar(&jsonOutput, "json", false,
		"print results as JSON")
	rootCmd.PersistentFlags().String("db", "",
		"path to the SQLite database (overrides database.path)")

	_ = viper.BindPFlag("database.path", rootCmd.PersistentFlags().Lookup("db"))
}

func initConfig() {
	setDefaults(config.Defaults())

	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		// Config lookup order:
		// 1. .composer/config.yaml (current directory)
		// 2. ~/.config/composer/config.yaml (user config)
		if _, err := os.Stat(localConfigPath); err == nil {
			viper.SetConfigFile(localConfigPath)
		} else if dir := config.Dir(); dir != "" {
			viper.AddConfigPath(dir)
			viper.SetConfigName("config")
			viper.SetConfigType("yaml")
		}
	}

	viper.SetEnvPrefix("COMPOSER")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	// A missing config file is fine, defaults apply.
	_ = viper.ReadInConfig()
	_ = viper.Unmarshal(&cfg)
}

func setDefaults(d config.Config) {
	viper.SetDefault("database.path", d.Database.Path)
	viper.SetDefault("log.path", d.Log.Path)
	viper.SetDefault("log.debug", d.Log.Debug)
	viper.SetDefault("log.level", d.Log.Level)
	viper.SetDefault("processor.queue_capacity", d.Processor.QueueCapacity)
	viper.SetDefault("processor.slow_command_threshold", d.Processor.SlowCommandThreshold)
	viper.SetDefault("tracing.enabled", d.Tracing.Enabled)
	viper.SetDefault("tracing.exporter", d.Tracing.Exporter)
	viper.SetDefault("tracing.file_path", d.Tracing.FilePath)
	viper.SetDefault("tracing.otlp_endpoint", d.Tracing.OTLPEndpoint)
	viper.SetDefault("tracing.sample_rate", d.Tracing.SampleRate)
	viper.SetDefault("tracing.service_name", d.Tracing.ServiceName)
	viper.SetDefault("cache.expiration", d.Cache.Expiration)
	viper.SetDefault("cache.cleanup_interval", d.Cache.CleanupInterval)
}

func setup(_ *cobra.Command, _ []string) error {
	if err := config.Validate(cfg); err != nil {
		return err
	}

	// Initialize logging if debug mode enabled (via flag, config or env var)
	if !debugFlag && !cfg.Log.Debug && os.Getenv("COMPOSER_DEBUG") == "" {
		return nil
	}
	logPath := cfg.Log.Path
	if logPath == "" {
		logPath = config.DefaultLogPath()
	}
	if err := os.MkdirAll(filepath.Dir(logPath), 0o750); err != nil {
		return fmt.Errorf("creating log directory: %w", err)
	}
	cleanup, err := log.Init(logPath)
	if err != nil {
		return fmt.Errorf("initializing logging: %w", err)
	}
	logCleanup = cleanup

	level := log.LevelDebug
	if !debugFlag {
		level, _ = log.ParseLevel(cfg.Log.Level)
	}
	log.SetMinLevel(level)
	log.Info(log.CatConfig, "composer starting", "version", version, "config", viper.ConfigFileUsed())
	return nil
}

// Execute runs the root command
func Execute() error {
	return rootCmd.Execute()
}

// SetVersion sets the version string (called from main with ldflags)
func SetVersion(v string) {
	version = v
	rootCmd.Version = v
}

package main

import (
	"fmt"
	"os"
	"runtime"

	"github.com/spf13/cobra"

	"threadsdl/pkg/config"
	"threadsdl/pkg/logger"
	"threadsdl/pkg/ui"
)

var (
	version   = "1.0.0"
	gitCommit = "unknown"
	buildDate = "unknown"

	// Global flags
	configFile      string
	logLevel        string
	language        string
	settingsBackend string
	quiet           bool
)

var out = ui.NewPrinter(os.Stdout)

var rootCmd = &cobra.Command{
	Use:   "threadsdl",
	Short: "Find and download the media of Threads posts",
	Long: `threadsdl runs the Threads downloader discovery engine over a saved page
or a live URL. It finds every post, the videos and images each post owns, and
names them the way the in-page download button does.

Downloads land in <output>/Threads/. Preferences such as the filename prefix
are kept in the settings store, shared with the in-page engine.`,
	Version: fmt.Sprintf("%s (commit: %s, built: %s)", version, gitCommit, buildDate),
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		if !quiet && cmd.Name() != "version" && cmd.Name() != "help" {
			out.Logo()
		}
	},
	SilenceUsage: true,
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configFile, "config", "c", "", "config file (default is $HOME/.config/threadsdl/config.yaml)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().StringVar(&language, "language", "", "UI language (auto, en, zh_TW, zh_CN, ja, ko)")
	rootCmd.PersistentFlags().StringVar(&settingsBackend, "settings-backend", "", "settings store (memory, sqlite)")
	rootCmd.PersistentFlags().BoolVarP(&quiet, "quiet", "q", false, "suppress the banner")

	rootCmd.SetVersionTemplate(`threadsdl {{.Version}}
Go Version: ` + runtime.Version() + `
OS/Arch: ` + runtime.GOOS + `/` + runtime.GOARCH + `
`)
	rootCmd.CompletionOptions.DisableDefaultCmd = true
}

// globalFlags collects the persistent flags in the shape config.Load merges
func globalFlags() map[string]interface{} {
	return map[string]interface{}{
		"log-level":        logLevel,
		"language":         language,
		"settings-backend": settingsBackend,
	}
}

// loadConfig loads the configuration and sets up logging
func loadConfig(extra map[string]interface{}) (*config.Config, logger.Logger, error) {
	flags := globalFlags()
	for k, v := range extra {
		flags[k] = v
	}
	cfg, err := config.Load(configFile, flags)
	if err != nil {
		return nil, nil, err
	}
	if err := logger.Initialize(&cfg.Logging); err != nil {
		return nil, nil, fmt.Errorf("failed to initialize logger: %w", err)
	}
	return cfg, logger.GetLogger(), nil
}

package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"threadsdl/pkg/config"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage configuration files",
	Long: `Manage threadsdl configuration files.

Configuration can be loaded from:
  - Command line flags (highest priority)
  - Environment variables (THREADSDL_*)
  - .env files
  - Configuration file
  - Default values (lowest priority)`,
}

var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Write the default configuration to a file",
	Long: `Write the default configuration with every available option.

The file is created as 'threadsdl.yaml' in the current directory unless a
different path is given with --config.`,
	Args: cobra.NoArgs,
	RunE: runConfigInit,
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show the effective configuration",
	Args:  cobra.NoArgs,
	RunE:  runConfigShow,
}

func init() {
	rootCmd.AddCommand(configCmd)
	configCmd.AddCommand(configInitCmd)
	configCmd.AddCommand(configShowCmd)
}

func runConfigInit(cmd *cobra.Command, args []string) error {
	path := configFile
	if path == "" {
		path = "threadsdl.yaml"
	}

	if _, err := os.Stat(path); err == nil {
		err := fmt.Errorf("configuration file already exists: %s", path)
		out.Error("Refusing to overwrite", err)
		return err
	}

	if err := config.DefaultConfig().Save(path); err != nil {
		out.Error("Failed to create configuration file", err)
		return err
	}

	out.Success("Configuration file created: " + path)
	fmt.Fprintln(out.Writer(), "\nNext steps:")
	fmt.Fprintln(out.Writer(), "1. Adjust the download folder and rate limits")
	fmt.Fprintf(out.Writer(), "2. Run 'threadsdl scan <page> --config %s'\n", path)
	return nil
}

func runConfigShow(cmd *cobra.Command, args []string) error {
	cfg, _, err := loadConfig(nil)
	if err != nil {
		out.Error("Failed to load configuration", err)
		return err
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		out.Error("Failed to format configuration", err)
		return err
	}

	out.Highlight("Current Configuration")
	fmt.Fprintln(out.Writer())
	fmt.Fprint(out.Writer(), string(data))

	fmt.Fprintln(out.Writer(), "\nConfiguration sources (in order of priority):")
	fmt.Fprintln(out.Writer(), "1. Command line flags")
	fmt.Fprintln(out.Writer(), "2. Environment variables (THREADSDL_*)")
	if configFile != "" {
		fmt.Fprintf(out.Writer(), "3. Configuration file: %s\n", configFile)
	} else {
		fmt.Fprintln(out.Writer(), "3. Configuration file: (searched in standard locations)")
	}
	fmt.Fprintln(out.Writer(), "4. Default values")
	return nil
}

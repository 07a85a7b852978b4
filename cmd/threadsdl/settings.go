package main

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"threadsdl/pkg/config"
	"threadsdl/pkg/settings"
)

var settingsCmd = &cobra.Command{
	Use:   "settings",
	Short: "Read and change user preferences",
	Long: `Read and change the preferences shared with the in-page engine:
language, debugMode, enablePostButton, enableOverlay, useTimestamp and
addPrefix.

Values only persist with the sqlite settings backend.`,
}

var settingsListCmd = &cobra.Command{
	Use:   "list",
	Short: "Show every preference with its effective value",
	Args:  cobra.NoArgs,
	RunE:  runSettingsList,
}

var settingsGetCmd = &cobra.Command{
	Use:   "get <key>",
	Short: "Show one preference",
	Args:  cobra.ExactArgs(1),
	RunE:  runSettingsGet,
}

var settingsSetCmd = &cobra.Command{
	Use:     "set <key> <value>",
	Short:   "Change one preference",
	Example: `  threadsdl settings set addPrefix false --settings-backend sqlite`,
	Args:    cobra.ExactArgs(2),
	RunE:    runSettingsSet,
}

func init() {
	rootCmd.AddCommand(settingsCmd)
	settingsCmd.AddCommand(settingsListCmd)
	settingsCmd.AddCommand(settingsGetCmd)
	settingsCmd.AddCommand(settingsSetCmd)
}

func withStore(fn func(ctx context.Context, cfg *config.Config, store settings.Store) error) error {
	ctx := context.Background()
	cfg, _, err := loadConfig(nil)
	if err != nil {
		out.Error("Failed to load configuration", err)
		return err
	}
	store, err := openStore(ctx, cfg)
	if err != nil {
		out.Error("Failed to open settings store", err)
		return err
	}
	defer store.Close()
	return fn(ctx, cfg, store)
}

func runSettingsList(cmd *cobra.Command, args []string) error {
	return withStore(func(ctx context.Context, cfg *config.Config, store settings.Store) error {
		s, err := settings.Load(ctx, store)
		if err != nil {
			return err
		}
		values := s.Map()
		for _, key := range settings.Keys() {
			out.Info(key, values[key])
		}
		out.Dim("backend: " + cfg.Settings.Backend)
		return nil
	})
}

func runSettingsGet(cmd *cobra.Command, args []string) error {
	key := args[0]
	return withStore(func(ctx context.Context, _ *config.Config, store settings.Store) error {
		s, err := settings.Load(ctx, store)
		if err != nil {
			return err
		}
		value, ok := s.Map()[key]
		if !ok {
			return fmt.Errorf("unknown setting %q, expected one of %s", key, strings.Join(settings.Keys(), ", "))
		}
		fmt.Fprintln(out.Writer(), value)
		return nil
	})
}

func runSettingsSet(cmd *cobra.Command, args []string) error {
	key, value := args[0], args[1]
	return withStore(func(ctx context.Context, cfg *config.Config, store settings.Store) error {
		if err := store.Set(ctx, key, value); err != nil {
			out.Error("Failed to save setting", err)
			return err
		}
		out.Success(fmt.Sprintf("%s = %s", key, value))
		if !strings.EqualFold(cfg.Settings.Backend, "sqlite") {
			out.Warning("The memory backend forgets this value on exit; use --settings-backend sqlite to keep it")
		}
		return nil
	})
}

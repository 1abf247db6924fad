// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package main is the entry point for the enex-migrate CLI.
package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// version is set at build time via ldflags.
var version = "dev"

// rootCmd is the base command for the enex-migrate CLI.
var rootCmd = &cobra.Command{
	Use:   "enex-migrate",
	Short: "Migrate Evernote exports into portable PDF artifacts",
	Long: `enex-migrate converts Evernote export archives (.enex) into portable
artifacts: one directory per notebook, one PDF or passthrough file per note,
and a machine-readable extraction log for auditing the run.

Each migration stage is a subcommand: extract turns archives into artifacts,
upload mirrors the output tree into Google Drive, and index builds a
queryable audit database from the extraction log.`,
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().String("config", "", "config file (default: ./enex-migrate.yaml or ~/.config/enex-migrate/config.yaml)")
}

func initConfig() {
	cfgFile, _ := rootCmd.PersistentFlags().GetString("config")
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.SetConfigName("enex-migrate")
		viper.SetConfigType("yaml")
		viper.AddConfigPath(".")

		home, err := os.UserHomeDir()
		if err == nil {
			viper.AddConfigPath(filepath.Join(home, ".config", "enex-migrate"))
		}
	}

	viper.SetEnvPrefix("ENEX_MIGRATE")
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err == nil {
		fmt.Fprintln(os.Stderr, "Using config file:", viper.ConfigFileUsed())
	}
}

// settingDefault returns the config-file value for key when the flag kept
// its default, so flags win over the config file which wins over defaults.
func settingDefault(cmd *cobra.Command, flag, key string) string {
	value, _ := cmd.Flags().GetString(flag)
	if !cmd.Flags().Changed(flag) && viper.IsSet(key) {
		return viper.GetString(key)
	}
	return value
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

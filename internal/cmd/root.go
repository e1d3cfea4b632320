// Package cmd implements the taskchecker CLI.
package cmd

import (
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/benresonance-star/Task-Checker-sub001/internal/config"
)

var rootCmd = &cobra.Command{
	Use:   "taskchecker",
	Short: "Collaborative checklist coordination engine",
	Long: `Taskchecker coordinates a team working a shared checklist: advisory
per-user task focus, personal ordered action sets, presence heartbeats,
and per-task countdown timers, synchronized through a shared data
directory.`,
}

// Execute runs the root command
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	cobra.OnInitialize(initConfig)

	// Global flags
	rootCmd.PersistentFlags().StringP("config", "c", "", "config file (default is $HOME/.config/taskchecker/config.yaml)")
	rootCmd.PersistentFlags().StringP("user", "u", "", "acting user ID")
	_ = viper.BindPFlag("config", rootCmd.PersistentFlags().Lookup("config"))
	_ = viper.BindPFlag("user", rootCmd.PersistentFlags().Lookup("user"))
}

func initConfig() {
	// Set defaults first so they're available even without a config file
	config.SetDefaults()

	if cfgFile := viper.GetString("config"); cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.SetConfigName("config")
		viper.SetConfigType("yaml")
		viper.AddConfigPath(config.ConfigDir())
		viper.AddConfigPath(".")
	}

	viper.AutomaticEnv()
	viper.SetEnvPrefix("TASKCHECKER")
	// Replace dots with underscores for nested keys in env vars
	// e.g., TASKCHECKER_TIMER_SYNC_EVERY_TICKS for timer.sync_every_ticks
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	// Read config file if it exists (ignore error if not found)
	_ = viper.ReadInConfig()
}

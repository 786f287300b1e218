// Package cmd implements the scenyx command line.
package cmd

import (
	"github.com/Vasu1712/scenyx-studio/internal/config"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var cfgFile string

var rootCmd = &cobra.Command{
	Use:   "scenyx",
	Short: "Real-time collaboration server for the scenyx song editor",
	Long: `scenyx serves the song editing API and the WebSocket relay that keeps
everyone with the same song open in sync.`,
	SilenceUsage: true,
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "", "config file (default is ./scenyx.yaml)")
}

// loadConfig reads .env, the config file and SCENYX_* variables.
func loadConfig() (*config.Config, error) {
	v := viper.New()
	if err := config.Init(v, cfgFile); err != nil {
		return nil, err
	}
	return config.Load(v)
}

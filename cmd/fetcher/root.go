package main

import (
	"github.com/spf13/cobra"
)

const appName = "job_fetcher"

var (
	cfgFile string
	debug   bool

	rootCmd = &cobra.Command{
		Use:           appName,
		Short:         "Aggregate job listings from several boards and rank them against a search profile",
		SilenceUsage:  true,
		SilenceErrors: false,
	}
)

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "config.yaml", "path to config file")
	rootCmd.PersistentFlags().BoolVarP(&debug, "debug", "d", false, "debug logging (overrides log_level)")
}

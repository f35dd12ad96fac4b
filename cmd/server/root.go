package main

import (
	"github.com/spf13/cobra"
)

var cfgFile string

var rootCmd = &cobra.Command{
	Use:   "birdcard",
	Short: "Custom bird card editor and renderer",
	Long: `birdcard serves a browser editor for custom bird cards, keeps the
silhouette state of each editor session, removes image backgrounds and
renders finished cards to PNG or WebP.`,
	SilenceUsage: true,
}

func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "birdcard.yaml", "config file path")
}

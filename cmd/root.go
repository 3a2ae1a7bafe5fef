// Package cmd 命令行入口
package cmd

import (
	"fmt"
	"os"
	"strings"

	"dramaweb/config"
	"dramaweb/logger"

	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:           "dramaweb",
	Short:         "DramaBox Explorer: browse, search and stream short dramas",
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		config.Load()
		if lvl, _ := cmd.Flags().GetString("log-level"); lvl != "" {
			config.Settings.LogLevel = lvl
		}
		logger.Setup(config.Settings.LogLevel, config.Settings.LogJSON)
	},
	RunE: func(cmd *cobra.Command, args []string) error {
		return serveCmd.RunE(cmd, args)
	},
}

func init() {
	rootCmd.PersistentFlags().String("log-level", "", "Override LOG_LEVEL (debug, info, warn, error)")
}

// Execute 解析命令行并执行
func Execute() {
	handleErr(rootCmd.Execute())
}

func handleErr(err error) {
	if err != nil {
		_, _ = fmt.Fprintf(os.Stderr, "✗ %s\n", strings.Trim(err.Error(), " \n"))
		os.Exit(1)
	}
}

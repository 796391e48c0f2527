package cmd

import (
	"github.com/spf13/cobra"

	"github.com/ctrsuite/ctrimage/internal/env"
)

func Execute() error {
	rootCmd := &cobra.Command{
		Use:   env.AppName,
		Short: env.AppName + " - image container conversion tool",
	}

	rootCmd.PersistentFlags().String("log-level", "INFO", "minimum log level (DEBUG, INFO, WARN, ERROR)")

	rootCmd.AddCommand(DefineConvertCommand())
	rootCmd.AddCommand(DefineInfoCommand())
	rootCmd.AddCommand(DefineFormatsCommand())

	return rootCmd.Execute()
}

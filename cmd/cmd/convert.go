package cmd

import (
	"github.com/spf13/cobra"

	"github.com/ctrsuite/ctrimage/internal/convert"
	"github.com/ctrsuite/ctrimage/internal/logger"
)

func DefineConvertCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:          "convert <file>...",
		Short:        "Convert image files to another container format",
		Args:         cobra.MinimumNArgs(1),
		SilenceUsage: true,
		RunE:         RunConvert,
	}

	cmd.Flags().StringP("out-dir", "o", "", "write converted files to the specified directory")
	cmd.Flags().StringP("format", "f", "png", "output format")
	cmd.Flags().String("from", "", "force the input format instead of detecting it")
	cmd.Flags().Int("width", 0, "image width, required for headerless input formats")
	cmd.Flags().Int("height", 0, "image height, required for headerless input formats")
	cmd.Flags().Bool("no-log", false, "disable logging")

	return cmd
}

func RunConvert(cmd *cobra.Command, args []string) error {
	return convert.Run(args, parseOptions(cmd))
}

func parseOptions(cmd *cobra.Command) convert.Options {
	outDir, _ := cmd.Flags().GetString("out-dir")
	format, _ := cmd.Flags().GetString("format")
	from, _ := cmd.Flags().GetString("from")
	width, _ := cmd.Flags().GetInt("width")
	height, _ := cmd.Flags().GetInt("height")
	disableLog, _ := cmd.Flags().GetBool("no-log")
	logLevel, _ := cmd.Flags().GetString("log-level")

	return convert.Options{
		OutputDir:   outDir,
		Format:      format,
		InputFormat: from,
		Width:       width,
		Height:      height,
		LogLevel:    logger.ParseLevel(logLevel),
		DisableLog:  disableLog,
	}
}

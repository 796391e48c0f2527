package cmd

import (
	"encoding/hex"
	"fmt"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/ctrsuite/ctrimage/internal/codec"
)

func DefineFormatsCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "formats",
		Short: "List all supported image container formats",
		Long: `The 'formats' command displays a table of every container format the tool can read or write.
Each format includes its name, associated file extensions and the magic byte signatures used for detection.
Formats without a signature are headerless and must be selected explicitly via --from.`,
		Args:         cobra.NoArgs,
		SilenceUsage: true,
		RunE:         RunFormats,
	}
}

func RunFormats(cmd *cobra.Command, args []string) error {
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "NAME\tEXTENSIONS\tSIGNATURES\tENCODE")

	for _, c := range codec.Default().All() {
		signatures := make([]string, len(c.Signatures))
		for i, sig := range c.Signatures {
			signatures[i] = hex.EncodeToString(sig)
		}

		encode := "yes"
		if c.Encode == nil {
			encode = "no"
		}

		fmt.Fprintf(w, "%s\t%s\t%s\t%s\n",
			c.Name,
			strings.Join(c.Extensions, ","),
			strings.Join(signatures, ","),
			encode,
		)
	}
	return w.Flush()
}

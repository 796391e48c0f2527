package cmd

import (
	"bytes"
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/ctrsuite/ctrimage/internal/codec"
	"github.com/ctrsuite/ctrimage/internal/png"
	"github.com/ctrsuite/ctrimage/pkg/util/format"
)

func DefineInfoCommand() *cobra.Command {
	return &cobra.Command{
		Use:          "info <file>...",
		Short:        "Print container metadata for image files",
		Args:         cobra.MinimumNArgs(1),
		SilenceUsage: true,
		RunE:         RunInfo,
	}
}

func RunInfo(cmd *cobra.Command, args []string) error {
	reg := codec.Default()

	for _, path := range args {
		data, err := os.ReadFile(path)
		if err != nil {
			return err
		}

		fmt.Printf("%s (%s)\n", path, format.FormatBytes(int64(len(data))))

		c, ok := reg.Detect(data)
		if !ok {
			fmt.Println("  format: unknown (headerless formats need --from on convert)")
			continue
		}
		fmt.Printf("  format: %s\n", c.Name)

		if bytes.HasPrefix(data, png.Signature[:]) {
			if err := printPNGInfo(data); err != nil {
				return err
			}
		}
	}
	return nil
}

func printPNGInfo(data []byte) error {
	chunks, err := png.Chunks(data)
	if err != nil {
		return err
	}

	if len(chunks) > 0 && chunks[0].Type == "IHDR" {
		hdr, err := png.ParseHeader(chunks[0].Data)
		if err != nil {
			return err
		}
		fmt.Printf("  size: %dx%d, %d-bit %s\n",
			hdr.Width, hdr.Height, hdr.BitDepth, hdr.ColorType)
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "  CHUNK\tLENGTH\tCRC")
	for _, ch := range chunks {
		fmt.Fprintf(w, "  %s\t%s\t%08x\n",
			ch.Type, format.FormatBytes(int64(ch.Length)), ch.Crc)
	}
	return w.Flush()
}

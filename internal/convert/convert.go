package convert

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/ctrsuite/ctrimage/internal/codec"
	"github.com/ctrsuite/ctrimage/internal/logger"
	"github.com/ctrsuite/ctrimage/internal/pixel"
	"github.com/ctrsuite/ctrimage/pkg/pbar"
)

type Options struct {
	// OutputDir receives the converted files. Empty means alongside
	// each input.
	OutputDir string
	// Format names the output codec. Empty means png.
	Format string
	// InputFormat forces the input codec instead of detecting it.
	InputFormat string
	// Width and Height describe headerless inputs.
	Width  int
	Height int

	LogLevel   logger.Level
	DisableLog bool
}

// Run converts every input file to the requested output format.
// Conversion continues past per-file failures; the first error is
// returned once the batch completes.
func Run(paths []string, opts Options) error {
	log := logger.New(os.Stderr, opts.LogLevel)
	if opts.DisableLog {
		log = logger.Nop()
	}

	reg := codec.Default()

	outName := opts.Format
	if outName == "" {
		outName = "png"
	}
	out, err := reg.Lookup(outName)
	if err != nil {
		return err
	}
	if out.Encode == nil {
		return fmt.Errorf("%w: %s", codec.ErrNoEncoder, out.Name)
	}

	if opts.OutputDir != "" {
		if err := os.MkdirAll(opts.OutputDir, 0o755); err != nil {
			return err
		}
	}

	var bar *pbar.ProgressBar
	if len(paths) > 1 && !opts.DisableLog {
		bar = pbar.New(len(paths))
	}

	var firstErr error
	for _, path := range paths {
		n, err := convertFile(reg, out, path, opts, log)
		if err != nil {
			log.Errorf("%s: %v", path, err)
			if firstErr == nil {
				firstErr = fmt.Errorf("%s: %w", path, err)
			}
		}
		if bar != nil {
			bar.FilesDone++
			bar.BytesWritten += n
			bar.Render(false)
		}
	}
	if bar != nil {
		bar.Finish()
	}
	return firstErr
}

func convertFile(reg *codec.Registry, out *codec.Codec, path string, opts Options, log *logger.Logger) (int64, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return 0, err
	}

	in, err := resolveInput(reg, path, data, opts)
	if err != nil {
		return 0, err
	}
	log.Debugf("%s: decoding as %s", path, in.Name)

	im, err := in.Decode(data, codec.DecodeOptions{Width: opts.Width, Height: opts.Height})
	if err != nil {
		return 0, err
	}

	buf, err := out.Encode(im)
	if err != nil {
		return 0, err
	}

	outPath := outputPath(path, opts.OutputDir, out.Name)
	if err := os.WriteFile(outPath, buf, 0o644); err != nil {
		return 0, err
	}
	log.Infof("%s -> %s (%dx%d)", path, outPath, im.Width, im.Height)
	return int64(len(buf)), nil
}

// Decode reads a single file and decodes it to a raw raster,
// detecting the format unless opts.InputFormat forces one.
func Decode(path string, opts Options) (*pixel.Image, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	reg := codec.Default()
	in, err := resolveInput(reg, path, data, opts)
	if err != nil {
		return nil, err
	}
	return in.Decode(data, codec.DecodeOptions{Width: opts.Width, Height: opts.Height})
}

func resolveInput(reg *codec.Registry, path string, data []byte, opts Options) (*codec.Codec, error) {
	if opts.InputFormat != "" {
		return reg.Lookup(opts.InputFormat)
	}
	if c, ok := reg.Detect(data); ok {
		return c, nil
	}
	// Headerless formats fall back to the file extension.
	if ext := filepath.Ext(path); ext != "" {
		return reg.Lookup(ext)
	}
	return nil, fmt.Errorf("%w: cannot detect format of %s", codec.ErrUnknownFormat, path)
}

func outputPath(inPath, outDir, format string) string {
	base := strings.TrimSuffix(filepath.Base(inPath), filepath.Ext(inPath))
	name := base + "." + format
	if outDir == "" {
		return filepath.Join(filepath.Dir(inPath), name)
	}
	return filepath.Join(outDir, name)
}

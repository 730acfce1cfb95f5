// Command vp8lpred runs the VP8L predictor and cross-color stage on an image
// and stores the residuals and mode maps in a RIFF dump.
//
// Usage:
//
//	vp8lpred enc [options] <input>       PNG/JPEG/GIF/WebP/BMP/TIFF/QOI → dump (use "-" for stdin)
//	vp8lpred dec [options] <input.vprd>  dump → PNG or QOI (use "-" for stdin, -o - for stdout)
//	vp8lpred info <input.vprd>           Display dump metadata and mode statistics
package main

import (
	"errors"
	"flag"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	"image/png"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/xfmoulet/qoi"
	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"

	"github.com/deepteams/vp8lpred"
)

// dumpExt is the extension given to dumps when -o is not set.
const dumpExt = ".vprd"

func main() {
	err := run(os.Args[1:], os.Stdin, os.Stdout, os.Stderr)
	switch {
	case err == nil, errors.Is(err, flag.ErrHelp):
	case errors.Is(err, errUsage):
		os.Exit(1)
	default:
		fmt.Fprintf(os.Stderr, "vp8lpred: %v\n", err)
		os.Exit(1)
	}
}

// errUsage is returned after the usage text has been printed.
var errUsage = errors.New("invalid usage")

func run(args []string, stdin io.Reader, stdout, stderr io.Writer) error {
	if len(args) < 1 {
		printUsage(stderr)
		return errUsage
	}

	c := &cli{stdin: stdin, stdout: stdout, stderr: stderr}
	switch args[0] {
	case "enc":
		return c.runEnc(args[1:])
	case "dec":
		return c.runDec(args[1:])
	case "info":
		return c.runInfo(args[1:])
	case "-h", "-help", "--help", "help":
		printUsage(stdout)
		return nil
	default:
		fmt.Fprintf(stderr, "vp8lpred: unknown command %q\n\n", args[0])
		printUsage(stderr)
		return errUsage
	}
}

func printUsage(w io.Writer) {
	fmt.Fprintf(w, `Usage:
  vp8lpred enc [options] <input>       Transform an image into a residual dump
  vp8lpred dec [options] <input.vprd>  Reconstruct the image held in a dump
  vp8lpred info <input.vprd>           Display dump metadata

Use "-" as input to read from stdin, "-o -" to write to stdout.

Run "vp8lpred <command> -h" for command-specific options.
`)
}

// cli carries the standard streams so that commands can run in tests.
type cli struct {
	stdin  io.Reader
	stdout io.Writer
	stderr io.Writer
}

// openInput returns an io.ReadCloser for the given path.
// If path is "-", stdin is returned.
func (c *cli) openInput(path string) (io.ReadCloser, error) {
	if path == "-" {
		return io.NopCloser(c.stdin), nil
	}
	return os.Open(path)
}

// writeOutput streams write to outputPath, or to stdout when it is "-". A
// partially written file is removed on error.
func (c *cli) writeOutput(outputPath string, write func(io.Writer) error) error {
	if outputPath == "-" {
		return write(c.stdout)
	}
	out, err := os.Create(outputPath)
	if err != nil {
		return err
	}
	if err := write(out); err != nil {
		out.Close()
		os.Remove(outputPath)
		return err
	}
	if err := out.Close(); err != nil {
		os.Remove(outputPath)
		return err
	}
	return nil
}

// defaultOutput derives an output path from inputPath by swapping its
// extension for ext.
func defaultOutput(inputPath, ext string) string {
	if inputPath == "-" {
		return "output" + ext
	}
	base := strings.TrimSuffix(filepath.Base(inputPath), filepath.Ext(inputPath))
	return base + ext
}

// --- enc ---

func (c *cli) runEnc(args []string) error {
	fs := flag.NewFlagSet("enc", flag.ContinueOnError)
	fs.SetOutput(c.stderr)
	quality := fs.Int("q", 75, "search effort 0-100")
	nearLossless := fs.Int("near_lossless", 100, "near-lossless quality 0-100 (100=off)")
	exact := fs.Bool("exact", false, "preserve RGB in transparent areas")
	noSubtractGreen := fs.Bool("no_subtract_green", false, "skip the subtract-green transform")
	noCrossColor := fs.Bool("no_cross_color", false, "skip the cross-color search")
	noOptimize := fs.Bool("no_optimize_sampling", false, "keep the requested tile sizes")
	predBits := fs.Int("pred_bits", 4, "predictor tile size exponent 1-9")
	ccBits := fs.Int("cc_bits", 5, "cross-color tile size exponent 1-9")
	lowEffort := fs.Bool("low_effort", false, "use one fixed predictor instead of searching")
	codecName := fs.String("codec", "zstd", "residual compression: zstd/zlib/store")
	output := fs.String("o", "", `output path (default: <input>`+dumpExt+`, "-" for stdout)`)
	verbose := fs.Bool("v", false, "print statistics")

	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() < 1 {
		return fmt.Errorf("enc: missing input file\nUsage: vp8lpred enc [options] <input>")
	}
	inputPath := fs.Arg(0)

	codec, err := vp8lpred.ParseCodec(*codecName)
	if err != nil {
		return fmt.Errorf("enc: %w", err)
	}
	opts := &vp8lpred.Options{
		Quality:             *quality,
		NearLosslessQuality: *nearLossless,
		Exact:               *exact,
		SubtractGreen:       !*noSubtractGreen,
		CrossColor:          !*noCrossColor,
		PredictorBits:       *predBits,
		CrossColorBits:      *ccBits,
		LowEffort:           *lowEffort,
		OptimizeSampling:    !*noOptimize,
	}

	in, err := c.openInput(inputPath)
	if err != nil {
		return err
	}
	img, format, err := image.Decode(in)
	in.Close()
	if err != nil {
		return fmt.Errorf("enc: decoding input: %w", err)
	}

	argb, width, height := vp8lpred.ImageToARGB(img)
	start := time.Now()
	res, err := vp8lpred.Transform(argb, width, height, opts)
	if err != nil {
		return fmt.Errorf("enc: %w", err)
	}
	elapsed := time.Since(start)

	outputPath := *output
	if outputPath == "" {
		outputPath = defaultOutput(inputPath, dumpExt)
	}
	cw := &countingWriter{}
	err = c.writeOutput(outputPath, func(w io.Writer) error {
		cw.w = w
		return vp8lpred.WriteDump(cw, res, codec)
	})
	if err != nil {
		return fmt.Errorf("enc: %w", err)
	}

	if outputPath != "-" {
		fmt.Fprintf(c.stderr, "Transformed %s (%s, %dx%d) → %s (%d bytes)\n",
			inputPath, format, width, height, outputPath, cw.n)
	}
	if *verbose {
		fmt.Fprintf(c.stderr, "Time:       %v\n", elapsed.Round(time.Microsecond))
		printStats(c.stderr, res)
	}
	return nil
}

// countingWriter counts the bytes written through it.
type countingWriter struct {
	w io.Writer
	n int64
}

func (cw *countingWriter) Write(p []byte) (int, error) {
	n, err := cw.w.Write(p)
	cw.n += int64(n)
	return n, err
}

// --- dec ---

func (c *cli) runDec(args []string) error {
	fs := flag.NewFlagSet("dec", flag.ContinueOnError)
	fs.SetOutput(c.stderr)
	output := fs.String("o", "", `output path (default: <input>.png, "-" for stdout)`)
	fmtFlag := fs.String("fmt", "", "output format: png, qoi (auto-detect from extension if omitted)")

	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() < 1 {
		return fmt.Errorf("dec: missing input file\nUsage: vp8lpred dec [options] <input.vprd>")
	}
	inputPath := fs.Arg(0)

	res, err := c.readDump(inputPath)
	if err != nil {
		return fmt.Errorf("dec: %w", err)
	}
	argb, err := vp8lpred.Reconstruct(res)
	if err != nil {
		return fmt.Errorf("dec: %w", err)
	}
	img, err := vp8lpred.ARGBToImage(argb, res.Width, res.Height)
	if err != nil {
		return fmt.Errorf("dec: %w", err)
	}

	outFmt, err := detectOutputFormat(*fmtFlag, *output)
	if err != nil {
		return fmt.Errorf("dec: %w", err)
	}
	outputPath := *output
	if outputPath == "" {
		outputPath = defaultOutput(inputPath, "."+outFmt)
	}
	err = c.writeOutput(outputPath, func(w io.Writer) error {
		return encodeImage(w, img, outFmt)
	})
	if err != nil {
		return fmt.Errorf("dec: %w", err)
	}
	if outputPath != "-" {
		fmt.Fprintf(c.stderr, "Reconstructed %s → %s\n", inputPath, outputPath)
	}
	return nil
}

func (c *cli) readDump(path string) (*vp8lpred.Result, error) {
	in, err := c.openInput(path)
	if err != nil {
		return nil, err
	}
	defer in.Close()
	return vp8lpred.ReadDump(in)
}

// detectOutputFormat returns "png" or "qoi" based on flag/extension.
func detectOutputFormat(fmtFlag, outputPath string) (string, error) {
	if fmtFlag != "" {
		switch f := strings.ToLower(fmtFlag); f {
		case "png", "qoi":
			return f, nil
		default:
			return "", fmt.Errorf("unknown output format %q (use png/qoi)", fmtFlag)
		}
	}
	if outputPath != "" && outputPath != "-" && strings.EqualFold(filepath.Ext(outputPath), ".qoi") {
		return "qoi", nil
	}
	return "png", nil
}

// encodeImage writes img in the specified format to w.
func encodeImage(w io.Writer, img image.Image, format string) error {
	switch format {
	case "qoi":
		return qoi.Encode(w, img)
	default:
		return png.Encode(w, img)
	}
}

// --- info ---

func (c *cli) runInfo(args []string) error {
	if len(args) < 1 {
		return fmt.Errorf("info: missing input file\nUsage: vp8lpred info <input.vprd>")
	}
	inputPath := args[0]

	res, err := c.readDump(inputPath)
	if err != nil {
		return fmt.Errorf("info: %w", err)
	}

	name := inputPath
	if inputPath == "-" {
		name = "<stdin>"
	}
	fmt.Fprintf(c.stdout, "File:       %s\n", name)
	printStats(c.stdout, res)
	if inputPath != "-" {
		if fi, err := os.Stat(inputPath); err == nil {
			fmt.Fprintf(c.stdout, "File size:  %d bytes\n", fi.Size())
		}
	}
	return nil
}

// printStats describes the transforms of res and how the predictor modes
// are used.
func printStats(w io.Writer, res *vp8lpred.Result) {
	fmt.Fprintf(w, "Dimensions: %d x %d\n", res.Width, res.Height)
	fmt.Fprintf(w, "Subtract green: %v\n", res.SubtractGreen)
	fmt.Fprintf(w, "Near-lossless:  %v\n", res.NearLossless)
	p := res.Predictor
	fmt.Fprintf(w, "Predictor:  %d bits, %d x %d tiles\n", p.Bits, p.TilesPerRow, p.TilesPerCol)
	if cc := res.CrossColor; cc != nil {
		fmt.Fprintf(w, "Cross-color: %d bits, %d x %d tiles\n", cc.Bits, cc.TilesPerRow, cc.TilesPerCol)
	} else {
		fmt.Fprintf(w, "Cross-color: none\n")
	}
	fmt.Fprintf(w, "Modes:     ")
	for mode, n := range p.Histogram() {
		if n > 0 {
			fmt.Fprintf(w, " %d:%d", mode, n)
		}
	}
	fmt.Fprintln(w)

	zeros := 0
	for _, r := range res.Residuals {
		if r == 0 {
			zeros++
		}
	}
	fmt.Fprintf(w, "Zero residuals: %d / %d (%.1f%%)\n", zeros, len(res.Residuals),
		100*float64(zeros)/float64(len(res.Residuals)))
}

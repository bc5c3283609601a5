// Command ninepatch builds a nine-patch chunk for an image and writes it as
// a PNG npTc chunk, a raw chunk file or a rendered preview.
//
//	ninepatch -in button.png -x pixels:30,30 -y centered:20 -out button.9.png
//	ninepatch -width 90 -height 60 -x fraction:0.25,0.5 -order little -chunk -
//	ninepatch -in button.png -x pixels:30,30 -render 300x80 -out preview.png
package main

import (
	"flag"
	"image/png"
	"io"
	"log"
	"os"
	"strconv"
	"strings"

	"github.com/pkg/errors"

	"github.com/earthring/ninepatch/internal/compression"
	"github.com/earthring/ninepatch/internal/config"
	"github.com/earthring/ninepatch/internal/imageio"
	"github.com/earthring/ninepatch/internal/ninepatch"
	"github.com/earthring/ninepatch/internal/pngchunk"
	"github.com/earthring/ninepatch/internal/render"
)

const maxInputBytes = 64 << 20

// bandList collects repeated band flags.
type bandList []ninepatch.BandSpec

func (l *bandList) String() string {
	parts := make([]string, len(*l))
	for i, b := range *l {
		parts[i] = b.String()
	}
	return strings.Join(parts, " ")
}

func (l *bandList) Set(s string) error {
	b, err := ninepatch.ParseBand(s)
	if err != nil {
		return err
	}
	*l = append(*l, b)
	return nil
}

type options struct {
	in            string
	width, height int
	xs, ys        bandList
	order         string
	strict        bool
	verbose       bool
	out           string
	chunk         string
	render        string
}

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

func run(args []string, stdout, stderr io.Writer) int {
	fs := flag.NewFlagSet("ninepatch", flag.ContinueOnError)
	fs.SetOutput(stderr)

	var opts options
	fs.StringVar(&opts.in, "in", "", "source image (png, jpeg, gif, bmp, tiff, webp, qoi)")
	fs.IntVar(&opts.width, "width", 0, "image width when no -in is given")
	fs.IntVar(&opts.height, "height", 0, "image height when no -in is given")
	fs.Var(&opts.xs, "x", "x band as kind:a[,b], repeatable (kinds: pixels, points, fraction, fraction_points, centered, centered_fraction)")
	fs.Var(&opts.ys, "y", "y band as kind:a[,b], repeatable")
	fs.StringVar(&opts.order, "order", "big", "chunk byte order: little, big or native")
	fs.BoolVar(&opts.strict, "strict", false, "reject bands that fail validation")
	fs.BoolVar(&opts.verbose, "v", false, "log band diagnostics")
	fs.StringVar(&opts.out, "out", "", "output PNG (chunk embedded as npTc, or the rendered image with -render)")
	fs.StringVar(&opts.chunk, "chunk", "", "write the raw chunk to this file, '-' for stdout; a .zst suffix compresses it")
	fs.StringVar(&opts.render, "render", "", "render the nine-patch at WxH instead of embedding the chunk")
	if err := fs.Parse(args); err != nil {
		return 2
	}

	logger := log.New(stderr, "ninepatch: ", 0)
	if err := execute(&opts, stdout, logger); err != nil {
		logger.Printf("%v", err)
		return 1
	}
	return 0
}

func execute(opts *options, stdout io.Writer, logger *log.Logger) error {
	order, err := ninepatch.ParseByteOrder(opts.order)
	if err != nil {
		return err
	}
	if opts.out == "" && opts.chunk == "" {
		return errors.New("nothing to do: give -out and/or -chunk")
	}

	builderOpts := []ninepatch.Option{ninepatch.WithStrict(opts.strict)}
	if opts.verbose {
		builderOpts = append(builderOpts, ninepatch.WithLogger(logger))
	}

	var b *ninepatch.Builder
	if opts.in != "" {
		img, mime, err := imageio.DecodeFile(opts.in, maxInputBytes, config.DefaultMaxInputDimension)
		if err != nil {
			return err
		}
		if opts.verbose {
			logger.Printf("%s: %s %dx%d", opts.in, mime, img.Bounds().Dx(), img.Bounds().Dy())
		}
		b, err = ninepatch.NewBuilderFromImage(img, builderOpts...)
		if err != nil {
			return err
		}
	} else {
		b, err = ninepatch.NewBuilder(opts.width, opts.height, builderOpts...)
		if err != nil {
			return errors.Wrap(err, "give -in or a positive -width and -height")
		}
	}

	if err := b.Apply(ninepatch.AxisX, opts.xs...); err != nil {
		return err
	}
	if err := b.Apply(ninepatch.AxisY, opts.ys...); err != nil {
		return err
	}

	// Build once; the -chunk file and the -out image share the same bytes.
	var np *ninepatch.NinePatch
	var chunk []byte
	if opts.out != "" {
		if np, err = b.BuildNinePatch(order); err != nil {
			if errors.Is(err, ninepatch.ErrNoImage) {
				return errors.Wrap(err, "-out needs -in")
			}
			return err
		}
		chunk = np.Chunk
	} else if chunk, err = b.BuildChunk(order); err != nil {
		return err
	}

	if opts.chunk != "" {
		if err := writeChunk(opts.chunk, chunk, stdout); err != nil {
			return err
		}
	}
	if np == nil {
		return nil
	}
	if opts.render != "" {
		width, height, err := parseSize(opts.render)
		if err != nil {
			return err
		}
		img, err := render.Scale(np, width, height)
		if err != nil {
			return err
		}
		return writeFile(opts.out, func(w io.Writer) error { return png.Encode(w, img) })
	}
	return writeFile(opts.out, func(w io.Writer) error { return pngchunk.Encode(w, np.Image, np.Chunk) })
}

func writeChunk(path string, chunk []byte, stdout io.Writer) error {
	data := chunk
	if strings.HasSuffix(path, ".zst") {
		var err error
		if data, err = compression.CompressChunk(chunk); err != nil {
			return err
		}
	}
	if path == "-" {
		_, err := stdout.Write(data)
		return err
	}
	return writeFile(path, func(w io.Writer) error {
		_, err := w.Write(data)
		return err
	})
}

func writeFile(path string, write func(io.Writer) error) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := write(f); err != nil {
		f.Close()
		return errors.Wrapf(err, "failed to write %s", path)
	}
	return f.Close()
}

// parseSize parses "WxH". Sizes above the server's render limit are
// rejected as well.
func parseSize(s string) (int, int, error) {
	ws, hs, ok := strings.Cut(strings.ToLower(s), "x")
	w, errW := strconv.Atoi(ws)
	h, errH := strconv.Atoi(hs)
	limit := config.DefaultMaxDimension
	if !ok || errW != nil || errH != nil || w <= 0 || h <= 0 || w > limit || h > limit {
		return 0, 0, errors.Errorf("invalid -render %q: want WxH with sides between 1 and %d", s, limit)
	}
	return w, h, nil
}

// Command tiffcodec inspects, decodes and encodes baseline TIFF files.
//
// Usage:
//
//	tiffcodec info FILE
//	tiffcodec decode [-o out.png] [-resize WxH] FILE
//	tiffcodec encode [-o out.tiff] [-compression none|packbits|lzw] [-predictor] [-rows N] FILE
package main

import (
	"flag"
	"fmt"
	"image"
	"image/png"
	"io"
	"log"
	"os"
	"path/filepath"
	"strings"

	"github.com/nfnt/resize"
	"golang.org/x/image/bmp"

	_ "golang.org/x/image/webp"

	"github.com/fumiama/tiff"
)

func usage() {
	fmt.Fprintf(os.Stderr, "Usage: %s <command> [options] <file>\n\n", filepath.Base(os.Args[0]))
	fmt.Fprintf(os.Stderr, "Commands:\n")
	fmt.Fprintf(os.Stderr, "  info    print the first IFD and the decoded pixel format\n")
	fmt.Fprintf(os.Stderr, "  decode  convert a TIFF file to PNG or BMP\n")
	fmt.Fprintf(os.Stderr, "  encode  convert a PNG, BMP, WebP or TIFF file to TIFF\n")
}

func main() {
	log.SetFlags(0)
	log.SetPrefix("tiffcodec: ")

	if len(os.Args) < 2 {
		usage()
		os.Exit(2)
	}

	var err error
	switch cmd, args := os.Args[1], os.Args[2:]; cmd {
	case "info":
		err = runInfo(os.Stdout, args)
	case "decode":
		err = runDecode(args)
	case "encode":
		err = runEncode(args)
	case "-h", "-help", "--help", "help":
		usage()
		return
	default:
		usage()
		os.Exit(2)
	}
	if err != nil {
		log.Fatal(err)
	}
}

// fileArg parses fs and returns its single positional argument.
func fileArg(fs *flag.FlagSet, args []string) (string, error) {
	if err := fs.Parse(args); err != nil {
		return "", err
	}
	if fs.NArg() != 1 {
		fs.Usage()
		return "", fmt.Errorf("%s: expected one input file", fs.Name())
	}
	return fs.Arg(0), nil
}

func runInfo(w io.Writer, args []string) error {
	fs := flag.NewFlagSet("info", flag.ExitOnError)
	path, err := fileArg(fs, args)
	if err != nil {
		return err
	}
	buf, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	return printInfo(w, buf)
}

func printInfo(w io.Writer, buf []byte) error {
	d, bo, err := tiff.ReadDirectory(buf)
	if err != nil {
		return err
	}
	fmt.Fprintf(w, "byte order: %v\n", bo)
	fmt.Fprintf(w, "entries:    %d\n", len(d.Entries))
	for i := range d.Entries {
		e := &d.Entries[i]
		fmt.Fprintf(w, "  %-26s %-9v %6d  %s\n", tiff.TagName(e.ID), e.Type, e.Count, entryValue(e))
	}
	if d.Next != 0 {
		fmt.Fprintf(w, "next IFD at %d (not decoded)\n", d.Next)
	}

	c, err := tiff.DecodeConfig(buf)
	if err != nil {
		return err
	}
	fmt.Fprintf(w, "image:      %dx%d, %d x %d-bit samples, %v, %v compression, %d rows per strip\n",
		c.Width, c.Height, c.SamplesPerPixel, c.BitsPerSample, c.Photometric, c.Compression, c.RowsPerStrip)
	return nil
}

// entryValue formats at most a few values of e.
func entryValue(e *tiff.TagEntry) string {
	const limit = 8
	switch e.Type {
	case tiff.ASCII:
		return fmt.Sprintf("%q", e.String())
	case tiff.Rational:
		var parts []string
		for _, r := range e.Rationals() {
			parts = append(parts, fmt.Sprintf("%d/%d", r[0], r[1]))
		}
		return strings.Join(parts, " ")
	}
	u := e.Uints()
	if u == nil {
		return fmt.Sprintf("(%d bytes)", len(e.Data))
	}
	s := fmt.Sprint(u[:min(len(u), limit)])
	if len(u) > limit {
		s += fmt.Sprintf(" ... (%d more)", len(u)-limit)
	}
	return s
}

func runDecode(args []string) error {
	fs := flag.NewFlagSet("decode", flag.ExitOnError)
	out := fs.String("o", "", "output file, .png or .bmp (default: input name with .png)")
	size := fs.String("resize", "", "scale the image to WxH; 0 for one side keeps the aspect ratio")
	path, err := fileArg(fs, args)
	if err != nil {
		return err
	}
	if *out == "" {
		*out = strings.TrimSuffix(path, filepath.Ext(path)) + ".png"
	}

	buf, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	raster, c, err := tiff.DecodeWithOptions(buf, nil)
	if err != nil {
		return err
	}
	m, err := tiff.ToImage(raster, c)
	if err != nil {
		return err
	}
	if *size != "" {
		var w, h uint
		if _, err := fmt.Sscanf(*size, "%dx%d", &w, &h); err != nil {
			return fmt.Errorf("bad -resize %q: %w", *size, err)
		}
		m = resize.Resize(w, h, m, resize.Lanczos3)
	}

	f, err := os.Create(*out)
	if err != nil {
		return err
	}
	switch strings.ToLower(filepath.Ext(*out)) {
	case ".bmp":
		err = bmp.Encode(f, m)
	default:
		err = png.Encode(f, m)
	}
	if cerr := f.Close(); err == nil {
		err = cerr
	}
	return err
}

func runEncode(args []string) error {
	fs := flag.NewFlagSet("encode", flag.ExitOnError)
	out := fs.String("o", "", "output file (default: input name with .tiff)")
	comp := fs.String("compression", "none", "strip compression: none, packbits or lzw")
	predictor := fs.Bool("predictor", false, "apply horizontal differencing")
	rows := fs.Uint("rows", 0, "rows per strip, 0 for a single strip")
	path, err := fileArg(fs, args)
	if err != nil {
		return err
	}
	if *out == "" {
		*out = strings.TrimSuffix(path, filepath.Ext(path)) + ".tiff"
	}
	c, ok := tiff.ParseCompression(*comp)
	if !ok {
		return fmt.Errorf("unknown compression %q", *comp)
	}

	f, err := os.Open(path)
	if err != nil {
		return err
	}
	m, format, err := image.Decode(f)
	f.Close()
	if err != nil {
		return fmt.Errorf("%s: %w", path, err)
	}
	log.Printf("read %s image %v", format, m.Bounds().Size())

	raster, opts := tiff.FromImage(m)
	opts.Compression = c
	opts.Predictor = *predictor
	opts.RowsPerStrip = uint32(*rows)
	buf, err := tiff.Encode(raster, opts)
	if err != nil {
		return err
	}
	return os.WriteFile(*out, buf, 0o644)
}

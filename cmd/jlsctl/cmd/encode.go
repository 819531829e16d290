package cmd

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"image/color"
	"image/draw"
	_ "image/png"
	"log/slog"
	"path/filepath"
	"strings"

	"github.com/jpfielding/jpegls.go/pkg/compress/jpegls"
	"github.com/jpfielding/jpegls.go/pkg/util"
	"github.com/spf13/cobra"
	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
)

// NewEncodeCmd encodes a raw sample buffer or a PNG, TIFF or BMP image.
func NewEncodeCmd(ctx context.Context) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "encode",
		Short: "encode raw samples or an image file to JPEG-LS",
		Long: "Encodes a raw buffer (1 byte per sample up to 8 bits, else 2 bytes little endian; " +
			"planar for --interleave none, pixel interleaved otherwise) or a .png, .tif or .bmp file to JPEG-LS.",
		RunE: func(cmd *cobra.Command, args []string) error {
			in := inputPath(cmd, args)
			out, _ := cmd.Flags().GetString("out")
			src, err := readInput(cmd, in)
			if err != nil {
				return err
			}
			opts, err := encodeOptions(cmd)
			if err != nil {
				return err
			}

			var encoded []byte
			if isImageFile(in) {
				img, format, err := image.Decode(bytes.NewReader(src))
				if err != nil {
					return fmt.Errorf("image decode %s: %w", in, err)
				}
				slog.DebugContext(ctx, "image input", slog.String("format", format))
				var buf bytes.Buffer
				if err := jpegls.Encode(&buf, supportedImage(img), opts); err != nil {
					return err
				}
				encoded = buf.Bytes()
			} else {
				fi := jpegls.FrameInfo{}
				fi.Width, _ = cmd.Flags().GetInt("width")
				fi.Height, _ = cmd.Flags().GetInt("height")
				fi.BitsPerSample, _ = cmd.Flags().GetInt("bits")
				fi.ComponentCount, _ = cmd.Flags().GetInt("components")
				if encoded, err = jpegls.EncodeBuffer(src, fi, opts); err != nil {
					return fmt.Errorf("encode %s: %w", in, err)
				}
			}

			slog.InfoContext(ctx, "encoded",
				slog.String("in", in),
				slog.Int("rawBytes", len(src)),
				slog.Int("bytes", len(encoded)),
				slog.String("md5", util.Md5ThenHex(encoded)))
			return writeOutput(cmd, out, encoded)
		},
	}

	pf := cmd.PersistentFlags()
	pf.StringP("in", "i", "", "raw or .png/.tif/.bmp input path, - for stdin")
	pf.StringP("out", "o", "", "JPEG-LS output path, stdout when empty")
	pf.Int("width", 0, "samples per line")
	pf.Int("height", 0, "lines")
	pf.Int("bits", 8, "bits per sample (2-16)")
	pf.Int("components", 1, "components per pixel")
	pf.Int("near", 0, "near lossless tolerance, 0 for lossless")
	pf.String("interleave", "none", "interleave mode (none|line|sample)")
	pf.Int("options", 0, "encoding option bits: 1 even size, 2 version comment, 4 JAI preset parameters")
	pf.String("stuffing", "bit", "0xFF escaping in scan data (bit|byte)")
	pf.Int("maxval", 0, "preset MAXVAL, 0 for default")
	pf.Int("t1", 0, "preset threshold T1, 0 for default")
	pf.Int("t2", 0, "preset threshold T2, 0 for default")
	pf.Int("t3", 0, "preset threshold T3, 0 for default")
	pf.Int("reset", 0, "preset RESET, 0 for default")
	return cmd
}

func encodeOptions(cmd *cobra.Command) (*jpegls.Options, error) {
	opts := &jpegls.Options{}
	opts.Near, _ = cmd.Flags().GetInt("near")
	options, _ := cmd.Flags().GetInt("options")
	opts.EncodingOptions = jpegls.EncodingOptions(options)

	ilv, _ := cmd.Flags().GetString("interleave")
	mode, err := jpegls.ParseInterleaveMode(ilv)
	if err != nil {
		return nil, err
	}
	opts.Interleave = mode

	stuffing, _ := cmd.Flags().GetString("stuffing")
	if opts.Stuffing, err = parseStuffing(stuffing); err != nil {
		return nil, err
	}

	opts.Preset.MaxVal, _ = cmd.Flags().GetInt("maxval")
	opts.Preset.T1, _ = cmd.Flags().GetInt("t1")
	opts.Preset.T2, _ = cmd.Flags().GetInt("t2")
	opts.Preset.T3, _ = cmd.Flags().GetInt("t3")
	opts.Preset.Reset, _ = cmd.Flags().GetInt("reset")
	return opts, nil
}

func parseStuffing(s string) (jpegls.StuffingMode, error) {
	switch s {
	case "bit", "":
		return jpegls.StuffBit, nil
	case "byte":
		return jpegls.StuffByte, nil
	}
	return 0, fmt.Errorf("unknown stuffing mode %q (bit|byte)", s)
}

func isImageFile(path string) bool {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".png", ".tif", ".tiff", ".bmp":
		return true
	}
	return false
}

// supportedImage converts img to a type jpegls.Encode accepts, keeping 16 bit depth.
func supportedImage(img image.Image) image.Image {
	if jpegls.IsSupportedImage(img) {
		return img
	}
	var dst draw.Image
	switch img.ColorModel() {
	case color.Gray16Model:
		dst = image.NewGray16(img.Bounds())
	case color.GrayModel:
		dst = image.NewGray(img.Bounds())
	case color.RGBA64Model, color.NRGBA64Model, color.Alpha16Model:
		dst = image.NewNRGBA64(img.Bounds())
	default:
		dst = image.NewNRGBA(img.Bounds())
	}
	draw.Draw(dst, dst.Bounds(), img, img.Bounds().Min, draw.Src)
	return dst
}

package cmd

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"image/png"
	"log/slog"

	"github.com/jpfielding/jpegls.go/pkg/compress/jpegls"
	"github.com/spf13/cobra"
	"golang.org/x/image/tiff"
)

// NewDecodeCmd decodes a JPEG-LS stream to raw samples, PNG or TIFF.
func NewDecodeCmd(ctx context.Context) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "decode",
		Short: "decode JPEG-LS to raw samples, PNG or TIFF",
		Long:  "Decodes a JPEG-LS stream. Raw output uses the layout encode expects for the stream's interleave mode.",
		RunE: func(cmd *cobra.Command, args []string) error {
			in := inputPath(cmd, args)
			out, _ := cmd.Flags().GetString("out")
			asPNG, _ := cmd.Flags().GetBool("png")
			asTIFF, _ := cmd.Flags().GetBool("tiff")
			stuffing, _ := cmd.Flags().GetString("stuffing")
			maxBytes, _ := cmd.Flags().GetInt("max-bytes")

			data, err := readInput(cmd, in)
			if err != nil {
				return err
			}
			mode, err := parseStuffing(stuffing)
			if err != nil {
				return err
			}

			d := jpegls.NewDecoder(data)
			d.SetStuffing(mode)
			d.SetMaxDecodedSize(maxBytes)
			var result []byte
			if asPNG || asTIFF {
				img, err := d.DecodeImage()
				if err != nil {
					return fmt.Errorf("decode %s: %w", in, err)
				}
				if result, err = encodeImage(img, asTIFF); err != nil {
					return err
				}
			} else if result, err = d.DecodeBuffer(); err != nil {
				return fmt.Errorf("decode %s: %w", in, err)
			}

			fi := d.FrameInfo()
			slog.InfoContext(ctx, "decoded",
				slog.String("in", in),
				slog.Int("width", fi.Width),
				slog.Int("height", fi.Height),
				slog.Int("bitsPerSample", fi.BitsPerSample),
				slog.Int("components", fi.ComponentCount),
				slog.Int("near", d.NearLossless()),
				slog.Bool("png", asPNG),
				slog.Bool("tiff", asTIFF))
			return writeOutput(cmd, out, result)
		},
	}
	pf := cmd.PersistentFlags()
	pf.StringP("in", "i", "", "JPEG-LS input path, - for stdin")
	pf.StringP("out", "o", "", "output path, stdout when empty")
	pf.Bool("png", false, "write PNG instead of raw samples")
	pf.Bool("tiff", false, "write uncompressed TIFF instead of raw samples")
	pf.String("stuffing", "bit", "0xFF escaping in scan data (bit|byte)")
	pf.Int("max-bytes", jpegls.DefaultMaxDecodedSize, "refuse frames decoding to more bytes, 0 for no limit")
	return cmd
}

func encodeImage(img image.Image, asTIFF bool) ([]byte, error) {
	var buf bytes.Buffer
	if asTIFF {
		if err := tiff.Encode(&buf, img, &tiff.Options{Compression: tiff.Uncompressed}); err != nil {
			return nil, fmt.Errorf("tiff encode: %w", err)
		}
		return buf.Bytes(), nil
	}
	if err := png.Encode(&buf, img); err != nil {
		return nil, fmt.Errorf("png encode: %w", err)
	}
	return buf.Bytes(), nil
}

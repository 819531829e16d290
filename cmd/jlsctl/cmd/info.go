package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"

	"github.com/jpfielding/jpegls.go/pkg/baseline"
	"github.com/jpfielding/jpegls.go/pkg/compress/jpegls"
	"github.com/jpfielding/jpegls.go/pkg/transfer"
	"github.com/jpfielding/jpegls.go/pkg/util"
	"github.com/spf13/cobra"
)

// StreamInfo is what info reports about one stream.
type StreamInfo struct {
	Frame              jpegls.FrameInfo
	Scans              []jpegls.ScanHeader
	Preset             *jpegls.PresetCodingParameters `json:",omitempty"`
	Comment            string                         `json:",omitempty"`
	TransferSyntax     transfer.Syntax
	TransferSyntaxName string
	Bytes              int
	MD5                string
	UUID               string
	Baseline           *baseline.Report `json:",omitempty"`
}

// NewInfoCmd reports headers, identifiers and optional zstd and PackBits comparisons.
func NewInfoCmd(ctx context.Context) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "info",
		Short: "describe a JPEG-LS stream",
		Long:  "Decodes a stream and prints frame and scan headers, DICOM transfer syntax, md5 and a stable stream UUID. --baseline adds zstd and PackBits comparisons.",
		RunE: func(cmd *cobra.Command, args []string) error {
			in := inputPath(cmd, args)
			withBaseline, _ := cmd.Flags().GetBool("baseline")
			format, _ := cmd.Flags().GetString("format")

			data, err := readInput(cmd, in)
			if err != nil {
				return err
			}
			info, err := describe(data, withBaseline)
			if err != nil {
				return fmt.Errorf("info %s: %w", in, err)
			}
			slog.DebugContext(ctx, "described stream", slog.String("in", in), slog.String("uuid", info.UUID))

			switch format {
			case "text":
				return printInfo(cmd.OutOrStdout(), info)
			default:
				enc := json.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent("", "  ")
				return enc.Encode(info)
			}
		},
	}
	pf := cmd.PersistentFlags()
	pf.StringP("in", "i", "", "JPEG-LS input path, - for stdin")
	pf.Bool("baseline", false, "compare against zstd and PackBits over the decoded samples")
	pf.StringP("format", "f", "json", "output format (text|json)")
	return cmd
}

func describe(data []byte, withBaseline bool) (*StreamInfo, error) {
	// a full decode lists every scan and validates the entropy coded data
	d := jpegls.NewDecoder(data)
	raw, err := d.DecodeBuffer()
	if err != nil {
		return nil, err
	}

	syntax := transfer.ForNear(d.NearLossless())
	info := &StreamInfo{
		Frame:              d.FrameInfo(),
		Scans:              d.Scans(),
		Comment:            d.Comment(),
		TransferSyntax:     syntax,
		TransferSyntaxName: syntax.Name(),
		Bytes:              len(data),
		MD5:                util.Md5ThenHex(data),
		UUID:               util.StreamUUID(data),
	}
	if p := d.PresetCodingParameters(); p != (jpegls.PresetCodingParameters{}) {
		info.Preset = &p
	}
	if withBaseline {
		report, err := baseline.Compare(raw, (info.Frame.BitsPerSample+7)/8, data)
		if err != nil {
			return nil, err
		}
		info.Baseline = &report
	}
	return info, nil
}

func printInfo(w io.Writer, info *StreamInfo) error {
	fi := info.Frame
	fmt.Fprintf(w, "frame:    %dx%d, %d bits, %d components\n", fi.Width, fi.Height, fi.BitsPerSample, fi.ComponentCount)
	for i, sh := range info.Scans {
		fmt.Fprintf(w, "scan %d:   components %v, near %d, interleave %s\n", i, sh.ComponentIDs, sh.Near, sh.ILV)
	}
	if info.Preset != nil {
		p := info.Preset
		fmt.Fprintf(w, "preset:   MAXVAL %d, T1 %d, T2 %d, T3 %d, RESET %d\n", p.MaxVal, p.T1, p.T2, p.T3, p.Reset)
	}
	if info.Comment != "" {
		fmt.Fprintf(w, "comment:  %q\n", info.Comment)
	}
	fmt.Fprintf(w, "syntax:   %s (%s)\n", info.TransferSyntax, info.TransferSyntaxName)
	fmt.Fprintf(w, "bytes:    %d\n", info.Bytes)
	fmt.Fprintf(w, "md5:      %s\n", info.MD5)
	fmt.Fprintf(w, "uuid:     %s\n", info.UUID)
	if info.Baseline != nil {
		fmt.Fprintf(w, "baseline: %s\n", info.Baseline)
	}
	return nil
}

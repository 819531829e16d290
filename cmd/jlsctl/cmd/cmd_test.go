package cmd

import (
	"bytes"
	"context"
	"encoding/json"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/image/tiff"

	"github.com/jpfielding/jpegls.go/pkg/compress/jpegls"
	"github.com/jpfielding/jpegls.go/pkg/transfer"
)

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	root := NewRoot(context.Background(), "test")
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&bytes.Buffer{})
	if args == nil {
		args = []string{} // nil would fall back to os.Args
	}
	root.SetArgs(args)
	err := root.Execute()
	return out.String(), err
}

func TestEncodeDecodeRaw(t *testing.T) {
	dir := t.TempDir()
	raw := make([]byte, 40*30*3)
	for i := range raw {
		raw[i] = byte(i * 7 / 5)
	}
	rawPath := filepath.Join(dir, "in.raw")
	jlsPath := filepath.Join(dir, "out.jls")
	backPath := filepath.Join(dir, "back.raw")
	require.NoError(t, os.WriteFile(rawPath, raw, 0o644))

	_, err := run(t, "encode", "--in", rawPath, "--out", jlsPath,
		"--width", "40", "--height", "30", "--components", "3", "--interleave", "sample", "--options", "2")
	require.NoError(t, err, "encode failed")

	_, err = run(t, "decode", "--in", jlsPath, "--out", backPath)
	require.NoError(t, err, "decode failed")
	back, err := os.ReadFile(backPath)
	require.NoError(t, err)
	assert.Equal(t, raw, back)

	_, err = run(t, "decode", "--in", jlsPath, "--out", backPath, "--max-bytes", "1000")
	assert.ErrorIs(t, err, jpegls.ErrInvalidData)

	out, err := run(t, "info", "--in", jlsPath, "--baseline")
	require.NoError(t, err)
	var info StreamInfo
	require.NoError(t, json.Unmarshal([]byte(out), &info))
	assert.Equal(t, jpegls.FrameInfo{Width: 40, Height: 30, BitsPerSample: 8, ComponentCount: 3}, info.Frame)
	assert.Equal(t, transfer.JPEGLSLossless, info.TransferSyntax)
	assert.Contains(t, info.Comment, jpegls.Version())
	require.NotNil(t, info.Baseline)
	assert.Equal(t, len(raw), info.Baseline.RawBytes)
	assert.Positive(t, info.Baseline.PackBitsBytes)
	require.Len(t, info.Scans, 1)
	assert.Equal(t, jpegls.InterleaveSample, info.Scans[0].ILV)

	again, err := run(t, "info", "--in", jlsPath)
	require.NoError(t, err)
	var info2 StreamInfo
	require.NoError(t, json.Unmarshal([]byte(again), &info2))
	assert.Equal(t, info.UUID, info2.UUID)
	assert.Nil(t, info2.Baseline)
}

func TestEncodePNG(t *testing.T) {
	dir := t.TempDir()
	img := image.NewGray(image.Rect(0, 0, 20, 10))
	for i := range img.Pix {
		img.Pix[i] = byte(i)
	}
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	pngPath := filepath.Join(dir, "in.png")
	jlsPath := filepath.Join(dir, "out.jls")
	backPath := filepath.Join(dir, "back.png")
	require.NoError(t, os.WriteFile(pngPath, buf.Bytes(), 0o644))

	_, err := run(t, "encode", pngPath, "--out", jlsPath, "--near", "2")
	require.NoError(t, err)

	out, err := run(t, "info", jlsPath, "--format", "text")
	require.NoError(t, err)
	assert.Contains(t, out, "frame:    20x10, 8 bits, 1 components")
	assert.Contains(t, out, string(transfer.JPEGLSNearLossless))

	_, err = run(t, "decode", jlsPath, "--out", backPath, "--png")
	require.NoError(t, err)
	f, err := os.Open(backPath)
	require.NoError(t, err)
	defer f.Close()
	decoded, err := png.Decode(f)
	require.NoError(t, err)
	for y := range 10 {
		for x := range 20 {
			want := int(img.GrayAt(x, y).Y)
			got := int(color.GrayModel.Convert(decoded.At(x, y)).(color.Gray).Y)
			assert.InDelta(t, want, got, 2, "pixel %d,%d", x, y)
		}
	}
}

func TestEncodeTIFF16(t *testing.T) {
	dir := t.TempDir()
	img := image.NewGray16(image.Rect(0, 0, 16, 8))
	for y := range 8 {
		for x := range 16 {
			img.SetGray16(x, y, color.Gray16{Y: uint16(x*4000 + y*17)})
		}
	}
	var buf bytes.Buffer
	require.NoError(t, tiff.Encode(&buf, img, nil))
	tifPath := filepath.Join(dir, "in.tif")
	jlsPath := filepath.Join(dir, "out.jls")
	backPath := filepath.Join(dir, "back.tif")
	require.NoError(t, os.WriteFile(tifPath, buf.Bytes(), 0o644))

	_, err := run(t, "encode", tifPath, "--out", jlsPath)
	require.NoError(t, err)
	_, err = run(t, "decode", jlsPath, "--out", backPath, "--tiff")
	require.NoError(t, err)

	f, err := os.Open(backPath)
	require.NoError(t, err)
	defer f.Close()
	decoded, err := tiff.Decode(f)
	require.NoError(t, err)
	gray, ok := decoded.(*image.Gray16)
	require.True(t, ok, "decoded %T", decoded)
	assert.Equal(t, img.Pix, gray.Pix)
}

func TestEncodePNG16RGB(t *testing.T) {
	dir := t.TempDir()
	img := image.NewRGBA64(image.Rect(0, 0, 12, 7))
	for y := range 7 {
		for x := range 12 {
			img.SetRGBA64(x, y, color.RGBA64{R: uint16(x*5000 + 1), G: uint16(y * 9001), B: 0x0102, A: 0xFFFF})
		}
	}
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	pngPath := filepath.Join(dir, "in16.png")
	jlsPath := filepath.Join(dir, "out.jls")
	backPath := filepath.Join(dir, "back16.png")
	require.NoError(t, os.WriteFile(pngPath, buf.Bytes(), 0o644))

	_, err := run(t, "encode", pngPath, "--out", jlsPath, "--interleave", "sample")
	require.NoError(t, err)
	out, err := run(t, "info", jlsPath, "--format", "text")
	require.NoError(t, err)
	assert.Contains(t, out, "frame:    12x7, 16 bits, 3 components")

	_, err = run(t, "decode", jlsPath, "--out", backPath, "--png")
	require.NoError(t, err)
	f, err := os.Open(backPath)
	require.NoError(t, err)
	defer f.Close()
	decoded, err := png.Decode(f)
	require.NoError(t, err)
	for y := range 7 {
		for x := range 12 {
			assert.Equal(t, color.RGBA64Model.Convert(img.At(x, y)), color.RGBA64Model.Convert(decoded.At(x, y)), "pixel %d,%d", x, y)
		}
	}
}

func TestSupportedImage(t *testing.T) {
	rect := image.Rect(0, 0, 4, 3)
	gray16 := image.NewGray16(rect)
	assert.Same(t, gray16, supportedImage(gray16))

	alpha16 := image.NewAlpha16(rect)
	alpha16.SetAlpha16(1, 1, color.Alpha16{A: 0x1234})
	wide, ok := supportedImage(alpha16).(*image.NRGBA64)
	require.True(t, ok, "16 bit sources keep 16 bits")
	assert.Equal(t, uint16(0x1234), wide.NRGBA64At(1, 1).A)

	pal := image.NewPaletted(rect, color.Palette{color.Black, color.White})
	pal.SetColorIndex(2, 2, 1)
	narrow, ok := supportedImage(pal).(*image.NRGBA)
	require.True(t, ok)
	assert.Equal(t, color.NRGBA{R: 255, G: 255, B: 255, A: 255}, narrow.NRGBAAt(2, 2))
}

func TestEncodeErrors(t *testing.T) {
	dir := t.TempDir()
	rawPath := filepath.Join(dir, "in.raw")
	require.NoError(t, os.WriteFile(rawPath, make([]byte, 10), 0o644))

	_, err := run(t, "encode", "--in", rawPath, "--width", "4", "--height", "4")
	assert.ErrorIs(t, err, jpegls.ErrBufferTooSmall)

	_, err = run(t, "encode", "--in", rawPath, "--width", "2", "--height", "2", "--interleave", "diagonal")
	assert.ErrorIs(t, err, jpegls.ErrInvalidParameter)

	_, err = run(t, "encode", "--in", rawPath, "--width", "2", "--height", "2", "--stuffing", "nibble")
	assert.Error(t, err)

	_, err = run(t, "encode")
	assert.Error(t, err)
}

func TestVersionAndLogFile(t *testing.T) {
	logPath := filepath.Join(t.TempDir(), "jlsctl.log")
	out, err := run(t, "version", "--log-file", logPath, "--log-level", "debug")
	require.NoError(t, err)
	assert.Contains(t, out, "test jpegls/"+jpegls.Version())

	out, err = run(t)
	require.NoError(t, err)
	assert.Contains(t, out, "encode:")
}

// Package baseline compares JPEG-LS output against general purpose (zstd) and
// DICOM RLE style (PackBits) compression of the same raw samples.
package baseline

import (
	"bytes"
	"fmt"
	"sync"

	"github.com/klauspost/compress/zstd"
)

// Pools start empty; a construction error surfaces from Zstd or Unzstd
// instead of leaving a nil coder in the pool.
var (
	encPool sync.Pool
	decPool sync.Pool
)

func newEncoder(opts ...zstd.EOption) (*zstd.Encoder, error) {
	opts = append([]zstd.EOption{zstd.WithEncoderLevel(zstd.SpeedBetterCompression)}, opts...)
	enc, err := zstd.NewWriter(nil, opts...)
	if err != nil {
		return nil, fmt.Errorf("zstd encoder: %w", err)
	}
	return enc, nil
}

func getEncoder() (*zstd.Encoder, error) {
	if enc, ok := encPool.Get().(*zstd.Encoder); ok {
		return enc, nil
	}
	return newEncoder()
}

func getDecoder() (*zstd.Decoder, error) {
	if dec, ok := decPool.Get().(*zstd.Decoder); ok {
		return dec, nil
	}
	dec, err := zstd.NewReader(nil)
	if err != nil {
		return nil, fmt.Errorf("zstd decoder: %w", err)
	}
	return dec, nil
}

// Zstd compresses raw into a single zstd frame.
func Zstd(raw []byte) ([]byte, error) {
	enc, err := getEncoder()
	if err != nil {
		return nil, err
	}
	defer encPool.Put(enc)
	var buf bytes.Buffer
	enc.Reset(&buf)

	if _, err := enc.Write(raw); err != nil {
		_ = enc.Close()
		return nil, err
	}
	if err := enc.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// Unzstd reverses Zstd.
func Unzstd(data []byte) ([]byte, error) {
	dec, err := getDecoder()
	if err != nil {
		return nil, err
	}
	defer decPool.Put(dec)
	if err := dec.Reset(bytes.NewReader(data)); err != nil {
		return nil, err
	}
	var out bytes.Buffer
	if _, err := out.ReadFrom(dec); err != nil {
		return nil, err
	}
	return out.Bytes(), nil
}

// Report holds the sizes of one image in raw, zstd, PackBits and JPEG-LS form.
type Report struct {
	RawBytes      int
	ZstdBytes     int
	PackBitsBytes int
	JPEGLSBytes   int
}

// ZstdRatio is raw size over zstd size.
func (r Report) ZstdRatio() float64 {
	return ratio(r.RawBytes, r.ZstdBytes)
}

// JPEGLSRatio is raw size over JPEG-LS size.
func (r Report) JPEGLSRatio() float64 {
	return ratio(r.RawBytes, r.JPEGLSBytes)
}

// Gain is how many times smaller the JPEG-LS stream is than the zstd frame.
func (r Report) Gain() float64 {
	return ratio(r.ZstdBytes, r.JPEGLSBytes)
}

// PackBitsRatio is raw size over the DICOM RLE style PackBits size.
func (r Report) PackBitsRatio() float64 {
	return ratio(r.RawBytes, r.PackBitsBytes)
}

func (r Report) String() string {
	return fmt.Sprintf("raw=%d zstd=%d (%.2fx) packbits=%d (%.2fx) jpegls=%d (%.2fx)",
		r.RawBytes, r.ZstdBytes, r.ZstdRatio(), r.PackBitsBytes, r.PackBitsRatio(), r.JPEGLSBytes, r.JPEGLSRatio())
}

func ratio(a, b int) float64 {
	if b == 0 {
		return 0
	}
	return float64(a) / float64(b)
}

// Compare compresses raw with zstd and PackBits and reports both next to the size of encoded.
func Compare(raw []byte, bytesPerSample int, encoded []byte) (Report, error) {
	z, err := Zstd(raw)
	if err != nil {
		return Report{}, fmt.Errorf("zstd baseline: %w", err)
	}
	return Report{
		RawBytes:      len(raw),
		ZstdBytes:     len(z),
		PackBitsBytes: PackBitsSize(raw, bytesPerSample),
		JPEGLSBytes:   len(encoded),
	}, nil
}

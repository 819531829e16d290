package baseline

import (
	"testing"

	"github.com/klauspost/compress/zstd"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestZstdRoundTrip(t *testing.T) {
	raw := make([]byte, 64*1024)
	for i := range raw {
		raw[i] = byte(i / 64)
	}
	z, err := Zstd(raw)
	require.NoError(t, err)
	assert.Less(t, len(z), len(raw)/10)

	back, err := Unzstd(z)
	require.NoError(t, err)
	assert.Equal(t, raw, back)

	// pooled encoders are reusable
	z2, err := Zstd(raw)
	require.NoError(t, err)
	assert.Equal(t, z, z2)
}

func TestNewEncoderError(t *testing.T) {
	enc, err := newEncoder(zstd.WithEncoderConcurrency(0))
	assert.Error(t, err)
	assert.Nil(t, enc)

	enc, err = getEncoder()
	require.NoError(t, err)
	require.NotNil(t, enc)
	encPool.Put(enc)
	dec, err := getDecoder()
	require.NoError(t, err)
	require.NotNil(t, dec)
	decPool.Put(dec)
}

func TestUnzstdGarbage(t *testing.T) {
	_, err := Unzstd([]byte("not a zstd frame"))
	assert.Error(t, err)
}

func TestCompare(t *testing.T) {
	raw := make([]byte, 4096)
	r, err := Compare(raw, 1, make([]byte, 64))
	require.NoError(t, err)
	assert.Equal(t, 4096, r.RawBytes)
	assert.Equal(t, 64, r.JPEGLSBytes)
	assert.Greater(t, r.ZstdBytes, 0)
	assert.Equal(t, 64, r.PackBitsBytes) // 32 runs of 128 zeros
	assert.InDelta(t, 64.0, r.JPEGLSRatio(), 1e-9)
	assert.Contains(t, r.String(), "jpegls=64")

	assert.Zero(t, Report{}.Gain())
}

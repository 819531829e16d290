package jpegls

import (
	"bytes"
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func grayFrame(w, h int) (FrameInfo, []byte) {
	src := make([]byte, w*h)
	for i := range src {
		src[i] = byte(i * 13)
	}
	return FrameInfo{Width: w, Height: h, BitsPerSample: 8, ComponentCount: 1}, src
}

func TestEncoder_StateMachine(t *testing.T) {
	fi, src := grayFrame(16, 16)
	e := NewEncoder()

	_, err := e.Encode(src)
	assert.ErrorIs(t, err, ErrInvalidState, "no frame info")
	assert.Equal(t, CodeInvalidOperation, CodeOf(err))
	assert.Equal(t, stateFailed, e.state)
	_, err = e.Encode(src)
	assert.ErrorIs(t, err, ErrInvalidState, "failed until configured")

	require.NoError(t, e.SetFrameInfo(fi))
	assert.Equal(t, stateConfiguring, e.state)
	first, err := e.Encode(src)
	require.NoError(t, err)
	assert.Equal(t, stateDone, e.state)
	assert.Equal(t, first, e.EncodedBuffer())
	assert.Equal(t, len(first), e.BytesWritten())

	_, err = e.Encode(src)
	assert.ErrorIs(t, err, ErrInvalidState, "encode twice")
	assert.Equal(t, first, e.EncodedBuffer(), "rejected call keeps the last output")

	require.NoError(t, e.Rewind())
	assert.Equal(t, stateConfiguring, e.state)
	assert.Zero(t, e.BytesWritten())
	second, err := e.Encode(src)
	require.NoError(t, err)
	assert.Equal(t, first, second)

	// a setter also re-arms the encoder
	require.NoError(t, e.SetNearLossless(2))
	third, err := e.Encode(src)
	require.NoError(t, err)
	assert.NotEqual(t, first, third)
}

func TestEncoder_BufferTooSmall(t *testing.T) {
	fi, src := grayFrame(16, 16)
	e := NewEncoder()
	require.NoError(t, e.SetFrameInfo(fi))

	out, err := e.Encode(src[:len(src)-1])
	assert.ErrorIs(t, err, ErrBufferTooSmall)
	assert.Equal(t, CodeSourceBufferTooSmall, CodeOf(err))
	assert.Nil(t, out)
	assert.Nil(t, e.EncodedBuffer())
	assert.Zero(t, e.BytesWritten())
	assert.Equal(t, stateFailed, e.state)

	_, err = e.Encode(src)
	assert.ErrorIs(t, err, ErrInvalidState, "failed encoder needs a setter or rewind")

	require.NoError(t, e.Rewind())
	_, err = e.Encode(src)
	assert.NoError(t, err)
}

func TestEncoder_Validation(t *testing.T) {
	tests := []struct {
		name string
		run  func(e *Encoder) error
		kind error
		code ErrorCode
	}{
		{"zero width", func(e *Encoder) error { return e.SetFrameInfo(FrameInfo{0, 1, 8, 1}) }, ErrInvalidFrameInfo, CodeInvalidArgumentWidth},
		{"huge height", func(e *Encoder) error { return e.SetFrameInfo(FrameInfo{1, 70000, 8, 1}) }, ErrInvalidFrameInfo, CodeInvalidArgumentHeight},
		{"1 bit", func(e *Encoder) error { return e.SetFrameInfo(FrameInfo{1, 1, 1, 1}) }, ErrInvalidFrameInfo, CodeInvalidArgumentBitsPerSample},
		{"17 bits", func(e *Encoder) error { return e.SetFrameInfo(FrameInfo{1, 1, 17, 1}) }, ErrInvalidFrameInfo, CodeInvalidArgumentBitsPerSample},
		{"no components", func(e *Encoder) error { return e.SetFrameInfo(FrameInfo{1, 1, 8, 0}) }, ErrInvalidFrameInfo, CodeInvalidArgumentComponentCount},
		{"negative near", func(e *Encoder) error { return e.SetNearLossless(-1) }, ErrInvalidParameter, CodeInvalidArgumentNearLossless},
		{"near 256", func(e *Encoder) error { return e.SetNearLossless(256) }, ErrInvalidParameter, CodeInvalidArgumentNearLossless},
		{"interleave 3", func(e *Encoder) error { return e.SetInterleaveMode(3) }, ErrInvalidParameter, CodeInvalidArgumentInterleaveMode},
		{"options", func(e *Encoder) error { return e.SetEncodingOptions(16) }, ErrInvalidParameter, CodeInvalidArgumentOptions},
		{"stuffing none", func(e *Encoder) error { return e.SetStuffing(StuffNone) }, ErrInvalidParameter, CodeInvalidArgument},
		{"negative preset", func(e *Encoder) error { return e.SetPresetCodingParameters(PresetCodingParameters{T1: -1}) }, ErrInvalidParameter, CodeInvalidArgumentPCParameters},
		{"near above maxval/2", func(e *Encoder) error {
			require.NoError(t, e.SetFrameInfo(FrameInfo{4, 4, 4, 1}))
			require.NoError(t, e.SetNearLossless(8))
			_, err := e.Encode(make([]byte, 16))
			return err
		}, ErrInvalidParameter, CodeInvalidArgumentNearLossless},
		{"sample interleave of 5", func(e *Encoder) error {
			require.NoError(t, e.SetFrameInfo(FrameInfo{4, 4, 8, 5}))
			require.NoError(t, e.SetInterleaveMode(InterleaveSample))
			_, err := e.Encode(make([]byte, 80))
			return err
		}, ErrInvalidParameter, CodeInvalidArgumentInterleaveMode},
		{"sample above maxval", func(e *Encoder) error {
			require.NoError(t, e.SetFrameInfo(FrameInfo{2, 2, 4, 1}))
			_, err := e.Encode([]byte{1, 2, 16, 3})
			return err
		}, ErrInvalidParameter, CodeInvalidArgument},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.run(NewEncoder())
			require.Error(t, err)
			assert.ErrorIs(t, err, tt.kind)
			assert.Equal(t, tt.code, CodeOf(err))
		})
	}
}

func TestEncoder_SingleComponentIgnoresInterleave(t *testing.T) {
	fi, src := grayFrame(9, 9)
	none, err := EncodeBuffer(src, fi, nil)
	require.NoError(t, err)
	line, err := EncodeBuffer(src, fi, &Options{Interleave: InterleaveLine})
	require.NoError(t, err)
	assert.Equal(t, none, line)
}

func TestEncoder_EstimatedDestinationSize(t *testing.T) {
	e := NewEncoder()
	_, err := e.EstimatedDestinationSize()
	assert.ErrorIs(t, err, ErrInvalidState)

	fi := FrameInfo{Width: 100, Height: 50, BitsPerSample: 12, ComponentCount: 3}
	require.NoError(t, e.SetFrameInfo(fi))
	size, err := e.EstimatedDestinationSize()
	require.NoError(t, err)
	assert.Equal(t, 100*50*3*2+1024, size)

	// noise is the worst case and still fits
	src := make([]byte, 100*50*3*2)
	for i := range src {
		src[i] = byte(i * 2654435761 >> 7)
		if i%2 == 1 {
			src[i] &= 0x0F
		}
	}
	out, err := e.Encode(src)
	require.NoError(t, err)
	assert.LessOrEqual(t, len(out), size)
}

func TestEncoder_EncodeTo(t *testing.T) {
	fi, src := grayFrame(10, 10)
	e := NewEncoder()
	require.NoError(t, e.SetFrameInfo(fi))
	var buf bytes.Buffer
	n, err := e.EncodeTo(&buf, src)
	require.NoError(t, err)
	assert.Equal(t, buf.Len(), n)
	assert.Equal(t, buf.Bytes(), e.EncodedBuffer())
}

func TestEncoder_IndependentInstances(t *testing.T) {
	fi, src := grayFrame(64, 64)
	want, err := EncodeBuffer(src, fi, nil)
	require.NoError(t, err)

	var wg sync.WaitGroup
	results := make([][]byte, 8)
	for i := range results {
		wg.Add(1)
		go func() {
			defer wg.Done()
			results[i], _ = EncodeBuffer(src, fi, nil)
		}()
	}
	wg.Wait()
	for _, r := range results {
		assert.Equal(t, want, r)
	}
}

func TestEncoder_BusyRejectsSetters(t *testing.T) {
	e := NewEncoder()
	e.state = stateEncoding
	assert.ErrorIs(t, e.SetNearLossless(1), ErrInvalidState)
	assert.ErrorIs(t, e.Rewind(), ErrInvalidState)
	_, err := e.Encode(nil)
	assert.ErrorIs(t, err, ErrInvalidState)
}

func TestParseInterleaveMode(t *testing.T) {
	for in, want := range map[string]InterleaveMode{"": InterleaveNone, "none": InterleaveNone, "1": InterleaveLine, "line": InterleaveLine, "sample": InterleaveSample, "2": InterleaveSample} {
		got, err := ParseInterleaveMode(in)
		require.NoError(t, err)
		assert.Equal(t, want, got)
		assert.NotEqual(t, "invalid", got.String())
	}
	_, err := ParseInterleaveMode("pixel")
	assert.Equal(t, CodeInvalidArgumentInterleaveMode, CodeOf(err))
}

func TestError(t *testing.T) {
	err := newError(CodeInvalidArgumentWidth, ErrInvalidFrameInfo, "width %d", 0)
	assert.EqualError(t, err, "jpegls: invalid frame info: width 0 (code 100)")
	assert.Equal(t, CodeSuccess, CodeOf(nil))
}

func TestVersion(t *testing.T) {
	assert.Equal(t, "1.2.0", Version())
	assert.Equal(t, fmt.Sprintf("%d.%d.%d", VersionMajor, VersionMinor, VersionPatch), Version())
}

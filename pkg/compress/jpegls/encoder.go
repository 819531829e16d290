package jpegls

import (
	"fmt"
	"image"
	"io"
	"log/slog"
	"sync"
)

type encoderState int

const (
	stateConfiguring encoderState = iota
	stateEncoding
	stateDone
	stateFailed
)

func (s encoderState) String() string {
	switch s {
	case stateConfiguring:
		return "configuring"
	case stateEncoding:
		return "encoding"
	case stateDone:
		return "done"
	case stateFailed:
		return "failed"
	}
	return "invalid"
}

// encoderConfig is the snapshot of settings used by one Encode call.
type encoderConfig struct {
	frame    FrameInfo
	near     int
	ilv      InterleaveMode
	options  EncodingOptions
	preset   PresetCodingParameters
	stuffing StuffingMode
}

// Encoder encodes raw sample buffers to JPEG-LS streams.
//
// An Encoder is configured with the setters, then Encode runs once. Any setter
// or Rewind makes the encoder ready for the next Encode. An Encoder must not be
// shared between goroutines; concurrent use is detected and rejected with
// ErrInvalidState.
type Encoder struct {
	mu       sync.Mutex
	state    encoderState
	cfg      encoderConfig
	frameSet bool
	encoded  []byte
	stats    ScanStats
}

// NewEncoder returns an encoder for lossless, non interleaved, bit stuffed output.
func NewEncoder() *Encoder {
	return &Encoder{}
}

// configure applies fn under the lock and returns the encoder to the configuring state.
func (e *Encoder) configure(fn func(*encoderConfig) error) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.state == stateEncoding {
		return newError(CodeInvalidOperation, ErrInvalidState, "encoder is busy")
	}
	if err := fn(&e.cfg); err != nil {
		return err
	}
	e.state = stateConfiguring
	return nil
}

// SetFrameInfo sets the image geometry and sample precision.
func (e *Encoder) SetFrameInfo(fi FrameInfo) error {
	if err := validateFrameInfo(fi); err != nil {
		return err
	}
	return e.configure(func(c *encoderConfig) error {
		c.frame = fi
		e.frameSet = true
		return nil
	})
}

// SetNearLossless sets the maximum absolute reconstruction error, 0 for lossless.
// The upper bound min(255, MAXVAL/2) is checked by Encode.
func (e *Encoder) SetNearLossless(near int) error {
	if near < 0 || near > MaxNear {
		return newError(CodeInvalidArgumentNearLossless, ErrInvalidParameter, "near lossless %d outside [0, %d]", near, MaxNear)
	}
	return e.configure(func(c *encoderConfig) error {
		c.near = near
		return nil
	})
}

// SetInterleaveMode selects how components are arranged in scans.
func (e *Encoder) SetInterleaveMode(m InterleaveMode) error {
	if m < InterleaveNone || m > InterleaveSample {
		return newError(CodeInvalidArgumentInterleaveMode, ErrInvalidParameter, "interleave mode %d", int(m))
	}
	return e.configure(func(c *encoderConfig) error {
		c.ilv = m
		return nil
	})
}

// SetEncodingOptions sets the optional stream features.
func (e *Encoder) SetEncodingOptions(o EncodingOptions) error {
	if o&^optionsMask != 0 {
		return newError(CodeInvalidArgumentOptions, ErrInvalidParameter, "encoding options %#x", int(o))
	}
	return e.configure(func(c *encoderConfig) error {
		c.options = o
		return nil
	})
}

// SetPresetCodingParameters overrides MAXVAL, thresholds and RESET.
// Zero fields keep their default. Values are validated against the frame by Encode.
func (e *Encoder) SetPresetCodingParameters(p PresetCodingParameters) error {
	if p.MaxVal < 0 || p.T1 < 0 || p.T2 < 0 || p.T3 < 0 || p.Reset < 0 {
		return newError(CodeInvalidArgumentPCParameters, ErrInvalidParameter, "negative preset coding parameter %+v", p)
	}
	return e.configure(func(c *encoderConfig) error {
		c.preset = p
		return nil
	})
}

// SetStuffing selects the 0xFF escaping of the entropy coded data.
// StuffNone cannot be framed with markers and is rejected.
func (e *Encoder) SetStuffing(m StuffingMode) error {
	if m != StuffBit && m != StuffByte {
		return newError(CodeInvalidArgument, ErrInvalidParameter, "stuffing mode %s cannot be used in a marker framed stream", m)
	}
	return e.configure(func(c *encoderConfig) error {
		c.stuffing = m
		return nil
	})
}

// Rewind discards the last output and returns the encoder to the configuring state.
func (e *Encoder) Rewind() error {
	return e.configure(func(*encoderConfig) error {
		e.encoded = nil
		e.stats = ScanStats{}
		return nil
	})
}

// EstimatedDestinationSize is a safe upper bound for the encoded size of the configured frame.
func (e *Encoder) EstimatedDestinationSize() (int, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if !e.frameSet {
		return 0, newError(CodeInvalidOperation, ErrInvalidState, "frame info not set")
	}
	return frameSize(e.cfg.frame) + 1024, nil
}

// EncodedBuffer returns the stream produced by the last successful Encode.
func (e *Encoder) EncodedBuffer() []byte {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.encoded
}

// BytesWritten is the length of EncodedBuffer.
func (e *Encoder) BytesWritten() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return len(e.encoded)
}

// Stats reports how the samples of the last successful Encode were coded.
func (e *Encoder) Stats() ScanStats {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.stats
}

// Encode compresses src, laid out as described by FrameInfo and the interleave
// mode, into a complete JPEG-LS stream. On failure no output is kept.
func (e *Encoder) Encode(src []byte) ([]byte, error) {
	e.mu.Lock()
	switch {
	case e.state != stateConfiguring:
		state := e.state
		e.mu.Unlock()
		return nil, newError(CodeInvalidOperation, ErrInvalidState, "encode called while %s", state)
	case !e.frameSet:
		e.state = stateFailed
		e.mu.Unlock()
		return nil, newError(CodeInvalidOperation, ErrInvalidState, "frame info not set")
	}
	cfg := e.cfg
	e.state = stateEncoding
	e.mu.Unlock()

	out, stats, err := encodeFrame(src, cfg)

	e.mu.Lock()
	defer e.mu.Unlock()
	if err != nil {
		e.state = stateFailed
		e.encoded = nil
		e.stats = ScanStats{}
		return nil, err
	}
	e.state = stateDone
	e.encoded = out
	e.stats = stats
	return out, nil
}

// EncodeTo encodes src and writes the stream to w.
func (e *Encoder) EncodeTo(w io.Writer, src []byte) (int, error) {
	out, err := e.Encode(src)
	if err != nil {
		return 0, err
	}
	return w.Write(out)
}

func validateFrameInfo(fi FrameInfo) error {
	switch {
	case fi.Width < 1 || fi.Width > maxWidth:
		return newError(CodeInvalidArgumentWidth, ErrInvalidFrameInfo, "width %d outside [1, %d]", fi.Width, maxWidth)
	case fi.Height < 1 || fi.Height > maxHeight:
		return newError(CodeInvalidArgumentHeight, ErrInvalidFrameInfo, "height %d outside [1, %d]", fi.Height, maxHeight)
	case fi.BitsPerSample < 2 || fi.BitsPerSample > 16:
		return newError(CodeInvalidArgumentBitsPerSample, ErrInvalidFrameInfo, "bits per sample %d outside [2, 16]", fi.BitsPerSample)
	case fi.ComponentCount < 1 || fi.ComponentCount > 255:
		return newError(CodeInvalidArgumentComponentCount, ErrInvalidFrameInfo, "component count %d outside [1, 255]", fi.ComponentCount)
	}
	return nil
}

// validateConfig runs every check that depends on more than one setting.
func validateConfig(src []byte, cfg encoderConfig) error {
	fi := cfg.frame
	if err := validatePreset(cfg.preset, fi.BitsPerSample, cfg.near); err != nil {
		return err
	}
	maxVal := orDefault(cfg.preset.MaxVal, 1<<fi.BitsPerSample-1)
	if limit := min(MaxNear, maxVal/2); cfg.near > limit {
		return newError(CodeInvalidArgumentNearLossless, ErrInvalidParameter, "near lossless %d outside [0, %d]", cfg.near, limit)
	}
	if cfg.ilv == InterleaveSample && fi.ComponentCount > 4 {
		return newError(CodeInvalidArgumentInterleaveMode, ErrInvalidParameter, "sample interleave supports at most 4 components, have %d", fi.ComponentCount)
	}
	if need := frameSize(fi); len(src) < need {
		return newError(CodeSourceBufferTooSmall, ErrBufferTooSmall, "have %d bytes, need %d", len(src), need)
	}
	if maxVal < 1<<(8*bytesPerSample(fi.BitsPerSample))-1 {
		r := newSampleReader(src, fi, cfg.ilv)
		if x, y, c, found := r.firstAbove(maxVal); found {
			return newError(CodeInvalidArgument, ErrInvalidParameter, "sample %d at (%d,%d) component %d exceeds %d", r.at(x, y, c), x, y, c, maxVal)
		}
	}
	return nil
}

// encodeFrame writes SOI, optional COM and LSE, SOF55, the scans and EOI.
func encodeFrame(src []byte, cfg encoderConfig) ([]byte, ScanStats, error) {
	if err := validateConfig(src, cfg); err != nil {
		return nil, ScanStats{}, err
	}
	fi := cfg.frame
	ilv := cfg.ilv
	if fi.ComponentCount == 1 {
		ilv = InterleaveNone
	}
	traits := NewTraits(fi.BitsPerSample, cfg.near, cfg.preset)

	bw := NewBitWriter(cfg.stuffing, frameSize(fi)/2+64)
	writeMarker(bw, MarkerSOI)
	if cfg.options&OptionIncludeVersionNumber != 0 {
		writeCOM(bw, "jpegls.go "+Version())
	}
	writeSOF(bw, fi)

	resolved := PresetCodingParameters{MaxVal: traits.MaxVal, T1: traits.T1, T2: traits.T2, T3: traits.T3, Reset: traits.Reset}
	if resolved != DefaultPresetCodingParameters(1<<fi.BitsPerSample-1, cfg.near) || cfg.options&OptionIncludePCParametersJAI != 0 {
		writeLSE(bw, resolved)
	}

	var stats ScanStats
	reader := newSampleReader(src, fi, cfg.ilv)
	switch ilv {
	case InterleaveNone:
		for c := range fi.ComponentCount {
			writeSOS(bw, []int{c + 1}, cfg.near, InterleaveNone)
			sc := newScanCoder(traits, fi.Width, 1, InterleaveNone)
			sc.bw = bw
			for y := range fi.Height {
				reader.readLine(sc.curr[0], y, c)
				sc.encodeLine(0)
				sc.endLine(0)
			}
			bw.Align()
			stats.add(sc.stats)
		}
	default:
		ids := make([]int, fi.ComponentCount)
		for c := range ids {
			ids[c] = c + 1
		}
		writeSOS(bw, ids, cfg.near, ilv)
		sc := newScanCoder(traits, fi.Width, fi.ComponentCount, ilv)
		sc.bw = bw
		for y := range fi.Height {
			for c := range fi.ComponentCount {
				reader.readLine(sc.curr[c], y, c)
				if ilv == InterleaveLine {
					sc.encodeLine(c)
					sc.endLine(c)
				}
			}
			if ilv == InterleaveSample {
				sc.encodeSampleLine()
				for c := range fi.ComponentCount {
					sc.endLine(c)
				}
			}
		}
		bw.Align()
		stats.add(sc.stats)
	}

	if cfg.options&OptionEvenDestinationSize != 0 && bw.Len()%2 != 0 {
		// fill byte, EOI keeps the total even
		bw.WriteRaw(0xFF)
	}
	writeMarker(bw, MarkerEOI)
	out := bw.Flush()

	slog.Debug("jpegls encode",
		slog.Int("width", fi.Width),
		slog.Int("height", fi.Height),
		slog.Int("bitsPerSample", fi.BitsPerSample),
		slog.Int("components", fi.ComponentCount),
		slog.Int("near", cfg.near),
		slog.String("interleave", ilv.String()),
		slog.Int("bytes", len(out)),
		slog.Int("regular", stats.RegularSamples),
		slog.Int("run", stats.RunSamples))
	return out, stats, nil
}

// Options configures the package level Encode helpers.
type Options struct {
	Near            int            // Near-lossless parameter (0 = lossless)
	Interleave      InterleaveMode // used for multi component images
	EncodingOptions EncodingOptions
	Preset          PresetCodingParameters
	Stuffing        StuffingMode
}

// newConfiguredEncoder applies opts to a fresh encoder.
func newConfiguredEncoder(fi FrameInfo, opts *Options) (*Encoder, error) {
	if opts == nil {
		opts = &Options{}
	}
	e := NewEncoder()
	for _, err := range []error{
		e.SetFrameInfo(fi),
		e.SetNearLossless(opts.Near),
		e.SetInterleaveMode(opts.Interleave),
		e.SetEncodingOptions(opts.EncodingOptions),
		e.SetPresetCodingParameters(opts.Preset),
		e.SetStuffing(opts.Stuffing),
	} {
		if err != nil {
			return nil, err
		}
	}
	return e, nil
}

// EncodeBuffer encodes a raw sample buffer in one call.
func EncodeBuffer(src []byte, fi FrameInfo, opts *Options) ([]byte, error) {
	e, err := newConfiguredEncoder(fi, opts)
	if err != nil {
		return nil, err
	}
	return e.Encode(src)
}

// Encode writes JPEG-LS data to w for the given image.
// Gray, Gray16, RGBA, NRGBA, RGBA64 and NRGBA64 images are supported. Colour
// is stored with straight alpha, kept as a fourth component unless fully opaque.
func Encode(w io.Writer, img image.Image, opts *Options) error {
	ilv := InterleaveNone
	if opts != nil {
		ilv = opts.Interleave
	}
	src, fi, err := imageBuffer(img, ilv)
	if err != nil {
		return err
	}
	out, err := EncodeBuffer(src, fi, opts)
	if err != nil {
		return fmt.Errorf("encode %dx%d image: %w", fi.Width, fi.Height, err)
	}
	_, err = w.Write(out)
	return err
}

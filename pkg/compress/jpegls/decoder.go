package jpegls

import (
	"fmt"
	"image"
	"io"
	"log/slog"
	"slices"
)

// DefaultMaxDecodedSize caps the raw buffer a Decoder allocates for one frame.
const DefaultMaxDecodedSize = 1 << 30

// Decoder decodes JPEG-LS streams written by Encoder, or by any encoder that
// sticks to SOF55 without restart intervals or mapping tables.
type Decoder struct {
	sr       segmentReader
	stuffing StuffingMode
	maxSize  int

	frame      FrameHeader
	frameSet   bool
	preset     PresetCodingParameters
	comment    string
	scans      []ScanHeader
	headerRead bool
}

// NewDecoder returns a decoder over a complete stream.
func NewDecoder(data []byte) *Decoder {
	return &Decoder{sr: segmentReader{data: data}, maxSize: DefaultMaxDecodedSize}
}

// SetMaxDecodedSize bounds the decoded buffer in bytes; n <= 0 removes the bound.
// Frames above it fail with ErrInvalidData before anything is allocated.
func (d *Decoder) SetMaxDecodedSize(n int) {
	d.maxSize = n
}

func (d *Decoder) checkSize() error {
	if d.maxSize <= 0 {
		return nil
	}
	if n := frameSize(d.FrameInfo()); n > d.maxSize {
		return newError(CodeParameterValueNotSupported, ErrInvalidData,
			"frame needs %d bytes, limit is %d", n, d.maxSize)
	}
	return nil
}

// SetStuffing selects the 0xFF escaping used by the encoder, StuffBit by default.
func (d *Decoder) SetStuffing(m StuffingMode) {
	d.stuffing = m
}

// ReadHeader parses the segments in front of the first scan.
func (d *Decoder) ReadHeader() error {
	if d.headerRead {
		return nil
	}
	data := d.sr.data
	if len(data) < 2 || data[0] != 0xFF || data[1] != MarkerSOI&0xFF {
		return newError(CodeStartOfImageMarkerNotFound, ErrInvalidData, "stream does not start with SOI")
	}
	d.sr.pos = 2
	m, err := d.readSegments()
	if err != nil {
		return err
	}
	if m != MarkerSOS {
		return newError(CodeUnexpectedMarkerFound, ErrInvalidData, "EOI before the first scan")
	}
	d.headerRead = true
	return nil
}

// readSegments consumes marker segments until SOS (whose header is parsed
// and appended to d.scans) or EOI.
func (d *Decoder) readSegments() (int, error) {
	for {
		m, err := d.sr.nextMarker()
		if err != nil {
			return 0, err
		}
		switch {
		case m == MarkerEOI:
			return m, nil
		case m == MarkerSOF55:
			if d.frameSet {
				return 0, newError(CodeUnexpectedMarkerFound, ErrInvalidData, "second SOF55")
			}
			p, err := d.sr.segment()
			if err != nil {
				return 0, err
			}
			if d.frame, err = parseSOF(p); err != nil {
				return 0, err
			}
			d.frameSet = true
			if err := d.checkSize(); err != nil {
				return 0, err
			}
		case m == MarkerSOS:
			if !d.frameSet {
				return 0, newError(CodeUnexpectedMarkerFound, ErrInvalidData, "SOS before SOF55")
			}
			p, err := d.sr.segment()
			if err != nil {
				return 0, err
			}
			sh, err := parseSOS(p)
			if err != nil {
				return 0, err
			}
			d.scans = append(d.scans, sh)
			return m, nil
		case m == MarkerLSE:
			p, err := d.sr.segment()
			if err != nil {
				return 0, err
			}
			if d.preset, err = parseLSE(p); err != nil {
				return 0, err
			}
		case m == MarkerCOM:
			p, err := d.sr.segment()
			if err != nil {
				return 0, err
			}
			d.comment = string(p)
		case m >= MarkerAPP0 && m <= MarkerAPP15:
			if _, err := d.sr.segment(); err != nil {
				return 0, err
			}
		case m == MarkerDRI || m == MarkerDNL || (m >= 0xFFC0 && m <= 0xFFCF):
			return 0, newError(CodeParameterValueNotSupported, ErrInvalidData, "marker %#04x is not supported", m)
		case m >= MarkerRST0 && m <= MarkerRST7:
			return 0, newError(CodeParameterValueNotSupported, ErrInvalidData, "restart marker %#04x outside a scan", m)
		default:
			return 0, newError(CodeUnexpectedMarkerFound, ErrInvalidData, "unexpected marker %#04x", m)
		}
	}
}

// FrameInfo is valid after ReadHeader.
func (d *Decoder) FrameInfo() FrameInfo {
	return FrameInfo{
		Width:          d.frame.Width,
		Height:         d.frame.Height,
		BitsPerSample:  d.frame.Precision,
		ComponentCount: d.frame.Components,
	}
}

// NearLossless is the NEAR value of the first scan.
func (d *Decoder) NearLossless() int {
	if len(d.scans) == 0 {
		return 0
	}
	return d.scans[0].Near
}

// InterleaveMode of the first scan, which also fixes the layout of DecodeBuffer output.
func (d *Decoder) InterleaveMode() InterleaveMode {
	if len(d.scans) == 0 {
		return InterleaveNone
	}
	return d.scans[0].ILV
}

// PresetCodingParameters returns the LSE values, zero fields when none were present.
func (d *Decoder) PresetCodingParameters() PresetCodingParameters {
	return d.preset
}

// Comment is the content of the last COM segment.
func (d *Decoder) Comment() string {
	return d.comment
}

func (d *Decoder) FrameHeader() FrameHeader {
	return d.frame
}

// Scans returns the scan headers seen so far.
func (d *Decoder) Scans() []ScanHeader {
	return d.scans
}

// DecodeBuffer decodes all scans into a raw buffer with the layout Encoder
// expects for InterleaveMode: planar for InterleaveNone, pixel interleaved otherwise.
func (d *Decoder) DecodeBuffer() ([]byte, error) {
	if err := d.ReadHeader(); err != nil {
		return nil, err
	}
	if err := d.checkSize(); err != nil {
		return nil, err
	}
	fi := d.FrameInfo()
	ilv := d.InterleaveMode()
	if fi.ComponentCount == 1 {
		ilv = InterleaveNone
	}
	out := newSampleWriter(fi, ilv)
	decoded := make([]bool, fi.ComponentCount)

	for {
		if err := d.decodeScan(d.scans[len(d.scans)-1], out, decoded); err != nil {
			return nil, err
		}
		m, err := d.readSegments()
		if err != nil {
			return nil, err
		}
		if m == MarkerEOI {
			break
		}
	}
	if i := slices.Index(decoded, false); i >= 0 {
		return nil, newError(CodeInvalidEncodedData, ErrInvalidData, "component %d has no scan", d.frame.ComponentIDs[i])
	}

	slog.Debug("jpegls decode",
		slog.Int("width", fi.Width),
		slog.Int("height", fi.Height),
		slog.Int("bitsPerSample", fi.BitsPerSample),
		slog.Int("components", fi.ComponentCount),
		slog.Int("scans", len(d.scans)),
		slog.Int("near", d.NearLossless()))
	return out.dst, nil
}

func (d *Decoder) decodeScan(sh ScanHeader, out *sampleWriter, decoded []bool) error {
	comps := make([]int, len(sh.ComponentIDs))
	for i, id := range sh.ComponentIDs {
		c := slices.Index(d.frame.ComponentIDs, id)
		if c < 0 {
			return newError(CodeInvalidEncodedData, ErrInvalidData, "scan references unknown component %d", id)
		}
		if decoded[c] {
			return newError(CodeInvalidEncodedData, ErrInvalidData, "component %d decoded twice", id)
		}
		decoded[c] = true
		comps[i] = c
	}
	ilv := sh.ILV
	if len(comps) == 1 {
		ilv = InterleaveNone
	} else if ilv == InterleaveNone {
		return newError(CodeInvalidEncodedData, ErrInvalidData, "%d components in a non interleaved scan", len(comps))
	}

	if err := validatePreset(d.preset, d.frame.Precision, sh.Near); err != nil {
		return fmt.Errorf("scan preset: %w", err)
	}
	traits := NewTraits(d.frame.Precision, sh.Near, d.preset)
	if sh.Near > min(MaxNear, traits.MaxVal/2) {
		return newError(CodeInvalidArgumentNearLossless, ErrInvalidData, "near lossless %d for MAXVAL %d", sh.Near, traits.MaxVal)
	}

	start := d.sr.pos
	sc := newScanCoder(traits, d.frame.Width, len(comps), ilv)
	sc.br = NewBitReader(d.sr.data[start:], d.stuffing)
	for y := range d.frame.Height {
		switch ilv {
		case InterleaveSample:
			if err := sc.decodeSampleLine(); err != nil {
				return fmt.Errorf("line %d: %w", y, err)
			}
			for ci, c := range comps {
				out.writeLine(sc.curr[ci], y, c)
				sc.endLine(ci)
			}
		default:
			for ci, c := range comps {
				if err := sc.decodeLine(ci); err != nil {
					return fmt.Errorf("line %d component %d: %w", y, c, err)
				}
				out.writeLine(sc.curr[ci], y, c)
				sc.endLine(ci)
			}
		}
	}
	d.sr.skipEntropyData(start+sc.br.Offset(), d.stuffing)
	return nil
}

// DecodeBuffer decodes a complete stream into a raw buffer.
func DecodeBuffer(data []byte) ([]byte, FrameInfo, error) {
	d := NewDecoder(data)
	buf, err := d.DecodeBuffer()
	if err != nil {
		return nil, FrameInfo{}, err
	}
	return buf, d.FrameInfo(), nil
}

// Decode reads JPEG-LS data from r and returns an image.Image.
func Decode(r io.Reader) (image.Image, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}
	return NewDecoder(data).DecodeImage()
}

// DecodeImage decodes all scans into a Gray, Gray16, NRGBA or NRGBA64 image.
func (d *Decoder) DecodeImage() (image.Image, error) {
	buf, err := d.DecodeBuffer()
	if err != nil {
		return nil, err
	}
	return bufferImage(buf, d.FrameInfo(), d.InterleaveMode())
}

package jpegls

import "encoding/binary"

func writeMarker(bw *BitWriter, marker int) {
	bw.WriteRaw(byte(marker>>8), byte(marker))
}

// writeSegment writes marker, the big endian length (payload + 2) and payload.
func writeSegment(bw *BitWriter, marker int, payload []byte) {
	writeMarker(bw, marker)
	bw.WriteRaw(binary.BigEndian.AppendUint16(nil, uint16(len(payload)+2))...)
	bw.WriteRaw(payload...)
}

// writeSOF writes the SOF55 frame header. Component ids are 1..Nf.
func writeSOF(bw *BitWriter, fi FrameInfo) {
	p := make([]byte, 0, 6+3*fi.ComponentCount)
	p = append(p, byte(fi.BitsPerSample))
	p = binary.BigEndian.AppendUint16(p, uint16(fi.Height))
	p = binary.BigEndian.AppendUint16(p, uint16(fi.Width))
	p = append(p, byte(fi.ComponentCount))
	for c := range fi.ComponentCount {
		// sampling factors 1x1, no quantization table
		p = append(p, byte(c+1), 0x11, 0)
	}
	writeSegment(bw, MarkerSOF55, p)
}

// writeSOS writes a scan header for the given component ids.
func writeSOS(bw *BitWriter, ids []int, near int, ilv InterleaveMode) {
	p := make([]byte, 0, 4+2*len(ids))
	p = append(p, byte(len(ids)))
	for _, id := range ids {
		// no mapping table
		p = append(p, byte(id), 0)
	}
	p = append(p, byte(near), byte(ilv), 0)
	writeSegment(bw, MarkerSOS, p)
}

// writeLSE writes the preset coding parameters segment (C.2.4.1.1).
func writeLSE(bw *BitWriter, pc PresetCodingParameters) {
	p := []byte{lsePresetCodingParameters}
	for _, v := range []int{pc.MaxVal, pc.T1, pc.T2, pc.T3, pc.Reset} {
		p = binary.BigEndian.AppendUint16(p, uint16(v))
	}
	writeSegment(bw, MarkerLSE, p)
}

func writeCOM(bw *BitWriter, text string) {
	writeSegment(bw, MarkerCOM, []byte(text))
}

// segmentReader walks the marker segments of a stream.
type segmentReader struct {
	data []byte
	pos  int
}

// nextMarker reads a marker code, skipping 0xFF fill bytes.
func (r *segmentReader) nextMarker() (int, error) {
	if r.pos >= len(r.data) || r.data[r.pos] != 0xFF {
		return 0, newError(CodeInvalidEncodedData, ErrInvalidData, "expected marker at offset %d", r.pos)
	}
	for r.pos < len(r.data) && r.data[r.pos] == 0xFF {
		r.pos++
	}
	if r.pos >= len(r.data) {
		return 0, newError(CodeInvalidEncodedData, ErrInvalidData, "stream ends inside marker")
	}
	m := 0xFF00 | int(r.data[r.pos])
	r.pos++
	return m, nil
}

// segment returns the payload of the segment at the read position.
func (r *segmentReader) segment() ([]byte, error) {
	if r.pos+2 > len(r.data) {
		return nil, newError(CodeInvalidMarkerSegmentSize, ErrInvalidData, "missing segment length at offset %d", r.pos)
	}
	n := int(binary.BigEndian.Uint16(r.data[r.pos:]))
	if n < 2 || r.pos+n > len(r.data) {
		return nil, newError(CodeInvalidMarkerSegmentSize, ErrInvalidData, "segment length %d at offset %d", n, r.pos)
	}
	p := r.data[r.pos+2 : r.pos+n]
	r.pos += n
	return p, nil
}

// skipEntropyData moves the read position from from to the next marker
// that is not part of the entropy coded data.
func (r *segmentReader) skipEntropyData(from int, mode StuffingMode) {
	r.pos = from
	for r.pos+1 < len(r.data) {
		if r.data[r.pos] == 0xFF && isMarkerCode(r.data[r.pos+1], mode) {
			return
		}
		r.pos++
	}
	r.pos = len(r.data)
}

func parseSOF(p []byte) (FrameHeader, error) {
	if len(p) < 6 {
		return FrameHeader{}, newError(CodeInvalidMarkerSegmentSize, ErrInvalidData, "SOF segment of %d bytes", len(p))
	}
	h := FrameHeader{
		Precision:  int(p[0]),
		Height:     int(binary.BigEndian.Uint16(p[1:])),
		Width:      int(binary.BigEndian.Uint16(p[3:])),
		Components: int(p[5]),
	}
	if len(p) != 6+3*h.Components {
		return FrameHeader{}, newError(CodeInvalidMarkerSegmentSize, ErrInvalidData, "SOF segment of %d bytes for %d components", len(p), h.Components)
	}
	for c := range h.Components {
		h.ComponentIDs = append(h.ComponentIDs, int(p[6+3*c]))
	}
	if h.Precision < 2 || h.Precision > 16 {
		return FrameHeader{}, newError(CodeInvalidArgumentBitsPerSample, ErrInvalidData, "precision %d", h.Precision)
	}
	if h.Width < 1 || h.Height < 1 || h.Components < 1 {
		return FrameHeader{}, newError(CodeParameterValueNotSupported, ErrInvalidData, "frame %dx%dx%d", h.Width, h.Height, h.Components)
	}
	return h, nil
}

func parseSOS(p []byte) (ScanHeader, error) {
	if len(p) < 1 {
		return ScanHeader{}, newError(CodeInvalidMarkerSegmentSize, ErrInvalidData, "empty SOS segment")
	}
	h := ScanHeader{Components: int(p[0])}
	if h.Components < 1 || len(p) != 4+2*h.Components {
		return ScanHeader{}, newError(CodeInvalidMarkerSegmentSize, ErrInvalidData, "SOS segment of %d bytes for %d components", len(p), h.Components)
	}
	for c := range h.Components {
		h.ComponentIDs = append(h.ComponentIDs, int(p[1+2*c]))
		if p[2+2*c] != 0 {
			return ScanHeader{}, newError(CodeParameterValueNotSupported, ErrInvalidData, "mapping tables are not supported")
		}
	}
	tail := p[1+2*h.Components:]
	h.Near = int(tail[0])
	h.ILV = InterleaveMode(tail[1])
	h.Ah = int(tail[2] >> 4)
	h.Al = int(tail[2] & 0x0F)
	if h.ILV > InterleaveSample {
		return ScanHeader{}, newError(CodeInvalidArgumentInterleaveMode, ErrInvalidData, "interleave mode %d", tail[1])
	}
	if h.Al != 0 || h.Ah != 0 {
		return ScanHeader{}, newError(CodeParameterValueNotSupported, ErrInvalidData, "point transform %d", h.Al)
	}
	return h, nil
}

func parseLSE(p []byte) (PresetCodingParameters, error) {
	if len(p) < 1 {
		return PresetCodingParameters{}, newError(CodeInvalidMarkerSegmentSize, ErrInvalidData, "empty LSE segment")
	}
	if p[0] != lsePresetCodingParameters {
		return PresetCodingParameters{}, newError(CodeParameterValueNotSupported, ErrInvalidData, "LSE type %d", p[0])
	}
	if len(p) != 11 {
		return PresetCodingParameters{}, newError(CodeInvalidMarkerSegmentSize, ErrInvalidData, "LSE segment of %d bytes", len(p))
	}
	return PresetCodingParameters{
		MaxVal: int(binary.BigEndian.Uint16(p[1:])),
		T1:     int(binary.BigEndian.Uint16(p[3:])),
		T2:     int(binary.BigEndian.Uint16(p[5:])),
		T3:     int(binary.BigEndian.Uint16(p[7:])),
		Reset:  int(binary.BigEndian.Uint16(p[9:])),
	}, nil
}

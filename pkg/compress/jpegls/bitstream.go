package jpegls

// StuffingMode selects how 0xFF bytes inside entropy coded data are escaped.
type StuffingMode int

const (
	// StuffBit inserts a single 0 bit after every 0xFF byte (ISO 14495-1 A.1).
	StuffBit StuffingMode = iota
	// StuffByte inserts a 0x00 byte after every 0xFF byte (ISO 10918 convention).
	StuffByte
	// StuffNone writes raw bits, for embedding outside of a marker framed stream.
	StuffNone
)

func (m StuffingMode) String() string {
	switch m {
	case StuffBit:
		return "bit"
	case StuffByte:
		return "byte"
	case StuffNone:
		return "none"
	}
	return "invalid"
}

// BitWriter packs bits MSB first into an append only byte buffer.
type BitWriter struct {
	buf      []byte
	bits     uint64
	nBits    int
	stuffing StuffingMode
	padOnes  bool
	lastFF   bool
}

// NewBitWriter creates a new BitWriter. sizeHint preallocates the buffer.
func NewBitWriter(mode StuffingMode, sizeHint int) *BitWriter {
	return &BitWriter{
		buf:      make([]byte, 0, max(sizeHint, 0)),
		stuffing: mode,
	}
}

// SetPadOnes selects 1 bits instead of 0 bits for padding the last partial byte.
func (bw *BitWriter) SetPadOnes(v bool) {
	bw.padOnes = v
}

// byteWidth is the number of data bits the next emitted byte can hold.
func (bw *BitWriter) byteWidth() int {
	if bw.lastFF && bw.stuffing == StuffBit {
		return 7
	}
	return 8
}

// WriteBits writes the n (<= 32) low bits of val.
func (bw *BitWriter) WriteBits(val uint32, n int) {
	if n <= 0 {
		return
	}
	bw.bits = (bw.bits << n) | (uint64(val) & (1<<n - 1))
	bw.nBits += n

	for {
		width := bw.byteWidth()
		if bw.nBits < width {
			break
		}
		shift := bw.nBits - width
		b := byte(bw.bits >> shift)
		bw.nBits -= width
		bw.bits &= 1<<bw.nBits - 1
		bw.emit(b)
	}
}

// WriteBit writes a single bit.
func (bw *BitWriter) WriteBit(bit uint32) {
	bw.WriteBits(bit, 1)
}

// WriteZeros writes n zero bits, n may exceed 32.
func (bw *BitWriter) WriteZeros(n int) {
	for n > 32 {
		bw.WriteBits(0, 32)
		n -= 32
	}
	bw.WriteBits(0, n)
}

func (bw *BitWriter) emit(b byte) {
	bw.buf = append(bw.buf, b)
	switch bw.stuffing {
	case StuffBit:
		bw.lastFF = b == 0xFF
	case StuffByte:
		if b == 0xFF {
			bw.buf = append(bw.buf, 0x00)
		}
	}
}

// Align pads the partial byte and terminates the entropy coded segment so
// that a marker can follow. The writer keeps its buffer.
func (bw *BitWriter) Align() {
	if bw.nBits > 0 {
		pad := bw.byteWidth() - bw.nBits
		var fill uint32
		if bw.padOnes {
			fill = 1<<pad - 1
		}
		bw.WriteBits(fill, pad)
	}
	if bw.lastFF {
		// a marker may not directly follow a data byte 0xFF
		bw.buf = append(bw.buf, 0x00)
	}
	bw.lastFF = false
	bw.bits = 0
	bw.nBits = 0
}

// WriteRaw appends bytes without stuffing. Only valid on a byte boundary.
func (bw *BitWriter) WriteRaw(p ...byte) {
	bw.buf = append(bw.buf, p...)
}

// Len is the number of complete bytes written so far.
func (bw *BitWriter) Len() int {
	return len(bw.buf)
}

// Flush aligns, hands the completed buffer to the caller and resets the writer.
func (bw *BitWriter) Flush() []byte {
	bw.Align()
	out := bw.buf
	bw.buf = nil
	return out
}

// BitReader reads bits MSB first, removing stuffing and stopping at markers.
type BitReader struct {
	data     []byte
	pos      int
	bits     uint64
	nBits    int
	stuffing StuffingMode
	prevFF   bool
	atMarker bool
}

// NewBitReader creates a new BitReader over entropy coded data.
func NewBitReader(data []byte, mode StuffingMode) *BitReader {
	return &BitReader{data: data, stuffing: mode}
}

// fill tops up the bit buffer until it holds more than 56 bits or the data ends.
func (br *BitReader) fill() {
	for br.nBits <= 56 && !br.atMarker && br.pos < len(br.data) {
		b := br.data[br.pos]
		if b == 0xFF && br.stuffing != StuffNone && br.pos+1 < len(br.data) && isMarkerCode(br.data[br.pos+1], br.stuffing) {
			br.atMarker = true
			return
		}
		br.pos++
		if br.prevFF && br.stuffing == StuffBit {
			br.bits = br.bits<<7 | uint64(b&0x7F)
			br.nBits += 7
		} else {
			br.bits = br.bits<<8 | uint64(b)
			br.nBits += 8
		}
		br.prevFF = b == 0xFF
		if br.prevFF && br.stuffing == StuffByte && br.pos < len(br.data) && br.data[br.pos] == 0x00 {
			br.pos++
			br.prevFF = false
		}
	}
}

func isMarkerCode(next byte, mode StuffingMode) bool {
	if mode == StuffByte {
		return next != 0x00
	}
	return next >= 0x80
}

// ReadBits reads n (<= 32) bits.
func (br *BitReader) ReadBits(n int) (uint32, error) {
	if n == 0 {
		return 0, nil
	}
	if br.nBits < n {
		br.fill()
		if br.nBits < n {
			return 0, newError(CodeInvalidEncodedData, ErrInvalidData, "entropy coded data ended after %d bytes", br.pos)
		}
	}
	shift := br.nBits - n
	val := (br.bits >> shift) & (1<<n - 1)
	br.nBits -= n
	br.bits &= 1<<br.nBits - 1
	return uint32(val), nil
}

// ReadBit reads a single bit.
func (br *BitReader) ReadBit() (uint32, error) {
	return br.ReadBits(1)
}

// ReadUnary counts 0 bits up to and including the terminating 1 bit.
func (br *BitReader) ReadUnary(limit int) (int, error) {
	count := 0
	for {
		b, err := br.ReadBit()
		if err != nil {
			return 0, err
		}
		if b == 1 {
			return count, nil
		}
		count++
		if count > limit {
			return 0, newError(CodeInvalidEncodedData, ErrInvalidData, "unary code longer than %d bits", limit)
		}
	}
}

// Offset is the index of the first byte not yet pulled into the bit buffer.
func (br *BitReader) Offset() int {
	return br.pos
}

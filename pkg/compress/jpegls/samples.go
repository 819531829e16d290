package jpegls

import "encoding/binary"

// bytesPerSample is the storage size of one sample in a raw buffer.
func bytesPerSample(bitsPerSample int) int {
	return (bitsPerSample + 7) / 8
}

// frameSize is the raw buffer size needed for fi.
func frameSize(fi FrameInfo) int {
	return fi.Width * fi.Height * fi.ComponentCount * bytesPerSample(fi.BitsPerSample)
}

// sampleIndex locates sample (x, y, c) in a raw buffer. InterleaveNone
// buffers are planar, the interleaved modes use pixel interleaved buffers.
func sampleIndex(fi FrameInfo, mode InterleaveMode, x, y, c int) int {
	if mode == InterleaveNone {
		return (c*fi.Height+y)*fi.Width + x
	}
	return (y*fi.Width+x)*fi.ComponentCount + c
}

// sampleReader walks a caller owned buffer in scan order.
type sampleReader struct {
	src  []byte
	fi   FrameInfo
	mode InterleaveMode
	bps  int
}

func newSampleReader(src []byte, fi FrameInfo, mode InterleaveMode) *sampleReader {
	return &sampleReader{src: src, fi: fi, mode: mode, bps: bytesPerSample(fi.BitsPerSample)}
}

func (r *sampleReader) at(x, y, c int) int {
	i := sampleIndex(r.fi, r.mode, x, y, c)
	if r.bps == 1 {
		return int(r.src[i])
	}
	return int(binary.LittleEndian.Uint16(r.src[i*2:]))
}

// readLine copies row y of component c into line[1:width+1].
func (r *sampleReader) readLine(line []int, y, c int) {
	for x := 0; x < r.fi.Width; x++ {
		line[x+1] = r.at(x, y, c)
	}
}

// firstAbove returns the position of the first sample greater than maxVal.
func (r *sampleReader) firstAbove(maxVal int) (x, y, c int, found bool) {
	for c = 0; c < r.fi.ComponentCount; c++ {
		for y = 0; y < r.fi.Height; y++ {
			for x = 0; x < r.fi.Width; x++ {
				if r.at(x, y, c) > maxVal {
					return x, y, c, true
				}
			}
		}
	}
	return 0, 0, 0, false
}

// sampleWriter stores reconstructed lines into a raw buffer.
type sampleWriter struct {
	dst  []byte
	fi   FrameInfo
	mode InterleaveMode
	bps  int
}

func newSampleWriter(fi FrameInfo, mode InterleaveMode) *sampleWriter {
	return &sampleWriter{dst: make([]byte, frameSize(fi)), fi: fi, mode: mode, bps: bytesPerSample(fi.BitsPerSample)}
}

func (w *sampleWriter) writeLine(line []int, y, c int) {
	for x := 0; x < w.fi.Width; x++ {
		i := sampleIndex(w.fi, w.mode, x, y, c)
		if w.bps == 1 {
			w.dst[i] = byte(line[x+1])
		} else {
			binary.LittleEndian.PutUint16(w.dst[i*2:], uint16(line[x+1]))
		}
	}
}

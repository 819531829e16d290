package baseline

import (
	"errors"
	"fmt"
)

// PackBits compresses data with the run length scheme of DICOM PS3.5 Annex G:
// a header n in 0..127 copies n+1 literal bytes, -1..-127 repeats the next
// byte 1-n times.
func PackBits(data []byte) []byte {
	out := make([]byte, 0, len(data)+len(data)/128+1)
	for i := 0; i < len(data); {
		run := 1
		for i+run < len(data) && run < 128 && data[i+run] == data[i] {
			run++
		}
		if run > 1 {
			out = append(out, byte(int8(1-run)), data[i])
			i += run
			continue
		}

		// literals end where a run of three starts
		lit := 1
		for i+lit < len(data) && lit < 128 {
			if i+lit+2 < len(data) && data[i+lit] == data[i+lit+1] && data[i+lit] == data[i+lit+2] {
				break
			}
			lit++
		}
		out = append(out, byte(lit-1))
		out = append(out, data[i:i+lit]...)
		i += lit
	}
	return out
}

// UnpackBits reverses PackBits, stopping once n bytes are produced (n <= 0: no limit).
func UnpackBits(data []byte, n int) ([]byte, error) {
	out := make([]byte, 0, max(n, 0))
	for i := 0; i < len(data) && (n <= 0 || len(out) < n); {
		h := int8(data[i])
		i++
		switch {
		case h == -128:
			// no-op
		case h >= 0:
			count := int(h) + 1
			if i+count > len(data) {
				return nil, fmt.Errorf("packbits: literal of %d bytes truncated at %d", count, i)
			}
			out = append(out, data[i:i+count]...)
			i += count
		default:
			if i >= len(data) {
				return nil, errors.New("packbits: replicate run truncated")
			}
			for range 1 - int(h) {
				out = append(out, data[i])
			}
			i++
		}
	}
	return out, nil
}

// BytePlanes splits little endian samples into byte planes, most significant first,
// the segment order DICOM RLE uses.
func BytePlanes(raw []byte, bytesPerSample int) [][]byte {
	if bytesPerSample <= 1 {
		return [][]byte{raw}
	}
	n := len(raw) / bytesPerSample
	planes := make([][]byte, bytesPerSample)
	for p := range planes {
		planes[p] = make([]byte, n)
		src := bytesPerSample - 1 - p
		for i := range n {
			planes[p][i] = raw[i*bytesPerSample+src]
		}
	}
	return planes
}

// PackBitsSize is the total size of the PackBits coded byte planes of raw.
func PackBitsSize(raw []byte, bytesPerSample int) int {
	size := 0
	for _, plane := range BytePlanes(raw, bytesPerSample) {
		size += len(PackBits(plane))
	}
	return size
}

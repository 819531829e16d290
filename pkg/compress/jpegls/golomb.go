package jpegls

// MapErrorValue folds a signed error onto the non-negative integers (A.5.2):
// 0, -1, 1, -2, 2, ... become 0, 1, 2, 3, 4, ...
func MapErrorValue(errVal int) int {
	if errVal >= 0 {
		return 2 * errVal
	}
	return -2*errVal - 1
}

// UnmapErrorValue reverses MapErrorValue.
func UnmapErrorValue(mapped int) int {
	if mapped&1 == 0 {
		return mapped >> 1
	}
	return -((mapped + 1) >> 1)
}

// EncodeMappedValue writes mapped with parameter k, escaping to a fixed
// qbpp-bit field when the unary part would reach limit-qbpp-1 (A.5.3).
// The longest codeword is therefore limit bits. It reports whether the
// escape form was written.
func (bw *BitWriter) EncodeMappedValue(k, mapped, limit, qbpp int) bool {
	highBits := mapped >> k
	if highBits < limit-qbpp-1 {
		bw.WriteZeros(highBits)
		bw.WriteBit(1)
		if k > 0 {
			bw.WriteBits(uint32(mapped)&(1<<k-1), k)
		}
		return false
	}
	bw.WriteZeros(limit - qbpp - 1)
	bw.WriteBit(1)
	bw.WriteBits(uint32(mapped-1)&(1<<qbpp-1), qbpp)
	return true
}

// DecodeValue reads a value written by EncodeMappedValue.
func (br *BitReader) DecodeValue(k, limit, qbpp int) (int, error) {
	highBits, err := br.ReadUnary(limit - qbpp - 1)
	if err != nil {
		return 0, err
	}
	if highBits >= limit-qbpp-1 {
		v, err := br.ReadBits(qbpp)
		if err != nil {
			return 0, err
		}
		return int(v) + 1, nil
	}
	if k == 0 {
		return highBits, nil
	}
	r, err := br.ReadBits(k)
	if err != nil {
		return 0, err
	}
	return highBits<<k | int(r), nil
}

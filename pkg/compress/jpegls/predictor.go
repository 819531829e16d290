package jpegls

// PredictMED is the median edge detector of A.4.1 over the causal
// neighbours Ra (left), Rb (above) and Rc (above left).
func PredictMED(Ra, Rb, Rc int) int {
	lo, hi := min(Ra, Rb), max(Ra, Rb)
	switch {
	case Rc >= hi:
		return lo
	case Rc <= lo:
		return hi
	}
	return Ra + Rb - Rc
}

// Gradients returns D1, D2, D3 for the causal neighbourhood (A.3.1).
// Rd: Above-Right
func Gradients(Ra, Rb, Rc, Rd int) (int, int, int) {
	return Rd - Rb, Rb - Rc, Rc - Ra
}

// Clip clamps value to range [min, max]
func clip(val, lo, hi int) int {
	if val < lo {
		return lo
	}
	if val > hi {
		return hi
	}
	return val
}

// Abs returns absolute value
func abs(x int) int {
	if x < 0 {
		return -x
	}
	return x
}

// sign is 1 for n >= 0 and -1 otherwise.
func sign(n int) int {
	if n >= 0 {
		return 1
	}
	return -1
}

package jpegls

// Traits holds the derived coding parameters of one scan (ISO 14495-1 A.2.1, C.2.4.1.1).
type Traits struct {
	MaxVal int
	Near   int
	Range  int
	Qbpp   int
	Bpp    int
	Limit  int
	Reset  int
	T1     int
	T2     int
	T3     int
}

// DefaultPresetCodingParameters computes the Annex C default thresholds for maxVal and near.
func DefaultPresetCodingParameters(maxVal, near int) PresetCodingParameters {
	const (
		basicT1 = 3
		basicT2 = 7
		basicT3 = 21
	)
	p := PresetCodingParameters{MaxVal: maxVal, Reset: defaultReset}
	if maxVal >= 128 {
		factor := (min(maxVal, 4095) + 128) / 256
		p.T1 = clampThreshold(factor*(basicT1-2)+2+3*near, near+1, maxVal)
		p.T2 = clampThreshold(factor*(basicT2-3)+3+5*near, p.T1, maxVal)
		p.T3 = clampThreshold(factor*(basicT3-4)+4+7*near, p.T2, maxVal)
		return p
	}
	factor := 256 / (maxVal + 1)
	p.T1 = clampThreshold(max(2, basicT1/factor+3*near), near+1, maxVal)
	p.T2 = clampThreshold(max(3, basicT2/factor+5*near), p.T1, maxVal)
	p.T3 = clampThreshold(max(4, basicT3/factor+7*near), p.T2, maxVal)
	return p
}

// clampThreshold is CLAMP(i, j, MAXVAL) from C.2.4.1.1.1: out of range on either side yields j.
func clampThreshold(i, j, maxVal int) int {
	if i > maxVal || i < j {
		return j
	}
	return i
}

// NewTraits derives the scan parameters. Zero fields in preset fall back to the defaults.
func NewTraits(bitsPerSample, near int, preset PresetCodingParameters) Traits {
	maxVal := preset.MaxVal
	if maxVal == 0 {
		maxVal = (1 << bitsPerSample) - 1
	}
	def := DefaultPresetCodingParameters(maxVal, near)

	t := Traits{
		MaxVal: maxVal,
		Near:   near,
		T1:     orDefault(preset.T1, def.T1),
		T2:     orDefault(preset.T2, def.T2),
		T3:     orDefault(preset.T3, def.T3),
		Reset:  orDefault(preset.Reset, def.Reset),
	}
	t.Range = (maxVal+2*near)/(2*near+1) + 1
	t.Qbpp = log2Ceil(t.Range)
	t.Bpp = max(2, log2Ceil(maxVal+1))
	t.Limit = 2 * (t.Bpp + max(8, t.Bpp))
	return t
}

func orDefault(v, def int) int {
	if v == 0 {
		return def
	}
	return v
}

// log2Ceil returns the smallest n with 1<<n >= v.
func log2Ceil(v int) int {
	n := 0
	for (1 << n) < v {
		n++
	}
	return n
}

// QuantizeGradient maps a local gradient onto -4..4.
func (t *Traits) QuantizeGradient(d int) int {
	switch {
	case d <= -t.T3:
		return -4
	case d <= -t.T2:
		return -3
	case d <= -t.T1:
		return -2
	case d < -t.Near:
		return -1
	case d <= t.Near:
		return 0
	case d < t.T1:
		return 1
	case d < t.T2:
		return 2
	case d < t.T3:
		return 3
	default:
		return 4
	}
}

// CorrectPrediction clamps a (bias corrected) prediction to [0, MAXVAL].
func (t *Traits) CorrectPrediction(p int) int {
	return clip(p, 0, t.MaxVal)
}

// ComputeErrorValue quantizes a prediction error for NEAR and reduces it modulo RANGE.
func (t *Traits) ComputeErrorValue(e int) int {
	return t.moduloRange(t.quantize(e))
}

// ComputeReconstructedSample rebuilds the sample the decoder will see.
func (t *Traits) ComputeReconstructedSample(predicted, errorValue int) int {
	return t.fixReconstructedValue(predicted + t.dequantize(errorValue))
}

// IsNear reports whether two samples are within the NEAR tolerance.
func (t *Traits) IsNear(lhs, rhs int) bool {
	return abs(lhs-rhs) <= t.Near
}

func (t *Traits) quantize(e int) int {
	if t.Near == 0 {
		return e
	}
	if e > 0 {
		return (e + t.Near) / (2*t.Near + 1)
	}
	return -(t.Near - e) / (2*t.Near + 1)
}

func (t *Traits) dequantize(e int) int {
	return e * (2*t.Near + 1)
}

func (t *Traits) moduloRange(e int) int {
	if e < 0 {
		e += t.Range
	}
	if e >= (t.Range+1)/2 {
		e -= t.Range
	}
	return e
}

func (t *Traits) fixReconstructedValue(v int) int {
	if v < -t.Near {
		v += t.Range * (2*t.Near + 1)
	} else if v > t.MaxVal+t.Near {
		v -= t.Range * (2*t.Near + 1)
	}
	return t.CorrectPrediction(v)
}

// validatePreset checks explicit LSE values against C.2.4.1.1.
func validatePreset(p PresetCodingParameters, bitsPerSample, near int) error {
	maxPossible := (1 << bitsPerSample) - 1
	maxVal := orDefault(p.MaxVal, maxPossible)
	if maxVal < 1 || maxVal > maxPossible {
		return newError(CodeInvalidArgumentPCParameters, ErrInvalidParameter, "MAXVAL %d outside [1, %d]", p.MaxVal, maxPossible)
	}
	def := DefaultPresetCodingParameters(maxVal, near)
	t1 := orDefault(p.T1, def.T1)
	t2 := orDefault(p.T2, def.T2)
	t3 := orDefault(p.T3, def.T3)
	reset := orDefault(p.Reset, def.Reset)
	if t1 < near+1 || t1 > maxVal {
		return newError(CodeInvalidArgumentPCParameters, ErrInvalidParameter, "T1 %d outside [%d, %d]", t1, near+1, maxVal)
	}
	if t2 < t1 || t2 > maxVal {
		return newError(CodeInvalidArgumentPCParameters, ErrInvalidParameter, "T2 %d outside [%d, %d]", t2, t1, maxVal)
	}
	if t3 < t2 || t3 > maxVal {
		return newError(CodeInvalidArgumentPCParameters, ErrInvalidParameter, "T3 %d outside [%d, %d]", t3, t2, maxVal)
	}
	if reset < 3 || reset > max(255, maxVal) {
		return newError(CodeInvalidArgumentPCParameters, ErrInvalidParameter, "RESET %d outside [3, %d]", reset, max(255, maxVal))
	}
	return nil
}

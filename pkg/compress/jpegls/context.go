package jpegls

const (
	// contextCount is the number of regular contexts after sign merging (9*9*9+1)/2.
	contextCount = 365
	maxC         = 127
	minC         = -128
	maxK         = 31
)

// ContextModel maintains the state for context modeling (gradients and bias).
// One model belongs to exactly one scan of one encoder or decoder.
type ContextModel struct {
	traits *Traits

	// Regular mode statistics, indexed by the sign-merged context id Q.
	A [contextCount]int // accumulated magnitude of prediction errors
	B [contextCount]int // accumulated bias
	C [contextCount]int // bias correction applied to the prediction
	N [contextCount]int // occurrences

	// Run interruption contexts 365 (Ra != Rb) and 366 (Ra == Rb).
	Run [2]RunContext
}

// NewContextModel returns a model initialised as in A.2.1.
func NewContextModel(t *Traits) *ContextModel {
	cm := &ContextModel{traits: t}
	cm.Reset()
	return cm
}

// Reset restores the initial statistics. Called at the start of every scan.
func (cm *ContextModel) Reset() {
	aInit := max(2, (cm.traits.Range+32)/64)
	for i := 0; i < contextCount; i++ {
		cm.A[i] = aInit
		cm.B[i] = 0
		cm.C[i] = 0
		cm.N[i] = 1
	}
	cm.Run[0] = RunContext{Type: 0, A: aInit, N: 1}
	cm.Run[1] = RunContext{Type: 1, A: aInit, N: 1}
}

// ContextID combines quantized gradients into (Q1*9+Q2)*9+Q3, negative for mirrored contexts.
func ContextID(Q1, Q2, Q3 int) int {
	return (Q1*9+Q2)*9 + Q3
}

// GetContextIndex computes Q from gradients D1, D2, D3.
// If the first non-zero quantized gradient is negative the triple is negated
// and sign is -1, which folds the 729 combinations onto 365 contexts.
func (cm *ContextModel) GetContextIndex(D1, D2, D3 int) (int, int) {
	qs := ContextID(cm.traits.QuantizeGradient(D1), cm.traits.QuantizeGradient(D2), cm.traits.QuantizeGradient(D3))
	return splitContextID(qs)
}

func splitContextID(qs int) (int, int) {
	if qs < 0 {
		return -qs, -1
	}
	return qs, 1
}

// Correct applies the bias correction C[Q] with the context sign and clamps to the sample range.
func (cm *ContextModel) Correct(Q, sign, predicted int) int {
	return cm.traits.CorrectPrediction(predicted + sign*cm.C[Q])
}

// ComputeK calculates the Golomb-Rice parameter k for context Q (A.5.1).
func (cm *ContextModel) ComputeK(Q int) int {
	n, a := cm.N[Q], cm.A[Q]
	k := 0
	for k < maxK && (n<<k) < a {
		k++
	}
	return k
}

// ErrorCorrection is the k == 0 lossless mapping tweak of A.5.2: -1 when
// 2*B[Q] <= -N[Q], else 0. The mapped error is XORed with it.
func (cm *ContextModel) ErrorCorrection(Q, k int) int {
	if k != 0 || cm.traits.Near != 0 {
		return 0
	}
	if 2*cm.B[Q]+cm.N[Q]-1 < 0 {
		return -1
	}
	return 0
}

// UpdateStats updates context Q with the prediction error ErrVal (A.6.1, A.6.2).
// ErrVal is the sign-adjusted, quantized error before mapping.
func (cm *ContextModel) UpdateStats(Q int, ErrVal int) {
	a := cm.A[Q] + abs(ErrVal)
	b := cm.B[Q] + ErrVal*(2*cm.traits.Near+1)
	n := cm.N[Q]

	if n == cm.traits.Reset {
		a >>= 1
		b >>= 1
		n >>= 1
	}
	n++

	cm.A[Q] = a
	cm.N[Q] = n

	if b+n <= 0 {
		b += n
		if b <= -n {
			b = -n + 1
		}
		if cm.C[Q] > minC {
			cm.C[Q]--
		}
	} else if b > 0 {
		b -= n
		if b > 0 {
			b = 0
		}
		if cm.C[Q] < maxC {
			cm.C[Q]++
		}
	}
	cm.B[Q] = b
}

// RunContext holds the statistics for a run interruption sample (A.7.2).
type RunContext struct {
	Type int // RItype: 1 when Ra == Rb within NEAR
	A    int
	N    int
	Nn   int // count of negative errors
}

// GolombK computes k for the interruption sample (A.7.2.1).
func (rc *RunContext) GolombK() int {
	temp := rc.A + (rc.N>>1)*rc.Type
	nTest := rc.N
	k := 0
	for nTest < temp && k < maxK {
		nTest <<= 1
		k++
	}
	return k
}

// ComputeMap decides the extra mapping bit for ErrVal (A.7.2.2).
func (rc *RunContext) ComputeMap(errVal, k int) bool {
	switch {
	case k == 0 && errVal > 0 && 2*rc.Nn < rc.N:
		return true
	case errVal < 0 && 2*rc.Nn >= rc.N:
		return true
	case errVal < 0 && k != 0:
		return true
	}
	return false
}

// MapError folds errVal into EMErrval.
func (rc *RunContext) MapError(errVal, k int) int {
	m := 2*abs(errVal) - rc.Type
	if rc.ComputeMap(errVal, k) {
		m--
	}
	return m
}

// UnmapError reverses MapError given EMErrval.
func (rc *RunContext) UnmapError(mapped, k int) int {
	temp := mapped + rc.Type
	mapBit := temp & 1
	absErr := (temp + mapBit) / 2
	if (k != 0 || 2*rc.Nn >= rc.N) == (mapBit != 0) {
		return -absErr
	}
	return absErr
}

// Update adjusts the statistics after coding an interruption sample (A.7.2.3).
func (rc *RunContext) Update(errVal, mapped, reset int) {
	if errVal < 0 {
		rc.Nn++
	}
	rc.A += (mapped + 1 - rc.Type) >> 1
	if rc.N == reset {
		rc.A >>= 1
		rc.N >>= 1
		rc.Nn >>= 1
	}
	rc.N++
}

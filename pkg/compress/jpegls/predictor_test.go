package jpegls

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPredictMED(t *testing.T) {
	tests := []struct {
		Ra, Rb, Rc int
		Want       int
	}{
		{10, 10, 10, 10},
		{100, 200, 300, 100}, // Rc above both: min
		{200, 100, 50, 200},  // Rc below both: max
		{10, 30, 20, 20},     // planar: Ra+Rb-Rc
		{0, 0, 0, 0},
		{255, 0, 255, 0},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.Want, PredictMED(tt.Ra, tt.Rb, tt.Rc), "PredictMED(%d, %d, %d)", tt.Ra, tt.Rb, tt.Rc)
	}
}

func TestGradients(t *testing.T) {
	d1, d2, d3 := Gradients(1, 2, 4, 8)
	assert.Equal(t, 6, d1) // Rd-Rb
	assert.Equal(t, -2, d2)
	assert.Equal(t, 3, d3)
}

func TestDefaultPresetCodingParameters(t *testing.T) {
	tests := []struct {
		name       string
		maxVal     int
		near       int
		t1, t2, t3 int
	}{
		{"8bit", 255, 0, 3, 7, 21},
		{"8bit near 2", 255, 2, 9, 17, 35},
		{"12bit", 4095, 0, 18, 67, 276},
		{"16bit", 65535, 0, 18, 67, 276},
		{"2bit", 3, 0, 2, 3, 3},
		{"6bit", 63, 0, 2, 3, 5},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := DefaultPresetCodingParameters(tt.maxVal, tt.near)
			assert.Equal(t, tt.maxVal, p.MaxVal)
			assert.Equal(t, tt.t1, p.T1, "T1")
			assert.Equal(t, tt.t2, p.T2, "T2")
			assert.Equal(t, tt.t3, p.T3, "T3")
			assert.Equal(t, 64, p.Reset)
		})
	}
}

func TestNewTraits(t *testing.T) {
	tr := NewTraits(8, 0, PresetCodingParameters{})
	assert.Equal(t, 256, tr.Range)
	assert.Equal(t, 8, tr.Qbpp)
	assert.Equal(t, 32, tr.Limit)

	tr = NewTraits(8, 3, PresetCodingParameters{})
	assert.Equal(t, (255+6)/7+1, tr.Range)
	assert.Equal(t, 6, tr.Qbpp)

	tr = NewTraits(16, 0, PresetCodingParameters{})
	assert.Equal(t, 64, tr.Limit)
	assert.Equal(t, 16, tr.Qbpp)

	tr = NewTraits(12, 0, PresetCodingParameters{MaxVal: 1000, T1: 4, T2: 9, T3: 30, Reset: 32})
	assert.Equal(t, 1000, tr.MaxVal)
	assert.Equal(t, 10, tr.Bpp)
	assert.Equal(t, 4, tr.T1)
	assert.Equal(t, 32, tr.Reset)
}

func TestTraitsErrorValue(t *testing.T) {
	tr := NewTraits(8, 0, PresetCodingParameters{})
	assert.Equal(t, 0, tr.ComputeErrorValue(0))
	assert.Equal(t, 127, tr.ComputeErrorValue(127))
	assert.Equal(t, -128, tr.ComputeErrorValue(128))
	assert.Equal(t, 1, tr.ComputeErrorValue(-255))

	near := NewTraits(8, 2, PresetCodingParameters{})
	for e := -255; e <= 255; e++ {
		q := near.ComputeErrorValue(e)
		rec := near.ComputeReconstructedSample(100, q)
		if 100+e >= 0 && 100+e <= 255 {
			assert.LessOrEqual(t, abs(rec-(100+e)), 2, "error %d", e)
		}
	}
}

func TestContextModel_GetContextIndex(t *testing.T) {
	tr := NewTraits(8, 0, PresetCodingParameters{})
	cm := NewContextModel(&tr)

	idx, sign := cm.GetContextIndex(0, 0, 0)
	assert.Equal(t, 0, idx)
	assert.Equal(t, 1, sign)

	// T1=3: D1=5 -> Q1=2 -> 2*81
	idx, _ = cm.GetContextIndex(5, 0, 0)
	assert.Equal(t, 162, idx)

	idx2, sign2 := cm.GetContextIndex(-5, 0, 0)
	assert.Equal(t, 162, idx2)
	assert.Equal(t, -1, sign2)

	idx, sign = cm.GetContextIndex(0, -100, 1)
	assert.Equal(t, 4*9-1, idx)
	assert.Equal(t, -1, sign)

	// all merged ids fit the table
	for q1 := -4; q1 <= 4; q1++ {
		for q2 := -4; q2 <= 4; q2++ {
			for q3 := -4; q3 <= 4; q3++ {
				q, _ := splitContextID(ContextID(q1, q2, q3))
				require.Less(t, q, contextCount)
			}
		}
	}
}

func TestScanCoder_ContextIndex(t *testing.T) {
	sc := newScanCoder(NewTraits(8, 0, PresetCodingParameters{}), 4, 1, InterleaveNone)
	copy(sc.prev[0], []int{10, 10, 10, 10, 10})
	sc.startLine(0)

	// flat neighbourhood selects run mode
	Q, sg := sc.contextIndex(0, 0)
	assert.Equal(t, 0, Q)
	assert.Equal(t, 1, sg)

	sc.curr[0][1] = 15
	sc.prev[0][3] = 4
	Q, sg = sc.contextIndex(0, 1)
	wantQ, wantSign := sc.model.GetContextIndex(Gradients(15, 10, 10, 4))
	assert.Equal(t, wantQ, Q)
	assert.Equal(t, wantSign, sg)
	assert.Equal(t, -1, sg)
}

func TestContextModel_Init(t *testing.T) {
	tr := NewTraits(8, 0, PresetCodingParameters{})
	cm := NewContextModel(&tr)
	assert.Equal(t, 4, cm.A[0])
	assert.Equal(t, 1, cm.N[364])
	assert.Equal(t, 4, cm.Run[1].A)
	assert.Equal(t, 1, cm.Run[1].Type)

	tr16 := NewTraits(16, 0, PresetCodingParameters{})
	assert.Equal(t, (65536+32)/64, NewContextModel(&tr16).A[7])

	tr2 := NewTraits(2, 0, PresetCodingParameters{})
	assert.Equal(t, 2, NewContextModel(&tr2).A[0])
}

func TestContextModel_ComputeK(t *testing.T) {
	tr := NewTraits(8, 0, PresetCodingParameters{})
	cm := NewContextModel(&tr)
	assert.Equal(t, 2, cm.ComputeK(10))

	cm.A[10], cm.N[10] = 1, 1
	assert.Equal(t, 0, cm.ComputeK(10))
	cm.A[10], cm.N[10] = 100, 3
	assert.Equal(t, 6, cm.ComputeK(10))
}

func TestContextModel_UpdateStats(t *testing.T) {
	tr := NewTraits(8, 0, PresetCodingParameters{})

	cm := NewContextModel(&tr)
	cm.UpdateStats(5, 3)
	assert.Equal(t, 7, cm.A[5])
	assert.Equal(t, 0, cm.B[5])
	assert.Equal(t, 1, cm.C[5])
	assert.Equal(t, 2, cm.N[5])

	cm = NewContextModel(&tr)
	cm.UpdateStats(5, -3)
	assert.Equal(t, 7, cm.A[5])
	assert.Equal(t, -1, cm.B[5])
	assert.Equal(t, -1, cm.C[5])

	// halving at RESET
	cm = NewContextModel(&tr)
	for range 63 {
		cm.UpdateStats(9, 0)
	}
	require.Equal(t, 64, cm.N[9])
	cm.UpdateStats(9, 2)
	assert.Equal(t, 33, cm.N[9])
	assert.Equal(t, 3, cm.A[9])

	// C saturates
	cm = NewContextModel(&tr)
	for range 1000 {
		cm.UpdateStats(1, 200)
	}
	assert.Equal(t, maxC, cm.C[1])
	for range 5000 {
		cm.UpdateStats(1, -200)
	}
	assert.Equal(t, minC, cm.C[1])
}

func TestContextModel_ErrorCorrection(t *testing.T) {
	tr := NewTraits(8, 0, PresetCodingParameters{})
	cm := NewContextModel(&tr)
	assert.Equal(t, 0, cm.ErrorCorrection(3, 0))
	cm.B[3] = -1
	assert.Equal(t, -1, cm.ErrorCorrection(3, 0))
	assert.Equal(t, 0, cm.ErrorCorrection(3, 1))

	nearTr := NewTraits(8, 1, PresetCodingParameters{})
	nm := NewContextModel(&nearTr)
	nm.B[3] = -1
	assert.Equal(t, 0, nm.ErrorCorrection(3, 0))
}

func TestRunContext_MapRoundTrip(t *testing.T) {
	for _, typ := range []int{0, 1} {
		for _, state := range []struct{ a, n, nn int }{{4, 1, 0}, {40, 10, 2}, {40, 10, 7}, {3, 20, 15}} {
			for e := -40; e <= 40; e++ {
				if typ == 1 && e == 0 {
					continue
				}
				rc := RunContext{Type: typ, A: state.a, N: state.n, Nn: state.nn}
				k := rc.GolombK()
				m := rc.MapError(e, k)
				require.GreaterOrEqual(t, m, 0, "type %d e %d", typ, e)
				assert.Equal(t, e, rc.UnmapError(m, k), "type %d state %+v k %d", typ, state, k)
			}
		}
	}
}

func TestRunContext_Update(t *testing.T) {
	rc := RunContext{Type: 0, A: 4, N: 1}
	rc.Update(-2, 3, 64)
	assert.Equal(t, 1, rc.Nn)
	assert.Equal(t, 6, rc.A)
	assert.Equal(t, 2, rc.N)

	rc = RunContext{Type: 1, A: 10, N: 64, Nn: 9}
	rc.Update(3, 5, 64)
	assert.Equal(t, 6, rc.A) // (10+2)/2
	assert.Equal(t, 33, rc.N)
	assert.Equal(t, 4, rc.Nn)
}

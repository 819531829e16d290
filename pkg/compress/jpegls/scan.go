package jpegls

// ScanStats counts how the samples of the last encode were coded.
type ScanStats struct {
	RegularSamples   int // samples coded with a regular mode codeword
	RunSamples       int // samples absorbed by run length codes
	RunInterruptions int // pixels coded with a run interruption codeword
	Escapes          int // codewords that hit LIMIT and carry a raw qbpp bit value
}

func (st *ScanStats) add(o ScanStats) {
	st.RegularSamples += o.RegularSamples
	st.RunSamples += o.RunSamples
	st.RunInterruptions += o.RunInterruptions
	st.Escapes += o.Escapes
}

// scanCoder holds the per scan state shared by encoding and decoding: the
// context model, two line buffers per component and the run indices.
//
// Line buffers are width+2 long, sample x lives at index x+1. Index 0 holds
// Ra for x=0 and index width+1 holds Rd for the last column.
type scanCoder struct {
	traits Traits
	model  *ContextModel
	width  int
	comps  int
	ilv    InterleaveMode

	prev     [][]int
	curr     [][]int
	runIndex []int
	ri       int
	state    runState
	qs       []int // context of each component at the current pixel
	signs    []int

	bw    *BitWriter
	br    *BitReader
	stats ScanStats
}

func newScanCoder(t Traits, width, comps int, ilv InterleaveMode) *scanCoder {
	s := &scanCoder{
		traits:   t,
		width:    width,
		comps:    comps,
		ilv:      ilv,
		prev:     make([][]int, comps),
		curr:     make([][]int, comps),
		runIndex: make([]int, comps),
		qs:       make([]int, comps),
		signs:    make([]int, comps),
	}
	s.model = NewContextModel(&s.traits)
	for c := range comps {
		s.prev[c] = make([]int, width+2)
		s.curr[c] = make([]int, width+2)
	}
	return s
}

// startLine applies the edge rules of A.2.1 for component line c.
func (s *scanCoder) startLine(c int) {
	s.prev[c][s.width+1] = s.prev[c][s.width]
	s.curr[c][0] = s.prev[c][1]
}

// endLine makes the current line the previous one.
func (s *scanCoder) endLine(c int) {
	s.prev[c], s.curr[c] = s.curr[c], s.prev[c]
}

// contextIndex returns Q and the context sign for sample x of component c.
func (s *scanCoder) contextIndex(c, x int) (int, int) {
	prev, curr := s.prev[c], s.curr[c]
	return s.model.GetContextIndex(Gradients(curr[x], prev[x+1], prev[x], prev[x+2]))
}

func (s *scanCoder) predict(c, x int) int {
	return PredictMED(s.curr[c][x], s.prev[c][x+1], s.prev[c][x])
}

// encodeLine codes one line of component c (InterleaveNone and InterleaveLine).
func (s *scanCoder) encodeLine(c int) {
	s.startLine(c)
	s.ri = c
	s.state = runState{}
	for x := 0; x < s.width; {
		switch s.state.mode {
		case modeRun:
			x += s.encodeRun(c, c+1, x)
			s.state = runState{}
		default:
			Q, sg := s.contextIndex(c, x)
			if Q == 0 {
				s.state.mode = modeRun
				continue
			}
			s.curr[c][x+1] = s.encodeRegular(Q, sg, s.curr[c][x+1], s.predict(c, x))
			x++
		}
	}
}

// encodeSampleLine codes one line of all components pixel by pixel (InterleaveSample).
func (s *scanCoder) encodeSampleLine() {
	for c := range s.comps {
		s.startLine(c)
	}
	s.ri = 0
	s.state = runState{}
	for x := 0; x < s.width; {
		if s.state.mode == modeRun {
			x += s.encodeRun(0, s.comps, x)
			s.state = runState{}
			continue
		}
		if s.pixelContexts(x) {
			s.state.mode = modeRun
			continue
		}
		for c := range s.comps {
			s.curr[c][x+1] = s.encodeRegular(s.qs[c], s.signs[c], s.curr[c][x+1], s.predict(c, x))
		}
		x++
	}
}

// pixelContexts fills s.qs and s.signs for pixel x and reports whether all contexts are zero.
func (s *scanCoder) pixelContexts(x int) bool {
	flat := true
	for c := range s.comps {
		s.qs[c], s.signs[c] = s.contextIndex(c, x)
		if s.qs[c] != 0 {
			flat = false
		}
	}
	return flat
}

// encodeRegular codes sample ix and returns the value the decoder will reconstruct.
func (s *scanCoder) encodeRegular(Q, sg, ix, predicted int) int {
	k := s.model.ComputeK(Q)
	px := s.model.Correct(Q, sg, predicted)
	errVal := s.traits.ComputeErrorValue(sg * (ix - px))
	if s.bw.EncodeMappedValue(k, MapErrorValue(s.model.ErrorCorrection(Q, k)^errVal), s.traits.Limit, s.traits.Qbpp) {
		s.stats.Escapes++
	}
	s.model.UpdateStats(Q, errVal)
	s.stats.RegularSamples++
	return s.traits.ComputeReconstructedSample(px, sg*errVal)
}

// decodeLine mirrors encodeLine.
func (s *scanCoder) decodeLine(c int) error {
	s.startLine(c)
	s.ri = c
	s.state = runState{}
	for x := 0; x < s.width; {
		switch s.state.mode {
		case modeRun:
			n, err := s.decodeRun(c, c+1, x)
			if err != nil {
				return err
			}
			x += n
			s.state = runState{}
		default:
			Q, sg := s.contextIndex(c, x)
			if Q == 0 {
				s.state.mode = modeRun
				continue
			}
			v, err := s.decodeRegular(Q, sg, s.predict(c, x))
			if err != nil {
				return err
			}
			s.curr[c][x+1] = v
			x++
		}
	}
	return nil
}

// decodeSampleLine mirrors encodeSampleLine.
func (s *scanCoder) decodeSampleLine() error {
	for c := range s.comps {
		s.startLine(c)
	}
	s.ri = 0
	s.state = runState{}
	for x := 0; x < s.width; {
		if s.state.mode == modeRun {
			n, err := s.decodeRun(0, s.comps, x)
			if err != nil {
				return err
			}
			x += n
			s.state = runState{}
			continue
		}
		if s.pixelContexts(x) {
			s.state.mode = modeRun
			continue
		}
		for c := range s.comps {
			v, err := s.decodeRegular(s.qs[c], s.signs[c], s.predict(c, x))
			if err != nil {
				return err
			}
			s.curr[c][x+1] = v
		}
		x++
	}
	return nil
}

func (s *scanCoder) decodeRegular(Q, sg, predicted int) (int, error) {
	k := s.model.ComputeK(Q)
	px := s.model.Correct(Q, sg, predicted)
	mapped, err := s.br.DecodeValue(k, s.traits.Limit, s.traits.Qbpp)
	if err != nil {
		return 0, err
	}
	errVal := UnmapErrorValue(mapped)
	if k == 0 {
		errVal ^= s.model.ErrorCorrection(Q, k)
	}
	s.model.UpdateStats(Q, errVal)
	return s.traits.ComputeReconstructedSample(px, sg*errVal), nil
}

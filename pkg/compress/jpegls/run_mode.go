package jpegls

// jTable is J[RUNindex] from A.7.1.1: the run length order for each run index.
var jTable = [32]int{
	0, 0, 0, 0, 1, 1, 1, 1, 2, 2, 2, 2, 3, 3, 3, 3,
	4, 4, 5, 5, 6, 6, 7, 7, 8, 9, 10, 11, 12, 13, 14, 15,
}

// codingMode is the state of the per line coding loop.
type codingMode int

const (
	modeRegular codingMode = iota
	modeRun
)

func (m codingMode) String() string {
	if m == modeRun {
		return "run"
	}
	return "regular"
}

// runState tracks the active mode and the length of the current run.
type runState struct {
	mode   codingMode
	length int
}

func (s *scanCoder) incRunIndex() {
	if s.runIndex[s.ri] < len(jTable)-1 {
		s.runIndex[s.ri]++
	}
}

func (s *scanCoder) decRunIndex() {
	if s.runIndex[s.ri] > 0 {
		s.runIndex[s.ri]--
	}
}

// runContinues reports whether every component in [lo, hi) at pos is within NEAR of Ra.
func (s *scanCoder) runContinues(lo, hi, x, pos int) bool {
	for c := lo; c < hi; c++ {
		if !s.traits.IsNear(s.curr[c][pos], s.curr[c][x]) {
			return false
		}
	}
	return true
}

// encodeRun codes the run starting at pixel x over components [lo, hi).
// Returns the number of pixels consumed, including an interruption pixel.
func (s *scanCoder) encodeRun(lo, hi, x int) int {
	remain := s.width - x
	s.state.length = 0
	for s.state.length < remain && s.runContinues(lo, hi, x, x+1+s.state.length) {
		for c := lo; c < hi; c++ {
			s.curr[c][x+1+s.state.length] = s.curr[c][x]
		}
		s.state.length++
	}
	length := s.state.length
	s.stats.RunSamples += length * (hi - lo)

	s.encodeRunLength(length, length == remain)
	if length == remain {
		return length
	}

	s.encodeInterruption(lo, hi, x, x+1+length)
	s.stats.RunInterruptions++
	s.decRunIndex()
	return length + 1
}

// encodeRunLength writes the run length codes of A.7.1.1.
func (s *scanCoder) encodeRunLength(length int, endOfLine bool) {
	for length >= 1<<jTable[s.runIndex[s.ri]] {
		s.bw.WriteBit(1)
		length -= 1 << jTable[s.runIndex[s.ri]]
		s.incRunIndex()
	}
	if endOfLine {
		if length != 0 {
			s.bw.WriteBit(1)
		}
		return
	}
	s.bw.WriteBits(uint32(length), jTable[s.runIndex[s.ri]]+1)
}

// encodeInterruption codes the sample(s) at pos that ended the run (A.7.2).
// x is the pixel where the run started, its left neighbour holds the run value.
func (s *scanCoder) encodeInterruption(lo, hi, x, pos int) {
	t := &s.traits
	if hi-lo > 1 {
		for c := lo; c < hi; c++ {
			ra, rb := s.curr[c][x], s.prev[c][pos]
			sg := sign(rb - ra)
			e := t.ComputeErrorValue(sg * (s.curr[c][pos] - rb))
			s.encodeInterruptionError(&s.model.Run[0], e)
			s.curr[c][pos] = t.ComputeReconstructedSample(rb, e*sg)
		}
		return
	}

	ra, rb := s.curr[lo][x], s.prev[lo][pos]
	if t.IsNear(ra, rb) {
		e := t.ComputeErrorValue(s.curr[lo][pos] - ra)
		s.encodeInterruptionError(&s.model.Run[1], e)
		s.curr[lo][pos] = t.ComputeReconstructedSample(ra, e)
		return
	}
	sg := sign(rb - ra)
	e := t.ComputeErrorValue(sg * (s.curr[lo][pos] - rb))
	s.encodeInterruptionError(&s.model.Run[0], e)
	s.curr[lo][pos] = t.ComputeReconstructedSample(rb, e*sg)
}

func (s *scanCoder) encodeInterruptionError(rc *RunContext, errVal int) {
	k := rc.GolombK()
	mapped := rc.MapError(errVal, k)
	if s.bw.EncodeMappedValue(k, mapped, s.traits.Limit-jTable[s.runIndex[s.ri]]-1, s.traits.Qbpp) {
		s.stats.Escapes++
	}
	rc.Update(errVal, mapped, s.traits.Reset)
}

// decodeRun mirrors encodeRun.
func (s *scanCoder) decodeRun(lo, hi, x int) (int, error) {
	remain := s.width - x
	length, err := s.decodeRunLength(remain)
	if err != nil {
		return 0, err
	}
	s.state.length = length
	for i := 1; i <= length; i++ {
		for c := lo; c < hi; c++ {
			s.curr[c][x+i] = s.curr[c][x]
		}
	}
	if length == remain {
		return length, nil
	}

	if err := s.decodeInterruption(lo, hi, x, x+1+length); err != nil {
		return 0, err
	}
	s.decRunIndex()
	return length + 1, nil
}

func (s *scanCoder) decodeRunLength(remain int) (int, error) {
	index := 0
	for index < remain {
		bit, err := s.br.ReadBit()
		if err != nil {
			return 0, err
		}
		if bit == 0 {
			if j := jTable[s.runIndex[s.ri]]; j > 0 {
				v, err := s.br.ReadBits(j)
				if err != nil {
					return 0, err
				}
				index += int(v)
			}
			if index >= remain {
				return 0, newError(CodeInvalidEncodedData, ErrInvalidData, "run length %d exceeds line", index)
			}
			return index, nil
		}
		block := 1 << jTable[s.runIndex[s.ri]]
		count := min(block, remain-index)
		index += count
		if count == block {
			s.incRunIndex()
		}
	}
	return index, nil
}

func (s *scanCoder) decodeInterruption(lo, hi, x, pos int) error {
	t := &s.traits
	if hi-lo > 1 {
		for c := lo; c < hi; c++ {
			ra, rb := s.curr[c][x], s.prev[c][pos]
			e, err := s.decodeInterruptionError(&s.model.Run[0])
			if err != nil {
				return err
			}
			s.curr[c][pos] = t.ComputeReconstructedSample(rb, e*sign(rb-ra))
		}
		return nil
	}

	ra, rb := s.curr[lo][x], s.prev[lo][pos]
	if t.IsNear(ra, rb) {
		e, err := s.decodeInterruptionError(&s.model.Run[1])
		if err != nil {
			return err
		}
		s.curr[lo][pos] = t.ComputeReconstructedSample(ra, e)
		return nil
	}
	e, err := s.decodeInterruptionError(&s.model.Run[0])
	if err != nil {
		return err
	}
	s.curr[lo][pos] = t.ComputeReconstructedSample(rb, e*sign(rb-ra))
	return nil
}

func (s *scanCoder) decodeInterruptionError(rc *RunContext) (int, error) {
	k := rc.GolombK()
	mapped, err := s.br.DecodeValue(k, s.traits.Limit-jTable[s.runIndex[s.ri]]-1, s.traits.Qbpp)
	if err != nil {
		return 0, err
	}
	e := rc.UnmapError(mapped, k)
	rc.Update(e, mapped, s.traits.Reset)
	return e, nil
}

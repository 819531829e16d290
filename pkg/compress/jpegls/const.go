package jpegls

// Markers
const (
	MarkerSOI   = 0xFFD8 // Start of Image
	MarkerEOI   = 0xFFD9 // End of Image
	MarkerSOS   = 0xFFDA // Start of Scan
	MarkerDNL   = 0xFFDC
	MarkerDRI   = 0xFFDD // Define Restart Interval
	MarkerCOM   = 0xFFFE // Comment
	MarkerAPP0  = 0xFFE0
	MarkerAPP15 = 0xFFEF
	MarkerRST0  = 0xFFD0
	MarkerRST7  = 0xFFD7
	MarkerLSE   = 0xFFF8 // JPEG-LS Extension (Parameters)
	MarkerSOF55 = 0xFFF7 // Start of Frame (JPEG-LS)
)

// LSE parameter IDs
const (
	lsePresetCodingParameters = 1
)

const (
	defaultReset = 64
	maxWidth     = 65535
	maxHeight    = 65535

	// MaxNear is the largest NEAR value representable in the SOS segment.
	MaxNear = 255
)

// FrameInfo describes the image handed to the encoder.
type FrameInfo struct {
	Width          int
	Height         int
	BitsPerSample  int
	ComponentCount int
}

// InterleaveMode selects how components share a scan.
type InterleaveMode int

const (
	// InterleaveNone writes one scan per component. Source is planar.
	InterleaveNone InterleaveMode = 0
	// InterleaveLine interleaves components line by line. Source is pixel interleaved.
	InterleaveLine InterleaveMode = 1
	// InterleaveSample interleaves components pixel by pixel. Source is pixel interleaved.
	InterleaveSample InterleaveMode = 2
)

func (m InterleaveMode) String() string {
	switch m {
	case InterleaveNone:
		return "none"
	case InterleaveLine:
		return "line"
	case InterleaveSample:
		return "sample"
	default:
		return "invalid"
	}
}

// ParseInterleaveMode accepts the names returned by String and the numeric ILV values.
func ParseInterleaveMode(s string) (InterleaveMode, error) {
	switch s {
	case "none", "0", "":
		return InterleaveNone, nil
	case "line", "1":
		return InterleaveLine, nil
	case "sample", "2":
		return InterleaveSample, nil
	}
	return 0, newError(CodeInvalidArgumentInterleaveMode, ErrInvalidParameter, "unknown interleave mode %q", s)
}

// EncodingOptions is a bitmask of optional stream features.
type EncodingOptions int

const (
	OptionNone EncodingOptions = 0
	// OptionEvenDestinationSize pads the stream with a 0xFF fill byte before EOI when its length is odd.
	OptionEvenDestinationSize EncodingOptions = 1
	// OptionIncludeVersionNumber writes a COM segment carrying the codec version.
	OptionIncludeVersionNumber EncodingOptions = 2
	// OptionIncludePCParametersJAI always writes the LSE preset coding parameters segment.
	OptionIncludePCParametersJAI EncodingOptions = 4

	optionsMask = OptionEvenDestinationSize | OptionIncludeVersionNumber | OptionIncludePCParametersJAI
)

// PresetCodingParameters are the LSE type 1 values. Zero fields select the defaults.
type PresetCodingParameters struct {
	MaxVal int
	T1     int
	T2     int
	T3     int
	Reset  int
}

// FrameHeader is the SOF55 content.
type FrameHeader struct {
	Precision    int
	Height       int
	Width        int
	Components   int
	ComponentIDs []int
}

// ScanHeader is the SOS content.
type ScanHeader struct {
	Components   int
	ComponentIDs []int
	Near         int            // Near-lossless parameter (0 = lossless)
	ILV          InterleaveMode // Interleave mode
	Al           int            // Point transform
	Ah           int
}

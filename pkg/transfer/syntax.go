// Package transfer names the DICOM transfer syntaxes a JPEG-LS stream is stored under.
package transfer

import "fmt"

// Syntax represents a DICOM Transfer Syntax
type Syntax string

const (
	// ExplicitVRLittleEndian is the uncompressed form of the same pixel data.
	ExplicitVRLittleEndian Syntax = "1.2.840.10008.1.2.1"

	JPEGLSLossless     Syntax = "1.2.840.10008.1.2.4.80"
	JPEGLSNearLossless Syntax = "1.2.840.10008.1.2.4.81"
)

// ForNear picks the syntax for a stream encoded with the given NEAR value.
func ForNear(near int) Syntax {
	if near == 0 {
		return JPEGLSLossless
	}
	return JPEGLSNearLossless
}

// IsJPEGLS returns true if this is a JPEG-LS transfer syntax
func (s Syntax) IsJPEGLS() bool {
	return s == JPEGLSLossless || s == JPEGLSNearLossless
}

// IsLossless reports whether pixel data survives unchanged.
func (s Syntax) IsLossless() bool {
	return s != JPEGLSNearLossless
}

// Name returns a human-readable name for the transfer syntax
func (s Syntax) Name() string {
	switch s {
	case ExplicitVRLittleEndian:
		return "Explicit VR Little Endian"
	case JPEGLSLossless:
		return "JPEG-LS Lossless"
	case JPEGLSNearLossless:
		return "JPEG-LS Near-Lossless"
	default:
		return string(s)
	}
}

// FromUID converts a UID string to a Syntax
func FromUID(uid string) (Syntax, error) {
	switch s := Syntax(uid); s {
	case ExplicitVRLittleEndian, JPEGLSLossless, JPEGLSNearLossless:
		return s, nil
	}
	return "", fmt.Errorf("unknown transfer syntax %q", uid)
}

package jpegls

import "fmt"

// Semantic version of the codec implementation.
const (
	VersionMajor = 1
	VersionMinor = 2
	VersionPatch = 0
)

// Version returns the semantic version string of the codec.
func Version() string {
	return fmt.Sprintf("%d.%d.%d", VersionMajor, VersionMinor, VersionPatch)
}

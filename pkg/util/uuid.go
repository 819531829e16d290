// Package util holds small helpers for identifying encoded streams.
package util

import (
	"crypto/md5"
	"encoding/hex"
	"encoding/json"

	"github.com/google/uuid"
)

// Md5ThenHex is a quick hasher
func Md5ThenHex(value []byte) string {
	sum := md5.Sum(value)
	return hex.EncodeToString(sum[:])
}

// HashUUID derives a name based (version 3) UUID from the json form of value,
// empty when value cannot be marshalled.
func HashUUID(value any) string {
	raw, err := json.Marshal(value)
	if err != nil {
		return ""
	}
	return uuid.NewMD5(uuid.NameSpaceOID, raw).String()
}

// StreamUUID identifies an encoded stream by its bytes.
func StreamUUID(stream []byte) string {
	return uuid.NewMD5(uuid.NameSpaceOID, stream).String()
}

// RunID is a random id for one tool invocation.
func RunID() string {
	return uuid.NewString()
}

package jpegls

import (
	"errors"
	"fmt"
)

// Error kinds. Every error returned by this package matches one of these with errors.Is.
var (
	ErrInvalidFrameInfo = errors.New("jpegls: invalid frame info")
	ErrBufferTooSmall   = errors.New("jpegls: source buffer too small")
	ErrInvalidParameter = errors.New("jpegls: invalid parameter")
	ErrInvalidState     = errors.New("jpegls: invalid state")
	ErrInvalidData      = errors.New("jpegls: invalid encoded data")
)

// ErrorCode is the numeric code exposed to host bindings.
type ErrorCode int

const (
	CodeSuccess                       ErrorCode = 0
	CodeInvalidArgument               ErrorCode = 1
	CodeParameterValueNotSupported    ErrorCode = 2
	CodeSourceBufferTooSmall          ErrorCode = 4
	CodeInvalidEncodedData            ErrorCode = 5
	CodeInvalidOperation              ErrorCode = 7
	CodeStartOfImageMarkerNotFound    ErrorCode = 15
	CodeUnexpectedMarkerFound         ErrorCode = 16
	CodeInvalidMarkerSegmentSize      ErrorCode = 17
	CodeInvalidArgumentWidth          ErrorCode = 100
	CodeInvalidArgumentHeight         ErrorCode = 101
	CodeInvalidArgumentComponentCount ErrorCode = 102
	CodeInvalidArgumentBitsPerSample  ErrorCode = 103
	CodeInvalidArgumentOptions        ErrorCode = 104
	CodeInvalidArgumentNearLossless   ErrorCode = 105
	CodeInvalidArgumentInterleaveMode ErrorCode = 106
	CodeInvalidArgumentPCParameters   ErrorCode = 107
)

// Error carries the numeric code, the kind sentinel and a detail message.
type Error struct {
	Code   ErrorCode
	Kind   error
	Detail string
}

func newError(code ErrorCode, kind error, format string, args ...any) *Error {
	return &Error{Code: code, Kind: kind, Detail: fmt.Sprintf(format, args...)}
}

func (e *Error) Error() string {
	if e.Detail == "" {
		return e.Kind.Error()
	}
	return fmt.Sprintf("%s: %s (code %d)", e.Kind, e.Detail, e.Code)
}

func (e *Error) Unwrap() error {
	return e.Kind
}

// CodeOf extracts the numeric code from err, CodeSuccess for nil.
func CodeOf(err error) ErrorCode {
	if err == nil {
		return CodeSuccess
	}
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return CodeInvalidArgument
}

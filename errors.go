package tiff

import "fmt"

// The five error categories from spec.md §7. IO faults are not given a
// distinct type: they propagate unchanged (optionally wrapped with
// github.com/pkg/errors for call-site context), per the propagation
// policy.

// SyntaxError reports a structural fault: bad magic, an unknown pixel
// mode tuple, a missing mandatory geometry tag, non-integral tile
// dimensions.
type SyntaxError struct{ Msg string }

func (e SyntaxError) Error() string { return "tiff: syntax error: " + e.Msg }

// CorruptionError reports a recoverable data fault: a truncated entry
// payload or a short read inside an IFD. Single corrupt tags are
// recovered locally by the loader; a truncated IFD header surfaces one
// of these instead.
type CorruptionError struct{ Msg string }

func (e CorruptionError) Error() string { return "tiff: corrupt data: " + e.Msg }

// UnsupportedError reports a recognized-but-unimplemented feature:
// Windows Media Photo content, or a codec reporting a negative/failure
// status.
type UnsupportedError struct{ Msg string }

func (e UnsupportedError) Error() string { return "tiff: unsupported: " + e.Msg }

// ProgrammerError reports caller misuse: writing an unsupported mode,
// `quality` set without `jpeg` compression, seeking to a frame number
// that doesn't fit in a plausible offset.
type ProgrammerError struct{ Msg string }

func (e ProgrammerError) Error() string { return "tiff: invalid use: " + e.Msg }

func newSyntaxErrorf(format string, args ...any) error {
	return SyntaxError{Msg: fmt.Sprintf(format, args...)}
}

func newCorruptionErrorf(format string, args ...any) error {
	return CorruptionError{Msg: fmt.Sprintf(format, args...)}
}

func newUnsupportedErrorf(format string, args ...any) error {
	return UnsupportedError{Msg: fmt.Sprintf(format, args...)}
}

func newProgrammerErrorf(format string, args ...any) error {
	return ProgrammerError{Msg: fmt.Sprintf(format, args...)}
}

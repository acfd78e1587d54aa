package mcomp

import "github.com/fcompdata/fcompdata/internal/errors"

// Sentinel errors matched with errors.Is. Every error returned by this package
// is an *errors.EnhancedError wrapping one of them (or fs.ErrNotExist for a
// missing corpus file).
var (
	// ErrNotFound reports an index absent from a Dataset or an unsupported field name.
	ErrNotFound = errors.NewStd("not found")

	// ErrUnknownField reports a field name outside the eight Series fields.
	// Errors carrying it also match ErrNotFound.
	ErrUnknownField = errors.NewStd("unknown field")

	// ErrParse reports a corpus document that is not well-formed.
	ErrParse = errors.NewStd("malformed corpus")

	// ErrSchema reports a corpus entry without one of its required fields.
	ErrSchema = errors.NewStd("missing required field")

	// ErrInvalidArgument reports an unrecognized category argument, such as an
	// unknown corpus name or download frequency.
	ErrInvalidArgument = errors.NewStd("invalid argument")
)

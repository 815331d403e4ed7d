package scoring

import (
	"errors"
	"fmt"
)

// Kind labels the category of a fatal evaluation error.
type Kind int

const (
	// KindUnknown is used for errors that did not come from the grader.
	KindUnknown Kind = iota
	// KindMissingInput: a ground-truth or submission archive does not exist.
	KindMissingInput
	// KindDecryption: the protected ground truth could not be opened.
	KindDecryption
	// KindMalformedFrame: a ground-truth frame file could not be parsed.
	KindMalformedFrame
	// KindEmptyDataset: no ground-truth frames or boxes, so the mean is undefined.
	KindEmptyDataset
	// KindArchive: an input exists but is not a usable zip archive.
	KindArchive
)

// Sentinel errors, one per Kind, for use with errors.Is.
var (
	ErrMissingInput   = errors.New("missing input")
	ErrDecryption     = errors.New("decryption failed")
	ErrMalformedFrame = errors.New("malformed frame file")
	ErrEmptyDataset   = errors.New("empty dataset")
	ErrArchive        = errors.New("unusable archive")
)

func (k Kind) String() string {
	switch k {
	case KindMissingInput:
		return "MissingInputError"
	case KindDecryption:
		return "DecryptionError"
	case KindMalformedFrame:
		return "MalformedFrameFile"
	case KindEmptyDataset:
		return "EmptyDatasetError"
	case KindArchive:
		return "ArchiveError"
	default:
		return "UnknownError"
	}
}

func (k Kind) sentinel() error {
	switch k {
	case KindMissingInput:
		return ErrMissingInput
	case KindDecryption:
		return ErrDecryption
	case KindMalformedFrame:
		return ErrMalformedFrame
	case KindEmptyDataset:
		return ErrEmptyDataset
	case KindArchive:
		return ErrArchive
	default:
		return nil
	}
}

// EvalError is a fatal error that aborts an evaluation run.
type EvalError struct {
	Kind Kind
	Path string
	Err  error
}

func (e *EvalError) Error() string {
	msg := e.Kind.String()
	if e.Path != "" {
		msg += ": " + e.Path
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *EvalError) Unwrap() error { return e.Err }

// Is matches the sentinel error for the error's Kind.
func (e *EvalError) Is(target error) bool {
	s := e.Kind.sentinel()
	return s != nil && target == s
}

// NewError builds an EvalError of the given kind.
func NewError(kind Kind, path string, err error) *EvalError {
	return &EvalError{Kind: kind, Path: path, Err: err}
}

// Errorf builds an EvalError with a formatted cause.
func Errorf(kind Kind, path, format string, args ...any) *EvalError {
	return &EvalError{Kind: kind, Path: path, Err: fmt.Errorf(format, args...)}
}

// KindOf returns the Kind of the first EvalError in err's chain.
func KindOf(err error) Kind {
	var ee *EvalError
	if errors.As(err, &ee) {
		return ee.Kind
	}
	return KindUnknown
}

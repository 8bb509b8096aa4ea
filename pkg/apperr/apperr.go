package apperr

import (
	"errors"
	"fmt"
)

// Kind classifies a failure so the HTTP layer can map it to a status and the
// orchestration can decide which cache state (if any) to touch.
type Kind string

const (
	// KindDecode: the uploaded frame bytes could not be decoded as an image.
	// Never mutates session state.
	KindDecode Kind = "DECODE_ERROR"

	// KindClassification: the external vision call errored or timed out.
	// Prior fingerprint and scene descriptor stay intact.
	KindClassification Kind = "CLASSIFICATION_FAILED"

	// KindGeneration: the external text call errored or timed out.
	// Lyric history stays untouched; the descriptor update (if any) is kept.
	KindGeneration Kind = "GENERATION_FAILED"

	// KindRender: the external audio/video step failed.
	KindRender Kind = "RENDER_FAILED"
)

// Error wraps an underlying failure with its kind.
type Error struct {
	Kind Kind
	Err  error
}

func (e *Error) Error() string {
	if e.Err == nil {
		return string(e.Kind)
	}
	return fmt.Sprintf("%s: %v", e.Kind, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

func Decode(err error) error {
	return &Error{Kind: KindDecode, Err: err}
}

func Classification(err error) error {
	return &Error{Kind: KindClassification, Err: err}
}

func Generation(err error) error {
	return &Error{Kind: KindGeneration, Err: err}
}

func Render(err error) error {
	return &Error{Kind: KindRender, Err: err}
}

// KindOf returns the kind of err, or "" when err is not an *Error.
func KindOf(err error) Kind {
	var ae *Error
	if errors.As(err, &ae) {
		return ae.Kind
	}
	return ""
}

// Is reports whether err carries the given kind.
func Is(err error, kind Kind) bool {
	return KindOf(err) == kind
}

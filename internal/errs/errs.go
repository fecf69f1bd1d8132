// Package errs defines the module-wide error taxonomy: a small, closed
// set of kinds every exported, fallible operation tags its error with,
// so callers can branch on errs.KindOf(err) instead of type-switching
// on concrete error structs.
package errs

import "errors"

// Kind is one of a fixed set of error categories.
type Kind string

const (
	// SchemaError: attribute count overflow, non-power-of-B leaf
	// count, credential/registry id out of range.
	SchemaError Kind = "schema_error"
	// IndexOutOfBounds: tree or Merkle proof index out of range.
	IndexOutOfBounds Kind = "index_out_of_bounds"
	// DecodeError: witness, zkey, or circuit-input JSON decode failure.
	DecodeError Kind = "decode_error"
	// SignatureError: sign/verify failure or oversized key material.
	SignatureError Kind = "signature_error"
	// WitnessCalcError: the witness calculator failed. The call is not
	// retried.
	WitnessCalcError Kind = "witness_calc_error"
	// InvalidProof: a prover self-verify or presentation verify failed.
	InvalidProof Kind = "invalid_proof"
	// IOError: artifact load failure.
	IOError Kind = "io_error"
)

// kindError pairs a Kind with an underlying cause, preserving %w
// wrapping so errors.Is/errors.As still reach the cause.
type kindError struct {
	kind  Kind
	cause error
}

func (e *kindError) Error() string {
	if e.cause == nil {
		return string(e.kind)
	}
	return string(e.kind) + ": " + e.cause.Error()
}

func (e *kindError) Unwrap() error { return e.cause }

// Wrap tags cause with kind. A nil cause returns nil.
func Wrap(kind Kind, cause error) error {
	if cause == nil {
		return nil
	}
	return &kindError{kind: kind, cause: cause}
}

// New creates a bare error of kind with the given message.
func New(kind Kind, msg string) error {
	return &kindError{kind: kind, cause: errors.New(msg)}
}

// KindOf returns the Kind tagged on err, and whether one was found.
func KindOf(err error) (Kind, bool) {
	var ke *kindError
	if errors.As(err, &ke) {
		return ke.kind, true
	}
	return "", false
}

// Is reports whether err is tagged with kind.
func Is(err error, kind Kind) bool {
	k, ok := KindOf(err)
	return ok && k == kind
}

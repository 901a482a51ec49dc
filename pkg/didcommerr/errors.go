// Package didcommerr defines the stable error taxonomy surfaced by the
// envelope engine. Every failure the core returns carries one of these
// kinds; callers use errors.Is/errors.As against the sentinels or Kind()
// rather than matching on message text.
package didcommerr

import (
	"fmt"

	"github.com/pkg/errors"
)

// Kind identifies a class of failure in the envelope pipeline.
type Kind int

// The stable set of failure kinds. Do not reorder; append only.
const (
	// KindMalformedEnvelope: input is not valid JSON or misses required fields.
	KindMalformedEnvelope Kind = iota
	// KindUnsupportedAlgorithm: alg/enc/sig_alg unknown or incompatible.
	KindUnsupportedAlgorithm
	// KindMissingEncryptionMetadata: seal* called without a prior as_jwe/as_jws.
	KindMissingEncryptionMetadata
	// KindReservedHeader: attempt to write a JOSE-reserved name via the application header API.
	KindReservedHeader
	// KindKeyAgreementFailed: ECDH or KDF step failed.
	KindKeyAgreementFailed
	// KindDecryptionFailed: AEAD tag mismatch or unwrap failure.
	KindDecryptionFailed
	// KindNoMatchingRecipient: no recipient entry matches the supplied key/kid.
	KindNoMatchingRecipient
	// KindSignatureInvalid: zero verifiable signatures on a JWS.
	KindSignatureInvalid
	// KindResolverFailed: optional resolver returned no key.
	KindResolverFailed
	// KindInternal: invariant violation; never used to downgrade another kind.
	KindInternal
)

func (k Kind) String() string {
	switch k {
	case KindMalformedEnvelope:
		return "MalformedEnvelope"
	case KindUnsupportedAlgorithm:
		return "UnsupportedAlgorithm"
	case KindMissingEncryptionMetadata:
		return "MissingEncryptionMetadata"
	case KindReservedHeader:
		return "ReservedHeader"
	case KindKeyAgreementFailed:
		return "KeyAgreementFailed"
	case KindDecryptionFailed:
		return "DecryptionFailed"
	case KindNoMatchingRecipient:
		return "NoMatchingRecipient"
	case KindSignatureInvalid:
		return "SignatureInvalid"
	case KindResolverFailed:
		return "ResolverFailed"
	case KindInternal:
		return "Internal"
	default:
		return "Unknown"
	}
}

// Error is the concrete error type returned by every public entry point in
// this module. Op names the failing operation (e.g. "envelope.PackJWE",
// "envelope.Receive"),
// and Err, if non-nil, is the underlying cause available via Unwrap.
type Error struct {
	K   Kind
	Op  string
	Err error
}

// New builds an *Error of kind k for operation op, wrapping cause (which may
// be nil).
func New(k Kind, op string, cause error) *Error {
	return &Error{K: k, Op: op, Err: cause}
}

// Newf builds an *Error of kind k for operation op with a formatted message
// and no wrapped cause.
func Newf(k Kind, op, format string, args ...interface{}) *Error {
	return &Error{K: k, Op: op, Err: fmt.Errorf(format, args...)}
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Op, e.K, e.Err)
	}

	return fmt.Sprintf("%s: %s", e.Op, e.K)
}

// Unwrap exposes the wrapped cause for errors.Is/errors.As.
func (e *Error) Unwrap() error { return e.Err }

// Kind returns the error's taxonomy kind.
func (e *Error) Kind() Kind { return e.K }

// Is reports whether target is a *Error with the same Kind, so that
// errors.Is(err, didcommerr.New(didcommerr.KindDecryptionFailed, "", nil))
// style sentinel checks work without caring about Op or Err.
func (e *Error) Is(target error) bool {
	var t *Error
	if errors.As(target, &t) {
		return t.K == e.K
	}

	return false
}

// Of returns the Kind of err if err is (or wraps) an *Error, and ok=false
// otherwise.
func Of(err error) (Kind, bool) {
	var e *Error
	if errors.As(err, &e) {
		return e.K, true
	}

	return 0, false
}

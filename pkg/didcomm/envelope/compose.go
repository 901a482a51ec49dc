/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package envelope

import (
	"github.com/pkg/errors"

	"github.com/dkuhnert/go-didcomm/pkg/common/log"
	"github.com/dkuhnert/go-didcomm/pkg/crypto"
	"github.com/dkuhnert/go-didcomm/pkg/didcomm/keyagreement"
	"github.com/dkuhnert/go-didcomm/pkg/didcomm/message"
	"github.com/dkuhnert/go-didcomm/pkg/didcommerr"
	"github.com/dkuhnert/go-didcomm/pkg/doc/jose"
)

var logger = log.New("go-didcomm/didcomm/envelope")

// atBoundary stack-annotates an error returned from one of this package's
// public entry points (Seal*, RoutedBy, Receive), the way the teacher
// reserves github.com/pkg/errors.WithStack for boundary errors rather than
// every internal hop. The wrapped error still satisfies errors.As against
// *didcommerr.Error since WithStack preserves Unwrap.
func atBoundary(err error) error {
	if err == nil {
		return nil
	}

	return errors.WithStack(err)
}

func stagedAlgs(msg *message.Message, op string) (jose.EncAlg, jose.KWAlg, error) {
	encName, ok := msg.JWMHeader.Encryption()
	if !ok {
		return "", "", didcommerr.Newf(didcommerr.KindMissingEncryptionMetadata, op, "call AsJWE before sealing")
	}

	algName, ok := msg.JWMHeader.Algorithm()
	if !ok {
		return "", "", didcommerr.Newf(didcommerr.KindMissingEncryptionMetadata, op, "call AsJWE before sealing")
	}

	return jose.EncAlg(encName), jose.KWAlg(algName), nil
}

// Seal encrypts msg (which must have been staged via Builder.AsJWE) for every
// recipient, returning the JWE in general JSON serialization (spec.md §4.8).
func Seal(msg *message.Message, registry *crypto.Registry, recipients []Recipient, senderStatic *keyagreement.PrivateKey) (string, error) {
	logger.Debugf("sealing message %s for %d recipient(s)", msg.Header.ID, len(recipients))

	jwe, err := sealToJWE(msg, registry, recipients, senderStatic, "")
	if err != nil {
		logger.Errorf("seal %s failed: %v", msg.Header.ID, err)
		return "", atBoundary(err)
	}

	out, err := jwe.FullSerialize()
	if err != nil {
		return "", atBoundary(didcommerr.New(didcommerr.KindInternal, "envelope.Seal", err))
	}

	return out, nil
}

// SealCompact encrypts msg for a single recipient and returns RFC 7516 §7.1
// compact serialization (spec.md §4.8). It fails without producing output
// if msg addresses more than one DID in its `to` header.
func SealCompact(msg *message.Message, registry *crypto.Registry, recipient Recipient, senderStatic *keyagreement.PrivateKey) (string, error) {
	if len(msg.Header.To) > 1 {
		return "", atBoundary(didcommerr.Newf(didcommerr.KindUnsupportedAlgorithm, "envelope.SealCompact", "compact serialization requires exactly one recipient"))
	}

	jwe, err := sealToJWE(msg, registry, []Recipient{recipient}, senderStatic, "")
	if err != nil {
		return "", atBoundary(err)
	}

	if err := mergeRecipientIntoProtected(jwe); err != nil {
		return "", atBoundary(err)
	}

	out, err := jwe.CompactSerialize()
	if err != nil {
		return "", atBoundary(didcommerr.New(didcommerr.KindInternal, "envelope.SealCompact", err))
	}

	return out, nil
}

// SealSigned signs msg with sigAlg under signers, then encrypts the
// resulting JWS for recipients, setting `cty` so the receiver knows to
// recurse into a JWS after decrypting (spec.md §4.8).
func SealSigned(msg *message.Message, registry *crypto.Registry, sigAlg jose.SigAlg, signers []Signer, recipients []Recipient, senderStatic *keyagreement.PrivateKey) (string, error) {
	payload, err := msg.MarshalJSON()
	if err != nil {
		return "", atBoundary(didcommerr.New(didcommerr.KindMalformedEnvelope, "envelope.SealSigned", err))
	}

	jws, err := PackJWS(payload, registry, sigAlg, signers)
	if err != nil {
		return "", atBoundary(err)
	}

	jwsJSON, err := jws.FullSerialize()
	if err != nil {
		return "", atBoundary(didcommerr.New(didcommerr.KindInternal, "envelope.SealSigned", err))
	}

	jwe, err := sealPlaintextToJWE(msg, registry, recipients, senderStatic, jose.MediaTypeSigned, []byte(jwsJSON))
	if err != nil {
		return "", atBoundary(err)
	}

	out, err := jwe.FullSerialize()
	if err != nil {
		return "", atBoundary(didcommerr.New(didcommerr.KindInternal, "envelope.SealSigned", err))
	}

	return out, nil
}

func sealToJWE(msg *message.Message, registry *crypto.Registry, recipients []Recipient, senderStatic *keyagreement.PrivateKey, cty string) (*jose.JSONWebEncryption, error) {
	plaintext, err := msg.MarshalJSON()
	if err != nil {
		return nil, didcommerr.New(didcommerr.KindMalformedEnvelope, "envelope.Seal", err)
	}

	return sealPlaintextToJWE(msg, registry, recipients, senderStatic, cty, plaintext)
}

func sealPlaintextToJWE(msg *message.Message, registry *crypto.Registry, recipients []Recipient, senderStatic *keyagreement.PrivateKey, cty string, plaintext []byte) (*jose.JSONWebEncryption, error) {
	encAlg, kwAlg, err := stagedAlgs(msg, "envelope.Seal")
	if err != nil {
		return nil, err
	}

	if senderStatic != nil {
		kwAlg = jose.ECDH1PUA256KW
	}

	opts := PackJWEOptions{
		EncAlg:       encAlg,
		KWAlg:        kwAlg,
		Recipients:   recipients,
		SenderStatic: senderStatic,
		SenderKID:    msg.Header.From,
		Typ:          msg.Typ,
		CTY:          cty,
	}

	return PackJWE(plaintext, registry, opts)
}

// Mediator is one hop of a routed_by chain: the DID it is addressed as, the
// key used to seal the layer it forwards, and that layer's own algorithm
// choice (spec.md §4.8: "each layer is an independent JWE with its own
// algorithm selection").
type Mediator struct {
	DID       string
	Recipient Recipient
	EncAlg    jose.EncAlg
	KWAlg     jose.KWAlg
}

// RoutedBy implements spec.md §4.8's routed_by: msg (already staged via
// AsJWE) is sealed for finalRecipients, then wrapped in a ForwardMessage per
// mediator hop, innermost (closest to the final recipient) first. Every hop
// but the last is sealed internally using that hop's own Mediator key/algs;
// the last (outermost) mediator's forward message is returned unsealed, so
// the caller can stage and seal it with that mediator's own key exactly as
// spec.md describes.
func RoutedBy(
	msg *message.Message,
	registry *crypto.Registry,
	finalRecipients []Recipient,
	finalDID string,
	senderStatic *keyagreement.PrivateKey,
	mediators []Mediator,
) (*message.Message, error) {
	if len(mediators) == 0 {
		return nil, atBoundary(didcommerr.Newf(didcommerr.KindMalformedEnvelope, "envelope.RoutedBy", "at least one mediator required"))
	}

	attached, err := Seal(msg, registry, finalRecipients, senderStatic)
	if err != nil {
		return nil, atBoundary(err)
	}

	next := finalDID
	routingKeys := make([]string, 0, len(mediators))

	for _, m := range mediators {
		routingKeys = append(routingKeys, m.DID)
	}

	for i, m := range mediators {
		fwd, err := message.NewForward(m.DID, next, attached, routingKeys[i+1:])
		if err != nil {
			return nil, atBoundary(didcommerr.New(didcommerr.KindInternal, "envelope.RoutedBy", err))
		}

		if i == len(mediators)-1 {
			return fwd, nil
		}

		fwd.Typ = jose.MediaTypeEncrypted
		fwd.JWMHeader = jose.Headers{
			jose.HeaderAlgorithm:  string(m.KWAlg),
			jose.HeaderEncryption: string(m.EncAlg),
		}

		sealedHop, err := Seal(fwd, registry, []Recipient{m.Recipient}, nil)
		if err != nil {
			return nil, atBoundary(err)
		}

		attached = sealedHop
		next = m.DID
	}

	return nil, atBoundary(didcommerr.New(didcommerr.KindInternal, "envelope.RoutedBy", nil))
}

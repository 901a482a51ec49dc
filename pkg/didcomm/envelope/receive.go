/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package envelope

import (
	"encoding/json"
	"strings"

	"github.com/dkuhnert/go-didcomm/pkg/crypto"
	"github.com/dkuhnert/go-didcomm/pkg/didcomm/keyagreement"
	"github.com/dkuhnert/go-didcomm/pkg/didcomm/message"
	"github.com/dkuhnert/go-didcomm/pkg/didcommerr"
	"github.com/dkuhnert/go-didcomm/pkg/doc/jose"
)

// ReceiveOptions supplies whatever key material Receive needs to get past
// the layer(s) a wire message is wrapped in. A plaintext message needs none
// of these; a signed one needs Verifiers; an encrypted one needs
// RecipientPriv (and, for ECDH-1PU senders, SenderPub). Resolver is consulted
// only for fields left unset here (spec.md §6's optional resolver callback).
type ReceiveOptions struct {
	RecipientPriv *keyagreement.PrivateKey
	RecipientKID  string
	SenderPub     *keyagreement.PublicKey
	Verifiers     []Verifier
	Resolver      Resolver
}

type wireKind int

const (
	wireKindPlaintext wireKind = iota
	wireKindJWS
	wireKindJWE
)

// classify inspects the wire form without fully parsing it: general
// serialization is detected by probing top-level JSON field names,
// compact serialization by counting dot-separated segments (spec.md §4.9
// "Classified" stage).
func classify(data string) wireKind {
	trimmed := strings.TrimSpace(data)

	if strings.HasPrefix(trimmed, "{") {
		var probe map[string]json.RawMessage
		if err := json.Unmarshal([]byte(trimmed), &probe); err == nil {
			if _, ok := probe["ciphertext"]; ok {
				return wireKindJWE
			}

			if _, ok := probe["signatures"]; ok {
				return wireKindJWS
			}
		}

		return wireKindPlaintext
	}

	switch strings.Count(trimmed, ".") + 1 {
	case 5:
		return wireKindJWE
	case 3:
		return wireKindJWS
	default:
		return wireKindPlaintext
	}
}

// Receive runs the DIDComm receive pipeline (spec.md §4.9): Parsed →
// Classified → one of {Decrypted, Verified, Plain} → Finalized. A decrypted
// JWE whose `cty` names a JWS recurses into the verify stage; a decrypted or
// verified payload is parsed as the final plaintext Message. If the
// resulting Message is a forward (routing/2.0/forward), it is returned
// as-is — unwrapping the attached inner envelope is the mediator's job, not
// this pipeline's.
func Receive(data string, registry *crypto.Registry, opts ReceiveOptions) (*message.Message, error) {
	kind := classify(data)
	logger.Debugf("receive: classified wire form as %d", kind)

	var (
		msg *message.Message
		err error
	)

	switch kind {
	case wireKindJWE:
		msg, err = receiveJWE(data, registry, opts)
	case wireKindJWS:
		msg, err = receiveJWS(data, registry, opts)
	default:
		msg, err = receivePlaintext(data)
	}

	if err != nil {
		return nil, atBoundary(err)
	}

	return msg, nil
}

func receivePlaintext(data string) (*message.Message, error) {
	msg := &message.Message{}
	if err := json.Unmarshal([]byte(data), msg); err != nil {
		return nil, didcommerr.New(didcommerr.KindMalformedEnvelope, "envelope.Receive", err)
	}

	return msg, nil
}

func receiveJWS(data string, registry *crypto.Registry, opts ReceiveOptions) (*message.Message, error) {
	jws, err := jose.DeserializeJWS(data)
	if err != nil {
		return nil, didcommerr.New(didcommerr.KindMalformedEnvelope, "envelope.Receive", err)
	}

	verifiers := opts.Verifiers
	if len(verifiers) == 0 && opts.Resolver != nil {
		for _, sig := range jws.Signatures {
			kid, ok := sig.Protected.KeyID()
			if !ok {
				continue
			}

			if v, ok := opts.Resolver.ResolveVerifier(kid); ok {
				verifiers = append(verifiers, v)
			}
		}

		if len(verifiers) == 0 {
			return nil, didcommerr.Newf(didcommerr.KindResolverFailed, "envelope.Receive", "resolver returned no verification key")
		}
	}

	payload, err := UnpackJWS(jws, registry, verifiers)
	if err != nil {
		return nil, err
	}

	return receivePlaintext(string(payload))
}

func receiveJWE(data string, registry *crypto.Registry, opts ReceiveOptions) (*message.Message, error) {
	jwe, err := jose.DeserializeJWE(data)
	if err != nil {
		return nil, didcommerr.New(didcommerr.KindMalformedEnvelope, "envelope.Receive", err)
	}

	recipientPriv := opts.RecipientPriv
	if recipientPriv == nil && opts.Resolver != nil && opts.RecipientKID != "" {
		recipientPriv, _ = opts.Resolver.ResolveEncryptionKey(opts.RecipientKID)
	}

	if recipientPriv == nil {
		if opts.Resolver != nil {
			return nil, didcommerr.Newf(didcommerr.KindResolverFailed, "envelope.Receive", "resolver returned no decryption key for %q", opts.RecipientKID)
		}

		return nil, didcommerr.Newf(didcommerr.KindMissingEncryptionMetadata, "envelope.Receive", "a recipient private key is required to decrypt a JWE")
	}

	senderPub := opts.SenderPub
	if senderPub == nil && opts.Resolver != nil {
		if skid, ok := jwe.ProtectedHeaders.SenderKeyID(); ok {
			if senderPub, ok = opts.Resolver.ResolveSenderKey(skid); !ok {
				return nil, didcommerr.Newf(didcommerr.KindResolverFailed, "envelope.Receive", "resolver returned no sender key for %q", skid)
			}
		}
	}

	plaintext, headers, err := UnpackJWE(jwe, registry, UnpackJWEOptions{
		RecipientPriv: recipientPriv,
		RecipientKID:  opts.RecipientKID,
		SenderPub:     senderPub,
	})
	if err != nil {
		return nil, err
	}

	if cty, ok := headers.ContentType(); ok && cty == jose.MediaTypeSigned {
		return receiveJWS(string(plaintext), registry, opts)
	}

	return receivePlaintext(string(plaintext))
}

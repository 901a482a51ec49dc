/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package envelope

import (
	"github.com/dkuhnert/go-didcomm/pkg/crypto"
	"github.com/dkuhnert/go-didcomm/pkg/didcommerr"
	"github.com/dkuhnert/go-didcomm/pkg/doc/jose"
)

// Signer pairs a signing key with the kid it is advertised under, for
// PackJWS to attach one signature entry per signer (spec.md §4.6 general
// serialization supports multiple signatures).
type Signer struct {
	KID string
	Key []byte
}

// Verifier pairs a verification key with the kid it is advertised under.
type Verifier struct {
	KID string
	Key []byte
}

// PackJWS signs payload once per signer, producing one JWS signature entry
// each (spec.md §4.6).
func PackJWS(payload []byte, registry *crypto.Registry, sigAlg jose.SigAlg, signers []Signer) (*jose.JSONWebSignature, error) {
	if len(signers) == 0 {
		return nil, didcommerr.Newf(didcommerr.KindMalformedEnvelope, "envelope.PackJWS", "at least one signer required")
	}

	signer, ok := registry.Signer(sigAlg)
	if !ok {
		return nil, didcommerr.Newf(didcommerr.KindUnsupportedAlgorithm, "envelope.PackJWS", "no signer registered for %s", sigAlg)
	}

	jws := &jose.JSONWebSignature{Payload: string(payload)}

	for _, s := range signers {
		protected := jose.Headers{
			jose.HeaderAlgorithm: string(sigAlg),
			jose.HeaderKeyID:     s.KID,
		}

		entry := jose.Signature{Protected: protected}

		input, err := (&jose.JSONWebSignature{Payload: jws.Payload, Signatures: []jose.Signature{entry}}).SigningInput(0)
		if err != nil {
			return nil, didcommerr.New(didcommerr.KindInternal, "envelope.PackJWS", err)
		}

		sig, err := signer.Sign([]byte(input), s.Key)
		if err != nil {
			return nil, didcommerr.New(didcommerr.KindInternal, "envelope.PackJWS", err)
		}

		entry.Signature = string(sig)
		jws.Signatures = append(jws.Signatures, entry)
	}

	return jws, nil
}

// UnpackJWS verifies jws against verifiers and returns the payload once at
// least one signature validates (spec.md §4.6/§4.9). A JWS with zero valid
// signatures fails with SignatureInvalid.
func UnpackJWS(jws *jose.JSONWebSignature, registry *crypto.Registry, verifiers []Verifier) ([]byte, error) {
	if len(jws.Signatures) == 0 {
		return nil, didcommerr.Newf(didcommerr.KindSignatureInvalid, "envelope.UnpackJWS", "no signatures present")
	}

	for i, sig := range jws.Signatures {
		algName, ok := sig.Protected.Algorithm()
		if !ok {
			continue
		}

		signer, ok := registry.Signer(jose.SigAlg(algName))
		if !ok {
			continue
		}

		input, err := jws.SigningInput(i)
		if err != nil {
			continue
		}

		kid, _ := sig.Protected.KeyID()

		for _, v := range verifiers {
			if v.KID != "" && kid != "" && v.KID != kid {
				continue
			}

			valid, err := signer.Verify([]byte(input), []byte(sig.Signature), v.Key)
			if err == nil && valid {
				return []byte(jws.Payload), nil
			}
		}
	}

	return nil, didcommerr.Newf(didcommerr.KindSignatureInvalid, "envelope.UnpackJWS", "no signature could be verified")
}

/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

// Package envelope implements the JWE/JWS packing and unpacking pipelines
// and the envelope composer (Seal/SealCompact/SealSigned/RoutedBy) and
// receiver pipeline described in spec.md §4.7-§4.9. It is the layer that
// turns a *message.Message plus a set of recipient/sender keys into the
// wire-format string and back, built on pkg/doc/jose's wire types,
// pkg/crypto's Cypher/Signer adapters, and pkg/didcomm/keyagreement's ECDH
// steps. Grounded on the teacher's pkg/didcomm/packer/authcrypt and
// legacy/envelope packers, generalized from a fixed Authcrypt/Anoncrypt pair
// into algorithm-agnostic multi-recipient sealing.
package envelope

import (
	"github.com/dkuhnert/go-didcomm/pkg/didcomm/keyagreement"
)

// Recipient names one addressee of a sealed JWE: the kid that will label its
// encrypted_key entry and the public key material used to wrap the CEK for
// them.
type Recipient struct {
	KID       string
	PublicKey keyagreement.PublicKey
}

/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

// Package keyagreement implements the ECDH-ES and ECDH-1PU key agreement and
// key-wrapping steps between pkg/doc/jose's wire types and a message's
// per-recipient encrypted_key. It mirrors the shape of the teacher's
// composite ECDH key managers (pkg/crypto/tinkcrypto/primitive/composite/
// ecdhes and ecdh1pu) — a SenderKW that wraps a CEK per recipient and a
// RecipientKW that unwraps it — but derives the shared secret directly via
// the curve-specific primitive rather than through a Tink key handle, and
// implements genuine two-point (Ze||Zs) ECDH-1PU derivation rather than the
// ECDH-ES-shaped placeholder in the teacher's ecdh1pu subtle package.
package keyagreement

import (
	"github.com/dkuhnert/go-didcomm/pkg/didcommerr"
	"github.com/dkuhnert/go-didcomm/pkg/doc/jose"
)

// Curve identifies the elliptic curve (or X25519) a PublicKey/PrivateKey is on.
type Curve string

// Supported curves (spec.md §4.2 key agreement key types).
const (
	X25519    Curve = "X25519"
	P256      Curve = "P-256"
	SECP256K1 Curve = "secp256k1"
)

// PublicKey is a recipient or sender static/ephemeral public key, named the
// way spi/crypto.PublicKey is in the teacher repo.
type PublicKey struct {
	KID   string
	Curve Curve
	X     []byte
	Y     []byte // unused for X25519
}

// PrivateKey is the raw private scalar/seed paired with its PublicKey.
type PrivateKey struct {
	Public PublicKey
	D      []byte
}

// RecipientWrappedKey is the per-recipient result of WrapKey: the wrapped CEK
// plus the header fields needed to unwrap it again (spi/crypto.RecipientWrappedKey).
type RecipientWrappedKey struct {
	KID          string
	EncryptedCEK []byte
	EPK          PublicKey
	Alg          jose.KWAlg
	APU          []byte
	APV          []byte
}

func wrapErr(op string, err error) error {
	return didcommerr.New(didcommerr.KindKeyAgreementFailed, op, err)
}

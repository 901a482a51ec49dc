/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package crypto

import (
	"crypto/ecdsa"
	"crypto/ed25519"
	"crypto/elliptic"
	"crypto/rand"
	"crypto/sha256"
	"fmt"
	"math/big"

	"github.com/btcsuite/btcd/btcec/v2"
	btcecdsa "github.com/btcsuite/btcd/btcec/v2/ecdsa"

	"github.com/dkuhnert/go-didcomm/pkg/doc/jose"
)

// Ed25519Signer implements Signer for EdDSA over Ed25519 (spec.md §4.2 EdDSA).
type Ed25519Signer struct{}

// NewEd25519Signer returns the default EdDSA Signer adapter.
func NewEd25519Signer() *Ed25519Signer { return &Ed25519Signer{} }

// Alg implements Signer.
func (s *Ed25519Signer) Alg() jose.SigAlg { return jose.EdDSA }

// Sign implements Signer.
func (s *Ed25519Signer) Sign(message, signingKey []byte) ([]byte, error) {
	if len(signingKey) != ed25519.PrivateKeySize {
		return nil, fmt.Errorf("eddsa: signing key must be %d bytes", ed25519.PrivateKeySize)
	}

	return ed25519.Sign(ed25519.PrivateKey(signingKey), message), nil
}

// Verify implements Signer.
func (s *Ed25519Signer) Verify(message, signature, verificationKey []byte) (bool, error) {
	if len(verificationKey) != ed25519.PublicKeySize {
		return false, fmt.Errorf("eddsa: verification key must be %d bytes", ed25519.PublicKeySize)
	}

	return ed25519.Verify(ed25519.PublicKey(verificationKey), message, signature), nil
}

// ES256Signer implements Signer for ECDSA over P-256 (spec.md §4.2 ES256).
type ES256Signer struct{}

// NewES256Signer returns the default ES256 Signer adapter.
func NewES256Signer() *ES256Signer { return &ES256Signer{} }

// Alg implements Signer.
func (s *ES256Signer) Alg() jose.SigAlg { return jose.ES256 }

// Sign implements Signer. message is the unhashed signing input built per
// doc/jose/jws.go; Sign hashes it with SHA-256 before signing.
func (s *ES256Signer) Sign(message, signingKey []byte) ([]byte, error) {
	d := new(big.Int).SetBytes(signingKey)
	priv := &ecdsa.PrivateKey{
		PublicKey: ecdsa.PublicKey{Curve: elliptic.P256()},
		D:         d,
	}
	priv.PublicKey.X, priv.PublicKey.Y = elliptic.P256().ScalarBaseMult(d.Bytes())

	digest := sha256.Sum256(message)

	r, sv, err := ecdsa.Sign(rand.Reader, priv, digest[:])
	if err != nil {
		return nil, fmt.Errorf("es256: %w", err)
	}

	return fixedSizeConcat(r, sv, 32), nil
}

// Verify implements Signer.
func (s *ES256Signer) Verify(message, signature, verificationKey []byte) (bool, error) {
	if len(verificationKey) != 65 || verificationKey[0] != 0x04 {
		return false, fmt.Errorf("es256: verification key must be uncompressed EC point")
	}

	x := new(big.Int).SetBytes(verificationKey[1:33])
	y := new(big.Int).SetBytes(verificationKey[33:65])
	pub := &ecdsa.PublicKey{Curve: elliptic.P256(), X: x, Y: y}

	if len(signature) != 64 {
		return false, fmt.Errorf("es256: signature must be 64 bytes")
	}

	r := new(big.Int).SetBytes(signature[:32])
	sv := new(big.Int).SetBytes(signature[32:])

	digest := sha256.Sum256(message)

	return ecdsa.Verify(pub, digest[:], r, sv), nil
}

// ES256KSigner implements Signer for ECDSA over secp256k1 (spec.md §4.2 ES256K).
type ES256KSigner struct{}

// NewES256KSigner returns the default ES256K Signer adapter.
func NewES256KSigner() *ES256KSigner { return &ES256KSigner{} }

// Alg implements Signer.
func (s *ES256KSigner) Alg() jose.SigAlg { return jose.ES256K }

// Sign implements Signer.
func (s *ES256KSigner) Sign(message, signingKey []byte) ([]byte, error) {
	priv, _ := btcec.PrivKeyFromBytes(signingKey)

	digest := sha256.Sum256(message)

	sig := btcecdsa.SignCompact(priv, digest[:], false)
	// SignCompact returns [recovery-id || r || s]; strip the recovery byte to
	// produce the fixed r||s encoding JWS ES256K expects.
	if len(sig) != 65 {
		return nil, fmt.Errorf("es256k: unexpected signature length %d", len(sig))
	}

	return sig[1:], nil
}

// Verify implements Signer.
func (s *ES256KSigner) Verify(message, signature, verificationKey []byte) (bool, error) {
	pub, err := btcec.ParsePubKey(verificationKey)
	if err != nil {
		return false, fmt.Errorf("es256k: %w", err)
	}

	if len(signature) != 64 {
		return false, fmt.Errorf("es256k: signature must be 64 bytes")
	}

	var r, sv btcec.ModNScalar
	r.SetByteSlice(signature[:32])
	sv.SetByteSlice(signature[32:])

	digest := sha256.Sum256(message)

	sig := btcecdsa.NewSignature(&r, &sv)

	return sig.Verify(digest[:], pub), nil
}

func fixedSizeConcat(r, s *big.Int, size int) []byte {
	out := make([]byte, 2*size)
	r.FillBytes(out[:size])
	s.FillBytes(out[size:])

	return out
}

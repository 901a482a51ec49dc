/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

// Package crypto defines the Cypher and Signer capability interfaces the
// envelope engine is built against, plus default adapters for every
// algorithm enumerated in the registry (pkg/doc/jose). The core never
// constructs a primitive directly: every Seal/Receive call site dispatches
// through whichever Cypher/Signer the caller injected (spec.md §4.3, §9).
package crypto

import "github.com/dkuhnert/go-didcomm/pkg/doc/jose"

// Cypher is an AEAD content-encryption primitive. Implementations must be
// safe for concurrent use across distinct calls.
type Cypher interface {
	// Encrypt AEAD-encrypts plaintext under cek and nonce, authenticating aad.
	// Returns ciphertext and the authentication tag.
	Encrypt(plaintext, cek, nonce, aad []byte) (ciphertext, tag []byte, err error)
	// Decrypt AEAD-decrypts ciphertext under cek and nonce, authenticating aad
	// against tag in constant time.
	Decrypt(ciphertext, cek, nonce, aad, tag []byte) (plaintext []byte, err error)
	// KeyGen returns a fresh random CEK of the algorithm's key length.
	KeyGen() ([]byte, error)
	// Alg identifies which EncAlg this Cypher implements.
	Alg() jose.EncAlg
}

// Signer is a digital-signature primitive.
type Signer interface {
	// Sign signs message using signingKey (the raw private key bytes).
	Sign(message, signingKey []byte) (signature []byte, err error)
	// Verify reports whether signature is valid over message under verificationKey
	// (the raw public key bytes).
	Verify(message, signature, verificationKey []byte) (bool, error)
	// Alg identifies which SigAlg this Signer implements.
	Alg() jose.SigAlg
}

// Registry resolves a Cypher or Signer by algorithm identifier. The default
// registry (NewDefaultRegistry) covers every algorithm in the jose registry;
// callers may substitute their own implementations per algorithm without
// touching the rest of the pipeline.
type Registry struct {
	cyphers map[jose.EncAlg]Cypher
	signers map[jose.SigAlg]Signer
}

// NewRegistry builds an empty Registry.
func NewRegistry() *Registry {
	return &Registry{
		cyphers: map[jose.EncAlg]Cypher{},
		signers: map[jose.SigAlg]Signer{},
	}
}

// RegisterCypher registers c under its own Alg().
func (r *Registry) RegisterCypher(c Cypher) { r.cyphers[c.Alg()] = c }

// RegisterSigner registers s under its own Alg().
func (r *Registry) RegisterSigner(s Signer) { r.signers[s.Alg()] = s }

// Cypher returns the registered Cypher for alg, or ok=false.
func (r *Registry) Cypher(alg jose.EncAlg) (Cypher, bool) {
	c, ok := r.cyphers[alg]
	return c, ok
}

// Signer returns the registered Signer for alg, or ok=false.
func (r *Registry) Signer(alg jose.SigAlg) (Signer, bool) {
	s, ok := r.signers[alg]
	return s, ok
}

// NewDefaultRegistry returns a Registry with the reference adapter for every
// enumerated algorithm already registered.
func NewDefaultRegistry() *Registry {
	r := NewRegistry()

	r.RegisterCypher(NewXC20PCypher())
	r.RegisterCypher(NewA256GCMCypher())
	r.RegisterCypher(NewA256CBCHS512Cypher())

	r.RegisterSigner(NewEd25519Signer())
	r.RegisterSigner(NewES256Signer())
	r.RegisterSigner(NewES256KSigner())

	return r
}

/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package crypto

import (
	"crypto/aes"
	"crypto/cipher"
	"fmt"

	"github.com/google/tink/go/subtle/random"

	"github.com/dkuhnert/go-didcomm/pkg/doc/jose"
)

// A256GCMCypher implements Cypher for AES-256-GCM (spec.md §4.2 A256GCM).
type A256GCMCypher struct{}

// NewA256GCMCypher returns the default A256GCM Cypher adapter.
func NewA256GCMCypher() *A256GCMCypher { return &A256GCMCypher{} }

// Alg implements Cypher.
func (c *A256GCMCypher) Alg() jose.EncAlg { return jose.A256GCM }

// KeyGen implements Cypher.
func (c *A256GCMCypher) KeyGen() ([]byte, error) {
	return random.GetRandomBytes(32), nil
}

func (c *A256GCMCypher) aead(cek []byte) (cipher.AEAD, error) {
	block, err := aes.NewCipher(cek)
	if err != nil {
		return nil, fmt.Errorf("a256gcm: %w", err)
	}

	return cipher.NewGCM(block)
}

// Encrypt implements Cypher.
func (c *A256GCMCypher) Encrypt(plaintext, cek, nonce, aad []byte) ([]byte, []byte, error) {
	aead, err := c.aead(cek)
	if err != nil {
		return nil, nil, err
	}

	sealed := aead.Seal(nil, nonce, plaintext, aad)
	tagStart := len(sealed) - aead.Overhead()

	return sealed[:tagStart], sealed[tagStart:], nil
}

// Decrypt implements Cypher.
func (c *A256GCMCypher) Decrypt(ciphertext, cek, nonce, aad, tag []byte) ([]byte, error) {
	aead, err := c.aead(cek)
	if err != nil {
		return nil, err
	}

	sealed := append(append([]byte{}, ciphertext...), tag...)

	plaintext, err := aead.Open(nil, nonce, sealed, aad)
	if err != nil {
		return nil, fmt.Errorf("a256gcm: %w", err)
	}

	return plaintext, nil
}

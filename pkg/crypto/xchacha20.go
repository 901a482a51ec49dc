/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package crypto

import (
	"fmt"

	"github.com/google/tink/go/subtle/random"
	"golang.org/x/crypto/chacha20poly1305"

	"github.com/dkuhnert/go-didcomm/pkg/doc/jose"
)

// XC20PCypher implements Cypher for XChaCha20-Poly1305 (spec.md §4.2 XC20P).
type XC20PCypher struct{}

// NewXC20PCypher returns the default XC20P Cypher adapter.
func NewXC20PCypher() *XC20PCypher { return &XC20PCypher{} }

// Alg implements Cypher.
func (c *XC20PCypher) Alg() jose.EncAlg { return jose.XC20P }

// KeyGen implements Cypher.
func (c *XC20PCypher) KeyGen() ([]byte, error) {
	return random.GetRandomBytes(uint32(chacha20poly1305.KeySize)), nil
}

// Encrypt implements Cypher. The tag is appended by the AEAD construction, so
// it is split off here to match the Cypher contract's separate ciphertext/tag
// return.
func (c *XC20PCypher) Encrypt(plaintext, cek, nonce, aad []byte) ([]byte, []byte, error) {
	aead, err := chacha20poly1305.NewX(cek)
	if err != nil {
		return nil, nil, fmt.Errorf("xc20p: %w", err)
	}

	sealed := aead.Seal(nil, nonce, plaintext, aad)
	tagStart := len(sealed) - aead.Overhead()

	return sealed[:tagStart], sealed[tagStart:], nil
}

// Decrypt implements Cypher.
func (c *XC20PCypher) Decrypt(ciphertext, cek, nonce, aad, tag []byte) ([]byte, error) {
	aead, err := chacha20poly1305.NewX(cek)
	if err != nil {
		return nil, fmt.Errorf("xc20p: %w", err)
	}

	sealed := append(append([]byte{}, ciphertext...), tag...)

	plaintext, err := aead.Open(nil, nonce, sealed, aad)
	if err != nil {
		return nil, fmt.Errorf("xc20p: %w", err)
	}

	return plaintext, nil
}

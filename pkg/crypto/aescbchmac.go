/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package crypto

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/hmac"
	"crypto/sha512"
	"crypto/subtle"
	"encoding/binary"
	"fmt"

	tinkrandom "github.com/google/tink/go/subtle/random"

	"github.com/dkuhnert/go-didcomm/pkg/doc/jose"
)

// A256CBCHS512Cypher implements Cypher for AES-256-CBC + HMAC-SHA512
// (spec.md §4.2 A256CBC-HS512), per RFC 7518 §5.2.6. go-jose's equivalent
// construction is an unexported internal type, so this composes
// crypto/aes + crypto/cipher + crypto/hmac directly — see DESIGN.md.
type A256CBCHS512Cypher struct{}

// NewA256CBCHS512Cypher returns the default A256CBC-HS512 Cypher adapter.
func NewA256CBCHS512Cypher() *A256CBCHS512Cypher { return &A256CBCHS512Cypher{} }

// Alg implements Cypher.
func (c *A256CBCHS512Cypher) Alg() jose.EncAlg { return jose.A256CBCHS512 }

// KeyGen implements Cypher. The 64-byte CEK is MAC_KEY (32 bytes) || ENC_KEY (32 bytes).
func (c *A256CBCHS512Cypher) KeyGen() ([]byte, error) {
	return tinkrandom.GetRandomBytes(64), nil
}

func splitKey(cek []byte) (macKey, encKey []byte, err error) {
	if len(cek) != 64 {
		return nil, nil, fmt.Errorf("a256cbc-hs512: cek must be 64 bytes, got %d", len(cek))
	}

	return cek[:32], cek[32:], nil
}

func al(aad []byte) []byte {
	al := make([]byte, 8)
	binary.BigEndian.PutUint64(al, uint64(len(aad))*8)

	return al
}

func pkcs7Pad(data []byte, blockSize int) []byte {
	padLen := blockSize - len(data)%blockSize
	pad := make([]byte, padLen)
	for i := range pad {
		pad[i] = byte(padLen)
	}

	return append(append([]byte{}, data...), pad...)
}

func pkcs7Unpad(data []byte, blockSize int) ([]byte, error) {
	if len(data) == 0 || len(data)%blockSize != 0 {
		return nil, fmt.Errorf("a256cbc-hs512: invalid padded length %d", len(data))
	}

	padLen := int(data[len(data)-1])
	if padLen == 0 || padLen > blockSize || padLen > len(data) {
		return nil, fmt.Errorf("a256cbc-hs512: invalid padding")
	}

	return data[:len(data)-padLen], nil
}

// Encrypt implements Cypher.
func (c *A256CBCHS512Cypher) Encrypt(plaintext, cek, nonce, aad []byte) ([]byte, []byte, error) {
	macKey, encKey, err := splitKey(cek)
	if err != nil {
		return nil, nil, err
	}

	block, err := aes.NewCipher(encKey)
	if err != nil {
		return nil, nil, fmt.Errorf("a256cbc-hs512: %w", err)
	}

	padded := pkcs7Pad(plaintext, aes.BlockSize)
	ciphertext := make([]byte, len(padded))
	cipher.NewCBCEncrypter(block, nonce).CryptBlocks(ciphertext, padded)

	mac := hmac.New(sha512.New, macKey)
	mac.Write(aad)
	mac.Write(nonce)
	mac.Write(ciphertext)
	mac.Write(al(aad))
	tag := mac.Sum(nil)[:32]

	return ciphertext, tag, nil
}

// Decrypt implements Cypher.
func (c *A256CBCHS512Cypher) Decrypt(ciphertext, cek, nonce, aad, tag []byte) ([]byte, error) {
	macKey, encKey, err := splitKey(cek)
	if err != nil {
		return nil, err
	}

	mac := hmac.New(sha512.New, macKey)
	mac.Write(aad)
	mac.Write(nonce)
	mac.Write(ciphertext)
	mac.Write(al(aad))
	expectedTag := mac.Sum(nil)[:32]

	if subtle.ConstantTimeCompare(expectedTag, tag) != 1 {
		return nil, fmt.Errorf("a256cbc-hs512: tag mismatch")
	}

	block, err := aes.NewCipher(encKey)
	if err != nil {
		return nil, fmt.Errorf("a256cbc-hs512: %w", err)
	}

	if len(ciphertext)%aes.BlockSize != 0 {
		return nil, fmt.Errorf("a256cbc-hs512: ciphertext not block aligned")
	}

	padded := make([]byte, len(ciphertext))
	cipher.NewCBCDecrypter(block, nonce).CryptBlocks(padded, ciphertext)

	return pkcs7Unpad(padded, aes.BlockSize)
}

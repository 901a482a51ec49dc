/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package keyagreement

import (
	"crypto"
	"crypto/aes"
	"encoding/binary"

	josecipher "github.com/go-jose/go-jose/v3/cipher"

	"github.com/dkuhnert/go-didcomm/pkg/didcommerr"
	"github.com/dkuhnert/go-didcomm/pkg/doc/jose"
)

// concatKDF runs NIST SP 800-56A Concat-KDF (RFC 7518 §4.6.2) over z, the raw
// ECDH output, deriving keySize bytes of key-encryption key. algID carries
// the KW algorithm name, apu/apv the PartyUInfo/PartyVInfo. This reuses
// go-jose's josecipher.NewConcatKDF rather than a hand-rolled loop — the
// teacher's own ecdhes/ecdh1pu subtle packages import the identical
// construction from square/go-jose/v3/cipher (see DESIGN.md).
func concatKDF(keySize int, z []byte, algID, apu, apv []byte) []byte {
	supPubInfo := make([]byte, 4)
	binary.BigEndian.PutUint32(supPubInfo, uint32(keySize)*8)

	reader := josecipher.NewConcatKDF(crypto.SHA256, z, lengthPrefixed(algID), lengthPrefixed(apu), lengthPrefixed(apv), supPubInfo, []byte{})

	key := make([]byte, keySize)
	_, _ = reader.Read(key) // io.Reader over a hash chain, never errors

	return key
}

func lengthPrefixed(data []byte) []byte {
	out := make([]byte, 4+len(data))
	binary.BigEndian.PutUint32(out, uint32(len(data)))
	copy(out[4:], data)

	return out
}

// kekAESKeySize is the AES-KW key size for every KWAlg this engine supports
// (A256KW: 32-byte KEK).
const kekAESKeySize = 32

// DeriveDirectSender derives the content-encryption key directly from
// ECDH(epk, recipientPub) under Concat-KDF keyed to encAlg (RFC 7518 §4.6,
// "Direct Key Agreement" mode), used for single-recipient ECDH-ES where no
// separate AES-KW wrap step exists (spec.md §4.4 point 4).
func DeriveDirectSender(encAlg string, keySize int, apu, apv []byte, epk *PrivateKey, recipientPub PublicKey) ([]byte, error) {
	z, err := ecdh(recipientPub.Curve, epk.D, recipientPub)
	if err != nil {
		return nil, wrapErr("keyagreement.DeriveDirectSender", err)
	}

	return concatKDF(keySize, z, []byte(encAlg), apu, apv), nil
}

// DeriveDirectRecipient reverses DeriveDirectSender using the recipient's
// static private key and the sender's epk.
func DeriveDirectRecipient(encAlg string, keySize int, apu, apv []byte, recipientPriv *PrivateKey, epk PublicKey) ([]byte, error) {
	z, err := ecdh(recipientPriv.Public.Curve, recipientPriv.D, epk)
	if err != nil {
		return nil, wrapErr("keyagreement.DeriveDirectRecipient", err)
	}

	return concatKDF(keySize, z, []byte(encAlg), apu, apv), nil
}

// WrapKeyES performs ECDH-ES key wrapping (anonymous encryption, spec.md
// §4.4): derive a KEK from ECDH(ephemeralPriv, recipientPub), then AES-KW
// wrap cek under it. epk is generated by the caller so Seal can record it
// once per recipient.
func WrapKeyES(cek []byte, apu, apv []byte, epk *PrivateKey, recipientPub PublicKey) (*RecipientWrappedKey, error) {
	z, err := ecdh(recipientPub.Curve, epk.D, recipientPub)
	if err != nil {
		return nil, wrapErr("keyagreement.WrapKeyES", err)
	}

	kek := concatKDF(kekAESKeySize, z, []byte(jose.ECDHESA256KW), apu, apv)

	encryptedCEK, err := aesKeyWrap(kek, cek)
	if err != nil {
		return nil, wrapErr("keyagreement.WrapKeyES", err)
	}

	return &RecipientWrappedKey{
		KID:          recipientPub.KID,
		EncryptedCEK: encryptedCEK,
		EPK:          epk.Public,
		Alg:          jose.ECDHESA256KW,
		APU:          apu,
		APV:          apv,
	}, nil
}

// UnwrapKeyES reverses WrapKeyES: derive the same KEK from
// ECDH(recipientPriv, epk), then AES-KW unwrap.
func UnwrapKeyES(recWK *RecipientWrappedKey, recipientPriv *PrivateKey) ([]byte, error) {
	z, err := ecdh(recipientPriv.Public.Curve, recipientPriv.D, recWK.EPK)
	if err != nil {
		return nil, wrapErr("keyagreement.UnwrapKeyES", err)
	}

	kek := concatKDF(kekAESKeySize, z, []byte(jose.ECDHESA256KW), recWK.APU, recWK.APV)

	cek, err := aesKeyUnwrap(kek, recWK.EncryptedCEK)
	if err != nil {
		return nil, didcommerr.New(didcommerr.KindDecryptionFailed, "keyagreement.UnwrapKeyES", err)
	}

	return cek, nil
}

// WrapKey1PU performs ECDH-1PU key wrapping (sender-authenticated encryption,
// spec.md §4.4): the KEK is derived from the concatenation Ze||Zs of two
// ECDH outputs — Ze = ECDH(ephemeralPriv, recipientPub) binds the ephemeral
// key, Zs = ECDH(senderStaticPriv, recipientPub) binds the sender's
// identity. This is the genuine two-point derivation; the teacher's own
// ecdh1pu subtle sender currently TODOs this and falls back to the ECDH-ES
// shape (see DESIGN.md).
func WrapKey1PU(cek []byte, apu, apv []byte, epk *PrivateKey, senderStatic *PrivateKey, recipientPub PublicKey) (*RecipientWrappedKey, error) {
	ze, err := ecdh(recipientPub.Curve, epk.D, recipientPub)
	if err != nil {
		return nil, wrapErr("keyagreement.WrapKey1PU", err)
	}

	zs, err := ecdh(recipientPub.Curve, senderStatic.D, recipientPub)
	if err != nil {
		return nil, wrapErr("keyagreement.WrapKey1PU", err)
	}

	z := append(append([]byte{}, ze...), zs...)

	kek := concatKDF(kekAESKeySize, z, []byte(jose.ECDH1PUA256KW), apu, apv)

	encryptedCEK, err := aesKeyWrap(kek, cek)
	if err != nil {
		return nil, wrapErr("keyagreement.WrapKey1PU", err)
	}

	return &RecipientWrappedKey{
		KID:          recipientPub.KID,
		EncryptedCEK: encryptedCEK,
		EPK:          epk.Public,
		Alg:          jose.ECDH1PUA256KW,
		APU:          apu,
		APV:          apv,
	}, nil
}

// UnwrapKey1PU reverses WrapKey1PU using the recipient's static private key
// and the sender's static public key (recovered from `skid` by the caller's
// resolver).
func UnwrapKey1PU(recWK *RecipientWrappedKey, recipientPriv *PrivateKey, senderPub PublicKey) ([]byte, error) {
	ze, err := ecdh(recipientPriv.Public.Curve, recipientPriv.D, recWK.EPK)
	if err != nil {
		return nil, wrapErr("keyagreement.UnwrapKey1PU", err)
	}

	zs, err := ecdh(recipientPriv.Public.Curve, recipientPriv.D, senderPub)
	if err != nil {
		return nil, wrapErr("keyagreement.UnwrapKey1PU", err)
	}

	z := append(append([]byte{}, ze...), zs...)

	kek := concatKDF(kekAESKeySize, z, []byte(jose.ECDH1PUA256KW), recWK.APU, recWK.APV)

	cek, err := aesKeyUnwrap(kek, recWK.EncryptedCEK)
	if err != nil {
		return nil, didcommerr.New(didcommerr.KindDecryptionFailed, "keyagreement.UnwrapKey1PU", err)
	}

	return cek, nil
}

func aesKeyWrap(kek, cek []byte) ([]byte, error) {
	block, err := aes.NewCipher(kek)
	if err != nil {
		return nil, err
	}

	return josecipher.KeyWrap(block, cek)
}

func aesKeyUnwrap(kek, wrapped []byte) ([]byte, error) {
	block, err := aes.NewCipher(kek)
	if err != nil {
		return nil, err
	}

	return josecipher.KeyUnwrap(block, wrapped)
}

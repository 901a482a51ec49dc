/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package jose

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestJWE_FullSerialize_RoundTrip(t *testing.T) {
	jwe := &JSONWebEncryption{
		ProtectedHeaders: Headers{HeaderEncryption: string(XC20P)},
		Recipients: []Recipient{
			{
				EncryptedKey: "wrapped-cek-bytes",
				Header:       &RecipientHeaders{Alg: string(ECDHESA256KW), KID: "did:example:bob#key-1"},
			},
		},
		IV:         "initialization-vector",
		Ciphertext: "the-ciphertext",
		Tag:        "the-tag",
	}

	out, err := jwe.FullSerialize()
	require.NoError(t, err)
	require.Contains(t, out, `"ciphertext"`)

	parsed, err := DeserializeJWE(out)
	require.NoError(t, err)
	require.Equal(t, jwe.IV, parsed.IV)
	require.Equal(t, jwe.Ciphertext, parsed.Ciphertext)
	require.Equal(t, jwe.Tag, parsed.Tag)
	require.Len(t, parsed.Recipients, 1)
	require.Equal(t, jwe.Recipients[0].EncryptedKey, parsed.Recipients[0].EncryptedKey)
	require.Equal(t, "did:example:bob#key-1", parsed.Recipients[0].Header.KID)

	enc, ok := parsed.ProtectedHeaders.Encryption()
	require.True(t, ok)
	require.Equal(t, string(XC20P), enc)
}

func TestJWE_CompactSerialize_RoundTrip(t *testing.T) {
	jwe := &JSONWebEncryption{
		ProtectedHeaders: Headers{
			HeaderEncryption: string(XC20P),
			HeaderAlgorithm:  string(ECDHESDirect),
			HeaderKeyID:      "did:example:bob#key-1",
		},
		Recipients: []Recipient{{EncryptedKey: ""}},
		IV:         "iv-bytes",
		Ciphertext: "ciphertext-bytes",
		Tag:        "tag-bytes",
	}

	out, err := jwe.CompactSerialize()
	require.NoError(t, err)
	require.NotContains(t, out, "{")
	require.Equal(t, 5, len(splitDots(out)))

	parsed, err := DeserializeJWE(out)
	require.NoError(t, err)
	require.Equal(t, jwe.Ciphertext, parsed.Ciphertext)

	kid, ok := parsed.ProtectedHeaders.KeyID()
	require.True(t, ok)
	require.Equal(t, "did:example:bob#key-1", kid)
}

func TestJWE_CompactSerialize_RejectsMultipleRecipients(t *testing.T) {
	jwe := &JSONWebEncryption{
		ProtectedHeaders: Headers{HeaderEncryption: string(XC20P)},
		Recipients:       []Recipient{{EncryptedKey: "a"}, {EncryptedKey: "b"}},
		Ciphertext:       "ciphertext",
	}

	_, err := jwe.CompactSerialize()
	require.Error(t, err)
}

func TestJWE_AAD_IsBase64URLOfProtected(t *testing.T) {
	jwe := &JSONWebEncryption{ProtectedHeaders: Headers{HeaderEncryption: string(A256GCM)}, Ciphertext: "x"}

	aad, err := jwe.AAD()
	require.NoError(t, err)

	protected, err := jwe.encodedProtected()
	require.NoError(t, err)
	require.Equal(t, protected, string(aad))
}

func TestJWS_FullSerialize_RoundTrip(t *testing.T) {
	jws := &JSONWebSignature{
		Payload: `{"hello":"world"}`,
		Signatures: []Signature{
			{Protected: Headers{HeaderAlgorithm: string(EdDSA), HeaderKeyID: "did:example:alice#key-1"}, Signature: "sig-bytes"},
		},
	}

	out, err := jws.FullSerialize()
	require.NoError(t, err)

	parsed, err := DeserializeJWS(out)
	require.NoError(t, err)
	require.Equal(t, jws.Payload, parsed.Payload)
	require.Len(t, parsed.Signatures, 1)

	alg, ok := parsed.Signatures[0].Protected.Algorithm()
	require.True(t, ok)
	require.Equal(t, string(EdDSA), alg)
}

func TestJWS_CompactSerialize_RoundTrip(t *testing.T) {
	jws := &JSONWebSignature{
		Payload:    `{"hello":"world"}`,
		Signatures: []Signature{{Protected: Headers{HeaderAlgorithm: string(ES256)}, Signature: "sig-bytes"}},
	}

	out, err := jws.CompactSerialize()
	require.NoError(t, err)
	require.Equal(t, 3, len(splitDots(out)))

	parsed, err := DeserializeJWS(out)
	require.NoError(t, err)
	require.Equal(t, jws.Payload, parsed.Payload)
}

func TestJWS_CompactSerialize_RejectsMultipleSignatures(t *testing.T) {
	jws := &JSONWebSignature{
		Payload: "p",
		Signatures: []Signature{
			{Protected: Headers{}, Signature: "a"},
			{Protected: Headers{}, Signature: "b"},
		},
	}

	_, err := jws.CompactSerialize()
	require.Error(t, err)
}

func TestJWS_SigningInput(t *testing.T) {
	jws := &JSONWebSignature{
		Payload:    "payload-bytes",
		Signatures: []Signature{{Protected: Headers{HeaderAlgorithm: string(EdDSA)}}},
	}

	input, err := jws.SigningInput(0)
	require.NoError(t, err)
	require.Contains(t, input, ".")
}

func TestHeaders_ReservedHeaders(t *testing.T) {
	for _, name := range []string{HeaderAlgorithm, HeaderEncryption, HeaderKeyID, HeaderSenderKeyID, HeaderType, HeaderContentType, HeaderEPK, HeaderAPU, HeaderAPV} {
		require.True(t, ReservedHeaders[name], "expected %s to be reserved", name)
	}

	require.False(t, ReservedHeaders["custom_field"])
}

func TestHeaders_Clone_IsIndependentCopy(t *testing.T) {
	original := Headers{HeaderAlgorithm: string(EdDSA)}
	clone := original.Clone()
	clone[HeaderAlgorithm] = string(ES256)

	alg, ok := original.Algorithm()
	require.True(t, ok)
	require.Equal(t, string(EdDSA), alg)
}

func splitDots(s string) []string {
	var parts []string
	start := 0

	for i, r := range s {
		if r == '.' {
			parts = append(parts, s[start:i])
			start = i + 1
		}
	}

	parts = append(parts, s[start:])

	return parts
}

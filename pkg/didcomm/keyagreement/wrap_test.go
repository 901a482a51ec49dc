/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package keyagreement

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestWrapUnwrapES_RoundTrip(t *testing.T) {
	for _, curve := range []Curve{X25519, P256, SECP256K1} {
		curve := curve
		t.Run(string(curve), func(t *testing.T) {
			recipient, err := GenerateEphemeral(curve)
			require.NoError(t, err)

			epk, err := GenerateEphemeral(curve)
			require.NoError(t, err)

			cek := make([]byte, 32)
			for i := range cek {
				cek[i] = byte(i)
			}

			wrapped, err := WrapKeyES(cek, []byte("alice"), []byte("bob"), epk, recipient.Public)
			require.NoError(t, err)
			require.NotEmpty(t, wrapped.EncryptedCEK)

			unwrapped, err := UnwrapKeyES(wrapped, recipient)
			require.NoError(t, err)
			require.Equal(t, cek, unwrapped)
		})
	}
}

func TestWrapUnwrap1PU_RoundTrip(t *testing.T) {
	for _, curve := range []Curve{X25519, P256, SECP256K1} {
		curve := curve
		t.Run(string(curve), func(t *testing.T) {
			recipient, err := GenerateEphemeral(curve)
			require.NoError(t, err)

			sender, err := GenerateEphemeral(curve)
			require.NoError(t, err)

			epk, err := GenerateEphemeral(curve)
			require.NoError(t, err)

			cek := make([]byte, 32)
			for i := range cek {
				cek[i] = byte(31 - i)
			}

			wrapped, err := WrapKey1PU(cek, []byte("alice"), []byte("bob"), epk, sender, recipient.Public)
			require.NoError(t, err)

			unwrapped, err := UnwrapKey1PU(wrapped, recipient, sender.Public)
			require.NoError(t, err)
			require.Equal(t, cek, unwrapped)
		})
	}
}

func TestUnwrapES_WrongRecipientFails(t *testing.T) {
	recipient, err := GenerateEphemeral(X25519)
	require.NoError(t, err)

	other, err := GenerateEphemeral(X25519)
	require.NoError(t, err)

	epk, err := GenerateEphemeral(X25519)
	require.NoError(t, err)

	cek := make([]byte, 32)

	wrapped, err := WrapKeyES(cek, nil, nil, epk, recipient.Public)
	require.NoError(t, err)

	_, err = UnwrapKeyES(wrapped, other)
	require.Error(t, err)
}

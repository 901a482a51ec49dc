/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package didcomm

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/dkuhnert/go-didcomm/pkg/common/log"
	"github.com/dkuhnert/go-didcomm/pkg/didcomm/envelope"
	"github.com/dkuhnert/go-didcomm/pkg/didcomm/keyagreement"
	"github.com/dkuhnert/go-didcomm/pkg/didcomm/message"
	"github.com/dkuhnert/go-didcomm/pkg/doc/jose"
)

func TestEngine_DefaultsAndOverrides(t *testing.T) {
	e := New()
	require.Equal(t, jose.XC20P, e.DefaultEncAlg())
	require.Equal(t, jose.EdDSA, e.DefaultSigAlg())
	require.NotNil(t, e.Registry())

	e2 := New(WithDefaultEncAlg(jose.A256GCM), WithDefaultSigAlg(jose.ES256), WithLogLevel(log.DEBUG))
	require.Equal(t, jose.A256GCM, e2.DefaultEncAlg())
	require.Equal(t, jose.ES256, e2.DefaultSigAlg())
}

func TestEngine_SealReceive_RoundTrip(t *testing.T) {
	e := New()

	bob, err := keyagreement.GenerateEphemeral(keyagreement.X25519)
	require.NoError(t, err)
	bob.Public.KID = "did:example:bob#key-1"

	msg := message.NewBuilder().
		To([]string{"did:example:bob"}).
		Type("https://example.org/protocol/1.0/ping").
		Body([]byte(`{"ok":true}`)).
		AsJWE(e.DefaultEncAlg()).
		Message()

	sealed, err := e.Seal(msg, []envelope.Recipient{{KID: bob.Public.KID, PublicKey: bob.Public}}, nil)
	require.NoError(t, err)

	received, err := e.Receive(sealed, envelope.ReceiveOptions{RecipientPriv: bob})
	require.NoError(t, err)
	require.Equal(t, msg.Body, received.Body)
}

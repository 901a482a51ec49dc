/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package envelope

import (
	"crypto/ed25519"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/dkuhnert/go-didcomm/pkg/crypto"
	"github.com/dkuhnert/go-didcomm/pkg/didcomm/keyagreement"
	"github.com/dkuhnert/go-didcomm/pkg/didcomm/message"
	"github.com/dkuhnert/go-didcomm/pkg/didcommerr"
	"github.com/dkuhnert/go-didcomm/pkg/doc/jose"
)

func mustGenerate(t *testing.T, curve keyagreement.Curve) *keyagreement.PrivateKey {
	t.Helper()

	priv, err := keyagreement.GenerateEphemeral(curve)
	require.NoError(t, err)

	return priv
}

func TestSealReceive_DirectMode_RoundTrip(t *testing.T) {
	registry := crypto.NewDefaultRegistry()
	bob := mustGenerate(t, keyagreement.X25519)
	bob.Public.KID = "did:example:bob#key-1"

	msg := message.NewBuilder().
		From("did:example:alice").
		To([]string{"did:example:bob"}).
		Type("https://example.org/protocol/1.0/ping").
		Body([]byte(`{"comment":"hi bob"}`)).
		AsJWE(jose.XC20P).
		Message()

	sealed, err := Seal(msg, registry, []Recipient{{KID: bob.Public.KID, PublicKey: bob.Public}}, nil)
	require.NoError(t, err)
	require.Contains(t, sealed, `"ciphertext"`)

	received, err := Receive(sealed, registry, ReceiveOptions{RecipientPriv: bob})
	require.NoError(t, err)
	require.Equal(t, msg.Header.Type, received.Header.Type)
	require.Equal(t, msg.Body, received.Body)
	require.False(t, received.IsForward())
}

func TestSealReceive_MultiRecipient_ECDHESWrap(t *testing.T) {
	registry := crypto.NewDefaultRegistry()
	bob := mustGenerate(t, keyagreement.X25519)
	bob.Public.KID = "did:example:bob#key-1"
	carol := mustGenerate(t, keyagreement.P256)
	carol.Public.KID = "did:example:carol#key-1"

	msg := message.NewBuilder().
		To([]string{"did:example:bob", "did:example:carol"}).
		Type("https://example.org/protocol/1.0/broadcast").
		Body([]byte(`{"n":1}`)).
		AsJWE(jose.A256GCM).
		Message()

	recipients := []Recipient{
		{KID: bob.Public.KID, PublicKey: bob.Public},
		{KID: carol.Public.KID, PublicKey: carol.Public},
	}

	sealed, err := Seal(msg, registry, recipients, nil)
	require.NoError(t, err)

	var wire struct {
		Recipients []struct {
			EncryptedKey string `json:"encrypted_key"`
			Header       struct {
				KID string `json:"kid"`
			} `json:"header"`
		} `json:"recipients"`
	}
	require.NoError(t, json.Unmarshal([]byte(sealed), &wire))
	require.Len(t, wire.Recipients, 2)
	require.NotEqual(t, wire.Recipients[0].EncryptedKey, wire.Recipients[1].EncryptedKey)
	require.ElementsMatch(t, []string{bob.Public.KID, carol.Public.KID},
		[]string{wire.Recipients[0].Header.KID, wire.Recipients[1].Header.KID})

	for _, priv := range []*keyagreement.PrivateKey{bob, carol} {
		received, err := Receive(sealed, registry, ReceiveOptions{RecipientPriv: priv})
		require.NoError(t, err)
		require.Equal(t, msg.Body, received.Body)
	}
}

func TestSealReceive_SenderAuthenticated_ECDH1PU(t *testing.T) {
	registry := crypto.NewDefaultRegistry()
	alice := mustGenerate(t, keyagreement.SECP256K1)
	alice.Public.KID = "did:example:alice#key-1"
	bob := mustGenerate(t, keyagreement.SECP256K1)
	bob.Public.KID = "did:example:bob#key-1"

	msg := message.NewBuilder().
		From("did:example:alice").
		To([]string{"did:example:bob"}).
		Type("https://example.org/protocol/1.0/secret").
		Body([]byte(`{"secret":true}`)).
		AsJWE(jose.A256CBCHS512).
		Message()

	sealed, err := Seal(msg, registry, []Recipient{{KID: bob.Public.KID, PublicKey: bob.Public}}, alice)
	require.NoError(t, err)

	received, err := Receive(sealed, registry, ReceiveOptions{
		RecipientPriv: bob,
		SenderPub:     &alice.Public,
	})
	require.NoError(t, err)
	require.Equal(t, msg.Body, received.Body)

	_, err = Receive(sealed, registry, ReceiveOptions{RecipientPriv: bob})
	require.Error(t, err)
	kind, ok := didcommerr.Of(err)
	require.True(t, ok)
	require.Equal(t, didcommerr.KindMissingEncryptionMetadata, kind)
}

func TestSealCompact_RoundTrip(t *testing.T) {
	registry := crypto.NewDefaultRegistry()
	bob := mustGenerate(t, keyagreement.X25519)
	bob.Public.KID = "did:example:bob#key-1"

	msg := message.NewBuilder().
		To([]string{"did:example:bob"}).
		Type("https://example.org/protocol/1.0/ping").
		Body([]byte(`{"comment":"hi"}`)).
		AsJWE(jose.XC20P).
		Message()

	sealed, err := SealCompact(msg, registry, Recipient{KID: bob.Public.KID, PublicKey: bob.Public}, nil)
	require.NoError(t, err)
	require.NotContains(t, sealed, "{")

	received, err := Receive(sealed, registry, ReceiveOptions{RecipientPriv: bob})
	require.NoError(t, err)
	require.Equal(t, msg.Body, received.Body)
}

func TestSealSigned_RoundTrip(t *testing.T) {
	registry := crypto.NewDefaultRegistry()

	signPub, signPriv, err := ed25519.GenerateKey(nil)
	require.NoError(t, err)

	bob := mustGenerate(t, keyagreement.X25519)
	bob.Public.KID = "did:example:bob#key-1"

	msg := message.NewBuilder().
		From("did:example:alice").
		To([]string{"did:example:bob"}).
		Type("https://example.org/protocol/1.0/attest").
		Body([]byte(`{"claim":"verified"}`)).
		AsJWE(jose.XC20P).
		Message()

	signers := []Signer{{KID: "did:example:alice#key-1", Key: signPriv}}

	sealed, err := SealSigned(msg, registry, jose.EdDSA, signers, []Recipient{{KID: bob.Public.KID, PublicKey: bob.Public}}, nil)
	require.NoError(t, err)

	verifiers := []Verifier{{KID: "did:example:alice#key-1", Key: signPub}}

	received, err := Receive(sealed, registry, ReceiveOptions{RecipientPriv: bob, Verifiers: verifiers})
	require.NoError(t, err)
	require.Equal(t, msg.Body, received.Body)
}

func TestRoutedBy_SingleMediator(t *testing.T) {
	registry := crypto.NewDefaultRegistry()
	bob := mustGenerate(t, keyagreement.X25519)
	bob.Public.KID = "did:example:bob#key-1"
	mediatorKey := mustGenerate(t, keyagreement.X25519)
	mediatorKey.Public.KID = "did:example:mediator#key-1"

	msg := message.NewBuilder().
		To([]string{"did:example:bob"}).
		Type("https://example.org/protocol/1.0/ping").
		Body([]byte(`{"comment":"routed"}`)).
		AsJWE(jose.XC20P).
		Message()

	outer, err := RoutedBy(
		msg,
		registry,
		[]Recipient{{KID: bob.Public.KID, PublicKey: bob.Public}},
		"did:example:bob",
		nil,
		[]Mediator{{DID: "did:example:mediator", Recipient: Recipient{KID: mediatorKey.Public.KID, PublicKey: mediatorKey.Public}, EncAlg: jose.XC20P, KWAlg: jose.ECDHESDirect}},
	)
	require.NoError(t, err)
	require.True(t, outer.IsForward())

	outer.AsJWE(jose.XC20P)

	sealedOuter, err := Seal(outer, registry, []Recipient{{KID: mediatorKey.Public.KID, PublicKey: mediatorKey.Public}}, nil)
	require.NoError(t, err)

	atMediator, err := Receive(sealedOuter, registry, ReceiveOptions{RecipientPriv: mediatorKey})
	require.NoError(t, err)
	require.True(t, atMediator.IsForward())

	fwdBody, err := atMediator.ForwardBody()
	require.NoError(t, err)
	require.Equal(t, "did:example:bob", fwdBody.Next)

	innerReceived, err := Receive(fwdBody.Attached, registry, ReceiveOptions{RecipientPriv: bob})
	require.NoError(t, err)
	require.Equal(t, msg.Body, innerReceived.Body)
}

func TestReceive_PlaintextPassthrough(t *testing.T) {
	registry := crypto.NewDefaultRegistry()

	msg := message.NewBuilder().
		Type("https://example.org/protocol/1.0/ping").
		Body([]byte(`{}`)).
		Message()

	data, err := msg.MarshalJSON()
	require.NoError(t, err)

	received, err := Receive(string(data), registry, ReceiveOptions{})
	require.NoError(t, err)
	require.Equal(t, msg.Header.ID, received.Header.ID)
}

func TestUnpackJWE_NoMatchingRecipient(t *testing.T) {
	registry := crypto.NewDefaultRegistry()
	bob := mustGenerate(t, keyagreement.X25519)
	bob.Public.KID = "did:example:bob#key-1"
	mallory := mustGenerate(t, keyagreement.X25519)

	msg := message.NewBuilder().
		To([]string{"did:example:bob"}).
		Type("https://example.org/protocol/1.0/ping").
		Body([]byte(`{}`)).
		AsJWE(jose.XC20P).
		Message()

	sealed, err := Seal(msg, registry, []Recipient{{KID: bob.Public.KID, PublicKey: bob.Public}}, nil)
	require.NoError(t, err)

	_, err = Receive(sealed, registry, ReceiveOptions{RecipientPriv: mallory})
	require.Error(t, err)
	kind, ok := didcommerr.Of(err)
	require.True(t, ok)
	require.Equal(t, didcommerr.KindNoMatchingRecipient, kind)
}

func TestReceive_TamperedTagFails(t *testing.T) {
	registry := crypto.NewDefaultRegistry()
	bob := mustGenerate(t, keyagreement.X25519)
	bob.Public.KID = "did:example:bob#key-1"

	msg := message.NewBuilder().
		To([]string{"did:example:bob"}).
		Type("https://example.org/protocol/1.0/ping").
		Body([]byte(`{"k":"v"}`)).
		AsJWE(jose.XC20P).
		Message()

	sealed, err := Seal(msg, registry, []Recipient{{KID: bob.Public.KID, PublicKey: bob.Public}}, nil)
	require.NoError(t, err)

	var wire map[string]interface{}
	require.NoError(t, json.Unmarshal([]byte(sealed), &wire))

	tag, ok := wire["tag"].(string)
	require.True(t, ok)
	require.NotEmpty(t, tag)
	wire["tag"] = flipLastChar(tag)

	tampered, err := json.Marshal(wire)
	require.NoError(t, err)

	_, err = Receive(string(tampered), registry, ReceiveOptions{RecipientPriv: bob})
	require.Error(t, err)
	kind, ok := didcommerr.Of(err)
	require.True(t, ok)
	require.Equal(t, didcommerr.KindDecryptionFailed, kind)
}

func flipLastChar(s string) string {
	runes := []rune(s)
	last := runes[len(runes)-1]

	if last == 'A' {
		runes[len(runes)-1] = 'B'
	} else {
		runes[len(runes)-1] = 'A'
	}

	return string(runes)
}

type fakeResolver struct {
	priv     *keyagreement.PrivateKey
	kid      string
	verifier Verifier
}

func (r fakeResolver) ResolveEncryptionKey(kid string) (*keyagreement.PrivateKey, bool) {
	if kid == r.kid {
		return r.priv, true
	}

	return nil, false
}

func (r fakeResolver) ResolveSenderKey(string) (*keyagreement.PublicKey, bool) { return nil, false }

func (r fakeResolver) ResolveVerifier(kid string) (Verifier, bool) {
	if kid == r.verifier.KID {
		return r.verifier, true
	}

	return Verifier{}, false
}

func TestReceive_ResolverSuppliesDecryptionKey(t *testing.T) {
	registry := crypto.NewDefaultRegistry()
	bob := mustGenerate(t, keyagreement.X25519)
	bob.Public.KID = "did:example:bob#key-1"

	msg := message.NewBuilder().
		To([]string{"did:example:bob"}).
		Type("https://example.org/protocol/1.0/ping").
		Body([]byte(`{"k":"v"}`)).
		AsJWE(jose.XC20P).
		Message()

	sealed, err := Seal(msg, registry, []Recipient{{KID: bob.Public.KID, PublicKey: bob.Public}}, nil)
	require.NoError(t, err)

	resolver := fakeResolver{priv: bob, kid: bob.Public.KID}

	received, err := Receive(sealed, registry, ReceiveOptions{RecipientKID: bob.Public.KID, Resolver: resolver})
	require.NoError(t, err)
	require.Equal(t, msg.Body, received.Body)
}

func TestReceive_ResolverFailureReportsResolverFailed(t *testing.T) {
	registry := crypto.NewDefaultRegistry()
	bob := mustGenerate(t, keyagreement.X25519)
	bob.Public.KID = "did:example:bob#key-1"

	msg := message.NewBuilder().
		To([]string{"did:example:bob"}).
		Type("https://example.org/protocol/1.0/ping").
		Body([]byte(`{"k":"v"}`)).
		AsJWE(jose.XC20P).
		Message()

	sealed, err := Seal(msg, registry, []Recipient{{KID: bob.Public.KID, PublicKey: bob.Public}}, nil)
	require.NoError(t, err)

	resolver := fakeResolver{priv: bob, kid: "does-not-match"}

	_, err = Receive(sealed, registry, ReceiveOptions{RecipientKID: bob.Public.KID, Resolver: resolver})
	require.Error(t, err)
	kind, ok := didcommerr.Of(err)
	require.True(t, ok)
	require.Equal(t, didcommerr.KindResolverFailed, kind)
}

func TestSeal_MissingEncryptionMetadataFails(t *testing.T) {
	registry := crypto.NewDefaultRegistry()
	bob := mustGenerate(t, keyagreement.X25519)

	msg := message.NewBuilder().
		To([]string{"did:example:bob"}).
		Type("https://example.org/protocol/1.0/ping").
		Body([]byte(`{}`)).
		Message()

	_, err := Seal(msg, registry, []Recipient{{KID: "bob", PublicKey: bob.Public}}, nil)
	require.Error(t, err)
	kind, ok := didcommerr.Of(err)
	require.True(t, ok)
	require.Equal(t, didcommerr.KindMissingEncryptionMetadata, kind)
}

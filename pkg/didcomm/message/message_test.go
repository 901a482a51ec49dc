/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package message

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/dkuhnert/go-didcomm/pkg/didcommerr"
	"github.com/dkuhnert/go-didcomm/pkg/doc/jose"
)

func TestNew_AssignsID(t *testing.T) {
	m := New()
	require.NotEmpty(t, m.Header.ID)
	require.Equal(t, jose.MediaTypePlaintext, m.Typ)
}

func TestSetHeaderField_RejectsReserved(t *testing.T) {
	m := New()

	err := m.SetHeaderField("alg", "evil")
	require.Error(t, err)

	kind, ok := didcommerr.Of(err)
	require.True(t, ok)
	require.Equal(t, didcommerr.KindReservedHeader, kind)
	require.NotContains(t, m.Header.Other, "alg")
}

func TestBuilder_AsJWE_SelectsAlgByRecipientCount(t *testing.T) {
	single := NewBuilder().To([]string{"did:example:bob"}).AsJWE(jose.XC20P).Message()
	alg, _ := single.JWMHeader.Algorithm()
	require.Equal(t, string(jose.ECDHESDirect), alg)

	multi := NewBuilder().To([]string{"did:example:bob", "did:example:carol"}).AsJWE(jose.XC20P).Message()
	alg, _ = multi.JWMHeader.Algorithm()
	require.Equal(t, string(jose.ECDHESA256KW), alg)

	cbc := NewBuilder().To([]string{"did:example:bob"}).AsJWE(jose.A256CBCHS512).Message()
	alg, _ = cbc.JWMHeader.Algorithm()
	require.Equal(t, string(jose.ECDHESA256KW), alg)
}

func TestMessage_JSONRoundTrip(t *testing.T) {
	created := int64(1700000000)

	b := NewBuilder().
		From("did:example:alice").
		To([]string{"did:example:bob"}).
		Type("https://example.org/protocol/1.0/ping").
		Body([]byte(`{"text":"hi"}`)).
		Timed(created, 3600)

	_, err := b.AddHeaderField("thread_id", "t-1")
	require.NoError(t, err)

	original := b.Message()

	raw, err := original.MarshalJSON()
	require.NoError(t, err)

	roundTripped := &Message{}
	require.NoError(t, roundTripped.UnmarshalJSON(raw))

	require.Equal(t, original.Header.ID, roundTripped.Header.ID)
	require.Equal(t, original.Header.From, roundTripped.Header.From)
	require.Equal(t, original.Header.To, roundTripped.Header.To)
	require.Equal(t, original.Header.Type, roundTripped.Header.Type)
	require.Equal(t, "t-1", roundTripped.Header.Other["thread_id"])
	require.JSONEq(t, string(original.Body), string(roundTripped.Body))
}

func TestForward_RoundTrip(t *testing.T) {
	fwd, err := NewForward("did:example:mediator", "did:example:bob", "eyJhbGc...", []string{"did:key:z6Mk..."})
	require.NoError(t, err)
	require.True(t, fwd.IsForward())

	body, err := fwd.ForwardBody()
	require.NoError(t, err)
	require.Equal(t, "did:example:bob", body.Next)
	require.Equal(t, "eyJhbGc...", body.Attached)
}

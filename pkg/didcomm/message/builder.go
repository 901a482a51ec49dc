/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package message

import (
	"github.com/dkuhnert/go-didcomm/pkg/doc/jose"
)

// Kids, staged on the Builder via Kid(), are kept positional against To() and
// returned by Kids(). The envelope composer does not read them: a sealed
// JWE's per-recipient `kid` comes from each envelope.Recipient's KID.
type builderState struct {
	kids []string
}

// Builder offers the fluent, chainable construction described in spec.md
// §4.5: each call mutates the same *Message and returns the *Builder, ending in a
// terminal seal* call in package envelope. Grounded on the teacher's
// service.DIDCommMsgMap chained builders in pkg/didcomm/common/service, here
// made concrete to the DIDComm v2 Header/JWMHeader split.
type Builder struct {
	msg   *Message
	state builderState
}

// NewBuilder starts building a fresh Message.
func NewBuilder() *Builder {
	return &Builder{msg: New()}
}

// From sets the sender DID.
func (b *Builder) From(did string) *Builder {
	b.msg.Header.From = did
	return b
}

// To sets the ordered recipient DID list.
func (b *Builder) To(dids []string) *Builder {
	b.msg.Header.To = append([]string{}, dids...)
	return b
}

// Type sets the application message type URI.
func (b *Builder) Type(typeURI string) *Builder {
	b.msg.Header.Type = typeURI
	return b
}

// Body sets the opaque application payload.
func (b *Builder) Body(body []byte) *Builder {
	b.msg.Body = append([]byte{}, body...)
	return b
}

// AddHeaderField writes one application header into `other`. It returns an
// error (without mutating the Message) when key is JOSE-reserved
// (spec.md §7 ReservedHeader), but the Builder itself remains chainable for
// the caller to continue after checking err.
func (b *Builder) AddHeaderField(key, value string) (*Builder, error) {
	if err := b.msg.SetHeaderField(key, value); err != nil {
		return b, err
	}

	return b, nil
}

// Kid stores per-recipient key ids, positional against To(), for retrieval
// via Kids(). Neither AsJWE nor the envelope composer reads them.
func (b *Builder) Kid(kids ...string) *Builder {
	b.state.kids = append([]string{}, kids...)
	return b
}

// Timed sets expires_time to now+expiresSeconds and created_time to now.
// Both are supplied by the caller in unix-seconds form so the core never
// calls a wall clock directly (spec.md §5: no hidden I/O, deterministic core).
func (b *Builder) Timed(createdTime, expiresSeconds int64) *Builder {
	created := createdTime
	expires := createdTime + expiresSeconds

	b.msg.Header.CreatedTime = &created
	b.msg.Header.ExpiresTime = &expires

	return b
}

// AsJWE stages a JWE: sets jwm_header.enc to encAlg and jwm_header.alg to the
// key-wrap algorithm implied by encAlg and numRecipients (spec.md §4.5).
// ECDH-ES+A256KW is used whenever more than one recipient is addressed;
// direct ECDH-ES is used for a single XC20P/A256GCM recipient. Sender
// authentication (ECDH-1PU) is selected instead of ECDH-ES at seal time
// whenever a sender static key is passed to the seal call; AsJWE only fixes
// the content algorithm and recipient-count-driven default here.
func (b *Builder) AsJWE(encAlg jose.EncAlg) *Builder {
	b.msg.AsJWE(encAlg)

	return b
}

// AsJWE stages a JWE on m the same way Builder.AsJWE does, so that a Message
// not built through a Builder (such as the forward message envelope.RoutedBy
// returns) can be staged before sealing.
func (m *Message) AsJWE(encAlg jose.EncAlg) *Message {
	m.Typ = jose.MediaTypeEncrypted
	m.JWMHeader[jose.HeaderEncryption] = string(encAlg)
	m.JWMHeader[jose.HeaderType] = jose.MediaTypeEncrypted

	alg := jose.ECDHESA256KW
	if len(m.Header.To) <= 1 && (encAlg == jose.XC20P || encAlg == jose.A256GCM) {
		alg = jose.ECDHESDirect
	}

	m.JWMHeader[jose.HeaderAlgorithm] = string(alg)

	return m
}

// AsJWS stages a JWS: sets jwm_header.alg to sigAlg.
func (b *Builder) AsJWS(sigAlg jose.SigAlg) *Builder {
	b.msg.Typ = jose.MediaTypeSigned
	b.msg.JWMHeader[jose.HeaderAlgorithm] = string(sigAlg)
	b.msg.JWMHeader[jose.HeaderType] = jose.MediaTypeSigned

	return b
}

// Message returns the Message under construction.
func (b *Builder) Message() *Message { return b.msg }

// Kids returns the staged recipient kid list.
func (b *Builder) Kids() []string { return b.state.kids }

/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

// Package message defines the in-memory DIDComm Message envelope, its two
// header regions (DIDComm application headers and the JOSE processing
// header), and the fluent Builder used to construct one. This mirrors the
// teacher's pkg/didcomm/common/model split between a wire-shaped message and
// a JOSE-aware packer, collapsed into a single type per spec.md §3's
// "two sub-records, not a flat map" data-model requirement.
package message

import (
	"github.com/google/uuid"

	"github.com/dkuhnert/go-didcomm/pkg/didcommerr"
	"github.com/dkuhnert/go-didcomm/pkg/doc/jose"
)

// ForwardType is the well-known message type for mediator-forwarding envelopes.
const ForwardType = "https://didcomm.org/routing/2.0/forward"

// Header is the DIDComm application header region of a Message: everything
// that is not JOSE processing metadata. It is deliberately its own struct
// rather than folded into a generic map, so the JOSE-reserved names can never
// be written through it (spec.md §3 invariant 5).
type Header struct {
	ID          string
	Type        string
	From        string
	To          []string
	CreatedTime *int64
	ExpiresTime *int64
	Other       map[string]string
}

// Message is the in-memory DIDComm envelope (spec.md §3). It is built via
// NewBuilder, mutated through chained setters, and frozen once a seal*
// operation on the envelope package serializes it.
type Message struct {
	Header
	Typ       string
	Body      []byte
	JWMHeader jose.Headers
}

// New constructs a Message with a freshly assigned random id and the default
// plaintext media type (spec.md §3).
func New() *Message {
	return &Message{
		Header: Header{
			ID:    uuid.NewString(),
			Other: map[string]string{},
		},
		Typ:       jose.MediaTypePlaintext,
		JWMHeader: jose.Headers{},
	}
}

// IsForward reports whether m is a ForwardMessage (type_ is the well-known
// forwarding URI).
func (m *Message) IsForward() bool { return m.Header.Type == ForwardType }

// SetHeaderField writes a single application-header field into Other,
// rejecting any name reserved for the JOSE header (spec.md §3 invariant 5,
// §7 ReservedHeader).
func (m *Message) SetHeaderField(key, value string) error {
	if jose.ReservedHeaders[key] {
		return didcommerr.Newf(didcommerr.KindReservedHeader, "message.SetHeaderField", "header %q is reserved for the JOSE header", key)
	}

	m.Header.Other[key] = value

	return nil
}

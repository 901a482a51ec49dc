/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package message

import "encoding/json"

// ForwardBody is the body schema of a ForwardMessage (spec.md §3, §6):
// `{"next": "<did>", "attached": "<jwe-or-jws-string>"}`. RoutingKeys
// threads through the teacher's multi-hop forwarding (outbound.createPackedNestedForwards),
// generalized here to a field on the body rather than a side channel, so a
// single forward hop can still name the keys remaining downstream of it.
type ForwardBody struct {
	Next        string   `json:"next"`
	Attached    string   `json:"attached"`
	RoutingKeys []string `json:"routing_keys,omitempty"`
}

// NewForward builds a ForwardMessage addressed to mediator, carrying
// attached (the serialized inner envelope) to be relayed on to next.
func NewForward(mediator, next, attached string, routingKeys []string) (*Message, error) {
	body, err := json.Marshal(ForwardBody{Next: next, Attached: attached, RoutingKeys: routingKeys})
	if err != nil {
		return nil, err
	}

	m := New()
	m.Header.Type = ForwardType
	m.Header.To = []string{mediator}
	m.Body = body

	return m, nil
}

// ForwardBody parses m's body as a ForwardBody. Callers should check
// IsForward first.
func (m *Message) ForwardBody() (*ForwardBody, error) {
	fb := &ForwardBody{}
	if err := json.Unmarshal(m.Body, fb); err != nil {
		return nil, err
	}

	return fb, nil
}

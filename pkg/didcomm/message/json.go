/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package message

import (
	"encoding/json"

	"github.com/dkuhnert/go-didcomm/pkg/didcommerr"
	"github.com/dkuhnert/go-didcomm/pkg/doc/jose"
)

// wireMessage is the plaintext JSON shape of a Message's DIDComm portion
// (spec.md §4.1: the DIDComm header is serialized as part of the plaintext
// JSON body object, never the JOSE header). `body` carries the raw
// application payload re-expressed as a JSON value; payloads that are not
// already JSON travel as a base64 JSON string and are read back in that form.
type wireMessage struct {
	ID          string            `json:"id"`
	Type        string            `json:"type,omitempty"`
	From        string            `json:"from,omitempty"`
	To          []string          `json:"to,omitempty"`
	CreatedTime *int64            `json:"created_time,omitempty"`
	ExpiresTime *int64            `json:"expires_time,omitempty"`
	Body        json.RawMessage   `json:"body"`
	Other       map[string]string `json:"other,omitempty"`
}

// MarshalJSON renders the DIDComm plaintext portion of m. Body is embedded
// as a raw JSON value when it already parses as JSON, or as a JSON string of
// its base64 form otherwise.
func (m *Message) MarshalJSON() ([]byte, error) {
	body, isJSON := bodyAsRawJSON(m.Body)
	if !isJSON {
		encoded, err := json.Marshal(m.Body) // []byte marshals as a base64 JSON string
		if err != nil {
			return nil, didcommerr.New(didcommerr.KindMalformedEnvelope, "message.MarshalJSON", err)
		}

		body = encoded
	}

	w := wireMessage{
		ID:          m.Header.ID,
		Type:        m.Header.Type,
		From:        m.Header.From,
		To:          m.Header.To,
		CreatedTime: m.Header.CreatedTime,
		ExpiresTime: m.Header.ExpiresTime,
		Body:        body,
		Other:       m.Header.Other,
	}

	return json.Marshal(w)
}

// UnmarshalJSON parses the DIDComm plaintext portion into m.
func (m *Message) UnmarshalJSON(data []byte) error {
	w := wireMessage{}
	if err := json.Unmarshal(data, &w); err != nil {
		return didcommerr.New(didcommerr.KindMalformedEnvelope, "message.UnmarshalJSON", err)
	}

	if w.ID == "" {
		return didcommerr.Newf(didcommerr.KindMalformedEnvelope, "message.UnmarshalJSON", "missing id")
	}

	m.Header = Header{
		ID:          w.ID,
		Type:        w.Type,
		From:        w.From,
		To:          w.To,
		CreatedTime: w.CreatedTime,
		ExpiresTime: w.ExpiresTime,
		Other:       w.Other,
	}
	if m.Header.Other == nil {
		m.Header.Other = map[string]string{}
	}

	m.Body = []byte(w.Body)
	m.Typ = ""
	m.JWMHeader = jose.Headers{}

	return nil
}

func bodyAsRawJSON(body []byte) (json.RawMessage, bool) {
	if len(body) == 0 {
		return json.RawMessage("{}"), true
	}

	if json.Valid(body) {
		return json.RawMessage(body), true
	}

	return nil, false
}

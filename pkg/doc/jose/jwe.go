/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package jose

import (
	"encoding/base64"
	"encoding/json"
	"strings"

	"github.com/pkg/errors"
)

// JSONWebEncryption represents a JWE as defined in RFC 7516. Canonical JSON
// ordering is whatever encoding/json produces for a Go map, which sorts keys
// alphabetically; this implementation relies on that determinism rather than
// tracking explicit key order, and documents it here per spec.md §9's open
// question on protected-header key ordering.
type JSONWebEncryption struct {
	ProtectedHeaders Headers
	Recipients       []Recipient
	IV               string
	Ciphertext       string
	Tag              string
}

// Recipient is one per-recipient entry of a general-serialization JWE.
// EncryptedKey holds the raw wrapped-CEK bytes; base64url encoding happens
// only at serialize/deserialize time, mirroring how IV/Ciphertext/Tag are
// handled on JSONWebEncryption itself.
type Recipient struct {
	EncryptedKey string
	Header       *RecipientHeaders
}

type rawRecipient struct {
	EncryptedKey string            `json:"encrypted_key,omitempty"`
	Header       *RecipientHeaders `json:"header,omitempty"`
}

// RecipientHeaders carries the per-recipient JOSE header fields. In compact
// serialization (exactly one recipient) these are merged into the protected
// header instead of appearing here.
type RecipientHeaders struct {
	Alg string          `json:"alg,omitempty"`
	KID string          `json:"kid,omitempty"`
	EPK json.RawMessage `json:"epk,omitempty"`
	APU string          `json:"apu,omitempty"`
	APV string          `json:"apv,omitempty"`
}

type rawJSONWebEncryption struct {
	Protected  string          `json:"protected"`
	Recipients json.RawMessage `json:"recipients,omitempty"`
	IV         string          `json:"iv,omitempty"`
	Ciphertext string          `json:"ciphertext"`
	Tag        string          `json:"tag,omitempty"`
}

var (
	errEmptyCiphertext = errors.New("jose: ciphertext cannot be empty")
	errNoProtected     = errors.New("jose: missing protected header")
)

// FullSerialize renders the JWE in general JSON serialization (spec.md §4.7).
func (e *JSONWebEncryption) FullSerialize() (string, error) {
	if e.Ciphertext == "" {
		return "", errEmptyCiphertext
	}

	b64Protected, err := e.encodedProtected()
	if err != nil {
		return "", err
	}

	rawRecipients := make([]rawRecipient, len(e.Recipients))
	for i, r := range e.Recipients {
		rawRecipients[i] = rawRecipient{
			EncryptedKey: base64.RawURLEncoding.EncodeToString([]byte(r.EncryptedKey)),
			Header:       r.Header,
		}
	}

	recipientsJSON, err := json.Marshal(rawRecipients)
	if err != nil {
		return "", err
	}

	raw := rawJSONWebEncryption{
		Protected:  b64Protected,
		Recipients: recipientsJSON,
		IV:         base64.RawURLEncoding.EncodeToString([]byte(e.IV)),
		Ciphertext: base64.RawURLEncoding.EncodeToString([]byte(e.Ciphertext)),
		Tag:        base64.RawURLEncoding.EncodeToString([]byte(e.Tag)),
	}

	out, err := json.Marshal(raw)

	return string(out), err
}

// CompactSerialize renders the JWE in compact serialization (RFC 7516 §7.1).
// It requires exactly one recipient with no per-recipient header (the
// recipient's fields must already be merged into ProtectedHeaders).
func (e *JSONWebEncryption) CompactSerialize() (string, error) {
	if e.Ciphertext == "" {
		return "", errEmptyCiphertext
	}

	if len(e.Recipients) != 1 {
		return "", errors.New("jose: compact serialization requires exactly one recipient")
	}

	encryptedKey := e.Recipients[0].EncryptedKey

	b64Protected, err := e.encodedProtected()
	if err != nil {
		return "", err
	}

	parts := []string{
		b64Protected,
		base64.RawURLEncoding.EncodeToString([]byte(encryptedKey)),
		base64.RawURLEncoding.EncodeToString([]byte(e.IV)),
		base64.RawURLEncoding.EncodeToString([]byte(e.Ciphertext)),
		base64.RawURLEncoding.EncodeToString([]byte(e.Tag)),
	}

	return strings.Join(parts, "."), nil
}

func (e *JSONWebEncryption) encodedProtected() (string, error) {
	if len(e.ProtectedHeaders) == 0 {
		return "", errNoProtected
	}

	protectedJSON, err := json.Marshal(e.ProtectedHeaders)
	if err != nil {
		return "", err
	}

	return base64.RawURLEncoding.EncodeToString(protectedJSON), nil
}

// AAD returns the bytes that AEAD-authenticate this JWE: ASCII(BASE64URL(protected)).
func (e *JSONWebEncryption) AAD() ([]byte, error) {
	b64Protected, err := e.encodedProtected()
	if err != nil {
		return nil, err
	}

	return []byte(b64Protected), nil
}

// DeserializeJWE parses either general or compact JWE serialization.
func DeserializeJWE(data string) (*JSONWebEncryption, error) {
	trimmed := strings.TrimSpace(data)

	if strings.HasPrefix(trimmed, "{") {
		return deserializeFullJWE(trimmed)
	}

	return deserializeCompactJWE(trimmed)
}

func deserializeFullJWE(data string) (*JSONWebEncryption, error) {
	raw := &rawJSONWebEncryption{}

	if err := json.Unmarshal([]byte(data), raw); err != nil {
		return nil, err
	}

	protected, err := decodeProtected(raw.Protected)
	if err != nil {
		return nil, err
	}

	var recipients []Recipient

	if len(raw.Recipients) > 0 {
		var rawRecipients []rawRecipient
		if err := json.Unmarshal(raw.Recipients, &rawRecipients); err != nil {
			return nil, err
		}

		recipients = make([]Recipient, len(rawRecipients))

		for i, rr := range rawRecipients {
			encryptedKey, err := base64.RawURLEncoding.DecodeString(rr.EncryptedKey)
			if err != nil {
				return nil, err
			}

			recipients[i] = Recipient{EncryptedKey: string(encryptedKey), Header: rr.Header}
		}
	}

	iv, err := base64.RawURLEncoding.DecodeString(raw.IV)
	if err != nil {
		return nil, err
	}

	ciphertext, err := base64.RawURLEncoding.DecodeString(raw.Ciphertext)
	if err != nil {
		return nil, err
	}

	tag, err := base64.RawURLEncoding.DecodeString(raw.Tag)
	if err != nil {
		return nil, err
	}

	return &JSONWebEncryption{
		ProtectedHeaders: protected,
		Recipients:       recipients,
		IV:               string(iv),
		Ciphertext:       string(ciphertext),
		Tag:              string(tag),
	}, nil
}

func deserializeCompactJWE(data string) (*JSONWebEncryption, error) {
	parts := strings.Split(data, ".")
	if len(parts) != 5 {
		return nil, errors.New("jose: compact JWE must have 5 parts")
	}

	protected, err := decodeProtected(parts[0])
	if err != nil {
		return nil, err
	}

	encryptedKey, err := base64.RawURLEncoding.DecodeString(parts[1])
	if err != nil {
		return nil, err
	}

	iv, err := base64.RawURLEncoding.DecodeString(parts[2])
	if err != nil {
		return nil, err
	}

	ciphertext, err := base64.RawURLEncoding.DecodeString(parts[3])
	if err != nil {
		return nil, err
	}

	tag, err := base64.RawURLEncoding.DecodeString(parts[4])
	if err != nil {
		return nil, err
	}

	return &JSONWebEncryption{
		ProtectedHeaders: protected,
		Recipients:       []Recipient{{EncryptedKey: string(encryptedKey)}},
		IV:               string(iv),
		Ciphertext:       string(ciphertext),
		Tag:              string(tag),
	}, nil
}

func decodeProtected(b64 string) (Headers, error) {
	if b64 == "" {
		return nil, errNoProtected
	}

	protectedJSON, err := base64.RawURLEncoding.DecodeString(b64)
	if err != nil {
		return nil, err
	}

	headers := Headers{}
	if err := json.Unmarshal(protectedJSON, &headers); err != nil {
		return nil, err
	}

	return headers, nil
}

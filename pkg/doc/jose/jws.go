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

// JSONWebSignature represents a JWS as defined in RFC 7515, supporting
// multiple signatures for the general JSON serialization (spec.md §4.6).
type JSONWebSignature struct {
	Payload    string
	Signatures []Signature
}

// Signature is one signature entry of a JWS.
type Signature struct {
	Protected Headers
	Signature string
}

type rawSignature struct {
	Protected string `json:"protected"`
	Signature string `json:"signature"`
}

type rawJSONWebSignature struct {
	Payload    string         `json:"payload"`
	Signatures []rawSignature `json:"signatures"`
}

// SigningInput returns BASE64URL(protected) || "." || BASE64URL(payload) for
// the given signature's protected header, as required by RFC 7515 §5.1.
func (s *JSONWebSignature) SigningInput(sigIdx int) (string, error) {
	protectedJSON, err := json.Marshal(s.Signatures[sigIdx].Protected)
	if err != nil {
		return "", err
	}

	b64Protected := base64.RawURLEncoding.EncodeToString(protectedJSON)
	b64Payload := base64.RawURLEncoding.EncodeToString([]byte(s.Payload))

	return b64Protected + "." + b64Payload, nil
}

// FullSerialize renders the JWS in general JSON serialization.
func (s *JSONWebSignature) FullSerialize() (string, error) {
	if len(s.Signatures) == 0 {
		return "", errors.New("jose: JWS has no signatures")
	}

	raw := rawJSONWebSignature{
		Payload: base64.RawURLEncoding.EncodeToString([]byte(s.Payload)),
	}

	for i, sig := range s.Signatures {
		protectedJSON, err := json.Marshal(sig.Protected)
		if err != nil {
			return "", err
		}

		raw.Signatures = append(raw.Signatures, rawSignature{
			Protected: base64.RawURLEncoding.EncodeToString(protectedJSON),
			Signature: base64.RawURLEncoding.EncodeToString([]byte(s.Signatures[i].Signature)),
		})
	}

	out, err := json.Marshal(raw)

	return string(out), err
}

// CompactSerialize renders the JWS in compact serialization (RFC 7515 §7.1).
// It requires exactly one signature.
func (s *JSONWebSignature) CompactSerialize() (string, error) {
	if len(s.Signatures) != 1 {
		return "", errors.New("jose: compact JWS requires exactly one signature")
	}

	protectedJSON, err := json.Marshal(s.Signatures[0].Protected)
	if err != nil {
		return "", err
	}

	parts := []string{
		base64.RawURLEncoding.EncodeToString(protectedJSON),
		base64.RawURLEncoding.EncodeToString([]byte(s.Payload)),
		base64.RawURLEncoding.EncodeToString([]byte(s.Signatures[0].Signature)),
	}

	return strings.Join(parts, "."), nil
}

// DeserializeJWS parses either general or compact JWS serialization.
func DeserializeJWS(data string) (*JSONWebSignature, error) {
	trimmed := strings.TrimSpace(data)

	if strings.HasPrefix(trimmed, "{") {
		return deserializeFullJWS(trimmed)
	}

	return deserializeCompactJWS(trimmed)
}

func deserializeFullJWS(data string) (*JSONWebSignature, error) {
	raw := &rawJSONWebSignature{}
	if err := json.Unmarshal([]byte(data), raw); err != nil {
		return nil, err
	}

	if len(raw.Signatures) == 0 {
		return nil, errors.New("jose: JWS has no signatures")
	}

	payload, err := base64.RawURLEncoding.DecodeString(raw.Payload)
	if err != nil {
		return nil, err
	}

	jws := &JSONWebSignature{Payload: string(payload)}

	for _, rs := range raw.Signatures {
		protectedJSON, err := base64.RawURLEncoding.DecodeString(rs.Protected)
		if err != nil {
			return nil, err
		}

		headers := Headers{}
		if err := json.Unmarshal(protectedJSON, &headers); err != nil {
			return nil, err
		}

		sig, err := base64.RawURLEncoding.DecodeString(rs.Signature)
		if err != nil {
			return nil, err
		}

		jws.Signatures = append(jws.Signatures, Signature{Protected: headers, Signature: string(sig)})
	}

	return jws, nil
}

func deserializeCompactJWS(data string) (*JSONWebSignature, error) {
	parts := strings.Split(data, ".")
	if len(parts) != 3 {
		return nil, errors.New("jose: compact JWS must have 3 parts")
	}

	protectedJSON, err := base64.RawURLEncoding.DecodeString(parts[0])
	if err != nil {
		return nil, err
	}

	headers := Headers{}
	if err := json.Unmarshal(protectedJSON, &headers); err != nil {
		return nil, err
	}

	payload, err := base64.RawURLEncoding.DecodeString(parts[1])
	if err != nil {
		return nil, err
	}

	sig, err := base64.RawURLEncoding.DecodeString(parts[2])
	if err != nil {
		return nil, err
	}

	return &JSONWebSignature{
		Payload:    string(payload),
		Signatures: []Signature{{Protected: headers, Signature: string(sig)}},
	}, nil
}

/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package jose

import (
	"crypto/ecdsa"
	"crypto/elliptic"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"math/big"

	"github.com/btcsuite/btcd/btcec/v2"
	gojose "github.com/go-jose/go-jose/v3"
	"github.com/pkg/errors"
)

// ErrInvalidKey is returned when a JWK cannot be parsed or lacks required fields.
var ErrInvalidKey = errors.New("jose: invalid JWK")

// JWK represents a JSON Web Key sufficient to carry the ephemeral public keys
// (`epk`) this engine exchanges. EC keys (P-256, secp256k1) delegate to
// go-jose's JSONWebKey, which natively marshals *ecdsa.PublicKey; OKP keys
// (X25519, Ed25519) are marshalled by hand since go-jose v3 does not support
// raw byte OKP keys directly.
type JWK struct {
	Kty string
	Crv string
	X   []byte
	Y   []byte
	KID string
}

type rawOKPJWK struct {
	Kty string `json:"kty"`
	Crv string `json:"crv"`
	X   string `json:"x"`
	KID string `json:"kid,omitempty"`
}

// MarshalJSON renders the JWK as JSON.
func (j *JWK) MarshalJSON() ([]byte, error) {
	switch j.Kty {
	case "OKP":
		return json.Marshal(rawOKPJWK{
			Kty: j.Kty,
			Crv: j.Crv,
			X:   base64.RawURLEncoding.EncodeToString(j.X),
			KID: j.KID,
		})
	case "EC":
		curve, err := curveFor(j.Crv)
		if err != nil {
			return nil, err
		}

		gjwk := gojose.JSONWebKey{
			Key: &ecdsa.PublicKey{
				Curve: curve,
				X:     new(big.Int).SetBytes(j.X),
				Y:     new(big.Int).SetBytes(j.Y),
			},
			KeyID: j.KID,
		}

		return gjwk.MarshalJSON()
	default:
		return nil, fmt.Errorf("%w: unsupported kty %q", ErrInvalidKey, j.Kty)
	}
}

// UnmarshalJSON parses a JWK. It first tries the OKP shape (which go-jose
// cannot parse), then falls back to go-jose's EC parsing.
func (j *JWK) UnmarshalJSON(data []byte) error {
	var probe struct {
		Kty string `json:"kty"`
	}

	if err := json.Unmarshal(data, &probe); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidKey, err)
	}

	if probe.Kty == "OKP" {
		raw := rawOKPJWK{}
		if err := json.Unmarshal(data, &raw); err != nil {
			return fmt.Errorf("%w: %v", ErrInvalidKey, err)
		}

		x, err := base64.RawURLEncoding.DecodeString(raw.X)
		if err != nil {
			return fmt.Errorf("%w: %v", ErrInvalidKey, err)
		}

		j.Kty, j.Crv, j.X, j.KID = raw.Kty, raw.Crv, x, raw.KID

		return nil
	}

	gjwk := gojose.JSONWebKey{}
	if err := gjwk.UnmarshalJSON(data); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidKey, err)
	}

	ecKey, ok := gjwk.Key.(*ecdsa.PublicKey)
	if !ok {
		return fmt.Errorf("%w: unsupported JWK key type", ErrInvalidKey)
	}

	j.Kty = "EC"
	j.Crv = ecKey.Curve.Params().Name
	j.X = ecKey.X.Bytes()
	j.Y = ecKey.Y.Bytes()
	j.KID = gjwk.KeyID

	return nil
}

func curveFor(name string) (elliptic.Curve, error) {
	switch name {
	case "P-256":
		return elliptic.P256(), nil
	case "secp256k1":
		return btcec.S256(), nil
	default:
		return nil, fmt.Errorf("%w: unsupported EC curve %q", ErrInvalidKey, name)
	}
}
